package lambda

import (
	"strconv"
	"strings"
)

type printKind int

const (
	printTerm printKind = iota
	printText
	printUnbind
)

type printItem struct {
	kind printKind
	term Term
	text string
}

// printer renders terms with application left-associative and binding
// tighter than an abstraction body, so only an abstraction in function
// position and a compound argument need parentheses.
type printer struct {
	b     strings.Builder
	names []string // bound names, innermost last
	named bool
	ctx   *Context
}

// DeBruijn renders t with numeric indices, e.g. "λ.λ.1 0".
func DeBruijn(t Term) string {
	p := &printer{}
	p.print(t)
	return p.b.String()
}

// Named renders t with binder labels and context names, e.g. "λx.λy.x y".
// Binder labels that would capture an outer name are primed. Free indices
// escaping ctx print as Unknown.
func Named(t Term, ctx *Context) string {
	p := &printer{named: true, ctx: ctx}
	p.print(t)
	return p.b.String()
}

func (p *printer) print(t Term) {
	stack := []printItem{{kind: printTerm, term: t}}
	push := func(items ...printItem) {
		for i := len(items) - 1; i >= 0; i-- {
			stack = append(stack, items[i])
		}
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch it.kind {
		case printText:
			p.b.WriteString(it.text)
			continue
		case printUnbind:
			p.names = p.names[:len(p.names)-1]
			continue
		}
		switch n := it.term.(type) {
		case Var:
			p.b.WriteString(p.varName(n))
		case Abs:
			name := p.binderName(n.Label)
			p.b.WriteString("λ" + name + ".")
			p.names = append(p.names, name)
			push(printItem{kind: printTerm, term: n.Body}, printItem{kind: printUnbind})
		case App:
			_, absFun := n.Fun.(Abs)
			_, varArg := n.Arg.(Var)
			items := append(wrapped(n.Fun, absFun), printItem{kind: printText, text: " "})
			push(append(items, wrapped(n.Arg, !varArg)...)...)
		default:
			panic(unknownTerm(it.term))
		}
	}
}

// wrapped returns the items printing t, in parentheses when paren is set.
func wrapped(t Term, paren bool) []printItem {
	if !paren {
		return []printItem{{kind: printTerm, term: t}}
	}
	return []printItem{
		{kind: printText, text: "("},
		{kind: printTerm, term: t},
		{kind: printText, text: ")"},
	}
}

func (p *printer) varName(v Var) string {
	depth := len(p.names)
	if !p.named {
		return strconv.Itoa(v.Index)
	}
	if v.Index < depth {
		return p.names[depth-1-v.Index]
	}
	return p.ctx.Name(v.Index - depth)
}

func (p *printer) binderName(label string) string {
	if !p.named {
		return ""
	}
	if label == "" {
		label = "x"
	}
	for p.inScope(label) {
		label += "'"
	}
	return label
}

func (p *printer) inScope(name string) bool {
	for _, n := range p.names {
		if n == name {
			return true
		}
	}
	return p.ctx.Contains(name)
}
