package lambda

import "github.com/samber/lo"

// Walk visits t and every subterm of t in pre-order, function side before
// argument side. depth is the number of abstractions between t and the
// visited subterm.
//
// Walk keeps its own work stack so arbitrarily deep terms do not exhaust the
// goroutine stack.
func Walk(t Term, visit func(sub Term, depth int)) {
	type item struct {
		term  Term
		depth int
	}
	stack := []item{{term: t}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(it.term, it.depth)
		switch n := it.term.(type) {
		case Var:
		case Abs:
			stack = append(stack, item{n.Body, it.depth + 1})
		case App:
			stack = append(stack, item{n.Arg, it.depth}, item{n.Fun, it.depth})
		default:
			panic(unknownTerm(it.term))
		}
	}
}

// Subterms returns the number of nodes in t, t itself included.
func Subterms(t Term) int {
	n := 0
	Walk(t, func(Term, int) { n++ })
	return n
}

// Abstractions returns the number of abstraction nodes in t.
func Abstractions(t Term) int {
	return count(t, func(sub Term) bool { _, ok := sub.(Abs); return ok })
}

// Applications returns the number of application nodes in t.
func Applications(t Term) int {
	return count(t, func(sub Term) bool { _, ok := sub.(App); return ok })
}

// Variables returns the number of variable occurrences in t.
func Variables(t Term) int {
	return count(t, func(sub Term) bool { _, ok := sub.(Var); return ok })
}

// Size returns the number of internal nodes (abstractions and applications)
// of t. It is the size measure used by term generation.
func Size(t Term) int {
	return Abstractions(t) + Applications(t)
}

func count(t Term, pred func(Term) bool) int {
	n := 0
	Walk(t, func(sub Term, _ int) {
		if pred(sub) {
			n++
		}
	})
	return n
}

// FreeVariableIndices lists, in left-to-right occurrence order, the index of
// every variable occurrence that resolves outside t, relative to t.
func FreeVariableIndices(t Term) []int {
	var out []int
	Walk(t, func(sub Term, depth int) {
		if v, ok := sub.(Var); ok && v.Index >= depth {
			out = append(out, v.Index-depth)
		}
	})
	return out
}

// FreeVariables returns the number of distinct free variables of t.
func FreeVariables(t Term) int {
	return len(lo.Uniq(FreeVariableIndices(t)))
}

// BoundVariables returns the number of variable occurrences bound inside t.
func BoundVariables(t Term) int {
	n := 0
	Walk(t, func(sub Term, depth int) {
		if v, ok := sub.(Var); ok && v.Index < depth {
			n++
		}
	})
	return n
}

type scope struct {
	id int
	up *scope
}

// UniqueVariables returns the number of distinct variables referenced by t:
// every binder with at least one use plus every distinct free variable.
func UniqueVariables(t Term) int {
	type item struct {
		term  Term
		sc    *scope
		depth int
	}
	bound := make(map[int]struct{})
	free := make(map[int]struct{})
	next := 0
	stack := []item{{term: t}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := it.term.(type) {
		case Var:
			if n.Index >= it.depth {
				free[n.Index-it.depth] = struct{}{}
				continue
			}
			s := it.sc
			for i := 0; i < n.Index; i++ {
				s = s.up
			}
			bound[s.id] = struct{}{}
		case Abs:
			stack = append(stack, item{n.Body, &scope{id: next, up: it.sc}, it.depth + 1})
			next++
		case App:
			stack = append(stack, item{n.Arg, it.sc, it.depth}, item{n.Fun, it.sc, it.depth})
		default:
			panic(unknownTerm(it.term))
		}
	}
	return len(bound) + len(free)
}

// NumberOfUses counts the occurrences in t of the variable with the given
// index at t's own binding depth.
func NumberOfUses(t Term, index int) int {
	n := 0
	Walk(t, func(sub Term, depth int) {
		if v, ok := sub.(Var); ok && v.Index-depth == index {
			n++
		}
	})
	return n
}

// IsClosed reports whether every variable of t resolves within t or within
// the innermost contextLength entries of its context.
func IsClosed(t Term, contextLength int) bool {
	closed := true
	Walk(t, func(sub Term, depth int) {
		if v, ok := sub.(Var); ok && v.Index >= depth+contextLength {
			closed = false
		}
	})
	return closed
}

// Equal reports whether a and b are the same de Bruijn term. Binder labels
// are ignored.
func Equal(a, b Term) bool {
	type pair struct{ a, b Term }
	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch x := p.a.(type) {
		case Var:
			y, ok := p.b.(Var)
			if !ok || x.Index != y.Index {
				return false
			}
		case Abs:
			y, ok := p.b.(Abs)
			if !ok {
				return false
			}
			stack = append(stack, pair{x.Body, y.Body})
		case App:
			y, ok := p.b.(App)
			if !ok {
				return false
			}
			stack = append(stack, pair{x.Arg, y.Arg}, pair{x.Fun, y.Fun})
		default:
			panic(unknownTerm(p.a))
		}
	}
	return true
}
