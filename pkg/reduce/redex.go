// Package reduce implements beta reduction over de Bruijn lambda terms:
// redex enumeration, single steps under several strategies, and bounded
// normalization.
package reduce

import (
	"fmt"

	"github.com/vic/lambdalab/pkg/lambda"
)

type direction uint8

const (
	intoBody direction = iota
	intoFun
	intoArg
)

type trail struct {
	dir direction
	up  *trail
}

func (t *trail) path(length int) []direction {
	out := make([]direction, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = t.dir
		t = t.up
	}
	return out
}

// Redex locates one beta redex inside a term.
type Redex struct {
	// Index is the position of the redex in left-to-right pre-order.
	Index int
	// Depth is the number of abstractions enclosing the redex.
	Depth int
	// Term is the redex itself.
	Term lambda.App

	path []direction
}

// contains reports whether other lies strictly inside r.
func (r Redex) contains(other Redex) bool {
	if len(other.path) <= len(r.path) {
		return false
	}
	for i, d := range r.path {
		if other.path[i] != d {
			return false
		}
	}
	return true
}

// IsRedex reports whether t is an application whose function side is an
// abstraction.
func IsRedex(t lambda.Term) bool {
	app, ok := t.(lambda.App)
	if !ok {
		return false
	}
	_, ok = app.Fun.(lambda.Abs)
	return ok
}

// HasBetaRedex reports whether t contains at least one redex.
func HasBetaRedex(t lambda.Term) bool {
	found := false
	enumerate(t, func(Redex) bool {
		found = true
		return false
	})
	return found
}

// BetaRedexCount returns the number of redexes in t.
func BetaRedexCount(t lambda.Term) int {
	n := 0
	enumerate(t, func(Redex) bool {
		n++
		return true
	})
	return n
}

// Redexes lists every redex of t in canonical left-to-right pre-order: an
// enclosing redex comes before the redexes inside it, and the function side
// before the argument side.
func Redexes(t lambda.Term) []Redex {
	var out []Redex
	enumerate(t, func(r Redex) bool {
		out = append(out, r)
		return true
	})
	return out
}

// enumerate calls visit on the redexes of t in pre-order until visit returns
// false.
func enumerate(t lambda.Term, visit func(Redex) bool) {
	type item struct {
		term   lambda.Term
		depth  int
		trail  *trail
		length int
	}
	index := 0
	stack := []item{{term: t}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := it.term.(type) {
		case lambda.Var:
		case lambda.Abs:
			stack = append(stack, item{n.Body, it.depth + 1, &trail{intoBody, it.trail}, it.length + 1})
		case lambda.App:
			if IsRedex(n) {
				r := Redex{Index: index, Depth: it.depth, Term: n, path: it.trail.path(it.length)}
				index++
				if !visit(r) {
					return
				}
			}
			stack = append(stack,
				item{n.Arg, it.depth, &trail{intoArg, it.trail}, it.length + 1},
				item{n.Fun, it.depth, &trail{intoFun, it.trail}, it.length + 1})
		default:
			panic(fmt.Sprintf("reduce: unknown term type %T", it.term))
		}
	}
}

// Contract beta-reduces t, which must itself be a redex.
func Contract(t lambda.Term) lambda.Term {
	if !IsRedex(t) {
		panic(fmt.Sprintf("reduce: contract called on non-redex %s", t))
	}
	app := t.(lambda.App)
	return lambda.BetaReduce(app.Fun.(lambda.Abs), app.Arg)
}

// ReduceAt contracts the redex with the given pre-order index and leaves the
// rest of t untouched. Asking for a redex that does not exist is a
// programming error.
func ReduceAt(t lambda.Term, index int) lambda.Term {
	var target *Redex
	enumerate(t, func(r Redex) bool {
		if r.Index == index {
			target = &r
			return false
		}
		return true
	})
	if target == nil {
		panic(fmt.Sprintf("reduce: redex %d out of range for %s", index, t))
	}
	return reduceRedex(t, *target)
}

func reduceRedex(t lambda.Term, r Redex) lambda.Term {
	return replaceAt(t, r.path, Contract(r.Term))
}

// replaceAt rebuilds the spine of t along path with repl at its end.
func replaceAt(t lambda.Term, path []direction, repl lambda.Term) lambda.Term {
	spine := make([]lambda.Term, len(path))
	cur := t
	for i, d := range path {
		spine[i] = cur
		switch d {
		case intoBody:
			cur = cur.(lambda.Abs).Body
		case intoFun:
			cur = cur.(lambda.App).Fun
		case intoArg:
			cur = cur.(lambda.App).Arg
		}
	}
	for i := len(path) - 1; i >= 0; i-- {
		switch parent := spine[i].(type) {
		case lambda.Abs:
			repl = lambda.Abs{Label: parent.Label, Body: repl}
		case lambda.App:
			if path[i] == intoFun {
				repl = lambda.App{Fun: repl, Arg: parent.Arg}
			} else {
				repl = lambda.App{Fun: parent.Fun, Arg: repl}
			}
		}
	}
	return repl
}
