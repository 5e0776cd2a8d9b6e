package lambda

import "fmt"

// rebuild returns a copy of t in which every variable occurrence v found
// under depth abstractions is replaced by f(v, depth). Unchanged structure is
// reconstructed, never mutated.
func rebuild(t Term, f func(v Var, depth int) Term) Term {
	type frame struct {
		term     Term
		depth    int
		expanded bool
	}
	stack := []frame{{term: t}}
	var out []Term
	pop := func() Term {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		return last
	}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := fr.term.(type) {
		case Var:
			out = append(out, f(n, fr.depth))
		case Abs:
			if fr.expanded {
				out = append(out, Abs{Label: n.Label, Body: pop()})
				continue
			}
			stack = append(stack,
				frame{term: n, depth: fr.depth, expanded: true},
				frame{term: n.Body, depth: fr.depth + 1})
		case App:
			if fr.expanded {
				arg := pop()
				fun := pop()
				out = append(out, App{Fun: fun, Arg: arg})
				continue
			}
			stack = append(stack,
				frame{term: n, depth: fr.depth, expanded: true},
				frame{term: n.Arg, depth: fr.depth},
				frame{term: n.Fun, depth: fr.depth})
		default:
			panic(unknownTerm(fr.term))
		}
	}
	return pop()
}

// Shift adds amount to every variable index of t that is at least cutoff,
// where the cutoff grows by one under each abstraction. A cutoff of 0 on a
// whole term shifts exactly its free variables.
func Shift(t Term, amount, cutoff int) Term {
	if amount == 0 {
		return t
	}
	return rebuild(t, func(v Var, depth int) Term {
		if v.Index < cutoff+depth {
			return v
		}
		shifted := v.Index + amount
		if shifted < 0 {
			panic(fmt.Sprintf("lambda: shift by %d drives index %d negative", amount, v.Index))
		}
		return Var{Index: shifted}
	})
}

// Substitute replaces every occurrence of the variable target in t with
// replacement. Under each abstraction the target grows by one and the
// replacement is shifted up by one so it keeps referring to the same
// variables.
func Substitute(replacement Term, target int, t Term) Term {
	shifted := []Term{replacement}
	at := func(depth int) Term {
		for len(shifted) <= depth {
			shifted = append(shifted, Shift(shifted[len(shifted)-1], 1, 0))
		}
		return shifted[depth]
	}
	return rebuild(t, func(v Var, depth int) Term {
		if v.Index == target+depth {
			return at(depth)
		}
		return v
	})
}

// BetaReduce contracts the redex (abs arg): the argument is shifted into the
// abstraction's scope, substituted for index 0, and the result is shifted
// back down past the consumed binder.
func BetaReduce(abs Abs, arg Term) Term {
	return Shift(Substitute(Shift(arg, 1, 0), 0, abs.Body), -1, 0)
}

// Renumber rewrites the free variables of t, replacing free index i by
// mapping(i). Bound variables are untouched.
func Renumber(t Term, mapping func(index int) int) Term {
	return rebuild(t, func(v Var, depth int) Term {
		if v.Index < depth {
			return v
		}
		return Var{Index: mapping(v.Index-depth) + depth}
	})
}
