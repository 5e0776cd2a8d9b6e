// Package lambda implements untyped lambda terms in de Bruijn form together
// with the shifting and substitution machinery every reduction builds on.
package lambda

import "fmt"

// Term represents a lambda calculus term.
//
// Terms are immutable values: every transformation returns a new term.
type Term interface {
	// String returns the canonical de Bruijn rendering of the term. Two terms
	// print the same iff they are equal up to binder labels.
	String() string
	isTerm()
}

// Var represents a variable usage. Index counts the abstractions between the
// usage and its binder. Indices reaching past every enclosing abstraction
// refer to the free variable context.
type Var struct {
	Index int
}

func (v Var) String() string { return DeBruijn(v) }
func (Var) isTerm()          {}

// Abs represents an abstraction (lambda). Label is the display name of the
// bound variable; it takes no part in equality or reduction.
type Abs struct {
	Label string
	Body  Term
}

func (a Abs) String() string { return DeBruijn(a) }
func (Abs) isTerm()          {}

// App represents an application.
type App struct {
	Fun Term
	Arg Term
}

func (a App) String() string { return DeBruijn(a) }
func (App) isTerm()          {}

// Apply builds the left-associated application f a1 a2 ... an.
func Apply(f Term, args ...Term) Term {
	for _, a := range args {
		f = App{Fun: f, Arg: a}
	}
	return f
}

// Lambda wraps body in one abstraction per label, outermost first.
func Lambda(body Term, labels ...string) Term {
	for i := len(labels) - 1; i >= 0; i-- {
		body = Abs{Label: labels[i], Body: body}
	}
	return body
}

func unknownTerm(t Term) string {
	return fmt.Sprintf("unknown term type %T", t)
}
