// Package analysis computes structural metrics of lambda terms: crossings,
// bridges, linearity, planarity and closedness, plus an aggregate Profile.
package analysis

import (
	"github.com/vic/lambdalab/pkg/lambda"
	"github.com/vic/lambdalab/pkg/reduce"
)

// summary is the per-node result of the structural fold.
type summary struct {
	// free holds the free variable occurrences of the node, relative to the
	// node, sorted ascending.
	free      []int
	crossings int
	bridges   int
	linear    bool
}

// fold computes the summary of t bottom-up with an explicit stack.
func fold(t lambda.Term) summary {
	type frame struct {
		term     lambda.Term
		expanded bool
	}
	stack := []frame{{term: t}}
	var results []summary
	pop := func() summary {
		s := results[len(results)-1]
		results = results[:len(results)-1]
		return s
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := f.term.(type) {
		case lambda.Var:
			results = append(results, summary{free: []int{n.Index}, linear: true})
		case lambda.Abs:
			if !f.expanded {
				stack = append(stack, frame{n, true}, frame{term: n.Body})
				continue
			}
			body := pop()
			uses := 0
			for uses < len(body.free) && body.free[uses] == 0 {
				uses++
			}
			free := make([]int, 0, len(body.free)-uses)
			for _, i := range body.free[uses:] {
				free = append(free, i-1)
			}
			results = append(results, summary{
				free:      free,
				crossings: body.crossings,
				bridges:   body.bridges,
				linear:    body.linear && uses == 1,
			})
		case lambda.App:
			if !f.expanded {
				stack = append(stack, frame{n, true}, frame{term: n.Arg}, frame{term: n.Fun})
				continue
			}
			arg := pop()
			fun := pop()
			s := summary{
				free:      merge(fun.free, arg.free),
				crossings: fun.crossings + arg.crossings + crossed(fun.free, arg.free),
				bridges:   fun.bridges + arg.bridges,
				linear:    fun.linear && arg.linear,
			}
			if len(fun.free) == 0 || len(arg.free) == 0 {
				s.bridges++
			}
			results = append(results, s)
		default:
			panic("analysis: unknown term type")
		}
	}
	return results[0]
}

// crossed counts the pairs (i, j) with i from left, j from right and i < j.
// Both slices are sorted.
func crossed(left, right []int) int {
	n, j := 0, 0
	for _, i := range left {
		for j < len(right) && right[j] <= i {
			j++
		}
		n += len(right) - j
	}
	return n
}

func merge(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Crossings returns the crossing count of t. An application contributes one
// crossing for each pair of free occurrences i on its function side and j on
// its argument side with i < j, indices taken relative to the application.
func Crossings(t lambda.Term) int {
	return fold(t).crossings
}

// Bridges returns the number of application nodes one of whose sides has no
// free variable: removing such a node splits the variable usage of the term
// into two unconnected parts.
func Bridges(t lambda.Term) int {
	return fold(t).bridges
}

// Bridgeless reports whether t has no bridges.
func Bridgeless(t lambda.Term) bool {
	return Bridges(t) == 0
}

// Linear reports whether every abstraction of t uses its variable exactly
// once. Free variables are not constrained.
func Linear(t lambda.Term) bool {
	return fold(t).linear
}

// Planar reports whether t is linear and has no crossings.
func Planar(t lambda.Term) bool {
	s := fold(t)
	return s.linear && s.crossings == 0
}

// Closed reports whether every free variable of t is covered by the
// innermost contextLength context entries.
func Closed(t lambda.Term, contextLength int) bool {
	return lambda.IsClosed(t, contextLength)
}

// Profile gathers every metric of one term.
type Profile struct {
	Term            string `json:"term" yaml:"term"`
	Subterms        int    `json:"subterms" yaml:"subterms"`
	Size            int    `json:"size" yaml:"size"`
	Abstractions    int    `json:"abstractions" yaml:"abstractions"`
	Applications    int    `json:"applications" yaml:"applications"`
	Variables       int    `json:"variables" yaml:"variables"`
	FreeVariables   int    `json:"free_variables" yaml:"free_variables"`
	BoundVariables  int    `json:"bound_variables" yaml:"bound_variables"`
	UniqueVariables int    `json:"unique_variables" yaml:"unique_variables"`
	Redexes         int    `json:"redexes" yaml:"redexes"`
	Crossings       int    `json:"crossings" yaml:"crossings"`
	Bridges         int    `json:"bridges" yaml:"bridges"`
	Linear          bool   `json:"linear" yaml:"linear"`
	Planar          bool   `json:"planar" yaml:"planar"`
	Bridgeless      bool   `json:"bridgeless" yaml:"bridgeless"`
	Closed          bool   `json:"closed" yaml:"closed"`
	Normal          bool   `json:"normal" yaml:"normal"`
}

// Analyze computes the Profile of t under a context of contextLength names.
func Analyze(t lambda.Term, contextLength int) Profile {
	s := fold(t)
	redexes := reduce.BetaRedexCount(t)
	return Profile{
		Term:            t.String(),
		Subterms:        lambda.Subterms(t),
		Size:            lambda.Size(t),
		Abstractions:    lambda.Abstractions(t),
		Applications:    lambda.Applications(t),
		Variables:       lambda.Variables(t),
		FreeVariables:   lambda.FreeVariables(t),
		BoundVariables:  lambda.BoundVariables(t),
		UniqueVariables: lambda.UniqueVariables(t),
		Redexes:         redexes,
		Crossings:       s.crossings,
		Bridges:         s.bridges,
		Linear:          s.linear,
		Planar:          s.linear && s.crossings == 0,
		Bridgeless:      s.bridges == 0,
		Closed:          lambda.IsClosed(t, contextLength),
		Normal:          redexes == 0,
	}
}
