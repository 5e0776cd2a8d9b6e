package reduce

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vic/lambdalab/pkg/lambda"
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognised names.
var ErrUnknownStrategy = errors.New("unknown reduction strategy")

// Strategy selects which redex a single reduction step contracts.
type Strategy int

const (
	// Outermost contracts the leftmost redex not nested inside another redex.
	Outermost Strategy = iota
	// InnermostLeftmost contracts the leftmost redex containing no redex.
	InnermostLeftmost
	// InnermostRightmost contracts the rightmost redex containing no redex.
	InnermostRightmost
)

// Strategies lists every strategy in declaration order.
var Strategies = []Strategy{Outermost, InnermostLeftmost, InnermostRightmost}

func (s Strategy) String() string {
	switch s {
	case Outermost:
		return "outermost"
	case InnermostLeftmost:
		return "innermost-leftmost"
	case InnermostRightmost:
		return "innermost-rightmost"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a strategy name, as printed by String, back to its
// value. Matching is case-insensitive.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Select returns the redex s would contract among redexes, which must be in
// the pre-order produced by Redexes. ok is false when there is none.
func (s Strategy) Select(redexes []Redex) (Redex, bool) {
	if len(redexes) == 0 {
		return Redex{}, false
	}
	switch s {
	case Outermost:
		return redexes[0], true
	case InnermostLeftmost:
		// Pre-order places a redex's inner redexes right after it, so a redex
		// is innermost iff its successor is not inside it.
		for i, r := range redexes {
			if i == len(redexes)-1 || !r.contains(redexes[i+1]) {
				return r, true
			}
		}
	case InnermostRightmost:
		return redexes[len(redexes)-1], true
	}
	panic(fmt.Sprintf("reduce: unknown strategy %d", int(s)))
}

// Step performs one reduction of t under s. It returns t unchanged and false
// when t is already in normal form.
func Step(t lambda.Term, s Strategy) (lambda.Term, bool) {
	next, _, ok := step(t, s)
	return next, ok
}

func step(t lambda.Term, s Strategy) (lambda.Term, Redex, bool) {
	if s == Outermost {
		// The first redex in pre-order is the outermost one; stop there.
		var first *Redex
		enumerate(t, func(r Redex) bool {
			first = &r
			return false
		})
		if first == nil {
			return t, Redex{}, false
		}
		return reduceRedex(t, *first), *first, true
	}
	r, ok := s.Select(Redexes(t))
	if !ok {
		return t, Redex{}, false
	}
	return reduceRedex(t, r), r, true
}
