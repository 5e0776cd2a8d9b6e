package generate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/vic/lambdalab/pkg/analysis"
	"github.com/vic/lambdalab/pkg/lambda"
	"github.com/vic/lambdalab/pkg/reduce"
)

// ErrUnknownFilter is returned by ParseFilter for unrecognised names.
var ErrUnknownFilter = errors.New("unknown filter")

// Filter keeps the terms for which it returns true.
type Filter func(lambda.Term) bool

// Closed keeps terms without free variables.
func Closed(t lambda.Term) bool { return lambda.IsClosed(t, 0) }

// Normal keeps terms without a beta redex.
func Normal(t lambda.Term) bool { return !reduce.HasBetaRedex(t) }

// Bridgeless keeps terms without bridges.
func Bridgeless(t lambda.Term) bool { return analysis.Bridgeless(t) }

// PlanarOnly keeps planar terms.
func PlanarOnly(t lambda.Term) bool { return analysis.Planar(t) }

var filters = map[string]Filter{
	"closed":     Closed,
	"normal":     Normal,
	"bridgeless": Bridgeless,
	"planar":     PlanarOnly,
}

// FilterNames lists the names accepted by ParseFilter.
var FilterNames = []string{"closed", "normal", "bridgeless", "planar"}

// ParseFilter resolves a filter by name, ignoring case.
func ParseFilter(name string) (Filter, error) {
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownFilter, name, strings.Join(FilterNames, ", "))
	}
	return f, nil
}

// Select returns, in order, the terms accepted by every filter. Without
// filters it returns terms unchanged.
func Select(terms []lambda.Term, fs ...Filter) []lambda.Term {
	if len(fs) == 0 {
		return terms
	}
	return lo.Filter(terms, func(t lambda.Term, _ int) bool {
		return lo.EveryBy(fs, func(f Filter) bool { return f(t) })
	})
}
