// Package generate enumerates every lambda term of a given size and number of
// free variables within the pure, linear and planar fragments.
//
// Size counts abstraction and application nodes; variables are free. Terms of
// the linear and planar fragments with k free variables use each of them
// exactly once.
package generate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFragment is returned by ParseFragment for unrecognised names.
var ErrUnknownFragment = errors.New("unknown fragment")

// Fragment selects the class of terms to enumerate.
type Fragment int

const (
	// Pure places no constraint on variable use.
	Pure Fragment = iota
	// Linear uses every variable exactly once.
	Linear
	// Planar is Linear without crossings: the variables of an application's
	// function side are all bound further out than those of its argument.
	Planar
)

// Fragments lists every fragment.
var Fragments = []Fragment{Pure, Linear, Planar}

func (f Fragment) String() string {
	switch f {
	case Pure:
		return "pure"
	case Linear:
		return "linear"
	case Planar:
		return "planar"
	default:
		return fmt.Sprintf("Fragment(%d)", int(f))
	}
}

// ParseFragment resolves a fragment by name, ignoring case.
func ParseFragment(name string) (Fragment, error) {
	for _, f := range Fragments {
		if strings.EqualFold(name, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFragment, name)
}

func (f Fragment) valid() bool {
	return f >= Pure && f <= Planar
}
