package generate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vic/lambdalab/pkg/lambda"
)

type key struct {
	n, k     int
	fragment Fragment
}

func (k key) String() string {
	return fmt.Sprintf("%s/%d/%d", k.fragment, k.n, k.k)
}

// Stats reports memoization counters of a Bank.
type Stats struct {
	// Keys is the number of memoized (size, free, fragment) entries.
	Keys   int
	Terms  int
	Hits   uint64
	Misses uint64
}

// Bank memoizes generated term lists by (size, free, fragment). Entries are
// only ever added, and a stored list never changes, so a lookup returns the
// same terms as the computation that filled it. A Bank is safe for
// concurrent use; concurrent requests for one key compute it once.
type Bank struct {
	Logger *slog.Logger

	mu    sync.RWMutex
	terms map[key][]lambda.Term
	group singleflight.Group

	statHits   uint64
	statMisses uint64
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{terms: make(map[key][]lambda.Term), Logger: slog.Default()}
}

// Generate returns every term of size n with free variables drawn from the
// k innermost context entries. For Linear and Planar each of the k variables
// occurs exactly once. Negative n or k yields no terms. The returned slice
// belongs to the caller.
func (b *Bank) Generate(n, k int, f Fragment) []lambda.Term {
	if !f.valid() {
		panic(fmt.Sprintf("generate: %s", f))
	}
	if n < 0 || k < 0 {
		return nil
	}
	return slices.Clone(b.get(key{n, k, f}))
}

// Count returns the number of terms Generate(n, k, f) would return.
func (b *Bank) Count(n, k int, f Fragment) int {
	if n < 0 || k < 0 || !f.valid() {
		return 0
	}
	return len(b.get(key{n, k, f}))
}

// GenerateSizes runs Generate for each size in sizes, at most parallelism at
// a time, and returns the results in the order of sizes.
func (b *Bank) GenerateSizes(ctx context.Context, sizes []int, k int, f Fragment, parallelism int) ([][]lambda.Term, error) {
	out := make([][]lambda.Term, len(sizes))
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, n := range sizes {
		i, n := i, n
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = b.Generate(n, k, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStats returns the memoization counters.
func (b *Bank) GetStats() Stats {
	b.mu.RLock()
	keys, terms := len(b.terms), 0
	for _, ts := range b.terms {
		terms += len(ts)
	}
	b.mu.RUnlock()
	return Stats{
		Keys:   keys,
		Terms:  terms,
		Hits:   atomic.LoadUint64(&b.statHits),
		Misses: atomic.LoadUint64(&b.statMisses),
	}
}

// get returns the shared, memoized list for key. Callers must not modify it.
func (b *Bank) get(k key) []lambda.Term {
	if ts, ok := b.lookup(k); ok {
		atomic.AddUint64(&b.statHits, 1)
		return ts
	}
	v, _, _ := b.group.Do(k.String(), func() (any, error) {
		// Another caller may have stored the key between lookup and Do.
		if ts, ok := b.lookup(k); ok {
			return ts, nil
		}
		atomic.AddUint64(&b.statMisses, 1)
		ts := b.compute(k)
		b.mu.Lock()
		if prev, ok := b.terms[k]; ok {
			ts = prev
		} else {
			b.terms[k] = ts
		}
		b.mu.Unlock()
		b.logger().Debug("generated terms", "key", k.String(), "count", len(ts))
		return ts, nil
	})
	return v.([]lambda.Term)
}

func (b *Bank) lookup(k key) ([]lambda.Term, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ts, ok := b.terms[k]
	return ts, ok
}

func (b *Bank) compute(k key) []lambda.Term {
	switch k.fragment {
	case Pure:
		return b.pure(k.n, k.k)
	case Linear:
		return b.linear(k.n, k.k)
	default:
		return b.planar(k.n, k.k)
	}
}

// label names the binder introduced with depth variables already in scope.
func label(depth int) string {
	return fmt.Sprintf("x%d", depth)
}

func (b *Bank) pure(n, k int) []lambda.Term {
	var out []lambda.Term
	if n == 0 {
		for i := 0; i < k; i++ {
			out = append(out, lambda.Var{Index: i})
		}
		return out
	}
	for _, body := range b.get(key{n - 1, k + 1, Pure}) {
		out = append(out, lambda.Abs{Label: label(k), Body: body})
	}
	for n1 := 0; n1 < n; n1++ {
		funs := b.get(key{n1, k, Pure})
		if len(funs) == 0 {
			continue
		}
		args := b.get(key{n - 1 - n1, k, Pure})
		for _, fun := range funs {
			for _, arg := range args {
				out = append(out, lambda.App{Fun: fun, Arg: arg})
			}
		}
	}
	return out
}

func (b *Bank) linear(n, k int) []lambda.Term {
	// A term with n internal nodes has at most n+1 variable occurrences.
	if k > n+1 {
		return nil
	}
	var out []lambda.Term
	if n == 0 {
		if k == 1 {
			out = append(out, lambda.Var{Index: 0})
		}
		return out
	}
	for _, body := range b.get(key{n - 1, k + 1, Linear}) {
		out = append(out, lambda.Abs{Label: label(k), Body: body})
	}
	// Each subset of the k variables goes to the function side and its
	// complement to the argument side, in increasing bitmask order.
	for n1 := 0; n1 < n; n1++ {
		for mask := uint(0); mask < 1<<uint(k); mask++ {
			var left, right []int
			for i := 0; i < k; i++ {
				if mask&(1<<uint(i)) != 0 {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			funs := b.get(key{n1, len(left), Linear})
			if len(funs) == 0 {
				continue
			}
			args := b.get(key{n - 1 - n1, len(right), Linear})
			out = combine(out, funs, args, left, right)
		}
	}
	return out
}

func (b *Bank) planar(n, k int) []lambda.Term {
	if k > n+1 {
		return nil
	}
	var out []lambda.Term
	if n == 0 {
		if k == 1 {
			out = append(out, lambda.Var{Index: 0})
		}
		return out
	}
	for _, body := range b.get(key{n - 1, k + 1, Planar}) {
		out = append(out, lambda.Abs{Label: label(k), Body: body})
	}
	// The argument side takes the r innermost variables and the function side
	// the rest, so no function-side variable is bound inside an argument-side
	// one.
	for n1 := 0; n1 < n; n1++ {
		for r := 0; r <= k; r++ {
			funs := b.get(key{n1, k - r, Planar})
			if len(funs) == 0 {
				continue
			}
			args := b.get(key{n - 1 - n1, r, Planar})
			out = combine(out, funs, args, span(r, k), span(0, r))
		}
	}
	return out
}

// combine appends every application of a function from funs to an argument
// from args, with the free variables of each side renumbered into left and
// right respectively.
func combine(out, funs, args []lambda.Term, left, right []int) []lambda.Term {
	if len(args) == 0 {
		return out
	}
	renumbered := make([]lambda.Term, len(args))
	for i, arg := range args {
		renumbered[i] = renumber(arg, right)
	}
	for _, fun := range funs {
		fun = renumber(fun, left)
		for _, arg := range renumbered {
			out = append(out, lambda.App{Fun: fun, Arg: arg})
		}
	}
	return out
}

func renumber(t lambda.Term, to []int) lambda.Term {
	if slices.Equal(to, span(0, len(to))) {
		return t
	}
	return lambda.Renumber(t, func(i int) int { return to[i] })
}

func span(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func (b *Bank) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// defaultBank backs the package-level helpers.
var defaultBank = NewBank()

// Generate enumerates terms using a process-wide bank.
func Generate(n, k int, f Fragment) []lambda.Term {
	return defaultBank.Generate(n, k, f)
}

// Count counts terms using a process-wide bank.
func Count(n, k int, f Fragment) int {
	return defaultBank.Count(n, k, f)
}
