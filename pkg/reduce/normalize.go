package reduce

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vic/lambdalab/pkg/lambda"
)

// DefaultBudget is the number of reduction steps a normalization may take
// before it gives up.
const DefaultBudget = 100

// Status classifies the outcome of a normalization.
type Status int

const (
	// Normal means the result contains no redex.
	Normal Status = iota
	// Timeout means the step budget ran out first; the result is the term
	// reached at that point.
	Timeout
)

func (s Status) String() string {
	switch s {
	case Normal:
		return "normal"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Result is the outcome of a normalization. Callers must check Status before
// treating Term as a normal form.
type Result struct {
	Term   lambda.Term
	Steps  int
	Status Status
	// Trace holds the first contractions when tracing was requested.
	Trace []TraceEvent
}

// TimedOut reports whether the budget was exhausted.
func (r Result) TimedOut() bool { return r.Status == Timeout }

// Stats holds normalization statistics aggregated over every call of one
// Normalizer.
type Stats struct {
	Normalizations uint64
	Reductions     uint64
	Timeouts       uint64
}

// Normalizer repeatedly reduces terms under one strategy. Each call counts
// its own steps, so a Normalizer may be shared between goroutines.
type Normalizer struct {
	Strategy Strategy
	Budget   int
	Logger   *slog.Logger

	statNormalizations uint64
	statReductions     uint64
	statTimeouts       uint64

	traceCap  int64
	traceMu   sync.Mutex
	lastTrace []TraceEvent
}

// NewNormalizer returns a normalizer for strategy. A non-positive budget
// selects DefaultBudget.
func NewNormalizer(strategy Strategy, budget int) *Normalizer {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Normalizer{
		Strategy: strategy,
		Budget:   budget,
		Logger:   slog.Default(),
	}
}

// Normalize reduces t outermost-first within DefaultBudget steps.
func Normalize(t lambda.Term) Result {
	return NewNormalizer(Outermost, DefaultBudget).Normalize(t)
}

// Normalize reduces t until no redex remains or Budget steps have been
// taken. An already normal term comes back unchanged after zero steps.
// With tracing enabled the result carries the first contractions.
func (n *Normalizer) Normalize(t lambda.Term) Result {
	return n.NormalizeTraced(t, int(atomic.LoadInt64(&n.traceCap)))
}

// NormalizeTraced is Normalize recording the first capacity contractions in
// Result.Trace. A non-positive capacity records nothing.
func (n *Normalizer) NormalizeTraced(t lambda.Term, capacity int) Result {
	var tr *tracer
	if capacity > 0 {
		tr = &tracer{capacity: capacity, strategy: n.Strategy}
	}
	res := n.normalize(t, tr)
	if tr != nil {
		res.Trace = tr.events
		n.keepTrace(tr)
	}
	return res
}

func (n *Normalizer) normalize(t lambda.Term, tr *tracer) Result {
	atomic.AddUint64(&n.statNormalizations, 1)
	steps := 0
	for {
		if steps >= n.Budget {
			if !HasBetaRedex(t) {
				break
			}
			atomic.AddUint64(&n.statTimeouts, 1)
			n.logger().Debug("normalization timed out", "strategy", n.Strategy, "steps", steps)
			return Result{Term: t, Steps: steps, Status: Timeout}
		}
		next, r, ok := step(t, n.Strategy)
		if !ok {
			break
		}
		steps++
		atomic.AddUint64(&n.statReductions, 1)
		tr.record(steps, r, next)
		t = next
	}
	n.logger().Debug("normalized", "strategy", n.Strategy, "steps", steps)
	return Result{Term: t, Steps: steps, Status: Normal}
}

// Reduce performs a single step under the normalizer's strategy.
func (n *Normalizer) Reduce(t lambda.Term) (lambda.Term, bool) {
	next, _, ok := step(t, n.Strategy)
	if ok {
		atomic.AddUint64(&n.statReductions, 1)
	}
	return next, ok
}

// GetStats returns a snapshot of the aggregated statistics.
func (n *Normalizer) GetStats() Stats {
	return Stats{
		Normalizations: atomic.LoadUint64(&n.statNormalizations),
		Reductions:     atomic.LoadUint64(&n.statReductions),
		Timeouts:       atomic.LoadUint64(&n.statTimeouts),
	}
}

func (n *Normalizer) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}
