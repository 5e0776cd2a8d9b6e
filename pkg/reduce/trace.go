package reduce

import (
	"slices"
	"sync/atomic"

	"github.com/vic/lambdalab/pkg/lambda"
)

// TraceEvent records one contraction performed during a normalization.
type TraceEvent struct {
	// Step numbers the contraction within its normalization, from 1.
	Step       int
	Strategy   Strategy
	RedexIndex int
	Redex      lambda.Term
	Result     lambda.Term
}

// EnableTrace makes every later Normalize record its first capacity
// contractions.
func (n *Normalizer) EnableTrace(capacity int) {
	if capacity <= 0 {
		capacity = 1
	}
	atomic.StoreInt64(&n.traceCap, int64(capacity))
}

func (n *Normalizer) DisableTrace() {
	atomic.StoreInt64(&n.traceCap, 0)
	n.traceMu.Lock()
	n.lastTrace = nil
	n.traceMu.Unlock()
}

// TraceSnapshot returns a copy of the events recorded by the most recent
// traced normalization, or nil when tracing is disabled.
func (n *Normalizer) TraceSnapshot() []TraceEvent {
	if atomic.LoadInt64(&n.traceCap) == 0 {
		return nil
	}
	n.traceMu.Lock()
	defer n.traceMu.Unlock()
	return slices.Clone(n.lastTrace)
}

// tracer collects the events of one normalization.
type tracer struct {
	events   []TraceEvent
	capacity int
	strategy Strategy
}

func (tr *tracer) record(step int, r Redex, result lambda.Term) {
	if tr == nil || len(tr.events) >= tr.capacity {
		return
	}
	tr.events = append(tr.events, TraceEvent{
		Step:       step,
		Strategy:   tr.strategy,
		RedexIndex: r.Index,
		Redex:      r.Term,
		Result:     result,
	})
}

func (n *Normalizer) keepTrace(tr *tracer) {
	if tr == nil {
		return
	}
	n.traceMu.Lock()
	n.lastTrace = tr.events
	n.traceMu.Unlock()
}
