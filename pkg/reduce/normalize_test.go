package reduce_test

import (
	"sync"
	"testing"

	"github.com/vic/lambdalab/internal/lambdatest"
	"github.com/vic/lambdalab/pkg/lambda"
	"github.com/vic/lambdalab/pkg/reduce"
)

type reductionCase struct {
	Name   string
	Input  string
	Output string
}

var reductionCases = []reductionCase{
	// Identity
	{"001_id", "x: x", "y: y"},
	{"002_id_id", "(x: x) (y: y)", "z: z"},

	// K Combinator (Erasure)
	{"003_k_1", "(x: y: x) a b", "a"},
	{"004_k_2", "(x: y: y) a b", "b"},
	{"005_erase_complex", "(x: y: x) a ((z: z) b)", "a"},

	// S Combinator (Sharing)
	{"006_s_1", "(x: y: z: x z (y z)) (a: b: a) (c: d: c) e", "e"},
	{"007_s_2", "(x: y: z: x z (y z)) (a: b: b) (c: d: c) e", "e"},

	// Church Numerals
	{"010_zero", "(f: x: x) f x", "x"},
	{"011_one", "(f: x: f x) f x", "f x"},
	{"012_two", "(f: x: f (f x)) f x", "f (f x)"},
	{"013_succ_0", "(n: f: x: f (n f x)) (f: x: x) f x", "f x"},
	{"014_succ_1", "(n: f: x: f (n f x)) (f: x: f x) f x", "f (f x)"},
	{"015_add_1_1", "(m: n: f: x: m f (n f x)) (f: x: f x) (f: x: f x) f x", "f (f x)"},
	{"016_mul_2_2", "(m: n: f: m (n f)) (f: x: f (f x)) (f: x: f (f x)) f x", "f (f (f (f x)))"},

	// Logic
	{"020_true", "(x: y: x) a b", "a"},
	{"021_false", "(x: y: y) a b", "b"},
	{"022_not_true", "(b: b (x: y: y) (x: y: x)) (x: y: x) a b", "b"},
	{"023_not_false", "(b: b (x: y: y) (x: y: x)) (x: y: y) a b", "a"},
	{"024_and_true_true", "(p: q: p q p) (x: y: x) (x: y: x) a b", "a"},
	{"025_and_true_false", "(p: q: p q p) (x: y: x) (x: y: y) a b", "b"},

	// Pairs
	{"030_pair_fst", "(p: p (x: y: x)) ((x: y: f: f x y) a b)", "a"},
	{"031_pair_snd", "(p: p (x: y: y)) ((x: y: f: f x y) a b)", "b"},

	// Let bindings
	{"040_let_simple", "let x = a; in x", "a"},
	{"041_let_id", "let i = x: x; in i a", "a"},
	{"042_let_nested", "let x = a; in let y = b; in x", "a"},
	{"043_let_shadow", "let x = a; in let x = b; in x", "b"},

	// Sharing
	{"050_deep_app", "(x: x x x) (y: y)", "y: y"},
	{"051_share_app", "(f: f (f x)) (y: y)", "x"},
	{"060_pow_2_3", "(b: e: e b) (f: x: f (f x)) (f: x: f (f (f x))) f x", "f (f (f (f (f (f (f (f x)))))))"},
	{"070_share_complex", "(x: x (x a)) (y: y)", "a"},
	{"071_erase_shared", "(x: y: y) ((z: z) a) b", "b"},
	{"072_self_app", "(x: x x) (y: y)", "y: y"},

	// Nested Lambdas
	{"080_nested_1", "x: y: z: x y z", "x: y: z: x y z"},
	{"081_nested_app", "(x: y: x y) a b", "a b"},

	// Free variables
	{"090_free_1", "x", "x"},
	{"091_free_app", "x y", "x y"},
	{"092_free_abs", "y: x y", "y: x y"},

	// Mixed
	{"100_mixed_1", "(x: x) ((y: y) a)", "a"},
	{"101_complex_sharing", "(f: f (f (x: x))) (g: g (y: y))", "x: x"},
	{"102_nested_apps", "(f: f) (a: a) (b: b) c", "c"},
	{"103_twice_k", "(f: x: f (f x)) (y: z: y) a b", "z: a"},
	{"104_shared_redexes", "(g: g (g (x: x))) (h: (f: f (f (z: z))) (w: h (w (y: y))))", "x: x"},
}

// Every strategy reaches the same normal form on these strongly normalizing
// inputs, even though the intermediate terms differ.
func TestNormalizationConfluence(t *testing.T) {
	for _, tc := range reductionCases {
		t.Run(tc.Name, func(t *testing.T) {
			for _, s := range reduce.Strategies {
				lambdatest.CheckNormalization(t, s, tc.Input, tc.Output)
			}
		})
	}
}

func TestIdentityApplication(t *testing.T) {
	term, ctx := lambdatest.Parse(t, `(\x.x) y`)
	res := reduce.Normalize(term)
	if res.TimedOut() || res.Steps != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := lambda.Named(res.Term, ctx); got != "y" {
		t.Errorf("got %q, want y", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{`\x.x`, "f (g x)", `\f x.f (f x)`, `x (\y.y z)`}
	for _, input := range inputs {
		term, _ := lambdatest.Parse(t, input)
		for _, s := range reduce.Strategies {
			res := reduce.NewNormalizer(s, 0).Normalize(term)
			if res.Steps != 0 || res.Status != reduce.Normal {
				t.Errorf("%s on %s: %d steps, status %s", s, input, res.Steps, res.Status)
			}
			if !lambda.Equal(res.Term, term) {
				t.Errorf("%s changed normal form %s into %s", s, term, res.Term)
			}
		}
	}
}

func TestNormalizeTimeout(t *testing.T) {
	omega, _ := lambdatest.Parse(t, `(\x.x x) (\x.x x)`)
	n := reduce.NewNormalizer(reduce.Outermost, 25)
	res := n.Normalize(omega)
	if !res.TimedOut() {
		t.Fatalf("Ω should time out, got %s", res.Status)
	}
	if res.Steps != 25 {
		t.Errorf("steps = %d, want 25", res.Steps)
	}
	if !lambda.Equal(res.Term, omega) {
		t.Errorf("Ω should reduce to itself, got %s", res.Term)
	}

	stats := n.GetStats()
	if stats.Timeouts != 1 || stats.Reductions != 25 || stats.Normalizations != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestBudgetExactlyEnough(t *testing.T) {
	// Two steps are needed; a budget of two must not report a timeout.
	term, _ := lambdatest.Parse(t, `(\x.x) ((\y.y) z)`)
	res := reduce.NewNormalizer(reduce.Outermost, 2).Normalize(term)
	if res.TimedOut() || res.Steps != 2 {
		t.Errorf("got %+v", res)
	}
	res = reduce.NewNormalizer(reduce.Outermost, 1).Normalize(term)
	if !res.TimedOut() || res.Steps != 1 {
		t.Errorf("budget 1: got %+v", res)
	}
}

// Outermost reduction finds the normal form of K a Ω, innermost reduction
// keeps reducing Ω.
func TestStrategyMatters(t *testing.T) {
	term, ctx := lambdatest.Parse(t, `(\x y.x) a ((\x.x x) (\x.x x))`)

	out := reduce.NewNormalizer(reduce.Outermost, 50).Normalize(term)
	if out.TimedOut() || lambda.Named(out.Term, ctx) != "a" {
		t.Errorf("outermost: %+v", out)
	}
	in := reduce.NewNormalizer(reduce.InnermostRightmost, 50).Normalize(term)
	if !in.TimedOut() {
		t.Errorf("innermost-rightmost should time out, got %s", lambda.Named(in.Term, ctx))
	}
}

func TestTrace(t *testing.T) {
	term, _ := lambdatest.Parse(t, `(\x.x) ((\y.y) z)`)
	n := reduce.NewNormalizer(reduce.InnermostLeftmost, 0)
	n.EnableTrace(1)
	res := n.Normalize(term)

	events := n.TraceSnapshot()
	if len(events) != 1 || len(res.Trace) != 1 {
		t.Fatalf("trace holds %d events (result %d), want capacity 1", len(events), len(res.Trace))
	}
	if events[0].Step != 1 || events[0].RedexIndex != 1 || events[0].Strategy != reduce.InnermostLeftmost {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[0].Result.String() != "(λ.0) 0" {
		t.Errorf("first result = %s", events[0].Result)
	}

	n.DisableTrace()
	if n.TraceSnapshot() != nil {
		t.Error("disabled trace should return nil")
	}
	if res := n.Normalize(term); res.Trace != nil {
		t.Errorf("untraced normalization returned %d events", len(res.Trace))
	}
}

// Each normalization records its own steps, numbered from 1, and the
// snapshot follows the latest one.
func TestTraceRestartsPerNormalization(t *testing.T) {
	first, _ := lambdatest.Parse(t, `(\x.x) ((\y.y) z)`)
	second, _ := lambdatest.Parse(t, `(\a.a) b`)
	n := reduce.NewNormalizer(reduce.Outermost, 0)
	n.EnableTrace(2)

	n.Normalize(first)
	again := n.Normalize(first)
	if len(again.Trace) != 2 || again.Trace[0].Step != 1 || again.Trace[1].Step != 2 {
		t.Fatalf("repeated normalization traced %+v", again.Trace)
	}
	if got := again.Trace[1].Result.String(); got != "0" {
		t.Errorf("last result = %s, want 0", got)
	}

	res := n.Normalize(second)
	events := n.TraceSnapshot()
	if len(res.Trace) != 1 || len(events) != 1 {
		t.Fatalf("second term: result %d events, snapshot %d, want 1", len(res.Trace), len(events))
	}
	if events[0].Step != 1 || events[0].Redex.String() != "(λ.0) 0" || events[0].Result.String() != "0" {
		t.Errorf("second term event %+v", events[0])
	}

	traced := reduce.NewNormalizer(reduce.Outermost, 0).NormalizeTraced(first, 5)
	if len(traced.Trace) != traced.Steps || traced.Steps != 2 {
		t.Errorf("NormalizeTraced recorded %d events for %d steps", len(traced.Trace), traced.Steps)
	}
}

// Budgets are per call: concurrent normalizations on one Normalizer do not
// eat into each other's steps.
func TestConcurrentNormalizationsKeepOwnBudget(t *testing.T) {
	n := reduce.NewNormalizer(reduce.Outermost, 40)
	omega, _ := lambdatest.Parse(t, `(\x.x x) (\x.x x)`)
	church, _ := lambdatest.Parse(t, `(m: n: f: m (n f)) (f: x: f (f x)) (f: x: f (f x))`)

	var wg sync.WaitGroup
	results := make([]reduce.Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				results[i] = n.Normalize(omega)
			} else {
				results[i] = n.Normalize(church)
			}
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if i%2 == 0 && (!res.TimedOut() || res.Steps != 40) {
			t.Errorf("run %d: Ω got %+v", i, res)
		}
		if i%2 == 1 && res.TimedOut() {
			t.Errorf("run %d: church multiplication timed out", i)
		}
	}
	if got := n.GetStats().Normalizations; got != 16 {
		t.Errorf("normalizations = %d, want 16", got)
	}
}
