// Package lambdatest holds assertions shared by the reduction tests.
package lambdatest

import (
	"strings"
	"testing"
	"time"

	"github.com/vic/lambdalab/internal/syntax"
	"github.com/vic/lambdalab/pkg/lambda"
	"github.com/vic/lambdalab/pkg/reduce"
)

// Parse reads input with free names taken in order of appearance, failing
// the test on error.
func Parse(t testing.TB, input string) (lambda.Term, *lambda.Context) {
	t.Helper()
	term, ctx, err := syntax.Parse(input, "")
	if err != nil {
		t.Fatalf("Parse error for %q: %v", input, err)
	}
	return term, ctx
}

// CheckNormalization normalizes inputStr under strategy and compares the
// result with outputStr. Both sides are read against the same free variable
// context and compared as de Bruijn terms, so bound names do not matter.
func CheckNormalization(t *testing.T, strategy reduce.Strategy, inputStr, outputStr string) reduce.Result {
	t.Helper()

	term, ctx := Parse(t, inputStr)
	expected, err := syntax.NewParser(strings.TrimSpace(outputStr)).Parse(ctx)
	if err != nil {
		t.Fatalf("Parse error for expected output: %v", err)
	}

	n := reduce.NewNormalizer(strategy, 10*reduce.DefaultBudget)
	start := time.Now()
	res := n.Normalize(term)
	elapsed := time.Since(start)

	if res.TimedOut() {
		t.Fatalf("%s: %s timed out after %d steps at %s", strategy, inputStr, res.Steps, lambda.Named(res.Term, ctx))
	}
	if !lambda.Equal(res.Term, expected) {
		t.Errorf("Mismatch under %s:\nInput:    %s\nExpected: %s\nActual:   %s",
			strategy, inputStr, lambda.Named(expected, ctx), lambda.Named(res.Term, ctx))
	}
	t.Logf("%s: %d reductions in %v", strategy, res.Steps, elapsed)
	return res
}
