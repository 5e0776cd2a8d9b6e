package analysis

import (
	"testing"

	"github.com/vic/lambdalab/internal/syntax"
	"github.com/vic/lambdalab/pkg/lambda"
)

func parse(t *testing.T, input string) (lambda.Term, *lambda.Context) {
	t.Helper()
	term, ctx, err := syntax.Parse(input, "")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return term, ctx
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		input     string
		crossings int
		bridges   int
		linear    bool
		planar    bool
	}{
		{`\x.x`, 0, 0, true, true},
		{`\x y.x y`, 0, 0, true, true},
		{`\x y.y x`, 1, 0, true, false},
		{`\x y z.x (y z)`, 0, 0, true, true},
		{`\x y z.x z y`, 1, 0, true, false},
		{`\x y z.z y x`, 3, 0, true, false},
		{`\x.x x`, 0, 0, false, false},
		{`\x y.x`, 0, 0, false, false},
		{`(\x.x) (\y.y)`, 0, 1, true, true},
		{`\x.x (\y.y)`, 0, 1, true, true},
		{`\x y.(\z.z) (x y)`, 0, 1, true, true},
		{"f x", 0, 0, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			term, _ := parse(t, tt.input)
			if got := Crossings(term); got != tt.crossings {
				t.Errorf("Crossings = %d, want %d", got, tt.crossings)
			}
			if got := Bridges(term); got != tt.bridges {
				t.Errorf("Bridges = %d, want %d", got, tt.bridges)
			}
			if Bridgeless(term) != (tt.bridges == 0) {
				t.Error("Bridgeless disagrees with Bridges")
			}
			if got := Linear(term); got != tt.linear {
				t.Errorf("Linear = %v, want %v", got, tt.linear)
			}
			if got := Planar(term); got != tt.planar {
				t.Errorf("Planar = %v, want %v", got, tt.planar)
			}
		})
	}
}

func TestCrossingsCountOccurrences(t *testing.T) {
	// Each occurrence of y on the left crosses x on the right.
	term, _ := parse(t, `\x y.x x y`)
	if got := Crossings(term); got != 0 {
		t.Errorf("x x y: got %d crossings, want 0", got)
	}
	term, _ = parse(t, `\x y.y y x`)
	if got := Crossings(term); got != 2 {
		t.Errorf("y y x: got %d crossings, want 2", got)
	}
}

func TestClosed(t *testing.T) {
	term, ctx := parse(t, `\x.x y`)
	if Closed(term, 0) {
		t.Error("y is free under an empty context")
	}
	if !Closed(term, ctx.Len()) {
		t.Error("y is covered by the parse context")
	}
}

func TestAnalyze(t *testing.T) {
	term, ctx := parse(t, `(\x y.y x) a`)
	p := Analyze(term, ctx.Len())

	want := Profile{
		Term:            "(λ.λ.0 1) 0",
		Subterms:        7,
		Size:            4,
		Abstractions:    2,
		Applications:    2,
		Variables:       3,
		FreeVariables:   1,
		BoundVariables:  2,
		UniqueVariables: 3,
		Redexes:         1,
		Crossings:       1,
		Bridges:         1,
		Linear:          true,
		Planar:          false,
		Bridgeless:      false,
		Closed:          true,
		Normal:          false,
	}
	if p != want {
		t.Errorf("Analyze =\n%+v\nwant\n%+v", p, want)
	}
}

func TestDeepTerm(t *testing.T) {
	var term lambda.Term = lambda.Var{Index: 0}
	for i := 0; i < 100000; i++ {
		term = lambda.Abs{Label: "x", Body: lambda.App{Fun: term, Arg: lambda.Var{Index: 0}}}
	}
	if Linear(term) {
		t.Error("the innermost binder is used twice")
	}
	if Crossings(term) != 0 {
		t.Errorf("unexpected crossings %d", Crossings(term))
	}
}
