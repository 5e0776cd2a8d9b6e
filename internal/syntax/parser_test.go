package syntax

import (
	"errors"
	"slices"
	"testing"

	"github.com/vic/lambdalab/pkg/lambda"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		free     string
		deBruijn string
		named    string
	}{
		{"identity backslash", `\x.x`, "", "λ.0", "λx.x"},
		{"identity lambda", "λx.x", "", "λ.0", "λx.x"},
		{"multi binder", `\x y.x`, "", "λ.λ.1", "λx.λy.x"},
		{"colon form", "x: y: x", "", "λ.λ.1", "λx.λy.x"},
		{"application left assoc", "f a b", "f a b", "2 1 0", "f a b"},
		{"parenthesised", "f (a b)", "f a b", "2 (1 0)", "f (a b)"},
		{"trailing lambda", `f \x.x a`, "f a", "1 (λ.0 1)", "f (λx.x a)"},
		{"redex", `(\x.x) y`, "y", "(λ.0) 0", "(λx.x) y"},
		{"S", `\x y z.x z (y z)`, "", "λ.λ.λ.2 0 (1 0)", "λx.λy.λz.x z (y z)"},
		{"let", "let id = x: x; in id a", "a", "(λ.0 1) (λ.0)", "(λid.id a) (λx.x)"},
		{"let without in", "let k = x: y: x; k", "", "(λ.0) (λ.λ.1)", "(λk.k) (λx.λy.x)"},
		{"primed names", `\x x'.x'`, "", "λ.λ.0", "λx.λx'.x'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, ctx, err := Parse(tt.input, tt.free)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if got := term.String(); got != tt.deBruijn {
				t.Errorf("de Bruijn = %q, want %q", got, tt.deBruijn)
			}
			if got := lambda.Named(term, ctx); got != tt.named {
				t.Errorf("named = %q, want %q", got, tt.named)
			}
		})
	}
}

func TestParseAddsUnknownFreeNames(t *testing.T) {
	term, ctx, err := Parse("f x y", "x")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if want := []string{"x", "f", "y"}; !slices.Equal(ctx.Names(), want) {
		t.Fatalf("context = %v, want %v", ctx.Names(), want)
	}
	if got := lambda.Named(term, ctx); got != "f x y" {
		t.Errorf("named = %q", got)
	}
	if !lambda.IsClosed(term, ctx.Len()) {
		t.Error("term should be closed under its context")
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"",
		"(x",
		`\.x`,
		`\x x`,
		"x )",
		"let = x; x",
		"let x x",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, _, err := Parse(input, "")
			if err == nil {
				t.Fatalf("expected error for %q", input)
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("error %v does not wrap ErrSyntax", err)
			}
		})
	}
}

func TestMustParsePanicsOnSyntaxError(t *testing.T) {
	term, ctx := MustParse(`\x.x y`)
	if term.String() != "λ.0 1" || ctx.Len() != 1 {
		t.Errorf("MustParse = %s with %d free names", term, ctx.Len())
	}
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParse should panic on invalid input")
		}
	}()
	MustParse("(x")
}
