package lambda

import (
	"fmt"
	"slices"
	"testing"
)

var (
	identity = Abs{Label: "x", Body: Var{0}}
	kComb    = Lambda(Var{1}, "x", "y")
	sComb    = Lambda(Apply(Var{2}, Var{0}, Apply(Var{1}, Var{0})), "x", "y", "z")
	omega    = Abs{Label: "x", Body: Apply(Var{0}, Var{0})}
)

func TestDeBruijnPrinting(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"var", Var{3}, "3"},
		{"identity", identity, "λ.0"},
		{"K", kComb, "λ.λ.1"},
		{"S", sComb, "λ.λ.λ.2 0 (1 0)"},
		{"redex", App{identity, Var{0}}, "(λ.0) 0"},
		{"left assoc", Apply(Var{0}, Var{1}, Var{2}), "0 1 2"},
		{"right nested", App{Var{0}, App{Var{1}, Var{2}}}, "0 (1 2)"},
		{"abs argument", App{Var{0}, identity}, "0 (λ.0)"},
		{"omega", App{omega, omega}, "(λ.0 0) (λ.0 0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.term.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNamedPrinting(t *testing.T) {
	ctx := NewContext("a", "b")
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"free vars", App{Var{0}, Var{1}}, "b a"},
		{"K", kComb, "λx.λy.x"},
		{"S", sComb, "λx.λy.λz.x z (y z)"},
		{"free under binder", Abs{Label: "x", Body: App{Var{0}, Var{1}}}, "λx.x b"},
		{"escaping index", Var{7}, Unknown},
		{"shadowed label", Lambda(Var{1}, "x", "x"), "λx.λx'.x"},
		{"label clashes with context", Abs{Label: "a", Body: App{Var{0}, Var{2}}}, "λa'.a' a"},
		{"missing label", Abs{Body: Var{0}}, "λx.x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Named(tt.term, ctx); got != tt.want {
				t.Errorf("Named() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNamedNilContext(t *testing.T) {
	if got := Named(App{identity, Var{0}}, nil); got != "(λx.x) "+Unknown {
		t.Errorf("Named(nil ctx) = %q", got)
	}
}

func TestContext(t *testing.T) {
	ctx := NewContext("x", "y")
	ctx.Push("z")

	if idx, ok := ctx.Lookup("z"); !ok || idx != 0 {
		t.Fatalf("Lookup(z) = %d, %v; want 0, true", idx, ok)
	}
	if idx, ok := ctx.Lookup("x"); !ok || idx != 2 {
		t.Fatalf("Lookup(x) = %d, %v; want 2, true", idx, ok)
	}
	if _, ok := ctx.Lookup("w"); ok {
		t.Fatal("Lookup(w) should fail")
	}
	if got := ctx.Name(1); got != "y" {
		t.Errorf("Name(1) = %q, want y", got)
	}
	if got := ctx.Name(3); got != Unknown {
		t.Errorf("Name(3) = %q, want %q", got, Unknown)
	}

	ctx.Push("x")
	if idx, _ := ctx.Lookup("x"); idx != 0 {
		t.Errorf("shadowing Lookup(x) = %d, want 0", idx)
	}
	if got := ctx.Pop(); got != "x" {
		t.Errorf("Pop() = %q, want x", got)
	}
	if !slices.Equal(ctx.Names(), []string{"x", "y", "z"}) {
		t.Errorf("Names() = %v", ctx.Names())
	}

	var empty *Context
	if empty.Len() != 0 || empty.Name(0) != Unknown {
		t.Error("nil context should behave as empty")
	}
}

func TestContextPopEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic popping an empty context")
		}
	}()
	NewContext().Pop()
}

func TestStructuralQueries(t *testing.T) {
	// λx. x (y z) y  under context [y z] (z = 0, y = 1)
	term := Abs{Label: "x", Body: Apply(Var{0}, App{Var{2}, Var{1}}, Var{2})}

	checks := []struct {
		name string
		got  int
		want int
	}{
		{"Subterms", Subterms(term), 8},
		{"Abstractions", Abstractions(term), 1},
		{"Applications", Applications(term), 3},
		{"Variables", Variables(term), 4},
		{"Size", Size(term), 4},
		{"FreeVariables", FreeVariables(term), 2},
		{"BoundVariables", BoundVariables(term), 1},
		{"UniqueVariables", UniqueVariables(term), 3},
		{"NumberOfUses(1)", NumberOfUses(term, 1), 2},
		{"NumberOfUses(0)", NumberOfUses(term, 0), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	if got := FreeVariableIndices(term); !slices.Equal(got, []int{1, 0, 1}) {
		t.Errorf("FreeVariableIndices = %v, want [1 0 1]", got)
	}
}

func TestUniqueVariablesDistinguishesSiblingBinders(t *testing.T) {
	// (λx.x) (λy.y): two binders at the same depth are different variables.
	term := App{identity, identity}
	if got := UniqueVariables(term); got != 2 {
		t.Errorf("UniqueVariables = %d, want 2", got)
	}
	// λx.λy.y: the unused x does not count.
	if got := UniqueVariables(Lambda(Var{0}, "x", "y")); got != 1 {
		t.Errorf("UniqueVariables = %d, want 1", got)
	}
}

func TestIsClosed(t *testing.T) {
	tests := []struct {
		term   Term
		ctxLen int
		want   bool
	}{
		{identity, 0, true},
		{Var{0}, 0, false},
		{Var{0}, 1, true},
		{Abs{Body: Var{1}}, 0, false},
		{Abs{Body: Var{1}}, 1, true},
		{Abs{Body: Var{2}}, 1, false},
		{sComb, 0, true},
	}
	for i, tt := range tests {
		if got := IsClosed(tt.term, tt.ctxLen); got != tt.want {
			t.Errorf("case %d: IsClosed(%s, %d) = %v, want %v", i, tt.term, tt.ctxLen, got, tt.want)
		}
	}
}

func TestEqualIgnoresLabels(t *testing.T) {
	a := Lambda(App{Var{0}, Var{1}}, "x", "y")
	b := Lambda(App{Var{0}, Var{1}}, "p", "q")
	if !Equal(a, b) {
		t.Error("alpha-equivalent terms should be equal")
	}
	if Equal(a, Lambda(App{Var{1}, Var{0}}, "x", "y")) {
		t.Error("different terms reported equal")
	}
	if Equal(Var{0}, identity) {
		t.Error("variable equal to abstraction")
	}
}

func TestDeepTermsDoNotOverflow(t *testing.T) {
	var term Term = Var{0}
	for i := 0; i < 200000; i++ {
		term = Abs{Label: "x", Body: App{term, Var{0}}}
	}
	if got := Size(term); got != 400000 {
		t.Fatalf("Size = %d, want 400000", got)
	}
	shifted := Shift(term, 1, 0)
	if FreeVariables(shifted) != 0 || !Equal(shifted, term) {
		t.Error("shifting a closed term should not change it")
	}
}

func ExampleNamed() {
	ctx := NewContext("a")
	term := Apply(Lambda(Lambda(Var{1}, "y"), "x"), Var{0})
	fmt.Println(term)
	fmt.Println(Named(term, ctx))
	// Output:
	// (λ.λ.1) 0
	// (λx.λy.x) a
}
