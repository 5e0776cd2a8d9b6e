package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vic/lambdalab/pkg/analysis"
	"github.com/vic/lambdalab/pkg/generate"
	"github.com/vic/lambdalab/pkg/graph"
	"github.com/vic/lambdalab/pkg/lambda"
	"github.com/vic/lambdalab/pkg/reduce"
)

type format int

const (
	formatText format = iota
	formatJSON
	formatYAML
)

func formatOf(name string) (format, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return formatText, nil
	case "json":
		return formatJSON, nil
	case "yaml", "yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("unknown output format %q (want text, json or yaml)", name)
	}
}

// texter is implemented by views with a plain text rendering.
type texter interface {
	text(w io.Writer)
}

func (a *app) render(v texter) error {
	f, err := formatOf(a.opts.output)
	if err != nil {
		return err
	}
	return render(a.out, f, v)
}

func render(w io.Writer, f format, v texter) error {
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		v.text(w)
		return nil
	}
}

type termView struct {
	Named    string `json:"named" yaml:"named"`
	DeBruijn string `json:"de_bruijn" yaml:"de_bruijn"`
}

func viewTerm(t lambda.Term, ctx *lambda.Context) termView {
	return termView{Named: lambda.Named(t, ctx), DeBruijn: lambda.DeBruijn(t)}
}

type traceItem struct {
	Step   int      `json:"step" yaml:"step"`
	Redex  int      `json:"redex" yaml:"redex"`
	Result termView `json:"result" yaml:"result"`
}

type normalizeResult struct {
	Term     termView    `json:"term" yaml:"term"`
	Strategy string      `json:"strategy" yaml:"strategy"`
	Steps    int         `json:"steps" yaml:"steps"`
	Status   string      `json:"status" yaml:"status"`
	Trace    []traceItem `json:"trace,omitempty" yaml:"trace,omitempty"`
}

func normalizeView(res reduce.Result, ctx *lambda.Context, s reduce.Strategy) normalizeResult {
	out := normalizeResult{
		Term:     viewTerm(res.Term, ctx),
		Strategy: s.String(),
		Steps:    res.Steps,
		Status:   res.Status.String(),
	}
	for _, e := range res.Trace {
		out.Trace = append(out.Trace, traceItem{Step: e.Step, Redex: e.RedexIndex, Result: viewTerm(e.Result, ctx)})
	}
	return out
}

func (v normalizeResult) text(w io.Writer) {
	for _, e := range v.Trace {
		fmt.Fprintf(w, "%d\tredex %d\t%s\n", e.Step, e.Redex, e.Result.Named)
	}
	fmt.Fprintln(w, v.Term.Named)
	if v.Status != reduce.Normal.String() {
		fmt.Fprintf(w, "%s after %d steps (%s)\n", v.Status, v.Steps, v.Strategy)
	}
}

type stepResult struct {
	Term    termView `json:"term" yaml:"term"`
	Reduced bool     `json:"reduced" yaml:"reduced"`
}

func stepView(t lambda.Term, reduced bool, ctx *lambda.Context) stepResult {
	return stepResult{Term: viewTerm(t, ctx), Reduced: reduced}
}

func (v stepResult) text(w io.Writer) {
	fmt.Fprintln(w, v.Term.Named)
	if !v.Reduced {
		fmt.Fprintln(w, "normal form")
	}
}

type redexItem struct {
	Index int      `json:"index" yaml:"index"`
	Depth int      `json:"depth" yaml:"depth"`
	Redex termView `json:"redex" yaml:"redex"`
	// Result is the whole term after contracting this redex.
	Result termView `json:"result" yaml:"result"`
}

type redexList struct {
	Term    termView    `json:"term" yaml:"term"`
	Redexes []redexItem `json:"redexes" yaml:"redexes"`
}

func redexesView(t lambda.Term, redexes []reduce.Redex, ctx *lambda.Context) redexList {
	out := redexList{Term: viewTerm(t, ctx), Redexes: []redexItem{}}
	for _, r := range redexes {
		// A redex under d binders refers to names the context does not hold;
		// print it against a context extended by placeholders.
		rctx := lambda.NewContext(ctx.Names()...)
		for i := 0; i < r.Depth; i++ {
			rctx.Push(lambda.Unknown)
		}
		out.Redexes = append(out.Redexes, redexItem{
			Index:  r.Index,
			Depth:  r.Depth,
			Redex:  viewTerm(r.Term, rctx),
			Result: viewTerm(reduce.ReduceAt(t, r.Index), ctx),
		})
	}
	return out
}

func (v redexList) text(w io.Writer) {
	if len(v.Redexes) == 0 {
		fmt.Fprintln(w, "normal form")
		return
	}
	for _, r := range v.Redexes {
		fmt.Fprintf(w, "%d\t%s\t-> %s\n", r.Index, r.Redex.Named, r.Result.Named)
	}
}

type vertexItem struct {
	ID    int      `json:"id" yaml:"id"`
	Level int      `json:"level" yaml:"level"`
	Term  termView `json:"term" yaml:"term"`
	// Normal marks expanded vertices without outgoing edges.
	Normal bool `json:"normal" yaml:"normal"`
}

type edgeItem struct {
	From  int `json:"from" yaml:"from"`
	To    int `json:"to" yaml:"to"`
	Redex int `json:"redex" yaml:"redex"`
}

type statsView struct {
	Known  bool           `json:"known" yaml:"known"`
	Count  uint64         `json:"count" yaml:"count"`
	Min    int            `json:"min" yaml:"min"`
	Max    int            `json:"max" yaml:"max"`
	Mean   float64        `json:"mean" yaml:"mean"`
	Median float64        `json:"median" yaml:"median"`
	Mode   []int          `json:"mode,omitempty" yaml:"mode,omitempty"`
	Paths  map[int]uint64 `json:"paths,omitempty" yaml:"paths,omitempty"`
}

type graphResult struct {
	Vertices  []vertexItem `json:"vertices" yaml:"vertices"`
	Edges     []edgeItem   `json:"edges" yaml:"edges"`
	Truncated bool         `json:"truncated" yaml:"truncated"`
	Stats     statsView    `json:"stats" yaml:"stats"`
}

func graphView(g *graph.Graph, st graph.PathStats, ctx *lambda.Context) graphResult {
	out := graphResult{
		Vertices:  make([]vertexItem, 0, len(g.Vertices)),
		Edges:     []edgeItem{},
		Truncated: g.Truncated,
		Stats: statsView{
			Known: st.Known, Count: st.Count, Min: st.Min, Max: st.Max,
			Mean: st.Mean, Median: st.Median, Mode: st.Mode, Paths: st.Lengths,
		},
	}
	for i, v := range g.Vertices {
		out.Vertices = append(out.Vertices, vertexItem{
			ID:     i,
			Level:  v.Level,
			Term:   viewTerm(v.Term, ctx),
			Normal: v.Expanded && len(g.Edges[i]) == 0,
		})
		for _, e := range g.Edges[i] {
			out.Edges = append(out.Edges, edgeItem{From: i, To: e.To, Redex: e.RedexIndex})
		}
	}
	return out
}

func (v graphResult) text(w io.Writer) {
	for _, vx := range v.Vertices {
		mark := ""
		if vx.Normal {
			mark = "  [normal]"
		}
		fmt.Fprintf(w, "%d\tL%d\t%s%s\n", vx.ID, vx.Level, vx.Term.Named, mark)
	}
	for _, e := range v.Edges {
		fmt.Fprintf(w, "%d -> %d\tredex %d\n", e.From, e.To, e.Redex)
	}
	if v.Truncated {
		fmt.Fprintln(w, "graph truncated at the expansion ceiling")
	}
	if !v.Stats.Known {
		fmt.Fprintln(w, "paths: unknown")
		return
	}
	fmt.Fprintf(w, "paths: %d  min: %d  max: %d  mean: %.3f  median: %.1f  mode: %v\n",
		v.Stats.Count, v.Stats.Min, v.Stats.Max, v.Stats.Mean, v.Stats.Median, v.Stats.Mode)
}

type profileView struct {
	analysis.Profile `yaml:",inline"`
	Named            string `json:"named" yaml:"named"`
}

func (v profileView) text(w io.Writer) {
	p := v.Profile
	fmt.Fprintln(w, v.Named)
	rows := []struct {
		name  string
		value any
	}{
		{"subterms", p.Subterms},
		{"size", p.Size},
		{"free variables", p.FreeVariables},
		{"bound variables", p.BoundVariables},
		{"unique variables", p.UniqueVariables},
		{"redexes", p.Redexes},
		{"crossings", p.Crossings},
		{"bridges", p.Bridges},
		{"linear", p.Linear},
		{"planar", p.Planar},
		{"bridgeless", p.Bridgeless},
		{"closed", p.Closed},
		{"normal", p.Normal},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-17s %v\n", r.name+":", r.value)
	}
}

type sizeGroup struct {
	Size  int      `json:"size" yaml:"size"`
	Count int      `json:"count" yaml:"count"`
	Terms []string `json:"terms,omitempty" yaml:"terms,omitempty"`
}

type generateResult struct {
	Fragment string      `json:"fragment" yaml:"fragment"`
	Free     int         `json:"free" yaml:"free"`
	Sizes    []sizeGroup `json:"sizes" yaml:"sizes"`
}

func generateView(sizes [][]lambda.Term, first, free int, f generate.Fragment, ctx *lambda.Context, countOnly bool) generateResult {
	out := generateResult{Fragment: f.String(), Free: free}
	for i, terms := range sizes {
		g := sizeGroup{Size: first + i, Count: len(terms)}
		if !countOnly {
			g.Terms = make([]string, len(terms))
			for j, t := range terms {
				g.Terms[j] = lambda.Named(t, ctx)
			}
		}
		out.Sizes = append(out.Sizes, g)
	}
	return out
}

func (v generateResult) text(w io.Writer) {
	for _, g := range v.Sizes {
		if len(v.Sizes) > 1 || g.Terms == nil {
			fmt.Fprintf(w, "# size %d: %d terms\n", g.Size, g.Count)
		}
		for _, t := range g.Terms {
			fmt.Fprintln(w, t)
		}
	}
}
