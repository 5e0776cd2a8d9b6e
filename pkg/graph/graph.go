// Package graph explores every one-step beta reduction reachable from a term
// and summarises the paths that lead to normal forms.
package graph

import (
	"log/slog"

	"github.com/vic/lambdalab/pkg/lambda"
	"github.com/vic/lambdalab/pkg/reduce"
)

// DefaultMaxExpansions bounds the number of vertices a Build expands.
const DefaultMaxExpansions = 2000

// Vertex is one distinct term of the graph.
type Vertex struct {
	Term lambda.Term
	// Level is the breadth-first distance from the root at which the term was
	// first discovered.
	Level int
	// Expanded is false for vertices left on the frontier when the expansion
	// ceiling was reached; their outgoing edges are unknown.
	Expanded bool
}

// Edge is one contraction leading out of a vertex.
type Edge struct {
	// To is the index of the resulting vertex.
	To int
	// Result is the term obtained by the contraction.
	Result lambda.Term
	// Redex is the contracted redex and RedexIndex its pre-order position in
	// the source term.
	Redex      lambda.Term
	RedexIndex int
}

// Graph is the reduction graph of a root term as an adjacency list.
// Vertex 0 is the root.
//
// Terms are identified by their de Bruijn print form, so terms differing only
// in binder labels share a vertex; no further equivalence is applied.
type Graph struct {
	Vertices []Vertex
	Edges    [][]Edge
	// Truncated is set when exploration stopped at the expansion ceiling with
	// vertices still unexpanded.
	Truncated bool

	index   map[string]int
	ceiling int
}

// Builder explores reduction graphs.
type Builder struct {
	// MaxExpansions is the number of vertices expanded before giving up.
	MaxExpansions int
	Logger        *slog.Logger
}

// NewBuilder returns a builder with the given ceiling; a non-positive value
// selects DefaultMaxExpansions.
func NewBuilder(maxExpansions int) *Builder {
	if maxExpansions <= 0 {
		maxExpansions = DefaultMaxExpansions
	}
	return &Builder{MaxExpansions: maxExpansions, Logger: slog.Default()}
}

// Build explores root with DefaultMaxExpansions.
func Build(root lambda.Term) *Graph {
	return NewBuilder(DefaultMaxExpansions).Build(root)
}

// Build runs a breadth-first exploration from root. Every redex of every
// expanded vertex contributes one edge; results not seen before join the next
// level.
func (b *Builder) Build(root lambda.Term) *Graph {
	g := &Graph{index: make(map[string]int), ceiling: b.MaxExpansions}
	g.add(root, 0)

	frontier := []int{0}
	expansions := 0
	for len(frontier) > 0 {
		var next []int
		for i, v := range frontier {
			if expansions >= b.MaxExpansions {
				g.Truncated = true
				b.logger().Debug("reduction graph truncated",
					"vertices", len(g.Vertices), "unexpanded", len(frontier)-i+len(next))
				return g
			}
			expansions++
			g.Vertices[v].Expanded = true
			term := g.Vertices[v].Term
			for _, r := range reduce.Redexes(term) {
				result := reduce.ReduceAt(term, r.Index)
				to, fresh := g.add(result, g.Vertices[v].Level+1)
				if fresh {
					next = append(next, to)
				}
				g.Edges[v] = append(g.Edges[v], Edge{
					To:         to,
					Result:     result,
					Redex:      r.Term,
					RedexIndex: r.Index,
				})
			}
		}
		frontier = next
	}
	b.logger().Debug("reduction graph built", "vertices", len(g.Vertices), "edges", g.EdgeCount())
	return g
}

func (g *Graph) add(t lambda.Term, level int) (int, bool) {
	key := t.String()
	if idx, ok := g.index[key]; ok {
		return idx, false
	}
	idx := len(g.Vertices)
	g.index[key] = idx
	g.Vertices = append(g.Vertices, Vertex{Term: t, Level: level})
	g.Edges = append(g.Edges, nil)
	return idx, true
}

// Vertex returns the index of the vertex holding t.
func (g *Graph) Vertex(t lambda.Term) (int, bool) {
	idx, ok := g.index[t.String()]
	return idx, ok
}

// EdgeCount returns the total number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, out := range g.Edges {
		n += len(out)
	}
	return n
}

// NormalForms returns the indices of expanded vertices without outgoing
// edges.
func (g *Graph) NormalForms() []int {
	var out []int
	for i, v := range g.Vertices {
		if v.Expanded && len(g.Edges[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
