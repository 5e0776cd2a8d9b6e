package graph

import (
	"math/bits"
	"slices"

	"github.com/samber/lo"
)

// PathStats summarises the lengths of all reduction paths from a vertex to a
// normal form. When Known is false the graph holds a cycle, an unexpanded
// vertex, a path longer than the exploration ceiling, or more paths than fit
// in a uint64, and the other fields are zero.
type PathStats struct {
	Known  bool
	Count  uint64
	Min    int
	Max    int
	Mean   float64
	Median float64
	// Mode lists every length tied for the highest frequency, ascending.
	Mode []int
	// Lengths maps each path length to the number of paths of that length.
	Lengths map[int]uint64
}

const (
	unvisited uint8 = iota
	active
	done
)

// PathStats computes path statistics from the root.
func (g *Graph) PathStats() PathStats {
	return g.PathStatsFrom(0)
}

// PathStatsFrom computes statistics for paths from vertex from to a normal
// form. Each vertex's length histogram is computed once per call.
func (g *Graph) PathStatsFrom(from int) PathStats {
	ceiling := g.ceiling
	if ceiling <= 0 {
		ceiling = DefaultMaxExpansions
	}

	type frame struct{ v, edge int }
	state := make([]uint8, len(g.Vertices))
	hist := make([]map[int]uint64, len(g.Vertices))
	stack := []frame{{v: from}}
	state[from] = active

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		v := top.v
		if !g.Vertices[v].Expanded {
			return PathStats{}
		}
		if top.edge < len(g.Edges[v]) {
			to := g.Edges[v][top.edge].To
			top.edge++
			switch state[to] {
			case active:
				return PathStats{}
			case unvisited:
				if len(stack) >= ceiling {
					return PathStats{}
				}
				state[to] = active
				stack = append(stack, frame{v: to})
			}
			continue
		}

		h := make(map[int]uint64)
		if len(g.Edges[v]) == 0 {
			h[0] = 1
		}
		for _, e := range g.Edges[v] {
			for length, count := range hist[e.To] {
				sum, carry := bits.Add64(h[length+1], count, 0)
				if carry != 0 {
					return PathStats{}
				}
				h[length+1] = sum
			}
		}
		hist[v] = h
		state[v] = done
		stack = stack[:len(stack)-1]
	}

	return summarise(hist[from])
}

func summarise(h map[int]uint64) PathStats {
	lengths := lo.Keys(h)
	slices.Sort(lengths)

	st := PathStats{Known: true, Lengths: h}
	if len(lengths) == 0 {
		return st
	}
	st.Min = lengths[0]
	st.Max = lengths[len(lengths)-1]

	var weighted float64
	var best uint64
	for _, l := range lengths {
		c := h[l]
		total, carry := bits.Add64(st.Count, c, 0)
		if carry != 0 {
			return PathStats{}
		}
		st.Count = total
		weighted += float64(l) * float64(c)
		if c > best {
			best = c
		}
	}
	st.Mean = weighted / float64(st.Count)
	st.Mode = lo.Filter(lengths, func(l int, _ int) bool { return h[l] == best })

	low := nth(lengths, h, (st.Count-1)/2)
	high := nth(lengths, h, st.Count/2)
	st.Median = float64(low+high) / 2
	return st
}

// nth returns the length at position i of the sorted multiset of lengths.
func nth(lengths []int, h map[int]uint64, i uint64) int {
	var seen uint64
	for _, l := range lengths {
		seen += h[l]
		if i < seen {
			return l
		}
	}
	return lengths[len(lengths)-1]
}
