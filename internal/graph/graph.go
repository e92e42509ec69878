// Package graph builds the component dependency graph from per-file results
// and computes PageRank centrality over it.
package graph

import (
	"fmt"
	"log/slog"
	"sort"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/pattern"
)

// Graph is a read-only component graph. Components live in a slice sorted by
// path and edges refer to them by index. All accessors return copies, so a
// Graph is safe for concurrent readers.
type Graph struct {
	components []model.Component
	index      map[string]int
	edges      []model.Edge
	edgeIndex  map[[2]int]int
	out        [][]int
	in         [][]int
	skipped    []model.GraphConstructionSkip
	directed   *simple.DirectedGraph
}

// Build constructs the graph. Input order does not matter. Failed or empty
// results are skipped with a reason. reg supplies pattern layer hints and may
// be nil; a nil logger uses slog.Default().
func Build(reg *pattern.Registry, results []model.FileResult, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}

	sorted := append([]model.FileResult(nil), results...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return duplicateBefore(&sorted[i], &sorted[j])
	})

	g := &Graph{index: make(map[string]int), edgeIndex: make(map[[2]int]int)}
	var kept []*model.FileResult
	for i := range sorted {
		r := &sorted[i]
		reason := ""
		switch {
		case r.Err != nil:
			reason = fmt.Sprintf("parse failure: %v", r.Err)
		case r.Empty():
			reason = "no definitions, imports or matches"
		case g.has(r.Path):
			reason = "duplicate path"
		}
		if reason != "" {
			g.skipped = append(g.skipped, model.GraphConstructionSkip{Path: r.Path, Reason: reason})
			logger.Debug("component skipped", "file", r.Path, "reason", reason)
			continue
		}

		g.index[r.Path] = len(g.components)
		g.components = append(g.components, newComponent(r, reg))
		kept = append(kept, r)
	}

	n := len(g.components)
	g.out = make([][]int, n)
	g.in = make([][]int, n)

	res := newResolver(g.components)
	for from, r := range kept {
		for _, imp := range r.Imports {
			for _, to := range res.importTargets(from, imp.Path, r.TypeRefs) {
				if to == from {
					logger.Warn("self-loop dropped", "file", r.Path, "import", imp.Path)
					continue
				}
				g.addEdge(from, to, model.ImportEdge)
			}
		}
		for _, d := range r.Definitions {
			for _, base := range d.Bases {
				if to, ok := res.definition(from, base); ok && to != from {
					g.addEdge(from, to, model.Inheritance)
				}
			}
		}
		for _, ref := range r.TypeRefs {
			if to, ok := res.definition(from, ref); ok && to != from {
				g.addEdge(from, to, model.Composition)
			}
		}
	}

	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i].From != g.edges[j].From {
			return g.edges[i].From < g.edges[j].From
		}
		return g.edges[i].To < g.edges[j].To
	})
	g.directed = simple.NewDirectedGraph()
	for i := range g.components {
		g.directed.AddNode(simple.Node(i))
	}
	for i, e := range g.edges {
		g.edgeIndex[[2]int{e.From, e.To}] = i
		g.out[e.From] = append(g.out[e.From], e.To)
		g.in[e.To] = append(g.in[e.To], e.From)
		g.directed.SetEdge(g.directed.NewEdge(simple.Node(e.From), simple.Node(e.To)))
	}
	for i := range g.in {
		sort.Ints(g.in[i])
	}

	ranks := pageRank(n, g.edges, 0.85, 100, 1e-6)
	for i := range g.components {
		g.components[i].Rank = ranks[i]
	}

	logger.Debug("graph built", "components", n, "edges", len(g.edges), "skipped", len(g.skipped))
	return g
}

// duplicateBefore orders two results for the same path so the one kept does
// not depend on input order: successful results first, then by language, then
// by content.
func duplicateBefore(a, b *model.FileResult) bool {
	if (a.Err == nil) != (b.Err == nil) {
		return a.Err == nil
	}
	if a.Language != b.Language {
		return a.Language < b.Language
	}
	return contentKey(a) < contentKey(b)
}

// contentKey renders what a result contributes. fmt prints map keys sorted.
func contentKey(r *model.FileResult) string {
	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	return fmt.Sprintf("%v|%v|%v|%v|%s", r.Definitions, r.Imports, r.TypeRefs, r.Matches, errText)
}

func (g *Graph) has(path string) bool {
	_, ok := g.index[path]
	return ok
}

// addEdge records a reference from -> to. Repeated references collapse into
// one edge whose kind is the highest-priority kind seen.
func (g *Graph) addEdge(from, to int, kind model.EdgeKind) {
	key := [2]int{from, to}
	if i, ok := g.edgeIndex[key]; ok {
		e := &g.edges[i]
		e.Count++
		if kind.Priority() < e.Kind.Priority() {
			e.Kind = kind
		}
		return
	}
	g.edgeIndex[key] = len(g.edges)
	g.edges = append(g.edges, model.Edge{From: from, To: to, Kind: kind, Count: 1})
}

func newComponent(r *model.FileResult, reg *pattern.Registry) model.Component {
	c := model.Component{
		Path:             r.Path,
		Language:         r.Language,
		Layer:            inferLayer(r, reg),
		Domain:           inferDomain(r),
		Responsibilities: responsibilities(r, reg),
		Type:             componentType(r.Definitions),
		Definitions:      append([]model.Definition(nil), r.Definitions...),
		Imports:          append([]model.Import(nil), r.Imports...),
	}
	for name := range r.Matches {
		c.Patterns = append(c.Patterns, name)
	}
	sort.Strings(c.Patterns)
	return c
}

// Len returns the number of components.
func (g *Graph) Len() int { return len(g.components) }

// Components returns a copy of all components, sorted by path.
func (g *Graph) Components() []model.Component {
	out := make([]model.Component, len(g.components))
	for i := range g.components {
		out[i] = cloneComponent(&g.components[i])
	}
	return out
}

// Component returns a copy of the component at index i.
func (g *Graph) Component(i int) model.Component {
	return cloneComponent(&g.components[i])
}

// Path returns the path of component i without copying the component.
func (g *Graph) Path(i int) string { return g.components[i].Path }

// Lookup returns the index of the component for path.
func (g *Graph) Lookup(path string) (int, bool) {
	i, ok := g.index[path]
	return i, ok
}

// Edges returns a copy of all edges sorted by (From, To).
func (g *Graph) Edges() []model.Edge {
	return append([]model.Edge(nil), g.edges...)
}

// Edge returns the edge from -> to, if any.
func (g *Graph) Edge(from, to int) (model.Edge, bool) {
	i, ok := g.edgeIndex[[2]int{from, to}]
	if !ok {
		return model.Edge{}, false
	}
	return g.edges[i], true
}

// Successors returns the sorted indices i depends on.
func (g *Graph) Successors(i int) []int { return append([]int(nil), g.out[i]...) }

// Predecessors returns the sorted indices depending on i.
func (g *Graph) Predecessors(i int) []int { return append([]int(nil), g.in[i]...) }

// OutDegree is the number of distinct components i depends on.
func (g *Graph) OutDegree(i int) int { return len(g.out[i]) }

// InDegree is the number of distinct components depending on i.
func (g *Graph) InDegree(i int) int { return len(g.in[i]) }

// Degree is InDegree plus OutDegree.
func (g *Graph) Degree(i int) int { return len(g.in[i]) + len(g.out[i]) }

// Skipped returns the files left out of the graph, sorted by path.
func (g *Graph) Skipped() []model.GraphConstructionSkip {
	return append([]model.GraphConstructionSkip(nil), g.skipped...)
}

// Directed exposes the graph to gonum algorithms. Node IDs are component indices.
func (g *Graph) Directed() gonumgraph.Directed { return g.directed }

func cloneComponent(c *model.Component) model.Component {
	out := *c
	out.Responsibilities = append([]string(nil), c.Responsibilities...)
	out.Definitions = append([]model.Definition(nil), c.Definitions...)
	out.Imports = append([]model.Import(nil), c.Imports...)
	out.Patterns = append([]string(nil), c.Patterns...)
	return out
}
