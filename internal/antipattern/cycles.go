package antipattern

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/phobologic/archlens/internal/graph"
	"github.com/phobologic/archlens/internal/model"
)

// Cycles returns every elementary dependency cycle, at most limit of them.
// Each cycle starts at its smallest path and is reported once; cycles are
// ordered by their path sequence.
func Cycles(ctx context.Context, g *graph.Graph, limit int) ([]model.DependencyCycle, error) {
	var out []model.DependencyCycle
	for _, scc := range topo.TarjanSCC(g.Directed()) {
		if len(scc) < 2 {
			continue
		}
		members := make([]int, len(scc))
		in := make(map[int]bool, len(scc))
		for i, n := range scc {
			members[i] = int(n.ID())
			in[members[i]] = true
		}
		sort.Ints(members)

		f := &finder{g: g, in: in, limit: limit - len(out)}
		for _, start := range members {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if f.limit <= 0 {
				break
			}
			f.start = start
			f.stack = []int{start}
			f.onStack = map[int]bool{start: true}
			f.walk(start)
		}
		out = append(out, f.found...)
		if len(out) >= limit {
			break
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Components, out[j].Components
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return out, nil
}

// finder enumerates the cycles through start that visit only components of
// the same SCC with a larger index than start. Index order is path order, so
// each cycle is found exactly once, rotated to its smallest path.
type finder struct {
	g       *graph.Graph
	in      map[int]bool
	start   int
	stack   []int
	onStack map[int]bool
	limit   int
	found   []model.DependencyCycle
}

func (f *finder) walk(v int) {
	for _, w := range f.g.Successors(v) {
		if f.limit <= 0 {
			return
		}
		switch {
		case w == f.start:
			paths := make([]string, len(f.stack))
			for i, c := range f.stack {
				paths[i] = f.g.Path(c)
			}
			f.found = append(f.found, model.DependencyCycle{Components: paths})
			f.limit--
		case w > f.start && f.in[w] && !f.onStack[w]:
			f.stack = append(f.stack, w)
			f.onStack[w] = true
			f.walk(w)
			f.stack = f.stack[:len(f.stack)-1]
			delete(f.onStack, w)
		}
	}
}
