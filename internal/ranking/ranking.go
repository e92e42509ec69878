// Package ranking narrows an analysis to its most central or most relevant
// components.
package ranking

import (
	"sort"
	"strings"

	"github.com/phobologic/archlens/internal/model"
)

// Order sorts components by rank, highest first, then by path.
func Order(components []model.Component) {
	sort.SliceStable(components, func(i, j int) bool {
		if components[i].Rank != components[j].Rank {
			return components[i].Rank > components[j].Rank
		}
		return components[i].Path < components[j].Path
	})
}

// SelectTop returns a new Analysis with only the top n components, the edges
// between them and their matches. Components must already be in Order. If n
// is <= 0 or >= len(components), a is returned unchanged.
func SelectTop(a *model.Analysis, n int) *model.Analysis {
	if n <= 0 || n >= len(a.Components) {
		return a
	}
	keep := make(map[string]struct{}, n)
	for i := range a.Components[:n] {
		keep[a.Components[i].Path] = struct{}{}
	}
	out := restrict(a, keep, true)
	out.Components = append([]model.Component(nil), a.Components[:n]...)
	return out
}

// FilterByPath returns a new Analysis with the components whose path contains
// substr (case-insensitive), every edge touching them and their matches.
func FilterByPath(a *model.Analysis, substr string) *model.Analysis {
	lower := strings.ToLower(substr)
	keep := make(map[string]struct{})
	var comps []model.Component
	for i := range a.Components {
		if strings.Contains(strings.ToLower(a.Components[i].Path), lower) {
			keep[a.Components[i].Path] = struct{}{}
			comps = append(comps, a.Components[i])
		}
	}
	out := restrict(a, keep, false)
	out.Components = comps
	return out
}

// restrict copies a, keeping edges with both endpoints in keep (or either
// endpoint, when both is false) and matches in kept files. Reports, findings
// and failures describe the whole run and are kept as they are.
func restrict(a *model.Analysis, keep map[string]struct{}, both bool) *model.Analysis {
	out := *a

	out.Edges = nil
	for _, e := range a.Edges {
		_, srcOK := keep[e.Source]
		_, tgtOK := keep[e.Target]
		if (both && srcOK && tgtOK) || (!both && (srcOK || tgtOK)) {
			out.Edges = append(out.Edges, e)
		}
	}

	out.Matches = nil
	for _, m := range a.Matches {
		if _, ok := keep[m.File]; ok {
			out.Matches = append(out.Matches, m)
		}
	}
	return &out
}
