package graph

import (
	"path"
	"strings"

	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/naming"
)

// key is one way of naming a component in an import path.
type key struct {
	segments []string
	comp     int
	// dir marks a package-directory key shared by every file in the directory.
	dir bool
}

// resolver maps import paths and type names to components.
type resolver struct {
	comps []model.Component
	// byLast indexes keys by their final segment.
	byLast map[string][]key
	// defines maps a class or interface name to the components declaring it.
	defines map[string][]int
}

func newResolver(comps []model.Component) *resolver {
	r := &resolver{comps: comps, byLast: make(map[string][]key), defines: make(map[string][]int)}
	for i, c := range comps {
		stemKey := strings.TrimSuffix(c.Path, path.Ext(c.Path))
		r.add(key{segments: strings.Split(stemKey, "/"), comp: i})

		if d := path.Dir(c.Path); d != "." {
			r.add(key{segments: strings.Split(d, "/"), comp: i, dir: true})
		}

		for _, d := range c.Definitions {
			if d.Kind != model.Class && d.Kind != model.Interface {
				continue
			}
			if list := r.defines[d.Name]; len(list) == 0 || list[len(list)-1] != i {
				r.defines[d.Name] = append(list, i)
			}
		}
	}
	return r
}

func (r *resolver) add(k key) {
	last := k.segments[len(k.segments)-1]
	r.byLast[last] = append(r.byLast[last], k)
}

// importTargets resolves an import path by the longest common trailing
// segment run. A file key names one component; a package key names every
// file in the directory, narrowed to those declaring a referenced type.
func (r *resolver) importTargets(from int, importPath string, typeRefs []string) []int {
	segs := strings.Split(strings.Trim(importPath, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return nil
	}

	best := 0
	var fileHits []int
	var dirHits []int
	for _, k := range r.byLast[segs[len(segs)-1]] {
		n := commonSuffix(segs, k.segments)
		// One path must be a full suffix of the other.
		if n != min(len(segs), len(k.segments)) {
			continue
		}
		if n < best {
			continue
		}
		if n > best {
			best = n
			fileHits, dirHits = nil, nil
		}
		if k.dir {
			dirHits = append(dirHits, k.comp)
		} else {
			fileHits = append(fileHits, k.comp)
		}
	}

	if len(fileHits) > 0 {
		return []int{r.nearest(from, fileHits)}
	}
	if len(dirHits) == 0 {
		return nil
	}

	refs := make(map[string]struct{}, len(typeRefs))
	for _, t := range typeRefs {
		refs[t] = struct{}{}
	}
	var declaring []int
	for _, c := range dirHits {
		for _, d := range r.comps[c].Definitions {
			if _, ok := refs[d.Name]; ok {
				declaring = append(declaring, c)
				break
			}
		}
	}
	if len(declaring) > 0 {
		return declaring
	}
	// dirHits is in component order, which is path order.
	return dirHits[:1]
}

// definition resolves a type name to the component declaring it, preferring
// the same language and then the nearest path.
func (r *resolver) definition(from int, name string) (int, bool) {
	candidates := r.defines[name]
	if len(candidates) == 0 {
		return 0, false
	}
	var same []int
	for _, c := range candidates {
		if r.comps[c].Language == r.comps[from].Language {
			same = append(same, c)
		}
	}
	if len(same) == 0 {
		return 0, false
	}
	return r.nearest(from, same), true
}

// nearest picks the candidate sharing the longest directory prefix with
// from; ties go to the lowest index.
func (r *resolver) nearest(from int, candidates []int) int {
	origin := naming.Dirs(r.comps[from].Path)
	best, bestScore := candidates[0], -1
	for _, c := range candidates {
		score := commonPrefix(origin, naming.Dirs(r.comps[c].Path))
		if score > bestScore || (score == bestScore && c < best) {
			best, bestScore = c, score
		}
	}
	return best
}

func commonSuffix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}

func commonPrefix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
