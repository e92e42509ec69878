package graph

import (
	"sort"
	"strings"

	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/naming"
	"github.com/phobologic/archlens/internal/pattern"
)

// inferLayer applies, in order, the first rule that yields a layer:
// nearest directory convention, file name suffix, definition and base-type
// naming votes, pattern layer hints. Otherwise the layer is unknown.
func inferLayer(r *model.FileResult, reg *pattern.Registry) model.Layer {
	if l, ok := naming.NearestDir(r.Path, dirLayers); ok {
		return l
	}

	if l, _ := naming.Trailing(naming.Words(naming.Stem(r.Path)), wordLayers); l != "" {
		return l
	}

	votes := make(map[model.Layer]int)
	for _, d := range r.Definitions {
		if d.Kind != model.Class && d.Kind != model.Interface {
			continue
		}
		if l, _ := naming.Trailing(naming.Words(d.Name), wordLayers); l != "" {
			votes[l]++
		}
		for _, b := range d.Bases {
			if l, _ := naming.Trailing(naming.Words(b), wordLayers); l != "" {
				votes[l]++
			}
		}
	}
	if l := winner(votes); l != "" {
		return l
	}

	if reg != nil {
		for name, matches := range r.Matches {
			p, err := reg.Get(name)
			if err != nil || p.Layer() == "" || p.Layer() == model.Unknown {
				continue
			}
			votes[p.Layer()] += len(matches)
		}
		if l := winner(votes); l != "" {
			return l
		}
	}

	return model.Unknown
}

// winner returns the layer with the most votes; ties go to the layer
// declared first in model.Layers.
func winner(votes map[model.Layer]int) model.Layer {
	var best model.Layer
	bestVotes := 0
	for _, l := range model.Layers {
		if votes[l] > bestVotes {
			best, bestVotes = l, votes[l]
		}
	}
	return best
}

// groupingDirs hold one subdirectory per domain or service.
var groupingDirs = map[string]struct{}{
	"modules":  {},
	"domains":  {},
	"features": {},
	"services": {},
	"apps":     {},
	"contexts": {},
}

// genericStems name files that say nothing about their domain.
var genericStems = map[string]struct{}{
	"main": {}, "index": {}, "init": {}, "app": {}, "application": {},
	"utils": {}, "util": {}, "helpers": {}, "helper": {}, "common": {},
	"base": {}, "config": {}, "settings": {}, "types": {}, "constants": {},
	"doc": {}, "server": {}, "client": {},
}

// inferDomain returns the business domain of a component, or "" when none
// can be told.
func inferDomain(r *model.FileResult) string {
	ds := naming.Dirs(r.Path)
	// The segment after a grouping directory must itself be a directory.
	for i := 0; i < len(ds)-1; i++ {
		if _, ok := groupingDirs[strings.ToLower(ds[i])]; ok {
			return strings.ToLower(ds[i+1])
		}
	}

	if d := stripLayerWords(naming.Words(naming.Stem(r.Path))); d != "" {
		if _, generic := genericStems[d]; !generic {
			return d
		}
	}

	for _, def := range r.Definitions {
		if def.Kind != model.Class && def.Kind != model.Interface {
			continue
		}
		if d := stripLayerWords(naming.Words(def.Name)); d != "" {
			return d
		}
	}
	return ""
}

func stripLayerWords(ws []string) string {
	for len(ws) > 0 {
		_, n := naming.Trailing(ws, wordLayers)
		if n == 0 {
			break
		}
		ws = ws[:len(ws)-n]
	}
	return strings.Join(ws, "_")
}

// verbFamilies groups leading method verbs into responsibilities.
var verbFamilies = map[string]string{
	"get": "query", "find": "query", "fetch": "query", "list": "query", "load": "query",
	"read": "query", "search": "query", "query": "query", "count": "query", "lookup": "query",

	"create": "command", "update": "command", "delete": "command", "save": "command",
	"remove": "command", "add": "command", "set": "command", "insert": "command",
	"put": "command", "write": "command", "store": "command",

	"validate": "validation", "check": "validation", "verify": "validation",
	"ensure": "validation", "sanitize": "validation",

	"handle": "event_handling", "on": "event_handling", "process": "event_handling",
	"consume": "event_handling", "receive": "event_handling", "subscribe": "event_handling",

	"publish": "event_publishing", "emit": "event_publishing", "dispatch": "event_publishing",
	"notify": "event_publishing", "broadcast": "event_publishing", "send": "event_publishing",
	"fire": "event_publishing", "trigger": "event_publishing",

	"render": "rendering", "format": "rendering", "display": "rendering",
	"show": "rendering", "serialize": "rendering", "present": "rendering",

	"init": "lifecycle", "initialize": "lifecycle", "start": "lifecycle", "stop": "lifecycle",
	"close": "lifecycle", "open": "lifecycle", "setup": "lifecycle", "teardown": "lifecycle",
	"shutdown": "lifecycle", "configure": "lifecycle",
}

// responsibilities returns the sorted union of non-basic matched pattern
// names and the verb families of declared callables.
func responsibilities(r *model.FileResult, reg *pattern.Registry) []string {
	set := make(map[string]struct{})
	for name := range r.Matches {
		if reg != nil {
			if p, err := reg.Get(name); err == nil && p.Category() == model.Basic {
				continue
			}
		}
		set[name] = struct{}{}
	}
	for _, d := range r.Definitions {
		if d.Kind != model.Function && d.Kind != model.Method {
			continue
		}
		ws := naming.Words(d.Name)
		if len(ws) == 0 {
			continue
		}
		if fam, ok := verbFamilies[ws[0]]; ok {
			set[fam] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func componentType(defs []model.Definition) model.ComponentType {
	hasFunc := false
	for _, d := range defs {
		switch d.Kind {
		case model.Class, model.Interface:
			return model.ClassComponent
		case model.Function, model.Method:
			hasFunc = true
		}
	}
	if hasFunc {
		return model.FunctionComponent
	}
	return model.ModuleComponent
}
