package pattern

import (
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"

	"github.com/phobologic/archlens/internal/model"
)

// RegistryBuilder collects patterns before they are frozen into a Registry.
type RegistryBuilder struct {
	patterns map[string]Pattern
	order    []string
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{patterns: make(map[string]Pattern)}
}

// Register adds p. Names are unique across all categories.
func (b *RegistryBuilder) Register(p Pattern) error {
	if _, ok := b.patterns[p.Name()]; ok {
		return &model.DuplicateNameError{Name: p.Name()}
	}
	b.patterns[p.Name()] = p
	b.order = append(b.order, p.Name())
	return nil
}

// Lookup returns a pattern registered so far. Catalog loading uses it to
// resolve composite parts.
func (b *RegistryBuilder) Lookup(name string) (Pattern, bool) {
	p, ok := b.patterns[name]
	return p, ok
}

// Build freezes the registered patterns. The builder may keep being used;
// later registrations do not affect the returned Registry.
func (b *RegistryBuilder) Build() *Registry {
	r := &Registry{
		byName:     make(map[string]Pattern, len(b.patterns)),
		byCategory: make(map[model.Category][]Pattern),
	}
	for name, p := range b.patterns {
		r.byName[name] = p
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	for _, name := range r.names {
		p := r.byName[name]
		r.byCategory[p.Category()] = append(r.byCategory[p.Category()], p)
	}
	return r
}

// Registry is an immutable, name-keyed set of patterns. It is safe for
// concurrent use.
type Registry struct {
	byName     map[string]Pattern
	byCategory map[model.Category][]Pattern
	names      []string
}

// Get returns the named pattern or a *model.NotFoundError.
func (r *Registry) Get(name string) (Pattern, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, &model.NotFoundError{Name: name}
	}
	return p, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of patterns.
func (r *Registry) Len() int { return len(r.names) }

// Names returns all pattern names, sorted.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// All returns every pattern sorted by name.
func (r *Registry) All() []Pattern {
	out := make([]Pattern, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name])
	}
	return out
}

// ListByCategory returns the patterns in c sorted by name. The result is
// empty, not nil, when c has none.
func (r *Registry) ListByCategory(c model.Category) []Pattern {
	return append([]Pattern{}, r.byCategory[c]...)
}

// ListByLanguage returns the patterns applicable to language, including
// language-agnostic ones, sorted by name.
func (r *Registry) ListByLanguage(language string) []Pattern {
	out := []Pattern{}
	for _, name := range r.names {
		if p := r.byName[name]; Supports(p, language) {
			out = append(out, p)
		}
	}
	return out
}

const maxSuggestions = 3

// Unknown builds the error for a name the registry lacks, with up to three
// close names. Subsequence matches rank first, then names within a small
// edit distance.
func (r *Registry) Unknown(name string) *model.UnknownPatternError {
	err := &model.UnknownPatternError{Name: name}
	seen := make(map[string]bool)
	add := func(s string) {
		if len(err.Suggestions) < maxSuggestions && !seen[s] {
			seen[s] = true
			err.Suggestions = append(err.Suggestions, s)
		}
	}
	for _, m := range fuzzy.Find(name, r.names) {
		add(m.Str)
	}

	type near struct {
		name string
		dist int
	}
	var nearby []near
	for _, candidate := range r.names {
		if d := levenshtein.ComputeDistance(name, candidate); d <= max(2, len(name)/3) {
			nearby = append(nearby, near{candidate, d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].dist < nearby[j].dist })
	for _, c := range nearby {
		add(c.name)
	}
	return err
}
