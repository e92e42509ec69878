package pattern

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/phobologic/archlens/internal/model"
)

// Rule says how a composite combines its parts.
type Rule string

const (
	// AllOf matches once per file when every part matches somewhere in it.
	AllOf Rule = "all_of"
	// AnyOf yields every match of every part, retagged with the composite's name.
	AnyOf Rule = "any_of"
	// Sequence matches when the parts occur in order, each within Within lines of the previous.
	Sequence Rule = "sequence"
	// SameAnchor matches once per anchor position that every part matched,
	// so all parts must describe the same node rather than merely the same file.
	SameAnchor Rule = "same_anchor"
)

// CompositeSpec describes a composite pattern.
type CompositeSpec struct {
	Name        string
	Category    model.Category
	Kind        string
	Description string
	Layer       model.Layer
	Rule        Rule
	Within      int
	Parts       []Pattern
}

// CompositePattern combines already-registered patterns.
type CompositePattern struct {
	base
	rule   Rule
	within int
	parts  []Pattern
}

func (*CompositePattern) sealed() {}

const defaultWithin = 20

// NewCompositePattern validates spec and derives the supported languages from
// the parts: the union for AnyOf, the intersection otherwise.
func NewCompositePattern(spec CompositeSpec) (*CompositePattern, error) {
	p := &CompositePattern{
		base: base{
			name:        spec.Name,
			category:    spec.Category,
			kind:        spec.Kind,
			description: spec.Description,
			layer:       spec.Layer,
		},
		rule:   spec.Rule,
		within: spec.Within,
		parts:  append([]Pattern(nil), spec.Parts...),
	}
	if p.kind == "" {
		p.kind = "composite"
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	switch p.rule {
	case AllOf, AnyOf, Sequence, SameAnchor:
	default:
		return nil, fmt.Errorf("pattern %s: unknown rule %q", p.name, p.rule)
	}
	if len(p.parts) < 2 {
		return nil, fmt.Errorf("pattern %s: %s needs at least two parts", p.name, p.rule)
	}
	for _, part := range p.parts {
		if part == nil {
			return nil, fmt.Errorf("pattern %s: nil part", p.name)
		}
		if part.Name() == p.name {
			return nil, fmt.Errorf("pattern %s: refers to itself", p.name)
		}
	}
	if p.rule == Sequence && p.within <= 0 {
		p.within = defaultWithin
	}

	if p.rule == AnyOf {
		p.languages = unionLanguages(p.parts)
	} else {
		var err error
		if p.languages, err = intersectLanguages(p.parts); err != nil {
			return nil, fmt.Errorf("pattern %s: %w", p.name, err)
		}
	}
	return p, nil
}

// Rule returns the combination rule.
func (p *CompositePattern) Rule() Rule { return p.rule }

// Parts returns the names of the combined patterns in declaration order.
func (p *CompositePattern) Parts() []string {
	names := make([]string, len(p.parts))
	for i, part := range p.parts {
		names[i] = part.Name()
	}
	return names
}

// Match implements Pattern.
func (p *CompositePattern) Match(in *Input) ([]model.Match, error) {
	results := make([][]model.Match, len(p.parts))
	for i, part := range p.parts {
		if !Supports(part, in.Tree.Language()) {
			continue
		}
		matches, err := in.Run(part)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", part.Name(), err)
		}
		results[i] = matches
	}

	switch p.rule {
	case AllOf:
		return p.allOf(results), nil
	case AnyOf:
		return p.anyOf(results), nil
	case SameAnchor:
		return p.sameAnchor(results), nil
	default:
		return p.sequence(results), nil
	}
}

func (p *CompositePattern) allOf(results [][]model.Match) []model.Match {
	details := make(map[string]string, len(results))
	for i, r := range results {
		if len(r) == 0 {
			return nil
		}
		details[p.parts[i].Name()] = strconv.Itoa(len(r))
	}
	first := results[0][0]
	return []model.Match{p.retag(first, details)}
}

type anchor struct{ line, column int }

// sameAnchor emits one match per (line, column) present in every part's
// results, in source order. The first part's match at that anchor is retagged.
func (p *CompositePattern) sameAnchor(results [][]model.Match) []model.Match {
	for _, r := range results {
		if len(r) == 0 {
			return nil
		}
	}
	seen := make([]map[anchor]struct{}, len(results))
	for i, r := range results[1:] {
		set := make(map[anchor]struct{}, len(r))
		for _, m := range r {
			set[anchor{m.Line, m.Column}] = struct{}{}
		}
		seen[i+1] = set
	}

	heads := append([]model.Match(nil), results[0]...)
	sort.SliceStable(heads, func(a, b int) bool {
		if heads[a].Line != heads[b].Line {
			return heads[a].Line < heads[b].Line
		}
		return heads[a].Column < heads[b].Column
	})

	parts := strings.Join(p.Parts(), " ")
	emitted := make(map[anchor]struct{})
	var out []model.Match
	for _, head := range heads {
		at := anchor{head.Line, head.Column}
		if _, dup := emitted[at]; dup {
			continue
		}
		shared := true
		for _, set := range seen[1:] {
			if _, ok := set[at]; !ok {
				shared = false
				break
			}
		}
		if !shared {
			continue
		}
		emitted[at] = struct{}{}
		out = append(out, p.retag(head, map[string]string{"parts": parts}))
	}
	return out
}

func (p *CompositePattern) anyOf(results [][]model.Match) []model.Match {
	var out []model.Match
	for i, r := range results {
		for _, m := range r {
			out = append(out, p.retag(m, map[string]string{"via": p.parts[i].Name()}))
		}
	}
	return out
}

// sequence anchors a chain at each match of the first part, extending it with
// the earliest match of each later part that starts at or after the previous
// link and no more than within lines below it.
func (p *CompositePattern) sequence(results [][]model.Match) []model.Match {
	sorted := make([][]model.Match, len(results))
	for i, r := range results {
		if len(r) == 0 {
			return nil
		}
		sorted[i] = append([]model.Match(nil), r...)
		sort.SliceStable(sorted[i], func(a, b int) bool {
			if sorted[i][a].Line != sorted[i][b].Line {
				return sorted[i][a].Line < sorted[i][b].Line
			}
			return sorted[i][a].Column < sorted[i][b].Column
		})
	}

	var out []model.Match
	for _, head := range sorted[0] {
		chain := []model.Match{head}
		prev := head
		for _, candidates := range sorted[1:] {
			next, ok := p.follower(prev, candidates)
			if !ok {
				chain = nil
				break
			}
			chain = append(chain, next)
			prev = next
		}
		if chain == nil {
			continue
		}
		names := make([]string, len(chain))
		for i, m := range chain {
			names[i] = m.Name
		}
		m := p.retag(head, map[string]string{"chain": strings.Join(names, " -> ")})
		m.EndLine = max(prev.EndLine, prev.Line)
		out = append(out, m)
	}
	return out
}

func (p *CompositePattern) follower(prev model.Match, candidates []model.Match) (model.Match, bool) {
	for _, c := range candidates {
		if c.Line < prev.Line || (c.Line == prev.Line && c.Column <= prev.Column) {
			continue
		}
		if c.Line-prev.Line > p.within {
			break
		}
		return c, true
	}
	return model.Match{}, false
}

// retag copies m under this pattern's name. The part's Details map is never mutated.
func (p *CompositePattern) retag(m model.Match, extra map[string]string) model.Match {
	details := make(map[string]string, len(m.Details)+len(extra))
	for k, v := range m.Details {
		details[k] = v
	}
	for k, v := range extra {
		details[k] = v
	}
	m.Pattern = p.name
	m.Kind = p.kind
	m.Details = details
	return m
}

func unionLanguages(parts []Pattern) []string {
	set := make(map[string]struct{})
	for _, part := range parts {
		langs := part.Languages()
		if len(langs) == 0 {
			return nil
		}
		for _, l := range langs {
			set[l] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func intersectLanguages(parts []Pattern) ([]string, error) {
	var set map[string]struct{}
	for _, part := range parts {
		langs := part.Languages()
		if len(langs) == 0 {
			continue
		}
		next := make(map[string]struct{}, len(langs))
		for _, l := range langs {
			if _, ok := set[l]; set == nil || ok {
				next[l] = struct{}{}
			}
		}
		set = next
	}
	if set == nil {
		return nil, nil
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("parts share no language")
	}
	return sortedKeys(set), nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
