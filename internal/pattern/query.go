package pattern

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/phobologic/archlens/internal/lang"
	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/syntax"
)

// Constraint narrows the matches of a query pattern by the shape of one capture.
// Zero values disable a bound. Bindings without the capture are not constrained.
type Constraint struct {
	Capture          string `yaml:"capture"`
	MinLines         int    `yaml:"min_lines"`
	MinNamedChildren int    `yaml:"min_named_children"`
	MaxNamedChildren *int   `yaml:"max_named_children"`
}

func (c Constraint) accepts(n syntax.Node) bool {
	if c.MinLines > 0 {
		lines := int(n.EndPoint().Row-n.StartPoint().Row) + 1
		if lines < c.MinLines {
			return false
		}
	}
	if c.MinNamedChildren > 0 && n.NamedChildCount() < c.MinNamedChildren {
		return false
	}
	if c.MaxNamedChildren != nil && n.NamedChildCount() > *c.MaxNamedChildren {
		return false
	}
	return true
}

// QuerySpec describes a query pattern. Queries maps language name to
// tree-sitter query source.
type QuerySpec struct {
	Name        string
	Category    model.Category
	Kind        string
	Description string
	Layer       model.Layer
	Queries     map[string]string
	// NameCapture defaults to "name", AnchorCapture to "match".
	NameCapture   string
	AnchorCapture string
	Constraints   []Constraint
}

type compiled struct {
	once  sync.Once
	query *syntax.Query
	err   error
}

// QueryPattern matches with one tree-sitter query per supported language.
// Queries compile on first use and are shared by all goroutines.
type QueryPattern struct {
	base
	queries       map[string]string
	compiled      map[string]*compiled
	nameCapture   string
	anchorCapture string
	constraints   []Constraint
}

func (*QueryPattern) sealed() {}

// NewQueryPattern validates spec. Query text is not compiled until the
// pattern first runs on a file of that language.
func NewQueryPattern(spec QuerySpec) (*QueryPattern, error) {
	p := &QueryPattern{
		base: base{
			name:        spec.Name,
			category:    spec.Category,
			kind:        spec.Kind,
			description: spec.Description,
			layer:       spec.Layer,
		},
		queries:       make(map[string]string, len(spec.Queries)),
		compiled:      make(map[string]*compiled, len(spec.Queries)),
		nameCapture:   spec.NameCapture,
		anchorCapture: spec.AnchorCapture,
		constraints:   append([]Constraint(nil), spec.Constraints...),
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(spec.Queries) == 0 {
		return nil, fmt.Errorf("pattern %s: no queries", spec.Name)
	}
	for language, text := range spec.Queries {
		if _, ok := lang.Languages[language]; !ok {
			return nil, fmt.Errorf("pattern %s: unsupported language %q", spec.Name, language)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("pattern %s: empty %s query", spec.Name, language)
		}
		p.queries[language] = text
		p.compiled[language] = &compiled{}
		p.languages = append(p.languages, language)
	}
	sort.Strings(p.languages)
	if p.nameCapture == "" {
		p.nameCapture = "name"
	}
	if p.anchorCapture == "" {
		p.anchorCapture = "match"
	}
	for _, c := range p.constraints {
		if c.Capture == "" {
			return nil, fmt.Errorf("pattern %s: constraint without capture", spec.Name)
		}
	}
	return p, nil
}

// Kind is the match kind tag, e.g. "function" or "class".
func (p *QueryPattern) Kind() string { return p.kind }

func (p *QueryPattern) query(l *lang.Language) (*syntax.Query, error) {
	c, ok := p.compiled[l.Name]
	if !ok {
		return nil, nil
	}
	c.once.Do(func() {
		c.query, c.err = l.CompileQuery(p.queries[l.Name])
	})
	return c.query, c.err
}

// Match implements Pattern.
func (p *QueryPattern) Match(in *Input) ([]model.Match, error) {
	q, err := p.query(in.Lang)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, nil
	}
	bindings, err := in.Tree.Run(q)
	if err != nil {
		return nil, err
	}

	type key struct {
		line, col int
		name      string
	}
	seen := make(map[key]struct{})
	var matches []model.Match
	for _, b := range bindings {
		anchor, ok := b.Get(p.anchorCapture)
		if !ok {
			anchor = b.Captures[0].Node
		}
		if !p.accepts(b, anchor) {
			continue
		}

		name := anchor.Kind()
		if n, ok := b.Get(p.nameCapture); ok {
			name = clip(n.Text())
		}
		m := model.Match{
			Pattern: p.name,
			Kind:    p.kind,
			Name:    name,
			Line:    int(anchor.StartPoint().Row) + 1,
			Column:  int(anchor.StartPoint().Column) + 1,
			EndLine: int(anchor.EndPoint().Row) + 1,
			Details: map[string]string{"node": anchor.Kind()},
		}
		k := key{m.Line, m.Column, m.Name}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		for _, c := range b.Captures {
			if c.Name == p.nameCapture || c.Name == p.anchorCapture || strings.HasPrefix(c.Name, "_") {
				continue
			}
			m.Details[c.Name] = clip(c.Node.Text())
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (p *QueryPattern) accepts(b syntax.Binding, anchor syntax.Node) bool {
	for _, c := range p.constraints {
		n := anchor
		if c.Capture != p.anchorCapture {
			var ok bool
			if n, ok = b.Get(c.Capture); !ok {
				continue
			}
		}
		if !c.accepts(n) {
			return false
		}
	}
	return true
}

const maxDetail = 80

// clip collapses whitespace and truncates long capture text to maxDetail runes.
func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxDetail {
		s = string([]rune(s)[:maxDetail]) + "..."
	}
	return s
}
