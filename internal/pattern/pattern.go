// Package pattern defines named, reusable rules for recognizing constructs in a
// parsed file, and the read-only registry that holds them.
package pattern

import (
	"fmt"
	"sort"

	"github.com/phobologic/archlens/internal/lang"
	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/syntax"
)

// Pattern is implemented by exactly two types: *QueryPattern and *CompositePattern.
type Pattern interface {
	Name() string
	Category() model.Category
	// Languages returns the supported languages, sorted. Empty means any language.
	Languages() []string
	Description() string
	// Layer is the architectural layer a match hints at, or "" for none.
	Layer() model.Layer
	// Match returns the pattern's matches in in's tree. It never modifies the tree.
	Match(in *Input) ([]model.Match, error)

	sealed()
}

// Supports reports whether p applies to files in language.
func Supports(p Pattern, language string) bool {
	langs := p.Languages()
	if len(langs) == 0 {
		return true
	}
	i := sort.SearchStrings(langs, language)
	return i < len(langs) && langs[i] == language
}

type memoEntry struct {
	matches []model.Match
	err     error
}

// Input is one file being matched. Results are memoized per pattern so that
// composites and direct runs share work. An Input must not be shared between goroutines.
type Input struct {
	Tree *syntax.Tree
	Lang *lang.Language
	memo map[string]memoEntry
}

// NewInput prepares tree for matching.
func NewInput(tree *syntax.Tree) (*Input, error) {
	l, ok := lang.Languages[tree.Language()]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", tree.Language())
	}
	return &Input{Tree: tree, Lang: l, memo: make(map[string]memoEntry)}, nil
}

// Run matches p against the input, reusing an earlier result for the same pattern.
func (in *Input) Run(p Pattern) ([]model.Match, error) {
	if e, ok := in.memo[p.Name()]; ok {
		return e.matches, e.err
	}
	matches, err := p.Match(in)
	in.memo[p.Name()] = memoEntry{matches: matches, err: err}
	return matches, err
}

// base carries the attributes shared by both variants.
type base struct {
	name        string
	category    model.Category
	kind        string
	description string
	layer       model.Layer
	languages   []string
}

func (b *base) Name() string             { return b.name }
func (b *base) Category() model.Category { return b.category }
func (b *base) Description() string      { return b.description }
func (b *base) Layer() model.Layer       { return b.layer }

func (b *base) Languages() []string {
	return append([]string(nil), b.languages...)
}

func (b *base) validate() error {
	if b.name == "" {
		return fmt.Errorf("pattern has no name")
	}
	if !b.category.Valid() {
		return fmt.Errorf("pattern %s: invalid category %q", b.name, b.category)
	}
	if b.layer != "" && b.layer != model.Unknown {
		valid := false
		for _, l := range model.Layers {
			if b.layer == l {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("pattern %s: invalid layer %q", b.name, b.layer)
		}
	}
	if b.kind == "" {
		b.kind = string(b.category)
	}
	return nil
}
