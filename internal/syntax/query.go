package syntax

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Query is a compiled tree-sitter query bound to one language.
// Compiled queries are safe to share across goroutines.
type Query struct {
	language string
	q        *sitter.Query
}

// CompileQuery compiles text for the given grammar.
func CompileQuery(language string, grammar *sitter.Language, text string) (*Query, error) {
	q, err := sitter.NewQuery([]byte(text), grammar)
	if err != nil {
		return nil, fmt.Errorf("compiling %s query: %w", language, err)
	}
	return &Query{language: language, q: q}, nil
}

// Language returns the language the query was compiled for.
func (q *Query) Language() string { return q.language }

// Capture is one named node inside a binding.
type Capture struct {
	Name string
	Node Node
}

// Binding is one query match: its captures in the order tree-sitter produced them.
type Binding struct {
	Captures []Capture
}

// Get returns the first capture with the given name.
func (b Binding) Get(name string) (Node, bool) {
	for _, c := range b.Captures {
		if c.Name == name {
			return c.Node, true
		}
	}
	return nil, false
}

// Run executes q over the whole tree and returns bindings that pass the query's
// predicates, in document order.
func (t *Tree) Run(q *Query) ([]Binding, error) {
	if q.language != t.language {
		return nil, fmt.Errorf("query for %s run on %s tree", q.language, t.language)
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q.q, t.tree.RootNode())

	var bindings []Binding
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, t.source)
		if len(match.Captures) == 0 {
			continue
		}

		b := Binding{Captures: make([]Capture, 0, len(match.Captures))}
		for _, c := range match.Captures {
			b.Captures = append(b.Captures, Capture{
				Name: q.q.CaptureNameForId(c.Index),
				Node: wrap(c.Node, t.source),
			})
		}
		bindings = append(bindings, b)
	}

	return bindings, nil
}
