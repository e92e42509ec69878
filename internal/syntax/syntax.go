// Package syntax wraps tree-sitter parse trees behind a small read-only node interface.
package syntax

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/archlens/internal/model"
)

// ErrSyntax is wrapped by parse failures caused by syntax errors in the source.
var ErrSyntax = errors.New("syntax error")

// Point is a zero-based row/column position.
type Point struct {
	Row    uint32
	Column uint32
}

// Node is a read-only view of one syntax tree node.
type Node interface {
	Kind() string
	StartByte() uint32
	EndByte() uint32
	StartPoint() Point
	EndPoint() Point
	ChildCount() int
	Child(i int) Node
	NamedChildCount() int
	ChildByField(name string) Node
	Parent() Node
	Text() string
}

type node struct {
	n   *sitter.Node
	src []byte
}

func wrap(n *sitter.Node, src []byte) Node {
	if n == nil || n.IsNull() {
		return nil
	}
	return &node{n: n, src: src}
}

func (n *node) Kind() string      { return n.n.Type() }
func (n *node) StartByte() uint32 { return n.n.StartByte() }
func (n *node) EndByte() uint32   { return n.n.EndByte() }

func (n *node) StartPoint() Point {
	p := n.n.StartPoint()
	return Point{Row: p.Row, Column: p.Column}
}

func (n *node) EndPoint() Point {
	p := n.n.EndPoint()
	return Point{Row: p.Row, Column: p.Column}
}

func (n *node) ChildCount() int      { return int(n.n.ChildCount()) }
func (n *node) Child(i int) Node     { return wrap(n.n.Child(i), n.src) }
func (n *node) NamedChildCount() int { return int(n.n.NamedChildCount()) }

func (n *node) ChildByField(name string) Node {
	return wrap(n.n.ChildByFieldName(name), n.src)
}

func (n *node) Parent() Node { return wrap(n.n.Parent(), n.src) }

func (n *node) Text() string {
	return string(n.src[n.n.StartByte():n.n.EndByte()])
}

// Same reports whether a and b denote the same node.
func Same(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

// Tree is a parsed source file. It is never mutated after Parse returns.
type Tree struct {
	path     string
	language string
	source   []byte
	tree     *sitter.Tree
}

// Parse parses source with parser, which must already be set to the file's language.
// Parsers are not safe for concurrent use; trees are safe for concurrent reads.
// Unless tolerant is set, a tree containing syntax errors is reported as a ParseFailure.
func Parse(ctx context.Context, parser *sitter.Parser, path, language string, source []byte, tolerant bool) (*Tree, error) {
	t, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &model.ParseFailure{Path: path, Err: err}
	}
	if t == nil {
		return nil, &model.ParseFailure{Path: path, Err: errors.New("parser returned no tree")}
	}

	root := t.RootNode()
	if !tolerant && root.HasError() {
		at := firstError(root)
		t.Close()
		return nil, &model.ParseFailure{
			Path: path,
			Err:  fmt.Errorf("%w at line %d column %d", ErrSyntax, at.Row+1, at.Column+1),
		}
	}

	return &Tree{path: path, language: language, source: source, tree: t}, nil
}

// firstError returns the position of the first ERROR or missing node under n.
func firstError(n *sitter.Node) sitter.Point {
	if n.IsError() || n.IsMissing() {
		return n.StartPoint()
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			return firstError(child)
		}
	}
	return n.StartPoint()
}

// Path returns the repo-relative path the tree was parsed from.
func (t *Tree) Path() string { return t.path }

// Language returns the language name the tree was parsed with.
func (t *Tree) Language() string { return t.language }

// Source returns the source text. Callers must not modify it.
func (t *Tree) Source() []byte { return t.source }

// Root returns the root node.
func (t *Tree) Root() Node { return wrap(t.tree.RootNode(), t.source) }

// Close releases the native tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}
