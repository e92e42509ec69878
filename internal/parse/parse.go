// Package parse extracts definitions, imports and type references from syntax trees.
package parse

import (
	"fmt"

	"github.com/phobologic/archlens/internal/lang"
	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/syntax"
)

var definitionCaptures = map[string]model.DefinitionKind{
	"definition.class":     model.Class,
	"definition.interface": model.Interface,
	"definition.function":  model.Function,
	"definition.method":    model.Method,
}

const (
	importCapture = "reference.import"
	baseCapture   = "reference.base"
	typeCapture   = "reference.type"
)

// Structure is the static shape of one file.
type Structure struct {
	Definitions []model.Definition
	Imports     []model.Import
	TypeRefs    []string
}

// Extract runs the language's tag query over tree. Results are in document order.
func Extract(l *lang.Language, tree *syntax.Tree) (Structure, error) {
	var s Structure
	if len(tree.Source()) == 0 {
		return s, nil
	}

	query, err := l.TagQuery()
	if err != nil {
		return s, fmt.Errorf("tag query for %s: %w", l.Name, err)
	}
	bindings, err := tree.Run(query)
	if err != nil {
		return s, err
	}

	bases := make(map[string][]string)
	seenImports := make(map[string]struct{})
	seenTypes := make(map[string]struct{})

	for _, b := range bindings {
		nameNode, ok := b.Get("name")
		if !ok {
			continue
		}
		role, roleNode := roleCapture(b)
		if roleNode == nil {
			continue
		}
		name := nameNode.Text()
		line := int(nameNode.StartPoint().Row) + 1

		switch role {
		case importCapture:
			path := l.ImportPath(name)
			if path == "" {
				continue
			}
			if _, dup := seenImports[path]; dup {
				continue
			}
			seenImports[path] = struct{}{}
			s.Imports = append(s.Imports, model.Import{Path: path, Line: line})

		case baseCapture:
			owner, ok := b.Get("owner")
			if !ok {
				continue
			}
			bases[owner.Text()] = appendUnique(bases[owner.Text()], name)

		case typeCapture:
			if _, dup := seenTypes[name]; dup {
				continue
			}
			seenTypes[name] = struct{}{}
			s.TypeRefs = append(s.TypeRefs, name)

		default:
			kind := definitionCaptures[role]
			def := model.Definition{Name: name, Kind: kind, Line: line}
			if kind == model.Function || kind == model.Method {
				if owner := l.MethodOwner(roleNode); owner != "" {
					def.Kind = model.Method
					def.Owner = owner
				}
			}
			s.Definitions = append(s.Definitions, def)
		}
	}

	for i := range s.Definitions {
		d := &s.Definitions[i]
		if d.Kind == model.Class || d.Kind == model.Interface {
			d.Bases = bases[d.Name]
		}
	}

	return s, nil
}

// roleCapture finds the capture naming what the binding represents.
func roleCapture(b syntax.Binding) (string, syntax.Node) {
	for _, c := range b.Captures {
		switch c.Name {
		case importCapture, baseCapture, typeCapture:
			return c.Name, c.Node
		}
		if _, ok := definitionCaptures[c.Name]; ok {
			return c.Name, c.Node
		}
	}
	return "", nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
