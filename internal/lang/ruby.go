package lang

import (
	"strings"

	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/phobologic/archlens/internal/syntax"
)

func init() {
	Languages["ruby"] = &Language{
		Name:        "ruby",
		Extensions:  []string{".rb"},
		lang:        ruby.GetLanguage(),
		MethodOwner: rubyMethodClass,
		ImportPath:  rubyRequirePath,
	}
}

// rubyMethodClass walks ancestors of a method node to the nearest class or module.
func rubyMethodClass(def syntax.Node) string {
	for current := def.Parent(); current != nil; current = current.Parent() {
		switch current.Kind() {
		case "class", "module":
			return nameOf(current)
		case "method", "singleton_method":
			return ""
		}
	}
	return ""
}

func rubyRequirePath(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "./")
	for strings.HasPrefix(raw, "../") {
		raw = strings.TrimPrefix(raw, "../")
	}
	return strings.TrimSuffix(raw, ".rb")
}
