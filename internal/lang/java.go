package lang

import (
	"github.com/smacker/go-tree-sitter/java"

	"github.com/phobologic/archlens/internal/syntax"
)

func init() {
	Languages["java"] = &Language{
		Name:        "java",
		Extensions:  []string{".java"},
		lang:        java.GetLanguage(),
		MethodOwner: javaMethodClass,
		ImportPath:  dottedImport,
	}
}

// javaMethodClass returns the type declaring a method: method → body → declaration.
func javaMethodClass(def syntax.Node) string {
	body := def.Parent()
	if body == nil {
		return ""
	}
	decl := body.Parent()
	if decl == nil {
		return ""
	}
	switch decl.Kind() {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		return nameOf(decl)
	}
	return ""
}
