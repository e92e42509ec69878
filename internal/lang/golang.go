package lang

import (
	"strings"

	"github.com/smacker/go-tree-sitter/golang"

	"github.com/phobologic/archlens/internal/syntax"
)

func init() {
	Languages["go"] = &Language{
		Name:        "go",
		Extensions:  []string{".go"},
		lang:        golang.GetLanguage(),
		MethodOwner: goReceiverType,
		ImportPath:  goImportPath,
	}
}

// goReceiverType extracts the receiver type name from a method_declaration node.
// Navigates: method_declaration → receiver parameter_list → parameter_declaration → type.
func goReceiverType(def syntax.Node) string {
	if def.Kind() != "method_declaration" {
		return ""
	}
	receiver := def.ChildByField("receiver")
	if receiver == nil {
		return ""
	}
	for i := 0; i < receiver.ChildCount(); i++ {
		param := receiver.Child(i)
		if param.Kind() == "parameter_declaration" {
			return goTypeName(param.ChildByField("type"))
		}
	}
	return ""
}

// goTypeName unwraps pointer and generic receivers down to the type identifier.
func goTypeName(t syntax.Node) string {
	for t != nil {
		switch t.Kind() {
		case "type_identifier":
			return t.Text()
		case "pointer_type":
			t = firstNamedOfKind(t, "type_identifier", "generic_type")
		case "generic_type":
			t = t.ChildByField("type")
		default:
			return ""
		}
	}
	return ""
}

func firstNamedOfKind(n syntax.Node, kinds ...string) syntax.Node {
	for i := 0; i < n.ChildCount(); i++ {
		child := n.Child(i)
		for _, k := range kinds {
			if child.Kind() == k {
				return child
			}
		}
	}
	return nil
}

func goImportPath(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), "\"`")
}
