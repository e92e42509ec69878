package lang

import (
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/archlens/internal/syntax"
)

func init() {
	Languages["python"] = &Language{
		Name:        "python",
		Extensions:  []string{".py"},
		lang:        python.GetLanguage(),
		MethodOwner: pythonMethodClass,
		ImportPath:  dottedImport,
	}
}

func pythonMethodClass(funcNode syntax.Node) string {
	classNode := pythonEnclosingClass(funcNode)
	if classNode == nil {
		return ""
	}
	return nameOf(classNode)
}

func pythonEnclosingClass(funcNode syntax.Node) syntax.Node {
	parent := funcNode.Parent()
	if parent == nil {
		return nil
	}

	// Direct: func -> block -> class_definition
	if parent.Kind() == "block" && parent.Parent() != nil && parent.Parent().Kind() == "class_definition" {
		return parent.Parent()
	}

	// Decorated: func -> decorated_definition -> block -> class_definition
	if parent.Kind() == "decorated_definition" {
		gp := parent.Parent()
		if gp != nil && gp.Kind() == "block" && gp.Parent() != nil && gp.Parent().Kind() == "class_definition" {
			return gp.Parent()
		}
	}

	return nil
}
