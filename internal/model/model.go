// Package model defines core data structures for archlens.
package model

// Category groups patterns in the registry.
type Category string

const (
	Basic         Category = "basic"
	DesignPattern Category = "design_pattern"
	CodeSmell     Category = "code_smell"
	Architectural Category = "architectural"
)

// Categories lists every category in declaration order.
var Categories = []Category{Basic, DesignPattern, CodeSmell, Architectural}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Match is a single pattern occurrence in one file. Lines and columns are 1-based.
type Match struct {
	Pattern string            `json:"pattern"`
	Kind    string            `json:"kind"`
	Name    string            `json:"name"`
	Line    int               `json:"line"`
	Column  int               `json:"column"`
	EndLine int               `json:"end_line,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// DefinitionKind indicates the syntactic kind of a definition.
type DefinitionKind string

const (
	Class     DefinitionKind = "class"
	Interface DefinitionKind = "interface"
	Function  DefinitionKind = "function"
	Method    DefinitionKind = "method"
)

// Definition is a named type or callable declared in a file.
type Definition struct {
	Name  string         `json:"name"`
	Kind  DefinitionKind `json:"kind"`
	Line  int            `json:"line"`
	Bases []string       `json:"bases,omitempty"`
	// Owner is the enclosing type for methods.
	Owner string `json:"owner,omitempty"`
}

// Import is a module path referenced by an import statement.
type Import struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

// FileResult is everything the per-file analysis produced for one file.
// A non-nil Err means the file could not be parsed.
type FileResult struct {
	Path            string             `json:"path"`
	Language        string             `json:"language"`
	Matches         map[string][]Match `json:"matches,omitempty"`
	Definitions     []Definition       `json:"definitions,omitempty"`
	Imports         []Import           `json:"imports,omitempty"`
	TypeRefs        []string           `json:"type_refs,omitempty"`
	PatternFailures []PatternFailure   `json:"-"`
	Err             error              `json:"-"`
}

// Empty reports whether the file contributed nothing usable.
func (r *FileResult) Empty() bool {
	return len(r.Definitions) == 0 && len(r.Imports) == 0 && len(r.Matches) == 0
}
