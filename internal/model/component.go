package model

// Layer is the architectural layer inferred for a component.
type Layer string

const (
	Presentation Layer = "presentation"
	Business     Layer = "business"
	DataAccess   Layer = "data_access"
	Domain       Layer = "domain"
	Unknown      Layer = "unknown"
)

// Layers lists the known layers in tie-break order. Unknown is not included.
var Layers = []Layer{Presentation, Business, DataAccess, Domain}

// ComponentType is the coarse shape of a component.
type ComponentType string

const (
	ClassComponent    ComponentType = "class"
	FunctionComponent ComponentType = "function"
	ModuleComponent   ComponentType = "module"
)

// Component is a graph node: one analyzed file with its inferred role.
type Component struct {
	Path             string        `json:"path"`
	Language         string        `json:"language"`
	Layer            Layer         `json:"layer"`
	Domain           string        `json:"domain,omitempty"`
	Responsibilities []string      `json:"responsibilities,omitempty"`
	Type             ComponentType `json:"type"`
	Definitions      []Definition  `json:"definitions,omitempty"`
	Imports          []Import      `json:"imports,omitempty"`
	Patterns         []string      `json:"patterns,omitempty"`
	Rank             float64       `json:"rank"`
}

// HasResponsibility reports whether tag is among the component's responsibilities.
func (c *Component) HasResponsibility(tag string) bool {
	for _, r := range c.Responsibilities {
		if r == tag {
			return true
		}
	}
	return false
}

// HasPattern reports whether the named pattern matched in the component's file.
func (c *Component) HasPattern(name string) bool {
	for _, p := range c.Patterns {
		if p == name {
			return true
		}
	}
	return false
}

// EdgeKind classifies a dependency between two components.
type EdgeKind string

const (
	Inheritance EdgeKind = "inheritance"
	Composition EdgeKind = "composition"
	ImportEdge  EdgeKind = "import"
)

// Priority orders edge kinds when several connect the same pair; lower wins.
func (k EdgeKind) Priority() int {
	switch k {
	case Inheritance:
		return 0
	case Composition:
		return 1
	default:
		return 2
	}
}

// Edge is a directed dependency between two components, as indices into the
// graph's component arena. Count is the number of references collapsed into it.
type Edge struct {
	From  int      `json:"from"`
	To    int      `json:"to"`
	Kind  EdgeKind `json:"kind"`
	Count int      `json:"count"`
}
