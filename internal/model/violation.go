package model

import (
	"fmt"
	"strings"
)

// ViolationKind tags the variant of a Violation.
type ViolationKind string

const (
	LayerOrderKind    ViolationKind = "layer_order"
	CycleKind         ViolationKind = "dependency_cycle"
	TightCouplingKind ViolationKind = "tight_coupling"
	GodComponentKind  ViolationKind = "god_component"
	ErosionKind       ViolationKind = "architectural_erosion"
)

// Violation is a finding that part of the graph breaks a style or anti-pattern rule.
// The set of implementations is closed.
type Violation interface {
	Kind() ViolationKind
	String() string
	violation()
}

// LayerOrderViolation is an edge whose role transition the style does not allow.
type LayerOrderViolation struct {
	Source string `json:"source"`
	Target string `json:"target"`
	From   string `json:"from"`
	To     string `json:"to"`
	// Note carries style-specific context, e.g. crossed service boundaries.
	Note string `json:"note,omitempty"`
}

func (LayerOrderViolation) Kind() ViolationKind { return LayerOrderKind }
func (LayerOrderViolation) violation()          {}

func (v LayerOrderViolation) String() string {
	s := fmt.Sprintf("%s -> %s (%s -> %s)", v.Source, v.Target, v.From, v.To)
	if v.Note != "" {
		s += ": " + v.Note
	}
	return s
}

// DependencyCycle lists component paths forming a cycle, starting from the
// lexicographically smallest one.
type DependencyCycle struct {
	Components []string `json:"components"`
}

func (DependencyCycle) Kind() ViolationKind { return CycleKind }
func (DependencyCycle) violation()          {}

func (v DependencyCycle) String() string {
	if len(v.Components) == 0 {
		return ""
	}
	return strings.Join(v.Components, " -> ") + " -> " + v.Components[0]
}

// TightCoupling flags a component with too many dependencies in either direction.
type TightCoupling struct {
	Component string `json:"component"`
	Degree    int    `json:"degree"`
}

func (TightCoupling) Kind() ViolationKind { return TightCouplingKind }
func (TightCoupling) violation()          {}

func (v TightCoupling) String() string {
	return fmt.Sprintf("%s (degree %d)", v.Component, v.Degree)
}

// GodComponent flags a highly connected component that also carries many responsibilities.
type GodComponent struct {
	Component        string   `json:"component"`
	Degree           int      `json:"degree"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

func (GodComponent) Kind() ViolationKind { return GodComponentKind }
func (GodComponent) violation()          {}

func (v GodComponent) String() string {
	return fmt.Sprintf("%s (degree %d, %d responsibilities)", v.Component, v.Degree, len(v.Responsibilities))
}

// ArchitecturalErosion reports a metric that worsened since a prior run.
type ArchitecturalErosion struct {
	Metric string  `json:"metric"`
	Trend  string  `json:"trend"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

func (ArchitecturalErosion) Kind() ViolationKind { return ErosionKind }
func (ArchitecturalErosion) violation()          {}

func (v ArchitecturalErosion) String() string {
	return fmt.Sprintf("%s %s (%.3f -> %.3f)", v.Metric, v.Trend, v.Before, v.After)
}
