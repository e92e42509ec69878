package model

// EdgeVerdict is the per-evaluation verdict for one graph edge. Styles annotate
// edges here instead of on the graph so that evaluations stay independent.
type EdgeVerdict struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Violation bool   `json:"violation"`
}

// Report is the result of evaluating one architectural style against a graph.
type Report struct {
	Style           string         `json:"style"`
	Confidence      float64        `json:"confidence"`
	Healthy         bool           `json:"healthy"`
	RoleCounts      map[string]int `json:"role_counts"`
	LayerCounts     map[string]int `json:"layer_counts"`
	DomainCounts    map[string]int `json:"domain_counts,omitempty"`
	Violations      []Violation    `json:"-"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Edges           []EdgeVerdict  `json:"edges,omitempty"`
	Unclassified    []string       `json:"unclassified,omitempty"`
}

// ViolationCount returns the number of violations of the given kind.
func (r *Report) ViolationCount(kind ViolationKind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind() == kind {
			n++
		}
	}
	return n
}
