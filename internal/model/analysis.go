package model

// Analysis is the complete output of one run, ready for encoding.
type Analysis struct {
	Root      string `json:"root"`
	Files     int    `json:"files"`
	Truncated bool   `json:"truncated,omitempty"`
	// Components are ordered by rank, highest first, then by path.
	Components      []Component             `json:"components"`
	Edges           []PathEdge              `json:"edges"`
	Matches         []FileMatch             `json:"matches,omitempty"`
	Reports         []*Report               `json:"reports,omitempty"`
	Findings        []Finding               `json:"findings,omitempty"`
	ParseFailures   []Failure               `json:"parse_failures,omitempty"`
	PatternFailures []Failure               `json:"pattern_failures,omitempty"`
	Skipped         []GraphConstructionSkip `json:"skipped,omitempty"`
}

// PathEdge is an Edge with its endpoints named by path.
type PathEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
	Count  int      `json:"count"`
}

// FileMatch is a Match located in a file.
type FileMatch struct {
	File string `json:"file"`
	Match
}

// Finding is a Violation flattened for output. Style violations carry the
// style that reported them.
type Finding struct {
	Kind    ViolationKind `json:"kind"`
	Style   string        `json:"style,omitempty"`
	Summary string        `json:"summary"`
	Detail  Violation     `json:"detail"`
}

// NewFinding wraps v.
func NewFinding(style string, v Violation) Finding {
	return Finding{Kind: v.Kind(), Style: style, Summary: v.String(), Detail: v}
}

// Failure is a per-item error rendered as text.
type Failure struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern,omitempty"`
	Error   string `json:"error"`
}
