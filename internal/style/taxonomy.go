package style

import (
	"fmt"

	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/naming"
)

// classifier returns the candidate roles one heuristic sees for a component.
type classifier func(c *model.Component) []string

// taxonomy describes a style: its roles, how components are assigned to
// them, which role transitions an edge may make and what the style's
// signature shape looks like.
type taxonomy struct {
	name  string
	roles []string
	// levels run in order; the first returning any candidate decides.
	levels  []classifier
	allowed func(from, to string) bool
	// boundary, when set, may reject an allowed edge with a note.
	boundary        func(from, to *model.Component, toRole string) string
	signature       func(v *view) float64
	signatureAdvice string
	// advice overrides the generic violation text per role transition.
	advice map[[2]string]string
}

// classify picks the most voted candidate of the first deciding level. Ties
// go to the role declared first.
func (t *taxonomy) classify(c *model.Component) string {
	for _, level := range t.levels {
		candidates := level(c)
		if len(candidates) == 0 {
			continue
		}
		votes := make(map[string]int, len(candidates))
		for _, r := range candidates {
			votes[r]++
		}
		best, bestVotes := "", 0
		for _, r := range t.roles {
			if votes[r] > bestVotes {
				best, bestVotes = r, votes[r]
			}
		}
		if best != "" {
			return best
		}
	}
	return ""
}

func (t *taxonomy) violationText(from, to string, boundary bool) string {
	if boundary {
		return fmt.Sprintf("%s calls %s inside another service; go through that service's api or move the code to shared", from, to)
	}
	if text, ok := t.advice[[2]string{from, to}]; ok {
		return text
	}
	return fmt.Sprintf("%s must not depend on %s in a %s architecture; invert the dependency behind an abstraction", from, to, t.name)
}

func (t *taxonomy) unclassifiedText(n int) string {
	noun := "components match"
	if n == 1 {
		noun = "component matches"
	}
	return fmt.Sprintf("%d %s no %s role; place them under conventional directories or name them by role", n, noun, t.name)
}

// dirRoles classifies by the nearest conventional directory.
func dirRoles(table map[string]string) classifier {
	return func(c *model.Component) []string {
		if r, ok := naming.NearestDir(c.Path, table); ok {
			return []string{r}
		}
		return nil
	}
}

// nameRoles votes with the trailing words of the file stem and of every
// declared type and base type.
func nameRoles(table map[string]string) classifier {
	return func(c *model.Component) []string {
		var out []string
		if r, n := naming.Trailing(naming.Words(naming.Stem(c.Path)), table); n > 0 {
			out = append(out, r)
		}
		for _, d := range c.Definitions {
			if d.Kind != model.Class && d.Kind != model.Interface {
				continue
			}
			if r, n := naming.Trailing(naming.Words(d.Name), table); n > 0 {
				out = append(out, r)
			}
			for _, b := range d.Bases {
				if r, n := naming.Trailing(naming.Words(b), table); n > 0 {
					out = append(out, r)
				}
			}
		}
		return out
	}
}

// layerRoles maps the component's inferred layer.
func layerRoles(table map[model.Layer]string) classifier {
	return func(c *model.Component) []string {
		if r, ok := table[c.Layer]; ok {
			return []string{r}
		}
		return nil
	}
}

// patternRoles votes with matched pattern names.
func patternRoles(table map[string]string) classifier {
	return func(c *model.Component) []string {
		var out []string
		for _, p := range c.Patterns {
			if r, ok := table[p]; ok {
				out = append(out, r)
			}
		}
		return out
	}
}

func transitions(pairs ...[2]string) func(from, to string) bool {
	set := make(map[[2]string]bool, len(pairs))
	for _, p := range pairs {
		set[p] = true
	}
	return func(from, to string) bool {
		return from == to || set[[2]string{from, to}]
	}
}

func presence(ok bool, partial bool) float64 {
	switch {
	case ok:
		return 1
	case partial:
		return 0.5
	default:
		return 0
	}
}
