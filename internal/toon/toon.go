// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/archlens/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts an Analysis into TOON format.
func Encode(a *model.Analysis) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(a.Root)))
	parts = append(parts, fmt.Sprintf("files: %d", a.Files))
	if a.Truncated {
		parts = append(parts, "truncated: true")
	}

	var compRows [][]string
	for i := range a.Components {
		c := &a.Components[i]
		compRows = append(compRows, []string{
			c.Path,
			c.Language,
			string(c.Layer),
			c.Domain,
			string(c.Type),
			fmt.Sprintf("%.4f", c.Rank),
			strings.Join(c.Responsibilities, " "),
		})
	}
	parts = append(parts, formatTabular("components",
		[]string{"path", "language", "layer", "domain", "type", "rank", "responsibilities"}, compRows))

	var edgeRows [][]string
	for _, e := range a.Edges {
		edgeRows = append(edgeRows, []string{e.Source, e.Target, string(e.Kind), strconv.Itoa(e.Count)})
	}
	parts = append(parts, formatTabular("edges", []string{"source", "target", "kind", "count"}, edgeRows))

	var matchRows [][]string
	for i := range a.Matches {
		m := &a.Matches[i]
		matchRows = append(matchRows, []string{m.File, m.Pattern, m.Name, strconv.Itoa(m.Line)})
	}
	parts = append(parts, formatTabular("matches", []string{"file", "pattern", "name", "line"}, matchRows))

	var styleRows, recRows [][]string
	for _, r := range a.Reports {
		styleRows = append(styleRows, []string{
			r.Style,
			fmt.Sprintf("%.3f", r.Confidence),
			strconv.FormatBool(r.Healthy),
			strconv.Itoa(len(r.Violations)),
		})
		for _, text := range r.Recommendations {
			recRows = append(recRows, []string{r.Style, text})
		}
	}
	parts = append(parts, formatTabular("styles", []string{"style", "confidence", "healthy", "violations"}, styleRows))

	var findingRows [][]string
	for _, f := range a.Findings {
		findingRows = append(findingRows, []string{string(f.Kind), f.Style, f.Summary})
	}
	parts = append(parts, formatTabular("findings", []string{"kind", "style", "summary"}, findingRows))
	parts = append(parts, formatTabular("recommendations", []string{"style", "text"}, recRows))

	if len(a.ParseFailures) > 0 {
		var rows [][]string
		for _, f := range a.ParseFailures {
			rows = append(rows, []string{f.Path, f.Error})
		}
		parts = append(parts, formatTabular("parse_failures", []string{"path", "error"}, rows))
	}
	if len(a.PatternFailures) > 0 {
		var rows [][]string
		for _, f := range a.PatternFailures {
			rows = append(rows, []string{f.Path, f.Pattern, f.Error})
		}
		parts = append(parts, formatTabular("pattern_failures", []string{"path", "pattern", "error"}, rows))
	}
	if len(a.Skipped) > 0 {
		var rows [][]string
		for _, s := range a.Skipped {
			rows = append(rows, []string{s.Path, s.Reason})
		}
		parts = append(parts, formatTabular("skipped", []string{"path", "reason"}, rows))
	}

	return strings.Join(parts, "\n")
}

// Table renders rows as one tabular TOON block.
func Table(name string, columns []string, rows [][]string) string {
	return formatTabular(name, columns, rows)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
