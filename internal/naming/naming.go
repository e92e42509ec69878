// Package naming splits identifiers and paths into the words that
// architectural heuristics key on.
package naming

import (
	"path"
	"strings"
	"unicode"
)

// Words splits an identifier on underscores, dashes, dots, spaces and
// camel-case boundaries, lowercasing each word. "HTTPServer" yields
// ["http", "server"].
func Words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// Trailing looks up the last two words joined, then the last word, in table.
// It returns the value and how many words matched, or zero values.
func Trailing[V any](ws []string, table map[string]V) (V, int) {
	if len(ws) >= 2 {
		if v, ok := table[ws[len(ws)-2]+ws[len(ws)-1]]; ok {
			return v, 2
		}
	}
	if len(ws) >= 1 {
		if v, ok := table[ws[len(ws)-1]]; ok {
			return v, 1
		}
	}
	var zero V
	return zero, 0
}

// Stem returns the file name of a slash path without its extension.
func Stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Dirs returns the directory segments of a slash path, outermost first.
func Dirs(p string) []string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return nil
	}
	return strings.Split(d, "/")
}

// NearestDir returns the value for the directory segment closest to the file,
// matched case-insensitively.
func NearestDir[V any](p string, table map[string]V) (V, bool) {
	ds := Dirs(p)
	for i := len(ds) - 1; i >= 0; i-- {
		if v, ok := table[strings.ToLower(ds[i])]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}
