// Package lang provides a language registry mapping file extensions to
// tree-sitter languages and their embedded tag queries.
package lang

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/archlens/internal/syntax"
)

//go:embed queries/*.scm
var queryFS embed.FS

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
	queryOnce  sync.Once
	query      *syntax.Query
	queryErr   error

	// MethodOwner returns the name of the type a function or method definition
	// belongs to, or "" for free functions.
	MethodOwner func(def syntax.Node) string

	// ImportPath turns the captured text of an import into a slash-separated
	// module path. Returns "" for imports that cannot name a local module.
	ImportPath func(raw string) string
}

// Grammar returns the tree-sitter Language pointer.
func (l *Language) Grammar() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// CompileQuery compiles a query against this language's grammar.
func (l *Language) CompileQuery(text string) (*syntax.Query, error) {
	return syntax.CompileQuery(l.Name, l.lang, text)
}

// TagQuery returns the compiled tag query (safe to share across goroutines).
func (l *Language) TagQuery() (*syntax.Query, error) {
	l.queryOnce.Do(func() {
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.Name))
		if err != nil {
			l.queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		l.query, l.queryErr = l.CompileQuery(string(data))
	})
	return l.query, l.queryErr
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// Names returns the registered language names, sorted.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// dottedImport converts a dotted module name into a slash path.
func dottedImport(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimLeft(raw, ".")
	raw = strings.TrimSuffix(raw, ".*")
	return strings.ReplaceAll(raw, ".", "/")
}

// nameOf returns the text of the node's "name" field, or "".
func nameOf(n syntax.Node) string {
	if name := n.ChildByField("name"); name != nil {
		return name.Text()
	}
	return ""
}
