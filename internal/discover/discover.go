// Package discover finds parseable source files in a repository.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/archlens/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to repo root
	Language string
	Size     int64
}

// Options narrows discovery. The zero value finds every supported file.
type Options struct {
	// Languages restricts results to the listed languages.
	Languages []string
	// Exclude holds gitignore-style patterns matched against relative paths.
	Exclude []string
	// MaxFileSize skips larger files when positive.
	MaxFileSize int64
	// IncludeTests keeps files IsTestFile recognizes.
	IncludeTests bool
}

// Skipped is a file discovery passed over, with the reason.
type Skipped struct {
	Path   string
	Reason string
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	".env":          {},
	"build":         {},
	"dist":          {},
	"target":        {},
	"vendor":        {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
	"egg-info":      {},
}

// SkipDir reports whether a directory with this name is never analyzed:
// hidden, vendored, virtualenv and build output directories.
func SkipDir(name string) bool {
	_, skip := skipDirs[name]
	return skip || strings.HasPrefix(name, ".")
}

// Files discovers parseable source files under root, sorted by path. Files
// dropped for size are reported in the second return value.
func Files(root string, opts Options) ([]FileEntry, []Skipped, error) {
	langSet := make(map[string]struct{}, len(opts.Languages))
	for _, l := range opts.Languages {
		langSet[l] = struct{}{}
	}
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}
	var excluded *ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		excluded = ignore.CompileIgnoreLines(opts.Exclude...)
	}

	var results []FileEntry
	var skipped []Skipped

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if SkipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		slashed := filepath.ToSlash(rel)

		if gitFiles != nil {
			if _, ok := gitFiles[slashed]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(slashed) {
			return nil
		}
		if excluded != nil && excluded.MatchesPath(slashed) {
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}
		if len(langSet) > 0 {
			if _, ok := langSet[langName]; !ok {
				return nil
			}
		}
		if !opts.IncludeTests && IsTestFile(slashed) {
			return nil
		}

		entry := FileEntry{Path: rel, Language: langName}
		if info, err := d.Info(); err == nil {
			entry.Size = info.Size()
		}
		if opts.MaxFileSize > 0 && entry.Size > opts.MaxFileSize {
			skipped = append(skipped, Skipped{Path: rel, Reason: "exceeds max file size"})
			return nil
		}

		results = append(results, entry)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, skipped, nil
}

var testDirs = map[string]struct{}{
	"test":      {},
	"tests":     {},
	"spec":      {},
	"__tests__": {},
}

// IsTestFile reports whether a slash-separated relative path looks like test
// code, by directory or by file name.
func IsTestFile(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := testDirs[dir]; ok {
			return true
		}
	}

	name := parts[len(parts)-1]
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	switch {
	case strings.HasSuffix(stem, "_test"), strings.HasSuffix(stem, "_spec"):
		return true
	case strings.HasPrefix(stem, "test_"):
		return true
	case strings.HasSuffix(stem, ".test"), strings.HasSuffix(stem, ".spec"):
		return true
	case strings.HasSuffix(stem, "Test") && filepath.Ext(name) == ".java":
		return true
	}
	return false
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
