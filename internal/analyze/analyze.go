// Package analyze runs per-file parsing, pattern recognition and structural
// extraction over a batch of files with a bounded worker pool.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/archlens/internal/discover"
	"github.com/phobologic/archlens/internal/lang"
	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/parse"
	"github.com/phobologic/archlens/internal/pattern"
	"github.com/phobologic/archlens/internal/recognize"
	"github.com/phobologic/archlens/internal/syntax"
)

const tracerName = "github.com/phobologic/archlens/internal/analyze"

// Options configures a batch run.
type Options struct {
	// Workers bounds concurrency; zero means GOMAXPROCS.
	Workers int
	// MaxFiles stops scheduling after this many files when positive.
	MaxFiles   int
	Patterns   []string
	Categories []model.Category
	// Tolerant keeps trees that contain syntax errors instead of failing the file.
	Tolerant bool
	Logger   *slog.Logger
}

// Batch is the outcome of a run. Results are sorted by path and include
// files that failed to parse, with Err set.
type Batch struct {
	Results         []model.FileResult
	Failures        []model.ParseFailure
	PatternFailures []model.PatternFailure
	// Truncated is set when the file limit or the context stopped scheduling.
	Truncated bool
}

// Run analyzes files under root. An unknown pattern name fails the call
// before any file is read; everything else is recorded per file.
func Run(ctx context.Context, reg *pattern.Registry, root string, files []discover.FileEntry, opts Options) (*Batch, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := recognize.New(reg, logger)
	candidates, err := rec.Select(recognize.Options{Patterns: opts.Patterns, Categories: opts.Categories})
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "analyze.batch",
		trace.WithAttributes(attribute.Int("files", len(files))))
	defer span.End()

	sorted := append([]discover.FileEntry(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	batch := &Batch{}
	if opts.MaxFiles > 0 && len(sorted) > opts.MaxFiles {
		sorted = sorted[:opts.MaxFiles]
		batch.Truncated = true
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(1, min(workers, len(sorted)))

	// One parser cache per worker slot; SetLimit guarantees a free one.
	caches := make(chan parserCache, workers)
	for range workers {
		caches <- parserCache{}
	}

	a := &analyzer{root: root, rec: rec, candidates: candidates, tolerant: opts.Tolerant, logger: logger}
	results := make([]model.FileResult, len(sorted))
	done := make([]bool, len(sorted))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, f := range sorted {
		if ctx.Err() != nil {
			batch.Truncated = true
			break
		}
		g.Go(func() error {
			cache := <-caches
			defer func() { caches <- cache }()

			res := a.file(ctx, cache, f)
			if ctx.Err() != nil {
				// Work cut short by the deadline is dropped, not reported as a failure.
				return nil
			}
			results[i] = res
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()
	close(caches)
	for cache := range caches {
		cache.close()
	}

	for i := range results {
		if !done[i] {
			batch.Truncated = true
			continue
		}
		res := results[i]
		batch.Results = append(batch.Results, res)
		batch.PatternFailures = append(batch.PatternFailures, res.PatternFailures...)
		var pf *model.ParseFailure
		if errors.As(res.Err, &pf) {
			batch.Failures = append(batch.Failures, *pf)
		}
	}

	span.SetAttributes(
		attribute.Int("files.analyzed", len(batch.Results)),
		attribute.Int("files.failed", len(batch.Failures)),
		attribute.Bool("truncated", batch.Truncated),
	)
	logger.Debug("batch analyzed", "files", len(batch.Results), "failed", len(batch.Failures), "truncated", batch.Truncated)
	return batch, nil
}

type analyzer struct {
	root       string
	rec        *recognize.Recognizer
	candidates []pattern.Pattern
	tolerant   bool
	logger     *slog.Logger
}

// file analyzes one file. It never returns an error; failures land in the result.
func (a *analyzer) file(ctx context.Context, cache parserCache, f discover.FileEntry) model.FileResult {
	path := filepath.ToSlash(f.Path)
	res := model.FileResult{Path: path, Language: f.Language}

	l, ok := lang.Languages[f.Language]
	if !ok {
		res.Err = &model.ParseFailure{Path: path, Err: fmt.Errorf("unsupported language %q", f.Language)}
		return res
	}

	source, err := os.ReadFile(filepath.Join(a.root, f.Path))
	if err != nil {
		res.Err = &model.ParseFailure{Path: path, Err: err}
		a.logger.Warn("read failed", "file", path, "error", err)
		return res
	}

	tree, err := syntax.Parse(ctx, cache.parser(l), path, l.Name, source, a.tolerant)
	if err != nil {
		if !errors.Is(err, syntax.ErrSyntax) {
			cache.drop(l)
		}
		res.Err = err
		a.logger.Warn("parse failed", "file", path, "error", err)
		return res
	}
	defer tree.Close()

	structure, err := parse.Extract(l, tree)
	if err != nil {
		res.Err = &model.ParseFailure{Path: path, Err: err}
		a.logger.Warn("extraction failed", "file", path, "error", err)
		return res
	}
	res.Definitions = structure.Definitions
	res.Imports = structure.Imports
	res.TypeRefs = structure.TypeRefs

	recognized, err := a.rec.Run(ctx, tree, a.candidates)
	if err != nil {
		// Only cancellation reaches here; the caller discards the result.
		return res
	}
	res.Matches = recognized.Matches
	res.PatternFailures = recognized.Failures
	return res
}

// parserCache holds one parser per language for a single worker.
type parserCache map[string]*sitter.Parser

func (c parserCache) parser(l *lang.Language) *sitter.Parser {
	p, ok := c[l.Name]
	if !ok {
		p = l.NewParser()
		c[l.Name] = p
	}
	return p
}

// drop discards a parser left in an unknown state by a failed parse.
func (c parserCache) drop(l *lang.Language) {
	if p, ok := c[l.Name]; ok {
		p.Close()
		delete(c, l.Name)
	}
}

func (c parserCache) close() {
	for _, p := range c {
		p.Close()
	}
}
