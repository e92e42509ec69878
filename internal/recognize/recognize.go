// Package recognize runs registry patterns against parsed files.
package recognize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/pattern"
	"github.com/phobologic/archlens/internal/syntax"
)

const tracerName = "github.com/phobologic/archlens/internal/recognize"

// Options selects which patterns run. Empty fields select everything; when
// both are set a pattern must satisfy both.
type Options struct {
	Patterns   []string
	Categories []model.Category
}

// Result holds the matches for one file, keyed by pattern name. Patterns
// with no matches have no key. Failures lists patterns whose matcher failed.
type Result struct {
	Matches  map[string][]model.Match
	Failures []model.PatternFailure
}

// Recognizer is safe for concurrent use; trees passed to it are never modified.
type Recognizer struct {
	reg    *pattern.Registry
	logger *slog.Logger
	tracer trace.Tracer
}

// New returns a recognizer over reg. A nil logger uses slog.Default().
func New(reg *pattern.Registry, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{reg: reg, logger: logger, tracer: otel.Tracer(tracerName)}
}

// Registry returns the registry patterns are drawn from.
func (r *Recognizer) Registry() *pattern.Registry { return r.reg }

// Select resolves opts to the candidate patterns, sorted by name. It fails
// with *model.UnknownPatternError before any matching when a name is unknown.
func (r *Recognizer) Select(opts Options) ([]pattern.Pattern, error) {
	categories := make(map[model.Category]bool, len(opts.Categories))
	for _, c := range opts.Categories {
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q", c)
		}
		categories[c] = true
	}

	var candidates []pattern.Pattern
	if len(opts.Patterns) == 0 {
		candidates = r.reg.All()
	} else {
		seen := make(map[string]bool, len(opts.Patterns))
		for _, name := range opts.Patterns {
			if seen[name] {
				continue
			}
			seen[name] = true
			p, err := r.reg.Get(name)
			if err != nil {
				return nil, r.reg.Unknown(name)
			}
			candidates = append(candidates, p)
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name() < candidates[j].Name() })
	}

	if len(categories) == 0 {
		return candidates, nil
	}
	out := candidates[:0:0]
	for _, p := range candidates {
		if categories[p.Category()] {
			out = append(out, p)
		}
	}
	return out, nil
}

// Recognize runs the selected patterns that support tree's language. One
// failing pattern is recorded in Result.Failures and does not stop the rest.
func (r *Recognizer) Recognize(ctx context.Context, tree *syntax.Tree, opts Options) (*Result, error) {
	candidates, err := r.Select(opts)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, tree, candidates)
}

// Run is Recognize over an already-selected candidate list.
func (r *Recognizer) Run(ctx context.Context, tree *syntax.Tree, candidates []pattern.Pattern) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "recognize",
		trace.WithAttributes(
			attribute.String("file", tree.Path()),
			attribute.String("language", tree.Language()),
		))
	defer span.End()

	in, err := pattern.NewInput(tree)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res := &Result{Matches: make(map[string][]model.Match)}
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !pattern.Supports(p, tree.Language()) {
			continue
		}
		matches, err := runSafely(in, p)
		if err != nil {
			r.logger.Warn("pattern failed", "pattern", p.Name(), "file", tree.Path(), "error", err)
			res.Failures = append(res.Failures, model.PatternFailure{Pattern: p.Name(), File: tree.Path(), Err: err})
			continue
		}
		if len(matches) > 0 {
			res.Matches[p.Name()] = matches
		}
	}

	span.SetAttributes(
		attribute.Int("patterns.matched", len(res.Matches)),
		attribute.Int("patterns.failed", len(res.Failures)),
	)
	return res, nil
}

// runSafely turns a panicking matcher into an error.
func runSafely(in *pattern.Input, p pattern.Pattern) (matches []model.Match, err error) {
	defer func() {
		if v := recover(); v != nil {
			matches = nil
			err = fmt.Errorf("panic: %v", v)
		}
	}()
	return in.Run(p)
}
