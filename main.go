// archlens recognizes design patterns and architectural styles in a source
// tree and reports them in TOON or JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/archlens/internal/analyze"
	"github.com/phobologic/archlens/internal/antipattern"
	"github.com/phobologic/archlens/internal/config"
	"github.com/phobologic/archlens/internal/discover"
	"github.com/phobologic/archlens/internal/graph"
	"github.com/phobologic/archlens/internal/lang"
	"github.com/phobologic/archlens/internal/logging"
	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/pattern"
	"github.com/phobologic/archlens/internal/ranking"
	"github.com/phobologic/archlens/internal/snapshot"
	"github.com/phobologic/archlens/internal/style"
	"github.com/phobologic/archlens/internal/toon"
	"github.com/phobologic/archlens/internal/watch"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archlens [path]",
		Short: "Recognize design patterns and architectural styles in a source tree",
		Long: `archlens parses every supported source file under path (default: the current
directory), recognizes design patterns, builds a component dependency graph,
scores it against architectural styles and reports anti-patterns.

Settings come from archlens.toml, ARCHLENS_* environment variables and flags,
in increasing priority.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger := logging.Setup(stderr, level, cfg.LogJSON)

			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			root, err = resolveRoot(root)
			if err != nil {
				return err
			}
			if err := checkLanguages(cfg.Langs); err != nil {
				return err
			}

			reg, err := pattern.LoadCatalog()
			if err != nil {
				return fmt.Errorf("loading pattern catalog: %w", err)
			}

			r := &runner{cfg: cfg, reg: reg, root: root, stdout: stdout, logger: logger}
			if !cfg.Watch {
				return r.once(cmd.Context())
			}
			return r.watch(cmd.Context())
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("archlens {{.Version}}\n")
	config.RegisterFlags(cmd.Flags())

	cmd.AddCommand(newPatternsCmd(stdout), newInitCmd(stdout, stderr))
	return cmd
}

func resolveRoot(root string) (string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return root, nil
}

func checkLanguages(names []string) error {
	for _, name := range names {
		if _, ok := lang.Languages[name]; !ok {
			return fmt.Errorf("unsupported language %q", name)
		}
	}
	return nil
}

// runner carries one invocation's settings across watch re-runs.
type runner struct {
	cfg    *config.Config
	reg    *pattern.Registry
	root   string
	stdout io.Writer
	logger *slog.Logger
}

func (r *runner) watch(ctx context.Context) error {
	if err := r.once(ctx); err != nil {
		r.logger.Error("analysis failed", "error", err)
	}

	w, err := watch.New(r.root, watch.Options{Quiet: r.cfg.Debounce, Logger: r.logger})
	if err != nil {
		return err
	}
	defer w.Close()

	r.logger.Info("watching for changes", "root", r.root)
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		r.logger.Info("change detected", "files", len(changed))
		if err := r.once(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("analysis failed", "error", err)
		}
		return nil
	})
}

// once runs the whole pipeline and writes the encoded result.
func (r *runner) once(ctx context.Context) error {
	cfg := r.cfg
	files, skipped, err := discover.Files(r.root, discover.Options{
		Languages:    cfg.Langs,
		Exclude:      cfg.Exclude,
		MaxFileSize:  cfg.MaxFileSize,
		IncludeTests: cfg.IncludeTests,
	})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	for _, s := range skipped {
		r.logger.Warn("file skipped", "file", s.Path, "reason", s.Reason)
	}
	if len(files) == 0 {
		return errors.New("no parseable files found")
	}

	useCache := cfg.Cache != "" && !cfg.Watch
	if useCache && cacheIsFresh(cfg.Cache, r.root, files) {
		data, err := os.ReadFile(cfg.Cache)
		if err == nil {
			_, _ = r.stdout.Write(data)
			return nil
		}
	}

	a, err := r.analyze(ctx, files)
	if err != nil {
		return err
	}

	if cfg.Focus != "" {
		a = ranking.FilterByPath(a, cfg.Focus)
	}
	a = ranking.SelectTop(a, cfg.Top)

	output, err := encode(a, cfg.Format)
	if err != nil {
		return err
	}
	if useCache {
		if err := os.WriteFile(cfg.Cache, []byte(output+"\n"), 0o644); err != nil {
			r.logger.Warn("cache not written", "file", cfg.Cache, "error", err)
		}
	}
	_, _ = fmt.Fprintln(r.stdout, output)
	return nil
}

// analyze parses files, builds the graph and runs every detector. The
// timeout bounds parsing only; a cut-short batch is marked truncated and
// the rest of the pipeline still runs over what was parsed.
func (r *runner) analyze(ctx context.Context, files []discover.FileEntry) (*model.Analysis, error) {
	cfg := r.cfg
	started := time.Now()

	batchCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	categories := make([]model.Category, len(cfg.Categories))
	for i, c := range cfg.Categories {
		categories[i] = model.Category(c)
	}
	batch, err := analyze.Run(batchCtx, r.reg, r.root, files, analyze.Options{
		Workers:    cfg.Workers,
		MaxFiles:   cfg.MaxFiles,
		Patterns:   cfg.Patterns,
		Categories: categories,
		Tolerant:   cfg.TolerateSyntaxErrors,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := graph.Build(r.reg, batch.Results, r.logger)

	acfg := antipattern.Config{
		CouplingThreshold:      cfg.CouplingThreshold,
		GodThreshold:           cfg.GodThreshold,
		GodMinResponsibilities: cfg.GodMinResponsibilities,
		MaxCycles:              cfg.MaxCycles,
		ErosionTolerance:       cfg.ErosionTolerance,
	}
	if cfg.Baseline != "" {
		prior, err := snapshot.Load(cfg.Baseline)
		if err != nil {
			return nil, err
		}
		acfg.Prior = prior
	}

	// The graph is read-only from here, so detectors share it.
	var (
		reports    []*model.Report
		violations []model.Violation
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		reports, err = style.EvaluateAll(egCtx, g, cfg.Styles, style.Options{
			HealthyThreshold: cfg.HealthyThreshold,
			Logger:           r.logger,
		})
		return err
	})
	eg.Go(func() error {
		var err error
		violations, err = antipattern.Detect(egCtx, g, acfg)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	// Style confidences are only known once evaluation finishes.
	for _, v := range antipattern.StyleErosion(acfg.Prior, reports, cfg.ErosionTolerance) {
		violations = append(violations, v)
	}

	if cfg.SaveBaseline != "" {
		cycles := 0
		for _, v := range violations {
			if v.Kind() == model.CycleKind {
				cycles++
			}
		}
		snap := snapshot.New(antipattern.Metrics(g, cycles), reports)
		if err := snapshot.Save(cfg.SaveBaseline, snap); err != nil {
			return nil, err
		}
		r.logger.Info("baseline saved", "file", cfg.SaveBaseline, "id", snap.ID)
	}

	a := assemble(filepath.Base(r.root), len(files), batch, g, reports, violations)
	r.logger.Debug("analysis complete",
		"components", len(a.Components),
		"findings", len(a.Findings),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return a, nil
}

// assemble flattens the pipeline's results into one Analysis.
func assemble(root string, files int, batch *analyze.Batch, g *graph.Graph, reports []*model.Report, violations []model.Violation) *model.Analysis {
	a := &model.Analysis{
		Root:       root,
		Files:      files,
		Truncated:  batch.Truncated,
		Components: g.Components(),
		Reports:    reports,
		Skipped:    g.Skipped(),
	}
	ranking.Order(a.Components)

	for _, e := range g.Edges() {
		a.Edges = append(a.Edges, model.PathEdge{Source: g.Path(e.From), Target: g.Path(e.To), Kind: e.Kind, Count: e.Count})
	}

	for _, res := range batch.Results {
		start := len(a.Matches)
		names := make([]string, 0, len(res.Matches))
		for name := range res.Matches {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, m := range res.Matches[name] {
				a.Matches = append(a.Matches, model.FileMatch{File: res.Path, Match: m})
			}
		}
		// Matches of one pattern keep their capture order past line and column.
		file := a.Matches[start:]
		sort.SliceStable(file, func(i, j int) bool {
			if file[i].Line != file[j].Line {
				return file[i].Line < file[j].Line
			}
			if file[i].Pattern != file[j].Pattern {
				return file[i].Pattern < file[j].Pattern
			}
			return file[i].Column < file[j].Column
		})
	}

	for _, rep := range reports {
		for _, v := range rep.Violations {
			a.Findings = append(a.Findings, model.NewFinding(rep.Style, v))
		}
	}
	for _, v := range violations {
		a.Findings = append(a.Findings, model.NewFinding("", v))
	}

	for _, f := range batch.Failures {
		a.ParseFailures = append(a.ParseFailures, model.Failure{Path: f.Path, Error: f.Err.Error()})
	}
	for _, f := range batch.PatternFailures {
		a.PatternFailures = append(a.PatternFailures, model.Failure{Path: f.File, Pattern: f.Pattern, Error: f.Err.Error()})
	}
	return a
}

func encode(a *model.Analysis, format string) (string, error) {
	if format == "json" {
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		return string(data), nil
	}
	return toon.Encode(a), nil
}

// cacheIsFresh reports whether the cache file is newer than every source file.
func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}
