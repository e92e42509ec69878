// Package watch re-runs an action when source files under a directory tree
// change, batching bursts of events.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/phobologic/archlens/internal/discover"
	"github.com/phobologic/archlens/internal/lang"
)

// Options tunes batching.
type Options struct {
	// Quiet is how long events must stop before the action runs.
	Quiet time.Duration
	// MaxWait bounds how long a steady stream of events can delay the action.
	MaxWait time.Duration
	Logger  *slog.Logger
}

// Watcher watches every analyzable directory under a root.
type Watcher struct {
	fs      *fsnotify.Watcher
	root    string
	logger  *slog.Logger
	batcher *debouncer
}

// New starts watching root and its subdirectories.
func New(root string, opts Options) (*Watcher, error) {
	if opts.Quiet <= 0 {
		opts.Quiet = 500 * time.Millisecond
	}
	if opts.MaxWait < opts.Quiet {
		opts.MaxWait = 10 * opts.Quiet
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fs:      fw,
		root:    root,
		logger:  logger,
		batcher: newDebouncer(opts.Quiet, opts.MaxWait),
	}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fs.Close() }

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && discover.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Run calls action with the sorted, root-relative paths of each batch of
// changed source files until ctx is done. Action errors are logged and do
// not stop the watch.
func (w *Watcher) Run(ctx context.Context, action func(ctx context.Context, changed []string) error) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
			if w.batcher.pending() {
				timer.Reset(w.batcher.wait(time.Now()))
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if !w.batcher.pending() {
				continue
			}
			now := time.Now()
			if !w.batcher.due(now) {
				timer.Reset(w.batcher.wait(now))
				continue
			}
			changed := w.batcher.flush()
			w.logger.Info("source changed", "files", len(changed))
			if err := action(ctx, changed); err != nil {
				w.logger.Warn("re-run failed", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if discover.SkipDir(filepath.Base(ev.Name)) {
				return
			}
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watching new directory", "path", ev.Name, "error", err)
			}
			return
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	if lang.ForExtension(filepath.Ext(ev.Name)) == "" {
		return
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		rel = ev.Name
	}
	w.logger.Debug("change", "file", rel, "op", ev.Op.String())
	w.batcher.add(filepath.ToSlash(rel), time.Now())
}

// debouncer collects changed paths until events go quiet or the batch has
// waited too long.
type debouncer struct {
	quiet   time.Duration
	maxWait time.Duration
	paths   map[string]struct{}
	first   time.Time
	last    time.Time
}

func newDebouncer(quiet, maxWait time.Duration) *debouncer {
	return &debouncer{quiet: quiet, maxWait: maxWait, paths: make(map[string]struct{})}
}

func (d *debouncer) add(path string, now time.Time) {
	if len(d.paths) == 0 {
		d.first = now
	}
	d.paths[path] = struct{}{}
	d.last = now
}

func (d *debouncer) pending() bool { return len(d.paths) > 0 }

func (d *debouncer) due(now time.Time) bool {
	if !d.pending() {
		return false
	}
	return now.Sub(d.last) >= d.quiet || now.Sub(d.first) >= d.maxWait
}

// wait returns how long until the batch is due.
func (d *debouncer) wait(now time.Time) time.Duration {
	untilQuiet := d.last.Add(d.quiet).Sub(now)
	untilMax := d.first.Add(d.maxWait).Sub(now)
	return max(0, min(untilQuiet, untilMax))
}

func (d *debouncer) flush() []string {
	out := make([]string, 0, len(d.paths))
	for p := range d.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	d.paths = make(map[string]struct{})
	return out
}
