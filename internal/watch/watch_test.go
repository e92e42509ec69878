package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDebouncer(t *testing.T) {
	t.Parallel()

	start := time.Unix(1000, 0)
	d := newDebouncer(100*time.Millisecond, time.Second)
	if d.pending() || d.due(start) {
		t.Fatal("empty debouncer is due")
	}

	d.add("b.py", start)
	d.add("a.py", start.Add(50*time.Millisecond))
	d.add("b.py", start.Add(60*time.Millisecond))

	if d.due(start.Add(100 * time.Millisecond)) {
		t.Error("due before the quiet period after the last event")
	}
	if got := d.wait(start.Add(100 * time.Millisecond)); got != 60*time.Millisecond {
		t.Errorf("wait = %v", got)
	}
	if !d.due(start.Add(160 * time.Millisecond)) {
		t.Error("not due after the quiet period")
	}
	if got := d.flush(); !reflect.DeepEqual(got, []string{"a.py", "b.py"}) {
		t.Errorf("flush = %v", got)
	}
	if d.pending() {
		t.Error("pending after flush")
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	t.Parallel()

	start := time.Unix(1000, 0)
	d := newDebouncer(100*time.Millisecond, 300*time.Millisecond)
	for i := range 5 {
		d.add("a.py", start.Add(time.Duration(i)*80*time.Millisecond))
	}
	// Events never went quiet, but the first is 320ms old.
	if !d.due(start.Add(320 * time.Millisecond)) {
		t.Error("steady stream delayed the batch past max wait")
	}
}

func TestWatcherRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pkg"), 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := New(root, Options{Quiet: 50 * time.Millisecond, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan []string, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			select {
			case got <- changed:
			default:
			}
			return nil
		})
	}()

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "pkg", "app.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case changed := <-got:
		if !reflect.DeepEqual(changed, []string{"pkg/app.py"}) {
			t.Errorf("changed = %v", changed)
		}
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("run = %v", err)
	}
}
