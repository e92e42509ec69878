package snapshot

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/phobologic/archlens/internal/model"
)

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	metrics := map[string]float64{"cycles": 2, "mean_degree": 1.5}
	reports := []*model.Report{{Style: "layered", Confidence: 0.8}, nil, {Style: "clean", Confidence: 0.25}}
	s := New(metrics, reports)
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Fatalf("id %q: %v", s.ID, err)
	}
	metrics["cycles"] = 9
	if s.Metrics["cycles"] != 2 {
		t.Error("snapshot shares the caller's metrics map")
	}

	path := filepath.Join(t.TempDir(), "nested", "baseline.yaml")
	if err := Save(path, s); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != s.ID || !got.CreatedAt.Equal(s.CreatedAt) {
		t.Errorf("got %+v, want %+v", got, s)
	}
	if !reflect.DeepEqual(got.Metrics, s.Metrics) || !reflect.DeepEqual(got.StyleScores, s.StyleScores) {
		t.Errorf("got %+v, want %+v", got, s)
	}
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad id", "id: nope\nmetrics: {cycles: 1}\n", "bad id"},
		{"unknown field", "id: " + uuid.NewString() + "\nscore: 3\n", "decoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file loaded")
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	old := &Snapshot{Metrics: map[string]float64{"cycles": 1, "max_degree": 4, "gone": 3}}
	cur := &Snapshot{Metrics: map[string]float64{"cycles": 3, "max_degree": 4, "new": 1}}
	got := Diff(old, cur)
	want := []MetricDelta{
		{Metric: "cycles", Before: 1, After: 3},
		{Metric: "max_degree", Before: 4, After: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("diff = %+v", got)
	}
	if got[0].Delta() != 2 {
		t.Errorf("delta = %v", got[0].Delta())
	}
}

func TestDiffStyles(t *testing.T) {
	t.Parallel()

	old := &Snapshot{StyleScores: map[string]float64{"layered": 0.9, "hexagonal": 0.2, "gone": 0.5}}
	cur := &Snapshot{StyleScores: map[string]float64{"layered": 0.4, "hexagonal": 0.2, "new": 0.7}}
	got := DiffStyles(old, cur)
	want := []MetricDelta{
		{Metric: "style:hexagonal", Before: 0.2, After: 0.2},
		{Metric: "style:layered", Before: 0.9, After: 0.4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("diff = %+v", got)
	}
	if len(Diff(old, cur)) != 0 {
		t.Error("style scores leaked into the metric diff")
	}
}
