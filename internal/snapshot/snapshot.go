// Package snapshot records graph metrics and style scores from one run so a
// later run can tell whether the architecture eroded.
package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/archlens/internal/model"
)

// Snapshot is a point-in-time capture of an analysis.
type Snapshot struct {
	ID          string             `yaml:"id"`
	CreatedAt   time.Time          `yaml:"created_at"`
	Metrics     map[string]float64 `yaml:"metrics"`
	StyleScores map[string]float64 `yaml:"style_scores,omitempty"`
}

// New captures metrics and the confidence of every style report.
func New(metrics map[string]float64, reports []*model.Report) *Snapshot {
	s := &Snapshot{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Metrics:     make(map[string]float64, len(metrics)),
		StyleScores: make(map[string]float64, len(reports)),
	}
	for k, v := range metrics {
		s.Metrics[k] = v
	}
	for _, r := range reports {
		if r != nil {
			s.StyleScores[r.Style] = r.Confidence
		}
	}
	return s
}

// Save writes s as YAML, creating parent directories.
func Save(path string, s *Snapshot) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		return nil, fmt.Errorf("snapshot %s: bad id %q: %w", path, s.ID, err)
	}
	if s.Metrics == nil {
		s.Metrics = make(map[string]float64)
	}
	return &s, nil
}

// MetricDelta is the change of one metric between two snapshots.
type MetricDelta struct {
	Metric string
	Before float64
	After  float64
}

// Delta is After minus Before.
func (d MetricDelta) Delta() float64 { return d.After - d.Before }

// StylePrefix names style confidences in a diff, as in "style:layered".
const StylePrefix = "style:"

// Diff compares the metrics both snapshots carry, sorted by metric name.
func Diff(old, cur *Snapshot) []MetricDelta {
	return diff(old.Metrics, cur.Metrics, "")
}

// DiffStyles compares the style confidences both snapshots carry. Each delta
// is named StylePrefix plus the style.
func DiffStyles(old, cur *Snapshot) []MetricDelta {
	return diff(old.StyleScores, cur.StyleScores, StylePrefix)
}

func diff(old, cur map[string]float64, prefix string) []MetricDelta {
	var out []MetricDelta
	for name, after := range cur {
		before, ok := old[name]
		if !ok {
			continue
		}
		out = append(out, MetricDelta{Metric: prefix + name, Before: before, After: after})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metric < out[j].Metric })
	return out
}
