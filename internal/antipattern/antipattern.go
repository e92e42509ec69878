// Package antipattern finds structural problems in a component graph:
// dependency cycles, tight coupling, god components and erosion against a
// prior baseline.
package antipattern

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/phobologic/archlens/internal/graph"
	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/snapshot"
)

const tracerName = "github.com/phobologic/archlens/internal/antipattern"

// Config holds detector thresholds. Zero values take the defaults.
type Config struct {
	// CouplingThreshold is the in+out degree at which a component is tightly coupled.
	CouplingThreshold int
	// GodThreshold is the degree at which a component may be a god component.
	GodThreshold int
	// GodMinResponsibilities is how many responsibilities a god component carries.
	GodMinResponsibilities int
	// MaxCycles bounds the number of cycles reported.
	MaxCycles int
	// Prior enables erosion detection.
	Prior *snapshot.Snapshot
	// ErosionTolerance is how much a metric may worsen before it is reported.
	ErosionTolerance float64
}

// DefaultConfig returns the thresholds used when a field is zero.
func DefaultConfig() Config {
	return Config{
		CouplingThreshold:      10,
		GodThreshold:           15,
		GodMinResponsibilities: 4,
		MaxCycles:              100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CouplingThreshold <= 0 {
		c.CouplingThreshold = d.CouplingThreshold
	}
	if c.GodThreshold <= 0 {
		c.GodThreshold = d.GodThreshold
	}
	if c.GodMinResponsibilities <= 0 {
		c.GodMinResponsibilities = d.GodMinResponsibilities
	}
	if c.MaxCycles <= 0 {
		c.MaxCycles = d.MaxCycles
	}
	return c
}

// Detect runs every detector over g. Violations come back grouped by kind:
// cycles, tight coupling, god components, erosion.
func Detect(ctx context.Context, g *graph.Graph, cfg Config) ([]model.Violation, error) {
	cfg = cfg.withDefaults()
	if cfg.ErosionTolerance < 0 {
		return nil, fmt.Errorf("erosion tolerance %v is negative", cfg.ErosionTolerance)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "antipattern.detect")
	defer span.End()

	cycles, err := Cycles(ctx, g, cfg.MaxCycles)
	if err != nil {
		return nil, err
	}

	var out []model.Violation
	for _, c := range cycles {
		out = append(out, c)
	}
	for _, v := range TightCoupling(g, cfg.CouplingThreshold) {
		out = append(out, v)
	}
	for _, v := range GodComponents(g, cfg.GodThreshold, cfg.GodMinResponsibilities) {
		out = append(out, v)
	}
	if cfg.Prior != nil {
		current := &snapshot.Snapshot{Metrics: Metrics(g, len(cycles))}
		for _, v := range Erosion(cfg.Prior, current, cfg.ErosionTolerance) {
			out = append(out, v)
		}
	}

	span.SetAttributes(attribute.Int("cycles", len(cycles)), attribute.Int("violations", len(out)))
	return out, nil
}

type ranked struct {
	comp   int
	degree int
}

// byDegree returns components with degree >= threshold, highest degree first
// then by path.
func byDegree(g *graph.Graph, threshold int) []ranked {
	var out []ranked
	for i := range g.Len() {
		if d := g.Degree(i); d >= threshold {
			out = append(out, ranked{comp: i, degree: d})
		}
	}
	// Index order is path order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].degree > out[j].degree })
	return out
}

// TightCoupling flags components whose in+out degree reaches threshold.
func TightCoupling(g *graph.Graph, threshold int) []model.TightCoupling {
	var out []model.TightCoupling
	for _, r := range byDegree(g, threshold) {
		out = append(out, model.TightCoupling{Component: g.Path(r.comp), Degree: r.degree})
	}
	return out
}

// GodComponents flags highly connected components that also carry at least
// minResponsibilities responsibilities.
func GodComponents(g *graph.Graph, threshold, minResponsibilities int) []model.GodComponent {
	var out []model.GodComponent
	for _, r := range byDegree(g, threshold) {
		c := g.Component(r.comp)
		if len(c.Responsibilities) < minResponsibilities {
			continue
		}
		out = append(out, model.GodComponent{Component: c.Path, Degree: r.degree, Responsibilities: c.Responsibilities})
	}
	return out
}

// Metric names compared between runs. Higher is worse for all of them.
const (
	MetricCycles            = "cycles"
	MetricMeanDegree        = "mean_degree"
	MetricMaxDegree         = "max_degree"
	MetricUnknownLayerRatio = "unknown_layer_ratio"
	MetricEdgesPerComponent = "edges_per_component"
)

// Metrics summarizes g for baselines.
func Metrics(g *graph.Graph, cycles int) map[string]float64 {
	m := map[string]float64{
		MetricCycles:            float64(cycles),
		MetricMeanDegree:        0,
		MetricMaxDegree:         0,
		MetricUnknownLayerRatio: 0,
		MetricEdgesPerComponent: 0,
	}
	n := g.Len()
	if n == 0 {
		return m
	}
	total, maxDeg, unknown := 0, 0, 0
	for i := range n {
		d := g.Degree(i)
		total += d
		maxDeg = max(maxDeg, d)
		if g.Component(i).Layer == model.Unknown {
			unknown++
		}
	}
	m[MetricMeanDegree] = float64(total) / float64(n)
	m[MetricMaxDegree] = float64(maxDeg)
	m[MetricUnknownLayerRatio] = float64(unknown) / float64(n)
	m[MetricEdgesPerComponent] = float64(len(g.Edges())) / float64(n)
	return m
}

// Erosion reports every metric that grew by more than tolerance since prior,
// then every style whose confidence dropped by more than tolerance.
func Erosion(prior, current *snapshot.Snapshot, tolerance float64) []model.ArchitecturalErosion {
	var out []model.ArchitecturalErosion
	for _, d := range snapshot.Diff(prior, current) {
		if d.Delta() > tolerance {
			out = append(out, degrading(d))
		}
	}
	for _, d := range snapshot.DiffStyles(prior, current) {
		if -d.Delta() > tolerance {
			out = append(out, degrading(d))
		}
	}
	return out
}

// StyleErosion compares the confidence of each report against prior.
func StyleErosion(prior *snapshot.Snapshot, reports []*model.Report, tolerance float64) []model.ArchitecturalErosion {
	if prior == nil {
		return nil
	}
	current := &snapshot.Snapshot{StyleScores: make(map[string]float64, len(reports))}
	for _, r := range reports {
		if r != nil {
			current.StyleScores[r.Style] = r.Confidence
		}
	}
	return Erosion(prior, current, tolerance)
}

func degrading(d snapshot.MetricDelta) model.ArchitecturalErosion {
	return model.ArchitecturalErosion{
		Metric: d.Metric,
		Trend:  "degrading",
		Before: d.Before,
		After:  d.After,
	}
}
