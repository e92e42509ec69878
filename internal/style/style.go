// Package style scores how well a component graph fits a named
// architectural style.
package style

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/archlens/internal/graph"
	"github.com/phobologic/archlens/internal/model"
)

const tracerName = "github.com/phobologic/archlens/internal/style"

// DefaultHealthyThreshold is the confidence at or above which a style is
// reported healthy.
const DefaultHealthyThreshold = 0.7

// Detector evaluates one architectural style.
type Detector interface {
	Name() string
	Evaluate(g *graph.Graph) *model.Report
}

// Options tunes evaluation.
type Options struct {
	// HealthyThreshold defaults to DefaultHealthyThreshold when zero.
	HealthyThreshold float64
	Logger           *slog.Logger
}

// UnknownStyleError is returned when a caller names a style that does not exist.
type UnknownStyleError struct {
	Name string
}

func (e *UnknownStyleError) Error() string {
	return fmt.Sprintf("unknown style %q (known: %s)", e.Name, strings.Join(Names(), ", "))
}

var taxonomies = []*taxonomy{layered, hexagonal, clean, eventDriven, microservices}

// Names returns the style names in evaluation order.
func Names() []string {
	out := make([]string, len(taxonomies))
	for i, t := range taxonomies {
		out[i] = t.name
	}
	return out
}

// New returns the detector for the named style.
func New(name string, opts Options) (Detector, error) {
	if opts.HealthyThreshold < 0 || opts.HealthyThreshold > 1 {
		return nil, fmt.Errorf("healthy threshold %v outside [0,1]", opts.HealthyThreshold)
	}
	threshold := opts.HealthyThreshold
	if threshold == 0 {
		threshold = DefaultHealthyThreshold
	}
	for _, t := range taxonomies {
		if t.name == name {
			return &detector{tax: t, threshold: threshold}, nil
		}
	}
	return nil, &UnknownStyleError{Name: name}
}

// Evaluate runs the named style against g.
func Evaluate(g *graph.Graph, name string, opts Options) (*model.Report, error) {
	d, err := New(name, opts)
	if err != nil {
		return nil, err
	}
	return d.Evaluate(g), nil
}

// EvaluateAll runs the named styles concurrently and returns their reports in
// style order. An empty names list selects every style.
func EvaluateAll(ctx context.Context, g *graph.Graph, names []string, opts Options) ([]*model.Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	detectors, err := selectDetectors(names, opts)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "style.evaluate_all")
	defer span.End()
	span.SetAttributes(attribute.Int("styles", len(detectors)), attribute.Int("components", g.Len()))

	reports := make([]*model.Report, len(detectors))
	eg, ctx := errgroup.WithContext(ctx)
	for i, d := range detectors {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = d.Evaluate(g)
			logger.Debug("style evaluated", "style", d.Name(), "confidence", reports[i].Confidence)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return reports, nil
}

func selectDetectors(names []string, opts Options) ([]Detector, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, err := New(n, opts); err != nil {
			return nil, err
		}
		want[n] = true
	}
	var out []Detector
	for _, t := range taxonomies {
		if len(names) > 0 && !want[t.name] {
			continue
		}
		d, err := New(t.name, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

type detector struct {
	tax       *taxonomy
	threshold float64
}

func (d *detector) Name() string { return d.tax.name }

// Evaluate classifies every component, judges every edge between classified
// components and scores the result.
func (d *detector) Evaluate(g *graph.Graph) *model.Report {
	t := d.tax
	comps := g.Components()
	v := &view{comps: comps, roles: make([]string, len(comps)), present: make(map[string]int)}

	rep := &model.Report{
		Style:        t.name,
		RoleCounts:   make(map[string]int, len(t.roles)),
		LayerCounts:  make(map[string]int),
		DomainCounts: make(map[string]int),
	}
	for _, r := range t.roles {
		rep.RoleCounts[r] = 0
	}

	for i := range comps {
		c := &comps[i]
		rep.LayerCounts[string(c.Layer)]++
		if c.Domain != "" {
			rep.DomainCounts[c.Domain]++
		}
		role := t.classify(c)
		v.roles[i] = role
		if role == "" {
			rep.Unclassified = append(rep.Unclassified, c.Path)
			continue
		}
		v.present[role]++
		rep.RoleCounts[role]++
	}
	sort.Strings(rep.Unclassified)

	advice := newAdvice()
	checked := 0
	for _, e := range g.Edges() {
		verdict := model.EdgeVerdict{From: comps[e.From].Path, To: comps[e.To].Path}
		from, to := v.roles[e.From], v.roles[e.To]
		if from != "" && to != "" {
			checked++
			v.edges = append(v.edges, [2]string{from, to})
			var note string
			ok := t.allowed(from, to)
			if ok && t.boundary != nil {
				note = t.boundary(&comps[e.From], &comps[e.To], to)
				ok = note == ""
			}
			if !ok {
				verdict.Violation = true
				rep.Violations = append(rep.Violations, model.LayerOrderViolation{
					Source: verdict.From,
					Target: verdict.To,
					From:   from,
					To:     to,
					Note:   note,
				})
				advice.add(t.violationText(from, to, note != ""), note != "", from, to)
			}
		}
		rep.Edges = append(rep.Edges, verdict)
	}

	classified := len(comps) - len(rep.Unclassified)
	if classified == 0 {
		if len(comps) > 0 {
			rep.Recommendations = []string{t.unclassifiedText(len(comps))}
		}
		return rep
	}

	sig := t.signature(v)
	compliance := 1.0
	if checked > 0 {
		compliance = 1 - float64(len(rep.Violations))/float64(checked)
	}
	conf := 0.4*float64(classified)/float64(len(comps)) + 0.4*compliance + 0.2*sig
	rep.Confidence = max(0, min(1, conf))
	rep.Healthy = rep.Confidence >= d.threshold

	rep.Recommendations = advice.lines()
	if sig < 1 && t.signatureAdvice != "" {
		rep.Recommendations = append(rep.Recommendations, t.signatureAdvice)
	}
	if n := len(rep.Unclassified); n > 0 {
		rep.Recommendations = append(rep.Recommendations, t.unclassifiedText(n))
	}
	return rep
}

// view is what a signature sees of a classified graph.
type view struct {
	comps   []model.Component
	roles   []string
	present map[string]int
	// edges holds the role pair of every checked edge.
	edges [][2]string
}

func (v *view) has(roles ...string) bool {
	for _, r := range roles {
		if v.present[r] == 0 {
			return false
		}
	}
	return true
}

func (v *view) hasEdge(from, to string) bool {
	for _, e := range v.edges {
		if e[0] == from && e[1] == to {
			return true
		}
	}
	return false
}

// advice counts violations per (kind, source role, target role).
type advice struct {
	counts map[adviceKey]int
	text   map[adviceKey]string
}

type adviceKey struct {
	boundary bool
	from, to string
}

func newAdvice() *advice {
	return &advice{counts: make(map[adviceKey]int), text: make(map[adviceKey]string)}
}

func (a *advice) add(text string, boundary bool, from, to string) {
	k := adviceKey{boundary: boundary, from: from, to: to}
	a.counts[k]++
	a.text[k] = text
}

// lines renders one recommendation per key, most frequent first.
func (a *advice) lines() []string {
	keys := make([]adviceKey, 0, len(a.counts))
	for k := range a.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if a.counts[keys[i]] != a.counts[keys[j]] {
			return a.counts[keys[i]] > a.counts[keys[j]]
		}
		return a.text[keys[i]] < a.text[keys[j]]
	})
	out := make([]string, len(keys))
	for i, k := range keys {
		n := a.counts[k]
		suffix := "occurrences"
		if n == 1 {
			suffix = "occurrence"
		}
		out[i] = fmt.Sprintf("%s (%d %s)", a.text[k], n, suffix)
	}
	return out
}
