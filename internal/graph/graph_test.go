package graph

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/pattern"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func class(name string, bases ...string) model.Definition {
	return model.Definition{Name: name, Kind: model.Class, Line: 1, Bases: bases}
}

func method(owner, name string) model.Definition {
	return model.Definition{Name: name, Kind: model.Method, Line: 2, Owner: owner}
}

func imports(paths ...string) []model.Import {
	out := make([]model.Import, len(paths))
	for i, p := range paths {
		out[i] = model.Import{Path: p, Line: i + 1}
	}
	return out
}

func layeredFixture() []model.FileResult {
	return []model.FileResult{
		{
			Path:        "app/controllers/order_controller.py",
			Language:    "python",
			Definitions: []model.Definition{class("OrderController"), method("OrderController", "show_order")},
			Imports:     imports("app/services/order_service"),
			TypeRefs:    []string{"OrderService"},
		},
		{
			Path:        "app/services/order_service.py",
			Language:    "python",
			Definitions: []model.Definition{class("OrderService"), method("OrderService", "place_order")},
			Imports:     imports("app/repositories/order_repository", "app/models/order"),
		},
		{
			Path:        "app/repositories/order_repository.py",
			Language:    "python",
			Definitions: []model.Definition{class("OrderRepository", "BaseRepository"), method("OrderRepository", "save")},
			Imports:     imports("app/models/order"),
		},
		{
			Path:        "app/models/order.py",
			Language:    "python",
			Definitions: []model.Definition{class("Order")},
		},
	}
}

func TestBuildLayeredGraph(t *testing.T) {
	t.Parallel()

	g := Build(nil, layeredFixture(), quiet)
	if g.Len() != 4 {
		t.Fatalf("components = %d", g.Len())
	}

	wantLayers := map[string]model.Layer{
		"app/controllers/order_controller.py":  model.Presentation,
		"app/services/order_service.py":        model.Business,
		"app/repositories/order_repository.py": model.DataAccess,
		"app/models/order.py":                  model.Domain,
	}
	for _, c := range g.Components() {
		if c.Layer != wantLayers[c.Path] {
			t.Errorf("%s layer = %s, want %s", c.Path, c.Layer, wantLayers[c.Path])
		}
		if c.Domain != "order" {
			t.Errorf("%s domain = %q, want order", c.Path, c.Domain)
		}
	}

	type pair struct{ from, to string }
	got := map[pair]model.EdgeKind{}
	for _, e := range g.Edges() {
		got[pair{g.Path(e.From), g.Path(e.To)}] = e.Kind
	}
	want := map[pair]model.EdgeKind{
		{"app/controllers/order_controller.py", "app/services/order_service.py"}:         model.Composition,
		{"app/services/order_service.py", "app/repositories/order_repository.py"}:        model.ImportEdge,
		{"app/services/order_service.py", "app/models/order.py"}:                         model.ImportEdge,
		{"app/repositories/order_repository.py", "app/models/order.py"}:                  model.ImportEdge,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("edges = %v\nwant %v", got, want)
	}
}

func TestBuildEdgeCollapse(t *testing.T) {
	t.Parallel()

	results := []model.FileResult{
		{
			Path:        "app/services/admin_service.py",
			Language:    "python",
			Definitions: []model.Definition{class("AdminService", "UserService")},
			Imports:     imports("app/services/user_service"),
			TypeRefs:    []string{"UserService"},
		},
		{
			Path:        "app/services/user_service.py",
			Language:    "python",
			Definitions: []model.Definition{class("UserService")},
		},
	}
	g := Build(nil, results, quiet)
	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("edges = %+v", edges)
	}
	if edges[0].Kind != model.Inheritance || edges[0].Count != 3 {
		t.Errorf("edge = %+v, want inheritance with count 3", edges[0])
	}
}

func TestBuildSelfLoopDropped(t *testing.T) {
	t.Parallel()

	results := []model.FileResult{{
		Path:        "pkg/loop.py",
		Language:    "python",
		Definitions: []model.Definition{class("Loop", "Loop")},
		Imports:     imports("pkg/loop"),
		TypeRefs:    []string{"Loop"},
	}}
	g := Build(nil, results, quiet)
	if len(g.Edges()) != 0 {
		t.Errorf("self-loop kept: %+v", g.Edges())
	}
}

func TestBuildSkips(t *testing.T) {
	t.Parallel()

	results := []model.FileResult{
		{Path: "b.py", Language: "python", Err: &model.ParseFailure{Path: "b.py", Err: errors.New("boom")}},
		{Path: "a.py", Language: "python"},
		{Path: "c.py", Language: "python", Definitions: []model.Definition{class("C")}},
	}
	g := Build(nil, results, quiet)
	if g.Len() != 1 {
		t.Errorf("components = %d, want 1", g.Len())
	}
	skipped := g.Skipped()
	if len(skipped) != 2 || skipped[0].Path != "a.py" || skipped[1].Path != "b.py" {
		t.Fatalf("skipped = %+v", skipped)
	}
	if !strings.Contains(skipped[1].Reason, "boom") {
		t.Errorf("reason = %q", skipped[1].Reason)
	}
}

func TestBuildOrderInvariance(t *testing.T) {
	t.Parallel()

	forward := layeredFixture()
	backward := make([]model.FileResult, len(forward))
	for i := range forward {
		backward[len(forward)-1-i] = forward[i]
	}

	a := Build(nil, forward, quiet)
	b := Build(nil, backward, quiet)
	if !reflect.DeepEqual(a.Components(), b.Components()) {
		t.Error("components depend on input order")
	}
	if !reflect.DeepEqual(a.Edges(), b.Edges()) {
		t.Error("edges depend on input order")
	}
}

func TestBuildDuplicatePath(t *testing.T) {
	t.Parallel()

	first := model.FileResult{Path: "a.py", Language: "python", Definitions: []model.Definition{class("Alpha")}}
	second := model.FileResult{Path: "a.py", Language: "python", Definitions: []model.Definition{class("Beta")}}
	failed := model.FileResult{Path: "a.py", Language: "python", Err: &model.ParseFailure{Path: "a.py", Err: errors.New("boom")}}

	orders := [][]model.FileResult{
		{first, second, failed},
		{second, first, failed},
		{failed, second, first},
		{second, failed, first},
	}
	for _, results := range orders {
		g := Build(nil, results, quiet)
		comps := g.Components()
		if len(comps) != 1 || comps[0].Definitions[0].Name != "Alpha" {
			t.Errorf("kept = %+v", comps)
		}
		skipped := g.Skipped()
		if len(skipped) != 2 || skipped[0].Reason != "duplicate path" || !strings.Contains(skipped[1].Reason, "boom") {
			t.Errorf("skipped = %+v", skipped)
		}
	}
}

func TestGoPackageImport(t *testing.T) {
	t.Parallel()

	results := []model.FileResult{
		{
			Path:     "cmd/server/main.go",
			Language: "go",
			Definitions: []model.Definition{
				{Name: "main", Kind: model.Function, Line: 5},
			},
			Imports:  imports("fmt", "github.com/acme/shop/internal/repo"),
			TypeRefs: []string{"UserStore"},
		},
		{
			Path:        "internal/repo/helpers.go",
			Language:    "go",
			Definitions: []model.Definition{{Name: "quote", Kind: model.Function, Line: 3}},
		},
		{
			Path:        "internal/repo/store.go",
			Language:    "go",
			Definitions: []model.Definition{class("UserStore")},
		},
	}
	g := Build(nil, results, quiet)
	main, _ := g.Lookup("cmd/server/main.go")
	store, _ := g.Lookup("internal/repo/store.go")
	if got := g.Successors(main); !reflect.DeepEqual(got, []int{store}) {
		t.Errorf("successors = %v, want [%d]", got, store)
	}
	if e, ok := g.Edge(main, store); !ok || e.Kind != model.Composition || e.Count != 2 {
		t.Errorf("edge = %+v, %v", e, ok)
	}
}

func TestInferLayer(t *testing.T) {
	t.Parallel()

	reg, err := pattern.LoadCatalog()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		res  model.FileResult
		want model.Layer
	}{
		{"nearest directory wins", model.FileResult{Path: "services/billing/api/handlers.py"}, model.Presentation},
		{"file suffix", model.FileResult{Path: "src/OrderRepository.java"}, model.DataAccess},
		{"snake suffix", model.FileResult{Path: "lib/payment_service.rb"}, model.Business},
		{"class names", model.FileResult{Path: "lib/thing.py", Definitions: []model.Definition{class("InvoiceEntity")}}, model.Domain},
		{"base names", model.FileResult{Path: "lib/thing.py", Definitions: []model.Definition{class("Thing", "BaseController")}}, model.Presentation},
		{"vote tie goes to first layer", model.FileResult{Path: "lib/thing.py", Definitions: []model.Definition{class("OrderRepository"), class("OrderController")}}, model.Presentation},
		{"pattern hint", model.FileResult{Path: "lib/thing.py", Matches: map[string][]model.Match{"repository": {{Pattern: "repository"}}}}, model.DataAccess},
		{"unknown", model.FileResult{Path: "lib/thing.py", Definitions: []model.Definition{class("Thing")}}, model.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := inferLayer(&tt.res, reg); got != tt.want {
				t.Errorf("inferLayer = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInferDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		res  model.FileResult
		want string
	}{
		{model.FileResult{Path: "services/billing/api/handlers.py"}, "billing"},
		{model.FileResult{Path: "app/services/order_service.py"}, "order"},
		{model.FileResult{Path: "src/UserRepository.java"}, "user"},
		{model.FileResult{Path: "app/models/__init__.py", Definitions: []model.Definition{class("CustomerAggregate")}}, "customer"},
		{model.FileResult{Path: "app/utils.py"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.res.Path, func(t *testing.T) {
			t.Parallel()
			if got := inferDomain(&tt.res); got != tt.want {
				t.Errorf("inferDomain = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponsibilities(t *testing.T) {
	t.Parallel()

	reg, err := pattern.LoadCatalog()
	if err != nil {
		t.Fatal(err)
	}
	r := model.FileResult{
		Path: "app/services/order_service.py",
		Definitions: []model.Definition{
			class("OrderService"),
			method("OrderService", "get_order"),
			method("OrderService", "createOrder"),
			method("OrderService", "handle_paid"),
			method("OrderService", "get_all"),
		},
		Matches: map[string][]model.Match{
			"service":             {{}},
			"function_definition": {{}},
		},
	}
	got := responsibilities(&r, reg)
	want := []string{"command", "event_handling", "query", "service"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("responsibilities = %v, want %v", got, want)
	}
}

func TestRank(t *testing.T) {
	t.Parallel()

	g := Build(nil, layeredFixture(), quiet)
	var sum float64
	for _, c := range g.Components() {
		sum += c.Rank
	}
	if math.Abs(sum-1.0) > 1e-3 {
		t.Errorf("ranks sum to %f, want 1", sum)
	}

	controller, _ := g.Lookup("app/controllers/order_controller.py")
	order, _ := g.Lookup("app/models/order.py")
	if g.Component(order).Rank <= g.Component(controller).Rank {
		t.Errorf("depended-on model should outrank its only dependent")
	}
}

func TestRankEmpty(t *testing.T) {
	t.Parallel()

	if got := pageRank(0, nil, 0.85, 100, 1e-6); len(got) != 0 {
		t.Errorf("pageRank on empty graph = %v", got)
	}
	got := pageRank(2, nil, 0.85, 100, 1e-6)
	if got[0] != 0.5 || got[1] != 0.5 {
		t.Errorf("uniform rank = %v", got)
	}
}

func TestDirectedMirror(t *testing.T) {
	t.Parallel()

	g := Build(nil, layeredFixture(), quiet)
	d := g.Directed()
	for _, e := range g.Edges() {
		if !d.HasEdgeFromTo(int64(e.From), int64(e.To)) {
			t.Errorf("gonum graph lacks edge %d -> %d", e.From, e.To)
		}
	}
	if d.Nodes().Len() != g.Len() {
		t.Errorf("gonum nodes = %d, want %d", d.Nodes().Len(), g.Len())
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	g := Build(nil, layeredFixture(), quiet)
	c := g.Component(0)
	c.Responsibilities = append(c.Responsibilities[:0], "mutated")
	c.Layer = model.Unknown
	if g.Component(0).Layer == model.Unknown {
		t.Error("component mutation leaked into graph")
	}
	for _, r := range g.Component(0).Responsibilities {
		if r == "mutated" {
			t.Error("responsibility mutation leaked into graph")
		}
	}

	edges := g.Edges()
	edges[0].Count = 99
	if g.Edges()[0].Count == 99 {
		t.Error("edge mutation leaked into graph")
	}
}
