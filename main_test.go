package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/archlens/internal/analyze"
	"github.com/phobologic/archlens/internal/graph"
	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/snapshot"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// createSampleRepo lays out a small layered Python application.
func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "app/controllers/user_controller.py", `from app.services.user_service import UserService

class UserController:
    def show(self, user_id):
        return UserService().find(user_id)
`)
	writeTestFile(t, dir, "app/services/user_service.py", `from app.repositories.user_repository import UserRepository

class UserService:
    def find(self, user_id):
        return UserRepository().get(user_id)
`)
	writeTestFile(t, dir, "app/repositories/user_repository.py", `from app.models.user import User

class UserRepository:
    def get(self, user_id):
        return User(user_id)
`)
	writeTestFile(t, dir, "app/models/user.py", `class User:
    def __init__(self, user_id):
        self.user_id = user_id
`)
	return dir
}

func runArgs(args []string, stdout, stderr io.Writer) error {
	return run(context.Background(), args, stdout, stderr)
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := runArgs([]string{dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "root: ") {
		t.Errorf("output should start with root:, got:\n%s", out)
	}
	for _, want := range []string{
		"files: 4",
		"components[4]",
		"app/services/user_service.py",
		"app/models/user.py",
		"app/services/user_service.py,app/repositories/user_repository.py,import",
		"styles[5]",
		"layered,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunJSON(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{"--format", "json", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	var got struct {
		Root       string `json:"root"`
		Files      int    `json:"files"`
		Components []struct {
			Path  string `json:"path"`
			Layer string `json:"layer"`
		} `json:"components"`
		Reports []struct {
			Style string `json:"style"`
		} `json:"reports"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, stdout.String())
	}
	if got.Files != 4 || len(got.Components) != 4 || len(got.Reports) != 5 {
		t.Errorf("got %+v", got)
	}
	layers := make(map[string]string)
	for _, c := range got.Components {
		layers[c.Path] = c.Layer
	}
	if layers["app/controllers/user_controller.py"] != "presentation" {
		t.Errorf("layers = %v", layers)
	}
}

func TestRunTop(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{"-n", "2", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out := stdout.String(); !strings.Contains(out, "components[2]") {
		t.Errorf("expected 2 components, got:\n%s", out)
	}
}

func TestRunFocus(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{"--focus", "services", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "components[1]") || !strings.Contains(out, "edges[2]") {
		t.Errorf("focus output:\n%s", out)
	}
}

func TestRunStyles(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{"-s", "layered,clean", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "styles[2]") {
		t.Errorf("expected 2 styles:\n%s", out)
	}
	// Reports follow the fixed style order, not the flag order.
	if strings.Index(out, "\n  layered,") > strings.Index(out, "\n  clean,") {
		t.Errorf("styles out of order:\n%s", out)
	}
}

func TestRunUnknownStyle(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := runArgs([]string{"-s", "layerd", createSampleRepo(t)}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "layerd") {
		t.Errorf("err = %v", err)
	}
}

func TestRunUnknownPattern(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := runArgs([]string{"-p", "singletn", createSampleRepo(t)}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "singletn") {
		t.Errorf("err = %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := runArgs([]string{"--version"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "archlens") {
		t.Errorf("version output: %q", stdout.String())
	}
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	var stdout, stderr bytes.Buffer
	err := runArgs([]string{dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for no parseable files")
	}
	if !strings.Contains(err.Error(), "no parseable files") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunUnsupportedLanguage(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := runArgs([]string{"-l", "rust", t.TempDir()}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
	if !strings.Contains(err.Error(), "unsupported language") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunNotADirectory(t *testing.T) {
	t.Parallel()
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := runArgs([]string{f}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for non-directory")
	}
}

func TestRunMaxFileSize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "small.py", "def small():\n    pass\n")
	writeTestFile(t, dir, "big.py", strings.Repeat("x = 1\n", 200))

	var stdout, stderr bytes.Buffer
	err := runArgs([]string{"--max-file-size", "100", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "small.py") {
		t.Error("missing small.py")
	}
	if strings.Contains(out, "big.py") {
		t.Error("big.py should be filtered out")
	}
	if !strings.Contains(stderr.String(), "big.py") {
		t.Errorf("expected warning about skipped file, got %q", stderr.String())
	}
}

func TestRunSyntaxError(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, "app/broken.py", "def broken(:\n")

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "parse_failures[1]") || !strings.Contains(out, "components[4]") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRunCache(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cachePath := filepath.Join(t.TempDir(), "test.cache")

	var stdout1, stderr1 bytes.Buffer
	err := runArgs([]string{"--cache", cachePath, dir}, &stdout1, &stderr1)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache not created: %v", err)
	}

	var stdout2, stderr2 bytes.Buffer
	err = runArgs([]string{"--cache", cachePath, dir}, &stdout2, &stderr2)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if stdout1.String() != stdout2.String() {
		t.Errorf("cache mismatch:\nfirst:\n%s\nsecond:\n%s", stdout1.String(), stdout2.String())
	}
}

func TestRunBaseline(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	baseline := filepath.Join(t.TempDir(), "baselines", "base.yaml")

	var buf bytes.Buffer
	if err := runArgs([]string{"--save-baseline", baseline, dir}, &buf, &buf); err != nil {
		t.Fatalf("first run: %v", err)
	}
	snap, err := snapshot.Load(baseline)
	if err != nil {
		t.Fatalf("load baseline: %v", err)
	}
	if len(snap.StyleScores) != 5 {
		t.Errorf("style scores = %v", snap.StyleScores)
	}

	// A new dependency from the model back to the controller adds a cycle.
	writeTestFile(t, dir, "app/models/user.py", `from app.controllers.user_controller import UserController

class User:
    def __init__(self, user_id):
        self.user_id = user_id
`)

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{"--baseline", baseline, dir}, &stdout, &stderr); err != nil {
		t.Fatalf("second run: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"dependency_cycle", "architectural_erosion"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunBaselineStyleErosion(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	baseline := filepath.Join(t.TempDir(), "base.yaml")
	// No run reaches a confidence above one, so layered always looks worse.
	prior := snapshot.New(nil, []*model.Report{{Style: "layered", Confidence: 2}})
	if err := snapshot.Save(baseline, prior); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{"--baseline", baseline, "--styles", "layered", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	if out := stdout.String(); !strings.Contains(out, "style:layered degrading") {
		t.Errorf("missing style erosion in:\n%s", out)
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cfgPath := filepath.Join(t.TempDir(), "archlens.toml")
	writeTestFile(t, filepath.Dir(cfgPath), "archlens.toml", "styles = [\"hexagonal\"]\nformat = \"json\"\n")

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{"--config", cfgPath, "--format", "toon", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "styles[1]") || !strings.Contains(out, "hexagonal,") {
		t.Errorf("config styles not applied:\n%s", out)
	}
}

func TestPatternsList(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{"patterns"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "patterns[") {
		t.Errorf("output:\n%s", out)
	}
	for _, want := range []string{"singleton,design_pattern", "class_definition,basic"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestPatternsFilter(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := runArgs([]string{"patterns", "--category", "design_pattern", "--language", "python"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "singleton") {
		t.Errorf("missing singleton:\n%s", out)
	}
	if strings.Contains(out, "class_definition") {
		t.Errorf("basic pattern listed:\n%s", out)
	}

	err := runArgs([]string{"patterns", "--category", "nope"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Errorf("err = %v", err)
	}
}

func TestAssembleMatchOrderIsStable(t *testing.T) {
	t.Parallel()

	// Many patterns matching on one line, and one pattern matching the same
	// anchor several times, so map iteration order would show up.
	matches := make(map[string][]model.Match)
	for i := range 8 {
		matches["p"] = append(matches["p"], model.Match{Pattern: "p", Name: fmt.Sprintf("m%d", i), Line: 3, Column: 5})
	}
	for i := range 20 {
		name := fmt.Sprintf("q%02d", i)
		matches[name] = []model.Match{{Pattern: name, Name: name, Line: 3, Column: 20 - i}}
	}
	matches["p"] = append(matches["p"], model.Match{Pattern: "p", Name: "early", Line: 3, Column: 1})
	batch := &analyze.Batch{Results: []model.FileResult{{
		Path:        "app/orders.py",
		Language:    "python",
		Definitions: []model.Definition{{Name: "Orders", Kind: model.Class, Line: 1}},
		Matches:     matches,
	}}}
	g := graph.Build(nil, batch.Results, nil)

	var names []string
	for _, fm := range assemble("repo", 1, batch, g, nil, nil).Matches {
		names = append(names, fm.Name)
	}
	wantPrefix := "early,m0,m1,m2,m3,m4,m5,m6,m7,q00"
	if got := strings.Join(names, ","); !strings.HasPrefix(got, wantPrefix) {
		t.Fatalf("order = %s", got)
	}

	for _, format := range []string{"toon", "json"} {
		want, err := encode(assemble("repo", 1, batch, g, nil, nil), format)
		if err != nil {
			t.Fatal(err)
		}
		for range 300 {
			got, err := encode(assemble("repo", 1, batch, g, nil, nil), format)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Fatalf("%s output changed between runs:\n%s\n---\n%s", format, want, got)
			}
		}
	}
}
