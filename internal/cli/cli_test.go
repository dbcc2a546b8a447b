package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/blockout/pkg/config"
	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/extract"
	"github.com/matzehuels/blockout/pkg/plan"
	"github.com/matzehuels/blockout/pkg/scene"
)

const livingDoc = `{
  "rooms": [{"name": "living"}],
  "objects": [
    {"id": "desk", "type": "desk", "parent": "living", "position": {"x": 100, "y": 50}},
    {"id": "lamp1", "type": "lamp", "parent": "desk", "position": {"z": 75}}
  ]
}`

// isolate points every environment input of the CLI at t's temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(envConfig, "")
	t.Setenv(envRedisAddr, "")
	t.Setenv(envMongoURI, "")
	t.Setenv(envOpenAIKey, "")
	return dir
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	want := []string{"build", "cache", "completion", "config", "extract", "inspect", "resolve", "serve"}
	for _, name := range want {
		found := false
		for _, g := range got {
			found = found || g == name
		}
		if !found {
			t.Errorf("missing subcommand %q (have %v)", name, got)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"json"}},
		{"svg", []string{"svg"}},
		{"json, dot,,svg", []string{"json", "dot", "svg"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		output  string
		input   string
		want    map[string]string
	}{
		{
			name:    "derived from input",
			formats: []string{"json", "svg"},
			input:   "scenes/living.json",
			want:    map[string]string{"json": "scenes/living.plan.json", "svg": "scenes/living.svg"},
		},
		{
			name:    "single format verbatim",
			formats: []string{"svg"},
			output:  "out/diagram.svg",
			input:   "living.json",
			want:    map[string]string{"svg": "out/diagram.svg"},
		},
		{
			name:    "base path with known suffix",
			formats: []string{"dot", "graph"},
			output:  "out/living.plan.json",
			input:   "living.json",
			want:    map[string]string{"dot": "out/living.dot", "graph": "out/living.graph.json"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPaths(tt.formats, tt.output, tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("outputPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShellFlagsApply(t *testing.T) {
	f := shellFlags{noCeiling: true, panelSize: 50}
	cfg, err := f.apply(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Shell.Ceiling || cfg.Shell.PanelSize != 50 {
		t.Errorf("shell = %+v", cfg.Shell)
	}

	f = shellFlags{panelSize: -1}
	if _, err := f.apply(config.Default()); errors.GetCode(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("negative panel size: err = %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "blockout.toml")
	writeFile(t, path, "[room]\nheight = 250\n")
	t.Setenv(envConfig, path)

	cfg, err := New(io.Discard, LogInfo).loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Room.Height != 250 || cfg.Room.Width != 400 {
		t.Errorf("room = %+v", cfg.Room)
	}
}

func TestResolveCommand(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "living.json")
	writeFile(t, in, livingDoc)

	if _, err := run(t, "resolve", in, "-f", "json,dot,graph", "--no-ceiling"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "living.plan.json"))
	if err != nil {
		t.Fatal(err)
	}
	p, err := plan.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if room, _ := p.Room("living"); len(room.Panels) != 5 {
		t.Errorf("living has %d panels, want 5", len(room.Panels))
	}
	lamp, _ := p.Placement("lamp1")
	if lamp.WorldPosition.X != 100 || lamp.WorldPosition.Y != 50 || lamp.WorldPosition.Z != 75 {
		t.Errorf("lamp1 world = %+v", lamp.WorldPosition)
	}

	dot, err := os.ReadFile(filepath.Join(dir, "living.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), `"desk" -> "lamp1"`) {
		t.Errorf("dot = %s", dot)
	}
	if _, err := os.Stat(filepath.Join(dir, "living.graph.json")); err != nil {
		t.Errorf("graph artifact: %v", err)
	}
}

func TestResolveCommandUsesCache(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "living.json")
	writeFile(t, in, livingDoc)

	for i := 0; i < 2; i++ {
		if _, err := run(t, "resolve", in); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dir, "cache", appName))
	if err != nil || len(entries) == 0 {
		t.Errorf("cache dir empty: %v", err)
	}
}

func TestResolveCommandErrors(t *testing.T) {
	dir := isolate(t)
	cyclic := filepath.Join(dir, "cyclic.json")
	writeFile(t, cyclic, `{"rooms":[],"objects":[{"id":"a","type":"x","parent":"b"},{"id":"b","type":"x","parent":"a"}]}`)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"cycle", []string{"resolve", cyclic, "--no-cache"}, errors.ErrCodeCyclicAttachment},
		{"missing file", []string{"resolve", filepath.Join(dir, "nope.json")}, errors.ErrCodeFileNotFound},
		{"bad panel size", []string{"resolve", cyclic, "--panel-size=-3"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}

	if _, err := run(t, "resolve", cyclic, "-f", "png"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "blockout.toml")

	if _, err := run(t, "config", "init", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := run(t, "config", "init", path); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("second init without --force: err = %v", err)
	}
	if _, err := run(t, "config", "init", path, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}

	out, err := run(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	cfg, err := config.Parse([]byte(out))
	if err != nil {
		t.Fatalf("show output does not parse: %v\n%s", err, out)
	}
	if cfg.Key() != config.Default().Key() {
		t.Error("round-tripped config differs from defaults")
	}
}

func TestCachePath(t *testing.T) {
	dir := isolate(t)
	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "cache", appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestExtractRequiresAPIKey(t *testing.T) {
	isolate(t)
	for _, cmd := range []string{"extract", "build"} {
		_, err := run(t, cmd, "a bedroom")
		if got := errors.GetCode(err); got != errors.ErrCodeUnauthorized {
			t.Errorf("%s: code = %q, want %q", cmd, got, errors.ErrCodeUnauthorized)
		}
	}
	if _, err := run(t, "extract"); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("empty prompt: err = %v", err)
	}
}

func TestBuildCommand(t *testing.T) {
	dir := isolate(t)
	t.Setenv(envOpenAIKey, "sk-test")

	args := `{"rooms":[{"name":"bedroom"}],"objects":[{"id":"desk","type":"desk","parent":"bedroom","position":{"x":50}}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := map[string]any{"choices": []any{map[string]any{"message": map[string]any{
			"role":          "assistant",
			"function_call": map[string]any{"name": extract.FunctionName, "arguments": args},
		}}}}
		_ = json.NewEncoder(w).Encode(reply)
	}))
	defer srv.Close()

	cfgPath := filepath.Join(dir, "blockout.toml")
	writeFile(t, cfgPath, "[extract]\nendpoint = \""+srv.URL+"\"\n")
	base := filepath.Join(dir, "out", "bedroom")

	if _, err := run(t, "--config", cfgPath, "build", "a bedroom with a desk", "-o", base, "-f", "json,transcript"); err != nil {
		t.Fatalf("build: %v", err)
	}

	doc, err := scene.Read(mustOpen(t, base+".json"))
	if err != nil {
		t.Fatal(err)
	}
	if h := doc.Objects[0].Dimensions["height"]; h == nil || *h != 75 {
		t.Error("desk height not sanitized")
	}

	p, err := plan.Decode(mustRead(t, base+".plan.json"))
	if err != nil {
		t.Fatal(err)
	}
	if desk, _ := p.Placement("desk"); desk.WorldPosition.X != 50 {
		t.Errorf("desk world = %+v", desk.WorldPosition)
	}
	if _, err := os.Stat(base + ".transcript.json"); err != nil {
		t.Errorf("transcript: %v", err)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func mustOpen(t *testing.T, path string) io.Reader {
	return bytes.NewReader(mustRead(t, path))
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.CyclicAttachment([]string{"a", "b"}))
	out := buf.String()
	if !strings.Contains(out, "involves: a, b") {
		t.Errorf("PrintError() = %q", out)
	}
}
