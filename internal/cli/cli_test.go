package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/insetkit/pkg/config"
	"github.com/matzehuels/insetkit/pkg/coordinator"
	"github.com/matzehuels/insetkit/pkg/scenario"
)

const testScenario = `name: cli
canvas: {width: 400, height: 300}
tracks: [A, B]
frames:
  - annotations:
      - {track: A, id: small, view: [100, 100, 5, 5], data: [100, 200, 100, 200]}
      - {track: B, id: large, view: [200, 150, 50, 50], data: [0, 5000, 0, 5000]}
  - zoom: {k: 1, tx: 10}
    annotations:
      - {track: A, id: small, view: [110, 100, 5, 5], data: [100, 200, 100, 200]}
`

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(testScenario), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return New(io.Discard, log.InfoLevel)
}

func TestLayoutCommand(t *testing.T) {
	c := testCLI(t)
	input := writeScenario(t)
	base := filepath.Join(filepath.Dir(input), "out")

	err := c.Execute(context.Background(), []string{"layout", input, "-o", base, "-f", "svg,json", "--table=false"})
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte(`id="inset-small"`)) {
		t.Error("svg lacks the inset")
	}
	if _, err := os.Stat(base + ".json"); err != nil {
		t.Errorf("json output missing: %v", err)
	}
}

func TestLayoutCommandErrors(t *testing.T) {
	c := testCLI(t)
	input := writeScenario(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"layout", input, "-f", "png"}},
		{"bad mode", []string{"layout", input, "-m", "spiral"}},
		{"missing scenario", []string{"layout", filepath.Join(t.TempDir(), "none.yaml")}},
		{"missing config", []string{"layout", input, "-c", filepath.Join(t.TempDir(), "none.toml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Execute(context.Background(), tt.args); err == nil {
				t.Error("Execute() succeeded, want error")
			}
		})
	}
}

func TestConfigCommand(t *testing.T) {
	c := testCLI(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[coordinator]\nthreshold = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "-c", path})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config error: %v", err)
	}

	cfg, err := config.Parse(out.Bytes())
	if err != nil {
		t.Fatalf("printed config does not parse: %v\n%s", err, out.String())
	}
	if cfg.Coordinator.Threshold != 9 {
		t.Errorf("threshold = %v, want 9", cfg.Coordinator.Threshold)
	}
}

func TestOptionsModeOverride(t *testing.T) {
	c := testCLI(t)
	opts, err := c.options("gallery")
	if err != nil {
		t.Fatal(err)
	}
	if opts.Mode != "gallery" {
		t.Errorf("mode = %q, want gallery", opts.Mode)
	}
	if opts.Logger != c.Logger {
		t.Error("options do not carry the CLI logger")
	}
}

func TestPreviewModel(t *testing.T) {
	s, err := scenario.Read(strings.NewReader(testScenario))
	if err != nil {
		t.Fatal(err)
	}
	r, err := scenario.NewReplayer(context.Background(), s, coordinator.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	m := NewPreviewModel("cli", r, nil)
	if len(m.Steps) != 1 || !m.Steps[0].Drawn {
		t.Fatalf("first frame not replayed: %+v", m.Steps)
	}
	if !strings.Contains(m.View(), "small") {
		t.Error("view lacks the placed inset")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(PreviewModel)
	if m.Cursor != 1 || len(m.Steps) != 2 {
		t.Errorf("after right: cursor=%d steps=%d", m.Cursor, len(m.Steps))
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(PreviewModel)
	if m.Cursor != 1 {
		t.Errorf("moved past the last frame: cursor=%d", m.Cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(PreviewModel)
	if m.Cursor != 0 {
		t.Errorf("after left: cursor=%d", m.Cursor)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q did not quit")
	}
}
