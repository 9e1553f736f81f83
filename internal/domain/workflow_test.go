package domain

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"pyrefac.dev/pkg/pyrefac/internal/adapter"
	"pyrefac.dev/pkg/pyrefac/internal/controller"
	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

const workflowRecipe = `version: 1
name: modernize
rules:
  - rule: modernize-imports
  - rule: rename-function
    old: fetch
    new: fetch_url
`

const workflowLegacy = `import urllib2


def fetch(url):
    return urllib2.urlopen(url)
`

func newTestWorkflow(t *testing.T) (Workflow, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	workflow := NewWorkflowPipeline(
		adapter.NewLocalSourceFSAdapter(),
		adapter.NewReportStore(),
		adapter.NewTreeSitterParser(),
		controller.NewSimpleUI(cmd),
	)

	return workflow, &out
}

func writeWorkflowFixture(t *testing.T) (dir, recipe string) {
	t.Helper()

	dir = t.TempDir()

	files := map[string]string{
		"app.py":        workflowLegacy,
		"clean.py":      "import os\n",
		"recipe.yaml":   workflowRecipe,
		"notes.txt":     "not python\n",
		"sub/legacy.py": "import ConfigParser\n",
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}

		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	return dir, filepath.Join(dir, "recipe.yaml")
}

func TestWorkflowRun(t *testing.T) {
	dir, recipe := writeWorkflowFixture(t)
	reports := filepath.Join(dir, "reports")
	workflow, out := newTestWorkflow(t)

	err := workflow.Run(context.Background(), RunArgs{
		Paths:   []string{dir},
		Recipe:  recipe,
		Reports: reports,
		Threads: 2,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	app, err := os.ReadFile(filepath.Join(dir, "app.py"))
	if err != nil {
		t.Fatalf("read app.py: %v", err)
	}

	for _, want := range []string{"import urllib.request\n", "def fetch_url(url):"} {
		if !strings.Contains(string(app), want) {
			t.Fatalf("app.py missing %q:\n%s", want, app)
		}
	}

	legacy, err := os.ReadFile(filepath.Join(dir, "sub", "legacy.py"))
	if err != nil {
		t.Fatalf("read legacy.py: %v", err)
	}

	if string(legacy) != "import configparser\n" {
		t.Fatalf("legacy.py = %q", legacy)
	}

	clean, err := os.ReadFile(filepath.Join(dir, "clean.py"))
	if err != nil {
		t.Fatalf("read clean.py: %v", err)
	}

	if string(clean) != "import os\n" {
		t.Fatalf("clean.py rewritten: %q", clean)
	}

	// One report per changed file, loadable for the view command.
	saved, err := adapter.NewReportStore().LoadChanges(m.Path(reports))
	if err != nil {
		t.Fatalf("LoadChanges: %v", err)
	}

	if len(saved) != 2 {
		t.Fatalf("got %d reports, want 2", len(saved))
	}

	if !strings.Contains(out.String(), "app.py") {
		t.Fatalf("summary missing changed file:\n%s", out.String())
	}
}

func TestWorkflowRunDryRun(t *testing.T) {
	dir, recipe := writeWorkflowFixture(t)
	reports := filepath.Join(dir, "reports")
	workflow, out := newTestWorkflow(t)

	err := workflow.Run(context.Background(), RunArgs{
		Paths:   []string{dir},
		Recipe:  recipe,
		Reports: reports,
		DryRun:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	app, err := os.ReadFile(filepath.Join(dir, "app.py"))
	if err != nil {
		t.Fatalf("read app.py: %v", err)
	}

	if string(app) != workflowLegacy {
		t.Fatalf("dry run rewrote app.py:\n%s", app)
	}

	if _, err := os.Stat(reports); !os.IsNotExist(err) {
		t.Fatalf("dry run produced reports dir: %v", err)
	}

	// Diffs still show what would change.
	if !strings.Contains(out.String(), "import urllib.request") {
		t.Fatalf("dry run output missing diff:\n%s", out.String())
	}
}

func TestWorkflowRunExclude(t *testing.T) {
	dir, recipe := writeWorkflowFixture(t)
	workflow, _ := newTestWorkflow(t)

	err := workflow.Run(context.Background(), RunArgs{
		Paths:   []string{dir},
		Recipe:  recipe,
		Exclude: []string{`sub/`},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	legacy, err := os.ReadFile(filepath.Join(dir, "sub", "legacy.py"))
	if err != nil {
		t.Fatalf("read legacy.py: %v", err)
	}

	if string(legacy) != "import ConfigParser\n" {
		t.Fatalf("excluded file rewritten: %q", legacy)
	}
}

func TestWorkflowRunMissingRecipe(t *testing.T) {
	dir, _ := writeWorkflowFixture(t)
	workflow, _ := newTestWorkflow(t)

	err := workflow.Run(context.Background(), RunArgs{
		Paths:  []string{dir},
		Recipe: filepath.Join(dir, "missing.yaml"),
	})
	if err == nil {
		t.Fatal("missing recipe accepted")
	}
}

func TestWorkflowView(t *testing.T) {
	dir, recipe := writeWorkflowFixture(t)
	reports := filepath.Join(dir, "reports")
	workflow, _ := newTestWorkflow(t)

	err := workflow.Run(context.Background(), RunArgs{
		Paths:   []string{dir},
		Recipe:  recipe,
		Reports: reports,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	viewer, out := newTestWorkflow(t)
	if err := viewer.View(context.Background(), ViewArgs{Reports: reports}); err != nil {
		t.Fatalf("View: %v", err)
	}

	for _, want := range []string{"app.py", "legacy.py"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("view output missing %q:\n%s", want, out.String())
		}
	}
}
