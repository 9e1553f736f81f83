package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

func newBufferedUI(t *testing.T) (*SimpleUI, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	return NewSimpleUI(cmd), &out
}

func sampleChanges() []m.FileChanges {
	return []m.FileChanges{
		{
			Source:  m.SourceFile{ShortPath: "app.py"},
			Records: []m.ChangeRecord{{Op: m.OpReplace, Line: 1, Summary: "import urllib.request"}},
			Diff:    "--- app.py\n+++ app.py\n@@ -1 +1 @@\n-import urllib2\n+import urllib.request\n",
		},
		{
			Source: m.SourceFile{ShortPath: "clean.py"},
		},
	}
}

func TestSimpleUIDisplayRunInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("apply mode", func(t *testing.T) {
		ui, out := newBufferedUI(t)
		if err := ui.Start(ctx, WithApplyMode()); err != nil {
			t.Fatalf("Start: %v", err)
		}

		ui.DisplayRunInfo(ctx, 4, 2)

		if !strings.Contains(out.String(), "mode: apply, rules: 2, threads: 4") {
			t.Fatalf("unexpected run info: %q", out.String())
		}
	})

	t.Run("preview mode", func(t *testing.T) {
		ui, out := newBufferedUI(t)
		if err := ui.Start(ctx, WithPreviewMode()); err != nil {
			t.Fatalf("Start: %v", err)
		}

		ui.DisplayRunInfo(ctx, 1, 1)

		if !strings.Contains(out.String(), "mode: preview") {
			t.Fatalf("unexpected run info: %q", out.String())
		}
	})
}

func TestSimpleUIDisplaySummary(t *testing.T) {
	ctx := context.Background()
	ui, out := newBufferedUI(t)

	if err := ui.DisplaySummary(ctx, sampleChanges(), nil); err != nil {
		t.Fatalf("DisplaySummary: %v", err)
	}

	// Only changed files make the table; the footer counts them.
	if !strings.Contains(out.String(), "app.py") {
		t.Fatalf("summary missing changed file:\n%s", out.String())
	}

	if strings.Contains(out.String(), "clean.py") {
		t.Fatalf("summary lists unchanged file:\n%s", out.String())
	}

	if !strings.Contains(out.String(), "1") {
		t.Fatalf("summary missing change count:\n%s", out.String())
	}
}

func TestSimpleUIDisplaySummaryError(t *testing.T) {
	ctx := context.Background()
	ui, out := newBufferedUI(t)

	err := ui.DisplaySummary(ctx, nil, context.DeadlineExceeded)
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v", err)
	}

	if !strings.Contains(out.String(), "refactoring error") {
		t.Fatalf("error not reported: %q", out.String())
	}
}

func TestSimpleUIDisplayDiffs(t *testing.T) {
	ctx := context.Background()
	ui, out := newBufferedUI(t)

	if err := ui.DisplayDiffs(ctx, sampleChanges()); err != nil {
		t.Fatalf("DisplayDiffs: %v", err)
	}

	if !strings.Contains(out.String(), "+import urllib.request") {
		t.Fatalf("diff not printed:\n%s", out.String())
	}
}

func TestSimpleUICancelledContext(t *testing.T) {
	ui, out := newBufferedUI(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ui.Start(ctx); err == nil {
		t.Fatal("Start ignored cancelled context")
	}

	ui.DisplayRunInfo(ctx, 1, 1)

	if err := ui.DisplayDiffs(ctx, sampleChanges()); err == nil {
		t.Fatal("DisplayDiffs ignored cancelled context")
	}

	if out.Len() != 0 {
		t.Fatalf("cancelled context still printed: %q", out.String())
	}
}
