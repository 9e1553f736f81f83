package controller

import (
	"strings"
	"testing"
)

func TestUnifiedDiff(t *testing.T) {
	original := []byte("import urllib2\n\nx = 1\n")
	updated := []byte("import urllib.request\n\nx = 1\n")

	diff, err := UnifiedDiff("app.py", original, updated)
	if err != nil {
		t.Fatalf("UnifiedDiff: %v", err)
	}

	for _, want := range []string{
		"--- app.py",
		"+++ app.py",
		"-import urllib2",
		"+import urllib.request",
	} {
		if !strings.Contains(diff, want) {
			t.Fatalf("diff missing %q:\n%s", want, diff)
		}
	}

	// Context lines carry over unchanged.
	if !strings.Contains(diff, " x = 1") {
		t.Fatalf("diff missing context line:\n%s", diff)
	}
}

func TestUnifiedDiffIdentical(t *testing.T) {
	source := []byte("x = 1\n")

	diff, err := UnifiedDiff("app.py", source, source)
	if err != nil {
		t.Fatalf("UnifiedDiff: %v", err)
	}

	if diff != "" {
		t.Fatalf("identical inputs produced a diff: %q", diff)
	}
}

func TestColorizeDiffKeepsText(t *testing.T) {
	diff := "--- app.py\n+++ app.py\n@@ -1 +1 @@\n-import urllib2\n+import urllib.request\n"

	colored := ColorizeDiff(diff)

	// Styling may wrap lines in escape sequences but never rewrites them.
	for _, want := range []string{
		"--- app.py",
		"@@ -1 +1 @@",
		"-import urllib2",
		"+import urllib.request",
	} {
		if !strings.Contains(colored, want) {
			t.Fatalf("colorized diff lost %q:\n%s", want, colored)
		}
	}
}
