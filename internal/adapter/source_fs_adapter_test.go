package adapter

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

func collectSources(t *testing.T, roots []m.Path, exclude ...string) []m.SourceFile {
	t.Helper()

	adapter := NewLocalSourceFSAdapter()
	sources, errs := adapter.Sources(context.Background(), roots, 1, exclude...)

	var got []m.SourceFile
	for source := range sources {
		got = append(got, source)
	}

	if err := <-errs; err != nil {
		t.Fatalf("sources: %v", err)
	}

	sort.Slice(got, func(i, j int) bool { return got[i].ShortPath < got[j].ShortPath })

	return got
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestSourcesWalksPythonFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "pkg", "util.py"), "y = 2\n")
	writeFile(t, filepath.Join(dir, "README.md"), "docs\n")
	writeFile(t, filepath.Join(dir, "__pycache__", "app.cpython-311.pyc"), "")
	writeFile(t, filepath.Join(dir, ".venv", "lib.py"), "z = 3\n")

	got := collectSources(t, []m.Path{m.Path(dir)})

	if len(got) != 2 {
		t.Fatalf("got %d sources, want 2: %+v", len(got), got)
	}

	if got[0].ShortPath != "app.py" || got[1].ShortPath != m.Path(filepath.Join("pkg", "util.py")) {
		t.Fatalf("unexpected short paths: %q, %q", got[0].ShortPath, got[1].ShortPath)
	}
}

func TestSourcesExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "app_test.py"), "x = 1\n")

	got := collectSources(t, []m.Path{m.Path(dir)}, `_test\.py$`)

	if len(got) != 1 || got[0].ShortPath != "app.py" {
		t.Fatalf("exclude failed: %+v", got)
	}
}

func TestSourcesFileRootStreamsDirectly(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "single.py")
	writeFile(t, target, "x = 1\n")

	got := collectSources(t, []m.Path{m.Path(target)})

	if len(got) != 1 || got[0].FullPath != m.Path(target) {
		t.Fatalf("file root not streamed: %+v", got)
	}
}

func TestSourcesBadExcludePattern(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()
	sources, errs := adapter.Sources(context.Background(), []m.Path{m.Path(t.TempDir())}, 1, "([")

	for range sources {
	}

	if err := <-errs; err == nil {
		t.Fatal("invalid exclude pattern should surface an error")
	}
}

func TestHashFileStable(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.py")
	writeFile(t, target, "x = 1\n")

	adapter := NewLocalSourceFSAdapter()

	first, err := adapter.HashFile(m.Path(target))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	second, err := adapter.HashFile(m.Path(target))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if first == "" || first != second {
		t.Fatalf("hashes differ: %q vs %q", first, second)
	}

	writeFile(t, target, "x = 2\n")

	third, err := adapter.HashFile(m.Path(target))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if third == first {
		t.Fatal("hash should change with content")
	}
}
