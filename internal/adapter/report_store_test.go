package adapter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

func TestReportStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	store := NewReportStore()

	changes := []m.FileChanges{
		{
			Source: m.SourceFile{FullPath: "/src/pkg/version.py", ShortPath: "pkg/version.py", Hash: "abc"},
			Records: []m.ChangeRecord{
				{Op: m.OpReplace, Line: 3, Summary: "from importlib.metadata import version"},
			},
			Diff: "--- pkg/version.py\n+++ pkg/version.py\n",
		},
		{
			Source: m.SourceFile{FullPath: "/src/app.py", ShortPath: "app.py"},
			Records: []m.ChangeRecord{
				{Op: m.OpRemove, Line: 10, Summary: "import imp"},
				{Op: m.OpInsertBefore, Line: 1, Summary: "import importlib"},
			},
		},
		// Unchanged files produce no report.
		{Source: m.SourceFile{FullPath: "/src/quiet.py", ShortPath: "quiet.py"}},
	}

	require.NoError(t, store.SaveChanges(m.Path(dir), changes))

	loaded, err := store.LoadChanges(m.Path(dir))
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Sorted by short path.
	assert.Equal(t, m.Path("app.py"), loaded[0].Source.ShortPath)
	assert.Equal(t, m.Path("pkg/version.py"), loaded[1].Source.ShortPath)

	assert.Len(t, loaded[0].Records, 2)
	assert.Equal(t, m.OpRemove, loaded[0].Records[0].Op)
	assert.Equal(t, "abc", loaded[1].Source.Hash)
	assert.Contains(t, loaded[1].Diff, "+++ pkg/version.py")
}

func TestLoadChangesMissingDir(t *testing.T) {
	store := NewReportStore()

	_, err := store.LoadChanges(m.Path(filepath.Join(t.TempDir(), "absent")))
	assert.Error(t, err)
}
