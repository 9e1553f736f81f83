package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// ReportStore persists per-file change logs so a run can be reviewed later
// with the view command. One YAML document per refactored source file.
type ReportStore interface {
	SaveChanges(dir m.Path, changes []m.FileChanges) error
	LoadChanges(dir m.Path) ([]m.FileChanges, error)
}

type reportStore struct{}

// NewReportStore constructs a filesystem-backed ReportStore.
func NewReportStore() ReportStore {
	return &reportStore{}
}

const reportExt = ".pyrefac.yaml"

// SaveChanges writes one YAML report per changed file into dir, creating the
// directory when needed. Unchanged files produce no report.
func (s *reportStore) SaveChanges(dir m.Path, changes []m.FileChanges) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	for _, change := range changes {
		if !change.Changed() {
			continue
		}

		data, err := yaml.Marshal(change)
		if err != nil {
			return fmt.Errorf("encode report for %s: %w", change.Source.ShortPath, err)
		}

		target := filepath.Join(string(dir), reportName(change.Source.ShortPath))
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	return nil
}

// LoadChanges reads every report in dir, sorted by source path for stable
// output.
func (s *reportStore) LoadChanges(dir m.Path) ([]m.FileChanges, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	var changes []m.FileChanges

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), reportExt) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(string(dir), entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read report %s: %w", entry.Name(), err)
		}

		var change m.FileChanges
		if err := yaml.Unmarshal(data, &change); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", entry.Name(), err)
		}

		changes = append(changes, change)
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Source.ShortPath < changes[j].Source.ShortPath
	})

	return changes, nil
}

// reportName flattens a relative source path into a single report filename,
// e.g. "pkg/version.py" -> "pkg__version.py.pyrefac.yaml".
func reportName(short m.Path) string {
	flat := strings.ReplaceAll(filepath.ToSlash(string(short)), "/", "__")
	return flat + reportExt
}
