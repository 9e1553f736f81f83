package adapter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// SourceFSAdapter abstracts filesystem operations for the batch surface. It
// hides direct os access so the workflow logic can be tested without
// touching the disk.
type SourceFSAdapter interface {
	// Sources walks the provided roots and streams every Python file found,
	// skipping paths matched by the exclude regexes. The error channel
	// carries at most one error and both channels close when the walk ends.
	Sources(ctx context.Context, roots []m.Path, buffer int, exclude ...string) (<-chan m.SourceFile, <-chan error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// HashFile returns a stable fingerprint (SHA-256) for the file at path.
	HashFile(path m.Path) (string, error)
}

// LocalSourceFSAdapter is the concrete SourceFSAdapter backed by the os
// package.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Sources walks roots and streams .py files. A root that is itself a file is
// streamed directly, whatever its extension, so explicit arguments always
// win over the filter.
func (a *LocalSourceFSAdapter) Sources(ctx context.Context, roots []m.Path, buffer int, exclude ...string) (<-chan m.SourceFile, <-chan error) {
	if buffer <= 0 {
		buffer = 1
	}

	out := make(chan m.SourceFile, buffer)
	errCh := make(chan error, 1)

	if len(roots) == 0 {
		roots = []m.Path{"."}
	}

	filters, err := compileExcludes(exclude)

	go func() {
		defer close(out)
		defer close(errCh)

		if err != nil {
			errCh <- err
			return
		}

		for _, root := range roots {
			if walkErr := a.walkRoot(ctx, root, filters, out); walkErr != nil {
				errCh <- walkErr
				return
			}
		}
	}()

	return out, errCh
}

func (a *LocalSourceFSAdapter) walkRoot(ctx context.Context, root m.Path, filters []*regexp.Regexp, out chan<- m.SourceFile) error {
	rootStr := string(root)

	info, err := os.Stat(rootStr)
	if err != nil {
		return fmt.Errorf("source path: %w", err)
	}

	if !info.IsDir() {
		return sendSource(ctx, out, newSourceFile(rootStr, filepath.Base(rootStr)))
	}

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			base := filepath.Base(path)
			if path != rootStr && (strings.HasPrefix(base, ".") || base == "__pycache__" || base == "venv" || base == "node_modules") {
				return filepath.SkipDir
			}

			return nil
		}

		if filepath.Ext(path) != ".py" {
			return nil
		}

		rel, relErr := filepath.Rel(rootStr, path)
		if relErr != nil {
			rel = path
		}

		for _, filter := range filters {
			if filter.MatchString(path) || filter.MatchString(rel) {
				return nil
			}
		}

		return sendSource(ctx, out, newSourceFile(path, rel))
	})
}

func sendSource(ctx context.Context, out chan<- m.SourceFile, source m.SourceFile) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- source:
		return nil
	}
}

func newSourceFile(full, short string) m.SourceFile {
	return m.SourceFile{
		FullPath:  m.Path(full),
		ShortPath: m.Path(short),
	}
}

func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	filters := make([]*regexp.Regexp, 0, len(patterns))

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}

		filters = append(filters, re)
	}

	return filters, nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
