// Package pkg provides shared utilities for pyrefac.
package pkg

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// FileSpill buffers items of type T on disk instead of in memory. The batch
// workflow spills per-file results through it so large runs stay flat on
// memory regardless of how many files change.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileSpill[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewFileSpill creates a FileSpill backed by a fresh temp file.
func NewFileSpill[T any]() (FileSpill[T], error) {
	file, err := os.CreateTemp("", "pyrefac-spill-*.gob")
	if err != nil {
		slog.Error("failed to create spill file", "error", err)
		return nil, fmt.Errorf("create spill file: %w", err)
	}

	slog.Debug("created spill", "path", file.Name())

	return &fileSpill[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// Append implements FileSpill.
func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("encode item: %w", err)
	}

	f.length++

	return nil
}

// AppendBatch implements FileSpill.
func (f *fileSpill[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := f.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Path implements FileSpill.
func (f *fileSpill[T]) Path() string {
	return f.path
}

// Len implements FileSpill.
func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// Get implements FileSpill.
func (f *fileSpill[T]) Get(index uint64) (T, error) {
	var item T

	err := f.Range(func(i uint64, decoded T) error {
		if i == index {
			item = decoded
		}

		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	if index >= f.Len() {
		var zero T
		return zero, fmt.Errorf("index %d out of bounds (length %d)", index, f.Len())
	}

	return item, nil
}

// Range implements FileSpill.
func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		slog.Error("failed to open spill", "path", f.path, "error", err)
		return fmt.Errorf("open spill: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close spill", "path", f.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	var item T

	for i := range f.length {
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Close implements FileSpill. The backing file is removed.
func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	if err := f.file.Close(); err != nil {
		slog.Error("failed to close spill", "path", f.path, "error", err)
		return err
	}

	f.file = nil

	if err := os.Remove(f.path); err != nil {
		slog.Warn("failed to remove spill", "path", f.path, "error", err)
	}

	return nil
}
