// Package controller provides output adapters for displaying refactoring
// results.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModePreview StartMode = iota
	ModeApply
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithPreviewMode sets the UI to dry-run preview mode.
func WithPreviewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModePreview
	}
}

// WithApplyMode sets the UI to apply mode.
func WithApplyMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeApply
	}
}

// UI defines the interface for displaying refactoring results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayRunInfo(ctx context.Context, threads int, rules int)
	DisplaySummary(ctx context.Context, changes []m.FileChanges, err error) error
	DisplayDiffs(ctx context.Context, changes []m.FileChanges) error
}

// NewUI picks the interactive TUI on a terminal and the plain printer
// everywhere else.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive {
		return NewTUI(os.Stdout)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
