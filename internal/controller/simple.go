package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// SimpleUI implements UI using cobra Command's Println.
type SimpleUI struct {
	cmd  *cobra.Command
	mode StartMode
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := StartConfig{}
	for _, option := range options {
		option(&config)
	}

	s.mode = config.mode

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	// SimpleUI doesn't block - it just prints and continues
}

// DisplayRunInfo prints the run parameters.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, threads int, rules int) {
	if err := ctx.Err(); err != nil {
		return
	}

	mode := "apply"
	if s.mode == ModePreview {
		mode = "preview"
	}

	s.printf("mode: %s, rules: %d, threads: %d\n", mode, rules, threads)
}

// DisplaySummary prints a per-file change table or the error.
func (s *SimpleUI) DisplaySummary(ctx context.Context, changes []m.FileChanges, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		s.printf("refactoring error: %v\n", err)
		return err
	}

	s.printf("\n%s", renderSummaryTable(changes))

	return nil
}

// DisplayDiffs prints the colorized unified diff of every changed file.
func (s *SimpleUI) DisplayDiffs(ctx context.Context, changes []m.FileChanges) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, change := range changes {
		if change.Diff == "" {
			continue
		}

		s.printf("%s\n", ColorizeDiff(change.Diff))
	}

	return nil
}

func renderSummaryTable(changes []m.FileChanges) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Changes"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	totalRecords := 0
	changedFiles := 0

	for _, change := range changes {
		if !change.Changed() {
			continue
		}

		table.Append([]string{string(change.Source.ShortPath), fmt.Sprintf("%d", len(change.Records))})

		changedFiles++
		totalRecords += len(change.Records)
	}

	table.SetFooter([]string{
		fmt.Sprintf("Changed Files %d", changedFiles),
		fmt.Sprintf("%d", totalRecords),
	})

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) printf(format string, args ...any) {
	s.cmd.Printf(format, args...)
}
