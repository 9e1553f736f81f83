package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

// TUI implements UI using Bubble Tea for interactive diff review.
type TUI struct {
	output  io.Writer
	mode    StartMode
	changes []m.FileChanges
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start initializes the UI.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := StartConfig{}
	for _, option := range options {
		option(&config)
	}

	p.mode = config.mode

	return nil
}

// Close finalizes the UI.
func (p *TUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// DisplayRunInfo prints the run parameters.
func (p *TUI) DisplayRunInfo(ctx context.Context, threads int, rules int) {
	if err := ctx.Err(); err != nil {
		return
	}

	mode := "apply"
	if p.mode == ModePreview {
		mode = "preview"
	}

	fmt.Fprintf(p.output, "%s\n", statusStyle.Render(
		fmt.Sprintf("mode: %s, rules: %d, threads: %d", mode, rules, threads)))
}

// DisplaySummary prints the change table and remembers the changes for the
// interactive diff pager.
func (p *TUI) DisplaySummary(ctx context.Context, changes []m.FileChanges, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		fmt.Fprintf(p.output, "refactoring error: %v\n", err)
		return err
	}

	p.changes = changedOnly(changes)

	fmt.Fprintf(p.output, "\n%s", renderSummaryTable(changes))

	return nil
}

// DisplayDiffs remembers the changes for the pager started by Wait.
func (p *TUI) DisplayDiffs(ctx context.Context, changes []m.FileChanges) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.changes = changedOnly(changes)

	return nil
}

// Wait runs the interactive diff pager until the user quits. Without diffs,
// or without a terminal, it prints the diffs and returns.
func (p *TUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}

	if len(p.changes) == 0 {
		return
	}

	f, ok := p.output.(*os.File)
	if !ok || !IsTTY(f) {
		for _, change := range p.changes {
			fmt.Fprintf(p.output, "%s\n", ColorizeDiff(change.Diff))
		}

		return
	}

	program := tea.NewProgram(newDiffPagerModel(p.changes), tea.WithOutput(p.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(p.output, "diff pager error: %v\n", err)
	}
}

func changedOnly(changes []m.FileChanges) []m.FileChanges {
	changed := make([]m.FileChanges, 0, len(changes))
	for _, change := range changes {
		if change.Changed() && change.Diff != "" {
			changed = append(changed, change)
		}
	}

	return changed
}

// diffPagerModel is the Bubble Tea model paging through per-file diffs.
type diffPagerModel struct {
	changes  []m.FileChanges
	index    int
	viewport viewport.Model
	ready    bool
}

func newDiffPagerModel(changes []m.FileChanges) *diffPagerModel {
	return &diffPagerModel{changes: changes}
}

func (dm *diffPagerModel) Init() tea.Cmd {
	return nil
}

func (dm *diffPagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := 1

		if !dm.ready {
			dm.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			dm.viewport.SetContent(ColorizeDiff(dm.current().Diff))
			dm.ready = true
		} else {
			dm.viewport.Width = msg.Width
			dm.viewport.Height = msg.Height - headerHeight - footerHeight
		}

		return dm, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return dm, tea.Quit
		case "n", "right", "tab":
			dm.move(1)
		case "p", "left", "shift+tab":
			dm.move(-1)
		}
	}

	var cmd tea.Cmd
	dm.viewport, cmd = dm.viewport.Update(msg)

	return dm, cmd
}

func (dm *diffPagerModel) View() string {
	if !dm.ready {
		return "loading..."
	}

	header := titleStyle.Render(fmt.Sprintf("%s (%d/%d)",
		dm.current().Source.ShortPath, dm.index+1, len(dm.changes)))
	footer := statusStyle.Render("n/p: next/prev file, j/k: scroll, q: quit")

	return strings.Join([]string{header, dm.viewport.View(), footer}, "\n")
}

func (dm *diffPagerModel) current() m.FileChanges {
	return dm.changes[dm.index]
}

func (dm *diffPagerModel) move(delta int) {
	next := dm.index + delta
	if next < 0 || next >= len(dm.changes) {
		return
	}

	dm.index = next
	dm.viewport.SetContent(ColorizeDiff(dm.current().Diff))
	dm.viewport.GotoTop()
}
