package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pyrefac.dev/pkg/pyrefac/internal/domain"
	domainmocks "pyrefac.dev/pkg/pyrefac/internal/domain/mocks"
)

func TestRunCmd_Defaults(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newRunCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Recipe == defaultRecipeFile &&
			args.Reports == defaultReportsDir &&
			args.Threads == defaultRunParallel &&
			!args.DryRun
	})).Return(nil)

	cmd.SetArgs([]string{"run"})
	err := cmd.Execute()
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}

func TestRunCmd_Flags(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newRunCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.Recipe == "modernize.yaml" &&
			args.Threads == 4 &&
			args.DryRun &&
			len(args.Paths) == 2 &&
			args.Paths[0] == "src" &&
			args.Paths[1] == "tests"
	})).Return(nil)

	cmd.SetArgs([]string{"run", "--recipe", "modernize.yaml", "--parallel", "4", "--dry-run", "src", "tests"})
	err := cmd.Execute()
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}

func TestRunCmd_WithExcludePatterns(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newRunCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return len(args.Exclude) == 2 &&
			args.Exclude[0] == "^migrations/" &&
			args.Exclude[1] == "_pb2\\.py$"
	})).Return(nil)

	cmd.SetArgs([]string{"run", "-x", "^migrations/", "-x", "_pb2\\.py$", "."})
	err := cmd.Execute()
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}

func TestListCmd_ForcesDryRun(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newListCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.DryRun && len(args.Paths) == 1 && args.Paths[0] == "src"
	})).Return(nil)

	cmd.SetArgs([]string{"list", "src"})
	err := cmd.Execute()
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}
