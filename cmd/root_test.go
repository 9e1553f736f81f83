package cmd

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaths(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"empty defaults to cwd", []string{}, []string{"."}},
		{"single", []string{"src"}, []string{"src"}},
		{"multiple", []string{"src", "tests", "app/main.py"}, []string{"src", "tests", "app/main.py"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePaths(tt.args))
		})
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "pyrefac", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd := newRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{})
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, output.String(), "Usage:")
	assert.Contains(t, output.String(), "Paths may be files or directories")
}

func TestInit(t *testing.T) {
	// Test that init() created all the necessary instances
	assert.NotNil(t, ui)
	assert.NotNil(t, fsAdapter)
	assert.NotNil(t, reportStore)
	assert.NotNil(t, pythonParser)
	assert.NotNil(t, workflow)
}

func TestExecute(t *testing.T) {
	originalRootCmd := rootCmd
	defer func() {
		rootCmd = originalRootCmd
	}()

	mockCmd := &cobra.Command{
		Use: "test",
		RunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})

	rootCmd = mockCmd

	Execute()
}

func TestBindFlagToConfig(t *testing.T) {
	cmd := &cobra.Command{Use: "probe"}
	cmd.Flags().String("probe-flag", "", "")

	assert.NotPanics(t, func() {
		bindFlagToConfig(cmd.Flags().Lookup("probe-flag"), fmt.Sprintf("probe.%s", "flag"))
	})
}
