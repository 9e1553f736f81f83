package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyrefac.dev/pkg/pyrefac/internal/domain"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View previously generated refactoring reports",
		Long:  "View previously generated refactoring reports from a reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.View(cmd.Context(), domain.ViewArgs{
				Reports: viper.GetString(outputFlagName),
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
