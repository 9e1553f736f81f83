package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyrefac.dev/pkg/pyrefac/internal/domain"
)

var listRecipeFlag string

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "Preview recipe changes without writing",
		Long:  listLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Run(cmd.Context(), domain.RunArgs{
				Paths:   parsePaths(args),
				Recipe:  viper.GetString(recipeConfigKey),
				Threads: viper.GetInt(runParallelConfigKey),
				DryRun:  true,
				Exclude: viper.GetStringSlice(excludeConfigKey),
			})
		},
	}

	cmd.Flags().StringVarP(&listRecipeFlag, recipeFlagName, "r", viper.GetString(recipeConfigKey), "recipe file with the refactoring rules")
	bindFlagToConfig(cmd.Flags().Lookup(recipeFlagName), recipeConfigKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
