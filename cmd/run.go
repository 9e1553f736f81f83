package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyrefac.dev/pkg/pyrefac/internal/domain"
)

var runParallelFlag int
var runRecipeFlag string
var runDryRunFlag bool

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Apply a refactoring recipe",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Run(cmd.Context(), domain.RunArgs{
				Paths:   parsePaths(args),
				Recipe:  viper.GetString(recipeConfigKey),
				Reports: viper.GetString(outputFlagName),
				Threads: viper.GetInt(runParallelConfigKey),
				DryRun:  runDryRunFlag,
				Exclude: viper.GetStringSlice(excludeConfigKey),
			})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runParallelFlag, parallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of parallel workers")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), runParallelConfigKey)

	cmd.Flags().StringVarP(&runRecipeFlag, recipeFlagName, "r", viper.GetString(recipeConfigKey), "recipe file with the refactoring rules")
	bindFlagToConfig(cmd.Flags().Lookup(recipeFlagName), recipeConfigKey)

	cmd.Flags().BoolVarP(&runDryRunFlag, dryRunFlagName, "n", false, "show changes without writing any file")
}
