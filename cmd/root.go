// Package cmd provides the root command and CLI setup for pyrefac.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pyrefac.dev/pkg/pyrefac/internal/adapter"
	"pyrefac.dev/pkg/pyrefac/internal/controller"
	"pyrefac.dev/pkg/pyrefac/internal/domain"
)

var fsAdapter adapter.SourceFSAdapter
var reportStore adapter.ReportStore
var pythonParser adapter.PythonParser
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

// logFileFlag overrides the log file location.
var logFileFlag string

// verboseFlag switches file logging to debug level.
var verboseFlag bool

func init() {
	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	reportStore = adapter.NewReportStore()
	pythonParser = adapter.NewTreeSitterParser()
	workflow = domain.NewWorkflowPipeline(
		fsAdapter,
		reportStore,
		pythonParser,
		ui,
	)
}

const pathArgsHelp = `Paths may be files or directories:
  - .              recursively scan current directory
  - src tests      scan multiple directories
  - app/main.py    refactor a single file`

const rootLongDescription = `Pyrefac is a refactoring tool for Python codebases. It applies recipes of
structural rewrites (renames, import replacements, idiom modernizations)
to every matching file, preserving the formatting of untouched code.

` + pathArgsHelp

const runLongDescription = `Apply a refactoring recipe to the given paths (default: current directory).

` + pathArgsHelp

const listLongDescription = `Preview the changes a recipe would make, without writing any file.

` + pathArgsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pyrefac",
		Short: "Python refactoring tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for refactoring reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", viper.GetString(logFilenameKey), "log file location")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("log-file"), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("verbose"), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}

	return args
}
