package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
	logLevel   string
	jsonOutput bool
	ascii      bool
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "shirarium",
		Short: "Classify media file paths into movies and episodes",
		Long: `shirarium extracts a title, a media type and season/episode or year
numbers from media file paths using local heuristics, optionally
consulting a language model when the heuristics are unsure.

It can classify single paths, scan a library, evaluate a labelled
dataset, or serve classifications over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the config file (default ~/.shirarium/config.json)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional .env file applied before SHIRARIUM_* variables")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Write machine readable JSON instead of tables")
	root.PersistentFlags().BoolVar(&opts.ascii, "ascii", false, "Use ASCII icons instead of emoji")

	root.AddCommand(
		newClassifyCmd(opts),
		newScanCmd(opts),
		newBenchCmd(opts),
		newServeCmd(opts),
		newProvidersCmd(opts),
		newHistoryCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
