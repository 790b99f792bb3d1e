package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bspgraph/engine/pkg/utils"
)

var (
	cfgFile string
	verbose bool
	logger  utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bspgraph",
	Short: "Run BSP-style vertex programs over an in-memory graph",
	Long: `bspgraph is a small example harness around the BSP engine.

It loads a driver configuration and an edge-list file, runs one of the
built-in vertex programs (pagerank, sssp, wcc, labelprop) and prints or
exports the resulting public properties.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a driver config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// GetLogger returns the logger built from the root command's flags.
func GetLogger() utils.Logger {
	return logger
}
