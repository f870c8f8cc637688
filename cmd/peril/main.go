package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwalsh/pipeline-and-peril/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	flagLogLevel string
	flagLogJSON  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "peril",
	Short: "Pipeline & Peril - distributed systems strategy game simulator",
	Long: `Pipeline & Peril simulates a board game about keeping distributed
systems alive: players deploy services on a hex grid, dice drive the
traffic, and cascading failures and chaos events try to take it all down.

Games are fully deterministic per seed, so experiments reproduce exactly.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Config{
			Level:      log.Level(flagLogLevel),
			JSONOutput: flagLogJSON,
			Output:     os.Stderr,
		})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Pipeline & Peril version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Emit logs as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(serveCmd)
}
