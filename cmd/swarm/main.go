package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swarmlink.ai/internal/sim/tuning"
)

var (
	// Global flags
	verbose    bool
	tuningPath string
	dataDir    string
	seed       int64

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "swarm",
	Short: "Run two swarms against each other on a generated arena",
	Long: `swarm hosts a deterministic tick arena where two teams of agents
coordinate through a single 24-bit channel word each.

Runs are recorded under <data>/runs/<run-id>/ and indexed in <data>/index.sqlite,
so any run can be replayed and verified tick by tick.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&tuningPath, "tuning", "./configs/tuning.yaml", "path to tuning.yaml")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "./data", "runtime data directory")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "arena seed (0 keeps the tuning seed)")

	rootCmd.AddCommand(runCmd, serveCmd, replayCmd)
}

// loadTuning reads --tuning and applies --seed.
func loadTuning() (tuning.Tuning, error) {
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		return tune, fmt.Errorf("load tuning: %w", err)
	}
	if seed != 0 {
		tune.Arena.Seed = seed
	}
	return tune, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
