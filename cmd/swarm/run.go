package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runTicks   int
	runNoIndex bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play one headless game as fast as possible",
	Long: `Steps the arena without a wall clock until the game ends or --ticks have
passed, recording the tick log and index rows.`,
	Args: cobra.NoArgs,
	RunE: runGame,
}

func init() {
	runCmd.Flags().IntVar(&runTicks, "ticks", 0, "stop after this many ticks (0 plays to the end)")
	runCmd.Flags().BoolVar(&runNoIndex, "no-index", false, "skip the sqlite index")
}

func runGame(cmd *cobra.Command, args []string) error {
	tune, err := loadTuning()
	if err != nil {
		return err
	}
	s, err := openSession(tune, !runNoIndex, logger)
	if err != nil {
		return err
	}

	var tick int
	var digest string
	for {
		if over, _ := s.world.Over(); over {
			break
		}
		if runTicks > 0 && tick >= runTicks {
			break
		}
		tick, digest = s.world.StepOnce()
		if tick%100 == 0 {
			s.log.Debug("tick", zap.Int("tick", tick), zap.String("digest", digest))
		}
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("close run: %w", err)
	}

	_, winner := s.world.Over()
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d ticks, winner %s, digest %s\n", s.id, tick, winner, digest)
	return nil
}
