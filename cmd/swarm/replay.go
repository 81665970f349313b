package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swarmlink.ai/internal/persistence/indexdb"
	persistlog "swarmlink.ai/internal/persistence/log"
	"swarmlink.ai/internal/persistence/snapshot"
	"swarmlink.ai/internal/sim/world"
)

var (
	replayFrom    int
	replayTo      int
	replayIndexed bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <run-id>",
	Short: "Re-run a recorded game from its seed and verify every digest",
	Long: `Rebuilds the arena from <data>/runs/<run-id>/run.yaml, steps it, and compares
each tick digest with the recorded tick log (or with the sqlite index when
--indexed is set).`,
	Args: cobra.ExactArgs(1),
	RunE: replayGame,
}

func init() {
	replayCmd.Flags().IntVar(&replayFrom, "from_tick", 0, "start verifying from tick (inclusive)")
	replayCmd.Flags().IntVar(&replayTo, "to_tick", 0, "stop at tick (inclusive, 0 for all)")
	replayCmd.Flags().BoolVar(&replayIndexed, "indexed", false, "verify against index.sqlite instead of the tick log")
}

var errDigestMismatch = errors.New("digest mismatch")

func replayGame(cmd *cobra.Command, args []string) error {
	runID := args[0]
	dir := runDir(dataDir, runID)
	h, err := readHeader(dir)
	if err != nil {
		return err
	}
	if h.RunID != runID {
		return fmt.Errorf("run.yaml belongs to %s", h.RunID)
	}
	if err := h.Tuning.Validate(); err != nil {
		return fmt.Errorf("recorded tuning: %w", err)
	}

	want, err := recordedDigests(cmd.Context(), runID, dir)
	if err != nil {
		return err
	}
	if len(want) == 0 {
		return fmt.Errorf("run %s has no recorded ticks", runID)
	}

	w, err := newWorld(h.Tuning, runID, zap.NewNop())
	if err != nil {
		return fmt.Errorf("world: %w", err)
	}
	last := 0
	for t := range want {
		last = max(last, t)
	}
	if replayTo > 0 {
		last = min(last, replayTo)
	}

	log := logger.With(zap.String("run", runID))
	checked := 0
	for w.CurrentTick() < last {
		if over, _ := w.Over(); over {
			break
		}
		tick, digest := w.StepOnce()
		if tick < replayFrom {
			continue
		}
		rec, ok := want[tick]
		if !ok {
			continue
		}
		if rec != digest {
			log.Error("replay diverged", zap.Int("tick", tick), zap.String("recorded", rec), zap.String("replayed", digest))
			return fmt.Errorf("%w at tick %d", errDigestMismatch, tick)
		}
		checked++
	}
	if err := verifySnapshot(dir, w); err != nil {
		log.Error("final state diverged", zap.Int("tick", w.CurrentTick()), zap.Error(err))
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d ticks verified through tick %d\n", runID, checked, w.CurrentTick())
	return nil
}

func recordedDigests(ctx context.Context, runID, dir string) (map[int]string, error) {
	if replayIndexed {
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index.sqlite"), logger.Named("index"))
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
		defer idx.Close()
		if _, err := idx.LookupRun(ctx, runID); err != nil {
			return nil, err
		}
		return idx.Digests(ctx, runID)
	}
	out := map[int]string{}
	err := persistlog.ReadTicks(dir, func(e world.TickLogEntry) error {
		out[e.Tick] = e.Digest
		return nil
	})
	return out, err
}

// verifySnapshot compares the replayed arena with the snapshot recorded at the
// same tick, if there is one.
func verifySnapshot(dir string, w *world.World) error {
	path := snapshot.Path(dir, w.CurrentTick())
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	got := w.ExportSnapshot()
	h, err := snapshot.ReadHeader(path)
	if err != nil {
		return err
	}
	if h.RunID != got.Header.RunID || h.Digest != got.Header.Digest {
		return fmt.Errorf("%w in snapshot header at tick %d", errDigestMismatch, h.Tick)
	}
	rec, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return err
	}
	if rec.Header.Digest != got.Header.Digest || rec.Winner != got.Winner || !slices.Equal(rec.Agents, got.Agents) {
		return fmt.Errorf("%w in snapshot at tick %d", errDigestMismatch, rec.Header.Tick)
	}
	return nil
}
