package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"swarmlink.ai/internal/persistence/archive"
	"swarmlink.ai/internal/persistence/indexdb"
	persistlog "swarmlink.ai/internal/persistence/log"
	"swarmlink.ai/internal/persistence/snapshot"
	"swarmlink.ai/internal/sim/tuning"
	"swarmlink.ai/internal/sim/world"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/player"
)

// runHeader is written to <run>/run.yaml before the first tick. It holds
// everything replay needs to rebuild the arena.
type runHeader struct {
	RunID     string        `yaml:"run_id"`
	CreatedAt time.Time     `yaml:"created_at"`
	Tuning    tuning.Tuning `yaml:"tuning"`
}

func runDir(data, id string) string { return filepath.Join(data, "runs", id) }

func writeHeader(dir string, h runHeader) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(h)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "run.yaml"), b, 0o644)
}

func readHeader(dir string) (runHeader, error) {
	var h runHeader
	b, err := os.ReadFile(filepath.Join(dir, "run.yaml"))
	if err != nil {
		return h, err
	}
	if err := yaml.Unmarshal(b, &h); err != nil {
		return h, fmt.Errorf("run.yaml: %w", err)
	}
	return h, nil
}

// brains wires the agent program into the arena.
func brains(cfg player.Config, log *zap.Logger) world.BrainFactory {
	return func(c swarm.Controller, seed uint64) world.Brain {
		return player.New(c, cfg, seed, log)
	}
}

func newWorld(tune tuning.Tuning, runID string, log *zap.Logger) (*world.World, error) {
	cfg := tune.World()
	cfg.ID = runID
	return world.New(cfg, brains(tune.Player(), log.Named("agent")), log.Named("world"))
}

type multiTickLogger []world.TickLogger

func (m multiTickLogger) WriteTick(e world.TickLogEntry) error {
	var first error
	for _, l := range m {
		if err := l.WriteTick(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// session is one recorded run: header, tick log and index rows.
type session struct {
	id    string
	dir   string
	tune  tuning.Tuning
	world *world.World

	tickLog *persistlog.TickLogger
	idx     *indexdb.SQLiteIndex
	log     *zap.Logger
}

func openSession(tune tuning.Tuning, withIndex bool, log *zap.Logger) (*session, error) {
	id := uuid.NewString()
	s := &session{id: id, dir: runDir(dataDir, id), tune: tune, log: log.With(zap.String("run", id))}

	w, err := newWorld(tune, id, s.log)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	s.world = w
	if err := writeHeader(s.dir, runHeader{RunID: id, CreatedAt: time.Now().UTC(), Tuning: tune}); err != nil {
		return nil, fmt.Errorf("write run header: %w", err)
	}

	s.tickLog = persistlog.NewTickLogger(s.dir)
	loggers := multiTickLogger{s.tickLog}
	if withIndex {
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index.sqlite"), log.Named("index"))
		if err != nil {
			_ = s.tickLog.Close()
			return nil, fmt.Errorf("open index: %w", err)
		}
		s.idx = idx
		cfg := w.Config()
		tj, err := tune.JSON()
		if err != nil {
			_ = s.tickLog.Close()
			_ = idx.Close()
			return nil, fmt.Errorf("encode tuning: %w", err)
		}
		idx.RecordRun(indexdb.RunRow{
			ID:         id,
			Seed:       cfg.Seed,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Symmetry:   cfg.Symmetry,
			TuningJSON: string(tj),
			StartedAt:  time.Now().UTC(),
		})
		loggers = append(loggers, idx.Run(id))
	}
	w.SetTickLogger(loggers)

	s.log.Info("run started",
		zap.String("dir", s.dir),
		zap.Int64("seed", w.Config().Seed),
		zap.Int("width", w.Config().Width),
		zap.Int("height", w.Config().Height),
		zap.String("symmetry", w.Config().Symmetry),
	)
	return s, nil
}

func (s *session) Close() error {
	over, winner := s.world.Over()
	res := indexdb.RunResult{
		Tick:  s.world.CurrentTick(),
		Votes: [2]int{s.world.Votes(swarm.TeamA), s.world.Votes(swarm.TeamB)},
	}
	if over {
		res.Winner = winner.String()
	}
	s.log.Info("run finished",
		zap.Int("tick", res.Tick),
		zap.Bool("over", over),
		zap.String("winner", res.Winner),
		zap.Int("votes_a", res.Votes[0]),
		zap.Int("votes_b", res.Votes[1]),
	)
	err := s.tickLog.Close()
	if serr := s.writeSnapshot(); err == nil {
		err = serr
	}
	if s.idx != nil {
		s.idx.FinishRun(s.id, res)
		if cerr := s.idx.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// writeSnapshot stores the final arena and archives it when the game ended.
func (s *session) writeSnapshot() error {
	if s.world.CurrentTick() == 0 {
		return nil
	}
	snap := s.world.ExportSnapshot()
	path := snapshot.Path(s.dir, snap.Header.Tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	dst, ok, err := archive.ArchiveRun(dataDir, path, snap)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	if ok {
		s.log.Info("run archived", zap.String("path", dst))
	}
	return nil
}
