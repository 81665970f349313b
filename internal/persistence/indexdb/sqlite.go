package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"swarmlink.ai/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index of runs, ticks and events. All
// writes go through one goroutine; callers never block on the database.
type SQLiteIndex struct {
	db  *sql.DB
	log *zap.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropRun  atomic.Uint64
	dropTick atomic.Uint64
	dropEnd  atomic.Uint64
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqTick
	reqEnd
)

type req struct {
	kind reqKind

	runID string
	run   RunRow
	tick  world.TickLogEntry
	end   RunResult
}

// RunRow describes a run at start.
type RunRow struct {
	ID         string
	Seed       int64
	Width      int
	Height     int
	Symmetry   string
	TuningJSON string
	StartedAt  time.Time
}

// RunResult is recorded when a run ends.
type RunResult struct {
	Tick   int
	Winner string
	Votes  [2]int
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropRunTotal  uint64
	DropTickTotal uint64
	DropEndTotal  uint64
}

func OpenSQLite(path string, log *zap.Logger) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:  db,
		log: log,
		ch:  make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			symmetry TEXT NOT NULL,
			tuning_json TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			end_tick INTEGER,
			winner TEXT,
			votes_a INTEGER,
			votes_b INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			votes_a INTEGER NOT NULL,
			votes_b INTEGER NOT NULL,
			events INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			agent INTEGER NOT NULL,
			target INTEGER NOT NULL,
			team TEXT NOT NULL,
			kind TEXT NOT NULL,
			value INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_type ON events(run_id, type, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_agent ON events(run_id, agent, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		// The JSONL tick log stays the source of truth.
		drops.Add(1)
	}
}

func (s *SQLiteIndex) RecordRun(r RunRow) {
	s.enqueue(req{kind: reqRun, runID: r.ID, run: r}, &s.dropRun)
}

func (s *SQLiteIndex) FinishRun(runID string, res RunResult) {
	s.enqueue(req{kind: reqEnd, runID: runID, end: res}, &s.dropEnd)
}

// Run returns a world.TickLogger that indexes ticks under runID.
func (s *SQLiteIndex) Run(runID string) *RunWriter {
	return &RunWriter{s: s, runID: runID}
}

type RunWriter struct {
	s     *SQLiteIndex
	runID string
}

func (w *RunWriter) WriteTick(entry world.TickLogEntry) error {
	w.s.enqueue(req{kind: reqTick, runID: w.runID, tick: entry}, &w.s.dropTick)
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropRunTotal:  s.dropRun.Load(),
		DropTickTotal: s.dropTick.Load(),
		DropEndTotal:  s.dropEnd.Load(),
	}
}

// Digests returns the recorded digest of every indexed tick of runID.
func (s *SQLiteIndex) Digests(ctx context.Context, runID string) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tick,digest FROM ticks WHERE run_id=? ORDER BY tick`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int]string{}
	for rows.Next() {
		var (
			tick   int
			digest string
		)
		if err := rows.Scan(&tick, &digest); err != nil {
			return nil, err
		}
		out[tick] = digest
	}
	return out, rows.Err()
}

var ErrUnknownRun = errors.New("unknown run")

// LookupRun loads the start row of runID.
func (s *SQLiteIndex) LookupRun(ctx context.Context, runID string) (RunRow, error) {
	var (
		r       RunRow
		started string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id,seed,width,height,symmetry,tuning_json,started_at FROM runs WHERE run_id=?`, runID,
	).Scan(&r.ID, &r.Seed, &r.Width, &r.Height, &r.Symmetry, &r.TuningJSON, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if err != nil {
		return r, err
	}
	r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	return r, err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,seed,width,height,symmetry,tuning_json,started_at) VALUES(?,?,?,?,?,?,?)`)
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,digest,votes_a,votes_b,events) VALUES(?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO events(run_id,tick,seq,type,agent,target,team,kind,value,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	updateRun, _ := s.db.Prepare(`UPDATE runs SET ended_at=?,end_tick=?,winner=?,votes_a=?,votes_b=? WHERE run_id=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertRun, insertTick, insertEvent, updateRun} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.log.Warn("index begin failed", zap.Error(err))
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.log.Warn("index commit failed", zap.Error(err))
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func(err error) {
		s.log.Warn("index write failed", zap.Error(err))
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRun:
			ru := r.run
			if _, err := tx.Stmt(insertRun).Exec(ru.ID, ru.Seed, ru.Width, ru.Height, ru.Symmetry, ru.TuningJSON,
				ru.StartedAt.UTC().Format(time.RFC3339Nano)); err != nil {
				rollback(err)
				continue
			}
			opCount++
			// Run rows are read back by replay; make them visible now.
			commit()
			continue

		case reqTick:
			t := r.tick
			if _, err := tx.Stmt(insertTick).Exec(r.runID, t.Tick, t.Digest, t.Votes[0], t.Votes[1], len(t.Events)); err != nil {
				rollback(err)
				continue
			}
			opCount++
			for seq, e := range t.Events {
				raw, _ := json.Marshal(e)
				if _, err := tx.Stmt(insertEvent).Exec(r.runID, t.Tick, seq, e.Type, e.Agent, e.Target, e.Team, e.Kind, e.Value, string(raw)); err != nil {
					rollback(err)
					break
				}
				opCount++
			}

		case reqEnd:
			e := r.end
			if _, err := tx.Stmt(updateRun).Exec(time.Now().UTC().Format(time.RFC3339Nano), e.Tick, e.Winner, e.Votes[0], e.Votes[1], r.runID); err != nil {
				rollback(err)
				continue
			}
			opCount++
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
