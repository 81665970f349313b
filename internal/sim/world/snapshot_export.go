package world

import (
	"swarmlink.ai/internal/persistence/snapshot"
	"swarmlink.ai/internal/swarm"
)

// ExportSnapshot captures the arena after the last executed tick. Brains are
// not part of the snapshot; replay rebuilds them from the seed.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			RunID:   w.cfg.ID,
			Tick:    w.CurrentTick(),
			Digest:  w.lastDigest,
		},
		Seed:     w.cfg.Seed,
		Width:    w.cfg.Width,
		Height:   w.cfg.Height,
		Symmetry: w.cfg.Symmetry,
		OriginX:  w.arena.origin.X,
		OriginY:  w.arena.origin.Y,
		Over:     w.over,
		Votes:    [2]int{w.votes[swarm.TeamA], w.votes[swarm.TeamB]},
		NextID:   w.nextID,
	}
	if w.over {
		snap.Winner = w.winner.String()
	}
	for _, a := range w.Agents() {
		snap.Agents = append(snap.Agents, snapshot.AgentV1{
			ID:         a.ID,
			Team:       a.Team.String(),
			Kind:       a.Kind.String(),
			X:          a.Loc.X,
			Y:          a.Loc.Y,
			Influence:  a.Influence,
			Conviction: a.Conviction,
			Word:       uint32(a.Word),
		})
	}
	return snap
}
