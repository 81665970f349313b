package world

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"swarmlink.ai/internal/swarm"
)

func (w *World) stepInternal() {
	if w.over {
		return
	}
	w.now = int(w.tick.Load()) + 1

	w.payIncome()
	w.endDisguises()

	// Agents spawned during the tick wait for the next one.
	snapshot := append([]int(nil), w.order...)
	for _, id := range snapshot {
		a := w.agents[id]
		if a == nil || !a.alive {
			continue
		}
		a.spent = 0
		a.Cooldown = math.Max(0, a.Cooldown-1)
		if a.brain != nil {
			w.runBrain(a)
		}
	}

	w.resolveBids()
	w.checkEnd()
	w.compact()

	digest := w.stateDigest()
	if w.tickLogger != nil {
		entry := TickLogEntry{
			Tick:   w.now,
			Votes:  [2]int{w.votes[swarm.TeamA], w.votes[swarm.TeamB]},
			Events: w.events,
			Digest: digest,
		}
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Warn("tick log write failed", zap.Int("tick", w.now), zap.Error(err))
		}
	}
	w.stepObservers(digest)
	w.lastDigest = digest
	w.events = nil
	w.tick.Store(int64(w.now))
}

func (w *World) runBrain(a *Agent) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("agent program panicked",
				zap.Int("tick", w.now),
				zap.Int("agent", a.ID),
				zap.Stringer("team", a.Team),
				zap.Stringer("kind", a.Kind),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	a.brain.Tick()
}

// payIncome credits passive commander income and generating earners.
func (w *World) payIncome() {
	passive := int(math.Ceil(0.2 * math.Sqrt(float64(w.now))))
	for _, id := range w.order {
		a := w.agents[id]
		if a == nil || !a.alive || a.Team == swarm.TeamNeutral {
			continue
		}
		switch a.Kind {
		case swarm.KindCommander:
			a.setInfluence(a.Influence + passive)
		case swarm.KindEarner:
			if !swarm.Generating(a.form(), w.now, w.cfg.EmbezzleTicks) {
				continue
			}
			p := w.agents[a.Parent]
			if p == nil || !p.alive || p.Team != a.Team || p.Kind != swarm.KindCommander {
				continue
			}
			p.setInfluence(p.Influence + swarm.EarnerIncome(a.Influence))
		}
	}
}

func (w *World) endDisguises() {
	for _, id := range w.order {
		a := w.agents[id]
		if a == nil || !a.alive || !a.Decoy {
			continue
		}
		if swarm.EffectiveKind(a.form(), w.now, w.cfg.CamouflageTicks) != swarm.KindEnforcer {
			continue
		}
		a.Kind = swarm.KindEnforcer
		a.Decoy = false
		w.emit(Event{Type: EventDisguise, Agent: a.ID, Team: a.Team.String(), Kind: a.Kind.String()})
	}
}

// resolveBids gives one vote to the single highest bidder, which pays in
// full. Every other bidder pays half. A tied top bid wins nothing.
func (w *World) resolveBids() {
	if len(w.bids) == 0 {
		return
	}
	best, bestID, tied := 0, 0, false
	for id, amount := range w.bids {
		switch {
		case amount > best:
			best, bestID, tied = amount, id, false
		case amount == best:
			tied = true
		}
	}
	for id, amount := range w.bids {
		a := w.agents[id]
		if a == nil || !a.alive {
			continue
		}
		cost := amount / 2
		if id == bestID && !tied {
			cost = amount
		}
		a.setInfluence(max(0, a.Influence-cost))
	}
	if !tied {
		if a := w.agents[bestID]; a != nil && a.alive {
			w.votes[a.Team]++
			w.stats.ObserveVote(w.now, a.Team)
			w.emit(Event{Type: EventVote, Agent: a.ID, Team: a.Team.String(), Value: best})
		}
	}
	clear(w.bids)
}

// checkEnd ends the game when a team has no commanders or time runs out.
// Votes decide a timeout, then total commander influence.
func (w *World) checkEnd() {
	var commanders, influence [3]int
	for _, id := range w.order {
		a := w.agents[id]
		if a == nil || !a.alive || a.Kind != swarm.KindCommander {
			continue
		}
		commanders[a.Team]++
		influence[a.Team] += a.Influence
	}
	winner := swarm.TeamNeutral
	switch {
	case commanders[swarm.TeamA] == 0 && commanders[swarm.TeamB] == 0:
	case commanders[swarm.TeamA] == 0:
		winner = swarm.TeamB
	case commanders[swarm.TeamB] == 0:
		winner = swarm.TeamA
	case w.now >= w.cfg.MaxTicks:
		winner = leader(w.votes[swarm.TeamA], w.votes[swarm.TeamB])
		if winner == swarm.TeamNeutral {
			winner = leader(influence[swarm.TeamA], influence[swarm.TeamB])
		}
	default:
		return
	}
	w.over = true
	w.winner = winner
	w.emit(Event{Type: EventEnd, Team: winner.String(), Value: w.now})
	w.log.Info("game over",
		zap.Int("tick", w.now),
		zap.Stringer("winner", winner),
		zap.Int("votes_a", w.votes[swarm.TeamA]),
		zap.Int("votes_b", w.votes[swarm.TeamB]),
	)
}

func leader(a, b int) swarm.Team {
	switch {
	case a > b:
		return swarm.TeamA
	case b > a:
		return swarm.TeamB
	}
	return swarm.TeamNeutral
}
