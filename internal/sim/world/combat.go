package world

import "swarmlink.ai/internal/swarm"

func (a *Agent) setInfluence(v int) {
	a.Influence = v
	a.Conviction = v
}

// empower spends the caster. Conviction above the tax is split evenly among
// every agent within r2; friends gain it, everyone else loses it.
func (w *World) empower(caster *Agent, r2 int) {
	var targets []*Agent
	for _, id := range w.order {
		t := w.agents[id]
		if t == nil || !t.alive || t.ID == caster.ID {
			continue
		}
		if t.Loc.DistSq(caster.Loc) <= r2 {
			targets = append(targets, t)
		}
	}
	w.emit(Event{Type: EventEmpower, Agent: caster.ID, Team: caster.Team.String(), Value: len(targets)})
	w.remove(caster, caster.ID)

	total := caster.Conviction - w.cfg.EnforcerTax
	if total <= 0 || len(targets) == 0 {
		return
	}
	share := total / len(targets)
	if share == 0 {
		return
	}
	for _, t := range targets {
		if t.Team == caster.Team {
			w.strengthen(t, share)
			continue
		}
		w.weaken(t, share, caster)
	}
}

func (w *World) strengthen(t *Agent, v int) {
	if t.Kind == swarm.KindCommander {
		t.setInfluence(t.Influence + v)
		return
	}
	t.Conviction += v
}

func (w *World) weaken(t *Agent, v int, by *Agent) {
	left := t.Conviction - v
	if left >= 0 {
		if t.Kind == swarm.KindCommander {
			t.setInfluence(left)
		} else {
			t.Conviction = left
		}
		return
	}
	switch t.Kind {
	case swarm.KindCommander, swarm.KindEnforcer:
		w.convert(t, by.Team, -left, by.ID)
	default:
		w.remove(t, by.ID)
	}
}

// convert hands t to team with a fresh program.
func (w *World) convert(t *Agent, team swarm.Team, conviction, by int) {
	from := t.Team
	t.Team = team
	if t.Kind == swarm.KindCommander {
		t.setInfluence(conviction)
	} else {
		t.Conviction = conviction
	}
	t.Word = 0
	t.Parent = 0
	t.Cooldown = 0
	w.attachBrain(t)
	w.stats.ObserveConverted(w.now, team)
	w.stats.ObserveDestroyed(w.now, from)
	w.emit(Event{Type: EventConvert, Agent: t.ID, Target: by, Team: team.String(), Kind: t.Kind.String(), Value: conviction})
}
