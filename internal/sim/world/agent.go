package world

import (
	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
)

// Brain is the agent-side program driven once per tick.
type Brain interface {
	Tick()
}

// BrainFactory builds the program for an agent. It is called at spawn and
// again whenever the agent changes team.
type BrainFactory func(c swarm.Controller, seed uint64) Brain

type Agent struct {
	ID         int
	Team       swarm.Team
	Kind       swarm.Kind
	Loc        protocol.Loc
	Influence  int
	Conviction int
	Cooldown   float64
	// Word is the raw wire word.
	Word      protocol.Word
	SpawnTick int
	Parent    int
	Decoy     bool

	alive bool
	spent int
	brain Brain
	ctrl  *controller
}

func (a *Agent) info() swarm.AgentInfo {
	return swarm.AgentInfo{
		ID:         a.ID,
		Team:       a.Team,
		Kind:       a.Kind,
		Loc:        a.Loc,
		Influence:  a.Influence,
		Conviction: a.Conviction,
	}
}

// AgentState is a read-only copy for tests and observers.
type AgentState struct {
	ID         int
	Team       swarm.Team
	Kind       swarm.Kind
	Loc        protocol.Loc
	Influence  int
	Conviction int
	Word       protocol.Word
}

func (a *Agent) form() swarm.Form {
	if a.Decoy {
		return swarm.DecoyForm(a.SpawnTick)
	}
	return swarm.PlainForm(a.Kind)
}
