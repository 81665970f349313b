package swarm

import "swarmlink.ai/internal/protocol"

type Team uint8

const (
	TeamNeutral Team = iota
	TeamA
	TeamB
)

func (t Team) Opponent() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	default:
		return TeamNeutral
	}
}

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return "neutral"
	}
}

type Kind uint8

const (
	KindCommander Kind = iota
	KindScout
	KindEnforcer
	KindEarner
)

func (k Kind) String() string {
	switch k {
	case KindCommander:
		return "commander"
	case KindScout:
		return "scout"
	case KindEnforcer:
		return "enforcer"
	case KindEarner:
		return "earner"
	default:
		return "unknown"
	}
}

// Subordinate reports whether k takes orders from a commander.
func (k Kind) Subordinate() bool { return k != KindCommander }

// AgentInfo is what sensing reveals about another agent.
type AgentInfo struct {
	ID         int
	Team       Team
	Kind       Kind
	Loc        protocol.Loc
	Influence  int
	Conviction int
}
