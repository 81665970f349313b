package swarm

import "swarmlink.ai/internal/protocol"

// Self exposes the calling agent's own state.
type Self interface {
	ID() int
	Team() Team
	Kind() Kind
	Location() protocol.Loc
	Influence() int
	Conviction() int
	IsReady() bool
}

// Clock exposes the tick counter and the per-tick compute budget. Every
// collaborator call is charged against the budget; Charge lets callers account
// for their own work.
type Clock interface {
	Tick() int
	BudgetLeft() int
	Charge(units int)
}

type ChannelReader interface {
	CanReadChannel(id int) bool
	// ReadChannel returns the raw wire word of agent id.
	ReadChannel(id int) (protocol.Word, error)
}

type Channel interface {
	ChannelReader
	// PublishChannel sets the caller's raw wire word, visible immediately.
	PublishChannel(raw protocol.Word) error
}

type Sensor interface {
	SensorRadiusSq() int
	// SenseNearby lists agents within radiusSq of the caller, capped at the
	// caller's sensor radius.
	SenseNearby(radiusSq int) []AgentInfo
	SenseAgentAt(l protocol.Loc) (AgentInfo, bool)
	// OnMap fails with ErrOutOfRange when l is beyond sensor range.
	OnMap(l protocol.Loc) (bool, error)
	Passability(l protocol.Loc) (float64, error)
}

type Mover interface {
	CanMove(d Direction) bool
	Move(d Direction) error
}

type Builder interface {
	CanBuild(k Kind, d Direction, influence int) bool
	Build(k Kind, d Direction, influence int) (AgentInfo, error)
}

type Voter interface {
	TeamVotes() int
	CanBid(amount int) bool
	Bid(amount int) error
}

type Fighter interface {
	ActionRadiusSq() int
	CanEmpower(radiusSq int) bool
	Empower(radiusSq int) error
	CanExpose(l protocol.Loc) bool
	Expose(l protocol.Loc) error
}

// Controller is the full per-agent handle the arena hands to an agent.
type Controller interface {
	Self
	Clock
	Channel
	Sensor
	Mover
	Builder
	Voter
	Fighter
}

// ReadWord reads and opens the channel word of agent id.
func ReadWord(r ChannelReader, id int) (protocol.Word, error) {
	raw, err := r.ReadChannel(id)
	if err != nil {
		return 0, err
	}
	return protocol.Open(raw), nil
}

// Publish seals w and sets it as the caller's channel word.
func Publish(c Channel, w protocol.Word) error {
	return c.PublishChannel(protocol.Seal(w))
}
