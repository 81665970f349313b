package swarmtest

import (
	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
)

// Fake is an in-memory swarm.Controller for driving one agent from tests.
// Fields are set directly; calls record what the agent did.
//
// Channel words are stored sealed, as the arena stores them. A channel is
// readable when its id appears in Words and is not listed in Unreadable.
type Fake struct {
	Me         swarm.AgentInfo
	Ready      bool
	TickNow    int
	Budget     int
	Spent      int
	ReadCost   int
	SensorR2   int
	ActionR2   int
	MinX, MinY int
	MaxX, MaxY int
	Votes      int

	Words      map[int]protocol.Word
	Unreadable map[int]bool
	Agents     []swarm.AgentInfo
	Blocked    map[swarm.Direction]bool
	Pass       func(protocol.Loc) float64

	NextID    int
	Published []protocol.Word
	Moves     []swarm.Direction
	Builds    []swarm.AgentInfo
	Bids      []int
	Empowered []int
	Exposed   []protocol.Loc
}

// New returns a ready fake on a large open map.
func New(me swarm.AgentInfo) *Fake {
	return &Fake{
		Me:       me,
		Ready:    true,
		TickNow:  1,
		Budget:   20000,
		SensorR2: 40,
		ActionR2: 9,
		MinX:     me.Loc.X - 1000,
		MinY:     me.Loc.Y - 1000,
		MaxX:     me.Loc.X + 1000,
		MaxY:     me.Loc.Y + 1000,
		Words:    map[int]protocol.Word{},
		NextID:   50000,
	}
}

// SetWord publishes w (unsealed) on behalf of agent id.
func (f *Fake) SetWord(id int, w protocol.Word) { f.Words[id] = protocol.Seal(w) }

// LastWord returns the caller's most recent published word, opened.
func (f *Fake) LastWord() (protocol.Word, bool) {
	if len(f.Published) == 0 {
		return 0, false
	}
	return protocol.Open(f.Published[len(f.Published)-1]), true
}

// NextTick advances the clock and refills the budget.
func (f *Fake) NextTick() {
	f.TickNow++
	f.Spent = 0
}

func (f *Fake) ID() int { return f.Me.ID }
func (f *Fake) Team() swarm.Team { return f.Me.Team }
func (f *Fake) Kind() swarm.Kind { return f.Me.Kind }
func (f *Fake) Location() protocol.Loc { return f.Me.Loc }
func (f *Fake) Influence() int { return f.Me.Influence }
func (f *Fake) Conviction() int { return f.Me.Conviction }
func (f *Fake) IsReady() bool { return f.Ready }
func (f *Fake) Tick() int { return f.TickNow }
func (f *Fake) BudgetLeft() int { return f.Budget - f.Spent }
func (f *Fake) Charge(units int) { f.Spent += units }
func (f *Fake) SensorRadiusSq() int { return f.SensorR2 }
func (f *Fake) ActionRadiusSq() int { return f.ActionR2 }
func (f *Fake) TeamVotes() int { return f.Votes }
func (f *Fake) CanBid(amount int) bool { return amount > 0 && amount <= f.Me.Influence }
func (f *Fake) CanEmpower(r2 int) bool { return f.Ready && f.Me.Kind == swarm.KindEnforcer }
func (f *Fake) CanReadChannel(id int) bool {
	_, ok := f.Words[id]
	return ok && !f.Unreadable[id]
}

func (f *Fake) ReadChannel(id int) (protocol.Word, error) {
	f.Spent += f.ReadCost
	if !f.CanReadChannel(id) {
		return 0, protocol.Errorf(protocol.ErrUnreadable, "agent %d", id)
	}
	return f.Words[id], nil
}

func (f *Fake) PublishChannel(raw protocol.Word) error {
	f.Published = append(f.Published, raw)
	f.Words[f.Me.ID] = raw
	return nil
}

func (f *Fake) SenseNearby(r2 int) []swarm.AgentInfo {
	if r2 < 0 || r2 > f.SensorR2 {
		r2 = f.SensorR2
	}
	var out []swarm.AgentInfo
	for _, a := range f.Agents {
		if a.Loc.DistSq(f.Me.Loc) <= r2 {
			out = append(out, a)
		}
	}
	return out
}

func (f *Fake) SenseAgentAt(l protocol.Loc) (swarm.AgentInfo, bool) {
	for _, a := range f.Agents {
		if a.Loc == l {
			return a, true
		}
	}
	return swarm.AgentInfo{}, false
}

func (f *Fake) OnMap(l protocol.Loc) (bool, error) {
	if l.DistSq(f.Me.Loc) > f.SensorR2 {
		return false, protocol.Errorf(protocol.ErrOutOfRange, "%v", l)
	}
	return l.X >= f.MinX && l.X <= f.MaxX && l.Y >= f.MinY && l.Y <= f.MaxY, nil
}

func (f *Fake) Passability(l protocol.Loc) (float64, error) {
	if on, err := f.OnMap(l); err != nil || !on {
		return 0, protocol.Errorf(protocol.ErrOutOfRange, "%v", l)
	}
	if f.Pass != nil {
		return f.Pass(l), nil
	}
	return 1, nil
}

func (f *Fake) occupied(l protocol.Loc) bool {
	_, ok := f.SenseAgentAt(l)
	return ok
}

func (f *Fake) CanMove(d swarm.Direction) bool {
	if !f.Ready || f.Blocked[d] {
		return false
	}
	to := swarm.Step(f.Me.Loc, d)
	on, _ := f.OnMap(to)
	return on && !f.occupied(to)
}

func (f *Fake) Move(d swarm.Direction) error {
	if !f.CanMove(d) {
		return protocol.Errorf(protocol.ErrBlocked, "move %v", d)
	}
	f.Me.Loc = swarm.Step(f.Me.Loc, d)
	f.Moves = append(f.Moves, d)
	f.Ready = false
	return nil
}

func (f *Fake) CanBuild(k swarm.Kind, d swarm.Direction, inf int) bool {
	if !f.Ready || inf <= 0 || inf > f.Me.Influence || f.Blocked[d] {
		return false
	}
	to := swarm.Step(f.Me.Loc, d)
	on, _ := f.OnMap(to)
	return on && !f.occupied(to)
}

func (f *Fake) Build(k swarm.Kind, d swarm.Direction, inf int) (swarm.AgentInfo, error) {
	if !f.CanBuild(k, d, inf) {
		return swarm.AgentInfo{}, protocol.Errorf(protocol.ErrBlocked, "build %v", k)
	}
	a := swarm.AgentInfo{ID: f.NextID, Team: f.Me.Team, Kind: k, Loc: swarm.Step(f.Me.Loc, d), Influence: inf, Conviction: inf}
	f.NextID++
	f.Me.Influence -= inf
	f.Agents = append(f.Agents, a)
	f.Builds = append(f.Builds, a)
	f.Ready = false
	return a, nil
}

func (f *Fake) Bid(amount int) error {
	if !f.CanBid(amount) {
		return protocol.Errorf(protocol.ErrNoResource, "bid %d", amount)
	}
	f.Bids = append(f.Bids, amount)
	return nil
}

func (f *Fake) Empower(r2 int) error {
	if !f.CanEmpower(r2) {
		return protocol.Errorf(protocol.ErrNotReady, "empower")
	}
	f.Empowered = append(f.Empowered, r2)
	return nil
}

func (f *Fake) CanExpose(l protocol.Loc) bool {
	if !f.Ready || f.Me.Kind != swarm.KindScout || l.DistSq(f.Me.Loc) > f.ActionR2 {
		return false
	}
	a, ok := f.SenseAgentAt(l)
	return ok && a.Team != f.Me.Team && a.Kind == swarm.KindEarner
}

func (f *Fake) Expose(l protocol.Loc) error {
	if !f.CanExpose(l) {
		return protocol.Errorf(protocol.ErrInvalidTarget, "expose %v", l)
	}
	f.Exposed = append(f.Exposed, l)
	return nil
}

var _ swarm.Controller = (*Fake)(nil)
