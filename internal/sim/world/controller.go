package world

import (
	"math"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
)

// controller is the swarm.Controller handed to one agent's brain.
type controller struct {
	w *World
	a *Agent
}

var _ swarm.Controller = (*controller)(nil)

func (c *controller) params() KindParams { return c.w.cfg.params(c.a.Kind) }

func (c *controller) ID() int                { return c.a.ID }
func (c *controller) Team() swarm.Team       { return c.a.Team }
func (c *controller) Kind() swarm.Kind       { return c.a.Kind }
func (c *controller) Location() protocol.Loc { return c.a.Loc }
func (c *controller) Influence() int         { return c.a.Influence }
func (c *controller) Conviction() int        { return c.a.Conviction }
func (c *controller) IsReady() bool          { return c.a.Cooldown < 1 }
func (c *controller) Tick() int              { return c.w.now }
func (c *controller) SensorRadiusSq() int    { return c.params().SensorRadiusSq }
func (c *controller) ActionRadiusSq() int    { return c.params().ActionRadiusSq }
func (c *controller) TeamVotes() int         { return c.w.votes[c.a.Team] }

func (c *controller) budget() int {
	if c.a.Kind == swarm.KindCommander {
		return c.w.cfg.CommanderBudget
	}
	return c.w.cfg.UnitBudget
}

func (c *controller) BudgetLeft() int  { return c.budget() - c.a.spent }
func (c *controller) Charge(units int) { c.a.spent += units }

func (c *controller) inSensor(l protocol.Loc) bool {
	return c.a.Loc.DistSq(l) <= c.params().SensorRadiusSq
}

// CanReadChannel: the target must be alive and on the caller's team, and
// either side must be a commander or the target must be within sensor range.
func (c *controller) CanReadChannel(id int) bool {
	c.Charge(c.w.cfg.Costs.Probe)
	t := c.w.agents[id]
	if t == nil || !t.alive || t.Team != c.a.Team {
		return false
	}
	return c.a.Kind == swarm.KindCommander || t.Kind == swarm.KindCommander || c.inSensor(t.Loc)
}

func (c *controller) ReadChannel(id int) (protocol.Word, error) {
	c.Charge(c.w.cfg.Costs.Read)
	if !c.CanReadChannel(id) {
		return 0, protocol.Errorf(protocol.ErrUnreadable, "agent %d", id)
	}
	return c.w.agents[id].Word, nil
}

func (c *controller) PublishChannel(raw protocol.Word) error {
	c.a.Word = raw & protocol.Mask
	return nil
}

func (c *controller) SenseNearby(r2 int) []swarm.AgentInfo {
	limit := c.params().SensorRadiusSq
	if r2 < 0 || r2 > limit {
		r2 = limit
	}
	var out []swarm.AgentInfo
	for _, id := range c.w.order {
		t := c.w.agents[id]
		if t == nil || !t.alive || t.ID == c.a.ID {
			continue
		}
		if t.Loc.DistSq(c.a.Loc) <= r2 {
			out = append(out, t.info())
		}
	}
	c.Charge(c.w.cfg.Costs.Sense + len(out)*c.w.cfg.Costs.Probe)
	return out
}

func (c *controller) SenseAgentAt(l protocol.Loc) (swarm.AgentInfo, bool) {
	c.Charge(c.w.cfg.Costs.Probe)
	if !c.inSensor(l) {
		return swarm.AgentInfo{}, false
	}
	id, ok := c.w.byLoc[l]
	if !ok {
		return swarm.AgentInfo{}, false
	}
	return c.w.agents[id].info(), true
}

func (c *controller) OnMap(l protocol.Loc) (bool, error) {
	c.Charge(c.w.cfg.Costs.Probe)
	if !c.inSensor(l) {
		return false, protocol.Errorf(protocol.ErrOutOfRange, "%v beyond sensor range", l)
	}
	return c.w.arena.contains(l), nil
}

func (c *controller) Passability(l protocol.Loc) (float64, error) {
	on, err := c.OnMap(l)
	if err != nil {
		return 0, err
	}
	if !on {
		return 0, protocol.Errorf(protocol.ErrOutOfRange, "%v off map", l)
	}
	return c.w.arena.passability(l), nil
}

func (c *controller) free(l protocol.Loc) bool {
	if !c.w.arena.contains(l) {
		return false
	}
	_, taken := c.w.byLoc[l]
	return !taken
}

func (c *controller) cool() {
	c.a.Cooldown += math.Ceil(c.params().Cooldown / c.w.arena.passability(c.a.Loc))
	c.Charge(c.w.cfg.Costs.Act)
}

func (c *controller) CanMove(d swarm.Direction) bool {
	return c.a.Kind != swarm.KindCommander && d != swarm.Center && c.IsReady() && c.free(swarm.Step(c.a.Loc, d))
}

func (c *controller) Move(d swarm.Direction) error {
	if !c.IsReady() {
		return protocol.Errorf(protocol.ErrNotReady, "cooldown %.2f", c.a.Cooldown)
	}
	if !c.CanMove(d) {
		return protocol.Errorf(protocol.ErrBlocked, "move %v", d)
	}
	c.cool()
	delete(c.w.byLoc, c.a.Loc)
	c.a.Loc = swarm.Step(c.a.Loc, d)
	c.w.byLoc[c.a.Loc] = c.a.ID
	return nil
}

func (c *controller) CanBuild(k swarm.Kind, d swarm.Direction, influence int) bool {
	return c.a.Kind == swarm.KindCommander && k != swarm.KindCommander && d != swarm.Center &&
		c.IsReady() && influence > 0 && influence <= c.a.Influence && c.free(swarm.Step(c.a.Loc, d))
}

func (c *controller) Build(k swarm.Kind, d swarm.Direction, influence int) (swarm.AgentInfo, error) {
	if !c.IsReady() {
		return swarm.AgentInfo{}, protocol.Errorf(protocol.ErrNotReady, "cooldown %.2f", c.a.Cooldown)
	}
	if influence <= 0 || influence > c.a.Influence {
		return swarm.AgentInfo{}, protocol.Errorf(protocol.ErrNoResource, "influence %d of %d", influence, c.a.Influence)
	}
	if !c.CanBuild(k, d, influence) {
		return swarm.AgentInfo{}, protocol.Errorf(protocol.ErrBlocked, "build %v %v", k, d)
	}
	c.cool()
	c.a.Influence -= influence
	c.a.Conviction = c.a.Influence
	child := c.w.spawn(c.a.Team, k, swarm.Step(c.a.Loc, d), influence, c.a.ID)
	return child.info(), nil
}

func (c *controller) CanBid(amount int) bool {
	return c.a.Kind == swarm.KindCommander && amount > 0 && amount <= c.a.Influence
}

// Bid replaces any earlier bid by this commander in the same tick.
func (c *controller) Bid(amount int) error {
	if !c.CanBid(amount) {
		return protocol.Errorf(protocol.ErrNoResource, "bid %d of %d", amount, c.a.Influence)
	}
	c.w.bids[c.a.ID] = amount
	return nil
}

func (c *controller) CanEmpower(r2 int) bool {
	return c.a.Kind == swarm.KindEnforcer && c.IsReady() && r2 > 0 && r2 <= c.params().ActionRadiusSq
}

func (c *controller) Empower(r2 int) error {
	if !c.CanEmpower(r2) {
		return protocol.Errorf(protocol.ErrNotReady, "empower radius %d", r2)
	}
	c.Charge(c.w.cfg.Costs.Act)
	c.w.empower(c.a, r2)
	return nil
}

func (c *controller) CanExpose(l protocol.Loc) bool {
	if c.a.Kind != swarm.KindScout || !c.IsReady() || c.a.Loc.DistSq(l) > c.params().ActionRadiusSq {
		return false
	}
	id, ok := c.w.byLoc[l]
	if !ok {
		return false
	}
	t := c.w.agents[id]
	return t.Kind == swarm.KindEarner && t.Team != c.a.Team && t.Team != swarm.TeamNeutral
}

func (c *controller) Expose(l protocol.Loc) error {
	if !c.CanExpose(l) {
		return protocol.Errorf(protocol.ErrInvalidTarget, "expose %v", l)
	}
	c.cool()
	t := c.w.agents[c.w.byLoc[l]]
	c.w.emit(Event{Type: EventExpose, Agent: c.a.ID, Target: t.ID, Team: c.a.Team.String()})
	c.w.remove(t, c.a.ID)
	return nil
}
