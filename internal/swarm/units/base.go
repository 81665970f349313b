// Package units holds the tactical behaviour of subordinate agents. Each unit
// owns a link to its commander and publishes through it.
package units

import (
	"go.uber.org/zap"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/link"
	"swarmlink.ai/internal/swarm/scan"
)

type Config struct {
	EnforcerTax      int `yaml:"enforcer_tax"`
	// GuardRadiusSq is how far defensive enforcers drift from their target.
	GuardRadiusSq    int `yaml:"guard_radius_sq"`
	// InstructionGrace is how many ticks a new enforcer waits for its spawn
	// instruction before choosing a role itself.
	InstructionGrace int `yaml:"instruction_grace"`
	// EmpowerMinKills is the fewest opposing agents an empower must take out.
	EmpowerMinKills  int `yaml:"empower_min_kills"`
}

func DefaultConfig() Config {
	return Config{
		EnforcerTax:      10,
		GuardRadiusSq:    8,
		InstructionGrace: 2,
		EmpowerMinKills:  1,
	}
}

type base struct {
	c      swarm.Controller
	cfg    Config
	link   *link.Link
	rng    *swarm.Sampler
	log    *zap.Logger
	bounds scan.Bounds
	born   int
	synced bool
}

func newBase(c swarm.Controller, cfg Config, rng *swarm.Sampler, log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{c: c, cfg: cfg, rng: rng, log: log, born: c.Tick()}
}

func (b *base) Link() *link.Link { return b.link }

// sync attaches to an adjacent commander on the first tick and reads the
// commander's word. Later links come only from sensing or adoption.
func (b *base) sync() {
	if !b.synced {
		b.synced = true
		b.link.Discover(b.c, b.c)
	}
	b.link.Refresh(b.c)
	if w, ok := b.link.Word(); ok {
		b.learnBoundaries(w)
	}
}

// learnBoundaries takes edges broadcast by the commander. Residues are decoded
// against the unit's own position.
func (b *base) learnBoundaries(w protocol.Word) {
	here := b.c.Location()
	for _, code := range w.BoundaryCodes() {
		side, residue := protocol.SplitBoundaryCode(code)
		ref := here.X
		if swarm.SideAxisY(side) {
			ref = here.Y
		}
		b.bounds.Set(side, protocol.DecodeCoordinate(residue, ref))
	}
}

// senseBoundaries records edges within sensor range and returns the new ones.
func (b *base) senseBoundaries() []protocol.Side {
	var found []protocol.Side
	for side := protocol.SideLowX; side <= protocol.SideHighY; side++ {
		if _, ok := b.bounds.Get(side); ok {
			continue
		}
		if v, ok := swarm.SenseBoundary(b.c.Location(), b.c, side); ok {
			b.bounds.Set(side, v)
			found = append(found, side)
		}
	}
	return found
}

func (b *base) tryMove(d swarm.Direction) bool {
	if d == swarm.Center || !b.c.CanMove(d) {
		return false
	}
	return b.c.Move(d) == nil
}

// moveToward steps towards target, trying the direct heading and then its
// neighbours.
func (b *base) moveToward(target protocol.Loc) bool {
	here := b.c.Location()
	if here == target || !b.c.IsReady() {
		return false
	}
	d := swarm.DirectionTo(here, target)
	if b.tryMove(d) {
		return true
	}
	i := int(d) - 1
	left := swarm.Directions[(i+7)%8]
	right := swarm.Directions[(i+1)%8]
	if b.rng.Intn(2) == 0 {
		left, right = right, left
	}
	return b.tryMove(left) || b.tryMove(right)
}

// moveAway steps to increase distance from threat.
func (b *base) moveAway(threat protocol.Loc) bool {
	if !b.c.IsReady() {
		return false
	}
	here := b.c.Location()
	best := swarm.Center
	bestD := here.DistSq(threat)
	for _, d := range b.rng.SampleWithoutReplacement(swarm.Directions[:]) {
		if !b.c.CanMove(d) {
			continue
		}
		if dist := swarm.Step(here, d).DistSq(threat); dist > bestD {
			best, bestD = d, dist
		}
	}
	return b.tryMove(best)
}

func (b *base) moveRandom() bool {
	if !b.c.IsReady() {
		return false
	}
	for _, d := range b.rng.SampleWithoutReplacement(swarm.Directions[:]) {
		if b.tryMove(d) {
			return true
		}
	}
	return false
}

// nearest returns the closest agent matching keep.
func nearest(here protocol.Loc, agents []swarm.AgentInfo, keep func(swarm.AgentInfo) bool) (swarm.AgentInfo, bool) {
	var out swarm.AgentInfo
	best := -1
	for _, a := range agents {
		if !keep(a) {
			continue
		}
		if d := a.Loc.DistSq(here); best < 0 || d < best {
			out, best = a, d
		}
	}
	return out, best >= 0
}
