package units

import (
	"go.uber.org/zap"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/link"
)

// Earner generates income while young. It flees enemy scouts, calling for
// help while it does, and otherwise hides towards the nearest known edge.
type Earner struct {
	base
	panicking bool
}

func NewEarner(c swarm.Controller, cfg Config, rng *swarm.Sampler, log *zap.Logger) *Earner {
	e := &Earner{base: newBase(c, cfg, rng, log)}
	e.link = link.New(nil)
	return e
}

func (e *Earner) Step() error {
	e.sync()
	e.senseBoundaries()

	team := e.c.Team()
	here := e.c.Location()
	threat, ok := nearest(here, e.c.SenseNearby(-1), func(a swarm.AgentInfo) bool {
		return a.Team != team && a.Kind == swarm.KindScout
	})
	e.panicking = ok
	if ok {
		e.moveAway(threat.Loc)
		return nil
	}
	if edge, ok := e.hideout(); ok {
		e.moveToward(edge)
		return nil
	}
	if home, ok := e.link.CommanderLocation(); ok && home.DistSq(here) > e.cfg.GuardRadiusSq {
		e.moveToward(home)
	}
	return nil
}

// hideout is the closest point on a known map edge.
func (e *Earner) hideout() (protocol.Loc, bool) {
	here := e.c.Location()
	var best protocol.Loc
	bestD := -1
	for side := protocol.SideLowX; side <= protocol.SideHighY; side++ {
		v, ok := e.bounds.Get(side)
		if !ok {
			continue
		}
		p := protocol.Loc{X: v, Y: here.Y}
		if swarm.SideAxisY(side) {
			p = protocol.Loc{X: here.X, Y: v}
		}
		if d := p.DistSq(here); bestD < 0 || d < bestD {
			best, bestD = p, d
		}
	}
	return best, bestD >= 0
}

func (e *Earner) Outbound() protocol.Word {
	alt := protocol.Message(protocol.ActionNone, 0)
	if e.panicking {
		alt = protocol.Distress(e.c.Location())
	}
	return e.link.Outbound(alt)
}
