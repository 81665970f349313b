package units

import (
	"go.uber.org/zap"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/link"
)

// Enforcer empowers against enemies. Defensive enforcers guard their
// commander's defensive target; offensive ones march on enemy commanders.
// A lost enforcer re-adopts a commander from any friend that advertises one.
type Enforcer struct {
	base
	role      protocol.Role
	target    protocol.Loc
	hasTarget bool
}

func NewEnforcer(c swarm.Controller, cfg Config, rng *swarm.Sampler, log *zap.Logger) *Enforcer {
	e := &Enforcer{base: newBase(c, cfg, rng, log)}
	e.link = link.New(nil)
	return e
}

// FromEarner turns a converted earner into a defensive enforcer, keeping its
// link and what it knows of the map.
func FromEarner(e *Earner) *Enforcer {
	return &Enforcer{base: e.base, role: protocol.RoleDefensive}
}

func (e *Enforcer) Role() protocol.Role { return e.role }

func (e *Enforcer) Target() (protocol.Loc, bool) { return e.target, e.hasTarget }

func (e *Enforcer) Step() error {
	e.sync()
	if e.link.State() != link.Linked {
		e.adopt()
	}
	if w, ok := e.link.Word(); ok {
		e.readOrders(w)
	}
	if e.role == protocol.RoleNone && e.c.Tick()-e.born >= e.cfg.InstructionGrace {
		e.role = protocol.RoleDefensive
		if e.link.State() != link.Linked {
			e.role = protocol.RoleOffensive
		}
		e.log.Debug("no spawn instruction, picked role", zap.Stringer("role", e.role))
	}
	if e.link.State() == link.Lost && e.role == protocol.RoleDefensive {
		e.role = protocol.RoleOffensive
	}

	fired, err := e.tryEmpower()
	if fired || err != nil {
		return err
	}
	e.advance()
	return nil
}

func (e *Enforcer) readOrders(w protocol.Word) {
	switch w.Action() {
	case protocol.ActionSpawnInstruction:
		if e.role == protocol.RoleNone {
			e.role = w.Role()
		}
	case protocol.ActionTarget:
		if w.Role() == e.role {
			e.target = protocol.DecodeLocation(w.Payload(), e.c.Location())
			e.hasTarget = true
		}
	}
}

// adopt links to a friendly commander in view, or to the commander a nearby
// friend advertises.
func (e *Enforcer) adopt() {
	team := e.c.Team()
	nearby := e.c.SenseNearby(-1)
	if cmd, ok := nearest(e.c.Location(), nearby, func(a swarm.AgentInfo) bool {
		return a.Team == team && a.Kind == swarm.KindCommander
	}); ok {
		e.link.Attach(cmd.Loc, cmd.ID)
		e.link.Refresh(e.c)
		return
	}
	for _, a := range nearby {
		if a.Team != team || a.Kind == swarm.KindCommander || !e.c.CanReadChannel(a.ID) {
			continue
		}
		w, err := swarm.ReadWord(e.c, a.ID)
		if err != nil || w.Action() != protocol.ActionAdopt {
			continue
		}
		e.link.Adopt(w.ID())
		e.link.Refresh(e.c)
		e.log.Debug("adopted commander", zap.Int("commander", w.ID()), zap.Int("via", a.ID))
		return
	}
}

// tryEmpower fires when the blast would take out enough opponents, or reach
// the commander being targeted.
func (e *Enforcer) tryEmpower() (bool, error) {
	r2 := e.c.ActionRadiusSq()
	if !e.c.CanEmpower(r2) {
		return false, nil
	}
	inRange := e.c.SenseNearby(r2)
	if len(inRange) == 0 {
		return false, nil
	}
	share := (e.c.Conviction() - e.cfg.EnforcerTax) / len(inRange)
	if share <= 0 {
		return false, nil
	}
	team := e.c.Team()
	kills := 0
	onTarget := false
	for _, a := range inRange {
		if a.Team == team {
			continue
		}
		if a.Kind == swarm.KindCommander {
			if (e.hasTarget && a.Loc == e.target) || a.Conviction < share {
				onTarget = true
			}
			continue
		}
		if a.Conviction < share {
			kills++
		}
	}
	if kills < e.cfg.EmpowerMinKills && !onTarget {
		return false, nil
	}
	return true, e.c.Empower(r2)
}

func (e *Enforcer) advance() {
	here := e.c.Location()
	if e.hasTarget {
		if e.role == protocol.RoleDefensive && here.DistSq(e.target) <= e.cfg.GuardRadiusSq {
			return
		}
		e.moveToward(e.target)
		return
	}
	if home, ok := e.link.CommanderLocation(); ok && e.role == protocol.RoleDefensive {
		if here.DistSq(home) > e.cfg.GuardRadiusSq {
			e.moveToward(home)
		}
		return
	}
	e.moveRandom()
}

func (e *Enforcer) Outbound() protocol.Word {
	if e.link.State() == link.Linked {
		return e.link.Outbound(protocol.Adopt(e.link.CommanderID()))
	}
	return e.link.Outbound(protocol.Lost())
}
