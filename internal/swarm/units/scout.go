package units

import (
	"go.uber.org/zap"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/link"
)

// Scout explores, reports commanders and map edges it finds, and exposes
// enemy earners.
type Scout struct {
	base
	// seen maps commander locations to their identity, or -1 for foreign ones.
	seen    map[protocol.Loc]int
	order   []protocol.Loc
	heading swarm.Direction
}

func NewScout(c swarm.Controller, cfg Config, rng *swarm.Sampler, log *zap.Logger) *Scout {
	s := &Scout{
		base: newBase(c, cfg, rng, log),
		seen: map[protocol.Loc]int{},
	}
	s.link = link.New(s.announceAll)
	s.heading = swarm.Directions[rng.Intn(len(swarm.Directions))]
	return s
}

// announceAll re-queues every known fact for a newly linked commander.
func (s *Scout) announceAll() {
	for side := protocol.SideLowX; side <= protocol.SideHighY; side++ {
		if v, ok := s.bounds.Get(side); ok {
			s.link.Queue(protocol.Boundary(swarm.SideAxisY(side), v))
		}
	}
	for _, loc := range s.order {
		s.announceCommander(loc, s.seen[loc])
	}
}

func (s *Scout) announceCommander(loc protocol.Loc, id int) {
	s.link.Queue(protocol.CommanderLocation(loc))
	if id >= 0 {
		s.link.Queue(protocol.CommanderID(id))
	}
}

func (s *Scout) Step() error {
	s.sync()
	for _, side := range s.senseBoundaries() {
		v, _ := s.bounds.Get(side)
		s.link.Queue(protocol.Boundary(swarm.SideAxisY(side), v))
	}

	team := s.c.Team()
	own := s.link.CommanderID()
	nearby := s.c.SenseNearby(-1)
	for _, a := range nearby {
		if a.Kind != swarm.KindCommander || (a.Team == team && a.ID == own) {
			continue
		}
		id := -1
		if a.Team == team {
			id = a.ID
		}
		prev, known := s.seen[a.Loc]
		if known && prev == id {
			continue
		}
		if !known {
			s.order = append(s.order, a.Loc)
		}
		s.seen[a.Loc] = id
		s.announceCommander(a.Loc, id)
		s.log.Debug("commander sighted", zap.Stringer("loc", a.Loc), zap.Int("id", id))
	}

	if prey, ok := nearest(s.c.Location(), nearby, func(a swarm.AgentInfo) bool {
		return a.Team != team && a.Kind == swarm.KindEarner
	}); ok {
		if s.c.CanExpose(prey.Loc) {
			return s.c.Expose(prey.Loc)
		}
		s.moveToward(prey.Loc)
		return nil
	}

	s.spread(nearby)
	return nil
}

// spread keeps scouts apart: step away from the nearest friendly scout,
// otherwise hold the current heading and pick a new one when blocked.
func (s *Scout) spread(nearby []swarm.AgentInfo) {
	team := s.c.Team()
	if mate, ok := nearest(s.c.Location(), nearby, func(a swarm.AgentInfo) bool {
		return a.Team == team && a.Kind == swarm.KindScout
	}); ok && mate.Loc.DistSq(s.c.Location()) <= 8 {
		if s.moveAway(mate.Loc) {
			return
		}
	}
	if s.tryMove(s.heading) {
		return
	}
	if !s.c.IsReady() {
		return
	}
	for _, d := range s.rng.SampleWithoutReplacement(swarm.Directions[:]) {
		if s.tryMove(d) {
			s.heading = d
			return
		}
	}
}

func (s *Scout) Outbound() protocol.Word {
	return s.link.Outbound(protocol.Message(protocol.ActionNone, 0))
}
