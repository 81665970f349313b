// Package player binds an arena controller to the behaviour for its kind and
// keeps agent failures inside the tick.
package player

import (
	"fmt"

	"go.uber.org/zap"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/commander"
	"swarmlink.ai/internal/swarm/units"
)

type Config struct {
	Commander commander.Config `yaml:"commander"`
	Units     units.Config     `yaml:"units"`
}

func DefaultConfig() Config {
	return Config{
		Commander: commander.DefaultConfig(),
		Units:     units.DefaultConfig(),
	}
}

// Agent is the per-kind behaviour. Step runs the tick's decisions; Outbound
// is called afterwards for the word to publish.
type Agent interface {
	Step() error
	Outbound() protocol.Word
}

type Player struct {
	c     swarm.Controller
	cfg   Config
	log   *zap.Logger
	rng   *swarm.Sampler
	kind  swarm.Kind
	agent Agent
}

func New(c swarm.Controller, cfg Config, seed uint64, log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Player{
		c:    c,
		cfg:  cfg,
		rng:  swarm.NewSampler(seed),
		kind: c.Kind(),
		log: log.With(
			zap.Int("agent", c.ID()),
			zap.Stringer("team", c.Team()),
		),
	}
	p.agent = p.newAgent(p.kind)
	return p
}

func (p *Player) newAgent(k swarm.Kind) Agent {
	l := p.log.With(zap.Stringer("kind", k))
	switch k {
	case swarm.KindCommander:
		return commander.New(p.c, p.cfg.Commander, p.rng, l)
	case swarm.KindScout:
		return units.NewScout(p.c, p.cfg.Units, p.rng, l)
	case swarm.KindEnforcer:
		return units.NewEnforcer(p.c, p.cfg.Units, p.rng, l)
	case swarm.KindEarner:
		return units.NewEarner(p.c, p.cfg.Units, p.rng, l)
	default:
		panic(fmt.Sprintf("player: unknown kind %d", k))
	}
}

func (p *Player) Kind() swarm.Kind { return p.kind }
func (p *Player) Agent() Agent     { return p.agent }

// Tick runs one turn. Nothing escapes: errors and panics are logged and the
// agent carries on next tick.
func (p *Player) Tick() {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("agent panicked", zap.Any("panic", r), zap.Int("tick", p.c.Tick()), zap.Stack("stack"))
		}
	}()

	if k := p.c.Kind(); k != p.kind {
		p.convert(k)
	}
	if err := p.agent.Step(); err != nil {
		p.log.Warn("step failed", zap.Int("tick", p.c.Tick()), zap.Error(err))
	}
	if err := swarm.Publish(p.c, p.agent.Outbound()); err != nil {
		p.log.Warn("publish failed", zap.Int("tick", p.c.Tick()), zap.Error(err))
	}
}

func (p *Player) convert(k swarm.Kind) {
	p.log.Info("kind changed", zap.Stringer("from", p.kind), zap.Stringer("to", k))
	if e, ok := p.agent.(*units.Earner); ok && k == swarm.KindEnforcer {
		p.agent = units.FromEarner(e)
	} else {
		p.agent = p.newAgent(k)
	}
	p.kind = k
}
