// Package commander drives a commander agent: it keeps the scan engine
// running, picks targets, spawns subordinates, bids for votes and broadcasts
// orders on its channel word.
package commander

import (
	"math"

	"go.uber.org/zap"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/bidder"
	"swarmlink.ai/internal/swarm/scan"
)

type Config struct {
	Scan   scan.Config   `yaml:"scan"`
	Bidder bidder.Config `yaml:"bidder"`
	Build  BuildConfig   `yaml:"build"`
}

func DefaultConfig() Config {
	return Config{
		Scan:   scan.DefaultConfig(),
		Bidder: bidder.DefaultConfig(),
		Build:  DefaultBuildConfig(),
	}
}

type Commander struct {
	c      swarm.Controller
	cfg    Config
	log    *zap.Logger
	rng    *swarm.Sampler
	scan   *scan.Scanner
	bidder *bidder.Bidder

	targets   [3]protocol.Loc
	hasTarget [3]bool

	visionTiles int
	// pending is the spawn instruction for a subordinate built this tick.
	// It goes out next tick, when the subordinate first reads the channel.
	pending     protocol.Word
	instruction protocol.Word
	cycle       int
	codeIndex   int
}

func New(c swarm.Controller, cfg Config, rng *swarm.Sampler, log *zap.Logger) *Commander {
	if log == nil {
		log = zap.NewNop()
	}
	cmd := &Commander{
		c:      c,
		cfg:    cfg,
		log:    log,
		rng:    rng,
		scan:   scan.New(c, cfg.Scan),
		bidder: bidder.New(cfg.Bidder),
	}
	home := c.Location()
	for side := protocol.SideLowX; side <= protocol.SideHighY; side++ {
		if v, ok := swarm.SenseBoundary(home, c, side); ok {
			cmd.scan.RecordBoundary(side, v)
		}
	}
	cmd.visionTiles = countVisionTiles(c, home)
	return cmd
}

func countVisionTiles(s swarm.Sensor, home protocol.Loc) int {
	r2 := s.SensorRadiusSq()
	r := int(math.Sqrt(float64(r2)))
	n := 0
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			if on, err := s.OnMap(home.Translate(dx, dy)); err == nil && on {
				n++
			}
		}
	}
	return n
}

func (cmd *Commander) Scanner() *scan.Scanner { return cmd.scan }

// Target returns the current target for role.
func (cmd *Commander) Target(r protocol.Role) (protocol.Loc, bool) {
	if int(r) >= len(cmd.targets) {
		return protocol.Loc{}, false
	}
	return cmd.targets[r], cmd.hasTarget[r]
}

func (cmd *Commander) Step() error {
	cmd.instruction = cmd.pending
	cmd.pending = 0

	cmd.scan.SenseNearby()
	cmd.scan.CheckPeers()
	cmd.computeTargets()
	if _, err := cmd.build(); err != nil {
		return err
	}
	if _, err := cmd.bidder.Step(cmd.c); err != nil {
		return err
	}
	cmd.scan.ScanSubordinates()
	return nil
}

func (cmd *Commander) computeTargets() {
	home := cmd.scan.Home()
	n := cmd.scan.Nearby()
	agg := cmd.scan.Aggregate()
	switch {
	case n.HasThreat:
		cmd.setTarget(protocol.RoleDefensive, n.Threat)
	case agg.HasDistress:
		cmd.setTarget(protocol.RoleDefensive, agg.Distress)
	default:
		cmd.setTarget(protocol.RoleDefensive, home)
	}

	cmd.hasTarget[protocol.RoleOffensive] = false
	best := -1
	for _, loc := range cmd.scan.Peers().Unclaimed() {
		if d := loc.DistSq(home); best < 0 || d < best {
			best = d
			cmd.setTarget(protocol.RoleOffensive, loc)
		}
	}
}

func (cmd *Commander) setTarget(r protocol.Role, l protocol.Loc) {
	cmd.targets[r] = l
	cmd.hasTarget[r] = true
}

// Outbound is the word to publish after Step.
func (cmd *Commander) Outbound() protocol.Word {
	w := cmd.instruction
	if w == 0 {
		w = cmd.filler()
	}
	if cmd.scan.Parity() {
		w |= protocol.ParityBit
	}
	return w
}

// filler alternates boundary codes (while earners exist to use them) with
// targets for each role.
func (cmd *Commander) filler() protocol.Word {
	cmd.cycle++
	codes := cmd.scan.BoundaryCodes()
	if cmd.cycle%2 == 0 && len(codes) > 0 && cmd.scan.Aggregate().Earners > 0 {
		first := codes[cmd.codeIndex%len(codes)]
		cmd.codeIndex++
		if len(codes) == 1 {
			return protocol.OneBoundary(first)
		}
		second := codes[cmd.codeIndex%len(codes)]
		cmd.codeIndex++
		return protocol.TwoBoundaries(first, second)
	}
	roles := [2]protocol.Role{protocol.RoleDefensive, protocol.RoleOffensive}
	if (cmd.cycle/2)%2 == 1 {
		roles[0], roles[1] = roles[1], roles[0]
	}
	for _, r := range roles {
		if l, ok := cmd.Target(r); ok {
			return protocol.Target(r, l)
		}
	}
	return protocol.Message(protocol.ActionNone, 0)
}
