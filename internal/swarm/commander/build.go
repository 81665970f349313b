package commander

import (
	"math"

	"go.uber.org/zap"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
)

// BuildConfig holds the spawn economy. Influence formulas take the form
// base + perRoot*sqrt(tick).
type BuildConfig struct {
	DefensiveBase         float64 `yaml:"defensive_base"`
	DefensivePerRoot      float64 `yaml:"defensive_per_root"`
	OffensiveBase         float64 `yaml:"offensive_base"`
	OffensivePerRoot      float64 `yaml:"offensive_per_root"`
	OffensivePowerBase    float64 `yaml:"offensive_power_base"`
	OffensivePowerPerRoot float64 `yaml:"offensive_power_per_root"`
	OverflowBase          float64 `yaml:"overflow_base"`
	OverflowPerRoot       float64 `yaml:"overflow_per_root"`
	OverflowPerIncome     float64 `yaml:"overflow_per_income"`
	IncomeTargetBase      float64 `yaml:"income_target_base"`

	ExtraEnforcerPower     int     `yaml:"extra_enforcer_power"`
	UnprotectedTicks       int     `yaml:"unprotected_ticks"`
	EnforcerPowerPerEarner int     `yaml:"enforcer_power_per_earner"`
	ScoutInfluence         int     `yaml:"scout_influence"`
	LocalScoutDensity      float64 `yaml:"local_scout_density"`
	MapScoutDensity        float64 `yaml:"map_scout_density"`
	EarnerInfluences       []int   `yaml:"earner_influences"`
}

func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		DefensiveBase:          80,
		DefensivePerRoot:       10,
		OffensiveBase:          160,
		OffensivePerRoot:       20,
		OffensivePowerBase:     1600,
		OffensivePowerPerRoot:  200,
		OverflowBase:           200,
		OverflowPerRoot:        20,
		OverflowPerIncome:      4,
		IncomeTargetBase:       8,
		ExtraEnforcerPower:     10,
		UnprotectedTicks:       150,
		EnforcerPowerPerEarner: 20,
		ScoutInfluence:         1,
		LocalScoutDensity:      0.05,
		MapScoutDensity:        0.02,
		EarnerInfluences: []int{
			21, 41, 63, 85, 107, 130, 154, 178, 203, 228,
			255, 282, 310, 339, 368, 399, 431, 463, 497, 532,
			568, 605, 643, 683, 724, 766, 810, 855, 902, 949,
		},
	}
}

type order struct {
	kind      swarm.Kind
	role      protocol.Role
	influence int
}

// plan picks at most one subordinate to spawn this tick.
func (cmd *Commander) plan() (order, bool) {
	b := cmd.cfg.Build
	tick := cmd.c.Tick()
	inf := cmd.c.Influence()
	root := math.Sqrt(float64(tick))
	n := cmd.scan.Nearby()
	agg := cmd.scan.Aggregate()
	tax := cmd.cfg.Scan.EnforcerTax

	if n.EnemyScouts > 0 && n.FriendlyEnforcers < n.EnemyScouts {
		need := n.StrongestEnemyScout + tax + b.ExtraEnforcerPower
		if need <= inf {
			return order{swarm.KindEnforcer, protocol.RoleDefensive, need}, true
		}
	}

	wantIncome := float64(agg.Income) < root/2+b.IncomeTargetBase
	protected := tick < b.UnprotectedTicks || agg.DefensivePower >= b.EnforcerPowerPerEarner*(agg.Earners+1)
	if wantIncome && n.EnemyScouts == 0 {
		if protected {
			if e, ok := earnerInfluence(b.EarnerInfluences, inf); ok {
				return order{swarm.KindEarner, protocol.RoleNone, e}, true
			}
		} else if d := int(b.DefensiveBase + b.DefensivePerRoot*root); d <= inf {
			return order{swarm.KindEnforcer, protocol.RoleDefensive, d}, true
		}
	}

	if _, ok := cmd.Target(protocol.RoleOffensive); ok {
		needPower := b.OffensivePowerBase + b.OffensivePowerPerRoot*root
		if float64(agg.OffensivePower) < needPower {
			if o := int(b.OffensiveBase + b.OffensivePerRoot*root); o <= inf {
				return order{swarm.KindEnforcer, protocol.RoleOffensive, o}, true
			}
		}
	}

	if !cmd.scan.Bounds().Complete() && b.ScoutInfluence <= inf {
		return order{swarm.KindScout, protocol.RoleNone, b.ScoutInfluence}, true
	}

	overflow := int(b.OverflowBase + b.OverflowPerRoot*root + b.OverflowPerIncome*float64(agg.Income))
	if inf >= overflow {
		role := protocol.RoleDefensive
		if _, ok := cmd.Target(protocol.RoleOffensive); ok {
			role = protocol.RoleOffensive
		}
		return order{swarm.KindEnforcer, role, overflow}, true
	}
	if cmd.scoutsSparse(n.FriendlyScouts, agg.Scouts) && b.ScoutInfluence <= inf {
		return order{swarm.KindScout, protocol.RoleNone, b.ScoutInfluence}, true
	}
	return order{}, false
}

func (cmd *Commander) scoutsSparse(local, total int) bool {
	b := cmd.cfg.Build
	if cmd.visionTiles > 0 && float64(local)/float64(cmd.visionTiles) >= b.LocalScoutDensity {
		return false
	}
	if area := cmd.scan.Bounds().Area(); area > 0 && float64(total)/float64(area) >= b.MapScoutDensity {
		return false
	}
	return true
}

// earnerInfluence returns the largest table entry not above inf.
func earnerInfluence(table []int, inf int) (int, bool) {
	best, ok := 0, false
	for _, v := range table {
		if v <= inf {
			best, ok = v, true
		}
	}
	return best, ok
}

// build spawns the planned subordinate in the first free direction. A plan
// with no free direction is not an error.
func (cmd *Commander) build() (bool, error) {
	if !cmd.c.IsReady() {
		return false, nil
	}
	o, ok := cmd.plan()
	if !ok {
		return false, nil
	}
	for _, d := range cmd.rng.SampleWithoutReplacement(swarm.Directions[:]) {
		if !cmd.c.CanBuild(o.kind, d, o.influence) {
			continue
		}
		info, err := cmd.c.Build(o.kind, d, o.influence)
		if err != nil {
			return false, err
		}
		form := swarm.PlainForm(o.kind)
		if o.kind == swarm.KindEarner {
			form = swarm.DecoyForm(cmd.c.Tick())
		}
		cmd.scan.Register(info, form, o.role)
		if o.kind == swarm.KindEnforcer {
			cmd.pending = protocol.SpawnInstruction(o.role)
		}
		cmd.log.Debug("spawned",
			zap.Int("id", info.ID),
			zap.Stringer("kind", o.kind),
			zap.Stringer("role", o.role),
			zap.Int("influence", o.influence),
		)
		return true, nil
	}
	return false, nil
}
