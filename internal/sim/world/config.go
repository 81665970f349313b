package world

import "swarmlink.ai/internal/swarm"

type Config struct {
	ID         string `yaml:"-"`
	TickRateHz int    `yaml:"-"`
	Seed       int64  `yaml:"seed"`

	// Width and Height are drawn from [32, 64] when zero.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Symmetry is vertical, horizontal or rotational; empty picks one.
	Symmetry string `yaml:"symmetry"`

	CommandersPerTeam int `yaml:"commanders_per_team"`
	NeutralPairs      int `yaml:"neutral_pairs"`
	StartInfluence    int `yaml:"start_influence"`
	NeutralInfluence  int `yaml:"neutral_influence"`
	MaxTicks          int `yaml:"max_ticks"`

	EnforcerTax     int `yaml:"enforcer_tax"`
	CamouflageTicks int `yaml:"camouflage_ticks"`
	EmbezzleTicks   int `yaml:"embezzle_ticks"`

	CommanderBudget int   `yaml:"commander_budget"`
	UnitBudget      int   `yaml:"unit_budget"`
	Costs           Costs `yaml:"costs"`

	Commander KindParams `yaml:"commander"`
	Scout     KindParams `yaml:"scout"`
	Enforcer  KindParams `yaml:"enforcer"`
	Earner    KindParams `yaml:"earner"`

	StatsBucketTicks int `yaml:"stats_bucket_ticks"`
	StatsWindowTicks int `yaml:"stats_window_ticks"`
}

// Costs are charged against an agent's per-tick budget by controller calls.
type Costs struct {
	Sense int `yaml:"sense"`
	Read  int `yaml:"read"`
	Probe int `yaml:"probe"`
	Act   int `yaml:"act"`
}

type KindParams struct {
	SensorRadiusSq int     `yaml:"sensor_radius_sq"`
	ActionRadiusSq int     `yaml:"action_radius_sq"`
	Cooldown       float64 `yaml:"cooldown"`
}

func DefaultConfig() Config {
	return Config{
		TickRateHz:        10,
		Seed:              1,
		CommandersPerTeam: 1,
		NeutralPairs:      2,
		StartInfluence:    150,
		NeutralInfluence:  100,
		MaxTicks:          1500,
		EnforcerTax:       10,
		CamouflageTicks:   300,
		EmbezzleTicks:     50,
		CommanderBudget:   20000,
		UnitBudget:        15000,
		Costs:             Costs{Sense: 100, Read: 5, Probe: 5, Act: 20},
		Commander:         KindParams{SensorRadiusSq: 40, ActionRadiusSq: 2, Cooldown: 2},
		Scout:             KindParams{SensorRadiusSq: 30, ActionRadiusSq: 12, Cooldown: 1.5},
		Enforcer:          KindParams{SensorRadiusSq: 25, ActionRadiusSq: 9, Cooldown: 1},
		Earner:            KindParams{SensorRadiusSq: 20, ActionRadiusSq: 0, Cooldown: 2},
		StatsBucketTicks:  50,
		StatsWindowTicks:  500,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.TickRateHz <= 0 {
		c.TickRateHz = d.TickRateHz
	}
	if c.CommandersPerTeam <= 0 {
		c.CommandersPerTeam = d.CommandersPerTeam
	}
	if c.StartInfluence <= 0 {
		c.StartInfluence = d.StartInfluence
	}
	if c.MaxTicks <= 0 {
		c.MaxTicks = d.MaxTicks
	}
	if c.CommanderBudget <= 0 {
		c.CommanderBudget = d.CommanderBudget
	}
	if c.UnitBudget <= 0 {
		c.UnitBudget = d.UnitBudget
	}
	if c.Commander.SensorRadiusSq <= 0 {
		c.Commander = d.Commander
	}
	if c.Scout.SensorRadiusSq <= 0 {
		c.Scout = d.Scout
	}
	if c.Enforcer.SensorRadiusSq <= 0 {
		c.Enforcer = d.Enforcer
	}
	if c.Earner.SensorRadiusSq <= 0 {
		c.Earner = d.Earner
	}
	if c.StatsBucketTicks <= 0 {
		c.StatsBucketTicks = d.StatsBucketTicks
	}
	if c.StatsWindowTicks <= 0 {
		c.StatsWindowTicks = d.StatsWindowTicks
	}
}

func (c Config) params(k swarm.Kind) KindParams {
	switch k {
	case swarm.KindCommander:
		return c.Commander
	case swarm.KindScout:
		return c.Scout
	case swarm.KindEnforcer:
		return c.Enforcer
	default:
		return c.Earner
	}
}
