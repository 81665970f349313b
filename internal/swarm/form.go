package swarm

import "math"

// Form is the spawn-time shape of an agent. A decoy (earner) presents as an
// earner until it converts into an enforcer; every other kind is plain.
type Form struct {
	Kind      Kind
	Decoy     bool
	SpawnTick int
}

func PlainForm(k Kind) Form { return Form{Kind: k} }

func DecoyForm(spawnTick int) Form {
	return Form{Kind: KindEarner, Decoy: true, SpawnTick: spawnTick}
}

// EffectiveKind is the kind f behaves as at tick.
func EffectiveKind(f Form, tick, camouflageTicks int) Kind {
	if f.Decoy && tick-f.SpawnTick >= camouflageTicks {
		return KindEnforcer
	}
	return f.Kind
}

// Generating reports whether a decoy still produces passive income at tick.
func Generating(f Form, tick, embezzleTicks int) bool {
	return f.Decoy && tick-f.SpawnTick < embezzleTicks
}

// EarnerIncome is the per-tick income of a generating earner spawned with
// influence inf.
func EarnerIncome(inf int) int {
	return int((1.0/50 + 0.03*math.Exp(-0.001*float64(inf))) * float64(inf))
}
