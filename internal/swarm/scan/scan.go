// Package scan is the commander's view of its swarm. Three passes run each
// tick: SenseNearby over agents in sensor range, CheckPeers over known
// commander identities, and ScanSubordinates, an incremental walk over every
// tracked subordinate's channel word that resumes where the previous tick's
// budget ran out. Aggregates computed by the walk are published only when a
// full pass completes.
package scan

import (
	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
)

// Host is the part of the controller the scanner needs.
type Host interface {
	swarm.Self
	swarm.Clock
	swarm.ChannelReader
	swarm.Sensor
}

type Config struct {
	// ScanReserve is the budget left untouched by the subordinate walk.
	ScanReserve     int `yaml:"scan_reserve"`
	// SymmetryReserve is the budget required to finish a pass that has to
	// infer symmetry; with less, completion waits for the next tick.
	SymmetryReserve int `yaml:"symmetry_reserve"`
	FoldCost        int `yaml:"fold_cost"`
	EnforcerTax     int `yaml:"enforcer_tax"`
	CamouflageTicks int `yaml:"camouflage_ticks"`
	EmbezzleTicks   int `yaml:"embezzle_ticks"`
	// DistressWeight scales earner influence in distress ranking. It must
	// exceed any squared distance on the map.
	DistressWeight  int `yaml:"distress_weight"`
}

func DefaultConfig() Config {
	return Config{
		ScanReserve:     2500,
		SymmetryReserve: 4000,
		FoldCost:        120,
		EnforcerTax:     10,
		CamouflageTicks: 300,
		EmbezzleTicks:   50,
		DistressWeight:  2 * 64 * 64,
	}
}

// Tracked is one subordinate the commander spawned. LastLoc is the last
// commander location it reported.
type Tracked struct {
	ID        int
	Form      swarm.Form
	Influence int
	Role      protocol.Role
	LastLoc   protocol.Loc
	HasLoc    bool
}

// Nearby is the result of the direct sensing pass.
type Nearby struct {
	FriendlyScouts       int
	FriendlyEnforcers    int
	EnemyScouts          int
	EnemyEarners         int
	EnemyEnforcers       int
	// StrongestEnemyScout is the highest enemy scout conviction, -1 if none.
	StrongestEnemyScout  int
	StrongestEnemyEarner int
	EnemyEnforcerPower   int
	Threat               protocol.Loc
	HasThreat            bool
}

// Aggregate is what one complete subordinate pass observed.
type Aggregate struct {
	OffensivePower    int
	DefensivePower    int
	StrongestDefender int
	Scouts            int
	Enforcers         int
	Earners           int
	Income            int
	Distress          protocol.Loc
	HasDistress       bool
	Tracked           int
}

type accumulator struct {
	Aggregate
	distressScore int
}

type Scanner struct {
	h    Host
	cfg  Config
	home protocol.Loc

	nearby Nearby
	peers  *Peers
	bounds Bounds
	codes  []protocol.Word
	sym    Symmetry
	// symmetryDirty is set when new commander locations or edges arrive.
	symmetryDirty bool

	tracked []Tracked
	spawned []Tracked
	read    int
	write   int
	inPass  bool
	acc     accumulator
	public  Aggregate
	parity  bool
	passes  int
}

func New(h Host, cfg Config) *Scanner {
	s := &Scanner{
		h:     h,
		cfg:   cfg,
		home:  h.Location(),
		peers: newPeers(),
	}
	s.nearby = Nearby{StrongestEnemyScout: -1, StrongestEnemyEarner: -1}
	s.peers.SetID(s.home, h.ID())
	return s
}

func (s *Scanner) Home() protocol.Loc { return s.home }
func (s *Scanner) Nearby() Nearby { return s.nearby }
func (s *Scanner) Aggregate() Aggregate { return s.public }
func (s *Scanner) Parity() bool { return s.parity }
func (s *Scanner) Passes() int { return s.passes }
func (s *Scanner) Symmetry() Symmetry { return s.sym }
func (s *Scanner) Bounds() Bounds { return s.bounds }
func (s *Scanner) Peers() *Peers { return s.peers }
func (s *Scanner) TrackedCount() int {
	if s.inPass {
		return s.write + len(s.tracked) - s.read
	}
	return len(s.tracked)
}
func (s *Scanner) BoundaryCodes() []protocol.Word {
	return append([]protocol.Word(nil), s.codes...)
}

// Tracked returns a copy of the tracked list. During a pass the slots
// between write and read are stale and skipped.
func (s *Scanner) Tracked() []Tracked {
	if s.inPass {
		out := append([]Tracked(nil), s.tracked[:s.write]...)
		return append(out, s.tracked[s.read:]...)
	}
	return append([]Tracked(nil), s.tracked...)
}

// Register adds a freshly spawned subordinate. It joins the walk when the
// current pass completes.
func (s *Scanner) Register(a swarm.AgentInfo, form swarm.Form, role protocol.Role) {
	s.spawned = append(s.spawned, Tracked{
		ID:        a.ID,
		Form:      form,
		Influence: a.Influence,
		Role:      role,
	})
}

// RecordBoundary stores a map edge. It reports whether the edge was new.
func (s *Scanner) RecordBoundary(side protocol.Side, v int) bool {
	if !s.bounds.Set(side, v) {
		return false
	}
	s.codes = append(s.codes, protocol.BoundaryCode(side, v))
	if s.bounds.Complete() {
		s.symmetryDirty = true
	}
	return true
}

func (s *Scanner) addPeer(loc protocol.Loc) {
	if s.peers.Add(loc) {
		s.symmetryDirty = true
	}
	if s.sym != SymmetryUnknown {
		s.peers.Add(s.sym.Mirror(s.bounds, loc))
	}
}

// SenseNearby recounts visible agents and records visible commanders.
func (s *Scanner) SenseNearby() {
	n := Nearby{StrongestEnemyScout: -1, StrongestEnemyEarner: -1}
	team := s.h.Team()
	best := -1
	for _, a := range s.h.SenseNearby(-1) {
		if a.Kind == swarm.KindCommander {
			if a.Team == team {
				if s.peers.SetID(a.Loc, a.ID) {
					s.symmetryDirty = true
				}
			} else {
				s.addPeer(a.Loc)
				s.peers.Forget(a.Loc)
			}
			continue
		}
		if a.Team == team {
			switch a.Kind {
			case swarm.KindScout:
				n.FriendlyScouts++
			case swarm.KindEnforcer:
				n.FriendlyEnforcers++
			}
			continue
		}
		switch a.Kind {
		case swarm.KindScout:
			n.EnemyScouts++
			n.StrongestEnemyScout = max(n.StrongestEnemyScout, a.Conviction)
			if d := a.Loc.DistSq(s.home); best < 0 || d < best {
				best = d
				n.Threat = a.Loc
				n.HasThreat = true
			}
		case swarm.KindEarner:
			n.EnemyEarners++
			n.StrongestEnemyEarner = max(n.StrongestEnemyEarner, a.Conviction)
		case swarm.KindEnforcer:
			n.EnemyEnforcers++
			n.EnemyEnforcerPower += max(a.Conviction-s.cfg.EnforcerTax, 0)
		}
	}
	s.nearby = n
}

// CheckPeers forgets the identity of any known commander whose channel can
// no longer be read (captured or destroyed).
func (s *Scanner) CheckPeers() {
	for _, loc := range s.peers.order {
		id, ok := s.peers.ID(loc)
		if !ok || id == s.h.ID() {
			continue
		}
		if !s.h.CanReadChannel(id) {
			s.peers.Forget(loc)
		}
	}
}

// ScanSubordinates continues the subordinate walk while budget remains
// above the reserve. Unreadable subordinates are dropped for good.
func (s *Scanner) ScanSubordinates() {
	if !s.inPass {
		s.inPass = true
		s.read, s.write = 0, 0
		s.acc = accumulator{}
	}
	for s.read < len(s.tracked) && s.h.BudgetLeft() > s.cfg.ScanReserve {
		t := s.tracked[s.read]
		s.read++
		s.h.Charge(s.cfg.FoldCost)
		if !s.h.CanReadChannel(t.ID) {
			continue
		}
		w, err := swarm.ReadWord(s.h, t.ID)
		if err != nil {
			continue
		}
		s.fold(&t, w)
		s.tracked[s.write] = t
		s.write++
	}
	if s.read < len(s.tracked) {
		return
	}
	s.tracked = s.tracked[:s.write]
	s.read = s.write

	if s.symmetryDirty && s.bounds.Complete() && s.sym == SymmetryUnknown {
		if s.h.BudgetLeft() < s.cfg.SymmetryReserve {
			return
		}
		s.resolveSymmetry()
	}
	s.symmetryDirty = false
	s.finishPass()
}

func (s *Scanner) finishPass() {
	s.tracked = append(s.tracked, s.spawned...)
	s.spawned = s.spawned[:0]
	s.acc.Tracked = len(s.tracked)
	s.public = s.acc.Aggregate
	s.parity = !s.parity
	s.passes++
	s.inPass = false
}

func (s *Scanner) resolveSymmetry() {
	s.sym = InferSymmetry(s.bounds, s.peers.order)
	if s.sym == SymmetryUnknown {
		return
	}
	for _, loc := range s.peers.Locations() {
		s.peers.Add(s.sym.Mirror(s.bounds, loc))
	}
}

func (s *Scanner) fold(t *Tracked, w protocol.Word) {
	tick := s.h.Tick()
	switch swarm.EffectiveKind(t.Form, tick, s.cfg.CamouflageTicks) {
	case swarm.KindEnforcer:
		s.acc.Enforcers++
		power := max(t.Influence-s.cfg.EnforcerTax, 0)
		if t.Role == protocol.RoleOffensive {
			s.acc.OffensivePower += power
		} else {
			s.acc.DefensivePower += power
			s.acc.StrongestDefender = max(s.acc.StrongestDefender, power)
		}
	case swarm.KindEarner:
		s.acc.Earners++
		if swarm.Generating(t.Form, tick, s.cfg.EmbezzleTicks) {
			s.acc.Income += swarm.EarnerIncome(t.Influence)
		}
	case swarm.KindScout:
		s.acc.Scouts++
	}

	switch w.Action() {
	case protocol.ActionDistress:
		loc := protocol.DecodeLocation(w.Payload(), s.home)
		score := 2*s.cfg.DistressWeight*t.Influence - loc.DistSq(s.home)
		if swarm.Generating(t.Form, tick, s.cfg.EmbezzleTicks) {
			score += s.cfg.DistressWeight
		}
		if !s.acc.HasDistress || score > s.acc.distressScore {
			s.acc.HasDistress = true
			s.acc.Distress = loc
			s.acc.distressScore = score
		}
	case protocol.ActionCommanderLocation:
		loc := protocol.DecodeLocation(w.Payload(), s.home)
		t.LastLoc = loc
		t.HasLoc = true
		s.addPeer(loc)
	case protocol.ActionCommanderID:
		if t.HasLoc {
			if s.peers.SetID(t.LastLoc, w.ID()) {
				s.symmetryDirty = true
			}
		}
	case protocol.ActionBoundary:
		p := w.Payload()
		if p&protocol.AxisBit != 0 {
			y := protocol.DecodeCoordinate(p, s.home.Y)
			if y <= s.home.Y {
				s.RecordBoundary(protocol.SideLowY, y)
			} else {
				s.RecordBoundary(protocol.SideHighY, y)
			}
		} else {
			x := protocol.DecodeCoordinate(p, s.home.X)
			if x <= s.home.X {
				s.RecordBoundary(protocol.SideLowX, x)
			} else {
				s.RecordBoundary(protocol.SideHighX, x)
			}
		}
	}
}
