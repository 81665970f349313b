package scan

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/swarmtest"
)

var home = protocol.Loc{X: 10030, Y: 20030}

func newHost() *swarmtest.Fake {
	f := swarmtest.New(swarm.AgentInfo{ID: 10000, Team: swarm.TeamA, Kind: swarm.KindCommander, Loc: home, Influence: 150})
	f.SetWord(10000, 0)
	return f
}

func spawn(s *Scanner, f *swarmtest.Fake, id int, form swarm.Form, inf int, role protocol.Role, w protocol.Word) {
	a := swarm.AgentInfo{ID: id, Team: swarm.TeamA, Kind: form.Kind, Loc: home.Translate(1, 0), Influence: inf}
	f.SetWord(id, w)
	s.Register(a, form, role)
}

// runPass drives ticks until one more pass completes.
func runPass(t *testing.T, s *Scanner, f *swarmtest.Fake) int {
	t.Helper()
	start := s.Passes()
	for ticks := 1; ticks < 1000; ticks++ {
		s.ScanSubordinates()
		if s.Passes() > start {
			return ticks
		}
		f.NextTick()
	}
	t.Fatalf("pass never completed")
	return 0
}

func TestFoldsPerTickBoundedByBudget(t *testing.T) {
	f := newHost()
	cfg := DefaultConfig()
	s := New(f, cfg)
	for i := 0; i < 500; i++ {
		spawn(s, f, 20000+i, swarm.PlainForm(swarm.KindScout), 1, protocol.RoleNone, protocol.Message(protocol.ActionNone, 0))
	}
	runPass(t, s, f) // merges the spawned list
	f.NextTick()

	limit := (f.Budget-cfg.ScanReserve)/cfg.FoldCost + 1
	before := s.Aggregate()
	for s.Passes() < 2 {
		s.ScanSubordinates()
		if folds := f.Spent / cfg.FoldCost; folds > limit {
			t.Fatalf("folded %d in one tick, limit %d", folds, limit)
		}
		if s.Passes() < 2 && s.Aggregate() != before {
			t.Fatalf("aggregate changed mid-pass: %+v", s.Aggregate())
		}
		f.NextTick()
	}
	if got := s.Aggregate().Scouts; got != 500 {
		t.Fatalf("scouts=%d", got)
	}
	if s.Parity() {
		t.Fatalf("parity after %d passes = true", s.Passes())
	}
}

func TestUnreadableSubordinatesDropped(t *testing.T) {
	f := newHost()
	s := New(f, DefaultConfig())
	for i := 0; i < 10; i++ {
		spawn(s, f, 20000+i, swarm.PlainForm(swarm.KindScout), 1, protocol.RoleNone, 0)
	}
	runPass(t, s, f)
	f.Unreadable = map[int]bool{20003: true, 20007: true}
	runPass(t, s, f)
	if s.TrackedCount() != 8 {
		t.Fatalf("tracked=%d", s.TrackedCount())
	}
	f.Unreadable = nil
	runPass(t, s, f)
	for _, tr := range s.Tracked() {
		if tr.ID == 20003 || tr.ID == 20007 {
			t.Fatalf("dropped subordinate %d came back", tr.ID)
		}
	}
	if got := s.Aggregate().Scouts; got != 8 {
		t.Fatalf("scouts=%d", got)
	}
}

func TestTrackedConsistentMidPass(t *testing.T) {
	f := newHost()
	s := New(f, DefaultConfig())
	for i := 0; i < 200; i++ {
		spawn(s, f, 20000+i, swarm.PlainForm(swarm.KindScout), 1, protocol.RoleNone, 0)
	}
	runPass(t, s, f)
	f.NextTick()

	f.Unreadable = map[int]bool{20001: true}
	s.ScanSubordinates()
	if s.Passes() != 1 {
		t.Fatalf("pass completed within one tick, budget too large for this test")
	}
	if got := s.TrackedCount(); got != 199 {
		t.Fatalf("tracked=%d mid-pass, want 199", got)
	}
	list := s.Tracked()
	if len(list) != 199 {
		t.Fatalf("tracked list has %d entries", len(list))
	}
	seen := map[int]bool{}
	for _, tr := range list {
		if tr.ID == 20001 {
			t.Fatalf("pruned subordinate still listed")
		}
		if seen[tr.ID] {
			t.Fatalf("subordinate %d listed twice", tr.ID)
		}
		seen[tr.ID] = true
	}
}

func TestFoldAggregates(t *testing.T) {
	f := newHost()
	f.TickNow = 100
	cfg := DefaultConfig()
	s := New(f, cfg)
	near := home.Translate(3, 4)
	far := home.Translate(-20, 0)

	spawn(s, f, 20001, swarm.PlainForm(swarm.KindEnforcer), 50, protocol.RoleDefensive, 0)
	spawn(s, f, 20002, swarm.PlainForm(swarm.KindEnforcer), 80, protocol.RoleDefensive, 0)
	spawn(s, f, 20003, swarm.PlainForm(swarm.KindEnforcer), 200, protocol.RoleOffensive, 0)
	spawn(s, f, 20004, swarm.PlainForm(swarm.KindEnforcer), 5, protocol.RoleOffensive, 0)
	spawn(s, f, 20005, swarm.DecoyForm(90), 107, protocol.RoleNone, protocol.Distress(far))
	spawn(s, f, 20006, swarm.DecoyForm(10), 41, protocol.RoleNone, protocol.Distress(near))
	// Converted decoy counts as a defensive enforcer.
	spawn(s, f, 20007, swarm.DecoyForm(-250), 30, protocol.RoleNone, 0)
	runPass(t, s, f)
	runPass(t, s, f)

	want := Aggregate{
		OffensivePower:    190,
		DefensivePower:    40 + 70 + 20,
		StrongestDefender: 70,
		Enforcers:         5,
		Earners:           2,
		Income:            swarm.EarnerIncome(107),
		Distress:          far,
		HasDistress:       true,
		Tracked:           7,
	}
	if diff := cmp.Diff(want, s.Aggregate()); diff != "" {
		t.Fatalf("aggregate (-want +got):\n%s", diff)
	}
}

func TestFoldCommanderReportsAndBoundaries(t *testing.T) {
	f := newHost()
	s := New(f, DefaultConfig())
	enemy := home.Translate(25, -17)
	spawn(s, f, 20001, swarm.PlainForm(swarm.KindScout), 1, protocol.RoleNone, protocol.CommanderLocation(enemy))
	spawn(s, f, 20002, swarm.PlainForm(swarm.KindScout), 1, protocol.RoleNone, protocol.Boundary(false, home.X-30))
	spawn(s, f, 20003, swarm.PlainForm(swarm.KindScout), 1, protocol.RoleNone, protocol.Boundary(true, home.Y+33))
	runPass(t, s, f)
	runPass(t, s, f)

	if !s.Peers().Has(enemy) {
		t.Fatalf("enemy commander not registered: %v", s.Peers().Locations())
	}
	if _, ok := s.Peers().ID(enemy); ok {
		t.Fatalf("enemy identity should be unknown")
	}
	if v, ok := s.Bounds().Get(protocol.SideLowX); !ok || v != home.X-30 {
		t.Fatalf("low x=%d,%v", v, ok)
	}
	if v, ok := s.Bounds().Get(protocol.SideHighY); !ok || v != home.Y+33 {
		t.Fatalf("high y=%d,%v", v, ok)
	}
	if len(s.BoundaryCodes()) != 2 {
		t.Fatalf("codes=%v", s.BoundaryCodes())
	}

	// A later id report binds to the scout's last reported location.
	f.SetWord(20001, protocol.CommanderID(10077))
	runPass(t, s, f)
	if id, ok := s.Peers().ID(enemy); !ok || id != 10077 {
		t.Fatalf("id=%d,%v", id, ok)
	}
}

func completeBounds(s *Scanner, lowX, highX, lowY, highY int) {
	s.RecordBoundary(protocol.SideLowX, lowX)
	s.RecordBoundary(protocol.SideHighX, highX)
	s.RecordBoundary(protocol.SideLowY, lowY)
	s.RecordBoundary(protocol.SideHighY, highY)
}

func TestSymmetryResolvedAtPassEnd(t *testing.T) {
	f := newHost()
	s := New(f, DefaultConfig())
	completeBounds(s, 10000, 10063, 20000, 20049)
	// Vertical mirror of home: y' = 20000 + 20049 - 20030 = 20019.
	mirror := protocol.Loc{X: home.X, Y: 20019}
	spawn(s, f, 20001, swarm.PlainForm(swarm.KindScout), 1, protocol.RoleNone, protocol.CommanderLocation(mirror))
	runPass(t, s, f)
	runPass(t, s, f)
	if s.Symmetry() != SymmetryVertical {
		t.Fatalf("symmetry=%v", s.Symmetry())
	}

	// Later reports are mirrored too.
	other := protocol.Loc{X: 10010, Y: 20040}
	f.SetWord(20001, protocol.CommanderLocation(other))
	runPass(t, s, f)
	if !s.Peers().Has(SymmetryVertical.Mirror(s.Bounds(), other)) {
		t.Fatalf("mirror of %v missing: %v", other, s.Peers().Locations())
	}
}

func TestSymmetryPostponedWhenBudgetLow(t *testing.T) {
	f := newHost()
	cfg := DefaultConfig()
	s := New(f, cfg)
	completeBounds(s, 10000, 10063, 20000, 20049)
	s.addPeer(protocol.Loc{X: home.X, Y: 20019})

	f.Spent = f.Budget - cfg.SymmetryReserve + 1
	parity := s.Parity()
	s.ScanSubordinates()
	if s.Parity() != parity || s.Symmetry() != SymmetryUnknown {
		t.Fatalf("pass completed without budget")
	}
	f.NextTick()
	s.ScanSubordinates()
	if s.Parity() == parity || s.Symmetry() != SymmetryVertical {
		t.Fatalf("pass not completed next tick: parity=%v sym=%v", s.Parity(), s.Symmetry())
	}
}

func TestInferSymmetryOrderIndependent(t *testing.T) {
	var b Bounds
	b.Set(protocol.SideLowX, 0)
	b.Set(protocol.SideHighX, 39)
	b.Set(protocol.SideLowY, 0)
	b.Set(protocol.SideHighY, 39)
	// (5,7) and (34,32) are rotational mirrors, (5,7) and (5,32) vertical.
	locs := []protocol.Loc{{X: 5, Y: 7}, {X: 34, Y: 32}, {X: 5, Y: 32}}
	perms := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {1, 2, 0}}
	for _, p := range perms {
		in := []protocol.Loc{locs[p[0]], locs[p[1]], locs[p[2]]}
		if got := InferSymmetry(b, in); got != SymmetryVertical {
			t.Fatalf("order %v: got %v", p, got)
		}
	}
	if got := InferSymmetry(b, locs[:2]); got != SymmetryRotational {
		t.Fatalf("rotational pair: got %v", got)
	}
	if got := InferSymmetry(b, locs[:1]); got != SymmetryUnknown {
		t.Fatalf("single location: got %v", got)
	}
	var partial Bounds
	partial.Set(protocol.SideLowX, 0)
	if got := InferSymmetry(partial, locs); got != SymmetryUnknown {
		t.Fatalf("partial bounds: got %v", got)
	}
}

func TestSenseNearbyAndCheckPeers(t *testing.T) {
	f := newHost()
	s := New(f, DefaultConfig())
	friendly := home.Translate(4, 4)
	f.Agents = []swarm.AgentInfo{
		{ID: 10001, Team: swarm.TeamA, Kind: swarm.KindCommander, Loc: friendly},
		{ID: 10002, Team: swarm.TeamNeutral, Kind: swarm.KindCommander, Loc: home.Translate(-5, 0)},
		{ID: 10003, Team: swarm.TeamB, Kind: swarm.KindScout, Loc: home.Translate(5, 1), Conviction: 3},
		{ID: 10004, Team: swarm.TeamB, Kind: swarm.KindScout, Loc: home.Translate(1, 1), Conviction: 9},
		{ID: 10005, Team: swarm.TeamA, Kind: swarm.KindScout, Loc: home.Translate(0, 2)},
		{ID: 10006, Team: swarm.TeamB, Kind: swarm.KindEarner, Loc: home.Translate(0, -3), Conviction: 40},
	}
	f.SetWord(10001, 0)
	s.SenseNearby()
	n := s.Nearby()
	if n.EnemyScouts != 2 || n.StrongestEnemyScout != 9 || n.FriendlyScouts != 1 || n.EnemyEarners != 1 {
		t.Fatalf("nearby=%+v", n)
	}
	if !n.HasThreat || n.Threat != home.Translate(1, 1) {
		t.Fatalf("threat=%v", n.Threat)
	}
	if id, ok := s.Peers().ID(friendly); !ok || id != 10001 {
		t.Fatalf("friendly id=%d,%v", id, ok)
	}
	if got := s.Peers().Unclaimed(); len(got) != 1 || got[0] != home.Translate(-5, 0) {
		t.Fatalf("unclaimed=%v", got)
	}

	f.Unreadable = map[int]bool{10001: true}
	s.CheckPeers()
	if _, ok := s.Peers().ID(friendly); ok {
		t.Fatalf("captured commander identity kept")
	}
	if s.Peers().Len() != 3 {
		t.Fatalf("registry shrank: %v", s.Peers().Locations())
	}
}
