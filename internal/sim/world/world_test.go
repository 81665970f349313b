package world

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"swarmlink.ai/internal/observerproto"
	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
	"swarmlink.ai/internal/swarm/player"
)

func playerBrains(c swarm.Controller, seed uint64) Brain {
	return player.New(c, player.DefaultConfig(), seed, zap.NewNop())
}

func testConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.MaxTicks = 300
	return cfg
}

// emptyWorld returns a world with every placed agent cleared so tests can
// lay out their own.
func emptyWorld(t *testing.T) *World {
	t.Helper()
	cfg := testConfig(7)
	cfg.Width, cfg.Height = 40, 40
	cfg.NeutralPairs = 0
	w, err := New(cfg, nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	for _, a := range w.agents {
		a.alive = false
		delete(w.byLoc, a.Loc)
	}
	w.compact()
	w.events = nil
	for i := range w.arena.pass {
		w.arena.pass[i] = 1
	}
	return w
}

func (w *World) at(dx, dy int) protocol.Loc { return w.arena.origin.Translate(dx, dy) }

func TestDeterminism_SameSeedSameDigest(t *testing.T) {
	w1, err := New(testConfig(42), playerBrains, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("world1: %v", err)
	}
	w2, err := New(testConfig(42), playerBrains, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("world2: %v", err)
	}
	placed := len(w1.Agents())
	for i := 0; i < 200; i++ {
		t1, d1 := w1.StepOnce()
		t2, d2 := w2.StepOnce()
		if t1 != t2 || d1 != d2 {
			t.Fatalf("diverged at step %d: tick %d/%d digest %s vs %s", i, t1, t2, d1, d2)
		}
	}
	if len(w1.Agents()) <= placed {
		t.Fatalf("expected commanders to build, have %d agents", len(w1.Agents()))
	}
}

func TestDeterminism_SeedChangesArena(t *testing.T) {
	w1, err := New(testConfig(1), nil, nil)
	if err != nil {
		t.Fatalf("world1: %v", err)
	}
	w2, err := New(testConfig(2), nil, nil)
	if err != nil {
		t.Fatalf("world2: %v", err)
	}
	_, d1 := w1.StepOnce()
	_, d2 := w2.StepOnce()
	if d1 == d2 {
		t.Fatalf("different seeds produced digest %s", d1)
	}
}

func TestNew_PlacesMirroredCommanders(t *testing.T) {
	cfg := testConfig(3)
	cfg.CommandersPerTeam = 2
	w, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got, want := len(w.Agents()), 2*(cfg.CommandersPerTeam+cfg.NeutralPairs); got != want {
		t.Fatalf("agents=%d want %d", got, want)
	}
	if w.Agents()[0].ID != FirstAgentID {
		t.Fatalf("first id %d", w.Agents()[0].ID)
	}
	for _, a := range w.Agents() {
		if a.Kind != swarm.KindCommander {
			t.Fatalf("placed %v", a.Kind)
		}
		o := w.Origin()
		if a.Loc.X < o.X || a.Loc.Y < o.Y || a.Loc.X >= o.X+w.cfg.Width || a.Loc.Y >= o.Y+w.cfg.Height {
			t.Fatalf("commander %d at %v off map", a.ID, a.Loc)
		}
		if a.Team != swarm.TeamA {
			continue
		}
		id, ok := w.byLoc[w.arena.mirror(a.Loc)]
		if !ok || w.agents[id].Team != swarm.TeamB {
			t.Fatalf("no team B commander mirroring %v", a.Loc)
		}
	}
	if o := w.Origin(); o.X < originLow || o.Y < originLow || o.X >= originHigh || o.Y >= originHigh {
		t.Fatalf("origin %v", o)
	}
}

func TestNew_RejectsBadArena(t *testing.T) {
	cfg := testConfig(1)
	cfg.Width = 100
	if _, err := New(cfg, nil, nil); err == nil {
		t.Fatalf("expected size error")
	}
	cfg = testConfig(1)
	cfg.Symmetry = "diagonal"
	if _, err := New(cfg, nil, nil); err == nil {
		t.Fatalf("expected symmetry error")
	}
}

func TestReadChannel_Visibility(t *testing.T) {
	w := emptyWorld(t)
	cmd := w.spawn(swarm.TeamA, swarm.KindCommander, w.at(2, 2), 100, 0)
	scout := w.spawn(swarm.TeamA, swarm.KindScout, w.at(20, 20), 1, cmd.ID)
	near := w.spawn(swarm.TeamA, swarm.KindEnforcer, w.at(23, 24), 20, cmd.ID)
	far := w.spawn(swarm.TeamA, swarm.KindEnforcer, w.at(35, 35), 20, cmd.ID)
	enemy := w.spawn(swarm.TeamB, swarm.KindScout, w.at(21, 20), 1, 0)
	for _, a := range []*Agent{cmd, near, far, enemy} {
		a.Word = protocol.Seal(protocol.CommanderID(a.ID))
	}

	cases := []struct {
		name   string
		reader *Agent
		target int
		want   bool
	}{
		{"unit reads commander", scout, cmd.ID, true},
		{"commander reads any teammate", cmd, far.ID, true},
		{"teammate in sensor range", scout, near.ID, true},
		{"teammate out of range", scout, far.ID, false},
		{"enemy in range", scout, enemy.ID, false},
		{"missing agent", scout, 1, false},
	}
	for _, c := range cases {
		if got := c.reader.ctrl.CanReadChannel(c.target); got != c.want {
			t.Fatalf("%s: CanReadChannel=%v want %v", c.name, got, c.want)
		}
		raw, err := c.reader.ctrl.ReadChannel(c.target)
		if c.want {
			if err != nil || raw != w.agents[c.target].Word {
				t.Fatalf("%s: read=%v err=%v", c.name, raw, err)
			}
			continue
		}
		if !protocol.IsCode(err, protocol.ErrUnreadable) {
			t.Fatalf("%s: err=%v want %s", c.name, err, protocol.ErrUnreadable)
		}
	}
	if scout.ctrl.BudgetLeft() >= w.cfg.UnitBudget {
		t.Fatalf("reads should charge the budget")
	}
}

func TestSensor_RangeLimits(t *testing.T) {
	w := emptyWorld(t)
	me := w.spawn(swarm.TeamA, swarm.KindEarner, w.at(1, 10), 30, 0)
	w.spawn(swarm.TeamB, swarm.KindScout, w.at(3, 12), 1, 0)
	w.spawn(swarm.TeamB, swarm.KindScout, w.at(30, 30), 1, 0)

	if got := me.ctrl.SenseNearby(1000); len(got) != 1 {
		t.Fatalf("sensed %d agents, want 1", len(got))
	}
	if _, ok := me.ctrl.SenseAgentAt(w.at(30, 30)); ok {
		t.Fatalf("sensed beyond range")
	}
	if _, err := me.ctrl.OnMap(w.at(30, 30)); !protocol.IsCode(err, protocol.ErrOutOfRange) {
		t.Fatalf("OnMap err=%v", err)
	}
	on, err := me.ctrl.OnMap(w.at(-1, 10))
	if err != nil || on {
		t.Fatalf("OnMap off edge = %v, %v", on, err)
	}
}

func TestMove_CooldownAndBlocking(t *testing.T) {
	w := emptyWorld(t)
	s := w.spawn(swarm.TeamA, swarm.KindScout, w.at(5, 5), 1, 0)
	w.spawn(swarm.TeamA, swarm.KindScout, w.at(6, 5), 1, 0)

	if err := s.ctrl.Move(swarm.East); !protocol.IsCode(err, protocol.ErrBlocked) {
		t.Fatalf("move into agent: %v", err)
	}
	if err := s.ctrl.Move(swarm.North); err != nil {
		t.Fatalf("move: %v", err)
	}
	if s.Loc != w.at(5, 6) || w.byLoc[w.at(5, 6)] != s.ID {
		t.Fatalf("scout at %v", s.Loc)
	}
	if s.Cooldown != 2 {
		t.Fatalf("cooldown=%v want ceil(1.5)", s.Cooldown)
	}
	if err := s.ctrl.Move(swarm.North); !protocol.IsCode(err, protocol.ErrNotReady) {
		t.Fatalf("second move: %v", err)
	}

	edge := w.spawn(swarm.TeamA, swarm.KindScout, w.at(0, 0), 1, 0)
	if edge.ctrl.CanMove(swarm.SouthWest) {
		t.Fatalf("moved off the map")
	}
}

func TestBuild_SpendsInfluence(t *testing.T) {
	w := emptyWorld(t)
	c := w.spawn(swarm.TeamA, swarm.KindCommander, w.at(10, 10), 100, 0)

	if _, err := c.ctrl.Build(swarm.KindEarner, swarm.North, 500); !protocol.IsCode(err, protocol.ErrNoResource) {
		t.Fatalf("overspend: %v", err)
	}
	child, err := c.ctrl.Build(swarm.KindEarner, swarm.North, 40)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if c.Influence != 60 || c.Conviction != 60 {
		t.Fatalf("commander influence=%d conviction=%d", c.Influence, c.Conviction)
	}
	got := w.agents[child.ID]
	if got.Loc != w.at(10, 11) || got.Parent != c.ID || !got.Decoy || got.Kind != swarm.KindEarner {
		t.Fatalf("child %+v", got)
	}
	if c.ctrl.CanBuild(swarm.KindScout, swarm.South, 1) {
		t.Fatalf("built while cooling down")
	}
	if got.ctrl.CanBuild(swarm.KindScout, swarm.North, 1) {
		t.Fatalf("non-commander can build")
	}
}

func TestEmpower_ConvertsAndDestroys(t *testing.T) {
	w := emptyWorld(t)
	caster := w.spawn(swarm.TeamA, swarm.KindEnforcer, w.at(10, 10), 50, 0)
	friend := w.spawn(swarm.TeamA, swarm.KindScout, w.at(11, 10), 5, 0)
	foe := w.spawn(swarm.TeamB, swarm.KindEnforcer, w.at(10, 11), 10, 0)
	outside := w.spawn(swarm.TeamB, swarm.KindEnforcer, w.at(14, 10), 10, 0)

	if err := caster.ctrl.Empower(2); err != nil {
		t.Fatalf("empower: %v", err)
	}
	// (50 - 10 tax) / 2 targets = 20 each.
	if caster.alive {
		t.Fatalf("caster survived")
	}
	if friend.Conviction != 25 {
		t.Fatalf("friend conviction=%d", friend.Conviction)
	}
	if foe.Team != swarm.TeamA || foe.Conviction != 10 {
		t.Fatalf("foe team=%v conviction=%d", foe.Team, foe.Conviction)
	}
	if outside.Team != swarm.TeamB || outside.Conviction != 10 {
		t.Fatalf("outside touched: %+v", outside)
	}

	var types []string
	for _, e := range w.events {
		types = append(types, e.Type)
	}
	want := []string{EventSpawn, EventSpawn, EventSpawn, EventSpawn, EventEmpower, EventDestroy, EventConvert}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
}

func TestEmpower_DestroysEarnerAndFeedsCommander(t *testing.T) {
	w := emptyWorld(t)
	caster := w.spawn(swarm.TeamA, swarm.KindEnforcer, w.at(10, 10), 30, 0)
	earner := w.spawn(swarm.TeamB, swarm.KindEarner, w.at(11, 11), 5, 0)
	home := w.spawn(swarm.TeamA, swarm.KindCommander, w.at(9, 10), 100, 0)

	if err := caster.ctrl.Empower(2); err != nil {
		t.Fatalf("empower: %v", err)
	}
	if earner.alive {
		t.Fatalf("earner survived a 10 point hit")
	}
	if home.Influence != 110 || home.Conviction != 110 {
		t.Fatalf("commander influence=%d", home.Influence)
	}
}

func TestExpose_OnlyEnemyEarners(t *testing.T) {
	w := emptyWorld(t)
	s := w.spawn(swarm.TeamA, swarm.KindScout, w.at(10, 10), 1, 0)
	mine := w.spawn(swarm.TeamA, swarm.KindEarner, w.at(11, 10), 10, 0)
	theirs := w.spawn(swarm.TeamB, swarm.KindEarner, w.at(12, 12), 10, 0)

	if s.ctrl.CanExpose(mine.Loc) {
		t.Fatalf("can expose own earner")
	}
	if err := s.ctrl.Expose(theirs.Loc); err != nil {
		t.Fatalf("expose: %v", err)
	}
	if theirs.alive {
		t.Fatalf("exposed earner alive")
	}
	if err := s.ctrl.Expose(mine.Loc); !protocol.IsCode(err, protocol.ErrInvalidTarget) {
		t.Fatalf("expose own: %v", err)
	}
}

func TestResolveBids(t *testing.T) {
	w := emptyWorld(t)
	a := w.spawn(swarm.TeamA, swarm.KindCommander, w.at(5, 5), 100, 0)
	b := w.spawn(swarm.TeamB, swarm.KindCommander, w.at(30, 30), 100, 0)

	if a.ctrl.Bid(0) == nil || a.ctrl.Bid(101) == nil {
		t.Fatalf("accepted invalid bid")
	}
	if err := a.ctrl.Bid(10); err != nil {
		t.Fatalf("bid: %v", err)
	}
	if err := b.ctrl.Bid(7); err != nil {
		t.Fatalf("bid: %v", err)
	}
	w.resolveBids()
	if w.Votes(swarm.TeamA) != 1 || w.Votes(swarm.TeamB) != 0 {
		t.Fatalf("votes A=%d B=%d", w.Votes(swarm.TeamA), w.Votes(swarm.TeamB))
	}
	if a.Influence != 90 || b.Influence != 97 {
		t.Fatalf("influence A=%d B=%d", a.Influence, b.Influence)
	}

	a.ctrl.Bid(6)
	b.ctrl.Bid(6)
	w.resolveBids()
	if w.Votes(swarm.TeamA) != 1 || w.Votes(swarm.TeamB) != 0 {
		t.Fatalf("tie awarded a vote")
	}
	if a.Influence != 87 || b.Influence != 94 {
		t.Fatalf("tie payment A=%d B=%d", a.Influence, b.Influence)
	}
}

func TestStep_IncomeAndDisguise(t *testing.T) {
	w := emptyWorld(t)
	w.cfg.CamouflageTicks = 3
	w.cfg.EmbezzleTicks = 2
	c := w.spawn(swarm.TeamA, swarm.KindCommander, w.at(5, 5), 100, 0)
	w.spawn(swarm.TeamB, swarm.KindCommander, w.at(30, 30), 100, 0)
	e := w.spawn(swarm.TeamA, swarm.KindEarner, w.at(5, 6), 100, c.ID)

	w.StepOnce() // tick 1: passive 1, earner floor((0.02+0.03e^-0.1)*100) = 4
	if want := 100 + 1 + swarm.EarnerIncome(100); c.Influence != want {
		t.Fatalf("tick 1 influence=%d want %d", c.Influence, want)
	}
	w.StepOnce()
	w.StepOnce()
	if e.Kind != swarm.KindEnforcer || e.Decoy {
		t.Fatalf("earner still disguised at tick %d", w.CurrentTick())
	}
	// The earner generated on tick 1 only.
	if want := 100 + 1 + 1 + 1 + swarm.EarnerIncome(100); c.Influence != want {
		t.Fatalf("tick 3 influence=%d want %d", c.Influence, want)
	}
}

func TestStep_GameEndsWithoutCommanders(t *testing.T) {
	w := emptyWorld(t)
	w.spawn(swarm.TeamA, swarm.KindCommander, w.at(5, 5), 100, 0)
	w.spawn(swarm.TeamB, swarm.KindScout, w.at(30, 30), 1, 0)

	w.StepOnce()
	over, winner := w.Over()
	if !over || winner != swarm.TeamA {
		t.Fatalf("over=%v winner=%v", over, winner)
	}
	tick := w.CurrentTick()
	w.StepOnce()
	if w.CurrentTick() != tick {
		t.Fatalf("stepped after game over")
	}
}

func TestStep_MaxTicksDecidedByVotes(t *testing.T) {
	w := emptyWorld(t)
	w.cfg.MaxTicks = 2
	w.spawn(swarm.TeamA, swarm.KindCommander, w.at(5, 5), 100, 0)
	b := w.spawn(swarm.TeamB, swarm.KindCommander, w.at(30, 30), 100, 0)
	w.StepOnce()
	b.ctrl.Bid(5)
	w.StepOnce()
	over, winner := w.Over()
	if !over || winner != swarm.TeamB {
		t.Fatalf("over=%v winner=%v", over, winner)
	}
}

type captureLogger struct{ entries []TickLogEntry }

func (c *captureLogger) WriteTick(e TickLogEntry) error {
	c.entries = append(c.entries, e)
	return nil
}

func TestStep_TickLogAndObservers(t *testing.T) {
	w, err := New(testConfig(5), playerBrains, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logs := &captureLogger{}
	w.SetTickLogger(logs)
	out := make(chan []byte, 1)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "s1", TickOut: out})

	_, d1 := w.StepOnce()
	_, d2 := w.StepOnce()

	if len(logs.entries) != 2 || logs.entries[0].Tick != 1 || logs.entries[1].Digest != d2 {
		t.Fatalf("tick log %+v", logs.entries)
	}
	if len(logs.entries[0].Events) == 0 || logs.entries[0].Events[0].Type != EventSpawn {
		t.Fatalf("placement spawns missing from first entry: %+v", logs.entries[0].Events)
	}
	if d1 == d2 {
		t.Fatalf("digest did not change")
	}

	var msg observerproto.TickMsg
	if err := json.Unmarshal(<-out, &msg); err != nil {
		t.Fatalf("decode tick: %v", err)
	}
	if msg.Type != "TICK" || msg.Tick != 2 || msg.Digest != d2 || len(msg.Agents) != len(w.Agents()) {
		t.Fatalf("tick msg %+v", msg)
	}
	if msg.Window == nil || msg.Window.Ticks != w.cfg.StatsWindowTicks {
		t.Fatalf("window %+v", msg.Window)
	}
	if got, want := msg.Window.A.Spawned+msg.Window.B.Spawned+msg.Window.Neutral.Spawned, w.nextID-FirstAgentID; got != want {
		t.Fatalf("window spawned=%d want %d", got, want)
	}

	w.handleObserverLeave("s1")
	if _, ok := <-out; ok {
		t.Fatalf("channel still open after leave")
	}
}

func TestStats_Window(t *testing.T) {
	s := NewStats(10, 30)
	s.ObserveSpawn(1, swarm.TeamA)
	s.ObserveVote(15, swarm.TeamB)
	s.ObserveConverted(25, swarm.TeamA)
	got := s.Summarize(29)
	if got.Teams[swarm.TeamA].Spawned != 1 || got.Teams[swarm.TeamB].Votes != 1 || got.Teams[swarm.TeamA].Converted != 1 {
		t.Fatalf("summary %+v", got)
	}
	got = s.Summarize(35)
	if got.Teams[swarm.TeamA].Spawned != 0 || got.Teams[swarm.TeamB].Votes != 1 {
		t.Fatalf("window did not roll: %+v", got)
	}
}
