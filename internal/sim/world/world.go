package world

import (
	"math/rand/v2"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"swarmlink.ai/internal/protocol"
	"swarmlink.ai/internal/swarm"
)

// FirstAgentID is the id of the first agent spawned.
const FirstAgentID = 10000

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick   int     `json:"tick"`
	Votes  [2]int  `json:"votes"`
	Events []Event `json:"events,omitempty"`
	Digest string  `json:"digest"`
}

// Event records a state change worth replaying or watching.
type Event struct {
	Type   string `json:"type"`
	Agent  int    `json:"agent"`
	Target int    `json:"target,omitempty"`
	Team   string `json:"team,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Value  int    `json:"value,omitempty"`
}

const (
	EventSpawn    = "SPAWN"
	EventDestroy  = "DESTROY"
	EventConvert  = "CONVERT"
	EventEmpower  = "EMPOWER"
	EventExpose   = "EXPOSE"
	EventDisguise = "DISGUISE_END"
	EventVote     = "VOTE"
	EventEnd      = "END"
)

// World is a single-threaded arena. All state is owned by the goroutine
// calling StepOnce or Run.
type World struct {
	cfg    Config
	log    *zap.Logger
	brains BrainFactory
	arena  *arena

	tick atomic.Int64
	now  int

	agents map[int]*Agent
	order  []int
	byLoc  map[protocol.Loc]int
	nextID int

	votes  [3]int
	bids   map[int]int
	events []Event
	over   bool
	winner swarm.Team

	lastDigest string

	tickLogger TickLogger
	stats      *Stats

	observers     map[string]*observerClient
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	stop          chan struct{}
}

func New(cfg Config, brains BrainFactory, log *zap.Logger) (*World, error) {
	cfg.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)>>1^0x5bd1e995))
	m, err := generateArena(cfg, rng)
	if err != nil {
		return nil, err
	}
	cfg.Width, cfg.Height, cfg.Symmetry = m.width, m.height, m.symmetry

	w := &World{
		cfg:           cfg,
		log:           log,
		brains:        brains,
		arena:         m,
		agents:        map[int]*Agent{},
		byLoc:         map[protocol.Loc]int{},
		nextID:        FirstAgentID,
		bids:          map[int]int{},
		stats:         NewStats(cfg.StatsBucketTicks, cfg.StatsWindowTicks),
		observers:     map[string]*observerClient{},
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerLeave: make(chan string, 16),
		stop:          make(chan struct{}),
	}
	if err := w.placeCommanders(rng); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

func (w *World) Config() Config { return w.cfg }

// CurrentTick is the last completed tick. Safe from any goroutine.
func (w *World) CurrentTick() int { return int(w.tick.Load()) }

// Origin is the lowest on-map location.
func (w *World) Origin() protocol.Loc { return w.arena.origin }

// Over reports whether the game has ended and who won.
func (w *World) Over() (bool, swarm.Team) { return w.over, w.winner }

func (w *World) Votes(t swarm.Team) int { return w.votes[t] }

// Agents lists live agents in id order.
func (w *World) Agents() []AgentState {
	out := make([]AgentState, 0, len(w.order))
	for _, id := range w.order {
		a := w.agents[id]
		if a == nil || !a.alive {
			continue
		}
		out = append(out, AgentState{
			ID:         a.ID,
			Team:       a.Team,
			Kind:       a.Kind,
			Loc:        a.Loc,
			Influence:  a.Influence,
			Conviction: a.Conviction,
			Word:       a.Word,
		})
	}
	return out
}

func (w *World) emit(e Event) {
	w.events = append(w.events, e)
}

func (w *World) spawn(team swarm.Team, kind swarm.Kind, l protocol.Loc, influence, parent int) *Agent {
	a := &Agent{
		ID:         w.nextID,
		Team:       team,
		Kind:       kind,
		Loc:        l,
		Influence:  influence,
		Conviction: influence,
		SpawnTick:  w.now,
		Parent:     parent,
		Decoy:      kind == swarm.KindEarner,
		alive:      true,
	}
	w.nextID++
	w.agents[a.ID] = a
	w.order = append(w.order, a.ID)
	w.byLoc[l] = a.ID
	a.ctrl = &controller{w: w, a: a}
	w.attachBrain(a)
	w.stats.ObserveSpawn(w.now, team)
	w.emit(Event{Type: EventSpawn, Agent: a.ID, Target: parent, Team: team.String(), Kind: kind.String(), Value: influence})
	return a
}

// attachBrain gives a its program. Neutral agents have none.
func (w *World) attachBrain(a *Agent) {
	a.brain = nil
	if a.Team == swarm.TeamNeutral || w.brains == nil {
		return
	}
	seed := uint64(w.cfg.Seed)*0x9e3779b97f4a7c15 ^ uint64(a.ID)<<16 ^ uint64(a.Team)
	a.brain = w.brains(a.ctrl, seed)
}

func (w *World) remove(a *Agent, by int) {
	a.alive = false
	delete(w.byLoc, a.Loc)
	w.stats.ObserveDestroyed(w.now, a.Team)
	w.emit(Event{Type: EventDestroy, Agent: a.ID, Target: by, Team: a.Team.String(), Kind: a.Kind.String()})
}

// compact drops dead agents from the id order.
func (w *World) compact() {
	live := w.order[:0]
	for _, id := range w.order {
		if a := w.agents[id]; a != nil && a.alive {
			live = append(live, id)
		} else {
			delete(w.agents, id)
		}
	}
	w.order = live
	sort.Ints(w.order)
}
