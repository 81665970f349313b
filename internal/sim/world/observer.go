package world

import (
	"encoding/json"

	"go.uber.org/zap"

	"swarmlink.ai/internal/observerproto"
	"swarmlink.ai/internal/swarm"
)

// ObserverJoinRequest registers a read-only session that receives one TICK
// message per tick on TickOut. Observer state is owned by the world loop.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte
}

type observerClient struct {
	id      string
	tickOut chan []byte
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }

func (w *World) ObserverLeave() chan<- string { return w.observerLeave }

// Bootstrap describes the arena for a newly connected observer.
func (w *World) Bootstrap(runID string) observerproto.BootstrapResponse {
	o := w.arena.origin
	return observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		RunID:           runID,
		Tick:            w.CurrentTick(),
		Arena: observerproto.ArenaParams{
			TickRateHz: w.cfg.TickRateHz,
			Seed:       w.cfg.Seed,
			Width:      w.cfg.Width,
			Height:     w.cfg.Height,
			Origin:     [2]int{o.X, o.Y},
			Symmetry:   w.cfg.Symmetry,
			MaxTicks:   w.cfg.MaxTicks,
		},
	}
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.TickOut == nil {
		return
	}
	if old := w.observers[req.SessionID]; old != nil {
		close(old.tickOut)
	}
	w.observers[req.SessionID] = &observerClient{id: req.SessionID, tickOut: req.TickOut}
}

func (w *World) handleObserverLeave(sessionID string) {
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.tickOut)
}

func (w *World) tickMsg(digest string) observerproto.TickMsg {
	agents := w.Agents()
	msg := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		Tick:            w.now,
		Digest:          digest,
		Votes:           [2]int{w.votes[swarm.TeamA], w.votes[swarm.TeamB]},
		Over:            w.over,
		Agents:          make([]observerproto.AgentState, 0, len(agents)),
	}
	if w.over {
		msg.Winner = w.winner.String()
	}
	for _, a := range agents {
		msg.Agents = append(msg.Agents, observerproto.AgentState{
			ID:         a.ID,
			Team:       a.Team.String(),
			Kind:       a.Kind.String(),
			Pos:        [2]int{a.Loc.X, a.Loc.Y},
			Influence:  a.Influence,
			Conviction: a.Conviction,
			Word:       uint32(a.Word),
		})
	}
	for _, e := range w.events {
		msg.Events = append(msg.Events, observerproto.Event(e))
	}
	sum := w.stats.Summarize(w.now)
	msg.Window = &observerproto.WindowStats{
		Ticks:   w.stats.WindowTicks(),
		A:       observerproto.TeamStats(sum.Teams[swarm.TeamA]),
		B:       observerproto.TeamStats(sum.Teams[swarm.TeamB]),
		Neutral: observerproto.TeamStats(sum.Teams[swarm.TeamNeutral]),
	}
	return msg
}

func (w *World) stepObservers(digest string) {
	if len(w.observers) == 0 {
		return
	}
	b, err := json.Marshal(w.tickMsg(digest))
	if err != nil {
		w.log.Warn("observer tick encode failed", zap.Error(err))
		return
	}
	for _, c := range w.observers {
		sendLatest(c.tickOut, b)
	}
}
