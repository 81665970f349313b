package observerproto

// Version is the observer protocol version.
const Version = "1.0"

// Client -> Server. First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// HTTP response for GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	RunID           string      `json:"run_id"`
	Tick            int         `json:"tick"`
	Arena           ArenaParams `json:"arena"`
}

type ArenaParams struct {
	TickRateHz int    `json:"tick_rate_hz"`
	Seed       int64  `json:"seed"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Origin     [2]int `json:"origin"`
	Symmetry   string `json:"symmetry"`
	MaxTicks   int    `json:"max_ticks"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            int    `json:"tick"`
	Digest          string `json:"digest"`

	Votes  [2]int `json:"votes"`
	Over   bool   `json:"over,omitempty"`
	Winner string `json:"winner,omitempty"`

	Agents []AgentState `json:"agents"`
	Events []Event      `json:"events,omitempty"`

	Window *WindowStats `json:"window,omitempty"`
}

// WindowStats are per-team tallies over the most recent window of ticks.
type WindowStats struct {
	Ticks   int       `json:"ticks"`
	A       TeamStats `json:"a"`
	B       TeamStats `json:"b"`
	Neutral TeamStats `json:"neutral"`
}

type TeamStats struct {
	Spawned   int `json:"spawned"`
	Destroyed int `json:"destroyed"`
	Converted int `json:"converted"`
	Votes     int `json:"votes"`
}

type AgentState struct {
	ID         int    `json:"id"`
	Team       string `json:"team"`
	Kind       string `json:"kind"`
	Pos        [2]int `json:"pos"`
	Influence  int    `json:"influence"`
	Conviction int    `json:"conviction"`
	// Word is the raw channel word.
	Word uint32 `json:"word"`
}

type Event struct {
	Type   string `json:"type"`
	Agent  int    `json:"agent"`
	Target int    `json:"target,omitempty"`
	Team   string `json:"team,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Value  int    `json:"value,omitempty"`
}
