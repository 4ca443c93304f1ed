package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventTick  Event = "tick"
	EventEnded Event = "ended"
	EventPong  Event = "pong"
)

// TickEvent is pushed once per second while the attempt is active. The
// server countdown is authoritative; clients only render it.
type TickEvent struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
	LowTime          bool  `json:"low_time"`
}

// EndedEvent is pushed once when the attempt leaves the ACTIVE state,
// then the connection is closed.
type EndedEvent struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
