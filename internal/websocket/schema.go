package websocket

import "github.com/stemsi/exstem-engine/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSignal   Action = "signal"
	ActionNavigate Action = "navigate"
	ActionAnswer   Action = "answer"
	ActionClear    Action = "clear"
	ActionMark     Action = "mark"
	ActionUnmark   Action = "unmark"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is every client message. Fields not used by an action are
// ignored.
type RequestPayload struct {
	Action Action              `json:"action"`
	Kind   model.IntegrityKind `json:"kind,omitempty"`
	Index  *int                `json:"index,omitempty"`
	Option string              `json:"option,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError      Event = "error"
	EventAck        Event = "ack"
	EventTick       Event = "tick"
	EventWarning    Event = "warning"
	EventFullscreen Event = "fullscreen"
	EventSubmitted  Event = "submitted"
	EventPong       Event = "pong"
)

// AckResponse confirms a mutation and carries the updated statuses.
type AckResponse struct {
	Event    Event                  `json:"event"`
	Action   Action                 `json:"action"`
	Current  int                    `json:"current"`
	Statuses []model.QuestionStatus `json:"statuses,omitempty"`
	Summary  model.StatusSummary    `json:"summary"`
}

// TickResponse is pushed once per timer second.
type TickResponse struct {
	Event     Event  `json:"event"`
	Remaining int    `json:"remaining"`
	Formatted string `json:"formatted"`
}

// WarningResponse carries an integrity warning to the exam page.
type WarningResponse struct {
	Event   Event         `json:"event"`
	Warning model.Warning `json:"warning"`
}

// FullscreenResponse asks the page to enter fullscreen.
type FullscreenResponse struct {
	Event Event `json:"event"`
}

// SubmittedResponse announces the end of the session.
type SubmittedResponse struct {
	Event  Event              `json:"event"`
	Reason model.SubmitReason `json:"reason"`
	Result model.ResultSet    `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
