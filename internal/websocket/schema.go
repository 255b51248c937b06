package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSkip     Action = "skip"
	ActionMark     Action = "mark"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest saves a single answer for the current question.
// OptionIndex is set for MCQ answers, Text for written answers.
type AutosaveRequest struct {
	Action      Action `json:"action"`
	QuestionID  string `json:"question_id"`
	OptionIndex *int   `json:"option_index"`
	Text        string `json:"text"`
}

// SkipRequest marks the current question as skipped.
type SkipRequest struct {
	Action Action `json:"action"`
}

// MarkRequest toggles the review flag on a question by position.
type MarkRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
}

// NavigateRequest moves the cursor to a question by position.
type NavigateRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
}

// SubmitRequest finishes and grades the attempt.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventState  Event = "state"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

// StateResponse pushes the attempt snapshot after every mutation and
// on a timer tick, so a reconnecting client can rebuild its view.
type StateResponse struct {
	Event    Event       `json:"event"`
	Snapshot interface{} `json:"snapshot"`
}

// GradedResponse is sent once when the attempt is finalized.
type GradedResponse struct {
	Event   Event       `json:"event"`
	Status  string      `json:"status"`
	Attempt interface{} `json:"attempt"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int64 `json:"remaining_seconds"`
}
