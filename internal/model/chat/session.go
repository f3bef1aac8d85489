package chat

// State is the per-turn lifecycle of a chat session.
type State string

const (
	StateIdle      State = "idle"
	StateSending   State = "sending"
	StateStreaming State = "streaming"
	StateError     State = "error"
)

// UpdateKind tells observers what changed.
type UpdateKind string

const (
	// UpdateAppend is emitted after a message was appended to the log.
	UpdateAppend UpdateKind = "append"
	// UpdateState is emitted after a state transition.
	UpdateState UpdateKind = "state"
	// UpdatePartial carries the in-progress reply; the log is unchanged.
	UpdatePartial UpdateKind = "partial"
)

// Update is delivered to session observers. Messages is a snapshot owned by
// the receiver.
type Update struct {
	Kind      UpdateKind `json:"kind"`
	SessionID string     `json:"sessionId"`
	State     State      `json:"state"`
	Messages  []Message  `json:"messages,omitempty"`
	Appended  *Message   `json:"appended,omitempty"`
	Pending   string     `json:"pending,omitempty"`
}

// Snapshot is the externally visible view of a session.
type Snapshot struct {
	ID       string    `json:"id"`
	AgentID  string    `json:"agentId"`
	State    State     `json:"state"`
	Messages []Message `json:"messages"`
}
