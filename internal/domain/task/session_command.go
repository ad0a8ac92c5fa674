package task

import "bricklink/taxonomy/internal/domain"

type SessionAction string

const (
	SessionOpen      SessionAction = "open"
	SessionResume    SessionAction = "resume"
	SessionCheck     SessionAction = "check"
	SessionUncheck   SessionAction = "uncheck"
	SessionHighlight SessionAction = "highlight"
	SessionUndo      SessionAction = "undo"
	SessionLocate    SessionAction = "locate"
	SessionCommit    SessionAction = "commit"
	SessionClose     SessionAction = "close"
)

// SessionCommandTask drives one selection session from outside the process.
// The caller picks SessionID so it can follow the session's event stream.
type SessionCommandTask struct {
	SessionID    string              `json:"session_id"`
	Action       SessionAction       `json:"action"`
	CategoryType domain.CategoryType `json:"category_type,omitempty"` // open only
	NodeID       string              `json:"node_id,omitempty"`       // check, uncheck, highlight
	ItemID       string              `json:"item_id,omitempty"`       // locate
}

func (t *SessionCommandTask) TaskType() string {
	return "SessionCommandTask"
}

func (t *SessionCommandTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
