package session

import (
	"time"

	"github.com/fyrsmithlabs/packeval/internal/evaluation"
)

// Status describes where a session stands.
type Status string

const (
	// StatusAwaitingFeedback means the evaluation is parked at the human
	// feedback step. There is no internal timeout on this wait; a caller may
	// abandon a parked session indefinitely.
	StatusAwaitingFeedback Status = "awaiting_feedback"

	// StatusComplete means the evaluation produced its final score.
	StatusComplete Status = "complete"

	// StatusStalled means a collaborator call failed. The record is the
	// unchanged checkpoint from before the failed step, so the session may
	// be retried.
	StatusStalled Status = "stalled"

	// StatusFailed means the session hit an unrecoverable error (corrupted
	// record or configuration fault) and cannot be resumed.
	StatusFailed Status = "failed"
)

// Session is the serializable snapshot of one evaluation.
//
// It carries every record field plus the message log, and doubles as the
// response payload and the persisted checkpoint for resumption.
type Session struct {
	// ID is the unique session identifier.
	ID string `json:"id"`

	// Status is the session's current standing.
	Status Status `json:"status"`

	// Record is the evaluation state.
	Record *evaluation.Record `json:"record"`

	// Error is the last surfaced error for stalled/failed sessions.
	Error string `json:"error,omitempty"`

	// CreatedAt is when the session started.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the session last advanced.
	UpdatedAt time.Time `json:"updated_at"`
}
