package session

import (
	"time"

	"github.com/ayusman/whirling/internal/gesture"
)

// EventKind identifies what an Event reports.
type EventKind string

const (
	// EventState reports a target or global state change.
	EventState EventKind = "state"
	// EventEvaluation reports a correlation pass.
	EventEvaluation EventKind = "evaluation"
	// EventSelected reports that a target reached the selected state.
	EventSelected EventKind = "selected"
	// EventActive reports that hand tracking was switched on or off.
	EventActive EventKind = "active"
)

// Event is delivered to subscribers after the operation that caused it
// has completed.
type Event struct {
	Kind       EventKind            `json:"kind"`
	SessionID  string               `json:"session_id"`
	At         time.Time            `json:"at"`
	Change     *gesture.StateChange `json:"change,omitempty"`
	Evaluation *gesture.Evaluation  `json:"evaluation,omitempty"`
	TargetID   int                  `json:"target_id,omitempty"`
	Active     bool                 `json:"active"`
}
