package gesture

import (
	"fmt"
	"strings"
	"time"
)

// State is the engagement state of an orbit target or of the manager.
type State int

// States in their fixed order. CycleState walks them in this order.
const (
	// StateInactive means no hand is tracked; motion is not matched.
	StateInactive State = iota
	// StateIdle means a hand is tracked but no target matches it yet.
	StateIdle
	// StatePerforming means the leader exceeds the low threshold.
	StatePerforming
	// StatePending means the leader exceeds the high threshold and the
	// selection countdown is running.
	StatePending
	// StateSelected means the countdown completed for the same leader.
	StateSelected

	numStates = 5
)

var stateNames = [numStates]string{"inactive", "idle", "performing", "pending", "selected"}

// String returns the lower case state name.
func (s State) String() string {
	if s < 0 || s >= numStates {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Next returns the following state in the fixed order, wrapping around.
func (s State) Next() State {
	return (s + 1) % numStates
}

// Engaged reports whether the state is one in which the size of a target
// follows its correlation.
func (s State) Engaged() bool {
	return s == StateIdle || s == StatePerforming || s == StatePending
}

// ParseState converts a state name into a State.
func ParseState(value string) (State, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for i, name := range stateNames {
		if name == normalized {
			return State(i), nil
		}
	}
	return StateInactive, fmt.Errorf("unknown state %q", value)
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	parsed, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scope tells whether a StateChange concerns a single target or the
// manager's global state.
type Scope string

const (
	// ScopeTarget marks a change of a target's state.
	ScopeTarget Scope = "target"
	// ScopeGlobal marks a change of the global state.
	ScopeGlobal Scope = "global"
)

// StateChange describes one state transition.
type StateChange struct {
	Scope    Scope     `json:"scope"`
	TargetID int       `json:"target_id"` // Only meaningful for ScopeTarget
	From     State     `json:"from"`
	To       State     `json:"to"`
	At       time.Time `json:"at"`
}

// Observer is notified of state changes.
type Observer interface {
	StateChanged(change StateChange)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(change StateChange)

// StateChanged calls f(change).
func (f ObserverFunc) StateChanged(change StateChange) {
	f(change)
}
