package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrNoBinding is returned when a selected target has no action bound.
	ErrNoBinding = errors.New("no action bound to target")
	// ErrActionFailed is returned when a plugin reports success=false.
	ErrActionFailed = errors.New("action failed")
	// ErrInvalidBinding is returned by NewRunner for malformed bindings.
	ErrInvalidBinding = errors.New("invalid action binding")
)

// Binding ties a target to a plugin action.
type Binding struct {
	TargetID int             `json:"target_id"`
	Plugin   string          `json:"plugin"`
	Action   string          `json:"action"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// Selection describes a completed target selection.
type Selection struct {
	SessionID string
	TargetID  int
	Label     string
	At        time.Time
}

// Runner resolves selections to bound plugin actions.
type Runner struct {
	registry *Registry
	executor *Executor
	bindings map[int]Binding
}

// NewRunner validates bindings and returns a Runner. At most one binding
// may exist per target.
func NewRunner(registry *Registry, executor *Executor, bindings []Binding) (*Runner, error) {
	r := &Runner{
		registry: registry,
		executor: executor,
		bindings: make(map[int]Binding, len(bindings)),
	}
	for _, b := range bindings {
		if b.TargetID < 0 {
			return nil, fmt.Errorf("%w: negative target id %d", ErrInvalidBinding, b.TargetID)
		}
		if b.Plugin == "" || b.Action == "" {
			return nil, fmt.Errorf("%w: target %d needs a plugin and an action", ErrInvalidBinding, b.TargetID)
		}
		if _, dup := r.bindings[b.TargetID]; dup {
			return nil, fmt.Errorf("%w: target %d bound twice", ErrInvalidBinding, b.TargetID)
		}
		r.bindings[b.TargetID] = b
	}
	return r, nil
}

// Binding returns the binding for a target.
func (r *Runner) Binding(targetID int) (Binding, bool) {
	b, ok := r.bindings[targetID]
	return b, ok
}

// Bindings returns all bindings ordered by target id.
func (r *Runner) Bindings() []Binding {
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetID < out[j].TargetID })
	return out
}

// OnSelected runs the action bound to the selected target.
func (r *Runner) OnSelected(ctx context.Context, sel Selection) (*Response, error) {
	b, ok := r.bindings[sel.TargetID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoBinding, sel.TargetID)
	}

	p, err := r.registry.Get(b.Plugin)
	if err != nil {
		return nil, fmt.Errorf("target %d: %w: %s", sel.TargetID, err, b.Plugin)
	}

	resp, err := r.executor.Execute(ctx, p, &Request{
		Action:     b.Action,
		TargetID:   sel.TargetID,
		Label:      sel.Label,
		SessionID:  sel.SessionID,
		SelectedAt: sel.At,
		Params:     b.Params,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("%w: %s", ErrActionFailed, resp.Error)
	}
	return resp, nil
}
