package gesture

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicateTarget is returned when a target id is registered twice.
	ErrDuplicateTarget = errors.New("duplicate target id")
	// ErrSampleOutOfOrder is returned when a hand sample is older than the
	// newest recorded one.
	ErrSampleOutOfOrder = errors.New("hand sample out of order")
)

// Evaluation summarizes one correlation pass.
type Evaluation struct {
	At          time.Time       `json:"at"`
	Skipped     bool            `json:"skipped"`   // Hand history shorter than the minimum window
	Debounced   bool            `json:"debounced"` // Transitions suppressed by the debounce
	HasLeader   bool            `json:"has_leader"`
	LeaderID    int             `json:"leader_id"`
	Leader      float64         `json:"leader"`
	HasRunnerUp bool            `json:"has_runner_up"`
	RunnerUpID  int             `json:"runner_up_id"`
	RunnerUp    float64         `json:"runner_up"`
	Confidences map[int]float64 `json:"confidences,omitempty"`
	State       State           `json:"state"` // Global state after the pass
	Changed     bool            `json:"changed"`
}

// TargetView is a read-only copy of a target's observable fields.
type TargetView struct {
	ID          int     `json:"id"`
	State       State   `json:"state"`
	Correlation float64 `json:"correlation"`
	Angle       float64 `json:"angle"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	SizeFactor  float64 `json:"size_factor"`
	Samples     int     `json:"samples"`
}

// Snapshot is a read-only copy of the manager's observable state.
type Snapshot struct {
	Active      bool         `json:"active"`
	State       State        `json:"state"`
	HandSamples int          `json:"hand_samples"`
	Targets     []TargetView `json:"targets"`
}

// Manager owns the orbit targets and the hand history, computes the
// correlation between them and arbitrates which target is being selected.
//
// Manager is not safe for concurrent use. Callers must serialize Tick,
// RecordHandSample/OnHandSampleRecorded and EvaluateCorrelations.
type Manager struct {
	cfg     Config
	targets []*Target
	hand    *History[Sample]

	active bool
	state  State
	now    time.Time

	// engagedID is the target currently carrying the global state.
	engagedID  int
	hasEngaged bool

	pendingID    int
	hasPending   bool
	pendingStart time.Time
	lastChange   time.Time

	observers []Observer
}

// NewManager creates an inactive Manager with no targets.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		cfg:   cfg,
		hand:  NewHistory[Sample](cfg.MaxFrames),
		state: StateInactive,
	}, nil
}

// Config returns the manager configuration.
func (m *Manager) Config() Config { return m.cfg }

// Observe registers an observer for target and global state changes.
func (m *Manager) Observe(o Observer) {
	if o == nil {
		return
	}
	m.observers = append(m.observers, o)
}

// AddTarget registers a new target. It starts idle if the manager is
// active, inactive otherwise.
func (m *Manager) AddTarget(cfg TargetConfig) (*Target, error) {
	if m.Target(cfg.ID) != nil {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateTarget, cfg.ID)
	}

	t, err := NewTarget(cfg, m.cfg, m.cfg.MaxFrames)
	if err != nil {
		return nil, err
	}
	t.onChange = m.targetChanged
	m.targets = append(m.targets, t)

	if m.active {
		t.SetState(StateIdle)
	}
	return t, nil
}

// RemoveTarget deregisters a target. Removing the target that carries a
// performing or pending gesture returns the global state to idle. Returns
// false if the id is unknown.
func (m *Manager) RemoveTarget(id int) bool {
	for i, t := range m.targets {
		if t.ID() == id {
			t.onChange = nil
			m.targets = append(m.targets[:i], m.targets[i+1:]...)
			if m.hasEngaged && m.engagedID == id {
				m.hasEngaged = false
			}
			// Losing the pending leader or the performing target cancels the
			// gesture; a finished selection stands until reset.
			if m.hasPending && m.pendingID == id {
				m.hasPending = false
			}
			if !m.hasEngaged && (m.state == StatePerforming || m.state == StatePending) {
				m.hasPending = false
				m.setGlobal(StateIdle)
			}
			return true
		}
	}
	return false
}

// Target returns the target with the given id, or nil.
func (m *Manager) Target(id int) *Target {
	for _, t := range m.targets {
		if t.ID() == id {
			return t
		}
	}
	return nil
}

// Targets returns the targets in registration order.
func (m *Manager) Targets() []*Target {
	out := make([]*Target, len(m.targets))
	copy(out, m.targets)
	return out
}

// Active reports whether a hand is being tracked.
func (m *Manager) Active() bool { return m.active }

// State returns the global state.
func (m *Manager) State() State { return m.state }

// HandHistory returns a copy of the recorded hand samples, oldest first.
func (m *Manager) HandHistory() []Sample { return m.hand.All() }

// SetActive switches hand tracking on or off. Repeating the current value
// is a no-op.
//
// Deactivating clears the hand history and every target's history and
// confidence, and forces all states to inactive. Activating moves inactive
// targets to idle and the global state from inactive to idle.
func (m *Manager) SetActive(active bool) {
	if m.active == active {
		return
	}
	m.active = active

	if !active {
		m.hand.Clear()
		for _, t := range m.targets {
			t.Clear()
			t.SetState(StateInactive)
		}
		m.setGlobal(StateInactive)
		m.hasEngaged = false
		m.hasPending = false
		return
	}

	for _, t := range m.targets {
		t.Restart()
		if t.State() == StateInactive {
			t.SetState(StateIdle)
		}
	}
	if m.state == StateInactive {
		m.setGlobal(StateIdle)
	}
}

// Tick advances the motion of every target to time now.
func (m *Manager) Tick(now time.Time) {
	m.now = now
	for _, t := range m.targets {
		t.Advance(now)
	}
}

// RecordHandSample appends a hand-joint sample to the hand history.
func (m *Manager) RecordHandSample(s Sample) error {
	if newest, ok := m.hand.Newest(); ok && s.Timestamp.Before(newest.Timestamp) {
		return fmt.Errorf("%w: %v before %v", ErrSampleOutOfOrder, s.Timestamp, newest.Timestamp)
	}
	m.hand.Push(s)
	return nil
}

// OnHandSampleRecorded stamps the current position of every target so the
// target histories stay aligned with the hand history.
func (m *Manager) OnHandSampleRecorded(now time.Time) {
	m.now = now
	for _, t := range m.targets {
		t.RecordSample(now)
	}
}

// CycleTargetState steps a target to its next state, independently of
// arbitration. Returns false if the id is unknown.
func (m *Manager) CycleTargetState(id int) bool {
	t := m.Target(id)
	if t == nil {
		return false
	}
	t.CycleState()
	return true
}

// SetTargetState overrides a target's state. Returns false if the id is
// unknown.
func (m *Manager) SetTargetState(id int, s State) bool {
	t := m.Target(id)
	if t == nil {
		return false
	}
	t.SetState(s)
	return true
}

// EvaluateCorrelations computes every non-inactive target's confidence against
// the hand history, picks the leader and applies at most one global
// transition.
//
// The pass is skipped entirely while the hand history is shorter than
// MinFrames. Within Debounce of the last global change confidences are
// still updated but no transition is applied.
func (m *Manager) EvaluateCorrelations(now time.Time) Evaluation {
	ev := Evaluation{At: now, State: m.state}

	if m.hand.Len() < m.cfg.MinFrames {
		ev.Skipped = true
		return ev
	}
	m.now = now

	hand := m.hand.Last(m.cfg.MaxFrames)
	ev.Confidences = make(map[int]float64, len(m.targets))

	var leader, runnerUp *Target
	for _, t := range m.targets {
		if t.State() == StateInactive {
			continue
		}

		t.correlation = axisCorrelation(t.history.Last(m.cfg.MaxFrames), hand)
		ev.Confidences[t.ID()] = t.correlation

		// Strict comparison: on ties the earlier target keeps the lead.
		if leader == nil || t.correlation > leader.correlation {
			runnerUp = leader
			leader = t
		} else if runnerUp == nil || t.correlation > runnerUp.correlation {
			runnerUp = t
		}
	}

	if leader != nil {
		ev.HasLeader = true
		ev.LeaderID = leader.ID()
		ev.Leader = leader.correlation
	}
	if runnerUp != nil {
		ev.HasRunnerUp = true
		ev.RunnerUpID = runnerUp.ID()
		ev.RunnerUp = runnerUp.correlation
	}

	if !m.lastChange.IsZero() && now.Sub(m.lastChange) < m.cfg.Debounce {
		ev.Debounced = true
		return ev
	}
	if leader == nil {
		return ev
	}

	ev.Changed = m.arbitrate(leader, now)
	ev.State = m.state
	return ev
}

// arbitrate applies the transition for the current global state.
func (m *Manager) arbitrate(leader *Target, now time.Time) bool {
	confidence := leader.correlation

	switch m.state {
	case StateIdle:
		if confidence >= m.cfg.LowThreshold {
			m.engage(leader)
			leader.SetState(StatePerforming)
			return m.transition(StatePerforming, now)
		}

	case StatePerforming:
		if confidence < m.cfg.LowThreshold {
			m.disengage()
			leader.SetState(StateIdle)
			return m.transition(StateIdle, now)
		}
		if confidence >= m.cfg.HighThreshold {
			m.engage(leader)
			leader.SetState(StatePending)
			m.pendingID = leader.ID()
			m.hasPending = true
			m.pendingStart = now
			return m.transition(StatePending, now)
		}

	case StatePending:
		// A different leader stalls the countdown without reverting.
		if m.hasPending && m.pendingID == leader.ID() && now.Sub(m.pendingStart) > m.cfg.PendingTime {
			leader.SetState(StateSelected)
			return m.transition(StateSelected, now)
		}
	}

	return false
}

// engage makes t the target carrying the global state, returning a
// previously engaged target to idle.
func (m *Manager) engage(t *Target) {
	if m.hasEngaged && m.engagedID != t.ID() {
		m.disengage()
	}
	m.engagedID = t.ID()
	m.hasEngaged = true
}

func (m *Manager) disengage() {
	if !m.hasEngaged {
		return
	}
	if prev := m.Target(m.engagedID); prev != nil && prev.State() != StateInactive {
		prev.SetState(StateIdle)
	}
	m.hasEngaged = false
}

// transition changes the global state from arbitration and restarts the
// debounce window.
func (m *Manager) transition(s State, now time.Time) bool {
	m.lastChange = now
	return m.setGlobal(s)
}

func (m *Manager) setGlobal(s State) bool {
	if s == m.state {
		return false
	}
	from := m.state
	m.state = s
	m.emit(StateChange{Scope: ScopeGlobal, From: from, To: s, At: m.now})
	return true
}

func (m *Manager) targetChanged(id int, from, to State) {
	m.emit(StateChange{Scope: ScopeTarget, TargetID: id, From: from, To: to, At: m.now})
}

func (m *Manager) emit(change StateChange) {
	for _, o := range m.observers {
		o.StateChanged(change)
	}
}

// Snapshot returns a copy of the observable state.
func (m *Manager) Snapshot() Snapshot {
	snap := Snapshot{
		Active:      m.active,
		State:       m.state,
		HandSamples: m.hand.Len(),
		Targets:     make([]TargetView, len(m.targets)),
	}
	for i, t := range m.targets {
		x, y := t.Position()
		snap.Targets[i] = TargetView{
			ID:          t.ID(),
			State:       t.State(),
			Correlation: t.Correlation(),
			Angle:       t.Angle(),
			X:           x,
			Y:           y,
			SizeFactor:  t.SizeFactor(),
			Samples:     t.history.Len(),
		}
	}
	return snap
}
