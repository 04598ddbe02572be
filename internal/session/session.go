// Package session runs a gesture.Manager on a scheduler: it drives the
// motion tick and the correlation cadence, serializes every operation and
// publishes state changes to subscribers.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/whirling/internal/gesture"
	"github.com/ayusman/whirling/internal/timeutil"
)

// ErrDisposed is returned by operations on a disposed session.
var ErrDisposed = errors.New("session disposed")

// TargetView is a target's observable state plus what is needed to draw it.
type TargetView struct {
	gesture.TargetView
	Render gesture.RenderState `json:"render"`
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	ID          string        `json:"id"`
	Active      bool          `json:"active"`
	State       gesture.State `json:"state"`
	HandSamples int           `json:"hand_samples"`
	Targets     []TargetView  `json:"targets"`
}

// Session owns a gesture.Manager. All methods are safe for concurrent use.
type Session struct {
	id      string
	cfg     Config
	sched   timeutil.Scheduler
	targets []gesture.TargetConfig

	mu       sync.Mutex
	mgr      *gesture.Manager
	queue    []Event
	cancels  []func()
	blinkers map[int]func()
	dimmed   map[int]bool
	started  bool
	disposed bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New creates an inactive session with the given targets.
func New(cfg Config, sched timeutil.Scheduler, targets []gesture.TargetConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		sched = timeutil.NewTickerScheduler(nil)
	}

	mgr, err := gesture.NewManager(cfg.Gesture)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if _, err := mgr.AddTarget(t); err != nil {
			return nil, err
		}
	}

	s := &Session{
		id:       uuid.New().String(),
		cfg:      cfg,
		sched:    sched,
		targets:  append([]gesture.TargetConfig(nil), targets...),
		mgr:      mgr,
		blinkers: make(map[int]func()),
		dimmed:   make(map[int]bool),
		subs:     make(map[int]func(Event)),
	}
	mgr.Observe(gesture.ObserverFunc(s.stateChanged))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Targets returns the target configurations in registration order.
func (s *Session) Targets() []gesture.TargetConfig {
	return append([]gesture.TargetConfig(nil), s.targets...)
}

// Now returns the scheduler time.
func (s *Session) Now() time.Time { return s.sched.Now() }

// Start registers the motion tick and the correlation cadence. Calling it
// again is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrDisposed
	}
	if s.started {
		return nil
	}
	s.started = true
	s.cancels = append(s.cancels,
		s.sched.Every(s.cfg.FrameInterval, func(now time.Time) { s.Tick(now) }),
		s.sched.Every(s.cfg.CorrelationInterval, func(now time.Time) { s.Evaluate(now) }),
	)
	return nil
}

// Dispose cancels every scheduled callback and drops all subscribers.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	for id, cancel := range s.blinkers {
		cancel()
		delete(s.blinkers, id)
	}
	s.queue = nil
	s.mu.Unlock()

	s.subMu.Lock()
	s.subs = make(map[int]func(Event))
	s.subMu.Unlock()
}

// Subscribe registers fn for every subsequent event. Events of one
// operation are delivered in order, outside the session lock, so fn may
// call back into the session.
func (s *Session) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// SetActive switches hand tracking on or off and reports whether the value
// changed.
func (s *Session) SetActive(active bool) bool {
	s.mu.Lock()
	changed := s.setActive(active)
	events := s.drain()
	s.mu.Unlock()

	s.dispatch(events)
	return changed
}

// Reset deactivates and reactivates the session, clearing every history.
func (s *Session) Reset() {
	s.mu.Lock()
	s.setActive(false)
	s.setActive(true)
	events := s.drain()
	s.mu.Unlock()

	s.dispatch(events)
}

// RecordHand appends a hand sample and stamps every target position at the
// sample time.
func (s *Session) RecordHand(sample gesture.Sample) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	err := s.mgr.RecordHandSample(sample)
	if err == nil {
		s.mgr.OnHandSampleRecorded(sample.Timestamp)
	}
	events := s.drain()
	s.mu.Unlock()

	s.dispatch(events)
	return err
}

// Tick advances the target motion to now.
func (s *Session) Tick(now time.Time) {
	s.mu.Lock()
	s.mgr.Tick(now)
	s.mu.Unlock()
}

// Evaluate runs one correlation pass at now.
func (s *Session) Evaluate(now time.Time) gesture.Evaluation {
	s.mu.Lock()
	ev := s.mgr.EvaluateCorrelations(now)
	if !ev.Skipped {
		evCopy := ev
		s.queue = append(s.queue, Event{Kind: EventEvaluation, At: now, Evaluation: &evCopy})
	}
	events := s.drain()
	s.mu.Unlock()

	s.dispatch(events)
	return ev
}

// CycleTarget steps a target to its next state. Returns false if the id is
// unknown.
func (s *Session) CycleTarget(id int) bool {
	s.mu.Lock()
	ok := s.mgr.CycleTargetState(id)
	events := s.drain()
	s.mu.Unlock()

	s.dispatch(events)
	return ok
}

// Snapshot returns the current state including render hints.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.mgr.Snapshot()
	snap := Snapshot{
		ID:          s.id,
		Active:      ms.Active,
		State:       ms.State,
		HandSamples: ms.HandSamples,
		Targets:     make([]TargetView, len(ms.Targets)),
	}
	for i, tv := range ms.Targets {
		snap.Targets[i] = TargetView{
			TargetView: tv,
			Render:     gesture.Render(s.cfg.Gesture, tv.ID, tv.State, tv.Correlation, s.dimmed[tv.ID]),
		}
	}
	return snap
}

// setActive must be called with s.mu held.
func (s *Session) setActive(active bool) bool {
	if s.mgr.Active() == active {
		return false
	}
	s.mgr.SetActive(active)
	s.queue = append(s.queue, Event{Kind: EventActive, At: s.sched.Now(), Active: active})
	return true
}

// stateChanged runs inside manager calls, so s.mu is held.
func (s *Session) stateChanged(change gesture.StateChange) {
	at := change.At
	if at.IsZero() {
		at = s.sched.Now()
	}
	c := change
	s.queue = append(s.queue, Event{Kind: EventState, At: at, Change: &c, TargetID: change.TargetID})

	if change.Scope != gesture.ScopeTarget {
		return
	}
	switch {
	case change.To == gesture.StatePending:
		s.startBlink(change.TargetID)
	case change.From == gesture.StatePending:
		s.stopBlink(change.TargetID)
	}
	if change.To == gesture.StateSelected {
		s.queue = append(s.queue, Event{Kind: EventSelected, At: at, TargetID: change.TargetID})
	}
}

func (s *Session) startBlink(id int) {
	if s.disposed {
		return
	}
	if _, ok := s.blinkers[id]; ok {
		return
	}
	s.dimmed[id] = false
	s.blinkers[id] = s.sched.Every(s.cfg.BlinkInterval, func(time.Time) {
		s.mu.Lock()
		if _, ok := s.blinkers[id]; ok {
			s.dimmed[id] = !s.dimmed[id]
		}
		s.mu.Unlock()
	})
}

func (s *Session) stopBlink(id int) {
	if cancel, ok := s.blinkers[id]; ok {
		cancel()
		delete(s.blinkers, id)
	}
	delete(s.dimmed, id)
}

// Blinking returns the ids of targets with a running blink, ascending.
func (s *Session) Blinking() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.blinkers))
	for id := range s.blinkers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// drain must be called with s.mu held.
func (s *Session) drain() []Event {
	if len(s.queue) == 0 {
		return nil
	}
	events := s.queue
	s.queue = nil
	for i := range events {
		events[i].SessionID = s.id
	}
	return events
}

func (s *Session) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}

	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), len(ids))
	for i, id := range ids {
		subs[i] = s.subs[id]
	}
	s.subMu.Unlock()

	for _, e := range events {
		for _, fn := range subs {
			fn(e)
		}
	}
}
