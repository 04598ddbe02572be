package trace

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/whirling/internal/session"
)

// queueSize bounds the events waiting to be written.
const queueSize = 1024

// Recorder writes the events of one session to a Store. Events are queued
// and written by a single goroutine so the session never blocks on sqlite;
// when the queue is full the event is dropped and counted.
type Recorder struct {
	store     *Store
	sessionID string
	now       func() time.Time
	cancel    func()

	queue chan item
	done  chan struct{}
	// seq is owned by the writer goroutine.
	seq     int
	dropped atomic.Int64

	mu     sync.Mutex
	closed bool
}

// item is a queued event, or a flush marker when flushed is set.
type item struct {
	event   session.Event
	flushed chan struct{}
}

// Attach registers the session in the store and subscribes to its events.
func Attach(st *Store, s *session.Session) (*Recorder, error) {
	config, err := json.Marshal(s.Config())
	if err != nil {
		return nil, fmt.Errorf("failed to encode session config: %w", err)
	}

	err = st.Sessions().Create(&Session{
		ID:        s.ID(),
		StartedAt: s.Now(),
		Targets:   len(s.Targets()),
		Config:    config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}

	r := newRecorder(st, s.ID(), s.Now, queueSize)
	r.start()
	r.cancel = s.Subscribe(r.Handle)
	return r, nil
}

func newRecorder(st *Store, sessionID string, now func() time.Time, size int) *Recorder {
	return &Recorder{
		store:     st,
		sessionID: sessionID,
		now:       now,
		cancel:    func() {},
		queue:     make(chan item, size),
		done:      make(chan struct{}),
	}
}

func (r *Recorder) start() {
	go r.run()
}

// SessionID returns the id of the recorded session.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Handle queues an event for writing. Events of other sessions and kinds
// that are not traced are ignored.
func (r *Recorder) Handle(e session.Event) {
	if e.SessionID != r.sessionID {
		return
	}
	switch {
	case e.Kind == session.EventEvaluation && e.Evaluation != nil:
	case e.Kind == session.EventState && e.Change != nil:
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- item{event: e}:
	default:
		r.dropped.Add(1)
		log.Printf("trace: queue full, dropped %s event", e.Kind)
	}
}

// Flush blocks until every event queued before the call is written.
func (r *Recorder) Flush() {
	flushed := make(chan struct{})
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue <- item{flushed: flushed}
	r.mu.Unlock()
	<-flushed
}

func (r *Recorder) run() {
	defer close(r.done)
	for it := range r.queue {
		if it.flushed != nil {
			close(it.flushed)
			continue
		}
		r.write(it.event)
	}
}

func (r *Recorder) write(e session.Event) {
	var err error
	switch e.Kind {
	case session.EventEvaluation:
		r.seq++
		err = r.store.Evaluations().Insert(evaluationRows(r.sessionID, r.seq, e))
	case session.EventState:
		err = r.store.Transitions().Insert(Transition{
			SessionID: r.sessionID,
			At:        e.At,
			Scope:     e.Change.Scope,
			TargetID:  e.Change.TargetID,
			From:      e.Change.From,
			To:        e.Change.To,
		})
	}

	if err != nil {
		r.dropped.Add(1)
		log.Printf("trace: failed to record %s event: %v", e.Kind, err)
	}
}

func evaluationRows(sessionID string, seq int, e session.Event) []Evaluation {
	ev := e.Evaluation
	ids := make([]int, 0, len(ev.Confidences))
	for id := range ev.Confidences {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	at := ev.At
	if at.IsZero() {
		at = e.At
	}

	rows := make([]Evaluation, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, Evaluation{
			SessionID:   sessionID,
			Seq:         seq,
			At:          at,
			TargetID:    id,
			Correlation: ev.Confidences[id],
			Leader:      ev.HasLeader && ev.LeaderID == id,
			State:       ev.State,
		})
	}
	return rows
}

// Dropped returns how many events were lost to a full queue or a failed
// write.
func (r *Recorder) Dropped() int {
	return int(r.dropped.Load())
}

// Close unsubscribes, writes what is still queued and records the end of
// the session.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.cancel()
	<-r.done
	return r.store.Sessions().End(r.sessionID, r.now())
}
