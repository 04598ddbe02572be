package timeutil

import (
	"sync"
	"time"
)

// Scheduler runs callbacks at a fixed interval.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// Every calls fn every d, first at Now()+d, until cancel is called.
	// cancel is idempotent.
	Every(d time.Duration, fn func(now time.Time)) (cancel func())
}

// TickerScheduler runs each registration on its own goroutine driven by a
// Clock ticker.
type TickerScheduler struct {
	clock Clock
}

// NewTickerScheduler creates a scheduler on clock. A nil clock uses
// RealClock.
func NewTickerScheduler(clock Clock) *TickerScheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &TickerScheduler{clock: clock}
}

// Now returns the clock time.
func (s *TickerScheduler) Now() time.Time {
	return s.clock.Now()
}

// Every starts a goroutine calling fn on every tick.
func (s *TickerScheduler) Every(d time.Duration, fn func(now time.Time)) func() {
	ticker := s.clock.NewTicker(d)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C():
				// A tick racing with cancel must not run.
				select {
				case <-done:
					return
				default:
				}
				fn(now)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler is a virtual clock for tests. Callbacks only run from
// Advance, synchronously and in due-time order.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	jobs  []*manualJob
	seq   int
	inRun bool
}

type manualJob struct {
	seq       int
	interval  time.Duration
	next      time.Time
	fn        func(time.Time)
	cancelled bool
}

// NewManualScheduler creates a ManualScheduler set to start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// Now returns the virtual time.
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Set moves the virtual time without running callbacks. Due times of
// existing registrations are kept.
func (s *ManualScheduler) Set(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t
}

// Pending returns the number of live registrations.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if !j.cancelled {
			n++
		}
	}
	return n
}

// Every registers fn. Non-positive intervals are ignored and return a
// no-op cancel.
func (s *ManualScheduler) Every(d time.Duration, fn func(now time.Time)) func() {
	if d <= 0 || fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.seq++
	job := &manualJob{seq: s.seq, interval: d, next: s.now.Add(d), fn: fn}
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		job.cancelled = true
	}
}

// Advance moves the virtual time forward by d, running every callback that
// falls due on the way. Each callback sees Now() equal to its due time.
// Callbacks may register or cancel jobs; a nested Advance is ignored.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	if s.inRun {
		s.mu.Unlock()
		return
	}
	s.inRun = true
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		job := s.nextDue(target)
		if job == nil {
			s.now = target
			s.compact()
			s.inRun = false
			s.mu.Unlock()
			return
		}
		s.now = job.next
		job.next = job.next.Add(job.interval)
		now := s.now
		s.mu.Unlock()

		job.fn(now)
	}
}

// nextDue returns the live job with the earliest due time not after target,
// breaking ties by registration order. Callers hold s.mu.
func (s *ManualScheduler) nextDue(target time.Time) *manualJob {
	var best *manualJob
	for _, j := range s.jobs {
		if j.cancelled || j.next.After(target) {
			continue
		}
		if best == nil || j.next.Before(best.next) || (j.next.Equal(best.next) && j.seq < best.seq) {
			best = j
		}
	}
	return best
}

func (s *ManualScheduler) compact() {
	live := s.jobs[:0]
	for _, j := range s.jobs {
		if !j.cancelled {
			live = append(live, j)
		}
	}
	for i := len(live); i < len(s.jobs); i++ {
		s.jobs[i] = nil
	}
	s.jobs = live
}
