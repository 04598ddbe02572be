// Package feed turns detected hands into hand samples and activity changes
// for a session.
package feed

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/whirling/internal/detector"
	"github.com/ayusman/whirling/internal/gesture"
)

// Sink receives the adapter output. *session.Session implements it.
type Sink interface {
	SetActive(active bool) bool
	RecordHand(sample gesture.Sample) error
}

// Config selects which hand and joint drive the session.
type Config struct {
	// Hand is "left", "right" or empty for any hand.
	Hand string
	// Joint is a joint name accepted by detector.JointIndex.
	Joint string
	// Mirror maps x to 1-x and y to 1-y.
	Mirror bool
	// KeepActiveWithoutHand keeps the session active while no hand is seen.
	KeepActiveWithoutHand bool
}

// DefaultConfig tracks the left wrist in mirrored coordinates.
func DefaultConfig() Config {
	return Config{
		Hand:   "left",
		Joint:  "wrist",
		Mirror: true,
	}
}

// Validate checks the hand side and joint name.
func (c Config) Validate() error {
	switch strings.ToLower(c.Hand) {
	case "", "left", "right":
	default:
		return fmt.Errorf("hand must be left, right or empty, got %q", c.Hand)
	}
	if _, err := detector.JointIndex(c.Joint); err != nil {
		return err
	}
	return nil
}

// Outcome says what Process did with one detection result.
type Outcome int

const (
	// Recorded means a sample of the tracked hand was recorded.
	Recorded Outcome = iota
	// NoHand means no hand was detected and the activity policy applied.
	NoHand
	// Ignored means hands were detected but none was the tracked side.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Recorded:
		return "recorded"
	case NoHand:
		return "no-hand"
	case Ignored:
		return "ignored"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Adapter applies a Config to detection results. It is safe for
// concurrent use.
type Adapter struct {
	sink Sink

	mu    sync.RWMutex
	cfg   Config
	joint int
}

// NewAdapter creates an Adapter writing to sink.
func NewAdapter(cfg Config, sink Sink) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	joint, _ := detector.JointIndex(cfg.Joint)
	return &Adapter{sink: sink, cfg: cfg, joint: joint}, nil
}

// Config returns the current settings.
func (a *Adapter) Config() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// SetKeepActive changes the no-hand policy.
func (a *Adapter) SetKeepActive(keep bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.KeepActiveWithoutHand = keep
}

// SetHand changes the tracked side.
func (a *Adapter) SetHand(hand string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.cfg
	next.Hand = hand
	if err := next.Validate(); err != nil {
		return err
	}
	a.cfg = next
	return nil
}

// SetJoint changes the tracked joint.
func (a *Adapter) SetJoint(name string) error {
	joint, err := detector.JointIndex(name)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Joint = name
	a.joint = joint
	return nil
}

// Process handles the hands detected at now. The first hand of the
// tracked side activates the sink and is recorded; an empty result applies
// the no-hand policy; other hands are ignored.
func (a *Adapter) Process(now time.Time, hands []detector.HandLandmarks) (Outcome, error) {
	a.mu.RLock()
	cfg := a.cfg
	joint := a.joint
	a.mu.RUnlock()

	if len(hands) == 0 {
		a.sink.SetActive(cfg.KeepActiveWithoutHand)
		return NoHand, nil
	}

	for i := range hands {
		if !hands[i].IsSide(cfg.Hand) {
			continue
		}
		p, _ := hands[i].Joint(joint)
		a.sink.SetActive(true)
		if err := a.sink.RecordHand(toSample(now, p, cfg.Mirror)); err != nil {
			return Recorded, err
		}
		return Recorded, nil
	}
	return Ignored, nil
}

func toSample(now time.Time, p detector.Point3D, mirror bool) gesture.Sample {
	s := gesture.Sample{Timestamp: now, X: p.X, Y: p.Y, Z: p.Z}
	if mirror {
		s.X = 1 - p.X
		s.Y = 1 - p.Y
	}
	return s
}
