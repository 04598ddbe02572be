package gesture

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const twoPi = 2 * math.Pi

// ErrInvalidTarget is returned when a TargetConfig fails validation.
var ErrInvalidTarget = errors.New("invalid orbit target")

// TargetConfig holds the fixed motion parameters of an orbit target.
type TargetConfig struct {
	ID        int           // Stable identifier, unique per manager
	Radius    float64       // Orbit radius
	Period    time.Duration // Time for one full revolution
	Clockwise bool          // Clockwise targets increase theta, others decrease it
	Phase     float64       // Initial angle in radians
}

// Validate checks the motion parameters.
func (c TargetConfig) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("%w %d: period must be positive, got %v", ErrInvalidTarget, c.ID, c.Period)
	}
	if c.Radius <= 0 || math.IsNaN(c.Radius) || math.IsInf(c.Radius, 0) {
		return fmt.Errorf("%w %d: radius must be positive, got %v", ErrInvalidTarget, c.ID, c.Radius)
	}
	if math.IsNaN(c.Phase) || math.IsInf(c.Phase, 0) {
		return fmt.Errorf("%w %d: phase must be finite", ErrInvalidTarget, c.ID)
	}
	return nil
}

// Target is a simulated reference point moving on a circle at a constant
// angular velocity. It keeps a bounded history of its recent positions
// and carries the state and confidence assigned by the Manager.
type Target struct {
	cfg    TargetConfig
	sizing Config

	theta    float64
	lastTime time.Time
	moving   bool

	correlation float64
	history     *History[TargetSample]
	state       State

	// onChange is set by the owning Manager.
	onChange func(id int, from, to State)
}

// NewTarget creates a target in the inactive state. historyCap bounds the
// position history; sizing supplies the marker size multipliers.
func NewTarget(cfg TargetConfig, sizing Config, historyCap int) (*Target, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Target{
		cfg:     cfg,
		sizing:  sizing,
		theta:   normalizeAngle(cfg.Phase),
		history: NewHistory[TargetSample](historyCap),
		state:   StateInactive,
	}, nil
}

// ID returns the target identifier.
func (t *Target) ID() int { return t.cfg.ID }

// Config returns the motion parameters.
func (t *Target) Config() TargetConfig { return t.cfg }

// Angle returns the current angle in [0, 2π).
func (t *Target) Angle() float64 { return t.theta }

// Position returns the current Cartesian position relative to the orbit
// center.
func (t *Target) Position() (x, y float64) {
	return t.cfg.Radius * math.Cos(t.theta), t.cfg.Radius * math.Sin(t.theta)
}

// Correlation returns the last computed match confidence in [-1, 1].
func (t *Target) Correlation() float64 { return t.correlation }

// State returns the current state.
func (t *Target) State() State { return t.state }

// History returns a copy of the recorded positions, oldest first.
func (t *Target) History() []TargetSample { return t.history.All() }

// Advance moves the target along its orbit to time now.
// The first call after construction or Restart only records now as the
// reference time, so a long gap never shows up as a jump.
func (t *Target) Advance(now time.Time) {
	if !t.moving {
		t.lastTime = now
		t.moving = true
		return
	}

	// A clock step backwards keeps the reference so the span is not
	// counted twice once time moves forward again.
	dt := now.Sub(t.lastTime).Seconds()
	if dt <= 0 {
		return
	}
	t.lastTime = now

	omega := twoPi / t.cfg.Period.Seconds()
	if t.cfg.Clockwise {
		t.theta += omega * dt
	} else {
		t.theta -= omega * dt
	}
	t.theta = normalizeAngle(t.theta)
}

// Restart forgets the motion reference time. The angle is kept.
func (t *Target) Restart() {
	t.moving = false
	t.lastTime = time.Time{}
}

// RecordSample appends the current position, stamped with now, to the
// history.
func (t *Target) RecordSample(now time.Time) {
	x, y := t.Position()
	t.history.Push(TargetSample{Timestamp: now, Theta: t.theta, X: x, Y: y})
}

// SetState assigns the state and notifies the owner if it changed.
func (t *Target) SetState(s State) {
	if s == t.state {
		return
	}
	from := t.state
	t.state = s
	if t.onChange != nil {
		t.onChange(t.cfg.ID, from, s)
	}
}

// CycleState advances to the next state in the fixed order.
func (t *Target) CycleState() {
	t.SetState(t.state.Next())
}

// Clear drops the history and the confidence.
func (t *Target) Clear() {
	t.history.Clear()
	t.correlation = 0
}

// SizeFactor returns the marker scale relative to the target radius.
func (t *Target) SizeFactor() float64 {
	return sizeFactor(t.sizing, t.state, t.correlation)
}

// Size returns the marker radius.
func (t *Target) Size() float64 {
	return t.sizing.TargetRadius * t.SizeFactor()
}

func sizeFactor(c Config, s State, correlation float64) float64 {
	switch {
	case s.Engaged():
		return c.BaseSizeMultiplier + correlation*c.CorrelationSizeMultiplier
	case s == StateSelected:
		return c.BaseSizeMultiplier + c.CorrelationSizeMultiplier
	default:
		return 1
	}
}

// normalizeAngle wraps theta into [0, 2π).
func normalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, twoPi)
	if theta < 0 {
		theta += twoPi
	}
	if theta >= twoPi {
		theta = 0
	}
	return theta
}
