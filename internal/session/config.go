package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/whirling/internal/gesture"
)

// Default cadences.
const (
	// DefaultFrameInterval is the motion tick period (about 60 Hz).
	DefaultFrameInterval = 16 * time.Millisecond
	// DefaultCorrelationInterval is the correlation evaluation period.
	DefaultCorrelationInterval = 200 * time.Millisecond
	// DefaultBlinkInterval is the blink half period of a pending target.
	DefaultBlinkInterval = 500 * time.Millisecond
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid session config")

// Config holds the arbitration settings and the scheduling cadences.
type Config struct {
	Gesture             gesture.Config
	FrameInterval       time.Duration
	CorrelationInterval time.Duration
	BlinkInterval       time.Duration
}

// DefaultConfig returns a Config with the default settings.
func DefaultConfig() Config {
	return Config{
		Gesture:             gesture.DefaultConfig(),
		FrameInterval:       DefaultFrameInterval,
		CorrelationInterval: DefaultCorrelationInterval,
		BlinkInterval:       DefaultBlinkInterval,
	}
}

// Validate checks the gesture settings and that every cadence is positive.
func (c Config) Validate() error {
	if err := c.Gesture.Validate(); err != nil {
		return err
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("%w: frame interval must be positive, got %v", ErrInvalidConfig, c.FrameInterval)
	}
	if c.CorrelationInterval <= 0 {
		return fmt.Errorf("%w: correlation interval must be positive, got %v", ErrInvalidConfig, c.CorrelationInterval)
	}
	if c.BlinkInterval <= 0 {
		return fmt.Errorf("%w: blink interval must be positive, got %v", ErrInvalidConfig, c.BlinkInterval)
	}
	return nil
}
