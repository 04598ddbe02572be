package gesture

import (
	"errors"
	"fmt"
	"time"
)

// Default arbitration settings.
const (
	// DefaultMinFrames is the smallest hand history that is correlated.
	DefaultMinFrames = 30
	// DefaultMaxFrames bounds every history and the correlation window.
	DefaultMaxFrames = 60
	// DefaultLowThreshold moves the leader from idle to performing.
	DefaultLowThreshold = 0.75
	// DefaultHighThreshold moves the leader from performing to pending.
	DefaultHighThreshold = 0.85
	// DefaultPendingTime is how long the leader must stay pending.
	DefaultPendingTime = 1500 * time.Millisecond
	// DefaultDebounce is the minimum time between global state changes.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultTargetRadius is the radius of the moving target marker.
	DefaultTargetRadius = 0.05
	// DefaultBaseSizeMultiplier is the marker scale at zero correlation.
	DefaultBaseSizeMultiplier = 0.5
	// DefaultCorrelationSizeMultiplier scales the marker by correlation.
	DefaultCorrelationSizeMultiplier = 0.5
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid gesture config")

// Config holds the arbitration thresholds and window sizes.
type Config struct {
	MinFrames     int
	MaxFrames     int
	LowThreshold  float64
	HighThreshold float64
	PendingTime   time.Duration
	Debounce      time.Duration

	TargetRadius              float64
	BaseSizeMultiplier        float64
	CorrelationSizeMultiplier float64
}

// DefaultConfig returns a Config with the default thresholds.
func DefaultConfig() Config {
	return Config{
		MinFrames:                 DefaultMinFrames,
		MaxFrames:                 DefaultMaxFrames,
		LowThreshold:              DefaultLowThreshold,
		HighThreshold:             DefaultHighThreshold,
		PendingTime:               DefaultPendingTime,
		Debounce:                  DefaultDebounce,
		TargetRadius:              DefaultTargetRadius,
		BaseSizeMultiplier:        DefaultBaseSizeMultiplier,
		CorrelationSizeMultiplier: DefaultCorrelationSizeMultiplier,
	}
}

// Validate checks that the window bounds and thresholds are consistent.
func (c Config) Validate() error {
	if c.MinFrames < 2 {
		return fmt.Errorf("%w: min frames %d is below 2", ErrInvalidConfig, c.MinFrames)
	}
	if c.MaxFrames < c.MinFrames {
		return fmt.Errorf("%w: max frames %d is below min frames %d", ErrInvalidConfig, c.MaxFrames, c.MinFrames)
	}
	if c.LowThreshold <= 0 || c.LowThreshold > 1 {
		return fmt.Errorf("%w: low threshold %.2f outside (0, 1]", ErrInvalidConfig, c.LowThreshold)
	}
	if c.HighThreshold < c.LowThreshold || c.HighThreshold > 1 {
		return fmt.Errorf("%w: high threshold %.2f outside [%.2f, 1]", ErrInvalidConfig, c.HighThreshold, c.LowThreshold)
	}
	if c.PendingTime < 0 || c.Debounce < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	}
	if c.TargetRadius <= 0 {
		return fmt.Errorf("%w: target radius must be positive", ErrInvalidConfig)
	}
	if c.BaseSizeMultiplier < 0 || c.CorrelationSizeMultiplier < 0 {
		return fmt.Errorf("%w: negative size multiplier", ErrInvalidConfig)
	}
	return nil
}
