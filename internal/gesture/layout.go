package gesture

import (
	"math"
	"time"
)

// DefaultOrbitRadius is the orbit radius used by the built-in layouts.
const DefaultOrbitRadius = 0.2

// gridPeriods alternate between neighbouring targets.
var gridPeriods = []time.Duration{1500 * time.Millisecond, 2 * time.Second}

// gridPhases are applied per group of four targets, in degrees.
var gridPhases = []float64{0, 120, 240}

// GridLayout returns rows*cols targets with ids 0..n-1 whose motion
// parameters differ enough to tell them apart: periods alternate every
// target, direction flips every two targets and the phase shifts by 120°
// every four targets.
func GridLayout(rows, cols int, radius float64) []TargetConfig {
	if rows <= 0 || cols <= 0 {
		return nil
	}

	n := rows * cols
	targets := make([]TargetConfig, n)
	for i := 0; i < n; i++ {
		phase := gridPhases[(i/4)%len(gridPhases)]
		targets[i] = TargetConfig{
			ID:        i,
			Radius:    radius,
			Period:    gridPeriods[i%len(gridPeriods)],
			Clockwise: (i/2)%2 == 0,
			Phase:     phase * math.Pi / 180,
		}
	}
	return targets
}

// PairLayout returns two targets with the same period rotating in
// opposite directions.
func PairLayout(radius float64) []TargetConfig {
	return []TargetConfig{
		{ID: 0, Radius: radius, Period: 2 * time.Second, Clockwise: true},
		{ID: 1, Radius: radius, Period: 2 * time.Second, Clockwise: false},
	}
}
