package gesture

import (
	"errors"
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func newTestTarget(t *testing.T, cfg TargetConfig) *Target {
	t.Helper()
	target, err := NewTarget(cfg, DefaultConfig(), DefaultMaxFrames)
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	return target
}

func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TargetConfig
		wantErr bool
	}{
		{"valid", TargetConfig{ID: 1, Radius: 0.2, Period: time.Second}, false},
		{"zero period", TargetConfig{ID: 1, Radius: 0.2}, true},
		{"negative period", TargetConfig{ID: 1, Radius: 0.2, Period: -time.Second}, true},
		{"zero radius", TargetConfig{ID: 1, Period: time.Second}, true},
		{"NaN phase", TargetConfig{ID: 1, Radius: 0.2, Period: time.Second, Phase: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTarget) {
					t.Errorf("expected ErrInvalidTarget, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTarget_FirstAdvanceOnlyRecordsTime(t *testing.T) {
	target := newTestTarget(t, TargetConfig{ID: 0, Radius: 0.2, Period: 2 * time.Second, Phase: 1})

	target.Advance(t0.Add(time.Hour))

	if target.Angle() != 1 {
		t.Errorf("expected angle to stay at phase 1, got %f", target.Angle())
	}
}

func TestTarget_AdvanceDirection(t *testing.T) {
	t.Run("clockwise increases theta", func(t *testing.T) {
		target := newTestTarget(t, TargetConfig{ID: 0, Radius: 0.2, Period: 2 * time.Second, Clockwise: true})
		target.Advance(t0)
		target.Advance(t0.Add(500 * time.Millisecond))

		if math.Abs(target.Angle()-math.Pi/2) > epsilon {
			t.Errorf("expected angle π/2, got %f", target.Angle())
		}
		x, y := target.Position()
		if math.Abs(x) > epsilon || math.Abs(y-0.2) > epsilon {
			t.Errorf("expected position (0, 0.2), got (%f, %f)", x, y)
		}
	})

	t.Run("counter-clockwise wraps below zero", func(t *testing.T) {
		target := newTestTarget(t, TargetConfig{ID: 0, Radius: 0.2, Period: 2 * time.Second, Clockwise: false})
		target.Advance(t0)
		target.Advance(t0.Add(500 * time.Millisecond))

		if math.Abs(target.Angle()-3*math.Pi/2) > epsilon {
			t.Errorf("expected angle 3π/2, got %f", target.Angle())
		}
	})
}

func TestTarget_AdvanceIgnoresBackwardTime(t *testing.T) {
	target := newTestTarget(t, TargetConfig{ID: 0, Radius: 0.2, Period: 2 * time.Second, Clockwise: true})
	target.Advance(t0)
	target.Advance(t0.Add(500 * time.Millisecond))

	target.Advance(t0.Add(250 * time.Millisecond))
	if math.Abs(target.Angle()-math.Pi/2) > epsilon {
		t.Fatalf("expected angle π/2 after a backward step, got %f", target.Angle())
	}

	target.Advance(t0.Add(time.Second))
	if math.Abs(target.Angle()-math.Pi) > epsilon {
		t.Errorf("expected angle π, got %f", target.Angle())
	}
}

func TestTarget_AngleStaysNormalized(t *testing.T) {
	for _, clockwise := range []bool{true, false} {
		target := newTestTarget(t, TargetConfig{ID: 0, Radius: 0.2, Period: 1500 * time.Millisecond, Clockwise: clockwise, Phase: 5 * math.Pi})
		now := t0
		for i := 0; i < 1000; i++ {
			target.Advance(now)
			if a := target.Angle(); a < 0 || a >= 2*math.Pi {
				t.Fatalf("clockwise=%v step %d: angle %f outside [0, 2π)", clockwise, i, a)
			}
			now = now.Add(time.Duration(7+i%50) * time.Millisecond)
		}
	}
}

func TestTarget_RestartSkipsGap(t *testing.T) {
	target := newTestTarget(t, TargetConfig{ID: 0, Radius: 0.2, Period: 2 * time.Second, Clockwise: true})
	target.Advance(t0)
	target.Advance(t0.Add(100 * time.Millisecond))
	before := target.Angle()

	target.Restart()
	target.Advance(t0.Add(time.Minute))

	if target.Angle() != before {
		t.Errorf("expected angle %f after restart, got %f", before, target.Angle())
	}
}

func TestTarget_RecordSampleBounded(t *testing.T) {
	target, err := NewTarget(TargetConfig{ID: 0, Radius: 0.2, Period: time.Second, Clockwise: true}, DefaultConfig(), 10)
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}

	now := t0
	for i := 0; i < 25; i++ {
		target.Advance(now)
		target.RecordSample(now)
		now = now.Add(20 * time.Millisecond)
	}

	history := target.History()
	if len(history) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(history))
	}
	// Oldest entries were evicted first.
	if want := t0.Add(15 * 20 * time.Millisecond); !history[0].Timestamp.Equal(want) {
		t.Errorf("expected oldest sample at %v, got %v", want, history[0].Timestamp)
	}
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Errorf("sample %d is older than sample %d", i, i-1)
		}
	}
	last := history[len(history)-1]
	x, y := target.Position()
	if last.X != x || last.Y != y || last.Theta != target.Angle() {
		t.Errorf("expected newest sample to match current position")
	}
}

func TestTarget_CycleState(t *testing.T) {
	target := newTestTarget(t, TargetConfig{ID: 3, Radius: 0.2, Period: time.Second})

	var changes []State
	target.onChange = func(id int, from, to State) {
		if id != 3 {
			t.Errorf("expected change for target 3, got %d", id)
		}
		changes = append(changes, to)
	}

	want := []State{StateIdle, StatePerforming, StatePending, StateSelected, StateInactive}
	for _, w := range want {
		target.CycleState()
		if target.State() != w {
			t.Errorf("expected state %s, got %s", w, target.State())
		}
	}
	if len(changes) != len(want) {
		t.Errorf("expected %d notifications, got %d", len(want), len(changes))
	}
}

func TestTarget_SetStateSameValueIsSilent(t *testing.T) {
	target := newTestTarget(t, TargetConfig{ID: 0, Radius: 0.2, Period: time.Second})
	calls := 0
	target.onChange = func(int, State, State) { calls++ }

	target.SetState(StateInactive)

	if calls != 0 {
		t.Errorf("expected no notification, got %d", calls)
	}
}

func TestTarget_SizeFactor(t *testing.T) {
	target := newTestTarget(t, TargetConfig{ID: 0, Radius: 0.2, Period: time.Second})
	target.correlation = 0.6

	tests := []struct {
		state State
		want  float64
	}{
		{StateInactive, 1},
		{StateIdle, 0.8},
		{StatePerforming, 0.8},
		{StatePending, 0.8},
		{StateSelected, 1},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			target.state = tt.state
			if got := target.SizeFactor(); math.Abs(got-tt.want) > epsilon {
				t.Errorf("expected size factor %f, got %f", tt.want, got)
			}
			if got, want := target.Size(), DefaultTargetRadius*tt.want; math.Abs(got-want) > epsilon {
				t.Errorf("expected size %f, got %f", want, got)
			}
		})
	}
}

func TestTarget_Clear(t *testing.T) {
	target := newTestTarget(t, TargetConfig{ID: 0, Radius: 0.2, Period: time.Second})
	target.RecordSample(t0)
	target.correlation = 0.9

	target.Clear()

	if len(target.History()) != 0 {
		t.Error("expected empty history after Clear")
	}
	if target.Correlation() != 0 {
		t.Errorf("expected correlation 0 after Clear, got %f", target.Correlation())
	}
}
