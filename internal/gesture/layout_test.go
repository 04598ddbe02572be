package gesture

import (
	"math"
	"testing"
	"time"
)

func TestGridLayout(t *testing.T) {
	targets := GridLayout(3, 4, DefaultOrbitRadius)

	if len(targets) != 12 {
		t.Fatalf("expected 12 targets, got %d", len(targets))
	}

	tests := []struct {
		id        int
		period    time.Duration
		clockwise bool
		phaseDeg  float64
	}{
		{0, 1500 * time.Millisecond, true, 0},
		{1, 2 * time.Second, true, 0},
		{2, 1500 * time.Millisecond, false, 0},
		{3, 2 * time.Second, false, 0},
		{5, 2 * time.Second, true, 120},
		{10, 1500 * time.Millisecond, false, 240},
	}

	for _, tt := range tests {
		got := targets[tt.id]
		if got.ID != tt.id {
			t.Errorf("target %d: expected id %d, got %d", tt.id, tt.id, got.ID)
		}
		if got.Period != tt.period {
			t.Errorf("target %d: expected period %v, got %v", tt.id, tt.period, got.Period)
		}
		if got.Clockwise != tt.clockwise {
			t.Errorf("target %d: expected clockwise=%v, got %v", tt.id, tt.clockwise, got.Clockwise)
		}
		if want := tt.phaseDeg * math.Pi / 180; math.Abs(got.Phase-want) > epsilon {
			t.Errorf("target %d: expected phase %f, got %f", tt.id, want, got.Phase)
		}
		if err := got.Validate(); err != nil {
			t.Errorf("target %d: invalid config: %v", tt.id, err)
		}
	}
}

func TestGridLayout_Empty(t *testing.T) {
	if got := GridLayout(0, 4, DefaultOrbitRadius); got != nil {
		t.Errorf("expected nil layout, got %d targets", len(got))
	}
}

func TestPairLayout(t *testing.T) {
	targets := PairLayout(DefaultOrbitRadius)

	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Clockwise == targets[1].Clockwise {
		t.Error("expected the two targets to rotate in opposite directions")
	}
	if targets[0].Period != targets[1].Period {
		t.Error("expected the two targets to share a period")
	}
}
