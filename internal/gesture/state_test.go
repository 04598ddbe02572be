package gesture

import (
	"encoding/json"
	"testing"
)

func TestState_NextWraps(t *testing.T) {
	s := StateInactive
	seen := make(map[State]bool)
	for i := 0; i < numStates; i++ {
		seen[s] = true
		s = s.Next()
	}

	if s != StateInactive {
		t.Errorf("expected cycle to return to inactive, got %s", s)
	}
	if len(seen) != numStates {
		t.Errorf("expected %d distinct states, got %d", numStates, len(seen))
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		input   string
		want    State
		wantErr bool
	}{
		{"inactive", StateInactive, false},
		{"IDLE", StateIdle, false},
		{" Performing ", StatePerforming, false},
		{"pending", StatePending, false},
		{"selected", StateSelected, false},
		{"hovering", StateInactive, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseState(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestState_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]State{"state": StatePending})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"state":"pending"}` {
		t.Errorf("unexpected encoding: %s", data)
	}

	var decoded struct {
		State State `json:"state"`
	}
	if err := json.Unmarshal([]byte(`{"state":"selected"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.State != StateSelected {
		t.Errorf("expected selected, got %s", decoded.State)
	}
}

func TestState_StringOutOfRange(t *testing.T) {
	if got := State(42).String(); got != "state(42)" {
		t.Errorf("expected state(42), got %q", got)
	}
}
