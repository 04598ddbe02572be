package action

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func newTestRunner(t *testing.T, bindings ...Binding) *Runner {
	t.Helper()
	root := t.TempDir()
	writePlugin(t, root, "echo", echoScript)
	writePlugin(t, root, "failing", "#!/bin/sh\necho '{\"success\":false,\"error\":\"denied\"}'\n")

	reg := NewRegistry(root)
	if err := reg.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	r, err := NewRunner(reg, NewExecutor(5*time.Second), bindings)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func TestNewRunner_InvalidBindings(t *testing.T) {
	tests := []struct {
		name     string
		bindings []Binding
	}{
		{"negative target", []Binding{{TargetID: -1, Plugin: "echo", Action: "a"}}},
		{"missing plugin", []Binding{{TargetID: 0, Action: "a"}}},
		{"missing action", []Binding{{TargetID: 0, Plugin: "echo"}}},
		{"duplicate target", []Binding{
			{TargetID: 2, Plugin: "echo", Action: "a"},
			{TargetID: 2, Plugin: "echo", Action: "b"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(NewRegistry(t.TempDir()), NewExecutor(0), tt.bindings)
			if !errors.Is(err, ErrInvalidBinding) {
				t.Errorf("expected ErrInvalidBinding, got %v", err)
			}
		})
	}
}

func TestRunner_OnSelected(t *testing.T) {
	r := newTestRunner(t, Binding{TargetID: 1, Plugin: "echo", Action: "press", Params: json.RawMessage(`{"key":"a"}`)})

	at := time.Date(2026, 1, 15, 10, 0, 2, 0, time.UTC)
	resp, err := r.OnSelected(context.Background(), Selection{SessionID: "s1", TargetID: 1, Label: "Button 1", At: at})
	if err != nil {
		t.Fatalf("OnSelected() error = %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	got := data.Received
	if got.Action != "press" || got.TargetID != 1 || got.Label != "Button 1" || got.SessionID != "s1" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestRunner_OnSelected_Errors(t *testing.T) {
	r := newTestRunner(t,
		Binding{TargetID: 0, Plugin: "failing", Action: "press"},
		Binding{TargetID: 3, Plugin: "ghost", Action: "press"},
	)

	tests := []struct {
		name   string
		target int
		want   error
	}{
		{"unbound target", 9, ErrNoBinding},
		{"plugin reports failure", 0, ErrActionFailed},
		{"plugin not discovered", 3, ErrPluginNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.OnSelected(context.Background(), Selection{TargetID: tt.target})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunner_Bindings(t *testing.T) {
	r := newTestRunner(t,
		Binding{TargetID: 5, Plugin: "echo", Action: "b"},
		Binding{TargetID: 2, Plugin: "echo", Action: "a"},
	)

	got := r.Bindings()
	if len(got) != 2 || got[0].TargetID != 2 || got[1].TargetID != 5 {
		t.Errorf("expected bindings ordered by target, got %+v", got)
	}
	if _, ok := r.Binding(5); !ok {
		t.Error("expected binding for target 5")
	}
	if _, ok := r.Binding(4); ok {
		t.Error("expected no binding for target 4")
	}
}
