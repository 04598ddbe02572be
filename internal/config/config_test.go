package config

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/whirling/internal/gesture"
	"github.com/ayusman/whirling/internal/session"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if diff := cmp.Diff(session.DefaultConfig(), cfg.SessionConfig()); diff != "" {
		t.Errorf("SessionConfig() mismatch (-want +got):\n%s", diff)
	}

	targets, err := cfg.Targets()
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if len(targets) != 12 {
		t.Errorf("expected 12 grid targets, got %d", len(targets))
	}
}

func TestLoadFile_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, "whirling.json", `{
		"gesture": {"pending_time": "2s", "low_threshold": 0.7, "base_size_multiplier": 0.25},
		"layout": {"kind": "pair"},
		"feed": {"hand": "right", "joint": "index_tip"},
		"actions": {"timeout": 250, "bindings": [{"target_id": 1, "plugin": "keyboard", "action": "press", "params": {"key": "space"}}]}
	}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	g := cfg.GestureConfig()
	if g.PendingTime != 2*time.Second {
		t.Errorf("expected pending time 2s, got %v", g.PendingTime)
	}
	if g.LowThreshold != 0.7 {
		t.Errorf("expected low threshold 0.7, got %v", g.LowThreshold)
	}
	if g.HighThreshold != gesture.DefaultHighThreshold {
		t.Errorf("expected default high threshold, got %v", g.HighThreshold)
	}
	if g.Debounce != gesture.DefaultDebounce {
		t.Errorf("expected default debounce, got %v", g.Debounce)
	}
	if g.BaseSizeMultiplier != 0.25 {
		t.Errorf("expected base size multiplier 0.25, got %v", g.BaseSizeMultiplier)
	}
	if g.CorrelationSizeMultiplier != gesture.DefaultCorrelationSizeMultiplier {
		t.Errorf("expected default correlation size multiplier, got %v", g.CorrelationSizeMultiplier)
	}

	targets, err := cfg.Targets()
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if len(targets) != 2 {
		t.Errorf("expected pair layout, got %d targets", len(targets))
	}

	f := cfg.FeedConfig()
	if f.Hand != "right" || f.Joint != "index_tip" || !f.Mirror {
		t.Errorf("unexpected feed config %+v", f)
	}

	if cfg.Actions.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("expected numeric timeout in ms, got %v", cfg.Actions.Timeout)
	}
	if len(cfg.Actions.Bindings) != 1 || string(cfg.Actions.Bindings[0].Params) != `{"key": "space"}` {
		t.Errorf("unexpected bindings %+v", cfg.Actions.Bindings)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default server addr, got %q", cfg.Server.Addr)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "whirling.yaml", "{}", ".json extension"},
		{"malformed json", "bad.json", "{", "failed to parse"},
		{"bad duration", "dur.json", `{"session": {"blink_interval": "soon"}}`, "invalid duration"},
		{"unknown layout", "layout.json", `{"layout": {"kind": "spiral"}}`, "unknown layout"},
		{"thresholds out of order", "th.json", `{"gesture": {"low_threshold": 0.9, "high_threshold": 0.8}}`, "high threshold"},
		{"negative size multiplier", "size.json", `{"gesture": {"correlation_size_multiplier": -1}}`, "negative size multiplier"},
		{"bad hand", "hand.json", `{"feed": {"hand": "both"}}`, "invalid configuration"},
		{"duplicate binding", "bind.json", `{"actions": {"bindings": [
			{"target_id": 1, "plugin": "p", "action": "a"},
			{"target_id": 1, "plugin": "p", "action": "b"}]}}`, "two action bindings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.file, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadFile_TooLarge(t *testing.T) {
	big := `{"server": {"static_dir": "` + strings.Repeat("x", maxFileSize) + `"}}`
	_, err := LoadFile(writeConfig(t, "big.json", big))
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestTargets_Custom(t *testing.T) {
	cfg := Default()
	cfg.Layout = Layout{
		Kind:   LayoutCustom,
		Radius: 0.3,
		Targets: []Target{
			{ID: 4, Period: D(time.Second), Clockwise: true, PhaseDeg: 90},
			{ID: 9, Radius: 0.1, Period: D(3 * time.Second)},
		},
	}

	targets, err := cfg.Targets()
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}

	want := []gesture.TargetConfig{
		{ID: 4, Radius: 0.3, Period: time.Second, Clockwise: true, Phase: math.Pi / 2},
		{ID: 9, Radius: 0.1, Period: 3 * time.Second},
	}
	if diff := cmp.Diff(want, targets); diff != "" {
		t.Errorf("Targets() mismatch (-want +got):\n%s", diff)
	}
}

func TestTargets_CustomErrors(t *testing.T) {
	tests := []struct {
		name    string
		targets []Target
		want    error
	}{
		{"duplicate id", []Target{{ID: 1, Period: D(time.Second)}, {ID: 1, Period: D(time.Second)}}, gesture.ErrDuplicateTarget},
		{"zero period", []Target{{ID: 1}}, gesture.ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Layout = Layout{Kind: LayoutCustom, Targets: tt.targets}
			if _, err := cfg.Targets(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	cfg := Default()
	cfg.Layout = Layout{Kind: LayoutCustom}
	if _, err := cfg.Targets(); err == nil {
		t.Error("expected error for an empty custom layout")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.json")
	cfg := Default()
	cfg.Gesture.PendingTime = D(1200 * time.Millisecond)

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("saved file is not JSON: %v", err)
	}
	if raw["gesture"]["pending_time"] != "1.2s" {
		t.Errorf("expected duration written as string, got %v", raw["gesture"]["pending_time"])
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
