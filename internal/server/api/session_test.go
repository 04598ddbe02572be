package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/whirling/internal/feed"
	"github.com/ayusman/whirling/internal/gesture"
	"github.com/ayusman/whirling/internal/session"
	"github.com/ayusman/whirling/internal/timeutil"
)

var start = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type fakeSwitch struct{ enabled bool }

func (s *fakeSwitch) SetEnabled(enabled bool) { s.enabled = enabled }
func (s *fakeSwitch) IsEnabled() bool         { return s.enabled }

func newTestHandler(t *testing.T) (*SessionHandler, *session.Session, *fakeSwitch) {
	t.Helper()
	sess, err := session.New(session.DefaultConfig(), timeutil.NewManualScheduler(start), gesture.PairLayout(gesture.DefaultOrbitRadius))
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}
	t.Cleanup(sess.Dispose)

	f, err := feed.NewAdapter(feed.DefaultConfig(), sess)
	if err != nil {
		t.Fatalf("feed.NewAdapter() error = %v", err)
	}
	sw := &fakeSwitch{enabled: true}
	return NewSessionHandler(sess, f, sw), sess, sw
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResponse {
	t.Helper()
	var resp StateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	return resp
}

func TestSessionHandler_State(t *testing.T) {
	h, sess, _ := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	resp := decodeState(t, rec)
	if resp.ID != sess.ID() {
		t.Errorf("expected session %q, got %q", sess.ID(), resp.ID)
	}
	if resp.Active {
		t.Error("expected a new session to be inactive")
	}
	if resp.State != gesture.StateInactive {
		t.Errorf("expected state %s, got %s", gesture.StateInactive, resp.State)
	}
	if len(resp.Targets) != 2 {
		t.Errorf("expected 2 targets, got %d", len(resp.Targets))
	}
	if resp.Policy == nil || resp.Policy.Hand != "left" || resp.Policy.Joint != "wrist" || !resp.Policy.Mirror {
		t.Errorf("unexpected policy %+v", resp.Policy)
	}
	if resp.Detection == nil || !*resp.Detection {
		t.Errorf("expected detection enabled, got %v", resp.Detection)
	}
}

func TestSessionHandler_SetActive(t *testing.T) {
	h, sess, _ := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/api/active", `{"active":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp["changed"] || !resp["active"] {
		t.Errorf("expected changed active response, got %v", resp)
	}
	if !sess.Snapshot().Active {
		t.Error("expected session to be active")
	}

	rec = serve(h, http.MethodPost, "/api/active", `{"active":true}`)
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["changed"] {
		t.Error("expected second activation to report no change")
	}
}

func TestSessionHandler_Reset(t *testing.T) {
	h, sess, _ := newTestHandler(t)
	sess.SetActive(true)
	if err := sess.RecordHand(gesture.Sample{Timestamp: start, X: 0.5, Y: 0.5}); err != nil {
		t.Fatal(err)
	}

	rec := serve(h, http.MethodPost, "/api/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := decodeState(t, rec).HandSamples; got != 0 {
		t.Errorf("expected empty hand history after reset, got %d samples", got)
	}
}

func TestSessionHandler_Policy(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/api/policy", `{"keep_active":true,"hand":"right","joint":"index_tip"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	p := decodeState(t, rec).Policy
	if p == nil || !p.KeepActive || p.Hand != "right" || p.Joint != "index_tip" {
		t.Errorf("unexpected policy %+v", p)
	}
}

func TestSessionHandler_Detection(t *testing.T) {
	h, _, sw := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/api/detection", `{"enabled":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if sw.enabled {
		t.Error("expected detection to be disabled")
	}
	if d := decodeState(t, rec).Detection; d == nil || *d {
		t.Errorf("expected detection false in state, got %v", d)
	}
}

func TestSessionHandler_Cycle(t *testing.T) {
	h, sess, _ := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/api/targets/0/cycle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := sess.Snapshot().Targets[0].State; got != gesture.StateIdle {
		t.Errorf("expected target 0 to cycle to %s, got %s", gesture.StateIdle, got)
	}
}

func TestSessionHandler_Errors(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"state wrong method", http.MethodPost, "/api/state", "", http.StatusMethodNotAllowed},
		{"reset wrong method", http.MethodGet, "/api/reset", "", http.StatusMethodNotAllowed},
		{"active invalid json", http.MethodPost, "/api/active", "{", http.StatusBadRequest},
		{"active missing field", http.MethodPost, "/api/active", `{}`, http.StatusBadRequest},
		{"policy bad hand", http.MethodPost, "/api/policy", `{"hand":"both"}`, http.StatusBadRequest},
		{"policy bad joint", http.MethodPost, "/api/policy", `{"joint":"elbow"}`, http.StatusBadRequest},
		{"detection missing field", http.MethodPost, "/api/detection", `{}`, http.StatusBadRequest},
		{"cycle bad id", http.MethodPost, "/api/targets/abc/cycle", "", http.StatusBadRequest},
		{"cycle unknown target", http.MethodPost, "/api/targets/42/cycle", "", http.StatusNotFound},
		{"unknown route", http.MethodPost, "/api/targets/1/poke", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}

			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error: %v", err)
			}
			if resp.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestSessionHandler_WithoutFeed(t *testing.T) {
	_, sess, _ := newTestHandler(t)
	h := NewSessionHandler(sess, nil, nil)

	resp := decodeState(t, serve(h, http.MethodGet, "/api/state", ""))
	if resp.Policy != nil || resp.Detection != nil {
		t.Errorf("expected no policy or detection, got %+v %v", resp.Policy, resp.Detection)
	}

	if rec := serve(h, http.MethodPost, "/api/policy", `{"hand":"right"}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d for policy, got %d", http.StatusNotFound, rec.Code)
	}
	if rec := serve(h, http.MethodPost, "/api/detection", `{"enabled":true}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d for detection, got %d", http.StatusNotFound, rec.Code)
	}
}
