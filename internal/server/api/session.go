package api

import (
	"net/http"

	"github.com/ayusman/whirling/internal/feed"
	"github.com/ayusman/whirling/internal/session"
)

// Switch turns hand detection on and off.
type Switch interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
}

// SessionHandler exposes the session state and the debug controls.
type SessionHandler struct {
	session   *session.Session
	feed      *feed.Adapter
	detection Switch
}

// NewSessionHandler creates a SessionHandler. feed and detection may be
// nil, which disables the endpoints that need them.
func NewSessionHandler(s *session.Session, f *feed.Adapter, detection Switch) *SessionHandler {
	return &SessionHandler{session: s, feed: f, detection: detection}
}

// PolicyResponse reports the hand feed settings.
type PolicyResponse struct {
	KeepActive bool   `json:"keep_active"`
	Hand       string `json:"hand"`
	Joint      string `json:"joint"`
	Mirror     bool   `json:"mirror"`
}

// StateResponse is the state document pushed to the UI.
type StateResponse struct {
	session.Snapshot
	Blinking  []int           `json:"blinking"`
	Policy    *PolicyResponse `json:"policy,omitempty"`
	Detection *bool           `json:"detection,omitempty"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

type policyRequest struct {
	KeepActive *bool   `json:"keep_active"`
	Hand       *string `json:"hand"`
	Joint      *string `json:"joint"`
}

type detectionRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP routes the session endpoints:
//
//	GET  /api/state
//	POST /api/reset
//	POST /api/active          {"active": bool}
//	POST /api/policy          {"keep_active": bool, "hand": "left", "joint": "wrist"}
//	POST /api/detection       {"enabled": bool}
//	POST /api/targets/{id}/cycle
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api")
	if len(parts) == 0 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	if parts[0] == "state" && len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, h.State())
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch {
	case parts[0] == "reset" && len(parts) == 1:
		h.session.Reset()
		writeJSON(w, http.StatusOK, h.State())
	case parts[0] == "active" && len(parts) == 1:
		h.setActive(w, r)
	case parts[0] == "policy" && len(parts) == 1:
		h.setPolicy(w, r)
	case parts[0] == "detection" && len(parts) == 1:
		h.setDetection(w, r)
	case parts[0] == "targets" && len(parts) == 3 && parts[2] == "cycle":
		h.cycle(w, parts[1])
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// State returns the state document served by GET /api/state.
func (h *SessionHandler) State() StateResponse {
	resp := StateResponse{
		Snapshot: h.session.Snapshot(),
		Blinking: h.session.Blinking(),
	}
	if h.feed != nil {
		cfg := h.feed.Config()
		resp.Policy = &PolicyResponse{
			KeepActive: cfg.KeepActiveWithoutHand,
			Hand:       cfg.Hand,
			Joint:      cfg.Joint,
			Mirror:     cfg.Mirror,
		}
	}
	if h.detection != nil {
		enabled := h.detection.IsEnabled()
		resp.Detection = &enabled
	}
	return resp
}

func (h *SessionHandler) setActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Active == nil {
		writeError(w, http.StatusBadRequest, "active is required")
		return
	}
	changed := h.session.SetActive(*req.Active)
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed, "active": *req.Active})
}

func (h *SessionHandler) setPolicy(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		writeError(w, http.StatusNotFound, "No hand feed configured")
		return
	}
	var req policyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Hand != nil {
		if err := h.feed.SetHand(*req.Hand); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Joint != nil {
		if err := h.feed.SetJoint(*req.Joint); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.KeepActive != nil {
		h.feed.SetKeepActive(*req.KeepActive)
	}
	writeJSON(w, http.StatusOK, h.State())
}

func (h *SessionHandler) setDetection(w http.ResponseWriter, r *http.Request) {
	if h.detection == nil {
		writeError(w, http.StatusNotFound, "No detector configured")
		return
	}
	var req detectionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	h.detection.SetEnabled(*req.Enabled)
	writeJSON(w, http.StatusOK, h.State())
}

func (h *SessionHandler) cycle(w http.ResponseWriter, raw string) {
	id, ok := parseID(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid target id")
		return
	}
	if !h.session.CycleTarget(id) {
		writeError(w, http.StatusNotFound, "Target not found")
		return
	}
	writeJSON(w, http.StatusOK, h.State())
}
