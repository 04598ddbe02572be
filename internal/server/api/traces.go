package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ayusman/whirling/internal/gesture"
	"github.com/ayusman/whirling/internal/trace"
)

// TraceHandler serves recorded sessions.
type TraceHandler struct {
	store *trace.Store
	low   float64
	high  float64
}

// NewTraceHandler creates a TraceHandler. low and high are drawn as
// threshold lines on plots.
func NewTraceHandler(store *trace.Store, cfg gesture.Config) *TraceHandler {
	return &TraceHandler{store: store, low: cfg.LowThreshold, high: cfg.HighThreshold}
}

type sessionResponse struct {
	ID        string `json:"id"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	Targets   int    `json:"targets"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type transitionResponse struct {
	At       string        `json:"at"`
	Scope    gesture.Scope `json:"scope"`
	TargetID int           `json:"target_id"`
	From     gesture.State `json:"from"`
	To       gesture.State `json:"to"`
}

type sessionDetailResponse struct {
	sessionResponse
	Transitions []transitionResponse `json:"transitions"`
}

type evaluationResponse struct {
	Seq         int           `json:"seq"`
	At          string        `json:"at"`
	TargetID    int           `json:"target_id"`
	Correlation float64       `json:"correlation"`
	Leader      bool          `json:"leader"`
	State       gesture.State `json:"state"`
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

func toSessionResponse(s *trace.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		StartedAt: s.StartedAt.Format(timeFormat),
		Targets:   s.Targets,
	}
	if !s.EndedAt.IsZero() {
		resp.EndedAt = s.EndedAt.Format(timeFormat)
	}
	return resp
}

// ServeHTTP routes the trace endpoints:
//
//	GET    /api/traces
//	GET    /api/traces/{id}
//	DELETE /api/traces/{id}
//	GET    /api/traces/{id}/evaluations
//	GET    /api/traces/{id}/plot.png
func (h *TraceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/traces")

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.list(w)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.get(w, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.delete(w, parts[0])
	case len(parts) == 2 && parts[1] == "evaluations" && r.Method == http.MethodGet:
		h.evaluations(w, parts[0])
	case len(parts) == 2 && parts[1] == "plot.png" && r.Method == http.MethodGet:
		h.plot(w, r, parts[0])
	case len(parts) == 2 && parts[1] != "evaluations" && parts[1] != "plot.png":
		writeError(w, http.StatusNotFound, "Not found")
	case len(parts) <= 2:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *TraceHandler) list(w http.ResponseWriter) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	resp := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TraceHandler) get(w http.ResponseWriter, id string) {
	s, ok := h.lookup(w, id)
	if !ok {
		return
	}
	transitions, err := h.store.Transitions().List(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load transitions")
		return
	}

	resp := sessionDetailResponse{
		sessionResponse: toSessionResponse(s),
		Transitions:     make([]transitionResponse, 0, len(transitions)),
	}
	for _, t := range transitions {
		resp.Transitions = append(resp.Transitions, transitionResponse{
			At:       t.At.Format(timeFormat),
			Scope:    t.Scope,
			TargetID: t.TargetID,
			From:     t.From,
			To:       t.To,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TraceHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, trace.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TraceHandler) evaluations(w http.ResponseWriter, id string) {
	if _, ok := h.lookup(w, id); !ok {
		return
	}
	rows, err := h.store.Evaluations().List(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load evaluations")
		return
	}
	resp := make([]evaluationResponse, 0, len(rows))
	for _, e := range rows {
		resp = append(resp, evaluationResponse{
			Seq:         e.Seq,
			At:          e.At.Format(timeFormat),
			TargetID:    e.TargetID,
			Correlation: e.Correlation,
			Leader:      e.Leader,
			State:       e.State,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluations": resp})
}

func (h *TraceHandler) plot(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.lookup(w, id); !ok {
		return
	}
	rows, err := h.store.Evaluations().List(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load evaluations")
		return
	}

	dir, err := os.MkdirTemp("", "whirling-plot-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create plot")
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "plot.png")
	if err := trace.WriteConfidencePlot(path, rows, h.low, h.high); err != nil {
		if errors.Is(err, trace.ErrNoData) {
			writeError(w, http.StatusNotFound, "Session has no evaluations")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create plot")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (h *TraceHandler) lookup(w http.ResponseWriter, id string) (*trace.Session, bool) {
	s, err := h.store.Sessions().Get(id)
	if err != nil {
		if errors.Is(err, trace.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load session")
		return nil, false
	}
	return s, true
}
