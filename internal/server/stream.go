package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/whirling/internal/capture"
)

// StreamHandler serves the latest preview frames as MJPEG.
type StreamHandler struct {
	frames *capture.FrameBuffer
	// MaxFPS caps the frame rate per client.
	MaxFPS int
}

// NewStreamHandler creates a StreamHandler reading from frames.
func NewStreamHandler(frames *capture.FrameBuffer) *StreamHandler {
	return &StreamHandler{frames: frames, MaxFPS: 15}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	interval := time.Second / time.Duration(max(h.MaxFPS, 1))
	var last time.Time

	for {
		updated := h.frames.Updated()
		data, at, ok := h.frames.Latest()

		if ok && at != last {
			last = at
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
			if _, err := w.Write(data); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-updated:
		}

		select {
		case <-r.Context().Done():
			return
		case <-time.After(interval):
		}
	}
}
