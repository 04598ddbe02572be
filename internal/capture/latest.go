package capture

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// FrameBuffer keeps the most recent frame as JPEG so several readers, such
// as an MJPEG preview, can share one capture loop.
type FrameBuffer struct {
	mu      sync.RWMutex
	jpeg    []byte
	at      time.Time
	updates chan struct{}
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{updates: make(chan struct{})}
}

// Store encodes frame and makes it the latest frame.
func (b *FrameBuffer) Store(frame *gocv.Mat, at time.Time) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	b.StoreJPEG(data, at)
	return nil
}

// StoreJPEG makes data the latest frame.
func (b *FrameBuffer) StoreJPEG(data []byte, at time.Time) {
	b.mu.Lock()
	b.jpeg = data
	b.at = at
	close(b.updates)
	b.updates = make(chan struct{})
	b.mu.Unlock()
}

// Latest returns the latest JPEG and its capture time, or false if none
// has been stored.
func (b *FrameBuffer) Latest() ([]byte, time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.jpeg == nil {
		return nil, time.Time{}, false
	}
	return b.jpeg, b.at, true
}

// Updated returns a channel closed at the next Store.
func (b *FrameBuffer) Updated() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updates
}
