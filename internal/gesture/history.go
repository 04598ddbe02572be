package gesture

import "time"

// Sample is a timestamped hand-joint position.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
}

// TargetSample is a timestamped position of an orbit target.
type TargetSample struct {
	Timestamp time.Time `json:"timestamp"`
	Theta     float64   `json:"theta"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
}

// History is a bounded FIFO of samples. When full, pushing a new
// entry evicts the oldest one.
type History[T any] struct {
	items    []T
	capacity int
}

// NewHistory creates a History holding at most capacity entries.
// A capacity below 1 is treated as 1.
func NewHistory[T any](capacity int) *History[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &History[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends an entry, evicting the oldest one if the history is full.
func (h *History[T]) Push(v T) {
	if len(h.items) >= h.capacity {
		// Shift left by one, dropping the oldest entry
		copy(h.items, h.items[1:])
		h.items = h.items[:h.capacity-1]
	}
	h.items = append(h.items, v)
}

// Len returns the number of entries.
func (h *History[T]) Len() int {
	return len(h.items)
}

// Cap returns the maximum number of entries.
func (h *History[T]) Cap() int {
	return h.capacity
}

// Last returns a copy of the n most recent entries, oldest first.
// If fewer than n entries are held, all of them are returned.
func (h *History[T]) Last(n int) []T {
	if n > len(h.items) {
		n = len(h.items)
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	copy(out, h.items[len(h.items)-n:])
	return out
}

// All returns a copy of every entry, oldest first.
func (h *History[T]) All() []T {
	return h.Last(len(h.items))
}

// Newest returns the most recent entry and whether one exists.
func (h *History[T]) Newest() (T, bool) {
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	return h.items[len(h.items)-1], true
}

// Clear removes every entry.
func (h *History[T]) Clear() {
	h.items = h.items[:0]
}
