package capture

import (
	"bytes"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestFrameBuffer_Empty(t *testing.T) {
	b := NewFrameBuffer()

	if _, _, ok := b.Latest(); ok {
		t.Error("expected no frame in a new buffer")
	}
}

func TestFrameBuffer_StoreJPEG(t *testing.T) {
	b := NewFrameBuffer()
	updated := b.Updated()
	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	b.StoreJPEG([]byte{1, 2, 3}, at)

	select {
	case <-updated:
	default:
		t.Error("expected the update channel to be closed")
	}

	data, got, ok := b.Latest()
	if !ok {
		t.Fatal("expected a frame")
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("expected stored bytes, got %v", data)
	}
	if !got.Equal(at) {
		t.Errorf("expected capture time %v, got %v", at, got)
	}

	select {
	case <-b.Updated():
		t.Error("expected a fresh update channel after Store")
	default:
	}
}

func TestFrameBuffer_StoreEncodesJPEG(t *testing.T) {
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	b := NewFrameBuffer()

	if err := b.Store(&frame, time.Now()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	data, _, _ := b.Latest()
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Error("expected JPEG start-of-image marker")
	}
}
