package app

import (
	"log"
	"time"

	"github.com/ayusman/whirling/internal/feed"
)

// runPipeline reads frames at the camera frame rate until stopCh closes.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = 30
	}
	ticker := a.clock.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C():
			if _, err := a.Step(); err != nil {
				log.Printf("Pipeline: %v", err)
			}
		}
	}
}

// Step processes one frame: it refreshes the preview, detects hands and
// feeds the tracked joint to the session at the session's current time.
func (a *App) Step() (feed.Outcome, error) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		return feed.Ignored, err
	}
	defer frame.Close()

	now := a.session.Now()
	if err := a.frames.Store(frame, now); err != nil {
		log.Printf("Error encoding preview: %v", err)
	}

	if !a.IsEnabled() {
		return feed.Ignored, nil
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		return feed.Ignored, err
	}
	return a.feed.Process(now, hands)
}
