// Package app wires the camera, the hand detector and the gesture session
// together and runs selection actions.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/whirling/internal/action"
	"github.com/ayusman/whirling/internal/capture"
	"github.com/ayusman/whirling/internal/config"
	"github.com/ayusman/whirling/internal/detector"
	"github.com/ayusman/whirling/internal/feed"
	"github.com/ayusman/whirling/internal/session"
	"github.com/ayusman/whirling/internal/timeutil"
	"github.com/ayusman/whirling/internal/trace"
)

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("app stopped")

// Options supplies the configuration and optional replacements for the
// hardware-facing parts. Nil fields get the real implementations.
type Options struct {
	Config    *config.Config
	Camera    capture.Camera
	Detector  detector.Detector
	Scheduler timeutil.Scheduler
	// Clock drives the capture loop.
	Clock timeutil.Clock
	// Trace records the session when set.
	Trace *trace.Store
}

// App is the main application that runs the capture pipeline and reacts
// to selections.
type App struct {
	cfg      *config.Config
	camera   capture.Camera
	detector detector.Detector
	clock    timeutil.Clock
	frames   *capture.FrameBuffer
	session  *session.Session
	feed     *feed.Adapter
	registry *action.Registry
	runner   *action.Runner
	recorder *trace.Recorder

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	done      chan struct{}
	stopped   bool
	last      action.Selection
	hasLast   bool
	listeners []func(action.Selection)

	actions     sync.WaitGroup
	unsubscribe func()
}

// New builds an App. The session is created inactive; Start opens the
// camera and begins processing frames.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	targets, err := cfg.Targets()
	if err != nil {
		return nil, err
	}
	sess, err := session.New(cfg.SessionConfig(), opts.Scheduler, targets)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	adapter, err := feed.NewAdapter(cfg.FeedConfig(), sess)
	if err != nil {
		sess.Dispose()
		return nil, err
	}

	registry := action.NewRegistry(cfg.Actions.PluginDir)
	runner, err := action.NewRunner(registry, action.NewExecutor(cfg.Actions.Timeout.Duration), cfg.Actions.Bindings)
	if err != nil {
		sess.Dispose()
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		camera:   opts.Camera,
		detector: opts.Detector,
		clock:    opts.Clock,
		frames:   capture.NewFrameBuffer(),
		session:  sess,
		feed:     adapter,
		registry: registry,
		runner:   runner,
		enabled:  true,
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.CameraConfig())
	}
	if a.clock == nil {
		a.clock = timeutil.RealClock{}
	}

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(cfg.DetectorConfig()); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	if opts.Trace != nil {
		rec, err := trace.Attach(opts.Trace, sess)
		if err != nil {
			sess.Dispose()
			return nil, err
		}
		a.recorder = rec
		log.Printf("Tracing session %s to %s", sess.ID(), opts.Trace.Path())
	}

	a.unsubscribe = sess.Subscribe(a.handleEvent)
	return a, nil
}

// Start discovers plugins, opens the camera, starts the session and the
// capture loop. Calling it while running is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return ErrStopped
	}
	if a.stopCh != nil {
		return nil
	}

	if err := a.registry.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}
	for _, p := range a.registry.List() {
		log.Printf("Loaded plugin %s %s", p.Manifest.Name, p.Manifest.Version)
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	if err := a.session.Start(); err != nil {
		a.camera.Close()
		return err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Printf("Session %s started with %d targets", a.session.ID(), len(a.session.Targets()))
	return nil
}

// Stop halts the capture loop, waits for running actions and releases
// every resource. The App cannot be restarted.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	a.unsubscribe()
	a.session.Dispose()
	a.actions.Wait()

	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			log.Printf("Error closing trace: %v", err)
		}
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if err := a.detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}

	log.Println("Detection pipeline stopped")
}

// SetEnabled pauses or resumes hand detection. While paused the preview
// keeps updating and the session is deactivated.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if !enabled {
		a.session.SetActive(false)
	}
}

// IsEnabled returns whether hand detection is running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnSelection registers fn to be called after each selection.
func (a *App) OnSelection(fn func(action.Selection)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// LastSelection returns the most recent selection.
func (a *App) LastSelection() (action.Selection, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, a.hasLast
}

func (a *App) handleEvent(e session.Event) {
	if e.Kind != session.EventSelected {
		return
	}

	sel := action.Selection{
		SessionID: e.SessionID,
		TargetID:  e.TargetID,
		Label:     fmt.Sprintf("Button %d", e.TargetID),
		At:        e.At,
	}
	log.Printf("Selected %s", sel.Label)

	a.mu.Lock()
	a.last, a.hasLast = sel, true
	listeners := append([]func(action.Selection){}, a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(sel)
	}

	if _, ok := a.runner.Binding(sel.TargetID); !ok {
		return
	}
	// A dispatch already in flight when Stop unsubscribes may still land
	// here; stopped is set before actions.Wait, so no Add can race it.
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		log.Printf("Skipping action for %s: stopping", sel.Label)
		return
	}
	a.actions.Add(1)
	a.mu.Unlock()
	go func() {
		defer a.actions.Done()
		resp, err := a.runner.OnSelected(context.Background(), sel)
		if err != nil {
			log.Printf("Action for %s failed: %v", sel.Label, err)
			return
		}
		log.Printf("Action for %s done (success=%v)", sel.Label, resp.Success)
	}()
}

// FlushTrace blocks until every traced event so far is written. It is a
// no-op without a trace.
func (a *App) FlushTrace() {
	if a.recorder != nil {
		a.recorder.Flush()
	}
}

// Config returns the application configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Session returns the gesture session.
func (a *App) Session() *session.Session { return a.session }

// Frames returns the buffer holding the latest preview frame.
func (a *App) Frames() *capture.FrameBuffer { return a.frames }

// Feed returns the hand feed adapter.
func (a *App) Feed() *feed.Adapter { return a.feed }

// Registry returns the plugin registry.
func (a *App) Registry() *action.Registry { return a.registry }

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera { return a.camera }

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector { return a.detector }
