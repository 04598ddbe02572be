// Package config loads the whirling configuration file and maps it onto
// the settings of each package.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ayusman/whirling/internal/action"
	"github.com/ayusman/whirling/internal/capture"
	"github.com/ayusman/whirling/internal/detector"
	"github.com/ayusman/whirling/internal/feed"
	"github.com/ayusman/whirling/internal/gesture"
	"github.com/ayusman/whirling/internal/session"
)

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Layout kinds.
const (
	LayoutGrid   = "grid"
	LayoutPair   = "pair"
	LayoutCustom = "custom"
)

// Config is the root of the configuration file.
type Config struct {
	Gesture  Gesture  `json:"gesture"`
	Session  Session  `json:"session"`
	Layout   Layout   `json:"layout"`
	Feed     Feed     `json:"feed"`
	Camera   Camera   `json:"camera"`
	Detector Detector `json:"detector"`
	Server   Server   `json:"server"`
	Trace    Trace    `json:"trace"`
	Actions  Actions  `json:"actions"`
}

// Gesture holds the arbitration thresholds.
type Gesture struct {
	MinFrames     int      `json:"min_frames"`
	MaxFrames     int      `json:"max_frames"`
	LowThreshold  float64  `json:"low_threshold"`
	HighThreshold float64  `json:"high_threshold"`
	PendingTime   Duration `json:"pending_time"`
	Debounce      Duration `json:"debounce"`
	TargetRadius  float64  `json:"target_radius"`

	BaseSizeMultiplier        float64 `json:"base_size_multiplier"`
	CorrelationSizeMultiplier float64 `json:"correlation_size_multiplier"`
}

// Session holds the scheduler cadences.
type Session struct {
	FrameInterval       Duration `json:"frame_interval"`
	CorrelationInterval Duration `json:"correlation_interval"`
	BlinkInterval       Duration `json:"blink_interval"`
}

// Layout selects the orbit targets.
type Layout struct {
	Kind    string   `json:"kind"`
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
	Radius  float64  `json:"radius"`
	Targets []Target `json:"targets,omitempty"`
}

// Target is one entry of a custom layout.
type Target struct {
	ID        int      `json:"id"`
	Radius    float64  `json:"radius"`
	Period    Duration `json:"period"`
	Clockwise bool     `json:"clockwise"`
	PhaseDeg  float64  `json:"phase_deg"`
}

// Feed selects the tracked hand and joint.
type Feed struct {
	Hand                  string `json:"hand"`
	Joint                 string `json:"joint"`
	Mirror                bool   `json:"mirror"`
	KeepActiveWithoutHand bool   `json:"keep_active_without_hand"`
}

// Camera configures frame capture.
type Camera struct {
	DeviceID int  `json:"device_id"`
	FPS      int  `json:"fps"`
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	Flip     bool `json:"flip"`
}

// Detector configures the hand landmark service.
type Detector struct {
	MaxHands      int      `json:"max_hands"`
	MinConfidence float64  `json:"min_confidence"`
	ScriptPath    string   `json:"script_path,omitempty"`
	PythonPath    string   `json:"python_path,omitempty"`
	IdleTimeout   Duration `json:"idle_timeout"`
}

// Server configures the HTTP UI bridge.
type Server struct {
	Addr      string `json:"addr"`
	StaticDir string `json:"static_dir"`
}

// Trace configures the correlation trace database. An empty path
// disables tracing.
type Trace struct {
	Path string `json:"path"`
}

// Actions configures the selection plugins.
type Actions struct {
	PluginDir string           `json:"plugin_dir"`
	Timeout   Duration         `json:"timeout"`
	Bindings  []action.Binding `json:"bindings,omitempty"`
}

// Default returns the built-in configuration: a 3x4 grid tracked by the
// left wrist, with the default thresholds.
func Default() *Config {
	g := gesture.DefaultConfig()
	s := session.DefaultConfig()
	f := feed.DefaultConfig()
	c := capture.DefaultConfig()
	d := detector.DefaultConfig()

	return &Config{
		Gesture: Gesture{
			MinFrames:     g.MinFrames,
			MaxFrames:     g.MaxFrames,
			LowThreshold:  g.LowThreshold,
			HighThreshold: g.HighThreshold,
			PendingTime:   D(g.PendingTime),
			Debounce:      D(g.Debounce),
			TargetRadius:  g.TargetRadius,

			BaseSizeMultiplier:        g.BaseSizeMultiplier,
			CorrelationSizeMultiplier: g.CorrelationSizeMultiplier,
		},
		Session: Session{
			FrameInterval:       D(s.FrameInterval),
			CorrelationInterval: D(s.CorrelationInterval),
			BlinkInterval:       D(s.BlinkInterval),
		},
		Layout: Layout{
			Kind:   LayoutGrid,
			Rows:   3,
			Cols:   4,
			Radius: gesture.DefaultOrbitRadius,
		},
		Feed: Feed{
			Hand:                  f.Hand,
			Joint:                 f.Joint,
			Mirror:                f.Mirror,
			KeepActiveWithoutHand: f.KeepActiveWithoutHand,
		},
		Camera: Camera{
			DeviceID: c.DeviceID,
			FPS:      c.FPS,
			Width:    c.Width,
			Height:   c.Height,
			Flip:     c.Flip,
		},
		Detector: Detector{
			MaxHands:      d.MaxHands,
			MinConfidence: d.MinConfidence,
			IdleTimeout:   D(d.IdleTimeout),
		},
		Server: Server{
			Addr:      ":8080",
			StaticDir: "web",
		},
		Actions: Actions{
			PluginDir: "plugins",
			Timeout:   D(action.DefaultTimeout),
		},
	}
}

// Validate checks every section, including the derived package configs.
func (c *Config) Validate() error {
	if err := c.SessionConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.Targets(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.FeedConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("%w: camera fps must be positive, got %d", ErrInvalid, c.Camera.FPS)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("%w: detector min_confidence %.2f outside [0, 1]", ErrInvalid, c.Detector.MinConfidence)
	}
	if c.Actions.Timeout.Duration < 0 {
		return fmt.Errorf("%w: negative action timeout", ErrInvalid)
	}
	seen := make(map[int]bool, len(c.Actions.Bindings))
	for _, b := range c.Actions.Bindings {
		if seen[b.TargetID] {
			return fmt.Errorf("%w: target %d has two action bindings", ErrInvalid, b.TargetID)
		}
		seen[b.TargetID] = true
	}
	return nil
}

// GestureConfig returns the arbitration settings.
func (c *Config) GestureConfig() gesture.Config {
	g := gesture.DefaultConfig()
	g.MinFrames = c.Gesture.MinFrames
	g.MaxFrames = c.Gesture.MaxFrames
	g.LowThreshold = c.Gesture.LowThreshold
	g.HighThreshold = c.Gesture.HighThreshold
	g.PendingTime = c.Gesture.PendingTime.Duration
	g.Debounce = c.Gesture.Debounce.Duration
	g.TargetRadius = c.Gesture.TargetRadius
	g.BaseSizeMultiplier = c.Gesture.BaseSizeMultiplier
	g.CorrelationSizeMultiplier = c.Gesture.CorrelationSizeMultiplier
	return g
}

// SessionConfig returns the session settings.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Gesture:             c.GestureConfig(),
		FrameInterval:       c.Session.FrameInterval.Duration,
		CorrelationInterval: c.Session.CorrelationInterval.Duration,
		BlinkInterval:       c.Session.BlinkInterval.Duration,
	}
}

// Targets builds the orbit targets of the configured layout.
func (c *Config) Targets() ([]gesture.TargetConfig, error) {
	radius := c.Layout.Radius
	if radius == 0 {
		radius = gesture.DefaultOrbitRadius
	}

	var targets []gesture.TargetConfig
	switch strings.ToLower(c.Layout.Kind) {
	case LayoutGrid, "":
		targets = gesture.GridLayout(c.Layout.Rows, c.Layout.Cols, radius)
	case LayoutPair:
		targets = gesture.PairLayout(radius)
	case LayoutCustom:
		for _, t := range c.Layout.Targets {
			r := t.Radius
			if r == 0 {
				r = radius
			}
			targets = append(targets, gesture.TargetConfig{
				ID:        t.ID,
				Radius:    r,
				Period:    t.Period.Duration,
				Clockwise: t.Clockwise,
				Phase:     t.PhaseDeg * math.Pi / 180,
			})
		}
	default:
		return nil, fmt.Errorf("unknown layout %q", c.Layout.Kind)
	}

	if len(targets) == 0 {
		return nil, errors.New("layout has no targets")
	}
	seen := make(map[int]bool, len(targets))
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: %d", gesture.ErrDuplicateTarget, t.ID)
		}
		seen[t.ID] = true
	}
	return targets, nil
}

// FeedConfig returns the feed adapter settings.
func (c *Config) FeedConfig() feed.Config {
	return feed.Config{
		Hand:                  c.Feed.Hand,
		Joint:                 c.Feed.Joint,
		Mirror:                c.Feed.Mirror,
		KeepActiveWithoutHand: c.Feed.KeepActiveWithoutHand,
	}
}

// CameraConfig returns the capture settings.
func (c *Config) CameraConfig() capture.Config {
	return capture.Config{
		DeviceID: c.Camera.DeviceID,
		FPS:      c.Camera.FPS,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		Flip:     c.Camera.Flip,
	}
}

// DetectorConfig returns the hand detector settings.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:      c.Detector.MaxHands,
		MinConfidence: c.Detector.MinConfidence,
		ScriptPath:    c.Detector.ScriptPath,
		PythonPath:    c.Detector.PythonPath,
		IdleTimeout:   c.Detector.IdleTimeout.Duration,
	}
}
