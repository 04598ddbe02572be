package gesture

import "fmt"

// Marker opacities used while a pending target blinks.
const (
	OpacityNormal = 0.8
	OpacityDimmed = 0.2
)

// RenderState is what a visual layer needs to draw one target. It is
// derived only from the target's state and correlation and the blink
// phase owned by the caller.
type RenderState struct {
	ColorTag   string  `json:"color"`
	TextColor  string  `json:"text_color"`
	Label      string  `json:"label"`
	Visible    bool    `json:"visible"`
	SizeFactor float64 `json:"size_factor"`
	Blinking   bool    `json:"blinking"`
	Opacity    float64 `json:"opacity"`
}

// ColorTag returns the display color for a state.
func ColorTag(s State) string {
	switch s {
	case StateInactive:
		return "gray"
	case StateIdle:
		return "white"
	case StatePerforming:
		return "yellow"
	case StatePending:
		return "green"
	case StateSelected:
		return "blue"
	default:
		return "white"
	}
}

// Label returns the button caption for a target.
// The correlation is omitted while the target is inactive.
func Label(id int, s State, correlation float64) string {
	if s == StateInactive {
		return fmt.Sprintf("Button %d\n%s", id, s)
	}
	return fmt.Sprintf("Button %d\n%s\nCorr: %.2f", id, s, correlation)
}

// Render computes the RenderState of a target. dimmed is the current blink
// phase; it only has an effect while the target is pending.
func Render(c Config, id int, s State, correlation float64, dimmed bool) RenderState {
	rs := RenderState{
		ColorTag:   ColorTag(s),
		TextColor:  "#000000",
		Label:      Label(id, s, correlation),
		Visible:    s != StateInactive,
		SizeFactor: sizeFactor(c, s, correlation),
		Blinking:   s == StatePending,
		Opacity:    OpacityNormal,
	}
	if s == StatePending || s == StateSelected {
		rs.TextColor = "#FFFFFF"
	}
	if rs.Blinking && dimmed {
		rs.Opacity = OpacityDimmed
	}
	return rs
}
