package gesture

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRender(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name        string
		state       State
		correlation float64
		dimmed      bool
		want        RenderState
	}{
		{
			name:  "inactive is hidden",
			state: StateInactive,
			want: RenderState{
				ColorTag: "gray", TextColor: "#000000", Label: "Button 2\ninactive",
				Visible: false, SizeFactor: 1, Opacity: OpacityNormal,
			},
		},
		{
			name:        "idle scales with correlation",
			state:       StateIdle,
			correlation: 0.4,
			want: RenderState{
				ColorTag: "white", TextColor: "#000000", Label: "Button 2\nidle\nCorr: 0.40",
				Visible: true, SizeFactor: 0.7, Opacity: OpacityNormal,
			},
		},
		{
			name:        "performing",
			state:       StatePerforming,
			correlation: 0.8,
			want: RenderState{
				ColorTag: "yellow", TextColor: "#000000", Label: "Button 2\nperforming\nCorr: 0.80",
				Visible: true, SizeFactor: 0.9, Opacity: OpacityNormal,
			},
		},
		{
			name:        "pending blinks dimmed",
			state:       StatePending,
			correlation: 0.9,
			dimmed:      true,
			want: RenderState{
				ColorTag: "green", TextColor: "#FFFFFF", Label: "Button 2\npending\nCorr: 0.90",
				Visible: true, SizeFactor: 0.95, Blinking: true, Opacity: OpacityDimmed,
			},
		},
		{
			name:        "selected ignores blink phase",
			state:       StateSelected,
			correlation: 0.2,
			dimmed:      true,
			want: RenderState{
				ColorTag: "blue", TextColor: "#FFFFFF", Label: "Button 2\nselected\nCorr: 0.20",
				Visible: true, SizeFactor: 1, Opacity: OpacityNormal,
			},
		},
	}

	approx := cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-9 && d > -1e-9
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(cfg, 2, tt.state, tt.correlation, tt.dimmed)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("Render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
