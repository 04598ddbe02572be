package trace

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no evaluations to plot")

// WriteConfidencePlot draws one confidence line per target over time,
// with the low and high thresholds as dashed lines, and saves it to path.
// The image format follows the file extension.
func WriteConfidencePlot(path string, rows []Evaluation, low, high float64) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	start := rows[0].At
	for _, r := range rows {
		if r.At.Before(start) {
			start = r.At
		}
	}

	series := make(map[int]plotter.XYs)
	for _, r := range rows {
		series[r.TargetID] = append(series[r.TargetID], plotter.XY{
			X: r.At.Sub(start).Seconds(),
			Y: r.Correlation,
		})
	}
	ids := make([]int, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Target confidence (session %s)", rows[0].SessionID)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Correlation"
	p.Y.Min = -1
	p.Y.Max = 1

	for i, id := range ids {
		line, err := plotter.NewLine(series[id])
		if err != nil {
			return fmt.Errorf("target %d: %w", id, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("Button %d", id), line)
	}

	for _, th := range []struct {
		name  string
		value float64
		color color.Color
	}{
		{"low", low, color.RGBA{R: 200, G: 160, A: 255}},
		{"high", high, color.RGBA{G: 150, A: 255}},
	} {
		value := th.value
		fn := plotter.NewFunction(func(float64) float64 { return value })
		fn.Color = th.color
		fn.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(fn)
		p.Legend.Add(fmt.Sprintf("%s %.2f", th.name, value), fn)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
