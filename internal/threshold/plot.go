package threshold

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// HistogramBins is the number of bins in the energy histogram plot.
const HistogramBins = 50

// ErrNoValues is returned when there is nothing to plot.
var ErrNoValues = errors.New("no energy values")

// PlotHistogram renders the energy distribution with a vertical line at
// threshold and saves it to path. The image format follows the file
// extension (.png, .svg, .pdf).
func PlotHistogram(values []int, threshold int, path string) error {
	if len(values) == 0 {
		return ErrNoValues
	}

	vs := make(plotter.Values, len(values))
	for i, v := range values {
		vs[i] = float64(v)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Segment energy (threshold %d)", threshold)
	p.X.Label.Text = "round(varX) * round(varY)"
	p.Y.Label.Text = "Segments"

	h, err := plotter.NewHist(vs, HistogramBins)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	h.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(h)

	top := 0.0
	for _, b := range h.Bins {
		if b.Weight > top {
			top = b.Weight
		}
	}
	line, err := plotter.NewLine(plotter.XYs{
		{X: float64(threshold), Y: 0},
		{X: float64(threshold), Y: top},
	})
	if err != nil {
		return fmt.Errorf("build threshold line: %w", err)
	}
	line.Color = color.RGBA{R: 220, G: 20, B: 60, A: 255}
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("threshold", line)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram %s: %w", path, err)
	}
	return nil
}
