package sink

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rkarmaka98/streamwatch/monitor"
)

// Plot accumulates the stream and writes a chart on Finalize. The output
// format follows the file extension (.png, .svg, .pdf, ...).
type Plot struct {
	path   string
	Title  string
	Width  vg.Length
	Height vg.Length

	values    plotter.XYs
	anomalies plotter.XYs
}

// NewPlot returns a plot sink writing to path.
func NewPlot(path string) *Plot {
	return &Plot{
		path:   path,
		Title:  "Real-Time Data Visualization",
		Width:  12 * vg.Inch,
		Height: 5 * vg.Inch,
	}
}

func (p *Plot) Update(obs monitor.Observation) error {
	pt := plotter.XY{X: float64(obs.Index), Y: obs.Value}
	p.values = append(p.values, pt)
	if obs.Anomaly {
		p.anomalies = append(p.anomalies, pt)
	}
	return nil
}

// Finalize renders the chart. Nothing is written for an empty stream.
func (p *Plot) Finalize() error {
	if len(p.values) == 0 {
		return nil
	}

	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = "Data Point Index"
	pl.Y.Label.Text = "Value"
	pl.Add(plotter.NewGrid())

	line, err := plotter.NewLine(p.values)
	if err != nil {
		return fmt.Errorf("data line: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	pl.Add(line)
	pl.Legend.Add("Data Stream", line)

	if len(p.anomalies) > 0 {
		marks, err := plotter.NewScatter(p.anomalies)
		if err != nil {
			return fmt.Errorf("anomaly markers: %w", err)
		}
		marks.GlyphStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		marks.GlyphStyle.Shape = draw.CircleGlyph{}
		marks.GlyphStyle.Radius = vg.Points(3)
		pl.Add(marks)
		pl.Legend.Add("Anomalies", marks)
	}

	if err := pl.Save(p.Width, p.Height, p.path); err != nil {
		return fmt.Errorf("save plot %s: %w", p.path, err)
	}
	return nil
}

// Len returns the number of points collected so far.
func (p *Plot) Len() int {
	return len(p.values)
}
