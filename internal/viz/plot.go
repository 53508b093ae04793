package viz

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/ctrlsim/internal/scenario"
)

var ErrEmptyOutput = errors.New("viz: nothing to plot")

var (
	responseColor  = color.RGBA{R: 0, G: 120, B: 200, A: 255}
	referenceColor = color.RGBA{R: 220, G: 140, B: 0, A: 255}
	controlColor   = color.RGBA{R: 200, G: 40, B: 40, A: 255}
)

// NewPlot builds a time plot of the response, plus reference and control
// when present.
func NewPlot(out *scenario.Output) (*plot.Plot, error) {
	if out == nil || len(out.Time) == 0 || len(out.Time) != len(out.Response) {
		return nil, ErrEmptyOutput
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s  kp=%g ki=%g kd=%g", out.System, out.Gains.Kp, out.Gains.Ki, out.Gains.Kd)
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "output"
	p.Add(plotter.NewGrid())

	if err := addLine(p, "response", out.Time, out.Response, responseColor, 2); err != nil {
		return nil, err
	}
	if len(out.Reference) == len(out.Time) {
		if err := addLine(p, "reference", out.Time, out.Reference, referenceColor, 1); err != nil {
			return nil, err
		}
	}
	if len(out.Control) == len(out.Time) {
		if err := addLine(p, "control", out.Time, out.Control, controlColor, 1); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func addLine(p *plot.Plot, name string, xs, ys []float64, c color.Color, width float64) error {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(width)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

// SavePlot renders out to path. The image format is taken from the
// extension.
func SavePlot(out *scenario.Output, path string) error {
	p, err := NewPlot(out)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
