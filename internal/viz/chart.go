package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ctrlsim/internal/scenario"
)

type ChartOptions struct {
	Width  int
	Height int
}

var DefaultChartOptions = ChartOptions{Width: 80, Height: 12}

// ResponseChart plots the response of a run, with the reference as a second
// series when it was recorded.
func ResponseChart(out *scenario.Output, opts ChartOptions) string {
	if out == nil || len(out.Response) == 0 {
		return ""
	}
	if opts.Width <= 0 {
		opts.Width = DefaultChartOptions.Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultChartOptions.Height
	}

	caption := fmt.Sprintf("%s response over %.2gs", out.System, lastTime(out))
	series := [][]float64{out.Response}
	colors := []asciigraph.AnsiColor{asciigraph.Green}
	if len(out.Reference) == len(out.Response) {
		series = append(series, out.Reference)
		colors = append(colors, asciigraph.Yellow)
		caption += " (reference in yellow)"
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)
}

// ControlChart plots the recorded control signal, or returns "" when the
// run did not record one.
func ControlChart(out *scenario.Output, opts ChartOptions) string {
	if out == nil || len(out.Control) == 0 {
		return ""
	}
	if opts.Width <= 0 {
		opts.Width = DefaultChartOptions.Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultChartOptions.Height / 2
	}
	return asciigraph.Plot(out.Control,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Precision(2),
		asciigraph.Caption("control"),
	)
}

func lastTime(out *scenario.Output) float64 {
	if len(out.Time) == 0 {
		return 0
	}
	return out.Time[len(out.Time)-1]
}
