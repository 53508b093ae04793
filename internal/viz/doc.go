// Package viz renders closed-loop responses.
//
// Terminal output uses asciigraph for line charts and lipgloss for styling:
//
//   - [ResponseChart]: response and reference on one ASCII chart
//   - [SparklineChart]: one-line summary of a series
//   - [LiveRenderer]: progress line redrawn while a run is in flight
//
// [SavePlot] writes the same series as an image through gonum/plot. The
// format follows the file extension (png, svg, pdf, ...).
package viz
