package viz

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(0, 1)
	Title       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	Subtle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	Selected    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff"))
	MetricLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Width(20)
	MetricValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)
	ErrorText   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	KeyHint     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true)

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// ProgressBar renders a fraction in [0, 1] as a fixed-width bar.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Sparkline samples values down to width runes, scaled between the series
// minimum and maximum.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		b.WriteRune(sparkChars[sparkIndex((values[i*step]-lo)/rng)])
	}
	return b.String()
}

// SparklineChart is Sparkline colored by relative level.
func SparklineChart(values []float64, width int) string {
	plain := []rune(Sparkline(values, width))
	if len(values) == 0 {
		return string(plain)
	}

	var b strings.Builder
	for _, c := range plain {
		idx := slices.Index(sparkChars, c)
		switch {
		case idx < 0:
			b.WriteRune(c)
		case idx >= 5:
			b.WriteString(SparkHigh.Render(string(c)))
		case idx >= 2:
			b.WriteString(SparkMid.Render(string(c)))
		default:
			b.WriteString(SparkLow.Render(string(c)))
		}
	}
	return b.String()
}

func sparkIndex(norm float64) int {
	idx := int(norm * float64(len(sparkChars)-1))
	if idx >= len(sparkChars) {
		idx = len(sparkChars) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
