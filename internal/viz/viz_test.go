package viz

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/scenario"
)

func simulate(t *testing.T, system string) *scenario.Output {
	t.Helper()
	out, err := scenario.Simulate(context.Background(), system, control.Gains{Kp: 2, Ki: 1})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return out
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   string
	}{
		{"empty", nil, 4, "────"},
		{"flat", []float64{1, 1, 1}, 3, "▁▁▁"},
		{"ramp", []float64{0, 3.5, 7}, 3, "▁▄█"},
		{"downsampled", []float64{0, 0, 7, 7}, 2, "▁█"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sparkline(tt.values, tt.width); got != tt.want {
				t.Errorf("Sparkline = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		fraction float64
		filled   int
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{2, 10},
		{-1, 0},
	}

	for _, tt := range tests {
		bar := ProgressBar(tt.fraction, 10)
		if n := utf8.RuneCountInString(bar); n != 10 {
			t.Errorf("ProgressBar(%g) has %d runes", tt.fraction, n)
		}
		if n := strings.Count(bar, "█"); n != tt.filled {
			t.Errorf("ProgressBar(%g) filled %d, want %d", tt.fraction, n, tt.filled)
		}
	}
}

func TestResponseChart(t *testing.T) {
	out := simulate(t, "dc_motor")
	chart := ResponseChart(out, ChartOptions{Width: 40, Height: 6})
	if !strings.Contains(chart, "dc_motor response") {
		t.Errorf("missing caption:\n%s", chart)
	}
	if !strings.Contains(chart, "reference") {
		t.Errorf("expected reference series in caption")
	}

	pend := simulate(t, "inverted_pendulum")
	if strings.Contains(ResponseChart(pend, DefaultChartOptions), "reference") {
		t.Errorf("pendulum run has no recorded reference")
	}
	if ControlChart(pend, DefaultChartOptions) != "" {
		t.Errorf("pendulum run has no recorded control")
	}
	if ResponseChart(nil, DefaultChartOptions) != "" {
		t.Errorf("expected empty chart for nil output")
	}
}

func TestSavePlot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plots", "motor.png")

	if err := SavePlot(simulate(t, "dc_motor"), path); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("empty image")
	}

	if err := SavePlot(&scenario.Output{}, filepath.Join(dir, "empty.png")); !errors.Is(err, ErrEmptyOutput) {
		t.Errorf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestLiveRenderer(t *testing.T) {
	sc, err := scenario.Lookup(scenario.RLCCircuit)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	var buf bytes.Buffer
	r := NewLiveRenderer(&buf, "rlc_circuit", sc.Samples(), 10)
	if _, err := sc.Run(context.Background(), control.Gains{Kp: 1}, r); err != nil {
		t.Fatalf("run: %v", err)
	}
	r.Finish()

	// 1601 samples at stride 160: frames at 160..1600 plus the final sample.
	if r.Frames() != 11 {
		t.Errorf("expected 11 frames, got %d", r.Frames())
	}
	if strings.Count(buf.String(), "\r") != r.Frames() {
		t.Errorf("each frame should start with a carriage return")
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("Finish should end the line")
	}
}
