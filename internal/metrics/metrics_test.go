package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

func feed(m dynamo.Metric, ys []float64, dt float64) {
	for i, y := range ys {
		m.Observe(dynamo.State{y}, dynamo.Control{y - 1}, float64(i)*dt)
	}
}

func TestMetrics(t *testing.T) {
	underdamped := []float64{0, 0.5, 1.2, 1.1, 0.99, 1.0, 1.0}
	sluggish := []float64{0, 0.05, 0.2, 0.5, 0.8, 0.85}
	falling := []float64{1, 0.5, -0.2, 0.01, 0}

	tests := []struct {
		name   string
		metric dynamo.Metric
		ys     []float64
		want   float64
	}{
		{"overshoot", NewOvershoot(1), underdamped, 20},
		{"overshoot none", NewOvershoot(1), sluggish, 0},
		{"overshoot falling", NewOvershoot(0), falling, 20},
		{"overshoot at reference", NewOvershoot(1), []float64{1, 1.5}, 0},
		{"settling", NewSettlingTime(1, 0.02), underdamped, 0.4},
		{"settling never", NewSettlingTime(1, 0.02), sluggish, -1},
		{"settling falling", NewSettlingTime(0, 0.02), falling, 0.3},
		{"settling absolute band", NewSettlingTime(1, 0.02), []float64{1, 1.01, 1}, 0},
		{"rise", NewRiseTime(1), underdamped, 0.1},
		{"rise never", NewRiseTime(1), sluggish, -1},
		{"rise falling", NewRiseTime(0), falling, 0.1},
		{"steady state error", NewSteadyStateError(1), sluggish, 0.15},
		{"iae", NewIAE(1, 0.1), []float64{0, 0.5, 1}, 0.15},
		{"control effort", NewControlEffort(), []float64{0, 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed(tt.metric, tt.ys, 0.1)
			if got := tt.metric.Value(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s = %g, want %g", tt.metric.Name(), got, tt.want)
			}
		})
	}
}

func TestMetricsEmpty(t *testing.T) {
	for _, m := range Standard(1, 0.1) {
		v := m.Value()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s: expected finite value without samples, got %g", m.Name(), v)
		}
	}
}

func TestMetricsReset(t *testing.T) {
	for _, m := range Standard(1, 0.1) {
		feed(m, []float64{0, 0.5, 1.2, 1.0}, 0.1)
		first := m.Value()
		m.Reset()
		feed(m, []float64{0, 0.5, 1.2, 1.0}, 0.1)
		if got := m.Value(); got != first {
			t.Errorf("%s: reset changed result from %g to %g", m.Name(), first, got)
		}
	}
}

func TestStandardNames(t *testing.T) {
	ms := Standard(1, 0.1)
	if len(ms) != len(Names) {
		t.Fatalf("expected %d metrics, got %d", len(Names), len(ms))
	}
	for i, m := range ms {
		if m.Name() != Names[i] {
			t.Errorf("metric %d: got %s, want %s", i, m.Name(), Names[i])
		}
	}
}
