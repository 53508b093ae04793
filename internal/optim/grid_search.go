package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/metrics"
	"github.com/san-kum/ctrlsim/internal/scenario"
)

var (
	ErrEmptyGrid     = errors.New("optim: empty gain grid")
	ErrUnknownMetric = errors.New("optim: unknown metric")
)

// Candidate is one evaluated point of the grid.
type Candidate struct {
	Gains   control.Gains      `json:"gains"`
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics"`
}

// GridSearch evaluates every kp × ki × kd combination and keeps the one
// minimizing a metric. Runs are independent and evaluated in parallel.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	Workers    int
}

func NewGridSearch(kp, ki, kd []float64) *GridSearch {
	return &GridSearch{
		paramNames: []string{"kp", "ki", "kd"},
		ranges:     [][]float64{kp, ki, kd},
		Workers:    runtime.GOMAXPROCS(0),
	}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search returns the best candidate and every evaluated candidate in grid
// order. Ties go to the earliest grid point.
func (g *GridSearch) Search(ctx context.Context, sc scenario.Scenario, metricName string) (Candidate, []Candidate, error) {
	if !slices.Contains(metrics.Names, metricName) {
		return Candidate{}, nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metricName)
	}
	if g.Size() == 0 {
		return Candidate{}, nil, ErrEmptyGrid
	}

	points := make([]control.Gains, 0, g.Size())
	g.collect(0, make(map[string]float64), &points)

	candidates := make([]Candidate, len(points))
	eg, egCtx := errgroup.WithContext(ctx)
	workers := g.Workers
	if workers < 1 {
		workers = 1
	}
	eg.SetLimit(workers)

	for i, gains := range points {
		i, gains := i, gains
		eg.Go(func() error {
			out, err := sc.Run(egCtx, gains)
			if err != nil {
				return fmt.Errorf("%s: %w", gains, err)
			}
			candidates[i] = Candidate{
				Gains:   gains,
				Score:   Score(metricName, out.Metrics[metricName]),
				Metrics: out.Metrics,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Candidate{}, nil, err
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score < best.Score {
			best = c
		}
	}
	return best, candidates, nil
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]control.Gains) {
	if depth == len(g.paramNames) {
		*out = append(*out, control.Gains{Kp: current["kp"], Ki: current["ki"], Kd: current["kd"]})
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.collect(depth+1, current, out)
	}
}

// Score maps a metric value to a cost. Time metrics that never completed
// (reported as -1) cost +Inf, as does NaN.
func Score(metricName string, v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	switch metricName {
	case metrics.SettlingTimeName, metrics.RiseTimeName:
		if v < 0 {
			return math.Inf(1)
		}
	}
	return v
}
