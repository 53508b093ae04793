package scenario

import (
	"context"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/metrics"
)

// Output is the recorded closed-loop response of one run. It is not
// modified after Run returns.
type Output struct {
	System    string             `json:"system_type"`
	Gains     control.Gains      `json:"gains"`
	Time      []float64          `json:"time"`
	Response  []float64          `json:"response"`
	Control   []float64          `json:"control,omitempty"`
	Reference []float64          `json:"reference,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Simulate runs the scenario named by a wire identifier. An unrecognized
// name fails with ErrInvalidSystemType; any finite gains succeed.
func Simulate(ctx context.Context, name string, g control.Gains) (*Output, error) {
	s, err := ParseSystemType(name)
	if err != nil {
		return nil, err
	}
	return Run(ctx, s, g)
}

func Run(ctx context.Context, s SystemType, g control.Gains) (*Output, error) {
	sc, err := Lookup(s)
	if err != nil {
		return nil, err
	}
	return sc.Run(ctx, g)
}

// Run simulates the scenario with fresh plant and controller state.
// Additional observers see every recorded sample.
func (s Scenario) Run(ctx context.Context, g control.Gains, observers ...dynamo.Observer) (*Output, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	sim := dynamo.New(s.Plant(), s.Integrator(), s.Controller(g))
	sim.SetGuardrail(dynamo.Guardrail{Index: 0, Limits: s.Output})
	for _, m := range metrics.Standard(s.Reference, s.Dt) {
		sim.AddMetric(m)
	}
	for _, o := range observers {
		sim.AddObserver(o)
	}

	res, err := sim.Run(ctx, s.Initial.Clone(), s.Config())
	if err != nil {
		return nil, err
	}

	out := &Output{
		System:   s.System.String(),
		Gains:    g,
		Time:     res.Times,
		Response: res.Series(0),
		Metrics:  res.Metrics,
	}
	if s.RecordControl {
		out.Control = res.ControlSeries(0)
		out.Reference = res.References
	}
	return out, nil
}
