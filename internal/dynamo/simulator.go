package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	controller Controller
	guardrail  *Guardrail
	metrics    []Metric
	observers  []Observer
}

func New(dyn System, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetGuardrail(g Guardrail) {
	s.guardrail = &g
}

// Run executes the fixed-step loop. The returned result always holds
// cfg.Steps() samples unless the context is cancelled or state validation
// fails, in which case the partial result is returned with the error.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	tracker, tracking := s.controller.(Tracker)

	result := &Result{
		States:   make([]State, 0, steps),
		Controls: make([]Control, 0, steps),
		Times:    make([]float64, 0, steps),
		Metrics:  make(map[string]float64),
	}
	if tracking {
		result.References = make([]float64, 0, steps)
	}

	if r, ok := s.controller.(Resetter); ok {
		r.Reset()
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	dt := cfg.Dt

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := float64(i) * dt
		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		result.Times = append(result.Times, RoundTime(t))
		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		if tracking {
			result.References = append(result.References, tracker.Reference(t))
		}

		x = s.integrator.Step(s.dyn, x, u, t, dt)
		if s.guardrail != nil {
			s.guardrail.Apply(x)
		}
		result.StepsTaken++

		if cfg.ValidateState && !x.IsValid() {
			return result, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: state has %d components, system expects %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	return nil
}
