package scenario

import (
	"errors"
	"fmt"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/guard"
	"github.com/san-kum/ctrlsim/internal/integrators"
	"github.com/san-kum/ctrlsim/internal/physics"
)

var ErrInvalidScenario = errors.New("scenario: invalid constants")

// Scenario bundles a plant with the fixed constants of its closed loop.
// Values returned by Lookup are independent copies and may be adjusted
// before running.
type Scenario struct {
	System      SystemType
	Description string

	Reference float64
	Initial   dynamo.State

	Actuator guard.Limits
	Output   guard.Limits

	Dt       float64
	Duration float64
	Alpha    float64

	// IntegralBound clamps the PID accumulator; zero disables the clamp.
	IntegralBound float64

	// RecordControl includes the control and reference series in the output.
	RecordControl bool

	newPlant      func() dynamo.System
	newIntegrator func() dynamo.Integrator
}

// Lookup returns the scenario for a system type.
func Lookup(s SystemType) (Scenario, error) {
	switch s {
	case DCMotor:
		return Scenario{
			System:        DCMotor,
			Description:   "first-order DC motor speed, unit step",
			Reference:     1.0,
			Initial:       dynamo.State{0},
			Actuator:      guard.Symmetric(10),
			Output:        guard.Symmetric(5),
			Dt:            0.0025,
			Duration:      4.0,
			Alpha:         0.9,
			IntegralBound: 100,
			RecordControl: true,
			newPlant:      func() dynamo.System { return physics.NewDCMotor() },
			newIntegrator: func() dynamo.Integrator { return integrators.NewEuler() },
		}, nil
	case InvertedPendulum:
		return Scenario{
			System:        InvertedPendulum,
			Description:   "linearized inverted pendulum, 1 rad disturbance",
			Reference:     0.0,
			Initial:       dynamo.State{1, 0},
			Actuator:      guard.Symmetric(20),
			Output:        guard.Symmetric(10),
			Dt:            0.0025,
			Duration:      4.0,
			Alpha:         0.9,
			newPlant:      func() dynamo.System { return physics.NewInvertedPendulum() },
			newIntegrator: func() dynamo.Integrator { return integrators.NewSemiImplicitEuler() },
		}, nil
	case RLCCircuit:
		return Scenario{
			System:        RLCCircuit,
			Description:   "series RLC capacitor voltage, unit step",
			Reference:     1.0,
			Initial:       dynamo.State{0, 0},
			Actuator:      guard.Symmetric(10),
			Output:        guard.Symmetric(5),
			Dt:            0.0025,
			Duration:      4.0,
			Alpha:         0.9,
			RecordControl: true,
			newPlant:      func() dynamo.System { return physics.NewRLCCircuit() },
			newIntegrator: func() dynamo.Integrator { return integrators.NewSemiImplicitEuler() },
		}, nil
	}
	return Scenario{}, fmt.Errorf("%w: %s", ErrInvalidSystemType, s)
}

func (s Scenario) Validate() error {
	if !s.System.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSystemType, s.System)
	}
	if !(s.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidScenario, s.Dt)
	}
	if !(s.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidScenario, s.Duration)
	}
	if !(s.Alpha >= 0 && s.Alpha < 1) {
		return fmt.Errorf("%w: alpha must be in [0, 1), got %g", ErrInvalidScenario, s.Alpha)
	}
	if err := s.Actuator.Validate(); err != nil {
		return fmt.Errorf("%w: actuator: %v", ErrInvalidScenario, err)
	}
	if err := s.Output.Validate(); err != nil {
		return fmt.Errorf("%w: output: %v", ErrInvalidScenario, err)
	}
	if s.newPlant == nil || len(s.Initial) != s.newPlant().StateDim() {
		return fmt.Errorf("%w: initial state does not match the plant", ErrInvalidScenario)
	}
	if !s.Output.Contains(s.Initial[0]) {
		return fmt.Errorf("%w: initial output %g outside %v", ErrInvalidScenario, s.Initial[0], s.Output)
	}
	return nil
}

// Plant returns a fresh plant model.
func (s Scenario) Plant() dynamo.System {
	return s.newPlant()
}

// Integrator returns the stepper matching the plant order.
func (s Scenario) Integrator() dynamo.Integrator {
	return s.newIntegrator()
}

// Controller returns a fresh PID configured with the scenario constants.
func (s Scenario) Controller(g control.Gains) *control.PID {
	return control.NewPID(g, s.Dt).
		WithReference(control.Constant(s.Reference)).
		WithOutputLimits(s.Actuator).
		WithDerivativeFilter(s.Alpha).
		WithIntegralBound(s.IntegralBound)
}

// Config returns the run horizon. Non-finite plant states abort the run.
func (s Scenario) Config() dynamo.Config {
	return dynamo.Config{Dt: s.Dt, Duration: s.Duration, ValidateState: true}
}

// Samples is the length of every series produced by Run.
func (s Scenario) Samples() int {
	return s.Config().Steps()
}
