package integrators

import "github.com/san-kum/ctrlsim/internal/dynamo"

// SemiImplicitEuler steps second-order systems laid out as [q..., v...]:
// velocities advance first and the positions use the updated velocities.
// The derivative is evaluated once, at the start of the step.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (s *SemiImplicitEuler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2

	result := make(dynamo.State, n)
	dx := dyn.Derive(x, u, t)

	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + dx[half+i]*dt
	}

	for i := 0; i < half; i++ {
		result[i] = x[i] + result[half+i]*dt
	}

	return result
}
