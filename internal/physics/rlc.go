package physics

import "github.com/san-kum/ctrlsim/internal/dynamo"

// RLCCircuit models the capacitor voltage of a series RLC network in
// normalized second-order form.
type RLCCircuit struct {
	NaturalFreq float64
	Damping     float64
	Gain        float64
}

func NewRLCCircuit() *RLCCircuit {
	return &RLCCircuit{
		NaturalFreq: 3.0,
		Damping:     0.25,
		Gain:        1.0,
	}
}

func (c *RLCCircuit) StateDim() int {
	return 2
}

func (c *RLCCircuit) ControlDim() int {
	return 1
}

func (c *RLCCircuit) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	y := x[0]
	ydot := x[1]
	wn := c.NaturalFreq

	yddot := -2.0*c.Damping*wn*ydot - (wn*wn)*y + c.Gain*input(u)

	return dynamo.State{ydot, yddot}
}
