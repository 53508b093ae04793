package physics

import "github.com/san-kum/ctrlsim/internal/dynamo"

// InvertedPendulum is the small-angle model about the upright equilibrium.
// Positive Instability makes the origin unstable without feedback.
type InvertedPendulum struct {
	Instability   float64
	Effectiveness float64
}

func NewInvertedPendulum() *InvertedPendulum {
	return &InvertedPendulum{
		Instability:   2.0,
		Effectiveness: 1.0,
	}
}

func (p *InvertedPendulum) StateDim() int {
	return 2
}

func (p *InvertedPendulum) ControlDim() int {
	return 1
}

func (p *InvertedPendulum) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta := x[0]
	omega := x[1]

	alpha := p.Instability*theta + p.Effectiveness*input(u)

	return dynamo.State{omega, alpha}
}
