package physics

import "github.com/san-kum/ctrlsim/internal/dynamo"

type DCMotor struct {
	TimeConstant float64
	Gain         float64
}

func NewDCMotor() *DCMotor {
	return &DCMotor{
		TimeConstant: 0.8,
		Gain:         1.0,
	}
}

func (m *DCMotor) StateDim() int {
	return 1
}

func (m *DCMotor) ControlDim() int {
	return 1
}

func (m *DCMotor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-(1.0/m.TimeConstant)*x[0] + m.Gain*input(u)}
}

func input(u dynamo.Control) float64 {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}
