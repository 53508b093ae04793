package dynamo

import (
	"math"

	"github.com/san-kum/ctrlsim/internal/guard"
)

// TimeDecimals is the precision of recorded sample times. Rounding is for
// display only; integration always uses i·dt.
const TimeDecimals = 4

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Controller interface {
	Compute(x State, t float64) Control
}

// Tracker is implemented by controllers that follow a reference signal.
// The simulator records the reference alongside each sample.
type Tracker interface {
	Reference(t float64) float64
}

// Resetter is implemented by controllers that carry state between steps.
type Resetter interface {
	Reset()
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

// Guardrail hard-clamps one state component after every step. It keeps the
// recorded output bounded; it is not part of the control law.
type Guardrail struct {
	Index  int
	Limits guard.Limits
}

func (g Guardrail) Apply(x State) {
	if g.Index >= 0 && g.Index < len(x) {
		x[g.Index] = g.Limits.Apply(x[g.Index])
	}
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

// Steps returns the number of recorded samples, floor(Duration/Dt)+1.
func (c Config) Steps() int {
	return int(c.Duration/c.Dt) + 1
}

type Result struct {
	States     []State
	Controls   []Control
	Times      []float64
	References []float64
	Metrics    map[string]float64
	StepsTaken int
}

// Series returns component idx of every recorded state.
func (r *Result) Series(idx int) []float64 {
	out := make([]float64, len(r.States))
	for i, s := range r.States {
		if idx < len(s) {
			out[i] = s[idx]
		}
	}
	return out
}

// ControlSeries returns channel ch of every recorded control.
func (r *Result) ControlSeries(ch int) []float64 {
	out := make([]float64, len(r.Controls))
	for i, u := range r.Controls {
		if ch < len(u) {
			out[i] = u[ch]
		}
	}
	return out
}

// RoundTime rounds t to TimeDecimals places.
func RoundTime(t float64) float64 {
	const scale = 1e4
	return math.Round(t*scale) / scale
}
