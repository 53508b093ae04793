package control

import (
	"fmt"
	"math"

	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/guard"
)

type Gains struct {
	Kp float64 `json:"kp" yaml:"kp"`
	Ki float64 `json:"ki" yaml:"ki"`
	Kd float64 `json:"kd" yaml:"kd"`
}

func (g Gains) String() string {
	return fmt.Sprintf("kp=%g ki=%g kd=%g", g.Kp, g.Ki, g.Kd)
}

// Diagnostics describes the most recent Compute call.
type Diagnostics struct {
	Error              float64
	PrevIntegral       float64
	Integral           float64
	FilteredDerivative float64
	Unsaturated        float64
	Output             float64
	Held               bool
}

// PID regulates state component 0 towards a reference. It keeps per-run
// state and must not be shared between concurrent runs.
type PID struct {
	Gains

	dt         float64
	reference  Reference
	limits     guard.Limits
	alpha      float64
	integrator Integrator

	integral float64
	filtered float64
	prevY    float64
	first    bool
	last     Diagnostics
}

func NewPID(g Gains, dt float64) *PID {
	return &PID{
		Gains:     g,
		dt:        dt,
		reference: Constant(0),
		limits:    guard.Limits{Min: math.Inf(-1), Max: math.Inf(1)},
		first:     true,
	}
}

func (p *PID) WithReference(r Reference) *PID {
	p.reference = r
	return p
}

func (p *PID) WithOutputLimits(l guard.Limits) *PID {
	p.limits = l
	return p
}

func (p *PID) WithDerivativeFilter(alpha float64) *PID {
	p.alpha = alpha
	return p
}

func (p *PID) WithIntegralBound(bound float64) *PID {
	p.integrator.Bound = bound
	return p
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) == 0 {
		return dynamo.Control{0}
	}

	y := x[0]
	e := p.reference(t) - y

	raw := 0.0
	if !p.first {
		raw = (y - p.prevY) / p.dt
	}
	p.first = false
	p.filtered = FilterDerivative(p.filtered, raw, p.alpha)

	uUnsat := p.Kp*e + p.Ki*p.integral - p.Kd*p.filtered
	u := p.limits.Apply(uUnsat)

	high, low := SaturationPredicates(uUnsat, e, p.limits)
	prev := p.integral
	p.integral = p.integrator.Update(prev, e, p.dt, high, low)
	p.prevY = y

	p.last = Diagnostics{
		Error:              e,
		PrevIntegral:       prev,
		Integral:           p.integral,
		FilteredDerivative: p.filtered,
		Unsaturated:        uUnsat,
		Output:             u,
		Held:               high || low,
	}
	return dynamo.Control{u}
}

func (p *PID) Reference(t float64) float64 {
	return p.reference(t)
}

func (p *PID) Diagnostics() Diagnostics {
	return p.last
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.filtered = 0
	p.prevY = 0
	p.first = true
	p.last = Diagnostics{}
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":    p.Kp,
		"ki":    p.Ki,
		"kd":    p.Kd,
		"alpha": p.alpha,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "alpha":
		if value < 0 || value >= 1 {
			return fmt.Errorf("alpha must be in [0, 1), got %g", value)
		}
		p.alpha = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
