package metrics

import (
	"math"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// IAE integrates the absolute tracking error with the rectangle rule.
type IAE struct {
	ref float64
	dt  float64
	sum float64
}

func NewIAE(ref, dt float64) *IAE {
	return &IAE{ref: ref, dt: dt}
}

func (m *IAE) Name() string { return IAEName }

func (m *IAE) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) == 0 {
		return
	}
	m.sum += math.Abs(m.ref-x[0]) * m.dt
}

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() { m.sum = 0 }
