package metrics

import "github.com/san-kum/ctrlsim/internal/dynamo"

// trace records the output and time of every observed sample.
type trace struct {
	ref   float64
	ys    []float64
	times []float64
}

func (tr *trace) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) == 0 {
		return
	}
	tr.ys = append(tr.ys, x[0])
	tr.times = append(tr.times, t)
}

func (tr *trace) Reset() {
	tr.ys = tr.ys[:0]
	tr.times = tr.times[:0]
}

// span returns the distance from the initial output to the reference and
// the direction of travel (+1, -1 or 0).
func (tr *trace) span() (float64, float64) {
	if len(tr.ys) == 0 {
		return 0, 0
	}
	d := tr.ref - tr.ys[0]
	switch {
	case d > 0:
		return d, 1
	case d < 0:
		return -d, -1
	}
	return 0, 0
}
