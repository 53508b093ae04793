package control

import "github.com/san-kum/ctrlsim/internal/guard"

// Integrator accumulates error with conditional-integration anti-windup.
// A positive Bound additionally clamps the accumulator to [-Bound, Bound]
// after each update; zero leaves it unbounded.
type Integrator struct {
	Bound float64
}

// Update returns the next accumulator value. The integral is held when the
// actuator would saturate in the direction the error is pushing.
func (in Integrator) Update(prev, err, dt float64, high, low bool) float64 {
	if high || low {
		return prev
	}
	next := prev + err*dt
	if in.Bound > 0 {
		next = guard.Clamp(next, -in.Bound, in.Bound)
	}
	return next
}

// SaturationPredicates tests the unsaturated command against the actuator
// limits. It must be given the pre-clamp value.
func SaturationPredicates(uUnsat, err float64, limits guard.Limits) (high, low bool) {
	high = limits.Above(uUnsat) && err > 0
	low = limits.Below(uUnsat) && err < 0
	return high, low
}
