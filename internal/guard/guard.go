// Package guard holds the clamping policy shared by actuator saturation and
// the output guardrail.
package guard

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidLimits = errors.New("guard: min must be below max")

// Limits is a closed interval [Min, Max].
type Limits struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func Symmetric(bound float64) Limits {
	return Limits{Min: -bound, Max: bound}
}

func (l Limits) Validate() error {
	if !(l.Min < l.Max) {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidLimits, l.Min, l.Max)
	}
	return nil
}

func (l Limits) Apply(v float64) float64 {
	return Clamp(v, l.Min, l.Max)
}

// Above reports whether v exceeds the upper limit.
func (l Limits) Above(v float64) bool { return v > l.Max }

// Below reports whether v is under the lower limit.
func (l Limits) Below(v float64) bool { return v < l.Min }

// Contains reports whether v lies within the limits. NaN is never contained.
func (l Limits) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Clamp bounds v to [lo, hi]. NaN maps to hi, so a clamped value is always
// inside the limits.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return hi
	}
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
