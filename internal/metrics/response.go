package metrics

import "math"

// Overshoot is the peak excursion past the reference, as a percentage of
// the initial distance to it.
type Overshoot struct {
	trace
}

func NewOvershoot(ref float64) *Overshoot {
	return &Overshoot{trace{ref: ref}}
}

func (o *Overshoot) Name() string { return OvershootName }

func (o *Overshoot) Value() float64 {
	span, dir := o.span()
	if span == 0 {
		return 0
	}
	peak := 0.0
	for _, y := range o.ys {
		peak = math.Max(peak, dir*(y-o.ref))
	}
	return peak / span * 100
}

// SettlingTime is the time of the first sample after which the output stays
// inside a band around the reference. The band is a fraction of the initial
// distance, or that fraction in absolute units when starting on the
// reference. It reports -1 when the final sample is outside the band.
type SettlingTime struct {
	trace
	band float64
}

func NewSettlingTime(ref, band float64) *SettlingTime {
	return &SettlingTime{trace: trace{ref: ref}, band: band}
}

func (s *SettlingTime) Name() string { return SettlingTimeName }

func (s *SettlingTime) Value() float64 {
	if len(s.ys) == 0 {
		return -1
	}
	tol := s.band
	if span, _ := s.span(); span > 0 {
		tol = s.band * span
	}

	settled := -1
	for i := len(s.ys) - 1; i >= 0; i-- {
		if math.Abs(s.ys[i]-s.ref) > tol {
			break
		}
		settled = i
	}
	if settled < 0 {
		return -1
	}
	return s.times[settled]
}

// RiseTime is the time taken to go from 10% to 90% of the way to the
// reference. It reports -1 when 90% is never reached.
type RiseTime struct {
	trace
}

func NewRiseTime(ref float64) *RiseTime {
	return &RiseTime{trace{ref: ref}}
}

func (r *RiseTime) Name() string { return RiseTimeName }

func (r *RiseTime) Value() float64 {
	span, dir := r.span()
	if span == 0 {
		return 0
	}

	y0 := r.ys[0]
	lo, hi := -1, -1
	for i, y := range r.ys {
		progress := dir * (y - y0) / span
		if lo < 0 && progress >= 0.1 {
			lo = i
		}
		if progress >= 0.9 {
			hi = i
			break
		}
	}
	if hi < 0 {
		return -1
	}
	return r.times[hi] - r.times[lo]
}

type SteadyStateError struct {
	trace
}

func NewSteadyStateError(ref float64) *SteadyStateError {
	return &SteadyStateError{trace{ref: ref}}
}

func (s *SteadyStateError) Name() string { return SteadyStateErrorName }

func (s *SteadyStateError) Value() float64 {
	if len(s.ys) == 0 {
		return 0
	}
	return math.Abs(s.ref - s.ys[len(s.ys)-1])
}
