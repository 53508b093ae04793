package control

// FilterDerivative blends a raw rate estimate into the previous filtered
// value. alpha in [0, 1) weights the history; larger is smoother.
func FilterDerivative(prev, raw, alpha float64) float64 {
	return alpha*prev + (1-alpha)*raw
}
