package control

// Reference is a setpoint signal r(t).
type Reference func(t float64) float64

// Constant holds the setpoint at v for all t.
func Constant(v float64) Reference {
	return func(float64) float64 { return v }
}
