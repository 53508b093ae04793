// Package metrics scores a closed-loop step response.
//
// Every metric implements [dynamo.Metric] and observes component 0 of the
// recorded state against a constant reference. [Standard] returns the set
// attached to every scenario run.
package metrics

import "github.com/san-kum/ctrlsim/internal/dynamo"

// Names of the standard metrics, in report order.
const (
	OvershootName        = "overshoot"
	SettlingTimeName     = "settling_time"
	RiseTimeName         = "rise_time"
	SteadyStateErrorName = "steady_state_error"
	IAEName              = "iae"
	ControlEffortName    = "control_effort"
)

// Names lists the standard metrics in report order.
var Names = []string{
	OvershootName,
	SettlingTimeName,
	RiseTimeName,
	SteadyStateErrorName,
	IAEName,
	ControlEffortName,
}

// Standard returns fresh instances of all standard metrics.
func Standard(ref, dt float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewOvershoot(ref),
		NewSettlingTime(ref, 0.02),
		NewRiseTime(ref),
		NewSteadyStateError(ref),
		NewIAE(ref, dt),
		NewControlEffort(),
	}
}
