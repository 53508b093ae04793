// Package control provides the PID feedback law used by every scenario.
//
// The controller is assembled from three leaves that are also usable on
// their own:
//
//   - [FilterDerivative]: exponential smoothing of the measured rate
//   - [Integrator]: conditional-integration anti-windup
//   - [guard.Limits]: actuator saturation
//
// # Usage
//
//	pid := control.NewPID(control.Gains{Kp: 2, Ki: 1, Kd: 0.1}, 0.0025).
//		WithReference(control.Constant(1)).
//		WithOutputLimits(guard.Symmetric(10)).
//		WithDerivativeFilter(0.9)
//	sim := dynamo.New(dyn, integ, pid)
//
// The derivative acts on the measurement, not the error, and is subtracted
// from the command. A reference step therefore produces no derivative kick.
//
// [PID] implements [dynamo.Tracker] so the simulator records the reference
// it follows. GetParams and SetParam expose kp, ki, kd and alpha for the
// interactive tuner.
package control
