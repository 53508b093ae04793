// Package dynamo provides core simulation primitives for closed-loop systems.
//
// The package defines the fundamental interfaces and types for fixed-step
// simulation of ordinary differential equations (ODEs) under feedback:
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE plants (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepping interface
//   - [Controller]: feedback controller interface
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	dyn := physics.NewDCMotor()
//	pid := control.NewPID(control.Gains{Kp: 1}, 0.0025)
//	sim := dynamo.New(dyn, integrators.NewEuler(), pid)
//	sim.SetGuardrail(dynamo.Guardrail{Limits: guard.Symmetric(5)})
//	result, _ := sim.Run(ctx, dynamo.State{0}, cfg)
//
// # Sampling
//
// Sample i of a [Result] holds the state at t = i·dt before the step-i
// update, the control applied over [t, t+dt) and, for tracking controllers,
// the reference at t. A run always produces floor(Duration/Dt)+1 samples.
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe: controllers carry per-run state.
// Build one Simulator per concurrent run.
package dynamo
