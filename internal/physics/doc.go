// Package physics provides the plant models driven by the PID loop.
//
// Each model implements the [dynamo.System] interface, defining the
// differential equation governing the plant's evolution:
//
//   - [DCMotor]: first-order lag, ẏ = -y/τ + k·u
//   - [InvertedPendulum]: linearized unstable, ÿ = a·y + b·u
//   - [RLCCircuit]: damped oscillator, ÿ = -2ζωₙ·ẏ - ωₙ²·y + k·u
//
// Second-order plants use the state layout [y, ẏ] so they pair with
// [integrators.SemiImplicitEuler]. The output is always component 0.
//
// Plant constants are fixed by the constructors and never change during a
// run.
package physics
