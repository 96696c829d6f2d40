package mppi

import "gonum.org/v1/gonum/mat"

// Dynamics simulates one time-step of state evolution under a control
// input (spec.md section 4.C). Implementations may expose additional,
// domain-specific quantities (power, Jacobians, end-effector frames)
// used by a paired Cost; those are not part of this contract.
//
// The optimizer calls Copy() once per rollout worker at pool startup so
// that every worker owns an independent replica; there is no shared
// mutable dynamics state between workers.
type Dynamics interface {
	// StateDoF returns the dimension of the state vector.
	StateDoF() int

	// ControlDoF returns the dimension of the control vector.
	ControlDoF() int

	// Set reinitializes the dynamics to state. Called at the start of
	// every rollout.
	Set(state mat.Vector)

	// Step advances the simulation by dt under control, leaving the
	// dynamics in the resulting state so subsequent Step calls chain,
	// and returns that new state. An error (or a non-finite resulting
	// state) is treated as a failed rollout, never as fatal.
	Step(control mat.Vector, dt float64) (*mat.VecDense, error)

	// Copy returns an independent replica of the dynamics, safe to use
	// concurrently with the original from a different goroutine.
	Copy() Dynamics
}
