package mppi

import "gonum.org/v1/gonum/mat"

// Cost scores a (state, control, dynamics, time) tuple with a
// nonnegative scalar (spec.md section 4.D). Get must be deterministic
// given its inputs and the dynamics' current state; implementations may
// inspect the dynamics pointer to read auxiliary quantities computed by
// the most recent Step. A negative return value is a programmer error.
type Cost interface {
	// StateDoF returns the expected dimension of the state vector.
	StateDoF() int

	// ControlDoF returns the expected dimension of the control vector.
	ControlDoF() int

	// Get returns the nonnegative cost of state/control at time, given
	// the dynamics' post-step auxiliary quantities. An error (or a
	// negative/non-finite result) is treated as a failed rollout step.
	Get(state, control mat.Vector, dynamics Dynamics, time float64) (float64, error)

	// Copy returns an independent replica, safe to use concurrently
	// with the original from a different goroutine.
	Copy() Cost

	// Reset clears any accumulated internal state (e.g. integral terms)
	// before the cost is reused for a fresh rollout.
	Reset()
}
