package mppi

import "github.com/pkg/errors"

// ErrAllRolloutsFailed is returned by Update when every rollout produced
// a non-finite cost (spec.md section 7, category 4). The nominal
// trajectory is left unchanged; this is not a fatal error.
var ErrAllRolloutsFailed = errors.New("mppi: all rollouts failed, nominal trajectory left unchanged")

// ErrDynamicsRequired is returned at construction when no Dynamics is
// supplied. Go's interface satisfaction already makes the absence of a
// Copy() method a compile error (spec.md section 9: "the absence of
// copy() on a user implementation is a hard construction failure"); this
// sentinel covers the one construction-time failure that still only
// shows up at runtime, a nil Dynamics.
var ErrDynamicsRequired = errors.New("mppi: dynamics must not be nil")

// ErrCostRequired is the Cost analogue of ErrDynamicsRequired.
var ErrCostRequired = errors.New("mppi: cost must not be nil")

// ErrDoFMismatch is returned at construction when the dynamics and cost
// disagree on state_dof or control_dof.
var ErrDoFMismatch = errors.New("mppi: dynamics and cost disagree on degrees of freedom")
