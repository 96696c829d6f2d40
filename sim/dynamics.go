// Package sim provides example Dynamics and Cost implementations used
// to exercise the mppi package end to end (spec.md section 8's
// scenarios S1-S4) and by cmd/mppictl's demo harness. None of it is
// part of the mppi/forecast contract; it plays the role spec.md section
// 1 assigns to "the physics simulator front-end" and "the cost
// functional", both declared external collaborators.
package sim

import (
	"github.com/gabrielblomberg/AssistedManipulation/mppi"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Integrator is a first-order point-mass system, xdot = u, of
// configurable dimension. It is the dynamics used by spec.md's S1-S4
// scenarios ("Dynamics: xdot = u, state_dof = 1, control_dof = 1"),
// generalized to arbitrary dimension so the same implementation covers
// multi-axis tracking demos.
type Integrator struct {
	dof   int
	state *mat.VecDense
}

// NewIntegrator constructs a dof-dimensional first-order integrator.
func NewIntegrator(dof int) *Integrator {
	return &Integrator{dof: dof, state: mat.NewVecDense(dof, nil)}
}

// StateDoF returns dof.
func (i *Integrator) StateDoF() int { return i.dof }

// ControlDoF returns dof (state and control share the same dimension
// for a first-order integrator).
func (i *Integrator) ControlDoF() int { return i.dof }

// Set reinitializes the integrator's state.
func (i *Integrator) Set(state mat.Vector) {
	i.state.CopyVec(state)
}

// Step advances the integrator: x <- x + u*dt.
func (i *Integrator) Step(control mat.Vector, dt float64) (*mat.VecDense, error) {
	if control.Len() != i.dof {
		return nil, errors.Errorf("sim: control length %d does not match dof %d", control.Len(), i.dof)
	}
	next := mat.NewVecDense(i.dof, nil)
	for k := 0; k < i.dof; k++ {
		next.SetVec(k, i.state.AtVec(k)+control.AtVec(k)*dt)
	}
	i.state = next
	return next, nil
}

// Copy returns an independent replica of the integrator, for use by a
// separate rollout worker goroutine.
func (i *Integrator) Copy() mppi.Dynamics {
	clone := mat.NewVecDense(i.dof, nil)
	clone.CopyVec(i.state)
	return &Integrator{dof: i.dof, state: clone}
}
