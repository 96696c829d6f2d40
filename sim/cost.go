package sim

import (
	"math"

	"github.com/gabrielblomberg/AssistedManipulation/mppi"
	"gonum.org/v1/gonum/mat"
)

// Quadratic is a target-tracking cost, modeled on
// _examples/original_source/src/frankaridgeback/objective/track_point.cpp's
// `100 * ||position - target||^2` term: a weighted squared distance
// between the state and a fixed target, generalized to arbitrary
// dimension and with an optional control-effort penalty. It is the cost
// spec.md's S1 scenario names ("Cost = (x - 1)^2").
type Quadratic struct {
	dof          int
	target       []float64
	stateWeight  float64
	controlWeight float64
}

// NewQuadratic constructs a cost (stateWeight*||x-target||^2 +
// controlWeight*||u||^2). controlWeight may be zero to match spec.md's
// S1 scenario, which scores state error alone.
func NewQuadratic(target []float64, stateWeight, controlWeight float64) *Quadratic {
	t := make([]float64, len(target))
	copy(t, target)
	return &Quadratic{dof: len(target), target: t, stateWeight: stateWeight, controlWeight: controlWeight}
}

// StateDoF returns the target's dimension.
func (q *Quadratic) StateDoF() int { return q.dof }

// ControlDoF returns the target's dimension (paired with Integrator).
func (q *Quadratic) ControlDoF() int { return q.dof }

// Get returns the weighted squared tracking error plus control effort.
func (q *Quadratic) Get(state, control mat.Vector, dynamics mppi.Dynamics, time float64) (float64, error) {
	stateCost := 0.0
	for i := 0; i < q.dof; i++ {
		d := state.AtVec(i) - q.target[i]
		stateCost += d * d
	}
	controlCost := 0.0
	if q.controlWeight != 0 {
		for i := 0; i < control.Len(); i++ {
			u := control.AtVec(i)
			controlCost += u * u
		}
	}
	return q.stateWeight*stateCost + q.controlWeight*controlCost, nil
}

// Copy returns an independent replica; Quadratic carries no mutable
// per-rollout state so this just clones the (immutable) configuration.
func (q *Quadratic) Copy() mppi.Cost {
	return NewQuadratic(q.target, q.stateWeight, q.controlWeight)
}

// Reset is a no-op: Quadratic accumulates nothing between calls.
func (q *Quadratic) Reset() {}

// AntiOptimum rewards the exact negative of a given noise trajectory's
// column at each step, used by spec.md's S4 scenario ("construct a cost
// that rewards the exact negative of the previous optimum"). Target(k)
// is looked up by step index via a closure bound at construction, since
// the cost only sees a (state, control, dynamics, time) tuple and has
// no notion of "step index" otherwise.
type AntiOptimum struct {
	dof      int
	stepSize float64
	rolloutT float64
	negate   func(step int) []float64
}

// NewAntiOptimum constructs a cost that is minimized when control at
// step k equals negate(k); rolloutTime/stepSize let Get recover k from
// the time argument the optimizer passes in.
func NewAntiOptimum(dof int, rolloutTime, stepSize float64, negate func(step int) []float64) *AntiOptimum {
	return &AntiOptimum{dof: dof, stepSize: stepSize, rolloutT: rolloutTime, negate: negate}
}

// StateDoF returns dof.
func (a *AntiOptimum) StateDoF() int { return a.dof }

// ControlDoF returns dof.
func (a *AntiOptimum) ControlDoF() int { return a.dof }

// Get returns ||control - target(step)||^2, where step is derived from
// time.
func (a *AntiOptimum) Get(state, control mat.Vector, dynamics mppi.Dynamics, time float64) (float64, error) {
	step := int(math.Round((time - a.rolloutT) / a.stepSize))
	target := a.negate(step)
	cost := 0.0
	for i := 0; i < a.dof && i < len(target); i++ {
		d := control.AtVec(i) - target[i]
		cost += d * d
	}
	return cost, nil
}

// Copy returns an independent replica (AntiOptimum carries no mutable
// per-rollout state beyond the shared, read-only negate closure).
func (a *AntiOptimum) Copy() mppi.Cost {
	return &AntiOptimum{dof: a.dof, stepSize: a.stepSize, rolloutT: a.rolloutT, negate: a.negate}
}

// Reset is a no-op.
func (a *AntiOptimum) Reset() {}
