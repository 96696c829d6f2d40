// Command mppictl runs the assisted-manipulation MPPI controller
// against the point-mass demo dynamics/cost in sim/, logging the
// tracked state and the commanded and realized controls every ten
// cycles, then the final state. It exists to exercise mppi.Optimizer
// end to end (spec.md section 1 excludes any real CLI/config/logging
// front-end from the core, so this harness owns that concern instead).
//
// The MPPI controller's internal dynamics model assumes a perfect
// first-order integrator, but the "real" plant it drives here lags its
// commanded rate behind a first-order actuator response; a control.PID
// loop closes that gap, the harness role spec.md section 1 scopes PID
// tracking controllers to.
package main

import (
	"context"

	"github.com/gabrielblomberg/AssistedManipulation/control"
	"github.com/gabrielblomberg/AssistedManipulation/logging"
	"github.com/gabrielblomberg/AssistedManipulation/mppi"
	"github.com/gabrielblomberg/AssistedManipulation/sim"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

func main() {
	utils.ContextualMain(mainWithArgs, logging.NewLogger("mppictl"))
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	dynamics := sim.NewIntegrator(1)
	cost := sim.NewQuadratic([]float64{1.0}, 1.0, 0.0)

	covariance := mat.NewSymDense(1, []float64{0.5})
	cfg := mppi.Configuration{
		Rollouts:            64,
		KeepBestRollouts:    5,
		StepSize:            0.05,
		Horizon:             1.0, // 20 steps
		GradientStep:        1.0,
		GradientMinMax:      10.0,
		CostScale:           1.0,
		CostDiscountFactor:  1.0,
		Covariance:          covariance,
		ControlDefaultLast:  true,
		Threads:             4,
		Seed:                42,
		Logger:              logger,
	}

	initialState := mat.NewVecDense(1, []float64{0.0})
	optimizer, err := mppi.New(dynamics, cost, cfg, initialState, 0.0)
	if err != nil {
		return err
	}

	// The actuator tracking loop: realizedRate lags the commanded control
	// through a first-order response, and pid closes that gap so the
	// plant driving `state` sees something closer to the commanded rate
	// than the raw actuator lag would deliver on its own.
	pid := control.NewPID(4.0, 0.5, 0.0, -5.0, 5.0)
	realizedRate := 0.0

	state := mat.NewVecDense(1, []float64{0.0})
	time := 0.0
	for cycle := 0; cycle < 50; cycle++ {
		if err := optimizer.Update(state, time); err != nil && err != mppi.ErrAllRolloutsFailed {
			return err
		}

		commanded := optimizer.EvaluateAt(time)
		correction := pid.Next(commanded[0]-realizedRate, cfg.StepSize)
		realizedRate += correction * cfg.StepSize

		next, err := dynamics.Step(mat.NewVecDense(1, []float64{realizedRate}), cfg.StepSize)
		if err != nil {
			return err
		}
		state = next
		time += cfg.StepSize

		if cycle%10 == 0 {
			logger.Infow("cycle", "n", cycle, "x", state.AtVec(0), "u_commanded", commanded[0], "u_realized", realizedRate)
		}
	}

	logger.Infow("final state", "x", state.AtVec(0))
	return nil
}
