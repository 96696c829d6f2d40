package mppi

import (
	"math"
	"sync"

	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// runRollouts fans step 3 of the update algorithm (spec.md section 4.E)
// out across a fixed-size worker pool. Each worker owns an independent
// (dynamics, cost) replica produced by Copy() at pool startup; the only
// state shared between workers is the read-only nominal/noise banks and
// the per-rollout costs slice, each rollout writing to its own index.
func (o *Optimizer) runRollouts(state mat.Vector, nominal, noiseBank *mat.Dense, steps int) []float64 {
	costs := make([]float64, o.cfg.Rollouts)

	threads := o.cfg.threads()
	if threads > o.cfg.Rollouts {
		threads = o.cfg.Rollouts
	}
	if threads < 1 {
		threads = 1
	}

	jobs := make(chan int, o.cfg.Rollouts)
	for r := 0; r < o.cfg.Rollouts; r++ {
		jobs <- r
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		dyn := o.dynamicsTemplate.Copy()
		cst := o.costTemplate.Copy()

		wg.Add(1)
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			for r := range jobs {
				costs[r] = o.rolloutOne(r, state, nominal, noiseBank, dyn, cst, steps)
			}
		})
	}
	wg.Wait()

	return costs
}

// rolloutOne simulates and scores a single rollout index, returning its
// cumulative discounted cost. Any dynamics or cost failure (an error, or
// a non-finite / negative value) short-circuits the rollout with +Inf,
// per spec.md section 7 categories 2-3.
func (o *Optimizer) rolloutOne(
	r int,
	state mat.Vector,
	nominal, noiseBank *mat.Dense,
	dyn Dynamics,
	cst Cost,
	steps int,
) float64 {
	cst.Reset()
	dyn.Set(state)

	cur := mat.NewVecDense(o.stateDoF, nil)
	cur.CopyVec(state)

	u := mat.NewVecDense(o.controlDoF, nil)
	rowOffset := r * o.controlDoF

	total := 0.0
	discount := 1.0
	for k := 0; k < steps; k++ {
		for i := 0; i < o.controlDoF; i++ {
			u.SetVec(i, nominal.At(i, k)+noiseBank.At(rowOffset+i, k))
		}

		t := o.rolloutTime + float64(k)*o.cfg.StepSize
		cost, err := cst.Get(cur, u, dyn, t)
		if err != nil || !isFinite(cost) || cost < 0 {
			return math.Inf(1)
		}

		total += discount * cost
		discount *= o.cfg.CostDiscountFactor

		next, err := dyn.Step(u, o.cfg.StepSize)
		if err != nil || next == nil || !vectorFinite(next) {
			return math.Inf(1)
		}
		cur = next
	}
	return total
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func vectorFinite(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		if !isFinite(v.AtVec(i)) {
			return false
		}
	}
	return true
}
