package mppi

import (
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Optimizer is the MPPI trajectory generator: it maintains a nominal
// control trajectory, schedules rollouts, computes the weighted-mean
// update, and exposes time-parameterized evaluation (spec.md section
// 4.E, component E). It exclusively owns its dynamics, cost, sampler,
// and rollout buffers; those buffers are allocated once here and reused
// for the optimizer's lifetime.
type Optimizer struct {
	cfg                         Configuration
	stateDoF, controlDoF, steps int

	dynamicsTemplate Dynamics
	costTemplate     Cost
	sampler          *Gaussian
	logger           Logger

	// Orchestrator-owned working state. Touched only by Update, which
	// spec.md's concurrency model requires to run on a single thread;
	// concurrent calls to Update are not supported (mirroring
	// "the orchestrator waits on rollout completion before proceeding").
	nominal     *mat.Dense // controlDoF x steps
	nominalPrev *mat.Dense // scratch: nominal before this cycle's gradient step
	deltaNoise  *mat.Dense // controlDoF x steps, source for the next anti-optimum rollout
	keptNoise   *mat.Dense // keepBest*controlDoF x steps, warm-started noise
	noiseBank   *mat.Dense // rollouts*controlDoF x steps, rebuilt every cycle
	costs       []float64
	weights     []float64
	rolloutTime float64
	lastShift   int

	// Published state, guarded by mu. evaluate_at and current_trajectory
	// read only this; they never contend with a running rollout cycle.
	mu             sync.RWMutex
	published      *mat.Dense // controlDoF x steps
	publishedTime  float64
	publishedNoise *mat.Dense // rollouts*controlDoF x steps, snapshot for introspection
	publishedCosts []float64
}

// New constructs an Optimizer from a frozen configuration, the dynamics
// and cost it will drive, and the caller's state/time at construction.
// Invalid configurations (mismatched dimensions, non-positive durations,
// keep_best >= rollouts-1, mismatched control bounds) fail construction
// and return no optimizer (spec.md section 6).
func New(dynamics Dynamics, cost Cost, cfg Configuration, initialState mat.Vector, initialTime float64) (*Optimizer, error) {
	if dynamics == nil {
		return nil, ErrDynamicsRequired
	}
	if cost == nil {
		return nil, ErrCostRequired
	}

	controlDoF := dynamics.ControlDoF()
	stateDoF := dynamics.StateDoF()
	if cost.ControlDoF() != controlDoF || cost.StateDoF() != stateDoF {
		return nil, ErrDoFMismatch
	}
	if initialState.Len() != stateDoF {
		return nil, errors.Errorf("mppi: initial state length %d does not match state_dof %d", initialState.Len(), stateDoF)
	}

	if err := cfg.Validate(controlDoF); err != nil {
		return nil, errors.Wrap(err, "mppi: invalid configuration")
	}

	sampler, err := NewGaussian(cfg.Covariance, cfg.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "mppi: failed to construct sampler")
	}

	steps := cfg.Steps()

	o := &Optimizer{
		cfg:              cfg,
		stateDoF:         stateDoF,
		controlDoF:       controlDoF,
		steps:            steps,
		dynamicsTemplate: dynamics,
		costTemplate:     cost,
		sampler:          sampler,
		logger:           cfg.logger(),

		nominal:     mat.NewDense(controlDoF, steps, nil),
		nominalPrev: mat.NewDense(controlDoF, steps, nil),
		deltaNoise:  mat.NewDense(controlDoF, steps, nil),
		noiseBank:   mat.NewDense(cfg.Rollouts*controlDoF, steps, nil),
		costs:       make([]float64, cfg.Rollouts),
		weights:     make([]float64, cfg.Rollouts),
		rolloutTime: initialTime,

		published:     mat.NewDense(controlDoF, steps, nil),
		publishedTime: initialTime,
		publishedNoise: mat.NewDense(cfg.Rollouts*controlDoF, steps, nil),
		publishedCosts: make([]float64, cfg.Rollouts),
	}
	if cfg.KeepBestRollouts > 0 {
		o.keptNoise = mat.NewDense(cfg.KeepBestRollouts*controlDoF, steps, nil)
	}

	return o, nil
}

// Update performs one full MPPI cycle (spec.md section 4.E): it
// time-shifts the nominal trajectory to the caller's time, samples
// perturbations, rolls each out in parallel, computes weights, and
// updates and publishes the nominal trajectory. It never panics or
// returns a fatal error; ErrAllRolloutsFailed is informational and
// means the nominal trajectory (beyond the time-shift) was left
// untouched this cycle.
func (o *Optimizer) Update(state mat.Vector, time float64) error {
	if state.Len() != o.stateDoF {
		return errors.Errorf("mppi: state length %d does not match state_dof %d", state.Len(), o.stateDoF)
	}

	o.timeShift(time)
	o.sample()

	costs := o.runRollouts(state, o.nominal, o.noiseBank, o.steps)
	copy(o.costs, costs)

	anyFinite := false
	failed := 0
	jmin := math.Inf(1)
	for _, c := range o.costs {
		if isFinite(c) {
			anyFinite = true
			if c < jmin {
				jmin = c
			}
		} else {
			failed++
		}
	}

	if !anyFinite {
		o.logger.Warnw("mppi: all rollouts failed this cycle, nominal left unchanged", "time", time)
		o.publish()
		return ErrAllRolloutsFailed
	}
	if failed > 0 {
		o.logger.Warnw("mppi: some rollouts failed this cycle and get zero weight", "failed", failed, "time", time)
	}

	o.weigh(jmin)
	o.nominalPrev.Copy(o.nominal)
	o.gradientStep()
	o.deltaNoise.Sub(o.nominal, o.nominalPrev)
	o.warmStartNext()
	o.publish()
	return nil
}

// timeShift implements step 1 of the update algorithm.
func (o *Optimizer) timeShift(callerTime float64) {
	tau := callerTime - o.rolloutTime
	if tau < 0 {
		tau = 0
	}
	shift := int(math.Floor(tau / o.cfg.StepSize))
	if shift > o.steps {
		shift = o.steps
	}
	if shift == 0 {
		o.lastShift = 0
		return
	}

	lastGood := lastColumn(o.nominal)
	fillNominal := func(int) []float64 {
		if o.cfg.ControlDefaultLast {
			out := make([]float64, len(lastGood))
			copy(out, lastGood)
			return out
		}
		out := make([]float64, len(o.cfg.ControlDefaultValue))
		copy(out, o.cfg.ControlDefaultValue)
		return out
	}

	shiftColumnsLeft(o.nominal, shift, fillNominal)
	shiftColumnsLeft(o.deltaNoise, shift, nil)
	if o.keptNoise != nil {
		shiftColumnsLeft(o.keptNoise, shift, nil)
	}

	o.rolloutTime += float64(shift) * o.cfg.StepSize
	o.lastShift = shift
}

// sample implements step 2: rebuild the rollout noise bank for this
// cycle. Rollout 0 stays all-zero, rollout 1 is the negated,
// time-shifted previous update delta, rollouts [2, 2+keepBest) carry
// over warm-started noise (resampling only the freshly time-shifted
// tail), and the remainder are freshly sampled in full.
func (o *Optimizer) sample() {
	cols := o.steps

	// Rollout 0: zero noise, always.
	zeroRow := make([]float64, cols)
	for i := 0; i < o.controlDoF; i++ {
		o.noiseBank.SetRow(i, zeroRow)
	}

	// Rollout 1: anti-optimum.
	for i := 0; i < o.controlDoF; i++ {
		row := make([]float64, cols)
		for k := 0; k < cols; k++ {
			row[k] = -o.deltaNoise.At(i, k)
		}
		o.noiseBank.SetRow(o.controlDoF+i, row)
	}

	keptCount := o.cfg.KeepBestRollouts
	for kb := 0; kb < keptCount; kb++ {
		destOffset := (2 + kb) * o.controlDoF
		srcOffset := kb * o.controlDoF
		for i := 0; i < o.controlDoF; i++ {
			row := mat.Row(nil, srcOffset+i, o.keptNoise)
			o.noiseBank.SetRow(destOffset+i, row)
		}
		for col := cols - o.lastShift; col < cols; col++ {
			if col < 0 {
				continue
			}
			draw := o.sampler.Sample(nil)
			for i := 0; i < o.controlDoF; i++ {
				o.noiseBank.Set(destOffset+i, col, draw.AtVec(i))
				o.keptNoise.Set(srcOffset+i, col, draw.AtVec(i))
			}
		}
	}

	for r := 2 + keptCount; r < o.cfg.Rollouts; r++ {
		destOffset := r * o.controlDoF
		for col := 0; col < cols; col++ {
			draw := o.sampler.Sample(nil)
			for i := 0; i < o.controlDoF; i++ {
				o.noiseBank.Set(destOffset+i, col, draw.AtVec(i))
			}
		}
	}
}

// weigh implements step 4, including the zero-sum fallback spec.md
// section 9 leaves as an explicit choice: uniform weight over the
// rollouts whose cost is finite.
func (o *Optimizer) weigh(jmin float64) {
	sum := 0.0
	for r, c := range o.costs {
		if isFinite(c) {
			w := math.Exp(-(c - jmin) / o.cfg.CostScale)
			o.weights[r] = w
			sum += w
		} else {
			o.weights[r] = 0
		}
	}

	if sum == 0 {
		finiteCount := 0
		for _, c := range o.costs {
			if isFinite(c) {
				finiteCount++
			}
		}
		o.logger.Warnw("mppi: cost_scale too small or all costs collided, falling back to uniform weights")
		for r, c := range o.costs {
			if isFinite(c) {
				o.weights[r] = 1.0 / float64(finiteCount)
			} else {
				o.weights[r] = 0
			}
		}
		return
	}

	for r := range o.weights {
		o.weights[r] /= sum
	}
}

// gradientStep implements step 5: the clamped, weighted-mean blend of
// rollout noise into the nominal trajectory, followed by the optional
// control-bound clamp.
func (o *Optimizer) gradientStep() {
	for k := 0; k < o.steps; k++ {
		for i := 0; i < o.controlDoF; i++ {
			g := 0.0
			for r := 0; r < o.cfg.Rollouts; r++ {
				g += o.weights[r] * o.noiseBank.At(r*o.controlDoF+i, k)
			}
			if g > o.cfg.GradientMinMax {
				g = o.cfg.GradientMinMax
			} else if g < -o.cfg.GradientMinMax {
				g = -o.cfg.GradientMinMax
			}

			v := o.nominal.At(i, k) + o.cfg.GradientStep*g
			if o.cfg.ControlBound {
				if v < o.cfg.ControlMin[i] {
					v = o.cfg.ControlMin[i]
				} else if v > o.cfg.ControlMax[i] {
					v = o.cfg.ControlMax[i]
				}
			}
			o.nominal.Set(i, k, v)
		}
	}
}

// warmStartNext selects the KeepBestRollouts lowest-cost rollouts of
// this cycle and stashes their noise for next cycle's sample() call.
func (o *Optimizer) warmStartNext() {
	keptCount := o.cfg.KeepBestRollouts
	if keptCount == 0 {
		return
	}

	// Reserved rollouts 0 (zero-noise) and 1 (anti-optimum) are never
	// eligible to be warm-started into the kept-best slots (spec.md
	// section 2, section 4.E step 2); only indices 2..Rollouts-1 compete.
	order := make([]int, len(o.costs)-2)
	for i := range order {
		order[i] = i + 2
	}
	sort.Slice(order, func(a, b int) bool {
		ca, cb := o.costs[order[a]], o.costs[order[b]]
		if !isFinite(ca) {
			return false
		}
		if !isFinite(cb) {
			return true
		}
		return ca < cb
	})

	for kb := 0; kb < keptCount; kb++ {
		r := order[kb]
		destOffset := kb * o.controlDoF
		srcOffset := r * o.controlDoF
		for i := 0; i < o.controlDoF; i++ {
			o.keptNoise.SetRow(destOffset+i, mat.Row(nil, srcOffset+i, o.noiseBank))
		}
	}
}

// publish implements step 6: copy the updated nominal (and an
// introspection snapshot of this cycle's rollouts) under the trajectory
// mutex, so evaluators see either cycle n's or n+1's trajectory, never a
// mixture.
func (o *Optimizer) publish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published.Copy(o.nominal)
	o.publishedTime = o.rolloutTime
	o.publishedNoise.Copy(o.noiseBank)
	copy(o.publishedCosts, o.costs)
}

// EvaluateAt returns the control active at time, per spec.md's exact
// time-shift/interpolation rule. It only ever contends with publish's
// column copy, never with a running rollout cycle.
func (o *Optimizer) EvaluateAt(time float64) []float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()

	kf := (time - o.publishedTime) / o.cfg.StepSize
	if kf < 0 {
		return mat.Col(nil, 0, o.published)
	}

	k := int(math.Floor(kf))
	if k >= o.steps {
		return columnAt(o.published, k, o.cfg.ControlDefaultLast, o.cfg.ControlDefaultValue)
	}

	frac := kf - float64(k)
	if frac == 0 {
		return mat.Col(nil, k, o.published)
	}
	colA := mat.Col(nil, k, o.published)
	colB := columnAt(o.published, k+1, o.cfg.ControlDefaultLast, o.cfg.ControlDefaultValue)
	return interpolateColumns(colA, colB, frac)
}

// CurrentTrajectory returns a snapshot copy of the published nominal
// trajectory, optionally Savitzky-Golay smoothed (Configuration.Smoothing).
func (o *Optimizer) CurrentTrajectory() *mat.Dense {
	o.mu.RLock()
	defer o.mu.RUnlock()

	rows, cols := o.published.Dims()
	snap := mat.NewDense(rows, cols, nil)
	snap.Copy(o.published)

	if o.cfg.Smoothing != nil {
		return savitzkyGolaySmooth(snap, o.cfg.Smoothing.Window)
	}
	return snap
}

// Rollout returns a copy of the noise trajectory (controlDoF x steps)
// sampled for rollout i in the most recently completed cycle, for
// logging/introspection (spec.md section 6).
func (o *Optimizer) Rollout(i int) (*mat.Dense, error) {
	if i < 0 || i >= o.cfg.Rollouts {
		return nil, errors.Errorf("mppi: rollout index %d out of range [0, %d)", i, o.cfg.Rollouts)
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	out := mat.NewDense(o.controlDoF, o.steps, nil)
	for r := 0; r < o.controlDoF; r++ {
		out.SetRow(r, mat.Row(nil, i*o.controlDoF+r, o.publishedNoise))
	}
	return out, nil
}

// Cost returns the cumulative discounted cost computed for rollout i in
// the most recently completed cycle.
func (o *Optimizer) Cost(i int) (float64, error) {
	if i < 0 || i >= o.cfg.Rollouts {
		return 0, errors.Errorf("mppi: rollout index %d out of range [0, %d)", i, o.cfg.Rollouts)
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.publishedCosts[i], nil
}

// ControlDoF returns the control dimension the optimizer was constructed with.
func (o *Optimizer) ControlDoF() int { return o.controlDoF }

// StateDoF returns the state dimension the optimizer was constructed with.
func (o *Optimizer) StateDoF() int { return o.stateDoF }

// Steps returns the number of columns in the control trajectory.
func (o *Optimizer) Steps() int { return o.steps }
