// Package mppi implements a sampling-based model-predictive controller
// (MPPI). It maintains a nominal control trajectory, rolls out randomly
// perturbed candidate trajectories against a pluggable dynamics model,
// scores them with a pluggable cost functional, and updates the nominal
// trajectory toward the exponentially-weighted mean of the best
// samples. The per-cycle algorithm is documented on Optimizer.Update and
// the step methods it calls.
package mppi

import (
	"math"
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// SavitzkyGolayConfig requests optional post-hoc smoothing of
// CurrentTrajectory snapshots. It never affects EvaluateAt, which always
// interpolates the unsmoothed published trajectory (SPEC_FULL.md
// "SUPPLEMENTED FEATURES" #5).
type SavitzkyGolayConfig struct {
	// Window is the number of columns averaged by the filter. Must be
	// odd and >= 3.
	Window int `json:"window"`
}

// Validate reports whether the Savitzky-Golay window is usable.
func (s *SavitzkyGolayConfig) Validate() error {
	if s == nil {
		return nil
	}
	if s.Window < 3 || s.Window%2 == 0 {
		return errors.Errorf("smoothing window must be odd and >= 3, got %d", s.Window)
	}
	return nil
}

// Configuration freezes every parameter of the trajectory optimizer.
// It is validated once at construction (Configuration.Validate) and
// never mutated afterwards.
type Configuration struct {
	// Rollouts is the total number of trajectories simulated per cycle,
	// including the two reserved slots (zero-noise and anti-optimum).
	Rollouts int `json:"rollouts"`

	// KeepBestRollouts is the number of best-performing, non-reserved
	// rollouts from the previous cycle whose noise is warm-started into
	// the next cycle instead of being freshly resampled.
	KeepBestRollouts int `json:"keepBestRollouts"`

	// StepSize is the duration Delta between trajectory columns, in
	// seconds.
	StepSize float64 `json:"stepSize"`

	// Horizon is the total duration covered by a rollout, in seconds.
	// Steps = ceil(Horizon / StepSize).
	Horizon float64 `json:"horizon"`

	// GradientStep blends the weighted-mean update into the nominal
	// trajectory; must be in (0, 1].
	GradientStep float64 `json:"gradientStep"`

	// GradientMinMax clamps each coordinate of the per-step gradient
	// update to [-GradientMinMax, +GradientMinMax].
	GradientMinMax float64 `json:"gradientMinMax"`

	// CostScale is lambda in w_i proportional to exp(-(J_i-J_min)/lambda).
	CostScale float64 `json:"costScale"`

	// CostDiscountFactor is gamma; the cost of step k is multiplied by
	// gamma^k. Must be in (0, 1].
	CostDiscountFactor float64 `json:"costDiscountFactor"`

	// Covariance is the control-noise covariance Sigma, of size
	// control_dof x control_dof. Not JSON-loadable directly (mat.Symmetric
	// is an interface); an embedding application decodes its own
	// flattened/diagonal representation and builds the matrix itself.
	Covariance mat.Symmetric `json:"-"`

	// ControlBound, if true, clamps every coordinate of the published
	// nominal trajectory to [ControlMin[i], ControlMax[i]].
	ControlBound bool      `json:"controlBound"`
	ControlMin   []float64 `json:"controlMin"`
	ControlMax   []float64 `json:"controlMax"`

	// ControlDefaultLast selects what EvaluateAt and the time-shift fill
	// return past the horizon: the last column of the trajectory if
	// true, or ControlDefaultValue if false.
	ControlDefaultLast  bool      `json:"controlDefaultLast"`
	ControlDefaultValue []float64 `json:"controlDefaultValue"`

	// Threads is the size of the rollout worker pool. Zero selects
	// runtime.GOMAXPROCS(0).
	Threads int `json:"threads"`

	// Seed seeds the Gaussian sampler's pseudo-random stream, making the
	// sequence of draws reproducible across runs. Zero picks an
	// unspecified but fixed seed (still reproducible run to run).
	Seed uint64 `json:"seed"`

	// Smoothing optionally requests Savitzky-Golay smoothing of
	// CurrentTrajectory snapshots.
	Smoothing *SavitzkyGolayConfig `json:"smoothing,omitempty"`

	// Logger receives warnings for recoverable per-cycle failures
	// (spec.md section 7). If nil, a no-op logger is used. Not
	// JSON-loadable; set by the embedding application after decoding.
	Logger Logger `json:"-"`
}

// Logger is the minimal logging capability the optimizer needs; satisfied
// by logging.Logger.
type Logger interface {
	Warnw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
}

type noopLogger struct{}

func (noopLogger) Warnw(string, ...interface{}) {}
func (noopLogger) Infow(string, ...interface{}) {}

// Steps returns ceil(Horizon / StepSize).
func (c *Configuration) Steps() int {
	return int(math.Ceil(c.Horizon / c.StepSize))
}

// Validate checks every invariant from spec.md section 6: mismatched
// dimensions, non-positive durations, keep_best >= rollouts-1, and
// control-bound slices mismatching control_dof. Independent violations
// are collected via multierr.Append rather than stopping at the first
// one, so a misconfigured Configuration reports everything wrong with it
// in one pass instead of forcing a fix-rerun-fix cycle, the way
// motionplan/ik/combined.go reports every failing solver rather than
// just the first.
func (c *Configuration) Validate(controlDoF int) error {
	var errs error
	if c.Rollouts < 2 {
		errs = multierr.Append(errs, errors.Errorf("rollouts must be >= 2, got %d", c.Rollouts))
	}
	if c.KeepBestRollouts < 0 || c.KeepBestRollouts > c.Rollouts-2 {
		errs = multierr.Append(errs, errors.Errorf("keep_best_rollouts must be in [0, rollouts-2], got %d (rollouts=%d)",
			c.KeepBestRollouts, c.Rollouts))
	}
	if c.StepSize <= 0 {
		errs = multierr.Append(errs, errors.Errorf("step_size must be > 0, got %f", c.StepSize))
	}
	if c.Horizon <= 0 {
		errs = multierr.Append(errs, errors.Errorf("horizon must be > 0, got %f", c.Horizon))
	}
	if c.GradientStep <= 0 || c.GradientStep > 1 {
		errs = multierr.Append(errs, errors.Errorf("gradient_step must be in (0, 1], got %f", c.GradientStep))
	}
	if c.GradientMinMax <= 0 {
		errs = multierr.Append(errs, errors.Errorf("gradient_minmax must be > 0, got %f", c.GradientMinMax))
	}
	if c.CostScale <= 0 {
		errs = multierr.Append(errs, errors.Errorf("cost_scale must be > 0, got %f", c.CostScale))
	}
	if c.CostDiscountFactor <= 0 || c.CostDiscountFactor > 1 {
		errs = multierr.Append(errs, errors.Errorf("cost_discount_factor must be in (0, 1], got %f", c.CostDiscountFactor))
	}
	if c.Covariance == nil {
		errs = multierr.Append(errs, errors.New("covariance must not be nil"))
	} else if r, cc := c.Covariance.Dims(); r != cc {
		errs = multierr.Append(errs, errors.Errorf("covariance must be square, got %dx%d", r, cc))
	} else if r != controlDoF {
		errs = multierr.Append(errs, errors.Errorf("covariance size %d does not match control_dof %d", r, controlDoF))
	}
	if c.ControlBound {
		if len(c.ControlMin) != controlDoF || len(c.ControlMax) != controlDoF {
			errs = multierr.Append(errs, errors.Errorf("control_min/control_max must have length control_dof=%d, got %d/%d",
				controlDoF, len(c.ControlMin), len(c.ControlMax)))
		} else {
			for i := range c.ControlMin {
				if c.ControlMin[i] > c.ControlMax[i] {
					errs = multierr.Append(errs, errors.Errorf("control_min[%d] (%f) > control_max[%d] (%f)",
						i, c.ControlMin[i], i, c.ControlMax[i]))
				}
			}
		}
	}
	if !c.ControlDefaultLast && len(c.ControlDefaultValue) != controlDoF {
		errs = multierr.Append(errs, errors.Errorf("control_default_value must have length control_dof=%d, got %d",
			controlDoF, len(c.ControlDefaultValue)))
	}
	errs = multierr.Append(errs, c.Smoothing.Validate())
	return errs
}

func (c *Configuration) threads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.GOMAXPROCS(0)
}

func (c *Configuration) logger() Logger {
	if c.Logger == nil {
		return noopLogger{}
	}
	return c.Logger
}
