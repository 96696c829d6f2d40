package mppi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func validConfig() Configuration {
	return Configuration{
		Rollouts:           4,
		KeepBestRollouts:   1,
		StepSize:           0.1,
		Horizon:            0.5,
		GradientStep:       1.0,
		GradientMinMax:     10.0,
		CostScale:          1.0,
		CostDiscountFactor: 1.0,
		Covariance:         mat.NewSymDense(2, []float64{1, 0, 0, 1}),
		ControlDefaultLast: true,
	}
}

func TestConfigurationValidateAccepts(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate(2))
	assert.Equal(t, 5, cfg.Steps())
}

func TestConfigurationValidateRejectsRollouts(t *testing.T) {
	cfg := validConfig()
	cfg.Rollouts = 1
	assert.Error(t, cfg.Validate(2))
}

func TestConfigurationValidateRejectsKeepBest(t *testing.T) {
	cfg := validConfig()
	cfg.Rollouts = 3
	cfg.KeepBestRollouts = 2 // must be <= rollouts-2 == 1
	assert.Error(t, cfg.Validate(2))
}

func TestConfigurationValidateRejectsNonPositiveDurations(t *testing.T) {
	cfg := validConfig()
	cfg.StepSize = 0
	assert.Error(t, cfg.Validate(2))

	cfg = validConfig()
	cfg.Horizon = -1
	assert.Error(t, cfg.Validate(2))
}

func TestConfigurationValidateRejectsGradientStep(t *testing.T) {
	cfg := validConfig()
	cfg.GradientStep = 0
	assert.Error(t, cfg.Validate(2))

	cfg = validConfig()
	cfg.GradientStep = 1.5
	assert.Error(t, cfg.Validate(2))
}

func TestConfigurationValidateRejectsCovarianceMismatch(t *testing.T) {
	cfg := validConfig()
	assert.Error(t, cfg.Validate(3))
}

func TestConfigurationValidateControlBoundRequiresSlices(t *testing.T) {
	cfg := validConfig()
	cfg.ControlBound = true
	assert.Error(t, cfg.Validate(2))

	cfg.ControlMin = []float64{-1, -1}
	cfg.ControlMax = []float64{1, 1}
	assert.NoError(t, cfg.Validate(2))

	cfg.ControlMax = []float64{1, -2}
	assert.Error(t, cfg.Validate(2))
}

func TestConfigurationValidateControlDefaultValueRequired(t *testing.T) {
	cfg := validConfig()
	cfg.ControlDefaultLast = false
	assert.Error(t, cfg.Validate(2))

	cfg.ControlDefaultValue = []float64{0, 0}
	assert.NoError(t, cfg.Validate(2))
}

func TestConfigurationValidateSmoothingWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Smoothing = &SavitzkyGolayConfig{Window: 4}
	assert.Error(t, cfg.Validate(2))

	cfg.Smoothing.Window = 5
	assert.NoError(t, cfg.Validate(2))
}

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	var l Logger = noopLogger{}
	l.Warnw("nope")
	l.Infow("nope")
}
