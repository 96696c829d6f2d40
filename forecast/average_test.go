package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewAverageRejectsNonPositiveWindow(t *testing.T) {
	_, err := NewAverage(1, 0)
	assert.Error(t, err)
	_, err = NewAverage(1, -1)
	assert.Error(t, err)
}

func TestAverageForecastIsArithmeticMean(t *testing.T) {
	a, err := NewAverage(1, 10.0)
	require.NoError(t, err)

	require.NoError(t, a.Update(mat.NewVecDense(1, []float64{2.0}), 0.0))
	require.NoError(t, a.Update(mat.NewVecDense(1, []float64{4.0}), 1.0))

	v, err := a.Forecast(1.0)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v.AtVec(0), 1e-12)
}

func TestAverageRejectsObservationsOlderThanNewestBuffered(t *testing.T) {
	a, err := NewAverage(1, 10.0)
	require.NoError(t, err)
	require.NoError(t, a.Update(mat.NewVecDense(1, []float64{1.0}), 5.0))
	assert.Error(t, a.Update(mat.NewVecDense(1, []float64{2.0}), 4.0))
}

// Forecaster evict rule (spec.md section 8): after Update(v, t) followed
// by repeated AdvanceTime(t') with t' -> infinity, the buffer contains
// exactly one element, the last observation.
func TestAverageEvictRuleRetainsOnlyMostRecent(t *testing.T) {
	a, err := NewAverage(1, 2.0)
	require.NoError(t, err)

	require.NoError(t, a.Update(mat.NewVecDense(1, []float64{1.0}), 0.0))
	require.NoError(t, a.Update(mat.NewVecDense(1, []float64{2.0}), 1.0))
	require.NoError(t, a.Update(mat.NewVecDense(1, []float64{3.0}), 1.5))
	assert.Equal(t, 3, a.Len())

	require.NoError(t, a.AdvanceTime(100.0))
	assert.Equal(t, 1, a.Len())

	v, err := a.Forecast(100.0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.AtVec(0))

	require.NoError(t, a.AdvanceTime(1_000_000.0))
	assert.Equal(t, 1, a.Len())
}

func TestAverageForecastEmptyIsZero(t *testing.T) {
	a, err := NewAverage(2, 1.0)
	require.NoError(t, err)
	v, err := a.Forecast(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, v.RawVector().Data)
}

func TestAverageHandleDelegates(t *testing.T) {
	a, err := NewAverage(1, 10.0)
	require.NoError(t, err)
	require.NoError(t, a.Update(mat.NewVecDense(1, []float64{7.0}), 0.0))

	h := a.Handle()
	v, err := h.Forecast(0.0)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v.AtVec(0))
}
