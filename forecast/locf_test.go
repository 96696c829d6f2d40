package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLOCFForecastBeforeAnyUpdateIsZero(t *testing.T) {
	l := NewLOCF(2)
	v, err := l.Forecast(5.0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, v.RawVector().Data)
}

func TestLOCFForecastReturnsLastObservationVerbatim(t *testing.T) {
	l := NewLOCF(1)
	require.NoError(t, l.Update(mat.NewVecDense(1, []float64{3.0}), 1.0))

	for _, at := range []float64{1.0, 2.0, 100.0} {
		v, err := l.Forecast(at)
		require.NoError(t, err)
		assert.Equal(t, 3.0, v.AtVec(0))
	}
}

func TestLOCFIgnoresNonAdvancingObservations(t *testing.T) {
	l := NewLOCF(1)
	require.NoError(t, l.Update(mat.NewVecDense(1, []float64{1.0}), 5.0))
	require.NoError(t, l.Update(mat.NewVecDense(1, []float64{99.0}), 5.0)) // same timestamp: ignored
	require.NoError(t, l.Update(mat.NewVecDense(1, []float64{99.0}), 3.0)) // older: ignored

	v, err := l.Forecast(10.0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.AtVec(0))
	assert.Equal(t, 5.0, l.LastUpdateTime())
}

func TestLOCFAcceptsStrictlyNewerObservation(t *testing.T) {
	l := NewLOCF(1)
	require.NoError(t, l.Update(mat.NewVecDense(1, []float64{1.0}), 5.0))
	require.NoError(t, l.Update(mat.NewVecDense(1, []float64{2.0}), 6.0))

	v, err := l.Forecast(6.0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.AtVec(0))
}

func TestLOCFHandleDelegates(t *testing.T) {
	l := NewLOCF(1)
	require.NoError(t, l.Update(mat.NewVecDense(1, []float64{4.0}), 1.0))

	h := l.Handle()
	v, err := h.Forecast(1.0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.AtVec(0))
	assert.Equal(t, 1.0, h.LastUpdateTime())
}
