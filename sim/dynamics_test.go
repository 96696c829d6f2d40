package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestIntegratorSteps(t *testing.T) {
	i := NewIntegrator(1)
	i.Set(mat.NewVecDense(1, []float64{0}))

	next, err := i.Step(mat.NewVecDense(1, []float64{2.0}), 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, next.AtVec(0), 1e-12)

	next, err = i.Step(mat.NewVecDense(1, []float64{2.0}), 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, next.AtVec(0), 1e-12)
}

func TestIntegratorRejectsMismatchedControl(t *testing.T) {
	i := NewIntegrator(2)
	i.Set(mat.NewVecDense(2, []float64{0, 0}))
	_, err := i.Step(mat.NewVecDense(1, []float64{1}), 0.1)
	assert.Error(t, err)
}

func TestIntegratorCopyIsIndependent(t *testing.T) {
	i := NewIntegrator(1)
	i.Set(mat.NewVecDense(1, []float64{5}))

	clone := i.Copy()
	_, err := clone.Step(mat.NewVecDense(1, []float64{1}), 1.0)
	require.NoError(t, err)

	// The original's state must be untouched by stepping the clone.
	next, err := i.Step(mat.NewVecDense(1, []float64{0}), 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, next.AtVec(0), 1e-12)
}
