package mppi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSavitzkyGolaySmoothPreservesLinearRamp(t *testing.T) {
	// A degree-2 filter reproduces any degree <= 2 polynomial exactly,
	// including a straight line, away from the edges' truncated window.
	traj := mat.NewDense(1, 9, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8})
	smoothed := savitzkyGolaySmooth(traj, 5)
	for j := 2; j < 7; j++ {
		assert.InDelta(t, float64(j), smoothed.At(0, j), 1e-9)
	}
}

func TestSavitzkyGolaySmoothSmoothsNoise(t *testing.T) {
	traj := mat.NewDense(1, 5, []float64{0, 10, 0, 10, 0})
	smoothed := savitzkyGolaySmooth(traj, 5)
	assert.Less(t, smoothed.At(0, 2), 10.0)
	assert.Greater(t, smoothed.At(0, 2), 0.0)
}

func TestSavitzkyGolaySmoothPreservesShape(t *testing.T) {
	traj := mat.NewDense(2, 6, []float64{
		1, 2, 3, 4, 5, 6,
		6, 5, 4, 3, 2, 1,
	})
	smoothed := savitzkyGolaySmooth(traj, 3)
	rows, cols := smoothed.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 6, cols)
}

func TestSavitzkyGolaySmoothSingleColumnWindow(t *testing.T) {
	traj := mat.NewDense(1, 1, []float64{5})
	smoothed := savitzkyGolaySmooth(traj, 3)
	assert.InDelta(t, 5.0, smoothed.At(0, 0), 1e-9)
}
