package mppi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestShiftColumnsLeft(t *testing.T) {
	m := mat.NewDense(1, 4, []float64{1, 2, 3, 4})
	shiftColumnsLeft(m, 2, func(int) []float64 { return []float64{9} })
	assert.Equal(t, []float64{3, 4, 9, 9}, mat.Row(nil, 0, m))
}

func TestShiftColumnsLeftZeroShiftNoop(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{1, 2, 3})
	shiftColumnsLeft(m, 0, nil)
	assert.Equal(t, []float64{1, 2, 3}, mat.Row(nil, 0, m))
}

func TestShiftColumnsLeftClampsToWidth(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{1, 2, 3})
	shiftColumnsLeft(m, 100, func(int) []float64 { return []float64{5} })
	assert.Equal(t, []float64{5, 5, 5}, mat.Row(nil, 0, m))
}

func TestShiftColumnsLeftNilFillZeros(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{1, 2, 3})
	shiftColumnsLeft(m, 1, nil)
	assert.Equal(t, []float64{2, 3, 0}, mat.Row(nil, 0, m))
}

func TestColumnAtWithinRange(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{1, 2, 3})
	assert.Equal(t, []float64{2}, columnAt(m, 1, true, nil))
}

func TestColumnAtPastHorizonDefaultLast(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{1, 2, 3})
	assert.Equal(t, []float64{3}, columnAt(m, 3, true, nil))
}

func TestColumnAtPastHorizonDefaultValue(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{1, 2, 3})
	assert.Equal(t, []float64{7}, columnAt(m, 3, false, []float64{7}))
}

func TestInterpolateColumnsMidpoint(t *testing.T) {
	out := interpolateColumns([]float64{0, 10}, []float64{2, 20}, 0.5)
	assert.Equal(t, []float64{1, 15}, out)
}

func TestInterpolateColumnsEndpoints(t *testing.T) {
	a := []float64{1, 2}
	b := []float64{3, 4}
	assert.Equal(t, a, interpolateColumns(a, b, 0))
	assert.Equal(t, b, interpolateColumns(a, b, 1))
}

func TestLastColumn(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	assert.Equal(t, []float64{3, 6}, lastColumn(m))
}
