package mppi

import "gonum.org/v1/gonum/mat"

// shiftColumnsLeft shifts every column of m left by shift positions in
// place: new column j holds old column j+shift for j in
// [0, cols-shift), and columns [cols-shift, cols) are filled by calling
// fill(j) for each freed column index j. shift is clamped to [0, cols].
func shiftColumnsLeft(m *mat.Dense, shift int, fill func(col int) []float64) {
	rows, cols := m.Dims()
	if shift <= 0 {
		return
	}
	if shift > cols {
		shift = cols
	}

	for j := 0; j < cols-shift; j++ {
		src := mat.Col(nil, j+shift, m)
		m.SetCol(j, src)
	}
	for j := cols - shift; j < cols; j++ {
		var values []float64
		if fill != nil {
			values = fill(j)
		}
		if values == nil {
			values = make([]float64, rows)
		}
		m.SetCol(j, values)
	}
}

// lastColumn returns a copy of the last column of m.
func lastColumn(m *mat.Dense) []float64 {
	_, cols := m.Dims()
	return mat.Col(nil, cols-1, m)
}

// columnAt returns the column at idx, or the "past horizon" default
// (either the last column or a fixed default value) when idx >= steps.
// Used by EvaluateAt's past-horizon rule.
func columnAt(trajectory *mat.Dense, idx int, defaultLast bool, defaultValue []float64) []float64 {
	_, steps := trajectory.Dims()
	if idx < steps {
		return mat.Col(nil, idx, trajectory)
	}
	if defaultLast {
		return lastColumn(trajectory)
	}
	out := make([]float64, len(defaultValue))
	copy(out, defaultValue)
	return out
}

// interpolateColumns returns the linear interpolation of columns a and b
// by fraction frac in [0, 1]: (1-frac)*a + frac*b.
func interpolateColumns(a, b []float64, frac float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = (1-frac)*a[i] + frac*b[i]
	}
	return out
}
