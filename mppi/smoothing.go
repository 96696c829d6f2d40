package mppi

import "gonum.org/v1/gonum/mat"

// savitzkyGolaySmooth applies a fixed-window, degree-2 Savitzky-Golay
// filter along the columns (time axis) of trajectory, returning a new
// matrix of the same shape. Columns nearer the edges than window/2 use
// a truncated, re-normalized window rather than reflecting or padding,
// since a control trajectory has no meaningful values before column 0
// or after the last column.
//
// This is a read-side convenience only (SPEC_FULL.md "SUPPLEMENTED
// FEATURES" #5): it never feeds back into the control law.
func savitzkyGolaySmooth(trajectory *mat.Dense, window int) *mat.Dense {
	rows, cols := trajectory.Dims()
	out := mat.NewDense(rows, cols, nil)
	half := window / 2

	for j := 0; j < cols; j++ {
		lo := j - half
		hi := j + half
		if lo < 0 {
			lo = 0
		}
		if hi >= cols {
			hi = cols - 1
		}
		n := hi - lo + 1

		weights := savitzkyGolayWeights(lo, hi, j)

		for i := 0; i < rows; i++ {
			sum := 0.0
			for idx := 0; idx < n; idx++ {
				sum += weights[idx] * trajectory.At(i, lo+idx)
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

// savitzkyGolayWeights computes degree-2 least-squares polynomial
// smoothing weights for the integer window [lo, hi] evaluated at
// center, by solving the normal equations of a quadratic fit directly
// (windows are small, so a closed-form 3x3 solve is cheap and avoids
// pulling in a general least-squares solver for this one call site).
func savitzkyGolayWeights(lo, hi, center int) []float64 {
	n := hi - lo + 1
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(lo+i) - float64(center)
	}

	var s0, s1, s2, s3, s4 float64
	for _, x := range xs {
		s0++
		s1 += x
		s2 += x * x
		s3 += x * x * x
		s4 += x * x * x * x
	}

	// Solve the 3x3 normal-equations system for the quadratic fit
	// coefficients' dependence on each sample, via the matrix inverse, then
	// read off the weight on the constant term (the smoothed value at
	// x=0, i.e. at `center`).
	a := mat.NewDense(3, 3, []float64{
		s0, s1, s2,
		s1, s2, s3,
		s2, s3, s4,
	})

	weights := make([]float64, n)
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		// Degenerate window (e.g. a single column): fall back to a
		// simple average.
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return weights
	}

	for i, x := range xs {
		// Row vector [1, x, x^2] times inv times [1,0,0]^T (we only want
		// the constant coefficient) gives the weight of sample i.
		row := []float64{1, x, x * x}
		w := 0.0
		for r := 0; r < 3; r++ {
			w += row[r] * inv.At(r, 0)
		}
		weights[i] = w
	}
	return weights
}
