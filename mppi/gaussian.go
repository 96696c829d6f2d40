package mppi

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian draws correlated control-noise vectors from a fixed,
// zero-mean covariance (spec.md section 4.A). Construction performs a
// self-adjoint eigendecomposition Sigma = V Lambda V^T and stores
// T = V Lambda^(1/2); a draw is x = T z for independent standard-normal
// z_i. The pseudo-random stream is process-shared (guarded by a mutex)
// and seeded for reproducibility.
//
// Based on the same construction used by
// https://github.com/ethz-asl/sampling_based_control's multivariate
// normal helper, referenced by _examples/original_source/src/mppi.hpp.
type Gaussian struct {
	dim       int
	transform *mat.Dense // T = V * Lambda^(1/2), dim x dim

	mu   sync.Mutex
	dist distuv.Normal
}

// NewGaussian constructs a sampler for N(0, covariance). covariance must
// be square; it need not be strictly positive definite (eigenvalues are
// clamped to zero below, so an all-zero covariance yields an
// always-zero sampler per spec.md's "idempotence of zero-variance
// sampling" property).
func NewGaussian(covariance mat.Symmetric, seed uint64) (*Gaussian, error) {
	dim, cols := covariance.Dims()
	if dim != cols {
		return nil, errors.Errorf("gaussian: covariance must be square, got %dx%d", dim, cols)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(covariance, true); !ok {
		return nil, errors.New("gaussian: eigendecomposition of covariance failed")
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	sqrtLambda := mat.NewDiagDense(dim, make([]float64, dim))
	for i, v := range values {
		if v < 0 {
			// Numerical noise on a PSD matrix can produce tiny negative
			// eigenvalues; clamp rather than propagate NaN.
			v = 0
		}
		sqrtLambda.SetDiag(i, math.Sqrt(v))
	}

	transform := mat.NewDense(dim, dim, nil)
	transform.Mul(&vectors, sqrtLambda)

	return &Gaussian{
		dim:       dim,
		transform: transform,
		dist: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(seed), //nolint:gosec // reproducibility, not cryptographic use
		},
	}, nil
}

// Dim returns the dimension of a single draw.
func (g *Gaussian) Dim() int { return g.dim }

// Sample draws one vector from N(0, Sigma) into out, reusing its
// storage if it already has the right length.
func (g *Gaussian) Sample(out *mat.VecDense) *mat.VecDense {
	z := mat.NewVecDense(g.dim, nil)

	g.mu.Lock()
	for i := 0; i < g.dim; i++ {
		z.SetVec(i, g.dist.Rand())
	}
	g.mu.Unlock()

	if out == nil || out.Len() != g.dim {
		out = mat.NewVecDense(g.dim, nil)
	}
	out.MulVec(g.transform, z)
	return out
}
