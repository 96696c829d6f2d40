package forecast

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// KalmanConfig parameterizes the Kalman forecaster (spec.md section
// 4.B). The state vector has dimension ObservedDim*(Order+1), laid out
// as [x, xdot, xddot, ...], each block of length ObservedDim.
type KalmanConfig struct {
	// ObservedDim is d, the dimension of the observed quantity.
	ObservedDim int `json:"observedDim"`

	// Order is n, the highest derivative tracked.
	Order int `json:"order"`

	// TimeStep is Delta, the prediction integration step, in seconds.
	TimeStep float64 `json:"timeStep"`

	// Horizon is the duration the prediction buffer covers, in seconds.
	Horizon float64 `json:"horizon"`

	// TransitionCovariance is Q, size s x s where s = ObservedDim*(Order+1).
	// Not JSON-loadable directly (mat.Symmetric is an interface); an
	// embedding application decodes its own flattened representation and
	// builds the matrix itself.
	TransitionCovariance mat.Symmetric `json:"-"`

	// ObservationCovariance is R, size ObservedDim x ObservedDim.
	ObservationCovariance mat.Symmetric `json:"-"`

	// InitialState is the initial system state, length s.
	InitialState mat.Vector `json:"-"`

	// InitialCovariance is the initial error covariance, size s x s.
	InitialCovariance mat.Symmetric `json:"-"`
}

func (c *KalmanConfig) stateSize() int { return c.ObservedDim * (c.Order + 1) }

// Validate checks every matrix/vector in the configuration against the
// shape s = ObservedDim*(Order+1), failing construction on any mismatch
// (spec.md section 4.B: "Fails construction if any matrix has the wrong
// shape.").
func (c *KalmanConfig) Validate() error {
	if c.ObservedDim <= 0 {
		return errors.Errorf("forecast: observed_dim must be > 0, got %d", c.ObservedDim)
	}
	if c.Order < 0 {
		return errors.Errorf("forecast: order must be >= 0, got %d", c.Order)
	}
	if c.TimeStep <= 0 {
		return errors.Errorf("forecast: time_step must be > 0, got %f", c.TimeStep)
	}
	if c.Horizon <= 0 {
		return errors.Errorf("forecast: horizon must be > 0, got %f", c.Horizon)
	}

	s := c.stateSize()
	if r, cc := c.TransitionCovariance.Dims(); r != s || cc != s {
		return errors.Errorf("forecast: transition_covariance must be %dx%d, got %dx%d", s, s, r, cc)
	}
	if r, cc := c.ObservationCovariance.Dims(); r != c.ObservedDim || cc != c.ObservedDim {
		return errors.Errorf("forecast: observation_covariance must be %dx%d, got %dx%d", c.ObservedDim, c.ObservedDim, r, cc)
	}
	if c.InitialState.Len() != s {
		return errors.Errorf("forecast: initial_state must have length %d, got %d", s, c.InitialState.Len())
	}
	if r, cc := c.InitialCovariance.Dims(); r != s || cc != s {
		return errors.Errorf("forecast: initial_covariance must be %dx%d, got %dx%d", s, s, r, cc)
	}
	return nil
}

// Kalman is the derivative-chained Kalman filter forecaster (spec.md
// section 4.B). Its transition matrix F integrates each tracked
// derivative by the Taylor rule
//
//	x^(k)(t+Delta) = sum_j (Delta^j / j!) x^(k+j)(t)
//
// and its observation matrix is H = [I_d | 0]. A second "predictor"
// state/covariance pair mirrors the filter after every correction and is
// iterated forward to fill the prediction buffer, without disturbing the
// filter's own estimate.
type Kalman struct {
	mu  sync.RWMutex
	cfg KalmanConfig

	d, n, s, steps int

	f, h, q, r *mat.Dense

	x, p           *mat.Dense // filter state (s x 1) and covariance (s x s)
	predictorX     *mat.Dense
	predictorP     *mat.Dense
	predictionBuf  *mat.Dense // d x (steps+1)
	lastUpdateTime float64
}

// NewKalman constructs a Kalman forecaster from cfg.
func NewKalman(cfg KalmanConfig) (*Kalman, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d, n := cfg.ObservedDim, cfg.Order
	s := cfg.stateSize()
	steps := int(math.Ceil(cfg.Horizon / cfg.TimeStep))

	k := &Kalman{
		cfg:           cfg,
		d:             d,
		n:             n,
		s:             s,
		steps:         steps,
		f:             buildTransition(d, n, cfg.TimeStep),
		h:             buildObservation(d, s),
		q:             denseFromSymmetric(cfg.TransitionCovariance),
		r:             denseFromSymmetric(cfg.ObservationCovariance),
		x:             mat.NewDense(s, 1, nil),
		p:             denseFromSymmetric(cfg.InitialCovariance),
		predictorX:    mat.NewDense(s, 1, nil),
		predictorP:    mat.NewDense(s, s, nil),
		predictionBuf: mat.NewDense(d, steps+1, nil),
	}
	for i := 0; i < s; i++ {
		k.x.Set(i, 0, cfg.InitialState.AtVec(i))
	}

	k.predictorX.Copy(k.x)
	k.predictorP.Copy(k.p)
	k.refillPredictionBuffer()
	return k, nil
}

// buildTransition fills F per the Taylor-integration rule: block (i,j)
// for j >= i is (Delta^(j-i)/(j-i)!) * I_d, zero otherwise.
func buildTransition(d, n int, dt float64) *mat.Dense {
	s := d * (n + 1)
	f := mat.NewDense(s, s, nil)
	fact := 1.0
	powers := make([]float64, n+1)
	powers[0] = 1
	for p := 1; p <= n; p++ {
		fact *= float64(p)
		powers[p] = math.Pow(dt, float64(p)) / fact
	}
	for bi := 0; bi <= n; bi++ {
		for bj := bi; bj <= n; bj++ {
			coeff := powers[bj-bi]
			for i := 0; i < d; i++ {
				f.Set(bi*d+i, bj*d+i, coeff)
			}
		}
	}
	return f
}

// buildObservation returns H = [I_d | 0].
func buildObservation(d, s int) *mat.Dense {
	h := mat.NewDense(d, s, nil)
	for i := 0; i < d; i++ {
		h.Set(i, i, 1)
	}
	return h
}

func denseFromSymmetric(sym mat.Symmetric) *mat.Dense {
	n, _ := sym.Dims()
	d := mat.NewDense(n, n, nil)
	d.Copy(sym)
	return d
}

// Update runs the standard Kalman correction for observation value at
// time, then propagates the predictor forward `steps` times to refill
// the prediction buffer (spec.md section 4.B).
func (k *Kalman) Update(value mat.Vector, time float64) error {
	if value.Len() != k.d {
		return errors.Errorf("forecast: observation length %d does not match observed_dim %d", value.Len(), k.d)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	// Predict step, advancing the filter by exactly one TimeStep before
	// correcting against the new observation. The elapsed time since the
	// last update is not used.
	k.predict(k.x, k.p)

	// Innovation y = z - H x.
	hx := mat.NewDense(k.d, 1, nil)
	hx.Mul(k.h, k.x)
	y := mat.NewDense(k.d, 1, nil)
	for i := 0; i < k.d; i++ {
		y.Set(i, 0, value.AtVec(i)-hx.At(i, 0))
	}

	// Innovation covariance S = H P H^T + R.
	var hp mat.Dense
	hp.Mul(k.h, k.p)
	var hpht mat.Dense
	hpht.Mul(&hp, k.h.T())
	var s mat.Dense
	s.Add(&hpht, k.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return errors.Wrap(err, "forecast: innovation covariance is singular")
	}

	// Kalman gain K = P H^T S^-1.
	var pht mat.Dense
	pht.Mul(k.p, k.h.T())
	var gain mat.Dense
	gain.Mul(&pht, &sInv)

	// x = x + K y.
	var correction mat.Dense
	correction.Mul(&gain, y)
	k.x.Add(k.x, &correction)

	// P = (I - K H) P.
	var kh mat.Dense
	kh.Mul(&gain, k.h)
	ikh := mat.NewDense(k.s, k.s, nil)
	for i := 0; i < k.s; i++ {
		ikh.Set(i, i, 1)
	}
	ikh.Sub(ikh, &kh)
	var newP mat.Dense
	newP.Mul(ikh, k.p)
	k.p.Copy(&newP)

	k.lastUpdateTime = time

	k.predictorX.Copy(k.x)
	k.predictorP.Copy(k.p)
	k.refillPredictionBuffer()
	return nil
}

// AdvanceTime treats a bare time advance as a predict-only step of the
// predictor, refreshing the prediction buffer's time origin without
// correcting against a new observation.
func (k *Kalman) AdvanceTime(time float64) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.lastUpdateTime = time
	k.predictorX.Copy(k.x)
	k.predictorP.Copy(k.p)
	k.refillPredictionBuffer()
	return nil
}

// predict applies x = F x; P = F P F^T + Q in place.
func (k *Kalman) predict(x, p *mat.Dense) {
	var newX mat.Dense
	newX.Mul(k.f, x)
	x.Copy(&newX)

	var fp mat.Dense
	fp.Mul(k.f, p)
	var fpft mat.Dense
	fpft.Mul(&fp, k.f.T())
	var newP mat.Dense
	newP.Add(&fpft, k.q)
	p.Copy(&newP)
}

// refillPredictionBuffer records H * predictorState at t=now,
// now+Delta, ..., now+steps*Delta, iterating the predictor copy forward
// without disturbing the filter's own state (spec.md section 4.B). Must
// be called with mu held.
func (k *Kalman) refillPredictionBuffer() {
	col0 := mat.NewDense(k.d, 1, nil)
	col0.Mul(k.h, k.predictorX)
	for i := 0; i < k.d; i++ {
		k.predictionBuf.Set(i, 0, col0.At(i, 0))
	}

	for step := 1; step <= k.steps; step++ {
		k.predict(k.predictorX, k.predictorP)
		col := mat.NewDense(k.d, 1, nil)
		col.Mul(k.h, k.predictorX)
		for i := 0; i < k.d; i++ {
			k.predictionBuf.Set(i, step, col.At(i, 0))
		}
	}
}

// Forecast clamps time to [lastUpdateTime, lastUpdateTime+horizon],
// locates the two bracketing prediction-buffer columns, and linearly
// interpolates between them (spec.md section 4.B).
func (k *Kalman) Forecast(time float64) (*mat.VecDense, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	rel := time - k.lastUpdateTime
	if rel < 0 {
		rel = 0
	}
	if rel > k.cfg.Horizon {
		rel = k.cfg.Horizon
	}

	idx := rel / k.cfg.TimeStep
	col := int(math.Floor(idx))
	if col >= k.steps {
		col = k.steps
	}
	frac := idx - float64(col)

	out := mat.NewVecDense(k.d, nil)
	if col >= k.steps || frac == 0 {
		for i := 0; i < k.d; i++ {
			out.SetVec(i, k.predictionBuf.At(i, col))
		}
		return out, nil
	}

	for i := 0; i < k.d; i++ {
		a := k.predictionBuf.At(i, col)
		b := k.predictionBuf.At(i, col+1)
		out.SetVec(i, (1-frac)*a+frac*b)
	}
	return out, nil
}

// LastUpdateTime returns the timestamp of the most recent Update or
// AdvanceTime call.
func (k *Kalman) LastUpdateTime() float64 {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.lastUpdateTime
}

// Handle returns a read-only weak view of this forecaster.
func (k *Kalman) Handle() Handle {
	return NewHandle(k.Forecast, k.LastUpdateTime)
}
