package forecast

import (
	"sync"

	"gonum.org/v1/gonum/mat"
)

// LOCF ("last observation carried forward") returns the most recent
// observation verbatim, ignoring observations whose timestamp does not
// strictly advance the clock (spec.md section 4.B).
type LOCF struct {
	mu       sync.RWMutex
	dim      int
	value    *mat.VecDense
	time     float64
	now      float64
	hasValue bool
}

// NewLOCF constructs a last-observation-carried-forward forecaster over
// vectors of dimension dim.
func NewLOCF(dim int) *LOCF {
	return &LOCF{dim: dim}
}

// Update ingests value at time, unless time <= the last accepted
// observation's timestamp, in which case it is ignored.
func (l *LOCF) Update(value mat.Vector, time float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hasValue && time <= l.time {
		return nil
	}

	v := mat.NewVecDense(l.dim, nil)
	v.CopyVec(value)
	l.value = v
	l.time = time
	l.hasValue = true
	if time > l.now {
		l.now = time
	}
	return nil
}

// AdvanceTime moves the internal clock forward; LOCF's prediction does
// not depend on the clock, only on the last accepted observation.
func (l *LOCF) AdvanceTime(time float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time > l.now {
		l.now = time
	}
	return nil
}

// Forecast returns a copy of the most recent observation, regardless of
// the requested time, or a zero vector if none has been observed yet.
func (l *LOCF) Forecast(time float64) (*mat.VecDense, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.hasValue {
		return mat.NewVecDense(l.dim, nil), nil
	}
	out := mat.NewVecDense(l.dim, nil)
	out.CopyVec(l.value)
	return out, nil
}

// LastUpdateTime returns the timestamp of the most recently accepted
// observation.
func (l *LOCF) LastUpdateTime() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.time
}

// Handle returns a read-only weak view of this forecaster.
func (l *LOCF) Handle() Handle {
	return NewHandle(l.Forecast, l.LastUpdateTime)
}
