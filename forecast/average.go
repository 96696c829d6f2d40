package forecast

import (
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type timedObservation struct {
	value mat.VecDense
	time  float64
}

// Average maintains a ring of timestamped observations and forecasts
// their arithmetic mean. Any observation older than (now - window) is
// evicted except the most recent, which is always retained, even if
// outside the window (spec.md section 4.B). Observations strictly older
// than the newest already buffered are rejected.
type Average struct {
	mu     sync.RWMutex
	dim    int
	window float64
	now    float64

	observations []timedObservation
}

// NewAverage constructs a moving-average forecaster over vectors of
// dimension dim with the given retention window (seconds). window must
// be > 0.
func NewAverage(dim int, window float64) (*Average, error) {
	if window <= 0 {
		return nil, errors.Errorf("forecast: average window must be > 0, got %f", window)
	}
	return &Average{dim: dim, window: window}, nil
}

// Update ingests value at time. Rejects observations strictly older
// than the newest one currently buffered.
func (a *Average) Update(value mat.Vector, time float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.observations) > 0 {
		newest := a.observations[len(a.observations)-1].time
		if time < newest {
			return errors.Errorf("forecast: observation at t=%f is older than newest buffered t=%f", time, newest)
		}
	}

	var v mat.VecDense
	v.CloneFromVec(value)
	a.observations = append(a.observations, timedObservation{value: v, time: time})

	if time > a.now {
		a.now = time
	}
	a.evict()
	return nil
}

// AdvanceTime moves the internal clock forward and evicts observations
// that have fallen outside the retention window as a result, always
// keeping at least the most recent observation.
func (a *Average) AdvanceTime(time float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time > a.now {
		a.now = time
	}
	a.evict()
	return nil
}

// evict drops every observation older than (now - window) except the
// most recent. Must be called with mu held.
func (a *Average) evict() {
	if len(a.observations) <= 1 {
		return
	}
	cutoff := a.now - a.window
	keep := a.observations[:0]
	last := len(a.observations) - 1
	for i, obs := range a.observations {
		if obs.time >= cutoff || i == last {
			keep = append(keep, obs)
		}
	}
	a.observations = keep
}

// Forecast returns the arithmetic mean of the retained observations.
func (a *Average) Forecast(time float64) (*mat.VecDense, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := mat.NewVecDense(a.dim, nil)
	if len(a.observations) == 0 {
		return out, nil
	}
	for _, obs := range a.observations {
		out.AddVec(out, &obs.value)
	}
	out.ScaleVec(1.0/float64(len(a.observations)), out)
	return out, nil
}

// LastUpdateTime returns the timestamp of the most recent observation.
func (a *Average) LastUpdateTime() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.observations) == 0 {
		return 0
	}
	return a.observations[len(a.observations)-1].time
}

// Len returns the number of observations currently retained, exposed
// for testing the eviction rule (spec.md section 8).
func (a *Average) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.observations)
}

// Handle returns a read-only weak view of this forecaster.
func (a *Average) Handle() Handle {
	return NewHandle(a.Forecast, a.LastUpdateTime)
}
