// Package forecast implements the external-disturbance forecast used to
// predict a timestamped vector quantity (e.g. the wrench applied to an
// end-effector) over a future horizon: a last-observation-carried-
// forward variant, a windowed moving-average variant, and a Kalman
// filter with a derivative-chained state transition (spec.md section
// 4.B).
package forecast

import "gonum.org/v1/gonum/mat"

// Forecaster predicts a timestamped vector quantity. Update ingests a
// new observation; AdvanceTime moves the internal clock forward without
// a new observation (spec.md's "update(time)" overload — Go has no
// overloading, so it gets its own method name); Forecast returns the
// prediction for a future time. All methods are safe for concurrent
// use: readers take a shared (RLock) lock, writers an exclusive one.
type Forecaster interface {
	// Update ingests a timestamped observation.
	Update(value mat.Vector, time float64) error

	// AdvanceTime advances the internal clock without a new observation.
	AdvanceTime(time float64) error

	// Forecast returns the predicted value at time.
	Forecast(time float64) (*mat.VecDense, error)

	// LastUpdateTime returns the timestamp of the most recent accepted
	// Update (Kalman also moves it on AdvanceTime).
	LastUpdateTime() float64

	// Handle returns a read-only, weak view of the forecaster suitable
	// for handing to a Cost implementation that does not own the
	// forecaster (spec.md section 9, "forecast handle as weak view").
	Handle() Handle
}

// Handle is a read-only view onto a Forecaster, bound at construction
// time by the forecaster itself via closures over its own receiver. It
// carries no pointer to the forecaster's owning dynamics, so there is no
// way to use it after the forecaster's buffers are gone that doesn't
// also keep the forecaster itself reachable — Go's garbage collector
// already provides the liveness guarantee spec.md section 9 asks for.
type Handle struct {
	forecast       func(time float64) (*mat.VecDense, error)
	lastUpdateTime func() float64
}

// Forecast delegates to the owning forecaster's Forecast.
func (h Handle) Forecast(time float64) (*mat.VecDense, error) { return h.forecast(time) }

// LastUpdateTime delegates to the owning forecaster's LastUpdateTime.
func (h Handle) LastUpdateTime() float64 { return h.lastUpdateTime() }

// NewHandle builds a Handle bound to the given forecast/lastUpdateTime
// closures. Concrete Forecaster implementations call this from their
// own Handle() method.
func NewHandle(forecast func(float64) (*mat.VecDense, error), lastUpdateTime func() float64) Handle {
	return Handle{forecast: forecast, lastUpdateTime: lastUpdateTime}
}
