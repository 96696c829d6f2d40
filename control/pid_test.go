package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPIDProportionalOnly(t *testing.T) {
	p := NewPID(2.0, 0, 0, -10, 10)
	out := p.Next(1.5, 0.1)
	assert.InDelta(t, 3.0, out, 1e-9)
}

func TestPIDClampsToOutputBounds(t *testing.T) {
	p := NewPID(100.0, 0, 0, -1, 1)
	out := p.Next(1.0, 0.1)
	assert.Equal(t, 1.0, out)

	out = p.Next(-1.0, 0.1)
	assert.Equal(t, -1.0, out)
}

func TestPIDIntegralAccumulates(t *testing.T) {
	p := NewPID(0, 1.0, 0, -100, 100)
	first := p.Next(1.0, 1.0)
	second := p.Next(1.0, 1.0)
	assert.Greater(t, second, first)
}

func TestPIDResetClearsHistory(t *testing.T) {
	p := NewPID(1.0, 1.0, 1.0, -100, 100)
	p.Next(1.0, 1.0)
	p.Reset()

	// Immediately after Reset, the derivative term sees a zero previous
	// error, matching a freshly constructed controller's first call.
	fresh := NewPID(1.0, 1.0, 1.0, -100, 100)
	assert.Equal(t, fresh.Next(2.0, 1.0), p.Next(2.0, 1.0))
}
