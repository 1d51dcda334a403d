package elementary_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmto/gmt-fem-frequency-response/internal/frx"
	"github.com/gmto/gmt-fem-frequency-response/internal/frx/elementary"
)

func jOmega(hz float64) complex128 {
	return complex(0, 2*math.Pi*hz)
}

func TestFirstOrderLowPassAtDC(t *testing.T) {
	f := elementary.NewFirstOrderLowPass()
	h := f.HOmega(jOmega(0))
	assert.Equal(t, complex(0, 0), h)
}

func TestFirstOrderLowPassAtCorner(t *testing.T) {
	f := elementary.NewFirstOrderLowPass()
	h := f.HOmega(jOmega(4000))
	// jw/(1+j) == w(1+j)/2, so magnitude scales with w and phase
	// is pinned at pi/4 regardless of the corner frequency.
	wantMag := (2 * math.Pi * 4000) / math.Sqrt2
	assert.InDelta(t, wantMag, cmplx.Abs(h), wantMag*1e-9)
	assert.InDelta(t, math.Pi/4, cmplx.Phase(h), 1e-9)
}

func TestBesselUnityAtDC(t *testing.T) {
	f := elementary.NewBesselFilter()
	h := f.HOmega(jOmega(0))
	assert.InDelta(t, 1, real(h), 1e-12)
	assert.InDelta(t, 0, imag(h), 1e-12)
}

func TestPICompensatorAt1Hz(t *testing.T) {
	f := elementary.NewPICompensator()
	h := f.HOmega(jOmega(1))
	want := complex(7e4, 0) + complex(5e5, 0)/jOmega(1)
	assert.Equal(t, want, h)
	assert.InDelta(t, math.Hypot(7e4, 5e5/(2*math.Pi)), cmplx.Abs(h), 1e-6)
}

func TestFiniteAcrossLogSweep(t *testing.T) {
	freqs := frx.LogSpace(1, 8e3, 1000)
	grid, err := freqs.Grid()
	require.NoError(t, err)
	require.Len(t, grid, 1000)
	assert.InDelta(t, 1.0, grid[0], 1e-9)
	assert.InDelta(t, 8e3, grid[len(grid)-1], 1e-6)

	for _, component := range []interface {
		HOmega(jw complex128) complex128
	}{
		elementary.NewFirstOrderLowPass(),
		elementary.NewBesselFilter(),
		elementary.NewPICompensator(),
	} {
		for _, nu := range grid {
			h := component.HOmega(jOmega(nu))
			require.False(t, cmplx.IsInf(h) || cmplx.IsNaN(h))
		}
	}
}

func TestDerivativeHelpers(t *testing.T) {
	f := elementary.NewPICompensator()
	jw := jOmega(10)
	first := frx.ScalarDerivative(f, jw)
	assert.Equal(t, f.HOmega(jw)*jw, first)
	second := frx.ScalarSecondDerivative(f, jw)
	assert.Equal(t, first*jw, second)
}
