// Package elementary holds small scalar transfer functions used as
// reference components and in unit tests of the frequency-response
// contract: a first-order low-pass, a 4th-order Bessel filter, and a
// PI compensator.
package elementary

import "math"

const twoPi = 2 * math.Pi

// FirstOrderLowPass is H(jω) = jω / (1 + jω/ωc).
type FirstOrderLowPass struct {
	CornerFrequencyHz float64
}

// NewFirstOrderLowPass returns the default 4 kHz corner low-pass.
func NewFirstOrderLowPass() FirstOrderLowPass {
	return FirstOrderLowPass{CornerFrequencyHz: 4e3}
}

// HOmega implements frx.Response[complex128].
func (f FirstOrderLowPass) HOmega(jw complex128) complex128 {
	return jw / (1 + jw/complex(twoPi*f.CornerFrequencyHz, 0))
}

// BesselFilter is the 4th-order Bessel low-pass
// H(jω) = β0·ωbf⁴ / Σ βi·ωbf^(4-i)·(jω)^i.
type BesselFilter struct {
	WBf  float64
	Beta [5]float64
}

// NewBesselFilter returns the default 2.2 kHz corner Bessel filter.
func NewBesselFilter() BesselFilter {
	return BesselFilter{
		WBf:  twoPi * 2.2e3,
		Beta: [5]float64{1, 3.20108587, 4.39155033, 3.12393994, 1},
	}
}

// HOmega implements frx.Response[complex128].
func (f BesselFilter) HOmega(jw complex128) complex128 {
	num := complex(f.Beta[0]*math.Pow(f.WBf, 4), 0)
	var denom complex128
	jwPow := complex(1, 0)
	for i, b := range f.Beta {
		denom += complex(b*math.Pow(f.WBf, float64(4-i)), 0) * jwPow
		jwPow *= jw
	}
	return num / denom
}

// PICompensator is H(jω) = kp + ki/jω.
type PICompensator struct {
	Kp float64
	Ki float64
}

// NewPICompensator returns the default kp=7e4, ki=5e5 compensator.
func NewPICompensator() PICompensator {
	return PICompensator{Kp: 7e4, Ki: 5e5}
}

// HOmega implements frx.Response[complex128].
func (f PICompensator) HOmega(jw complex128) complex128 {
	return complex(f.Kp, 0) + complex(f.Ki, 0)/jw
}
