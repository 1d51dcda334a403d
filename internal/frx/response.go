// Package frx defines the frequency-response contract shared by the
// elementary transfer functions and the structural model, and the
// parallel sweep driver that evaluates it across a frequency grid.
package frx

import "github.com/gmto/gmt-fem-frequency-response/internal/cmat"

// Response is the pure-function frequency-response contract: given
// the complex angular frequency jω, return the component-specific
// steady-state gain. ω is purely imaginary for the steady-state
// evaluations this package performs.
type Response[T any] interface {
	HOmega(jw complex128) T
}

// ScalarDerivative returns H'(jω) = H(jω)·jω for a scalar response.
func ScalarDerivative(r Response[complex128], jw complex128) complex128 {
	return r.HOmega(jw) * jw
}

// ScalarSecondDerivative returns H''(jω) = H'(jω)·jω for a scalar response.
func ScalarSecondDerivative(r Response[complex128], jw complex128) complex128 {
	return ScalarDerivative(r, jw) * jw
}

// MatrixDerivative returns H'(jω) = H(jω)·jω for a matrix response.
func MatrixDerivative(r Response[*cmat.Dense], jw complex128) *cmat.Dense {
	h := r.HOmega(jw).Clone()
	h.ScaleInPlace(jw)
	return h
}

// MatrixSecondDerivative returns H''(jω) = H'(jω)·jω for a matrix response.
func MatrixSecondDerivative(r Response[*cmat.Dense], jw complex128) *cmat.Dense {
	h := MatrixDerivative(r, jw)
	h.ScaleInPlace(jw)
	return h
}
