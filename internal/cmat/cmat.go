// Package cmat provides a minimal row-major complex128 dense matrix,
// used instead of promoting the real modal matrices B and C to
// complex storage. It mirrors the flat-slice complex matrix
// convention the teacher uses for its own diffraction-pattern
// matrices (see Flatten2D/fresnelWeights in the diffraction package
// this module was adapted from) rather than a general-purpose
// complex linear-algebra library: the only operations the structural
// evaluator needs are a reusable real outer product scaled by a
// complex scalar, elementwise addition, and a real-matrix left
// multiply.
package cmat

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Dense is a Y x U (or K x U) complex128 matrix stored row-major.
type Dense struct {
	rows, cols int
	data       []complex128
}

// NewDense allocates a zeroed rows x cols complex matrix.
func NewDense(rows, cols int) *Dense {
	return &Dense{rows: rows, cols: cols, data: make([]complex128, rows*cols)}
}

// Dims returns the matrix shape.
func (d *Dense) Dims() (rows, cols int) { return d.rows, d.cols }

// At returns the (i, j) entry.
func (d *Dense) At(i, j int) complex128 { return d.data[i*d.cols+j] }

// Set assigns the (i, j) entry.
func (d *Dense) Set(i, j int, v complex128) { d.data[i*d.cols+j] = v }

// Zero clears every entry without reallocating the backing slice, so
// a single accumulator can be reused across sweep points by a worker.
func (d *Dense) Zero() {
	for i := range d.data {
		d.data[i] = 0
	}
}

// RealOuter is a reusable Y x U real scratch buffer holding the outer
// product of one mode's output column and input row. It is
// recomputed in place for every mode so that no per-mode allocation
// occurs inside the frequency-response inner loop.
type RealOuter struct {
	rows, cols int
	data       []float64
}

// NewRealOuter allocates a zeroed rows x cols real scratch buffer.
func NewRealOuter(rows, cols int) *RealOuter {
	return &RealOuter{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Fill overwrites the buffer with the outer product c * bᵀ: c has
// length rows, b has length cols.
func (r *RealOuter) Fill(c, b []float64) {
	for i, ci := range c {
		row := r.data[i*r.cols : i*r.cols+r.cols]
		for j, bj := range b {
			row[j] = ci * bj
		}
	}
}

// AddOuterScaled adds scalar * buf into d element-wise: one real
// multiply (the outer product already in buf) plus one complex
// scale, per mode.
func (d *Dense) AddOuterScaled(buf *RealOuter, scalar complex128) {
	for idx, v := range buf.data {
		d.data[idx] += complex(v, 0) * scalar
	}
}

// AddScaled adds scalar * o into d element-wise. Used to apply the
// static-gain-mismatch correction, optionally phased by exp(-jωτ).
func (d *Dense) AddScaled(o *Dense, scalar complex128) {
	for idx := range d.data {
		d.data[idx] += o.data[idx] * scalar
	}
}

// MulReal left-multiplies a real K x Y matrix S into a complex Y x U
// matrix h, returning a new complex K x U matrix. Used to compose the
// mechanical response into optical observables.
func MulReal(s *mat.Dense, h *Dense) *Dense {
	k, y := s.Dims()
	yh, u := h.Dims()
	if y != yh {
		panic("cmat: MulReal dimension mismatch")
	}
	out := NewDense(k, u)
	for i := 0; i < k; i++ {
		for col := 0; col < u; col++ {
			var acc complex128
			for j := 0; j < y; j++ {
				acc += complex(s.At(i, j), 0) * h.At(j, col)
			}
			out.Set(i, col, acc)
		}
	}
	return out
}

// FromReal builds a complex matrix whose imaginary part is zero from
// a real gonum matrix. Used to promote the reduced static gain into
// the static-gain-mismatch delta.
func FromReal(m *mat.Dense) *Dense {
	rows, cols := m.Dims()
	out := NewDense(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, complex(m.At(i, j), 0))
		}
	}
	return out
}

// Sub returns a - b, element-wise, as a new real matrix.
func Sub(a, b *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Sub(a, b)
	return &out
}

// Magnitude returns the element-wise modulus as a real gonum matrix.
func (d *Dense) Magnitude() *mat.Dense {
	out := mat.NewDense(d.rows, d.cols, nil)
	for i := 0; i < d.rows; i++ {
		for j := 0; j < d.cols; j++ {
			out.Set(i, j, cmplx.Abs(d.At(i, j)))
		}
	}
	return out
}

// Phase returns the element-wise argument, in radians in (-π, π], as
// a real gonum matrix.
func (d *Dense) Phase() *mat.Dense {
	out := mat.NewDense(d.rows, d.cols, nil)
	for i := 0; i < d.rows; i++ {
		for j := 0; j < d.cols; j++ {
			out.Set(i, j, cmplx.Phase(d.At(i, j)))
		}
	}
	return out
}

// ScaleInPlace multiplies every entry of d by scalar.
func (d *Dense) ScaleInPlace(scalar complex128) {
	for i := range d.data {
		d.data[i] *= scalar
	}
}

// Clone returns an independent copy of d.
func (d *Dense) Clone() *Dense {
	out := &Dense{rows: d.rows, cols: d.cols, data: make([]complex128, len(d.data))}
	copy(out.data, d.data)
	return out
}
