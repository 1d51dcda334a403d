// Package structural implements the core modal frequency-response
// engine: the immutable reduced modal state-space (Model) and its
// H(jω) evaluator, built from a raw FEM artefact by Builder.
package structural

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/gmto/gmt-fem-frequency-response/internal/cmat"
	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
)

// Mismatch is the optional static-gain-mismatch correction: ΔG, the
// FEM's reduced static gain minus its direct static gain, is added to
// H(jω), optionally phased by exp(-jωτ) for a pure delay τ.
type Mismatch struct {
	Delay     *float64 // seconds, optional
	DeltaGain *cmat.Dense
}

// Model is the immutable reduced modal state-space: B (modes x
// inputs), C (outputs x modes), the eigenfrequencies ω (rad/s) and
// damping ζ shared by every mode, and the optional static-gain
// correction and optical-sensitivity composition.
//
// *Dynamics and Control of Structures*, W.K. Gawronsky, p.17-18,
// Eqs.(2.21)-(2.22), is the modal-superposition reference the H(jω)
// evaluator below follows.
type Model struct {
	Inputs  []registry.Channel // as requested by the caller
	Outputs []registry.Channel // as requested by the caller (may include virtual optical names)

	// MechanicalOutputs is Outputs with every virtual optical name
	// expanded into the mechanical FEM channels it depends on.
	MechanicalOutputs []registry.Channel

	B     *mat.Dense // M x U
	C     *mat.Dense // Y x M
	Omega []float64  // rad/s, length M, strictly increasing
	Zeta  float64

	// GStatic is the gated reduced static gain (Y x U), kept for
	// inspection and as the target of the static-gain-mismatch limit
	// check; nil if the FEM artefact did not carry one.
	GStatic  *mat.Dense
	Mismatch *Mismatch

	// S is the optional K x Y optical-sensitivity matrix; when
	// present, H(jω) is returned as S * mechanical H(jω), shape K x U.
	S *mat.Dense
}

// NModes, NInputs, NOutputs report the shape of the built model.
func (m *Model) NModes() int   { r, _ := m.B.Dims(); return r }
func (m *Model) NInputs() int  { _, c := m.B.Dims(); return c }
func (m *Model) NOutputs() int { r, _ := m.C.Dims(); return r }

// EigenFrequenciesHz returns ω/2π for every retained mode.
func (m *Model) EigenFrequenciesHz() []float64 {
	out := make([]float64, len(m.Omega))
	for i, w := range m.Omega {
		out[i] = w / (2 * 3.141592653589793)
	}
	return out
}

// Workspace holds the per-worker scratch buffers HWith reuses across
// every frequency a worker evaluates: one Y x U complex accumulator
// and one Y x U real outer-product buffer, plus the length-Y and
// length-U row/column extraction buffers. No two Workspaces may share
// a Model concurrently in a way that lets them write into each
// other's buffers.
type Workspace struct {
	acc  *cmat.Dense
	buf  *cmat.RealOuter
	cCol []float64
	bRow []float64
}

// NewWorkspace allocates a Workspace sized to this model's shape.
func (m *Model) NewWorkspace() *Workspace {
	y, u := m.NOutputs(), m.NInputs()
	return &Workspace{
		acc:  cmat.NewDense(y, u),
		buf:  cmat.NewRealOuter(y, u),
		cCol: make([]float64, y),
		bRow: make([]float64, u),
	}
}

// HOmega implements frx.Response[*cmat.Dense] for ad-hoc, non-batch
// evaluation (single-point queries, derivative helpers, tests). The
// sweep engine should instead call HWith with one Workspace reused
// per worker goroutine.
func (m *Model) HOmega(jw complex128) *cmat.Dense {
	return m.HWith(jw, m.NewWorkspace())
}

// HWith is the core modal-superposition formula:
//
//	H(jω) = Σ_i (c_i · b_iᵀ) / (ω_i² + (jω)² + 2·ζ·ω_i·jω)
//
// summed in increasing mode-index order, using ws as scratch so the
// inner loop performs no allocation beyond the single result clone
// returned to the caller. Post-processing applies the static-gain
// mismatch correction and the optical-sensitivity composition, in
// that order, per their presence.
func (m *Model) HWith(jw complex128, ws *Workspace) *cmat.Dense {
	ws.acc.Zero()
	y, u := len(ws.cCol), len(ws.bRow)
	for i, wi := range m.Omega {
		for row := 0; row < y; row++ {
			ws.cCol[row] = m.C.At(row, i)
		}
		for col := 0; col < u; col++ {
			ws.bRow[col] = m.B.At(i, col)
		}
		ws.buf.Fill(ws.cCol, ws.bRow)

		ode := complex(wi*wi, 0) + jw*jw + complex(2*m.Zeta*wi, 0)*jw
		ws.acc.AddOuterScaled(ws.buf, 1/ode)
	}

	h := ws.acc.Clone()

	if m.Mismatch != nil {
		scalar := complex(1, 0)
		if m.Mismatch.Delay != nil {
			scalar = cmplx.Exp(-jw * complex(*m.Mismatch.Delay, 0))
		}
		h.AddScaled(m.Mismatch.DeltaGain, scalar)
	}

	if m.S != nil {
		h = cmat.MulReal(m.S, h)
	}

	return h
}
