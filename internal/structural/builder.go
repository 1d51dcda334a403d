package structural

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gmto/gmt-fem-frequency-response/internal/cmat"
	"github.com/gmto/gmt-fem-frequency-response/internal/fem"
	"github.com/gmto/gmt-fem-frequency-response/internal/lom"
	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
)

// ErrIOMismatch is returned when a requested input or output channel
// is not part of the FEM's own vocabulary, or when the gated output
// set does not match what an attached optical sensitivity matrix
// requires.
var ErrIOMismatch = errors.New("structural: requested channel set does not match the model")

// ErrEmptyWindow is returned when no mode satisfies the requested
// eigenfrequency window.
var ErrEmptyWindow = errors.New("structural: eigenfrequency window excludes every mode")

// ErrMismatchUnsupported is returned when the static-gain-mismatch
// correction is requested but the FEM artefact carries no static
// solution to derive it from.
var ErrMismatchUnsupported = errors.New("structural: static-gain mismatch requested but FEM artefact lacks a static solution")

// Builder assembles a Model from a raw FEM artefact and, when the
// requested outputs include a virtual optical channel, a lazily
// loaded LOM sensitivity blob.
//
// Build steps, in order, mirror the builder behaviour spec:
//  1. validate requested inputs/outputs against the FEM's own
//     channel vocabulary, expanding virtual optical outputs into
//     their mechanical dependencies;
//  2. gate the FEM to exactly the requested (mechanical) channels;
//  3. prune the mode set to the requested eigenfrequency window;
//  4. optionally compute the static-gain-mismatch correction;
//  5. optionally load the LOM blob and select the optical
//     sensitivity sub-matrices the requested outputs need.
type Builder struct {
	inputs  []registry.Channel
	outputs []registry.Channel

	zeta float64

	fMin, fMax *float64

	mismatch  bool
	mismatchDelay *float64

	lomLoader lom.Loader
}

// NewBuilder starts a Builder for the given requested inputs and
// outputs, with zero structural damping until WithDamping is called.
func NewBuilder(inputs, outputs []registry.Channel) *Builder {
	return &Builder{inputs: inputs, outputs: outputs}
}

// WithDamping sets the uniform modal damping ratio applied to every
// retained mode.
func (b *Builder) WithDamping(zeta float64) *Builder {
	b.zeta = zeta
	return b
}

// WithEigenFrequencyWindow restricts the retained modes to
// [fMin, fMax] in Hz; either bound may be nil to leave that side
// unbounded.
func (b *Builder) WithEigenFrequencyWindow(fMin, fMax *float64) *Builder {
	b.fMin, b.fMax = fMin, fMax
	return b
}

// WithStaticGainMismatch enables the static-gain-mismatch correction,
// optionally phased by a pure delay (seconds).
func (b *Builder) WithStaticGainMismatch(delay *float64) *Builder {
	b.mismatch = true
	b.mismatchDelay = delay
	return b
}

// WithLOMLoader supplies the loader used to resolve virtual optical
// outputs. Only invoked if the requested outputs need it.
func (b *Builder) WithLOMLoader(l lom.Loader) *Builder {
	b.lomLoader = l
	return b
}

// Build gates raw to the requested channels, prunes to the requested
// eigenfrequency window, and composes the optional static-gain
// mismatch and optical-sensitivity matrices into a Model.
func (b *Builder) Build(raw fem.RawFEM) (*Model, error) {
	reg := registry.New(raw.AllInputNames(), raw.AllOutputNames())

	if err := reg.ValidateInputs(b.inputs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOMismatch, err)
	}
	mechanicalOutputs, optical, err := reg.ExpandOutputs(b.outputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOMismatch, err)
	}

	if err := raw.Gate(b.inputs, mechanicalOutputs); err != nil {
		return nil, fmt.Errorf("%w: gate: %v", ErrIOMismatch, err)
	}

	start, count, err := pruneWindow(raw.EigenFrequenciesHz(), b.fMin, b.fMax)
	if err != nil {
		return nil, err
	}

	fullB := raw.InputsToModes()
	fullC := raw.ModesToOutputs()
	u := raw.NInputs()
	y := len(mechanicalOutputs)

	B := mat.NewDense(count, u, nil)
	C := mat.NewDense(y, count, nil)
	omega := make([]float64, count)
	for i := 0; i < count; i++ {
		modeIdx := start + i
		for col := 0; col < u; col++ {
			B.Set(i, col, fullB.At(modeIdx, col))
		}
		for row := 0; row < y; row++ {
			C.Set(row, i, fullC.At(row, modeIdx))
		}
		omega[i] = raw.EigenFrequenciesHz()[modeIdx] * 2 * math.Pi
	}

	m := &Model{
		Inputs:            b.inputs,
		Outputs:           b.outputs,
		MechanicalOutputs: mechanicalOutputs,
		B:                 B,
		C:                 C,
		Omega:             omega,
		Zeta:              b.zeta,
		GStatic:           raw.ReducedStaticGain(),
	}

	if b.mismatch {
		mm, err := buildMismatch(raw, b.mismatchDelay)
		if err != nil {
			return nil, err
		}
		m.Mismatch = mm
	}

	if len(optical) > 0 {
		s, err := buildOpticalSensitivity(b.lomLoader, optical, mechanicalOutputs)
		if err != nil {
			return nil, err
		}
		m.S = s
	}

	return m, nil
}

// pruneWindow returns the contiguous [start, start+count) slice of
// mode indices whose Hz eigenfrequency satisfies fMin<=f (if fMin is
// given) and f<=fMax (if fMax is given). Eigenfrequencies are assumed
// strictly increasing, so the satisfying set is itself contiguous.
func pruneWindow(hz []float64, fMin, fMax *float64) (start, count int, err error) {
	lo, hi := 0, len(hz)
	for lo < hi && fMin != nil && hz[lo] < *fMin {
		lo++
	}
	for hi > lo && fMax != nil && hz[hi-1] > *fMax {
		hi--
	}
	if lo >= hi {
		return 0, 0, ErrEmptyWindow
	}
	return lo, hi - lo, nil
}

// buildMismatch computes Δg = g_static(reduced) - g_static(direct),
// promoted to complex, optionally phased by the configured delay.
func buildMismatch(raw fem.RawFEM, delay *float64) (*Mismatch, error) {
	reduced := raw.ReducedStaticGain()
	direct := raw.DirectStaticGain()
	if reduced == nil || direct == nil {
		return nil, ErrMismatchUnsupported
	}
	delta := cmat.Sub(direct, reduced)
	delta.Scale(-1, delta)
	return &Mismatch{Delay: delay, DeltaGain: cmat.FromReal(delta)}, nil
}

// buildOpticalSensitivity loads the LOM blob and stacks the requested
// optical channels' sensitivity sub-matrices into one K x Y matrix, Y
// matching the mechanical output order the FEM was gated to.
func buildOpticalSensitivity(loader lom.Loader, optical, mechanical []registry.Channel) (*mat.Dense, error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: optical outputs requested but no LOM loader configured", ErrIOMismatch)
	}
	sens, err := loader.Load()
	if err != nil {
		return nil, err
	}

	totalRows := 0
	blocks := make([]*mat.Dense, len(optical))
	for i, ch := range optical {
		block, err := sens.Select(ch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOMismatch, err)
		}
		_, cols := block.Dims()
		if cols != len(mechanical) {
			return nil, fmt.Errorf("%w: optical sensitivity for %q has %d columns, gated output has %d",
				ErrIOMismatch, ch, cols, len(mechanical))
		}
		blocks[i] = block
		r, _ := block.Dims()
		totalRows += r
	}

	out := mat.NewDense(totalRows, len(mechanical), nil)
	rowOffset := 0
	for _, block := range blocks {
		r, c := block.Dims()
		for row := 0; row < r; row++ {
			for col := 0; col < c; col++ {
				out.Set(rowOffset+row, col, block.At(row, col))
			}
		}
		rowOffset += r
	}
	return out, nil
}
