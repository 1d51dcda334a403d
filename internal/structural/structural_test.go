package structural_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/gmto/gmt-fem-frequency-response/internal/cmat"
	"github.com/gmto/gmt-fem-frequency-response/internal/lom"
	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
	"github.com/gmto/gmt-fem-frequency-response/internal/structural"
)

// fakeFEM is a minimal in-memory fem.RawFEM used to exercise the
// builder without a real on-disk artefact. Gate slices and reorders B
// and C by channel name like the real loader; unlike the real loader,
// NModes/NInputs/NOutputs always report the full, ungated shape.
type fakeFEM struct {
	inputNames, outputNames []string
	hz                      []float64
	b                       *mat.Dense // full modes x full inputs
	c                       *mat.Dense // full outputs x full modes
	gStatic, gDirect        *mat.Dense

	gatedB, gatedC   *mat.Dense
	gatedInputs      []string
	gatedOutputs     []string
}

func (f *fakeFEM) NModes() int   { r, _ := f.b.Dims(); return r }
func (f *fakeFEM) NInputs() int  { _, c := f.b.Dims(); return c }
func (f *fakeFEM) NOutputs() int { r, _ := f.c.Dims(); return r }

func (f *fakeFEM) Gate(inputs, outputs []registry.Channel) error {
	idx := func(names []string, name string) int {
		for i, n := range names {
			if n == name {
				return i
			}
		}
		return -1
	}
	m, u := f.NModes(), len(inputs)
	gb := mat.NewDense(m, u, nil)
	for col, in := range inputs {
		i := idx(f.inputNames, string(in))
		if i < 0 {
			return registry.ErrUnknownChannel
		}
		for row := 0; row < m; row++ {
			gb.Set(row, col, f.b.At(row, i))
		}
	}
	gc := mat.NewDense(len(outputs), m, nil)
	for row, out := range outputs {
		i := idx(f.outputNames, string(out))
		if i < 0 {
			return registry.ErrUnknownChannel
		}
		for col := 0; col < m; col++ {
			gc.Set(row, col, f.c.At(i, col))
		}
	}
	f.gatedB, f.gatedC = gb, gc
	f.gatedInputs, f.gatedOutputs = make([]string, len(inputs)), make([]string, len(outputs))
	for i, v := range inputs {
		f.gatedInputs[i] = string(v)
	}
	for i, v := range outputs {
		f.gatedOutputs[i] = string(v)
	}
	return nil
}

func (f *fakeFEM) InputsToModes() *mat.Dense       { return f.gatedB }
func (f *fakeFEM) ModesToOutputs() *mat.Dense      { return f.gatedC }
func (f *fakeFEM) EigenFrequenciesHz() []float64   { return f.hz }
func (f *fakeFEM) ReducedStaticGain() *mat.Dense   { return f.gStatic }
func (f *fakeFEM) DirectStaticGain() *mat.Dense    { return f.gDirect }
func (f *fakeFEM) AllInputNames() []string         { return f.inputNames }
func (f *fakeFEM) AllOutputNames() []string        { return f.outputNames }

// singleModeFEM builds a one-input, one-output, one-mode fixture: the
// S4 scenario (OSS_ElDrive_Torque -> OSS_ElEncoder_Angle).
func singleModeFEM(f0Hz float64) *fakeFEM {
	b := mat.NewDense(1, 1, []float64{1})
	c := mat.NewDense(1, 1, []float64{1})
	return &fakeFEM{
		inputNames:  []string{"OSS_ElDrive_Torque"},
		outputNames: []string{"OSS_ElEncoder_Angle"},
		hz:          []float64{f0Hz},
		b:           b,
		c:           c,
	}
}

func s4Inputs() []registry.Channel  { return []registry.Channel{"OSS_ElDrive_Torque"} }
func s4Outputs() []registry.Channel { return []registry.Channel{"OSS_ElEncoder_Angle"} }

func TestS4StructuralShapeAndResonancePeak(t *testing.T) {
	f0 := 12.0
	raw := singleModeFEM(f0)

	model, err := structural.NewBuilder(s4Inputs(), s4Outputs()).WithDamping(0.02).Build(raw)
	require.NoError(t, err)

	require.Equal(t, 1, model.NOutputs())
	require.Equal(t, 1, model.NInputs())

	omega0 := 2 * math.Pi * f0
	atPeak := model.HOmega(complex(0, omega0))
	atTenX := model.HOmega(complex(0, 10*omega0))

	peakMag := atPeak.Magnitude().At(0, 0)
	farMag := atTenX.Magnitude().At(0, 0)

	assert.True(t, math.IsInf(peakMag, 0) == false)
	assert.Greater(t, peakMag, farMag)
}

func TestS6WindowPruning(t *testing.T) {
	b := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	c := mat.NewDense(1, 4, []float64{1, 1, 1, 1})
	raw := &fakeFEM{
		inputNames:  []string{"in"},
		outputNames: []string{"out"},
		hz:          []float64{1, 20, 40, 60},
		b:           b,
		c:           c,
	}
	fMin, fMax := 10.0, 50.0
	model, err := structural.NewBuilder(
		[]registry.Channel{"in"}, []registry.Channel{"out"},
	).WithEigenFrequencyWindow(&fMin, &fMax).Build(raw)
	require.NoError(t, err)

	assert.Equal(t, 2, model.NModes())
	assert.Equal(t, []float64{20, 40}, model.EigenFrequenciesHz())
}

func TestS6EmptyWindowErrors(t *testing.T) {
	raw := singleModeFEM(5)
	fMin, fMax := 100.0, 200.0
	_, err := structural.NewBuilder(s4Inputs(), s4Outputs()).
		WithEigenFrequencyWindow(&fMin, &fMax).Build(raw)
	require.ErrorIs(t, err, structural.ErrEmptyWindow)
}

func TestInvariantModeCountConsistency(t *testing.T) {
	raw := singleModeFEM(5)
	model, err := structural.NewBuilder(s4Inputs(), s4Outputs()).Build(raw)
	require.NoError(t, err)

	mRows, _ := model.B.Dims()
	_, cCols := model.C.Dims()
	assert.Equal(t, mRows, cCols)
	assert.Equal(t, len(model.Omega), cCols)
}

func TestSuperpositionEquivalence(t *testing.T) {
	b := mat.NewDense(3, 2, []float64{1, 2, 0.5, -1, 3, 0.2})
	c := mat.NewDense(2, 3, []float64{1, -0.5, 2, 0.3, 1, -2})
	raw := &fakeFEM{
		inputNames:  []string{"u1", "u2"},
		outputNames: []string{"y1", "y2"},
		hz:          []float64{3, 7, 15},
		b:           b,
		c:           c,
	}
	model, err := structural.NewBuilder(
		[]registry.Channel{"u1", "u2"}, []registry.Channel{"y1", "y2"},
	).WithDamping(0.03).Build(raw)
	require.NoError(t, err)

	jw := complex(0, 2*math.Pi*9.0)
	rank1 := model.HOmega(jw)

	// Equivalent C * diag(d) * B formulation.
	y, u := model.NOutputs(), model.NInputs()
	acc := cmat.NewDense(y, u)
	for i, wi := range model.Omega {
		d := 1 / (complex(wi*wi, 0) + jw*jw + complex(2*model.Zeta*wi, 0)*jw)
		for row := 0; row < y; row++ {
			for col := 0; col < u; col++ {
				acc.Set(row, col, acc.At(row, col)+complex(model.C.At(row, i)*model.B.At(i, col), 0)*d)
			}
		}
	}

	for row := 0; row < y; row++ {
		for col := 0; col < u; col++ {
			diff := rank1.At(row, col) - acc.At(row, col)
			assert.InDelta(t, 0, real(diff), 1e-9)
			assert.InDelta(t, 0, imag(diff), 1e-9)
		}
	}
}

func TestMagnitudePhaseRoundTrip(t *testing.T) {
	raw := singleModeFEM(5)
	model, err := structural.NewBuilder(s4Inputs(), s4Outputs()).WithDamping(0.02).Build(raw)
	require.NoError(t, err)

	h := model.HOmega(complex(0, 2*math.Pi*3))
	mag, phase := h.Magnitude(), h.Phase()
	reconstructed := complex(mag.At(0, 0)*math.Cos(phase.At(0, 0)), mag.At(0, 0)*math.Sin(phase.At(0, 0)))

	assert.InDelta(t, real(h.At(0, 0)), real(reconstructed), 1e-9)
	assert.InDelta(t, imag(h.At(0, 0)), imag(reconstructed), 1e-9)
}

func TestOpticalCompositionShape(t *testing.T) {
	b := mat.NewDense(2, 1, []float64{1, 1})
	c := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	raw := &fakeFEM{
		inputNames:  []string{"u"},
		outputNames: []string{"OSSM1Lcl", "MCM2Lcl6D"},
		hz:          []float64{5, 9},
		b:           b,
		c:           c,
	}

	s := &lom.Sensitivities{
		TipTilt: mat.NewDense(2, 2, []float64{
			1, 0,
			0, 1,
		}),
	}
	loader := fakeLoader{s: s}

	model, err := structural.NewBuilder(
		[]registry.Channel{"u"}, []registry.Channel{registry.TipTilt},
	).WithLOMLoader(loader).Build(raw)
	require.NoError(t, err)

	h := model.HOmega(complex(0, 2*math.Pi*1))
	rows, cols := h.Dims()
	assert.Equal(t, 2, rows) // K = 2 for tip-tilt
	assert.Equal(t, 1, cols)
}

type fakeLoader struct{ s *lom.Sensitivities }

func (f fakeLoader) Load() (*lom.Sensitivities, error) { return f.s, nil }

func TestStaticGainMismatchLimit(t *testing.T) {
	f0 := 5.0
	raw := singleModeFEM(f0)
	omega0 := 2 * math.Pi * f0
	modalLimit := 1 / (omega0 * omega0) // C*diag(1/omega_i^2)*B for this one-mode fixture

	target := 2.0
	raw.gDirect = mat.NewDense(1, 1, []float64{modalLimit})
	raw.gStatic = mat.NewDense(1, 1, []float64{target})

	model, err := structural.NewBuilder(s4Inputs(), s4Outputs()).
		WithDamping(0).WithStaticGainMismatch(nil).Build(raw)
	require.NoError(t, err)

	// Evaluate at a frequency far below resonance rather than exactly
	// at zero: with zero damping the modal term is singular at jw=0.
	h := model.HOmega(complex(0, omega0*1e-6))
	assert.InDelta(t, target, real(h.At(0, 0)), 1e-3)
}

func TestUnknownChannelIsIOMismatch(t *testing.T) {
	raw := singleModeFEM(5)
	_, err := structural.NewBuilder(
		[]registry.Channel{"bogus"}, s4Outputs(),
	).Build(raw)
	require.ErrorIs(t, err, structural.ErrIOMismatch)
}
