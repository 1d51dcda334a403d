// Package result holds the frequency-response sweep output and the
// export contract its serialisers implement.
package result

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/gmto/gmt-fem-frequency-response/internal/cmat"
	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
)

// ErrUnsupportedExtension is returned when an output filename's
// extension does not match a registered exporter.
var ErrUnsupportedExtension = errors.New("result: unsupported output file extension")

// ErrIO wraps any output file creation or write failure.
var ErrIO = errors.New("result: output write failed")

// Point is one sweep sample: the complex response at one frequency.
// Magnitude and phase are derived on demand at export time so the
// sweep itself keeps the complex value available for any downstream
// composition (mismatch correction, optical composition already
// applied upstream by structural.Model).
type Point struct {
	FrequencyHz float64
	H           *cmat.Dense
}

// Magnitude returns the element-wise modulus of H.
func (p Point) Magnitude() *mat.Dense { return p.H.Magnitude() }

// Phase returns the element-wise argument of H, in radians in (-π, π].
func (p Point) Phase() *mat.Dense { return p.H.Phase() }

// FrequencyResponseVec is the ordered, append-only-during-sweep,
// immutable-after sequence of sweep points plus the model metadata
// the output file records alongside them.
type FrequencyResponseVec struct {
	FEM                    string
	Inputs                 []registry.Channel
	Outputs                []registry.Channel
	ModalDampingCoefficient float64
	EigenFrequencyRangeHz  [2]float64
	Points                 []Point
}

// Frequencies returns the frequency (Hz) of every point, in sweep order.
func (v *FrequencyResponseVec) Frequencies() []float64 {
	out := make([]float64, len(v.Points))
	for i, p := range v.Points {
		out[i] = p.FrequencyHz
	}
	return out
}

// Exporter serialises a FrequencyResponseVec to a named file. Concrete
// exporters are chosen by file extension; `.pkl`/`.mat` serialisers
// are external collaborators this repo does not implement (spec §1),
// so only the JSON and PNG exporters below are wired to the registry.
type Exporter interface {
	Export(path string, v *FrequencyResponseVec) error
}

// Registry maps a file extension (including the leading dot) to the
// Exporter that handles it.
type Registry map[string]Exporter

// NewRegistry returns the default extension-to-exporter mapping.
func NewRegistry() Registry {
	return Registry{
		".json": JSONExporter{},
		".png":  BodePlotExporter{},
	}
}

// Export dispatches path's extension to the matching Exporter.
func (r Registry) Export(path string, v *FrequencyResponseVec) error {
	ext := extOf(path)
	exp, ok := r[ext]
	if !ok {
		return ErrUnsupportedExtension
	}
	return exp.Export(path, v)
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
