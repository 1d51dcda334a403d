// Package fem models the raw FEM artefact the structural builder
// consumes: mode shapes, eigenfrequencies, and the input/output
// gating switchboard. The real GMT FEM repository format and loader
// are an external collaborator (spec: "the raw FEM loader that
// produces mode matrices and eigenfrequencies from an on-disk model
// repository"); this package defines the minimal on-disk contract
// that stand-in needs to honour and a directory-backed loader that
// implements it, so the core engine is runnable end-to-end.
package fem

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
)

// ErrModelLoad wraps any failure to read or decode a FEM artefact.
var ErrModelLoad = errors.New("fem: model load failed")

// RawFEM is the reduced modal state-space exposed by the FEM loader,
// after the caller has selected a subset of input and output
// channels via Gate.
type RawFEM interface {
	// NModes, NInputs, NOutputs report the gated shape. Before the
	// first call to Gate they report the full, ungated model.
	NModes() int
	NInputs() int
	NOutputs() int

	// Gate disables every channel, then enables exactly the named
	// inputs and outputs, in the given order. Matrices returned by
	// InputsToModes/ModesToOutputs thereafter are sliced and ordered
	// to match inputs/outputs. Returns registry.ErrUnknownChannel if
	// a requested name is not part of the model.
	Gate(inputs, outputs []registry.Channel) error

	// InputsToModes returns B, shape NModes() x NInputs().
	InputsToModes() *mat.Dense
	// ModesToOutputs returns C, shape NOutputs() x NModes().
	ModesToOutputs() *mat.Dense
	// EigenFrequenciesHz returns ω/2π for every retained mode, strictly increasing.
	EigenFrequenciesHz() []float64

	// ReducedStaticGain returns the gated model's own DC gain
	// (NOutputs() x NInputs()), or nil if the artefact carries none.
	ReducedStaticGain() *mat.Dense
	// DirectStaticGain returns the full (non-modal) FEM static
	// solution DC gain, used only for the static-gain-mismatch
	// correction, or nil if the artefact carries none.
	DirectStaticGain() *mat.Dense

	// AllInputNames and AllOutputNames describe the full, ungated
	// channel vocabulary; used by the builder to seed a
	// registry.Registry before gating.
	AllInputNames() []string
	AllOutputNames() []string
}

func wrapLoad(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", context, ErrModelLoad, err)
}
