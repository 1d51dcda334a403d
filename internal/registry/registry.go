// Package registry enumerates the legal FEM input and output channel
// names, plus the three virtual optical outputs that the structural
// builder expands into a fixed pair of mechanical FEM outputs.
package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownChannel is returned when a requested channel name is not
// present in the registry built from the FEM schema.
var ErrUnknownChannel = errors.New("unknown channel")

// Channel is an opaque name drawn from a closed registry. Two
// channels are equal and ordered by their canonical string form.
type Channel string

// Virtual optical output names. These never appear in a RawFEM's own
// output list; the structural builder rewrites them into the
// mechanical outputs below before gating the FEM.
const (
	TipTilt        Channel = "tip-tilt"
	SegmentTipTilt Channel = "segment_tip-tilt"
	SegmentPiston  Channel = "segment_piston"
)

// Mechanical outputs that back every virtual optical output, in the
// fixed order the LOM sensitivity blob expects them concatenated.
const (
	M1RigidBody Channel = "OSSM1Lcl"
	M2RigidBody Channel = "MCM2Lcl6D"
)

var opticalDependencies = map[Channel][]Channel{
	TipTilt:        {M1RigidBody, M2RigidBody},
	SegmentTipTilt: {M1RigidBody, M2RigidBody},
	SegmentPiston:  {M1RigidBody, M2RigidBody},
}

// Registry is the closed set of legal input and output channel names
// for one FEM artefact.
type Registry struct {
	inputs  map[Channel]struct{}
	outputs map[Channel]struct{}
}

// New builds a Registry from the schema shipped with the FEM
// artefact: the enabled input and output channel names.
func New(inputs, outputs []string) *Registry {
	r := &Registry{
		inputs:  make(map[Channel]struct{}, len(inputs)),
		outputs: make(map[Channel]struct{}, len(outputs)),
	}
	for _, n := range inputs {
		r.inputs[Channel(n)] = struct{}{}
	}
	for _, n := range outputs {
		r.outputs[Channel(n)] = struct{}{}
	}
	return r
}

// IsInput reports whether name is a legal FEM input channel.
func (r *Registry) IsInput(name Channel) bool {
	_, ok := r.inputs[name]
	return ok
}

// IsOutput reports whether name is a legal mechanical FEM output
// channel. Virtual optical outputs are never legal mechanical
// outputs, even when their dependencies are present.
func (r *Registry) IsOutput(name Channel) bool {
	_, ok := r.outputs[name]
	return ok
}

// IsVirtualOptical reports whether name is one of the three optical
// observables synthesised by the LOM rather than a mechanical output.
func IsVirtualOptical(name Channel) bool {
	_, ok := opticalDependencies[name]
	return ok
}

// ValidateInputs checks every requested input name against the
// registry, returning ErrUnknownChannel (wrapped with the offending
// name) on the first miss.
func (r *Registry) ValidateInputs(names []Channel) error {
	for _, n := range names {
		if !r.IsInput(n) {
			return fmt.Errorf("input %q: %w", n, ErrUnknownChannel)
		}
	}
	return nil
}

// ExpandOutputs rewrites a requested output list into the set of
// mechanical FEM output channels it requires, de-duplicated and in
// first-occurrence order, plus the subset of the original list that
// named virtual optical outputs (in the order requested, needed later
// to assemble the optical sensitivity matrix). Every mechanical name
// is validated against the registry; virtual names are validated
// against the fixed optical vocabulary.
func (r *Registry) ExpandOutputs(names []Channel) (mechanical []Channel, optical []Channel, err error) {
	seen := make(map[Channel]struct{}, len(names))
	add := func(c Channel) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		mechanical = append(mechanical, c)
	}
	for _, n := range names {
		if deps, ok := opticalDependencies[n]; ok {
			optical = append(optical, n)
			for _, d := range deps {
				add(d)
			}
			continue
		}
		if !r.IsOutput(n) {
			return nil, nil, fmt.Errorf("output %q: %w", n, ErrUnknownChannel)
		}
		add(n)
	}
	return mechanical, optical, nil
}
