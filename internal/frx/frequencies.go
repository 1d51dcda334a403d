package frx

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidFrequencyRange reports a LogSpace/LinSpace specification
// that violates upper > lower && n >= 2.
var ErrInvalidFrequencyRange = errors.New("frx: invalid frequency range")

type frequencyKind int

const (
	kindSingle frequencyKind = iota
	kindLogSpace
	kindLinSpace
	kindSet
)

// Frequencies is the sampling specification for a sweep: exactly one
// of a single value, a logarithmic grid, a linear grid, or an
// explicit set, all in Hz.
type Frequencies struct {
	kind   frequencyKind
	value  float64
	lower  float64
	upper  float64
	n      int
	values []float64
}

// Single specifies one evaluation frequency.
func Single(value float64) Frequencies { return Frequencies{kind: kindSingle, value: value} }

// LogSpace specifies n logarithmically spaced frequencies over [lower, upper].
func LogSpace(lower, upper float64, n int) Frequencies {
	return Frequencies{kind: kindLogSpace, lower: lower, upper: upper, n: n}
}

// LinSpace specifies n linearly spaced frequencies over [lower, upper].
func LinSpace(lower, upper float64, n int) Frequencies {
	return Frequencies{kind: kindLinSpace, lower: lower, upper: upper, n: n}
}

// Set specifies an explicit, unsorted, non-deduplicated list of frequencies.
func Set(values []float64) Frequencies {
	return Frequencies{kind: kindSet, values: append([]float64(nil), values...)}
}

// Grid materialises the Hz sampling points for this specification, in
// the order they must appear in the result.
func (f Frequencies) Grid() ([]float64, error) {
	switch f.kind {
	case kindSingle:
		return []float64{f.value}, nil
	case kindLogSpace:
		if err := f.validateRange(); err != nil {
			return nil, err
		}
		dst := make([]float64, f.n)
		return floats.LogSpan(dst, f.lower, f.upper), nil
	case kindLinSpace:
		if err := f.validateRange(); err != nil {
			return nil, err
		}
		dst := make([]float64, f.n)
		return floats.Span(dst, f.lower, f.upper), nil
	case kindSet:
		return f.values, nil
	default:
		return nil, fmt.Errorf("frx: unknown frequency kind %d", f.kind)
	}
}

func (f Frequencies) validateRange() error {
	if f.n < 2 {
		return fmt.Errorf("n=%d < 2: %w", f.n, ErrInvalidFrequencyRange)
	}
	if !(f.upper > f.lower) {
		return fmt.Errorf("upper=%g <= lower=%g: %w", f.upper, f.lower, ErrInvalidFrequencyRange)
	}
	return nil
}
