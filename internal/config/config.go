// Package config loads an optional JSON5 run-configuration file that
// pre-populates CLI flag values. Explicit flags always win over a
// value found in the file, matching jsonProcessing.go's
// leaf-value-with-default pattern in the teacher repo.
package config

import (
	"errors"
	"fmt"
	"os"

	json "github.com/KevinWang15/go-json5"
)

// ErrInvalidField is returned when a present field has the wrong JSON type.
var ErrInvalidField = errors.New("config: invalid field")

// RunConfig mirrors the CLI flag surface the run-config file may
// pre-populate. Every field is optional: a missing field leaves the
// corresponding flag default untouched.
type RunConfig struct {
	Inputs  []string
	Outputs []string

	StructuralDamping *float64
	EigenFrequencyMin *float64
	EigenFrequencyMax *float64

	Filename *string

	StaticGainMismatch bool
	MismatchDelay      *float64
}

// Load reads and JSON5-decodes path into a leaf-value table, then
// fills a RunConfig from it field by field, defaulting anything
// absent and erroring on anything present with the wrong type.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var table map[string]interface{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg := &RunConfig{}

	if v, ok := table["inputs"]; ok {
		cfg.Inputs, err = stringSlice(v)
		if err != nil {
			return nil, fmt.Errorf("inputs: %w", err)
		}
	}
	if v, ok := table["outputs"]; ok {
		cfg.Outputs, err = stringSlice(v)
		if err != nil {
			return nil, fmt.Errorf("outputs: %w", err)
		}
	}
	if v, ok := table["structural_damping"]; ok {
		f, err := float(v)
		if err != nil {
			return nil, fmt.Errorf("structural_damping: %w", err)
		}
		cfg.StructuralDamping = &f
	}
	if v, ok := table["eigen_frequency_min"]; ok {
		f, err := float(v)
		if err != nil {
			return nil, fmt.Errorf("eigen_frequency_min: %w", err)
		}
		cfg.EigenFrequencyMin = &f
	}
	if v, ok := table["eigen_frequency_max"]; ok {
		f, err := float(v)
		if err != nil {
			return nil, fmt.Errorf("eigen_frequency_max: %w", err)
		}
		cfg.EigenFrequencyMax = &f
	}
	if v, ok := table["filename"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("filename: %w", ErrInvalidField)
		}
		cfg.Filename = &s
	}
	if v, ok := table["static_gain_mismatch"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("static_gain_mismatch: %w", ErrInvalidField)
		}
		cfg.StaticGainMismatch = b
	}
	if v, ok := table["mismatch_delay"]; ok {
		f, err := float(v)
		if err != nil {
			return nil, fmt.Errorf("mismatch_delay: %w", err)
		}
		cfg.MismatchDelay = &f
	}

	return cfg, nil
}

func float(v interface{}) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, ErrInvalidField
	}
	return f, nil
}

func stringSlice(v interface{}) ([]string, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, ErrInvalidField
	}
	out := make([]string, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, ErrInvalidField
		}
		out[i] = s
	}
	return out, nil
}
