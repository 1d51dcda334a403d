package result_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmto/gmt-fem-frequency-response/internal/cmat"
	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
	"github.com/gmto/gmt-fem-frequency-response/internal/result"
)

func sampleVec() *result.FrequencyResponseVec {
	h1 := cmat.NewDense(1, 1)
	h1.Set(0, 0, complex(1, 1))
	h2 := cmat.NewDense(1, 1)
	h2.Set(0, 0, complex(0, 2))

	return &result.FrequencyResponseVec{
		FEM:                     "test_fem",
		Inputs:                  []registry.Channel{"in1"},
		Outputs:                 []registry.Channel{"out1"},
		ModalDampingCoefficient: 0.02,
		EigenFrequencyRangeHz:   [2]float64{1, 100},
		Points: []result.Point{
			{FrequencyHz: 1, H: h1},
			{FrequencyHz: 10, H: h2},
		},
	}
}

func TestFrequenciesOrder(t *testing.T) {
	v := sampleVec()
	assert.Equal(t, []float64{1, 10}, v.Frequencies())
}

func TestRegistryUnsupportedExtension(t *testing.T) {
	reg := result.NewRegistry()
	err := reg.Export(filepath.Join(t.TempDir(), "out.pkl"), sampleVec())
	require.ErrorIs(t, err, result.ErrUnsupportedExtension)
}

func TestJSONExporterWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, (result.JSONExporter{}).Export(path, sampleVec()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test_fem")
	assert.Contains(t, string(data), "frequency_response")
}
