package result

import (
	"fmt"
	"os"

	json "github.com/KevinWang15/go-json5"
	"gonum.org/v1/gonum/mat"
)

// jsonOutput mirrors the canonical output file layout (spec §6), kept
// as its own type so JSONExporter controls field order and naming
// independently of FrequencyResponseVec's internal representation.
type jsonOutput struct {
	FEM                     string            `json:"fem"`
	Inputs                  []string          `json:"inputs"`
	Outputs                 []string          `json:"outputs"`
	ModalDampingCoefficient float64           `json:"modal_damping_coefficient"`
	FEMEigenFrequencyRange  [2]float64        `json:"fem_eigen_frequency_range"`
	FrequencyResponse       []jsonPointOutput `json:"frequency_response"`
}

type jsonPointOutput struct {
	Frequency float64     `json:"frequency"`
	Magnitude [][]float64 `json:"magnitude"`
	Phase     [][]float64 `json:"phase"`
}

// JSONExporter writes a FrequencyResponseVec as JSON: a stand-in for
// the `.pkl` serialiser named in spec §1/§6, not a claim to match
// Python's pickle byte format.
type JSONExporter struct{}

// Export implements Exporter.
func (JSONExporter) Export(path string, v *FrequencyResponseVec) error {
	out := jsonOutput{
		FEM:                     v.FEM,
		Inputs:                  channelsToStrings(v.Inputs),
		Outputs:                 channelsToStrings(v.Outputs),
		ModalDampingCoefficient: v.ModalDampingCoefficient,
		FEMEigenFrequencyRange:  v.EigenFrequencyRangeHz,
		FrequencyResponse:       make([]jsonPointOutput, len(v.Points)),
	}
	for i, p := range v.Points {
		out.FrequencyResponse[i] = jsonPointOutput{
			Frequency: p.FrequencyHz,
			Magnitude: denseToRows(p.Magnitude()),
			Phase:     denseToRows(p.Phase()),
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrIO, err)
	}
	return nil
}

func channelsToStrings[T ~string](channels []T) []string {
	out := make([]string, len(channels))
	for i, c := range channels {
		out[i] = string(c)
	}
	return out
}

func denseToRows(m *mat.Dense) [][]float64 {
	rows, cols := m.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
