package fem

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
)

// EnvRepo names the environment variable pointing at the directory
// holding the FEM artefact, per the command-line surface the core
// engine's caller is expected to expose.
const EnvRepo = "FEM_REPO"

// modelFile is the on-disk binary artefact this loader reads from
// the directory named by EnvRepo. The real gmt-fem repository format
// is out of scope (spec §1); this is the minimal layout the core
// engine needs to exercise against real data.
const modelFile = "modal_model.bin"

const binaryMagic = "GFEM"
const binaryVersion uint32 = 1

// ModalFEM is a directory-backed RawFEM: the reduced modal
// state-space loaded once from modal_model.bin, with Gate applying an
// input/output channel mask on top of the full model without
// mutating the loaded matrices.
type ModalFEM struct {
	inputNames  []string
	outputNames []string
	inputIndex  map[string]int
	outputIndex map[string]int

	b            *mat.Dense // nModes x len(inputNames)
	c            *mat.Dense // len(outputNames) x nModes
	eigenHz      []float64
	reducedGain  *mat.Dense // len(outputNames) x len(inputNames), or nil
	directGain   *mat.Dense // len(outputNames) x len(inputNames), or nil

	gatedInputs  []registry.Channel
	gatedOutputs []registry.Channel
	gated        bool
}

// LoadFromEnv reads $FEM_REPO/modal_model.bin and returns the ungated
// model plus the repository's basename, recorded verbatim in output
// metadata by the caller.
func LoadFromEnv() (*ModalFEM, string, error) {
	repo := os.Getenv(EnvRepo)
	if repo == "" {
		return nil, "", fmt.Errorf("%s not set: %w", EnvRepo, ErrModelLoad)
	}
	path := filepath.Join(repo, modelFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, "", wrapLoad(path, err)
	}
	defer f.Close()
	model, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, "", wrapLoad(path, err)
	}
	return model, filepath.Base(filepath.Clean(repo)), nil
}

// Decode reads the binary modal-model layout from r.
func Decode(r io.Reader) (*ModalFEM, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != binaryMagic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	var version, nInputs, nOutputs, nModes uint32
	for _, p := range []*uint32{&version, &nInputs, &nOutputs, &nModes} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, err
		}
	}
	if version != binaryVersion {
		return nil, fmt.Errorf("unsupported model version %d", version)
	}
	inputNames, err := readNames(r, int(nInputs))
	if err != nil {
		return nil, err
	}
	outputNames, err := readNames(r, int(nOutputs))
	if err != nil {
		return nil, err
	}
	b, err := readMatrix(r, int(nModes), int(nInputs))
	if err != nil {
		return nil, err
	}
	c, err := readMatrix(r, int(nOutputs), int(nModes))
	if err != nil {
		return nil, err
	}
	eigenHz, err := readFloats(r, int(nModes))
	if err != nil {
		return nil, err
	}
	reducedGain, err := readOptionalMatrix(r, int(nOutputs), int(nInputs))
	if err != nil {
		return nil, err
	}
	directGain, err := readOptionalMatrix(r, int(nOutputs), int(nInputs))
	if err != nil {
		return nil, err
	}
	return newModalFEM(inputNames, outputNames, b, c, eigenHz, reducedGain, directGain), nil
}

func newModalFEM(inputNames, outputNames []string, b, c *mat.Dense, eigenHz []float64, reducedGain, directGain *mat.Dense) *ModalFEM {
	inputIndex := make(map[string]int, len(inputNames))
	for i, n := range inputNames {
		inputIndex[n] = i
	}
	outputIndex := make(map[string]int, len(outputNames))
	for i, n := range outputNames {
		outputIndex[n] = i
	}
	return &ModalFEM{
		inputNames:  inputNames,
		outputNames: outputNames,
		inputIndex:  inputIndex,
		outputIndex: outputIndex,
		b:           b,
		c:           c,
		eigenHz:     eigenHz,
		reducedGain: reducedGain,
		directGain:  directGain,
	}
}

// AllInputNames returns every input channel the model knows about,
// gated or not.
func (m *ModalFEM) AllInputNames() []string { return m.inputNames }

// AllOutputNames returns every mechanical output channel the model
// knows about, gated or not.
func (m *ModalFEM) AllOutputNames() []string { return m.outputNames }

// Gate implements RawFEM.
func (m *ModalFEM) Gate(inputs, outputs []registry.Channel) error {
	for _, n := range inputs {
		if _, ok := m.inputIndex[string(n)]; !ok {
			return fmt.Errorf("input %q: %w", n, registry.ErrUnknownChannel)
		}
	}
	for _, n := range outputs {
		if _, ok := m.outputIndex[string(n)]; !ok {
			return fmt.Errorf("output %q: %w", n, registry.ErrUnknownChannel)
		}
	}
	m.gatedInputs = append([]registry.Channel(nil), inputs...)
	m.gatedOutputs = append([]registry.Channel(nil), outputs...)
	m.gated = true
	return nil
}

func (m *ModalFEM) NModes() int { return len(m.eigenHz) }

func (m *ModalFEM) NInputs() int {
	if m.gated {
		return len(m.gatedInputs)
	}
	return len(m.inputNames)
}

func (m *ModalFEM) NOutputs() int {
	if m.gated {
		return len(m.gatedOutputs)
	}
	return len(m.outputNames)
}

func (m *ModalFEM) InputsToModes() *mat.Dense {
	if !m.gated {
		return m.b
	}
	nModes := m.NModes()
	out := mat.NewDense(nModes, len(m.gatedInputs), nil)
	for col, name := range m.gatedInputs {
		srcCol := m.inputIndex[string(name)]
		for row := 0; row < nModes; row++ {
			out.Set(row, col, m.b.At(row, srcCol))
		}
	}
	return out
}

func (m *ModalFEM) ModesToOutputs() *mat.Dense {
	if !m.gated {
		return m.c
	}
	nModes := m.NModes()
	out := mat.NewDense(len(m.gatedOutputs), nModes, nil)
	for row, name := range m.gatedOutputs {
		srcRow := m.outputIndex[string(name)]
		for col := 0; col < nModes; col++ {
			out.Set(row, col, m.c.At(srcRow, col))
		}
	}
	return out
}

func (m *ModalFEM) EigenFrequenciesHz() []float64 { return m.eigenHz }

func (m *ModalFEM) ReducedStaticGain() *mat.Dense { return m.gateGain(m.reducedGain) }
func (m *ModalFEM) DirectStaticGain() *mat.Dense  { return m.gateGain(m.directGain) }

func (m *ModalFEM) gateGain(full *mat.Dense) *mat.Dense {
	if full == nil {
		return nil
	}
	if !m.gated {
		return full
	}
	out := mat.NewDense(len(m.gatedOutputs), len(m.gatedInputs), nil)
	for row, oname := range m.gatedOutputs {
		srcRow := m.outputIndex[string(oname)]
		for col, iname := range m.gatedInputs {
			srcCol := m.inputIndex[string(iname)]
			out.Set(row, col, full.At(srcRow, srcCol))
		}
	}
	return out
}

func readNames(r io.Reader, n int) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, err
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		out[i] = string(buf)
	}
	return out, nil
}

func readFloats(r io.Reader, n int) ([]float64, error) {
	out := make([]float64, n)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readMatrix(r io.Reader, rows, cols int) (*mat.Dense, error) {
	flat, err := readFloats(r, rows*cols)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(rows, cols, flat), nil
}

func readOptionalMatrix(r io.Reader, rows, cols int) (*mat.Dense, error) {
	var present uint8
	if err := binary.Read(r, binary.LittleEndian, &present); err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	return readMatrix(r, rows, cols)
}
