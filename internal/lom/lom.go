// Package lom decompresses and deserialises the Linear Optical Model
// blob: the three fixed optical-sensitivity matrices the structural
// builder composes with the mechanical transfer function to produce
// tip-tilt, segment tip-tilt, and segment piston observables.
package lom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"gonum.org/v1/gonum/mat"

	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
)

// ErrBlobLoad wraps any failure to read, decompress, or decode the
// LOM blob.
var ErrBlobLoad = errors.New("lom: blob load failed")

// Fixed shapes of the three optical-sensitivity matrices: K rows by
// the 84 mechanical rigid-body DOFs (OSSM1Lcl + MCM2Lcl6D) they map.
const (
	TipTiltRows        = 2
	SegmentTipTiltRows = 14
	SegmentPistonRows  = 7
	Cols               = 84
)

const blobVersion uint32 = 1

// Sensitivities holds the three decoded optical-sensitivity matrices.
type Sensitivities struct {
	TipTilt        *mat.Dense // TipTiltRows x Cols
	SegmentTipTilt *mat.Dense // SegmentTipTiltRows x Cols
	SegmentPiston  *mat.Dense // SegmentPistonRows x Cols
}

// Select returns the sub-matrix for one virtual optical channel.
func (s *Sensitivities) Select(channel registry.Channel) (*mat.Dense, error) {
	switch channel {
	case registry.TipTilt:
		return s.TipTilt, nil
	case registry.SegmentTipTilt:
		return s.SegmentTipTilt, nil
	case registry.SegmentPiston:
		return s.SegmentPiston, nil
	default:
		return nil, fmt.Errorf("lom: %q is not an optical channel", channel)
	}
}

// Loader loads the optical sensitivities from wherever they are kept.
// The structural builder calls Load from Build only when the requested
// outputs include a virtual optical channel; the result is not cached,
// so every such Build call loads again.
type Loader interface {
	Load() (*Sensitivities, error)
}

// FileLoader loads the blob from a single file on disk.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (f FileLoader) Load() (*Sensitivities, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", f.Path, ErrBlobLoad, err)
	}
	s, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return s, nil
}

// Decode reads the length-prefixed LZ4 block at r and deserialises
// the canonical binary payload into the three sensitivity matrices.
// The length prefix is the little-endian uncompressed byte count, as
// produced by lz4's "compress with prepended size" convention.
func Decode(r io.Reader) (*Sensitivities, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlobLoad, err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: blob too short", ErrBlobLoad)
	}
	uncompressedLen := binary.LittleEndian.Uint32(raw[:4])
	dst := make([]byte, uncompressedLen)
	n, err := lz4.UncompressBlock(raw[4:], dst)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 decompress: %v", ErrBlobLoad, err)
	}
	return decodePayload(dst[:n])
}

func decodePayload(payload []byte) (*Sensitivities, error) {
	r := bytes.NewReader(payload)
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlobLoad, err)
	}
	if version != blobVersion {
		return nil, fmt.Errorf("%w: unsupported blob version %d", ErrBlobLoad, version)
	}
	tipTilt, err := readColumnMajor(r, TipTiltRows, Cols)
	if err != nil {
		return nil, fmt.Errorf("%w: tip_tilt: %v", ErrBlobLoad, err)
	}
	segTipTilt, err := readColumnMajor(r, SegmentTipTiltRows, Cols)
	if err != nil {
		return nil, fmt.Errorf("%w: segment_tip_tilt: %v", ErrBlobLoad, err)
	}
	segPiston, err := readColumnMajor(r, SegmentPistonRows, Cols)
	if err != nil {
		return nil, fmt.Errorf("%w: segment_piston: %v", ErrBlobLoad, err)
	}
	return &Sensitivities{TipTilt: tipTilt, SegmentTipTilt: segTipTilt, SegmentPiston: segPiston}, nil
}

func readColumnMajor(r io.Reader, rows, cols int) (*mat.Dense, error) {
	flat := make([]float64, rows*cols)
	if err := binary.Read(r, binary.LittleEndian, flat); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, cols, nil)
	for c := 0; c < cols; c++ {
		for row := 0; row < rows; row++ {
			out.Set(row, c, flat[c*rows+row])
		}
	}
	return out, nil
}
