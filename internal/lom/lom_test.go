package lom_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmto/gmt-fem-frequency-response/internal/lom"
	"github.com/gmto/gmt-fem-frequency-response/internal/registry"
)

func buildFixtureBlob(t *testing.T) []byte {
	t.Helper()
	var payload bytes.Buffer
	require.NoError(t, binary.Write(&payload, binary.LittleEndian, uint32(1)))

	writeFlat := func(rows, cols int, value float64) {
		flat := make([]float64, rows*cols)
		for i := range flat {
			flat[i] = value
		}
		require.NoError(t, binary.Write(&payload, binary.LittleEndian, flat))
	}
	writeFlat(lom.TipTiltRows, lom.Cols, 1.0)
	writeFlat(lom.SegmentTipTiltRows, lom.Cols, 2.0)
	writeFlat(lom.SegmentPistonRows, lom.Cols, 3.0)

	compressed := make([]byte, lz4.CompressBlockBound(payload.Len()))
	hashTable := make([]int, 64<<10)
	n, err := lz4.CompressBlock(payload.Bytes(), compressed, hashTable)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	var blob bytes.Buffer
	require.NoError(t, binary.Write(&blob, binary.LittleEndian, uint32(payload.Len())))
	blob.Write(compressed[:n])
	return blob.Bytes()
}

func TestDecode(t *testing.T) {
	blob := buildFixtureBlob(t)
	s, err := lom.Decode(bytes.NewReader(blob))
	require.NoError(t, err)

	rows, cols := s.TipTilt.Dims()
	assert.Equal(t, lom.TipTiltRows, rows)
	assert.Equal(t, lom.Cols, cols)
	assert.Equal(t, 1.0, s.TipTilt.At(0, 0))
	assert.Equal(t, 2.0, s.SegmentTipTilt.At(0, 0))
	assert.Equal(t, 3.0, s.SegmentPiston.At(0, 0))
}

func TestSelect(t *testing.T) {
	s := &lom.Sensitivities{}
	_, err := s.Select(registry.Channel("bogus"))
	require.Error(t, err)
}
