package unsafer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceToBytes(t *testing.T) {
	in := []float32{1, 2}
	out := SliceToBytes(in)
	require.Len(t, out, 8)
	assert.Equal(t, math.Float32bits(2), binary.LittleEndian.Uint32(out[4:8]))
}

func TestSliceToBytesEmpty(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint32{}))
}

func TestStructToBytes(t *testing.T) {
	v := struct {
		A uint32
		B uint32
	}{A: 7, B: 9}
	out := StructToBytes(&v)
	require.Len(t, out, 8)
	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(out[4:]))
}
