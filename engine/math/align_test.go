package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPadUniformBufferSize(t *testing.T) {
	tests := []struct {
		name      string
		size      uint64
		alignment uint64
		want      uint64
	}{
		{"scene params on 256 aligned device", 176, 256, 256},
		{"already aligned", 256, 256, 256},
		{"one past boundary", 257, 256, 512},
		{"no alignment requirement", 80, 0, 80},
		{"small alignment", 80, 64, 128},
		{"zero size", 0, 256, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PadUniformBufferSize(tt.size, tt.alignment))
		})
	}
}

func TestPadUniformBufferSizeProperties(t *testing.T) {
	for _, alignment := range []uint64{1, 2, 4, 16, 64, 256, 1024} {
		for size := uint64(0); size < 2048; size += 7 {
			padded := PadUniformBufferSize(size, alignment)
			assert.GreaterOrEqual(t, padded, size)
			assert.Less(t, padded-size, alignment)
			assert.Zero(t, padded%alignment)
			assert.Equal(t, padded, PadUniformBufferSize(padded, alignment), "padding is idempotent")
		}
	}
}

func TestPadUniformBufferSizeWithoutAlignment(t *testing.T) {
	for _, size := range []uint64{0, 1, 80, 176, 4097} {
		assert.Equal(t, size, PadUniformBufferSize(size, 0))
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	assert.True(t, IsPowerOfTwo(1))
	assert.True(t, IsPowerOfTwo(256))
	assert.False(t, IsPowerOfTwo(0))
	assert.False(t, IsPowerOfTwo(96))
}
