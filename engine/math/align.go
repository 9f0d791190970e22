package math

// PadUniformBufferSize rounds size up to the next multiple of minAlignment, the
// device's minimum uniform buffer offset alignment. A zero alignment means the
// device imposes none and size is returned unchanged.
//
// minAlignment must be a power of two.
func PadUniformBufferSize(size, minAlignment uint64) uint64 {
	if minAlignment == 0 {
		return size
	}
	return (size + minAlignment - 1) &^ (minAlignment - 1)
}

// IsPowerOfTwo reports whether v is a non-zero power of two
func IsPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}
