package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlab/linmath"
)

const triangleOBJ = `
o triangle
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.0 1.0 0.0
vn 0.0 0.0 1.0
f 1//1 2//1 3//1
`

const quadOBJ = `
o quad
v -1.0 0.0 -1.0
v 1.0 0.0 -1.0
v 1.0 0.0 1.0
v -1.0 0.0 1.0
f 4 3 2 1
`

func spirvWords(words ...uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestDecodeSPIRV(t *testing.T) {
	code, err := DecodeSPIRV(spirvWords(SPIRVMagic, 0x00010000, 42))
	require.NoError(t, err)
	assert.Equal(t, []uint32{SPIRVMagic, 0x00010000, 42}, code)

	_, err = DecodeSPIRV(nil)
	assert.Error(t, err)

	_, err = DecodeSPIRV([]byte{0x03, 0x02, 0x23, 0x07, 0x00})
	assert.Error(t, err)

	_, err = DecodeSPIRV(spirvWords(0xdeadbeef))
	assert.ErrorContains(t, err, "magic")
}

func TestShaderLoaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.vert.spv")
	require.NoError(t, os.WriteFile(path, spirvWords(SPIRVMagic, 7), 0o644))

	loaded, err := (&ShaderLoader{}).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{SPIRVMagic, 7}, loaded)

	_, err = (&ShaderLoader{}).Load(filepath.Join(t.TempDir(), "missing.spv"))
	assert.Error(t, err)
}

func TestDecodeOBJTriangle(t *testing.T) {
	vertices, err := DecodeOBJ(strings.NewReader(triangleOBJ))
	require.NoError(t, err)
	require.Len(t, vertices, 3)

	assert.Equal(t, linmath.Vec3{0, 0, 0}, vertices[0].Position)
	assert.Equal(t, linmath.Vec3{1, 0, 0}, vertices[1].Position)
	assert.Equal(t, linmath.Vec3{0, 1, 0}, vertices[2].Position)
	for _, v := range vertices {
		assert.Equal(t, linmath.Vec3{0, 0, 1}, v.Normal)
		assert.Equal(t, v.Normal, v.Color)
	}
}

func TestDecodeOBJTriangulatesAndComputesNormals(t *testing.T) {
	vertices, err := DecodeOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)
	require.Len(t, vertices, 6)

	for _, v := range vertices {
		assert.InDelta(t, 0, v.Normal[0], 1e-6)
		assert.InDelta(t, 1, v.Normal[1], 1e-6)
		assert.InDelta(t, 0, v.Normal[2], 1e-6)
	}
}

func TestDecodeOBJWithoutFaces(t *testing.T) {
	_, err := DecodeOBJ(strings.NewReader("v 0 0 0\n"))
	assert.Error(t, err)
}
