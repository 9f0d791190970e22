package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframes/engine/assets/loaders"
)

const cubeFace = `o face
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
f 1//1 2//1 3//1 4//1
`

func writeAssets(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "shaders"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0o755))

	spv := make([]byte, 8)
	binary.LittleEndian.PutUint32(spv, loaders.SPIRVMagic)
	binary.LittleEndian.PutUint32(spv[4:], 1)
	require.NoError(t, os.WriteFile(filepath.Join(root, "shaders", "mesh.vert.spv"), spv, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "models", "face.obj"), []byte(cubeFace), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.txt"), []byte("ignored"), 0o644))
	return root
}

func TestAssetManagerIndexesAndLoads(t *testing.T) {
	root := writeAssets(t)
	am := NewAssetManager()
	require.NoError(t, am.Initialize(root, false))
	defer am.Shutdown()

	assert.Equal(t, 2, am.Count())
	info, ok := am.Find("shaders/mesh.vert.spv")
	require.True(t, ok)
	assert.Equal(t, AssetTypeShader, info.Type)

	code, err := am.LoadShader("mesh.vert")
	require.NoError(t, err)
	assert.Equal(t, []uint32{loaders.SPIRVMagic, 1}, code)

	mesh, err := am.LoadModel("face")
	require.NoError(t, err)
	assert.Equal(t, uint32(6), mesh.VertexCount())

	_, err = am.LoadShader("missing")
	assert.ErrorContains(t, err, "asset not found")
}

func TestAssetManagerRejectsMissingDirectory(t *testing.T) {
	am := NewAssetManager()
	assert.Error(t, am.Initialize(filepath.Join(t.TempDir(), "nope"), false))
}

func TestAssetManagerReportsChanges(t *testing.T) {
	root := writeAssets(t)
	am := NewAssetManager()
	require.NoError(t, am.Initialize(root, true))

	path := filepath.Join(root, "models", "face.obj")
	require.NoError(t, os.WriteFile(path, []byte(cubeFace), 0o644))

	select {
	case change := <-am.Changes():
		assert.Equal(t, AssetTypeModel, change.Type)
		assert.Equal(t, filepath.Base(path), filepath.Base(change.Path))
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	require.NoError(t, am.Shutdown())
	for range am.Changes() {
	}
	assert.ErrorIs(t, am.Initialize(root, false), ErrAssetManagerClosed)
}

func TestDetermineAssetType(t *testing.T) {
	assert.Equal(t, AssetTypeShader, determineAssetType("a/b.spv"))
	assert.Equal(t, AssetTypeModel, determineAssetType("cube.obj"))
	assert.Equal(t, AssetTypeNone, determineAssetType("cube.mtl"))
}
