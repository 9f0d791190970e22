package renderer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

func TestResourceCatalogMaterials(t *testing.T) {
	catalog := NewResourceCatalog()

	m, err := catalog.RegisterMaterial("defaultmesh", "p1", "l1", metadata.ObjectTransformInlinePushed)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, "defaultmesh", m.Name)

	_, err = catalog.RegisterMaterial("defaultmesh", "p2", "l2", metadata.ObjectTransformIndexedStorage)
	assert.ErrorIs(t, err, core.ErrDuplicateResource)

	found, ok := catalog.FindMaterial("defaultmesh")
	require.True(t, ok)
	assert.Same(t, m, found)
	assert.Equal(t, "p1", found.Pipeline)

	_, ok = catalog.FindMaterial("missing")
	assert.False(t, ok)
}

func TestResourceCatalogReplaceMaterialKeepsPointer(t *testing.T) {
	catalog := NewResourceCatalog()
	m, err := catalog.RegisterMaterial("defaultmesh", "p1", "l1", metadata.ObjectTransformInlinePushed)
	require.NoError(t, err)
	id := m.ID

	replaced := catalog.ReplaceMaterial("defaultmesh", "p2", "l2", metadata.ObjectTransformIndexedStorage)
	assert.Same(t, m, replaced)
	assert.Equal(t, id, m.ID)
	assert.Equal(t, "p2", m.Pipeline)
	assert.Equal(t, metadata.ObjectTransformIndexedStorage, m.Delivery)

	fresh := catalog.ReplaceMaterial("other", "p3", "l3", metadata.ObjectTransformIndexedStorage)
	assert.Equal(t, "other", fresh.Name)
	assert.Equal(t, []string{"defaultmesh", "other"}, catalog.Materials())
}

func TestResourceCatalogMeshes(t *testing.T) {
	catalog := NewResourceCatalog()

	_, err := catalog.RegisterMesh("nil", nil)
	assert.Error(t, err)

	mesh := &metadata.Mesh{Vertices: make([]metadata.Vertex, 3), VertexBuffer: "vb1"}
	registered, err := catalog.RegisterMesh("triangle", mesh)
	require.NoError(t, err)
	assert.Same(t, mesh, registered)
	assert.Equal(t, "triangle", mesh.Name)
	assert.NotEqual(t, uuid.Nil, mesh.ID)

	_, err = catalog.RegisterMesh("triangle", &metadata.Mesh{})
	assert.ErrorIs(t, err, core.ErrDuplicateResource)

	replacement := &metadata.Mesh{Vertices: make([]metadata.Vertex, 6), VertexBuffer: "vb2"}
	replaced, err := catalog.ReplaceMesh("triangle", replacement)
	require.NoError(t, err)
	assert.Same(t, mesh, replaced)
	assert.Equal(t, uint32(6), mesh.VertexCount())
	assert.Equal(t, "vb2", mesh.VertexBuffer)

	_, err = catalog.ReplaceMesh("cube", &metadata.Mesh{})
	require.NoError(t, err)
	assert.Equal(t, []string{"cube", "triangle"}, catalog.Meshes())
}

func TestResourceCatalogRejectsNilMesh(t *testing.T) {
	catalog := NewResourceCatalog()
	mesh := &metadata.Mesh{Vertices: make([]metadata.Vertex, 3), VertexBuffer: "vb1"}
	_, err := catalog.RegisterMesh("triangle", mesh)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_, err = catalog.ReplaceMesh("missing", nil)
	})
	assert.Error(t, err)
	_, found := catalog.FindMesh("missing")
	assert.False(t, found)

	assert.NotPanics(t, func() {
		_, err = catalog.ReplaceMesh("triangle", nil)
	})
	assert.Error(t, err)
	assert.Equal(t, "vb1", mesh.VertexBuffer)
	assert.Equal(t, uint32(3), mesh.VertexCount())
}
