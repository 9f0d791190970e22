package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

func TestSceneAppendsUntilSealed(t *testing.T) {
	scene := NewScene()
	mesh := &metadata.Mesh{Name: "triangle"}
	material := &metadata.Material{Name: "defaultmesh"}

	var transform linmath.Mat4x4
	transform.Translate(1, 2, 3)

	require.NoError(t, scene.Add(mesh, material, transform))
	require.NoError(t, scene.Add(mesh, material, transform))
	assert.Equal(t, 2, scene.Len())
	assert.Same(t, mesh, scene.Objects()[0].Mesh)
	assert.Equal(t, transform, scene.Objects()[1].Transform)

	scene.Seal()
	assert.True(t, scene.Sealed())
	assert.Error(t, scene.Add(mesh, material, transform))
	assert.Equal(t, 2, scene.Len())
}

func TestSceneRejectsIncompleteObjects(t *testing.T) {
	scene := NewScene()
	var transform linmath.Mat4x4
	assert.ErrorIs(t, scene.Add(nil, &metadata.Material{}, transform), core.ErrInvalidRenderObject)
	assert.ErrorIs(t, scene.Add(&metadata.Mesh{}, nil, transform), core.ErrInvalidRenderObject)
	assert.Zero(t, scene.Len())
}
