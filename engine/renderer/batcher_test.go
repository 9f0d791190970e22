package renderer

import (
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/containers"
	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

type batcherFixture struct {
	backend *fakeBackend
	batcher *DrawBatcher
	slot    *FrameSlot
}

func newBatcherFixture(t *testing.T, maxObjects uint32, group bool) *batcherFixture {
	t.Helper()
	backend := newFakeBackend(256)
	backend.deletion = containers.NewDeletionQueue()

	scene, err := backend.CreateSceneBuffer(2 * 256)
	require.NoError(t, err)
	res, err := backend.CreateFrameResources(0, maxObjects, scene)
	require.NoError(t, err)

	return &batcherFixture{
		backend: backend,
		batcher: NewDrawBatcher(scene, 256, 2, maxObjects, group),
		slot:    &FrameSlot{Index: 0, State: FrameStateRecording, Resources: res},
	}
}

func (f *batcherFixture) cmd() *fakeCommandBuffer {
	return f.slot.Resources.CommandBuffer.(*fakeCommandBuffer)
}

func testMaterial(name string, delivery metadata.ObjectTransformDelivery) *metadata.Material {
	return &metadata.Material{Name: name, Pipeline: "pipeline-" + name, Layout: "layout-" + name, Delivery: delivery}
}

func testMesh(name string, vertices int) *metadata.Mesh {
	return &metadata.Mesh{Name: name, Vertices: make([]metadata.Vertex, vertices), VertexBuffer: "vb-" + name}
}

func objectsFor(mesh *metadata.Mesh, materials []*metadata.Material, runs []int) []metadata.RenderObject {
	objects := []metadata.RenderObject{}
	for i, run := range runs {
		for j := 0; j < run; j++ {
			objects = append(objects, metadata.RenderObject{
				Mesh:      mesh,
				Material:  materials[i],
				Transform: translated(float32(len(objects)), 0, 0),
			})
		}
	}
	return objects
}

func TestDrawBatcherRebindsOnlyOnMaterialChange(t *testing.T) {
	f := newBatcherFixture(t, 16, false)
	mesh := testMesh("cube", 36)
	materials := []*metadata.Material{
		testMaterial("a", metadata.ObjectTransformIndexedStorage),
		testMaterial("b", metadata.ObjectTransformIndexedStorage),
		testMaterial("c", metadata.ObjectTransformIndexedStorage),
	}

	packet := &metadata.RenderPacket{Objects: objectsFor(mesh, materials, []int{3, 1, 5})}
	stats, err := f.batcher.Record(f.slot, 0, packet)
	require.NoError(t, err)

	assert.Equal(t, BatchStats{
		Objects:           9,
		PipelineBinds:     3,
		DescriptorBinds:   3,
		VertexBufferBinds: 1,
		Draws:             9,
	}, stats)

	cmd := f.cmd()
	pipelines := cmd.ops("pipeline")
	require.Len(t, pipelines, 3)
	assert.Equal(t, "pipeline-a", pipelines[0].handle)
	assert.Equal(t, "pipeline-b", pipelines[1].handle)
	assert.Equal(t, "pipeline-c", pipelines[2].handle)

	for i, draw := range cmd.ops("draw") {
		assert.Equal(t, [4]uint32{36, 1, 0, uint32(i)}, draw.draw)
	}
	assert.Zero(t, cmd.count("push"))
}

func TestDrawBatcherBindsDescriptorsWithSceneOffset(t *testing.T) {
	f := newBatcherFixture(t, 4, false)
	mesh := testMesh("cube", 36)
	material := testMaterial("a", metadata.ObjectTransformIndexedStorage)

	packet := &metadata.RenderPacket{Objects: objectsFor(mesh, []*metadata.Material{material}, []int{2})}
	_, err := f.batcher.Record(f.slot, 3, packet)
	require.NoError(t, err)

	binds := f.cmd().ops("descriptors")
	require.Len(t, binds, 1)
	assert.Equal(t, "layout-a", binds[0].handle)
	assert.Equal(t, uint32(0), binds[0].firstSet)
	assert.Equal(t, []metadata.GPUHandle{"global-set-0", "object-set-0"}, binds[0].sets)
	assert.Equal(t, []uint32{256}, binds[0].dynamicOffsets)
	assert.Equal(t, []uint64{256}, f.backend.scene.offsets)
}

func TestDrawBatcherRebindsVertexBufferOnMeshChange(t *testing.T) {
	f := newBatcherFixture(t, 8, false)
	material := testMaterial("a", metadata.ObjectTransformIndexedStorage)
	cube := testMesh("cube", 36)
	triangle := testMesh("triangle", 3)

	packet := &metadata.RenderPacket{Objects: []metadata.RenderObject{
		{Mesh: cube, Material: material},
		{Mesh: cube, Material: material},
		{Mesh: triangle, Material: material},
		{Mesh: cube, Material: material},
	}}
	stats, err := f.batcher.Record(f.slot, 0, packet)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.VertexBufferBinds)
	assert.Equal(t, 1, stats.PipelineBinds)

	draws := f.cmd().ops("draw")
	require.Len(t, draws, 4)
	assert.Equal(t, uint32(3), draws[2].draw[0])
	assert.Equal(t, uint32(36), draws[3].draw[0])
}

func TestDrawBatcherPushesObjectIndex(t *testing.T) {
	f := newBatcherFixture(t, 8, false)
	mesh := testMesh("triangle", 3)
	material := testMaterial("push", metadata.ObjectTransformInlinePushed)

	packet := &metadata.RenderPacket{Objects: objectsFor(mesh, []*metadata.Material{material}, []int{4})}
	stats, err := f.batcher.Record(f.slot, 0, packet)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.PushConstants)

	cmd := f.cmd()
	pushes := cmd.ops("push")
	draws := cmd.ops("draw")
	require.Len(t, pushes, 4)
	require.Len(t, draws, 4)

	for i, push := range pushes {
		require.Len(t, push.data, int(metadata.MeshPushConstantsSize))
		assert.Equal(t, "layout-push", push.handle)

		index := stdmath.Float32frombits(binary.LittleEndian.Uint32(push.data[0:4]))
		assert.Equal(t, float32(i), index)

		// RenderMatrix column 3, row 0 holds the x translation
		tx := stdmath.Float32frombits(binary.LittleEndian.Uint32(push.data[16+48 : 16+52]))
		assert.Equal(t, float32(i), tx)

		assert.Equal(t, [4]uint32{3, 1, 0, 0}, draws[i].draw)
	}
}

func TestDrawBatcherWritesObjectBufferOnce(t *testing.T) {
	f := newBatcherFixture(t, 8, false)
	mesh := testMesh("triangle", 3)
	material := testMaterial("a", metadata.ObjectTransformIndexedStorage)

	packet := &metadata.RenderPacket{Objects: objectsFor(mesh, []*metadata.Material{material}, []int{5})}
	_, err := f.batcher.Record(f.slot, 0, packet)
	require.NoError(t, err)

	objects := f.slot.Resources.ObjectBuffer.(*fakeBuffer)
	assert.Equal(t, []uint64{0}, objects.offsets)
	for i := 0; i < 5; i++ {
		base := uint64(i)*metadata.GPUObjectDataSize + 48
		tx := stdmath.Float32frombits(binary.LittleEndian.Uint32(objects.data[base : base+4]))
		assert.Equal(t, float32(i), tx, "object %d", i)
	}
}

func TestDrawBatcherEmptyPacket(t *testing.T) {
	f := newBatcherFixture(t, 8, false)

	stats, err := f.batcher.Record(f.slot, 0, &metadata.RenderPacket{})
	require.NoError(t, err)

	assert.Equal(t, BatchStats{}, stats)
	assert.Empty(t, f.cmd().commands)
	assert.Len(t, f.slot.Resources.CameraBuffer.(*fakeBuffer).offsets, 1)
	assert.Empty(t, f.slot.Resources.ObjectBuffer.(*fakeBuffer).offsets)
}

func TestDrawBatcherValidate(t *testing.T) {
	f := newBatcherFixture(t, 2, false)
	mesh := testMesh("triangle", 3)
	material := testMaterial("a", metadata.ObjectTransformIndexedStorage)

	packet := &metadata.RenderPacket{Objects: objectsFor(mesh, []*metadata.Material{material}, []int{2})}
	assert.NoError(t, f.batcher.Validate(packet))

	packet.Objects = append(packet.Objects, metadata.RenderObject{Mesh: mesh, Material: material})
	assert.ErrorIs(t, f.batcher.Validate(packet), core.ErrTooManyObjects)

	_, err := f.batcher.Record(f.slot, 0, packet)
	assert.ErrorIs(t, err, core.ErrTooManyObjects)
	assert.Empty(t, f.cmd().commands)

	packet.Objects = []metadata.RenderObject{{Material: material}}
	assert.ErrorIs(t, f.batcher.Validate(packet), core.ErrInvalidRenderObject)
}

func TestDrawBatcherGroupsWhenEnabled(t *testing.T) {
	a := testMaterial("a", metadata.ObjectTransformIndexedStorage)
	b := testMaterial("b", metadata.ObjectTransformIndexedStorage)
	mesh := testMesh("cube", 36)
	interleaved := objectsFor(mesh, []*metadata.Material{a, b, a, b, a}, []int{1, 1, 1, 1, 1})

	plain := newBatcherFixture(t, 8, false)
	stats, err := plain.batcher.Record(plain.slot, 0, &metadata.RenderPacket{Objects: interleaved})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.PipelineBinds)

	grouped := newBatcherFixture(t, 8, true)
	stats, err = grouped.batcher.Record(grouped.slot, 0, &metadata.RenderPacket{Objects: interleaved})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PipelineBinds)
	assert.Equal(t, 5, stats.Draws)
}

func TestGroupRenderObjects(t *testing.T) {
	a := testMaterial("a", metadata.ObjectTransformIndexedStorage)
	b := testMaterial("b", metadata.ObjectTransformIndexedStorage)
	m1 := testMesh("m1", 3)
	m2 := testMesh("m2", 3)

	objects := []metadata.RenderObject{
		{Material: a, Mesh: m1, Transform: translated(0, 0, 0)},
		{Material: b, Mesh: m1, Transform: translated(1, 0, 0)},
		{Material: a, Mesh: m2, Transform: translated(2, 0, 0)},
		{Material: a, Mesh: m1, Transform: translated(3, 0, 0)},
		{Material: b, Mesh: m2, Transform: translated(4, 0, 0)},
	}

	grouped := GroupRenderObjects(objects)

	order := []float32{}
	for _, o := range grouped {
		order = append(order, o.Transform[3][0])
	}
	assert.Equal(t, []float32{0, 3, 2, 1, 4}, order)

	// input is left untouched
	assert.Equal(t, float32(1), objects[1].Transform[3][0])
	assert.Equal(t, linmath.Vec4{1, 0, 0, 1}, grouped[3].Transform[3])
}

func TestDrawBatcherSceneOffsetWraps(t *testing.T) {
	f := newBatcherFixture(t, 1, false)
	assert.Equal(t, uint64(256), f.batcher.SceneStride())
	assert.Equal(t, uint64(0), f.batcher.SceneOffset(0))
	assert.Equal(t, uint64(256), f.batcher.SceneOffset(1))
	assert.Equal(t, uint64(0), f.batcher.SceneOffset(2))
	assert.Equal(t, uint64(256), f.batcher.SceneOffset(1001))
}
