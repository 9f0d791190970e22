package renderer

import (
	"fmt"
	"sort"

	"github.com/xlab/linmath"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/math"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
	"github.com/spaghettifunk/vkframes/engine/unsafer"
)

// BatchStats counts what one recorded frame cost in state changes.
type BatchStats struct {
	Objects           int
	PipelineBinds     int
	DescriptorBinds   int
	VertexBufferBinds int
	PushConstants     int
	Draws             int
}

// DrawBatcher writes the per frame GPU inputs of a slot and records one draw
// per render object, rebinding pipeline state only when it changes.
type DrawBatcher struct {
	scene          metadata.Buffer
	sceneStride    uint64
	framesInFlight uint64
	maxObjects     uint32
	groupObjects   bool

	objectData []metadata.GPUObjectData
}

// NewDrawBatcher expects scene to hold framesInFlight copies of GPUSceneData,
// each padded to minUniformAlignment.
func NewDrawBatcher(scene metadata.Buffer, minUniformAlignment uint64, framesInFlight int, maxObjects uint32, groupObjects bool) *DrawBatcher {
	return &DrawBatcher{
		scene:          scene,
		sceneStride:    math.PadUniformBufferSize(metadata.GPUSceneDataSize, minUniformAlignment),
		framesInFlight: uint64(framesInFlight),
		maxObjects:     maxObjects,
		groupObjects:   groupObjects,
		objectData:     make([]metadata.GPUObjectData, 0, maxObjects),
	}
}

// SceneStride is the padded size of one GPUSceneData copy
func (b *DrawBatcher) SceneStride() uint64 {
	return b.sceneStride
}

// SceneOffset is where frameNumber's scene parameters live in the shared
// scene buffer. The same value is the dynamic offset used at bind time.
func (b *DrawBatcher) SceneOffset(frameNumber uint64) uint64 {
	return (frameNumber % b.framesInFlight) * b.sceneStride
}

// Validate rejects packets that cannot be recorded. It runs before any fence
// is touched so a bad packet never leaves a slot half way through a frame.
func (b *DrawBatcher) Validate(packet *metadata.RenderPacket) error {
	if len(packet.Objects) > int(b.maxObjects) {
		return fmt.Errorf("%d objects, capacity %d: %w", len(packet.Objects), b.maxObjects, core.ErrTooManyObjects)
	}
	for i := range packet.Objects {
		if packet.Objects[i].Mesh == nil || packet.Objects[i].Material == nil {
			return fmt.Errorf("render object %d has no mesh or material: %w", i, core.ErrInvalidRenderObject)
		}
	}
	return nil
}

// Record writes camera, scene and object data for the slot and records the
// draws into its command buffer, which must be inside the render pass.
func (b *DrawBatcher) Record(slot *FrameSlot, frameNumber uint64, packet *metadata.RenderPacket) (BatchStats, error) {
	stats := BatchStats{}
	if err := b.Validate(packet); err != nil {
		return stats, err
	}

	objects := packet.Objects
	if b.groupObjects {
		objects = GroupRenderObjects(objects)
	}

	res := slot.Resources
	cmd := res.CommandBuffer

	camera := metadata.GPUCameraData{
		View: packet.Camera.View,
		Proj: packet.Camera.Projection,
	}
	camera.ViewProj.Mult(&camera.Proj, &camera.View)
	if err := res.CameraBuffer.Write(0, camera.Bytes()); err != nil {
		return stats, fmt.Errorf("camera write: %w", err)
	}

	sceneOffset := b.SceneOffset(frameNumber)
	scene := packet.Scene
	if err := b.scene.Write(sceneOffset, scene.Bytes()); err != nil {
		return stats, fmt.Errorf("scene write: %w", err)
	}

	b.objectData = b.objectData[:0]
	for i := range objects {
		b.objectData = append(b.objectData, metadata.GPUObjectData{ModelMatrix: objects[i].Transform})
	}
	if len(b.objectData) > 0 {
		if err := res.ObjectBuffer.Write(0, unsafer.SliceToBytes(b.objectData)); err != nil {
			return stats, fmt.Errorf("object write: %w", err)
		}
	}

	var lastMaterial *metadata.Material
	var lastMesh *metadata.Mesh
	sets := []metadata.GPUHandle{res.GlobalDescriptor, res.ObjectDescriptor}
	dynamicOffsets := []uint32{uint32(sceneOffset)}

	for i := range objects {
		object := &objects[i]

		if object.Material != lastMaterial {
			cmd.BindPipeline(object.Material.Pipeline)
			cmd.BindDescriptorSets(object.Material.Layout, 0, sets, dynamicOffsets)
			lastMaterial = object.Material
			stats.PipelineBinds++
			stats.DescriptorBinds++
		}

		if object.Mesh != lastMesh {
			cmd.BindVertexBuffer(object.Mesh.VertexBuffer)
			lastMesh = object.Mesh
			stats.VertexBufferBinds++
		}

		switch object.Material.Delivery {
		case metadata.ObjectTransformInlinePushed:
			constants := metadata.MeshPushConstants{
				Data:         linmath.Vec4{float32(i), 0, 0, 0},
				RenderMatrix: object.Transform,
			}
			cmd.PushConstants(object.Material.Layout, constants.Bytes())
			stats.PushConstants++
			cmd.Draw(object.Mesh.VertexCount(), 1, 0, 0)
		default:
			cmd.Draw(object.Mesh.VertexCount(), 1, 0, uint32(i))
		}
		stats.Draws++
	}

	stats.Objects = len(objects)
	return stats, nil
}

// GroupRenderObjects returns a copy of objects ordered so that equal
// materials, then equal meshes, are adjacent. Groups keep the order in which
// they first appear and objects keep their relative order within a group.
func GroupRenderObjects(objects []metadata.RenderObject) []metadata.RenderObject {
	materialRank := make(map[*metadata.Material]int)
	meshRank := make(map[*metadata.Mesh]int)
	for i := range objects {
		if _, ok := materialRank[objects[i].Material]; !ok {
			materialRank[objects[i].Material] = len(materialRank)
		}
		if _, ok := meshRank[objects[i].Mesh]; !ok {
			meshRank[objects[i].Mesh] = len(meshRank)
		}
	}

	grouped := make([]metadata.RenderObject, len(objects))
	copy(grouped, objects)
	sort.SliceStable(grouped, func(a, b int) bool {
		ma, mb := materialRank[grouped[a].Material], materialRank[grouped[b].Material]
		if ma != mb {
			return ma < mb
		}
		return meshRank[grouped[a].Mesh] < meshRank[grouped[b].Mesh]
	})
	return grouped
}
