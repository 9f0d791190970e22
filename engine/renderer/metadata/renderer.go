package metadata

import (
	"github.com/xlab/linmath"
)

// GPUHandle is an opaque device object (fence, semaphore, pipeline, layout,
// descriptor set, buffer). Only the backend that produced it can interpret it.
type GPUHandle interface{}

// Buffer is a host visible device buffer.
type Buffer interface {
	// Write copies data into the buffer starting at offset.
	Write(offset uint64, data []byte) error
	Size() uint64
}

// CommandBuffer records the commands of one frame.
type CommandBuffer interface {
	Reset() error
	Begin() error
	End() error
	BeginRenderPass(imageIndex uint32, clearColor [4]float32) error
	EndRenderPass()
	BindPipeline(pipeline GPUHandle)
	BindDescriptorSets(layout GPUHandle, firstSet uint32, sets []GPUHandle, dynamicOffsets []uint32)
	BindVertexBuffer(buffer GPUHandle)
	PushConstants(layout GPUHandle, data []byte)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

/**
 * @brief The device objects owned by one frame slot. Created once at startup
 * and never reallocated.
 */
type FrameResources struct {
	/** @brief Signalled by the GPU when this slot's submission retires. Created signalled. */
	RenderFence GPUHandle
	/** @brief Signalled when the acquired swapchain image is ready. */
	PresentSemaphore GPUHandle
	/** @brief Signalled when rendering completes, waited on by present. */
	RenderSemaphore GPUHandle
	CommandBuffer   CommandBuffer
	/** @brief Holds one GPUCameraData. */
	CameraBuffer Buffer
	/** @brief Holds MaxObjects GPUObjectData. */
	ObjectBuffer Buffer
	/** @brief Set 0: camera buffer and the dynamic scene binding. */
	GlobalDescriptor GPUHandle
	/** @brief Set 1: object buffer. */
	ObjectDescriptor GPUHandle
}

// RenderObject is one draw: a mesh, a material and a model matrix.
type RenderObject struct {
	Mesh      *Mesh
	Material  *Material
	Transform linmath.Mat4x4
}

// CameraSnapshot is the immutable view of the camera for a single frame.
type CameraSnapshot struct {
	View       linmath.Mat4x4
	Projection linmath.Mat4x4
	Position   linmath.Vec3
}

// RenderPacket carries everything the renderer needs to draw a frame.
type RenderPacket struct {
	DeltaTime float64
	Camera    CameraSnapshot
	Scene     GPUSceneData
	// Objects must be grouped by material, then by mesh, unless the renderer
	// is configured to group them.
	Objects []RenderObject
}
