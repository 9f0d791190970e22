package renderer

import (
	"time"

	"github.com/spaghettifunk/vkframes/engine/containers"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

// GraphicsDevice owns the device level objects: instance, surface, device,
// swapchain, render pass and the memory behind buffers and meshes.
//
// Everything created after Initialize registers its teardown in the deletion
// queue given to Initialize. Objects that pre-date the queue (instance,
// surface, device) are released by Shutdown.
type GraphicsDevice interface {
	Initialize(appName string, width, height uint32, deletion *containers.DeletionQueue) error
	Shutdown() error
	// MinUniformBufferOffsetAlignment is the device limit for dynamic uniform offsets.
	MinUniformBufferOffsetAlignment() uint64
	// CreateSceneBuffer allocates the uniform buffer shared by all frame slots.
	CreateSceneBuffer(size uint64) (metadata.Buffer, error)
	// CreateFrameResources builds the synchronization objects, command buffer,
	// buffers and descriptor sets of one slot. The global descriptor set binds
	// scene with a dynamic offset and a range of one GPUSceneData.
	CreateFrameResources(index int, maxObjects uint32, scene metadata.Buffer) (*metadata.FrameResources, error)
	// UploadMesh copies the vertices of mesh into a device buffer and stores it
	// in mesh.VertexBuffer.
	UploadMesh(mesh *metadata.Mesh) error
	WaitIdle() error
}

// FrameSync drives the per frame CPU/GPU handshake on the graphics queue.
type FrameSync interface {
	// WaitForFence blocks until fence signals. It returns core.ErrGPUHung when
	// timeout elapses first.
	WaitForFence(fence metadata.GPUHandle, timeout time.Duration) error
	ResetFence(fence metadata.GPUHandle) error
	// AcquireNextImage requests the next swapchain image; signal fires when it
	// is ready to be rendered to. It returns core.ErrGPUHung when no image
	// becomes available within timeout.
	AcquireNextImage(signal metadata.GPUHandle, timeout time.Duration) (uint32, error)
	// Submit queues cmd, waiting on wait at the colour attachment output
	// stage, and signals both signal and fence on completion.
	Submit(cmd metadata.CommandBuffer, wait, signal, fence metadata.GPUHandle) error
	Present(imageIndex uint32, wait metadata.GPUHandle) error
}

// PipelineFactory builds graphics pipelines compatible with the frame
// descriptor layout and the main render pass.
type PipelineFactory interface {
	CreatePipeline(config *metadata.PipelineConfig) (pipeline, layout metadata.GPUHandle, err error)
}

type RendererBackend interface {
	GraphicsDevice
	FrameSync
	PipelineFactory
}
