package renderer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/vkframes/engine/containers"
	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/math"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

// Renderer owns the frame ring, the draw batcher and the resource catalog and
// runs one frame per DrawFrame call.
type Renderer struct {
	backend  RendererBackend
	config   Config
	deletion *containers.DeletionQueue
	catalog  *ResourceCatalog

	ring    *FrameRing
	batcher *DrawBatcher

	minUniformAlignment uint64
	frameNumber         uint64
	lastStats           BatchStats

	initialized bool
	shutdown    bool
}

func New(backend RendererBackend, config Config) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{
		backend:  backend,
		config:   config,
		deletion: containers.NewDeletionQueue(),
		catalog:  NewResourceCatalog(),
	}, nil
}

// Initialize boots the graphics device and creates every per frame resource.
// Nothing here is recreated later.
func (r *Renderer) Initialize(appName string, width, height uint32) error {
	if err := r.backend.Initialize(appName, width, height, r.deletion); err != nil {
		return fmt.Errorf("graphics device: %w", err)
	}

	r.minUniformAlignment = r.backend.MinUniformBufferOffsetAlignment()
	if r.minUniformAlignment != 0 && !math.IsPowerOfTwo(r.minUniformAlignment) {
		return fmt.Errorf("minUniformBufferOffsetAlignment %d: %w", r.minUniformAlignment, core.ErrInvalidAlignment)
	}

	frames := int(r.config.FramesInFlight)
	sceneStride := math.PadUniformBufferSize(metadata.GPUSceneDataSize, r.minUniformAlignment)
	scene, err := r.backend.CreateSceneBuffer(uint64(frames) * sceneStride)
	if err != nil {
		return fmt.Errorf("scene buffer: %w", err)
	}

	resources := make([]*metadata.FrameResources, frames)
	for i := 0; i < frames; i++ {
		res, err := r.backend.CreateFrameResources(i, r.config.MaxObjects, scene)
		if err != nil {
			return fmt.Errorf("frame %d resources: %w", i, err)
		}
		resources[i] = res
	}

	ring, err := NewFrameRing(r.backend, resources, r.config.FenceTimeout())
	if err != nil {
		return err
	}
	r.ring = ring
	r.batcher = NewDrawBatcher(scene, r.minUniformAlignment, frames, r.config.MaxObjects, r.config.GroupObjects)
	r.initialized = true

	core.LogInfo("renderer initialized: %d frames in flight, scene stride %d bytes (alignment %d), %d objects per frame",
		frames, sceneStride, r.minUniformAlignment, r.config.MaxObjects)
	return nil
}

// UploadMesh sends the vertices to the device and registers the mesh under name.
func (r *Renderer) UploadMesh(name string, mesh *metadata.Mesh) (*metadata.Mesh, error) {
	if !r.initialized {
		return nil, core.ErrNotInitialized
	}
	if mesh == nil {
		return nil, fmt.Errorf("upload mesh `%s`: mesh is nil", name)
	}
	if _, exists := r.catalog.FindMesh(name); exists {
		return nil, fmt.Errorf("mesh `%s`: %w", name, core.ErrDuplicateResource)
	}
	if mesh.ID == uuid.Nil {
		mesh.ID = uuid.New()
	}
	mesh.Name = name
	if err := r.backend.UploadMesh(mesh); err != nil {
		return nil, fmt.Errorf("upload mesh `%s`: %w", name, err)
	}
	return r.catalog.RegisterMesh(name, mesh)
}

// CreateMaterial builds a pipeline from config and registers it under name.
func (r *Renderer) CreateMaterial(name string, config *metadata.PipelineConfig) (*metadata.Material, error) {
	if !r.initialized {
		return nil, core.ErrNotInitialized
	}
	if config == nil {
		return nil, fmt.Errorf("material `%s`: pipeline config is nil", name)
	}
	if _, exists := r.catalog.FindMaterial(name); exists {
		return nil, fmt.Errorf("material `%s`: %w", name, core.ErrDuplicateResource)
	}
	pipeline, layout, err := r.backend.CreatePipeline(config)
	if err != nil {
		return nil, fmt.Errorf("pipeline for material `%s`: %w", name, err)
	}
	return r.catalog.RegisterMaterial(name, pipeline, layout, config.Delivery)
}

func (r *Renderer) Catalog() *ResourceCatalog {
	return r.catalog
}

func (r *Renderer) Config() Config {
	return r.config
}

// FrameNumber is the number of frames presented so far
func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}

// LastFrameStats reports the bind and draw counts of the last recorded frame
func (r *Renderer) LastFrameStats() BatchStats {
	return r.lastStats
}

// DrawFrame waits for the slot of the current frame, records the packet into
// it, submits, presents and advances the frame number. Any error is fatal.
func (r *Renderer) DrawFrame(packet *metadata.RenderPacket) error {
	if !r.initialized || r.shutdown {
		return core.ErrNotInitialized
	}
	if err := r.batcher.Validate(packet); err != nil {
		return err
	}

	slot := r.ring.AcquireSlot(r.frameNumber)
	if err := r.ring.BeginFrame(slot); err != nil {
		return err
	}

	imageIndex, err := r.ring.AcquireImage(slot)
	if err != nil {
		return err
	}

	cmd := slot.Resources.CommandBuffer
	if err := cmd.Begin(); err != nil {
		return fmt.Errorf("begin command buffer: %w", err)
	}
	if err := cmd.BeginRenderPass(imageIndex, r.config.ClearColor); err != nil {
		return fmt.Errorf("begin render pass: %w", err)
	}

	stats, err := r.batcher.Record(slot, r.frameNumber, packet)
	if err != nil {
		return err
	}

	cmd.EndRenderPass()
	if err := cmd.End(); err != nil {
		return fmt.Errorf("end command buffer: %w", err)
	}

	if err := r.ring.Submit(slot); err != nil {
		return err
	}
	if err := r.ring.Present(slot); err != nil {
		return err
	}

	r.lastStats = stats
	r.frameNumber++
	return nil
}

// Shutdown waits for the GPU to go idle, flushes the deletion queue and then
// releases the device. Calling it more than once is harmless.
func (r *Renderer) Shutdown() error {
	if r.shutdown {
		return nil
	}
	r.shutdown = true

	if r.initialized {
		if err := r.backend.WaitIdle(); err != nil {
			core.LogError("wait idle before shutdown: %s", err)
		}
	}
	r.deletion.Flush()
	return r.backend.Shutdown()
}
