package renderer

import (
	"fmt"
	"sync"
	"time"

	"github.com/spaghettifunk/vkframes/engine/containers"
	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

type fakeFence struct {
	slot     int
	signaled bool
	done     chan struct{}
}

type fakeBuffer struct {
	name    string
	data    []byte
	backend *fakeBackend
	offsets []uint64
}

func (b *fakeBuffer) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("write of %d bytes at %d overflows buffer `%s` of %d bytes", len(data), offset, b.name, len(b.data))
	}
	copy(b.data[offset:], data)
	b.offsets = append(b.offsets, offset)
	b.backend.record(fmt.Sprintf("write:%s", b.name))
	return nil
}

func (b *fakeBuffer) Size() uint64 {
	return uint64(len(b.data))
}

type recordedCommand struct {
	op             string
	handle         metadata.GPUHandle
	firstSet       uint32
	sets           []metadata.GPUHandle
	dynamicOffsets []uint32
	data           []byte
	draw           [4]uint32
}

type fakeCommandBuffer struct {
	slot     int
	backend  *fakeBackend
	commands []recordedCommand
	resets   int
	begun    bool
}

func (c *fakeCommandBuffer) Reset() error {
	c.resets++
	c.commands = nil
	c.backend.record(fmt.Sprintf("cmdreset:%d", c.slot))
	return nil
}

func (c *fakeCommandBuffer) Begin() error {
	c.begun = true
	return nil
}

func (c *fakeCommandBuffer) End() error {
	if !c.begun {
		return fmt.Errorf("end without begin")
	}
	c.begun = false
	return nil
}

func (c *fakeCommandBuffer) BeginRenderPass(imageIndex uint32, clearColor [4]float32) error {
	c.commands = append(c.commands, recordedCommand{op: "beginpass", draw: [4]uint32{imageIndex}})
	return nil
}

func (c *fakeCommandBuffer) EndRenderPass() {
	c.commands = append(c.commands, recordedCommand{op: "endpass"})
}

func (c *fakeCommandBuffer) BindPipeline(pipeline metadata.GPUHandle) {
	c.commands = append(c.commands, recordedCommand{op: "pipeline", handle: pipeline})
}

func (c *fakeCommandBuffer) BindDescriptorSets(layout metadata.GPUHandle, firstSet uint32, sets []metadata.GPUHandle, dynamicOffsets []uint32) {
	c.commands = append(c.commands, recordedCommand{
		op:             "descriptors",
		handle:         layout,
		firstSet:       firstSet,
		sets:           append([]metadata.GPUHandle(nil), sets...),
		dynamicOffsets: append([]uint32(nil), dynamicOffsets...),
	})
}

func (c *fakeCommandBuffer) BindVertexBuffer(buffer metadata.GPUHandle) {
	c.commands = append(c.commands, recordedCommand{op: "vertex", handle: buffer})
}

func (c *fakeCommandBuffer) PushConstants(layout metadata.GPUHandle, data []byte) {
	c.commands = append(c.commands, recordedCommand{op: "push", handle: layout, data: append([]byte(nil), data...)})
}

func (c *fakeCommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.commands = append(c.commands, recordedCommand{op: "draw", draw: [4]uint32{vertexCount, instanceCount, firstVertex, firstInstance}})
}

func (c *fakeCommandBuffer) count(op string) int {
	n := 0
	for _, cmd := range c.commands {
		if cmd.op == op {
			n++
		}
	}
	return n
}

func (c *fakeCommandBuffer) ops(op string) []recordedCommand {
	out := []recordedCommand{}
	for _, cmd := range c.commands {
		if cmd.op == op {
			out = append(out, cmd)
		}
	}
	return out
}

type submitRecord struct {
	cmd    metadata.CommandBuffer
	wait   metadata.GPUHandle
	signal metadata.GPUHandle
	fence  metadata.GPUHandle
}

type presentRecord struct {
	imageIndex uint32
	wait       metadata.GPUHandle
}

// fakeBackend is an in memory RendererBackend. With manualFences set, a
// submitted fence only signals when the test calls complete.
type fakeBackend struct {
	mu sync.Mutex

	alignment    uint64
	imageCount   uint32
	manualFences bool

	deletion *containers.DeletionQueue
	scene    *fakeBuffer
	frames   []*metadata.FrameResources
	fences   []*fakeFence

	nextImage      uint32
	acquireTimeout time.Duration
	acquireErr     error
	submits        []submitRecord
	presents       []presentRecord
	pipelines      int
	events         []string
}

func newFakeBackend(alignment uint64) *fakeBackend {
	return &fakeBackend{
		alignment:  alignment,
		imageCount: 3,
	}
}

func (f *fakeBackend) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBackend) eventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeBackend) Initialize(appName string, width, height uint32, deletion *containers.DeletionQueue) error {
	f.deletion = deletion
	f.record("initialize")
	return nil
}

func (f *fakeBackend) Shutdown() error {
	f.record("shutdown")
	return nil
}

func (f *fakeBackend) MinUniformBufferOffsetAlignment() uint64 {
	return f.alignment
}

func (f *fakeBackend) CreateSceneBuffer(size uint64) (metadata.Buffer, error) {
	f.scene = &fakeBuffer{name: "scene", data: make([]byte, size), backend: f}
	f.deletion.Push("scene buffer", func() { f.record("destroy:scene") })
	return f.scene, nil
}

func (f *fakeBackend) CreateFrameResources(index int, maxObjects uint32, scene metadata.Buffer) (*metadata.FrameResources, error) {
	fence := &fakeFence{slot: index, signaled: true, done: make(chan struct{})}
	close(fence.done)
	f.fences = append(f.fences, fence)

	res := &metadata.FrameResources{
		RenderFence:      fence,
		PresentSemaphore: fmt.Sprintf("present-semaphore-%d", index),
		RenderSemaphore:  fmt.Sprintf("render-semaphore-%d", index),
		CommandBuffer:    &fakeCommandBuffer{slot: index, backend: f},
		CameraBuffer:     &fakeBuffer{name: fmt.Sprintf("camera%d", index), data: make([]byte, metadata.GPUCameraDataSize), backend: f},
		ObjectBuffer:     &fakeBuffer{name: fmt.Sprintf("objects%d", index), data: make([]byte, uint64(maxObjects)*metadata.GPUObjectDataSize), backend: f},
		GlobalDescriptor: fmt.Sprintf("global-set-%d", index),
		ObjectDescriptor: fmt.Sprintf("object-set-%d", index),
	}
	f.frames = append(f.frames, res)
	f.deletion.Push(fmt.Sprintf("frame %d", index), func() { f.record(fmt.Sprintf("destroy:frame%d", index)) })
	return res, nil
}

func (f *fakeBackend) UploadMesh(mesh *metadata.Mesh) error {
	mesh.VertexBuffer = "vb-" + mesh.Name
	if mesh.Name == "" {
		mesh.VertexBuffer = fmt.Sprintf("vb-%p", mesh)
	}
	return nil
}

func (f *fakeBackend) WaitIdle() error {
	f.record("waitidle")
	return nil
}

func (f *fakeBackend) CreatePipeline(config *metadata.PipelineConfig) (metadata.GPUHandle, metadata.GPUHandle, error) {
	f.pipelines++
	return fmt.Sprintf("pipeline-%d", f.pipelines), fmt.Sprintf("layout-%d", f.pipelines), nil
}

func (f *fakeBackend) WaitForFence(handle metadata.GPUHandle, timeout time.Duration) error {
	fence := handle.(*fakeFence)
	f.record(fmt.Sprintf("wait:%d", fence.slot))

	f.mu.Lock()
	if fence.signaled {
		f.mu.Unlock()
		return nil
	}
	done := fence.done
	f.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return core.ErrGPUHung
	}
}

func (f *fakeBackend) ResetFence(handle metadata.GPUHandle) error {
	fence := handle.(*fakeFence)
	f.mu.Lock()
	fence.signaled = false
	fence.done = make(chan struct{})
	f.mu.Unlock()
	f.record(fmt.Sprintf("reset:%d", fence.slot))
	return nil
}

func (f *fakeBackend) AcquireNextImage(signal metadata.GPUHandle, timeout time.Duration) (uint32, error) {
	f.mu.Lock()
	f.acquireTimeout = timeout
	if f.acquireErr != nil {
		err := f.acquireErr
		f.mu.Unlock()
		return 0, err
	}
	idx := f.nextImage
	f.nextImage = (f.nextImage + 1) % f.imageCount
	f.mu.Unlock()
	f.record(fmt.Sprintf("acquire:%v", signal))
	return idx, nil
}

func (f *fakeBackend) Submit(cmd metadata.CommandBuffer, wait, signal, fenceHandle metadata.GPUHandle) error {
	fence := fenceHandle.(*fakeFence)
	f.mu.Lock()
	f.submits = append(f.submits, submitRecord{cmd: cmd, wait: wait, signal: signal, fence: fenceHandle})
	manual := f.manualFences
	f.mu.Unlock()
	f.record(fmt.Sprintf("submit:%d", fence.slot))

	if !manual {
		f.complete(fence)
	}
	return nil
}

func (f *fakeBackend) Present(imageIndex uint32, wait metadata.GPUHandle) error {
	f.mu.Lock()
	f.presents = append(f.presents, presentRecord{imageIndex: imageIndex, wait: wait})
	f.mu.Unlock()
	f.record(fmt.Sprintf("present:%d", imageIndex))
	return nil
}

// complete signals fence the way the GPU would when a submission retires.
func (f *fakeBackend) complete(fence *fakeFence) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fence.signaled {
		return
	}
	fence.signaled = true
	close(fence.done)
}

func (f *fakeBackend) commandBuffer(slot int) *fakeCommandBuffer {
	return f.frames[slot].CommandBuffer.(*fakeCommandBuffer)
}

func (f *fakeBackend) objectBuffer(slot int) *fakeBuffer {
	return f.frames[slot].ObjectBuffer.(*fakeBuffer)
}

func (f *fakeBackend) cameraBuffer(slot int) *fakeBuffer {
	return f.frames[slot].CameraBuffer.(*fakeBuffer)
}
