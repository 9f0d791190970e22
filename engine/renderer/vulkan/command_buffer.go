package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

// VulkanCommandBuffer records one frame on the graphics queue. It implements
// metadata.CommandBuffer; handles passed to it must come from this backend.
type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState

	context *VulkanContext
}

var _ metadata.CommandBuffer = (*VulkanCommandBuffer)(nil)

func NewVulkanCommandBuffer(context *VulkanContext, pool vk.CommandPool, isPrimary bool) (*VulkanCommandBuffer, error) {
	commandBuffer := &VulkanCommandBuffer{
		State:   COMMAND_BUFFER_STATE_NOT_ALLOCATED,
		context: context,
	}

	level := vk.CommandBufferLevelSecondary
	if isPrimary {
		level = vk.CommandBufferLevelPrimary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, 1)
	err := context.lockPool.SafeCall(CommandPoolManagement, func() error {
		return vulkanError("vkAllocateCommandBuffers", vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles))
	})
	if err != nil {
		return nil, err
	}
	commandBuffer.Handle = handles[0]
	commandBuffer.State = COMMAND_BUFFER_STATE_READY
	return commandBuffer, nil
}

func (v *VulkanCommandBuffer) Free(pool vk.CommandPool) {
	_ = v.context.lockPool.SafeCall(CommandPoolManagement, func() error {
		vk.FreeCommandBuffers(v.context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{v.Handle})
		return nil
	})
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

// Reset clears previously recorded commands so the buffer can be recorded again.
func (v *VulkanCommandBuffer) Reset() error {
	if res := vk.ResetCommandBuffer(v.Handle, 0); res != vk.Success {
		return vulkanError("vkResetCommandBuffer", res)
	}
	v.State = COMMAND_BUFFER_STATE_READY
	return nil
}

// Begin starts a one time submit recording, which is how every frame uses it.
func (v *VulkanCommandBuffer) Begin() error {
	return v.BeginWithFlags(true, false, false)
}

func (v *VulkanCommandBuffer) BeginWithFlags(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	if v.State != COMMAND_BUFFER_STATE_READY {
		return fmt.Errorf("begin on command buffer in state %d: %w", v.State, core.ErrInvalidFrameState)
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if res := vk.BeginCommandBuffer(v.Handle, &beginInfo); res != vk.Success {
		return vulkanError("vkBeginCommandBuffer", res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return vulkanError("vkEndCommandBuffer", res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

// BeginRenderPass starts the main render pass on the framebuffer of
// imageIndex and sets a viewport and scissor covering the whole swapchain.
func (v *VulkanCommandBuffer) BeginRenderPass(imageIndex uint32, clearColor [4]float32) error {
	swapchain := v.context.Swapchain
	if int(imageIndex) >= len(swapchain.Framebuffers) {
		return fmt.Errorf("swapchain image %d out of range (%d framebuffers)", imageIndex, len(swapchain.Framebuffers))
	}
	extent := swapchain.Extent

	v.context.MainRenderpass.RenderpassBegin(v, swapchain.Framebuffers[imageIndex].Handle, extent, clearColor)

	// The projection already flips Y, so the viewport keeps Vulkan's orientation.
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	vk.CmdSetViewport(v.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(v.Handle, 0, 1, []vk.Rect2D{scissor})
	return nil
}

func (v *VulkanCommandBuffer) EndRenderPass() {
	v.context.MainRenderpass.RenderpassEnd(v)
}

func (v *VulkanCommandBuffer) BindPipeline(pipeline metadata.GPUHandle) {
	vk.CmdBindPipeline(v.Handle, vk.PipelineBindPointGraphics, pipeline.(vk.Pipeline))
}

func (v *VulkanCommandBuffer) BindDescriptorSets(layout metadata.GPUHandle, firstSet uint32, sets []metadata.GPUHandle, dynamicOffsets []uint32) {
	descriptorSets := make([]vk.DescriptorSet, len(sets))
	for i, set := range sets {
		descriptorSets[i] = set.(vk.DescriptorSet)
	}
	vk.CmdBindDescriptorSets(
		v.Handle,
		vk.PipelineBindPointGraphics,
		layout.(vk.PipelineLayout),
		firstSet,
		uint32(len(descriptorSets)),
		descriptorSets,
		uint32(len(dynamicOffsets)),
		dynamicOffsets,
	)
}

func (v *VulkanCommandBuffer) BindVertexBuffer(buffer metadata.GPUHandle) {
	vk.CmdBindVertexBuffers(v.Handle, 0, 1, []vk.Buffer{vertexBufferHandle(buffer)}, []vk.DeviceSize{0})
}

func (v *VulkanCommandBuffer) PushConstants(layout metadata.GPUHandle, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(
		v.Handle,
		layout.(vk.PipelineLayout),
		vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		0,
		uint32(len(data)),
		unsafe.Pointer(&data[0]),
	)
}

func (v *VulkanCommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(v.Handle, vertexCount, instanceCount, firstVertex, firstInstance)
}

/**
 * Allocates and begins recording to out_command_buffer.
 */
func AllocateAndBeginSingleUse(context *VulkanContext, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	cb, err := NewVulkanCommandBuffer(context, pool, true)
	if err != nil {
		return nil, err
	}
	if err := cb.BeginWithFlags(true, false, false); err != nil {
		cb.Free(pool)
		return nil, err
	}
	return cb, nil
}

/**
 * Ends recording, submits to and waits for queue operation and frees the provided command buffer.
 */
func (v *VulkanCommandBuffer) EndSingleUse(pool vk.CommandPool, queue vk.Queue, queueFamily uint32) error {
	defer v.Free(pool)

	if err := v.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}

	return v.context.lockPool.SafeQueueCall(queueFamily, func() error {
		if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
			return vulkanError("vkQueueSubmit", res)
		}
		// Wait for it to finish
		return vulkanError("vkQueueWaitIdle", vk.QueueWaitIdle(queue))
	})
}
