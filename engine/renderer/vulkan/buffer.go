package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

// VulkanBuffer is a device buffer with its own memory. Host visible buffers
// stay mapped for their whole life.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Usage  vk.BufferUsageFlags

	size   uint64
	mapped unsafe.Pointer
}

var _ metadata.Buffer = (*VulkanBuffer)(nil)

func BufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags, mapMemory bool) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		Usage: usage,
		size:  size,
	}

	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &createInfo, context.Allocator, &buffer.Handle); res != vk.Success {
		return nil, vulkanError("vkCreateBuffer", res)
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		buffer.Destroy(context)
		return nil, fmt.Errorf("buffer memory: %w", err)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	err = context.lockPool.SafeCall(MemoryManagement, func() error {
		return vulkanError("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &buffer.Memory))
	})
	if err != nil {
		buffer.Destroy(context)
		return nil, err
	}

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		buffer.Destroy(context)
		return nil, vulkanError("vkBindBufferMemory", res)
	}

	if mapMemory {
		var data unsafe.Pointer
		if res := vk.MapMemory(context.Device.LogicalDevice, buffer.Memory, 0, vk.DeviceSize(size), 0, &data); res != vk.Success {
			buffer.Destroy(context)
			return nil, vulkanError("vkMapMemory", res)
		}
		buffer.mapped = data
	}
	return buffer, nil
}

// HostBufferCreate creates a mapped, host coherent buffer.
func HostBufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	return BufferCreate(context, size, usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
		true)
}

func (vb *VulkanBuffer) Size() uint64 {
	return vb.size
}

// Write copies data into the mapped memory at offset. Host coherent memory
// needs no flush.
func (vb *VulkanBuffer) Write(offset uint64, data []byte) error {
	if vb.mapped == nil {
		return fmt.Errorf("buffer is not host visible")
	}
	if offset+uint64(len(data)) > vb.size {
		return fmt.Errorf("write of %d bytes at offset %d overflows buffer of %d bytes", len(data), offset, vb.size)
	}
	if len(data) == 0 {
		return nil
	}
	vk.Memcopy(unsafe.Add(vb.mapped, offset), data)
	return nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if vb.mapped != nil {
		vk.UnmapMemory(device, vb.Memory)
		vb.mapped = nil
	}
	if vb.Handle != vk.NullBuffer {
		vk.DestroyBuffer(device, vb.Handle, context.Allocator)
		vb.Handle = vk.NullBuffer
	}
	if vb.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, vb.Memory, context.Allocator)
		vb.Memory = vk.NullDeviceMemory
	}
}

// BufferCopy copies size bytes from src to dst using a single use command
// buffer and waits for the graphics queue to finish.
func BufferCopy(context *VulkanContext, src, dst *VulkanBuffer, size uint64) error {
	pool := context.Device.GraphicsCommandPool
	commandBuffer, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}

	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(commandBuffer.Handle, src.Handle, dst.Handle, 1, []vk.BufferCopy{region})

	return commandBuffer.EndSingleUse(pool, context.Device.GraphicsQueue, uint32(context.Device.GraphicsQueueIndex))
}

// UploadVertices stages data in host memory and copies it into a new device
// local vertex buffer.
func UploadVertices(context *VulkanContext, data []byte) (*VulkanBuffer, error) {
	size := uint64(len(data))
	if size == 0 {
		return nil, fmt.Errorf("cannot upload an empty vertex buffer")
	}

	staging, err := HostBufferCreate(context, size, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit))
	if err != nil {
		return nil, fmt.Errorf("staging buffer: %w", err)
	}
	defer staging.Destroy(context)

	if err := staging.Write(0, data); err != nil {
		return nil, err
	}

	vertexBuffer, err := BufferCreate(context, size,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		false)
	if err != nil {
		return nil, fmt.Errorf("vertex buffer: %w", err)
	}

	if err := BufferCopy(context, staging, vertexBuffer, size); err != nil {
		vertexBuffer.Destroy(context)
		return nil, err
	}
	return vertexBuffer, nil
}

func vertexBufferHandle(handle metadata.GPUHandle) vk.Buffer {
	switch b := handle.(type) {
	case *VulkanBuffer:
		return b.Handle
	case vk.Buffer:
		return b
	default:
		panic(fmt.Sprintf("unexpected vertex buffer handle %T", handle))
	}
}
