package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

/**
 * @brief The descriptor set layouts shared by every frame and every pipeline,
 * and the pool the per-frame sets are allocated from.
 */
type VulkanDescriptors struct {
	/** @brief Set 0: camera uniform at binding 0, dynamic scene uniform at binding 1. */
	GlobalLayout vk.DescriptorSetLayout
	/** @brief Set 1: object storage buffer at binding 0. */
	ObjectLayout vk.DescriptorSetLayout
	Pool         vk.DescriptorPool
}

// DescriptorsCreate builds both set layouts and a pool sized for frameCount
// slots.
func DescriptorsCreate(context *VulkanContext, frameCount uint32) (*VulkanDescriptors, error) {
	descriptors := &VulkanDescriptors{}

	globalBindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         1,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	layout, err := createSetLayout(context, globalBindings)
	if err != nil {
		return nil, fmt.Errorf("global set layout: %w", err)
	}
	descriptors.GlobalLayout = layout

	objectBindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
	}
	layout, err = createSetLayout(context, objectBindings)
	if err != nil {
		descriptors.Destroy(context)
		return nil, fmt.Errorf("object set layout: %w", err)
	}
	descriptors.ObjectLayout = layout

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: frameCount},
		{Type: vk.DescriptorTypeUniformBufferDynamic, DescriptorCount: frameCount},
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: frameCount},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       frameCount * 2,
	}
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &descriptors.Pool); res != vk.Success {
		descriptors.Destroy(context)
		return nil, vulkanError("vkCreateDescriptorPool", res)
	}
	return descriptors, nil
}

func createSetLayout(context *VulkanContext, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &createInfo, context.Allocator, &layout); res != vk.Success {
		return vk.NullDescriptorSetLayout, vulkanError("vkCreateDescriptorSetLayout", res)
	}
	return layout, nil
}

func (vd *VulkanDescriptors) allocate(context *VulkanContext, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     vd.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &set); res != vk.Success {
		return vk.DescriptorSet(vk.NullHandle), vulkanError("vkAllocateDescriptorSets", res)
	}
	return set, nil
}

// AllocateFrameSets allocates the global and object sets of one frame slot
// and points them at its buffers. The scene binding covers one
// GPUSceneData; the frame picks its copy with a dynamic offset.
func (vd *VulkanDescriptors) AllocateFrameSets(context *VulkanContext, camera, scene, objects *VulkanBuffer) (global, object vk.DescriptorSet, err error) {
	if global, err = vd.allocate(context, vd.GlobalLayout); err != nil {
		return vk.DescriptorSet(vk.NullHandle), vk.DescriptorSet(vk.NullHandle), err
	}
	if object, err = vd.allocate(context, vd.ObjectLayout); err != nil {
		return vk.DescriptorSet(vk.NullHandle), vk.DescriptorSet(vk.NullHandle), err
	}

	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          global,
			DstBinding:      0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: camera.Handle,
				Offset: 0,
				Range:  vk.DeviceSize(metadata.GPUCameraDataSize),
			}},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          global,
			DstBinding:      1,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: scene.Handle,
				Offset: 0,
				Range:  vk.DeviceSize(metadata.GPUSceneDataSize),
			}},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          object,
			DstBinding:      0,
			DescriptorType:  vk.DescriptorTypeStorageBuffer,
			DescriptorCount: 1,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: objects.Handle,
				Offset: 0,
				Range:  vk.DeviceSize(objects.Size()),
			}},
		},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
	return global, object, nil
}

// Destroy releases the pool, which frees every set allocated from it, and
// both layouts.
func (vd *VulkanDescriptors) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if vd.Pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(device, vd.Pool, context.Allocator)
		vd.Pool = vk.NullDescriptorPool
	}
	if vd.ObjectLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(device, vd.ObjectLayout, context.Allocator)
		vd.ObjectLayout = vk.NullDescriptorSetLayout
	}
	if vd.GlobalLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(device, vd.GlobalLayout, context.Allocator)
		vd.GlobalLayout = vk.NullDescriptorSetLayout
	}
}

// SetLayouts returns the layouts in set order, as pipeline layouts expect them.
func (vd *VulkanDescriptors) SetLayouts() []vk.DescriptorSetLayout {
	return []vk.DescriptorSetLayout{vd.GlobalLayout, vd.ObjectLayout}
}
