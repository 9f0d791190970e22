package vulkan

import (
	"errors"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframes/engine/containers"
	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/platform"
	"github.com/spaghettifunk/vkframes/engine/renderer"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

// maxFramesInFlight sizes the descriptor pool; the renderer never asks for more slots.
const maxFramesInFlight = 3

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// ErrNoSurface is returned when the platform has no window to render into.
var ErrNoSurface = errors.New("platform window is not available")

type VulkanRenderer struct {
	platform *platform.Platform
	context  *VulkanContext
	deletion *containers.DeletionQueue

	validation bool
}

var _ renderer.RendererBackend = (*VulkanRenderer)(nil)

func New(p *platform.Platform, validation bool) *VulkanRenderer {
	return &VulkanRenderer{
		platform: p,
		context: &VulkanContext{
			Allocator: nil,
			lockPool:  NewVulkanLockPool(),
		},
		validation: validation,
	}
}

func (vr *VulkanRenderer) Initialize(appName string, width, height uint32, deletion *containers.DeletionQueue) error {
	if vr.platform == nil || vr.platform.Window == nil {
		return ErrNoSurface
	}
	vr.deletion = deletion
	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height

	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}

	if err := vr.createInstance(appName); err != nil {
		return err
	}

	if vr.validation {
		if err := vr.createDebugCallback(); err != nil {
			return err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.Window.CreateWindowSurface(vr.context.Instance, nil)
	if err != nil {
		return fmt.Errorf("vulkan surface creation failed: %w", err)
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	vr.context.Device = &VulkanDevice{GraphicsQueueIndex: -1, PresentQueueIndex: -1}
	if err := DeviceCreate(vr.context); err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	deletion.Push("graphics command pool", func() { DeviceDestroyCommandPool(vr.context) })

	swapchain, err := SwapchainCreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.context.Swapchain = swapchain
	deletion.Push("swapchain", func() { vr.context.Swapchain.SwapchainDestroy(vr.context) })

	renderpass, err := RenderpassCreate(vr.context, 1.0, 0)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = renderpass
	deletion.Push("main renderpass", func() { vr.context.MainRenderpass.RenderpassDestroy(vr.context) })

	if err := FramebuffersCreate(vr.context); err != nil {
		return err
	}
	deletion.Push("swapchain framebuffers", func() { FramebuffersDestroy(vr.context) })

	descriptors, err := DescriptorsCreate(vr.context, maxFramesInFlight)
	if err != nil {
		return err
	}
	vr.context.Descriptors = descriptors
	deletion.Push("descriptor layouts and pool", func() { vr.context.Descriptors.Destroy(vr.context) })

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PEngineName:        VulkanSafeString("vkframes"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := vr.platform.GetRequiredExtensionNames()
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}
	if vr.validation {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}

	core.LogInfo("Required extensions:")
	for _, name := range requiredExtensions {
		core.LogInfo(name)
	}
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers should only be enabled on non-release builds.
	if vr.validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		if !validationLayerAvailable(validationLayerName) {
			return fmt.Errorf("required validation layer is missing: %s", validationLayerName)
		}
		layers := VulkanSafeStrings([]string{validationLayerName})
		createInfo.EnabledLayerCount = uint32(len(layers))
		createInfo.PpEnabledLayerNames = layers
	}

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		return vulkanError("vkCreateInstance", res)
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		return err
	}
	core.LogInfo("Vulkan Instance created.")
	return nil
}

func validationLayerAvailable(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if vk.ToString(available[i].LayerName[:]) == name {
			core.LogInfo("Found layer %s.", name)
			return true
		}
	}
	return false
}

func (vr *VulkanRenderer) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}

	var dbg vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, vr.context.Allocator, &dbg); res != vk.Success {
		return vulkanError("vkCreateDebugReportCallbackEXT", res)
	}
	vr.context.debugCallback = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

// Shutdown releases the objects that outlive the deletion queue: device,
// surface, debug callback and instance. Every device child must already be
// gone.
func (vr *VulkanRenderer) Shutdown() error {
	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.context.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugCallback, vr.context.Allocator)
		vr.context.debugCallback = vk.NullDebugReportCallback
	}

	if vr.context.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
		vr.context.Instance = nil
	}
	return nil
}

func (vr *VulkanRenderer) WaitIdle() error {
	if vr.context.Device == nil || vr.context.Device.LogicalDevice == nil {
		return nil
	}
	return vulkanError("vkDeviceWaitIdle", vk.DeviceWaitIdle(vr.context.Device.LogicalDevice))
}

func (vr *VulkanRenderer) MinUniformBufferOffsetAlignment() uint64 {
	return vr.context.Device.MinUniformBufferOffsetAlignment
}

func (vr *VulkanRenderer) CreateSceneBuffer(size uint64) (metadata.Buffer, error) {
	buffer, err := HostBufferCreate(vr.context, size, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
	if err != nil {
		return nil, err
	}
	vr.deletion.Push("scene buffer", func() { buffer.Destroy(vr.context) })
	return buffer, nil
}

func (vr *VulkanRenderer) CreateFrameResources(index int, maxObjects uint32, scene metadata.Buffer) (*metadata.FrameResources, error) {
	if index >= maxFramesInFlight {
		return nil, fmt.Errorf("frame %d exceeds the %d supported frames in flight", index, maxFramesInFlight)
	}
	sceneBuffer, ok := scene.(*VulkanBuffer)
	if !ok {
		return nil, fmt.Errorf("scene buffer of type %T was not created by this backend", scene)
	}
	name := func(what string) string { return fmt.Sprintf("frame %d %s", index, what) }

	// Created signalled so the first wait on this slot returns immediately.
	fence, err := NewFence(vr.context, true)
	if err != nil {
		return nil, err
	}
	vr.deletion.Push(name("render fence"), func() { fence.FenceDestroy(vr.context) })

	presentSemaphore, err := NewSemaphore(vr.context)
	if err != nil {
		return nil, err
	}
	vr.deletion.Push(name("present semaphore"), func() {
		vk.DestroySemaphore(vr.context.Device.LogicalDevice, presentSemaphore, vr.context.Allocator)
	})

	renderSemaphore, err := NewSemaphore(vr.context)
	if err != nil {
		return nil, err
	}
	vr.deletion.Push(name("render semaphore"), func() {
		vk.DestroySemaphore(vr.context.Device.LogicalDevice, renderSemaphore, vr.context.Allocator)
	})

	commandBuffer, err := NewVulkanCommandBuffer(vr.context, vr.context.Device.GraphicsCommandPool, true)
	if err != nil {
		return nil, err
	}
	vr.deletion.Push(name("command buffer"), func() { commandBuffer.Free(vr.context.Device.GraphicsCommandPool) })

	cameraBuffer, err := HostBufferCreate(vr.context, metadata.GPUCameraDataSize, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
	if err != nil {
		return nil, err
	}
	vr.deletion.Push(name("camera buffer"), func() { cameraBuffer.Destroy(vr.context) })

	objectBuffer, err := HostBufferCreate(vr.context, uint64(maxObjects)*metadata.GPUObjectDataSize, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit))
	if err != nil {
		return nil, err
	}
	vr.deletion.Push(name("object buffer"), func() { objectBuffer.Destroy(vr.context) })

	// Sets are released with the pool.
	global, object, err := vr.context.Descriptors.AllocateFrameSets(vr.context, cameraBuffer, sceneBuffer, objectBuffer)
	if err != nil {
		return nil, err
	}

	return &metadata.FrameResources{
		RenderFence:      fence,
		PresentSemaphore: presentSemaphore,
		RenderSemaphore:  renderSemaphore,
		CommandBuffer:    commandBuffer,
		CameraBuffer:     cameraBuffer,
		ObjectBuffer:     objectBuffer,
		GlobalDescriptor: global,
		ObjectDescriptor: object,
	}, nil
}

func (vr *VulkanRenderer) UploadMesh(mesh *metadata.Mesh) error {
	buffer, err := UploadVertices(vr.context, mesh.Bytes())
	if err != nil {
		return err
	}
	mesh.VertexBuffer = buffer
	vr.deletion.Push("vertex buffer "+mesh.Name, func() { buffer.Destroy(vr.context) })
	return nil
}

func (vr *VulkanRenderer) CreatePipeline(config *metadata.PipelineConfig) (metadata.GPUHandle, metadata.GPUHandle, error) {
	vertex, err := NewShaderStage(vr.context, config.VertexShader, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, nil, fmt.Errorf("vertex stage: %w", err)
	}
	defer vertex.Destroy(vr.context)

	fragment, err := NewShaderStage(vr.context, config.FragmentShader, vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, nil, fmt.Errorf("fragment stage: %w", err)
	}
	defer fragment.Destroy(vr.context)

	stages := []vk.PipelineShaderStageCreateInfo{vertex.ShaderStageCreateInfo, fragment.ShaderStageCreateInfo}
	pipeline, err := NewGraphicsPipeline(vr.context, NewVulkanPipelineConfig(vr.context, config, stages))
	if err != nil {
		return nil, nil, err
	}
	vr.deletion.Push("graphics pipeline", func() { pipeline.Destroy(vr.context) })
	return pipeline.Handle, pipeline.PipelineLayout, nil
}

func (vr *VulkanRenderer) WaitForFence(fence metadata.GPUHandle, timeout time.Duration) error {
	f, ok := fence.(*VulkanFence)
	if !ok {
		return fmt.Errorf("fence of type %T was not created by this backend", fence)
	}
	return f.FenceWait(vr.context, uint64(timeout.Nanoseconds()))
}

func (vr *VulkanRenderer) ResetFence(fence metadata.GPUHandle) error {
	f, ok := fence.(*VulkanFence)
	if !ok {
		return fmt.Errorf("fence of type %T was not created by this backend", fence)
	}
	return f.FenceReset(vr.context)
}

func (vr *VulkanRenderer) AcquireNextImage(signal metadata.GPUHandle, timeout time.Duration) (uint32, error) {
	return vr.context.Swapchain.SwapchainAcquireNextImageIndex(vr.context, uint64(timeout.Nanoseconds()), signal.(vk.Semaphore))
}

func (vr *VulkanRenderer) Submit(cmd metadata.CommandBuffer, wait, signal, fence metadata.GPUHandle) error {
	commandBuffer, ok := cmd.(*VulkanCommandBuffer)
	if !ok {
		return fmt.Errorf("command buffer of type %T was not created by this backend", cmd)
	}
	f, ok := fence.(*VulkanFence)
	if !ok {
		return fmt.Errorf("fence of type %T was not created by this backend", fence)
	}

	// Colour writes wait until the acquired image is released by the
	// presentation engine.
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait.(vk.Semaphore)},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal.(vk.Semaphore)},
	}

	device := vr.context.Device
	err := vr.context.lockPool.SafeQueueCall(uint32(device.GraphicsQueueIndex), func() error {
		return vulkanError("vkQueueSubmit", vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, f.Handle))
	})
	if err != nil {
		return err
	}
	commandBuffer.UpdateSubmitted()
	return nil
}

func (vr *VulkanRenderer) Present(imageIndex uint32, wait metadata.GPUHandle) error {
	device := vr.context.Device
	return vr.context.lockPool.SafeQueueCall(uint32(device.PresentQueueIndex), func() error {
		return vr.context.Swapchain.SwapchainPresent(vr.context, device.PresentQueue, wait.(vk.Semaphore), imageIndex)
	})
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
