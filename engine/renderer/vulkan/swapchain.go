package vulkan

import (
	"fmt"
	stdmath "math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/math"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachment *VulkanImage

	// framebuffers used for on-screen rendering.
	Framebuffers []*VulkanFramebuffer
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

func SwapchainCreate(context *VulkanContext, width uint32, height uint32) (*VulkanSwapchain, error) {
	swapchain := &VulkanSwapchain{}
	support := &context.Device.SwapchainSupport

	// Choose a swap surface format.
	swapchain.ImageFormat = support.Formats[0]
	for _, format := range support.Formats {
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			swapchain.ImageFormat = format
			break
		}
	}

	presentMode := vk.PresentModeFifo
	for _, mode := range support.PresentModes {
		if mode == vk.PresentModeMailbox {
			presentMode = mode
			break
		}
	}

	extent := vk.Extent2D{Width: width, Height: height}
	if support.Capabilities.CurrentExtent.Width != stdmath.MaxUint32 {
		extent = support.Capabilities.CurrentExtent
	}

	// Clamp to the value allowed by the GPU.
	lo := support.Capabilities.MinImageExtent
	hi := support.Capabilities.MaxImageExtent
	extent.Width = math.Clamp(extent.Width, lo.Width, hi.Width)
	extent.Height = math.Clamp(extent.Height, lo.Height, hi.Height)
	swapchain.Extent = extent

	imageCount := support.Capabilities.MinImageCount + 1
	if support.Capabilities.MaxImageCount > 0 && imageCount > support.Capabilities.MaxImageCount {
		imageCount = support.Capabilities.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		return nil, vulkanError("vkCreateSwapchainKHR", res)
	}
	swapchain.Handle = handle

	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &swapchain.ImageCount, nil); res != vk.Success {
		swapchain.SwapchainDestroy(context)
		return nil, vulkanError("vkGetSwapchainImagesKHR", res)
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		swapchain.SwapchainDestroy(context)
		return nil, vulkanError("vkGetSwapchainImagesKHR", res)
	}

	swapchain.Views = make([]vk.ImageView, 0, swapchain.ImageCount)
	for _, image := range swapchain.Images {
		view, err := createImageView(context, image, swapchain.ImageFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			swapchain.SwapchainDestroy(context)
			return nil, err
		}
		swapchain.Views = append(swapchain.Views, view)
	}

	if !DeviceDetectDepthFormat(context.Device) {
		context.Device.DepthFormat = vk.FormatUndefined
		swapchain.SwapchainDestroy(context)
		return nil, fmt.Errorf("failed to find a supported depth format")
	}

	depth, err := ImageCreate(
		context,
		extent.Width,
		extent.Height,
		context.Device.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	)
	if err != nil {
		swapchain.SwapchainDestroy(context)
		return nil, err
	}
	swapchain.DepthAttachment = depth

	core.LogInfo("Swapchain created: %d images, %dx%d.", swapchain.ImageCount, extent.Width, extent.Height)
	return swapchain, nil
}

// SwapchainAcquireNextImageIndex blocks until an image is available or
// timeoutNS elapses. A suboptimal swapchain still yields a usable image.
func (vs *VulkanSwapchain) SwapchainAcquireNextImageIndex(context *VulkanContext, timeoutNS uint64, imageAvailable vk.Semaphore) (uint32, error) {
	var imageIndex uint32
	res := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNS, imageAvailable, vk.NullFence, &imageIndex)
	return acquireResult(res, imageIndex, timeoutNS)
}

func acquireResult(res vk.Result, imageIndex uint32, timeoutNS uint64) (uint32, error) {
	switch res {
	case vk.Success, vk.Suboptimal:
		return imageIndex, nil
	case vk.Timeout, vk.NotReady:
		core.LogWarn("vkAcquireNextImageKHR - no image after %dns (%s)", timeoutNS, VulkanResultString(res, false))
		return 0, fmt.Errorf("no swapchain image after %dns: %w", timeoutNS, core.ErrGPUHung)
	case vk.ErrorOutOfDate:
		return 0, fmt.Errorf("swapchain is out of date and resizing is not supported: %w", vk.Error(res))
	default:
		return 0, vulkanError("vkAcquireNextImageKHR", res)
	}
}

func (vs *VulkanSwapchain) SwapchainPresent(context *VulkanContext, presentQueue vk.Queue, renderComplete vk.Semaphore, imageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}

	res := vk.QueuePresent(presentQueue, &presentInfo)
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		core.LogDebug("swapchain is suboptimal for the surface")
		return nil
	case vk.ErrorOutOfDate:
		return fmt.Errorf("swapchain is out of date and resizing is not supported: %w", vk.Error(res))
	default:
		return vulkanError("vkQueuePresentKHR", res)
	}
}

// SwapchainDestroy releases the views, the depth attachment and the
// swapchain. The images belong to the swapchain and go with it.
func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	if vs.DepthAttachment != nil {
		vs.DepthAttachment.ImageDestroy(context)
		vs.DepthAttachment = nil
	}
	for _, view := range vs.Views {
		vk.DestroyImageView(context.Device.LogicalDevice, view, context.Allocator)
	}
	vs.Views = nil
	vs.Images = nil
	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = vk.NullSwapchain
	}
}
