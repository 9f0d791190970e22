package vulkan

import (
	vk "github.com/goki/vulkan"
)

type VulkanFramebuffer struct {
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
	Renderpass  *VulkanRenderpass
}

func FramebufferCreate(context *VulkanContext, renderpass *VulkanRenderpass, width, height uint32, attachments []vk.ImageView) (*VulkanFramebuffer, error) {
	framebuffer := &VulkanFramebuffer{
		Attachments: append([]vk.ImageView(nil), attachments...),
		Renderpass:  renderpass,
	}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: uint32(len(framebuffer.Attachments)),
		PAttachments:    framebuffer.Attachments,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &createInfo, context.Allocator, &framebuffer.Handle); res != vk.Success {
		return nil, vulkanError("vkCreateFramebuffer", res)
	}
	return framebuffer, nil
}

// FramebuffersCreate builds one framebuffer per swapchain image, each pairing
// the image view with the shared depth attachment.
func FramebuffersCreate(context *VulkanContext) error {
	swapchain := context.Swapchain
	swapchain.Framebuffers = make([]*VulkanFramebuffer, 0, len(swapchain.Views))
	for _, view := range swapchain.Views {
		attachments := []vk.ImageView{view, swapchain.DepthAttachment.View}
		framebuffer, err := FramebufferCreate(context, context.MainRenderpass, swapchain.Extent.Width, swapchain.Extent.Height, attachments)
		if err != nil {
			FramebuffersDestroy(context)
			return err
		}
		swapchain.Framebuffers = append(swapchain.Framebuffers, framebuffer)
	}
	return nil
}

func FramebuffersDestroy(context *VulkanContext) {
	for _, framebuffer := range context.Swapchain.Framebuffers {
		framebuffer.Destroy(context)
	}
	context.Swapchain.Framebuffers = nil
}

func (vfb *VulkanFramebuffer) Destroy(context *VulkanContext) {
	if vfb.Handle != vk.NullFramebuffer {
		vk.DestroyFramebuffer(context.Device.LogicalDevice, vfb.Handle, context.Allocator)
		vfb.Handle = vk.NullFramebuffer
	}
	vfb.Attachments = nil
	vfb.Renderpass = nil
}
