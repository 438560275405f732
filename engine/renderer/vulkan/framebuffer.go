package vulkan

import (
	vk "github.com/goki/vulkan"
)

type VulkanFramebuffer struct {
	ctx        *VulkanContext
	Handle     vk.Framebuffer
	Attachment vk.ImageView
}

func FramebufferCreate(ctx *VulkanContext, renderpass *VulkanRenderPass, width, height uint32, attachment vk.ImageView) (*VulkanFramebuffer, error) {
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{attachment},
		Width:           width,
		Height:          height,
		Layers:          1,
	}
	var handle vk.Framebuffer
	if res := vk.CreateFramebuffer(ctx.Device.LogicalDevice, &createInfo, ctx.Allocator, &handle); res != vk.Success {
		return nil, resultError(res, "vkCreateFramebuffer")
	}
	return &VulkanFramebuffer{ctx: ctx, Handle: handle, Attachment: attachment}, nil
}

// Destroy leaves the attachment alone; image views belong to the swapchain.
func (vfb *VulkanFramebuffer) Destroy() {
	if vfb.Handle != nil {
		vk.DestroyFramebuffer(vfb.ctx.Device.LogicalDevice, vfb.Handle, vfb.ctx.Allocator)
		vfb.Handle = nil
	}
	vfb.Attachment = nil
}
