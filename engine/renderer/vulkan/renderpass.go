package vulkan

import (
	vk "github.com/goki/vulkan"
)

type VulkanRenderPass struct {
	ctx    *VulkanContext
	Handle vk.RenderPass
}

func (rp *VulkanRenderPass) Destroy() {
	if rp.Handle != nil {
		vk.DestroyRenderPass(rp.ctx.Device.LogicalDevice, rp.Handle, rp.ctx.Allocator)
		rp.Handle = nil
	}
}

// renderPassCreateInfo describes a single color attachment cleared on load
// and handed to presentation, one subpass and the external dependency that
// waits for the acquired image.
func renderPassCreateInfo(format vk.Format) vk.RenderPassCreateInfo {
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
		FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
	}

	colorAttachmentReference := []vk.AttachmentReference{{
		Attachment: 0, // Attachment description array index
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
}

func NewRenderPass(ctx *VulkanContext, format vk.Format) (*VulkanRenderPass, error) {
	createInfo := renderPassCreateInfo(format)
	var handle vk.RenderPass
	if res := vk.CreateRenderPass(ctx.Device.LogicalDevice, &createInfo, ctx.Allocator, &handle); res != vk.Success {
		return nil, resultError(res, "vkCreateRenderPass")
	}
	ctx.logger.Debug("Render pass created.")
	return &VulkanRenderPass{ctx: ctx, Handle: handle}, nil
}
