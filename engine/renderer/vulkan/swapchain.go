package vulkan

import (
	"math"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/core"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

var preferredSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatA8b8g8r8UnormPack32,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// selectSurfaceFormat returns the preferred format when offered. A single
// undefined entry means the surface has no preference.
func selectSurfaceFormat(formats []vk.SurfaceFormat, logger *core.Logger) vk.SurfaceFormat {
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return preferredSurfaceFormat
	}
	for _, f := range formats {
		if f.Format == preferredSurfaceFormat.Format && f.ColorSpace == preferredSurfaceFormat.ColorSpace {
			return f
		}
	}
	logger.Warn("Preferred surface format not available, using format %d", formats[0].Format)
	return formats[0]
}

// selectPresentMode prefers mailbox, then immediate. FIFO is always there.
func selectPresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, preferred := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, m := range modes {
			if m == preferred {
				return m
			}
		}
	}
	return vk.PresentModeFifo
}

// selectExtent uses the surface's fixed extent, or clamps the framebuffer
// size into the allowed range when the surface lets us choose.
func selectExtent(caps vk.SurfaceCapabilities, framebufferWidth, framebufferHeight uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  MathClamp(framebufferWidth, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: MathClamp(framebufferHeight, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// selectImageCount asks for one image above the minimum. A max of zero means
// no limit.
func selectImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func SwapchainCreate(ctx *VulkanContext, framebufferWidth, framebufferHeight uint32) (*VulkanSwapchain, error) {
	support := ctx.Device.SwapchainSupport
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return nil, core.ErrSwapchainUnsupported
	}

	swapchain := &VulkanSwapchain{
		ImageFormat: selectSurfaceFormat(support.Formats, ctx.logger),
		PresentMode: selectPresentMode(support.PresentModes),
		Extent:      selectExtent(support.Capabilities, framebufferWidth, framebufferHeight),
	}
	imageCount := selectImageCount(support.Capabilities)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
	}

	queues := ctx.Device.QueueFamilies
	if queues.GraphicsFamilyIndex != queues.PresentFamilyIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{queues.GraphicsFamilyIndex, queues.PresentFamilyIndex}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	device := ctx.Device.LogicalDevice
	if res := vk.CreateSwapchain(device, &swapchainCreateInfo, ctx.Allocator, &swapchain.Handle); res != vk.Success {
		return nil, resultError(res, "vkCreateSwapchainKHR")
	}

	if res := vk.GetSwapchainImages(device, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		swapchain.destroy(ctx)
		return nil, resultError(res, "vkGetSwapchainImagesKHR")
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(device, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		swapchain.destroy(ctx)
		return nil, resultError(res, "vkGetSwapchainImagesKHR")
	}

	swapchain.Views = make([]vk.ImageView, 0, swapchain.ImageCount)
	for i := range swapchain.Images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		var view vk.ImageView
		if res := vk.CreateImageView(device, &viewInfo, ctx.Allocator, &view); res != vk.Success {
			swapchain.destroy(ctx)
			return nil, errors.Wrapf(resultError(res, "vkCreateImageView"), "swapchain image %d", i)
		}
		swapchain.Views = append(swapchain.Views, view)
	}

	ctx.logger.Info("Swapchain created: %d images, format %d, color space %d, present mode %d, %dx%d",
		swapchain.ImageCount,
		swapchain.ImageFormat.Format,
		swapchain.ImageFormat.ColorSpace,
		swapchain.PresentMode,
		swapchain.Extent.Width,
		swapchain.Extent.Height)
	return swapchain, nil
}

// destroy releases the views then the swapchain. The images belong to the
// swapchain and go with it.
func (vs *VulkanSwapchain) destroy(ctx *VulkanContext) {
	device := ctx.Device.LogicalDevice
	for _, view := range vs.Views {
		vk.DestroyImageView(device, view, ctx.Allocator)
	}
	vs.Views = nil
	if vs.Handle != nil {
		vk.DestroySwapchain(device, vs.Handle, ctx.Allocator)
		vs.Handle = nil
	}
	vs.Images = nil
}
