package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
)

type VulkanFence struct {
	ctx    *VulkanContext
	Handle vk.Fence
}

func NewFence(ctx *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	// Make sure to signal the fence if required.
	if createSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(ctx.Device.LogicalDevice, &fenceCreateInfo, ctx.Allocator, &handle); res != vk.Success {
		ctx.logger.Critical("Failed to create fence: %s", VulkanResultString(res))
		return nil, resultError(res, "vkCreateFence")
	}
	return &VulkanFence{ctx: ctx, Handle: handle}, nil
}

func (vf *VulkanFence) Destroy() {
	if vf.Handle != nil {
		vk.DestroyFence(vf.ctx.Device.LogicalDevice, vf.Handle, vf.ctx.Allocator)
		vf.Handle = nil
	}
}

// Wait blocks without a timeout until the fence is signaled.
func (vf *VulkanFence) Wait() error {
	res := vk.WaitForFences(vf.ctx.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, math.MaxUint64)
	switch res {
	case vk.Success:
		return nil
	case vk.ErrorDeviceLost:
		vf.ctx.logger.Critical("vkWaitForFences - VK_ERROR_DEVICE_LOST.")
	default:
		vf.ctx.logger.Critical("vkWaitForFences - %s.", VulkanResultString(res))
	}
	return resultError(res, "vkWaitForFences")
}

func (vf *VulkanFence) Reset() error {
	if res := vk.ResetFences(vf.ctx.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
		vf.ctx.logger.Critical("Failed to reset fence: %s", VulkanResultString(res))
		return resultError(res, "vkResetFences")
	}
	return nil
}

type VulkanSemaphore struct {
	ctx    *VulkanContext
	Handle vk.Semaphore
}

func NewSemaphore(ctx *VulkanContext) (*VulkanSemaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var handle vk.Semaphore
	if res := vk.CreateSemaphore(ctx.Device.LogicalDevice, &semaphoreCreateInfo, ctx.Allocator, &handle); res != vk.Success {
		ctx.logger.Critical("Failed to create semaphore: %s", VulkanResultString(res))
		return nil, resultError(res, "vkCreateSemaphore")
	}
	return &VulkanSemaphore{ctx: ctx, Handle: handle}, nil
}

func (vs *VulkanSemaphore) Destroy() {
	if vs.Handle != nil {
		vk.DestroySemaphore(vs.ctx.Device.LogicalDevice, vs.Handle, vs.ctx.Allocator)
		vs.Handle = nil
	}
}
