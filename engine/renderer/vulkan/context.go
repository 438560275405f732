package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/core"
)

type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	// Only set when validation is enabled.
	debugCallback vk.DebugReportCallback

	Device    *VulkanDevice
	Swapchain *VulkanSwapchain

	// One-shot upload command buffers are allocated here.
	TransferCommandPool vk.CommandPool

	logger *core.Logger
}

// FindMemoryIndex returns the first memory type of the selected device that
// is allowed by typeFilter and carries every bit of propertyFlags.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	memory := vc.Device.Memory
	flags := make([]vk.MemoryPropertyFlags, memory.MemoryTypeCount)
	for i := range flags {
		memory.MemoryTypes[i].Deref()
		flags[i] = memory.MemoryTypes[i].PropertyFlags
	}
	index, err := findMemoryType(flags, typeFilter, propertyFlags)
	if err != nil {
		vc.logger.Critical("Unable to find suitable memory type (filter %#x, flags %#x)", typeFilter, uint32(propertyFlags))
		return 0, err
	}
	return index, nil
}

func findMemoryType(typeFlags []vk.MemoryPropertyFlags, typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	for i, flags := range typeFlags {
		// Check each memory type to see if its bit is set to 1.
		if typeFilter&(1<<uint32(i)) != 0 && flags&propertyFlags == propertyFlags {
			return uint32(i), nil
		}
	}
	return 0, core.ErrMemoryTypeNotFound
}
