package vulkan

import (
	"slices"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/resources"
)

const (
	stagingBufferUsage = vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit | vk.BufferUsageVertexBufferBit | vk.BufferUsageIndexBufferBit)
	meshBufferUsage    = vk.BufferUsageFlags(vk.BufferUsageTransferDstBit | vk.BufferUsageVertexBufferBit | vk.BufferUsageIndexBufferBit)

	stagingMemoryFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	meshMemoryFlags    = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
)

type VulkanBuffer struct {
	ctx    *VulkanContext
	Handle vk.Buffer
	Memory vk.DeviceMemory
	size   uint64
}

func (b *VulkanBuffer) Size() uint64 {
	return b.size
}

// Destroy frees the buffer and its memory.
func (b *VulkanBuffer) Destroy() {
	device := b.ctx.Device.LogicalDevice
	if b.Handle != nil {
		vk.DestroyBuffer(device, b.Handle, b.ctx.Allocator)
		b.Handle = nil
	}
	if b.Memory != nil {
		vk.FreeMemory(device, b.Memory, b.ctx.Allocator)
		b.Memory = nil
	}
}

// bufferCreateInfo shares the buffer concurrently when more than one distinct
// queue family touches it, exclusively otherwise.
func bufferCreateInfo(size uint64, usage vk.BufferUsageFlags, families ...uint32) vk.BufferCreateInfo {
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var unique []uint32
	for _, f := range families {
		if !slices.Contains(unique, f) {
			unique = append(unique, f)
		}
	}
	if len(unique) > 1 {
		info.SharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = uint32(len(unique))
		info.PQueueFamilyIndices = unique
	}
	return info
}

// createBuffer creates a buffer of size bytes backed by memory carrying the
// requested property flags. families lists the queue families using it.
func createBuffer(ctx *VulkanContext, size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags, families ...uint32) (*VulkanBuffer, error) {
	device := ctx.Device.LogicalDevice
	buffer := &VulkanBuffer{ctx: ctx, size: size}

	createInfo := bufferCreateInfo(size, usage, families...)
	if res := vk.CreateBuffer(device, &createInfo, ctx.Allocator, &buffer.Handle); res != vk.Success {
		return nil, resultError(res, "vkCreateBuffer")
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer.Handle, &requirements)
	requirements.Deref()

	memoryIndex, err := ctx.FindMemoryIndex(requirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy()
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	if res := vk.AllocateMemory(device, &allocateInfo, ctx.Allocator, &buffer.Memory); res != vk.Success {
		buffer.Destroy()
		return nil, resultError(res, "vkAllocateMemory")
	}
	if res := vk.BindBufferMemory(device, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		buffer.Destroy()
		return nil, resultError(res, "vkBindBufferMemory")
	}
	return buffer, nil
}

// meshBytes packs vertex bytes followed by index bytes.
func meshBytes(vertices []resources.Vertex, indices []uint32) []byte {
	data := make([]byte, 0, resources.MeshByteSize(len(vertices), len(indices)))
	data = append(data, resources.VertexBytes(vertices)...)
	return append(data, resources.IndexBytes(indices)...)
}

// uploadMesh copies the mesh into a staging buffer, then into a device-local
// buffer through a one-shot transfer command.
func uploadMesh(ctx *VulkanContext, vertices []resources.Vertex, indices []uint32) (*VulkanBuffer, error) {
	data := meshBytes(vertices, indices)
	size := uint64(len(data))
	if size == 0 {
		return nil, errors.New("cannot upload an empty mesh")
	}
	device := ctx.Device.LogicalDevice

	staging, err := createBuffer(ctx, size, stagingBufferUsage, stagingMemoryFlags)
	if err != nil {
		return nil, errors.Wrap(err, "creating staging buffer")
	}
	defer staging.Destroy()

	var mapped unsafe.Pointer
	if res := vk.MapMemory(device, staging.Memory, 0, vk.DeviceSize(size), 0, &mapped); res != vk.Success {
		return nil, resultError(res, "vkMapMemory")
	}
	n := vk.Memcopy(mapped, data)
	vk.UnmapMemory(device, staging.Memory)
	if n != len(data) {
		return nil, errors.Newf("copied %d of %d mesh bytes", n, len(data))
	}

	// Filled on the transfer queue, read on the graphics queue.
	queues := ctx.Device.QueueFamilies
	target, err := createBuffer(ctx, size, meshBufferUsage, meshMemoryFlags, queues.GraphicsFamilyIndex, queues.TransferFamilyIndex)
	if err != nil {
		return nil, errors.Wrap(err, "creating device-local buffer")
	}

	cb, err := AllocateAndBeginSingleUse(ctx, ctx.TransferCommandPool)
	if err != nil {
		target.Destroy()
		return nil, err
	}
	copyRegion := []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}}
	vk.CmdCopyBuffer(cb.Handle, staging.Handle, target.Handle, 1, copyRegion)
	if err := cb.EndSingleUse(ctx, ctx.TransferCommandPool, ctx.Device.TransferQueue); err != nil {
		target.Destroy()
		return nil, errors.Wrap(err, "copying mesh to device-local buffer")
	}
	return target, nil
}
