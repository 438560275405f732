package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/renderer"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

type VulkanCommandPool struct {
	ctx    *VulkanContext
	Handle vk.CommandPool
}

func NewCommandPool(ctx *VulkanContext, queueFamily uint32, flags vk.CommandPoolCreateFlagBits) (*VulkanCommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamily,
		Flags:            vk.CommandPoolCreateFlags(flags),
	}
	var handle vk.CommandPool
	if res := vk.CreateCommandPool(ctx.Device.LogicalDevice, &poolCreateInfo, ctx.Allocator, &handle); res != vk.Success {
		return nil, resultError(res, "vkCreateCommandPool")
	}
	return &VulkanCommandPool{ctx: ctx, Handle: handle}, nil
}

func (p *VulkanCommandPool) Destroy() {
	if p.Handle != nil {
		vk.DestroyCommandPool(p.ctx.Device.LogicalDevice, p.Handle, p.ctx.Allocator)
		p.Handle = nil
	}
}

// Allocate returns count primary command buffers.
func (p *VulkanCommandPool) Allocate(count int) ([]renderer.CommandBuffer, error) {
	handles, err := allocateCommandBuffers(p.ctx.Device.LogicalDevice, p.Handle, count)
	if err != nil {
		p.ctx.logger.Critical("Failed to allocate %d command buffers: %s", count, err)
		return nil, err
	}
	buffers := make([]renderer.CommandBuffer, count)
	for i, h := range handles {
		buffers[i] = &VulkanCommandBuffer{Handle: h, State: COMMAND_BUFFER_STATE_READY}
	}
	return buffers, nil
}

func (p *VulkanCommandPool) Free(buffers []renderer.CommandBuffer) {
	handles := make([]vk.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		cb, err := as[*VulkanCommandBuffer](b, "command buffer")
		if err != nil {
			p.ctx.logger.Warn("Skipping free: %s", err)
			continue
		}
		if cb.Handle != nil {
			handles = append(handles, cb.Handle)
		}
		cb.Handle = nil
		cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	if len(handles) > 0 {
		vk.FreeCommandBuffers(p.ctx.Device.LogicalDevice, p.Handle, uint32(len(handles)), handles)
	}
}

func allocateCommandBuffers(device vk.Device, pool vk.CommandPool, count int) ([]vk.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}
	handles := make([]vk.CommandBuffer, count)
	if res := vk.AllocateCommandBuffers(device, &allocateInfo, handles); res != vk.Success {
		return nil, resultError(res, "vkAllocateCommandBuffers")
	}
	return handles, nil
}

func (v *VulkanCommandBuffer) Begin(simultaneousUse bool) error {
	return v.begin(false, simultaneousUse)
}

func (v *VulkanCommandBuffer) begin(singleUse, simultaneousUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if singleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if simultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}
	if res := vk.BeginCommandBuffer(v.Handle, &beginInfo); res != vk.Success {
		return resultError(res, "vkBeginCommandBuffer")
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) BeginRenderPass(pass renderer.RenderPass, fb renderer.Framebuffer, area renderer.Extent, clearColor [4]float32) error {
	rp, ok := pass.(*VulkanRenderPass)
	if !ok {
		return errors.Newf("render pass %T does not belong to the Vulkan backend", pass)
	}
	framebuffer, ok := fb.(*VulkanFramebuffer)
	if !ok {
		return errors.Newf("framebuffer %T does not belong to the Vulkan backend", fb)
	}
	clearValue := vk.NewClearValue(clearColor[:])
	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.Handle,
		Framebuffer: framebuffer.Handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: area.Width, Height: area.Height},
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{clearValue},
	}
	vk.CmdBeginRenderPass(v.Handle, &renderPassInfo, vk.SubpassContentsInline)
	v.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
	return nil
}

func (v *VulkanCommandBuffer) BindPipeline(p renderer.Pipeline) error {
	pipeline, ok := p.(*VulkanPipeline)
	if !ok {
		return errors.Newf("pipeline %T does not belong to the Vulkan backend", p)
	}
	vk.CmdBindPipeline(v.Handle, vk.PipelineBindPointGraphics, pipeline.Handle)
	return nil
}

func (v *VulkanCommandBuffer) BindVertexBuffer(b renderer.Buffer, offset uint64) error {
	buffer, ok := b.(*VulkanBuffer)
	if !ok {
		return errors.Newf("buffer %T does not belong to the Vulkan backend", b)
	}
	vk.CmdBindVertexBuffers(v.Handle, 0, 1, []vk.Buffer{buffer.Handle}, []vk.DeviceSize{vk.DeviceSize(offset)})
	return nil
}

func (v *VulkanCommandBuffer) BindIndexBuffer(b renderer.Buffer, offset uint64) error {
	buffer, ok := b.(*VulkanBuffer)
	if !ok {
		return errors.Newf("buffer %T does not belong to the Vulkan backend", b)
	}
	vk.CmdBindIndexBuffer(v.Handle, buffer.Handle, vk.DeviceSize(offset), vk.IndexTypeUint32)
	return nil
}

func (v *VulkanCommandBuffer) DrawIndexed(indexCount uint32) {
	vk.CmdDrawIndexed(v.Handle, indexCount, 1, 0, 0, 0)
}

func (v *VulkanCommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(v.Handle)
	v.State = COMMAND_BUFFER_STATE_RECORDING
}

func (v *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return resultError(res, "vkEndCommandBuffer")
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

// AllocateAndBeginSingleUse allocates a one-shot command buffer from pool and
// starts recording.
func AllocateAndBeginSingleUse(ctx *VulkanContext, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	handles, err := allocateCommandBuffers(ctx.Device.LogicalDevice, pool, 1)
	if err != nil {
		return nil, err
	}
	cb := &VulkanCommandBuffer{Handle: handles[0], State: COMMAND_BUFFER_STATE_READY}
	if err := cb.begin(true, false); err != nil {
		vk.FreeCommandBuffers(ctx.Device.LogicalDevice, pool, 1, handles)
		return nil, err
	}
	return cb, nil
}

// EndSingleUse ends recording, submits to queue, waits for it to go idle and
// frees the command buffer.
func (v *VulkanCommandBuffer) EndSingleUse(ctx *VulkanContext, pool vk.CommandPool, queue vk.Queue) error {
	defer func() {
		vk.FreeCommandBuffers(ctx.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{v.Handle})
		v.Handle = nil
		v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}()

	if err := v.End(); err != nil {
		return err
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}
	if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		return resultError(res, "vkQueueSubmit")
	}
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
	if res := vk.QueueWaitIdle(queue); res != vk.Success {
		return resultError(res, "vkQueueWaitIdle")
	}
	return nil
}
