package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vulcan/engine/core"
	"github.com/spaghettifunk/vulcan/engine/renderer"
	"github.com/spaghettifunk/vulcan/engine/resources"
)

// Window is the part of the platform layer the backend needs.
type Window interface {
	RequiredInstanceExtensions() []string
	// CreateWindowSurface returns the raw VkSurfaceKHR for instance.
	CreateWindowSurface(instance interface{}) (uintptr, error)
	FramebufferSize() (width, height uint32)
}

type Options struct {
	ApplicationName string
	Validation      bool
	// AcquireTimeout bounds the wait for a presentable image.
	AcquireTimeout time.Duration
}

// VulkanBackend implements renderer.RendererBackend.
type VulkanBackend struct {
	options Options
	logger  *core.Logger
	context *VulkanContext
	layers  []string
}

var _ renderer.RendererBackend = (*VulkanBackend)(nil)

func New(options Options, logger *core.Logger) *VulkanBackend {
	return &VulkanBackend{
		options: options,
		logger:  logger,
		context: &VulkanContext{
			Allocator: nil,
			logger:    logger,
		},
	}
}

// CreateInstance loads Vulkan through GLFW and creates the instance and, with
// validation enabled, the debug report callback.
func (vb *VulkanBackend) CreateInstance(window Window) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "initializing Vulkan loader")
	}
	if vb.options.Validation {
		available, err := availableInstanceLayers()
		if err != nil {
			return err
		}
		vb.layers = filterLayers([]string{validationLayerName}, available, vb.logger)
	}
	return vb.createInstance(window.RequiredInstanceExtensions())
}

func (vb *VulkanBackend) CreateSurface(window Window) error {
	vb.logger.Debug("Creating Vulkan surface...")
	surface, err := window.CreateWindowSurface(vb.context.Instance)
	if err != nil {
		return errors.Wrap(err, "creating window surface")
	}
	if surface == 0 {
		return errors.New("platform returned a null surface")
	}
	vb.context.Surface = vk.SurfaceFromPointer(surface)
	vb.logger.Debug("Vulkan surface created.")
	return nil
}

// CreateDevice selects the physical device, creates the logical device with
// its queues and the swapchain sized after the window framebuffer.
func (vb *VulkanBackend) CreateDevice(window Window) error {
	if err := SelectPhysicalDevice(vb.context); err != nil {
		return err
	}
	if err := DeviceCreate(vb.context, vb.layers); err != nil {
		return err
	}
	width, height := window.FramebufferSize()
	swapchain, err := SwapchainCreate(vb.context, width, height)
	if err != nil {
		return errors.Wrap(err, "creating swapchain")
	}
	vb.context.Swapchain = swapchain
	return nil
}

func (vb *VulkanBackend) SwapchainFormat() renderer.Format {
	return renderer.Format(vb.context.Swapchain.ImageFormat.Format)
}

func (vb *VulkanBackend) SwapchainExtent() renderer.Extent {
	e := vb.context.Swapchain.Extent
	return renderer.Extent{Width: e.Width, Height: e.Height}
}

func (vb *VulkanBackend) SwapchainImageCount() int {
	return len(vb.context.Swapchain.Views)
}

// as converts a backend-neutral handle back to the Vulkan type.
//
// The Create methods below never return a typed nil pointer inside the
// interface, so callers can compare handles against nil.
func as[T any](handle interface{}, what string) (T, error) {
	v, ok := handle.(T)
	if !ok {
		var zero T
		return zero, errors.Newf("%s %T does not belong to the Vulkan backend", what, handle)
	}
	return v, nil
}

func (vb *VulkanBackend) CreateRenderPass(format renderer.Format) (renderer.RenderPass, error) {
	rp, err := NewRenderPass(vb.context, vk.Format(format))
	if err != nil {
		return nil, err
	}
	return rp, nil
}

func (vb *VulkanBackend) CreatePipelineLayout() (renderer.PipelineLayout, error) {
	layout, err := NewPipelineLayout(vb.context)
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func (vb *VulkanBackend) CreateGraphicsPipeline(config renderer.PipelineConfig) (renderer.Pipeline, error) {
	pass, err := as[*VulkanRenderPass](config.RenderPass, "render pass")
	if err != nil {
		return nil, err
	}
	layout, err := as[*VulkanPipelineLayout](config.Layout, "pipeline layout")
	if err != nil {
		return nil, err
	}
	stages := make([]*VulkanShaderStage, len(config.Stages))
	for i, s := range config.Stages {
		if stages[i], err = as[*VulkanShaderStage](s, "shader stage"); err != nil {
			return nil, err
		}
	}
	extent := vk.Extent2D{Width: config.Extent.Width, Height: config.Extent.Height}
	pipeline, err := NewGraphicsPipeline(vb.context, pass, layout, stages, extent)
	if err != nil {
		return nil, err
	}
	return pipeline, nil
}

func (vb *VulkanBackend) CreateFramebuffer(pass renderer.RenderPass, imageIndex int, extent renderer.Extent) (renderer.Framebuffer, error) {
	rp, err := as[*VulkanRenderPass](pass, "render pass")
	if err != nil {
		return nil, err
	}
	views := vb.context.Swapchain.Views
	if imageIndex < 0 || imageIndex >= len(views) {
		return nil, errors.Newf("swapchain image %d out of range (have %d)", imageIndex, len(views))
	}
	fb, err := FramebufferCreate(vb.context, rp, extent.Width, extent.Height, views[imageIndex])
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// CreateGraphicsCommandPool creates a pool on the graphics family.
func (vb *VulkanBackend) CreateGraphicsCommandPool() (renderer.CommandPool, error) {
	pool, err := NewCommandPool(vb.context, vb.context.Device.QueueFamilies.GraphicsFamilyIndex, 0)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (vb *VulkanBackend) CreateShaderStage(code []byte, stage renderer.ShaderStageType) (renderer.ShaderStage, error) {
	s, err := NewShaderStage(vb.context, code, stage)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (vb *VulkanBackend) CreateSemaphore() (renderer.Semaphore, error) {
	s, err := NewSemaphore(vb.context)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (vb *VulkanBackend) CreateFence(signaled bool) (renderer.Fence, error) {
	f, err := NewFence(vb.context, signaled)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (vb *VulkanBackend) WaitForFence(f renderer.Fence) error {
	fence, err := as[*VulkanFence](f, "fence")
	if err != nil {
		return err
	}
	return fence.Wait()
}

func (vb *VulkanBackend) ResetFence(f renderer.Fence) error {
	fence, err := as[*VulkanFence](f, "fence")
	if err != nil {
		return err
	}
	return fence.Reset()
}

// AcquireNextImage waits at most Options.AcquireTimeout. A suboptimal
// swapchain is still used since resizing is not supported.
func (vb *VulkanBackend) AcquireNextImage(signal renderer.Semaphore) (uint32, error) {
	semaphore, err := as[*VulkanSemaphore](signal, "semaphore")
	if err != nil {
		return 0, err
	}
	var imageIndex uint32
	res := vk.AcquireNextImage(
		vb.context.Device.LogicalDevice,
		vb.context.Swapchain.Handle,
		uint64(vb.options.AcquireTimeout.Nanoseconds()),
		semaphore.Handle,
		vk.NullFence,
		&imageIndex)
	switch res {
	case vk.Success, vk.Suboptimal:
		return imageIndex, nil
	case vk.Timeout, vk.NotReady:
		return 0, errors.Wrapf(core.ErrAcquireTimeout, "no image after %s", vb.options.AcquireTimeout)
	default:
		vb.logger.Critical("Failed to acquire swapchain image: %s", VulkanResultString(res))
		return 0, resultError(res, "vkAcquireNextImageKHR")
	}
}

func (vb *VulkanBackend) SubmitGraphics(cb renderer.CommandBuffer, wait, signal renderer.Semaphore, f renderer.Fence) error {
	commandBuffer, err := as[*VulkanCommandBuffer](cb, "command buffer")
	if err != nil {
		return err
	}
	waitSemaphore, err := as[*VulkanSemaphore](wait, "semaphore")
	if err != nil {
		return err
	}
	signalSemaphore, err := as[*VulkanSemaphore](signal, "semaphore")
	if err != nil {
		return err
	}
	fence, err := as[*VulkanFence](f, "fence")
	if err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{waitSemaphore.Handle},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signalSemaphore.Handle},
	}
	if res := vk.QueueSubmit(vb.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle); res != vk.Success {
		vb.logger.Critical("Failed to submit draw command buffer: %s", VulkanResultString(res))
		return resultError(res, "vkQueueSubmit")
	}
	commandBuffer.State = COMMAND_BUFFER_STATE_SUBMITTED
	return nil
}

func (vb *VulkanBackend) Present(wait renderer.Semaphore, imageIndex uint32) error {
	semaphore, err := as[*VulkanSemaphore](wait, "semaphore")
	if err != nil {
		return err
	}
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{semaphore.Handle},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vb.context.Swapchain.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	switch res := vk.QueuePresent(vb.context.Device.PresentQueue, &presentInfo); res {
	case vk.Success, vk.Suboptimal:
		return nil
	default:
		vb.logger.Critical("Failed to present swapchain image %d: %s", imageIndex, VulkanResultString(res))
		return resultError(res, "vkQueuePresentKHR")
	}
}

func (vb *VulkanBackend) UploadMesh(vertices []resources.Vertex, indices []uint32) (renderer.Buffer, error) {
	buffer, err := uploadMesh(vb.context, vertices, indices)
	if err != nil {
		return nil, err
	}
	vb.logger.Debug("Uploaded %d vertices and %d indices (%d bytes).", len(vertices), len(indices), buffer.Size())
	return buffer, nil
}

func (vb *VulkanBackend) WaitIdle() error {
	if vb.context.Device == nil || vb.context.Device.LogicalDevice == nil {
		return nil
	}
	return resultError(vk.DeviceWaitIdle(vb.context.Device.LogicalDevice), "vkDeviceWaitIdle")
}

// Shutdown destroys the transfer pool, image views, swapchain and device, then
// the surface, debug callback and instance. Safe after a partial setup.
func (vb *VulkanBackend) Shutdown() error {
	ctx := vb.context
	if ctx.Device != nil {
		ctx.destroyTransferPool()
		if ctx.Swapchain != nil {
			vb.logger.Info("Destroying swapchain...")
			ctx.Swapchain.destroy(ctx)
			ctx.Swapchain = nil
		}
		DeviceDestroy(ctx)
	}
	if ctx.Surface != vk.NullSurface {
		vb.logger.Debug("Destroying Vulkan surface...")
		vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
		ctx.Surface = vk.NullSurface
	}
	vb.destroyInstance()
	vb.logger.Info("Vulkan renderer shut down.")
	return nil
}
