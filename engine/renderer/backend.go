package renderer

import "github.com/spaghettifunk/vulcan/engine/resources"

// Format is a backend pixel format value, opaque to this package.
type Format uint32

type Extent struct {
	Width  uint32
	Height uint32
}

type ShaderStageType uint8

const (
	ShaderStageVertex ShaderStageType = iota
	ShaderStageFragment
)

func (s ShaderStageType) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Destroyer is implemented by every backend object. Destroy must be called
// at most once, after the device has stopped using the object.
type Destroyer interface {
	Destroy()
}

type Semaphore interface{ Destroyer }

type Fence interface{ Destroyer }

type RenderPass interface{ Destroyer }

type PipelineLayout interface{ Destroyer }

type Pipeline interface{ Destroyer }

type Framebuffer interface{ Destroyer }

// Buffer is device memory holding vertex bytes followed by index bytes.
type Buffer interface {
	Destroyer
	Size() uint64
}

type ShaderStage interface {
	Destroyer
	Stage() ShaderStageType
}

type CommandPool interface {
	Destroyer
	Allocate(count int) ([]CommandBuffer, error)
	Free(buffers []CommandBuffer)
}

// CommandBuffer records graphics commands.
type CommandBuffer interface {
	// Begin starts recording. simultaneousUse allows resubmission while a
	// previous submission is still pending.
	Begin(simultaneousUse bool) error
	BeginRenderPass(pass RenderPass, fb Framebuffer, area Extent, clearColor [4]float32) error
	BindPipeline(p Pipeline) error
	BindVertexBuffer(b Buffer, offset uint64) error
	// BindIndexBuffer binds 32-bit indices starting at offset.
	BindIndexBuffer(b Buffer, offset uint64) error
	DrawIndexed(indexCount uint32)
	EndRenderPass()
	End() error
}

// PipelineConfig describes the single fixed-function graphics pipeline.
type PipelineConfig struct {
	RenderPass RenderPass
	Layout     PipelineLayout
	Stages     []ShaderStage
	Extent     Extent
}

// RendererBackend is the device capability set the renderer is written
// against. The Vulkan backend is the production implementation.
type RendererBackend interface {
	SwapchainFormat() Format
	SwapchainExtent() Extent
	SwapchainImageCount() int

	CreateRenderPass(format Format) (RenderPass, error)
	CreatePipelineLayout() (PipelineLayout, error)
	CreateGraphicsPipeline(config PipelineConfig) (Pipeline, error)
	// CreateFramebuffer binds the view of swapchain image imageIndex.
	CreateFramebuffer(pass RenderPass, imageIndex int, extent Extent) (Framebuffer, error)
	CreateGraphicsCommandPool() (CommandPool, error)
	CreateShaderStage(code []byte, stage ShaderStageType) (ShaderStage, error)

	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)
	// WaitForFence blocks until the fence is signaled.
	WaitForFence(f Fence) error
	ResetFence(f Fence) error
	// AcquireNextImage returns the index of the next presentable image and
	// signals the semaphore once it is ready.
	AcquireNextImage(signal Semaphore) (uint32, error)
	SubmitGraphics(cb CommandBuffer, wait, signal Semaphore, fence Fence) error
	Present(wait Semaphore, imageIndex uint32) error

	// UploadMesh stores vertices then indices in one device-local buffer.
	UploadMesh(vertices []resources.Vertex, indices []uint32) (Buffer, error)
	WaitIdle() error
	Shutdown() error
}
