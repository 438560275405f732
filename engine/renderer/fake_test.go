package renderer

import (
	"fmt"

	"github.com/spaghettifunk/vulcan/engine/resources"
)

// fakeBackend records every call so tests can assert the command sequence.
type fakeBackend struct {
	imageCount int
	calls      []string

	nextImage   uint32
	acquireErr  error
	submitErr   error
	uploadErr   error
	pipelineErr error

	submitted []*fakeCommandBuffer
	presented []uint32
	uploads   []uint64
	destroyed int
	nextID    int
}

func newFakeBackend(imageCount int) *fakeBackend {
	return &fakeBackend{imageCount: imageCount}
}

func (b *fakeBackend) log(format string, args ...interface{}) {
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
}

type fakeObject struct {
	b    *fakeBackend
	kind string
	id   int
	size uint64
}

func (o *fakeObject) Destroy() {
	o.b.destroyed++
	o.b.log("destroy %s %d", o.kind, o.id)
}

func (o *fakeObject) Size() uint64 { return o.size }

func (o *fakeObject) Stage() ShaderStageType { return ShaderStageVertex }

func (b *fakeBackend) object(kind string) *fakeObject {
	b.nextID++
	return &fakeObject{b: b, kind: kind, id: b.nextID}
}

type fakeCommandBuffer struct {
	index int
	cmds  []string
	draws []uint32
}

func (c *fakeCommandBuffer) Begin(simultaneousUse bool) error {
	c.cmds = append(c.cmds, fmt.Sprintf("begin %v", simultaneousUse))
	return nil
}

func (c *fakeCommandBuffer) BeginRenderPass(RenderPass, Framebuffer, Extent, [4]float32) error {
	c.cmds = append(c.cmds, "begin pass")
	return nil
}

func (c *fakeCommandBuffer) BindPipeline(Pipeline) error {
	c.cmds = append(c.cmds, "bind pipeline")
	return nil
}

func (c *fakeCommandBuffer) BindVertexBuffer(_ Buffer, offset uint64) error {
	c.cmds = append(c.cmds, fmt.Sprintf("bind vertex %d", offset))
	return nil
}

func (c *fakeCommandBuffer) BindIndexBuffer(_ Buffer, offset uint64) error {
	c.cmds = append(c.cmds, fmt.Sprintf("bind index %d", offset))
	return nil
}

func (c *fakeCommandBuffer) DrawIndexed(indexCount uint32) {
	c.draws = append(c.draws, indexCount)
	c.cmds = append(c.cmds, fmt.Sprintf("draw %d", indexCount))
}

func (c *fakeCommandBuffer) EndRenderPass() {
	c.cmds = append(c.cmds, "end pass")
}

func (c *fakeCommandBuffer) End() error {
	c.cmds = append(c.cmds, "end")
	return nil
}

type fakePool struct {
	*fakeObject
	freed int
}

func (p *fakePool) Allocate(count int) ([]CommandBuffer, error) {
	out := make([]CommandBuffer, count)
	for i := range out {
		out[i] = &fakeCommandBuffer{index: i}
	}
	return out, nil
}

func (p *fakePool) Free(buffers []CommandBuffer) {
	p.freed += len(buffers)
}

func (b *fakeBackend) SwapchainFormat() Format  { return 37 }
func (b *fakeBackend) SwapchainExtent() Extent  { return Extent{Width: 1280, Height: 720} }
func (b *fakeBackend) SwapchainImageCount() int { return b.imageCount }

func (b *fakeBackend) CreateRenderPass(Format) (RenderPass, error) {
	return b.object("renderpass"), nil
}

func (b *fakeBackend) CreatePipelineLayout() (PipelineLayout, error) {
	return b.object("layout"), nil
}

func (b *fakeBackend) CreateGraphicsPipeline(PipelineConfig) (Pipeline, error) {
	if b.pipelineErr != nil {
		return nil, b.pipelineErr
	}
	return b.object("pipeline"), nil
}

func (b *fakeBackend) CreateFramebuffer(_ RenderPass, imageIndex int, _ Extent) (Framebuffer, error) {
	return b.object(fmt.Sprintf("framebuffer%d", imageIndex)), nil
}

func (b *fakeBackend) CreateGraphicsCommandPool() (CommandPool, error) {
	return &fakePool{fakeObject: b.object("pool")}, nil
}

func (b *fakeBackend) CreateShaderStage([]byte, ShaderStageType) (ShaderStage, error) {
	return b.object("stage"), nil
}

func (b *fakeBackend) CreateSemaphore() (Semaphore, error) {
	return b.object("semaphore"), nil
}

func (b *fakeBackend) CreateFence(bool) (Fence, error) {
	return b.object("fence"), nil
}

func (b *fakeBackend) WaitForFence(f Fence) error {
	b.log("wait %d", f.(*fakeObject).id)
	return nil
}

func (b *fakeBackend) ResetFence(f Fence) error {
	b.log("reset %d", f.(*fakeObject).id)
	return nil
}

func (b *fakeBackend) AcquireNextImage(Semaphore) (uint32, error) {
	if b.acquireErr != nil {
		return 0, b.acquireErr
	}
	idx := b.nextImage
	b.log("acquire %d", idx)
	b.nextImage = (b.nextImage + 1) % uint32(b.imageCount)
	return idx, nil
}

func (b *fakeBackend) SubmitGraphics(cb CommandBuffer, _, _ Semaphore, f Fence) error {
	if b.submitErr != nil {
		return b.submitErr
	}
	fcb := cb.(*fakeCommandBuffer)
	b.submitted = append(b.submitted, fcb)
	b.log("submit %d fence %d", fcb.index, f.(*fakeObject).id)
	return nil
}

func (b *fakeBackend) Present(_ Semaphore, imageIndex uint32) error {
	b.presented = append(b.presented, imageIndex)
	b.log("present %d", imageIndex)
	return nil
}

func (b *fakeBackend) UploadMesh(vertices []resources.Vertex, indices []uint32) (Buffer, error) {
	if b.uploadErr != nil {
		return nil, b.uploadErr
	}
	size := resources.MeshByteSize(len(vertices), len(indices))
	b.uploads = append(b.uploads, size)
	o := b.object("buffer")
	o.size = size
	return o, nil
}

func (b *fakeBackend) WaitIdle() error {
	b.log("wait idle")
	return nil
}

func (b *fakeBackend) Shutdown() error {
	b.log("shutdown")
	return nil
}
