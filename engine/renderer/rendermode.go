package renderer

import "github.com/cockroachdb/errors"

// RenderMode bundles everything needed to replay the recorded scene.
type RenderMode struct {
	RenderPass     RenderPass
	Layout         PipelineLayout
	Pipeline       Pipeline
	Framebuffers   []Framebuffer
	CommandPool    CommandPool
	CommandBuffers []CommandBuffer
	// DrawCount is the number of objects recorded into each command buffer.
	DrawCount int
}

// CommandBuffer returns the buffer recorded against swapchain image imageIndex.
func (m *RenderMode) CommandBuffer(imageIndex uint32) (CommandBuffer, error) {
	if int(imageIndex) >= len(m.CommandBuffers) {
		return nil, errors.Newf("no command buffer for image %d (have %d)", imageIndex, len(m.CommandBuffers))
	}
	return m.CommandBuffers[imageIndex], nil
}

// Destroy releases the mode's objects in reverse dependency order. Safe on a
// partially built mode.
func (m *RenderMode) Destroy() {
	if m.CommandPool != nil {
		if len(m.CommandBuffers) > 0 {
			m.CommandPool.Free(m.CommandBuffers)
		}
		m.CommandPool.Destroy()
		m.CommandPool = nil
	}
	m.CommandBuffers = nil

	if m.Pipeline != nil {
		m.Pipeline.Destroy()
		m.Pipeline = nil
	}
	if m.Layout != nil {
		m.Layout.Destroy()
		m.Layout = nil
	}
	for _, fb := range m.Framebuffers {
		fb.Destroy()
	}
	m.Framebuffers = nil
	if m.RenderPass != nil {
		m.RenderPass.Destroy()
		m.RenderPass = nil
	}
}
