package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vulcan/engine/core"
)

// ClearColor is the color every frame starts from.
var ClearColor = [4]float32{0.0, 0.0, 0.0, 1.0}

// PipelineFactory builds render modes: pass, pipeline, framebuffers and
// pre-recorded command buffers.
type PipelineFactory struct {
	backend RendererBackend
	logger  *core.Logger
}

func NewPipelineFactory(backend RendererBackend, logger *core.Logger) *PipelineFactory {
	return &PipelineFactory{backend: backend, logger: logger}
}

// Build records the objects currently in scene. Objects added later are not
// drawn by the returned mode.
func (f *PipelineFactory) Build(format Format, extent Extent, stages []ShaderStage, scene *Scene) (*RenderMode, error) {
	mode := &RenderMode{}
	if err := f.build(mode, format, extent, stages, scene); err != nil {
		f.logger.Critical("Failed to build render mode: %s", err)
		mode.Destroy()
		return nil, err
	}
	f.logger.Info("Render mode built: %d framebuffers, %d objects recorded.", len(mode.Framebuffers), mode.DrawCount)
	return mode, nil
}

func (f *PipelineFactory) build(mode *RenderMode, format Format, extent Extent, stages []ShaderStage, scene *Scene) error {
	var err error

	if mode.RenderPass, err = f.backend.CreateRenderPass(format); err != nil {
		return errors.Wrap(err, "creating render pass")
	}
	if mode.Layout, err = f.backend.CreatePipelineLayout(); err != nil {
		return errors.Wrap(err, "creating pipeline layout")
	}
	mode.Pipeline, err = f.backend.CreateGraphicsPipeline(PipelineConfig{
		RenderPass: mode.RenderPass,
		Layout:     mode.Layout,
		Stages:     stages,
		Extent:     extent,
	})
	if err != nil {
		return errors.Wrap(err, "creating graphics pipeline")
	}

	imageCount := f.backend.SwapchainImageCount()
	mode.Framebuffers = make([]Framebuffer, 0, imageCount)
	for i := 0; i < imageCount; i++ {
		fb, err := f.backend.CreateFramebuffer(mode.RenderPass, i, extent)
		if err != nil {
			return errors.Wrapf(err, "creating framebuffer %d", i)
		}
		mode.Framebuffers = append(mode.Framebuffers, fb)
	}

	if mode.CommandPool, err = f.backend.CreateGraphicsCommandPool(); err != nil {
		return errors.Wrap(err, "creating graphics command pool")
	}
	if mode.CommandBuffers, err = mode.CommandPool.Allocate(len(mode.Framebuffers)); err != nil {
		return errors.Wrap(err, "allocating command buffers")
	}

	objects := scene.Objects()
	for i, cb := range mode.CommandBuffers {
		if err := record(cb, mode, mode.Framebuffers[i], extent, objects); err != nil {
			return errors.Wrapf(err, "recording command buffer %d", i)
		}
	}
	mode.DrawCount = len(objects)
	return nil
}

func record(cb CommandBuffer, mode *RenderMode, fb Framebuffer, extent Extent, objects []*RenderableObject) error {
	if err := cb.Begin(true); err != nil {
		return err
	}
	if err := cb.BeginRenderPass(mode.RenderPass, fb, extent, ClearColor); err != nil {
		return err
	}
	if err := cb.BindPipeline(mode.Pipeline); err != nil {
		return err
	}
	for _, o := range objects {
		if err := cb.BindVertexBuffer(o.Buffer, 0); err != nil {
			return errors.Wrapf(err, "object %s", o.Name)
		}
		if err := cb.BindIndexBuffer(o.Buffer, o.IndexOffset); err != nil {
			return errors.Wrapf(err, "object %s", o.Name)
		}
		cb.DrawIndexed(o.IndexCount)
	}
	cb.EndRenderPass()
	return cb.End()
}
