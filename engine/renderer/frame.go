package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vulcan/engine/containers"
	"github.com/spaghettifunk/vulcan/engine/core"
)

// FramesInFlight is the number of frames the CPU may record ahead of the GPU.
const FramesInFlight = 3

// frameSlot owns the synchronization objects of one frame in flight.
type frameSlot struct {
	imageAvailable Semaphore
	renderFinished Semaphore
	inFlight       Fence
}

func (s *frameSlot) destroy() {
	if s.inFlight != nil {
		s.inFlight.Destroy()
	}
	if s.renderFinished != nil {
		s.renderFinished.Destroy()
	}
	if s.imageAvailable != nil {
		s.imageAvailable.Destroy()
	}
}

// FrameRenderer drives the acquire, submit and present cycle.
type FrameRenderer struct {
	backend RendererBackend
	mode    *RenderMode
	logger  *core.Logger

	slots       *containers.Ring[*frameSlot]
	frameNumber uint64
}

func NewFrameRenderer(backend RendererBackend, mode *RenderMode, logger *core.Logger) (*FrameRenderer, error) {
	slots, partial, err := containers.NewRing(FramesInFlight, func(i int) (*frameSlot, error) {
		s := &frameSlot{}
		var err error
		if s.imageAvailable, err = backend.CreateSemaphore(); err != nil {
			return nil, errors.Wrapf(err, "creating image-available semaphore %d", i)
		}
		if s.renderFinished, err = backend.CreateSemaphore(); err != nil {
			s.destroy()
			return nil, errors.Wrapf(err, "creating render-finished semaphore %d", i)
		}
		// Created signaled so the first wait on each slot returns at once.
		if s.inFlight, err = backend.CreateFence(true); err != nil {
			s.destroy()
			return nil, errors.Wrapf(err, "creating in-flight fence %d", i)
		}
		return s, nil
	})
	if err != nil {
		for _, s := range partial {
			s.destroy()
		}
		return nil, err
	}
	logger.Debug("Created sync objects for %d frames in flight.", FramesInFlight)

	return &FrameRenderer{
		backend: backend,
		mode:    mode,
		logger:  logger,
		slots:   slots,
	}, nil
}

// Draw renders one frame. The slot advances only when the frame was presented.
func (r *FrameRenderer) Draw() error {
	slot := r.slots.Current()

	if err := r.backend.WaitForFence(slot.inFlight); err != nil {
		return errors.Wrapf(err, "waiting for frame slot %d", r.slots.Index())
	}
	if err := r.backend.ResetFence(slot.inFlight); err != nil {
		return errors.Wrapf(err, "resetting frame slot %d", r.slots.Index())
	}

	imageIndex, err := r.backend.AcquireNextImage(slot.imageAvailable)
	if err != nil {
		return errors.Wrap(err, "acquiring swapchain image")
	}

	cb, err := r.mode.CommandBuffer(imageIndex)
	if err != nil {
		return err
	}
	if err := r.backend.SubmitGraphics(cb, slot.imageAvailable, slot.renderFinished, slot.inFlight); err != nil {
		return errors.Wrapf(err, "submitting image %d", imageIndex)
	}
	if err := r.backend.Present(slot.renderFinished, imageIndex); err != nil {
		return errors.Wrapf(err, "presenting image %d", imageIndex)
	}

	r.slots.Advance()
	r.frameNumber++
	return nil
}

// Slot is the index of the frame slot the next Draw uses.
func (r *FrameRenderer) Slot() int {
	return r.slots.Index()
}

func (r *FrameRenderer) FrameNumber() uint64 {
	return r.frameNumber
}

// Destroy releases the sync objects. The device must be idle.
func (r *FrameRenderer) Destroy() {
	r.slots.Each(func(_ int, s *frameSlot) {
		s.destroy()
	})
}
