package platform

import (
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/vulcan/engine/core"
)

// KeyEscape is the key code carried by key events for the escape key.
const KeyEscape = int(glfw.KeyEscape)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the GLFW window and forwards its input to the event bus.
type Platform struct {
	Window *glfw.Window

	events *core.EventBus
	logger *core.Logger
}

func New(events *core.EventBus, logger *core.Logger) *Platform {
	return &Platform{
		Window: nil,
		events: events,
		logger: logger,
	}
}

func (p *Platform) Startup(applicationName string, x, y int, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		p.logger.Critical("Failed to initialize glfw: %s", err)
		return errors.Wrap(err, "initializing glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		p.logger.Critical("Vulkan loader not found.")
		return errors.New("glfw reports no Vulkan support")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	// No swapchain recreation, so the window keeps its size.
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		p.logger.Critical("Failed to create window: %s", err)
		return errors.Wrap(err, "creating window")
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(x, y)
	p.Window.Show()

	p.logger.Info("Window %q created (%dx%d).", applicationName, width, height)
	return nil
}

// ShouldClose processes pending window events and reports whether the window
// was asked to close.
func (p *Platform) ShouldClose() bool {
	glfw.PollEvents()
	return p.Window.ShouldClose()
}

// RequiredInstanceExtensions lists the instance extensions GLFW needs to
// create a surface.
func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// CreateWindowSurface returns the raw VkSurfaceKHR for the vk.Instance.
func (p *Platform) CreateWindowSurface(instance interface{}) (uintptr, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return 0, errors.Wrap(err, "glfw surface")
	}
	return surface, nil
}

// FramebufferSize is the window size in pixels.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	var code core.EventCode
	switch action {
	case glfw.Press:
		code = core.EventCodeKeyPressed
	case glfw.Release:
		code = core.EventCodeKeyReleased
	default:
		return
	}
	p.events.Fire(core.EventContext{Code: code, Key: int(key)})
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.events.Fire(core.EventContext{
		Code:   core.EventCodeResized,
		Width:  uint32(width),
		Height: uint32(height),
	})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(core.EventContext{Code: core.EventCodeApplicationQuit})
}
