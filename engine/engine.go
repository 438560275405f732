package engine

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/vulcan/engine/config"
	"github.com/spaghettifunk/vulcan/engine/core"
	"github.com/spaghettifunk/vulcan/engine/platform"
	"github.com/spaghettifunk/vulcan/engine/renderer"
	"github.com/spaghettifunk/vulcan/engine/renderer/vulkan"
	"github.com/spaghettifunk/vulcan/engine/resources"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Manifest names of the two shader stages of the pipeline.
const (
	VertexShaderName   = "vert"
	FragmentShaderName = "frag"
)

// Window is the platform window driven by the engine.
type Window interface {
	vulkan.Window
	Startup(title string, x, y int, width, height uint32) error
	ShouldClose() bool
	Shutdown() error
}

// Backend is a renderer backend together with its staged setup.
type Backend interface {
	renderer.RendererBackend
	CreateInstance(window vulkan.Window) error
	CreateSurface(window vulkan.Window) error
	CreateDevice(window vulkan.Window) error
}

type Engine struct {
	currentStage Stage
	config       *config.Config
	logger       *core.Logger
	gameInstance *Game
	events       *core.EventBus
	platform     Window
	backend      Backend

	store   *resources.Store
	watcher *resources.Watcher
	scene   *renderer.Scene
	stages  []renderer.ShaderStage
	mode    *renderer.RenderMode
	frames  *renderer.FrameRenderer

	clock   *core.Clock
	metrics *core.Metrics
	running atomic.Bool
}

// New wires the GLFW platform and the Vulkan backend. Nothing is created
// before Initialize.
func New(cfg *config.Config, g *Game, logger *core.Logger) *Engine {
	events := core.NewEventBus()
	backend := vulkan.New(vulkan.Options{
		ApplicationName: cfg.Renderer.ApplicationName,
		Validation:      cfg.Renderer.Validation,
		AcquireTimeout:  cfg.Renderer.AcquireTimeout.Duration,
	}, logger)
	return newEngine(cfg, g, logger, events, platform.New(events, logger), backend)
}

func newEngine(cfg *config.Config, g *Game, logger *core.Logger, events *core.EventBus, window Window, backend Backend) *Engine {
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		logger:       logger,
		gameInstance: g,
		events:       events,
		platform:     window,
		backend:      backend,
		store:        resources.NewStore(cfg.Resources.ShadersDir, cfg.Resources.Manifest, logger),
		scene:        renderer.NewScene(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}
}

// Initialize brings the engine up stage by stage. A failure is returned as a
// *core.InitError carrying the process exit code of the stage.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EventCodeApplicationQuit, e, e.onQuit)
	e.events.Register(core.EventCodeKeyPressed, e, e.onKey)
	e.events.Register(core.EventCodeKeyReleased, e, e.onKey)
	e.events.Register(core.EventCodeResized, e, e.onResized)

	w := e.config.Window
	if err := e.platform.Startup(w.Title, w.StartPosX, w.StartPosY, w.Width, w.Height); err != nil {
		return core.NewInitError(core.StageWindow, err)
	}
	if err := e.backend.CreateInstance(e.platform); err != nil {
		e.logger.Critical("Could not create the Vulkan instance: %s", err)
		return core.NewInitError(core.StageInstance, err)
	}
	if err := e.backend.CreateSurface(e.platform); err != nil {
		e.logger.Critical("Could not create a Vulkan surface: %s", err)
		return core.NewInitError(core.StageSurface, err)
	}
	// Device failures share the instance exit code.
	if err := e.backend.CreateDevice(e.platform); err != nil {
		e.logger.Critical("Could not create the Vulkan device: %s", err)
		return core.NewInitError(core.StageInstance, err)
	}
	if err := e.initRenderer(); err != nil {
		e.logger.Critical("Renderer initialization failed: %s", err)
		return core.NewInitError(core.StageRenderer, err)
	}

	e.currentStage = EngineStageInitialized
	e.logger.Info("Engine initialized.")
	return nil
}

// initRenderer loads the resources, lets the game populate the scene and
// records the command buffers for it.
func (e *Engine) initRenderer() error {
	if err := e.store.LoadAll(); err != nil {
		return err
	}
	if e.config.Resources.Watch {
		watcher, err := resources.NewWatcher(e.store, e.logger)
		if err != nil {
			e.logger.Warn("Shader watcher disabled: %s", err)
		} else {
			e.watcher = watcher
		}
	}

	if err := e.createShaderStages(); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return errors.Wrap(err, "game initialization")
		}
	}

	factory := renderer.NewPipelineFactory(e.backend, e.logger)
	mode, err := factory.Build(e.backend.SwapchainFormat(), e.backend.SwapchainExtent(), e.stages, e.scene)
	if err != nil {
		return err
	}
	e.mode = mode

	frames, err := renderer.NewFrameRenderer(e.backend, e.mode, e.logger)
	if err != nil {
		return err
	}
	e.frames = frames
	return nil
}

func (e *Engine) createShaderStages() error {
	for _, s := range []struct {
		name  string
		stage renderer.ShaderStageType
	}{
		{VertexShaderName, renderer.ShaderStageVertex},
		{FragmentShaderName, renderer.ShaderStageFragment},
	} {
		code, err := e.store.Shader(s.name)
		if err != nil {
			return err
		}
		stage, err := e.backend.CreateShaderStage(code, s.stage)
		if err != nil {
			return errors.Wrapf(err, "creating %s shader stage", s.name)
		}
		e.stages = append(e.stages, stage)
	}
	return nil
}

// CreateObject places a new object using the named model at the origin.
func (e *Engine) CreateObject(name, modelName string) (*renderer.RenderableObject, error) {
	return e.CreateObjectAt(name, modelName, mgl32.Vec3{})
}

// CreateObjectAt uploads the model geometry and appends the object to the
// scene. Objects added after initialization are not drawn since the command
// buffers are recorded once.
func (e *Engine) CreateObjectAt(name, modelName string, position mgl32.Vec3) (*renderer.RenderableObject, error) {
	e.logger.Info("Creating object %s with model %s at %v", name, modelName, position)

	model := e.store.MustModel(modelName)
	defer model.Release()

	object, err := renderer.NewRenderableObject(e.backend, name, model, position)
	if err != nil {
		e.logger.Error("Could not create object %s: %s", name, err)
		return nil, err
	}
	e.scene.Add(object)
	if e.mode != nil {
		e.logger.Warn("Object %s was added after the command buffers were recorded and will not be drawn.", name)
	}
	return object, nil
}

// Scene is the list of objects the engine draws.
func (e *Engine) Scene() *renderer.Scene {
	return e.scene
}

// Run draws frames until the window closes or a quit event arrives. Any
// frame error stops the loop and is returned.
func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.running.Store(true)

	e.clock.Start()
	e.clock.Update()
	lastTime := e.clock.Elapsed()

	for e.running.Load() {
		if e.platform.ShouldClose() {
			e.running.Store(false)
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - lastTime

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				e.logger.Critical("Game update failed, shutting down.")
				e.running.Store(false)
				return err
			}
		}

		if err := e.frames.Draw(); err != nil {
			e.logger.Critical("Frame %d failed: %s", e.frames.FrameNumber(), err)
			e.running.Store(false)
			return err
		}

		if e.watcher != nil {
			e.watcher.Drain()
		}
		if e.metrics.Update(delta) {
			e.logger.Debug("FPS: %.0f, frame time: %.3fms", e.metrics.FPS(), e.metrics.FrameTime())
		}
		lastTime = currentTime
	}

	e.logger.Info("Render loop stopped after %d frames.", e.frames.FrameNumber())
	return e.backend.WaitIdle()
}

// Quit asks the loop to stop after the current frame. Safe to call from any
// goroutine.
func (e *Engine) Quit() {
	e.events.Fire(core.EventContext{Code: core.EventCodeApplicationQuit})
}

// Shutdown releases everything Initialize created, in reverse dependency
// order. It can run after a failed Initialize.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs error

	if err := e.backend.WaitIdle(); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	if e.frames != nil {
		e.frames.Destroy()
		e.frames = nil
	}
	if e.mode != nil {
		e.mode.Destroy()
		e.mode = nil
	}
	e.scene.Unload()
	for _, s := range e.stages {
		s.Destroy()
	}
	e.stages = nil

	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
		e.watcher = nil
	}
	if err := e.store.Unload(); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	if err := e.backend.Shutdown(); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	if err := e.platform.Shutdown(); err != nil {
		errs = errors.CombineErrors(errs, err)
	}

	e.events.Unregister(core.EventCodeApplicationQuit, e)
	e.events.Unregister(core.EventCodeKeyPressed, e)
	e.events.Unregister(core.EventCodeKeyReleased, e)
	e.events.Unregister(core.EventCodeResized, e)
	e.currentStage = EngineStageUninitialized
	return errs
}

func (e *Engine) onQuit(context core.EventContext) bool {
	e.logger.Info("EventCodeApplicationQuit received, shutting down.")
	e.running.Store(false)
	return true
}

func (e *Engine) onKey(context core.EventContext) bool {
	if context.Code == core.EventCodeKeyPressed && context.Key == platform.KeyEscape {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EventContext{Code: core.EventCodeApplicationQuit})
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	e.logger.Warn("Window resized to %dx%d; the swapchain keeps its original extent.", context.Width, context.Height)
	return false
}
