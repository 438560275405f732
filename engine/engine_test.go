package engine

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vulcan/engine/config"
	"github.com/spaghettifunk/vulcan/engine/core"
	"github.com/spaghettifunk/vulcan/engine/platform"
	"github.com/spaghettifunk/vulcan/engine/renderer"
	"github.com/spaghettifunk/vulcan/engine/renderer/vulkan"
)

type fakeWindow struct {
	startupErr error
	shutdown   bool
}

func (w *fakeWindow) RequiredInstanceExtensions() []string { return []string{"VK_KHR_surface"} }

func (w *fakeWindow) CreateWindowSurface(interface{}) (uintptr, error) { return 1, nil }

func (w *fakeWindow) FramebufferSize() (uint32, uint32) { return 1280, 720 }

func (w *fakeWindow) Startup(string, int, int, uint32, uint32) error { return w.startupErr }

func (w *fakeWindow) ShouldClose() bool { return true }

func (w *fakeWindow) Shutdown() error {
	w.shutdown = true
	return nil
}

// stagedBackend only implements the staged setup. The embedded backend is nil
// and must not be reached.
type stagedBackend struct {
	renderer.RendererBackend
	failAt   string
	created  []string
	shutdown bool
}

func (b *stagedBackend) step(name string, err error) error {
	if b.failAt == name {
		return err
	}
	b.created = append(b.created, name)
	return nil
}

func (b *stagedBackend) CreateInstance(vulkan.Window) error {
	return b.step("instance", errors.New("no loader"))
}

func (b *stagedBackend) CreateSurface(vulkan.Window) error {
	return b.step("surface", errors.New("no surface"))
}

func (b *stagedBackend) CreateDevice(vulkan.Window) error {
	return b.step("device", core.ErrDeviceUnavailable)
}

func (b *stagedBackend) WaitIdle() error { return nil }

func (b *stagedBackend) Shutdown() error {
	b.shutdown = true
	return nil
}

func newTestEngine(t *testing.T, window *fakeWindow, backend *stagedBackend) *Engine {
	t.Helper()
	cfg := config.Default()
	// No manifest in the directory, so the renderer stage fails.
	cfg.Resources.ShadersDir = t.TempDir()
	return newEngine(cfg, &Game{Name: "test"}, core.Discard(), core.NewEventBus(), window, backend)
}

func TestInitializeExitCodes(t *testing.T) {
	for _, tc := range []struct {
		name       string
		startupErr error
		failAt     string
		want       int
	}{
		{"window", errors.New("no display"), "", 1},
		{"instance", nil, "instance", 2},
		{"surface", nil, "surface", 3},
		{"device", nil, "device", 2},
		{"renderer", nil, "", 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			window := &fakeWindow{startupErr: tc.startupErr}
			backend := &stagedBackend{failAt: tc.failAt}
			e := newTestEngine(t, window, backend)

			err := e.Initialize()
			if err == nil {
				t.Fatal("Initialize succeeded")
			}
			if code := core.ExitCode(err); code != tc.want {
				t.Fatalf("exit code\nhave %d\nwant %d\nerr: %v", code, tc.want, err)
			}
			if tc.name == "device" && !errors.Is(err, core.ErrDeviceUnavailable) {
				t.Fatalf("device error lost its cause: %v", err)
			}

			if err := e.Shutdown(); err != nil {
				t.Fatalf("Shutdown after failed init: %v", err)
			}
			if !window.shutdown || !backend.shutdown {
				t.Fatalf("shutdown\nhave window %t backend %t\nwant both", window.shutdown, backend.shutdown)
			}
		})
	}
}

func TestInitializeStopsAtFailedStage(t *testing.T) {
	backend := &stagedBackend{failAt: "surface"}
	e := newTestEngine(t, &fakeWindow{}, backend)
	if err := e.Initialize(); err == nil {
		t.Fatal("Initialize succeeded")
	}
	if len(backend.created) != 1 || backend.created[0] != "instance" {
		t.Fatalf("created stages\nhave %v\nwant [instance]", backend.created)
	}
}

func TestEscapeRequestsQuit(t *testing.T) {
	e := newTestEngine(t, &fakeWindow{startupErr: errors.New("headless")}, &stagedBackend{})
	// Handlers are registered before the window starts.
	_ = e.Initialize()

	e.running.Store(true)
	e.events.Fire(core.EventContext{Code: core.EventCodeKeyPressed, Key: platform.KeyEscape + 1})
	if !e.running.Load() {
		t.Fatal("another key stopped the loop")
	}
	e.events.Fire(core.EventContext{Code: core.EventCodeKeyPressed, Key: platform.KeyEscape})
	if e.running.Load() {
		t.Fatal("escape did not stop the loop")
	}

	e.running.Store(true)
	e.Quit()
	if e.running.Load() {
		t.Fatal("Quit did not stop the loop")
	}
}
