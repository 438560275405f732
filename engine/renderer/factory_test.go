package renderer

import (
	"slices"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vulcan/engine/core"
)

func buildMode(t *testing.T, b *fakeBackend, scene *Scene) *RenderMode {
	t.Helper()
	f := NewPipelineFactory(b, core.Discard())
	stages := []ShaderStage{b.object("stage"), b.object("stage")}
	mode, err := f.Build(b.SwapchainFormat(), b.SwapchainExtent(), stages, scene)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return mode
}

func TestBuildRecordsScene(t *testing.T) {
	b := newFakeBackend(3)
	s := testStore(t)
	scene := NewScene()
	scene.Add(newTestObject(t, b, s, "DUMMY", "quad"))

	mode := buildMode(t, b, scene)
	if len(mode.Framebuffers) != 3 || len(mode.CommandBuffers) != 3 {
		t.Fatalf("framebuffers/command buffers\nhave %d/%d\nwant 3/3", len(mode.Framebuffers), len(mode.CommandBuffers))
	}

	want := []string{
		"begin true",
		"begin pass",
		"bind pipeline",
		"bind vertex 0",
		"bind index 112",
		"draw 6",
		"end pass",
		"end",
	}
	for i, cb := range mode.CommandBuffers {
		have := cb.(*fakeCommandBuffer).cmds
		if !slices.Equal(have, want) {
			t.Fatalf("command buffer %d\nhave %v\nwant %v", i, have, want)
		}
	}
}

func TestBuildSnapshotsScene(t *testing.T) {
	b := newFakeBackend(3)
	s := testStore(t)
	scene := NewScene()
	scene.Add(newTestObject(t, b, s, "TestTriangle", "tri"))

	mode := buildMode(t, b, scene)
	scene.Add(newTestObject(t, b, s, "late", "quad"))

	if mode.DrawCount != 1 {
		t.Fatalf("draw count\nhave %d\nwant 1", mode.DrawCount)
	}
	for i, cb := range mode.CommandBuffers {
		if draws := cb.(*fakeCommandBuffer).draws; !slices.Equal(draws, []uint32{3}) {
			t.Fatalf("command buffer %d draws\nhave %v\nwant [3]", i, draws)
		}
	}
}

func TestBuildEmptyScene(t *testing.T) {
	b := newFakeBackend(2)
	mode := buildMode(t, b, NewScene())
	for _, cb := range mode.CommandBuffers {
		if len(cb.(*fakeCommandBuffer).draws) != 0 {
			t.Fatal("empty scene recorded draws")
		}
	}
}

func TestBuildFailureCleansUp(t *testing.T) {
	b := newFakeBackend(3)
	b.pipelineErr = errors.New("pipeline rejected")
	f := NewPipelineFactory(b, core.Discard())

	mode, err := f.Build(b.SwapchainFormat(), b.SwapchainExtent(), nil, NewScene())
	if err == nil || mode != nil {
		t.Fatal("Build succeeded with a failing pipeline")
	}
	// render pass and layout
	if b.destroyed != 2 {
		t.Fatalf("destroyed objects\nhave %d\nwant 2", b.destroyed)
	}
}

func TestRenderModeDestroy(t *testing.T) {
	b := newFakeBackend(3)
	mode := buildMode(t, b, NewScene())
	pool := mode.CommandPool.(*fakePool)

	mode.Destroy()
	if pool.freed != 3 {
		t.Fatalf("freed command buffers\nhave %d\nwant 3", pool.freed)
	}
	// pool, pipeline, layout, 3 framebuffers, render pass
	if b.destroyed != 7 {
		t.Fatalf("destroyed objects\nhave %d\nwant 7", b.destroyed)
	}
	last := b.calls[len(b.calls)-1]
	if !strings.HasPrefix(last, "destroy renderpass") {
		t.Fatalf("render pass must be destroyed last, got %q", last)
	}
	if _, err := mode.CommandBuffer(0); err == nil {
		t.Fatal("destroyed mode still hands out command buffers")
	}
}
