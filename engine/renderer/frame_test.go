package renderer

import (
	"fmt"
	"slices"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vulcan/engine/core"
)

func newTestFrameRenderer(t *testing.T, b *fakeBackend) (*FrameRenderer, *RenderMode) {
	t.Helper()
	s := testStore(t)
	scene := NewScene()
	scene.Add(newTestObject(t, b, s, "DUMMY", "quad"))
	mode := buildMode(t, b, scene)
	fr, err := NewFrameRenderer(b, mode, core.Discard())
	if err != nil {
		t.Fatalf("NewFrameRenderer failed: %v", err)
	}
	return fr, mode
}

func TestFrameSlotCycles(t *testing.T) {
	b := newFakeBackend(3)
	fr, _ := newTestFrameRenderer(t, b)

	for i := 0; i < 2*FramesInFlight; i++ {
		if fr.Slot() != i%FramesInFlight {
			t.Fatalf("slot before frame %d\nhave %d\nwant %d", i, fr.Slot(), i%FramesInFlight)
		}
		if err := fr.Draw(); err != nil {
			t.Fatalf("Draw %d failed: %v", i, err)
		}
	}
	if fr.Slot() != 0 {
		t.Fatalf("slot after %d frames\nhave %d\nwant 0", 2*FramesInFlight, fr.Slot())
	}
	if fr.FrameNumber() != 2*FramesInFlight {
		t.Fatalf("frame number\nhave %d\nwant %d", fr.FrameNumber(), 2*FramesInFlight)
	}
}

func TestFrameCallOrder(t *testing.T) {
	b := newFakeBackend(3)
	fr, _ := newTestFrameRenderer(t, b)

	var fences []int
	fr.slots.Each(func(_ int, s *frameSlot) {
		fences = append(fences, s.inFlight.(*fakeObject).id)
	})

	for frame := 0; frame < 4; frame++ {
		b.calls = nil
		if err := fr.Draw(); err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
		fence := fences[frame%FramesInFlight]
		img := frame % 3
		want := []string{
			fmt.Sprintf("wait %d", fence),
			fmt.Sprintf("reset %d", fence),
			fmt.Sprintf("acquire %d", img),
			fmt.Sprintf("submit %d fence %d", img, fence),
			fmt.Sprintf("present %d", img),
		}
		if !slices.Equal(b.calls, want) {
			t.Fatalf("frame %d calls\nhave %v\nwant %v", frame, b.calls, want)
		}
	}
}

func TestFramePresentsAcquiredImage(t *testing.T) {
	// Two swapchain images against three frame slots: image and slot
	// indices diverge from the third frame on.
	b := newFakeBackend(2)
	fr, _ := newTestFrameRenderer(t, b)

	for i := 0; i < 5; i++ {
		if err := fr.Draw(); err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
	}
	want := []uint32{0, 1, 0, 1, 0}
	if !slices.Equal(b.presented, want) {
		t.Fatalf("presented images\nhave %v\nwant %v", b.presented, want)
	}
	for i, cb := range b.submitted {
		if uint32(cb.index) != want[i] {
			t.Fatalf("frame %d submitted command buffer %d for image %d", i, cb.index, want[i])
		}
	}
}

func TestFrameAcquireTimeout(t *testing.T) {
	b := newFakeBackend(3)
	fr, _ := newTestFrameRenderer(t, b)
	b.acquireErr = core.ErrAcquireTimeout

	if err := fr.Draw(); !errors.Is(err, core.ErrAcquireTimeout) {
		t.Fatalf("Draw error\nhave %v\nwant %v", err, core.ErrAcquireTimeout)
	}
	if fr.Slot() != 0 || fr.FrameNumber() != 0 {
		t.Fatal("failed frame advanced the slot")
	}
	if len(b.presented) != 0 {
		t.Fatal("failed frame was presented")
	}
}

func TestFrameSubmitError(t *testing.T) {
	b := newFakeBackend(3)
	fr, _ := newTestFrameRenderer(t, b)
	b.submitErr = errors.New("device lost")

	if err := fr.Draw(); err == nil {
		t.Fatal("Draw hid the submit error")
	}
	if len(b.presented) != 0 {
		t.Fatal("image presented after a failed submit")
	}
}

func TestFrameRendererDestroy(t *testing.T) {
	b := newFakeBackend(3)
	fr, _ := newTestFrameRenderer(t, b)
	before := b.destroyed
	fr.Destroy()
	if n := b.destroyed - before; n != 3*FramesInFlight {
		t.Fatalf("destroyed sync objects\nhave %d\nwant %d", n, 3*FramesInFlight)
	}
}
