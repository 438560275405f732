package core

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(&buf, LoggerOptions{Level: "warn"})

	lg.Info("dropped %d", 1)
	lg.Warn("kept %s", "warning")
	lg.Critical("kept critical")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info entry written at warn level:\n%s", out)
	}
	if !strings.Contains(out, "kept warning") || !strings.Contains(out, "kept critical") {
		t.Fatalf("missing entries:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"WARNING", "warn"},
		{" error ", "error"},
		{"", "info"},
		{"bogus", "info"},
	} {
		if got := ParseLevel(tc.in).String(); got != tc.want {
			t.Errorf("ParseLevel(%q)\nhave %s\nwant %s", tc.in, got, tc.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	if c := ExitCode(nil); c != 0 {
		t.Fatalf("ExitCode(nil)\nhave %d\nwant 0", c)
	}
	for _, stage := range []InitStage{StageWindow, StageInstance, StageSurface, StageRenderer} {
		err := fmt.Errorf("wrapped: %w", NewInitError(stage, ErrDeviceUnavailable))
		if c := ExitCode(err); c != int(stage) {
			t.Errorf("ExitCode(%s)\nhave %d\nwant %d", stage, c, stage)
		}
		if !errors.Is(err, ErrDeviceUnavailable) {
			t.Errorf("InitError does not unwrap to its cause")
		}
	}
	if c := ExitCode(errors.New("plain")); c != 1 {
		t.Fatalf("ExitCode(plain)\nhave %d\nwant 1", c)
	}
	if NewInitError(StageRenderer, nil).Code() != 4 {
		t.Fatal("renderer stage must map to exit code 4")
	}
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	refreshed := false
	// 100 frames of 20ms cross the one second mark once.
	for i := 0; i < 100; i++ {
		if m.Update(0.020) {
			refreshed = true
		}
	}
	if !refreshed {
		t.Fatal("FPS never refreshed")
	}
	if fps := m.FPS(); fps < 49 || fps > 51 {
		t.Fatalf("FPS\nhave %f\nwant ~50", fps)
	}
	if ft := m.FrameTime(); ft < 19.9 || ft > 20.1 {
		t.Fatalf("FrameTime\nhave %f\nwant ~20", ft)
	}
}

func TestClock(t *testing.T) {
	c := NewClock()
	c.Update()
	if c.Elapsed() != 0 {
		t.Fatal("stopped clock must not advance")
	}
	c.Start()
	c.Update()
	if c.Elapsed() < 0 {
		t.Fatal("elapsed must not be negative")
	}
	c.Stop()
	e := c.Elapsed()
	c.Update()
	if c.Elapsed() != e {
		t.Fatal("stopped clock must keep its elapsed time")
	}
}

func TestEventBus(t *testing.T) {
	b := NewEventBus()
	var first, second int
	a, c := new(int), new(int)
	if !b.Register(EventCodeApplicationQuit, a, func(EventContext) bool { first++; return false }) {
		t.Fatal("Register failed")
	}
	if b.Register(EventCodeApplicationQuit, a, func(EventContext) bool { return false }) {
		t.Fatal("duplicate listener accepted")
	}
	b.Register(EventCodeApplicationQuit, c, func(EventContext) bool { second++; return true })

	if !b.Fire(EventContext{Code: EventCodeApplicationQuit}) {
		t.Fatal("event not reported as handled")
	}
	if first != 1 || second != 1 {
		t.Fatalf("handler calls\nhave %d, %d\nwant 1, 1", first, second)
	}
	if b.Fire(EventContext{Code: EventCodeKeyPressed}) {
		t.Fatal("event without listeners reported as handled")
	}

	if !b.Unregister(EventCodeApplicationQuit, c) {
		t.Fatal("Unregister failed")
	}
	if b.Fire(EventContext{Code: EventCodeApplicationQuit}) {
		t.Fatal("unregistered listener still handles the event")
	}
	if first != 2 {
		t.Fatalf("remaining handler calls\nhave %d\nwant 2", first)
	}
}
