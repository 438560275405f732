package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Fatalf("window size\nhave %dx%d\nwant 1280x720", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Resources.ShadersDir != "./Shaders/" || cfg.Resources.Manifest != "index.lst" {
		t.Fatalf("resources\nhave %+v", cfg.Resources)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vulcan.toml")
	doc := `
[window]
width = 800
title = "test"

[renderer]
validation = true
acquire_timeout = "250ms"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 720 {
		t.Fatalf("window size\nhave %dx%d\nwant 800x720", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Title != "test" || !cfg.Renderer.Validation {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.Renderer.AcquireTimeout.Duration != 250*time.Millisecond {
		t.Fatalf("acquire_timeout\nhave %s\nwant 250ms", cfg.Renderer.AcquireTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level\nhave %q\nwant debug", cfg.Log.Level)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"zero width":     "[window]\nwidth = 0\n",
		"bad duration":   "[renderer]\nacquire_timeout = \"soon\"\n",
		"zero timeout":   "[renderer]\nacquire_timeout = \"0s\"\n",
		"empty manifest": "[resources]\nmanifest = \"\"\n",
		"syntax":         "[window\n",
	} {
		if err := Decode([]byte(doc), Default()); err == nil {
			t.Errorf("%s: Decode accepted %q", name, doc)
		}
	}
}
