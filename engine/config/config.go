package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is where the engine looks for its configuration file.
const DefaultPath = "vulcan.toml"

type Config struct {
	Window    WindowConfig    `toml:"window"`
	Renderer  RendererConfig  `toml:"renderer"`
	Resources ResourcesConfig `toml:"resources"`
	Log       LogConfig       `toml:"log"`
}

type WindowConfig struct {
	// Window starting position, if applicable.
	StartPosX int `toml:"start_pos_x"`
	StartPosY int `toml:"start_pos_y"`
	// Window size in screen coordinates.
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	Title  string `toml:"title"`
}

type RendererConfig struct {
	ApplicationName string `toml:"application_name"`
	// Validation enables the Khronos validation layer and the debug report callback.
	Validation bool `toml:"validation"`
	// AcquireTimeout bounds the wait for a presentable image.
	AcquireTimeout Duration `toml:"acquire_timeout"`
}

type ResourcesConfig struct {
	ShadersDir string `toml:"shaders_dir"`
	Manifest   string `toml:"manifest"`
	// Watch logs changes to manifest shaders while running.
	Watch bool `toml:"watch"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// File, when set, receives a copy of every entry. It is truncated at startup.
	File         string `toml:"file"`
	ReportCaller bool   `toml:"report_caller"`
}

// Duration reads TOML strings such as "250ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(b))
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	return &Config{
		Window: WindowConfig{
			StartPosX: 100,
			StartPosY: 100,
			Width:     1280,
			Height:    720,
			Title:     "Renderer",
		},
		Renderer: RendererConfig{
			ApplicationName: "Vulcan Renderer",
			Validation:      false,
			AcquireTimeout:  Duration{100 * time.Millisecond},
		},
		Resources: ResourcesConfig{
			ShadersDir: "./Shaders/",
			Manifest:   "index.lst",
			Watch:      false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file at path over the defaults. A missing file is not an
// error and yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := Decode(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// Decode overlays the TOML document b onto cfg and validates the result.
func Decode(b []byte, cfg *Config) error {
	if err := toml.Unmarshal(b, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.AcquireTimeout.Duration <= 0 {
		return errors.Newf("acquire_timeout must be positive, got %s", c.Renderer.AcquireTimeout)
	}
	if c.Resources.Manifest == "" {
		return errors.New("resources.manifest must not be empty")
	}
	return nil
}
