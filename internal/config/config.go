// Package config holds the engine settings and loads them from defaults, an
// optional TOML file, PUPSY_ environment variables and command-line flags.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

const (
	PresentModeMailbox   = "mailbox"
	PresentModeFIFO      = "fifo"
	PresentModeImmediate = "immediate"

	MaxFramesInFlightLimit = 8
)

type Window struct {
	Title     string `mapstructure:"title"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	Resizable bool   `mapstructure:"resizable"`
}

type Engine struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type Render struct {
	Validation        bool      `mapstructure:"validation"`
	ValidationLayers  []string  `mapstructure:"validation_layers"`
	MaxFramesInFlight int       `mapstructure:"max_frames_in_flight"`
	PresentMode       string    `mapstructure:"present_mode"`
	ClearColor        []float32 `mapstructure:"clear_color"`
	ShaderDir         string    `mapstructure:"shader_dir"`
	MeshPath          string    `mapstructure:"mesh"`
	PipelineCachePath string    `mapstructure:"pipeline_cache"`
}

type UI struct {
	Enabled  bool     `mapstructure:"enabled"`
	Fonts    []string `mapstructure:"fonts"`
	FontSize float32  `mapstructure:"font_size"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type FPS struct {
	ReportInterval time.Duration `mapstructure:"report_interval"`
}

type Config struct {
	Window Window `mapstructure:"window"`
	Engine Engine `mapstructure:"engine"`
	Render Render `mapstructure:"render"`
	UI     UI     `mapstructure:"ui"`
	Log    Log    `mapstructure:"log"`
	FPS    FPS    `mapstructure:"fps"`
}

// SetDefaults registers every key with its default value. Keys must be known
// to viper before Unmarshal so that environment overrides apply to them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("window.title", "Pupsy Window")
	v.SetDefault("window.width", 800)
	v.SetDefault("window.height", 600)
	v.SetDefault("window.resizable", true)

	v.SetDefault("engine.name", "Pupsy Engine")
	v.SetDefault("engine.version", "1.0.0")

	v.SetDefault("render.validation", true)
	v.SetDefault("render.validation_layers", []string{"VK_LAYER_KHRONOS_validation"})
	v.SetDefault("render.max_frames_in_flight", 2)
	v.SetDefault("render.present_mode", PresentModeMailbox)
	v.SetDefault("render.clear_color", []float32{0, 0, 0, 1})
	v.SetDefault("render.shader_dir", "shaders/spv")
	v.SetDefault("render.mesh", "")
	v.SetDefault("render.pipeline_cache", "")

	v.SetDefault("ui.enabled", false)
	v.SetDefault("ui.fonts", []string{})
	v.SetDefault("ui.font_size", 16)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("fps.report_interval", "1s")
}

// New returns a viper instance with defaults registered and environment
// lookup enabled.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("pupsy")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges the TOML file at path into v. An empty path looks for
// pupsy.toml in the working directory and tolerates its absence.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		return errors.Wrapf(v.ReadInConfig(), "read config %s", path)
	}

	v.SetConfigName("pupsy")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return errors.Wrap(err, "read config")
}

func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}

	if c.Render.MaxFramesInFlight < 1 || c.Render.MaxFramesInFlight > MaxFramesInFlightLimit {
		return errors.Newf("max frames in flight must be in 1..%d, got %d", MaxFramesInFlightLimit, c.Render.MaxFramesInFlight)
	}

	switch c.Render.PresentMode {
	case PresentModeMailbox, PresentModeFIFO, PresentModeImmediate:
	default:
		return errors.Newf("unknown present mode %q", c.Render.PresentMode)
	}

	if c.Render.Validation {
		for _, layer := range c.Render.ValidationLayers {
			if strings.TrimSpace(layer) == "" {
				return errors.New("validation layer names must not be empty")
			}
		}
	}

	if len(c.Render.ClearColor) != 4 {
		return errors.Newf("clear color needs 4 components, got %d", len(c.Render.ClearColor))
	}

	if c.UI.FontSize <= 0 {
		return errors.Newf("ui font size must be positive, got %g", c.UI.FontSize)
	}

	if c.FPS.ReportInterval < 0 {
		return errors.Newf("fps report interval must not be negative, got %s", c.FPS.ReportInterval)
	}

	if _, err := c.Engine.VersionTriple(); err != nil {
		return err
	}

	return nil
}

// VersionTriple parses the engine version as major.minor.patch.
func (e Engine) VersionTriple() ([3]uint32, error) {
	var triple [3]uint32

	parts := strings.Split(e.Version, ".")
	if len(parts) != 3 {
		return triple, errors.Newf("engine version %q is not major.minor.patch", e.Version)
	}

	for i, part := range parts {
		value, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return triple, errors.Wrapf(err, "engine version %q", e.Version)
		}
		triple[i] = uint32(value)
	}

	return triple, nil
}
