package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "Pupsy Window", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, "Pupsy Engine", cfg.Engine.Name)
	assert.True(t, cfg.Render.Validation)
	assert.Equal(t, []string{"VK_LAYER_KHRONOS_validation"}, cfg.Render.ValidationLayers)
	assert.Equal(t, 2, cfg.Render.MaxFramesInFlight)
	assert.Equal(t, PresentModeMailbox, cfg.Render.PresentMode)
	assert.Equal(t, []float32{0, 0, 0, 1}, cfg.Render.ClearColor)
	assert.False(t, cfg.UI.Enabled)
	assert.Equal(t, time.Second, cfg.FPS.ReportInterval)
}

func TestReadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pupsy.toml")
	err := os.WriteFile(path, []byte(`
[window]
title = "Triangle"
width = 1024

[render]
max_frames_in_flight = 3
present_mode = "fifo"
`), 0o644)
	require.NoError(t, err)

	v := New()
	require.NoError(t, ReadFile(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "Triangle", cfg.Window.Title)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, 3, cfg.Render.MaxFramesInFlight)
	assert.Equal(t, PresentModeFIFO, cfg.Render.PresentMode)
}

func TestReadFileMissingExplicitPath(t *testing.T) {
	err := ReadFile(New(), filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("PUPSY_RENDER_MAX_FRAMES_IN_FLIGHT", "4")
	t.Setenv("PUPSY_UI_ENABLED", "true")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Render.MaxFramesInFlight)
	assert.True(t, cfg.UI.Enabled)
}

func TestValidate(t *testing.T) {
	base, err := Load(New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"negative height", func(c *Config) { c.Window.Height = -1 }},
		{"no frames in flight", func(c *Config) { c.Render.MaxFramesInFlight = 0 }},
		{"too many frames in flight", func(c *Config) { c.Render.MaxFramesInFlight = MaxFramesInFlightLimit + 1 }},
		{"unknown present mode", func(c *Config) { c.Render.PresentMode = "vsync-ish" }},
		{"empty layer", func(c *Config) { c.Render.ValidationLayers = []string{" "} }},
		{"short clear color", func(c *Config) { c.Render.ClearColor = []float32{0, 0, 0} }},
		{"zero font size", func(c *Config) { c.UI.FontSize = 0 }},
		{"negative report interval", func(c *Config) { c.FPS.ReportInterval = -time.Second }},
		{"bad version", func(c *Config) { c.Engine.Version = "1.x.0" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.Render.ValidationLayers = append([]string(nil), base.Render.ValidationLayers...)
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEmptyLayerIgnoredWithoutValidation(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	cfg.Render.Validation = false
	cfg.Render.ValidationLayers = []string{""}
	assert.NoError(t, cfg.Validate())
}

func TestVersionTriple(t *testing.T) {
	triple, err := Engine{Version: "1.2.30"}.VersionTriple()
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{1, 2, 30}, triple)

	_, err = Engine{Version: "1.2"}.VersionTriple()
	assert.Error(t, err)
}
