package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pupsyengine/pupsy/internal/config"
	"github.com/pupsyengine/pupsy/internal/mesh"
)

func TestFlagsOverrideConfig(t *testing.T) {
	v := config.New()
	cmd := newRootCommand(v)
	require.NoError(t, cmd.Flags().Parse([]string{"--width", "1024", "--frames-in-flight", "3", "--ui", "--present-mode", "fifo"}))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, 3, cfg.Render.MaxFramesInFlight)
	assert.True(t, cfg.UI.Enabled)
	assert.Equal(t, config.PresentModeFIFO, cfg.Render.PresentMode)
}

func TestSliceAndDurationFlags(t *testing.T) {
	v := config.New()
	cmd := newRootCommand(v)
	require.NoError(t, cmd.Flags().Parse([]string{
		"--clear-color", "0.25,0.5,0.75,1",
		"--validation-layer", "VK_LAYER_KHRONOS_validation",
		"--validation-layer", "VK_LAYER_LUNARG_monitor",
		"--fps-interval", "250ms",
		"--font-size", "18",
		"--resizable=false",
		"--engine-version", "2.3.4",
	}))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.25, 0.5, 0.75, 1}, cfg.Render.ClearColor, 1e-6)
	assert.Equal(t, []string{"VK_LAYER_KHRONOS_validation", "VK_LAYER_LUNARG_monitor"}, cfg.Render.ValidationLayers)
	assert.Equal(t, 250*time.Millisecond, cfg.FPS.ReportInterval)
	assert.InDelta(t, 18, cfg.UI.FontSize, 1e-6)
	assert.False(t, cfg.Window.Resizable)
	assert.Equal(t, "2.3.4", cfg.Engine.Version)
}

func TestEveryConfigKeyHasFlag(t *testing.T) {
	v := config.New()
	cmd := newRootCommand(v)

	for _, key := range v.AllKeys() {
		name, ok := flagBindings[key]
		if assert.True(t, ok, "config key %s has no flag", key) {
			assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
		}
	}
}

func TestLoadGeometry(t *testing.T) {
	geometry, err := loadGeometry("", "")
	require.NoError(t, err)
	assert.Equal(t, mesh.Triangle(), geometry)

	_, err = loadGeometry("", "scene.mtl")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))

	geometry, err = loadGeometry(path, "")
	require.NoError(t, err)
	assert.Len(t, geometry.Indices, 3)
}
