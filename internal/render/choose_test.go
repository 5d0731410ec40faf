package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/pupsyengine/pupsy/internal/config"
)

func TestChooseSwapSurfaceFormat(t *testing.T) {
	unorm := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	srgb := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	assert.Equal(t, srgb, chooseSwapSurfaceFormat([]khr_surface.SurfaceFormat{unorm, srgb}))
	assert.Equal(t, unorm, chooseSwapSurfaceFormat([]khr_surface.SurfaceFormat{unorm}))
}

func TestChooseSwapPresentMode(t *testing.T) {
	modes := []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}

	assert.Equal(t, khr_surface.PresentModeMailbox, chooseSwapPresentMode(modes, khr_surface.PresentModeMailbox))
	assert.Equal(t, khr_surface.PresentModeFIFO, chooseSwapPresentMode(modes, khr_surface.PresentModeImmediate))
	assert.Equal(t, khr_surface.PresentModeFIFO, chooseSwapPresentMode(nil, khr_surface.PresentModeMailbox))
}

func TestPresentModeFromConfig(t *testing.T) {
	assert.Equal(t, khr_surface.PresentModeMailbox, presentModeFromConfig(config.PresentModeMailbox))
	assert.Equal(t, khr_surface.PresentModeImmediate, presentModeFromConfig(config.PresentModeImmediate))
	assert.Equal(t, khr_surface.PresentModeFIFO, presentModeFromConfig(config.PresentModeFIFO))
}

var undefinedExtent = int(uint32(0xFFFFFFFF))

func TestChooseSwapExtent(t *testing.T) {
	fixed := &khr_surface.SurfaceCapabilities{
		CurrentExtent: core1_0.Extent2D{Width: 1280, Height: 720},
	}
	assert.Equal(t, core1_0.Extent2D{Width: 1280, Height: 720}, chooseSwapExtent(fixed, 800, 600))

	flexible := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: undefinedExtent, Height: undefinedExtent},
		MinImageExtent: core1_0.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: core1_0.Extent2D{Width: 1000, Height: 500},
	}
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 500}, chooseSwapExtent(flexible, 800, 600))
	assert.Equal(t, core1_0.Extent2D{Width: 100, Height: 100}, chooseSwapExtent(flexible, 10, 10))
}

func TestSurfaceDecidesExtent(t *testing.T) {
	assert.True(t, surfaceDecidesExtent(core1_0.Extent2D{Width: undefinedExtent, Height: undefinedExtent}))
	assert.False(t, surfaceDecidesExtent(core1_0.Extent2D{Width: 1280, Height: 720}))
	assert.False(t, surfaceDecidesExtent(core1_0.Extent2D{}))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, 3, chooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}))
	assert.Equal(t, 3, chooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, 2, chooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
}

func TestQueueFamilyIndices(t *testing.T) {
	zero, one := 0, 1

	var empty QueueFamilyIndices
	assert.False(t, empty.IsComplete())
	assert.Nil(t, empty.Unique())
	assert.False(t, empty.Shared())

	shared := QueueFamilyIndices{GraphicsFamily: &zero, PresentFamily: &zero}
	assert.True(t, shared.IsComplete())
	assert.True(t, shared.Shared())
	assert.Equal(t, []int{0}, shared.Unique())

	split := QueueFamilyIndices{GraphicsFamily: &zero, PresentFamily: &one}
	assert.False(t, split.Shared())
	assert.Equal(t, []int{0, 1}, split.Unique())
}
