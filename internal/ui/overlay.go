// Package ui hosts the Dear ImGui overlay. The overlay builds its frame and
// draw data on the CPU only; it is disabled by default.
package ui

import (
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/pupsyengine/pupsy/internal/config"
)

const fallbackDelta = time.Second / 60

type DrawStats struct {
	Lists    int
	Vertices int
	Indices  int
}

type Overlay struct {
	logger  *slog.Logger
	enabled bool

	context *imgui.Context
	io      imgui.IO

	fonts     []imgui.Font
	fontNames []string

	width, height int
	delta         time.Duration
	projection    mgl32.Mat4
	stats         DrawStats
}

// New creates the ImGui context, loads the default font plus every
// configured TTF file, and builds the font atlas.
func New(logger *slog.Logger, cfg config.UI, width, height int) (*Overlay, error) {
	o := &Overlay{
		logger:  logger,
		enabled: cfg.Enabled,
		context: imgui.CreateContext(nil),
		delta:   fallbackDelta,
	}
	o.io = imgui.CurrentIO()

	atlas := o.io.Fonts()
	o.fonts = append(o.fonts, atlas.AddFontDefault())
	o.fontNames = append(o.fontNames, "default")

	for _, path := range cfg.Fonts {
		if _, err := os.Stat(path); err != nil {
			o.Destroy()
			return nil, errors.Wrap(err, "load ui font")
		}
		o.fonts = append(o.fonts, atlas.AddFontFromFileTTF(path, cfg.FontSize))
		o.fontNames = append(o.fontNames, path)
	}

	image := atlas.TextureDataRGBA32()
	logger.Debug("built ui font atlas", "fonts", len(o.fonts), "width", image.Width, "height", image.Height)

	o.resize(width, height)
	return o, nil
}

func (o *Overlay) Enabled() bool {
	return o.enabled
}

// NewFrame records the timing and display size for the next Render.
func (o *Overlay) NewFrame(delta time.Duration, width, height int) {
	if delta <= 0 {
		delta = fallbackDelta
	}
	o.delta = delta

	if width != o.width || height != o.height {
		o.resize(width, height)
	}
}

func (o *Overlay) resize(width, height int) {
	o.width, o.height = width, height
	o.projection = mgl32.Ortho2D(0, float32(width), 0, float32(height))
}

// Projection maps overlay pixel coordinates to Vulkan clip space.
func (o *Overlay) Projection() mgl32.Mat4 {
	return o.projection
}

// Stats describes the draw data produced by the last Render.
func (o *Overlay) Stats() DrawStats {
	return o.stats
}

// Render builds the overlay for the frame about to be submitted with
// commandBuffer. The draw data is not recorded into the command buffer.
func (o *Overlay) Render(commandBuffer core1_0.CommandBuffer) error {
	if !o.enabled {
		return nil
	}

	o.io.SetDeltaTime(float32(o.delta.Seconds()))
	o.io.SetDisplaySize(imgui.Vec2{X: float32(o.width), Y: float32(o.height)})

	imgui.NewFrame()

	open := true
	if imgui.BeginV("Hello world", &open, imgui.WindowFlagsAlwaysAutoResize) {
		for i, font := range o.fonts {
			imgui.PushFont(font)
			imgui.Text("Hello, I'm " + o.fontNames[i] + "!")
			imgui.PopFont()
		}
	}
	imgui.End()

	imgui.Render()
	o.collect(imgui.RenderedDrawData())

	o.logger.Debug("ui frame", "lists", o.stats.Lists, "vertices", o.stats.Vertices, "indices", o.stats.Indices)
	return nil
}

func (o *Overlay) collect(drawData imgui.DrawData) {
	o.stats = DrawStats{}
	if !drawData.Valid() {
		return
	}

	vertexSize, _, _, _ := imgui.VertexBufferLayout()
	indexSize := imgui.IndexBufferLayout()

	for _, list := range drawData.CommandLists() {
		_, vertexBytes := list.VertexBuffer()
		_, indexBytes := list.IndexBuffer()

		o.stats.Lists++
		o.stats.Vertices += vertexBytes / vertexSize
		o.stats.Indices += indexBytes / indexSize
	}
}

func (o *Overlay) Destroy() {
	if o.context != nil {
		o.context.Destroy()
		o.context = nil
	}
}
