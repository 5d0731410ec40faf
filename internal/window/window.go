// Package window owns the SDL2 window the renderer presents into and turns
// SDL events into engine events.
package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/pupsyengine/pupsy/internal/config"
)

type EventKind int

const (
	EventQuit EventKind = iota
	EventResized
	EventMinimized
	EventRestored
)

func (k EventKind) String() string {
	switch k {
	case EventQuit:
		return "quit"
	case EventResized:
		return "resized"
	case EventMinimized:
		return "minimized"
	case EventRestored:
		return "restored"
	}
	return "unknown"
}

type Event struct {
	Kind          EventKind
	Width, Height int
}

type Window struct {
	window *sdl.Window
}

// Open initializes SDL video and creates a Vulkan-capable window. The caller
// must be on the main OS thread.
func Open(cfg config.Window) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}

	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_VULKAN)
	if cfg.Resizable {
		flags |= sdl.WINDOW_RESIZABLE
	}

	window, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return &Window{window: window}, nil
}

// PollEvents drains the SDL queue and returns the events the engine reacts to.
func (w *Window) PollEvents() []Event {
	var events []Event
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if e, ok := translate(event); ok {
			events = append(events, e)
		}
	}
	return events
}

func translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Kind: EventQuit}, true
	case *sdl.KeyboardEvent:
		if e.Keysym.Sym == sdl.K_ESCAPE && e.State == sdl.PRESSED {
			return Event{Kind: EventQuit}, true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return Event{Kind: EventQuit}, true
		case sdl.WINDOWEVENT_MINIMIZED:
			return Event{Kind: EventMinimized}, true
		case sdl.WINDOWEVENT_RESTORED:
			return Event{Kind: EventRestored}, true
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			return Event{Kind: EventResized, Width: int(e.Data1), Height: int(e.Data2)}, true
		}
	}

	return Event{}, false
}

// DrawableSize is the size of the Vulkan drawable in pixels.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) Minimized() bool {
	return w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0
}

func (w *Window) VulkanInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// SDL exposes the underlying window for surface creation.
func (w *Window) SDL() *sdl.Window {
	return w.window
}

func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
