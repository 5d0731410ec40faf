// Package engine ties the window, renderer, UI overlay and frame counter
// together and runs the main loop.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pupsyengine/pupsy/internal/config"
	"github.com/pupsyengine/pupsy/internal/fps"
	"github.com/pupsyengine/pupsy/internal/mesh"
	"github.com/pupsyengine/pupsy/internal/render"
	"github.com/pupsyengine/pupsy/internal/ui"
	"github.com/pupsyengine/pupsy/internal/window"
)

const pausedPoll = 10 * time.Millisecond

type eventSource interface {
	PollEvents() []window.Event
	DrawableSize() (int, int)
}

type frameRenderer interface {
	DrawFrame() (bool, error)
	MarkResized()
	WaitIdle() error
}

type frameHook interface {
	NewFrame(delta time.Duration, width, height int)
}

type Engine struct {
	logger   *slog.Logger
	events   eventSource
	renderer frameRenderer
	hook     frameHook
	counter  *fps.Counter

	running bool
	paused  bool

	closers []func()
}

// New opens the window and brings up the renderer and overlay for geometry.
func New(logger *slog.Logger, cfg config.Config, geometry mesh.Mesh) (*Engine, error) {
	win, err := window.Open(cfg.Window)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(logger, cfg, win, geometry)
	if err != nil {
		win.Destroy()
		return nil, errors.Wrap(err, "create renderer")
	}

	width, height := win.DrawableSize()
	overlay, err := ui.New(logger, cfg.UI, width, height)
	if err != nil {
		_ = renderer.Close()
		win.Destroy()
		return nil, errors.Wrap(err, "create ui overlay")
	}
	renderer.SetOverlay(overlay)

	e := newEngine(logger, win, renderer, overlay, fps.NewCounter(logger, cfg.FPS.ReportInterval))
	e.closers = []func(){
		overlay.Destroy,
		func() {
			if err := renderer.Close(); err != nil {
				logger.Error("close renderer", "error", err)
			}
		},
		win.Destroy,
	}
	return e, nil
}

func newEngine(logger *slog.Logger, events eventSource, renderer frameRenderer, hook frameHook, counter *fps.Counter) *Engine {
	return &Engine{
		logger:   logger,
		events:   events,
		renderer: renderer,
		hook:     hook,
		counter:  counter,
		running:  true,
	}
}

// Run loops until the window asks to quit, ctx is cancelled or a frame
// fails. The device is idle when Run returns.
func (e *Engine) Run(ctx context.Context) error {
	err := e.loop(ctx)

	idleErr := e.renderer.WaitIdle()
	if err != nil {
		return err
	}
	return errors.Wrap(idleErr, "wait for device idle")
}

func (e *Engine) loop(ctx context.Context) error {
	for e.running {
		if ctx.Err() != nil {
			e.logger.Info("engine stopped", "reason", context.Cause(ctx))
			return nil
		}

		e.handle(e.events.PollEvents())
		if !e.running {
			break
		}

		if e.paused {
			time.Sleep(pausedPoll)
			continue
		}

		width, height := e.events.DrawableSize()
		e.hook.NewFrame(e.counter.Delta(), width, height)

		drawn, err := e.renderer.DrawFrame()
		if err != nil {
			return errors.Wrap(err, "draw frame")
		}
		if !drawn {
			// zero-sized drawable; wait for the window to come back
			time.Sleep(pausedPoll)
			continue
		}
		e.counter.Tick()
	}

	e.logger.Info("engine stopped", "frames", e.counter.Frames())
	return nil
}

func (e *Engine) handle(events []window.Event) {
	for _, event := range events {
		switch event.Kind {
		case window.EventQuit:
			e.running = false
		case window.EventResized:
			e.renderer.MarkResized()
		case window.EventMinimized:
			e.paused = true
		case window.EventRestored:
			e.paused = false
		}
		e.logger.Debug("window event", "kind", event.Kind, "width", event.Width, "height", event.Height)
	}
}

// Close releases the overlay, renderer and window.
func (e *Engine) Close() {
	for _, closer := range e.closers {
		closer()
	}
	e.closers = nil
}
