package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		want  Event
		ok    bool
	}{
		{"quit", &sdl.QuitEvent{}, Event{Kind: EventQuit}, true},
		{"escape pressed", &sdl.KeyboardEvent{State: sdl.PRESSED, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}, Event{Kind: EventQuit}, true},
		{"escape released", &sdl.KeyboardEvent{State: sdl.RELEASED, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}, Event{}, false},
		{"other key", &sdl.KeyboardEvent{State: sdl.PRESSED, Keysym: sdl.Keysym{Sym: sdl.K_a}}, Event{}, false},
		{"close", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_CLOSE}, Event{Kind: EventQuit}, true},
		{"minimized", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_MINIMIZED}, Event{Kind: EventMinimized}, true},
		{"restored", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESTORED}, Event{Kind: EventRestored}, true},
		{"resized", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 640, Data2: 480}, Event{Kind: EventResized, Width: 640, Height: 480}, true},
		{"focus", &sdl.WindowEvent{Event: sdl.WINDOWEVENT_FOCUS_GAINED}, Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translate(tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "quit", EventQuit.String())
	assert.Equal(t, "resized", EventResized.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}
