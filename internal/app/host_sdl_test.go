package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/mirrorlab/internal/engine/input"
)

func TestTranslateSDLEvent(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		want  input.Event
		ok    bool
	}{
		{
			name:  "quit",
			event: &sdl.QuitEvent{Type: sdl.QUIT},
			want:  input.Event{Type: input.EventQuit},
			ok:    true,
		},
		{
			name:  "resize",
			event: &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600},
			want:  input.Event{Type: input.EventWindowResize, Width: 800, Height: 600},
			ok:    true,
		},
		{
			name:  "window focus is ignored",
			event: &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_FOCUS_GAINED},
		},
		{
			name:  "mouse move",
			event: &sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, X: 12, Y: 34},
			want:  input.Event{Type: input.EventMouseMove, MouseX: 12, MouseY: 34},
			ok:    true,
		},
		{
			name:  "right button down",
			event: &sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_RIGHT, State: sdl.PRESSED, X: 1, Y: 2},
			want:  input.Event{Type: input.EventMouseDown, Button: input.ButtonRight, MouseX: 1, MouseY: 2},
			ok:    true,
		},
		{
			name:  "left button up",
			event: &sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONUP, Button: sdl.BUTTON_LEFT, State: sdl.RELEASED},
			want:  input.Event{Type: input.EventMouseUp, Button: input.ButtonLeft},
			ok:    true,
		},
		{
			name:  "extra buttons are ignored",
			event: &sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_X1, State: sdl.PRESSED},
		},
		{
			name: "key down",
			event: &sdl.KeyboardEvent{Type: sdl.KEYDOWN, State: sdl.PRESSED,
				Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_SPACE}},
			want: input.Event{Type: input.EventKeyDown, Key: input.KeySpace},
			ok:   true,
		},
		{
			name: "key up",
			event: &sdl.KeyboardEvent{Type: sdl.KEYUP, State: sdl.RELEASED,
				Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_C}},
			want: input.Event{Type: input.EventKeyUp, Key: input.KeyC},
			ok:   true,
		},
		{
			name: "key repeat is dropped",
			event: &sdl.KeyboardEvent{Type: sdl.KEYDOWN, State: sdl.PRESSED, Repeat: 1,
				Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}},
		},
		{
			name: "unbound key",
			event: &sdl.KeyboardEvent{Type: sdl.KEYDOWN, State: sdl.PRESSED,
				Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_Z}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translateSDLEvent(tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
