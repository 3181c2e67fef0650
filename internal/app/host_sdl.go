package app

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/mirrorlab/internal/engine/input"
	"github.com/Faultbox/mirrorlab/internal/engine/window"
)

// SDLHost presents the scene straight to an SDL window, without a GUI.
type SDLHost struct {
	win   *window.Window
	clock *FrameClock
}

var _ Host = (*SDLHost)(nil)

// NewSDLHost opens the window. The GL context is current on return.
func NewSDLHost(cfg window.Config) (*SDLHost, error) {
	win, err := window.New(cfg)
	if err != nil {
		return nil, err
	}
	return &SDLHost{win: win}, nil
}

// FramebufferSize implements Host.
func (h *SDLHost) FramebufferSize() (int, int) { return h.win.DrawableSize() }

// WindowSize implements Host.
func (h *SDLHost) WindowSize() (int, int) { return h.win.GetSize() }

// Offscreen implements Host.
func (h *SDLHost) Offscreen() bool { return false }

// Run implements Host.
func (h *SDLHost) Run(s Scene, hooks FrameHooks) error {
	h.clock = NewFrameClock()
	dt := 0.0

	for !s.Quit() {
		hooks.beforeFrame()

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			e, ok := translateSDLEvent(event)
			if !ok {
				continue
			}
			if e.Type == input.EventWindowResize {
				// Mouse events use window units; the scene renders in pixels.
				e.Width, e.Height = h.win.GetSize()
				fw, fh := h.win.DrawableSize()
				hooks.resized(fw, fh)
			}
			s.HandleEvent(e)
		}

		s.Update(dt)
		s.Render()
		hooks.afterRender()
		h.win.SwapBuffers()

		dt = h.clock.Tick()
		h.win.SetTitle(fmt.Sprintf("%s - %s", h.win.Title(), h.clock.Stats()))
	}
	return nil
}

// Close implements Host.
func (h *SDLHost) Close() {
	h.win.Close()
}

// translateSDLEvent maps an SDL event to an input event. Key repeats and
// unbound keys are dropped.
func translateSDLEvent(event sdl.Event) (input.Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return input.Event{Type: input.EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return input.Event{
				Type:   input.EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			}, true
		}

	case *sdl.MouseMotionEvent:
		return input.Event{
			Type:   input.EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
		}, true

	case *sdl.MouseButtonEvent:
		button, ok := sdlButton(e.Button)
		if !ok {
			return input.Event{}, false
		}
		t := input.EventMouseUp
		if e.State == sdl.PRESSED {
			t = input.EventMouseDown
		}
		return input.Event{
			Type:   t,
			Button: button,
			MouseX: int(e.X),
			MouseY: int(e.Y),
		}, true

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return input.Event{}, false
		}
		key, ok := sdlKeys[e.Keysym.Scancode]
		if !ok {
			return input.Event{}, false
		}
		t := input.EventKeyUp
		if e.State == sdl.PRESSED {
			t = input.EventKeyDown
		}
		return input.Event{Type: t, Key: key}, true
	}
	return input.Event{}, false
}

// sdlKeys binds physical key positions, so WASD stays in place on any layout.
var sdlKeys = map[sdl.Scancode]input.Key{
	sdl.SCANCODE_W:      input.KeyW,
	sdl.SCANCODE_A:      input.KeyA,
	sdl.SCANCODE_S:      input.KeyS,
	sdl.SCANCODE_D:      input.KeyD,
	sdl.SCANCODE_Q:      input.KeyQ,
	sdl.SCANCODE_E:      input.KeyE,
	sdl.SCANCODE_F:      input.KeyF,
	sdl.SCANCODE_C:      input.KeyC,
	sdl.SCANCODE_SPACE:  input.KeySpace,
	sdl.SCANCODE_ESCAPE: input.KeyEscape,
}

func sdlButton(b uint8) (input.Button, bool) {
	switch b {
	case sdl.BUTTON_LEFT:
		return input.ButtonLeft, true
	case sdl.BUTTON_MIDDLE:
		return input.ButtonMiddle, true
	case sdl.BUTTON_RIGHT:
		return input.ButtonRight, true
	}
	return 0, false
}
