package app

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/Faultbox/mirrorlab/internal/engine/input"
	"github.com/Faultbox/mirrorlab/internal/engine/ui"
)

const controlWindowTitle = "Scene Control"

// GUIHost runs the scene under the ImGui backend with the control panel on
// top. The scene renders offscreen and the host draws its output as the
// window background.
type GUIHost struct {
	backend *ui.Backend
	panel   ui.Panel
	clock   *FrameClock

	prev   guiInput
	fbW    int
	fbH    int
	width  int
	height int
}

var _ Host = (*GUIHost)(nil)

// NewGUIHost opens the ImGui window. The GL context is current on return.
func NewGUIHost(title string, width, height int) (*GUIHost, error) {
	b, err := ui.NewBackend(title, int32(width), int32(height))
	if err != nil {
		return nil, err
	}
	return &GUIHost{backend: b, width: width, height: height, fbW: width, fbH: height}, nil
}

// FramebufferSize implements Host.
func (h *GUIHost) FramebufferSize() (int, int) { return h.fbW, h.fbH }

// WindowSize implements Host.
func (h *GUIHost) WindowSize() (int, int) { return h.width, h.height }

// Offscreen implements Host.
func (h *GUIHost) Offscreen() bool { return true }

// Run implements Host.
func (h *GUIHost) Run(s Scene, hooks FrameHooks) error {
	h.clock = NewFrameClock()
	dt := 0.0

	h.backend.Run(func() {
		hooks.beforeFrame()

		w, ht, fbW, fbH := h.backend.DisplaySize()
		if w > 0 && ht > 0 && (w != h.width || ht != h.height || fbW != h.fbW || fbH != h.fbH) {
			h.width, h.height, h.fbW, h.fbH = w, ht, fbW, fbH
			hooks.resized(fbW, fbH)
			s.HandleEvent(input.Event{Type: input.EventWindowResize, Width: w, Height: ht})
		}

		events, next := diffGUIInput(h.prev, pollGUIInput())
		for _, e := range events {
			s.HandleEvent(e)
		}
		h.prev = next

		s.Update(dt)
		s.Render()
		hooks.afterRender()

		ui.DrawBackground(uint32(s.Output().ID), float32(h.width), float32(h.height))
		if h.panel.Begin(controlWindowTitle) {
			h.panel.Text(h.clock.Stats())
			s.DescribeDebugUI(h.panel)
		}
		h.panel.End()

		if s.Quit() {
			h.backend.Quit()
		}
		dt = h.clock.Tick()
	})
	return nil
}

// Close implements Host. The backend releases its window when Run returns.
func (h *GUIHost) Close() {}

// guiInput is a snapshot of the input state ImGui sees.
type guiInput struct {
	X, Y    int
	Buttons [3]bool
	Keys    map[input.Key]bool

	// Captured marks state ImGui consumes for its own widgets.
	MouseCaptured    bool
	KeyboardCaptured bool
}

// guiKeys binds ImGui keys to scene keys.
var guiKeys = []struct {
	key   input.Key
	imgui imgui.Key
}{
	{input.KeyW, imgui.KeyW},
	{input.KeyA, imgui.KeyA},
	{input.KeyS, imgui.KeyS},
	{input.KeyD, imgui.KeyD},
	{input.KeyQ, imgui.KeyQ},
	{input.KeyE, imgui.KeyE},
	{input.KeyF, imgui.KeyF},
	{input.KeyC, imgui.KeyC},
	{input.KeySpace, imgui.KeySpace},
	{input.KeyEscape, imgui.KeyEscape},
}

// guiButtons is indexed like guiInput.Buttons, in ImGui button order.
var guiButtons = [3]input.Button{input.ButtonLeft, input.ButtonRight, input.ButtonMiddle}

func pollGUIInput() guiInput {
	x, y := ui.MousePos()
	in := guiInput{
		X:                int(x),
		Y:                int(y),
		Keys:             make(map[input.Key]bool, len(guiKeys)),
		MouseCaptured:    ui.WantsMouse(),
		KeyboardCaptured: ui.WantsKeyboard(),
	}
	for i := range in.Buttons {
		in.Buttons[i] = ui.IsMouseDown(i)
	}
	for _, k := range guiKeys {
		in.Keys[k.key] = ui.IsKeyDown(k.imgui)
	}
	return in
}

// diffGUIInput turns two snapshots into events and returns the state the
// scene now sees. While ImGui captures a device only releases reach the
// scene, so nothing stays stuck down and nothing pressed on the panel
// reaches the scene.
func diffGUIInput(prev, cur guiInput) ([]input.Event, guiInput) {
	var events []input.Event
	seen := guiInput{X: prev.X, Y: prev.Y, Keys: make(map[input.Key]bool, len(guiKeys))}

	if !cur.MouseCaptured && (cur.X != prev.X || cur.Y != prev.Y) {
		events = append(events, input.Event{Type: input.EventMouseMove, MouseX: cur.X, MouseY: cur.Y})
		seen.X, seen.Y = cur.X, cur.Y
	}

	for i, down := range cur.Buttons {
		was := prev.Buttons[i]
		seen.Buttons[i] = was
		switch {
		case down && !was && !cur.MouseCaptured:
			events = append(events, input.Event{
				Type: input.EventMouseDown, Button: guiButtons[i], MouseX: cur.X, MouseY: cur.Y,
			})
			seen.Buttons[i] = true
		case !down && was:
			events = append(events, input.Event{
				Type: input.EventMouseUp, Button: guiButtons[i], MouseX: cur.X, MouseY: cur.Y,
			})
			seen.Buttons[i] = false
		}
	}

	for _, k := range guiKeys {
		down, was := cur.Keys[k.key], prev.Keys[k.key]
		seen.Keys[k.key] = was
		switch {
		case down && !was && !cur.KeyboardCaptured:
			events = append(events, input.Event{Type: input.EventKeyDown, Key: k.key})
			seen.Keys[k.key] = true
		case !down && was:
			events = append(events, input.Event{Type: input.EventKeyUp, Key: k.key})
			seen.Keys[k.key] = false
		}
	}
	return events, seen
}
