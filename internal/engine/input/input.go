// Package input tracks keyboard and mouse state from window events.
package input

import "github.com/Faultbox/mirrorlab/pkg/math"

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
)

// Key is a keyboard key the application binds.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyF
	KeyC
	KeySpace
	KeyEscape
)

// Button is a mouse button.
type Button uint8

const (
	ButtonLeft Button = iota + 1
	ButtonMiddle
	ButtonRight
)

// Event is one window event translated by the host.
type Event struct {
	Type   EventType
	Key    Key
	Width  int
	Height int
	MouseX int
	MouseY int
	Button Button
}

// MouseState is the cursor and button state.
type MouseState struct {
	X, Y       int
	NDCX, NDCY float32
	Left       bool
	Right      bool
	// DragStart is set when a button goes down while it was up. The picking
	// controller clears it once it has recorded the drag reference.
	DragStart bool
}

// ScreenToNDC converts pixel coordinates to normalized device coordinates
// with +Y up, clamped to [-1, 1].
func ScreenToNDC(x, y, width, height int) (float32, float32) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	ndcX := float32(x)*2/float32(width) - 1
	ndcY := -float32(y)*2/float32(height) + 1
	return math.Clamp(ndcX, -1, 1), math.Clamp(ndcY, -1, 1)
}

// State accumulates events into held keys and mouse state.
type State struct {
	Mouse MouseState

	keys   map[Key]bool
	width  int
	height int
}

// New creates an input state for a screen size.
func New(width, height int) *State {
	return &State{
		keys:   make(map[Key]bool),
		width:  width,
		height: height,
	}
}

// Apply updates the held state from an event.
func (s *State) Apply(e Event) {
	switch e.Type {
	case EventWindowResize:
		s.width, s.height = e.Width, e.Height

	case EventKeyDown:
		s.keys[e.Key] = true

	case EventKeyUp:
		s.keys[e.Key] = false

	case EventMouseMove:
		s.moveTo(e.MouseX, e.MouseY)

	case EventMouseDown:
		s.moveTo(e.MouseX, e.MouseY)
		switch e.Button {
		case ButtonLeft:
			if !s.Mouse.Left {
				s.Mouse.DragStart = true
			}
			s.Mouse.Left = true
		case ButtonRight:
			if !s.Mouse.Right {
				s.Mouse.DragStart = true
			}
			s.Mouse.Right = true
		}

	case EventMouseUp:
		switch e.Button {
		case ButtonLeft:
			s.Mouse.Left = false
		case ButtonRight:
			s.Mouse.Right = false
		}
	}
}

func (s *State) moveTo(x, y int) {
	s.Mouse.X, s.Mouse.Y = x, y
	s.Mouse.NDCX, s.Mouse.NDCY = ScreenToNDC(x, y, s.width, s.height)
}

// Held reports whether a key is down.
func (s *State) Held(k Key) bool {
	return s.keys[k]
}
