package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/mirrorlab/internal/engine/input"
)

func snapshot(x, y int) guiInput {
	return guiInput{X: x, Y: y, Keys: map[input.Key]bool{}}
}

func TestDiffGUIInputMouse(t *testing.T) {
	prev := snapshot(10, 10)
	cur := snapshot(20, 30)
	cur.Buttons[0] = true

	events, seen := diffGUIInput(prev, cur)
	assert.Equal(t, []input.Event{
		{Type: input.EventMouseMove, MouseX: 20, MouseY: 30},
		{Type: input.EventMouseDown, Button: input.ButtonLeft, MouseX: 20, MouseY: 30},
	}, events)
	assert.True(t, seen.Buttons[0])

	up := snapshot(20, 30)
	events, seen = diffGUIInput(seen, up)
	assert.Equal(t, []input.Event{
		{Type: input.EventMouseUp, Button: input.ButtonLeft, MouseX: 20, MouseY: 30},
	}, events)
	assert.False(t, seen.Buttons[0])
}

func TestDiffGUIInputKeys(t *testing.T) {
	cur := snapshot(0, 0)
	cur.Keys[input.KeyW] = true
	cur.Keys[input.KeySpace] = true

	events, seen := diffGUIInput(snapshot(0, 0), cur)
	assert.Equal(t, []input.Event{
		{Type: input.EventKeyDown, Key: input.KeyW},
		{Type: input.EventKeyDown, Key: input.KeySpace},
	}, events)

	cur = snapshot(0, 0)
	cur.Keys[input.KeySpace] = true
	events, _ = diffGUIInput(seen, cur)
	assert.Equal(t, []input.Event{{Type: input.EventKeyUp, Key: input.KeyW}}, events)
}

func TestDiffGUIInputCaptured(t *testing.T) {
	cur := snapshot(50, 60)
	cur.Buttons[1] = true
	cur.Keys[input.KeyC] = true
	cur.MouseCaptured = true
	cur.KeyboardCaptured = true

	events, seen := diffGUIInput(snapshot(0, 0), cur)
	assert.Empty(t, events, "the panel consumes input")
	assert.False(t, seen.Buttons[1])
	assert.False(t, seen.Keys[input.KeyC])

	// Releasing what the panel consumed reaches nobody.
	events, _ = diffGUIInput(seen, snapshot(50, 60))
	assert.Equal(t, []input.Event{{Type: input.EventMouseMove, MouseX: 50, MouseY: 60}}, events)
}

func TestDiffGUIInputReleaseWhileCaptured(t *testing.T) {
	prev := snapshot(5, 5)
	prev.Buttons[1] = true
	prev.Keys[input.KeyW] = true

	cur := snapshot(5, 5)
	cur.MouseCaptured = true
	cur.KeyboardCaptured = true

	events, _ := diffGUIInput(prev, cur)
	assert.Equal(t, []input.Event{
		{Type: input.EventMouseUp, Button: input.ButtonRight, MouseX: 5, MouseY: 5},
		{Type: input.EventKeyUp, Key: input.KeyW},
	}, events)
}
