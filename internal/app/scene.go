// Package app runs a scene inside a window host: it owns the frame loop,
// the input translation and the debug UI wiring.
package app

import (
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/input"
)

// Scene is a demo the hosts can run.
type Scene interface {
	// HandleEvent receives every input event before the frame's Update.
	HandleEvent(e input.Event)
	// Update advances the scene by dt seconds.
	Update(dt float64)
	// Render draws one frame into Output.
	Render()
	// DescribeDebugUI lays out the scene's controls. Hosts without a GUI
	// never call it.
	DescribeDebugUI(ui DebugUI)
	// Resize follows the framebuffer size in pixels.
	Resize(width, height int)
	// Output is the texture holding the final image.
	Output() *gpu.Texture
	// Quit reports whether the scene asked to stop.
	Quit() bool
	Close() error
}

// DebugUI is the immediate-mode widget set a scene describes its controls
// with. Value widgets edit through the pointer and report a change.
type DebugUI interface {
	TreeNode(label string, open bool) bool
	TreePop()
	Text(text string)
	SameLine()
	Button(label string) bool
	Checkbox(label string, v *bool) bool
	CheckboxFlag(label string, v *int32) bool
	SliderFloat(label string, v *float32, lo, hi float32) bool
	RadioButton(label string, v *int32, value int32) bool
}
