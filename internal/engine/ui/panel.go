package ui

import "github.com/AllenDang/cimgui-go/imgui"

// Panel draws control widgets with ImGui. Every method returns true when the
// user changed the value this frame.
type Panel struct{}

// Begin opens a window at the top-left corner. End must always be called.
func (Panel) Begin(title string) bool {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(330, 0), imgui.CondOnce)
	return imgui.BeginV(title, nil, imgui.WindowFlagsNone)
}

// End closes the window opened by Begin.
func (Panel) End() {
	imgui.End()
}

// TreeNode opens a collapsible section. TreePop must follow when it returns
// true.
func (Panel) TreeNode(label string, open bool) bool {
	flags := imgui.TreeNodeFlagsNone
	if open {
		flags = imgui.TreeNodeFlagsDefaultOpen
	}
	return imgui.TreeNodeExStrV(label, flags)
}

// TreePop closes a section opened by TreeNode.
func (Panel) TreePop() {
	imgui.TreePop()
}

// Text draws a line of text.
func (Panel) Text(text string) {
	imgui.Text(text)
}

// SameLine keeps the next widget on the current line.
func (Panel) SameLine() {
	imgui.SameLine()
}

// Button draws a button and reports a click.
func (Panel) Button(label string) bool {
	return imgui.Button(label)
}

// Checkbox edits a boolean.
func (Panel) Checkbox(label string, v *bool) bool {
	return imgui.Checkbox(label, v)
}

// CheckboxFlag edits an int used as a 0/1 shader flag.
func (Panel) CheckboxFlag(label string, v *int32) bool {
	on := *v != 0
	if !imgui.Checkbox(label, &on) {
		return false
	}
	*v = 0
	if on {
		*v = 1
	}
	return true
}

// SliderFloat edits a float within [lo, hi].
func (Panel) SliderFloat(label string, v *float32, lo, hi float32) bool {
	return imgui.SliderFloatV(label, v, lo, hi, "%.3f", imgui.SliderFlagsNone)
}

// RadioButton sets v to value when clicked.
func (Panel) RadioButton(label string, v *int32, value int32) bool {
	if !imgui.RadioButtonBool(label, *v == value) {
		return false
	}
	*v = value
	return true
}
