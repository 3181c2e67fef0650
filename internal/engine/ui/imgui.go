// Package ui provides the ImGui window host and the widgets of the scene
// control panel.
package ui

import (
	"fmt"
	"os"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
)

// Backend wraps the ImGui SDL backend. It owns the window and GL context.
type Backend struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
}

// NewBackend creates the ImGui backend and its window. The GL context is
// current when it returns and presents with VSync.
func NewBackend(title string, width, height int32) (*Backend, error) {
	b := &Backend{}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	// Set up font loading hook before creating window
	b.backend.SetAfterCreateContextHook(func() {
		b.loadFont()
	})

	b.backend.SetBgColor(imgui.NewVec4(0, 0, 0, 1))
	b.backend.CreateWindow(title, int(width), int(height))

	return b, nil
}

// loadFont swaps the default bitmap font for a system TrueType font when
// one is available.
func (b *Backend) loadFont() {
	fontPaths := []string{
		"/System/Library/Fonts/Supplemental/Arial.ttf",             // macOS
		"C:\\Windows\\Fonts\\segoeui.ttf",                          // Windows
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",          // Linux
		"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf",      // Linux alt
		"/usr/share/fonts/TTF/DejaVuSans.ttf",                      // Arch
		"/usr/share/fonts/dejavu-sans-fonts/DejaVuSans.ttf",        // Fedora
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	}

	var fontPath string
	for _, path := range fontPaths {
		if _, err := os.Stat(path); err == nil {
			fontPath = path
			break
		}
	}

	if fontPath == "" {
		return
	}

	fontCfg := imgui.NewFontConfig()
	defer fontCfg.Destroy()

	imgui.CurrentIO().Fonts().AddFontFromFileTTFV(fontPath, 16.0, fontCfg, nil)
}

// Run starts the main render loop. The function runs once per frame
// between the ImGui frame start and the GUI draw.
func (b *Backend) Run(renderFunc func()) {
	b.backend.Run(renderFunc)
}

// Quit ends Run after the current frame.
func (b *Backend) Quit() {
	b.backend.SetShouldClose(true)
}

// SetWindowTitle updates the window title.
func (b *Backend) SetWindowTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// DisplaySize returns the window size in screen coordinates and the
// framebuffer size in pixels.
func (b *Backend) DisplaySize() (width, height, fbWidth, fbHeight int) {
	io := imgui.CurrentIO()
	size := io.DisplaySize()
	scale := io.DisplayFramebufferScale()
	if scale.X <= 0 || scale.Y <= 0 {
		scale = imgui.NewVec2(1, 1)
	}
	return int(size.X), int(size.Y), int(size.X * scale.X), int(size.Y * scale.Y)
}

// WantsMouse reports whether ImGui is using the mouse this frame.
func WantsMouse() bool {
	return imgui.CurrentIO().WantCaptureMouse()
}

// WantsKeyboard reports whether ImGui is using the keyboard this frame.
func WantsKeyboard() bool {
	return imgui.CurrentIO().WantCaptureKeyboard()
}

// MousePos returns the cursor in screen coordinates.
func MousePos() (float32, float32) {
	p := imgui.MousePos()
	return p.X, p.Y
}

// IsMouseDown checks if a mouse button is held. 0 is left, 1 right,
// 2 middle.
func IsMouseDown(button int) bool {
	return imgui.IsMouseDown(imgui.MouseButton(button))
}

// IsKeyDown checks if a key is currently held down.
func IsKeyDown(key imgui.Key) bool {
	return imgui.IsKeyDown(key)
}

// DrawBackground fills the window with a GL texture. GL textures start at
// the bottom row, so V is flipped.
func DrawBackground(textureID uint32, w, h float32) {
	if textureID == 0 {
		return
	}

	imgui.SetNextWindowPos(imgui.NewVec2(0, 0))
	imgui.SetNextWindowSize(imgui.NewVec2(w, h))

	flags := imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoResize |
		imgui.WindowFlagsNoMove | imgui.WindowFlagsNoScrollbar |
		imgui.WindowFlagsNoScrollWithMouse | imgui.WindowFlagsNoBringToFrontOnFocus |
		imgui.WindowFlagsNoInputs | imgui.WindowFlagsNoSavedSettings

	imgui.PushStyleVarVec2(imgui.StyleVarWindowPadding, imgui.NewVec2(0, 0))
	if imgui.BeginV("##SceneBackground", nil, flags) {
		texRef := imgui.NewTextureRefTextureID(imgui.TextureID(textureID))
		imgui.ImageV(*texRef,
			imgui.NewVec2(w, h),
			imgui.NewVec2(0, 1),
			imgui.NewVec2(1, 0))
	}
	imgui.End()
	imgui.PopStyleVar()
}
