package app

// FrameHooks let the application act around the frames a host drives.
// Nil hooks are skipped.
type FrameHooks struct {
	// BeforeFrame runs before the frame's events are delivered.
	BeforeFrame func()
	// Resized receives the new framebuffer size in pixels.
	Resized func(width, height int)
	// AfterRender runs after the scene rendered and before the present.
	AfterRender func()
}

func (h FrameHooks) beforeFrame() {
	if h.BeforeFrame != nil {
		h.BeforeFrame()
	}
}

func (h FrameHooks) resized(w, ht int) {
	if h.Resized != nil {
		h.Resized(w, ht)
	}
}

func (h FrameHooks) afterRender() {
	if h.AfterRender != nil {
		h.AfterRender()
	}
}

// Host owns the window and drives the frame loop of a scene.
type Host interface {
	// Run blocks until the scene quits or the window closes.
	Run(s Scene, hooks FrameHooks) error
	// FramebufferSize is the drawable size in pixels.
	FramebufferSize() (int, int)
	// WindowSize is the size in the units of mouse events.
	WindowSize() (int, int)
	// Offscreen reports whether the host draws the scene output itself,
	// so the scene must not render into the back buffer.
	Offscreen() bool
	Close()
}
