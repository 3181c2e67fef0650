package app

import (
	"errors"
	"fmt"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/config"
	"github.com/Faultbox/mirrorlab/internal/engine/camera"
	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/debug"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/graphics"
	"github.com/Faultbox/mirrorlab/internal/engine/input"
	"github.com/Faultbox/mirrorlab/internal/engine/picking"
	"github.com/Faultbox/mirrorlab/internal/engine/postprocess"
	"github.com/Faultbox/mirrorlab/internal/engine/renderer"
	"github.com/Faultbox/mirrorlab/internal/engine/scene"
	"github.com/Faultbox/mirrorlab/internal/engine/shadow"
	"github.com/Faultbox/mirrorlab/internal/logger"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// MirrorOptions configure a MirrorScene.
type MirrorOptions struct {
	// Width and Height are the framebuffer size in pixels.
	Width  int
	Height int
	// WindowWidth and WindowHeight are the window size in the units of
	// mouse events. Zero uses the framebuffer size.
	WindowWidth  int
	WindowHeight int
	// Offscreen renders into a texture instead of the back buffer.
	Offscreen bool

	Render  config.RenderConfig
	Camera  camera.Config
	Scene   config.SceneConfig
	Capture config.CaptureConfig
}

// MirrorScene is the planar mirror demo: a model above a reflecting ground
// lit by two shadow casting spot lights.
type MirrorScene struct {
	dev gpu.Device
	ctx gpu.Context

	res      *graphics.Resources
	consts   *constants.Manager
	scene    *scene.Scene
	renderer *renderer.Renderer

	camera  *camera.Camera
	picker  picking.Controller
	lights  *shadow.Updater
	input   *input.State
	capture *debug.Capture

	captureRequested  bool
	snapshotRequested bool
	quit              bool

	// The debug UI draws the output texture of the frame it edits, so MSAA
	// changes wait for the next Update.
	msaaPending bool
	msaaWanted  bool

	// renderBase keeps the creation-only render settings for RenderConfig.
	renderBase config.RenderConfig

	// SaveSettings persists the render settings. Nil hides the control.
	SaveSettings func(config.RenderConfig) error

	// chooseModel asks the user for a model file. It runs off the render
	// thread; the choice arrives through pendingModel.
	chooseModel  func() (string, error)
	pendingModel chan string

	log *zap.Logger
}

var _ Scene = (*MirrorScene)(nil)

// NewMirrorScene builds the scene and every GPU object it renders with.
// Any creation failure is returned and nothing is left allocated.
func NewMirrorScene(dev gpu.Device, ctx gpu.Context, opts MirrorOptions) (_ *MirrorScene, err error) {
	s := &MirrorScene{
		dev:          dev,
		ctx:          ctx,
		chooseModel:  openModelDialog,
		pendingModel: make(chan string, 1),
		log:          logger.Named("mirror"),
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if s.res, err = graphics.New(dev); err != nil {
		return nil, fmt.Errorf("graphics resources: %w", err)
	}
	if s.consts, err = constants.NewManager(dev, ctx); err != nil {
		return nil, err
	}
	scene.DefaultLights(&s.consts.Global)

	s.scene, err = scene.New(dev, scene.Options{
		ModelPath:      opts.Scene.ModelPath,
		EnvironmentDir: opts.Scene.EnvironmentDir,
	}, s.consts.Global.Lights)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	s.renderer, err = renderer.New(dev, ctx, s.res, renderer.Config{
		Width:            opts.Width,
		Height:           opts.Height,
		MSAA:             opts.Render.MSAA,
		Samples:          opts.Render.Samples,
		ShadowResolution: opts.Render.ShadowResolution,
		BloomLevels:      opts.Render.BloomLevels,
		Offscreen:        opts.Offscreen,
	})
	if err != nil {
		return nil, err
	}

	s.camera = camera.New(opts.Camera)
	s.camera.SetAspectRatio(s.renderer.AspectRatio())
	s.lights = shadow.NewUpdater()
	s.lights.Rotate = opts.Scene.LightRotation

	ww, wh := opts.WindowWidth, opts.WindowHeight
	if ww <= 0 || wh <= 0 {
		ww, wh = opts.Width, opts.Height
	}
	s.input = input.New(ww, wh)
	s.capture = debug.NewCapture(opts.Capture.Dir, opts.Capture.Prefix)
	s.renderBase = opts.Render

	if err = s.ApplyRenderConfig(opts.Render); err != nil {
		return nil, err
	}

	s.log.Info("scene ready",
		zap.String("model", opts.Scene.ModelPath),
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
	)
	return s, nil
}

// ApplyRenderConfig applies the runtime tunables of the render section.
// The buffer layout settings only take effect at creation.
func (s *MirrorScene) ApplyRenderConfig(rc config.RenderConfig) error {
	r := s.renderer
	r.Wireframe = rc.Wireframe
	r.MirrorAlpha = math.Clamp(rc.MirrorAlpha, 0, 1)
	r.PostEffects.FogStrength = rc.FogStrength
	r.PostEffects.DepthScale = rc.DepthScale
	r.SetPostProcessing(postprocess.Settings{
		BloomStrength: rc.BloomStrength,
		Exposure:      rc.Exposure,
		Gamma:         rc.Gamma,
	})
	s.consts.Global.IBLStrength = rc.IBLStrength
	return r.SetMSAA(rc.MSAA)
}

// RenderConfig reports the current render settings, including the edits
// made through the debug UI.
func (s *MirrorScene) RenderConfig() config.RenderConfig {
	r := s.renderer
	pp := r.PostProcessing()
	rc := s.renderBase
	rc.MSAA = s.msaa()
	rc.Wireframe = r.Wireframe
	rc.MirrorAlpha = r.MirrorAlpha
	rc.BloomStrength = pp.BloomStrength
	rc.Exposure = pp.Exposure
	rc.Gamma = pp.Gamma
	rc.IBLStrength = s.consts.Global.IBLStrength
	rc.FogStrength = r.PostEffects.FogStrength
	rc.DepthScale = r.PostEffects.DepthScale
	return rc
}

// HandleEvent implements Scene.
func (s *MirrorScene) HandleEvent(e input.Event) {
	s.input.Apply(e)

	switch e.Type {
	case input.EventQuit:
		s.quit = true

	case input.EventMouseMove:
		s.camera.UpdateMouse(s.input.Mouse.NDCX, s.input.Mouse.NDCY)

	case input.EventKeyDown:
		switch e.Key {
		case input.KeyEscape:
			s.quit = true
		case input.KeySpace:
			s.lights.Rotate = !s.lights.Rotate
		}

	case input.EventKeyUp:
		switch e.Key {
		case input.KeyF:
			s.camera.FirstPerson = !s.camera.FirstPerson
		case input.KeyC:
			s.captureRequested = true
		}
	}
}

// movementKeys maps the held keys to camera movement.
func (s *MirrorScene) movementKeys() camera.Keys {
	return camera.Keys{
		camera.KeyForward: s.input.Held(input.KeyW),
		camera.KeyBack:    s.input.Held(input.KeyS),
		camera.KeyLeft:    s.input.Held(input.KeyA),
		camera.KeyRight:   s.input.Held(input.KeyD),
		camera.KeyUp:      s.input.Held(input.KeyE),
		camera.KeyDown:    s.input.Held(input.KeyQ),
	}
}

// Update implements Scene. The camera moves first; the lights and the
// constant blocks derived from both follow, then the drag is applied.
func (s *MirrorScene) Update(dt float64) {
	s.loadPendingModel()
	s.applyPendingMSAA()

	step := float32(dt)
	s.camera.UpdateKeyboard(step, s.movementKeys())

	eye := s.camera.EyePosition()
	view := s.camera.ViewMatrix()
	proj := s.camera.ProjectionMatrix()
	reflection := math.Reflection(s.scene.MirrorPlane)

	s.lights.Update(step, s.consts)
	s.consts.UpdateGlobal(eye, view, proj, reflection)
	s.scene.UpdateLightMarkers(s.consts.Global.Lights)

	pick := s.picker.Update(s.scene.MainSphere, view, proj, &s.input.Mouse)
	if pick.Selected {
		s.scene.DragMainObject(pick.Rotation, pick.Translation)
		s.scene.ShowCursor(pick.HitPoint)
	} else {
		s.scene.HideCursor()
	}

	s.scene.UpdateConstantBuffers(s.ctx)
}

// msaa reports the MSAA setting, including a change not applied yet.
func (s *MirrorScene) msaa() bool {
	if s.msaaPending {
		return s.msaaWanted
	}
	return s.renderer.MSAA()
}

func (s *MirrorScene) requestMSAA(on bool) {
	s.msaaPending, s.msaaWanted = true, on
}

func (s *MirrorScene) applyPendingMSAA() {
	if !s.msaaPending {
		return
	}
	s.msaaPending = false
	if err := s.renderer.SetMSAA(s.msaaWanted); err != nil {
		s.log.Error("recreating buffers failed", zap.Bool("msaa", s.msaaWanted), zap.Error(err))
		s.quit = true
	}
}

// Render implements Scene.
func (s *MirrorScene) Render() {
	s.ctx.BeginFrame()
	s.renderer.Render(s.scene, s.consts)

	if s.captureRequested {
		s.captureRequested = false
		s.logCapture(s.capture.Save(s.ctx, s.renderer.Output(), debug.DefaultCaptureFile))
	}
	if s.snapshotRequested {
		s.snapshotRequested = false
		s.logCapture(s.capture.SaveTimestamped(s.ctx, s.renderer.Output()))
	}
}

func (s *MirrorScene) logCapture(path string, err error) {
	if err != nil {
		s.log.Error("capture failed", zap.Error(err))
		return
	}
	s.log.Info("frame captured", zap.String("path", path))
}

// Resize implements Scene. A failure to recreate the buffers ends the run.
func (s *MirrorScene) Resize(width, height int) {
	if err := s.renderer.Resize(width, height); err != nil {
		s.log.Error("resize failed", zap.Error(err))
		s.quit = true
		return
	}
	s.camera.SetAspectRatio(s.renderer.AspectRatio())
}

// Output implements Scene.
func (s *MirrorScene) Output() *gpu.Texture {
	return s.renderer.Output()
}

// Quit implements Scene.
func (s *MirrorScene) Quit() bool {
	return s.quit
}

// RequestModel asks for a new main object file without blocking the frame.
func (s *MirrorScene) RequestModel() {
	choose := s.chooseModel
	go func() {
		path, err := choose()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				s.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case s.pendingModel <- path:
		default:
			s.log.Debug("model request dropped", zap.String("path", path))
		}
	}()
}

func (s *MirrorScene) loadPendingModel() {
	select {
	case path := <-s.pendingModel:
		s.LoadModel(path)
	default:
	}
}

// LoadModel replaces the main object. On failure the current object stays.
func (s *MirrorScene) LoadModel(path string) {
	if err := s.scene.SetMainObject(path); err != nil {
		s.log.Error("model load failed", zap.String("path", path), zap.Error(err))
		return
	}
	s.picker.Reset()
	s.log.Info("model loaded", zap.String("path", path))
}

// Close implements Scene. It is safe on a partially built scene.
func (s *MirrorScene) Close() error {
	if s.renderer != nil {
		s.renderer.Close()
		s.renderer = nil
	}
	if s.scene != nil {
		s.scene.Close()
		s.scene = nil
	}
	if s.consts != nil {
		s.consts.Close()
		s.consts = nil
	}
	if s.res != nil {
		s.res.Close()
		s.res = nil
	}
	return nil
}

func openModelDialog() (string, error) {
	return dialog.File().
		Filter("glTF Models", "gltf", "glb").
		Filter("All Files", "*").
		Title("Open Model").
		Load()
}
