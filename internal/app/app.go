package app

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/mirrorlab/internal/config"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu/opengl"
	"github.com/Faultbox/mirrorlab/internal/engine/window"
	"github.com/Faultbox/mirrorlab/internal/logger"
)

// App wires the configuration, a window host, the GL device and the mirror
// scene together.
type App struct {
	cfg *config.Config

	host    Host
	dev     *opengl.Device
	ctx     *opengl.Context
	scene   *MirrorScene
	watcher *config.Watcher

	checkGL bool
	log     *zap.Logger
}

// New opens the window and builds the scene. configPath is watched for
// changes when not empty.
func New(cfg *config.Config, configPath string) (_ *App, err error) {
	a := &App{
		cfg:     cfg,
		checkGL: logger.ParseLevel(cfg.Logging.Level) <= zapcore.DebugLevel,
		log:     logger.Named("app"),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.Window.GUI {
		a.host, err = NewGUIHost(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
	} else {
		a.host, err = NewSDLHost(window.Config{
			Title:      cfg.Window.Title,
			Width:      cfg.Window.Width,
			Height:     cfg.Window.Height,
			Fullscreen: cfg.Window.Fullscreen,
			VSync:      cfg.Window.VSync,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}

	if a.dev, a.ctx, err = opengl.New(); err != nil {
		return nil, fmt.Errorf("opengl: %w", err)
	}

	fw, fh := a.host.FramebufferSize()
	ww, wh := a.host.WindowSize()
	a.ctx.SetSurfaceSize(fw, fh)

	a.scene, err = NewMirrorScene(a.dev, a.ctx, MirrorOptions{
		Width:        fw,
		Height:       fh,
		WindowWidth:  ww,
		WindowHeight: wh,
		Offscreen:    a.host.Offscreen(),
		Render:       cfg.Render,
		Camera:       cfg.Camera,
		Scene:        cfg.Scene,
		Capture:      cfg.Capture,
	})
	if err != nil {
		return nil, err
	}
	a.scene.SaveSettings = func(rc config.RenderConfig) error {
		return a.saveRenderConfig(rc, configPath)
	}

	if configPath != "" {
		if a.watcher, err = config.Watch(configPath); err != nil {
			// The app runs fine without live reload.
			a.log.Warn("config watch disabled", zap.String("path", configPath), zap.Error(err))
			err = nil
		}
	}
	return a, nil
}

// Run drives frames until the scene quits or the window closes.
func (a *App) Run() error {
	a.log.Info("starting frame loop", zap.Bool("gui", a.cfg.Window.GUI))
	return a.host.Run(a.scene, FrameHooks{
		BeforeFrame: a.applyConfigChanges,
		Resized: func(w, h int) {
			a.ctx.SetSurfaceSize(w, h)
			a.scene.Resize(w, h)
		},
		AfterRender: a.afterRender,
	})
}

func (a *App) applyConfigChanges() {
	if a.watcher == nil {
		return
	}
	select {
	case cfg := <-a.watcher.Changes():
		if err := a.scene.ApplyRenderConfig(cfg.Render); err != nil {
			a.log.Error("applying reloaded config failed", zap.Error(err))
		}
	default:
	}
}

// saveRenderConfig writes the render settings back to the loaded file, or
// to the user config directory when none was loaded.
func (a *App) saveRenderConfig(rc config.RenderConfig, path string) error {
	a.cfg.Render = rc
	if path == "" {
		return a.cfg.Save()
	}
	if err := a.cfg.SaveTo(path); err != nil {
		return err
	}
	a.log.Info("settings saved", zap.String("path", path))
	return nil
}

func (a *App) afterRender() {
	// The GUI draws into the default framebuffer after the scene.
	a.ctx.SetRenderTargets([]*gpu.Texture{gpu.BackBuffer}, nil)
	if a.checkGL {
		if n := a.ctx.CheckErrors(); n > 0 {
			a.log.Debug("GL errors this frame", zap.Int("count", n))
		}
	}
}

// Close releases everything New created, in reverse order. It is safe on a
// partially built App.
func (a *App) Close() error {
	var err error
	if a.watcher != nil {
		err = multierr.Append(err, a.watcher.Close())
		a.watcher = nil
	}
	if a.scene != nil {
		err = multierr.Append(err, a.scene.Close())
		a.scene = nil
	}
	if a.dev != nil {
		a.dev.Close()
		a.dev = nil
	}
	if a.host != nil {
		a.host.Close()
		a.host = nil
	}
	return err
}
