package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test window defaults
	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.GUI {
		t.Error("expected the control window to be on by default")
	}

	// Test render defaults
	if !cfg.Render.MSAA {
		t.Error("expected msaa to be true by default")
	}
	if cfg.Render.MirrorAlpha != 0.5 {
		t.Errorf("expected mirror alpha 0.5, got %f", cfg.Render.MirrorAlpha)
	}
	if cfg.Render.Gamma != 2.2 {
		t.Errorf("expected gamma 2.2, got %f", cfg.Render.Gamma)
	}
	if cfg.Render.ShadowResolution != 1280 {
		t.Errorf("expected shadow resolution 1280, got %d", cfg.Render.ShadowResolution)
	}

	// Test camera defaults
	if !cfg.Camera.Perspective {
		t.Error("expected a perspective camera by default")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  gui: false

render:
  msaa: false
  mirror_alpha: 0.8
  bloom_strength: 0.3
  wireframe: true

camera:
  fov_y: 90
  position: [1, 2, 3]

scene:
  model_path: "models/helmet.gltf"

logging:
  level: "debug"
  log_file: "mirror.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Window.Width)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Window.GUI {
		t.Error("expected gui to be false")
	}
	if cfg.Render.MSAA {
		t.Error("expected msaa to be false")
	}
	if cfg.Render.MirrorAlpha != 0.8 {
		t.Errorf("expected mirror alpha 0.8, got %f", cfg.Render.MirrorAlpha)
	}
	if !cfg.Render.Wireframe {
		t.Error("expected wireframe to be true")
	}
	if cfg.Render.Gamma != 2.2 {
		t.Errorf("expected untouched gamma 2.2, got %f", cfg.Render.Gamma)
	}
	if cfg.Camera.FovY != 90 {
		t.Errorf("expected fov 90, got %f", cfg.Camera.FovY)
	}
	if cfg.Camera.Position != [3]float32{1, 2, 3} {
		t.Errorf("expected position [1 2 3], got %v", cfg.Camera.Position)
	}
	if cfg.Scene.ModelPath != "models/helmet.gltf" {
		t.Errorf("expected model path models/helmet.gltf, got %s", cfg.Scene.ModelPath)
	}
	if cfg.Logging.LogFile != "mirror.log" {
		t.Errorf("expected log file 'mirror.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
[window]
width = 800
height = 600

[render]
mirror_alpha = 1.0
exposure = 2.0

[capture]
dir = "shots"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("expected 800x600, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Render.MirrorAlpha != 1 {
		t.Errorf("expected mirror alpha 1, got %f", cfg.Render.MirrorAlpha)
	}
	if cfg.Render.Exposure != 2 {
		t.Errorf("expected exposure 2, got %f", cfg.Render.Exposure)
	}
	if cfg.Capture.Dir != "shots" {
		t.Errorf("expected capture dir 'shots', got %s", cfg.Capture.Dir)
	}
	if cfg.Capture.Prefix != "capture" {
		t.Errorf("expected default prefix 'capture', got %s", cfg.Capture.Prefix)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"invalid.yaml": "window:\n  width: not a number\n  invalid syntax here\n",
		"invalid.toml": "[window\nwidth = ",
		"config.json":  "{}",
	}

	for name, content := range files {
		configPath := filepath.Join(tmpDir, name)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := Default()
		if err := loadFromFile(cfg, configPath); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[window]\nwidth = 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path = findConfigFile(); path != "./config.toml" {
		t.Errorf("expected ./config.toml, got %q", path)
	}

	// YAML wins over TOML in the same directory
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path = findConfigFile(); path != "./config.yaml" {
		t.Errorf("expected ./config.yaml, got %q", path)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "model and env flags",
			setup: func() {
				*flagModel = "helmet.glb"
				*flagEnv = "sky"
			},
			verify: func(cfg *Config) {
				if cfg.Scene.ModelPath != "helmet.glb" {
					t.Errorf("expected model helmet.glb, got %s", cfg.Scene.ModelPath)
				}
				if cfg.Scene.EnvironmentDir != "sky" {
					t.Errorf("expected env dir sky, got %s", cfg.Scene.EnvironmentDir)
				}
			},
			teardown: func() {
				*flagModel = ""
				*flagEnv = ""
			},
		},
		{
			name: "nogui and nomsaa flags",
			setup: func() {
				*flagNoGUI = true
				*flagNoMSAA = true
			},
			verify: func(cfg *Config) {
				if cfg.Window.GUI {
					t.Error("expected gui to be false with nogui flag")
				}
				if cfg.Render.MSAA {
					t.Error("expected msaa to be false with nomsaa flag")
				}
			},
			teardown: func() {
				*flagNoGUI = false
				*flagNoMSAA = false
			},
		},
		{
			name: "windowed flag",
			setup: func() {
				*flagWindowed = true
			},
			verify: func(cfg *Config) {
				if cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() {
				*flagWindowed = false
			},
		},
		{
			name: "fullscreen flag",
			setup: func() {
				*flagFullscreen = true
			},
			verify: func(cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() {
				*flagFullscreen = false
			},
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(cfg *Config) {
				if cfg.Window.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Window.Width)
				}
				if cfg.Window.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, path, err := LoadWithPath()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if path != configPath {
		t.Errorf("expected path %s, got %s", configPath, path)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}

	// Height should be from file (900) since no flag override
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"out.yaml", "nested/out.toml"} {
		path := filepath.Join(tmpDir, name)
		cfg := Default()
		cfg.Render.MirrorAlpha = 0.25
		cfg.Scene.ModelPath = "a.gltf"
		if err := cfg.SaveTo(path); err != nil {
			t.Fatalf("%s: save failed: %v", name, err)
		}

		loaded := Default()
		if err := loadFromFile(loaded, path); err != nil {
			t.Fatalf("%s: load failed: %v", name, err)
		}
		if loaded.Render.MirrorAlpha != 0.25 {
			t.Errorf("%s: expected mirror alpha 0.25, got %f", name, loaded.Render.MirrorAlpha)
		}
		if loaded.Scene.ModelPath != "a.gltf" {
			t.Errorf("%s: expected model a.gltf, got %s", name, loaded.Scene.ModelPath)
		}
	}

	if err := Default().SaveTo(filepath.Join(tmpDir, "out.ini")); err == nil {
		t.Error("expected error saving unsupported format")
	}
}

func TestWatchReloads(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("render:\n  mirror_alpha: 0.5\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	w, err := Watch(configPath)
	if err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	defer w.Close()

	// Unrelated files in the same directory are ignored
	if err := os.WriteFile(filepath.Join(tmpDir, "other.yaml"), []byte("x: 1\n"), 0644); err != nil {
		t.Fatalf("failed to write other file: %v", err)
	}
	if err := os.WriteFile(configPath, []byte("render:\n  mirror_alpha: 0.9\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite test config: %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-w.Changes():
			if cfg.Render.MirrorAlpha == 0.9 {
				if cfg.Window.Width != 1280 {
					t.Errorf("expected defaults under the file, got width %d", cfg.Window.Width)
				}
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatchMissingDir(t *testing.T) {
	if _, err := Watch("/nonexistent/dir/config.yaml"); err == nil {
		t.Error("expected error watching a missing directory")
	}
}
