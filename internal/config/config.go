// Package config handles application configuration loading and management.
package config

import "github.com/Faultbox/mirrorlab/internal/engine/camera"

// Config holds all application settings.
type Config struct {
	Window  WindowConfig  `yaml:"window" toml:"window"`
	Render  RenderConfig  `yaml:"render" toml:"render"`
	Camera  camera.Config `yaml:"camera" toml:"camera"`
	Scene   SceneConfig   `yaml:"scene" toml:"scene"`
	Capture CaptureConfig `yaml:"capture" toml:"capture"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title" toml:"title"`
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Fullscreen bool   `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool   `yaml:"vsync" toml:"vsync"`
	// GUI runs the ImGui host with the scene control window.
	GUI bool `yaml:"gui" toml:"gui"`
}

// RenderConfig holds rendering settings. Everything except the buffer
// layout (samples, shadow resolution, bloom levels) is reloaded when the
// config file changes.
type RenderConfig struct {
	MSAA             bool `yaml:"msaa" toml:"msaa"`
	Samples          int  `yaml:"samples" toml:"samples"`
	ShadowResolution int  `yaml:"shadow_resolution" toml:"shadow_resolution"`
	BloomLevels      int  `yaml:"bloom_levels" toml:"bloom_levels"`

	Wireframe     bool    `yaml:"wireframe" toml:"wireframe"`
	MirrorAlpha   float32 `yaml:"mirror_alpha" toml:"mirror_alpha"`
	BloomStrength float32 `yaml:"bloom_strength" toml:"bloom_strength"`
	Exposure      float32 `yaml:"exposure" toml:"exposure"`
	Gamma         float32 `yaml:"gamma" toml:"gamma"`
	IBLStrength   float32 `yaml:"ibl_strength" toml:"ibl_strength"`
	FogStrength   float32 `yaml:"fog_strength" toml:"fog_strength"`
	DepthScale    float32 `yaml:"depth_scale" toml:"depth_scale"`
}

// SceneConfig holds scene content settings.
type SceneConfig struct {
	// ModelPath is a glTF file for the main object; empty uses a sphere.
	ModelPath string `yaml:"model_path" toml:"model_path"`
	// EnvironmentDir holds the six cubemap faces; empty or missing faces use
	// the procedural sky.
	EnvironmentDir string `yaml:"environment_dir" toml:"environment_dir"`
	LightRotation  bool   `yaml:"light_rotation" toml:"light_rotation"`
}

// CaptureConfig holds screen capture settings.
type CaptureConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "Mirror Lab",
			Width:  1280,
			Height: 720,
			VSync:  true,
			GUI:    true,
		},
		Render: RenderConfig{
			MSAA:             true,
			Samples:          4,
			ShadowResolution: 1280,
			BloomLevels:      4,
			MirrorAlpha:      0.5,
			BloomStrength:    0,
			Exposure:         1,
			Gamma:            2.2,
			IBLStrength:      0,
			FogStrength:      0,
			DepthScale:       1,
		},
		Camera: camera.DefaultConfig(),
		Scene: SceneConfig{
			EnvironmentDir: "assets/cubemap",
			LightRotation:  true,
		},
		Capture: CaptureConfig{
			Prefix: "capture",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
