// Package debug provides screen capture for the rendered output.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
)

// DefaultCaptureFile is written by the capture key.
const DefaultCaptureFile = "captured.png"

// Capture writes rendered images to PNG files.
type Capture struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewCapture creates a capture handler. Timestamped names are
// "<prefix>_<time>.png" under outputDir.
func NewCapture(outputDir, prefix string) *Capture {
	if prefix == "" {
		prefix = "capture"
	}
	return &Capture{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Save reads src back and writes it to name. A relative name is placed in
// the output directory. Returns the written path.
//
// The read blocks until the GPU has finished the frame.
func (c *Capture) Save(ctx gpu.Context, src *gpu.Texture, name string) (string, error) {
	img, err := ctx.ReadPixels(src)
	if err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}
	return c.SaveImage(img, name)
}

// SaveTimestamped is Save with a generated file name.
func (c *Capture) SaveTimestamped(ctx gpu.Context, src *gpu.Texture) (string, error) {
	return c.Save(ctx, src, c.GenerateFilename())
}

// SaveImage writes img as a PNG file.
func (c *Capture) SaveImage(img image.Image, name string) (string, error) {
	path := c.resolve(name)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// GenerateFilename generates a timestamped file name without saving.
func (c *Capture) GenerateFilename() string {
	timestamp := c.now().Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_%s.png", c.prefix, timestamp)
}

func (c *Capture) resolve(name string) string {
	if c.outputDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.outputDir, name)
}
