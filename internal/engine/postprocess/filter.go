// Package postprocess implements the full-screen filter passes: bloom down
// and up sampling and the combine and tone mapping stage.
package postprocess

import (
	"fmt"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/graphics"
)

// ImageFilter is one full-screen pass: a pixel shader reading its sources
// and writing its targets through a viewport the size of the targets.
type ImageFilter struct {
	Consts constants.FilterConstants
	// Blend is the blend state of the pass; nil writes the targets.
	Blend *gpu.BlendState

	pixel    *gpu.Shader
	viewport gpu.Viewport
	sources  []*gpu.Texture
	targets  []*gpu.Texture
	buf      *gpu.Buffer
	dev      gpu.Device
}

// NewImageFilter creates a filter for targets of width x height. The texel
// size of the targets is stored in the constants.
func NewImageFilter(dev gpu.Device, pixel *gpu.Shader, width, height int) (*ImageFilter, error) {
	width, height = max(width, 1), max(height, 1)
	f := &ImageFilter{
		pixel:    pixel,
		viewport: gpu.FullViewport(width, height),
		dev:      dev,
	}
	f.Consts.Dx = 1 / float32(width)
	f.Consts.Dy = 1 / float32(height)

	var err error
	if f.buf, err = constants.NewBuffer(dev, &f.Consts); err != nil {
		return nil, fmt.Errorf("filter constants: %w", err)
	}
	return f, nil
}

// SetShaderResources sets the sampled textures, bound from unit 0 up.
func (f *ImageFilter) SetShaderResources(sources ...*gpu.Texture) {
	f.sources = append(f.sources[:0], sources...)
}

// SetRenderTargets sets the written textures.
func (f *ImageFilter) SetRenderTargets(targets ...*gpu.Texture) {
	f.targets = append(f.targets[:0], targets...)
}

// Viewport returns the pass viewport.
func (f *ImageFilter) Viewport() gpu.Viewport { return f.viewport }

// UpdateConstantBuffers uploads Consts.
func (f *ImageFilter) UpdateConstantBuffers(ctx gpu.Context) {
	constants.Upload(ctx, f.buf, &f.Consts)
}

// Render binds the pass state. The caller binds the full-screen geometry and
// issues the draw.
func (f *ImageFilter) Render(ctx gpu.Context) {
	ctx.SetViewport(f.viewport)
	ctx.SetRenderTargets(f.targets, nil)
	ctx.SetShader(gpu.StagePixel, f.pixel)
	ctx.SetBlendState(f.Blend, [4]float32{}, gpu.SampleMaskAll)
	for i, src := range f.sources {
		ctx.SetTexture(graphics.UnitFilterSrc+uint32(i), src)
	}
	ctx.SetConstantBuffer(constants.SlotFilter, f.buf)
}

// Close releases the constant buffer.
func (f *ImageFilter) Close() {
	if f.buf != nil {
		f.dev.Release(f.buf)
		f.buf = nil
	}
}
