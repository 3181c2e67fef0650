package postprocess

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/graphics"
	"github.com/Faultbox/mirrorlab/internal/engine/scene"
	"github.com/Faultbox/mirrorlab/internal/logger"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// DefaultBloomLevels is the number of bloom buffers, the first full size.
const DefaultBloomLevels = 4

// Combine defaults.
const (
	DefaultBloomStrength = 0
	DefaultExposure      = 1
	DefaultGamma         = 2.2
)

// Settings are the user tunables of the combine stage.
type Settings struct {
	BloomStrength float32
	Exposure      float32
	Gamma         float32
}

// DefaultSettings returns bloom off, unit exposure and gamma 2.2.
func DefaultSettings() Settings {
	return Settings{BloomStrength: DefaultBloomStrength, Exposure: DefaultExposure, Gamma: DefaultGamma}
}

// Chain is the bloom cascade followed by the combine filter. Level i of the
// bloom buffers is 1/2^i of the full size.
type Chain struct {
	Combine *ImageFilter
	Down    []*ImageFilter
	Up      []*ImageFilter

	bloom    []*gpu.Texture
	vertices *gpu.Buffer
	indices  *gpu.Buffer
	count    int
	res      *graphics.Resources
	dev      gpu.Device
}

// NewChain builds the chain reading source and writing targets, both
// width x height. levels below 1 use DefaultBloomLevels.
func NewChain(dev gpu.Device, res *graphics.Resources, source *gpu.Texture, targets []*gpu.Texture,
	width, height, levels int) (c *Chain, err error) {
	if levels < 1 {
		levels = DefaultBloomLevels
	}
	c = &Chain{res: res, dev: dev}
	defer func() {
		if err != nil {
			c.Close()
			c = nil
		}
	}()

	square := scene.MakeSquare(1, math.Vec2{X: 1, Y: 1})
	c.count = len(square.Indices)
	if c.vertices, err = dev.CreateBuffer(gpu.VertexBuffer, scene.VertexBytes(square.Vertices), 0); err != nil {
		return c, fmt.Errorf("screen square: %w", err)
	}
	if c.indices, err = dev.CreateBuffer(gpu.IndexBuffer, scene.IndexBytes(square.Indices), 0); err != nil {
		return c, fmt.Errorf("screen square: %w", err)
	}

	size := func(level int) (int, int) {
		div := 1 << level
		return max(width/div, 1), max(height/div, 1)
	}

	for i := 0; i < levels; i++ {
		w, h := size(i)
		tex, err := dev.CreateTexture(gpu.TextureDesc{
			Width: w, Height: h,
			Format:         gpu.FormatRGBA16F,
			RenderTarget:   true,
			ShaderResource: true,
		}, nil)
		if err != nil {
			return c, fmt.Errorf("bloom buffer %d: %w", i, err)
		}
		c.bloom = append(c.bloom, tex)
	}

	for i := 0; i < levels-1; i++ {
		w, h := size(i + 1)
		f, err := NewImageFilter(dev, res.BloomDownPS, w, h)
		if err != nil {
			return c, fmt.Errorf("bloom down %d: %w", i, err)
		}
		if i == 0 {
			f.SetShaderResources(source)
		} else {
			f.SetShaderResources(c.bloom[i])
		}
		f.SetRenderTargets(c.bloom[i+1])
		c.Down = append(c.Down, f)
	}

	for i := 0; i < levels-1; i++ {
		level := levels - 2 - i
		w, h := size(level)
		f, err := NewImageFilter(dev, res.BloomUpPS, w, h)
		if err != nil {
			return c, fmt.Errorf("bloom up %d: %w", i, err)
		}
		f.Blend = res.AdditiveBS
		f.SetShaderResources(c.bloom[level+1])
		f.SetRenderTargets(c.bloom[level])
		c.Up = append(c.Up, f)
	}

	if c.Combine, err = NewImageFilter(dev, res.CombinePS, width, height); err != nil {
		return c, fmt.Errorf("combine: %w", err)
	}
	c.Combine.SetShaderResources(source, c.bloom[0])
	c.Combine.SetRenderTargets(targets...)
	c.Apply(DefaultSettings())

	logger.Debug("post process chain created",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("levels", levels))
	return c, nil
}

// Apply stores the combine settings. They reach the GPU on the next
// UpdateConstantBuffers.
func (c *Chain) Apply(s Settings) {
	c.Combine.Consts.Strength = s.BloomStrength
	c.Combine.Consts.Option1 = s.Exposure
	c.Combine.Consts.Option2 = s.Gamma
}

// UpdateConstantBuffers uploads the combine constants.
func (c *Chain) UpdateConstantBuffers(ctx gpu.Context) {
	c.Combine.UpdateConstantBuffers(ctx)
}

// Render runs the chain. The bloom cascade runs only with a positive bloom
// strength; the combine filter always runs.
func (c *Chain) Render(ctx gpu.Context) {
	c.res.PostProcessing.Bind(ctx)
	ctx.SetSampler(graphics.UnitFilterSrc, c.res.LinearClamp)
	ctx.SetSampler(graphics.UnitFilterBloom, c.res.LinearClamp)
	ctx.SetVertexBuffer(c.vertices)
	ctx.SetIndexBuffer(c.indices)

	if c.Combine.Consts.Strength > 0 {
		// Up passes add into their targets; the full size level is only
		// written by them.
		ctx.ClearRenderTarget(c.bloom[0], [4]float32{})
		for _, f := range c.Down {
			c.draw(ctx, f)
		}
		for _, f := range c.Up {
			c.draw(ctx, f)
		}
	}
	c.draw(ctx, c.Combine)
}

func (c *Chain) draw(ctx gpu.Context, f *ImageFilter) {
	f.Render(ctx)
	ctx.DrawIndexed(c.count, 0)
	// Unbind the sources so the next pass can write them.
	for i := range f.sources {
		ctx.SetTexture(graphics.UnitFilterSrc+uint32(i), nil)
	}
}

// Close releases the filters and bloom buffers.
func (c *Chain) Close() {
	for _, f := range append(append([]*ImageFilter{c.Combine}, c.Down...), c.Up...) {
		if f != nil {
			f.Close()
		}
	}
	var res []gpu.Resource
	for _, t := range c.bloom {
		res = append(res, t)
	}
	for _, b := range []*gpu.Buffer{c.vertices, c.indices} {
		if b != nil {
			res = append(res, b)
		}
	}
	c.dev.Release(res...)
	c.Combine, c.Down, c.Up, c.bloom = nil, nil, nil, nil
	c.vertices, c.indices = nil, nil
}
