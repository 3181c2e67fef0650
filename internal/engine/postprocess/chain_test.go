package postprocess

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu/gputest"
	"github.com/Faultbox/mirrorlab/internal/engine/graphics"
)

type fixture struct {
	rec    *gputest.Recorder
	res    *graphics.Resources
	source *gpu.Texture
	chain  *Chain
}

func newChain(t *testing.T, w, h, levels int) *fixture {
	t.Helper()
	rec := gputest.New()
	res, err := graphics.New(rec)
	require.NoError(t, err)
	src, err := rec.CreateTexture(gpu.TextureDesc{
		Width: w, Height: h,
		Format:         gpu.FormatRGBA16F,
		RenderTarget:   true,
		ShaderResource: true,
	}, nil)
	require.NoError(t, err)

	c, err := NewChain(rec, res, src, []*gpu.Texture{gpu.BackBuffer}, w, h, levels)
	require.NoError(t, err)
	return &fixture{rec: rec, res: res, source: src, chain: c}
}

func TestNewImageFilter(t *testing.T) {
	rec := gputest.New()
	f, err := NewImageFilter(rec, nil, 200, 100)
	require.NoError(t, err)
	assert.Equal(t, float32(1.0/200), f.Consts.Dx)
	assert.Equal(t, float32(1.0/100), f.Consts.Dy)
	assert.Equal(t, gpu.FullViewport(200, 100), f.Viewport())

	f, err = NewImageFilter(rec, nil, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, gpu.FullViewport(1, 1), f.Viewport(), "sizes are clamped")

	rec.FailOn = "CreateBuffer"
	_, err = NewImageFilter(rec, nil, 8, 8)
	assert.Error(t, err)
}

func TestImageFilterRender(t *testing.T) {
	rec := gputest.New()
	pixel, err := rec.CreateShader(gpu.ShaderDesc{Stage: gpu.StagePixel, Name: "ps", Source: "void main() {}"})
	require.NoError(t, err)
	a := &gpu.Texture{ID: 100}
	b := &gpu.Texture{ID: 101}
	out := &gpu.Texture{ID: 102}

	f, err := NewImageFilter(rec, pixel, 64, 32)
	require.NoError(t, err)
	f.SetShaderResources(a, b)
	f.SetRenderTargets(out)
	f.Render(rec)

	st := rec.State()
	assert.Equal(t, gpu.FullViewport(64, 32), st.Viewport)
	assert.Equal(t, []*gpu.Texture{out}, st.RenderTargets)
	assert.Nil(t, st.Depth)
	assert.Same(t, pixel, st.Shader(gpu.StagePixel))
	assert.Same(t, a, st.Textures[graphics.UnitFilterSrc])
	assert.Same(t, b, st.Textures[graphics.UnitFilterBloom])
	assert.Nil(t, st.Blend)
	assert.NotNil(t, st.ConstantBuffers[constants.SlotFilter])

	f.Consts.Threshold = 0.7
	f.UpdateConstantBuffers(rec)
	assert.Equal(t, f.Consts.Bytes(), rec.BufferData(st.ConstantBuffers[constants.SlotFilter]))

	f.Close()
	assert.Equal(t, 1, rec.Live(), "only the shader is left")
}

func TestChainWiring(t *testing.T) {
	f := newChain(t, 1280, 720, DefaultBloomLevels)
	c := f.chain
	bloom := c.bloom

	require.Len(t, bloom, 4)
	for i, tex := range bloom {
		assert.Equal(t, 1280>>i, tex.Desc.Width, "level %d", i)
		assert.Equal(t, 720>>i, tex.Desc.Height, "level %d", i)
		assert.Equal(t, gpu.FormatRGBA16F, tex.Desc.Format)
	}

	require.Len(t, c.Down, 3)
	assert.Equal(t, []*gpu.Texture{f.source}, c.Down[0].sources)
	for i, d := range c.Down {
		assert.Equal(t, []*gpu.Texture{bloom[i+1]}, d.targets, "down %d", i)
		assert.Equal(t, gpu.FullViewport(1280>>(i+1), 720>>(i+1)), d.Viewport())
		assert.Nil(t, d.Blend)
		if i > 0 {
			assert.Equal(t, []*gpu.Texture{bloom[i]}, d.sources)
		}
	}

	require.Len(t, c.Up, 3)
	for i, u := range c.Up {
		level := 2 - i
		assert.Equal(t, []*gpu.Texture{bloom[level+1]}, u.sources, "up %d", i)
		assert.Equal(t, []*gpu.Texture{bloom[level]}, u.targets, "up %d", i)
		assert.Equal(t, gpu.FullViewport(1280>>level, 720>>level), u.Viewport())
		assert.Same(t, f.res.AdditiveBS, u.Blend)
	}

	assert.Equal(t, []*gpu.Texture{f.source, bloom[0]}, c.Combine.sources)
	assert.Equal(t, []*gpu.Texture{gpu.BackBuffer}, c.Combine.targets)
	def := DefaultSettings()
	assert.Equal(t, def.BloomStrength, c.Combine.Consts.Strength)
	assert.Equal(t, def.Exposure, c.Combine.Consts.Option1)
	assert.Equal(t, float32(2.2), c.Combine.Consts.Option2)
}

func TestChainSkipsBloomWithoutStrength(t *testing.T) {
	f := newChain(t, 640, 480, DefaultBloomLevels)
	f.rec.Reset()
	f.chain.Render(f.rec)

	draws := f.rec.Draws()
	require.Len(t, draws, 1)
	st := draws[0].State
	assert.Same(t, f.res.CombinePS, st.Shader(gpu.StagePixel))
	assert.Same(t, f.res.SamplingVS, st.Shader(gpu.StageVertex))
	assert.Same(t, f.res.LinearClamp, st.Samplers[graphics.UnitFilterSrc])
	assert.Equal(t, []*gpu.Texture{gpu.BackBuffer}, st.RenderTargets)
	assert.Equal(t, 6, draws[0].Args[0])
	assert.NotContains(t, f.rec.Ops(), "ClearRenderTarget")
}

func TestChainRunsBloom(t *testing.T) {
	f := newChain(t, 640, 480, DefaultBloomLevels)
	c := f.chain
	c.Apply(Settings{BloomStrength: 0.3, Exposure: 1.5, Gamma: 2.2})
	c.UpdateConstantBuffers(f.rec)
	assert.Equal(t, c.Combine.Consts.Bytes(), f.rec.BufferData(c.Combine.buf))

	f.rec.Reset()
	c.Render(f.rec)

	var shaders []*gpu.Shader
	for _, d := range f.rec.Draws() {
		shaders = append(shaders, d.State.Shader(gpu.StagePixel))
	}
	down, up, combine := f.res.BloomDownPS, f.res.BloomUpPS, f.res.CombinePS
	assert.Equal(t, []*gpu.Shader{down, down, down, up, up, up, combine}, shaders)

	// The full size level only receives additive up passes, so it is
	// cleared first.
	ops := f.rec.Ops()
	cleared := slices.Index(ops, "ClearRenderTarget")
	require.NotEqual(t, -1, cleared)
	assert.Less(t, cleared, slices.Index(ops, "DrawIndexed"))
	assert.Same(t, c.bloom[0], f.rec.Commands[cleared].Args[0])

	draws := f.rec.Draws()
	assert.Same(t, f.res.AdditiveBS, draws[3].State.Blend)
	assert.Nil(t, draws[6].State.Blend, "combine overwrites")
}

func TestChainLevels(t *testing.T) {
	f := newChain(t, 64, 64, 1)
	assert.Len(t, f.chain.bloom, 1)
	assert.Empty(t, f.chain.Down)
	assert.Empty(t, f.chain.Up)

	f = newChain(t, 64, 64, 0)
	assert.Len(t, f.chain.bloom, DefaultBloomLevels)

	f = newChain(t, 4, 2, 4)
	for _, tex := range f.chain.bloom {
		assert.GreaterOrEqual(t, tex.Desc.Width, 1)
		assert.GreaterOrEqual(t, tex.Desc.Height, 1)
	}
}

func TestChainClose(t *testing.T) {
	f := newChain(t, 320, 240, DefaultBloomLevels)
	f.chain.Close()
	f.res.Close()
	f.rec.Release(f.source)
	assert.Equal(t, 0, f.rec.Live())
}

func TestNewChainFailureReleases(t *testing.T) {
	for _, op := range []string{"CreateBuffer", "CreateTexture"} {
		rec := gputest.New()
		res, err := graphics.New(rec)
		require.NoError(t, err)
		live := rec.Live()

		rec.FailOn = op
		c, err := NewChain(rec, res, nil, nil, 320, 240, DefaultBloomLevels)
		assert.Error(t, err, op)
		assert.Nil(t, c)
		assert.Equal(t, live, rec.Live(), "%s: leaked objects", op)
	}
}
