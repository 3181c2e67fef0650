// Package renderer runs the frame: depth pre-pass, shadow maps, the main
// and mirror passes, and the post effects and post processing chain.
package renderer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/graphics"
	"github.com/Faultbox/mirrorlab/internal/engine/postprocess"
	"github.com/Faultbox/mirrorlab/internal/engine/scene"
	"github.com/Faultbox/mirrorlab/internal/engine/shadow"
	"github.com/Faultbox/mirrorlab/internal/logger"
)

// DefaultSamples is the sample count of the float and depth buffers with
// MSAA on.
const DefaultSamples = 4

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	MSAA   bool
	// Samples is the MSAA sample count; 0 selects DefaultSamples.
	Samples          int
	ShadowResolution int
	BloomLevels      int
	// Offscreen renders the final image into an RGBA8 texture instead of
	// the back buffer, for hosts that composite it themselves.
	Offscreen bool
}

// Renderer owns the render targets and issues the passes of a frame.
type Renderer struct {
	config Config

	dev gpu.Device
	ctx gpu.Context
	res *graphics.Resources

	// Wireframe selects the wireframe variant of the scene pipelines.
	Wireframe bool
	// MirrorAlpha is the blend factor of the mirror over its reflection.
	// At 1 the mirror is opaque and the reflection is skipped.
	MirrorAlpha float32
	PostEffects constants.PostEffectsConstants

	float        *gpu.Texture
	depthStencil *gpu.Texture
	resolved     *gpu.Texture
	postEffects  *gpu.Texture
	depthOnly    *gpu.Texture
	output       *gpu.Texture
	post         *postprocess.Chain
	settings     postprocess.Settings

	shadows        *shadow.Maps
	postEffectsBuf *gpu.Buffer
}

// New creates the renderer and its targets. Failures release everything
// created so far.
func New(dev gpu.Device, ctx gpu.Context, res *graphics.Resources, cfg Config) (_ *Renderer, err error) {
	if cfg.Samples <= 0 {
		cfg.Samples = DefaultSamples
	}
	r := &Renderer{
		config:      cfg,
		dev:         dev,
		ctx:         ctx,
		res:         res,
		MirrorAlpha: 1,
		PostEffects: constants.DefaultPostEffectsConstants(),
		settings:    postprocess.DefaultSettings(),
	}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()

	if r.shadows, err = shadow.NewMaps(dev, cfg.ShadowResolution); err != nil {
		return nil, fmt.Errorf("failed to create shadow maps: %w", err)
	}
	if r.postEffectsBuf, err = constants.NewBuffer(dev, &r.PostEffects); err != nil {
		return nil, fmt.Errorf("failed to create post effects constants: %w", err)
	}
	if err = r.createTargets(); err != nil {
		return nil, err
	}

	logger.Info("renderer created",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("msaa", cfg.MSAA),
		zap.Int("shadowResolution", r.shadows.Resolution),
	)
	return r, nil
}

func (r *Renderer) samples() int {
	if r.config.MSAA {
		return r.config.Samples
	}
	return 1
}

// createTargets creates every buffer sized like the output.
func (r *Renderer) createTargets() error {
	w, h := max(r.config.Width, 1), max(r.config.Height, 1)
	samples := r.samples()

	var err error
	target := func(name string, desc gpu.TextureDesc) *gpu.Texture {
		if err != nil {
			return nil
		}
		desc.Width, desc.Height = w, h
		var tex *gpu.Texture
		if tex, err = r.dev.CreateTexture(desc, nil); err != nil {
			err = fmt.Errorf("failed to create %s buffer: %w", name, err)
		}
		return tex
	}

	r.float = target("float", gpu.TextureDesc{
		Format:       gpu.FormatRGBA16F,
		Samples:      samples,
		RenderTarget: true,
	})
	r.depthStencil = target("depth-stencil", gpu.TextureDesc{
		Format:       gpu.FormatDepth24Stencil8,
		Samples:      samples,
		DepthStencil: true,
	})
	r.resolved = target("resolved", gpu.TextureDesc{
		Format:         gpu.FormatRGBA16F,
		RenderTarget:   true,
		ShaderResource: true,
	})
	r.postEffects = target("post effects", gpu.TextureDesc{
		Format:         gpu.FormatRGBA16F,
		RenderTarget:   true,
		ShaderResource: true,
	})
	r.depthOnly = target("depth-only", gpu.TextureDesc{
		Format:         gpu.FormatDepth32F,
		DepthStencil:   true,
		ShaderResource: true,
	})
	r.output = gpu.BackBuffer
	if r.config.Offscreen {
		r.output = target("output", gpu.TextureDesc{
			Format:         gpu.FormatRGBA8,
			RenderTarget:   true,
			ShaderResource: true,
		})
	}
	if err != nil {
		return err
	}

	r.post, err = postprocess.NewChain(r.dev, r.res, r.postEffects, []*gpu.Texture{r.output},
		w, h, r.config.BloomLevels)
	if err != nil {
		return fmt.Errorf("failed to create post processing: %w", err)
	}
	r.post.Apply(r.settings)
	return nil
}

// releaseTargets releases the output sized buffers.
func (r *Renderer) releaseTargets() {
	if r.post != nil {
		r.post.Close()
		r.post = nil
	}
	var res []gpu.Resource
	for _, tex := range []*gpu.Texture{r.float, r.depthStencil, r.resolved, r.postEffects, r.depthOnly, r.output} {
		if tex != nil && tex != gpu.BackBuffer {
			res = append(res, tex)
		}
	}
	r.dev.Release(res...)
	r.float, r.depthStencil, r.resolved, r.postEffects, r.depthOnly, r.output = nil, nil, nil, nil, nil, nil
}

// Close releases every object the renderer owns.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	r.releaseTargets()
	if r.shadows != nil {
		r.shadows.Close()
		r.shadows = nil
	}
	if r.postEffectsBuf != nil {
		r.dev.Release(r.postEffectsBuf)
		r.postEffectsBuf = nil
	}
}

// Resize recreates the output sized buffers. The MSAA setting is kept.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if width == r.config.Width && height == r.config.Height && r.float != nil {
		return nil
	}
	r.config.Width = width
	r.config.Height = height
	r.releaseTargets()
	if err := r.createTargets(); err != nil {
		return err
	}
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return nil
}

// SetMSAA switches multisampling and recreates the float and depth buffers.
func (r *Renderer) SetMSAA(on bool) error {
	if on == r.config.MSAA {
		return nil
	}
	r.config.MSAA = on
	r.releaseTargets()
	if err := r.createTargets(); err != nil {
		return err
	}
	logger.Debug("msaa changed", zap.Bool("msaa", on), zap.Int("samples", r.samples()))
	return nil
}

// MSAA reports whether multisampling is on.
func (r *Renderer) MSAA() bool { return r.config.MSAA }

// Size returns the output size.
func (r *Renderer) Size() (int, int) { return r.config.Width, r.config.Height }

// AspectRatio returns width over height of the output.
func (r *Renderer) AspectRatio() float32 {
	return float32(max(r.config.Width, 1)) / float32(max(r.config.Height, 1))
}

// Output returns the texture holding the final image: the back buffer or
// the offscreen output.
func (r *Renderer) Output() *gpu.Texture { return r.output }

// PostProcessing returns the combine settings.
func (r *Renderer) PostProcessing() postprocess.Settings { return r.settings }

// SetPostProcessing replaces the combine settings.
func (r *Renderer) SetPostProcessing(s postprocess.Settings) {
	r.settings = s
	if r.post != nil {
		r.post.Apply(s)
	}
}

func (r *Renderer) mainViewport() gpu.Viewport {
	return gpu.FullViewport(max(r.config.Width, 1), max(r.config.Height, 1))
}

func (r *Renderer) bindShadowMaps(tex *[constants.MaxLights]*gpu.Texture) {
	for i := uint32(0); i < constants.MaxLights; i++ {
		var t *gpu.Texture
		if tex != nil {
			t = tex[i]
		}
		r.ctx.SetTexture(graphics.UnitShadowMap+i, t)
		r.ctx.SetTexture(graphics.UnitShadowDepth+i, t)
	}
}

// Render issues one frame of s with the view constants of m.
func (r *Renderer) Render(s *scene.Scene, m *constants.Manager) {
	ctx := r.ctx
	res := r.res

	constants.Upload(ctx, r.postEffectsBuf, &r.PostEffects)
	r.post.UpdateConstantBuffers(ctx)

	ctx.SetViewport(r.mainViewport())
	res.BindSamplers(ctx)
	bindEnvironment(ctx, s.Env)
	// The shadow maps are written below and sampled by the main pass.
	r.bindShadowMaps(nil)

	r.depthPrePass(s, m)
	r.shadowPasses(s, m)

	ctx.SetViewport(r.mainViewport())
	r.mainPass(s, m)
	if r.MirrorAlpha < 1 {
		r.mirrorPass(s, m)
	}

	ctx.Resolve(r.resolved, r.float)
	r.postEffectsPass(s, m)
	r.post.Render(ctx)
}

func bindEnvironment(ctx gpu.Context, env *scene.Environment) {
	if env == nil {
		return
	}
	ctx.SetTexture(graphics.UnitEnv, env.Env)
	ctx.SetTexture(graphics.UnitSpecular, env.Specular)
	ctx.SetTexture(graphics.UnitIrradiance, env.Irradiance)
	ctx.SetTexture(graphics.UnitBRDF, env.BRDF)
}

// depthPrePass fills the single-sample depth buffer sampled by the post
// effects.
func (r *Renderer) depthPrePass(s *scene.Scene, m *constants.Manager) {
	ctx := r.ctx
	ctx.SetRenderTargets(nil, r.depthOnly)
	ctx.ClearDepthStencil(r.depthOnly, gpu.ClearDepth, 1, 0)
	r.res.DepthOnly.Bind(ctx)
	ctx.SetConstantBuffer(constants.SlotGlobal, m.GlobalBuffer())

	for _, obj := range s.Basic {
		obj.Render(ctx)
	}
	s.Skybox.Render(ctx)
	s.Mirror.Render(ctx)
}

// shadowPasses renders one depth map per shadow casting light.
func (r *Renderer) shadowPasses(s *scene.Scene, m *constants.Manager) {
	ctx := r.ctx
	r.res.DepthOnly.Bind(ctx)
	for i, light := range m.Global.Lights {
		if !light.Type.Has(constants.LightShadow) {
			continue
		}
		r.shadows.Begin(ctx, i)
		ctx.SetConstantBuffer(constants.SlotGlobal, m.ShadowBuffer(i))

		for _, obj := range s.Basic {
			if obj.CastShadow && obj.Visible {
				obj.Render(ctx)
			}
		}
		s.Skybox.Render(ctx)
		s.Mirror.Render(ctx)
	}
}

// mainPass draws the scene, the opaque mirror, the normals and the skybox
// into the float buffer.
func (r *Renderer) mainPass(s *scene.Scene, m *constants.Manager) {
	ctx := r.ctx
	res := r.res

	ctx.ClearRenderTarget(r.float, [4]float32{0, 0, 0, 1})
	ctx.SetRenderTargets([]*gpu.Texture{r.float}, r.depthStencil)
	r.bindShadowMaps(&r.shadows.Depth)
	ctx.ClearDepthStencil(r.depthStencil, gpu.ClearDepth|gpu.ClearStencil, 1, 0)

	graphics.Variant(r.Wireframe, &res.DefaultSolid, &res.DefaultWire).Bind(ctx)
	ctx.SetConstantBuffer(constants.SlotGlobal, m.GlobalBuffer())
	for _, obj := range s.Basic {
		obj.Render(ctx)
	}
	if r.MirrorAlpha >= 1 {
		s.Mirror.Render(ctx)
	}

	res.Normals.Bind(ctx)
	for _, obj := range s.Basic {
		if obj.DrawNormals {
			obj.RenderNormals(ctx)
		}
	}

	graphics.Variant(r.Wireframe, &res.SkyboxSolid, &res.SkyboxWire).Bind(ctx)
	s.Skybox.Render(ctx)
}

// mirrorPass marks the mirror in the stencil buffer, draws the reflected
// scene inside the mark and blends the mirror over it.
func (r *Renderer) mirrorPass(s *scene.Scene, m *constants.Manager) {
	ctx := r.ctx
	res := r.res

	res.StencilMask.Bind(ctx)
	s.Mirror.Render(ctx)

	graphics.Variant(r.Wireframe, &res.ReflectSolid, &res.ReflectWire).Bind(ctx)
	ctx.SetConstantBuffer(constants.SlotGlobal, m.ReflectedBuffer())
	ctx.ClearDepthStencil(r.depthStencil, gpu.ClearDepth, 1, 0)
	for _, obj := range s.Basic {
		obj.Render(ctx)
	}
	graphics.Variant(r.Wireframe, &res.ReflectSkyboxSolid, &res.ReflectSkyboxWire).Bind(ctx)
	s.Skybox.Render(ctx)

	blend := *graphics.Variant(r.Wireframe, &res.MirrorBlendSolid, &res.MirrorBlendWire)
	a := r.MirrorAlpha
	blend.SetBlendFactor([4]float32{a, a, a, 1})
	blend.Bind(ctx)
	ctx.SetConstantBuffer(constants.SlotGlobal, m.GlobalBuffer())
	s.Mirror.Render(ctx)
}

// postEffectsPass applies the depth and fog effects to the resolved image.
func (r *Renderer) postEffectsPass(s *scene.Scene, m *constants.Manager) {
	ctx := r.ctx
	r.bindShadowMaps(nil)

	r.res.PostEffects.Bind(ctx)
	ctx.SetConstantBuffer(constants.SlotGlobal, m.GlobalBuffer())
	ctx.SetTexture(graphics.UnitResolved, r.resolved)
	ctx.SetTexture(graphics.UnitDepthOnly, r.depthOnly)
	ctx.SetRenderTargets([]*gpu.Texture{r.postEffects}, nil)
	ctx.SetConstantBuffer(constants.SlotPostEffects, r.postEffectsBuf)
	s.ScreenSquare.Render(ctx)

	ctx.SetTexture(graphics.UnitResolved, nil)
	ctx.SetTexture(graphics.UnitDepthOnly, nil)
}
