package graphics

import (
	"fmt"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/graphics/shaders"
	"github.com/Faultbox/mirrorlab/internal/logger"
)

// Texture units. Material maps use 0-5, image-based lighting 10-13. Each
// shadow map is bound twice: with the comparison sampler for filtering and
// with the point sampler for the blocker search.
const (
	UnitAlbedo            uint32 = 0
	UnitNormal            uint32 = 1
	UnitAO                uint32 = 2
	UnitMetallicRoughness uint32 = 3
	UnitEmissive          uint32 = 4
	UnitHeight            uint32 = 5

	UnitEnv        uint32 = 10
	UnitSpecular   uint32 = 11
	UnitIrradiance uint32 = 12
	UnitBRDF       uint32 = 13

	UnitShadowMap   uint32 = 15
	UnitResolved    uint32 = 20
	UnitDepthOnly   uint32 = 21
	UnitShadowDepth uint32 = 22

	// Image filters read up to two inputs.
	UnitFilterSrc   uint32 = 0
	UnitFilterBloom uint32 = 1
)

// VertexStride is the size of one scene vertex: position, normal, texcoord
// and tangent.
const VertexStride = 44

const glslVersion = "#version 410 core\n"

var uniformBlocks = map[string]uint32{
	"MeshConstants":        constants.SlotMesh,
	"GlobalConstants":      constants.SlotGlobal,
	"MaterialConstants":    constants.SlotMaterial,
	"PostEffectsConstants": constants.SlotPostEffects,
	"ImageFilterConstants": constants.SlotFilter,
}

var samplerUnits = map[string]uint32{
	"albedoTex":            UnitAlbedo,
	"normalTex":            UnitNormal,
	"aoTex":                UnitAO,
	"metallicRoughnessTex": UnitMetallicRoughness,
	"emissiveTex":          UnitEmissive,
	"heightTex":            UnitHeight,
	"envIBLTex":            UnitEnv,
	"specularIBLTex":       UnitSpecular,
	"irradianceIBLTex":     UnitIrradiance,
	"brdfTex":              UnitBRDF,
	"shadowMap0":           UnitShadowMap,
	"shadowMap1":           UnitShadowMap + 1,
	"shadowMap2":           UnitShadowMap + 2,
	"shadowDepth0":         UnitShadowDepth,
	"shadowDepth1":         UnitShadowDepth + 1,
	"shadowDepth2":         UnitShadowDepth + 2,
	"renderTex":            UnitResolved,
	"depthOnlyTex":         UnitDepthOnly,
	"srcTex":               UnitFilterSrc,
	"bloomTex":             UnitFilterBloom,
}

// Resources is the set of pipeline objects shared by every pass. It is
// created once after the device and closed before it.
type Resources struct {
	dev   gpu.Device
	owned []gpu.Resource

	LinearWrap    *gpu.Sampler
	LinearClamp   *gpu.Sampler
	ShadowPoint   *gpu.Sampler
	ShadowCompare *gpu.Sampler

	SolidRS          *gpu.RasterizerState
	SolidCCWRS       *gpu.RasterizerState
	WireRS           *gpu.RasterizerState
	WireCCWRS        *gpu.RasterizerState
	PostProcessingRS *gpu.RasterizerState

	DrawDSS       *gpu.DepthStencilState
	MaskDSS       *gpu.DepthStencilState
	DrawMaskedDSS *gpu.DepthStencilState
	NoDepthDSS    *gpu.DepthStencilState

	MirrorBS   *gpu.BlendState
	AdditiveBS *gpu.BlendState

	BasicIL    *gpu.InputLayout
	SamplingIL *gpu.InputLayout
	SkyboxIL   *gpu.InputLayout

	BasicVS       *gpu.Shader
	BasicPS       *gpu.Shader
	SkyboxVS      *gpu.Shader
	SkyboxPS      *gpu.Shader
	SamplingVS    *gpu.Shader
	NormalVS      *gpu.Shader
	NormalGS      *gpu.Shader
	NormalPS      *gpu.Shader
	DepthOnlyVS   *gpu.Shader
	DepthOnlyPS   *gpu.Shader
	PostEffectsPS *gpu.Shader
	BloomDownPS   *gpu.Shader
	BloomUpPS     *gpu.Shader
	CombinePS     *gpu.Shader

	DefaultSolid       PipelineState
	DefaultWire        PipelineState
	StencilMask        PipelineState
	ReflectSolid       PipelineState
	ReflectWire        PipelineState
	MirrorBlendSolid   PipelineState
	MirrorBlendWire    PipelineState
	SkyboxSolid        PipelineState
	SkyboxWire         PipelineState
	ReflectSkyboxSolid PipelineState
	ReflectSkyboxWire  PipelineState
	Normals            PipelineState
	DepthOnly          PipelineState
	PostEffects        PipelineState
	PostProcessing     PipelineState
}

// New creates every sampler, state, shader and pipeline. On failure the
// objects created so far are released and the first error is returned.
func New(dev gpu.Device) (*Resources, error) {
	r := &Resources{dev: dev}
	b := &builder{dev: dev}

	r.initSamplers(b)
	r.initRasterizerStates(b)
	r.initDepthStencilStates(b)
	r.initBlendStates(b)
	r.initShaders(b)
	r.owned = b.owned

	if b.err != nil {
		r.Close()
		return nil, b.err
	}
	r.initPipelineStates()

	logger.Debug("graphics resources created")
	return r, nil
}

// Close releases every object New created.
func (r *Resources) Close() {
	r.dev.Release(r.owned...)
	r.owned = nil
}

// BindSamplers binds the sampler of every texture unit the shaders use.
func (r *Resources) BindSamplers(ctx gpu.Context) {
	for u := UnitAlbedo; u <= UnitHeight; u++ {
		ctx.SetSampler(u, r.LinearWrap)
	}
	for u := UnitEnv; u <= UnitBRDF; u++ {
		ctx.SetSampler(u, r.LinearWrap)
	}
	for i := uint32(0); i < constants.MaxLights; i++ {
		ctx.SetSampler(UnitShadowMap+i, r.ShadowCompare)
		ctx.SetSampler(UnitShadowDepth+i, r.ShadowPoint)
	}
	ctx.SetSampler(UnitResolved, r.LinearClamp)
	ctx.SetSampler(UnitDepthOnly, r.LinearClamp)
}

// builder records the first creation error and every created object.
type builder struct {
	dev   gpu.Device
	err   error
	owned []gpu.Resource
}

func create[T gpu.Resource](b *builder, what string, fn func() (T, error)) T {
	var zero T
	if b.err != nil {
		return zero
	}
	res, err := fn()
	if err != nil {
		b.err = fmt.Errorf("create %s: %w", what, err)
		return zero
	}
	b.owned = append(b.owned, res)
	return res
}

func (r *Resources) initSamplers(b *builder) {
	r.LinearWrap = create(b, "linearWrap sampler", func() (*gpu.Sampler, error) {
		return b.dev.CreateSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, Address: gpu.AddressWrap})
	})
	r.LinearClamp = create(b, "linearClamp sampler", func() (*gpu.Sampler, error) {
		return b.dev.CreateSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, Address: gpu.AddressClamp})
	})
	// Outside the map reads as far depth.
	r.ShadowPoint = create(b, "shadowPoint sampler", func() (*gpu.Sampler, error) {
		return b.dev.CreateSampler(gpu.SamplerDesc{
			Filter:      gpu.FilterPoint,
			Address:     gpu.AddressBorder,
			BorderColor: [4]float32{1, 1, 1, 1},
		})
	})
	r.ShadowCompare = create(b, "shadowCompare sampler", func() (*gpu.Sampler, error) {
		return b.dev.CreateSampler(gpu.SamplerDesc{
			Filter:      gpu.FilterPoint,
			Address:     gpu.AddressBorder,
			BorderColor: [4]float32{100, 0, 0, 0},
			Comparison:  true,
			CompareFunc: gpu.CompareLessEqual,
		})
	})
}

func (r *Resources) initRasterizerStates(b *builder) {
	rs := func(what string, desc gpu.RasterizerDesc) *gpu.RasterizerState {
		return create(b, what, func() (*gpu.RasterizerState, error) {
			return b.dev.CreateRasterizerState(desc)
		})
	}
	solid := gpu.RasterizerDesc{
		Fill:        gpu.FillSolid,
		Cull:        gpu.CullBack,
		FrontFace:   gpu.Clockwise,
		DepthClip:   true,
		Multisample: true,
	}
	r.SolidRS = rs("solid rasterizer", solid)

	ccw := solid
	ccw.FrontFace = gpu.CounterClockwise
	r.SolidCCWRS = rs("solidCCW rasterizer", ccw)

	wire := solid
	wire.Fill = gpu.FillWireframe
	r.WireRS = rs("wire rasterizer", wire)

	wireCCW := wire
	wireCCW.FrontFace = gpu.CounterClockwise
	r.WireCCWRS = rs("wireCCW rasterizer", wireCCW)

	r.PostProcessingRS = rs("postProcessing rasterizer", gpu.RasterizerDesc{
		Fill:      gpu.FillSolid,
		Cull:      gpu.CullNone,
		FrontFace: gpu.Clockwise,
	})
}

func (r *Resources) initDepthStencilStates(b *builder) {
	dss := func(what string, desc gpu.DepthStencilDesc) *gpu.DepthStencilState {
		return create(b, what, func() (*gpu.DepthStencilState, error) {
			return b.dev.CreateDepthStencilState(desc)
		})
	}
	keep := gpu.StencilFaceDesc{
		Fail:      gpu.StencilKeep,
		DepthFail: gpu.StencilKeep,
		Pass:      gpu.StencilKeep,
		Func:      gpu.CompareAlways,
	}
	replace := keep
	replace.Pass = gpu.StencilReplace

	r.DrawDSS = dss("draw depth-stencil", gpu.DepthStencilDesc{
		DepthEnable: true,
		DepthWrite:  true,
		DepthFunc:   gpu.CompareLess,
		ReadMask:    0xff,
		WriteMask:   0xff,
		Front:       keep,
		Back:        replace,
	})

	// Marks the mirror footprint with the reference value without
	// touching depth.
	r.MaskDSS = dss("mask depth-stencil", gpu.DepthStencilDesc{
		DepthEnable:   true,
		DepthWrite:    false,
		DepthFunc:     gpu.CompareLess,
		StencilEnable: true,
		ReadMask:      0xff,
		WriteMask:     0xff,
		Front:         replace,
		Back:          replace,
	})

	equal := keep
	equal.Func = gpu.CompareEqual
	r.DrawMaskedDSS = dss("drawMasked depth-stencil", gpu.DepthStencilDesc{
		DepthEnable:   true,
		DepthWrite:    true,
		DepthFunc:     gpu.CompareLessEqual,
		StencilEnable: true,
		ReadMask:      0xff,
		WriteMask:     0xff,
		Front:         equal,
		// Back faces keep the draw state's replace op.
		Back:          replace,
	})

	// Full-screen passes may target a surface whose depth is never cleared.
	r.NoDepthDSS = dss("noDepth depth-stencil", gpu.DepthStencilDesc{
		DepthFunc: gpu.CompareAlways,
		Front:     keep,
		Back:      keep,
	})
}

func (r *Resources) initBlendStates(b *builder) {
	r.MirrorBS = create(b, "mirror blend", func() (*gpu.BlendState, error) {
		return b.dev.CreateBlendState(gpu.BlendDesc{
			AlphaToCoverage: true,
			Enable:          true,
			Src:             gpu.BlendConstant,
			Dst:             gpu.BlendInvConstant,
			Op:              gpu.BlendOpAdd,
			SrcAlpha:        gpu.BlendOne,
			DstAlpha:        gpu.BlendOne,
			AlphaOp:         gpu.BlendOpAdd,
		})
	})
	r.AdditiveBS = create(b, "additive blend", func() (*gpu.BlendState, error) {
		return b.dev.CreateBlendState(gpu.BlendDesc{
			Enable:   true,
			Src:      gpu.BlendOne,
			Dst:      gpu.BlendOne,
			Op:       gpu.BlendOpAdd,
			SrcAlpha: gpu.BlendOne,
			DstAlpha: gpu.BlendZero,
			AlphaOp:  gpu.BlendOpAdd,
		})
	})
}

func (r *Resources) initShaders(b *builder) {
	layout := func(what string, attrs []gpu.VertexAttribute) *gpu.InputLayout {
		return create(b, what, func() (*gpu.InputLayout, error) {
			return b.dev.CreateInputLayout(VertexStride, attrs)
		})
	}
	position := gpu.VertexAttribute{Name: "POSITION", Location: 0, Components: 3, Offset: 0}
	normal := gpu.VertexAttribute{Name: "NORMAL", Location: 1, Components: 3, Offset: 12}
	texcoord := gpu.VertexAttribute{Name: "TEXCOORD", Location: 2, Components: 2, Offset: 24}
	tangent := gpu.VertexAttribute{Name: "TANGENT", Location: 3, Components: 3, Offset: 32}

	r.BasicIL = layout("basic input layout", []gpu.VertexAttribute{position, normal, texcoord, tangent})
	r.SamplingIL = layout("sampling input layout", []gpu.VertexAttribute{position, normal, texcoord})
	r.SkyboxIL = layout("skybox input layout", []gpu.VertexAttribute{position, normal, texcoord, tangent})

	shader := func(stage gpu.ShaderStage, name, body string) *gpu.Shader {
		return create(b, name+" shader", func() (*gpu.Shader, error) {
			return b.dev.CreateShader(gpu.ShaderDesc{
				Stage:         stage,
				Name:          name,
				Source:        glslVersion + shaders.Common + body,
				UniformBlocks: uniformBlocks,
				Samplers:      samplerUnits,
			})
		})
	}
	r.BasicVS = shader(gpu.StageVertex, "basicVS", shaders.BasicVertexShader)
	r.BasicPS = shader(gpu.StagePixel, "basicPS", shaders.BasicFragmentShader)
	r.SkyboxVS = shader(gpu.StageVertex, "skyboxVS", shaders.SkyboxVertexShader)
	r.SkyboxPS = shader(gpu.StagePixel, "skyboxPS", shaders.SkyboxFragmentShader)
	r.SamplingVS = shader(gpu.StageVertex, "samplingVS", shaders.SamplingVertexShader)
	r.NormalVS = shader(gpu.StageVertex, "normalVS", shaders.NormalVertexShader)
	r.NormalGS = shader(gpu.StageGeometry, "normalGS", shaders.NormalGeometryShader)
	r.NormalPS = shader(gpu.StagePixel, "normalPS", shaders.NormalFragmentShader)
	r.DepthOnlyVS = shader(gpu.StageVertex, "depthOnlyVS", shaders.DepthOnlyVertexShader)
	r.DepthOnlyPS = shader(gpu.StagePixel, "depthOnlyPS", shaders.DepthOnlyFragmentShader)
	r.PostEffectsPS = shader(gpu.StagePixel, "postEffectsPS", shaders.PostEffectsFragmentShader)
	r.BloomDownPS = shader(gpu.StagePixel, "bloomDownPS", shaders.BloomDownFragmentShader)
	r.BloomUpPS = shader(gpu.StagePixel, "bloomUpPS", shaders.BloomUpFragmentShader)
	r.CombinePS = shader(gpu.StagePixel, "combinePS", shaders.CombineFragmentShader)
}

func (r *Resources) initPipelineStates() {
	r.DefaultSolid = PipelineState{
		InputLayout:  r.BasicIL,
		Topology:     gpu.TriangleList,
		Vertex:       r.BasicVS,
		Pixel:        r.BasicPS,
		Rasterizer:   r.SolidRS,
		DepthStencil: r.DrawDSS,
	}

	r.DefaultWire = r.DefaultSolid
	r.DefaultWire.Rasterizer = r.WireRS

	r.StencilMask = r.DefaultSolid
	r.StencilMask.DepthStencil = r.MaskDSS
	r.StencilMask.StencilRef = 1
	r.StencilMask.Vertex = r.DepthOnlyVS
	r.StencilMask.Pixel = r.DepthOnlyPS

	// A reflection flips handedness, so front faces wind the other way.
	r.ReflectSolid = r.DefaultSolid
	r.ReflectSolid.DepthStencil = r.DrawMaskedDSS
	r.ReflectSolid.Rasterizer = r.SolidCCWRS
	r.ReflectSolid.StencilRef = 1

	r.ReflectWire = r.ReflectSolid
	r.ReflectWire.Rasterizer = r.WireCCWRS

	r.MirrorBlendSolid = r.DefaultSolid
	r.MirrorBlendSolid.Blend = r.MirrorBS
	r.MirrorBlendSolid.DepthStencil = r.DrawMaskedDSS
	r.MirrorBlendSolid.StencilRef = 1

	r.MirrorBlendWire = r.DefaultWire
	r.MirrorBlendWire.Blend = r.MirrorBS
	r.MirrorBlendWire.DepthStencil = r.DrawMaskedDSS
	r.MirrorBlendWire.StencilRef = 1

	r.SkyboxSolid = r.DefaultSolid
	r.SkyboxSolid.InputLayout = r.SkyboxIL
	r.SkyboxSolid.Vertex = r.SkyboxVS
	r.SkyboxSolid.Pixel = r.SkyboxPS

	r.SkyboxWire = r.SkyboxSolid
	r.SkyboxWire.Rasterizer = r.WireRS

	r.ReflectSkyboxSolid = r.SkyboxSolid
	r.ReflectSkyboxSolid.DepthStencil = r.DrawMaskedDSS
	r.ReflectSkyboxSolid.Rasterizer = r.SolidCCWRS
	r.ReflectSkyboxSolid.StencilRef = 1

	r.ReflectSkyboxWire = r.ReflectSkyboxSolid
	r.ReflectSkyboxWire.Rasterizer = r.WireCCWRS

	r.Normals = r.DefaultSolid
	r.Normals.Vertex = r.NormalVS
	r.Normals.Geometry = r.NormalGS
	r.Normals.Pixel = r.NormalPS
	r.Normals.Topology = gpu.PointList

	r.DepthOnly = r.DefaultSolid
	r.DepthOnly.Vertex = r.DepthOnlyVS
	r.DepthOnly.Pixel = r.DepthOnlyPS

	r.PostEffects = PipelineState{
		InputLayout:  r.SamplingIL,
		Topology:     gpu.TriangleList,
		Vertex:       r.SamplingVS,
		Pixel:        r.PostEffectsPS,
		Rasterizer:   r.PostProcessingRS,
		DepthStencil: r.NoDepthDSS,
	}

	// Image filters replace the pixel shader per stage.
	r.PostProcessing = r.PostEffects
	r.PostProcessing.Pixel = r.DepthOnlyPS
}

// Variant returns the solid or wireframe pipeline of a pair.
func Variant(wire bool, solid, wireframe *PipelineState) *PipelineState {
	if wire {
		return wireframe
	}
	return solid
}
