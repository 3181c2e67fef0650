// Package gpu defines the backend-neutral device and immediate context the
// renderer issues its passes through, together with the state and resource
// types they operate on.
package gpu

import "fmt"

// Handle identifies a backend object.
type Handle uint32

// Topology is the primitive assembly mode.
type Topology int

const (
	TriangleList Topology = iota
	PointList
	LineList
	PatchList
)

// FillMode selects solid or wireframe rasterization.
type FillMode int

const (
	FillSolid FillMode = iota
	FillWireframe
)

// CullMode selects which faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// Winding is the vertex order that defines a front face.
type Winding int

const (
	Clockwise Winding = iota
	CounterClockwise
)

// CompareFunc is used by depth, stencil and comparison samplers.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// StencilOp is applied to the stencil buffer after a stencil/depth test.
type StencilOp int

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncrSat
	StencilDecrSat
	StencilInvert
	StencilIncr
	StencilDecr
)

// BlendFactor scales the source or destination color.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDestColor
	BlendInvDestColor
	BlendDestAlpha
	BlendInvDestAlpha
	BlendConstant
	BlendInvConstant
)

// BlendOp combines the scaled source and destination colors.
type BlendOp int

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

// Format is a texel format.
type Format int

const (
	FormatUnknown Format = iota
	FormatRGBA8
	FormatRGBA8SRGB
	FormatRGBA16F
	FormatR32F
	FormatDepth32F
	FormatDepth24Stencil8
)

// IsDepth reports whether the format is a depth or depth-stencil format.
func (f Format) IsDepth() bool {
	return f == FormatDepth32F || f == FormatDepth24Stencil8
}

// BytesPerPixel returns the size of one texel as uploaded by the CPU.
// Float formats are uploaded as 32-bit floats per component.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA8, FormatRGBA8SRGB, FormatDepth24Stencil8:
		return 4
	case FormatRGBA16F:
		return 16
	case FormatR32F, FormatDepth32F:
		return 4
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA8SRGB:
		return "RGBA8_SRGB"
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatR32F:
		return "R32F"
	case FormatDepth32F:
		return "D32F"
	case FormatDepth24Stencil8:
		return "D24S8"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ShaderStage is one programmable stage of the pipeline.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageHull
	StageDomain
	StageGeometry
	StagePixel

	NumStages = 5
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageHull:
		return "hull"
	case StageDomain:
		return "domain"
	case StageGeometry:
		return "geometry"
	case StagePixel:
		return "pixel"
	}
	return fmt.Sprintf("ShaderStage(%d)", int(s))
}

// Filter selects texture minification and magnification.
type Filter int

const (
	FilterLinear Filter = iota
	FilterPoint
)

// AddressMode handles texture coordinates outside [0, 1].
type AddressMode int

const (
	AddressWrap AddressMode = iota
	AddressClamp
	AddressBorder
)

// ClearFlags selects the planes cleared by ClearDepthStencil.
type ClearFlags uint8

const (
	ClearDepth ClearFlags = 1 << iota
	ClearStencil
)

// BufferKind is the binding a buffer is created for.
type BufferKind int

const (
	VertexBuffer BufferKind = iota
	IndexBuffer
	ConstantBuffer
)

func (k BufferKind) String() string {
	switch k {
	case VertexBuffer:
		return "vertex"
	case IndexBuffer:
		return "index"
	case ConstantBuffer:
		return "constant"
	}
	return fmt.Sprintf("BufferKind(%d)", int(k))
}

// ConstantAlignment is the required size granularity of constant buffers.
const ConstantAlignment = 256

// SampleMaskAll enables every sample.
const SampleMaskAll = 0xffffffff

// RasterizerDesc describes a rasterizer state.
type RasterizerDesc struct {
	Fill        FillMode
	Cull        CullMode
	FrontFace   Winding
	DepthClip   bool
	Multisample bool
}

// RasterizerState is an immutable rasterizer configuration.
type RasterizerState struct {
	ID   Handle
	Desc RasterizerDesc
}

// StencilFaceDesc describes stencil behavior for one face orientation.
type StencilFaceDesc struct {
	Fail      StencilOp
	DepthFail StencilOp
	Pass      StencilOp
	Func      CompareFunc
}

// DepthStencilDesc describes a depth-stencil state.
type DepthStencilDesc struct {
	DepthEnable   bool
	DepthWrite    bool
	DepthFunc     CompareFunc
	StencilEnable bool
	ReadMask      uint8
	WriteMask     uint8
	Front         StencilFaceDesc
	Back          StencilFaceDesc
}

// DepthStencilState is an immutable depth-stencil configuration.
type DepthStencilState struct {
	ID   Handle
	Desc DepthStencilDesc
}

// BlendDesc describes a blend state for all render targets.
type BlendDesc struct {
	AlphaToCoverage bool
	Enable          bool
	Src             BlendFactor
	Dst             BlendFactor
	Op              BlendOp
	SrcAlpha        BlendFactor
	DstAlpha        BlendFactor
	AlphaOp         BlendOp
}

// BlendState is an immutable blend configuration. A nil *BlendState binds
// the default opaque state.
type BlendState struct {
	ID   Handle
	Desc BlendDesc
}

// SamplerDesc describes a sampler.
type SamplerDesc struct {
	Filter      Filter
	Address     AddressMode
	BorderColor [4]float32
	// Comparison enables depth comparison with CompareFunc.
	Comparison  bool
	CompareFunc CompareFunc
}

// Sampler is an immutable sampler object.
type Sampler struct {
	ID   Handle
	Desc SamplerDesc
}

// VertexAttribute is one element of an input layout. Components are 32-bit
// floats.
type VertexAttribute struct {
	Name       string
	Location   uint32
	Components int32
	Offset     int
}

// InputLayout describes the vertex buffer layout a vertex shader consumes.
type InputLayout struct {
	ID         Handle
	Stride     int
	Attributes []VertexAttribute
}

// ShaderDesc is the source and resource bindings of one shader stage.
// UniformBlocks maps block names to constant buffer slots and Samplers maps
// sampler uniform names to texture units.
type ShaderDesc struct {
	Stage         ShaderStage
	Name          string
	Source        string
	UniformBlocks map[string]uint32
	Samplers      map[string]uint32
}

// Shader is a compiled shader for one stage.
type Shader struct {
	ID    Handle
	Stage ShaderStage
	Name  string
}

// Buffer is a GPU buffer.
type Buffer struct {
	ID   Handle
	Kind BufferKind
	Size int
}

// TextureDesc describes a texture and the views it is created with.
type TextureDesc struct {
	Width          int
	Height         int
	Format         Format
	Samples        int
	Cube           bool
	Mips           bool
	RenderTarget   bool
	DepthStencil   bool
	ShaderResource bool
}

// Multisampled reports whether the texture has more than one sample.
func (d TextureDesc) Multisampled() bool {
	return d.Samples > 1
}

// Texture is a 2D or cube texture.
type Texture struct {
	ID   Handle
	Desc TextureDesc
}

// BackBuffer is the presentable surface as a render target.
var BackBuffer = &Texture{Desc: TextureDesc{Format: FormatRGBA8, RenderTarget: true}}

// Viewport maps clip space onto a render target region.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// FullViewport covers a w x h target with depth range [0, 1].
func FullViewport(w, h int) Viewport {
	return Viewport{Width: float32(w), Height: float32(h), MaxDepth: 1}
}

// Resource is any object a Device can release.
type Resource interface {
	resource()
}

func (*RasterizerState) resource()   {}
func (*DepthStencilState) resource() {}
func (*BlendState) resource()        {}
func (*Sampler) resource()           {}
func (*InputLayout) resource()       {}
func (*Shader) resource()            {}
func (*Buffer) resource()            {}
func (*Texture) resource()           {}
