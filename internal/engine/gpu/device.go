package gpu

import (
	"errors"
	"fmt"
	"image"
)

// ErrUnaligned is returned when a constant buffer size is not a multiple of
// ConstantAlignment.
var ErrUnaligned = errors.New("constant buffer size not 256-byte aligned")

// Device creates and releases GPU objects. Creation failures are returned and
// treated as fatal during setup.
type Device interface {
	CreateBuffer(kind BufferKind, data []byte, size int) (*Buffer, error)
	CreateTexture(desc TextureDesc, pixels []byte) (*Texture, error)
	CreateCubeTexture(desc TextureDesc, faces [6][]byte) (*Texture, error)
	CreateShader(desc ShaderDesc) (*Shader, error)
	CreateRasterizerState(desc RasterizerDesc) (*RasterizerState, error)
	CreateBlendState(desc BlendDesc) (*BlendState, error)
	CreateDepthStencilState(desc DepthStencilDesc) (*DepthStencilState, error)
	CreateSampler(desc SamplerDesc) (*Sampler, error)
	CreateInputLayout(stride int, attrs []VertexAttribute) (*InputLayout, error)
	Release(res ...Resource)
}

// Context is the immediate command context. Calls are executed in program
// order and have no per-call error path.
type Context interface {
	SetInputLayout(layout *InputLayout)
	SetTopology(t Topology)
	// SetShader binds a shader to a stage; nil clears the stage.
	SetShader(stage ShaderStage, shader *Shader)
	SetRasterizerState(state *RasterizerState)
	SetBlendState(state *BlendState, factor [4]float32, sampleMask uint32)
	SetDepthStencilState(state *DepthStencilState, stencilRef uint32)

	SetViewport(vp Viewport)
	// SetRenderTargets binds color targets and an optional depth target. An
	// empty color list renders depth only.
	SetRenderTargets(colors []*Texture, depth *Texture)
	ClearRenderTarget(target *Texture, color [4]float32)
	ClearDepthStencil(target *Texture, flags ClearFlags, depth float32, stencil uint8)

	UpdateBuffer(buf *Buffer, data []byte)
	SetConstantBuffer(slot uint32, buf *Buffer)
	SetTexture(unit uint32, tex *Texture)
	SetSampler(unit uint32, sampler *Sampler)
	SetVertexBuffer(buf *Buffer)
	SetIndexBuffer(buf *Buffer)

	Draw(vertexCount, firstVertex int)
	DrawIndexed(indexCount, firstIndex int)

	// Resolve copies a multisampled color texture into a single-sample one.
	Resolve(dst, src *Texture)
	// ReadPixels reads a color target back into a top-down RGBA image.
	ReadPixels(src *Texture) (*image.RGBA, error)

	// BeginFrame restores context state other libraries may have changed.
	BeginFrame()
}

// ValidateBufferSize checks the size constraints of a buffer kind.
func ValidateBufferSize(kind BufferKind, size int) error {
	if size <= 0 {
		return fmt.Errorf("%s buffer: invalid size %d", kind, size)
	}
	if kind == ConstantBuffer && size%ConstantAlignment != 0 {
		return fmt.Errorf("%s buffer of %d bytes: %w", kind, size, ErrUnaligned)
	}
	return nil
}

// ValidateTextureDesc checks a texture description before creation.
func ValidateTextureDesc(desc TextureDesc, pixels []byte) error {
	if desc.Width <= 0 || desc.Height <= 0 {
		return fmt.Errorf("texture: invalid size %dx%d", desc.Width, desc.Height)
	}
	if desc.Format == FormatUnknown {
		return errors.New("texture: unknown format")
	}
	if desc.DepthStencil && !desc.Format.IsDepth() {
		return fmt.Errorf("texture: %s cannot be a depth target", desc.Format)
	}
	if desc.Multisampled() && (desc.ShaderResource || pixels != nil) {
		return errors.New("texture: multisampled textures cannot be sampled or initialized")
	}
	if pixels != nil {
		want := desc.Width * desc.Height * desc.Format.BytesPerPixel()
		if len(pixels) != want {
			return fmt.Errorf("texture: got %d bytes of pixel data, want %d", len(pixels), want)
		}
	}
	return nil
}
