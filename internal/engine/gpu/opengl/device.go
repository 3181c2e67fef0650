// Package opengl implements gpu.Device and gpu.Context on OpenGL 4.1 core.
// All calls must be made from the thread owning the GL context.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/logger"
)

// Device creates GL objects. It owns the immediate Context.
type Device struct {
	ctx    *Context
	log    *zap.Logger
	nextID gpu.Handle
}

var (
	_ gpu.Device  = (*Device)(nil)
	_ gpu.Context = (*Context)(nil)
)

// New initializes the GL function pointers for the current context and
// returns the device and its immediate context.
func New() (*Device, *Context, error) {
	if err := gl.Init(); err != nil {
		return nil, nil, fmt.Errorf("gl init: %w", err)
	}

	d := &Device{log: logger.Named("gl")}
	d.ctx = newContext(d)

	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))))
	return d, d.ctx, nil
}

func (d *Device) id() gpu.Handle {
	d.nextID++
	return d.nextID
}

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(kind gpu.BufferKind, data []byte, size int) (*gpu.Buffer, error) {
	if data != nil && size == 0 {
		size = len(data)
	}
	if err := gpu.ValidateBufferSize(kind, size); err != nil {
		return nil, err
	}

	target, usage := uint32(gl.ARRAY_BUFFER), uint32(gl.STATIC_DRAW)
	switch kind {
	case gpu.IndexBuffer:
		target = gl.ELEMENT_ARRAY_BUFFER
	case gpu.ConstantBuffer:
		target, usage = gl.UNIFORM_BUFFER, gl.DYNAMIC_DRAW
	}

	var name uint32
	gl.GenBuffers(1, &name)
	if target == gl.ELEMENT_ARRAY_BUFFER {
		// Element bindings are VAO state.
		gl.BindVertexArray(d.ctx.vao)
	}
	gl.BindBuffer(target, name)
	if len(data) > 0 {
		gl.BufferData(target, size, gl.Ptr(data), usage)
	} else {
		gl.BufferData(target, size, nil, usage)
	}
	return &gpu.Buffer{ID: gpu.Handle(name), Kind: kind, Size: size}, nil
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(desc gpu.TextureDesc, pixels []byte) (*gpu.Texture, error) {
	if err := gpu.ValidateTextureDesc(desc, pixels); err != nil {
		return nil, err
	}
	tf := texFormats[desc.Format]

	var name uint32
	gl.GenTextures(1, &name)
	gl.ActiveTexture(gl.TEXTURE0 + scratchUnit)

	w, h := int32(desc.Width), int32(desc.Height)
	if desc.Multisampled() {
		gl.BindTexture(gl.TEXTURE_2D_MULTISAMPLE, name)
		gl.TexImage2DMultisample(gl.TEXTURE_2D_MULTISAMPLE, int32(desc.Samples), uint32(tf.internal), w, h, true)
		gl.BindTexture(gl.TEXTURE_2D_MULTISAMPLE, 0)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, name)
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
		gl.TexImage2D(gl.TEXTURE_2D, 0, tf.internal, w, h, 0, tf.format, tf.xtype, pixelPtr(pixels))
		finishMips(gl.TEXTURE_2D, desc.Mips && len(pixels) > 0)
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}

	if err := glError("create texture"); err != nil {
		gl.DeleteTextures(1, &name)
		return nil, err
	}
	return &gpu.Texture{ID: gpu.Handle(name), Desc: desc}, nil
}

// CreateCubeTexture implements gpu.Device. Faces are ordered +X, -X, +Y,
// -Y, +Z, -Z.
func (d *Device) CreateCubeTexture(desc gpu.TextureDesc, faces [6][]byte) (*gpu.Texture, error) {
	desc.Cube = true
	for _, face := range faces {
		if err := gpu.ValidateTextureDesc(desc, face); err != nil {
			return nil, err
		}
	}
	tf := texFormats[desc.Format]

	var name uint32
	gl.GenTextures(1, &name)
	gl.ActiveTexture(gl.TEXTURE0 + scratchUnit)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, name)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for i, face := range faces {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, tf.internal,
			int32(desc.Width), int32(desc.Height), 0, tf.format, tf.xtype, pixelPtr(face))
	}
	finishMips(gl.TEXTURE_CUBE_MAP, desc.Mips)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	if err := glError("create cube texture"); err != nil {
		gl.DeleteTextures(1, &name)
		return nil, err
	}
	return &gpu.Texture{ID: gpu.Handle(name), Desc: desc}, nil
}

func pixelPtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return gl.Ptr(b)
}

func finishMips(target uint32, mips bool) {
	if mips {
		gl.GenerateMipmap(target)
		return
	}
	gl.TexParameteri(target, gl.TEXTURE_MAX_LEVEL, 0)
}

// CreateRasterizerState implements gpu.Device.
func (d *Device) CreateRasterizerState(desc gpu.RasterizerDesc) (*gpu.RasterizerState, error) {
	return &gpu.RasterizerState{ID: d.id(), Desc: desc}, nil
}

// CreateBlendState implements gpu.Device.
func (d *Device) CreateBlendState(desc gpu.BlendDesc) (*gpu.BlendState, error) {
	return &gpu.BlendState{ID: d.id(), Desc: desc}, nil
}

// CreateDepthStencilState implements gpu.Device.
func (d *Device) CreateDepthStencilState(desc gpu.DepthStencilDesc) (*gpu.DepthStencilState, error) {
	return &gpu.DepthStencilState{ID: d.id(), Desc: desc}, nil
}

// CreateInputLayout implements gpu.Device.
func (d *Device) CreateInputLayout(stride int, attrs []gpu.VertexAttribute) (*gpu.InputLayout, error) {
	for _, a := range attrs {
		if a.Components < 1 || a.Components > 4 {
			return nil, fmt.Errorf("input layout: attribute %q has %d components", a.Name, a.Components)
		}
		if a.Offset+int(a.Components)*4 > stride {
			return nil, fmt.Errorf("input layout: attribute %q exceeds stride %d", a.Name, stride)
		}
	}
	return &gpu.InputLayout{ID: d.id(), Stride: stride, Attributes: append([]gpu.VertexAttribute(nil), attrs...)}, nil
}

// CreateSampler implements gpu.Device.
func (d *Device) CreateSampler(desc gpu.SamplerDesc) (*gpu.Sampler, error) {
	var name uint32
	gl.GenSamplers(1, &name)

	minFilter, magFilter := filterModes(desc.Filter)
	gl.SamplerParameteri(name, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.SamplerParameteri(name, gl.TEXTURE_MAG_FILTER, magFilter)
	wrap := wrapMode(desc.Address)
	gl.SamplerParameteri(name, gl.TEXTURE_WRAP_S, wrap)
	gl.SamplerParameteri(name, gl.TEXTURE_WRAP_T, wrap)
	gl.SamplerParameteri(name, gl.TEXTURE_WRAP_R, wrap)
	if desc.Address == gpu.AddressBorder {
		border := desc.BorderColor
		gl.SamplerParameterfv(name, gl.TEXTURE_BORDER_COLOR, &border[0])
	}
	if desc.Comparison {
		gl.SamplerParameteri(name, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.SamplerParameteri(name, gl.TEXTURE_COMPARE_FUNC, int32(compareFunc(desc.CompareFunc)))
	}

	if err := glError("create sampler"); err != nil {
		gl.DeleteSamplers(1, &name)
		return nil, err
	}
	return &gpu.Sampler{ID: gpu.Handle(name), Desc: desc}, nil
}

// Release implements gpu.Device. CPU-side state objects need no cleanup.
func (d *Device) Release(res ...gpu.Resource) {
	for _, r := range res {
		switch o := r.(type) {
		case *gpu.Buffer:
			if o != nil && o.ID != 0 {
				name := uint32(o.ID)
				gl.DeleteBuffers(1, &name)
				o.ID = 0
			}
		case *gpu.Texture:
			if o != nil && o.ID != 0 && o != gpu.BackBuffer {
				d.ctx.fbos.evict(o.ID)
				name := uint32(o.ID)
				gl.DeleteTextures(1, &name)
				o.ID = 0
			}
		case *gpu.Shader:
			if o != nil && o.ID != 0 {
				gl.DeleteProgram(uint32(o.ID))
				o.ID = 0
			}
		case *gpu.Sampler:
			if o != nil && o.ID != 0 {
				name := uint32(o.ID)
				gl.DeleteSamplers(1, &name)
				o.ID = 0
			}
		}
	}
}

// Close releases objects owned by the device itself.
func (d *Device) Close() {
	d.ctx.destroy()
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%x", op, code)
	}
	return nil
}
