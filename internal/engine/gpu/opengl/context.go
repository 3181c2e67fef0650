package opengl

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
)

// scratchUnit is the texture unit used while creating textures, so uploads
// never disturb bound shader resources.
const scratchUnit = 31

const maxAttributes = 16

var (
	defaultRasterizer = gpu.RasterizerDesc{
		Fill:      gpu.FillSolid,
		Cull:      gpu.CullBack,
		FrontFace: gpu.Clockwise,
		DepthClip: true,
	}
	defaultDepthStencil = gpu.DepthStencilDesc{
		DepthEnable: true,
		DepthWrite:  true,
		DepthFunc:   gpu.CompareLess,
		ReadMask:    0xff,
		WriteMask:   0xff,
	}
)

// Context is the immediate GL context.
type Context struct {
	dev      *Device
	log      *zap.Logger
	vao      uint32
	pipeline uint32
	fbos     *fboCache

	layout     *gpu.InputLayout
	vertexBuf  *gpu.Buffer
	enabled    [maxAttributes]bool
	mode       uint32
	dss        gpu.DepthStencilDesc
	colors     []*gpu.Texture
	depth      *gpu.Texture
	fbo        uint32
	unitTarget map[uint32]uint32

	surfaceW, surfaceH int
}

func newContext(d *Device) *Context {
	c := &Context{
		dev:        d,
		log:        d.log,
		fbos:       newFBOCache(d.log),
		mode:       gl.TRIANGLES,
		dss:        defaultDepthStencil,
		unitTarget: make(map[uint32]uint32),
	}
	gl.GenVertexArrays(1, &c.vao)
	gl.GenProgramPipelines(1, &c.pipeline)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	c.BeginFrame()
	return c
}

func (c *Context) destroy() {
	c.fbos.destroy()
	gl.DeleteProgramPipelines(1, &c.pipeline)
	gl.DeleteVertexArrays(1, &c.vao)
}

// SetSurfaceSize records the window framebuffer size used for back buffer
// reads.
func (c *Context) SetSurfaceSize(w, h int) {
	c.surfaceW, c.surfaceH = w, h
}

// BeginFrame implements gpu.Context. It rebinds the program pipeline and
// vertex array after the GUI renderer used its own program and VAO.
func (c *Context) BeginFrame() {
	gl.UseProgram(0)
	gl.BindProgramPipeline(c.pipeline)
	gl.BindVertexArray(c.vao)
	gl.Disable(gl.SCISSOR_TEST)
	gl.ColorMask(true, true, true, true)
	c.vertexBuf = nil
	c.fbo = noFramebuffer
	c.colors, c.depth = nil, nil
	clear(c.unitTarget)
}

// SetInputLayout implements gpu.Context.
func (c *Context) SetInputLayout(layout *gpu.InputLayout) {
	c.layout = layout
	c.applyAttributes()
}

// SetTopology implements gpu.Context.
func (c *Context) SetTopology(t gpu.Topology) {
	c.mode = primitiveMode(t)
	if t == gpu.PatchList {
		gl.PatchParameteri(gl.PATCH_VERTICES, 3)
	}
}

// SetShader implements gpu.Context.
func (c *Context) SetShader(stage gpu.ShaderStage, shader *gpu.Shader) {
	var program uint32
	if shader != nil {
		program = uint32(shader.ID)
	}
	gl.UseProgramStages(c.pipeline, stageBits[stage], program)
}

// SetRasterizerState implements gpu.Context.
func (c *Context) SetRasterizerState(state *gpu.RasterizerState) {
	desc := defaultRasterizer
	if state != nil {
		desc = state.Desc
	}

	setEnabled(gl.CULL_FACE, desc.Cull != gpu.CullNone)
	switch desc.Cull {
	case gpu.CullFront:
		gl.CullFace(gl.FRONT)
	case gpu.CullBack:
		gl.CullFace(gl.BACK)
	}
	if desc.FrontFace == gpu.CounterClockwise {
		gl.FrontFace(gl.CCW)
	} else {
		gl.FrontFace(gl.CW)
	}
	if desc.Fill == gpu.FillWireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	setEnabled(gl.DEPTH_CLAMP, !desc.DepthClip)
	setEnabled(gl.MULTISAMPLE, desc.Multisample)
}

// SetBlendState implements gpu.Context.
func (c *Context) SetBlendState(state *gpu.BlendState, factor [4]float32, sampleMask uint32) {
	var desc gpu.BlendDesc
	if state != nil {
		desc = state.Desc
	}

	setEnabled(gl.SAMPLE_ALPHA_TO_COVERAGE, desc.AlphaToCoverage)
	setEnabled(gl.BLEND, desc.Enable)
	if desc.Enable {
		gl.BlendFuncSeparate(blendFactor(desc.Src), blendFactor(desc.Dst),
			blendFactor(desc.SrcAlpha), blendFactor(desc.DstAlpha))
		gl.BlendEquationSeparate(blendEquation(desc.Op), blendEquation(desc.AlphaOp))
	}
	gl.BlendColor(factor[0], factor[1], factor[2], factor[3])

	setEnabled(gl.SAMPLE_MASK, sampleMask != gpu.SampleMaskAll)
	gl.SampleMaski(0, sampleMask)
}

// SetDepthStencilState implements gpu.Context.
func (c *Context) SetDepthStencilState(state *gpu.DepthStencilState, stencilRef uint32) {
	c.dss = defaultDepthStencil
	if state != nil {
		c.dss = state.Desc
	}
	c.applyDepthStencil(stencilRef)
}

func (c *Context) applyDepthStencil(ref uint32) {
	d := c.dss
	setEnabled(gl.DEPTH_TEST, d.DepthEnable)
	gl.DepthMask(d.DepthWrite)
	gl.DepthFunc(compareFunc(d.DepthFunc))

	setEnabled(gl.STENCIL_TEST, d.StencilEnable)
	faces := [2]struct {
		face uint32
		desc gpu.StencilFaceDesc
	}{{gl.FRONT, d.Front}, {gl.BACK, d.Back}}
	for _, f := range faces {
		gl.StencilFuncSeparate(f.face, compareFunc(f.desc.Func), int32(ref), uint32(d.ReadMask))
		gl.StencilOpSeparate(f.face, stencilOp(f.desc.Fail), stencilOp(f.desc.DepthFail), stencilOp(f.desc.Pass))
		gl.StencilMaskSeparate(f.face, uint32(d.WriteMask))
	}
}

// SetViewport implements gpu.Context.
func (c *Context) SetViewport(vp gpu.Viewport) {
	gl.Viewport(int32(vp.X), int32(vp.Y), int32(vp.Width), int32(vp.Height))
	gl.DepthRangef(vp.MinDepth, vp.MaxDepth)
}

// SetRenderTargets implements gpu.Context.
func (c *Context) SetRenderTargets(colors []*gpu.Texture, depth *gpu.Texture) {
	fbo, err := c.fbos.get(colors, depth)
	if err != nil {
		c.log.Error("bind render targets", zap.Error(err))
		return
	}
	c.colors = append(c.colors[:0], colors...)
	c.depth = depth
	c.fbo = fbo
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
}

// withTarget binds a temporary framebuffer for a clear and restores the
// bound one afterwards.
func (c *Context) withTarget(colors []*gpu.Texture, depth *gpu.Texture, fn func()) {
	fbo, err := c.fbos.get(colors, depth)
	if err != nil {
		c.log.Error("clear target", zap.Error(err))
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	fn()
	c.restoreFramebuffer()
}

// noFramebuffer marks that no render targets were set since BeginFrame.
const noFramebuffer = ^uint32(0)

// boundFramebuffer is the framebuffer draws go to: the last render targets,
// or the back buffer when none were set.
func (c *Context) boundFramebuffer() uint32 {
	if c.fbo == noFramebuffer {
		return 0
	}
	return c.fbo
}

// restoreFramebuffer rebinds the draw target after a temporary binding.
func (c *Context) restoreFramebuffer() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, c.boundFramebuffer())
}

// ClearRenderTarget implements gpu.Context.
func (c *Context) ClearRenderTarget(target *gpu.Texture, color [4]float32) {
	c.withTarget([]*gpu.Texture{target}, nil, func() {
		gl.ClearBufferfv(gl.COLOR, 0, &color[0])
	})
}

// ClearDepthStencil implements gpu.Context. Clears ignore the bound depth and
// stencil write masks.
func (c *Context) ClearDepthStencil(target *gpu.Texture, flags gpu.ClearFlags, depth float32, stencil uint8) {
	c.withTarget(nil, target, func() {
		gl.DepthMask(true)
		gl.StencilMask(0xff)
		hasStencil := target.Desc.Format == gpu.FormatDepth24Stencil8
		switch {
		case flags&gpu.ClearDepth != 0 && flags&gpu.ClearStencil != 0 && hasStencil:
			gl.ClearBufferfi(gl.DEPTH_STENCIL, 0, depth, int32(stencil))
		case flags&gpu.ClearDepth != 0:
			gl.ClearBufferfv(gl.DEPTH, 0, &depth)
		case flags&gpu.ClearStencil != 0 && hasStencil:
			s := int32(stencil)
			gl.ClearBufferiv(gl.STENCIL, 0, &s)
		}
		gl.DepthMask(c.dss.DepthWrite)
		gl.StencilMaskSeparate(gl.FRONT, uint32(c.dss.WriteMask))
		gl.StencilMaskSeparate(gl.BACK, uint32(c.dss.WriteMask))
	})
}

// UpdateBuffer implements gpu.Context.
func (c *Context) UpdateBuffer(buf *gpu.Buffer, data []byte) {
	if len(data) == 0 {
		return
	}
	if len(data) > buf.Size {
		c.log.Error("buffer update exceeds size", zap.Int("size", buf.Size), zap.Int("len", len(data)))
		return
	}
	target := uint32(gl.ARRAY_BUFFER)
	switch buf.Kind {
	case gpu.ConstantBuffer:
		target = gl.UNIFORM_BUFFER
	case gpu.IndexBuffer:
		target = gl.ELEMENT_ARRAY_BUFFER
	}
	gl.BindBuffer(target, uint32(buf.ID))
	gl.BufferSubData(target, 0, len(data), gl.Ptr(data))
	if target == gl.ARRAY_BUFFER && c.vertexBuf != nil {
		gl.BindBuffer(gl.ARRAY_BUFFER, uint32(c.vertexBuf.ID))
	}
}

// SetConstantBuffer implements gpu.Context.
func (c *Context) SetConstantBuffer(slot uint32, buf *gpu.Buffer) {
	var name uint32
	if buf != nil {
		name = uint32(buf.ID)
	}
	gl.BindBufferBase(gl.UNIFORM_BUFFER, slot, name)
}

func textureTarget(desc gpu.TextureDesc) uint32 {
	switch {
	case desc.Cube:
		return gl.TEXTURE_CUBE_MAP
	case desc.Multisampled():
		return gl.TEXTURE_2D_MULTISAMPLE
	}
	return gl.TEXTURE_2D
}

// SetTexture implements gpu.Context.
func (c *Context) SetTexture(unit uint32, tex *gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	if tex == nil {
		if target, ok := c.unitTarget[unit]; ok {
			gl.BindTexture(target, 0)
			delete(c.unitTarget, unit)
		}
		return
	}
	target := textureTarget(tex.Desc)
	if prev, ok := c.unitTarget[unit]; ok && prev != target {
		gl.BindTexture(prev, 0)
	}
	gl.BindTexture(target, uint32(tex.ID))
	c.unitTarget[unit] = target
}

// SetSampler implements gpu.Context.
func (c *Context) SetSampler(unit uint32, sampler *gpu.Sampler) {
	var name uint32
	if sampler != nil {
		name = uint32(sampler.ID)
	}
	gl.BindSampler(unit, name)
}

// SetVertexBuffer implements gpu.Context.
func (c *Context) SetVertexBuffer(buf *gpu.Buffer) {
	c.vertexBuf = buf
	c.applyAttributes()
}

func (c *Context) applyAttributes() {
	if c.vertexBuf == nil || c.layout == nil {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(c.vertexBuf.ID))

	var used [maxAttributes]bool
	for _, a := range c.layout.Attributes {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, a.Components, gl.FLOAT, false, int32(c.layout.Stride), uintptr(a.Offset))
		used[a.Location] = true
	}
	for loc := range c.enabled {
		if c.enabled[loc] && !used[loc] {
			gl.DisableVertexAttribArray(uint32(loc))
		}
	}
	c.enabled = used
}

// SetIndexBuffer implements gpu.Context.
func (c *Context) SetIndexBuffer(buf *gpu.Buffer) {
	var name uint32
	if buf != nil {
		name = uint32(buf.ID)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, name)
}

// Draw implements gpu.Context.
func (c *Context) Draw(vertexCount, firstVertex int) {
	gl.DrawArrays(c.mode, int32(firstVertex), int32(vertexCount))
}

// DrawIndexed implements gpu.Context. Indices are 32-bit.
func (c *Context) DrawIndexed(indexCount, firstIndex int) {
	gl.DrawElementsWithOffset(c.mode, int32(indexCount), gl.UNSIGNED_INT, uintptr(firstIndex*4))
}

// Resolve implements gpu.Context.
func (c *Context) Resolve(dst, src *gpu.Texture) {
	srcFBO, err := c.fbos.get([]*gpu.Texture{src}, nil)
	if err != nil {
		c.log.Error("resolve source", zap.Error(err))
		return
	}
	dstFBO, err := c.fbos.get([]*gpu.Texture{dst}, nil)
	if err != nil {
		c.log.Error("resolve destination", zap.Error(err))
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, srcFBO)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dstFBO)
	w, h := int32(src.Desc.Width), int32(src.Desc.Height)
	gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	c.restoreFramebuffer()
}

// ReadPixels implements gpu.Context.
func (c *Context) ReadPixels(src *gpu.Texture) (*image.RGBA, error) {
	w, h := src.Desc.Width, src.Desc.Height
	if src == gpu.BackBuffer {
		w, h = c.surfaceW, c.surfaceH
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("read pixels: invalid size %dx%d", w, h)
	}

	fbo, err := c.fbos.get([]*gpu.Texture{src}, nil)
	if err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	if fbo == 0 {
		gl.ReadBuffer(gl.BACK)
	}
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	c.restoreFramebuffer()
	if err := glError("read pixels"); err != nil {
		return nil, err
	}

	// GL rows start at the bottom.
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	stride := w * 4
	for y := 0; y < h; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+stride], pixels[(h-1-y)*stride:(h-y)*stride])
	}
	return img, nil
}

// CheckErrors drains the GL error queue and logs each error. Returns the
// number of errors found.
func (c *Context) CheckErrors() int {
	n := 0
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		c.log.Error("gl error", zap.Uint32("code", code))
		n++
		if n > 32 {
			break
		}
	}
	return n
}
