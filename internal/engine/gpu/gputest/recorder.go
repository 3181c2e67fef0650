// Package gputest provides a recording gpu.Device and gpu.Context for tests.
package gputest

import (
	"fmt"
	"image"
	"maps"
	"slices"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
)

// State is the bound context state.
type State struct {
	InputLayout  *gpu.InputLayout
	Topology     gpu.Topology
	Shaders      [gpu.NumStages]*gpu.Shader
	Rasterizer   *gpu.RasterizerState
	Blend        *gpu.BlendState
	BlendFactor  [4]float32
	SampleMask   uint32
	DepthStencil *gpu.DepthStencilState
	StencilRef   uint32

	Viewport      gpu.Viewport
	RenderTargets []*gpu.Texture
	Depth         *gpu.Texture

	ConstantBuffers map[uint32]*gpu.Buffer
	Textures        map[uint32]*gpu.Texture
	Samplers        map[uint32]*gpu.Sampler
	VertexBuffer    *gpu.Buffer
	IndexBuffer     *gpu.Buffer
}

func (s *State) clone() *State {
	c := *s
	c.RenderTargets = slices.Clone(s.RenderTargets)
	c.ConstantBuffers = maps.Clone(s.ConstantBuffers)
	c.Textures = maps.Clone(s.Textures)
	c.Samplers = maps.Clone(s.Samplers)
	return &c
}

// Shader returns the shader bound to a stage.
func (s *State) Shader(stage gpu.ShaderStage) *gpu.Shader {
	return s.Shaders[stage]
}

// Command is one recorded context call. State holds a snapshot of the bound
// state for draws and clears.
type Command struct {
	Op    string
	Args  []any
	State *State
}

// Recorder implements gpu.Device and gpu.Context in memory.
type Recorder struct {
	Commands []Command

	state    State
	nextID   gpu.Handle
	buffers  map[gpu.Handle][]byte
	released map[gpu.Handle]bool
	live     map[gpu.Handle]gpu.Resource

	// FailOn makes the named creation call fail, e.g. "CreateShader".
	FailOn string
}

var (
	_ gpu.Device  = (*Recorder)(nil)
	_ gpu.Context = (*Recorder)(nil)
)

// New creates an empty recorder.
func New() *Recorder {
	r := &Recorder{
		buffers:  make(map[gpu.Handle][]byte),
		released: make(map[gpu.Handle]bool),
		live:     make(map[gpu.Handle]gpu.Resource),
	}
	r.resetState()
	return r
}

func (r *Recorder) resetState() {
	r.state = State{
		ConstantBuffers: make(map[uint32]*gpu.Buffer),
		Textures:        make(map[uint32]*gpu.Texture),
		Samplers:        make(map[uint32]*gpu.Sampler),
	}
}

// State returns the currently bound state.
func (r *Recorder) State() *State {
	return &r.state
}

// Reset drops recorded commands but keeps objects and bound state.
func (r *Recorder) Reset() {
	r.Commands = r.Commands[:0]
}

// Ops returns the operation names of the recorded commands.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Commands))
	for i, c := range r.Commands {
		ops[i] = c.Op
	}
	return ops
}

// Draws returns the Draw and DrawIndexed commands.
func (r *Recorder) Draws() []Command {
	var out []Command
	for _, c := range r.Commands {
		if c.Op == "Draw" || c.Op == "DrawIndexed" {
			out = append(out, c)
		}
	}
	return out
}

// BufferData returns the last contents written to a buffer.
func (r *Recorder) BufferData(buf *gpu.Buffer) []byte {
	return r.buffers[buf.ID]
}

// Released reports whether the object was passed to Release.
func (r *Recorder) Released(id gpu.Handle) bool {
	return r.released[id]
}

// Live returns the number of created objects not yet released.
func (r *Recorder) Live() int {
	return len(r.live)
}

func (r *Recorder) record(op string, snapshot bool, args ...any) {
	c := Command{Op: op, Args: args}
	if snapshot {
		c.State = r.state.clone()
	}
	r.Commands = append(r.Commands, c)
}

func (r *Recorder) newID(op string, res gpu.Resource) (gpu.Handle, error) {
	if r.FailOn == op {
		return 0, fmt.Errorf("%s: injected failure", op)
	}
	r.nextID++
	r.live[r.nextID] = res
	return r.nextID, nil
}

// CreateBuffer implements gpu.Device.
func (r *Recorder) CreateBuffer(kind gpu.BufferKind, data []byte, size int) (*gpu.Buffer, error) {
	if data != nil && size == 0 {
		size = len(data)
	}
	if err := gpu.ValidateBufferSize(kind, size); err != nil {
		return nil, err
	}
	buf := &gpu.Buffer{Kind: kind, Size: size}
	id, err := r.newID("CreateBuffer", buf)
	if err != nil {
		return nil, err
	}
	buf.ID = id
	contents := make([]byte, size)
	copy(contents, data)
	r.buffers[id] = contents
	return buf, nil
}

// CreateTexture implements gpu.Device.
func (r *Recorder) CreateTexture(desc gpu.TextureDesc, pixels []byte) (*gpu.Texture, error) {
	if err := gpu.ValidateTextureDesc(desc, pixels); err != nil {
		return nil, err
	}
	tex := &gpu.Texture{Desc: desc}
	id, err := r.newID("CreateTexture", tex)
	if err != nil {
		return nil, err
	}
	tex.ID = id
	return tex, nil
}

// CreateCubeTexture implements gpu.Device.
func (r *Recorder) CreateCubeTexture(desc gpu.TextureDesc, faces [6][]byte) (*gpu.Texture, error) {
	desc.Cube = true
	for _, face := range faces {
		if err := gpu.ValidateTextureDesc(desc, face); err != nil {
			return nil, err
		}
	}
	tex := &gpu.Texture{Desc: desc}
	id, err := r.newID("CreateCubeTexture", tex)
	if err != nil {
		return nil, err
	}
	tex.ID = id
	return tex, nil
}

// CreateShader implements gpu.Device.
func (r *Recorder) CreateShader(desc gpu.ShaderDesc) (*gpu.Shader, error) {
	if desc.Source == "" {
		return nil, fmt.Errorf("%s shader %q: empty source", desc.Stage, desc.Name)
	}
	sh := &gpu.Shader{Stage: desc.Stage, Name: desc.Name}
	id, err := r.newID("CreateShader", sh)
	if err != nil {
		return nil, err
	}
	sh.ID = id
	return sh, nil
}

// CreateRasterizerState implements gpu.Device.
func (r *Recorder) CreateRasterizerState(desc gpu.RasterizerDesc) (*gpu.RasterizerState, error) {
	s := &gpu.RasterizerState{Desc: desc}
	id, err := r.newID("CreateRasterizerState", s)
	if err != nil {
		return nil, err
	}
	s.ID = id
	return s, nil
}

// CreateBlendState implements gpu.Device.
func (r *Recorder) CreateBlendState(desc gpu.BlendDesc) (*gpu.BlendState, error) {
	s := &gpu.BlendState{Desc: desc}
	id, err := r.newID("CreateBlendState", s)
	if err != nil {
		return nil, err
	}
	s.ID = id
	return s, nil
}

// CreateDepthStencilState implements gpu.Device.
func (r *Recorder) CreateDepthStencilState(desc gpu.DepthStencilDesc) (*gpu.DepthStencilState, error) {
	s := &gpu.DepthStencilState{Desc: desc}
	id, err := r.newID("CreateDepthStencilState", s)
	if err != nil {
		return nil, err
	}
	s.ID = id
	return s, nil
}

// CreateSampler implements gpu.Device.
func (r *Recorder) CreateSampler(desc gpu.SamplerDesc) (*gpu.Sampler, error) {
	s := &gpu.Sampler{Desc: desc}
	id, err := r.newID("CreateSampler", s)
	if err != nil {
		return nil, err
	}
	s.ID = id
	return s, nil
}

// CreateInputLayout implements gpu.Device.
func (r *Recorder) CreateInputLayout(stride int, attrs []gpu.VertexAttribute) (*gpu.InputLayout, error) {
	l := &gpu.InputLayout{Stride: stride, Attributes: slices.Clone(attrs)}
	id, err := r.newID("CreateInputLayout", l)
	if err != nil {
		return nil, err
	}
	l.ID = id
	return l, nil
}

// Release implements gpu.Device.
func (r *Recorder) Release(res ...gpu.Resource) {
	for _, obj := range res {
		id := handleOf(obj)
		if id == 0 {
			continue
		}
		r.released[id] = true
		delete(r.live, id)
		delete(r.buffers, id)
	}
}

func handleOf(res gpu.Resource) gpu.Handle {
	switch o := res.(type) {
	case *gpu.Buffer:
		if o != nil {
			return o.ID
		}
	case *gpu.Texture:
		if o != nil {
			return o.ID
		}
	case *gpu.Shader:
		if o != nil {
			return o.ID
		}
	case *gpu.RasterizerState:
		if o != nil {
			return o.ID
		}
	case *gpu.BlendState:
		if o != nil {
			return o.ID
		}
	case *gpu.DepthStencilState:
		if o != nil {
			return o.ID
		}
	case *gpu.Sampler:
		if o != nil {
			return o.ID
		}
	case *gpu.InputLayout:
		if o != nil {
			return o.ID
		}
	}
	return 0
}

// SetInputLayout implements gpu.Context.
func (r *Recorder) SetInputLayout(layout *gpu.InputLayout) {
	r.state.InputLayout = layout
	r.record("SetInputLayout", false, layout)
}

// SetTopology implements gpu.Context.
func (r *Recorder) SetTopology(t gpu.Topology) {
	r.state.Topology = t
	r.record("SetTopology", false, t)
}

// SetShader implements gpu.Context.
func (r *Recorder) SetShader(stage gpu.ShaderStage, shader *gpu.Shader) {
	r.state.Shaders[stage] = shader
	r.record("SetShader", false, stage, shader)
}

// SetRasterizerState implements gpu.Context.
func (r *Recorder) SetRasterizerState(state *gpu.RasterizerState) {
	r.state.Rasterizer = state
	r.record("SetRasterizerState", false, state)
}

// SetBlendState implements gpu.Context.
func (r *Recorder) SetBlendState(state *gpu.BlendState, factor [4]float32, sampleMask uint32) {
	r.state.Blend = state
	r.state.BlendFactor = factor
	r.state.SampleMask = sampleMask
	r.record("SetBlendState", false, state, factor, sampleMask)
}

// SetDepthStencilState implements gpu.Context.
func (r *Recorder) SetDepthStencilState(state *gpu.DepthStencilState, stencilRef uint32) {
	r.state.DepthStencil = state
	r.state.StencilRef = stencilRef
	r.record("SetDepthStencilState", false, state, stencilRef)
}

// SetViewport implements gpu.Context.
func (r *Recorder) SetViewport(vp gpu.Viewport) {
	r.state.Viewport = vp
	r.record("SetViewport", false, vp)
}

// SetRenderTargets implements gpu.Context.
func (r *Recorder) SetRenderTargets(colors []*gpu.Texture, depth *gpu.Texture) {
	r.state.RenderTargets = slices.Clone(colors)
	r.state.Depth = depth
	r.record("SetRenderTargets", false, colors, depth)
}

// ClearRenderTarget implements gpu.Context.
func (r *Recorder) ClearRenderTarget(target *gpu.Texture, color [4]float32) {
	r.record("ClearRenderTarget", true, target, color)
}

// ClearDepthStencil implements gpu.Context.
func (r *Recorder) ClearDepthStencil(target *gpu.Texture, flags gpu.ClearFlags, depth float32, stencil uint8) {
	r.record("ClearDepthStencil", true, target, flags, depth, stencil)
}

// UpdateBuffer implements gpu.Context.
func (r *Recorder) UpdateBuffer(buf *gpu.Buffer, data []byte) {
	contents := r.buffers[buf.ID]
	if len(contents) < len(data) {
		contents = make([]byte, len(data))
	}
	copy(contents, data)
	r.buffers[buf.ID] = contents
	r.record("UpdateBuffer", false, buf, len(data))
}

// SetConstantBuffer implements gpu.Context.
func (r *Recorder) SetConstantBuffer(slot uint32, buf *gpu.Buffer) {
	r.state.ConstantBuffers[slot] = buf
	r.record("SetConstantBuffer", false, slot, buf)
}

// SetTexture implements gpu.Context.
func (r *Recorder) SetTexture(unit uint32, tex *gpu.Texture) {
	r.state.Textures[unit] = tex
	r.record("SetTexture", false, unit, tex)
}

// SetSampler implements gpu.Context.
func (r *Recorder) SetSampler(unit uint32, sampler *gpu.Sampler) {
	r.state.Samplers[unit] = sampler
	r.record("SetSampler", false, unit, sampler)
}

// SetVertexBuffer implements gpu.Context.
func (r *Recorder) SetVertexBuffer(buf *gpu.Buffer) {
	r.state.VertexBuffer = buf
	r.record("SetVertexBuffer", false, buf)
}

// SetIndexBuffer implements gpu.Context.
func (r *Recorder) SetIndexBuffer(buf *gpu.Buffer) {
	r.state.IndexBuffer = buf
	r.record("SetIndexBuffer", false, buf)
}

// Draw implements gpu.Context.
func (r *Recorder) Draw(vertexCount, firstVertex int) {
	r.record("Draw", true, vertexCount, firstVertex)
}

// DrawIndexed implements gpu.Context.
func (r *Recorder) DrawIndexed(indexCount, firstIndex int) {
	r.record("DrawIndexed", true, indexCount, firstIndex)
}

// Resolve implements gpu.Context.
func (r *Recorder) Resolve(dst, src *gpu.Texture) {
	r.record("Resolve", false, dst, src)
}

// ReadPixels implements gpu.Context.
func (r *Recorder) ReadPixels(src *gpu.Texture) (*image.RGBA, error) {
	r.record("ReadPixels", false, src)
	w, h := src.Desc.Width, src.Desc.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("read pixels: texture %d has no size", src.ID)
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

// BeginFrame implements gpu.Context.
func (r *Recorder) BeginFrame() {
	r.record("BeginFrame", false)
}
