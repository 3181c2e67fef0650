// Package graphics holds the process-wide pipeline states, shaders and
// samplers the renderer binds.
package graphics

import "github.com/Faultbox/mirrorlab/internal/engine/gpu"

// PipelineState bundles everything a draw needs besides resources. It is a
// value type: copying one and changing a field derives a new configuration.
type PipelineState struct {
	InputLayout *gpu.InputLayout
	Topology    gpu.Topology

	Vertex   *gpu.Shader
	Hull     *gpu.Shader
	Domain   *gpu.Shader
	Geometry *gpu.Shader
	Pixel    *gpu.Shader

	Rasterizer   *gpu.RasterizerState
	Blend        *gpu.BlendState
	BlendFactor  [4]float32
	DepthStencil *gpu.DepthStencilState
	StencilRef   uint32
}

// SetBlendFactor replaces the constant blend color.
func (p *PipelineState) SetBlendFactor(factor [4]float32) {
	p.BlendFactor = factor
}

// Bind sets every stage of the pipeline. Stages without a shader are
// cleared, so nothing from a previously bound state remains.
func (p *PipelineState) Bind(ctx gpu.Context) {
	ctx.SetInputLayout(p.InputLayout)
	ctx.SetTopology(p.Topology)

	ctx.SetShader(gpu.StageVertex, p.Vertex)
	ctx.SetShader(gpu.StageHull, p.Hull)
	ctx.SetShader(gpu.StageDomain, p.Domain)
	ctx.SetShader(gpu.StageGeometry, p.Geometry)
	ctx.SetShader(gpu.StagePixel, p.Pixel)

	ctx.SetRasterizerState(p.Rasterizer)
	ctx.SetBlendState(p.Blend, p.BlendFactor, gpu.SampleMaskAll)
	ctx.SetDepthStencilState(p.DepthStencil, p.StencilRef)
}
