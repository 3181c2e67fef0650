package opengl

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
)

type texFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

var texFormats = map[gpu.Format]texFormat{
	gpu.FormatRGBA8:           {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.FormatRGBA8SRGB:       {gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.FormatRGBA16F:         {gl.RGBA16F, gl.RGBA, gl.FLOAT},
	gpu.FormatR32F:            {gl.R32F, gl.RED, gl.FLOAT},
	gpu.FormatDepth32F:        {gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT},
	gpu.FormatDepth24Stencil8: {gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8},
}

func depthAttachment(f gpu.Format) uint32 {
	if f == gpu.FormatDepth24Stencil8 {
		return gl.DEPTH_STENCIL_ATTACHMENT
	}
	return gl.DEPTH_ATTACHMENT
}

func stageType(s gpu.ShaderStage) uint32 {
	switch s {
	case gpu.StageHull:
		return gl.TESS_CONTROL_SHADER
	case gpu.StageDomain:
		return gl.TESS_EVALUATION_SHADER
	case gpu.StageGeometry:
		return gl.GEOMETRY_SHADER
	case gpu.StagePixel:
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

var stageBits = [gpu.NumStages]uint32{
	gpu.StageVertex:   gl.VERTEX_SHADER_BIT,
	gpu.StageHull:     gl.TESS_CONTROL_SHADER_BIT,
	gpu.StageDomain:   gl.TESS_EVALUATION_SHADER_BIT,
	gpu.StageGeometry: gl.GEOMETRY_SHADER_BIT,
	gpu.StagePixel:    gl.FRAGMENT_SHADER_BIT,
}

func primitiveMode(t gpu.Topology) uint32 {
	switch t {
	case gpu.PointList:
		return gl.POINTS
	case gpu.LineList:
		return gl.LINES
	case gpu.PatchList:
		return gl.PATCHES
	}
	return gl.TRIANGLES
}

func compareFunc(f gpu.CompareFunc) uint32 {
	switch f {
	case gpu.CompareNever:
		return gl.NEVER
	case gpu.CompareLess:
		return gl.LESS
	case gpu.CompareEqual:
		return gl.EQUAL
	case gpu.CompareLessEqual:
		return gl.LEQUAL
	case gpu.CompareGreater:
		return gl.GREATER
	case gpu.CompareNotEqual:
		return gl.NOTEQUAL
	case gpu.CompareGreaterEqual:
		return gl.GEQUAL
	}
	return gl.ALWAYS
}

func stencilOp(op gpu.StencilOp) uint32 {
	switch op {
	case gpu.StencilZero:
		return gl.ZERO
	case gpu.StencilReplace:
		return gl.REPLACE
	case gpu.StencilIncrSat:
		return gl.INCR
	case gpu.StencilDecrSat:
		return gl.DECR
	case gpu.StencilInvert:
		return gl.INVERT
	case gpu.StencilIncr:
		return gl.INCR_WRAP
	case gpu.StencilDecr:
		return gl.DECR_WRAP
	}
	return gl.KEEP
}

func blendFactor(f gpu.BlendFactor) uint32 {
	switch f {
	case gpu.BlendZero:
		return gl.ZERO
	case gpu.BlendSrcColor:
		return gl.SRC_COLOR
	case gpu.BlendInvSrcColor:
		return gl.ONE_MINUS_SRC_COLOR
	case gpu.BlendSrcAlpha:
		return gl.SRC_ALPHA
	case gpu.BlendInvSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case gpu.BlendDestColor:
		return gl.DST_COLOR
	case gpu.BlendInvDestColor:
		return gl.ONE_MINUS_DST_COLOR
	case gpu.BlendDestAlpha:
		return gl.DST_ALPHA
	case gpu.BlendInvDestAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case gpu.BlendConstant:
		return gl.CONSTANT_COLOR
	case gpu.BlendInvConstant:
		return gl.ONE_MINUS_CONSTANT_COLOR
	}
	return gl.ONE
}

func blendEquation(op gpu.BlendOp) uint32 {
	switch op {
	case gpu.BlendOpSubtract:
		return gl.FUNC_SUBTRACT
	case gpu.BlendOpReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT
	case gpu.BlendOpMin:
		return gl.MIN
	case gpu.BlendOpMax:
		return gl.MAX
	}
	return gl.FUNC_ADD
}

func wrapMode(a gpu.AddressMode) int32 {
	switch a {
	case gpu.AddressClamp:
		return gl.CLAMP_TO_EDGE
	case gpu.AddressBorder:
		return gl.CLAMP_TO_BORDER
	}
	return gl.REPEAT
}

func filterModes(f gpu.Filter) (minFilter, magFilter int32) {
	if f == gpu.FilterPoint {
		return gl.NEAREST_MIPMAP_NEAREST, gl.NEAREST
	}
	return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
}

func setEnabled(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}
