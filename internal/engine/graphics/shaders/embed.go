// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// Common declares the uniform blocks and light flags shared by every stage.
//
//go:embed common.glsl
var Common string

// BasicVertexShader transforms meshes and applies height mapping.
//
//go:embed basic.vert
var BasicVertexShader string

// BasicFragmentShader is the PBR shader with IBL and soft shadows.
//
//go:embed basic.frag
var BasicFragmentShader string

// SkyboxVertexShader is the vertex shader for the environment box.
//
//go:embed skybox.vert
var SkyboxVertexShader string

// SkyboxFragmentShader samples the selected IBL cubemap.
//
//go:embed skybox.frag
var SkyboxFragmentShader string

// SamplingVertexShader is the full-screen quad vertex shader.
//
//go:embed sampling.vert
var SamplingVertexShader string

// NormalVertexShader is the vertex shader for normal visualization.
//
//go:embed normal.vert
var NormalVertexShader string

// NormalGeometryShader expands each vertex into a normal line.
//
//go:embed normal.geom
var NormalGeometryShader string

// NormalFragmentShader colors normal lines.
//
//go:embed normal.frag
var NormalFragmentShader string

// DepthOnlyVertexShader writes depth only.
//
//go:embed depth_only.vert
var DepthOnlyVertexShader string

// DepthOnlyFragmentShader has no outputs.
//
//go:embed depth_only.frag
var DepthOnlyFragmentShader string

// PostEffectsFragmentShader applies fog, halos and depth visualization.
//
//go:embed post_effects.frag
var PostEffectsFragmentShader string

// BloomDownFragmentShader is the bloom downsample filter.
//
//go:embed bloom_down.frag
var BloomDownFragmentShader string

// BloomUpFragmentShader is the bloom upsample filter.
//
//go:embed bloom_up.frag
var BloomUpFragmentShader string

// CombineFragmentShader mixes bloom into the image and tone maps it.
//
//go:embed combine.frag
var CombineFragmentShader string
