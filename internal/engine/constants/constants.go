// Package constants defines the constant blocks shared with the shaders.
//
// Every struct mirrors a std140 uniform block field for field; padding is
// explicit so the Go layout, the encoded bytes and the GLSL layout agree.
// Sizes are multiples of gpu.ConstantAlignment, checked at compile time.
package constants

import (
	"encoding/binary"
	"unsafe"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// MaxLights is the number of light slots.
const MaxLights = 3

// LightType is a bit set of light properties.
type LightType uint32

const (
	LightOff         LightType = 0x00
	LightDirectional LightType = 0x01
	LightPoint       LightType = 0x02
	LightSpot        LightType = 0x04
	LightShadow      LightType = 0x10
)

// Has reports whether all bits of f are set.
func (t LightType) Has(f LightType) bool {
	return t&f == f
}

// Constant buffer slots. GL uniform bindings are global, so every block has
// its own slot.
const (
	SlotMesh        uint32 = 0
	SlotGlobal      uint32 = 1
	SlotMaterial    uint32 = 2
	SlotPostEffects uint32 = 3
	SlotFilter      uint32 = 4
)

// Block is a constant block that encodes itself for upload.
type Block interface {
	Bytes() []byte
}

// MeshConstants are per-object vertex and geometry stage constants.
type MeshConstants struct {
	World        math.Mat4
	WorldIT      math.Mat4
	UseHeightMap int32
	HeightScale  float32
	_            [2]float32
	_            [28]float32
}

// DefaultMeshConstants returns identity transforms with height mapping off.
func DefaultMeshConstants() MeshConstants {
	return MeshConstants{World: math.Identity(), WorldIT: math.Identity()}
}

// MaterialConstants are per-object pixel stage constants.
type MaterialConstants struct {
	AlbedoFactor     math.Vec3
	RoughnessFactor  float32
	MetallicFactor   float32
	_                [3]float32
	EmissionFactor   math.Vec3
	UseAlbedoMap     int32
	UseNormalMap     int32
	UseAOMap         int32
	InvertNormalMapY int32
	UseMetallicMap   int32
	UseRoughnessMap  int32
	UseEmissiveMap   int32
	_                [2]float32
	_                [44]float32
}

// DefaultMaterialConstants returns white albedo, full roughness and
// metallic, and no emission.
func DefaultMaterialConstants() MaterialConstants {
	return MaterialConstants{
		AlbedoFactor:    math.Vec3{X: 1, Y: 1, Z: 1},
		RoughnessFactor: 1,
		MetallicFactor:  1,
	}
}

// Light is one light slot of GlobalConstants.
type Light struct {
	Position     math.Vec3
	FallOffStart float32
	Direction    math.Vec3
	FallOffEnd   float32
	Radiance     math.Vec3
	SpotPower    float32
	Type         LightType
	Radius       float32
	HaloRadius   float32
	HaloStrength float32
	// ViewProj and InvProj are the light's shadow transforms.
	ViewProj math.Mat4
	InvProj  math.Mat4
}

// DefaultLight returns a switched-off light.
func DefaultLight() Light {
	return Light{
		Position:   math.Vec3{Z: -2},
		Direction:  math.Vec3{Z: 1},
		FallOffEnd: 20,
		Radiance:   math.Vec3{X: 5, Y: 5, Z: 5},
		SpotPower:  6,
		Type:       LightOff,
		ViewProj:   math.Identity(),
		InvProj:    math.Identity(),
	}
}

// GlobalConstants are the per-view constants: the camera view, its mirror
// reflection, or a light's shadow view.
type GlobalConstants struct {
	View        math.Mat4
	Proj        math.Mat4
	InvProj     math.Mat4
	ViewProj    math.Mat4
	InvViewProj math.Mat4

	EyeWorld    math.Vec3
	IBLStrength float32
	// TextureToDraw selects the skybox texture: 0 env, 1 specular,
	// 2 irradiance, anything else black.
	TextureToDraw int32
	EnvLodBias    float32
	LodBias       float32
	_             float32

	Lights [MaxLights]Light
	_      [24]float32
}

// DefaultGlobalConstants returns identity transforms and default lights.
func DefaultGlobalConstants() GlobalConstants {
	g := GlobalConstants{
		View:        math.Identity(),
		Proj:        math.Identity(),
		InvProj:     math.Identity(),
		ViewProj:    math.Identity(),
		InvViewProj: math.Identity(),
		LodBias:     2,
	}
	for i := range g.Lights {
		g.Lights[i] = DefaultLight()
	}
	return g
}

// PostEffectsMode selects the post effects output.
type PostEffectsMode int32

const (
	PostEffectsRender PostEffectsMode = 1
	PostEffectsDepth  PostEffectsMode = 2
)

// PostEffectsConstants configure the depth and fog pass.
type PostEffectsConstants struct {
	Mode        PostEffectsMode
	DepthScale  float32
	FogStrength float32
	_           float32
	_           [60]float32
}

// DefaultPostEffectsConstants returns the plain render mode.
func DefaultPostEffectsConstants() PostEffectsConstants {
	return PostEffectsConstants{Mode: PostEffectsRender, DepthScale: 1}
}

// FilterConstants configure one image filter pass.
type FilterConstants struct {
	Dx        float32
	Dy        float32
	Threshold float32
	Strength  float32
	Option1   float32
	Option2   float32
	Option3   float32
	Option4   float32
	_         [56]float32
}

// Compile-time size checks: a non-zero remainder is a type mismatch.
var (
	_ [0]struct{} = [unsafe.Sizeof(MeshConstants{}) % gpu.ConstantAlignment]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(MaterialConstants{}) % gpu.ConstantAlignment]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(GlobalConstants{}) % gpu.ConstantAlignment]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(PostEffectsConstants{}) % gpu.ConstantAlignment]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(FilterConstants{}) % gpu.ConstantAlignment]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(Light{}) % 16]struct{}{}
)

func encode(v any, size uintptr) []byte {
	out, err := binary.Append(make([]byte, 0, size), binary.LittleEndian, v)
	if err != nil {
		// Only fixed-size fields are used, so encoding cannot fail.
		panic(err)
	}
	return out
}

// Bytes implements Block.
func (c *MeshConstants) Bytes() []byte { return encode(c, unsafe.Sizeof(*c)) }

// Bytes implements Block.
func (c *MaterialConstants) Bytes() []byte { return encode(c, unsafe.Sizeof(*c)) }

// Bytes implements Block.
func (c *GlobalConstants) Bytes() []byte { return encode(c, unsafe.Sizeof(*c)) }

// Bytes implements Block.
func (c *PostEffectsConstants) Bytes() []byte { return encode(c, unsafe.Sizeof(*c)) }

// Bytes implements Block.
func (c *FilterConstants) Bytes() []byte { return encode(c, unsafe.Sizeof(*c)) }

// NewBuffer creates a constant buffer initialized with a block.
func NewBuffer(dev gpu.Device, b Block) (*gpu.Buffer, error) {
	data := b.Bytes()
	return dev.CreateBuffer(gpu.ConstantBuffer, data, len(data))
}

// Upload writes a block to its buffer.
func Upload(ctx gpu.Context, buf *gpu.Buffer, b Block) {
	ctx.UpdateBuffer(buf, b.Bytes())
}
