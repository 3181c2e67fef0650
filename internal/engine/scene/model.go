package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/graphics"
	"github.com/Faultbox/mirrorlab/internal/logger"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// Mesh is one uploaded sub-mesh with its material maps. Missing maps are nil.
type Mesh struct {
	VertexBuffer *gpu.Buffer
	IndexBuffer  *gpu.Buffer
	VertexCount  int
	IndexCount   int

	Albedo            *gpu.Texture
	Normal            *gpu.Texture
	AO                *gpu.Texture
	MetallicRoughness *gpu.Texture
	Emissive          *gpu.Texture
	Height            *gpu.Texture
}

func (m *Mesh) resources() []gpu.Resource {
	var res []gpu.Resource
	for _, b := range []*gpu.Buffer{m.VertexBuffer, m.IndexBuffer} {
		if b != nil {
			res = append(res, b)
		}
	}
	for _, t := range []*gpu.Texture{m.Albedo, m.Normal, m.AO, m.MetallicRoughness, m.Emissive, m.Height} {
		if t != nil {
			res = append(res, t)
		}
	}
	return res
}

// Model is a renderable object: sub-meshes sharing one world transform and
// one material.
type Model struct {
	Meshes []*Mesh

	MeshConsts     constants.MeshConstants
	MaterialConsts constants.MaterialConstants

	Visible     bool
	CastShadow  bool
	DrawNormals bool

	world   math.Mat4
	worldIT math.Mat4

	meshBuf     *gpu.Buffer
	materialBuf *gpu.Buffer
	dev         gpu.Device
}

// NewModel uploads meshes and loads their textures. A texture that fails to
// load is logged and left unbound with its map flag off.
func NewModel(dev gpu.Device, meshes []MeshData) (*Model, error) {
	m := &Model{
		MeshConsts:     constants.DefaultMeshConstants(),
		MaterialConsts: constants.DefaultMaterialConstants(),
		Visible:        true,
		CastShadow:     true,
		world:          math.Identity(),
		worldIT:        math.Identity(),
		dev:            dev,
	}

	var err error
	if m.meshBuf, err = constants.NewBuffer(dev, &m.MeshConsts); err != nil {
		return nil, fmt.Errorf("mesh constants: %w", err)
	}
	if m.materialBuf, err = constants.NewBuffer(dev, &m.MaterialConsts); err != nil {
		m.Close()
		return nil, fmt.Errorf("material constants: %w", err)
	}

	for i, data := range meshes {
		mesh, err := m.upload(data)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		m.Meshes = append(m.Meshes, mesh)
	}
	return m, nil
}

func (m *Model) upload(data MeshData) (*Mesh, error) {
	if len(data.Vertices) == 0 || len(data.Indices) == 0 {
		return nil, fmt.Errorf("empty geometry")
	}
	mesh := &Mesh{VertexCount: len(data.Vertices), IndexCount: len(data.Indices)}

	var err error
	if mesh.VertexBuffer, err = m.dev.CreateBuffer(gpu.VertexBuffer, VertexBytes(data.Vertices), 0); err != nil {
		return nil, fmt.Errorf("vertex buffer: %w", err)
	}
	if mesh.IndexBuffer, err = m.dev.CreateBuffer(gpu.IndexBuffer, IndexBytes(data.Indices), 0); err != nil {
		m.dev.Release(mesh.VertexBuffer)
		return nil, fmt.Errorf("index buffer: %w", err)
	}

	load := func(path string, srgb bool, flag *int32) *gpu.Texture {
		if path == "" {
			return nil
		}
		tex, err := CreateTexture(m.dev, path, srgb)
		if err != nil {
			logger.Warn("texture not loaded", zap.String("path", path), zap.Error(err))
			return nil
		}
		if flag != nil {
			*flag = 1
		}
		return tex
	}
	mat := &m.MaterialConsts
	mesh.Albedo = load(data.AlbedoTexture, true, &mat.UseAlbedoMap)
	mesh.Emissive = load(data.EmissiveTexture, true, &mat.UseEmissiveMap)
	mesh.Normal = load(data.NormalTexture, false, &mat.UseNormalMap)
	mesh.Height = load(data.HeightTexture, false, &m.MeshConsts.UseHeightMap)
	mesh.AO = load(data.AOTexture, false, &mat.UseAOMap)

	if data.MetallicTexture != "" || data.RoughnessTexture != "" {
		tex, err := CreateMetallicRoughnessTexture(m.dev, data.MetallicTexture, data.RoughnessTexture)
		if err != nil {
			logger.Warn("metallic-roughness texture not loaded",
				zap.String("metallic", data.MetallicTexture),
				zap.String("roughness", data.RoughnessTexture),
				zap.Error(err))
		} else {
			mesh.MetallicRoughness = tex
			if data.MetallicTexture != "" {
				mat.UseMetallicMap = 1
			}
			if data.RoughnessTexture != "" {
				mat.UseRoughnessMap = 1
			}
		}
	}
	return mesh, nil
}

// World returns the model to world transform.
func (m *Model) World() math.Mat4 { return m.world }

// WorldIT returns the normal transform matching World.
func (m *Model) WorldIT() math.Mat4 { return m.worldIT }

// SetWorld sets the world transform and its inverse-transpose together.
func (m *Model) SetWorld(world math.Mat4) {
	m.world = world
	m.worldIT = world.NormalMatrix()
	m.MeshConsts.World = m.world
	m.MeshConsts.WorldIT = m.worldIT
}

// UpdateConstantBuffers uploads the mesh and material blocks of a visible
// model.
func (m *Model) UpdateConstantBuffers(ctx gpu.Context) {
	if !m.Visible {
		return
	}
	constants.Upload(ctx, m.meshBuf, &m.MeshConsts)
	constants.Upload(ctx, m.materialBuf, &m.MaterialConsts)
}

// Render draws every sub-mesh of a visible model with its maps.
func (m *Model) Render(ctx gpu.Context) {
	if !m.Visible {
		return
	}
	for _, mesh := range m.Meshes {
		ctx.SetVertexBuffer(mesh.VertexBuffer)
		ctx.SetIndexBuffer(mesh.IndexBuffer)

		ctx.SetTexture(graphics.UnitHeight, mesh.Height)
		ctx.SetConstantBuffer(constants.SlotMesh, m.meshBuf)

		ctx.SetTexture(graphics.UnitAlbedo, mesh.Albedo)
		ctx.SetTexture(graphics.UnitNormal, mesh.Normal)
		ctx.SetTexture(graphics.UnitAO, mesh.AO)
		ctx.SetTexture(graphics.UnitMetallicRoughness, mesh.MetallicRoughness)
		ctx.SetTexture(graphics.UnitEmissive, mesh.Emissive)
		ctx.SetConstantBuffer(constants.SlotMaterial, m.materialBuf)

		ctx.DrawIndexed(mesh.IndexCount, 0)
	}
}

// RenderNormals draws the vertices as points for the normal geometry
// shader.
func (m *Model) RenderNormals(ctx gpu.Context) {
	for _, mesh := range m.Meshes {
		ctx.SetVertexBuffer(mesh.VertexBuffer)
		ctx.SetConstantBuffer(constants.SlotMesh, m.meshBuf)
		ctx.Draw(mesh.VertexCount, 0)
	}
}

// Close releases the buffers and textures.
func (m *Model) Close() {
	var res []gpu.Resource
	for _, b := range []*gpu.Buffer{m.meshBuf, m.materialBuf} {
		if b != nil {
			res = append(res, b)
		}
	}
	for _, mesh := range m.Meshes {
		res = append(res, mesh.resources()...)
	}
	m.dev.Release(res...)
	m.Meshes = nil
	m.meshBuf, m.materialBuf = nil, nil
}
