package scene

import (
	"encoding/binary"

	"github.com/Faultbox/mirrorlab/pkg/math"
)

// Vertex is one scene vertex as laid out in the vertex buffer.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	TexCoord math.Vec2
	Tangent  math.Vec3
}

// MeshData is CPU geometry with the texture files of its material.
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32

	AlbedoTexture    string
	EmissiveTexture  string
	NormalTexture    string
	HeightTexture    string
	AOTexture        string
	MetallicTexture  string
	RoughnessTexture string
}

// VertexBytes encodes vertices for upload.
func VertexBytes(vertices []Vertex) []byte {
	out, err := binary.Append(nil, binary.LittleEndian, vertices)
	if err != nil {
		panic(err)
	}
	return out
}

// IndexBytes encodes 32-bit indices for upload.
func IndexBytes(indices []uint32) []byte {
	out := make([]byte, 0, 4*len(indices))
	for _, i := range indices {
		out = binary.LittleEndian.AppendUint32(out, i)
	}
	return out
}

// ReverseIndices reverses the index order, flipping the winding of every
// triangle. The skybox is drawn from the inside this way.
func (m *MeshData) ReverseIndices() {
	for i, j := 0, len(m.Indices)-1; i < j; i, j = i+1, j-1 {
		m.Indices[i], m.Indices[j] = m.Indices[j], m.Indices[i]
	}
}

// Bounds returns the axis-aligned bounds of all vertices of all meshes.
func Bounds(meshes []MeshData) (lo, hi math.Vec3, ok bool) {
	for _, m := range meshes {
		for _, v := range m.Vertices {
			if !ok {
				lo, hi, ok = v.Position, v.Position, true
				continue
			}
			lo = lo.Min(v.Position)
			hi = hi.Max(v.Position)
		}
	}
	return lo, hi, ok
}

// NormalizeToUnitBox centres the meshes on the origin and scales them so the
// longest side of their bounds is 1.
func NormalizeToUnitBox(meshes []MeshData) {
	lo, hi, ok := Bounds(meshes)
	if !ok {
		return
	}
	size := hi.Sub(lo).MaxComponent()
	if size <= 0 {
		return
	}
	center := lo.Add(hi).Scale(0.5)
	for i := range meshes {
		for j := range meshes[i].Vertices {
			v := &meshes[i].Vertices[j]
			v.Position = v.Position.Sub(center).Scale(1 / size)
		}
	}
}
