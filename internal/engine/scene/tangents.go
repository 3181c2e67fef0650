package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/mirrorlab/pkg/math"
)

// ComputeTangents derives per-vertex tangents from the texture coordinates
// of the indexed triangles, orthogonalized against the normals.
func ComputeTangents(m *MeshData) {
	acc := make([]math.Vec3, len(m.Vertices))

	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if int(max(i0, i1, i2)) >= len(m.Vertices) {
			continue
		}
		v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)
		du1, dv1 := v1.TexCoord.X-v0.TexCoord.X, v1.TexCoord.Y-v0.TexCoord.Y
		du2, dv2 := v2.TexCoord.X-v0.TexCoord.X, v2.TexCoord.Y-v0.TexCoord.Y

		denom := du1*dv2 - du2*dv1
		if denom == 0 {
			continue // degenerate UVs
		}
		t := e1.Scale(dv2 / denom).Sub(e2.Scale(dv1 / denom))
		acc[i0] = acc[i0].Add(t)
		acc[i1] = acc[i1].Add(t)
		acc[i2] = acc[i2].Add(t)
	}

	for i := range m.Vertices {
		n := m.Vertices[i].Normal
		t := acc[i].Sub(n.Scale(n.Dot(acc[i])))
		if t.Dot(t) < 1e-8 {
			// Any direction perpendicular to the normal.
			if math32.Abs(n.X) < 0.9 {
				t = math.Vec3{X: 1}.Sub(n.Scale(n.X))
			} else {
				t = math.Vec3{Y: 1}.Sub(n.Scale(n.Y))
			}
		}
		m.Vertices[i].Tangent = t.Normalize()
	}
}
