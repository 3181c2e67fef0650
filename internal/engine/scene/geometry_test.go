package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/mirrorlab/pkg/math"
)

// faceNormal is the right-handed cross product of a triangle's edges.
func faceNormal(m MeshData, tri int) math.Vec3 {
	v0 := m.Vertices[m.Indices[3*tri]].Position
	v1 := m.Vertices[m.Indices[3*tri+1]].Position
	v2 := m.Vertices[m.Indices[3*tri+2]].Position
	return v1.Sub(v0).Cross(v2.Sub(v0))
}

func TestMakeSquare(t *testing.T) {
	m := MakeSquare(2, math.Vec2{X: 3, Y: 1})
	require.Len(t, m.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indices)

	for i, v := range m.Vertices {
		assert.Equal(t, float32(2), math32.Abs(v.Position.X), "vertex %d", i)
		assert.Equal(t, float32(2), math32.Abs(v.Position.Y), "vertex %d", i)
		assert.Equal(t, math.Vec3{Z: -1}, v.Normal)
		assert.Equal(t, math.Vec3{X: 1}, v.Tangent)
	}
	assert.Equal(t, math.Vec2{X: 3, Y: 0}, m.Vertices[1].TexCoord)

	for tri := 0; tri < 2; tri++ {
		n := faceNormal(m, tri)
		assert.Greater(t, n.Dot(math.Vec3{Z: -1}), float32(0), "triangle %d winding", tri)
	}
}

func TestMakeBox(t *testing.T) {
	m := MakeBox(40)
	require.Len(t, m.Vertices, 24)
	require.Len(t, m.Indices, 36)

	for tri := 0; tri < 12; tri++ {
		normal := m.Vertices[m.Indices[3*tri]].Normal
		assert.Greater(t, faceNormal(m, tri).Dot(normal), float32(0), "triangle %d faces outward", tri)
	}
	for _, v := range m.Vertices {
		assert.Equal(t, float32(40), v.Position.Dot(v.Normal))
	}
}

func TestReverseIndicesFlipsWinding(t *testing.T) {
	m := MakeBox(1)
	m.ReverseIndices()
	for tri := 0; tri < 12; tri++ {
		normal := m.Vertices[m.Indices[3*tri]].Normal
		assert.Less(t, faceNormal(m, tri).Dot(normal), float32(0), "triangle %d faces inward", tri)
	}
}

func TestMakeSphere(t *testing.T) {
	const slices, stacks = 20, 10
	m := MakeSphere(0.4, slices, stacks, math.Vec2{X: 1, Y: 1})

	require.Len(t, m.Vertices, (slices+1)*(stacks+1))
	require.Len(t, m.Indices, 6*slices*stacks)

	for i, v := range m.Vertices {
		if got := v.Position.Length(); math32.Abs(got-0.4) > 1e-5 {
			t.Errorf("vertex %d: got radius %v, want 0.4", i, got)
		}
		if !v.Normal.ApproxEqual(v.Position.Normalize(), 1e-5) {
			t.Errorf("vertex %d: got normal %v, want %v", i, v.Normal, v.Position.Normalize())
		}
	}
	assert.True(t, m.Vertices[0].Position.ApproxEqual(math.Vec3{Y: -0.4}, 1e-6), "first ring is the south pole")
	assert.True(t, m.Vertices[len(m.Vertices)-1].Position.ApproxEqual(math.Vec3{Y: 0.4}, 1e-5), "last ring is the north pole")

	for _, idx := range m.Indices {
		assert.Less(t, int(idx), len(m.Vertices))
	}
}

func TestSphereTangentsAreTangent(t *testing.T) {
	m := MakeSphere(1, 16, 8, math.Vec2{X: 1, Y: 1})
	ring := 17
	// Skip the poles, where the tangent is undefined.
	for _, v := range m.Vertices[ring : len(m.Vertices)-ring] {
		dot := math32.Abs(v.Tangent.Dot(v.Normal))
		if dot > 1e-4 {
			t.Errorf("tangent %v not perpendicular to normal %v", v.Tangent, v.Normal)
		}
	}
}

func TestComputeTangents(t *testing.T) {
	m := MakeSquare(1, math.Vec2{X: 1, Y: 1})
	for i := range m.Vertices {
		m.Vertices[i].Tangent = math.Vec3{}
	}
	ComputeTangents(&m)
	for i, v := range m.Vertices {
		assert.True(t, v.Tangent.ApproxEqual(math.Vec3{X: 1}, 1e-5), "vertex %d: %v", i, v.Tangent)
	}
}

func TestComputeTangentsDegenerateUVs(t *testing.T) {
	m := MakeSquare(1, math.Vec2{})
	ComputeTangents(&m)
	for i, v := range m.Vertices {
		assert.InDelta(t, 1, v.Tangent.Length(), 1e-5, "vertex %d", i)
		assert.InDelta(t, 0, v.Tangent.Dot(v.Normal), 1e-5, "vertex %d", i)
	}
}

func TestNormalizeToUnitBox(t *testing.T) {
	a := MeshData{Vertices: []Vertex{{Position: math.Vec3{X: 0, Y: 0, Z: 0}}, {Position: math.Vec3{X: 4, Y: 1, Z: 1}}}}
	b := MeshData{Vertices: []Vertex{{Position: math.Vec3{X: 2, Y: 2, Z: 0.5}}}}
	meshes := []MeshData{a, b}

	NormalizeToUnitBox(meshes)

	lo, hi, ok := Bounds(meshes)
	require.True(t, ok)
	assert.True(t, lo.ApproxEqual(math.Vec3{X: -0.5, Y: -0.25, Z: -0.125}, 1e-6), "lo %v", lo)
	assert.True(t, hi.ApproxEqual(math.Vec3{X: 0.5, Y: 0.25, Z: 0.125}, 1e-6), "hi %v", hi)
}

func TestNormalizeToUnitBoxEmpty(t *testing.T) {
	NormalizeToUnitBox(nil)
	flat := []MeshData{{Vertices: []Vertex{{Position: math.Vec3{X: 1}}}}}
	NormalizeToUnitBox(flat)
	assert.Equal(t, math.Vec3{X: 1}, flat[0].Vertices[0].Position)
}

func TestVertexBytes(t *testing.T) {
	m := MakeSquare(1, math.Vec2{X: 1, Y: 1})
	assert.Len(t, VertexBytes(m.Vertices), 4*44)
	assert.Equal(t, []byte{2, 0, 0, 0, 1, 0, 0, 0}, IndexBytes([]uint32{2, 1}))
}
