package scene

import "github.com/Faultbox/mirrorlab/pkg/math"

// MakeSquare returns a square of half size scale in the XY plane, facing -Z.
func MakeSquare(scale float32, texScale math.Vec2) MeshData {
	positions := [4]math.Vec3{{X: -1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: -1}}
	texcoords := [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	var m MeshData
	for i := range positions {
		m.Vertices = append(m.Vertices, Vertex{
			Position: positions[i].Scale(scale),
			Normal:   math.Vec3{Z: -1},
			TexCoord: math.Vec2{X: texcoords[i].X * texScale.X, Y: texcoords[i].Y * texScale.Y},
			Tangent:  math.Vec3{X: 1},
		})
	}
	m.Indices = []uint32{0, 1, 2, 0, 2, 3}
	return m
}

// boxFaces lists the four corners and the normal of each box face, in the
// order top, bottom, front, back, left, right.
var boxFaces = [6]struct {
	corners [4]math.Vec3
	normal  math.Vec3
}{
	{[4]math.Vec3{{X: -1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: -1}}, math.Vec3{Y: 1}},
	{[4]math.Vec3{{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: 1}, {X: -1, Y: -1, Z: 1}}, math.Vec3{Y: -1}},
	{[4]math.Vec3{{X: -1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: -1, Z: -1}}, math.Vec3{Z: -1}},
	{[4]math.Vec3{{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1}}, math.Vec3{Z: 1}},
	{[4]math.Vec3{{X: -1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: -1}}, math.Vec3{X: -1}},
	{[4]math.Vec3{{X: 1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: 1}}, math.Vec3{X: 1}},
}

// MakeBox returns an axis-aligned cube of half size scale with outward
// facing triangles.
func MakeBox(scale float32) MeshData {
	texcoords := [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	var m MeshData
	for f, face := range boxFaces {
		for i, c := range face.corners {
			m.Vertices = append(m.Vertices, Vertex{
				Position: c.Scale(scale),
				Normal:   face.normal,
				TexCoord: texcoords[i],
			})
		}
		base := uint32(4 * f)
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// MakeSphere returns a UV sphere. Stacks run from the south pole up; each
// ring has numSlices+1 vertices so the texture seam closes.
func MakeSphere(radius float32, numSlices, numStacks int, texScale math.Vec2) MeshData {
	dTheta := -2 * math.Pi / float32(numSlices)
	dPhi := -math.Pi / float32(numStacks)
	biTangent := math.Vec3{Y: 1}

	var m MeshData
	for j := 0; j <= numStacks; j++ {
		stackStart := math.RotateZ(dPhi * float32(j)).TransformPoint(math.Vec3{Y: -radius})

		for i := 0; i <= numSlices; i++ {
			pos := math.RotateY(dTheta * float32(i)).TransformPoint(stackStart)
			n := pos.Normalize()
			normalOrth := n.Sub(n.Scale(biTangent.Dot(n))).Normalize()

			m.Vertices = append(m.Vertices, Vertex{
				Position: pos,
				Normal:   n,
				TexCoord: math.Vec2{
					X: float32(i) / float32(numSlices) * texScale.X,
					Y: (1 - float32(j)/float32(numStacks)) * texScale.Y,
				},
				Tangent: biTangent.Cross(normalOrth).Normalize(),
			})
		}
	}

	ring := uint32(numSlices + 1)
	for j := 0; j < numStacks; j++ {
		offset := ring * uint32(j)
		for i := uint32(0); i < uint32(numSlices); i++ {
			m.Indices = append(m.Indices,
				offset+i, offset+i+ring, offset+i+1+ring,
				offset+i, offset+i+1+ring, offset+i+1)
		}
	}
	return m
}
