// Package picking provides cursor ray casting and drag control of objects.
package picking

import "github.com/Faultbox/mirrorlab/pkg/math"

// CursorRay is a picking ray together with the unprojected near and far
// points it was built from.
type CursorRay struct {
	math.Ray
	Near math.Vec3
	Far  math.Vec3
}

// SegmentLength is the distance between the near and far points.
func (r CursorRay) SegmentLength() float32 {
	return r.Far.Sub(r.Near).Length()
}

// PointAtRatio returns the point a fraction of the way from Near to Far.
func (r CursorRay) PointAtRatio(ratio float32) math.Vec3 {
	return r.Near.Add(r.Far.Sub(r.Near).Scale(ratio))
}

// NDCToRay unprojects a cursor position in NDC through invViewProj. The
// near plane is clip depth -1 and the far plane +1.
func NDCToRay(ndcX, ndcY float32, invViewProj math.Mat4) CursorRay {
	near := invViewProj.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: -1})
	far := invViewProj.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: 1})
	return CursorRay{
		Ray:  math.NewRay(near, far),
		Near: near,
		Far:  far,
	}
}
