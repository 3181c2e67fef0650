package picking

import (
	"github.com/Faultbox/mirrorlab/internal/engine/input"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

const (
	// RotationThreshold is the smallest pick vector angle, in radians, that
	// rotates the object.
	RotationThreshold = math.Pi / 180 * 3
	// TranslationEpsilon is the smallest drag distance that moves the object.
	TranslationEpsilon = 1e-3

	// angleTolerance absorbs float32 rounding of unit pick vectors so an
	// angle of exactly RotationThreshold does not rotate.
	angleTolerance = 1e-5
)

// DragState is the reference recorded at the start of a drag and advanced
// as the drag goes on.
type DragState struct {
	// PrevVector is the unit vector from the sphere center to the last
	// rotation pick point.
	PrevVector math.Vec3
	// PrevRatio is the hit distance over the near-far segment length at
	// the start of a translation drag.
	PrevRatio float32
	// PrevPos is the last translation drag position.
	PrevPos math.Vec3
}

// Result is the outcome of one controller update.
type Result struct {
	Selected    bool
	Rotation    math.Quat
	Translation math.Vec3
	HitPoint    math.Vec3
}

// Controller turns mouse drags on a bounding sphere into rotations (left
// button) and translations (right button).
type Controller struct {
	Drag DragState
}

// Update casts the cursor ray through the camera and applies the drag
// rules. A DragStart flag on the mouse state resets the reference and is
// cleared. The rotation is identity and the translation zero unless the
// drag moved far enough.
func (c *Controller) Update(sphere math.Sphere, view, proj math.Mat4, mouse *input.MouseState) Result {
	res := Result{Rotation: math.QuatIdentity()}
	if !mouse.Left && !mouse.Right {
		return res
	}

	ray := NDCToRay(mouse.NDCX, mouse.NDCY, proj.Mul(view).Inverse())
	dist, ok := ray.IntersectSphere(sphere)
	if !ok {
		return res
	}
	res.Selected = true
	res.HitPoint = ray.At(dist)

	if mouse.Left {
		res.Rotation = c.rotate(sphere, res.HitPoint, mouse)
		return res
	}
	res.Translation = c.translate(ray, dist, res.HitPoint, mouse)
	return res
}

func (c *Controller) rotate(sphere math.Sphere, hit math.Vec3, mouse *input.MouseState) math.Quat {
	current := hit.Sub(sphere.Center).Normalize()
	if mouse.DragStart {
		c.Drag.PrevVector = current
		mouse.DragStart = false
		return math.QuatIdentity()
	}

	q, theta := math.QuatBetween(c.Drag.PrevVector, current)
	if theta <= RotationThreshold+angleTolerance {
		return math.QuatIdentity()
	}
	c.Drag.PrevVector = current
	return q
}

func (c *Controller) translate(ray CursorRay, dist float32, hit math.Vec3, mouse *input.MouseState) math.Vec3 {
	if mouse.DragStart {
		c.Drag.PrevRatio = dist / ray.SegmentLength()
		c.Drag.PrevPos = hit
		mouse.DragStart = false
		return math.Vec3{}
	}

	newPos := ray.PointAtRatio(c.Drag.PrevRatio)
	delta := newPos.Sub(c.Drag.PrevPos)
	if delta.Length() < TranslationEpsilon {
		return math.Vec3{}
	}
	c.Drag.PrevPos = newPos
	return delta
}

// Reset forgets the drag reference, for switching pick targets.
func (c *Controller) Reset() {
	c.Drag = DragState{}
}
