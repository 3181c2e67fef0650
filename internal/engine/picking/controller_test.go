package picking

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/mirrorlab/internal/engine/input"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// Camera on +Z looking at the origin.
func testCamera() (eye math.Vec3, view, proj math.Mat4) {
	eye = math.Vec3{Z: 5}
	view = math.LookAtLH(eye, math.Vec3{}, math.Vec3{Y: 1})
	proj = math.PerspectiveLH(math.DegToRad(90), 16.0/9.0, 0.01, 100)
	return
}

func TestCenterRayHitsSphere(t *testing.T) {
	eye, view, proj := testCamera()
	const radius = 0.4
	sphere := math.Sphere{Radius: radius}

	var c Controller
	mouse := &input.MouseState{Left: true, DragStart: true}
	res := c.Update(sphere, view, proj, mouse)

	require.True(t, res.Selected)
	assert.InDelta(t, 5-radius, res.HitPoint.Sub(eye).Length(), 1e-3)
	assert.True(t, res.HitPoint.ApproxEqual(math.Vec3{Z: radius}, 1e-3), "hit point %v", res.HitPoint)
	assert.False(t, mouse.DragStart, "drag start not consumed")
	assert.True(t, res.Rotation.IsIdentity())
}

func TestMissAndNoButton(t *testing.T) {
	_, view, proj := testCamera()
	sphere := math.Sphere{Radius: 0.4}
	var c Controller

	res := c.Update(sphere, view, proj, &input.MouseState{})
	assert.False(t, res.Selected)

	mouse := &input.MouseState{Left: true, DragStart: true, NDCX: 0.9, NDCY: 0.9}
	res = c.Update(sphere, view, proj, mouse)
	assert.False(t, res.Selected)
	assert.True(t, res.Rotation.IsIdentity())
	assert.Equal(t, math.Vec3{}, res.Translation)
	assert.True(t, mouse.DragStart, "a miss must keep the pending drag start")
}

func TestNDCToRay(t *testing.T) {
	eye, view, proj := testCamera()
	ray := NDCToRay(0, 0, proj.Mul(view).Inverse())

	assert.True(t, ray.Direction.ApproxEqual(math.Vec3{Z: -1}, 1e-4), "direction %v", ray.Direction)
	assert.InDelta(t, 0.01, ray.Near.Sub(eye).Length(), 1e-4)
	assert.InDelta(t, 100, ray.Far.Sub(eye).Length(), 1)
	assert.True(t, ray.PointAtRatio(0.5).ApproxEqual(ray.Near.Add(ray.Far).Scale(0.5), 1e-3))
}

func rotated(angle float32) math.Vec3 {
	s, c := math32.Sincos(angle)
	return math.Vec3{X: c, Y: s}
}

func TestRotationHysteresis(t *testing.T) {
	sphere := math.Sphere{Radius: 1}
	tests := []struct {
		name   string
		angle  float32
		rotate bool
	}{
		{"below threshold", RotationThreshold / 2, false},
		{"exactly threshold", RotationThreshold, false},
		{"just above threshold", RotationThreshold + 1e-3, true},
		{"large", math.Pi / 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Controller{Drag: DragState{PrevVector: math.Vec3{X: 1}}}
			hit := rotated(tt.angle)
			q := c.rotate(sphere, hit, &input.MouseState{Left: true})

			if !tt.rotate {
				assert.True(t, q.IsIdentity(), "got %v", q)
				assert.Equal(t, math.Vec3{X: 1}, c.Drag.PrevVector, "reference must not advance")
				return
			}
			require.False(t, q.IsIdentity())
			// The axis is the normalized cross product of the two vectors.
			axis := math.Vec3{X: q.X, Y: q.Y, Z: q.Z}.Normalize()
			assert.True(t, axis.ApproxEqual(math.Vec3{Z: 1}, 1e-4), "axis %v", axis)
			assert.True(t, q.Rotate(math.Vec3{X: 1}).ApproxEqual(hit, 1e-4))
			assert.True(t, c.Drag.PrevVector.ApproxEqual(hit, 1e-6))
		})
	}
}

func TestTranslationEpsilon(t *testing.T) {
	ray := CursorRay{
		Ray:  math.NewRay(math.Vec3{}, math.Vec3{Z: 10}),
		Near: math.Vec3{},
		Far:  math.Vec3{Z: 10},
	}
	newPos := math.Vec3{Z: 5}
	tests := []struct {
		name    string
		prevPos math.Vec3
		moves   bool
	}{
		{"below epsilon", math.Vec3{Z: 5 - 0.0005}, false},
		{"exactly epsilon", math.Vec3{X: -TranslationEpsilon, Z: 5}, true},
		{"above epsilon", math.Vec3{Z: 4.99}, true},
		{"sideways", math.Vec3{X: 0.25, Z: 5}, true},
	}
	for _, tt := range tests {
		c := Controller{Drag: DragState{PrevRatio: 0.5, PrevPos: tt.prevPos}}
		got := c.translate(ray, 0, math.Vec3{}, &input.MouseState{Right: true})

		want, wantRef := math.Vec3{}, tt.prevPos
		if tt.moves {
			want, wantRef = newPos.Sub(tt.prevPos), newPos
		}
		if got != want {
			t.Errorf("%s: got %v, want %v", tt.name, got, want)
		}
		if c.Drag.PrevPos != wantRef {
			t.Errorf("%s: reference %v, want %v", tt.name, c.Drag.PrevPos, wantRef)
		}
	}
}

func TestRightDragKeepsDepthRatio(t *testing.T) {
	_, view, proj := testCamera()
	sphere := math.Sphere{Radius: 0.4}
	var c Controller

	mouse := &input.MouseState{Right: true, DragStart: true}
	start := c.Update(sphere, view, proj, mouse)
	require.True(t, start.Selected)
	assert.Equal(t, math.Vec3{}, start.Translation)

	mouse.NDCX = 0.02
	res := c.Update(sphere, view, proj, mouse)
	require.True(t, res.Selected)
	// Looking down -Z, screen right is world -X.
	assert.Less(t, res.Translation.X, float32(0))
	assert.InDelta(t, 0, res.Translation.Y, 1e-5)
	// Moving at a fixed ratio along the segment keeps the pick depth.
	assert.InDelta(t, start.HitPoint.Z, c.Drag.PrevPos.Z, 1e-2)
}

func TestReset(t *testing.T) {
	c := Controller{Drag: DragState{PrevRatio: 0.3, PrevVector: math.Vec3{X: 1}}}
	c.Reset()
	assert.Equal(t, DragState{}, c.Drag)
}
