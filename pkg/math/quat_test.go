package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
	if !q.IsIdentity() {
		t.Error("IsIdentity should be true")
	}
}

func TestQuatNormalize(t *testing.T) {
	n := Quat{X: 1, Y: 2, Z: 3, W: 4}.Normalize()
	length := math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W))
	if math.Abs(length-1) > 1e-4 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
	if !(Quat{}).Normalize().IsIdentity() {
		t.Error("zero quaternion should normalize to identity")
	}
}

func TestQuatToMat4(t *testing.T) {
	m := QuatIdentity().ToMat4()
	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(m[i]-identity[i])) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatToMat4MatchesMgl32(t *testing.T) {
	axis := Vec3{-1, 0.5, 2}.Normalize()
	for _, angle := range []float32{0.1, 1, 3} {
		got := QuatFromAxisAngle(axis, angle).ToMat4()
		want := Mat4(mgl32.QuatRotate(angle, mgl32.Vec3{axis.X, axis.Y, axis.Z}).Mat4())
		if !got.ApproxEqual(want, 1e-5) {
			t.Errorf("ToMat4(%v): got %v, want %v", angle, got, want)
		}
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatRotateMapsVectorToTarget(t *testing.T) {
	from := Vec3{1, 0, 0}
	to := Vec3{0, 1, 0}
	angle := float32(math.Acos(float64(from.Dot(to))))
	q := QuatFromAxisAngle(from.Cross(to).Normalize(), angle)

	if got := q.Rotate(from); !got.ApproxEqual(to, 1e-5) {
		t.Errorf("Rotate: got %v, want %v", got, to)
	}
}

func TestQuatBetween(t *testing.T) {
	tests := []struct {
		name      string
		from, to  Vec3
		wantAngle float32
		identity  bool
	}{
		{"quarter turn", Vec3{X: 1}, Vec3{Y: 1}, math.Pi / 2, false},
		{"small turn", Vec3{Z: 1}, Vec3{X: 0.1, Z: 1}.Normalize(), float32(math.Atan(0.1)), false},
		{"same vector", Vec3{Y: 1}, Vec3{Y: 1}, 0, true},
		{"opposite", Vec3{X: 1}, Vec3{X: -1}, math.Pi, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, angle := QuatBetween(tt.from, tt.to)
			if math.Abs(float64(angle-tt.wantAngle)) > 1e-4 {
				t.Errorf("angle: got %v, want %v", angle, tt.wantAngle)
			}
			if q.IsIdentity() != tt.identity {
				t.Fatalf("identity: got %v, want %v", q.IsIdentity(), tt.identity)
			}
			if !tt.identity {
				if got := q.Rotate(tt.from); !got.ApproxEqual(tt.to, 1e-5) {
					t.Errorf("Rotate: got %v, want %v", got, tt.to)
				}
			}
		})
	}
}
