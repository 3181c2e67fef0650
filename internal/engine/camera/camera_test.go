package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mirrorlab/pkg/math"
)

const eps = 1e-4

func TestViewInverseIsIdentity(t *testing.T) {
	tests := []struct {
		name       string
		pos        [3]float32
		yaw, pitch float32
	}{
		{"default", DefaultConfig().Position, DefaultConfig().Yaw, DefaultConfig().Pitch},
		{"origin", [3]float32{}, 0, 0},
		{"turned", [3]float32{-3, 2, 10}, 2.5, -1.2},
		{"looking up", [3]float32{1, -1, 1}, -4, 1.5},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Position = tt.pos
		cfg.Yaw = tt.yaw
		cfg.Pitch = tt.pitch
		c := New(cfg)

		v := c.ViewMatrix()
		if got := v.Mul(v.Inverse()); !got.ApproxEqual(math.Identity(), eps) {
			t.Errorf("%s: view * inverse(view) = %v, want identity", tt.name, got)
		}
	}
}

func TestViewMatchesMgl32(t *testing.T) {
	c := New(DefaultConfig())
	p := c.EyePosition()

	want := mgl32.HomogRotate3DX(-c.pitch).
		Mul4(mgl32.HomogRotate3DY(-c.yaw)).
		Mul4(mgl32.Translate3D(-p.X, -p.Y, -p.Z))
	got := c.ViewMatrix()
	for i := range got {
		if math32.Abs(got[i]-want[i]) > eps {
			t.Fatalf("element %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestViewMovesEyeToOrigin(t *testing.T) {
	c := New(DefaultConfig())
	got := c.ViewMatrix().TransformPoint(c.EyePosition())
	if !got.ApproxEqual(math.Vec3{}, eps) {
		t.Errorf("eye in view space: got %v, want origin", got)
	}
}

func TestUpdateMouseIsAbsolute(t *testing.T) {
	c := New(DefaultConfig())

	c.UpdateMouse(0.5, 0.5)
	if c.yaw != DefaultConfig().Yaw {
		t.Errorf("yaw changed outside first-person mode: %f", c.yaw)
	}

	c.FirstPerson = true
	for i := 0; i < 3; i++ {
		c.UpdateMouse(0.25, 0.5)
	}
	if math32.Abs(c.yaw-math.Pi/2) > eps {
		t.Errorf("yaw: got %f, want %f", c.yaw, math.Pi/2)
	}
	if math32.Abs(c.pitch+math.Pi/4) > eps {
		t.Errorf("pitch: got %f, want %f", c.pitch, -math.Pi/4)
	}
	if !c.viewDir.ApproxEqual(math.Vec3{X: 1}, eps) {
		t.Errorf("view dir: got %v, want +X", c.viewDir)
	}
	if !c.rightDir.ApproxEqual(math.Vec3{Z: -1}, eps) {
		t.Errorf("right dir: got %v, want -Z", c.rightDir)
	}
}

func TestUpdateKeyboard(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Position = [3]float32{}
	cfg.Yaw = 0
	c := New(cfg)

	c.UpdateKeyboard(1, Keys{KeyForward: true})
	if c.EyePosition() != (math.Vec3{}) {
		t.Errorf("moved outside first-person mode: %v", c.EyePosition())
	}

	c.FirstPerson = true
	tests := []struct {
		key  Key
		want math.Vec3
	}{
		{KeyForward, math.Vec3{Z: 1.5}},
		{KeyBack, math.Vec3{Z: -1.5}},
		{KeyRight, math.Vec3{X: 1.5}},
		{KeyLeft, math.Vec3{X: -1.5}},
		{KeyUp, math.Vec3{Y: 1.5}},
		{KeyDown, math.Vec3{Y: -1.5}},
	}
	for _, tt := range tests {
		before := c.EyePosition()
		c.UpdateKeyboard(0.5, Keys{tt.key: true})
		got := c.EyePosition().Sub(before)
		if !got.ApproxEqual(tt.want, eps) {
			t.Errorf("key %d: moved %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestProjection(t *testing.T) {
	c := New(DefaultConfig())
	c.SetAspectRatio(2)

	want := math.PerspectiveLH(math.DegToRad(90), 2, 0.01, 100)
	if got := c.ProjectionMatrix(); got != want {
		t.Errorf("perspective: got %v, want %v", got, want)
	}

	c.Perspective = false
	want = math.OrthoOffCenterLH(-2, 2, -1, 1, 0.01, 100)
	if got := c.ProjectionMatrix(); got != want {
		t.Errorf("orthographic: got %v, want %v", got, want)
	}
}
