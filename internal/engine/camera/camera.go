// Package camera provides the first-person scene camera.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/mirrorlab/pkg/math"
)

// Movement keys the camera reacts to.
type Key int

const (
	KeyForward Key = iota
	KeyBack
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

// Keys is the set of movement keys held down.
type Keys map[Key]bool

// Config holds the initial camera placement and projection settings.
type Config struct {
	Position    [3]float32 `yaml:"position" toml:"position"`
	Yaw         float32    `yaml:"yaw" toml:"yaw"`     // radians
	Pitch       float32    `yaml:"pitch" toml:"pitch"` // radians
	Speed       float32    `yaml:"speed" toml:"speed"`
	FovY        float32    `yaml:"fov_y" toml:"fov_y"` // degrees
	Near        float32    `yaml:"near" toml:"near"`
	Far         float32    `yaml:"far" toml:"far"`
	Perspective bool       `yaml:"perspective" toml:"perspective"`
}

// DefaultConfig returns the demo's starting view.
func DefaultConfig() Config {
	return Config{
		Position:    [3]float32{0.275514, 0.461257, 0.0855238},
		Yaw:         -0.019635,
		Pitch:       -0.120477,
		Speed:       3,
		FovY:        90,
		Near:        0.01,
		Far:         100,
		Perspective: true,
	}
}

// Camera is a left-handed yaw/pitch camera.
type Camera struct {
	position math.Vec3
	viewDir  math.Vec3
	upDir    math.Vec3
	rightDir math.Vec3

	yaw   float32
	pitch float32
	speed float32

	fovY   float32
	near   float32
	far    float32
	aspect float32

	// FirstPerson enables keyboard movement and mouse look.
	FirstPerson bool
	// Perspective selects perspective over orthographic projection.
	Perspective bool
}

// New creates a camera from a config with a 16:9 aspect ratio.
func New(cfg Config) *Camera {
	c := &Camera{
		position:    math.Vec3{X: cfg.Position[0], Y: cfg.Position[1], Z: cfg.Position[2]},
		upDir:       math.Vec3{Y: 1},
		yaw:         cfg.Yaw,
		pitch:       cfg.Pitch,
		speed:       cfg.Speed,
		fovY:        cfg.FovY,
		near:        cfg.Near,
		far:         cfg.Far,
		aspect:      16.0 / 9.0,
		Perspective: cfg.Perspective,
	}
	c.updateViewDir()
	return c
}

// ViewMatrix moves the world by -position, then rotates it by -yaw and
// -pitch.
func (c *Camera) ViewMatrix() math.Mat4 {
	return math.RotateX(-c.pitch).
		Mul(math.RotateY(-c.yaw)).
		Mul(math.TranslateVec(c.position.Negate()))
}

// ProjectionMatrix returns the perspective projection, or an orthographic
// one spanning the aspect ratio horizontally.
func (c *Camera) ProjectionMatrix() math.Mat4 {
	if c.Perspective {
		return math.PerspectiveLH(math.DegToRad(c.fovY), c.aspect, c.near, c.far)
	}
	return math.OrthoOffCenterLH(-c.aspect, c.aspect, -1, 1, c.near, c.far)
}

// EyePosition returns the camera position.
func (c *Camera) EyePosition() math.Vec3 {
	return c.position
}

// SetAspectRatio follows the output resolution.
func (c *Camera) SetAspectRatio(aspect float32) {
	c.aspect = aspect
}

// UpdateKeyboard moves the camera while first-person mode is on.
func (c *Camera) UpdateKeyboard(dt float32, keys Keys) {
	if !c.FirstPerson {
		return
	}
	if keys[KeyForward] {
		c.MoveForward(dt)
	}
	if keys[KeyBack] {
		c.MoveForward(-dt)
	}
	if keys[KeyRight] {
		c.MoveRight(dt)
	}
	if keys[KeyLeft] {
		c.MoveRight(-dt)
	}
	if keys[KeyUp] {
		c.MoveUp(dt)
	}
	if keys[KeyDown] {
		c.MoveUp(-dt)
	}
}

// UpdateMouse maps the cursor position in NDC directly to yaw and pitch
// while first-person mode is on: a full turn across the screen width and
// a quarter turn up or down.
func (c *Camera) UpdateMouse(ndcX, ndcY float32) {
	if !c.FirstPerson {
		return
	}
	c.yaw = ndcX * 2 * math.Pi
	c.pitch = -ndcY * math.Pi / 2
	c.updateViewDir()
}

// MoveForward moves along the horizontal view direction.
func (c *Camera) MoveForward(dt float32) {
	c.position = c.position.Add(c.viewDir.Scale(c.speed * dt))
}

// MoveRight strafes.
func (c *Camera) MoveRight(dt float32) {
	c.position = c.position.Add(c.rightDir.Scale(c.speed * dt))
}

// MoveUp moves along world up.
func (c *Camera) MoveUp(dt float32) {
	c.position = c.position.Add(c.upDir.Scale(c.speed * dt))
}

func (c *Camera) updateViewDir() {
	s, co := math32.Sincos(c.yaw)
	c.viewDir = math.Vec3{X: s, Z: co}.Normalize()
	c.rightDir = c.upDir.Cross(c.viewDir).Normalize()
}
