package shadow

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// Shadow frustum of every spot light.
const (
	FieldOfView = 120 * math.Pi / 180
	Near        = 0.1
	Far         = 10
)

// parallelTolerance is how close |dot(up, dir)| may get to 1 before the
// fallback up axis is used.
const parallelTolerance = 1e-5

var (
	worldUp    = math.Vec3{Y: 1}
	fallbackUp = math.Vec3{X: 1}
)

// upAxis returns world up unless the light looks straight up or down.
func upAxis(dir math.Vec3) math.Vec3 {
	d := worldUp.Dot(dir)
	if math32.Abs(d+1) < parallelTolerance || math32.Abs(d-1) < parallelTolerance {
		return fallbackUp
	}
	return worldUp
}

// LightMatrices computes the light-space view and projection of a light.
func LightMatrices(light constants.Light) (view, proj math.Mat4) {
	view = math.LookAtLH(light.Position, light.Position.Add(light.Direction), upAxis(light.Direction))
	proj = math.PerspectiveLH(FieldOfView, 1, Near, Far)
	return view, proj
}

// Updater animates the moving light and refreshes the shadow transforms of
// every shadow casting light.
type Updater struct {
	// Moving is the light slot that orbits Center and aims at Focus.
	Moving int
	Center math.Vec3
	Focus  math.Vec3
	// Offset is the current position of the moving light relative to Center.
	Offset math.Vec3
	// Rotate spins Offset around the vertical axis at a quarter turn per
	// second.
	Rotate bool
}

// NewUpdater returns the updater of the demo scene: slot 1 orbits above the
// main object and aims in front of it.
func NewUpdater() *Updater {
	return &Updater{
		Moving: 1,
		Center: math.Vec3{X: 0, Y: 1.1, Z: 2},
		Focus:  math.Vec3{X: 0, Y: -0.5, Z: 1.7},
		Offset: math.Vec3{X: 1},
		Rotate: true,
	}
}

// Update advances the moving light by dt seconds, then uploads a shadow view
// for every shadow casting light and copies its matrices into the camera
// block so the main pass samples with the same transforms.
func (u *Updater) Update(dt float32, m *constants.Manager) {
	if u.Rotate {
		u.Offset = math.RotateY(dt * math.Pi * 0.5).TransformDirection(u.Offset)
	}
	if u.Moving >= 0 && u.Moving < constants.MaxLights {
		l := &m.Global.Lights[u.Moving]
		l.Position = u.Center.Add(u.Offset)
		l.Direction = u.Focus.Sub(l.Position).Normalize()
	}

	for i := range m.Global.Lights {
		l := &m.Global.Lights[i]
		if !l.Type.Has(constants.LightShadow) {
			continue
		}
		view, proj := LightMatrices(*l)
		m.UpdateShadow(i, l.Position, view, proj)
		s := m.Shadow(i)
		l.ViewProj = s.ViewProj
		l.InvProj = s.InvProj
	}
}
