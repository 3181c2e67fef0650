package shadow

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu/gputest"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

func finite(m math.Mat4) bool {
	for _, v := range m {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func TestUpAxis(t *testing.T) {
	tests := []struct {
		name string
		dir  math.Vec3
		want math.Vec3
	}{
		{"down", math.Vec3{Y: -1}, fallbackUp},
		{"up", math.Vec3{Y: 1}, fallbackUp},
		{"forward", math.Vec3{Z: 1}, worldUp},
		{"slanted", math.Vec3{Y: -0.5, Z: 1.7}.Normalize(), worldUp},
	}
	for _, tt := range tests {
		if got := upAxis(tt.dir); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLightMatricesVertical(t *testing.T) {
	for _, dir := range []math.Vec3{{Y: 1}, {Y: -1}} {
		light := constants.Light{Position: math.Vec3{Y: 1.5, Z: 1.1}, Direction: dir}
		view, proj := LightMatrices(light)
		assert.True(t, finite(view), "view for %v: %v", dir, view)
		assert.True(t, finite(proj.Mul(view)), "view-projection for %v", dir)
	}
}

func TestLightMatricesLookAlongDirection(t *testing.T) {
	light := constants.Light{Position: math.Vec3{X: 1, Y: 1.1, Z: 2}, Direction: math.Vec3{Z: 1}}
	view, _ := LightMatrices(light)

	assert.True(t, view.TransformPoint(light.Position).ApproxEqual(math.Vec3{}, 1e-5))
	// One unit along the direction is one unit of view depth.
	ahead := view.TransformPoint(light.Position.Add(light.Direction))
	assert.True(t, ahead.ApproxEqual(math.Vec3{Z: 1}, 1e-5), "got %v", ahead)
}

func newManager(t *testing.T) (*constants.Manager, *gputest.Recorder) {
	t.Helper()
	rec := gputest.New()
	m, err := constants.NewManager(rec, rec)
	require.NoError(t, err)
	return m, rec
}

func TestUpdateStoresShadowMatrices(t *testing.T) {
	m, rec := newManager(t)
	l := &m.Global.Lights[0]
	l.Type = constants.LightSpot | constants.LightShadow
	l.Position = math.Vec3{Y: 1.5, Z: 1.1}
	l.Direction = math.Vec3{Y: -1}

	u := NewUpdater()
	u.Moving = -1
	u.Update(0.016, m)

	view, proj := LightMatrices(*l)
	assert.True(t, l.ViewProj.ApproxEqual(proj.Mul(view), 1e-5))
	assert.True(t, l.InvProj.ApproxEqual(proj.Inverse(), 1e-5))
	assert.True(t, finite(l.ViewProj))

	// The light position lands on the view-space origin: x, y and w are zero.
	clip := l.ViewProj.MulVec4(math.Vec4{X: l.Position.X, Y: l.Position.Y, Z: l.Position.Z, W: 1})
	assert.InDelta(t, 0, clip.X, 1e-5)
	assert.InDelta(t, 0, clip.Y, 1e-5)
	assert.InDelta(t, 0, clip.W, 1e-5)

	s := m.Shadow(0)
	assert.Equal(t, l.Position, s.EyeWorld)
	assert.Equal(t, s.Bytes(), rec.BufferData(m.ShadowBuffer(0)))
}

func TestUpdateSkipsLightsWithoutShadow(t *testing.T) {
	m, rec := newManager(t)
	m.Global.Lights[0].Type = constants.LightPoint
	rec.Reset()

	u := NewUpdater()
	u.Moving = -1
	u.Update(0.016, m)

	assert.Empty(t, rec.Commands)
	assert.Equal(t, math.Identity(), m.Global.Lights[0].ViewProj)
}

func TestMovingLightOrbitsAndAims(t *testing.T) {
	m, _ := newManager(t)
	u := NewUpdater()

	u.Rotate = false
	u.Update(1, m)
	l := m.Global.Lights[1]
	assert.True(t, l.Position.ApproxEqual(math.Vec3{X: 1, Y: 1.1, Z: 2}, 1e-6))
	assert.True(t, l.Direction.ApproxEqual(u.Focus.Sub(l.Position).Normalize(), 1e-6))

	// One second turns the offset a quarter around the vertical axis.
	u.Rotate = true
	u.Update(1, m)
	assert.True(t, u.Offset.ApproxEqual(math.Vec3{Z: -1}, 1e-5), "offset %v", u.Offset)
	assert.InDelta(t, 1, m.Global.Lights[1].Direction.Length(), 1e-5)
}

func TestMaps(t *testing.T) {
	rec := gputest.New()
	maps, err := NewMaps(rec, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultResolution, maps.Resolution)
	for _, tex := range maps.Depth {
		require.NotNil(t, tex)
		assert.Equal(t, gpu.FormatDepth32F, tex.Desc.Format)
		assert.True(t, tex.Desc.DepthStencil && tex.Desc.ShaderResource)
	}

	maps.Begin(rec, 1)
	st := rec.State()
	assert.Empty(t, st.RenderTargets)
	assert.Same(t, maps.Depth[1], st.Depth)
	assert.Equal(t, float32(DefaultResolution), st.Viewport.Width)

	maps.Close()
	assert.Zero(t, rec.Live())
}

func TestMapsFailureReleases(t *testing.T) {
	rec := gputest.New()
	rec.FailOn = "CreateTexture"
	_, err := NewMaps(rec, 512)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shadow map 0")
	assert.Zero(t, rec.Live())
}
