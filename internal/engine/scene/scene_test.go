package scene

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu/gputest"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

func defaultLights() [constants.MaxLights]constants.Light {
	g := constants.DefaultGlobalConstants()
	DefaultLights(&g)
	return g.Lights
}

func newScene(t *testing.T) (*Scene, *gputest.Recorder) {
	t.Helper()
	rec := gputest.New()
	s, err := New(rec, Options{}, defaultLights())
	require.NoError(t, err)
	return s, rec
}

func TestDefaultLights(t *testing.T) {
	lights := defaultLights()
	assert.Equal(t, constants.LightSpot|constants.LightShadow, lights[0].Type)
	assert.Equal(t, math.Vec3{Y: 1.5, Z: 1.1}, lights[0].Position)
	assert.Equal(t, math.Vec3{Y: -1}, lights[0].Direction)
	assert.Equal(t, float32(20), lights[1].FallOffEnd)
	assert.True(t, lights[1].Type.Has(constants.LightShadow))
	assert.Equal(t, constants.LightOff, lights[2].Type)
}

func TestNewScene(t *testing.T) {
	s, rec := newScene(t)

	assert.Same(t, s.Ground, s.Mirror)
	assert.Len(t, s.Basic, 1+constants.MaxLights+1)
	assert.Same(t, s.MainObj, s.Basic[0])
	assert.Same(t, s.Cursor, s.Basic[len(s.Basic)-1])

	assert.False(t, s.Cursor.Visible)
	assert.False(t, s.Cursor.CastShadow)
	assert.True(t, s.LightSpheres[0].Visible)
	assert.False(t, s.LightSpheres[2].Visible, "switched-off light has no marker")
	assert.False(t, s.LightSpheres[0].CastShadow)

	assert.Equal(t, math.Sphere{Center: math.Vec3{Z: 2}, Radius: 0.4}, s.MainSphere)
	assert.Equal(t, int32(1), s.MainObj.MaterialConsts.InvertNormalMapY)
	assert.Equal(t, float32(0.8), s.MainObj.MaterialConsts.MetallicFactor)

	s.Close()
	assert.Equal(t, 0, rec.Live())
}

func TestGroundIsTheMirror(t *testing.T) {
	s, _ := newScene(t)

	up := s.Ground.World().TransformDirection(math.Vec3{Z: -1})
	assert.True(t, up.ApproxEqual(math.Vec3{Y: 1}, 1e-6), "ground faces up: %v", up)

	center := s.Ground.World().TransformPoint(math.Vec3{})
	assert.True(t, center.ApproxEqual(math.Vec3{Y: -0.5, Z: 2}, 1e-6))
	assert.InDelta(t, 0, s.MirrorPlane.Normal.Dot(center)+s.MirrorPlane.D, 1e-6)
	assert.InDelta(t, 0.5, s.MirrorPlane.D, 1e-6)

	mat := s.Ground.MaterialConsts
	assert.Equal(t, math.Vec3{X: 0.1, Y: 0.1, Z: 0.1}, mat.AlbedoFactor)
	assert.Equal(t, float32(0.5), mat.MetallicFactor)
	assert.Equal(t, float32(0.3), mat.RoughnessFactor)
}

func TestSkyboxFacesInward(t *testing.T) {
	s, _ := newScene(t)
	box := MakeBox(skyboxSize)
	box.ReverseIndices()
	assert.Equal(t, len(box.Indices), s.Skybox.Meshes[0].IndexCount)
}

func TestUpdateLightMarkers(t *testing.T) {
	s, _ := newScene(t)
	lights := defaultLights()
	lights[1].Position = math.Vec3{X: 1, Y: 2, Z: 3}
	lights[1].Radius = 0.25
	lights[2].Type = constants.LightPoint
	lights[2].Radius = 0

	s.UpdateLightMarkers(lights)

	w := s.LightSpheres[1].World()
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, w.Translation())
	assert.Equal(t, float32(0.25), w[0])
	assert.True(t, s.LightSpheres[2].Visible)
	assert.Equal(t, float32(0.01), s.LightSpheres[2].World()[0], "radius is clamped")
}

func TestDragMainObject(t *testing.T) {
	s, _ := newScene(t)

	s.DragMainObject(math.QuatIdentity(), math.Vec3{X: 1})
	assert.True(t, s.MainSphere.Center.ApproxEqual(math.Vec3{X: 1, Z: 2}, 1e-6))
	assert.Equal(t, s.MainSphere.Center, s.MainObj.World().Translation())

	q := math.QuatFromAxisAngle(math.Vec3{Y: 1}, math.Pi/2)
	s.DragMainObject(q, math.Vec3{})
	assert.True(t, s.MainSphere.Center.ApproxEqual(math.Vec3{X: 1, Z: 2}, 1e-6), "rotation keeps the centre")
	right := s.MainObj.World().TransformDirection(math.Vec3{X: 1})
	assert.True(t, right.ApproxEqual(q.Rotate(math.Vec3{X: 1}), 1e-5), "got %v", right)
}

func TestCursor(t *testing.T) {
	s, _ := newScene(t)
	s.ShowCursor(math.Vec3{X: 0.2, Z: 1.6})
	assert.True(t, s.Cursor.Visible)
	assert.Equal(t, math.Vec3{X: 0.2, Z: 1.6}, s.Cursor.World().Translation())
	s.HideCursor()
	assert.False(t, s.Cursor.Visible)
}

func TestSetMainObjectError(t *testing.T) {
	s, rec := newScene(t)
	before := s.MainObj
	live := rec.Live()

	err := s.SetMainObject(filepath.Join(t.TempDir(), "missing.gltf"))
	require.Error(t, err)
	assert.Same(t, before, s.MainObj)
	assert.Equal(t, live, rec.Live())
}

func TestSetMainObjectReplaces(t *testing.T) {
	s, rec := newScene(t)
	live := rec.Live()
	s.DragMainObject(math.QuatIdentity(), math.Vec3{Y: 1})

	require.NoError(t, s.SetMainObject(""))
	assert.Equal(t, live, rec.Live(), "old object released")
	assert.Equal(t, math.Vec3{Z: 2}, s.MainSphere.Center)
	assert.Same(t, s.MainObj, s.Basic[0])
	assert.Len(t, s.Basic, 1+constants.MaxLights+1)
}

func TestNewSceneFailureReleases(t *testing.T) {
	for _, op := range []string{"CreateCubeTexture", "CreateBuffer"} {
		rec := gputest.New()
		rec.FailOn = op
		_, err := New(rec, Options{}, defaultLights())
		assert.Error(t, err, op)
		assert.Equal(t, 0, rec.Live(), "%s: leaked objects", op)
	}
}
