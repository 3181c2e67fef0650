// Package scene provides the renderable objects of the mirror demo: models,
// procedural and glTF geometry, textures and image-based lighting.
package scene

import (
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/constants"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/logger"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// Scene layout.
var (
	groundPosition = math.Vec3{X: 0, Y: -0.5, Z: 2}
	mainCenter     = math.Vec3{X: 0, Y: 0, Z: 2}
)

const (
	mainRadius = 0.4
	skyboxSize = 40
	groundSize = 5
)

// Options selects the assets of the scene.
type Options struct {
	// ModelPath is a glTF file for the main object. Empty uses a sphere.
	ModelPath string
	// EnvironmentDir holds env_px.png ... env_nz.png. Empty or missing
	// faces use the procedural sky.
	EnvironmentDir string
}

// Scene holds every object of the demo.
type Scene struct {
	Env *Environment

	ScreenSquare *Model
	Skybox       *Model
	Ground       *Model
	// Mirror is the reflecting object; it is the ground.
	Mirror      *Model
	MirrorPlane math.Plane

	MainObj    *Model
	MainSphere math.Sphere

	LightSpheres [constants.MaxLights]*Model
	Cursor       *Model

	// Basic lists the objects drawn with the basic pipeline: the main
	// object, the light markers and the cursor.
	Basic []*Model

	dev gpu.Device
}

// DefaultLights configures the light slots: a fixed spot light above the
// object, a moving spot light and a switched-off slot.
func DefaultLights(g *constants.GlobalConstants) {
	l0 := &g.Lights[0]
	l0.Radiance = math.Vec3{X: 5, Y: 5, Z: 5}
	l0.Position = math.Vec3{X: 0, Y: 1.5, Z: 1.1}
	l0.Direction = math.Vec3{Y: -1}
	l0.SpotPower = 3
	l0.Radius = 0.02
	l0.Type = constants.LightSpot | constants.LightShadow

	l1 := &g.Lights[1]
	l1.Radiance = math.Vec3{X: 5, Y: 5, Z: 5}
	l1.SpotPower = 3
	l1.FallOffEnd = 20
	l1.Radius = 0.02
	l1.Type = constants.LightSpot | constants.LightShadow

	g.Lights[2].Type = constants.LightOff
}

// New builds the scene. The lights must already be configured so the
// markers start at their positions.
func New(dev gpu.Device, opts Options, lights [constants.MaxLights]constants.Light) (_ *Scene, err error) {
	s := &Scene{dev: dev}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if s.Env, err = NewEnvironment(dev, opts.EnvironmentDir); err != nil {
		return nil, err
	}

	if s.ScreenSquare, err = NewModel(dev, []MeshData{MakeSquare(1, math.Vec2{X: 1, Y: 1})}); err != nil {
		return nil, fmt.Errorf("screen square: %w", err)
	}

	box := MakeBox(skyboxSize)
	box.ReverseIndices()
	if s.Skybox, err = NewModel(dev, []MeshData{box}); err != nil {
		return nil, fmt.Errorf("skybox: %w", err)
	}

	if s.Ground, err = NewModel(dev, []MeshData{MakeSquare(groundSize, math.Vec2{X: 1, Y: 1})}); err != nil {
		return nil, fmt.Errorf("ground: %w", err)
	}
	mat := &s.Ground.MaterialConsts
	mat.AlbedoFactor = math.Vec3{X: 0.1, Y: 0.1, Z: 0.1}
	mat.EmissionFactor = math.Vec3{}
	mat.MetallicFactor = 0.5
	mat.RoughnessFactor = 0.3
	s.Ground.SetWorld(math.TranslateVec(groundPosition).Mul(math.RotateX(math.Pi / 2)))
	s.MirrorPlane = math.PlaneFromPointNormal(groundPosition, math.Vec3{Y: 1})
	s.Mirror = s.Ground

	if err = s.SetMainObject(opts.ModelPath); err != nil {
		return nil, err
	}

	for i := range s.LightSpheres {
		sphere, err := NewModel(dev, []MeshData{MakeSphere(1, 20, 20, math.Vec2{X: 1, Y: 1})})
		if err != nil {
			return nil, fmt.Errorf("light marker %d: %w", i, err)
		}
		sphere.MaterialConsts.AlbedoFactor = math.Vec3{}
		sphere.MaterialConsts.EmissionFactor = math.Vec3{X: 1, Y: 1}
		sphere.CastShadow = false
		s.LightSpheres[i] = sphere
	}
	s.UpdateLightMarkers(lights)

	if s.Cursor, err = NewModel(dev, []MeshData{MakeSphere(0.01, 10, 10, math.Vec2{X: 1, Y: 1})}); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	s.Cursor.Visible = false
	s.Cursor.CastShadow = false
	s.Cursor.MaterialConsts.AlbedoFactor = math.Vec3{}
	s.Cursor.MaterialConsts.EmissionFactor = math.Vec3{Y: 1}

	s.rebuildBasic()
	logger.Debug("scene created", zap.Int("objects", len(s.Basic)+3))
	return s, nil
}

// SetMainObject replaces the main object with a glTF model, or with a
// sphere when path is empty. The pick sphere and transform are reset.
func (s *Scene) SetMainObject(path string) error {
	var meshes []MeshData
	if path == "" {
		meshes = []MeshData{MakeSphere(mainRadius, 50, 50, math.Vec2{X: 1, Y: 1})}
	} else {
		var err error
		if meshes, err = LoadGLTF(path, true); err != nil {
			return err
		}
	}

	obj, err := NewModel(s.dev, meshes)
	if err != nil {
		return fmt.Errorf("main object: %w", err)
	}
	obj.MaterialConsts.InvertNormalMapY = 1
	obj.MaterialConsts.RoughnessFactor = 0.3
	obj.MaterialConsts.MetallicFactor = 0.8
	obj.SetWorld(math.TranslateVec(mainCenter))

	if s.MainObj != nil {
		s.MainObj.Close()
	}
	s.MainObj = obj
	s.MainSphere = math.Sphere{Center: mainCenter, Radius: mainRadius}
	s.rebuildBasic()
	return nil
}

func (s *Scene) rebuildBasic() {
	s.Basic = s.Basic[:0]
	if s.MainObj != nil {
		s.Basic = append(s.Basic, s.MainObj)
	}
	for _, l := range s.LightSpheres {
		if l != nil {
			s.Basic = append(s.Basic, l)
		}
	}
	if s.Cursor != nil {
		s.Basic = append(s.Basic, s.Cursor)
	}
}

// UpdateLightMarkers places each marker at its light, scaled by the light
// radius. Markers of switched-off lights are hidden.
func (s *Scene) UpdateLightMarkers(lights [constants.MaxLights]constants.Light) {
	for i, marker := range s.LightSpheres {
		if marker == nil {
			continue
		}
		l := lights[i]
		marker.Visible = l.Type != constants.LightOff
		marker.SetWorld(math.TranslateVec(l.Position).Mul(math.ScaleUniform(math32.Max(0.01, l.Radius))))
	}
}

// DragMainObject rotates the main object about its centre, then moves it.
// The pick sphere follows the object.
func (s *Scene) DragMainObject(rotation math.Quat, translation math.Vec3) {
	world := s.MainObj.World()
	center := world.Translation()
	world = world.WithTranslation(math.Vec3{})
	world = math.TranslateVec(center.Add(translation)).Mul(rotation.ToMat4()).Mul(world)
	s.MainObj.SetWorld(world)
	s.MainSphere.Center = world.Translation()
}

// ShowCursor draws the cursor marker at a pick point.
func (s *Scene) ShowCursor(point math.Vec3) {
	s.Cursor.Visible = true
	s.Cursor.SetWorld(math.TranslateVec(point))
}

// HideCursor hides the cursor marker.
func (s *Scene) HideCursor() {
	s.Cursor.Visible = false
}

// UpdateConstantBuffers uploads the blocks of every visible object.
func (s *Scene) UpdateConstantBuffers(ctx gpu.Context) {
	s.Skybox.UpdateConstantBuffers(ctx)
	s.Ground.UpdateConstantBuffers(ctx)
	for _, m := range s.Basic {
		m.UpdateConstantBuffers(ctx)
	}
}

// Close releases every object.
func (s *Scene) Close() {
	for _, m := range []*Model{s.ScreenSquare, s.Skybox, s.Ground, s.MainObj, s.Cursor} {
		if m != nil {
			m.Close()
		}
	}
	for _, m := range s.LightSpheres {
		if m != nil {
			m.Close()
		}
	}
	if s.Env != nil {
		s.Env.Close()
	}
}
