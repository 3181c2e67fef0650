package scene

import (
	"encoding/binary"
	"fmt"
	"image"
	gomath "math"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/logger"
	"github.com/Faultbox/mirrorlab/pkg/math"
)

// Cube face order of gpu.Device.CreateCubeTexture.
var faceNames = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

const (
	envFaceSize        = 64
	irradianceFaceSize = 8
	brdfLUTSize        = 32
	irradianceSamples  = 256
	brdfSamples        = 128
)

// Radiance is incoming light from a world direction.
type Radiance func(dir math.Vec3) math.Vec3

// Environment is the image-based lighting set: the sky, its prefiltered
// specular mips, the diffuse irradiance and the split-sum BRDF table.
type Environment struct {
	Env        *gpu.Texture
	Specular   *gpu.Texture
	Irradiance *gpu.Texture
	BRDF       *gpu.Texture

	dev gpu.Device
}

// Sky is the procedural radiance used when no cubemap files are present:
// a horizon to zenith gradient over a dark ground.
func Sky(dir math.Vec3) math.Vec3 {
	horizon := math.Vec3{X: 0.9, Y: 0.85, Z: 0.8}
	zenith := math.Vec3{X: 0.25, Y: 0.45, Z: 0.9}
	ground := math.Vec3{X: 0.15, Y: 0.13, Z: 0.12}

	y := dir.Normalize().Y
	if y >= 0 {
		return horizon.Lerp(zenith, math32.Sqrt(y))
	}
	return horizon.Lerp(ground, math32.Min(1, -y*4))
}

// CubeDirection maps a texel centre of cube face f to a world direction.
// u and v are in [-1, 1] with v growing down the face image.
func CubeDirection(face int, u, v float32) math.Vec3 {
	var d math.Vec3
	switch face {
	case 0:
		d = math.Vec3{X: 1, Y: -v, Z: -u}
	case 1:
		d = math.Vec3{X: -1, Y: -v, Z: u}
	case 2:
		d = math.Vec3{X: u, Y: 1, Z: v}
	case 3:
		d = math.Vec3{X: u, Y: -1, Z: -v}
	case 4:
		d = math.Vec3{X: u, Y: -v, Z: 1}
	default:
		d = math.Vec3{X: -u, Y: -v, Z: -1}
	}
	return d.Normalize()
}

// renderFaces evaluates fn at every texel of six size x size faces and
// encodes the result as RGBA float texels.
func renderFaces(size int, fn Radiance) [6][]byte {
	var faces [6][]byte
	for f := range faces {
		buf := make([]byte, 0, size*size*16)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				u := (float32(x)+0.5)/float32(size)*2 - 1
				v := (float32(y)+0.5)/float32(size)*2 - 1
				c := fn(CubeDirection(f, u, v))
				buf = appendFloats(buf, c.X, c.Y, c.Z, 1)
			}
		}
		faces[f] = buf
	}
	return faces
}

func appendFloats(buf []byte, vals ...float32) []byte {
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint32(buf, gomath.Float32bits(v))
	}
	return buf
}

// fibonacciSphere returns n near-uniform unit directions.
func fibonacciSphere(n int) []math.Vec3 {
	golden := math.Pi * (3 - math32.Sqrt(5))
	out := make([]math.Vec3, n)
	for i := range out {
		y := 1 - (float32(i)+0.5)/float32(n)*2
		r := math32.Sqrt(1 - y*y)
		s, c := math32.Sincos(golden * float32(i))
		out[i] = math.Vec3{X: c * r, Y: y, Z: s * r}
	}
	return out
}

// Irradiance convolves a radiance function with the cosine lobe around
// each normal. A constant radiance of 1 gives an irradiance of 1.
func Irradiance(fn Radiance) Radiance {
	dirs := fibonacciSphere(irradianceSamples)
	samples := make([]math.Vec3, len(dirs))
	for i, d := range dirs {
		samples[i] = fn(d)
	}
	return func(n math.Vec3) math.Vec3 {
		var sum math.Vec3
		for i, d := range dirs {
			if c := n.Dot(d); c > 0 {
				sum = sum.Add(samples[i].Scale(c))
			}
		}
		return sum.Scale(4 / float32(len(dirs)))
	}
}

// CubeImages samples six face images by direction with nearest filtering.
// Texel values are treated as linear radiance in [0, 1].
func CubeImages(faces [6]*image.RGBA) Radiance {
	return func(dir math.Vec3) math.Vec3 {
		face, u, v := cubeFace(dir)
		img := faces[face]
		w, h := img.Rect.Dx(), img.Rect.Dy()
		x := min(w-1, max(0, int((u+1)/2*float32(w))))
		y := min(h-1, max(0, int((v+1)/2*float32(h))))
		c := img.RGBAAt(x, y)
		return math.Vec3{X: float32(c.R) / 255, Y: float32(c.G) / 255, Z: float32(c.B) / 255}
	}
}

// cubeFace is the inverse of CubeDirection.
func cubeFace(d math.Vec3) (face int, u, v float32) {
	ax, ay, az := math32.Abs(d.X), math32.Abs(d.Y), math32.Abs(d.Z)
	switch {
	case ax >= ay && ax >= az:
		if d.X > 0 {
			return 0, -d.Z / ax, -d.Y / ax
		}
		return 1, d.Z / ax, -d.Y / ax
	case ay >= az:
		if d.Y > 0 {
			return 2, d.X / ay, d.Z / ay
		}
		return 3, d.X / ay, -d.Z / ay
	default:
		if d.Z > 0 {
			return 4, d.X / az, -d.Y / az
		}
		return 5, -d.X / az, -d.Y / az
	}
}

// hammersley returns the i-th point of an n point Hammersley set.
func hammersley(i, n uint32) (float32, float32) {
	bits := i
	bits = (bits << 16) | (bits >> 16)
	bits = ((bits & 0x55555555) << 1) | ((bits & 0xAAAAAAAA) >> 1)
	bits = ((bits & 0x33333333) << 2) | ((bits & 0xCCCCCCCC) >> 2)
	bits = ((bits & 0x0F0F0F0F) << 4) | ((bits & 0xF0F0F0F0) >> 4)
	bits = ((bits & 0x00FF00FF) << 8) | ((bits & 0xFF00FF00) >> 8)
	return float32(i) / float32(n), float32(bits) * 2.3283064365386963e-10
}

// IntegrateBRDF returns the split-sum scale and bias applied to F0 for a
// view angle and roughness, using GGX importance sampling.
func IntegrateBRDF(nDotV, roughness float32) (scale, bias float32) {
	nDotV = math32.Max(nDotV, 1e-4)
	view := math.Vec3{X: math32.Sqrt(1 - nDotV*nDotV), Z: nDotV}
	a := roughness * roughness
	k := a / 2

	for i := uint32(0); i < brdfSamples; i++ {
		xi1, xi2 := hammersley(i, brdfSamples)
		phi := 2 * math.Pi * xi1
		cosTheta := math32.Sqrt((1 - xi2) / (1 + (a*a-1)*xi2))
		sinTheta := math32.Sqrt(1 - cosTheta*cosTheta)
		s, c := math32.Sincos(phi)
		h := math.Vec3{X: sinTheta * c, Y: sinTheta * s, Z: cosTheta}

		vDotH := view.Dot(h)
		l := h.Scale(2 * vDotH).Sub(view)
		nDotL := math32.Max(l.Z, 0)
		nDotH := math32.Max(h.Z, 0)
		vDotH = math32.Max(vDotH, 0)
		if nDotL <= 0 {
			continue
		}
		g := (nDotV / (nDotV*(1-k) + k)) * (nDotL / (nDotL*(1-k) + k))
		gVis := g * vDotH / (nDotH * nDotV)
		fc := math32.Pow(1-vDotH, 5)
		scale += (1 - fc) * gVis
		bias += fc * gVis
	}
	return scale / brdfSamples, bias / brdfSamples
}

// brdfTable renders IntegrateBRDF over (NdotV, roughness) in [0, 1]^2 with
// NdotV along x and roughness along y.
func brdfTable(size int) []byte {
	buf := make([]byte, 0, size*size*16)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			s, b := IntegrateBRDF((float32(x)+0.5)/float32(size), (float32(y)+0.5)/float32(size))
			buf = appendFloats(buf, s, b, 0, 1)
		}
	}
	return buf
}

// loadFaces reads <dir>/<prefix>_<face>.png for all six faces.
func loadFaces(dir, prefix string) ([6]*image.RGBA, error) {
	var faces [6]*image.RGBA
	for i, name := range faceNames {
		img, err := ReadImage(filepath.Join(dir, prefix+"_"+name+".png"))
		if err != nil {
			return faces, err
		}
		faces[i] = img
	}
	return faces, nil
}

// NewEnvironment builds the lighting set. When dir holds env_px.png ...
// env_nz.png the sky comes from those faces, otherwise from Sky.
func NewEnvironment(dev gpu.Device, dir string) (*Environment, error) {
	radiance := Radiance(Sky)
	if dir != "" {
		if _, err := os.Stat(filepath.Join(dir, "env_px.png")); err == nil {
			faces, err := loadFaces(dir, "env")
			if err != nil {
				return nil, fmt.Errorf("environment: %w", err)
			}
			radiance = CubeImages(faces)
			logger.Info("environment loaded", zap.String("dir", dir))
		} else {
			logger.Warn("environment faces not found, using procedural sky", zap.String("dir", dir))
		}
	}
	return newEnvironment(dev, radiance)
}

func newEnvironment(dev gpu.Device, radiance Radiance) (*Environment, error) {
	e := &Environment{dev: dev}

	cube := func(size int, mips bool) gpu.TextureDesc {
		return gpu.TextureDesc{
			Width: size, Height: size,
			Format:         gpu.FormatRGBA16F,
			Cube:           true,
			Mips:           mips,
			ShaderResource: true,
		}
	}
	envFaces := renderFaces(envFaceSize, radiance)

	var err error
	if e.Env, err = dev.CreateCubeTexture(cube(envFaceSize, true), envFaces); err != nil {
		return nil, fmt.Errorf("env cubemap: %w", err)
	}
	// The specular map is prefiltered by its mip chain.
	if e.Specular, err = dev.CreateCubeTexture(cube(envFaceSize, true), envFaces); err != nil {
		e.Close()
		return nil, fmt.Errorf("specular cubemap: %w", err)
	}
	irr := renderFaces(irradianceFaceSize, Irradiance(radiance))
	if e.Irradiance, err = dev.CreateCubeTexture(cube(irradianceFaceSize, false), irr); err != nil {
		e.Close()
		return nil, fmt.Errorf("irradiance cubemap: %w", err)
	}
	e.BRDF, err = dev.CreateTexture(gpu.TextureDesc{
		Width: brdfLUTSize, Height: brdfLUTSize,
		Format:         gpu.FormatRGBA16F,
		ShaderResource: true,
	}, brdfTable(brdfLUTSize))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("brdf table: %w", err)
	}
	return e, nil
}

// Close releases the textures.
func (e *Environment) Close() {
	for _, t := range []*gpu.Texture{e.Env, e.Specular, e.Irradiance, e.BRDF} {
		if t != nil {
			e.dev.Release(t)
		}
	}
	e.Env, e.Specular, e.Irradiance, e.BRDF = nil, nil, nil, nil
}
