package scene

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
	"github.com/Faultbox/mirrorlab/internal/engine/gpu/gputest"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestReadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "albedo.png")
	writePNG(t, path, solid(3, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255}))

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Rect)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, img.RGBAAt(2, 1))
}

func TestReadImageErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = ReadImage(bad)
	assert.Error(t, err)
}

func TestCombineMetallicRoughness(t *testing.T) {
	metallic := solid(2, 2, color.RGBA{R: 200, A: 255})
	roughness := solid(2, 2, color.RGBA{R: 50, A: 255})

	out := CombineMetallicRoughness(metallic, roughness)
	require.NotNil(t, out)
	got := out.RGBAAt(1, 1)
	assert.Equal(t, uint8(50), got.G, "roughness in green")
	assert.Equal(t, uint8(200), got.B, "metallic in blue")
}

func TestCombineMetallicRoughnessResamples(t *testing.T) {
	metallic := solid(4, 4, color.RGBA{R: 120, A: 255})
	roughness := solid(1, 1, color.RGBA{R: 80, A: 255})

	out := CombineMetallicRoughness(metallic, roughness)
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, 4, 4), out.Rect)
	assert.InDelta(t, 80, int(out.RGBAAt(3, 3).G), 1)
	assert.Equal(t, uint8(120), out.RGBAAt(3, 3).B)
}

func TestCombineMetallicRoughnessSingleInput(t *testing.T) {
	out := CombineMetallicRoughness(nil, solid(2, 1, color.RGBA{R: 90, A: 255}))
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, 2, 1), out.Rect)
	assert.Equal(t, uint8(90), out.RGBAAt(0, 0).G)
	assert.Equal(t, uint8(0), out.RGBAAt(0, 0).B)

	assert.Nil(t, CombineMetallicRoughness(nil, nil))
}

func TestCreateTexture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "albedo.png")
	writePNG(t, path, solid(4, 2, color.RGBA{R: 255, A: 255}))
	rec := gputest.New()

	tex, err := CreateTexture(rec, path, true)
	require.NoError(t, err)
	assert.Equal(t, gpu.FormatRGBA8SRGB, tex.Desc.Format)
	assert.Equal(t, 4, tex.Desc.Width)
	assert.True(t, tex.Desc.Mips)
	assert.True(t, tex.Desc.ShaderResource)

	tex, err = CreateTexture(rec, path, false)
	require.NoError(t, err)
	assert.Equal(t, gpu.FormatRGBA8, tex.Desc.Format)
}

func TestCreateMetallicRoughnessTexture(t *testing.T) {
	dir := t.TempDir()
	mPath := filepath.Join(dir, "metallic.png")
	rPath := filepath.Join(dir, "roughness.png")
	writePNG(t, mPath, solid(2, 2, color.RGBA{R: 255, A: 255}))
	writePNG(t, rPath, solid(8, 8, color.RGBA{R: 128, A: 255}))
	rec := gputest.New()

	tex, err := CreateMetallicRoughnessTexture(rec, mPath, rPath)
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Desc.Width, "sized like the metallic map")
	assert.Equal(t, gpu.FormatRGBA8, tex.Desc.Format)

	tex, err = CreateMetallicRoughnessTexture(rec, rPath, rPath)
	require.NoError(t, err)
	assert.Equal(t, 8, tex.Desc.Width, "a shared file is uploaded as is")

	_, err = CreateMetallicRoughnessTexture(rec, "", "")
	assert.Error(t, err)
	_, err = CreateMetallicRoughnessTexture(rec, filepath.Join(dir, "missing.png"), rPath)
	assert.Error(t, err)
}
