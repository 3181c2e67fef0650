package scene

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/Faultbox/mirrorlab/internal/engine/gpu"
)

// ReadImage decodes a PNG, JPEG, BMP or TGA file into RGBA8. TGA has no
// signature, so it is picked by extension.
func ReadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %q: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err := DecodeTGA(f)
		if err != nil {
			return nil, fmt.Errorf("decode image %q: %w", path, err)
		}
		return img, nil
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", path, err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}

// resize scales img to w x h with a bilinear filter.
func resize(img *image.RGBA, w, h int) *image.RGBA {
	if img.Rect.Dx() == w && img.Rect.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Rect, img, img.Rect, draw.Src, nil)
	return dst
}

// CombineMetallicRoughness packs the red channels of a metallic and a
// roughness image into one image: green is roughness, blue is metallic.
// Either input may be nil. The roughness image is resampled to the metallic
// size when they differ.
func CombineMetallicRoughness(metallic, roughness *image.RGBA) *image.RGBA {
	ref := metallic
	if ref == nil {
		ref = roughness
	}
	if ref == nil {
		return nil
	}
	w, h := ref.Rect.Dx(), ref.Rect.Dy()
	if metallic != nil {
		metallic = resize(metallic, w, h)
	}
	if roughness != nil {
		roughness = resize(roughness, w, h)
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var c color.RGBA
			if roughness != nil {
				c.G = roughness.RGBAAt(x, y).R
			}
			if metallic != nil {
				c.B = metallic.RGBAAt(x, y).R
			}
			out.SetRGBA(x, y, c)
		}
	}
	return out
}

// CreateImageTexture uploads an RGBA8 image with a full mip chain.
func CreateImageTexture(dev gpu.Device, img *image.RGBA, srgb bool) (*gpu.Texture, error) {
	format := gpu.FormatRGBA8
	if srgb {
		format = gpu.FormatRGBA8SRGB
	}
	return dev.CreateTexture(gpu.TextureDesc{
		Width:          img.Rect.Dx(),
		Height:         img.Rect.Dy(),
		Format:         format,
		Mips:           true,
		ShaderResource: true,
	}, img.Pix)
}

// CreateTexture loads an image file and uploads it. Color maps are sRGB.
func CreateTexture(dev gpu.Device, path string, srgb bool) (*gpu.Texture, error) {
	img, err := ReadImage(path)
	if err != nil {
		return nil, err
	}
	return CreateImageTexture(dev, img, srgb)
}

// CreateMetallicRoughnessTexture loads and packs the metallic and roughness
// maps. A single file used for both is uploaded as is.
func CreateMetallicRoughnessTexture(dev gpu.Device, metallicPath, roughnessPath string) (*gpu.Texture, error) {
	if metallicPath != "" && metallicPath == roughnessPath {
		return CreateTexture(dev, metallicPath, false)
	}

	var metallic, roughness *image.RGBA
	var err error
	if metallicPath != "" {
		if metallic, err = ReadImage(metallicPath); err != nil {
			return nil, err
		}
	}
	if roughnessPath != "" {
		if roughness, err = ReadImage(roughnessPath); err != nil {
			return nil, err
		}
	}
	combined := CombineMetallicRoughness(metallic, roughness)
	if combined == nil {
		return nil, fmt.Errorf("metallic-roughness texture: no input files")
	}
	return CreateImageTexture(dev, combined, false)
}
