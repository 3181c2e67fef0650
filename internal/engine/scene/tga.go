package scene

import (
	"errors"
	"fmt"
	"image"
	"io"
)

// TGA image types.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

const tgaHeaderSize = 18

var errTGATruncated = errors.New("tga: pixel data truncated")

// DecodeTGA decodes an uncompressed or RLE TGA image: 24/32-bit true color
// or 8-bit grayscale. Grayscale maps are common for AO and roughness.
func DecodeTGA(r io.Reader) (*image.RGBA, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < tgaHeaderSize {
		return nil, errors.New("tga: header too short")
	}

	idLength := int(data[0])
	if data[1] != 0 {
		return nil, errors.New("tga: color-mapped images are not supported")
	}
	kind := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topDown := data[17]&0x20 != 0

	gray := kind == tgaGray || kind == tgaGrayRLE
	switch {
	case kind != tgaTrueColor && kind != tgaTrueColorRLE && !gray:
		return nil, fmt.Errorf("tga: unsupported image type %d", kind)
	case gray && bpp != 8:
		return nil, fmt.Errorf("tga: unsupported grayscale depth %d", bpp)
	case !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("tga: unsupported depth %d", bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}
	src := data[offset:]
	stride := bpp / 8
	count := width * height

	var pixels []byte
	if kind == tgaTrueColorRLE || kind == tgaGrayRLE {
		if pixels, err = expandTGARLE(src, count, stride); err != nil {
			return nil, err
		}
	} else {
		if len(src) < count*stride {
			return nil, errTGATruncated
		}
		pixels = src[:count*stride]
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		row := y
		if !topDown {
			row = height - 1 - y
		}
		for x := range width {
			p := pixels[(y*width+x)*stride:]
			d := img.Pix[img.PixOffset(x, row):]
			if gray {
				d[0], d[1], d[2], d[3] = p[0], p[0], p[0], 0xff
				continue
			}
			// Stored as BGR(A).
			d[0], d[1], d[2], d[3] = p[2], p[1], p[0], 0xff
			if stride == 4 {
				d[3] = p[3]
			}
		}
	}
	return img, nil
}

// expandTGARLE unpacks run-length packets into count pixels of stride bytes.
func expandTGARLE(src []byte, count, stride int) ([]byte, error) {
	out := make([]byte, 0, count*stride)
	for i := 0; len(out) < count*stride; {
		if i >= len(src) {
			return nil, errTGATruncated
		}
		header := src[i]
		i++
		n := int(header&0x7f) + 1

		if header&0x80 != 0 {
			if i+stride > len(src) {
				return nil, errTGATruncated
			}
			for range n {
				out = append(out, src[i:i+stride]...)
			}
			i += stride
			continue
		}
		if i+n*stride > len(src) {
			return nil, errTGATruncated
		}
		out = append(out, src[i:i+n*stride]...)
		i += n * stride
	}
	return out[:count*stride], nil
}
