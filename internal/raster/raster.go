// Package raster turns flattened pixel dumps back into viewable images.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"
)

// ErrNoDimensions is returned when no plausible height evenly divides the
// pixel count.
var ErrNoDimensions = errors.New("raster: no dimensions fit the pixel count")

// Heights tried by the fallback search when the configured geometry does not
// match the data.
const (
	minInferredHeight = 10
	maxInferredHeight = 50 // exclusive
)

// Format selects the output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	default:
		return "", fmt.Errorf("unknown image format %q", s)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == JPEG {
		return "jpg"
	}
	return "png"
}

// InferDims searches heights ascending from 10 for the first one that evenly
// divides n. This is best effort: it silently substitutes different dimensions
// than the ones configured, and the caller must surface the change.
func InferDims(n int) (w, h int, err error) {
	for h = minInferredHeight; h < maxInferredHeight; h++ {
		if n%h == 0 {
			return n / h, h, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %d pixels", ErrNoDimensions, n)
}

// Reshape lays the flat pixel sequence out row-major as a grayscale image of
// the given geometry. When the pixel count does not match width×height the
// dimension search takes over; the returned bounds then report the inferred
// geometry, not the requested one. Pixel values are clamped to [0,255].
func Reshape(pixels []int, width, height int) (*image.Gray, error) {
	if len(pixels) == 0 {
		return nil, fmt.Errorf("raster: empty pixel array")
	}
	if width*height != len(pixels) {
		w, h, err := InferDims(len(pixels))
		if err != nil {
			return nil, err
		}
		width, height = w, h
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for i, p := range pixels {
		if p < 0 {
			p = 0
		} else if p > 255 {
			p = 255
		}
		img.Pix[i] = uint8(p)
	}
	return img, nil
}

// Scale enlarges the image by an integer factor using nearest-neighbor
// interpolation: every source pixel becomes an exact s×s block, no blending.
// Factors below 2 return the input unchanged.
func Scale(src *image.Gray, s int) *image.Gray {
	if s <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*s, b.Dy()*s))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Encode writes the image in the requested format. JPEG cannot carry a bare
// single-channel raster on this path, so the image is expanded to three
// channels first.
func Encode(w io.Writer, img *image.Gray, f Format) error {
	switch f {
	case JPEG:
		return jpeg.Encode(w, expandToRGBA(img), &jpeg.Options{Quality: 90})
	case PNG, "":
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unknown image format %q", f)
	}
}

func expandToRGBA(src *image.Gray) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := src.GrayAt(x, y).Y
			dst.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return dst
}
