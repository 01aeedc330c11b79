// Package texture provides the texture-source collaborator: decoded images
// exposing nearest-neighbor sampling into a normalized color vector, plus a
// couple of procedural generators used as viewer fallbacks.
package texture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/taigrr/rasteriser/pkg/math3d"
)

// Texture is an externally decoded image with dimensions and a byte-level
// pixel accessor. It is immutable after construction, so a *Texture handle
// is safe to share read-only across the per-triangle workers a draw call
// spawns. In Go this needs no explicit reference-counted container, a bare
// pointer plus "never mutate after construction" is the shared-ownership
// handle the design notes call for.
type Texture struct {
	Width, Height int
	Pixels        []Color // row-major, row 0 = top of the source image
}

// Color is a byte-quadruple pixel as decoded from an image source.
type Color struct {
	R, G, B, A uint8
}

// NewTexture creates a blank texture of the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{Width: width, Height: height, Pixels: make([]Color, width*height)}
}

// Load decodes an image file (any format registered via blank import, here
// PNG and JPEG) into a Texture.
func Load(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts a decoded image.Image into a Texture.
func FromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tex := NewTexture(w, h)
	for y := range h {
		for x := range w {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			tex.SetPixel(x, y, Color{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)})
		}
	}
	return tex
}

// NewChecker creates a procedural checkerboard texture, used as the
// viewer's fallback when no texture is supplied.
func NewChecker(width, height, checkSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex
}

// NewGradient creates a horizontal-gradient texture.
func NewGradient(width, height int, left, right Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			t := float64(x) / float64(max(1, width-1))
			tex.SetPixel(x, y, lerp(left, right, t))
		}
	}
	return tex
}

// SetPixel writes a pixel; out of range writes are ignored.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// GetPixel reads a pixel; out of range reads return the zero Color.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return Color{}
	}
	return t.Pixels[y*t.Width+x]
}

// Sample performs nearest-neighbor lookup at normalized coordinates (u,v)
// and returns the four components divided by 255 as a 4-vector. u and v
// must be in [0,1]; out-of-range input is a programmer error and panics
// rather than clamping or wrapping.
func (t *Texture) Sample(u, v float64) math3d.Vec4 {
	if u < 0 || u > 1 || v < 0 || v > 1 {
		panic(fmt.Sprintf("texture: sample coordinate (%v, %v) out of [0,1]", u, v))
	}
	x := int(math.Floor(u * float64(t.Width-1)))
	y := int(math.Floor(v * float64(t.Height-1)))
	c := t.GetPixel(x, y)
	return math3d.V4(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
}

func lerp(a, b Color, t float64) Color {
	return Color{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t),
	}
}
