// Package color packs and unpacks the 32-bit pixel format the rasterization
// core uses for its framebuffer, and provides the saturate/clamp helpers
// shader stages rely on.
package color

import "github.com/taigrr/rasteriser/pkg/math3d"

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v > max {
		return max
	}
	if v < min {
		return min
	}
	return v
}

// Saturate restricts v to [0, 1].
func Saturate(v float64) float64 {
	return Clamp(v, 0, 1)
}

// SaturateVec4 saturates each component of v independently.
func SaturateVec4(v math3d.Vec4) math3d.Vec4 {
	return math3d.V4(Saturate(v.X), Saturate(v.Y), Saturate(v.Z), Saturate(v.W))
}

// Pack8 packs four bytes into a 32-bit word as ((b0<<24)|(b1<<16)|(b2<<8)|b3).
func Pack8(b0, b1, b2, b3 uint8) uint32 {
	return uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3)
}

// Unpack8 is the inverse of Pack8.
func Unpack8(v uint32) (b0, b1, b2, b3 uint8) {
	return uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)
}

// BGRA packs (r,g,b,a) bytes into the framebuffer's {A,R,G,B} bit-order word
// (A in bits 31..24, R 23..16, G 15..8, B 7..0), per the core data model.
func BGRA(r, g, b, a uint8) uint32 {
	return Pack8(a, r, g, b)
}

// RGBA packs the same four bytes with R and B bit positions swapped relative
// to BGRA, provided for callers that need display/byte-order-native words
// directly rather than via the little-endian expansion in ToBytesLE.
func RGBA(r, g, b, a uint8) uint32 {
	return Pack8(a, b, g, r)
}

// UnpackBGRA is the inverse of BGRA: given a packed {A,R,G,B} word, returns
// (r, g, b, a) bytes.
func UnpackBGRA(v uint32) (r, g, b, a uint8) {
	a, r, g, b = Unpack8(v)
	return r, g, b, a
}

// FromVec4 packs a normalized [0,1] color vector (as produced by a pixel
// shader) into the framebuffer's 32-bit {A,R,G,B} word, using
// round-then-truncate of component*255 as specified.
func FromVec4(c math3d.Vec4) uint32 {
	r := componentToByte(c.X)
	g := componentToByte(c.Y)
	b := componentToByte(c.Z)
	a := componentToByte(c.W)
	return BGRA(r, g, b, a)
}

// ToVec4 unpacks a framebuffer word back into a normalized [0,1] color.
func ToVec4(v uint32) math3d.Vec4 {
	r, g, b, a := UnpackBGRA(v)
	return math3d.V4(float64(r)/255, float64(g)/255, float64(b)/255, float64(a)/255)
}

func componentToByte(v float64) uint8 {
	v = Saturate(v)
	return uint8(int((v * 255.0) + 0.5))
}

// ToBytesLE expands a slice of packed 32-bit {A,R,G,B} words into a byte
// stream via little-endian expansion: for each word v, bytes are
// (v&0xFF, (v>>8)&0xFF, (v>>16)&0xFF, (v>>24)&0xFF), which yields B,G,R,A
// order for a word packed by BGRA. This is the exact conversion a display
// surface expects to receive; PNG output uses ToRGBABytes instead.
func ToBytesLE(words []uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, v := range words {
		out = append(out,
			byte(v),
			byte(v>>8),
			byte(v>>16),
			byte(v>>24),
		)
	}
	return out
}

// ToRGBABytes expands a slice of packed {A,R,G,B} words into RGBA8 byte
// order (R,G,B,A per pixel), the order image/png and the PNG-writer
// collaborator expect.
func ToRGBABytes(words []uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, v := range words {
		r, g, b, a := UnpackBGRA(v)
		out = append(out, r, g, b, a)
	}
	return out
}
