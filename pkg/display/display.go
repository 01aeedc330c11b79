// Package display provides the present-side collaborator the rasterization
// core blits its framebuffer to: a terminal backend (half-block cells over
// ultraviolet), a windowed backend (ebiten) and a headless backend for tests
// and batch rendering.
package display

// Display is the surface a rendered frame is presented to. UpdateFrame
// receives the framebuffer expanded to bytes via little-endian expansion of
// the packed {A,R,G,B} words, B,G,R,A per pixel, row-major; IsRunning
// reports whether the surface is still open so a caller's present loop
// knows when to stop.
type Display interface {
	UpdateFrame(pixels []byte) error
	IsRunning() bool
	Close() error
}
