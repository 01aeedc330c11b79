package display

import "sync/atomic"

// Headless discards frames, counting them atomically. Used by tests and by
// batch rendering (e.g. SaveFramebufferAsImage-only runs) where no
// interactive surface is wanted.
type Headless struct {
	frameCount atomic.Uint64
	running    atomic.Bool
}

// NewHeadless creates a running headless display.
func NewHeadless() *Headless {
	h := &Headless{}
	h.running.Store(true)
	return h
}

// UpdateFrame counts the frame and discards the pixels.
func (h *Headless) UpdateFrame(pixels []byte) error {
	h.frameCount.Add(1)
	return nil
}

// FrameCount returns the number of frames presented so far.
func (h *Headless) FrameCount() uint64 {
	return h.frameCount.Load()
}

// IsRunning reports whether Close has been called yet.
func (h *Headless) IsRunning() bool {
	return h.running.Load()
}

// Close marks the display stopped.
func (h *Headless) Close() error {
	h.running.Store(false)
	return nil
}
