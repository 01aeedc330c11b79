package display

import "testing"

var (
	_ Display = (*Headless)(nil)
	_ Display = (*Terminal)(nil)
	_ Display = (*Windowed)(nil)
)

func TestHeadlessCountsFrames(t *testing.T) {
	h := NewHeadless()
	for range 3 {
		if err := h.UpdateFrame(make([]byte, 16)); err != nil {
			t.Fatalf("UpdateFrame: %v", err)
		}
	}
	if h.FrameCount() != 3 {
		t.Fatalf("FrameCount() = %d, want 3", h.FrameCount())
	}
}

func TestHeadlessRunningUntilClosed(t *testing.T) {
	h := NewHeadless()
	if !h.IsRunning() {
		t.Fatalf("a freshly created headless display should be running")
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.IsRunning() {
		t.Fatalf("IsRunning() should be false after Close")
	}
}
