package display

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// Windowed presents frames in a desktop window via ebiten. It implements
// ebiten.Game so the caller's UpdateFrame calls only need to copy bytes into
// a mutex-guarded buffer; the actual blit happens on ebiten's own Draw
// callback, same split as the terminal backend's render/flush split.
type Windowed struct {
	width, height int
	image         *ebiten.Image
	buffer        []byte
	mu            sync.RWMutex
	running       bool
	readyOnce     sync.Once
	ready         chan struct{}
}

// NewWindowed opens a window of the given size and starts ebiten's run
// loop in the background, returning once the first Draw call has fired.
func NewWindowed(width, height int, title string) (*Windowed, error) {
	w := &Windowed{
		width:   width,
		height:  height,
		buffer:  make([]byte, width*height*4),
		running: true,
		ready:   make(chan struct{}),
	}

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)

	go func() {
		if err := ebiten.RunGame(w); err != nil {
			fmt.Printf("windowed display stopped: %v\n", err)
		}
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	<-w.ready
	return w, nil
}

// UpdateFrame copies pixels into the shared buffer ebiten's Draw reads from,
// swizzling from the Display interface's B,G,R,A order to the R,G,B,A order
// WritePixels expects.
func (w *Windowed) UpdateFrame(pixels []byte) error {
	w.mu.Lock()
	n := min(len(w.buffer), len(pixels))
	for i := 0; i+3 < n; i += 4 {
		w.buffer[i] = pixels[i+2]
		w.buffer[i+1] = pixels[i+1]
		w.buffer[i+2] = pixels[i]
		w.buffer[i+3] = pixels[i+3]
	}
	w.mu.Unlock()
	return nil
}

// IsRunning reports whether the window is still open.
func (w *Windowed) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Close requests the run loop stop on its next Update.
func (w *Windowed) Close() error {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

// Update implements ebiten.Game.
func (w *Windowed) Update() error {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()
	if !running {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (w *Windowed) Draw(screen *ebiten.Image) {
	if w.image == nil {
		w.image = ebiten.NewImage(w.width, w.height)
	}
	w.mu.RLock()
	w.image.WritePixels(w.buffer)
	w.mu.RUnlock()
	screen.DrawImage(w.image, nil)

	w.readyOnce.Do(func() { close(w.ready) })
}

// Layout implements ebiten.Game.
func (w *Windowed) Layout(_, _ int) (int, int) {
	return w.width, w.height
}
