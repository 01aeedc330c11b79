package display

import (
	"context"
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Terminal presents a frame in a terminal using the half-block technique:
// each terminal row draws two framebuffer rows via the upper-half-block
// glyph, fg set to the top pixel and bg set to the bottom pixel.
type Terminal struct {
	term    *uv.Terminal
	width   int // terminal columns
	height  int // terminal rows
	fbW     int // framebuffer width = width
	fbH     int // framebuffer height = height*2
	running bool
}

// NewTerminal starts and configures an ultraviolet terminal for rendering:
// alt screen, hidden cursor, sized to the terminal's current dimensions.
func NewTerminal() (*Terminal, error) {
	term := uv.DefaultTerminal()

	w, h, err := term.GetSize()
	if err != nil {
		return nil, err
	}
	if err := term.Start(); err != nil {
		return nil, err
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(w, h)

	return &Terminal{
		term:    term,
		width:   w,
		height:  h,
		fbW:     w,
		fbH:     h * 2,
		running: true,
	}, nil
}

// FramebufferSize returns the pixel dimensions a caller should render at:
// one column wide, two rows tall per terminal cell.
func (t *Terminal) FramebufferSize() (int, int) {
	return t.fbW, t.fbH
}

// Resize updates the terminal's tracked dimensions, e.g. in response to a
// uv.WindowSizeEvent from Events().
func (t *Terminal) Resize(width, height int) {
	t.term.Erase()
	t.term.Resize(width, height)
	t.width, t.height = width, height
	t.fbW, t.fbH = width, height*2
}

// Events exposes the underlying terminal's event stream (resize, key and
// mouse events) for a caller's input loop.
func (t *Terminal) Events() <-chan uv.Event {
	return t.term.Events()
}

// UpdateFrame renders a B,G,R,A pixel buffer (fbW*fbH*4 bytes, row-major,
// the Display interface's byte order) as half-block terminal cells and
// flushes the screen.
func (t *Terminal) UpdateFrame(pixels []byte) error {
	scr := t.term.Screen()
	for row := range t.height {
		topY := row * 2
		botY := topY + 1
		for col := range min(t.width, t.fbW) {
			top := readBGRA(pixels, col, topY, t.fbW)
			bot := readBGRA(pixels, col, botY, t.fbW)

			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaOrNil(top),
					Bg: rgbaOrNil(bot),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
	return t.term.Render(scr)
}

// IsRunning reports whether the terminal session is still open.
func (t *Terminal) IsRunning() bool {
	return t.running
}

// Close restores the terminal to its original state.
func (t *Terminal) Close() error {
	if !t.running {
		return nil
	}
	t.running = false
	t.term.ExitAltScreen()
	t.term.ShowCursor()
	return t.term.Shutdown(context.Background())
}

func readBGRA(pixels []byte, x, y, width int) color.RGBA {
	i := (y*width + x) * 4
	if i < 0 || i+4 > len(pixels) {
		return color.RGBA{}
	}
	return color.RGBA{B: pixels[i], G: pixels[i+1], R: pixels[i+2], A: pixels[i+3]}
}

func rgbaOrNil(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}
