// Package raster implements the pull-based geometry generators the
// rasterization pipeline traverses: an integer Bresenham line sequence and
// a triangle interior-point sequence built on top of it.
package raster

// Point is an integer 2D pixel coordinate.
type Point struct {
	X, Y int
}

// Line is a restartable, lazy Bresenham line generator. Constructing a new
// Line with the same endpoints always yields an identical sequence; it holds
// no heap allocation beyond the struct itself.
type Line struct {
	steep                bool
	d0, d1               int
	stepMajor, stepMinor int
	major, minor         int
	e                    int
	remaining            int
	started              bool
}

// NewLine constructs a line generator from (x0,y0) to (x1,y1) inclusive.
func NewLine(x0, y0, x1, y1 int) *Line {
	d0 := abs(x1 - x0)
	d1 := abs(y1 - y0)
	stepX := sign(x1 - x0)
	stepY := sign(y1 - y0)

	steep := d1 > d0
	major, minor := x0, y0
	stepMajor, stepMinor := stepX, stepY
	if steep {
		major, minor = y0, x0
		stepMajor, stepMinor = stepY, stepX
		d0, d1 = d1, d0
	}

	return &Line{
		steep:     steep,
		d0:        d0,
		d1:        d1,
		stepMajor: stepMajor,
		stepMinor: stepMinor,
		major:     major,
		minor:     minor,
		e:         2*d1 - d0,
		remaining: d0 + 1,
	}
}

// Next yields the next point in the sequence, or ok=false once exhausted.
func (l *Line) Next() (Point, bool) {
	if l.remaining <= 0 {
		return Point{}, false
	}
	if l.started {
		l.major += l.stepMajor
		for l.e >= 0 {
			l.minor += l.stepMinor
			l.e -= 2 * l.d0
		}
		l.e += 2 * l.d1
	}
	l.started = true
	l.remaining--

	if l.steep {
		return Point{X: l.minor, Y: l.major}, true
	}
	return Point{X: l.major, Y: l.minor}, true
}

// Points drains the generator into a slice. Convenience for callers that
// don't need the lazy pull interface (e.g. debug wireframe drawing).
func (l *Line) Points() []Point {
	pts := make([]Point, 0, l.remaining)
	for {
		p, ok := l.Next()
		if !ok {
			break
		}
		pts = append(pts, p)
	}
	return pts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
