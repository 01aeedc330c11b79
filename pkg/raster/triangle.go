package raster

import "github.com/taigrr/rasteriser/pkg/math3d"

// epsilon is the bounding-box interior tolerance from the component design.
const epsilon = 0.01

// epsilonSquare is the edge-distance fallback tolerance.
const epsilonSquare = epsilon * epsilon

// degenerateAreaThreshold is the minimum |edgeFn| (twice the signed area) for
// a screen-space triangle to be considered non-degenerate when computing barycentric
// interpolation weights (distinct from the interior test's own epsilon).
const degenerateAreaThreshold = 1e-6

// BoundingBox returns the inclusive integer bounding box of three points.
func BoundingBox(tri [3]Point) (minX, minY, maxX, maxY int) {
	minX, maxX = tri[0].X, tri[0].X
	minY, maxY = tri[0].Y, tri[0].Y
	for _, p := range tri[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return
}

func inBoundingBox(x1, y1, x2, y2, x3, y3 float64, x, y float64) bool {
	minX := min3(x1, x2, x3) - epsilon
	maxX := max3(x1, x2, x3) + epsilon
	minY := min3(y1, y2, y3) - epsilon
	maxY := max3(y1, y2, y3) + epsilon
	return !(x < minX || maxX < x || y < minY || maxY < y)
}

// crossProductBarycentric is the interior test's own cross-product
// formulation (distinct from Barycentric below, which computes weights for
// attribute interpolation). Returns false when the triangle is
// degenerate (|u.z| < 1) or p falls outside.
func crossProductBarycentric(p Point, tri [3]Point) bool {
	p0x, p0y := float64(tri[0].X), float64(tri[0].Y)
	p1x, p1y := float64(tri[1].X), float64(tri[1].Y)
	p2x, p2y := float64(tri[2].X), float64(tri[2].Y)
	px, py := float64(p.X), float64(p.Y)

	c0 := math3d.V3(p2x-p0x, p1x-p0x, p0x-px)
	c1 := math3d.V3(p2y-p0y, p1y-p0y, p0y-py)
	u := c0.Cross(c1)

	if abs64(u.Z) < 1 {
		return false
	}

	rx := 1 - (u.X+u.Y)/u.Z
	ry := u.Y / u.Z
	rz := u.X / u.Z
	return rx > 0 && ry > 0 && rz > 0
}

func distanceSquarePointToSegment(x1, y1, x2, y2, x, y float64) float64 {
	segLenSq := (x2-x1)*(x2-x1) + (y2-y1)*(y2-y1)
	if segLenSq == 0 {
		return (x-x1)*(x-x1) + (y-y1)*(y-y1)
	}
	t := ((x-x1)*(x2-x1) + (y-y1)*(y2-y1)) / segLenSq
	switch {
	case t < 0:
		return (x-x1)*(x-x1) + (y-y1)*(y-y1)
	case t <= 1:
		pToP1Sq := (x1-x)*(x1-x) + (y1-y)*(y1-y)
		return pToP1Sq - t*t*segLenSq
	default:
		return (x-x2)*(x-x2) + (y-y2)*(y-y2)
	}
}

// PointInTriangle is the two-tier, numerically tolerant interior test from
// the component design: a bounding-box reject, the cross-product
// barycentric test, and an edge-distance fallback that closes gaps on
// shared edges.
func PointInTriangle(p Point, tri [3]Point) bool {
	x1, y1 := float64(tri[0].X), float64(tri[0].Y)
	x2, y2 := float64(tri[1].X), float64(tri[1].Y)
	x3, y3 := float64(tri[2].X), float64(tri[2].Y)
	x, y := float64(p.X), float64(p.Y)

	if !inBoundingBox(x1, y1, x2, y2, x3, y3, x, y) {
		return false
	}
	if crossProductBarycentric(p, tri) {
		return true
	}
	if distanceSquarePointToSegment(x1, y1, x2, y2, x, y) <= epsilonSquare {
		return true
	}
	if distanceSquarePointToSegment(x2, y2, x3, y3, x, y) <= epsilonSquare {
		return true
	}
	if distanceSquarePointToSegment(x3, y3, x1, y1, x, y) <= epsilonSquare {
		return true
	}
	return false
}

// Barycentric computes the 2D barycentric weights of p with respect to
// triangle (a,b,c) by the standard triangle-area ratio, for attribute
// interpolation; distinct from the interior test above. ok is false when
// the triangle is degenerate in screen space (zero or near-zero area), in
// which case the pixel must be skipped rather than interpolated.
func Barycentric(p, a, b, c math3d.Vec2) (l0, l1, l2 float64, ok bool) {
	area := edgeFn(a, b, c)
	if abs64(area) < degenerateAreaThreshold {
		return 0, 0, 0, false
	}
	l0 = edgeFn(b, c, p) / area
	l1 = edgeFn(c, a, p) / area
	l2 = edgeFn(a, b, p) / area
	return l0, l1, l2, true
}

// edgeFn is twice the signed area of triangle (a,b,c).
func edgeFn(a, b, c math3d.Vec2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// IsDegenerate reports whether a, b, c enclose zero or near-zero screen-space
// area, the same test Barycentric uses internally to decide whether a
// triangle can be interpolated at all.
func IsDegenerate(a, b, c math3d.Vec2) bool {
	return abs64(edgeFn(a, b, c)) < degenerateAreaThreshold
}

// Triangle is a restartable, lazy per-scanline interior-point generator: each
// call to Next yields the ordered list of interior points for the next row
// in the triangle's bounding box, produced exactly once per row.
type Triangle struct {
	tri         [3]Point
	minX, maxX  int
	maxY        int
	y           int
	done        bool
}

// NewTriangle constructs a scanline generator over tri's bounding box.
func NewTriangle(tri [3]Point) *Triangle {
	minX, minY, maxX, maxY := BoundingBox(tri)
	return &Triangle{
		tri:  tri,
		minX: minX,
		maxX: maxX,
		maxY: maxY,
		y:    minY,
	}
}

// Next yields the next scanline's interior points, in ascending x order.
func (t *Triangle) Next() ([]Point, bool) {
	if t.done || t.y > t.maxY {
		t.done = true
		return nil, false
	}
	row := t.y
	t.y++

	line := NewLine(t.minX, row, t.maxX, row)
	var pts []Point
	for {
		p, ok := line.Next()
		if !ok {
			break
		}
		if PointInTriangle(p, t.tri) {
			pts = append(pts, p)
		}
	}
	return pts, true
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
