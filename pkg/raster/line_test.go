package raster

import "testing"

func TestLineBoundaryEndpoints(t *testing.T) {
	cases := [][4]int{
		{0, 0, 10, 10},
		{5, 5, 0, 0},
		{0, 0, 0, 5},
		{3, 8, 9, 1},
	}
	for _, c := range cases {
		x0, y0, x1, y1 := c[0], c[1], c[2], c[3]
		pts := NewLine(x0, y0, x1, y1).Points()
		if len(pts) == 0 {
			t.Fatalf("line(%v) produced no points", c)
		}
		if pts[0] != (Point{x0, y0}) {
			t.Fatalf("line(%v) first point = %v, want (%d,%d)", c, pts[0], x0, y0)
		}
		if pts[len(pts)-1] != (Point{x1, y1}) {
			t.Fatalf("line(%v) last point = %v, want (%d,%d)", c, pts[len(pts)-1], x1, y1)
		}
	}
}

func TestLineDeterminism(t *testing.T) {
	a := NewLine(3, 8, 9, 1).Points()
	b := NewLine(3, 8, 9, 1).Points()
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

// Line(0,0,10,10) yields exactly the 11 points on the 45-degree diagonal.
func TestLineDiagonalScenario(t *testing.T) {
	pts := NewLine(0, 0, 10, 10).Points()
	if len(pts) != 11 {
		t.Fatalf("got %d points, want 11", len(pts))
	}
	for i, p := range pts {
		if p != (Point{i, i}) {
			t.Fatalf("point %d = %v, want (%d,%d)", i, p, i, i)
		}
	}
}

func TestLineNonNegativeCoordinates(t *testing.T) {
	pts := NewLine(0, 0, 20, 7).Points()
	for _, p := range pts {
		if p.X < 0 || p.Y < 0 {
			t.Fatalf("negative coordinate in line from non-negative inputs: %v", p)
		}
	}
}
