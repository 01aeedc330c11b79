package gl

import (
	"github.com/taigrr/rasteriser/pkg/color"
	"github.com/taigrr/rasteriser/pkg/math3d"
	"github.com/taigrr/rasteriser/pkg/mesh"
	"github.com/taigrr/rasteriser/pkg/raster"
)

// DrawWireframe projects every face's edges through view and projection and
// draws them as lines, ignoring depth: an x-ray view of the mesh. It shares
// the viewport transform with Draw but bypasses the shader/fragment
// pipeline entirely, so it never touches the z-buffer.
func (g *GL) DrawWireframe(m *mesh.Mesh, view, projection math3d.Mat4, c uint32) {
	viewport := ViewportMatrix(g.Width, g.Height)
	mvp := projection.Mul(view)

	toScreen := func(p math3d.Vec3) raster.Point {
		clip := mvp.MulVec4(math3d.V4FromV3(p, 1))
		ndc := clip.PerspectiveDivide()
		ss := viewport.MulVec3(ndc)
		return raster.Point{X: int(roundHalfAwayFromZero(ss.X)), Y: int(roundHalfAwayFromZero(ss.Y))}
	}

	drawEdge := func(a, b raster.Point) {
		line := raster.NewLine(a.X, a.Y, b.X, b.Y)
		for {
			p, ok := line.Next()
			if !ok {
				break
			}
			g.setPixel(p.X, p.Y, c)
		}
	}

	for i := range m.TriangleCount() {
		f := m.Face(i)
		p0 := toScreen(f[0].Position)
		p1 := toScreen(f[1].Position)
		p2 := toScreen(f[2].Position)
		drawEdge(p0, p1)
		drawEdge(p1, p2)
		drawEdge(p2, p0)
	}
}

func (g *GL) setPixel(x, y int, c uint32) {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return
	}
	g.fb[y*g.Width+x] = c
}

// RGB packs an opaque color for wireframe/clear calls.
func RGB(r, g, b uint8) uint32 {
	return color.BGRA(r, g, b, 255)
}
