// Package gl is the rasterization core: the framebuffer/z-buffer pair, the
// view/projection/viewport matrix builders, and the Draw entry point that
// dispatches one goroutine per triangle and merges fragments through a
// single-threaded depth-tested pass.
package gl

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"sync"
	"time"

	"github.com/taigrr/rasteriser/pkg/color"
	"github.com/taigrr/rasteriser/pkg/display"
	"github.com/taigrr/rasteriser/pkg/math3d"
	"github.com/taigrr/rasteriser/pkg/mesh"
	"github.com/taigrr/rasteriser/pkg/raster"
	"github.com/taigrr/rasteriser/pkg/shader"
)

// ClipNear and ClipFar bound the canonical view volume. Fixed per the
// component design rather than taken as Draw parameters.
const (
	ClipNear = 0.0
	ClipFar  = 99.0
)

// zSentinel is the z-buffer's initial value: far enough behind any
// reachable depth that the very first fragment at a pixel always passes the
// `z >= zbuffer[i]` test, and never collides with a legitimate depth.
const zSentinel = -1e8

// ErrDrawAborted is returned by Draw when a per-triangle worker panicked.
// The panic is recovered inside the worker, so Draw never deadlocks on a
// result that will never arrive. The other triangles' fragments are still
// merged, so the framebuffer is left partially rendered.
var ErrDrawAborted = errors.New("gl: draw aborted, a triangle worker panicked")

// GL owns the framebuffer and z-buffer for one render target.
type GL struct {
	Width, Height int
	fb            []uint32
	zb            []float64
	lastStats     DrawStats
}

// DrawStats summarizes the most recent Draw call, for HUDs and diagnostics.
// It reports no more than what Draw already computes in the course of
// rasterizing; nothing here changes Draw's output.
type DrawStats struct {
	TrianglesSubmitted   int
	TrianglesDegenerate  int
	GoroutinesDispatched int
}

// LastDrawStats returns the DrawStats recorded by the most recent call to
// Draw or DrawCulled. The zero value before any draw reports all zeros.
func (g *GL) LastDrawStats() DrawStats {
	return g.lastStats
}

// New creates a GL with a cleared framebuffer and a z-buffer initialized to
// the sentinel depth.
func New(width, height int) *GL {
	zb := make([]float64, width*height)
	for i := range zb {
		zb[i] = zSentinel
	}
	return &GL{
		Width:  width,
		Height: height,
		fb:     make([]uint32, width*height),
		zb:     zb,
	}
}

// Clear resets the framebuffer to the given background color and the
// z-buffer to the sentinel depth, for drawing a new frame.
func (g *GL) Clear(background uint32) {
	for i := range g.fb {
		g.fb[i] = background
		g.zb[i] = zSentinel
	}
}

// ViewMatrix builds the world-to-view transform from a camera position,
// look-at target and up vector.
func ViewMatrix(camera, target, up math3d.Vec3) math3d.Mat4 {
	zAxis := camera.Sub(target).Normalize()
	xAxis := up.Cross(zAxis).Normalize()
	yAxis := zAxis.Cross(xAxis)

	return math3d.Mat4{
		xAxis.X, yAxis.X, zAxis.X, 0,
		xAxis.Y, yAxis.Y, zAxis.Y, 0,
		xAxis.Z, yAxis.Z, zAxis.Z, 0,
		-xAxis.Dot(camera), -yAxis.Dot(camera), -zAxis.Dot(camera), 1,
	}
}

// ProjectionMatrix builds a perspective projection from a vertical
// field-of-view (radians), using a fixed 1:1 aspect ratio and the package's
// fixed near/far clip planes.
func ProjectionMatrix(fovy float64) math3d.Mat4 {
	d := 1.0 / tanHalf(fovy)
	const aspectRatio = 1.0

	m := math3d.Identity()
	m[0] = d / aspectRatio
	m[5] = d
	m[10] = (ClipNear + ClipFar) / (ClipNear - ClipFar)
	m[11] = -1
	m[14] = 2 * ClipNear * ClipFar / (ClipNear - ClipFar)
	return m
}

// ViewportMatrix builds the NDC-to-screen transform for a window of the
// given dimensions.
func ViewportMatrix(width, height int) math3d.Mat4 {
	w, h := float64(width), float64(height)
	m := math3d.Identity()
	m[0] = (w - 1) / 2
	m[5] = (h - 1) / 2
	m[10] = (ClipFar - ClipNear) / 2
	m[12] = (w - 1) / 2
	m[13] = (h - 1) / 2
	m[14] = (ClipNear + ClipFar) / 2
	return m
}

// faceResult is what a single triangle worker reports back: parallel slices
// of framebuffer index, depth and packed color, one entry per fragment that
// survived the interior test.
type faceResult struct {
	index      []int
	depth      []float64
	color      []uint32
	degenerate bool
	err        error
}

// Draw rasterizes every face of m through the given vertex/pixel shader
// pair, one goroutine per triangle, merging into the framebuffer and
// z-buffer with the `depth >= current` rule so later draws blend correctly
// with earlier ones in the same frame. vsInput and psInput carry the
// uniform-like fields (camera, matrices, light, textures); their
// per-vertex/per-fragment fields are overwritten per triangle.
func (g *GL) Draw(m *mesh.Mesh, vs shader.VertexShader, vsInput shader.VSInput, ps shader.PixelShader, psInput shader.PSInput) error {
	viewport := ViewportMatrix(g.Width, g.Height)

	results := make(chan faceResult, m.TriangleCount())
	var wg sync.WaitGroup

	for i := range m.TriangleCount() {
		face := m.Face(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- rasterTriangle(face, vs, vsInput, ps, psInput, viewport, g.Width, g.Height)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	stats := DrawStats{TrianglesSubmitted: m.TriangleCount(), GoroutinesDispatched: m.TriangleCount()}

	var firstErr error
	for res := range results {
		if res.degenerate {
			stats.TrianglesDegenerate++
		}
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		for i, idx := range res.index {
			if res.depth[i] >= g.zb[idx] {
				g.zb[idx] = res.depth[i]
				g.fb[idx] = res.color[i]
			}
		}
	}
	g.lastStats = stats
	if firstErr != nil {
		return fmt.Errorf("%w: %v", ErrDrawAborted, firstErr)
	}
	return nil
}

// CullStats reports how many faces a DrawCulled call skipped.
type CullStats struct {
	Total  int
	Culled int
	Drawn  int
}

// DrawCulled is Draw with a frustum pre-pass: faces whose bounding sphere
// falls entirely outside frustum never reach a worker goroutine.
func (g *GL) DrawCulled(m *mesh.Mesh, vs shader.VertexShader, vsInput shader.VSInput, ps shader.PixelShader, psInput shader.PSInput, frustum Frustum) (CullStats, error) {
	visible := mesh.NewMesh(m.Name)
	visible.Vertices = m.Vertices

	stats := CullStats{Total: m.TriangleCount()}
	for i := range m.TriangleCount() {
		f := m.Face(i)
		center, radius := boundingSphere(f)
		if frustum.SphereOutside(center, radius) {
			stats.Culled++
			continue
		}
		visible.Faces = append(visible.Faces, m.Faces[i])
		stats.Drawn++
	}

	return stats, g.Draw(visible, vs, vsInput, ps, psInput)
}

func boundingSphere(tri [3]mesh.Vertex) (center math3d.Vec3, radius float64) {
	center = tri[0].Position.Add(tri[1].Position).Add(tri[2].Position).Scale(1.0 / 3.0)
	for _, v := range tri {
		if d := v.Position.Distance(center); d > radius {
			radius = d
		}
	}
	return center, radius
}

// rasterTriangle transforms one triangle's three vertices, rasterizes it
// into screen-space fragments and shades each surviving fragment. It
// recovers its own panics so a single malformed triangle can't deadlock
// Draw's result channel.
func rasterTriangle(face [3]mesh.Vertex, vs shader.VertexShader, vsInput shader.VSInput, ps shader.PixelShader, psInput shader.PSInput, viewport math3d.Mat4, fbWidth, fbHeight int) (result faceResult) {
	defer func() {
		if r := recover(); r != nil {
			result = faceResult{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	var screen [3]math3d.Vec3
	var pixels [3]raster.Point
	var normals [3]math3d.Vec3
	var texcoords [3]math3d.Vec2

	for i, v := range face {
		in := vsInput
		in.Position = math3d.V4FromV3(v.Position, 1)
		in.Normal = math3d.V4FromV3(v.Normal, 0)
		in.Texcoord = v.UV

		out := vs(in)
		ndc := out.Position.PerspectiveDivide()
		ss := viewport.MulVec3(ndc)
		ss.X = roundHalfAwayFromZero(ss.X)
		ss.Y = roundHalfAwayFromZero(ss.Y)

		screen[i] = ss
		pixels[i] = raster.Point{X: int(ss.X), Y: int(ss.Y)}
		normals[i] = out.Normal.Vec3()
		texcoords[i] = out.Texcoord
	}

	if raster.IsDegenerate(
		math3d.V2(screen[0].X, screen[0].Y),
		math3d.V2(screen[1].X, screen[1].Y),
		math3d.V2(screen[2].X, screen[2].Y),
	) {
		result.degenerate = true
		return result
	}

	gen := raster.NewTriangle(pixels)
	for {
		row, ok := gen.Next()
		if !ok {
			break
		}
		for _, p := range row {
			// Geometry straddling the view volume is not clipped (a
			// stated non-goal), so its bounding box can extend past the
			// framebuffer; those pixels have no slot to land in.
			if p.X < 0 || p.X >= fbWidth || p.Y < 0 || p.Y >= fbHeight {
				continue
			}
			l0, l1, l2, ok := raster.Barycentric(
				math3d.V2(float64(p.X), float64(p.Y)),
				math3d.V2(screen[0].X, screen[0].Y),
				math3d.V2(screen[1].X, screen[1].Y),
				math3d.V2(screen[2].X, screen[2].Y),
			)
			if !ok {
				continue
			}

			depth := screen[0].Z*l0 + screen[1].Z*l1 + screen[2].Z*l2
			position := lerp3(screen, l0, l1, l2)
			normal := lerp3(normals, l0, l1, l2)
			texcoord := math3d.V2(
				texcoords[0].X*l0+texcoords[1].X*l1+texcoords[2].X*l2,
				texcoords[0].Y*l0+texcoords[1].Y*l1+texcoords[2].Y*l2,
			)

			fragIn := psInput
			fragIn.Position = position
			fragIn.Normal = normal
			fragIn.Texcoord = texcoord

			c := ps(fragIn)

			result.index = append(result.index, p.Y*fbWidth+p.X)
			result.depth = append(result.depth, depth)
			result.color = append(result.color, color.FromVec4(c))
		}
	}
	return result
}

func lerp3(v [3]math3d.Vec3, l0, l1, l2 float64) math3d.Vec3 {
	return math3d.V3(
		v[0].X*l0+v[1].X*l1+v[2].X*l2,
		v[0].Y*l0+v[1].Y*l1+v[2].Y*l2,
		v[0].Z*l0+v[1].Z*l1+v[2].Z*l2,
	)
}

// ToImage converts the framebuffer into a standard library image, ready for
// encoding with any image/... package.
func (g *GL) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	copy(img.Pix, color.ToRGBABytes(g.fb))
	return img
}

// SaveFramebufferAsImage writes the current framebuffer to path as a PNG.
func (g *GL) SaveFramebufferAsImage(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gl: create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, g.ToImage()); err != nil {
		return fmt.Errorf("gl: encode framebuffer png: %w", err)
	}
	return nil
}

// Pixels returns the framebuffer's packed {A,R,G,B} words, for a display
// backend to blit directly.
func (g *GL) Pixels() []uint32 {
	return g.fb
}

// Present blits the current framebuffer to d, expanding the packed
// {A,R,G,B} words to bytes via little-endian expansion, then blocks for as
// long as d reports itself still running: the frame is handed over once and
// the display's event loop runs until the user closes it.
func (g *GL) Present(d display.Display) error {
	if err := d.UpdateFrame(color.ToBytesLE(g.fb)); err != nil {
		return fmt.Errorf("gl: present: %w", err)
	}
	for d.IsRunning() {
		time.Sleep(time.Second)
	}
	return nil
}

// ScreenToImageSpace maps a normalized device coordinate (x, y), each in
// [-1, 1], to pixel coordinates in an image of width W and height H, using
// the same per-axis affine map as ViewportMatrix's X/Y rows, rounded to the
// nearest pixel. x and y outside [-1, 1] are a programmer error and panic
// rather than clamp.
func ScreenToImageSpace(x, y float64, width, height int) (int, int) {
	if x < -1 || x > 1 || y < -1 || y > 1 {
		panic(fmt.Sprintf("gl: screen coordinate (%v, %v) out of [-1,1]", x, y))
	}
	px := roundHalfAwayFromZero(x*(float64(width-1)/2) + float64(width-1)/2)
	py := roundHalfAwayFromZero(y*(float64(height-1)/2) + float64(height-1)/2)
	return int(px), int(py)
}

func tanHalf(fovy float64) float64 {
	return math.Tan(fovy / 2)
}

// roundHalfAwayFromZero is the screen-space vertex rounding rule. Rounding
// is part of the rendered output: changing it changes edge coverage.
func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v + 0.5)
	}
	return math.Floor(v + 0.5)
}
