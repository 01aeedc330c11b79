package gl

import (
	"math"
	"testing"

	"github.com/taigrr/rasteriser/pkg/color"
	"github.com/taigrr/rasteriser/pkg/display"
	"github.com/taigrr/rasteriser/pkg/math3d"
	"github.com/taigrr/rasteriser/pkg/mesh"
	"github.com/taigrr/rasteriser/pkg/shader"
	"github.com/taigrr/rasteriser/pkg/texture"
)

func flatMesh(z float64) *mesh.Mesh {
	m := mesh.NewMesh("quad")
	m.Vertices = []mesh.Vertex{
		{Position: math3d.V3(-0.5, -0.5, z), Normal: math3d.V3(0, 0, 1), UV: math3d.V2(0, 0)},
		{Position: math3d.V3(0.5, -0.5, z), Normal: math3d.V3(0, 0, 1), UV: math3d.V2(1, 0)},
		{Position: math3d.V3(0.5, 0.5, z), Normal: math3d.V3(0, 0, 1), UV: math3d.V2(1, 1)},
		{Position: math3d.V3(-0.5, 0.5, z), Normal: math3d.V3(0, 0, 1), UV: math3d.V2(0, 1)},
	}
	m.Faces = []mesh.Face{{V: [3]int{0, 1, 2}}, {V: [3]int{0, 2, 3}}}
	m.RecomputeBounds()
	return m
}

func whiteShader(shader.PSInput) math3d.Vec4 {
	return math3d.V4(1, 1, 1, 1)
}

func TestNewFramebufferAndZBufferMatchDimensions(t *testing.T) {
	g := New(16, 12)
	if len(g.Pixels()) != 16*12 {
		t.Fatalf("framebuffer has %d pixels, want %d", len(g.Pixels()), 16*12)
	}
	if len(g.zb) != 16*12 {
		t.Fatalf("z-buffer has %d entries, want %d", len(g.zb), 16*12)
	}
	for _, z := range g.zb {
		if z != zSentinel {
			t.Fatalf("z-buffer must start at the sentinel depth, got %v", z)
		}
	}
}

func TestDrawFillsCoveredPixels(t *testing.T) {
	g := New(32, 32)
	m := flatMesh(0.5)
	vsInput := shader.VSInput{View: math3d.Identity(), Projection: math3d.Identity()}
	err := g.Draw(m, shader.IdentityVertexShader, vsInput, whiteShader, shader.PSInput{})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}

	center := 16*32 + 16
	r, gc, b, a := color.UnpackBGRA(g.Pixels()[center])
	if r != 255 || gc != 255 || b != 255 || a != 255 {
		t.Fatalf("center pixel = (%d,%d,%d,%d), want opaque white", r, gc, b, a)
	}

	corner := g.Pixels()[0]
	if corner != 0 {
		t.Fatalf("corner outside the quad should stay cleared, got %x", corner)
	}
}

func TestDrawRespectsDepthOrdering(t *testing.T) {
	g := New(8, 8)
	vsInput := shader.VSInput{View: math3d.Identity(), Projection: math3d.Identity()}

	far := flatMesh(0.1)
	near := flatMesh(0.9)

	redShader := func(shader.PSInput) math3d.Vec4 { return math3d.V4(1, 0, 0, 1) }
	blueShader := func(shader.PSInput) math3d.Vec4 { return math3d.V4(0, 0, 1, 1) }

	if err := g.Draw(far, shader.IdentityVertexShader, vsInput, redShader, shader.PSInput{}); err != nil {
		t.Fatalf("Draw far: %v", err)
	}
	if err := g.Draw(near, shader.IdentityVertexShader, vsInput, blueShader, shader.PSInput{}); err != nil {
		t.Fatalf("Draw near: %v", err)
	}

	center := 4*8 + 4
	r, _, b, _ := color.UnpackBGRA(g.Pixels()[center])
	if b != 255 || r != 0 {
		t.Fatalf("nearer (greater z) fragment should win the depth test, got r=%d b=%d", r, b)
	}
}

func TestDrawSkipsDegenerateTriangles(t *testing.T) {
	g := New(8, 8)
	m := mesh.NewMesh("degenerate")
	m.Vertices = []mesh.Vertex{
		{Position: math3d.V3(0, 0, 0.5), Normal: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(0, 0, 0.5), Normal: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(0, 0, 0.5), Normal: math3d.V3(0, 0, 1)},
	}
	m.Faces = []mesh.Face{{V: [3]int{0, 1, 2}}}
	vsInput := shader.VSInput{View: math3d.Identity(), Projection: math3d.Identity()}

	if err := g.Draw(m, shader.IdentityVertexShader, vsInput, whiteShader, shader.PSInput{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	for _, p := range g.Pixels() {
		if p != 0 {
			t.Fatalf("a degenerate triangle must not write any fragment, got %x", p)
		}
	}
}

func TestDrawStatsCountsDegenerateTriangles(t *testing.T) {
	g := New(8, 8)
	m := mesh.NewMesh("mixed")
	m.Vertices = []mesh.Vertex{
		{Position: math3d.V3(-0.5, -0.5, 0.5), Normal: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(0.5, -0.5, 0.5), Normal: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(0.5, 0.5, 0.5), Normal: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(0, 0, 0.5), Normal: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(0, 0, 0.5), Normal: math3d.V3(0, 0, 1)},
		{Position: math3d.V3(0, 0, 0.5), Normal: math3d.V3(0, 0, 1)},
	}
	m.Faces = []mesh.Face{{V: [3]int{0, 1, 2}}, {V: [3]int{3, 4, 5}}}
	vsInput := shader.VSInput{View: math3d.Identity(), Projection: math3d.Identity()}

	if err := g.Draw(m, shader.IdentityVertexShader, vsInput, whiteShader, shader.PSInput{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	stats := g.LastDrawStats()
	if stats.TrianglesSubmitted != 2 {
		t.Fatalf("TrianglesSubmitted = %d, want 2", stats.TrianglesSubmitted)
	}
	if stats.TrianglesDegenerate != 1 {
		t.Fatalf("TrianglesDegenerate = %d, want 1", stats.TrianglesDegenerate)
	}
	if stats.GoroutinesDispatched != 2 {
		t.Fatalf("GoroutinesDispatched = %d, want 2", stats.GoroutinesDispatched)
	}
}

// A two-triangle quad covering the whole screen, textured with a 2x2
// checker: each framebuffer corner lands exactly on a quad vertex, so its
// interpolated texcoord is exact and nearest-neighbor sampling must return
// that corner's texel.
func TestDrawTexturedQuadCorners(t *testing.T) {
	g := New(16, 16)
	m := mesh.NewMesh("screen")
	n := math3d.V3(0, 0, 1)
	m.Vertices = []mesh.Vertex{
		{Position: math3d.V3(-1, -1, 0), Normal: n, UV: math3d.V2(0, 0)},
		{Position: math3d.V3(1, -1, 0), Normal: n, UV: math3d.V2(1, 0)},
		{Position: math3d.V3(1, 1, 0), Normal: n, UV: math3d.V2(1, 1)},
		{Position: math3d.V3(-1, 1, 0), Normal: n, UV: math3d.V2(0, 1)},
	}
	m.Faces = []mesh.Face{{V: [3]int{0, 1, 2}}, {V: [3]int{0, 2, 3}}}
	m.RecomputeBounds()

	c1 := texture.Color{R: 255, A: 255}
	c2 := texture.Color{B: 255, A: 255}
	tex := texture.NewChecker(2, 2, 1, c1, c2)

	vsInput := shader.VSInput{View: math3d.Identity(), Projection: math3d.Identity()}
	psInput := shader.PSInput{Textures: []*texture.Texture{tex}}
	if err := g.Draw(m, shader.IdentityVertexShader, vsInput, shader.DiffusePixelShader, psInput); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	checks := []struct {
		x, y int
		want texture.Color
	}{
		{0, 0, c1},
		{15, 0, c2},
		{0, 15, c2},
		{15, 15, c1},
	}
	for _, c := range checks {
		r, gc, b, a := color.UnpackBGRA(g.Pixels()[c.y*16+c.x])
		got := texture.Color{R: r, G: gc, B: b, A: a}
		if got != c.want {
			t.Fatalf("pixel (%d,%d) = %+v, want %+v", c.x, c.y, got, c.want)
		}
	}
}

// Fragments whose screen coordinates fall outside the framebuffer (from
// unclipped geometry) are dropped rather than written out of bounds.
func TestDrawSkipsOffscreenFragments(t *testing.T) {
	g := New(8, 8)
	m := mesh.NewMesh("oversized")
	n := math3d.V3(0, 0, 1)
	m.Vertices = []mesh.Vertex{
		{Position: math3d.V3(-3, -3, 0.5), Normal: n},
		{Position: math3d.V3(3, -3, 0.5), Normal: n},
		{Position: math3d.V3(0, 3, 0.5), Normal: n},
	}
	m.Faces = []mesh.Face{{V: [3]int{0, 1, 2}}}
	vsInput := shader.VSInput{View: math3d.Identity(), Projection: math3d.Identity()}

	if err := g.Draw(m, shader.IdentityVertexShader, vsInput, whiteShader, shader.PSInput{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	center := g.Pixels()[4*8+4]
	if center == 0 {
		t.Fatalf("on-screen interior of the oversized triangle should still be filled")
	}
}

func TestFrustumSphereOutside(t *testing.T) {
	view := ViewMatrix(math3d.V3(0, 0, 5), math3d.Zero3(), math3d.Up())
	frustum := NewFrustumFromMatrix(ProjectionMatrix(math.Pi / 2).Mul(view))

	if frustum.SphereOutside(math3d.Zero3(), 1) {
		t.Fatalf("sphere at the look-at target must not be culled")
	}
	if !frustum.SphereOutside(math3d.V3(100, 0, 0), 1) {
		t.Fatalf("sphere far off to the side must be culled")
	}
	if !frustum.SphereOutside(math3d.V3(0, 0, 200), 1) {
		t.Fatalf("sphere behind the camera must be culled")
	}
}

func TestDrawCulledSkipsOffscreenFaces(t *testing.T) {
	g := New(8, 8)
	m := mesh.NewMesh("pair")
	n := math3d.V3(0, 0, 1)
	m.Vertices = []mesh.Vertex{
		{Position: math3d.V3(-0.5, -0.5, 0), Normal: n},
		{Position: math3d.V3(0.5, -0.5, 0), Normal: n},
		{Position: math3d.V3(0, 0.5, 0), Normal: n},
		{Position: math3d.V3(99.5, -0.5, 0), Normal: n},
		{Position: math3d.V3(100.5, -0.5, 0), Normal: n},
		{Position: math3d.V3(100, 0.5, 0), Normal: n},
	}
	m.Faces = []mesh.Face{{V: [3]int{0, 1, 2}}, {V: [3]int{3, 4, 5}}}
	m.RecomputeBounds()

	view := ViewMatrix(math3d.V3(0, 0, 5), math3d.Zero3(), math3d.Up())
	projection := ProjectionMatrix(math.Pi / 2)
	frustum := NewFrustumFromMatrix(projection.Mul(view))

	vsInput := shader.VSInput{View: view, Projection: projection}
	stats, err := g.DrawCulled(m, shader.SimpleVertexShader, vsInput, whiteShader, shader.PSInput{}, frustum)
	if err != nil {
		t.Fatalf("DrawCulled: %v", err)
	}
	if stats.Total != 2 || stats.Culled != 1 || stats.Drawn != 1 {
		t.Fatalf("cull stats = %+v, want 2 total / 1 culled / 1 drawn", stats)
	}

	filled := 0
	for _, p := range g.Pixels() {
		if p != 0 {
			filled++
		}
	}
	if filled == 0 {
		t.Fatalf("the on-screen face should still rasterize")
	}
}

func TestViewMatrixMapsCameraToOrigin(t *testing.T) {
	v := ViewMatrix(math3d.V3(0, 0, 5), math3d.V3(0, 0, 0), math3d.Up())
	origin := v.MulVec3(math3d.V3(0, 0, 5))
	if origin.Len() > 1e-9 {
		t.Fatalf("camera position should map to the view-space origin, got %+v", origin)
	}
}

func TestProjectionMatrixUsesFixedClipPlanes(t *testing.T) {
	p := ProjectionMatrix(math.Pi / 2)
	want := (ClipNear + ClipFar) / (ClipNear - ClipFar)
	if p[10] != want {
		t.Fatalf("projection[2][2] = %v, want %v", p[10], want)
	}
	if p[11] != -1 {
		t.Fatalf("projection[2][3] = %v, want -1", p[11])
	}
}

func TestScreenToImageSpaceMapsEdgeMidpoints(t *testing.T) {
	x, y := ScreenToImageSpace(-1, 0, 65, 65)
	if x != 0 || y != 32 {
		t.Fatalf("(-1,0) -> (%d,%d), want (0,32)", x, y)
	}
	x, y = ScreenToImageSpace(0, 1, 65, 65)
	if x != 32 || y != 64 {
		t.Fatalf("(0,1) -> (%d,%d), want (32,64)", x, y)
	}
}

func TestScreenToImageSpaceGridStaysInBounds(t *testing.T) {
	const n = 64
	for i := range n {
		sx := -1 + 2*float64(i)/float64(n-1)
		for j := range n {
			sy := -1 + 2*float64(j)/float64(n-1)
			x, y := ScreenToImageSpace(sx, sy, n, n)
			if x < 0 || x > n-1 || y < 0 || y > n-1 {
				t.Fatalf("ScreenToImageSpace(%v,%v) = (%d,%d), out of [0,%d]", sx, sy, x, y, n-1)
			}
		}
	}
}

func TestScreenToImageSpacePanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range coordinate")
		}
	}()
	ScreenToImageSpace(1.5, 0, 64, 64)
}

func TestPresentBlitsAndBlocksUntilStopped(t *testing.T) {
	g := New(4, 4)
	h := display.NewHeadless()
	h.Close()
	if err := g.Present(h); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if h.FrameCount() != 1 {
		t.Fatalf("FrameCount = %d, want 1", h.FrameCount())
	}
}

func TestViewportMatrixMapsNDCCornersToScreen(t *testing.T) {
	vp := ViewportMatrix(101, 51)
	bottomLeft := vp.MulVec3(math3d.V3(-1, -1, 0))
	if math.Abs(bottomLeft.X) > 1e-9 || math.Abs(bottomLeft.Y) > 1e-9 {
		t.Fatalf("NDC (-1,-1) should map to screen origin, got %+v", bottomLeft)
	}
	topRight := vp.MulVec3(math3d.V3(1, 1, 0))
	if math.Abs(topRight.X-100) > 1e-9 || math.Abs(topRight.Y-50) > 1e-9 {
		t.Fatalf("NDC (1,1) should map to (width-1,height-1), got %+v", topRight)
	}
}
