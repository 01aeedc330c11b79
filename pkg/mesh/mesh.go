// Package mesh provides mesh loading and representation for the rasterizer:
// an indexed triangle mesh with position/normal/texcoord vertex attributes,
// a hand-written Wavefront OBJ loader, and a glTF/GLB loader.
package mesh

import (
	"errors"
	"slices"

	"github.com/taigrr/rasteriser/pkg/math3d"
)

// Sentinel errors for the mesh-loading contract: if normals or texcoords
// are missing, the renderer refuses the mesh rather than guessing at them.
var (
	ErrCouldNotLoadFile = errors.New("mesh: could not load file")
	ErrNoNormals        = errors.New("mesh: file has no normals")
	ErrNoTexCoords      = errors.New("mesh: file has no texture coordinates")
)

// Vertex holds the three attributes the rasterization core reads from a
// mesh: position, normal and texture coordinate.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Face is a triangle referencing three vertices by index into Mesh.Vertices.
type Face struct {
	V [3]int
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math3d.Vec3
}

func (b *AABB) extend(p math3d.Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Center returns the box's midpoint.
func (b AABB) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box's extent along each axis.
func (b AABB) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Mesh is an ordered sequence of triangle faces over a shared, indexed
// vertex pool. Immutable after loading except for the explicit Transform
// operation; safe to share read-only across the per-triangle workers a draw
// call spawns. HasNormals and HasUVs record whether the mesh carries
// usable normals and texture coordinates, maintained by the loaders so
// nothing ever rescans the vertex pool to find out.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Faces    []Face

	Bounds     AABB
	HasNormals bool
	HasUVs     bool
}

// NewMesh creates an empty named mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// RecomputeBounds refits Bounds to the current vertex positions.
func (m *Mesh) RecomputeBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = AABB{}
		return
	}
	b := AABB{Min: m.Vertices[0].Position, Max: m.Vertices[0].Position}
	for _, v := range m.Vertices[1:] {
		b.extend(v.Position)
	}
	m.Bounds = b
}

// TriangleCount returns the number of faces.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Face materializes face i as an ordered triple of vertices: the logical
// view the rasterization core's data model names, over the indexed storage
// this type actually keeps.
func (m *Mesh) Face(i int) [3]Vertex {
	f := m.Faces[i]
	return [3]Vertex{m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]]}
}

// faceNormal is the unnormalized normal of triangle (a, b, c); its length
// is twice the triangle's area.
func faceNormal(a, b, c math3d.Vec3) math3d.Vec3 {
	return b.Sub(a).Cross(c.Sub(a))
}

// FlatNormals assigns each vertex the normal of a face using it; for a
// vertex shared between faces, the last face wins.
func (m *Mesh) FlatNormals() {
	for _, f := range m.Faces {
		n := faceNormal(
			m.Vertices[f.V[0]].Position,
			m.Vertices[f.V[1]].Position,
			m.Vertices[f.V[2]].Position,
		).Normalize()
		for _, vi := range f.V {
			m.Vertices[vi].Normal = n
		}
	}
}

// SmoothNormals averages face normals at each shared vertex. The per-face
// normals are accumulated unnormalized, so larger faces weigh more.
func (m *Mesh) SmoothNormals() {
	acc := make([]math3d.Vec3, len(m.Vertices))
	for _, f := range m.Faces {
		n := faceNormal(
			m.Vertices[f.V[0]].Position,
			m.Vertices[f.V[1]].Position,
			m.Vertices[f.V[2]].Position,
		)
		for _, vi := range f.V {
			acc[vi] = acc[vi].Add(n)
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = acc[i].Normalize()
	}
}

// Transform applies mat to every vertex position, and to normals via the
// matrix's rotation part, then refits the bounds.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i, v := range m.Vertices {
		m.Vertices[i] = Vertex{
			Position: mat.MulVec3(v.Position),
			Normal:   mat.MulVec3Dir(v.Normal).Normalize(),
			UV:       v.UV,
		}
	}
	m.RecomputeBounds()
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Vertices = slices.Clone(m.Vertices)
	c.Faces = slices.Clone(m.Faces)
	return &c
}
