package mesh

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const triangleOBJ = `
# a single triangle with full attributes
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.0 1.0 0.0
vn 0.0 0.0 1.0
vt 0.0 0.0
vt 1.0 0.0
vt 0.0 1.0
f 1/1/1 2/2/1 3/3/1
`

const noNormalsOBJ = `
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.0 1.0 0.0
vt 0.0 0.0
vt 1.0 0.0
vt 0.0 1.0
f 1/1 2/2 3/3
`

const noTexCoordsOBJ = `
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.0 1.0 0.0
vn 0.0 0.0 1.0
f 1//1 2//1 3//1
`

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadOBJValidTriangle(t *testing.T) {
	path := writeTemp(t, "tri.obj", triangleOBJ)
	m, err := LoadOBJ(path)
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if m.TriangleCount() != 1 {
		t.Fatalf("got %d triangles, want 1", m.TriangleCount())
	}
	if m.VertexCount() != 3 {
		t.Fatalf("got %d vertices, want 3", m.VertexCount())
	}
	if !m.HasNormals || !m.HasUVs {
		t.Fatalf("a fully attributed OBJ must record HasNormals and HasUVs")
	}
}

func TestLoadOBJMissingNormals(t *testing.T) {
	path := writeTemp(t, "nonormals.obj", noNormalsOBJ)
	_, err := LoadOBJ(path)
	if !errors.Is(err, ErrNoNormals) {
		t.Fatalf("got error %v, want ErrNoNormals", err)
	}
}

func TestLoadOBJMissingTexCoords(t *testing.T) {
	path := writeTemp(t, "notexcoords.obj", noTexCoordsOBJ)
	_, err := LoadOBJ(path)
	if !errors.Is(err, ErrNoTexCoords) {
		t.Fatalf("got error %v, want ErrNoTexCoords", err)
	}
}

func TestLoadOBJMissingFile(t *testing.T) {
	_, err := LoadOBJ(filepath.Join(t.TempDir(), "does-not-exist.obj"))
	if !errors.Is(err, ErrCouldNotLoadFile) {
		t.Fatalf("got error %v, want ErrCouldNotLoadFile", err)
	}
}

func TestLoadOBJTriangulatesQuad(t *testing.T) {
	const quad = `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`
	path := writeTemp(t, "quad.obj", quad)
	m, err := LoadOBJ(path)
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if m.TriangleCount() != 2 {
		t.Fatalf("got %d triangles from a fan-triangulated quad, want 2", m.TriangleCount())
	}
}
