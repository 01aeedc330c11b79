package mesh

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/rasteriser/pkg/math3d"
)

// objIndex is a parsed "v/vt/vn" face-vertex reference, 0-based. A slash
// field absent from the file leaves its index at 0, the same value a present
// index of 1 gets; parseFaceToken's hasVT/hasVN results tell the two apart.
type objIndex struct {
	v, vt, vn int
}

// LoadOBJ parses a Wavefront OBJ file into a Mesh. It covers the subset the
// renderer needs: vertex positions (v), normals (vn), texture coordinates
// (vt), and triangle/polygon faces (f), triangulated by fanning from the
// first vertex. Materials (mtllib/usemtl) are not read; the renderer has no
// material model, only shader-supplied textures.
//
// Per the mesh-loader contract, any face that references a vertex without a
// normal or texcoord component returns ErrNoNormals / ErrNoTexCoords rather
// than synthesizing the missing attribute.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotLoadFile, err)
	}
	defer f.Close()

	var positions []math3d.Vec3
	var normals []math3d.Vec3
	var uvs []math3d.Vec2
	var faceRefs [][]objIndex

	sawNormalRef, sawMissingNormal := false, false
	sawUVRef, sawMissingUV := false, false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("mesh: parse vertex: %w", err)
			}
			positions = append(positions, v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("mesh: parse normal: %w", err)
			}
			normals = append(normals, n)
		case "vt":
			uv, err := parseVec2(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("mesh: parse texcoord: %w", err)
			}
			uvs = append(uvs, uv)
		case "f":
			refs := make([]objIndex, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				idx, hasVT, hasVN, err := parseFaceToken(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("mesh: parse face: %w", err)
				}
				if hasVN {
					sawNormalRef = true
				} else {
					sawMissingNormal = true
				}
				if hasVT {
					sawUVRef = true
				} else {
					sawMissingUV = true
				}
				refs = append(refs, idx)
			}
			if len(refs) < 3 {
				return nil, fmt.Errorf("mesh: face with fewer than 3 vertices")
			}
			faceRefs = append(faceRefs, refs)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mesh: read %s: %w", path, err)
	}

	if len(faceRefs) > 0 && (sawMissingNormal || !sawNormalRef) {
		return nil, ErrNoNormals
	}
	if len(faceRefs) > 0 && (sawMissingUV || !sawUVRef) {
		return nil, ErrNoTexCoords
	}

	m := NewMesh(filepath.Base(path))
	m.HasNormals = true
	m.HasUVs = true
	vertexKey := make(map[objIndex]int)

	for _, refs := range faceRefs {
		// Fan-triangulate convex polygon faces from the first vertex.
		for i := 1; i+1 < len(refs); i++ {
			tri := [3]objIndex{refs[0], refs[i], refs[i+1]}
			var face Face
			for k, ref := range tri {
				vi, ok := vertexKey[ref]
				if !ok {
					vi = len(m.Vertices)
					vertexKey[ref] = vi
					m.Vertices = append(m.Vertices, Vertex{
						Position: positions[ref.v],
						Normal:   normals[ref.vn],
						UV:       uvs[ref.vt],
					})
				}
				face.V[k] = vi
			}
			m.Faces = append(m.Faces, face)
		}
	}

	m.RecomputeBounds()
	return m, nil
}

func parseFaceToken(tok string, numV, numVT, numVN int) (idx objIndex, hasVT, hasVN bool, err error) {
	parts := strings.Split(tok, "/")
	idx.v, err = parseOBJIndex(parts[0], numV)
	if err != nil {
		return objIndex{}, false, false, err
	}
	if len(parts) > 1 && parts[1] != "" {
		idx.vt, err = parseOBJIndex(parts[1], numVT)
		if err != nil {
			return objIndex{}, false, false, err
		}
		hasVT = true
	}
	if len(parts) > 2 && parts[2] != "" {
		idx.vn, err = parseOBJIndex(parts[2], numVN)
		if err != nil {
			return objIndex{}, false, false, err
		}
		hasVN = true
	}
	return idx, hasVT, hasVN, nil
}

// parseOBJIndex converts a 1-based (or negative, relative-to-end) OBJ index
// into a 0-based index into a slice of the given length.
func parseOBJIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return count + n, nil
	}
	return n - 1, nil
}

func parseVec3(fields []string) (math3d.Vec3, error) {
	if len(fields) < 3 {
		return math3d.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return math3d.Vec3{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return math3d.Vec3{}, err
	}
	z, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return math3d.Vec3{}, err
	}
	return math3d.V3(x, y, z), nil
}

func parseVec2(fields []string) (math3d.Vec2, error) {
	if len(fields) < 2 {
		return math3d.Vec2{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	u, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return math3d.Vec2{}, err
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return math3d.Vec2{}, err
	}
	return math3d.V2(u, v), nil
}
