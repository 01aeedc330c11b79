package mesh

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/rasteriser/pkg/math3d"
)

// GLTFLoader loads glTF/GLB files into Mesh format. Unlike LoadOBJ, this
// loader does not refuse a mesh with missing attributes: with
// CalculateNormals set it computes missing normals, and missing texture
// coordinates are left zero with HasUVs false.
type GLTFLoader struct {
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a loader with default options (compute smooth
// normals when the source has none).
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{CalculateNormals: true, SmoothNormals: true}
}

// LoadGLB loads a binary glTF (.glb) file with default loader options.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// LoadGLTF loads a textual or binary glTF file with default loader options.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load reads a glTF/GLB document and flattens every triangle primitive of
// every mesh into a single Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	m := NewMesh(filepath.Base(path))
	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if err := appendPrimitive(m, doc, prim); err != nil {
				return nil, fmt.Errorf("mesh %q: %w", gm.Name, err)
			}
		}
	}

	if l.CalculateNormals && !m.HasNormals {
		if l.SmoothNormals {
			m.SmoothNormals()
		} else {
			m.FlatNormals()
		}
		m.HasNormals = true
	}

	m.RecomputeBounds()
	return m, nil
}

// appendPrimitive decodes one primitive's vertex attributes and indices
// into m. Non-triangle primitives and primitives without positions are
// skipped.
func appendPrimitive(m *Mesh, doc *gltf.Document, prim *gltf.Primitive) error {
	if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
		return nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}

	positions, err := vec3Attr(doc, posIdx)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	var normals []math3d.Vec3
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = vec3Attr(doc, idx); err != nil {
			return fmt.Errorf("normals: %w", err)
		}
	}
	var uvs []math3d.Vec2
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = vec2Attr(doc, idx); err != nil {
			return fmt.Errorf("uvs: %w", err)
		}
	}

	base := len(m.Vertices)
	for i, p := range positions {
		v := Vertex{Position: p}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			// glTF's V=0 is the top row; flip to bottom-left origin.
			v.UV = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
		}
		m.Vertices = append(m.Vertices, v)
	}
	// An attribute counts as present only if every primitive carries it.
	if base == 0 {
		m.HasNormals = len(normals) > 0
		m.HasUVs = len(uvs) > 0
	} else {
		m.HasNormals = m.HasNormals && len(normals) > 0
		m.HasUVs = m.HasUVs && len(uvs) > 0
	}

	var indices []int
	if prim.Indices != nil {
		if indices, err = indexAttr(doc, *prim.Indices); err != nil {
			return fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]int, len(positions))
		for i := range indices {
			indices[i] = i
		}
	}
	// glTF uses CCW front-facing winding; the rasterizer's Y-flip to screen
	// space makes CW front-facing, so reverse winding here.
	for i := 0; i+2 < len(indices); i += 3 {
		m.Faces = append(m.Faces, Face{V: [3]int{
			base + indices[i],
			base + indices[i+2],
			base + indices[i+1],
		}})
	}
	return nil
}

// attrView resolves an accessor to the bytes of its first element and the
// stride between consecutive elements, bounds-checked against the backing
// buffer.
func attrView(doc *gltf.Document, a *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if a.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	bv := doc.BufferViews[*a.BufferView]
	buf := doc.Buffers[bv.Buffer]
	if buf.URI != "" {
		return nil, 0, fmt.Errorf("external buffers not supported")
	}
	if buf.Data == nil {
		return nil, 0, fmt.Errorf("buffer has no data")
	}

	stride := bv.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := bv.ByteOffset + a.ByteOffset
	if a.Count > 0 {
		if end := start + (a.Count-1)*stride + elemSize; end > len(buf.Data) {
			return nil, 0, fmt.Errorf("accessor overruns its buffer")
		}
	}
	return buf.Data[start:], stride, nil
}

func vec3Attr(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	a := doc.Accessors[accessorIdx]
	if a.Type != gltf.AccessorVec3 || a.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", a.Type, a.ComponentType)
	}
	data, stride, err := attrView(doc, a, 12)
	if err != nil {
		return nil, err
	}
	out := make([]math3d.Vec3, a.Count)
	for i := range out {
		el := data[i*stride:]
		out[i] = math3d.V3(f32(el), f32(el[4:]), f32(el[8:]))
	}
	return out, nil
}

func vec2Attr(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	a := doc.Accessors[accessorIdx]
	if a.Type != gltf.AccessorVec2 || a.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC2, got %v/%v", a.Type, a.ComponentType)
	}
	data, stride, err := attrView(doc, a, 8)
	if err != nil {
		return nil, err
	}
	out := make([]math3d.Vec2, a.Count)
	for i := range out {
		el := data[i*stride:]
		out[i] = math3d.V2(f32(el), f32(el[4:]))
	}
	return out, nil
}

func indexAttr(doc *gltf.Document, accessorIdx int) ([]int, error) {
	a := doc.Accessors[accessorIdx]
	var size int
	switch a.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %v", a.ComponentType)
	}
	data, stride, err := attrView(doc, a, size)
	if err != nil {
		return nil, err
	}
	out := make([]int, a.Count)
	for i := range out {
		el := data[i*stride:]
		switch size {
		case 1:
			out[i] = int(el[0])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(el))
		case 4:
			out[i] = int(binary.LittleEndian.Uint32(el))
		}
	}
	return out, nil
}

// f32 reads one little-endian float32 and widens it to float64.
func f32(b []byte) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

// LoadGLTFWithTextures loads a glTF document and extracts embedded texture
// payloads alongside the mesh, keyed by glTF image index.
func LoadGLTFWithTextures(path string) (*Mesh, map[int][]byte, error) {
	m, err := NewGLTFLoader().Load(path)
	if err != nil {
		return nil, nil, err
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}
	textures := make(map[int][]byte)
	for i, img := range doc.Images {
		switch {
		case img.BufferView != nil:
			bv := doc.BufferViews[*img.BufferView]
			buf := doc.Buffers[bv.Buffer]
			if buf.Data != nil {
				textures[i] = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
			}
		case img.URI != "":
			texPath := filepath.Join(filepath.Dir(path), img.URI)
			if data, err := os.ReadFile(texPath); err == nil {
				textures[i] = data
			}
		}
	}
	return m, textures, nil
}

// LoadGLBWithTexture loads a GLB file and returns the mesh plus its first
// decodable texture image (lowest glTF image index, embedded or referenced
// by URI), if any.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	m, textures, err := LoadGLTFWithTextures(path)
	if err != nil {
		return nil, nil, err
	}
	var img image.Image
	for _, i := range slices.Sorted(maps.Keys(textures)) {
		data := textures[i]
		if len(data) == 0 {
			continue
		}
		if decoded, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			img = decoded
			break
		}
	}
	return m, img, nil
}
