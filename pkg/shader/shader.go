// Package shader defines the vertex/pixel shader stage contracts and the
// reference shaders the pipeline runs.
package shader

import (
	"math"

	"github.com/taigrr/rasteriser/pkg/color"
	"github.com/taigrr/rasteriser/pkg/math3d"
	"github.com/taigrr/rasteriser/pkg/texture"
)

// VSInput is the per-vertex input to a vertex shader: per-vertex position,
// normal and texcoord, plus uniform-like fields set once per draw call and
// left untouched across a triangle's three vertices.
type VSInput struct {
	Position math3d.Vec4 // homogeneous, w=1
	Normal   math3d.Vec4 // direction, w=0
	Texcoord math3d.Vec2

	Camera       math3d.Vec3
	CameraTarget math3d.Vec3
	View         math3d.Mat4
	Projection   math3d.Mat4
}

// VSOutput is what a vertex shader returns: clip-space position plus the
// attributes carried forward to the pixel stage.
type VSOutput struct {
	Position math3d.Vec4
	Normal   math3d.Vec4
	Texcoord math3d.Vec2
}

// PSInput is the per-pixel input to a pixel shader: interpolated attributes
// plus the shared, read-only resources (textures, light/camera directions)
// set once per draw call.
type PSInput struct {
	Textures []*texture.Texture
	LightPos math3d.Vec3
	CamDir   math3d.Vec3
	Position math3d.Vec3
	Normal   math3d.Vec3
	Texcoord math3d.Vec2
}

// VertexShader transforms a single vertex. Must be a pure function of its
// input; the pipeline invokes it concurrently, once per vertex per
// triangle, across many goroutines.
type VertexShader func(VSInput) VSOutput

// PixelShader computes the color of a single fragment, in normalized
// [0,1] per-component range. Must be pure for the same reason.
type PixelShader func(PSInput) math3d.Vec4

// SimpleVertexShader: position_clip = projection * view * position, with
// normal and texcoord passed through unchanged.
func SimpleVertexShader(in VSInput) VSOutput {
	mv := in.Projection.Mul(in.View)
	return VSOutput{
		Position: mv.MulVec4(in.Position),
		Normal:   in.Normal,
		Texcoord: in.Texcoord,
	}
}

// IdentityVertexShader passes the vertex through unmodified, useful for
// pre-transformed geometry or for isolating the rasterizer in tests.
func IdentityVertexShader(in VSInput) VSOutput {
	return VSOutput{Position: in.Position, Normal: in.Normal, Texcoord: in.Texcoord}
}

// LambertPixelShader: n = normalize(normal); l = normalize(light); returns
// (nd, nd, nd, 1) where nd = saturate(n·l).
func LambertPixelShader(in PSInput) math3d.Vec4 {
	n := in.Normal.Normalize()
	l := in.LightPos.Normalize()
	nd := color.Saturate(n.Dot(l))
	return math3d.V4(nd, nd, nd, 1)
}

// DiffusePixelShader samples textures[0] at the interpolated texcoord.
func DiffusePixelShader(in PSInput) math3d.Vec4 {
	return in.Textures[0].Sample(in.Texcoord.X, in.Texcoord.Y)
}

// SpecularPixelShader combines a diffuse, normal-map and specular-map
// texture: n = normalize(normal componentwise-multiplied by the normal
// map); r = reflect(-l, n); e = normalize(camera direction); spec =
// (specular_map · saturate(e·r))^5; ambient = 0.1·diffuse with blue boosted
// ×1.5; returns saturate(ambient + diffuse·saturate(n·l) + spec, w=0).
func SpecularPixelShader(in PSInput) math3d.Vec4 {
	diffuse := in.Textures[0].Sample(in.Texcoord.X, in.Texcoord.Y)
	normalMap := in.Textures[1].Sample(in.Texcoord.X, in.Texcoord.Y)
	specularMap := in.Textures[2].Sample(in.Texcoord.X, in.Texcoord.Y)

	nrm := math3d.V3(
		in.Normal.X*normalMap.X,
		in.Normal.Y*normalMap.Y,
		in.Normal.Z*normalMap.Z,
	)

	n := nrm.Normalize()
	l := in.LightPos.Normalize()
	r := l.Negate().Reflect(n)
	e := in.CamDir.Normalize()

	ndotl := color.Saturate(n.Dot(l))
	edotr := color.Saturate(e.Dot(r))

	spec := math3d.V3(
		math.Pow(specularMap.X*edotr, 5),
		math.Pow(specularMap.Y*edotr, 5),
		math.Pow(specularMap.Z*edotr, 5),
	)

	ambient := math3d.V4(diffuse.X*0.1, diffuse.Y*0.1, diffuse.Z*0.1*1.5, diffuse.W*0.1)

	result := ambient.
		Add(math3d.V4(diffuse.X*ndotl, diffuse.Y*ndotl, diffuse.Z*ndotl, diffuse.W*ndotl)).
		Add(math3d.V4(spec.X, spec.Y, spec.Z, 0))

	return color.SaturateVec4(result)
}
