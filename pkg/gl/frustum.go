package gl

import "github.com/taigrr/rasteriser/pkg/math3d"

// Plane is Ax+By+Cz+D=0 with (A,B,C) the normal.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

func (p *Plane) normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to point.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum is the six inward-facing planes (left, right, bottom, top, near,
// far) of a view-projection transform, used to reject off-screen geometry
// before it reaches the per-triangle rasterizer workers.
type Frustum struct {
	Planes [6]Plane
}

const (
	frustumLeft = iota
	frustumRight
	frustumBottom
	frustumTop
	frustumNear
	frustumFar
)

// NewFrustumFromMatrix extracts frustum planes from a combined
// view-projection matrix via the Gribb/Hartmann method.
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	var f Frustum
	f.Planes[frustumLeft] = Plane{math3d.V3(m[3]+m[0], m[7]+m[4], m[11]+m[8]), m[15] + m[12]}
	f.Planes[frustumRight] = Plane{math3d.V3(m[3]-m[0], m[7]-m[4], m[11]-m[8]), m[15] - m[12]}
	f.Planes[frustumBottom] = Plane{math3d.V3(m[3]+m[1], m[7]+m[5], m[11]+m[9]), m[15] + m[13]}
	f.Planes[frustumTop] = Plane{math3d.V3(m[3]-m[1], m[7]-m[5], m[11]-m[9]), m[15] - m[13]}
	f.Planes[frustumNear] = Plane{math3d.V3(m[3]+m[2], m[7]+m[6], m[11]+m[10]), m[15] + m[14]}
	f.Planes[frustumFar] = Plane{math3d.V3(m[3]-m[2], m[7]-m[6], m[11]-m[10]), m[15] - m[14]}
	for i := range f.Planes {
		f.Planes[i].normalize()
	}
	return f
}

// SphereOutside reports whether a bounding sphere is entirely behind at
// least one frustum plane, i.e. fully off-screen.
func (f Frustum) SphereOutside(center math3d.Vec3, radius float64) bool {
	for _, p := range f.Planes {
		if p.DistanceToPoint(center) < -radius {
			return true
		}
	}
	return false
}
