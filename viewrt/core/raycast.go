package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ParallelEpsilon is the smallest ray direction component along a surface
// normal that still counts as crossing the surface.
const ParallelEpsilon float32 = 1e-4

type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// RayHit is the nearest surface crossed by a ray. Hit is false when the ray
// missed every face or could not be built.
type RayHit struct {
	Hit        bool
	Surface    Surface
	Normalized mgl32.Vec2
	World      mgl32.Vec3
	T          float32
}

// ViewProjector supplies the matrix a screen point is unprojected through.
// *Camera implements it.
type ViewProjector interface {
	ViewProjectionMatrix() mgl32.Mat4
}

type RayCaster struct {
	mapper *CoordinateMapper
}

func NewRayCaster(mapper *CoordinateMapper) *RayCaster {
	return &RayCaster{mapper: mapper}
}

func (rc *RayCaster) Mapper() *CoordinateMapper { return rc.mapper }

// CastRay unprojects a screen pixel (origin top-left) through the camera's
// current view-projection and returns the nearest surface hit.
func (rc *RayCaster) CastRay(screenX, screenY float32, width, height int, cam ViewProjector) RayHit {
	ray, ok := ScreenRay(screenX, screenY, width, height, cam.ViewProjectionMatrix())
	if !ok {
		return RayHit{}
	}
	return rc.Intersect(ray)
}

// ScreenRay builds the world ray through a screen pixel. It fails when vp is
// not invertible.
func ScreenRay(screenX, screenY float32, width, height int, vp mgl32.Mat4) (Ray, bool) {
	ndcX := 2*screenX/float32(width) - 1
	ndcY := 1 - 2*screenY/float32(height)

	det := vp.Det()
	if det == 0 || !finite(det) {
		return Ray{}, false
	}
	inv := vp.Inv()

	near, ok := unproject(inv, mgl32.Vec4{ndcX, ndcY, -1, 1})
	if !ok {
		return Ray{}, false
	}
	far, ok := unproject(inv, mgl32.Vec4{ndcX, ndcY, 1, 1})
	if !ok {
		return Ray{}, false
	}

	dir := far.Sub(near)
	if dir.Len() == 0 {
		return Ray{}, false
	}
	return Ray{Origin: near, Dir: dir.Normalize()}, true
}

func unproject(inv mgl32.Mat4, ndc mgl32.Vec4) (mgl32.Vec3, bool) {
	p := inv.Mul4x1(ndc)
	if p.W() == 0 {
		return mgl32.Vec3{}, false
	}
	return p.Vec3().Mul(1.0 / p.W()), true
}

// Intersect tests the ray against the six faces and keeps the strictly
// smallest non-negative distance. A face only counts when the ray leaves the
// volume through it, so a camera outside the room sees the far, interior side
// of the walls. NaN inputs never hit.
func (rc *RayCaster) Intersect(r Ray) RayHit {
	best := RayHit{T: float32(math.Inf(1))}
	vol := rc.mapper.Volume()

	for _, s := range Surfaces {
		axis, u, v := s.axes()
		d := r.Dir[axis]
		if s.positive() {
			if !(d > ParallelEpsilon) {
				continue
			}
		} else if !(d < -ParallelEpsilon) {
			continue
		}

		plane := rc.mapper.Plane(s)
		t := (plane - r.Origin[axis]) / d
		if !(t >= 0) {
			continue
		}

		p := r.At(t)
		p[axis] = plane
		if !within(p[u], vol.Min[u], vol.Max[u]) || !within(p[v], vol.Min[v], vol.Max[v]) {
			continue
		}

		if t < best.T {
			best = RayHit{
				Hit:     true,
				Surface: s,
				World:   p,
				T:       t,
			}
		}
	}

	if !best.Hit {
		return RayHit{}
	}
	best.Normalized = rc.mapper.Normalize(best.Surface, best.World)
	return best
}

func within(x, lo, hi float32) bool {
	return x >= lo && x <= hi
}

// Project maps a world point to screen pixels (origin top-left). ok is false
// for points behind the eye or outside the viewport.
func Project(pos mgl32.Vec3, width, height int, vp mgl32.Mat4) (x, y float32, ok bool) {
	clip := vp.Mul4x1(pos.Vec4(1.0))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1.0 / clip.W())

	w, h := float32(width), float32(height)
	x = (ndc.X()*0.5 + 0.5) * w
	y = (1.0 - (ndc.Y()*0.5 + 0.5)) * h

	if x < 0 || x > w || y < 0 || y > h {
		return x, y, false
	}
	return x, y, true
}
