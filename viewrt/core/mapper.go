package core

import "github.com/go-gl/mathgl/mgl32"

// DefaultSurfaceOffset lifts annotation quads off their surface to avoid
// z-fighting with the scan mesh.
const DefaultSurfaceOffset float32 = 0.02

// QuadIndices triangulates the corners returned by CoordinateMapper.Quad.
var QuadIndices = [6]uint16{0, 1, 2, 0, 2, 3}

// CoordinateMapper converts between world space and normalized [0,1] surface
// coordinates of a BoundingVolume.
//
//	Floor, Ceiling      world X -> x, world Z -> y
//	BackWall, FrontWall world X -> x, world Y -> y
//	LeftWall, RightWall world Z -> x, world Y -> y
type CoordinateMapper struct {
	volume BoundingVolume
	offset float32
}

func NewCoordinateMapper(volume BoundingVolume, offset float32) *CoordinateMapper {
	return &CoordinateMapper{volume: volume, offset: offset}
}

func (m *CoordinateMapper) Volume() BoundingVolume { return m.volume }

// Plane returns the world coordinate of the surface along its normal axis.
func (m *CoordinateMapper) Plane(s Surface) float32 {
	axis, _, _ := s.axes()
	if s.positive() {
		return m.volume.Max[axis]
	}
	return m.volume.Min[axis]
}

// Normalize projects a world point onto the surface's in-plane axes. Points
// outside the face map outside [0,1]; nothing is clamped.
func (m *CoordinateMapper) Normalize(s Surface, world mgl32.Vec3) mgl32.Vec2 {
	_, u, v := s.axes()
	return mgl32.Vec2{m.normalizeAxis(u, world[u]), m.normalizeAxis(v, world[v])}
}

func (m *CoordinateMapper) normalizeAxis(axis int, coord float32) float32 {
	center := (m.volume.Min[axis] + m.volume.Max[axis]) / 2
	full := m.volume.Max[axis] - m.volume.Min[axis]
	half := full / 2
	return (coord - center + half) / full
}

func (m *CoordinateMapper) denormalizeAxis(axis int, n float32) float32 {
	return m.volume.Min[axis] + n*(m.volume.Max[axis]-m.volume.Min[axis])
}

// ToWorld is the inverse of Normalize. The point lies exactly on the plane.
func (m *CoordinateMapper) ToWorld(s Surface, n mgl32.Vec2) mgl32.Vec3 {
	axis, u, v := s.axes()
	var p mgl32.Vec3
	p[axis] = m.Plane(s)
	p[u] = m.denormalizeAxis(u, n[0])
	p[v] = m.denormalizeAxis(v, n[1])
	return p
}

// Quad returns the corners of a rectangle with top-left pos and the given
// size, both normalized, in the order (x1,y1) (x2,y1) (x2,y2) (x1,y2). The
// corners are pushed along the inward normal by the mapper offset. A zero
// size gives a degenerate quad.
func (m *CoordinateMapper) Quad(s Surface, pos, size mgl32.Vec2) [4]mgl32.Vec3 {
	lift := s.InwardNormal().Mul(m.offset)
	x1, y1 := pos[0], pos[1]
	x2, y2 := x1+size[0], y1+size[1]
	corners := [4]mgl32.Vec2{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}

	var out [4]mgl32.Vec3
	for i, c := range corners {
		out[i] = m.ToWorld(s, c).Add(lift)
	}
	return out
}
