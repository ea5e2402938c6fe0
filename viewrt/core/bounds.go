package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BoundingVolume is the axis-aligned box of a loaded scene. Its six faces are
// the surfaces rays are tested against. Values are immutable; the transform
// helpers return new volumes.
type BoundingVolume struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func NewBoundingVolume(min, max mgl32.Vec3) BoundingVolume {
	return BoundingVolume{
		Min: mgl32.Vec3{minf(min[0], max[0]), minf(min[1], max[1]), minf(min[2], max[2])},
		Max: mgl32.Vec3{maxf(min[0], max[0]), maxf(min[1], max[1]), maxf(min[2], max[2])},
	}
}

// VolumeFromHalfExtents returns a volume centred on the origin.
func VolumeFromHalfExtents(half mgl32.Vec3) BoundingVolume {
	return NewBoundingVolume(half.Mul(-1), half)
}

// VolumeFromSize returns a volume of the given width, height and depth
// centred on the origin.
func VolumeFromSize(width, height, depth float32) BoundingVolume {
	return VolumeFromHalfExtents(mgl32.Vec3{width / 2, height / 2, depth / 2})
}

func (b BoundingVolume) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b BoundingVolume) HalfExtents() mgl32.Vec3 {
	return b.Size().Mul(0.5)
}

func (b BoundingVolume) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b BoundingVolume) Width() float32  { return b.Max[0] - b.Min[0] }
func (b BoundingVolume) Height() float32 { return b.Max[1] - b.Min[1] }
func (b BoundingVolume) Depth() float32  { return b.Max[2] - b.Min[2] }

// Contains is boundary-inclusive.
func (b BoundingVolume) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if !(p[i] >= b.Min[i] && p[i] <= b.Max[i]) {
			return false
		}
	}
	return true
}

// Empty reports a volume with no extent on some axis or non-finite corners.
func (b BoundingVolume) Empty() bool {
	for i := 0; i < 3; i++ {
		if !finite(b.Min[i]) || !finite(b.Max[i]) || !(b.Max[i] > b.Min[i]) {
			return true
		}
	}
	return false
}

// Centered moves the volume so its centre is the origin.
func (b BoundingVolume) Centered() BoundingVolume {
	return VolumeFromHalfExtents(b.HalfExtents())
}

// Fit uniformly scales the volume so it fits inside target and centres it on
// the origin. The scale is the smallest per-axis ratio, which keeps the scan's
// proportions.
func (b BoundingVolume) Fit(target mgl32.Vec3) (BoundingVolume, float32) {
	size := b.Size()
	scale := float32(math.MaxFloat32)
	for i := 0; i < 3; i++ {
		if size[i] <= 0 {
			continue
		}
		if s := target[i] / size[i]; s < scale {
			scale = s
		}
	}
	if scale == math.MaxFloat32 {
		scale = 1
	}
	return VolumeFromHalfExtents(b.HalfExtents().Mul(scale)), scale
}

func (b BoundingVolume) String() string {
	s := b.Size()
	return fmt.Sprintf("min=(%.3f, %.3f, %.3f) max=(%.3f, %.3f, %.3f) size=%.3fx%.3fx%.3f",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2], s[0], s[1], s[2])
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
