package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// near compares component-wise with an absolute tolerance. mgl32's
// ApproxEqualThreshold is relative and degenerates next to zero.
func near(a, b []float32, tol float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !(float32(math.Abs(float64(a[i]-b[i]))) <= tol) {
			return false
		}
	}
	return true
}

func nearVec2(a, b mgl32.Vec2, tol float32) bool { return near(a[:], b[:], tol) }
func nearVec3(a, b mgl32.Vec3, tol float32) bool { return near(a[:], b[:], tol) }
func nearMat4(a, b mgl32.Mat4, tol float32) bool { return near(a[:], b[:], tol) }
