package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RobotTransform places the robot avatar: rotation is about world +Y, scale
// is uniform.
type RobotTransform struct {
	Position mgl32.Vec3
	YawDeg   float32
	Scale    float32
}

func NewRobotTransform(pos mgl32.Vec3) RobotTransform {
	return RobotTransform{Position: pos, Scale: 1}
}

func (t RobotTransform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := mgl32.HomogRotate3DY(mgl32.DegToRad(t.YawDeg))
	scale := mgl32.Scale3D(t.Scale, t.Scale, t.Scale)

	return translate.Mul4(rotate).Mul4(scale)
}

func (t RobotTransform) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T)
	invScale := mgl32.Scale3D(1.0/t.Scale, 1.0/t.Scale, 1.0/t.Scale)
	invRotate := mgl32.HomogRotate3DY(-mgl32.DegToRad(t.YawDeg))
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// Grabs reports whether a world point lies within radius of the robot's
// vertical axis, measured in the robot's local space so the grab area grows
// with its scale.
func (t RobotTransform) Grabs(world mgl32.Vec3, radius float32) bool {
	if t.Scale == 0 {
		return false
	}
	local := t.WorldToObject().Mul4x1(world.Vec4(1.0)).Vec3()
	return mgl32.Vec2{local.X(), local.Z()}.Len() < radius
}
