package roomview

import (
	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/store"
	"github.com/go-gl/mathgl/mgl32"
)

type AnnotationQuad struct {
	Annotation store.Annotation
	Corners    [4]mgl32.Vec3
}

type RobotFrame struct {
	Placement store.RobotPlacement
	Model     mgl32.Mat4
}

// FrameData is everything the renderer needs for one frame.
type FrameData struct {
	ViewProjection mgl32.Mat4
	Eye            mgl32.Vec3
	CameraInside   bool
	Annotations    []AnnotationQuad
	Robot          *RobotFrame
}

// Frame samples the camera once and builds the draw inputs from that sample.
// It also refreshes the camera-inside indicator in the mode state.
func (v *Viewer) Frame() FrameData {
	fd := FrameData{
		ViewProjection: v.camera.ViewProjectionMatrix(),
		Eye:            v.camera.Eye(),
	}

	v.mu.RLock()
	mapper, scene, hasScene := v.mapper, v.scene, v.hasScene
	anns := v.annotations
	robot := v.robot
	v.mu.RUnlock()

	if hasScene {
		fd.CameraInside = scene.Contains(fd.Eye)
		v.modes.SetCameraInside(fd.CameraInside)

		fd.Annotations = make([]AnnotationQuad, 0, len(anns))
		for _, a := range anns {
			fd.Annotations = append(fd.Annotations, AnnotationQuad{
				Annotation: a,
				Corners:    mapper.Quad(a.Surface, a.Position, a.Size),
			})
		}
	}

	if robot != nil {
		fd.Robot = &RobotFrame{Placement: *robot, Model: robot.Transform().ObjectToWorld()}
	}
	return fd
}

// QuadIndices triangulates AnnotationQuad.Corners.
var QuadIndices = core.QuadIndices
