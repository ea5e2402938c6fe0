package roomview

import (
	"testing"
	"time"

	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/store"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.UnixMilli(1700000000000)

func touch(action TouchAction, at time.Duration, points ...TouchPoint) TouchEvent {
	return TouchEvent{Action: action, Points: points, Time: t0.Add(at)}
}

func pt(id int, x, y float32) TouchPoint {
	return TouchPoint{ID: id, X: x, Y: y}
}

func tap(g *Gestures, x, y float32) GestureResult {
	g.Handle(touch(TouchDown, 0, pt(0, x, y)))
	return g.Handle(touch(TouchUp, 100*time.Millisecond, pt(0, x, y)))
}

func TestOneFingerRotates(t *testing.T) {
	v := newTestViewer(t, "")
	g := NewGestures(v)

	g.Handle(touch(TouchDown, 0, pt(0, 100, 100)))
	res := g.Handle(touch(TouchMove, 16*time.Millisecond, pt(0, 140, 120)))
	assert.Equal(t, GestureRotate, res.Kind)

	st := v.Camera().State()
	assert.Equal(t, float32(20), st.Yaw)
	assert.Equal(t, float32(10), st.Pitch)

	res = g.Handle(touch(TouchUp, 32*time.Millisecond, pt(0, 140, 120)))
	assert.Equal(t, GestureNone, res.Kind, "a swipe is not a tap")
}

func TestTwoFingersPan(t *testing.T) {
	v := newTestViewer(t, "")
	g := NewGestures(v)

	g.Handle(touch(TouchDown, 0, pt(0, 100, 100)))
	g.Handle(touch(TouchPointerDown, 5*time.Millisecond, pt(0, 100, 100), pt(1, 300, 100)))
	res := g.Handle(touch(TouchMove, 16*time.Millisecond, pt(0, 110, 120), pt(1, 310, 120)))
	require.Equal(t, GesturePan, res.Kind)

	// Pan(10, -20): right (1,0,0) * -10 + forward (0,0,-1) * -20, times 0.01
	target := v.Camera().State().Target
	assert.True(t, nearVec3(target, mgl32.Vec3{-0.1, 0, 0.2}, 1e-6), "target %v", target)
	assert.Equal(t, float32(0), v.Camera().State().Yaw)

	g.Handle(touch(TouchPointerUp, 20*time.Millisecond, pt(0, 110, 120)))
	res = g.Handle(touch(TouchMove, 32*time.Millisecond, pt(0, 120, 120)))
	assert.Equal(t, GestureRotate, res.Kind)
	assert.Equal(t, float32(5), v.Camera().State().Yaw)
}

func TestPinchZooms(t *testing.T) {
	v := newTestViewer(t, "")
	g := NewGestures(v)

	assert.Equal(t, GestureZoom, g.Pinch(2).Kind)
	assert.Equal(t, float32(2), v.Camera().State().Zoom)

	g.Pinch(0)
	g.Pinch(-1)
	assert.Equal(t, float32(2), v.Camera().State().Zoom)
}

func TestTapWithoutModeDoesNothing(t *testing.T) {
	v := newTestViewer(t, "")
	res := tap(NewGestures(v), 500, 400)
	assert.Equal(t, GestureTap, res.Kind)
	assert.True(t, res.Hit.Hit)
	assert.Nil(t, res.Annotation)
	assert.Empty(t, v.Annotations())
}

func TestTapInAnnotationModeAddsAnnotation(t *testing.T) {
	v := newTestViewer(t, "")
	v.Modes().ToggleAnnotationMode()
	v.Modes().SetAnnotationType(store.Obstacle)
	g := NewGestures(v)

	g.Handle(touch(TouchDown, 0, pt(0, 500, 400)))
	// small jitter stays a tap and leaves the camera alone
	res := g.Handle(touch(TouchMove, 50*time.Millisecond, pt(0, 505, 395)))
	assert.Equal(t, GestureNone, res.Kind)
	assert.Equal(t, float32(0), v.Camera().State().Yaw)

	res = g.Handle(touch(TouchUp, 120*time.Millisecond, pt(0, 500, 400)))
	require.Equal(t, GestureTap, res.Kind)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Annotation)
	assert.Equal(t, core.BackWall, res.Annotation.Surface)
	assert.Equal(t, store.Obstacle, res.Annotation.Type)
	assert.True(t, nearVec2(res.Annotation.Position, mgl32.Vec2{0.5, 0.5}, 1e-4))
	assert.Len(t, v.Annotations(), 1)
	assert.True(t, v.Modes().State().AnnotationMode, "annotation mode stays on")
}

func TestSlowOrMovedTouchIsNotATap(t *testing.T) {
	v := newTestViewer(t, "")
	v.Modes().ToggleAnnotationMode()
	g := NewGestures(v)

	g.Handle(touch(TouchDown, 0, pt(0, 500, 400)))
	res := g.Handle(touch(TouchUp, 400*time.Millisecond, pt(0, 500, 400)))
	assert.Equal(t, GestureNone, res.Kind)

	g.Handle(touch(TouchDown, time.Second, pt(0, 500, 400)))
	res = g.Handle(touch(TouchMove, time.Second+10*time.Millisecond, pt(0, 520, 400)))
	assert.Equal(t, GestureRotate, res.Kind, "past the slop the camera moves even in annotation mode")
	g.Handle(touch(TouchUp, time.Second+50*time.Millisecond, pt(0, 520, 400)))

	assert.Empty(t, v.Annotations())
}

func TestCancelDropsTheTap(t *testing.T) {
	v := newTestViewer(t, "")
	v.Modes().ToggleAnnotationMode()
	g := NewGestures(v)

	g.Handle(touch(TouchDown, 0, pt(0, 500, 400)))
	g.Handle(touch(TouchCancel, 10*time.Millisecond))
	res := g.Handle(touch(TouchUp, 20*time.Millisecond, pt(0, 500, 400)))
	assert.Equal(t, GestureNone, res.Kind)
	assert.Empty(t, v.Annotations())
}

func TestTapPlacesRobotOnFloor(t *testing.T) {
	v := newTestViewer(t, "")
	v.Modes().ToggleRobotPlacementMode()
	v.Modes().SetRobotSize(1.5)
	g := NewGestures(v)

	x, y := screenOf(t, v, mgl32.Vec3{1, -2, 1})
	res := tap(g, x, y)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Robot)
	assert.True(t, nearVec3(res.Robot.Position, mgl32.Vec3{1, -2, 1}, 1e-2), "robot at %v", res.Robot.Position)
	assert.Equal(t, float32(1.5), res.Robot.Scale)
	assert.False(t, v.Modes().State().RobotPlacementMode, "placing the robot leaves placement mode")

	robot, ok := v.Robot()
	require.True(t, ok)
	assert.Equal(t, res.Robot.ID, robot.ID)
}

func TestTapOffTheFloorInPlacementMode(t *testing.T) {
	v := newTestViewer(t, "")
	v.Modes().ToggleRobotPlacementMode()

	res := tap(NewGestures(v), 500, 400)
	assert.ErrorIs(t, res.Err, ErrNotFloor)
	assert.Equal(t, "Tap on the floor to place robot", v.Modes().State().Error)
	assert.True(t, v.Modes().State().RobotPlacementMode)
	_, ok := v.Robot()
	assert.False(t, ok)
}

func TestDragRobot(t *testing.T) {
	v := newTestViewer(t, "")
	_, err := v.PlaceRobot(mgl32.Vec3{1, -2, 1}, 45)
	require.NoError(t, err)
	g := NewGestures(v)

	fromX, fromY := screenOf(t, v, mgl32.Vec3{1, -2, 1})
	toX, toY := screenOf(t, v, mgl32.Vec3{-1, -2, 2})

	res := g.Handle(touch(TouchDown, 0, pt(0, fromX, fromY)))
	require.Equal(t, GestureRobotDragStart, res.Kind)

	res = g.Handle(touch(TouchMove, 50*time.Millisecond, pt(0, toX, toY)))
	require.Equal(t, GestureRobotDrag, res.Kind)
	require.NotNil(t, res.Robot)

	res = g.Handle(touch(TouchUp, 900*time.Millisecond, pt(0, toX, toY)))
	assert.Equal(t, GestureRobotDragEnd, res.Kind)

	robot, ok := v.Robot()
	require.True(t, ok)
	assert.True(t, nearVec3(robot.Position, mgl32.Vec3{-1, -2, 2}, 1e-2), "robot at %v", robot.Position)
	assert.Equal(t, float32(45), robot.YawDeg)
	assert.Equal(t, core.CameraState{Zoom: 1, Target: testRoom.Center()}, v.Camera().State(), "dragging the robot leaves the camera alone")
}

func TestTouchAwayFromRobotRotates(t *testing.T) {
	v := newTestViewer(t, "")
	_, err := v.PlaceRobot(mgl32.Vec3{1, -2, 1}, 0)
	require.NoError(t, err)
	g := NewGestures(v)

	x, y := screenOf(t, v, mgl32.Vec3{-2, -2, 2})
	res := g.Handle(touch(TouchDown, 0, pt(0, x, y)))
	assert.Equal(t, GestureNone, res.Kind)
	res = g.Handle(touch(TouchMove, 10*time.Millisecond, pt(0, x+30, y)))
	assert.Equal(t, GestureRotate, res.Kind)
}

func TestDragEndsCleanlyWhenRobotCleared(t *testing.T) {
	v := newTestViewer(t, "")
	_, err := v.PlaceRobot(mgl32.Vec3{1, -2, 1}, 0)
	require.NoError(t, err)
	g := NewGestures(v)

	x, y := screenOf(t, v, mgl32.Vec3{1, -2, 1})
	res := g.Handle(touch(TouchDown, 0, pt(0, x, y)))
	require.Equal(t, GestureRobotDragStart, res.Kind)

	require.NoError(t, v.ClearRobot())
	res = g.Handle(touch(TouchMove, 20*time.Millisecond, pt(0, x+5, y)))
	assert.Equal(t, GestureRobotDrag, res.Kind)
	assert.ErrorIs(t, res.Err, ErrNotFound)

	res = g.Handle(touch(TouchUp, 40*time.Millisecond, pt(0, x+5, y)))
	assert.Equal(t, GestureRobotDragEnd, res.Kind)
	assert.Nil(t, res.Robot)
}
