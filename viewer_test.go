package roomview

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gekko3d/roomview/viewrt/config"
	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/store"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRoom = core.VolumeFromHalfExtents(mgl32.Vec3{3, 2, 4})

func stepClock() func() time.Time {
	t := time.UnixMilli(1700000000000)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestViewer(t *testing.T, dbPath string) *Viewer {
	t.Helper()
	if dbPath == "" {
		dbPath = filepath.Join(t.TempDir(), "roomview.db")
	}
	v, err := NewViewerBuilder().
		WithDatabase(dbPath).
		WithScene(testRoom).
		WithViewport(1000, 800).
		WithClock(stepClock()).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

// screenOf projects a world point into the viewer's viewport.
func screenOf(t *testing.T, v *Viewer, world mgl32.Vec3) (float32, float32) {
	t.Helper()
	w, h := v.Viewport()
	x, y, ok := core.Project(world, w, h, v.Camera().ViewProjectionMatrix())
	require.True(t, ok, "%v is off screen", world)
	return x, y
}

// nearVec2 and nearVec3 compare with an absolute per-component tolerance.
func nearVec2(a, b mgl32.Vec2, tol float32) bool {
	return abs(a[0]-b[0]) <= tol && abs(a[1]-b[1]) <= tol
}

func nearVec3(a, b mgl32.Vec3, tol float32) bool {
	return abs(a[0]-b[0]) <= tol && abs(a[1]-b[1]) <= tol && abs(a[2]-b[2]) <= tol
}

func TestViewerCastCenter(t *testing.T) {
	v := newTestViewer(t, "")
	hit, err := v.Cast(500, 400)
	require.NoError(t, err)
	require.True(t, hit.Hit)
	assert.Equal(t, core.BackWall, hit.Surface)
	assert.True(t, nearVec2(hit.Normalized, mgl32.Vec2{0.5, 0.5}, 1e-4), "got %v", hit.Normalized)
}

func TestViewerCastWithoutScene(t *testing.T) {
	v, err := NewViewerBuilder().Build()
	require.NoError(t, err)
	defer v.Close()
	_, err = v.Cast(1, 1)
	assert.ErrorIs(t, err, ErrNoScene)
}

func TestLoadSceneRecentresTarget(t *testing.T) {
	v := newTestViewer(t, "")
	scan := core.NewBoundingVolume(mgl32.Vec3{10, 0, -5}, mgl32.Vec3{16, 3, 1})
	require.NoError(t, v.LoadScene(scan))

	assert.True(t, nearVec3(v.Camera().State().Target, mgl32.Vec3{13, 1.5, -2}, 1e-5))
	m, ok := v.Mapper()
	require.True(t, ok)
	assert.Equal(t, scan, m.Volume())

	assert.ErrorIs(t, v.LoadScene(core.BoundingVolume{}), ErrNoScene)
}

func TestLoadSceneFitsScan(t *testing.T) {
	cfg := config.Default()
	cfg.FitScan = true
	v, err := NewViewerBuilder().WithConfig(cfg).Build()
	require.NoError(t, err)
	defer v.Close()

	require.NoError(t, v.LoadScene(core.NewBoundingVolume(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{12, 2, 4})))
	got, _ := v.Scene()
	assert.True(t, nearVec3(got.Size(), mgl32.Vec3{6, 1, 2}, 1e-5), "size %v", got.Size())
	assert.True(t, nearVec3(got.Center(), mgl32.Vec3{}, 1e-5))
}

func TestAddAnnotationFromHit(t *testing.T) {
	v := newTestViewer(t, "")
	v.Modes().SetAnnotationType(store.SandArea)

	hit, err := v.Cast(500, 400)
	require.NoError(t, err)
	a, err := v.AddAnnotation(hit)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, store.SandArea, a.Type)
	assert.Equal(t, core.BackWall, a.Surface)
	assert.Equal(t, hit.Normalized, a.Position)
	assert.Equal(t, mgl32.Vec2{0.15, 0.15}, a.Size)

	persisted, err := v.annotationStore.Annotations()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, a.ID, persisted[0].ID)

	_, err = v.AddAnnotation(core.RayHit{})
	assert.ErrorIs(t, err, ErrNoHit)
}

func TestAddAnnotationAtValidates(t *testing.T) {
	v := newTestViewer(t, "")

	tests := []struct {
		name    string
		surface core.Surface
		pos     mgl32.Vec2
		size    mgl32.Vec2
	}{
		{"negative x", core.Floor, mgl32.Vec2{-0.1, 0.5}, mgl32.Vec2{0.1, 0.1}},
		{"y above one", core.Floor, mgl32.Vec2{0.5, 1.01}, mgl32.Vec2{0.1, 0.1}},
		{"zero width", core.Floor, mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{0, 0.1}},
		{"tall", core.Floor, mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{0.1, 2}},
		{"bad surface", core.Surface(42), mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{0.1, 0.1}},
	}
	for _, tc := range tests {
		if _, err := v.AddAnnotationAt(tc.surface, tc.pos, tc.size, store.Obstacle); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%s: expected ErrOutOfRange, got %v", tc.name, err)
		}
	}
	assert.Empty(t, v.Annotations())

	_, err := v.AddAnnotationAt(core.Ceiling, mgl32.Vec2{1, 0}, mgl32.Vec2{1, 1}, store.Obstacle)
	assert.NoError(t, err, "edges are inclusive")
}

func TestDeleteAndClearAnnotations(t *testing.T) {
	v := newTestViewer(t, "")
	a, err := v.AddAnnotationAt(core.Floor, mgl32.Vec2{0.1, 0.1}, mgl32.Vec2{0.2, 0.2}, store.SprayArea)
	require.NoError(t, err)
	b, err := v.AddAnnotationAt(core.LeftWall, mgl32.Vec2{0.3, 0.3}, mgl32.Vec2{0.2, 0.2}, store.Obstacle)
	require.NoError(t, err)

	got := v.Annotations()
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID, "newest first")
	assert.Len(t, v.AnnotationsOn(core.LeftWall), 1)

	require.NoError(t, v.DeleteAnnotation(a.ID))
	assert.ErrorIs(t, v.DeleteAnnotation(a.ID), ErrNotFound)
	assert.Empty(t, v.Modes().State().Error, "not found is not a user-facing failure")
	assert.Len(t, v.Annotations(), 1)

	n, err := v.ClearAnnotations()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, v.Annotations())
}

func TestStatePersistsAcrossViewers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	v := newTestViewer(t, path)
	first, err := v.AddAnnotationAt(core.Floor, mgl32.Vec2{0.1, 0.1}, mgl32.Vec2{0.2, 0.2}, store.SprayArea)
	require.NoError(t, err)
	second, err := v.AddAnnotationAt(core.Ceiling, mgl32.Vec2{0.4, 0.4}, mgl32.Vec2{0.2, 0.2}, store.SandArea)
	require.NoError(t, err)
	_, err = v.PlaceRobot(mgl32.Vec3{1, -2, 1}, 15)
	require.NoError(t, err)
	require.NoError(t, v.Close())

	again := newTestViewer(t, path)
	anns := again.Annotations()
	require.Len(t, anns, 2)
	assert.Equal(t, second.ID, anns[0].ID)
	assert.Equal(t, first.ID, anns[1].ID)

	robot, ok := again.Robot()
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, -2, 1}, robot.Position)
	assert.Equal(t, float32(15), robot.YawDeg)
}

func TestRobotPlaceMoveResize(t *testing.T) {
	v := newTestViewer(t, "")

	_, err := v.MoveRobot(mgl32.Vec3{})
	assert.ErrorIs(t, err, ErrNotFound)

	placed, err := v.PlaceRobot(mgl32.Vec3{1, -2, 1}, 30)
	require.NoError(t, err)
	assert.Equal(t, float32(1), placed.Scale)

	size, err := v.IncreaseRobotSize()
	require.NoError(t, err)
	assert.InDelta(t, 1.1, size, 1e-6)
	robot, _ := v.Robot()
	assert.InDelta(t, 1.1, robot.Scale, 1e-6)

	moved, err := v.MoveRobot(mgl32.Vec3{-1, -2, 2})
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{-1, -2, 2}, moved.Position)
	assert.Equal(t, float32(30), moved.YawDeg)
	assert.InDelta(t, 1.1, moved.Scale, 1e-6)

	size, err = v.DecreaseRobotSize()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, size, 1e-6)

	require.NoError(t, v.ClearRobot())
	_, ok := v.Robot()
	assert.False(t, ok)

	// resizing with no robot only changes the mode state
	size, err = v.IncreaseRobotSize()
	require.NoError(t, err)
	assert.InDelta(t, 1.1, size, 1e-6)
}

func TestFrame(t *testing.T) {
	v := newTestViewer(t, "")
	a, err := v.AddAnnotationAt(core.BackWall, mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{0.25, 0.25}, store.SprayArea)
	require.NoError(t, err)
	_, err = v.PlaceRobot(mgl32.Vec3{1, -2, 1}, 0)
	require.NoError(t, err)

	fd := v.Frame()
	assert.True(t, fd.ViewProjection.ApproxEqual(v.Camera().ViewProjectionMatrix()))
	assert.True(t, nearVec3(fd.Eye, mgl32.Vec3{0, 0, 12}, 1e-5))
	assert.False(t, fd.CameraInside)
	assert.False(t, v.Modes().State().CameraInside)

	require.Len(t, fd.Annotations, 1)
	assert.Equal(t, a.ID, fd.Annotations[0].Annotation.ID)
	assert.True(t, nearVec3(fd.Annotations[0].Corners[0], mgl32.Vec3{0, 0, -3.98}, 1e-5))

	require.NotNil(t, fd.Robot)
	origin := fd.Robot.Model.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.True(t, nearVec3(origin, mgl32.Vec3{1, -2, 1}, 1e-5))

	// zoom in until the eye is inside the room
	v.Camera().AdjustZoom(5)
	fd = v.Frame()
	assert.True(t, fd.CameraInside)
	assert.True(t, v.Modes().State().CameraInside)
}

func TestFrameWithoutScene(t *testing.T) {
	v, err := NewViewerBuilder().Build()
	require.NoError(t, err)
	defer v.Close()
	fd := v.Frame()
	assert.Empty(t, fd.Annotations)
	assert.Nil(t, fd.Robot)
}

type failingStore struct{}

var errDiskFull = errors.New("disk full")

func (failingStore) InsertAnnotation(store.Annotation) error  { return errDiskFull }
func (failingStore) Annotations() ([]store.Annotation, error) { return nil, nil }
func (failingStore) DeleteAnnotation(uuid.UUID) error         { return errDiskFull }
func (failingStore) ClearAnnotations() (int64, error)         { return 0, errDiskFull }

func TestStoreFailureSurfacesError(t *testing.T) {
	v, err := NewViewerBuilder().
		WithAnnotationStore(failingStore{}).
		WithScene(testRoom).
		Build()
	require.NoError(t, err)
	defer v.Close()

	_, err = v.AddAnnotationAt(core.Floor, mgl32.Vec2{0.5, 0.5}, mgl32.Vec2{0.1, 0.1}, store.SprayArea)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, "Failed to add annotation: disk full", v.Modes().State().Error)
	assert.Empty(t, v.Annotations())
}
