package roomview

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gekko3d/roomview/viewrt/config"
	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/scan"
	"github.com/gekko3d/roomview/viewrt/store"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type AnnotationStore interface {
	InsertAnnotation(a store.Annotation) error
	Annotations() ([]store.Annotation, error)
	DeleteAnnotation(id uuid.UUID) error
	ClearAnnotations() (int64, error)
}

type RobotStore interface {
	ReplaceRobot(p store.RobotPlacement) (store.RobotPlacement, error)
	Robot() (store.RobotPlacement, error)
	ClearRobot() error
}

// Viewer ties the camera, the ray caster and persistence together for one
// loaded scene. It is safe for concurrent use: input handlers mutate it
// while the render loop calls Frame.
type Viewer struct {
	cfg    config.Config
	log    Logger
	camera *core.Camera
	modes  *Modes

	annotationStore AnnotationStore
	robotStore      RobotStore
	closers         []io.Closer

	mu          sync.RWMutex
	scene       core.BoundingVolume
	hasScene    bool
	mapper      *core.CoordinateMapper
	caster      *core.RayCaster
	width       int
	height      int
	annotations []store.Annotation
	robot       *store.RobotPlacement

	now func() time.Time
}

func (v *Viewer) Config() config.Config { return v.cfg }
func (v *Viewer) Logger() Logger        { return v.log }
func (v *Viewer) Camera() *core.Camera  { return v.camera }
func (v *Viewer) Modes() *Modes         { return v.modes }

// Close releases stores the viewer opened itself.
func (v *Viewer) Close() error {
	var errs []error
	for _, c := range v.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	v.closers = nil
	return errors.Join(errs...)
}

// LoadScene installs the room volume, rebuilding the mapper and ray caster,
// and moves the pan target to its centre. With FitScan the volume is first
// scaled into the configured room size.
func (v *Viewer) LoadScene(vol core.BoundingVolume) error {
	if vol.Empty() {
		return fmt.Errorf("load scene %v: %w", vol, ErrNoScene)
	}
	if v.cfg.FitScan {
		var scale float32
		vol, scale = vol.Fit(v.cfg.RoomSize)
		v.log.Debugf("scene scaled by %.4f to fit %v", scale, v.cfg.RoomSize)
	}

	mapper := core.NewCoordinateMapper(vol, v.cfg.SurfaceOffset)
	v.mu.Lock()
	v.scene = vol
	v.hasScene = true
	v.mapper = mapper
	v.caster = core.NewRayCaster(mapper)
	v.mu.Unlock()

	v.camera.SetTarget(vol.Center())
	v.log.Infof("scene loaded: %s", vol)
	return nil
}

// LoadScan reads a PLY scan and loads its bounds as the scene.
func (v *Viewer) LoadScan(path string, opts scan.Options) (*scan.Cloud, error) {
	cloud, err := scan.LoadPLYFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("load scan %s: %w", path, err)
	}
	v.log.Infof("scan %s: %d vertices (%s)", path, cloud.VertexCount, cloud.Format)
	if err := v.LoadScene(cloud.Bounds); err != nil {
		return nil, err
	}
	return cloud, nil
}

func (v *Viewer) Scene() (core.BoundingVolume, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scene, v.hasScene
}

func (v *Viewer) Mapper() (*core.CoordinateMapper, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mapper, v.mapper != nil
}

// Resize records the viewport and rebuilds the camera projection.
func (v *Viewer) Resize(width, height int) {
	v.mu.Lock()
	v.width, v.height = width, height
	v.mu.Unlock()
	v.camera.SetProjection(width, height)
}

func (v *Viewer) Viewport() (width, height int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

// Cast returns the surface under a screen pixel of the current viewport.
func (v *Viewer) Cast(x, y float32) (core.RayHit, error) {
	v.mu.RLock()
	caster, w, h := v.caster, v.width, v.height
	v.mu.RUnlock()
	if caster == nil {
		return core.RayHit{}, ErrNoScene
	}
	return caster.CastRay(x, y, w, h, v.camera), nil
}

// AddAnnotation creates an annotation of the selected type and default size
// with its top-left corner at the hit point.
func (v *Viewer) AddAnnotation(hit core.RayHit) (store.Annotation, error) {
	if !hit.Hit {
		return store.Annotation{}, ErrNoHit
	}
	size := v.cfg.DefaultAnnotationSize
	return v.AddAnnotationAt(hit.Surface, hit.Normalized, mgl32.Vec2{size, size}, v.modes.State().SelectedType)
}

func (v *Viewer) AddAnnotationAt(surface core.Surface, pos, size mgl32.Vec2, typ store.AnnotationType) (store.Annotation, error) {
	if !surface.Valid() {
		return store.Annotation{}, fmt.Errorf("surface %s: %w", surface, ErrOutOfRange)
	}
	if !unit(pos[0]) || !unit(pos[1]) {
		return store.Annotation{}, fmt.Errorf("position %v outside [0,1]: %w", pos, ErrOutOfRange)
	}
	if !(size[0] > 0 && size[0] <= 1) || !(size[1] > 0 && size[1] <= 1) {
		return store.Annotation{}, fmt.Errorf("size %v outside (0,1]: %w", size, ErrOutOfRange)
	}

	a := store.Annotation{
		ID:        uuid.New(),
		Type:      typ,
		Surface:   surface,
		Position:  pos,
		Size:      size,
		CreatedAt: v.now(),
	}
	if err := v.annotationStore.InsertAnnotation(a); err != nil {
		return store.Annotation{}, v.fail("Failed to add annotation", err)
	}

	v.mu.Lock()
	v.annotations = append([]store.Annotation{a}, v.annotations...)
	v.mu.Unlock()
	v.log.Infof("annotation %s added: %s on %s at (%.3f, %.3f)", a.ID, a.Type, a.Surface, pos[0], pos[1])
	return a, nil
}

func (v *Viewer) DeleteAnnotation(id uuid.UUID) error {
	if err := v.annotationStore.DeleteAnnotation(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return v.fail("Failed to delete annotation", err)
	}

	v.mu.Lock()
	for i, a := range v.annotations {
		if a.ID == id {
			v.annotations = append(v.annotations[:i:i], v.annotations[i+1:]...)
			break
		}
	}
	v.mu.Unlock()
	v.log.Infof("annotation %s deleted", id)
	return nil
}

func (v *Viewer) ClearAnnotations() (int64, error) {
	n, err := v.annotationStore.ClearAnnotations()
	if err != nil {
		return 0, v.fail("Failed to clear annotations", err)
	}
	v.mu.Lock()
	v.annotations = nil
	v.mu.Unlock()
	v.log.Infof("%d annotations cleared", n)
	return n, nil
}

// Annotations returns the cached annotations, newest first.
func (v *Viewer) Annotations() []store.Annotation {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]store.Annotation(nil), v.annotations...)
}

func (v *Viewer) AnnotationsOn(surface core.Surface) []store.Annotation {
	var out []store.Annotation
	for _, a := range v.Annotations() {
		if a.Surface == surface {
			out = append(out, a)
		}
	}
	return out
}

// PlaceRobot replaces the robot placement, sized from the current mode state.
func (v *Viewer) PlaceRobot(world mgl32.Vec3, yawDeg float32) (store.RobotPlacement, error) {
	return v.saveRobot(store.RobotPlacement{
		Position: world,
		YawDeg:   yawDeg,
		Scale:    v.modes.State().RobotSize,
		PlacedAt: v.now(),
	}, "Failed to place robot")
}

// MoveRobot keeps the robot's rotation and scale and changes its position.
func (v *Viewer) MoveRobot(world mgl32.Vec3) (store.RobotPlacement, error) {
	cur, ok := v.Robot()
	if !ok {
		return store.RobotPlacement{}, fmt.Errorf("move robot: %w", ErrNotFound)
	}
	cur.Position = world
	cur.PlacedAt = v.now()
	return v.saveRobot(cur, "Failed to move robot")
}

func (v *Viewer) ClearRobot() error {
	if err := v.robotStore.ClearRobot(); err != nil {
		return v.fail("Failed to clear robot", err)
	}
	v.mu.Lock()
	v.robot = nil
	v.mu.Unlock()
	v.log.Infof("robot cleared")
	return nil
}

func (v *Viewer) Robot() (store.RobotPlacement, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.robot == nil {
		return store.RobotPlacement{}, false
	}
	return *v.robot, true
}

func (v *Viewer) IncreaseRobotSize() (float32, error) {
	return v.resizeRobot(v.modes.IncreaseRobotSize())
}

func (v *Viewer) DecreaseRobotSize() (float32, error) {
	return v.resizeRobot(v.modes.DecreaseRobotSize())
}

// resizeRobot applies a new size to a placed robot.
func (v *Viewer) resizeRobot(size float32) (float32, error) {
	cur, ok := v.Robot()
	if !ok || cur.Scale == size {
		return size, nil
	}
	cur.Scale = size
	if _, err := v.saveRobot(cur, "Failed to resize robot"); err != nil {
		return size, err
	}
	return size, nil
}

func (v *Viewer) saveRobot(p store.RobotPlacement, failMsg string) (store.RobotPlacement, error) {
	saved, err := v.robotStore.ReplaceRobot(p)
	if err != nil {
		return store.RobotPlacement{}, v.fail(failMsg, err)
	}
	v.mu.Lock()
	v.robot = &saved
	v.mu.Unlock()
	v.log.Debugf("robot at (%.3f, %.3f, %.3f) yaw %.1f scale %.2f",
		saved.Position[0], saved.Position[1], saved.Position[2], saved.YawDeg, saved.Scale)
	return saved, nil
}

// Reload refreshes the cached annotations and robot from the stores.
func (v *Viewer) Reload() error {
	anns, err := v.annotationStore.Annotations()
	if err != nil {
		return fmt.Errorf("load annotations: %w", err)
	}
	var robot *store.RobotPlacement
	p, err := v.robotStore.Robot()
	switch {
	case err == nil:
		robot = &p
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("load robot: %w", err)
	}

	v.mu.Lock()
	v.annotations = anns
	v.robot = robot
	v.mu.Unlock()
	v.log.Debugf("reloaded %d annotations, robot placed: %v", len(anns), robot != nil)
	return nil
}

// fail logs err and surfaces msg to the UI through the mode state.
func (v *Viewer) fail(msg string, err error) error {
	v.log.Errorf("%s: %v", msg, err)
	v.modes.SetError(fmt.Sprintf("%s: %v", msg, err))
	return err
}

func unit(x float32) bool {
	return x >= 0 && x <= 1
}
