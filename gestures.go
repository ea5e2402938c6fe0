package roomview

import (
	"math"
	"sync"
	"time"

	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/store"
)

type TouchAction uint8

const (
	TouchDown TouchAction = iota
	TouchPointerDown
	TouchMove
	TouchPointerUp
	TouchUp
	TouchCancel
)

type TouchPoint struct {
	ID   int
	X, Y float32
}

// TouchEvent is one sample from the touch screen, in viewport pixels. Points
// holds every pointer in contact after the event; for TouchUp it holds the
// last pointer's final position.
type TouchEvent struct {
	Action TouchAction
	Points []TouchPoint
	Time   time.Time
}

type GestureKind uint8

const (
	GestureNone GestureKind = iota
	GestureRotate
	GesturePan
	GestureZoom
	GestureTap
	GestureRobotDragStart
	GestureRobotDrag
	GestureRobotDragEnd
)

func (k GestureKind) String() string {
	switch k {
	case GestureRotate:
		return "rotate"
	case GesturePan:
		return "pan"
	case GestureZoom:
		return "zoom"
	case GestureTap:
		return "tap"
	case GestureRobotDragStart:
		return "robot-drag-start"
	case GestureRobotDrag:
		return "robot-drag"
	case GestureRobotDragEnd:
		return "robot-drag-end"
	}
	return "none"
}

// GestureResult reports what an event did. Annotation and Robot are set when
// a tap or drag changed them.
type GestureResult struct {
	Kind       GestureKind
	Hit        core.RayHit
	Annotation *store.Annotation
	Robot      *store.RobotPlacement
	Err        error
}

// Gestures turns raw touch samples into camera moves, taps and robot drags.
type Gestures struct {
	viewer *Viewer
	log    Logger

	mu       sync.Mutex
	down     TouchPoint
	downAt   time.Time
	last     map[int]TouchPoint
	tap      bool
	dragging bool
}

func NewGestures(v *Viewer) *Gestures {
	return &Gestures{
		viewer: v,
		log:    ComponentLogger(v.Logger(), "gestures"),
		last:   make(map[int]TouchPoint),
	}
}

func (g *Gestures) Handle(ev TouchEvent) GestureResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch ev.Action {
	case TouchDown:
		return g.onDown(ev)
	case TouchPointerDown:
		// a second finger is never a tap
		g.tap = false
		g.track(ev.Points)
	case TouchMove:
		return g.onMove(ev)
	case TouchPointerUp:
		g.track(ev.Points)
	case TouchUp:
		return g.onUp(ev)
	case TouchCancel:
		g.reset()
	}
	return GestureResult{}
}

// Pinch applies a pinch scale factor to the zoom. Non-positive or
// non-finite factors are ignored.
func (g *Gestures) Pinch(scale float32) GestureResult {
	if !(scale > 0) || math.IsInf(float64(scale), 0) {
		return GestureResult{}
	}
	g.viewer.Camera().AdjustZoom(scale)
	return GestureResult{Kind: GestureZoom}
}

func (g *Gestures) reset() {
	g.tap = false
	g.dragging = false
	g.last = make(map[int]TouchPoint)
}

func (g *Gestures) track(points []TouchPoint) {
	g.last = make(map[int]TouchPoint, len(points))
	for _, p := range points {
		g.last[p.ID] = p
	}
}

func (g *Gestures) onDown(ev TouchEvent) GestureResult {
	g.reset()
	if len(ev.Points) == 0 {
		return GestureResult{}
	}
	g.down = ev.Points[0]
	g.downAt = ev.Time
	g.tap = true
	g.track(ev.Points)

	robot, ok := g.viewer.Robot()
	if !ok {
		return GestureResult{}
	}
	hit, err := g.viewer.Cast(g.down.X, g.down.Y)
	if err != nil || !hit.Hit || hit.Surface != core.Floor {
		return GestureResult{}
	}
	if robot.Transform().Grabs(hit.World, g.viewer.Config().RobotGrabRadius) {
		g.dragging = true
		return GestureResult{Kind: GestureRobotDragStart, Hit: hit, Robot: &robot}
	}
	return GestureResult{}
}

func (g *Gestures) onMove(ev TouchEvent) GestureResult {
	if len(ev.Points) == 0 {
		return GestureResult{}
	}

	if g.dragging {
		p := ev.Points[0]
		hit, err := g.viewer.Cast(p.X, p.Y)
		if err != nil || !hit.Hit || hit.Surface != core.Floor {
			return GestureResult{Kind: GestureRobotDrag, Hit: hit}
		}
		moved, err := g.viewer.MoveRobot(hit.World)
		if err != nil {
			return GestureResult{Kind: GestureRobotDrag, Hit: hit, Err: err}
		}
		return GestureResult{Kind: GestureRobotDrag, Hit: hit, Robot: &moved}
	}

	slop := g.viewer.Config().TapSlop
	if p, ok := find(ev.Points, g.down.ID); ok {
		if abs(p.X-g.down.X) > slop || abs(p.Y-g.down.Y) > slop {
			g.tap = false
		}
	}

	// While a mode is active a touch that may still be a tap leaves the
	// camera alone.
	st := g.viewer.Modes().State()
	if g.tap && (st.AnnotationMode || st.RobotPlacementMode) {
		g.track(ev.Points)
		return GestureResult{}
	}

	var dx, dy float32
	n := 0
	for _, p := range ev.Points {
		if prev, ok := g.last[p.ID]; ok {
			dx += p.X - prev.X
			dy += p.Y - prev.Y
			n++
		}
	}
	g.track(ev.Points)
	if n == 0 {
		return GestureResult{}
	}

	cam := g.viewer.Camera()
	if len(ev.Points) == 1 {
		cam.Rotate(dx, dy)
		return GestureResult{Kind: GestureRotate}
	}
	cam.Pan(dx/float32(n), -dy/float32(n))
	return GestureResult{Kind: GesturePan}
}

func (g *Gestures) onUp(ev TouchEvent) GestureResult {
	defer g.reset()

	if g.dragging {
		robot, ok := g.viewer.Robot()
		if !ok {
			// cleared while dragging
			return GestureResult{Kind: GestureRobotDragEnd}
		}
		g.log.Infof("robot moved to (%.3f, %.3f, %.3f)", robot.Position[0], robot.Position[1], robot.Position[2])
		return GestureResult{Kind: GestureRobotDragEnd, Robot: &robot}
	}

	up := g.down
	if len(ev.Points) > 0 {
		up = ev.Points[0]
	}
	cfg := g.viewer.Config()
	if abs(up.X-g.down.X) > cfg.TapSlop || abs(up.Y-g.down.Y) > cfg.TapSlop {
		g.tap = false
	}
	if !g.tap || ev.Time.Sub(g.downAt) >= cfg.TapMaxDuration {
		return GestureResult{}
	}
	return g.onTap(up)
}

func (g *Gestures) onTap(p TouchPoint) GestureResult {
	st := g.viewer.Modes().State()
	hit, err := g.viewer.Cast(p.X, p.Y)
	res := GestureResult{Kind: GestureTap, Hit: hit}
	if err != nil {
		res.Err = err
		return res
	}

	switch {
	case st.RobotPlacementMode:
		if !hit.Hit || hit.Surface != core.Floor {
			g.viewer.Modes().SetError("Tap on the floor to place robot")
			res.Err = ErrNotFloor
			return res
		}
		placed, err := g.viewer.PlaceRobot(hit.World, 0)
		if err != nil {
			res.Err = err
			return res
		}
		g.viewer.Modes().SetRobotPlacementMode(false)
		res.Robot = &placed

	case st.AnnotationMode:
		if !hit.Hit {
			return res
		}
		a, err := g.viewer.AddAnnotation(hit)
		if err != nil {
			res.Err = err
			return res
		}
		res.Annotation = &a
	}
	return res
}

func find(points []TouchPoint, id int) (TouchPoint, bool) {
	for _, p := range points {
		if p.ID == id {
			return p, true
		}
	}
	return TouchPoint{}, false
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
