package core

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraConfig struct {
	FovYDeg float32
	Near    float32
	Far     float32

	// Sensitivity scales rotate deltas (pixels) into degrees.
	Sensitivity float32
	// PanSpeed scales pan deltas (pixels) into world units.
	PanSpeed float32

	ZoomMin float32
	ZoomMax float32

	// BaseDistance is the eye distance from the pan target at zoom 1.
	BaseDistance float32

	// ClampPan keeps the pan target inside ±PanLimits. Scans with an arbitrary
	// extent usually run with it off.
	ClampPan  bool
	PanLimits mgl32.Vec3
}

func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		FovYDeg:      60,
		Near:         1,
		Far:          50,
		Sensitivity:  0.5,
		PanSpeed:     0.01,
		ZoomMin:      0.3,
		ZoomMax:      5.0,
		BaseDistance: 12,
		ClampPan:     false,
		PanLimits:    mgl32.Vec3{5, 3, 6},
	}
}

// CameraState is a snapshot of the orbit parameters. Angles are degrees.
type CameraState struct {
	Yaw    float32
	Pitch  float32
	Zoom   float32
	Target mgl32.Vec3
}

// Camera orbits a pan target. Input goroutines mutate it while the render
// loop reads it, so every accessor takes the lock and derived matrices are
// rebuilt on each call.
type Camera struct {
	mu    sync.RWMutex
	cfg   CameraConfig
	state CameraState
	proj  mgl32.Mat4
}

func NewCamera(cfg CameraConfig) *Camera {
	c := &Camera{
		cfg:  cfg,
		proj: mgl32.Ident4(),
	}
	c.state = defaultCameraState()
	return c
}

func defaultCameraState() CameraState {
	return CameraState{Yaw: 0, Pitch: 0, Zoom: 1, Target: mgl32.Vec3{}}
}

func (c *Camera) Config() CameraConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *Camera) State() CameraState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetProjection rebuilds the perspective for a viewport. Both dimensions must
// be positive; a zero height yields a singular matrix and rays miss.
func (c *Camera) SetProjection(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	aspect := float32(width) / float32(height)
	c.proj = mgl32.Perspective(mgl32.DegToRad(c.cfg.FovYDeg), aspect, c.cfg.Near, c.cfg.Far)
}

func (c *Camera) Rotate(deltaYaw, deltaPitch float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Yaw += deltaYaw * c.cfg.Sensitivity
	c.state.Pitch += deltaPitch * c.cfg.Sensitivity

	// Clamp pitch
	if c.state.Pitch > 89.0 {
		c.state.Pitch = 89.0
	}
	if c.state.Pitch < -89.0 {
		c.state.Pitch = -89.0
	}
}

// AdjustZoom multiplies the zoom factor. scale must be positive.
func (c *Camera) AdjustZoom(scale float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Zoom = mgl32.Clamp(c.state.Zoom*scale, c.cfg.ZoomMin, c.cfg.ZoomMax)
}

// Pan slides the target on the horizontal plane: deltaX along the camera's
// right vector (content follows the finger) and deltaY along its forward
// vector.
func (c *Camera) Pan(deltaX, deltaY float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	right, forward := c.groundBasis()
	move := right.Mul(-deltaX).Add(forward.Mul(deltaY)).Mul(c.cfg.PanSpeed)
	t := c.state.Target.Add(move)
	if c.cfg.ClampPan {
		l := c.cfg.PanLimits
		t = mgl32.Vec3{
			mgl32.Clamp(t[0], -l[0], l[0]),
			mgl32.Clamp(t[1], -l[1], l[1]),
			mgl32.Clamp(t[2], -l[2], l[2]),
		}
	}
	c.state.Target = t
}

// SetTarget moves the pan target, e.g. to a scene centre once a scan loads.
// The pan clamp does not apply.
func (c *Camera) SetTarget(t mgl32.Vec3) {
	c.mu.Lock()
	c.state.Target = t
	c.mu.Unlock()
}

func (c *Camera) ResetToDefault() {
	c.mu.Lock()
	c.state = defaultCameraState()
	c.mu.Unlock()
}

func (c *Camera) Eye() mgl32.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.eye()
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return mgl32.LookAtV(c.eye(), c.state.Target, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proj
}

// ViewProjectionMatrix is proj * view for the current state.
func (c *Camera) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	view := mgl32.LookAtV(c.eye(), c.state.Target, mgl32.Vec3{0, 1, 0})
	return c.proj.Mul4(view)
}

// IsInsideVolume is boundary-inclusive on all three axes.
func (c *Camera) IsInsideVolume(v BoundingVolume) bool {
	return v.Contains(c.Eye())
}

func (c *Camera) eye() mgl32.Vec3 {
	dist := c.cfg.BaseDistance / c.state.Zoom
	yaw := float64(mgl32.DegToRad(c.state.Yaw))
	pitch := float64(mgl32.DegToRad(c.state.Pitch))
	offset := mgl32.Vec3{
		dist * float32(math.Sin(yaw)*math.Cos(pitch)),
		dist * float32(math.Sin(pitch)),
		dist * float32(math.Cos(yaw)*math.Cos(pitch)),
	}
	return c.state.Target.Add(offset)
}

// groundBasis returns the horizontal right and forward vectors for the
// current yaw.
func (c *Camera) groundBasis() (right, forward mgl32.Vec3) {
	yaw := float64(mgl32.DegToRad(c.state.Yaw))
	s, co := float32(math.Sin(yaw)), float32(math.Cos(yaw))
	right = mgl32.Vec3{co, 0, -s}
	forward = mgl32.Vec3{-s, 0, -co}
	return right, forward
}
