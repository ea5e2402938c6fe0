package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Config is the resolved viewer configuration.
type Config struct {
	Camera        core.CameraConfig
	SurfaceOffset float32

	// DefaultAnnotationSize is the normalized width and height of an
	// annotation created by a tap.
	DefaultAnnotationSize float32

	// A touch that moves less than TapSlop pixels and lifts within
	// TapMaxDuration is a tap.
	TapSlop        float32
	TapMaxDuration time.Duration

	RobotGrabRadius float32
	RobotSizeMin    float32
	RobotSizeMax    float32
	RobotSizeStep   float32

	// Scans are scaled to fit RoomSize when FitScan is set.
	FitScan  bool
	RoomSize mgl32.Vec3

	DatabasePath string
	Debug        bool
}

func Default() Config {
	return Config{
		Camera:                core.DefaultCameraConfig(),
		SurfaceOffset:         core.DefaultSurfaceOffset,
		DefaultAnnotationSize: 0.15,
		TapSlop:               15,
		TapMaxDuration:        400 * time.Millisecond,
		RobotGrabRadius:       0.5,
		RobotSizeMin:          0.3,
		RobotSizeMax:          3.0,
		RobotSizeStep:         0.1,
		FitScan:               false,
		RoomSize:              mgl32.Vec3{6, 4, 8},
		DatabasePath:          "roomview.db",
	}
}

// File is the on-disk JSON schema. Omitted fields keep their defaults, so
// partial files are fine.
type File struct {
	FovY         *float32    `json:"fov_y,omitempty"`
	Near         *float32    `json:"near,omitempty"`
	Far          *float32    `json:"far,omitempty"`
	Sensitivity  *float32    `json:"rotate_sensitivity,omitempty"`
	PanSpeed     *float32    `json:"pan_speed,omitempty"`
	ZoomMin      *float32    `json:"zoom_min,omitempty"`
	ZoomMax      *float32    `json:"zoom_max,omitempty"`
	BaseDistance *float32    `json:"base_distance,omitempty"`
	ClampPan     *bool       `json:"clamp_pan,omitempty"`
	PanLimits    *[3]float32 `json:"pan_limits,omitempty"`

	SurfaceOffset         *float32 `json:"surface_offset,omitempty"`
	DefaultAnnotationSize *float32 `json:"default_annotation_size,omitempty"`
	TapSlop               *float32 `json:"tap_slop,omitempty"`
	TapMaxDuration        *string  `json:"tap_max_duration,omitempty"` // duration string like "400ms"

	RobotGrabRadius *float32 `json:"robot_grab_radius,omitempty"`
	RobotSizeMin    *float32 `json:"robot_size_min,omitempty"`
	RobotSizeMax    *float32 `json:"robot_size_max,omitempty"`
	RobotSizeStep   *float32 `json:"robot_size_step,omitempty"`

	FitScan  *bool       `json:"fit_scan,omitempty"`
	RoomSize *[3]float32 `json:"room_size,omitempty"`

	DatabasePath *string `json:"database_path,omitempty"`
	Debug        *bool   `json:"debug,omitempty"`
}

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Load reads a JSON config file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg, err := f.Apply(Default())
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Apply overlays the fields set in f onto base.
func (f File) Apply(base Config) (Config, error) {
	c := base
	setf(&c.Camera.FovYDeg, f.FovY)
	setf(&c.Camera.Near, f.Near)
	setf(&c.Camera.Far, f.Far)
	setf(&c.Camera.Sensitivity, f.Sensitivity)
	setf(&c.Camera.PanSpeed, f.PanSpeed)
	setf(&c.Camera.ZoomMin, f.ZoomMin)
	setf(&c.Camera.ZoomMax, f.ZoomMax)
	setf(&c.Camera.BaseDistance, f.BaseDistance)
	if f.ClampPan != nil {
		c.Camera.ClampPan = *f.ClampPan
	}
	if f.PanLimits != nil {
		c.Camera.PanLimits = mgl32.Vec3(*f.PanLimits)
	}

	setf(&c.SurfaceOffset, f.SurfaceOffset)
	setf(&c.DefaultAnnotationSize, f.DefaultAnnotationSize)
	setf(&c.TapSlop, f.TapSlop)
	if f.TapMaxDuration != nil && *f.TapMaxDuration != "" {
		d, err := time.ParseDuration(*f.TapMaxDuration)
		if err != nil {
			return base, fmt.Errorf("invalid tap_max_duration '%s': %w", *f.TapMaxDuration, err)
		}
		c.TapMaxDuration = d
	}

	setf(&c.RobotGrabRadius, f.RobotGrabRadius)
	setf(&c.RobotSizeMin, f.RobotSizeMin)
	setf(&c.RobotSizeMax, f.RobotSizeMax)
	setf(&c.RobotSizeStep, f.RobotSizeStep)

	if f.FitScan != nil {
		c.FitScan = *f.FitScan
	}
	if f.RoomSize != nil {
		c.RoomSize = mgl32.Vec3(*f.RoomSize)
	}
	if f.DatabasePath != nil {
		c.DatabasePath = *f.DatabasePath
	}
	if f.Debug != nil {
		c.Debug = *f.Debug
	}
	return c, nil
}

func setf(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}

func (c Config) Validate() error {
	cam := c.Camera
	if cam.FovYDeg <= 0 || cam.FovYDeg >= 180 {
		return fmt.Errorf("fov_y must be in (0, 180), got %g", cam.FovYDeg)
	}
	if cam.Near <= 0 || cam.Far <= cam.Near {
		return fmt.Errorf("near/far must satisfy 0 < near < far, got %g/%g", cam.Near, cam.Far)
	}
	if cam.ZoomMin <= 0 || cam.ZoomMax < cam.ZoomMin {
		return fmt.Errorf("zoom range must satisfy 0 < min <= max, got [%g, %g]", cam.ZoomMin, cam.ZoomMax)
	}
	if cam.BaseDistance <= 0 {
		return fmt.Errorf("base_distance must be positive, got %g", cam.BaseDistance)
	}
	if cam.Sensitivity <= 0 || cam.PanSpeed <= 0 {
		return fmt.Errorf("rotate_sensitivity and pan_speed must be positive")
	}
	if cam.ClampPan && (cam.PanLimits[0] < 0 || cam.PanLimits[1] < 0 || cam.PanLimits[2] < 0) {
		return fmt.Errorf("pan_limits must be non-negative, got %v", cam.PanLimits)
	}
	if c.SurfaceOffset < 0 {
		return fmt.Errorf("surface_offset must be non-negative, got %g", c.SurfaceOffset)
	}
	if c.DefaultAnnotationSize <= 0 || c.DefaultAnnotationSize > 1 {
		return fmt.Errorf("default_annotation_size must be in (0, 1], got %g", c.DefaultAnnotationSize)
	}
	if c.TapSlop < 0 || c.TapMaxDuration <= 0 {
		return fmt.Errorf("tap_slop must be non-negative and tap_max_duration positive")
	}
	if c.RobotGrabRadius <= 0 {
		return fmt.Errorf("robot_grab_radius must be positive, got %g", c.RobotGrabRadius)
	}
	if c.RobotSizeMin <= 0 || c.RobotSizeMax < c.RobotSizeMin || c.RobotSizeStep <= 0 {
		return fmt.Errorf("robot size range must satisfy 0 < min <= max and step > 0, got [%g, %g] step %g",
			c.RobotSizeMin, c.RobotSizeMax, c.RobotSizeStep)
	}
	if c.FitScan && (c.RoomSize[0] <= 0 || c.RoomSize[1] <= 0 || c.RoomSize[2] <= 0) {
		return fmt.Errorf("room_size must be positive, got %v", c.RoomSize)
	}
	return nil
}
