package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gekko3d/roomview"
	"github.com/gekko3d/roomview/viewrt/config"
	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/scan"
	"github.com/spf13/cobra"
)

// sceneFlags select the scene and viewport for commands that cast rays.
type sceneFlags struct {
	scan   string
	upAxis bool
	width  int
	height int
	yaw    float32
	pitch  float32
	zoom   float32
}

func (s *sceneFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.scan, "scan", "", "PLY scan whose bounds form the room (default: the configured room size)")
	f.BoolVar(&s.upAxis, "up-axis", false, "convert the scan from Z-up to Y-up")
	f.IntVar(&s.width, "width", 1000, "viewport width in pixels")
	f.IntVar(&s.height, "height", 800, "viewport height in pixels")
	f.Float32Var(&s.yaw, "yaw", 0, "camera yaw in degrees")
	f.Float32Var(&s.pitch, "pitch", 0, "camera pitch in degrees")
	f.Float32Var(&s.zoom, "zoom", 1, "camera zoom factor")
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// openViewer builds a viewer over the configured database. With scene set
// it also loads the room and poses the camera.
func openViewer(scene *sceneFlags) (*roomview.Viewer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var log roomview.Logger = roomview.NewNopLogger()
	if cfg.Debug {
		log = roomview.NewWriterLogger(os.Stderr, os.Stderr, "roomview", true)
	}

	b := roomview.NewViewerBuilder().
		WithConfig(cfg).
		WithLogger(log).
		WithDatabase(cfg.DatabasePath)
	if scene != nil {
		b.WithViewport(scene.width, scene.height)
		if scene.scan == "" {
			b.WithScene(core.VolumeFromSize(cfg.RoomSize[0], cfg.RoomSize[1], cfg.RoomSize[2]))
		}
	}

	v, err := b.Build()
	if err != nil {
		return nil, err
	}
	if scene == nil {
		return v, nil
	}

	if scene.scan != "" {
		if _, err := v.LoadScan(scene.scan, scan.Options{FixUpAxis: scene.upAxis}); err != nil {
			v.Close()
			return nil, err
		}
	}

	// Rotate takes pixel deltas scaled by the sensitivity.
	cam := v.Camera()
	sens := cfg.Camera.Sensitivity
	cam.Rotate(scene.yaw/sens, scene.pitch/sens)
	if scene.zoom > 0 && scene.zoom != 1 {
		cam.AdjustZoom(scene.zoom)
	}
	return v, nil
}

func parseFloats(args []string) ([]float32, error) {
	out := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(strings.TrimSpace(a), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = float32(f)
	}
	return out, nil
}
