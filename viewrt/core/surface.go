package core

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Surface identifies one of the six axis-aligned faces of a BoundingVolume.
type Surface uint8

const (
	Floor Surface = iota
	Ceiling
	BackWall
	FrontWall
	LeftWall
	RightWall
)

// Surfaces lists every surface in ray evaluation order. On an exact distance
// tie the surface listed first wins.
var Surfaces = [6]Surface{BackWall, FrontWall, LeftWall, RightWall, Floor, Ceiling}

var surfaceNames = [...]string{
	Floor:     "FLOOR",
	Ceiling:   "CEILING",
	BackWall:  "BACK_WALL",
	FrontWall: "FRONT_WALL",
	LeftWall:  "LEFT_WALL",
	RightWall: "RIGHT_WALL",
}

func (s Surface) String() string {
	if int(s) < len(surfaceNames) {
		return surfaceNames[s]
	}
	return fmt.Sprintf("Surface(%d)", uint8(s))
}

// Label is the human readable name drawn on the surface ("BACK WALL").
func (s Surface) Label() string {
	return strings.ReplaceAll(s.String(), "_", " ")
}

func (s Surface) Valid() bool {
	return int(s) < len(surfaceNames)
}

// ParseSurface accepts the persisted names ("BACK_WALL") case-insensitively,
// with '-' or ' ' in place of '_'.
func ParseSurface(name string) (Surface, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for i, n := range surfaceNames {
		if n == key {
			return Surface(i), nil
		}
	}
	return 0, fmt.Errorf("unknown surface %q", name)
}

// axes returns the index of the plane normal axis followed by the world axes
// that map to normalized x and y on the surface.
func (s Surface) axes() (normal, u, v int) {
	switch s {
	case Floor, Ceiling:
		return 1, 0, 2
	case BackWall, FrontWall:
		return 2, 0, 1
	default:
		return 0, 2, 1
	}
}

// positive reports whether the surface sits on the max side of its axis.
func (s Surface) positive() bool {
	return s == Ceiling || s == FrontWall || s == RightWall
}

// InwardNormal points from the surface into the volume.
func (s Surface) InwardNormal() mgl32.Vec3 {
	var n mgl32.Vec3
	axis, _, _ := s.axes()
	if s.positive() {
		n[axis] = -1
	} else {
		n[axis] = 1
	}
	return n
}
