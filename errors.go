package roomview

import (
	"errors"

	"github.com/gekko3d/roomview/viewrt/store"
)

var (
	ErrNoScene    = errors.New("roomview: no scene loaded")
	ErrNoHit      = errors.New("roomview: ray did not hit a surface")
	ErrNotFloor   = errors.New("roomview: the robot can only stand on the floor")
	ErrOutOfRange = errors.New("roomview: value out of range")
	ErrNotFound   = store.ErrNotFound
)
