package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// RobotPlacement is the single robot avatar in the scene. Position is its
// floor contact point in world space.
type RobotPlacement struct {
	ID       int64
	Position mgl32.Vec3
	YawDeg   float32
	Scale    float32
	PlacedAt time.Time
}

func (p RobotPlacement) Transform() core.RobotTransform {
	return core.RobotTransform{Position: p.Position, YawDeg: p.YawDeg, Scale: p.Scale}
}

// ReplaceRobot stores p as the only placement. The assigned id is returned
// in the copy.
func (s *Store) ReplaceRobot(p RobotPlacement) (RobotPlacement, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return p, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM robot_placements`); err != nil {
		return p, fmt.Errorf("clear robot: %w", err)
	}
	res, err := tx.Exec(`
		INSERT INTO robot_placements (x, y, z, yaw, scale, placed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		float64(p.Position.X()), float64(p.Position.Y()), float64(p.Position.Z()),
		float64(p.YawDeg), float64(p.Scale), p.PlacedAt.UnixMilli(),
	)
	if err != nil {
		return p, fmt.Errorf("insert robot: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return p, fmt.Errorf("insert robot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return p, fmt.Errorf("commit: %w", err)
	}
	s.log.Debugf("robot %d at %v", p.ID, p.Position)
	return p, nil
}

// Robot returns the latest placement or ErrNotFound.
func (s *Store) Robot() (RobotPlacement, error) {
	var (
		p          RobotPlacement
		x, y, z    float64
		yaw, scale float64
		placedAt   int64
	)
	err := s.db.QueryRow(`
		SELECT id, x, y, z, yaw, scale, placed_at FROM robot_placements
		ORDER BY placed_at DESC, id DESC LIMIT 1`,
	).Scan(&p.ID, &x, &y, &z, &yaw, &scale, &placedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RobotPlacement{}, fmt.Errorf("robot: %w", ErrNotFound)
	}
	if err != nil {
		return RobotPlacement{}, fmt.Errorf("query robot: %w", err)
	}
	p.Position = mgl32.Vec3{float32(x), float32(y), float32(z)}
	p.YawDeg = float32(yaw)
	p.Scale = float32(scale)
	p.PlacedAt = time.UnixMilli(placedAt)
	return p, nil
}

func (s *Store) ClearRobot() error {
	if _, err := s.db.Exec(`DELETE FROM robot_placements`); err != nil {
		return fmt.Errorf("clear robot: %w", err)
	}
	return nil
}
