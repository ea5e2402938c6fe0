package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type AnnotationType uint8

const (
	SprayArea AnnotationType = iota
	SandArea
	Obstacle
)

var AnnotationTypes = [...]AnnotationType{SprayArea, SandArea, Obstacle}

var annotationTypeNames = [...]string{
	SprayArea: "SPRAY_AREA",
	SandArea:  "SAND_AREA",
	Obstacle:  "OBSTACLE",
}

func (t AnnotationType) String() string {
	if int(t) < len(annotationTypeNames) {
		return annotationTypeNames[t]
	}
	return fmt.Sprintf("AnnotationType(%d)", uint8(t))
}

// Label is the text drawn on an annotation ("SPRAY AREA").
func (t AnnotationType) Label() string {
	return strings.ReplaceAll(t.String(), "_", " ")
}

func ParseAnnotationType(name string) (AnnotationType, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for i, n := range annotationTypeNames {
		if n == key || strings.TrimSuffix(n, "_AREA") == key {
			return AnnotationType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown annotation type %q", name)
}

// Annotation is a rectangle on one surface. Position is the top-left corner
// and Size the extent, both in normalized surface coordinates.
type Annotation struct {
	ID        uuid.UUID
	Type      AnnotationType
	Surface   core.Surface
	Position  mgl32.Vec2
	Size      mgl32.Vec2
	CreatedAt time.Time
}

func (s *Store) InsertAnnotation(a Annotation) error {
	if a.ID == uuid.Nil {
		return fmt.Errorf("insert annotation: nil id")
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO annotations (id, type, surface, x, y, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Type.String(), a.Surface.String(),
		float64(a.Position.X()), float64(a.Position.Y()),
		float64(a.Size.X()), float64(a.Size.Y()),
		a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert annotation %s: %w", a.ID, err)
	}
	s.log.Debugf("saved %s annotation %s on %s", a.Type, a.ID, a.Surface)
	return nil
}

const annotationColumns = `id, type, surface, x, y, width, height, created_at`

// Annotations returns every annotation, newest first.
func (s *Store) Annotations() ([]Annotation, error) {
	rows, err := s.db.Query(`SELECT ` + annotationColumns + ` FROM annotations
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	return scanAnnotations(rows)
}

func (s *Store) AnnotationsBySurface(surface core.Surface) ([]Annotation, error) {
	rows, err := s.db.Query(`SELECT `+annotationColumns+` FROM annotations
		WHERE surface = ? ORDER BY created_at DESC, rowid DESC`, surface.String())
	if err != nil {
		return nil, fmt.Errorf("query %s annotations: %w", surface, err)
	}
	return scanAnnotations(rows)
}

func (s *Store) Annotation(id uuid.UUID) (Annotation, error) {
	rows, err := s.db.Query(`SELECT `+annotationColumns+` FROM annotations WHERE id = ?`, id.String())
	if err != nil {
		return Annotation{}, fmt.Errorf("query annotation %s: %w", id, err)
	}
	out, err := scanAnnotations(rows)
	if err != nil {
		return Annotation{}, err
	}
	if len(out) == 0 {
		return Annotation{}, fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}
	return out[0], nil
}

func (s *Store) DeleteAnnotation(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM annotations WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete annotation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete annotation %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}
	s.log.Debugf("deleted annotation %s", id)
	return nil
}

// ClearAnnotations removes every annotation and returns how many there were.
func (s *Store) ClearAnnotations() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM annotations`)
	if err != nil {
		return 0, fmt.Errorf("clear annotations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear annotations: %w", err)
	}
	s.log.Debugf("cleared %d annotations", n)
	return n, nil
}

func scanAnnotations(rows *sql.Rows) ([]Annotation, error) {
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		var (
			id, typ, surface string
			x, y, w, h       float64
			created          int64
		)
		if err := rows.Scan(&id, &typ, &surface, &x, &y, &w, &h, &created); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}

		a := Annotation{
			Position:  mgl32.Vec2{float32(x), float32(y)},
			Size:      mgl32.Vec2{float32(w), float32(h)},
			CreatedAt: time.UnixMilli(created),
		}
		var err error
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("annotation id %q: %w", id, err)
		}
		if a.Type, err = ParseAnnotationType(typ); err != nil {
			return nil, fmt.Errorf("annotation %s: %w", id, err)
		}
		if a.Surface, err = core.ParseSurface(surface); err != nil {
			return nil, fmt.Errorf("annotation %s: %w", id, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}
	return out, nil
}
