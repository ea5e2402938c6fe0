package roomview

import (
	"fmt"
	"io"
	"time"

	"github.com/gekko3d/roomview/viewrt/config"
	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/store"
)

// Module configures part of a viewer before it is built.
type Module interface {
	Install(b *ViewerBuilder)
}

type ViewerBuilder struct {
	cfg         *config.Config
	logger      Logger
	annotations AnnotationStore
	robots      RobotStore
	dbPath      string
	scene       *core.BoundingVolume
	width       int
	height      int
	clock       func() time.Time
	modules     []Module
}

func NewViewerBuilder() *ViewerBuilder {
	return &ViewerBuilder{}
}

func (b *ViewerBuilder) UseModule(modules ...Module) *ViewerBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *ViewerBuilder) WithConfig(cfg config.Config) *ViewerBuilder {
	if b.cfg != nil {
		panic("config is already set")
	}
	b.cfg = &cfg
	return b
}

func (b *ViewerBuilder) WithLogger(l Logger) *ViewerBuilder {
	if b.logger != nil {
		panic("logger is already set")
	}
	b.logger = l
	return b
}

// WithStore uses s for both annotations and the robot placement. The caller
// keeps ownership and closes it.
func (b *ViewerBuilder) WithStore(s *store.Store) *ViewerBuilder {
	return b.WithAnnotationStore(s).WithRobotStore(s)
}

func (b *ViewerBuilder) WithAnnotationStore(s AnnotationStore) *ViewerBuilder {
	if b.annotations != nil {
		panic("annotation store is already set")
	}
	b.annotations = s
	return b
}

func (b *ViewerBuilder) WithRobotStore(s RobotStore) *ViewerBuilder {
	if b.robots != nil {
		panic("robot store is already set")
	}
	b.robots = s
	return b
}

// WithDatabase makes Build open a SQLite store at path for any store not set
// explicitly. The viewer closes it.
func (b *ViewerBuilder) WithDatabase(path string) *ViewerBuilder {
	b.dbPath = path
	return b
}

func (b *ViewerBuilder) WithScene(vol core.BoundingVolume) *ViewerBuilder {
	b.scene = &vol
	return b
}

func (b *ViewerBuilder) WithViewport(width, height int) *ViewerBuilder {
	b.width, b.height = width, height
	return b
}

func (b *ViewerBuilder) WithClock(now func() time.Time) *ViewerBuilder {
	b.clock = now
	return b
}

// Build installs the modules, opens missing stores and loads persisted state.
// Without a database path or explicit stores an in-memory database is used.
func (b *ViewerBuilder) Build() (*Viewer, error) {
	for _, m := range b.modules {
		m.Install(b)
	}

	cfg := config.Default()
	if b.cfg != nil {
		cfg = *b.cfg
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := LoggerOrNop(b.logger)
	if cfg.Debug {
		log.SetDebug(true)
	}

	v := &Viewer{
		cfg:             cfg,
		log:             log,
		camera:          core.NewCamera(cfg.Camera),
		modes:           NewModes(cfg.RobotSizeMin, cfg.RobotSizeMax, cfg.RobotSizeStep),
		annotationStore: b.annotations,
		robotStore:      b.robots,
		now:             b.clock,
	}
	if v.now == nil {
		v.now = time.Now
	}

	if v.annotationStore == nil || v.robotStore == nil {
		path := b.dbPath
		if path == "" {
			path = ":memory:"
		}
		s, err := store.Open(path, store.WithLogger(ComponentLogger(log, "store")))
		if err != nil {
			return nil, err
		}
		v.closers = append(v.closers, io.Closer(s))
		if v.annotationStore == nil {
			v.annotationStore = s
		}
		if v.robotStore == nil {
			v.robotStore = s
		}
	}

	if err := v.Reload(); err != nil {
		v.Close()
		return nil, err
	}

	if b.width > 0 && b.height > 0 {
		v.Resize(b.width, b.height)
	}
	if b.scene != nil {
		if err := v.LoadScene(*b.scene); err != nil {
			v.Close()
			return nil, err
		}
	}
	return v, nil
}
