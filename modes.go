package roomview

import (
	"math"
	"sync"

	"github.com/gekko3d/roomview/viewrt/store"
	"github.com/go-gl/mathgl/mgl32"
)

// ModeState is a snapshot of the interaction state shown by the UI.
type ModeState struct {
	AnnotationMode     bool
	RobotPlacementMode bool
	SelectedType       store.AnnotationType
	RobotSize          float32
	CameraInside       bool
	// Error is the last user-facing failure, empty once cleared.
	Error string
}

// Modes holds the interaction state. Annotation mode and robot placement mode
// are mutually exclusive. Observers are called with a snapshot after every
// change, outside the lock, on the goroutine that made the change.
type Modes struct {
	mu        sync.Mutex
	state     ModeState
	sizeMin   float32
	sizeMax   float32
	sizeStep  float32
	observers map[int]func(ModeState)
	nextID    int
}

func NewModes(sizeMin, sizeMax, sizeStep float32) *Modes {
	return &Modes{
		state: ModeState{
			SelectedType: store.SprayArea,
			RobotSize:    mgl32.Clamp(1, sizeMin, sizeMax),
			CameraInside: true,
		},
		sizeMin:   sizeMin,
		sizeMax:   sizeMax,
		sizeStep:  sizeStep,
		observers: make(map[int]func(ModeState)),
	}
}

func (m *Modes) State() ModeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn and returns a func that removes it.
func (m *Modes) Subscribe(fn func(ModeState)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// update applies fn under the lock and notifies observers if the state
// changed.
func (m *Modes) update(fn func(s *ModeState)) ModeState {
	m.mu.Lock()
	before := m.state
	fn(&m.state)
	after := m.state
	var observers []func(ModeState)
	if after != before {
		for _, o := range m.observers {
			observers = append(observers, o)
		}
	}
	m.mu.Unlock()

	for _, o := range observers {
		o(after)
	}
	return after
}

func (m *Modes) ToggleAnnotationMode() bool {
	return m.update(func(s *ModeState) {
		s.AnnotationMode = !s.AnnotationMode
		s.RobotPlacementMode = false
	}).AnnotationMode
}

func (m *Modes) ToggleRobotPlacementMode() bool {
	return m.update(func(s *ModeState) {
		s.RobotPlacementMode = !s.RobotPlacementMode
		s.AnnotationMode = false
	}).RobotPlacementMode
}

func (m *Modes) SetAnnotationMode(on bool) {
	m.update(func(s *ModeState) {
		s.AnnotationMode = on
		if on {
			s.RobotPlacementMode = false
		}
	})
}

func (m *Modes) SetRobotPlacementMode(on bool) {
	m.update(func(s *ModeState) {
		s.RobotPlacementMode = on
		if on {
			s.AnnotationMode = false
		}
	})
}

func (m *Modes) SetAnnotationType(t store.AnnotationType) {
	m.update(func(s *ModeState) { s.SelectedType = t })
}

func (m *Modes) IncreaseRobotSize() float32 {
	return m.stepRobotSize(1)
}

func (m *Modes) DecreaseRobotSize() float32 {
	return m.stepRobotSize(-1)
}

// stepRobotSize snaps to multiples of the step so repeated presses do not
// accumulate float error.
func (m *Modes) stepRobotSize(dir float32) float32 {
	return m.update(func(s *ModeState) {
		steps := math.Round(float64(s.RobotSize/m.sizeStep)) + float64(dir)
		s.RobotSize = mgl32.Clamp(float32(steps)*m.sizeStep, m.sizeMin, m.sizeMax)
	}).RobotSize
}

func (m *Modes) SetRobotSize(size float32) float32 {
	return m.update(func(s *ModeState) {
		s.RobotSize = mgl32.Clamp(size, m.sizeMin, m.sizeMax)
	}).RobotSize
}

func (m *Modes) SetCameraInside(inside bool) {
	m.update(func(s *ModeState) { s.CameraInside = inside })
}

func (m *Modes) SetError(msg string) {
	m.update(func(s *ModeState) { s.Error = msg })
}

func (m *Modes) ClearError() {
	m.SetError("")
}
