package control

import "sync"

// Default settings.
const (
	DefaultDeadzoneMin = 0.125
	DefaultDeadzoneMax = 0.925
	DefaultPressPoint  = 0.5
)

// Settings holds process-wide defaults read by controls and processors on
// every evaluation, so changes apply to existing devices immediately.
type Settings struct {
	mu          sync.RWMutex
	deadzoneMin float64
	deadzoneMax float64
	pressPoint  float64
}

// NewSettings returns settings holding the defaults.
func NewSettings() *Settings {
	return &Settings{
		deadzoneMin: DefaultDeadzoneMin,
		deadzoneMax: DefaultDeadzoneMax,
		pressPoint:  DefaultPressPoint,
	}
}

// Deadzone returns the default deadzone bounds.
func (s *Settings) Deadzone() (min, max float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deadzoneMin, s.deadzoneMax
}

// SetDeadzone sets the default deadzone bounds.
func (s *Settings) SetDeadzone(min, max float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadzoneMin, s.deadzoneMax = min, max
}

// PressPoint returns the default button press point.
func (s *Settings) PressPoint() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pressPoint
}

// SetPressPoint sets the default button press point.
func (s *Settings) SetPressPoint(p float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressPoint = p
}
