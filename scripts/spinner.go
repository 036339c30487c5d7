package scripts

import (
	"github.com/plus3/scriptbridge/bridge"
)

// Spinner rotates its entity at Rate degrees per second around each axis.
// Space pauses and resumes it.
type Spinner struct {
	bridge.Behavior

	Rate   bridge.Vector
	Paused bool
}

func NewSpinner() *Spinner {
	return &Spinner{Rate: bridge.Vec(0, 90, 0)}
}

func (s *Spinner) OnUpdate(dt float32) error {
	if s.Paused {
		return nil
	}
	t, err := bridge.GetComponent[*bridge.Transform](s)
	if err != nil {
		return err
	}
	rotation := t.Rotation()
	return rotation.Assign(rotation.Add(s.Rate.Scale(dt)))
}

func (s *Spinner) OnKeyPressed(key bridge.KeyCode, repeat bool) bool {
	if key != bridge.KeySpace || repeat {
		return false
	}
	s.Paused = !s.Paused
	return true
}
