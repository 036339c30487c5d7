package scripts

import (
	"github.com/plus3/scriptbridge/bridge"
)

// CameraScript is a free-fly camera: Vertical and Horizontal move along the
// view direction, the mouse axes set pitch and yaw. Tab toggles mouse capture.
type CameraScript struct {
	bridge.Behavior

	MoveSpeed float32

	transform *bridge.Transform
}

func NewCameraScript() *CameraScript {
	return &CameraScript{MoveSpeed: 8}
}

func (s *CameraScript) OnStart() error {
	t, err := bridge.GetComponent[*bridge.Transform](s)
	if err != nil {
		return err
	}
	s.transform = t
	return nil
}

func (s *CameraScript) OnUpdate(dt float32) error {
	input := s.Input()
	step := dt * s.MoveSpeed
	move := s.transform.Forward().Scale(step * input.Axis("Vertical")).
		Add(s.transform.Right().Scale(step * input.Axis("Horizontal")))
	if err := s.transform.Translate(move); err != nil {
		return err
	}
	return s.transform.SetRotation(bridge.Vec(input.Axis("Mouse Y"), input.Axis("Mouse X"), 0))
}

func (s *CameraScript) OnKeyPressed(key bridge.KeyCode, repeat bool) bool {
	if key != bridge.KeyTab || repeat {
		return false
	}
	input := s.Input()
	if input.CursorMode() == bridge.CursorRelative {
		input.SetCursorMode(bridge.CursorNormal)
	} else {
		input.SetCursorMode(bridge.CursorRelative)
	}
	return true
}
