package scripts

import (
	"go.uber.org/zap"

	"github.com/plus3/scriptbridge/bridge"
)

// TestBehavior logs its X position every frame and nudges it by 0.1.
type TestBehavior struct {
	bridge.Behavior

	transform *bridge.Transform
}

func (s *TestBehavior) OnStart() error {
	s.Logger().Info("Start!")
	t, err := bridge.GetComponent[*bridge.Transform](s)
	if err != nil {
		return err
	}
	s.transform = t
	return nil
}

func (s *TestBehavior) OnUpdate(float32) error {
	position := s.transform.Position()
	x := position.X()
	s.Logger().Debug("position", zap.Float32("x", x))
	return position.SetX(x + 0.1)
}
