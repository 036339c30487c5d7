package scripts

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/scriptbridge/bridge"
)

// CarScript drives an entity with the Horizontal and Vertical axes and pulls
// CameraTransform along behind it.
type CarScript struct {
	bridge.Behavior

	// CameraTransform is injected from the scene file.
	CameraTransform *bridge.Transform

	Steer    float32
	Throttle float32

	SteerStep    float32
	Acceleration float32
	MaxSpeed     float32
	MinSpeed     float32
	Drag         float32
	// SteerClamp is in degrees.
	SteerClamp float32

	transform *bridge.Transform
}

func NewCarScript() *CarScript {
	return &CarScript{
		SteerStep:    0.5,
		Acceleration: 0.08,
		MaxSpeed:     0.5,
		MinSpeed:     -0.2,
		Drag:         0.998,
		SteerClamp:   30,
	}
}

func (s *CarScript) OnStart() error {
	t, err := bridge.GetComponent[*bridge.Transform](s)
	if err != nil {
		return err
	}
	s.transform = t
	return nil
}

// pow60 raises base to dt*60 so per-frame factors tuned at 60 FPS hold at
// any frame rate.
func pow60(base, dt float32) float32 {
	return float32(math.Pow(float64(base), float64(dt*60)))
}

func (s *CarScript) OnUpdate(dt float32) error {
	input := s.Input()
	axisX := input.Axis("Horizontal")
	axisY := input.Axis("Vertical")

	if axisX != 0 {
		s.Steer += axisX * s.SteerStep * dt * 60
	} else {
		s.Steer *= pow60(0.9, dt)
	}
	s.Steer = mgl32.Clamp(s.Steer, -s.SteerClamp, s.SteerClamp)

	s.Throttle += axisY * s.Acceleration * dt
	s.Throttle = mgl32.Clamp(s.Throttle, s.MinSpeed, s.MaxSpeed)
	s.Throttle *= pow60(s.Drag, dt)

	rotation := s.transform.Rotation()
	if err := rotation.SetY(rotation.Y() - s.Steer*dt*s.Throttle*10); err != nil {
		return err
	}
	if err := s.transform.Translate(s.transform.Forward().Scale(-s.Throttle)); err != nil {
		return err
	}

	if s.CameraTransform == nil {
		return nil
	}
	offset := s.transform.Forward().Scale(6).Add(bridge.Up.Scale(0.15))
	camera := s.CameraTransform
	if err := camera.SetPosition(camera.Position().Lerp(s.transform.Position().Add(offset), 0.1)); err != nil {
		return err
	}
	r := s.transform.Rotation().Vec3()
	return camera.SetRotation(camera.Rotation().Lerp(bridge.Vec(r[0], r[1]+180, r[2]), 0.05))
}
