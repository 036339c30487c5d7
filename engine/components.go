package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/ecs"
)

// Identity names an entity. Every entity created through a Scene has one.
type Identity struct {
	UUID uuid.UUID
	Name string
}

// Transform is the native placement of an entity. Rotation is Euler angles
// in degrees. The model matrix is cached and rebuilt only after a change; a
// zero Transform starts out stale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3

	rotation mgl32.Mat4
	model    mgl32.Mat4
	clean    bool
}

// NewTransform returns a transform at the origin with unit scale.
func NewTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Placed returns a transform at position with the given rotation and scale.
func Placed(position, rotation, scale mgl32.Vec3) Transform {
	return Transform{Position: position, Rotation: rotation, Scale: scale}
}

func (t *Transform) attribute(attr bridge.Attribute) *mgl32.Vec3 {
	switch attr {
	case bridge.Position:
		return &t.Position
	case bridge.Rotation:
		return &t.Rotation
	case bridge.Scale:
		return &t.Scale
	}
	return nil
}

// Get reads one axis of position, rotation or scale.
func (t *Transform) Get(attr bridge.Attribute, axis bridge.Axis) float32 {
	if v := t.attribute(attr); v != nil {
		return v[axis]
	}
	return 0
}

// Set writes one axis and reports whether the value changed. Unchanged
// writes leave the cached matrices alone.
func (t *Transform) Set(attr bridge.Attribute, axis bridge.Axis, value float32) bool {
	v := t.attribute(attr)
	if v == nil || v[axis] == value {
		return false
	}
	v[axis] = value
	t.clean = false
	return true
}

// Dirty reports whether the cached matrices are out of date.
func (t *Transform) Dirty() bool { return !t.clean }

// MarkDirty forces a rebuild after the exported fields were edited directly.
func (t *Transform) MarkDirty() { t.clean = false }

// Recompute rebuilds the matrices if anything changed since the last call.
func (t *Transform) Recompute() bool {
	if t.clean {
		return false
	}
	q := mgl32.AnglesToQuat(
		mgl32.DegToRad(t.Rotation[0]),
		mgl32.DegToRad(t.Rotation[1]),
		mgl32.DegToRad(t.Rotation[2]),
		mgl32.XYZ,
	)
	t.rotation = q.Mat4()
	t.model = mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(t.rotation).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
	t.clean = true
	return true
}

// Model returns translate * rotate * scale.
func (t *Transform) Model() mgl32.Mat4 {
	t.Recompute()
	return t.model
}

// Basis returns a unit direction of the current orientation. Forward is -Z,
// Right is +X and Up is +Y in local space. Scale does not affect the result.
func (t *Transform) Basis(d bridge.Direction) mgl32.Vec3 {
	t.Recompute()
	right := t.rotation.Col(0).Vec3()
	up := t.rotation.Col(1).Vec3()
	back := t.rotation.Col(2).Vec3()
	switch d {
	case bridge.DirectionForward:
		return back.Mul(-1)
	case bridge.DirectionBackward:
		return back
	case bridge.DirectionLeft:
		return right.Mul(-1)
	case bridge.DirectionRight:
		return right
	case bridge.DirectionUp:
		return up
	case bridge.DirectionDown:
		return up.Mul(-1)
	}
	return mgl32.Vec3{}
}

// Camera is a perspective lens.
type Camera struct {
	FieldOfView float32
	Near        float32
	Far         float32
	Aspect      float32
	// Primary marks the camera the host renders from.
	Primary bool
}

// DefaultCamera returns a 60 degree lens covering 0.1 to 1000 units.
func DefaultCamera() Camera {
	return Camera{FieldOfView: 60, Near: 0.1, Far: 1000, Aspect: 16.0 / 9.0}
}

// Projection returns the perspective matrix of the lens.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FieldOfView), c.Aspect, c.Near, c.Far)
}

func (c *Camera) lens(axis bridge.Axis) *float32 {
	switch axis {
	case bridge.X:
		return &c.FieldOfView
	case bridge.Y:
		return &c.Near
	case bridge.Z:
		return &c.Far
	}
	return nil
}

// PointLight is an omnidirectional light.
type PointLight struct {
	Color     mgl32.Vec3
	Intensity float32
}

// DefaultPointLight returns a white light of intensity 1.
func DefaultPointLight() PointLight {
	return PointLight{Color: mgl32.Vec3{1, 1, 1}, Intensity: 1}
}

// NewComponentRegistry registers every native component type.
func NewComponentRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Identity](registry)
	ecs.RegisterComponent[Transform](registry)
	ecs.RegisterComponent[Camera](registry)
	ecs.RegisterComponent[PointLight](registry)
	return registry
}
