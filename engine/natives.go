package engine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/ecs"
)

// natives answers the bridge's host calls against the engine's scenes.
type natives struct {
	engine *Engine
}

var _ bridge.Host = natives{}

func (n natives) locate(b bridge.Binding) (*Scene, ecs.Entity, error) {
	scene, ok := n.engine.scenes.Get(b.Scene)
	if !ok {
		return nil, 0, fmt.Errorf("scene %d: %w", b.Scene, bridge.ErrStaleHandle)
	}
	e := ecs.Entity(b.Entity)
	if !scene.world.Alive(e) {
		return nil, 0, fmt.Errorf("entity %d in scene %d: %w", b.Entity, b.Scene, bridge.ErrStaleHandle)
	}
	return scene, e, nil
}

func missing(c bridge.Capability, b bridge.Binding) error {
	return fmt.Errorf("%s on entity %d: %w", c, b.Entity, bridge.ErrComponentNotFound)
}

func (n natives) ReadAxis(b bridge.Binding, f bridge.Field) (float32, error) {
	scene, e, err := n.locate(b)
	if err != nil {
		return 0, err
	}
	switch f.Attribute.Capability() {
	case bridge.CapabilityTransform:
		t := ecs.Get[Transform](scene.world, e)
		if t == nil {
			return 0, missing(bridge.CapabilityTransform, b)
		}
		return t.Get(f.Attribute, f.Axis), nil
	case bridge.CapabilityCamera:
		c := ecs.Get[Camera](scene.world, e)
		if c == nil {
			return 0, missing(bridge.CapabilityCamera, b)
		}
		if p := c.lens(f.Axis); p != nil {
			return *p, nil
		}
		return 0, nil
	case bridge.CapabilityLight:
		l := ecs.Get[PointLight](scene.world, e)
		if l == nil {
			return 0, missing(bridge.CapabilityLight, b)
		}
		if f.Attribute == bridge.LightIntensity {
			return l.Intensity, nil
		}
		return l.Color[f.Axis], nil
	}
	return 0, fmt.Errorf("field %s: %w", f, bridge.ErrUnknownCapability)
}

func (n natives) WriteAxis(b bridge.Binding, f bridge.Field, v float32) error {
	scene, e, err := n.locate(b)
	if err != nil {
		return err
	}
	switch f.Attribute.Capability() {
	case bridge.CapabilityTransform:
		t := ecs.Get[Transform](scene.world, e)
		if t == nil {
			return missing(bridge.CapabilityTransform, b)
		}
		t.Set(f.Attribute, f.Axis, v)
		return nil
	case bridge.CapabilityCamera:
		c := ecs.Get[Camera](scene.world, e)
		if c == nil {
			return missing(bridge.CapabilityCamera, b)
		}
		if p := c.lens(f.Axis); p != nil {
			*p = v
		}
		return nil
	case bridge.CapabilityLight:
		l := ecs.Get[PointLight](scene.world, e)
		if l == nil {
			return missing(bridge.CapabilityLight, b)
		}
		if f.Attribute == bridge.LightIntensity {
			l.Intensity = v
		} else {
			l.Color[f.Axis] = v
		}
		return nil
	}
	return fmt.Errorf("field %s: %w", f, bridge.ErrUnknownCapability)
}

func (n natives) Basis(b bridge.Binding, d bridge.Direction) (mgl32.Vec3, error) {
	scene, e, err := n.locate(b)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	t := ecs.Get[Transform](scene.world, e)
	if t == nil {
		return mgl32.Vec3{}, missing(bridge.CapabilityTransform, b)
	}
	return t.Basis(d), nil
}

func (n natives) HasCapability(b bridge.Binding, c bridge.Capability) (bool, error) {
	scene, e, err := n.locate(b)
	if err != nil {
		return false, err
	}
	switch c {
	case bridge.CapabilityTransform:
		return ecs.Has[Transform](scene.world, e), nil
	case bridge.CapabilityCamera:
		return ecs.Has[Camera](scene.world, e), nil
	case bridge.CapabilityLight:
		return ecs.Has[PointLight](scene.world, e), nil
	}
	return false, fmt.Errorf("capability %d: %w", c, bridge.ErrUnknownCapability)
}
