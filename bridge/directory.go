package bridge

import (
	"fmt"
	"strings"
)

// Capability is the closed set of native components a script can look up.
type Capability uint8

const (
	CapabilityTransform Capability = iota + 1
	CapabilityCamera
	CapabilityLight
)

// Capabilities lists every capability in declaration order.
var Capabilities = []Capability{CapabilityTransform, CapabilityCamera, CapabilityLight}

type capabilityEntry struct {
	name string
	new  func(b *Bridge, h Handle) Component
}

var directory = map[Capability]capabilityEntry{
	CapabilityTransform: {"Transform", func(b *Bridge, h Handle) Component { return &Transform{bridge: b, handle: h} }},
	CapabilityCamera:    {"Camera", func(b *Bridge, h Handle) Component { return &Camera{bridge: b, handle: h} }},
	CapabilityLight:     {"Light", func(b *Bridge, h Handle) Component { return &Light{bridge: b, handle: h} }},
}

func (c Capability) String() string {
	if entry, ok := directory[c]; ok {
		return entry.name
	}
	return fmt.Sprintf("Capability(%d)", uint8(c))
}

// Valid reports whether c is one of the declared capabilities.
func (c Capability) Valid() bool {
	_, ok := directory[c]
	return ok
}

// ParseCapability maps a component type name to its capability. Both the bare
// name and the name with a "Component" suffix are accepted ("Transform",
// "TransformComponent"); nothing else is.
func ParseCapability(name string) (Capability, error) {
	bare := strings.TrimSuffix(name, "Component")
	for _, c := range Capabilities {
		if directory[c].name == bare {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
}

// Component is a view onto one native component of one entity. Components are
// built fresh by every lookup and stay usable for as long as their handle does.
type Component interface {
	Capability() Capability
	Handle() Handle
}

// HasComponent reports whether the entity behind h carries the capability.
func (b *Bridge) HasComponent(h Handle, c Capability) (bool, error) {
	if !c.Valid() {
		return false, fmt.Errorf("%w: %s", ErrUnknownCapability, c)
	}
	binding, err := b.handles.Resolve(h)
	if err != nil {
		return false, err
	}
	return b.host.HasCapability(binding, c)
}

// Component returns a proxy for the capability, or ErrComponentNotFound.
func (b *Bridge) Component(h Handle, c Capability) (Component, error) {
	ok, err := b.HasComponent(h, c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s on handle %s", ErrComponentNotFound, c, h)
	}
	return directory[c].new(b, h), nil
}

// ComponentNamed resolves name with ParseCapability and then calls Component.
func (b *Bridge) ComponentNamed(h Handle, name string) (Component, error) {
	c, err := ParseCapability(name)
	if err != nil {
		return nil, err
	}
	return b.Component(h, c)
}

// HasComponentNamed resolves name with ParseCapability and then calls HasComponent.
func (b *Bridge) HasComponentNamed(h Handle, name string) (bool, error) {
	c, err := ParseCapability(name)
	if err != nil {
		return false, err
	}
	return b.HasComponent(h, c)
}

// GetComponent returns the script's component of type T. T's capability is
// taken from its zero value, so T must be one of the proxy pointer types
// (*Transform, *Camera, *Light).
func GetComponent[T Component](s Script) (T, error) {
	var zero T
	c, err := s.behavior().Component(zero.Capability())
	if err != nil {
		return zero, err
	}
	typed, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s proxy is %T", ErrComponentNotFound, zero.Capability(), c)
	}
	return typed, nil
}

// HasComponent reports whether the script's entity carries T's capability.
func HasComponent[T Component](s Script) (bool, error) {
	var zero T
	return s.behavior().HasComponent(zero.Capability())
}
