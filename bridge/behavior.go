package bridge

import (
	"fmt"

	"go.uber.org/zap"
)

// Script is implemented by every behavior script. Scripts embed Behavior,
// which supplies no-op defaults for every hook and the unexported method
// that keeps foreign types from satisfying the interface.
//
//	type Spinner struct {
//		bridge.Behavior
//		Speed float32
//	}
type Script interface {
	OnStart() error
	OnUpdate(dt float32) error
	// Input hooks report whether they consumed the event.
	OnKeyPressed(key KeyCode, repeat bool) bool
	OnKeyReleased(key KeyCode) bool
	OnMouseMoved(x, y float32, mode CursorMode) bool

	behavior() *Behavior
}

// Behavior is the embedded base of every script.
type Behavior struct {
	instance *Instance
}

func (b *Behavior) OnStart() error                            { return nil }
func (b *Behavior) OnUpdate(dt float32) error                 { return nil }
func (b *Behavior) OnKeyPressed(key KeyCode, repeat bool) bool { return false }
func (b *Behavior) OnKeyReleased(key KeyCode) bool            { return false }
func (b *Behavior) OnMouseMoved(x, y float32, mode CursorMode) bool {
	return false
}

func (b *Behavior) behavior() *Behavior { return b }

// Handle returns the script's handle, or 0 before one is assigned.
func (b *Behavior) Handle() Handle {
	if b.instance == nil {
		return 0
	}
	return b.instance.handle
}

// Bridge returns the bridge the script is attached through, or nil.
func (b *Behavior) Bridge() *Bridge {
	if b.instance == nil {
		return nil
	}
	return b.instance.bridge
}

func (b *Behavior) Input() InputSource {
	if b.instance == nil {
		return noInput{}
	}
	return b.instance.bridge.input
}

// Logger is tagged with the script name and handle.
func (b *Behavior) Logger() *zap.Logger {
	if b.instance == nil {
		return zap.NewNop()
	}
	return b.instance.logger
}

func (b *Behavior) usable(op string) error {
	if b.instance == nil {
		return fmt.Errorf("%w: %s on unattached script", ErrInvalidLifecycleCall, op)
	}
	switch b.instance.state {
	case StateReady, StateStarted:
		return nil
	}
	return lifecycleError(op, b.instance.state)
}

// Component looks up one of the script entity's components.
func (b *Behavior) Component(c Capability) (Component, error) {
	if err := b.usable("Component"); err != nil {
		return nil, err
	}
	return b.instance.bridge.Component(b.instance.handle, c)
}

func (b *Behavior) HasComponent(c Capability) (bool, error) {
	if err := b.usable("HasComponent"); err != nil {
		return false, err
	}
	return b.instance.bridge.HasComponent(b.instance.handle, c)
}

// ComponentNamed looks up a component by type name, e.g. "TransformComponent".
func (b *Behavior) ComponentNamed(name string) (Component, error) {
	c, err := ParseCapability(name)
	if err != nil {
		return nil, err
	}
	return b.Component(c)
}

func (b *Behavior) HasComponentNamed(name string) (bool, error) {
	c, err := ParseCapability(name)
	if err != nil {
		return false, err
	}
	return b.HasComponent(c)
}
