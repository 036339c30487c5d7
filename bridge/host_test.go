package bridge_test

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap/zaptest"

	"github.com/plus3/scriptbridge/bridge"
)

type fakeEntity struct {
	attrs map[bridge.Attribute]mgl32.Vec3
	caps  map[bridge.Capability]bool
}

// fakeHost is an in-memory engine keyed by binding.
type fakeHost struct {
	entities map[bridge.Binding]*fakeEntity
	reads    int
	writes   []bridge.Field
	basis    int
}

func newFakeHost() *fakeHost {
	return &fakeHost{entities: make(map[bridge.Binding]*fakeEntity)}
}

func (h *fakeHost) add(b bridge.Binding, caps ...bridge.Capability) *fakeEntity {
	e := &fakeEntity{
		attrs: map[bridge.Attribute]mgl32.Vec3{bridge.Scale: {1, 1, 1}},
		caps:  make(map[bridge.Capability]bool),
	}
	for _, c := range caps {
		e.caps[c] = true
	}
	h.entities[b] = e
	return e
}

func (h *fakeHost) remove(b bridge.Binding) {
	delete(h.entities, b)
}

func (h *fakeHost) lookup(b bridge.Binding, c bridge.Capability) (*fakeEntity, error) {
	e, ok := h.entities[b]
	if !ok {
		return nil, fmt.Errorf("%w: entity %d gone", bridge.ErrStaleHandle, b.Entity)
	}
	if !e.caps[c] {
		return nil, fmt.Errorf("%w: %s", bridge.ErrComponentNotFound, c)
	}
	return e, nil
}

func (h *fakeHost) ReadAxis(b bridge.Binding, f bridge.Field) (float32, error) {
	e, err := h.lookup(b, f.Attribute.Capability())
	if err != nil {
		return 0, err
	}
	h.reads++
	return e.attrs[f.Attribute][f.Axis], nil
}

func (h *fakeHost) WriteAxis(b bridge.Binding, f bridge.Field, v float32) error {
	e, err := h.lookup(b, f.Attribute.Capability())
	if err != nil {
		return err
	}
	h.writes = append(h.writes, f)
	value := e.attrs[f.Attribute]
	value[f.Axis] = v
	e.attrs[f.Attribute] = value
	return nil
}

func (h *fakeHost) Basis(b bridge.Binding, d bridge.Direction) (mgl32.Vec3, error) {
	e, err := h.lookup(b, bridge.CapabilityTransform)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	h.basis++
	r := e.attrs[bridge.Rotation]
	q := mgl32.AnglesToQuat(mgl32.DegToRad(r[0]), mgl32.DegToRad(r[1]), mgl32.DegToRad(r[2]), mgl32.XYZ)
	dirs := map[bridge.Direction]mgl32.Vec3{
		bridge.DirectionForward:  {0, 0, -1},
		bridge.DirectionBackward: {0, 0, 1},
		bridge.DirectionLeft:     {-1, 0, 0},
		bridge.DirectionRight:    {1, 0, 0},
		bridge.DirectionUp:       {0, 1, 0},
		bridge.DirectionDown:     {0, -1, 0},
	}
	return q.Rotate(dirs[d]), nil
}

func (h *fakeHost) HasCapability(b bridge.Binding, c bridge.Capability) (bool, error) {
	e, ok := h.entities[b]
	if !ok {
		return false, fmt.Errorf("%w: entity %d gone", bridge.ErrStaleHandle, b.Entity)
	}
	return e.caps[c], nil
}

type fakeInput struct {
	axes map[string]float32
	keys map[string]bool
	mode bridge.CursorMode
}

func (i *fakeInput) Axis(name string) float32          { return i.axes[name] }
func (i *fakeInput) Key(name string) bool              { return i.keys[name] }
func (i *fakeInput) CursorMode() bridge.CursorMode     { return i.mode }
func (i *fakeInput) SetCursorMode(m bridge.CursorMode) { i.mode = m }

type fixture struct {
	host       *fakeHost
	input      *fakeInput
	bridge     *bridge.Bridge
	registry   *bridge.ScriptRegistry
	dispatcher *bridge.Dispatcher
}

func newFixture(t *testing.T, opts bridge.Options) *fixture {
	t.Helper()
	host := newFakeHost()
	input := &fakeInput{axes: map[string]float32{}, keys: map[string]bool{}}
	b := bridge.New(host, input, zaptest.NewLogger(t))
	registry := bridge.NewScriptRegistry()
	return &fixture{
		host:       host,
		input:      input,
		bridge:     b,
		registry:   registry,
		dispatcher: bridge.NewDispatcher(b, registry, opts),
	}
}

// entity registers a native entity and issues a handle for it.
func (f *fixture) entity(id bridge.EntityID, caps ...bridge.Capability) (bridge.Binding, bridge.Handle) {
	b := bridge.Binding{Scene: 1, Entity: id}
	f.host.add(b, caps...)
	return b, f.bridge.Handles().Issue(b)
}
