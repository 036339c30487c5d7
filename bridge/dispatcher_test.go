package bridge_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/scriptbridge/bridge"
)

var errBoom = errors.New("boom")

// recorder logs every hook it sees into a shared journal.
type recorder struct {
	bridge.Behavior
	id          string
	journal     *[]string
	consume     bool
	failStart   bool
	failUpdate  bool
	panicUpdate bool
}

func (r *recorder) note(event string) { *r.journal = append(*r.journal, r.id+":"+event) }

func (r *recorder) OnStart() error {
	r.note("start")
	if r.failStart {
		return errBoom
	}
	return nil
}

func (r *recorder) OnUpdate(dt float32) error {
	r.note("update")
	if r.panicUpdate {
		panic("kaboom")
	}
	if r.failUpdate {
		return errBoom
	}
	return nil
}

func (r *recorder) OnKeyPressed(key bridge.KeyCode, repeat bool) bool {
	r.note("key:" + key.String())
	return r.consume
}

func (r *recorder) OnKeyReleased(key bridge.KeyCode) bool {
	r.note("release:" + key.String())
	return r.consume
}

func (r *recorder) OnMouseMoved(x, y float32, mode bridge.CursorMode) bool {
	r.note("mouse")
	return r.consume
}

func (f *fixture) recorder(name string, journal *[]string, configure func(*recorder)) {
	f.registry.Register(name, func() bridge.Script {
		r := &recorder{id: name, journal: journal}
		if configure != nil {
			configure(r)
		}
		return r
	})
}

func TestLifecycleOrdering(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("a", &journal, nil)
	b, _ := f.entity(1, bridge.CapabilityTransform)

	inst, err := f.dispatcher.Attach(b, "a")
	require.NoError(t, err)
	assert.Equal(t, bridge.StateConstructed, inst.State())

	t.Run("calls before handle assignment are rejected", func(t *testing.T) {
		assert.ErrorIs(t, f.dispatcher.CallStart(inst), bridge.ErrInvalidLifecycleCall)
		assert.ErrorIs(t, f.dispatcher.CallUpdate(inst, 0.016), bridge.ErrInvalidLifecycleCall)
		_, err := f.dispatcher.CallKeyPressed(inst, bridge.KeySpace, false)
		assert.ErrorIs(t, err, bridge.ErrInvalidLifecycleCall)

		_, err = inst.Script().(*recorder).Component(bridge.CapabilityTransform)
		assert.ErrorIs(t, err, bridge.ErrInvalidLifecycleCall)
		assert.Empty(t, journal)
	})

	h := f.bridge.Handles().Issue(b)
	require.NoError(t, f.dispatcher.AssignHandle(inst, h))
	assert.Equal(t, bridge.StateReady, inst.State())
	assert.ErrorIs(t, f.dispatcher.AssignHandle(inst, h), bridge.ErrInvalidLifecycleCall, "handle is assigned once")

	t.Run("first update starts the instance", func(t *testing.T) {
		require.NoError(t, f.dispatcher.CallUpdate(inst, 0.016))
		require.NoError(t, f.dispatcher.CallUpdate(inst, 0.016))
		assert.Equal(t, []string{"a:start", "a:update", "a:update"}, journal)
		assert.Equal(t, bridge.StateStarted, inst.State())
		assert.ErrorIs(t, f.dispatcher.CallStart(inst), bridge.ErrInvalidLifecycleCall)
	})

	t.Run("nothing runs after detach", func(t *testing.T) {
		require.NoError(t, f.dispatcher.Detach(inst))
		journal = journal[:0]

		assert.ErrorIs(t, f.dispatcher.CallUpdate(inst, 0.016), bridge.ErrInvalidLifecycleCall)
		f.dispatcher.Tick(0.016)
		assert.False(t, f.dispatcher.KeyPressed(bridge.KeySpace, false))
		assert.Empty(t, journal)
		assert.ErrorIs(t, f.dispatcher.Detach(inst), bridge.ErrInvalidLifecycleCall)
		assert.Zero(t, f.dispatcher.Len())
	})
}

func TestExplicitStart(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("a", &journal, nil)
	b, _ := f.entity(1)

	inst, err := f.dispatcher.Instantiate(b, "a")
	require.NoError(t, err)
	require.NoError(t, f.dispatcher.CallStart(inst))
	f.dispatcher.Tick(0.5)
	f.dispatcher.Tick(0.5)

	assert.Equal(t, []string{"a:start", "a:update", "a:update"}, journal)
	stats := inst.Stats()
	assert.Equal(t, int64(2), stats.Updates)
	assert.Zero(t, stats.Faults)
	assert.LessOrEqual(t, stats.MinDuration, stats.MaxDuration)
}

func TestAttachUnknownScript(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	_, err := f.dispatcher.Attach(bridge.Binding{Entity: 1}, "missing")
	assert.ErrorIs(t, err, bridge.ErrUnknownScript)
}

func TestAssignForeignHandle(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("a", &journal, nil)
	b1, _ := f.entity(1)
	_, h2 := f.entity(2)

	inst, err := f.dispatcher.Attach(b1, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, f.dispatcher.AssignHandle(inst, h2), bridge.ErrInvalidLifecycleCall)

	f.bridge.Handles().Revoke(h2)
	assert.ErrorIs(t, f.dispatcher.AssignHandle(inst, h2), bridge.ErrStaleHandle)
}

func TestAssignOwnedHandle(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("a", &journal, nil)
	b, h := f.entity(1)

	first, err := f.dispatcher.Attach(b, "a")
	require.NoError(t, err)
	require.NoError(t, f.dispatcher.AssignHandle(first, h))

	second, err := f.dispatcher.Attach(b, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, f.dispatcher.AssignHandle(second, h), bridge.ErrInvalidLifecycleCall)
	assert.Equal(t, bridge.StateConstructed, second.State())

	require.NoError(t, f.dispatcher.Detach(second))
	assert.Equal(t, bridge.StateReady, first.State())
	owner, ok := f.dispatcher.Lookup(h)
	require.True(t, ok)
	assert.Same(t, first, owner)
	_, err = f.bridge.Handles().Resolve(h)
	assert.NoError(t, err, "detaching the rejected instance leaves the owner's handle live")
}

func TestInputConsumption(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("first", &journal, func(r *recorder) { r.consume = true })
	f.recorder("second", &journal, nil)

	b, _ := f.entity(1)
	_, err := f.dispatcher.Instantiate(b, "first")
	require.NoError(t, err)
	_, err = f.dispatcher.Instantiate(b, "second")
	require.NoError(t, err)
	f.dispatcher.Tick(0.016)
	journal = journal[:0]

	assert.True(t, f.dispatcher.KeyPressed(bridge.KeyW, false))
	assert.True(t, f.dispatcher.KeyReleased(bridge.KeyW))
	assert.True(t, f.dispatcher.MouseMoved(1, 2, bridge.CursorRelative))
	assert.Equal(t, []string{"first:key:W", "first:release:W", "first:mouse"}, journal)
}

func TestInputPropagatesUntilConsumed(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("pass", &journal, nil)
	f.recorder("eat", &journal, func(r *recorder) { r.consume = true })
	f.recorder("late", &journal, nil)

	b, _ := f.entity(1)
	for _, name := range []string{"pass", "eat", "late"} {
		_, err := f.dispatcher.Instantiate(b, name)
		require.NoError(t, err)
	}

	f.dispatcher.Tick(0.016)
	journal = journal[:0]

	assert.True(t, f.dispatcher.KeyPressed(bridge.KeySpace, true))
	assert.Equal(t, []string{"pass:key:Space", "eat:key:Space"}, journal)
}

func TestInputSkipsUnstartedInstances(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("a", &journal, func(r *recorder) { r.consume = true })
	b, _ := f.entity(1)
	_, err := f.dispatcher.Instantiate(b, "a")
	require.NoError(t, err)

	assert.False(t, f.dispatcher.KeyPressed(bridge.KeySpace, false))
	assert.Empty(t, journal)
}

func TestFaultIsolation(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("ok1", &journal, nil)
	f.recorder("err", &journal, func(r *recorder) { r.failUpdate = true; r.consume = true })
	f.recorder("panic", &journal, func(r *recorder) { r.panicUpdate = true })
	f.recorder("ok2", &journal, nil)

	b, _ := f.entity(1)
	for _, name := range []string{"ok1", "err", "panic", "ok2"} {
		_, err := f.dispatcher.Instantiate(b, name)
		require.NoError(t, err)
	}

	faults := f.dispatcher.Tick(0.016)
	require.Len(t, faults, 2)
	assert.Equal(t, "err", faults[0].Script)
	assert.Equal(t, "OnUpdate", faults[0].Op)
	assert.ErrorIs(t, faults[0], errBoom)
	assert.Equal(t, "panic", faults[1].Script)
	assert.ErrorContains(t, faults[1], "kaboom")

	assert.Contains(t, journal, "ok1:update")
	assert.Contains(t, journal, "ok2:update")
	assert.Equal(t, 4, f.dispatcher.Len(), "no auto-detach without MaxFaults")

	for _, inst := range f.dispatcher.Instances() {
		switch inst.Name() {
		case "err", "panic":
			assert.Equal(t, 1, inst.ConsecutiveFaults())
			assert.Equal(t, int64(1), inst.Stats().Faults)
		default:
			assert.Zero(t, inst.ConsecutiveFaults())
		}
	}
}

func TestFaultedInstanceSkipsRestOfTick(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("fragile", &journal, nil)
	f.recorder("next", &journal, func(r *recorder) { r.consume = true })
	f.registry.Register("keypanic", func() bridge.Script { return &keyPanicker{} })

	b, _ := f.entity(1)
	for _, name := range []string{"keypanic", "fragile", "next"} {
		_, err := f.dispatcher.Instantiate(b, name)
		require.NoError(t, err)
	}
	f.dispatcher.Tick(0.016)
	journal = journal[:0]

	// keypanic faults on the first key; it is skipped for the second key
	// and for the update of the same tick.
	assert.True(t, f.dispatcher.KeyPressed(bridge.KeyA, false))
	assert.True(t, f.dispatcher.KeyPressed(bridge.KeyB, false))
	faults := f.dispatcher.Tick(0.016)

	require.Len(t, faults, 1)
	assert.Equal(t, "OnKeyPressed", faults[0].Op)
	assert.Equal(t, []string{
		"fragile:key:A", "next:key:A",
		"fragile:key:B", "next:key:B",
		"fragile:update", "next:update",
	}, journal)

	inst := f.dispatcher.Instances()[0]
	assert.Equal(t, 1, inst.ConsecutiveFaults())
	assert.Equal(t, int64(1), inst.Stats().Updates, "update skipped in the faulted tick")
}

type keyPanicker struct {
	bridge.Behavior
}

func (k *keyPanicker) OnKeyPressed(key bridge.KeyCode, repeat bool) bool {
	panic(errBoom)
}

func TestMaxFaultsDetaches(t *testing.T) {
	f := newFixture(t, bridge.Options{MaxFaults: 3})
	var journal []string
	f.recorder("bad", &journal, func(r *recorder) { r.failUpdate = true })
	f.recorder("good", &journal, nil)

	b, _ := f.entity(1)
	bad, err := f.dispatcher.Instantiate(b, "bad")
	require.NoError(t, err)
	_, err = f.dispatcher.Instantiate(b, "good")
	require.NoError(t, err)

	f.dispatcher.Tick(0.016)
	f.dispatcher.Tick(0.016)
	assert.Equal(t, bridge.StateStarted, bad.State())

	f.dispatcher.Tick(0.016)
	assert.Equal(t, bridge.StateDetached, bad.State())
	assert.Equal(t, 1, f.dispatcher.Len())

	_, err = f.bridge.Resolve(bad.Handle())
	assert.ErrorIs(t, err, bridge.ErrStaleHandle)

	f.dispatcher.Tick(0.016)
	updates := 0
	for _, entry := range journal {
		if entry == "bad:update" {
			updates++
		}
	}
	assert.Equal(t, 3, updates)
}

func TestStartFaultSkipsFirstUpdate(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("a", &journal, func(r *recorder) { r.failStart = true })
	b, _ := f.entity(1)
	inst, err := f.dispatcher.Instantiate(b, "a")
	require.NoError(t, err)

	err = f.dispatcher.CallUpdate(inst, 0.1)
	fault, ok := bridge.IsFault(err)
	require.True(t, ok)
	assert.Equal(t, "OnStart", fault.Op)
	assert.Equal(t, []string{"a:start"}, journal)

	require.NoError(t, f.dispatcher.CallUpdate(inst, 0.1))
	assert.Equal(t, []string{"a:start", "a:update"}, journal)
}

// mover translates its entity at a constant velocity.
type mover struct {
	bridge.Behavior
	Velocity  bridge.Vector
	transform *bridge.Transform
}

func (m *mover) OnStart() error {
	t, err := bridge.GetComponent[*bridge.Transform](m)
	m.transform = t
	return err
}

func (m *mover) OnUpdate(dt float32) error {
	return m.transform.Translate(m.Velocity.Scale(dt))
}

func TestFrameRateIndependence(t *testing.T) {
	run := func(t *testing.T, steps int, dt float32) mgl32.Vec3 {
		f := newFixture(t, bridge.Options{})
		f.registry.Register("mover", func() bridge.Script {
			return &mover{Velocity: bridge.Vec(2, -4, 8)}
		})
		b, _ := f.entity(1, bridge.CapabilityTransform)
		_, err := f.dispatcher.Instantiate(b, "mover")
		require.NoError(t, err)
		for range steps {
			require.Empty(t, f.dispatcher.Tick(dt))
		}
		return f.host.entities[b].attrs[bridge.Position]
	}

	for _, d := range []float32{0.5, 1.0 / 60, 0.1} {
		once := run(t, 1, d)
		twice := run(t, 2, d/2)
		assert.InDeltaSlice(t, once[:], twice[:], 1e-5, "d=%v", d)
	}
}

func TestDetachedProxiesGoStale(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	f.registry.Register("mover", func() bridge.Script { return &mover{} })
	b, _ := f.entity(1, bridge.CapabilityTransform)
	inst, err := f.dispatcher.Instantiate(b, "mover")
	require.NoError(t, err)
	require.Empty(t, f.dispatcher.Tick(0.1))

	retained := inst.Script().(*mover).transform
	require.NotNil(t, retained)
	require.NoError(t, f.dispatcher.Detach(inst))

	_, err = retained.Position().Snapshot()
	assert.ErrorIs(t, err, bridge.ErrStaleHandle)
}

func TestStaleHandleFaultsInstance(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	f.registry.Register("mover", func() bridge.Script { return &mover{Velocity: bridge.Vec(1)} })
	b, _ := f.entity(1, bridge.CapabilityTransform)
	_, err := f.dispatcher.Instantiate(b, "mover")
	require.NoError(t, err)
	require.Empty(t, f.dispatcher.Tick(0.1))

	f.host.remove(b)
	faults := f.dispatcher.Tick(0.1)
	require.Len(t, faults, 1)
	assert.ErrorIs(t, faults[0], bridge.ErrStaleHandle)
}

func TestGetComponentMissing(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	f.registry.Register("mover", func() bridge.Script { return &mover{} })
	b, _ := f.entity(1)
	inst, err := f.dispatcher.Instantiate(b, "mover")
	require.NoError(t, err)

	err = f.dispatcher.CallStart(inst)
	assert.ErrorIs(t, err, bridge.ErrComponentNotFound)

	has, err := bridge.HasComponent[*bridge.Transform](inst.Script())
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDetachEntityAndScene(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("a", &journal, nil)

	b1, _ := f.entity(1)
	b2, _ := f.entity(2)
	other := bridge.Binding{Scene: 2, Entity: 1}
	f.host.add(other)

	for _, b := range []bridge.Binding{b1, b1, b2, other} {
		_, err := f.dispatcher.Instantiate(b, "a")
		require.NoError(t, err)
	}

	assert.Equal(t, 2, f.dispatcher.DetachEntity(b1))
	assert.Equal(t, 2, f.dispatcher.Len())

	assert.Equal(t, 1, f.dispatcher.DetachScene(1))
	require.Len(t, f.dispatcher.Instances(), 1)
	assert.Equal(t, other, f.dispatcher.Instances()[0].Binding())
}

func TestLookupByHandle(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	var journal []string
	f.recorder("a", &journal, nil)
	b, _ := f.entity(1)
	inst, err := f.dispatcher.Instantiate(b, "a")
	require.NoError(t, err)

	got, ok := f.dispatcher.Lookup(inst.Handle())
	require.True(t, ok)
	assert.Same(t, inst, got)

	require.NoError(t, f.dispatcher.Detach(inst))
	_, ok = f.dispatcher.Lookup(inst.Handle())
	assert.False(t, ok)
}

func TestBehaviorSurface(t *testing.T) {
	f := newFixture(t, bridge.Options{})
	f.input.axes["Horizontal"] = -1
	f.input.keys["Jump"] = true
	f.registry.Register("mover", func() bridge.Script { return &mover{} })

	var detached mover
	assert.Zero(t, detached.Handle())
	assert.Nil(t, detached.Bridge())
	assert.Zero(t, detached.Input().Axis("Horizontal"))

	b, _ := f.entity(1, bridge.CapabilityTransform)
	inst, err := f.dispatcher.Instantiate(b, "mover")
	require.NoError(t, err)
	m := inst.Script().(*mover)

	assert.Equal(t, inst.Handle(), m.Handle())
	assert.Same(t, f.bridge, m.Bridge())
	assert.Equal(t, float32(-1), m.Input().Axis("Horizontal"))
	assert.True(t, m.Input().Key("Jump"))
	m.Input().SetCursorMode(bridge.CursorRelative)
	assert.Equal(t, bridge.CursorRelative, f.input.mode)
	assert.NotNil(t, m.Logger())

	has, err := m.HasComponentNamed("TransformComponent")
	require.NoError(t, err)
	assert.True(t, has)
}
