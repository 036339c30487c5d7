package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/ecs"
	"github.com/plus3/scriptbridge/engine"
)

// drifter moves along +X by Speed units per second.
type drifter struct {
	bridge.Behavior
	Speed float32
	keys  []bridge.KeyCode
}

func (d *drifter) OnUpdate(dt float32) error {
	t, err := bridge.GetComponent[*bridge.Transform](d)
	if err != nil {
		return err
	}
	return t.Translate(bridge.Right.Scale(d.Speed * dt))
}

func (d *drifter) OnKeyPressed(key bridge.KeyCode, _ bool) bool {
	d.keys = append(d.keys, key)
	return false
}

// lamp dims its light every frame and fails without one.
type lamp struct {
	bridge.Behavior
}

func (l *lamp) OnUpdate(float32) error {
	light, err := bridge.GetComponent[*bridge.Light](l)
	if err != nil {
		return err
	}
	intensity := light.Intensity()
	v, err := intensity.Read()
	if err != nil {
		return err
	}
	return intensity.Write(v / 2)
}

func newEngine(t *testing.T, opts ...func(*engine.Config)) *engine.Engine {
	t.Helper()
	registry := bridge.NewScriptRegistry()
	registry.Register("drifter", func() bridge.Script { return &drifter{Speed: 2} })
	registry.Register("lamp", func() bridge.Script { return &lamp{} })

	cfg := engine.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	e, err := engine.New(cfg, registry, zaptest.NewLogger(t))
	require.NoError(t, err)
	return e
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Loop.TickRate = 0
	_, err := engine.New(cfg, nil, nil)
	assert.ErrorContains(t, err, "tick_rate")
}

func TestEngineFrame(t *testing.T) {
	e := newEngine(t)
	scene := e.CreateScene("main")
	ent := scene.CreateEntity("Drifter")
	inst, err := e.AttachScript(scene, ent, "drifter")
	require.NoError(t, err)
	assert.Equal(t, bridge.StateReady, inst.State())

	require.Empty(t, e.Frame(0.5))
	require.Empty(t, e.Frame(0.5))

	transform := ecs.Get[engine.Transform](scene.World(), ent)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, transform.Position)
	assert.False(t, transform.Dirty(), "transform system rebuilt the matrices")
	assert.Equal(t, uint64(2), e.Frames())

	telemetry := e.Telemetry()
	assert.Equal(t, uint64(2), telemetry.Frame)
	require.Len(t, telemetry.Scripts, 1)
	assert.Equal(t, int64(2), telemetry.Scripts[0].Updates)
	require.Len(t, telemetry.Scenes, 1)
	assert.Equal(t, "main", telemetry.Scenes[0].Name)
	assert.Equal(t, 1, telemetry.Scenes[0].Entities)
	assert.Equal(t, "TransformSystem", telemetry.Scenes[0].Systems[0].Name)
}

func TestEngineEventsDrainInOrder(t *testing.T) {
	e := newEngine(t)
	scene := e.CreateScene("main")
	inst, err := e.AttachScript(scene, scene.CreateEntity("d"), "drifter")
	require.NoError(t, err)
	e.Frame(0)

	var order []string
	e.Post(engine.KeyDown(bridge.KeyA))
	e.Post(engine.Event{Kind: engine.EventCall, Call: func(e *engine.Engine) {
		order = append(order, "call")
		assert.True(t, e.Input().IsKeyDown(bridge.KeyA), "earlier events are already applied")
	}})
	e.Post(engine.KeyDown(bridge.KeyB))
	e.Post(engine.KeyUp(bridge.KeyA))
	assert.Empty(t, order, "nothing runs before the frame")

	e.Frame(0)
	assert.Equal(t, []string{"call"}, order)
	assert.Equal(t, []bridge.KeyCode{bridge.KeyA, bridge.KeyB}, inst.Script().(*drifter).keys)
	assert.False(t, e.Input().IsKeyDown(bridge.KeyA))
	assert.True(t, e.Input().IsKeyDown(bridge.KeyB))

	e.Frame(0)
	assert.Equal(t, []string{"call"}, order, "queue is emptied by the frame")
}

func TestEngineDestroyEntity(t *testing.T) {
	e := newEngine(t)
	scene := e.CreateScene("main")
	ent := scene.CreateEntity("Doomed")
	other := scene.CreateEntity("Survivor")
	doomed, err := e.AttachScript(scene, ent, "drifter")
	require.NoError(t, err)
	survivor, err := e.AttachScript(scene, other, "drifter")
	require.NoError(t, err)
	e.Frame(0.1)

	e.Post(engine.Event{Kind: engine.EventDestroy, Target: scene.Binding(ent)})
	require.Empty(t, e.Frame(0.1))

	assert.False(t, scene.World().Alive(ent))
	assert.Equal(t, bridge.StateDetached, doomed.State())
	assert.Equal(t, bridge.StateStarted, survivor.State())
	_, err = e.Bridge().Resolve(doomed.Handle())
	assert.ErrorIs(t, err, bridge.ErrStaleHandle)
	_, found := scene.FindByName("Doomed")
	assert.False(t, found)
	assert.Equal(t, 1, e.Dispatcher().Len())
}

func TestEngineDestroyScene(t *testing.T) {
	e := newEngine(t)
	keep := e.CreateScene("keep")
	drop := e.CreateScene("drop")
	kept, err := e.AttachScript(keep, keep.CreateEntity("a"), "drifter")
	require.NoError(t, err)
	dropped, err := e.AttachScript(drop, drop.CreateEntity("b"), "drifter")
	require.NoError(t, err)

	script := dropped.Script().(*drifter)
	e.Frame(0.1)

	require.True(t, e.DestroyScene(drop.ID()))
	assert.False(t, e.DestroyScene(drop.ID()))
	assert.Equal(t, bridge.StateDetached, dropped.State())
	assert.Equal(t, bridge.StateStarted, kept.State())

	_, err = bridge.GetComponent[*bridge.Transform](script)
	assert.ErrorIs(t, err, bridge.ErrInvalidLifecycleCall)

	_, ok := e.Scene(drop.ID())
	assert.False(t, ok)
	assert.Len(t, e.Scenes(), 1)
	found, ok := e.SceneByName("keep")
	require.True(t, ok)
	assert.Same(t, keep, found)

	assert.Empty(t, e.Frame(0.1))
}

func TestHostErrors(t *testing.T) {
	e := newEngine(t)
	scene := e.CreateScene("main")
	bare := scene.CreateEntity("bare")
	b := e.Bridge()

	h := b.Handles().Issue(scene.Binding(bare))
	_, err := b.Component(h, bridge.CapabilityLight)
	assert.ErrorIs(t, err, bridge.ErrComponentNotFound)
	has, err := b.HasComponent(h, bridge.CapabilityTransform)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = b.ReadAxis(h, bridge.Field{Attribute: bridge.CameraLens, Axis: bridge.X})
	assert.ErrorIs(t, err, bridge.ErrComponentNotFound)

	t.Run("destroyed entity", func(t *testing.T) {
		gone := scene.CreateEntity("gone")
		h := b.Handles().Issue(scene.Binding(gone))
		scene.Destroy(gone)
		e.Frame(0)
		_, err := b.ReadAxis(h, bridge.Field{Attribute: bridge.Position, Axis: bridge.X})
		assert.ErrorIs(t, err, bridge.ErrStaleHandle)
	})

	t.Run("unknown scene", func(t *testing.T) {
		h := b.Handles().Issue(bridge.Binding{Scene: 99, Entity: 1})
		_, err := b.Basis(h, bridge.DirectionForward)
		assert.ErrorIs(t, err, bridge.ErrStaleHandle)
	})
}

func TestNativeComponents(t *testing.T) {
	e := newEngine(t)
	scene := e.CreateScene("main")
	ent := scene.CreateEntity("rig", engine.DefaultCamera(), engine.DefaultPointLight())
	h := e.Bridge().Handles().Issue(scene.Binding(ent))

	component, err := e.Bridge().Component(h, bridge.CapabilityCamera)
	require.NoError(t, err)
	camera := component.(*bridge.Camera)
	fov := camera.FieldOfView()
	require.NoError(t, fov.Write(90))
	far, err := camera.FarPlane().Read()
	require.NoError(t, err)
	assert.Equal(t, float32(1000), far)
	assert.Equal(t, float32(90), ecs.Get[engine.Camera](scene.World(), ent).FieldOfView)

	component, err = e.Bridge().Component(h, bridge.CapabilityLight)
	require.NoError(t, err)
	light := component.(*bridge.Light)
	require.NoError(t, light.SetColor(bridge.Vec(1, 0.5)))
	native := ecs.Get[engine.PointLight](scene.World(), ent)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, native.Color)

	_, err = e.AttachScript(scene, ent, "lamp")
	require.NoError(t, err)
	e.Frame(0)
	e.Frame(0)
	assert.Equal(t, float32(0.25), native.Intensity)
}

func TestEngineMaxFaults(t *testing.T) {
	e := newEngine(t, func(c *engine.Config) { c.Loop.MaxFaults = 2 })
	scene := e.CreateScene("main")
	inst, err := e.AttachScript(scene, scene.CreateEntity("dark"), "lamp")
	require.NoError(t, err)

	faults := e.Frame(0)
	require.Len(t, faults, 1)
	assert.ErrorIs(t, faults[0], bridge.ErrComponentNotFound)
	assert.Len(t, e.Telemetry().Faults, 1)

	e.Frame(0)
	assert.Equal(t, bridge.StateDetached, inst.State())
	assert.Empty(t, e.Frame(0))
	assert.Equal(t, int64(2), e.Telemetry().TotalFaults)
}

func TestEngineAttachToDeadEntity(t *testing.T) {
	e := newEngine(t)
	scene := e.CreateScene("main")
	ent := scene.CreateEntity("x")
	scene.Destroy(ent)
	e.Frame(0)

	_, err := e.AttachScript(scene, ent, "drifter")
	assert.ErrorIs(t, err, bridge.ErrStaleHandle)
	_, err = e.AttachScript(scene, scene.CreateEntity("y"), "nope")
	assert.ErrorIs(t, err, bridge.ErrUnknownScript)
}

func TestEngineRun(t *testing.T) {
	e := newEngine(t, func(c *engine.Config) { c.Loop.TickRate = 200 })
	scene := e.CreateScene("main")
	_, err := e.AttachScript(scene, scene.CreateEntity("d"), "drifter")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return e.Telemetry().Frame >= 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = e.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestEngineReload(t *testing.T) {
	e := newEngine(t)
	scene := e.CreateScene("main")
	ent := scene.CreateEntity("d")
	inst, err := e.AttachScript(scene, ent, "drifter")
	require.NoError(t, err)
	require.NoError(t, bridge.SetField(inst, "Speed", 10))
	e.Frame(0.1)

	next := e.Dispatcher().Registry().Clone()
	next.Replace("drifter", func() bridge.Script { return &drifter{Speed: 1} })
	require.NoError(t, e.Reload(next))

	assert.Equal(t, float32(10), inst.Script().(*drifter).Speed, "field values survive reload")
	e.Frame(0.1)
	assert.InDelta(t, 2, ecs.Get[engine.Transform](scene.World(), ent).Position.X(), 1e-5)
}
