// Package engine is the native side of the script bridge: scenes of ECS
// entities, the input manager, and the frame loop that drives both the
// script dispatcher and the per-scene schedulers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/ecs"
)

// Engine owns the scenes and runs frames. All methods except Post and
// Telemetry must be called from the engine goroutine.
type Engine struct {
	config     *Config
	logger     *zap.Logger
	input      *InputManager
	bridge     *bridge.Bridge
	dispatcher *bridge.Dispatcher

	scenes    *intmap.Map[bridge.SceneID, *Scene]
	order     []bridge.SceneID
	nextScene bridge.SceneID

	events eventQueue
	frames uint64
	faults int64

	telemetryMu sync.RWMutex
	telemetry   Telemetry
}

// New creates an engine with no scenes. Scripts are instantiated from
// scripts, which defaults to bridge.DefaultScripts.
func New(config *Config, scripts *bridge.ScriptRegistry, logger *zap.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if scripts == nil {
		scripts = bridge.DefaultScripts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	input, err := NewInputManager(config.Input, config.Window)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config: config,
		logger: logger.Named("engine"),
		input:  input,
		scenes: intmap.New[bridge.SceneID, *Scene](8),
	}
	e.bridge = bridge.New(natives{engine: e}, input, logger)
	e.dispatcher = bridge.NewDispatcher(e.bridge, scripts, bridge.Options{MaxFaults: config.Loop.MaxFaults})
	return e, nil
}

func (e *Engine) Config() *Config                { return e.config }
func (e *Engine) Logger() *zap.Logger            { return e.logger }
func (e *Engine) Input() *InputManager           { return e.input }
func (e *Engine) Bridge() *bridge.Bridge         { return e.bridge }
func (e *Engine) Dispatcher() *bridge.Dispatcher { return e.dispatcher }

// Frames returns the number of completed frames.
func (e *Engine) Frames() uint64 { return e.frames }

// CreateScene adds an empty scene. Destroyed entities in it detach their
// scripts once the scene's command buffer is flushed.
func (e *Engine) CreateScene(name string) *Scene {
	e.nextScene++
	scene := newScene(e.nextScene, name)
	scene.scheduler.OnDestroy(func(ent ecs.Entity) {
		scene.forget(ent)
		if n := e.dispatcher.DetachEntity(scene.Binding(ent)); n > 0 {
			e.logger.Debug("detached scripts of destroyed entity",
				zap.String("scene", scene.name),
				zap.Uint64("entity", uint64(ent)),
				zap.Int("scripts", n))
		}
	})
	e.scenes.Put(scene.id, scene)
	e.order = append(e.order, scene.id)
	e.logger.Info("scene created", zap.String("scene", name), zap.Uint32("id", uint32(scene.id)))
	return scene
}

func (e *Engine) Scene(id bridge.SceneID) (*Scene, bool) {
	return e.scenes.Get(id)
}

// SceneByName returns the oldest scene called name.
func (e *Engine) SceneByName(name string) (*Scene, bool) {
	for _, id := range e.order {
		if scene, _ := e.scenes.Get(id); scene.name == name {
			return scene, true
		}
	}
	return nil, false
}

// Scenes returns the loaded scenes in creation order.
func (e *Engine) Scenes() []*Scene {
	out := make([]*Scene, 0, len(e.order))
	for _, id := range e.order {
		scene, _ := e.scenes.Get(id)
		out = append(out, scene)
	}
	return out
}

// DestroyScene unloads a scene, detaching every script bound into it and
// invalidating all of its handles.
func (e *Engine) DestroyScene(id bridge.SceneID) bool {
	scene, ok := e.scenes.Get(id)
	if !ok {
		return false
	}
	n := e.dispatcher.DetachScene(id)
	e.scenes.Del(id)
	for i, sid := range e.order {
		if sid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.logger.Info("scene destroyed", zap.String("scene", scene.name), zap.Int("scripts", n))
	return true
}

// AttachScript instantiates scriptType on entity ent of scene.
func (e *Engine) AttachScript(scene *Scene, ent ecs.Entity, scriptType string) (*bridge.Instance, error) {
	if !scene.world.Alive(ent) {
		return nil, fmt.Errorf("attach %s: %w", scriptType, bridge.ErrStaleHandle)
	}
	inst, err := e.dispatcher.Instantiate(scene.Binding(ent), scriptType)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("script attached",
		zap.String("script", scriptType),
		zap.String("scene", scene.name),
		zap.Stringer("handle", inst.Handle()))
	return inst, nil
}

// Inject points a component field of inst at a component of target.
func (e *Engine) Inject(inst *bridge.Instance, field string, scene *Scene, target ecs.Entity, c bridge.Capability) error {
	return e.dispatcher.Inject(inst, field, scene.Binding(target), c)
}

// Reload swaps the script registry, rebuilding every attached instance.
func (e *Engine) Reload(scripts *bridge.ScriptRegistry) error {
	err := e.dispatcher.Reload(scripts)
	if err != nil {
		e.logger.Warn("reload finished with errors", zap.Error(err))
	} else {
		e.logger.Info("scripts reloaded", zap.Int("instances", e.dispatcher.Len()))
	}
	return err
}

// Post queues an event for the next frame. Safe for concurrent use.
func (e *Engine) Post(ev Event) {
	e.events.push(ev)
}

// Frame applies queued events, updates every script and then runs each
// scene's systems. It returns the script faults of this frame.
func (e *Engine) Frame(dt float32) []*bridge.Fault {
	for _, ev := range e.events.drain() {
		e.apply(ev)
	}

	faults := e.dispatcher.Tick(dt)
	for _, id := range e.order {
		scene, _ := e.scenes.Get(id)
		scene.scheduler.Once(float64(dt))
	}

	e.frames++
	e.faults += int64(len(faults))
	e.publish(faults)
	return faults
}

func (e *Engine) apply(ev Event) {
	switch ev.Kind {
	case EventKeyDown:
		repeat := e.input.KeyDown(ev.Key)
		e.dispatcher.KeyPressed(ev.Key, repeat)
	case EventKeyUp:
		e.input.KeyUp(ev.Key)
		e.dispatcher.KeyReleased(ev.Key)
	case EventMouseMove:
		e.input.MouseMoved(ev.X, ev.Y)
		e.dispatcher.MouseMoved(ev.X, ev.Y, e.input.CursorMode())
	case EventCursorMode:
		e.input.SetCursorMode(ev.Mode)
	case EventDestroy:
		if scene, ok := e.scenes.Get(ev.Target.Scene); ok {
			scene.Destroy(ecs.Entity(ev.Target.Entity))
		}
	case EventCall:
		if ev.Call != nil {
			ev.Call(e)
		}
	default:
		e.logger.Warn("dropping unknown event", zap.Stringer("kind", ev.Kind))
	}
}

// Run calls Frame at the configured tick rate until ctx is done. Each frame
// receives the measured time since the previous one.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.config.Loop.Interval())
	defer ticker.Stop()

	e.logger.Info("frame loop started", zap.Int("tick_rate", e.config.Loop.TickRate))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("frame loop stopped", zap.Uint64("frames", e.frames))
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case now := <-ticker.C:
			e.Frame(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}
