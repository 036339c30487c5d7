package bridge

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// Options tunes a Dispatcher.
type Options struct {
	// MaxFaults detaches an instance after this many consecutive faulted
	// ticks. Zero never detaches.
	MaxFaults int
}

// Dispatcher drives script instances through their lifecycle. Instances are
// called in attach order, one at a time, on the caller's goroutine.
//
// A fault (returned error or panic) in one instance never reaches another:
// it is wrapped in a *Fault, logged, and the faulting instance is skipped for
// the rest of the tick.
type Dispatcher struct {
	bridge   *Bridge
	registry *ScriptRegistry
	logger   *zap.Logger
	opts     Options

	instances []*Instance
	byHandle  *intmap.Map[Handle, *Instance]
	detached  int

	// tick numbers the tick currently being assembled; input dispatched
	// between two Tick calls belongs to the later one.
	tick   uint64
	faults []*Fault
}

// NewDispatcher creates a dispatcher instantiating scripts from registry.
func NewDispatcher(b *Bridge, registry *ScriptRegistry, opts Options) *Dispatcher {
	return &Dispatcher{
		bridge:   b,
		registry: registry,
		logger:   b.logger.Named("dispatcher"),
		opts:     opts,
		byHandle: intmap.New[Handle, *Instance](64),
		tick:     1,
	}
}

func (d *Dispatcher) Bridge() *Bridge           { return d.bridge }
func (d *Dispatcher) Registry() *ScriptRegistry { return d.registry }

// Len returns the number of instances that are not detached.
func (d *Dispatcher) Len() int { return len(d.instances) - d.detached }

// Instances returns the live instances in attach order.
func (d *Dispatcher) Instances() []*Instance {
	out := make([]*Instance, 0, d.Len())
	for _, inst := range d.instances {
		if inst.state != StateDetached {
			out = append(out, inst)
		}
	}
	return out
}

// Lookup finds the instance owning h.
func (d *Dispatcher) Lookup(h Handle) (*Instance, bool) {
	return d.byHandle.Get(h)
}

// Attach constructs a script of the named type for the entity. The instance
// is Constructed: its field defaults are applied but nothing may be called on
// it until AssignHandle.
func (d *Dispatcher) Attach(b Binding, scriptType string) (*Instance, error) {
	script, st, err := d.registry.instantiate(scriptType)
	if err != nil {
		return nil, err
	}
	inst := &Instance{
		name:     st.Name,
		revision: st.Revision,
		script:   script,
		bridge:   d.bridge,
		binding:  b,
		state:    StateConstructed,
		logger:   d.bridge.logger.With(zap.String("script", st.Name)),
	}
	script.behavior().instance = inst
	d.instances = append(d.instances, inst)
	d.logger.Debug("attached",
		zap.String("script", st.Name),
		zap.Uint32("scene", uint32(b.Scene)),
		zap.Uint64("entity", uint64(b.Entity)))
	return inst, nil
}

// AssignHandle gives a Constructed instance its handle. The handle must be
// live, bound to the instance's entity and not owned by another instance.
// It can be assigned exactly once.
func (d *Dispatcher) AssignHandle(inst *Instance, h Handle) error {
	if inst.state != StateConstructed {
		return lifecycleError("AssignHandle", inst.state)
	}
	if owner, ok := d.byHandle.Get(h); ok && owner != inst {
		return fmt.Errorf("%w: handle %s already belongs to %s",
			ErrInvalidLifecycleCall, h, owner.Name())
	}
	binding, err := d.bridge.handles.Resolve(h)
	if err != nil {
		return err
	}
	if binding != inst.binding {
		return fmt.Errorf("%w: handle %s is bound to %v, instance to %v",
			ErrInvalidLifecycleCall, h, binding, inst.binding)
	}
	inst.handle = h
	inst.state = StateReady
	inst.logger = inst.logger.With(zap.Stringer("handle", h))
	d.byHandle.Put(h, inst)
	return nil
}

// Instantiate attaches a script, issues its handle and assigns it.
func (d *Dispatcher) Instantiate(b Binding, scriptType string) (*Instance, error) {
	inst, err := d.Attach(b, scriptType)
	if err != nil {
		return nil, err
	}
	h := d.bridge.handles.Issue(b)
	if err := d.AssignHandle(inst, h); err != nil {
		d.bridge.handles.Revoke(h)
		_ = d.Detach(inst)
		return nil, err
	}
	return inst, nil
}

// CallStart runs OnStart. It is valid exactly once, on a Ready instance.
// The instance counts as started even if OnStart faults.
func (d *Dispatcher) CallStart(inst *Instance) error {
	if inst.state != StateReady {
		return lifecycleError("CallStart", inst.state)
	}
	inst.state = StateStarted
	d.logger.Debug("start", zap.String("script", inst.name), zap.Stringer("handle", inst.handle))
	return d.invoke(inst, "OnStart", inst.script.OnStart)
}

// CallUpdate runs OnUpdate, running OnStart first if it has not run yet.
func (d *Dispatcher) CallUpdate(inst *Instance, dt float32) error {
	switch inst.state {
	case StateReady:
		if err := d.CallStart(inst); err != nil {
			return err
		}
	case StateStarted:
	default:
		return lifecycleError("CallUpdate", inst.state)
	}

	start := time.Now()
	err := d.invoke(inst, "OnUpdate", func() error { return inst.script.OnUpdate(dt) })
	inst.stats.record(time.Since(start))
	return err
}

func (d *Dispatcher) CallKeyPressed(inst *Instance, key KeyCode, repeat bool) (bool, error) {
	if !inst.active() {
		return false, lifecycleError("CallKeyPressed", inst.state)
	}
	return d.invokeHook(inst, "OnKeyPressed", func() bool { return inst.script.OnKeyPressed(key, repeat) })
}

func (d *Dispatcher) CallKeyReleased(inst *Instance, key KeyCode) (bool, error) {
	if !inst.active() {
		return false, lifecycleError("CallKeyReleased", inst.state)
	}
	return d.invokeHook(inst, "OnKeyReleased", func() bool { return inst.script.OnKeyReleased(key) })
}

func (d *Dispatcher) CallMouseMoved(inst *Instance, x, y float32, mode CursorMode) (bool, error) {
	if !inst.active() {
		return false, lifecycleError("CallMouseMoved", inst.state)
	}
	return d.invokeHook(inst, "OnMouseMoved", func() bool { return inst.script.OnMouseMoved(x, y, mode) })
}

// Detach retires the instance. Its handle and every reference handle it owns
// are revoked, so proxies it retained fail with ErrStaleHandle. No hook is
// called afterwards.
func (d *Dispatcher) Detach(inst *Instance) error {
	if inst.state == StateDetached {
		return lifecycleError("Detach", inst.state)
	}
	if inst.handle != 0 {
		d.bridge.handles.Revoke(inst.handle)
		d.byHandle.Del(inst.handle)
	}
	for _, ref := range inst.refs {
		d.bridge.handles.Revoke(ref.handle)
	}
	inst.refs = nil
	inst.state = StateDetached
	d.detached++
	d.logger.Debug("detached", zap.String("script", inst.name), zap.Stringer("handle", inst.handle))
	return nil
}

// DetachEntity detaches every instance attached to the entity.
func (d *Dispatcher) DetachEntity(b Binding) int {
	n := 0
	for _, inst := range d.instances {
		if inst.state != StateDetached && inst.binding == b {
			_ = d.Detach(inst)
			n++
		}
	}
	d.compact()
	return n
}

// DetachScene detaches every instance in the scene and revokes every other
// handle bound into it.
func (d *Dispatcher) DetachScene(scene SceneID) int {
	n := 0
	for _, inst := range d.instances {
		if inst.state != StateDetached && inst.binding.Scene == scene {
			_ = d.Detach(inst)
			n++
		}
	}
	d.bridge.handles.RevokeScene(scene)
	d.compact()
	return n
}

// Tick calls CallUpdate on every active instance in attach order and returns
// the faults raised since the previous Tick, input hooks included. An input
// hook fault counts against the tick it is delivered before, so that
// instance skips its next OnUpdate.
func (d *Dispatcher) Tick(dt float32) []*Fault {
	tick := d.tick
	for i := 0; i < len(d.instances); i++ {
		inst := d.instances[i]
		if !inst.active() || inst.faultedAt == tick {
			continue
		}
		_ = d.CallUpdate(inst, dt)
	}

	for _, inst := range d.instances {
		if !inst.active() {
			continue
		}
		if inst.faultedAt != tick {
			inst.consecutive = 0
			continue
		}
		inst.consecutive++
		if d.opts.MaxFaults > 0 && inst.consecutive >= d.opts.MaxFaults {
			d.logger.Error("detaching faulting script",
				zap.String("script", inst.name),
				zap.Stringer("handle", inst.handle),
				zap.Int("consecutive", inst.consecutive))
			_ = d.Detach(inst)
		}
	}

	d.tick++
	d.compact()

	faults := d.faults
	d.faults = nil
	return faults
}

// KeyPressed offers the event to started instances in attach order until one
// consumes it.
func (d *Dispatcher) KeyPressed(key KeyCode, repeat bool) bool {
	return d.fanOut(func(inst *Instance) (bool, error) { return d.CallKeyPressed(inst, key, repeat) })
}

func (d *Dispatcher) KeyReleased(key KeyCode) bool {
	return d.fanOut(func(inst *Instance) (bool, error) { return d.CallKeyReleased(inst, key) })
}

func (d *Dispatcher) MouseMoved(x, y float32, mode CursorMode) bool {
	return d.fanOut(func(inst *Instance) (bool, error) { return d.CallMouseMoved(inst, x, y, mode) })
}

func (d *Dispatcher) fanOut(call func(*Instance) (bool, error)) bool {
	defer d.compact()
	for i := 0; i < len(d.instances); i++ {
		inst := d.instances[i]
		if inst.state != StateStarted || inst.faultedAt == d.tick {
			continue
		}
		consumed, err := call(inst)
		if err == nil && consumed {
			return true
		}
	}
	return false
}

// Faults returns the faults recorded since the last Tick without clearing them.
func (d *Dispatcher) Faults() []*Fault {
	return slices.Clone(d.faults)
}

// Stats returns per-instance statistics in attach order.
func (d *Dispatcher) Stats() []InstanceStats {
	out := make([]InstanceStats, 0, d.Len())
	for _, inst := range d.instances {
		if inst.state != StateDetached {
			out = append(out, inst.Stats())
		}
	}
	return out
}

func (d *Dispatcher) invoke(inst *Instance, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = d.fault(inst, op, recovered(r))
		}
	}()
	if callErr := fn(); callErr != nil {
		return d.fault(inst, op, callErr)
	}
	return nil
}

func (d *Dispatcher) invokeHook(inst *Instance, op string, fn func() bool) (consumed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			consumed = false
			err = d.fault(inst, op, recovered(r))
		}
	}()
	return fn(), nil
}

func (d *Dispatcher) fault(inst *Instance, op string, err error) *Fault {
	f := &Fault{Script: inst.name, Handle: inst.handle, Op: op, Err: err}
	inst.faultedAt = d.tick
	inst.stats.faults++
	d.faults = append(d.faults, f)
	d.logger.Warn("script fault",
		zap.String("script", inst.name),
		zap.Stringer("handle", inst.handle),
		zap.String("op", op),
		zap.Error(err))
	return f
}

func recovered(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

// compact drops detached instances from the attach list.
func (d *Dispatcher) compact() {
	if d.detached == 0 {
		return
	}
	d.instances = slices.DeleteFunc(d.instances, func(inst *Instance) bool {
		return inst.state == StateDetached
	})
	d.detached = 0
}

// IsFault reports whether err is a dispatcher fault and returns it.
func IsFault(err error) (*Fault, bool) {
	var f *Fault
	ok := errors.As(err, &f)
	return f, ok
}
