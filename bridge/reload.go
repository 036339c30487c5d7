package bridge

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Inject points a reference field of inst at another entity's component, for
// example a car script following the camera's transform. The reference gets
// its own handle, owned by inst and revoked when inst is detached. Injecting
// the same field again replaces the earlier reference.
func (d *Dispatcher) Inject(inst *Instance, field string, target Binding, c Capability) error {
	if inst.state == StateDetached {
		return lifecycleError("Inject", inst.state)
	}
	entry, ok := directory[c]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCapability, c)
	}
	v := structValue(inst.script)
	info, ok := lookupField(v.Type(), field)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, inst.name, field)
	}
	if info.Kind != FieldReference || reflect.TypeOf(entry.new(nil, 0)) != info.Type {
		return fmt.Errorf("%w: %s.%s is %s, cannot hold %s", ErrFieldType, inst.name, field, info.Type, c)
	}

	h := d.bridge.handles.Issue(target)
	component, err := d.bridge.Component(h, c)
	if err != nil {
		d.bridge.handles.Revoke(h)
		return fmt.Errorf("inject %s.%s: %w", inst.name, field, err)
	}

	ref := reference{field: field, binding: target, capability: c, handle: h}
	replaced := false
	for i := range inst.refs {
		if inst.refs[i].field == field {
			d.bridge.handles.Revoke(inst.refs[i].handle)
			inst.refs[i] = ref
			replaced = true
			break
		}
	}
	if !replaced {
		inst.refs = append(inst.refs, ref)
	}
	v.Field(info.Index).Set(reflect.ValueOf(component))
	return nil
}

// Reload rebuilds every live instance from registry. Field values whose name
// and type survive are carried over, references are re-pointed, the handle is
// kept and started instances run OnStart again. Instances whose script type is
// no longer registered are detached. The returned error joins the faults
// raised by the restarted OnStart hooks.
func (d *Dispatcher) Reload(registry *ScriptRegistry) error {
	d.registry = registry
	var errs []error
	for _, inst := range d.instances {
		if inst.state == StateDetached {
			continue
		}
		st, ok := registry.Lookup(inst.name)
		if !ok {
			d.logger.Warn("script type removed, detaching",
				zap.String("script", inst.name),
				zap.Stringer("handle", inst.handle))
			_ = d.Detach(inst)
			continue
		}

		old := inst.script
		next := st.Factory()
		copied := copyFields(next, old)
		old.behavior().instance = nil
		next.behavior().instance = inst
		inst.script = next

		d.repoint(inst)

		d.logger.Debug("reloaded",
			zap.String("script", inst.name),
			zap.Stringer("handle", inst.handle),
			zap.Bool("layoutChanged", st.Revision != inst.revision),
			zap.Strings("carried", copied))
		inst.revision = st.Revision

		if inst.state == StateStarted {
			inst.state = StateReady
			if err := d.CallStart(inst); err != nil {
				errs = append(errs, err)
			}
		}
	}
	d.compact()
	return errors.Join(errs...)
}

// repoint re-sets every reference field of a freshly rebuilt script and
// revokes references whose field disappeared.
func (d *Dispatcher) repoint(inst *Instance) {
	v := structValue(inst.script)
	kept := inst.refs[:0]
	for _, ref := range inst.refs {
		info, ok := lookupField(v.Type(), ref.field)
		proxy := directory[ref.capability].new(d.bridge, ref.handle)
		if !ok || info.Type != reflect.TypeOf(proxy) {
			d.bridge.handles.Revoke(ref.handle)
			continue
		}
		v.Field(info.Index).Set(reflect.ValueOf(proxy))
		kept = append(kept, ref)
	}
	inst.refs = kept
}
