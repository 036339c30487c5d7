package bridge

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Factory returns a fresh script with its field defaults applied.
type Factory func() Script

// ScriptType is one registered script.
type ScriptType struct {
	Name    string
	Factory Factory
	Type    reflect.Type
	// Revision hashes the exported field layout. Two registrations with the
	// same revision can exchange field values without conversion.
	Revision uint64
}

// ScriptRegistry maps script type names to factories.
type ScriptRegistry struct {
	types map[string]*ScriptType
}

func NewScriptRegistry() *ScriptRegistry {
	return &ScriptRegistry{types: make(map[string]*ScriptType)}
}

// DefaultScripts is populated by script packages from their init functions.
var DefaultScripts = NewScriptRegistry()

// Register adds a script under name. The factory must return a pointer to a
// struct embedding Behavior. Registering the same name twice panics.
func (r *ScriptRegistry) Register(name string, factory Factory) *ScriptType {
	if _, exists := r.types[name]; exists {
		panic(fmt.Sprintf("bridge: script %q registered twice", name))
	}
	sample := factory()
	t := reflect.TypeOf(sample)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("bridge: script %q factory returned %v, want pointer to struct", name, t))
	}
	st := &ScriptType{
		Name:     name,
		Factory:  factory,
		Type:     t.Elem(),
		Revision: layoutRevision(t.Elem()),
	}
	r.types[name] = st
	return st
}

// Register adds a script to DefaultScripts.
func Register(name string, factory Factory) *ScriptType {
	return DefaultScripts.Register(name, factory)
}

func (r *ScriptRegistry) Lookup(name string) (*ScriptType, bool) {
	st, ok := r.types[name]
	return st, ok
}

// Names returns the registered names in sorted order.
func (r *ScriptRegistry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *ScriptRegistry) Len() int {
	return len(r.types)
}

// Clone returns an independent copy, typically extended and then handed to
// Dispatcher.Reload.
func (r *ScriptRegistry) Clone() *ScriptRegistry {
	out := NewScriptRegistry()
	for name, st := range r.types {
		out.types[name] = st
	}
	return out
}

// Replace registers factory under name, overwriting any earlier entry.
func (r *ScriptRegistry) Replace(name string, factory Factory) *ScriptType {
	delete(r.types, name)
	return r.Register(name, factory)
}

// Remove drops a registration.
func (r *ScriptRegistry) Remove(name string) bool {
	if _, ok := r.types[name]; !ok {
		return false
	}
	delete(r.types, name)
	return true
}

func (r *ScriptRegistry) instantiate(name string) (Script, *ScriptType, error) {
	st, ok := r.types[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownScript, name)
	}
	return st.Factory(), st, nil
}

func layoutRevision(t reflect.Type) uint64 {
	d := xxhash.New()
	for _, f := range fieldsOf(t) {
		_, _ = d.WriteString(f.Name)
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(f.Type.String())
		_, _ = d.WriteString(";")
	}
	_, _ = d.WriteString(strconv.Itoa(len(fieldsOf(t))))
	return d.Sum64()
}
