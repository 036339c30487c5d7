package bridge

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// FieldKind classifies an exposed script field.
type FieldKind uint8

const (
	FieldOther FieldKind = iota
	FieldFloat
	FieldInt
	FieldBool
	FieldString
	FieldVector
	// FieldReference holds another entity's component proxy. It is set with
	// Dispatcher.Inject, never with SetField.
	FieldReference
)

var fieldKindNames = [...]string{"other", "float", "int", "bool", "string", "vector", "reference"}

func (k FieldKind) String() string {
	if int(k) < len(fieldKindNames) {
		return fieldKindNames[k]
	}
	return "FieldKind(?)"
}

// FieldInfo describes one exported field of a script struct.
type FieldInfo struct {
	Name  string
	Type  reflect.Type
	Index int
	Kind  FieldKind
}

// FieldValue is a field together with its current value.
type FieldValue struct {
	FieldInfo
	Value any
}

var (
	vectorType    = reflect.TypeFor[Vector]()
	componentType = reflect.TypeFor[Component]()
)

type fieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]FieldInfo
}

var scriptFields = &fieldCache{fields: make(map[reflect.Type][]FieldInfo)}

// fieldsOf returns the exposed fields of a script struct type. Embedded
// structs (Behavior included) are not exposed.
func fieldsOf(t reflect.Type) []FieldInfo {
	scriptFields.mu.RLock()
	cached, ok := scriptFields.fields[t]
	scriptFields.mu.RUnlock()
	if ok {
		return cached
	}

	scriptFields.mu.Lock()
	defer scriptFields.mu.Unlock()

	if cached, ok := scriptFields.fields[t]; ok {
		return cached
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() || field.Anonymous {
				continue
			}
			fields = append(fields, FieldInfo{
				Name:  field.Name,
				Type:  field.Type,
				Index: i,
				Kind:  kindOf(field.Type),
			})
		}
	}

	scriptFields.fields[t] = fields
	return fields
}

func kindOf(t reflect.Type) FieldKind {
	switch {
	case t == vectorType:
		return FieldVector
	case t.Kind() == reflect.Ptr && t.Implements(componentType):
		return FieldReference
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return FieldFloat
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldInt
	case reflect.Bool:
		return FieldBool
	case reflect.String:
		return FieldString
	}
	return FieldOther
}

func lookupField(t reflect.Type, name string) (FieldInfo, bool) {
	for _, f := range fieldsOf(t) {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

func structValue(s Script) reflect.Value {
	return reflect.ValueOf(s).Elem()
}

// Fields returns the instance's exposed fields and their current values.
func Fields(inst *Instance) []FieldValue {
	v := structValue(inst.script)
	infos := fieldsOf(v.Type())
	out := make([]FieldValue, len(infos))
	for i, info := range infos {
		out[i] = FieldValue{FieldInfo: info, Value: v.Field(info.Index).Interface()}
	}
	return out
}

// Fields returns the exposed fields of the script type with the values a
// fresh instance starts with.
func (st *ScriptType) Fields() []FieldValue {
	v := structValue(st.Factory())
	infos := fieldsOf(v.Type())
	out := make([]FieldValue, len(infos))
	for i, info := range infos {
		out[i] = FieldValue{FieldInfo: info, Value: v.Field(info.Index).Interface()}
	}
	return out
}

// SetField assigns value to the named field. Numbers convert between integer
// and float kinds; vectors accept a Vector, an mgl32.Vec3 or a slice of up to
// three numbers.
func SetField(inst *Instance, name string, value any) error {
	if inst.state == StateDetached {
		return lifecycleError("SetField", inst.state)
	}
	v := structValue(inst.script)
	info, ok := lookupField(v.Type(), name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, inst.name, name)
	}
	if err := assignField(v.Field(info.Index), info, value); err != nil {
		return fmt.Errorf("%s.%s: %w", inst.name, name, err)
	}
	return nil
}

func assignField(dst reflect.Value, info FieldInfo, value any) error {
	switch info.Kind {
	case FieldReference:
		return fmt.Errorf("%w: reference fields are injected", ErrFieldType)
	case FieldVector:
		vec, err := toVector(value)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(vec))
		return nil
	case FieldFloat, FieldInt:
		src := reflect.ValueOf(value)
		if !src.IsValid() || kindOf(src.Type()) != FieldFloat && kindOf(src.Type()) != FieldInt {
			return fmt.Errorf("%w: want number, got %T", ErrFieldType, value)
		}
		dst.Set(src.Convert(info.Type))
		return nil
	}
	src := reflect.ValueOf(value)
	if !src.IsValid() || !src.Type().AssignableTo(info.Type) {
		return fmt.Errorf("%w: want %s, got %T", ErrFieldType, info.Type, value)
	}
	dst.Set(src)
	return nil
}

func toVector(value any) (Vector, error) {
	switch v := value.(type) {
	case Vector:
		return v, nil
	case mgl32.Vec3:
		return FromVec3(v), nil
	case []float32:
		if len(v) > 3 {
			break
		}
		return Vec(v...), nil
	case []float64:
		if len(v) > 3 {
			break
		}
		out := make([]float32, len(v))
		for i, c := range v {
			out[i] = float32(c)
		}
		return Vec(out...), nil
	case []any:
		if len(v) > 3 {
			break
		}
		out := make([]float32, len(v))
		for i, c := range v {
			rv := reflect.ValueOf(c)
			if !rv.IsValid() || (kindOf(rv.Type()) != FieldFloat && kindOf(rv.Type()) != FieldInt) {
				return Vector{}, fmt.Errorf("%w: vector component %d is %T", ErrFieldType, i, c)
			}
			out[i] = float32(rv.Convert(reflect.TypeFor[float64]()).Float())
		}
		return Vec(out...), nil
	}
	return Vector{}, fmt.Errorf("%w: want vector, got %T", ErrFieldType, value)
}

// copyFields carries over every field whose name and type match in both
// scripts. It returns the names that were copied.
func copyFields(dst, src Script) []string {
	dv, sv := structValue(dst), structValue(src)
	var copied []string
	for _, sf := range fieldsOf(sv.Type()) {
		df, ok := lookupField(dv.Type(), sf.Name)
		if !ok || df.Type != sf.Type {
			continue
		}
		dv.Field(df.Index).Set(sv.Field(sf.Index))
		copied = append(copied, sf.Name)
	}
	return copied
}
