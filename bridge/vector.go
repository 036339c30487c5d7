package bridge

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type vectorKind uint8

const (
	literalVector vectorKind = iota
	boundVector
)

// Vector is a three component value that is either literal storage or bound
// to one attribute of one entity. Reading a bound channel always goes to the
// host and writing one mutates the entity immediately.
//
// Arithmetic never binds its result: operands are read once and the result is
// a new literal. The zero Vector is the literal (0, 0, 0).
//
// Convenience methods that cannot return an error (X, Length, Add, ...) panic
// with the accessor error when a bound read fails. Script callbacks run under
// the dispatcher, which turns that panic into the instance's fault.
type Vector struct {
	kind      vectorKind
	v         mgl32.Vec3
	bridge    *Bridge
	handle    Handle
	attribute Attribute
}

var (
	Zero    = Vector{}
	One     = Vec(1, 1, 1)
	Up      = Vec(0, 1, 0)
	Down    = Vec(0, -1, 0)
	Left    = Vec(-1, 0, 0)
	Right   = Vec(1, 0, 0)
	Forward = Vec(0, 0, -1)
	Back    = Vec(0, 0, 1)
)

// Vec builds a literal vector from up to three components. Omitted trailing
// components are 0.
func Vec(components ...float32) Vector {
	if len(components) > 3 {
		panic(fmt.Sprintf("bridge.Vec: %d components", len(components)))
	}
	var out Vector
	copy(out.v[:], components)
	return out
}

// FromVec3 wraps a math vector as a literal.
func FromVec3(v mgl32.Vec3) Vector {
	return Vector{v: v}
}

// BoundVector binds the three channels of attr on the entity behind h.
func BoundVector(b *Bridge, h Handle, attr Attribute) Vector {
	return Vector{kind: boundVector, bridge: b, handle: h, attribute: attr}
}

// IsBound reports whether the channels are backed by native state.
func (v Vector) IsBound() bool {
	return v.kind == boundVector
}

// Accessor returns the accessor behind one channel of a bound vector.
func (v Vector) Accessor(axis Axis) (AxisAccessor, bool) {
	if v.kind != boundVector {
		return AxisAccessor{}, false
	}
	return NewAxisAccessor(v.bridge, v.handle, Field{Attribute: v.attribute, Axis: axis}), true
}

// Get reads one channel.
func (v Vector) Get(axis Axis) (float32, error) {
	if axis > Z {
		return 0, fmt.Errorf("bridge: invalid axis %d", axis)
	}
	if v.kind == literalVector {
		return v.v[axis], nil
	}
	return v.bridge.ReadAxis(v.handle, Field{Attribute: v.attribute, Axis: axis})
}

// Set writes one channel. On a bound vector this is a native write.
func (v *Vector) Set(axis Axis, value float32) error {
	if axis > Z {
		return fmt.Errorf("bridge: invalid axis %d", axis)
	}
	if v.kind == literalVector {
		v.v[axis] = value
		return nil
	}
	return v.bridge.WriteAxis(v.handle, Field{Attribute: v.attribute, Axis: axis}, value)
}

func (v Vector) must(axis Axis) float32 {
	value, err := v.Get(axis)
	if err != nil {
		panic(err)
	}
	return value
}

func (v Vector) X() float32 { return v.must(X) }
func (v Vector) Y() float32 { return v.must(Y) }
func (v Vector) Z() float32 { return v.must(Z) }

func (v *Vector) SetX(value float32) error { return v.Set(X, value) }
func (v *Vector) SetY(value float32) error { return v.Set(Y, value) }
func (v *Vector) SetZ(value float32) error { return v.Set(Z, value) }

// Snapshot reads all three channels, in X, Y, Z order.
func (v Vector) Snapshot() (mgl32.Vec3, error) {
	if v.kind == literalVector {
		return v.v, nil
	}
	var out mgl32.Vec3
	for axis := X; axis <= Z; axis++ {
		value, err := v.Get(axis)
		if err != nil {
			return mgl32.Vec3{}, err
		}
		out[axis] = value
	}
	return out, nil
}

// Vec3 is Snapshot that panics on failure.
func (v Vector) Vec3() mgl32.Vec3 {
	out, err := v.Snapshot()
	if err != nil {
		panic(err)
	}
	return out
}

// Literal returns a detached copy of the current values.
func (v Vector) Literal() (Vector, error) {
	out, err := v.Snapshot()
	if err != nil {
		return Vector{}, err
	}
	return FromVec3(out), nil
}

// Assign copies other into v channel by channel. The source is read in full
// before the first write; the writes then go out as X, Y, Z, each its own
// native call.
func (v *Vector) Assign(other Vector) error {
	src, err := other.Snapshot()
	if err != nil {
		return err
	}
	for axis := X; axis <= Z; axis++ {
		if err := v.Set(axis, src[axis]); err != nil {
			return err
		}
	}
	return nil
}

func (v Vector) Add(o Vector) Vector { return FromVec3(v.Vec3().Add(o.Vec3())) }
func (v Vector) Sub(o Vector) Vector { return FromVec3(v.Vec3().Sub(o.Vec3())) }

// Mul multiplies component-wise.
func (v Vector) Mul(o Vector) Vector {
	a, b := v.Vec3(), o.Vec3()
	return Vec(a[0]*b[0], a[1]*b[1], a[2]*b[2])
}

// Div divides component-wise. Division by a zero component follows IEEE 754.
func (v Vector) Div(o Vector) Vector {
	a, b := v.Vec3(), o.Vec3()
	return Vec(a[0]/b[0], a[1]/b[1], a[2]/b[2])
}

func (v Vector) AddScalar(s float32) Vector {
	a := v.Vec3()
	return Vec(a[0]+s, a[1]+s, a[2]+s)
}

func (v Vector) SubScalar(s float32) Vector {
	a := v.Vec3()
	return Vec(a[0]-s, a[1]-s, a[2]-s)
}

func (v Vector) Scale(s float32) Vector     { return FromVec3(v.Vec3().Mul(s)) }
func (v Vector) DivScalar(s float32) Vector { return FromVec3(v.Vec3().Mul(1 / s)) }
func (v Vector) Neg() Vector                { return FromVec3(v.Vec3().Mul(-1)) }

func (v Vector) Dot(o Vector) float32  { return v.Vec3().Dot(o.Vec3()) }
func (v Vector) Cross(o Vector) Vector { return FromVec3(v.Vec3().Cross(o.Vec3())) }

// Lerp interpolates linearly from v (t=0) to o (t=1). Both endpoints are
// reproduced exactly.
func (v Vector) Lerp(o Vector, t float32) Vector {
	a, b := v.Vec3(), o.Vec3()
	return FromVec3(a.Mul(1 - t).Add(b.Mul(t)))
}

func (v Vector) Length() float32 {
	return v.Vec3().Len()
}

// Normalized returns the unit vector in the same direction. The zero vector
// normalizes to itself.
func (v Vector) Normalized() Vector {
	a := v.Vec3()
	length := a.Len()
	if length == 0 || math.IsNaN(float64(length)) {
		return Vector{}
	}
	return FromVec3(a.Mul(1 / length))
}

// String formats the current values. A failing bound read is reported inline
// rather than panicking.
func (v Vector) String() string {
	out, err := v.Snapshot()
	if err != nil {
		return fmt.Sprintf("Vector(%s: %v)", v.attribute, err)
	}
	return fmt.Sprintf("(%g, %g, %g)", out[0], out[1], out[2])
}
