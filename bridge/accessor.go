package bridge

// Attribute is one mutable attribute group of a native component.
type Attribute uint8

const (
	Position Attribute = iota
	Rotation
	Scale
	LightColor
	LightIntensity
	// CameraLens packs field of view (X), near plane (Y) and far plane (Z).
	CameraLens
)

var attributeNames = [...]string{"Position", "Rotation", "Scale", "LightColor", "LightIntensity", "CameraLens"}

func (a Attribute) String() string {
	if int(a) < len(attributeNames) {
		return attributeNames[a]
	}
	return "Attribute(?)"
}

// Capability returns the component that owns the attribute.
func (a Attribute) Capability() Capability {
	switch a {
	case Position, Rotation, Scale:
		return CapabilityTransform
	case LightColor, LightIntensity:
		return CapabilityLight
	case CameraLens:
		return CapabilityCamera
	}
	return 0
}

// Axis selects one scalar channel of an attribute.
type Axis uint8

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	}
	return "Axis(?)"
}

// Field addresses one scalar of one attribute, e.g. {Position, X}.
type Field struct {
	Attribute Attribute
	Axis      Axis
}

func (f Field) String() string {
	return f.Attribute.String() + "." + f.Axis.String()
}

// AxisAccessor is a read/write pair bound to one scalar field of one entity.
// It holds no value of its own: every Read and Write resolves the handle and
// crosses into the host.
type AxisAccessor struct {
	bridge *Bridge
	handle Handle
	field  Field
}

// NewAxisAccessor binds an accessor to the field of the entity behind h.
func NewAxisAccessor(b *Bridge, h Handle, f Field) AxisAccessor {
	return AxisAccessor{bridge: b, handle: h, field: f}
}

func (a AxisAccessor) Handle() Handle { return a.handle }
func (a AxisAccessor) Field() Field   { return a.field }

// Read returns the current native value.
func (a AxisAccessor) Read() (float32, error) {
	return a.bridge.ReadAxis(a.handle, a.field)
}

// Write stores v natively. The change is visible to the next Read.
func (a AxisAccessor) Write(v float32) error {
	return a.bridge.WriteAxis(a.handle, a.field, v)
}

// Value is Read that panics on failure. See Vector.X.
func (a AxisAccessor) Value() float32 {
	v, err := a.Read()
	if err != nil {
		panic(err)
	}
	return v
}
