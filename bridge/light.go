package bridge

// Light is a point light: an RGB color and a scalar intensity.
type Light struct {
	bridge *Bridge
	handle Handle
}

func (l *Light) Capability() Capability { return CapabilityLight }
func (l *Light) Handle() Handle         { return l.handle }

// Color is bound as (r, g, b) on X, Y, Z.
func (l *Light) Color() Vector {
	return BoundVector(l.bridge, l.handle, LightColor)
}

func (l *Light) SetColor(v Vector) error {
	c := l.Color()
	return c.Assign(v)
}

func (l *Light) Intensity() AxisAccessor {
	return NewAxisAccessor(l.bridge, l.handle, Field{Attribute: LightIntensity, Axis: X})
}
