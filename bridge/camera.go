package bridge

// Camera exposes the perspective lens of a camera entity.
type Camera struct {
	bridge *Bridge
	handle Handle
}

func (c *Camera) Capability() Capability { return CapabilityCamera }
func (c *Camera) Handle() Handle         { return c.handle }

// FieldOfView is the vertical field of view in degrees.
func (c *Camera) FieldOfView() AxisAccessor {
	return NewAxisAccessor(c.bridge, c.handle, Field{Attribute: CameraLens, Axis: X})
}

func (c *Camera) NearPlane() AxisAccessor {
	return NewAxisAccessor(c.bridge, c.handle, Field{Attribute: CameraLens, Axis: Y})
}

func (c *Camera) FarPlane() AxisAccessor {
	return NewAxisAccessor(c.bridge, c.handle, Field{Attribute: CameraLens, Axis: Z})
}
