package bridge

// Transform exposes an entity's position, rotation (Euler degrees) and scale.
type Transform struct {
	bridge *Bridge
	handle Handle
}

func (t *Transform) Capability() Capability { return CapabilityTransform }
func (t *Transform) Handle() Handle         { return t.handle }

func (t *Transform) Position() Vector { return BoundVector(t.bridge, t.handle, Position) }
func (t *Transform) Rotation() Vector { return BoundVector(t.bridge, t.handle, Rotation) }
func (t *Transform) Scale() Vector    { return BoundVector(t.bridge, t.handle, Scale) }

// SetPosition writes X, Y, Z as three separate native calls.
func (t *Transform) SetPosition(v Vector) error {
	p := t.Position()
	return p.Assign(v)
}

func (t *Transform) SetRotation(v Vector) error {
	r := t.Rotation()
	return r.Assign(v)
}

func (t *Transform) SetScale(v Vector) error {
	s := t.Scale()
	return s.Assign(v)
}

// Translate adds delta to the position.
func (t *Transform) Translate(delta Vector) error {
	p := t.Position()
	current, err := p.Snapshot()
	if err != nil {
		return err
	}
	d, err := delta.Snapshot()
	if err != nil {
		return err
	}
	return p.Assign(FromVec3(current.Add(d)))
}

// Basis asks the host for one of the six basis vectors of the current
// orientation. The result is a literal.
func (t *Transform) Basis(d Direction) (Vector, error) {
	return t.bridge.Basis(t.handle, d)
}

func (t *Transform) mustBasis(d Direction) Vector {
	v, err := t.Basis(d)
	if err != nil {
		panic(err)
	}
	return v
}

func (t *Transform) Forward() Vector  { return t.mustBasis(DirectionForward) }
func (t *Transform) Backward() Vector { return t.mustBasis(DirectionBackward) }
func (t *Transform) Left() Vector     { return t.mustBasis(DirectionLeft) }
func (t *Transform) Right() Vector    { return t.mustBasis(DirectionRight) }
func (t *Transform) Up() Vector       { return t.mustBasis(DirectionUp) }
func (t *Transform) Down() Vector     { return t.mustBasis(DirectionDown) }
