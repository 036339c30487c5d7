package bridge

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Host is the native engine's internal-call surface. Every method is a
// synchronous round trip keyed by a resolved binding. Implementations report a
// binding whose scene or entity no longer exists with ErrStaleHandle and a
// missing component with ErrComponentNotFound.
type Host interface {
	ReadAxis(b Binding, f Field) (float32, error)
	WriteAxis(b Binding, f Field, v float32) error
	// Basis returns the unit direction derived from the entity's native
	// orientation.
	Basis(b Binding, d Direction) (mgl32.Vec3, error)
	HasCapability(b Binding, c Capability) (bool, error)
}

// InputSource answers input-state queries made by scripts.
type InputSource interface {
	// Axis returns the named axis value, or 0 for unknown names.
	Axis(name string) float32
	// Key reports whether any key mapped to the name is held.
	Key(name string) bool
	CursorMode() CursorMode
	SetCursorMode(mode CursorMode)
}

// Direction names one of the six basis vectors of a transform.
type Direction uint8

const (
	DirectionForward Direction = iota
	DirectionBackward
	DirectionLeft
	DirectionRight
	DirectionUp
	DirectionDown
)

var directionNames = [...]string{"Forward", "Backward", "Left", "Right", "Up", "Down"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "Direction(?)"
}

// CursorMode is the pointer capture mode of the window.
type CursorMode uint8

const (
	CursorNormal CursorMode = iota
	CursorRelative
)

func (m CursorMode) String() string {
	if m == CursorRelative {
		return "Relative"
	}
	return "Normal"
}

type noInput struct{}

func (noInput) Axis(string) float32       { return 0 }
func (noInput) Key(string) bool           { return false }
func (noInput) CursorMode() CursorMode    { return CursorNormal }
func (noInput) SetCursorMode(_ CursorMode) {}
