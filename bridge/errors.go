package bridge

import (
	"errors"
	"fmt"
)

var (
	// Handle errors

	ErrStaleHandle = errors.New("stale behavior handle")

	// Component errors

	ErrComponentNotFound = errors.New("component not found")
	ErrUnknownCapability = errors.New("unknown component capability")

	// Lifecycle errors

	ErrInvalidLifecycleCall = errors.New("invalid lifecycle call")
	ErrUnknownScript        = errors.New("unknown script type")

	// Field errors

	ErrUnknownField = errors.New("unknown script field")
	ErrFieldType    = errors.New("script field type mismatch")
)

// Fault records an error or panic raised by one script instance while the
// dispatcher was calling into it. It unwraps to the underlying error, so
// errors.Is(fault, ErrStaleHandle) works for accessor failures.
type Fault struct {
	Script string
	Handle Handle
	Op     string
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s %s (handle %s): %v", f.Script, f.Op, f.Handle, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func lifecycleError(op string, state State) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidLifecycleCall, op, state)
}
