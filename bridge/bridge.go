// Package bridge connects behavior scripts to entities owned by a native
// engine. Scripts never see native references: they hold generation-checked
// handles, and every attribute read or write resolves the handle and crosses
// into the engine's Host surface.
package bridge

import (
	"go.uber.org/zap"
)

// Bridge owns the handle arena and routes proxy calls to the host.
// It is confined to the engine thread.
type Bridge struct {
	handles *HandleTable
	host    Host
	input   InputSource
	logger  *zap.Logger
}

// New creates a bridge over host. A nil input answers every query with its
// zero value; a nil logger discards.
func New(host Host, input InputSource, logger *zap.Logger) *Bridge {
	if input == nil {
		input = noInput{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		handles: NewHandleTable(),
		host:    host,
		input:   input,
		logger:  logger,
	}
}

func (b *Bridge) Handles() *HandleTable { return b.handles }
func (b *Bridge) Input() InputSource    { return b.input }
func (b *Bridge) Logger() *zap.Logger   { return b.logger }

// Resolve returns the live binding behind h.
func (b *Bridge) Resolve(h Handle) (Binding, error) {
	return b.handles.Resolve(h)
}

func (b *Bridge) ReadAxis(h Handle, f Field) (float32, error) {
	binding, err := b.handles.Resolve(h)
	if err != nil {
		return 0, err
	}
	return b.host.ReadAxis(binding, f)
}

func (b *Bridge) WriteAxis(h Handle, f Field, v float32) error {
	binding, err := b.handles.Resolve(h)
	if err != nil {
		return err
	}
	return b.host.WriteAxis(binding, f, v)
}

// Basis returns a literal basis vector of the entity's transform.
func (b *Bridge) Basis(h Handle, d Direction) (Vector, error) {
	binding, err := b.handles.Resolve(h)
	if err != nil {
		return Vector{}, err
	}
	v, err := b.host.Basis(binding, d)
	if err != nil {
		return Vector{}, err
	}
	return FromVec3(v), nil
}
