package ecs

import (
	"iter"
	"reflect"
)

// ComponentRegistry manages component type registration for a World.
// Each World has its own ComponentRegistry, allowing multiple independent
// scenes to coexist without interference.
type ComponentRegistry struct {
	factories map[reflect.Type]func() componentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() componentStorage),
	}
}

// RegisterComponent registers a new component type with the given registry.
// This must be called for each component type before it can be used.
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeFor[T]()
	r.factories[t] = func() componentStorage {
		return &genericComponentStorage[T]{}
	}
}

// Registered reports whether the component type has been registered.
func (r *ComponentRegistry) Registered(t reflect.Type) bool {
	_, ok := r.factories[t]
	return ok
}

func (r *ComponentRegistry) getFactory(t reflect.Type) func() componentStorage {
	return r.factories[t]
}

const (
	genericBlockSize = 64
)

// componentStorage is a type-erased, slot-indexed component storage.
type componentStorage interface {
	Set(index int, item any) bool
	Delete(index int)
	Get(index int) any
	Has(index int) bool
	Len() int
	Iter() iter.Seq[int]
}

// genericComponentStorage stores components of type T in fixed-size blocks
// addressed directly by entity slot index. Pointers returned by Get stay valid
// until the slot is deleted, since blocks are never moved once allocated.
type genericComponentStorage[T any] struct {
	blocks []*[genericBlockSize]T
	filled []*[genericBlockSize]bool
	count  int
}

func (cs *genericComponentStorage[T]) ensure(index int) {
	blockIdx := index / genericBlockSize
	for blockIdx >= len(cs.blocks) {
		cs.blocks = append(cs.blocks, new([genericBlockSize]T))
		cs.filled = append(cs.filled, new([genericBlockSize]bool))
	}
}

// Set stores a component at the given slot, replacing any previous value.
// It accepts either T or *T and reports false for any other type.
func (cs *genericComponentStorage[T]) Set(index int, item any) bool {
	var concreteItem T
	if ptr, ok := item.(*T); ok {
		concreteItem = *ptr
	} else if val, ok := item.(T); ok {
		concreteItem = val
	} else {
		return false
	}

	cs.ensure(index)
	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	if !cs.filled[blockIdx][slotIdx] {
		cs.count++
	}
	cs.blocks[blockIdx][slotIdx] = concreteItem
	cs.filled[blockIdx][slotIdx] = true
	return true
}

// Get returns a pointer to the component at the given slot, or nil.
func (cs *genericComponentStorage[T]) Get(index int) any {
	if p := cs.get(index); p != nil {
		return p
	}
	return nil
}

func (cs *genericComponentStorage[T]) get(index int) *T {
	if index < 0 {
		return nil
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	if blockIdx >= len(cs.blocks) || !cs.filled[blockIdx][slotIdx] {
		return nil
	}

	return &cs.blocks[blockIdx][slotIdx]
}

// Delete marks a component slot as empty and zeroes the value.
func (cs *genericComponentStorage[T]) Delete(index int) {
	if index < 0 {
		return
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	if blockIdx >= len(cs.blocks) {
		return
	}

	if cs.filled[blockIdx][slotIdx] {
		cs.filled[blockIdx][slotIdx] = false
		var zero T
		cs.blocks[blockIdx][slotIdx] = zero
		cs.count--
	}
}

// Has checks if a component exists at the given slot.
func (cs *genericComponentStorage[T]) Has(index int) bool {
	return cs.get(index) != nil
}

// Len returns the number of stored components.
func (cs *genericComponentStorage[T]) Len() int {
	return cs.count
}

// Iter yields every occupied slot index in ascending order.
func (cs *genericComponentStorage[T]) Iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for blockIdx, filled := range cs.filled {
			for slotIdx, ok := range filled {
				if !ok {
					continue
				}
				if !yield(blockIdx*genericBlockSize + slotIdx) {
					return
				}
			}
		}
	}
}
