package ecs

import (
	"iter"
	"reflect"
)

// World stores entities in generation-checked slots and their components in
// per-type block storages indexed by slot. Destroyed slots are recycled with
// a bumped generation, so an Entity held across a destroy never resolves to
// the slot's next occupant.
type World struct {
	registry *ComponentRegistry
	slots    []entitySlot
	free     []uint32
	storages map[reflect.Type]componentStorage
	alive    int
}

// NewWorld creates an empty world using the given component registry
func NewWorld(registry *ComponentRegistry) *World {
	return &World{
		registry: registry,
		storages: make(map[reflect.Type]componentStorage),
	}
}

// Registry returns the component registry backing this world
func (w *World) Registry() *ComponentRegistry {
	return w.registry
}

// Spawn creates a new entity with the provided components.
// Components may be passed by value or by pointer; the value is copied.
func (w *World) Spawn(components ...any) Entity {
	var index uint32
	if n := len(w.free); n > 0 {
		index = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		index = uint32(len(w.slots))
		w.slots = append(w.slots, entitySlot{})
	}

	slot := &w.slots[index]
	slot.generation++
	if slot.generation == 0 {
		// generation zero is reserved for "never issued"
		slot.generation = 1
	}
	slot.alive = true
	w.alive++

	entity := NewEntity(index, slot.generation)
	for _, comp := range components {
		w.Add(entity, comp)
	}
	return entity
}

// Alive reports whether the entity still occupies its slot
func (w *World) Alive(e Entity) bool {
	index := e.Index()
	if int(index) >= len(w.slots) {
		return false
	}
	slot := w.slots[index]
	return slot.alive && slot.generation == e.Generation()
}

// Destroy removes the entity and all of its components.
// Returns false if the entity was not alive.
func (w *World) Destroy(e Entity) bool {
	if !w.Alive(e) {
		return false
	}

	index := e.Index()
	for _, storage := range w.storages {
		storage.Delete(int(index))
	}

	w.slots[index].alive = false
	w.free = append(w.free, index)
	w.alive--
	return true
}

// Add attaches a component to a live entity, replacing an existing component of
// the same type. Panics if the component type is not registered.
func (w *World) Add(e Entity, component any) bool {
	if !w.Alive(e) {
		return false
	}

	compType := componentType(component)
	storage := w.storageFor(compType)
	return storage.Set(int(e.Index()), component)
}

// Remove detaches the component of the given type from the entity
func (w *World) Remove(e Entity, compType reflect.Type) bool {
	if !w.Alive(e) {
		return false
	}

	storage, ok := w.storages[compType]
	if !ok || !storage.Has(int(e.Index())) {
		return false
	}
	storage.Delete(int(e.Index()))
	return true
}

// Component returns a pointer to the entity's component of the given type, or nil
func (w *World) Component(e Entity, compType reflect.Type) any {
	if !w.Alive(e) {
		return nil
	}

	storage, ok := w.storages[compType]
	if !ok {
		return nil
	}
	return storage.Get(int(e.Index()))
}

// HasComponent checks if a live entity has a specific component type
func (w *World) HasComponent(e Entity, compType reflect.Type) bool {
	if !w.Alive(e) {
		return false
	}

	storage, ok := w.storages[compType]
	if !ok {
		return false
	}
	return storage.Has(int(e.Index()))
}

// Len returns the number of live entities
func (w *World) Len() int {
	return w.alive
}

// Entities iterates over all live entities in slot order
func (w *World) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for index, slot := range w.slots {
			if !slot.alive {
				continue
			}
			if !yield(NewEntity(uint32(index), slot.generation)) {
				return
			}
		}
	}
}

func (w *World) storageFor(compType reflect.Type) componentStorage {
	storage, ok := w.storages[compType]
	if ok {
		return storage
	}

	factory := w.registry.getFactory(compType)
	if factory == nil {
		panic("component type " + compType.String() + " not registered")
	}
	storage = factory()
	w.storages[compType] = storage
	return storage
}

// componentType resolves the stored type of a component value
func componentType(component any) reflect.Type {
	compType := reflect.TypeOf(component)
	if compType == nil {
		panic("cannot store a nil component")
	}

	// If it's a pointer, get the underlying type
	if compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}

	if compType.Kind() == reflect.Ptr || compType.Kind() == reflect.Map ||
		compType.Kind() == reflect.Chan || compType.Kind() == reflect.Func {
		panic("components cannot be pointers, maps, channels, or functions")
	}
	return compType
}

type ComponentReader interface {
	Component(Entity, reflect.Type) any
}

// Get returns a pointer to the entity's T component, or nil if it is absent
// or the entity is no longer alive.
func Get[T any](reader ComponentReader, e Entity) *T {
	comp := reader.Component(e, reflect.TypeFor[T]())
	if comp == nil {
		return nil
	}
	return comp.(*T)
}

// Has reports whether the entity currently has a T component
func Has[T any](w *World, e Entity) bool {
	return w.HasComponent(e, reflect.TypeFor[T]())
}

// Each iterates over every live entity that has a T component
func Each[T any](w *World) iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		storage, ok := w.storages[reflect.TypeFor[T]()]
		if !ok {
			return
		}
		typed := storage.(*genericComponentStorage[T])
		for index := range typed.Iter() {
			slot := w.slots[index]
			if !slot.alive {
				continue
			}
			if !yield(NewEntity(uint32(index), slot.generation), typed.get(index)) {
				return
			}
		}
	}
}
