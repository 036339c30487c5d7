package ecs

// Entity encodes both the slot generation (upper 32 bits) and the slot index (lower 32 bits).
// A generation of zero is never issued, so the zero Entity is never alive.
type Entity uint64

// NewEntity creates an Entity from a slot index and generation
func NewEntity(index uint32, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the entity
func (e Entity) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the slot generation from the entity
func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}

// entitySlot tracks the current generation of one slot and whether it is occupied.
type entitySlot struct {
	generation uint32
	alive      bool
}
