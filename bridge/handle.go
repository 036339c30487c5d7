package bridge

import (
	"fmt"
)

// SceneID identifies one native scene.
type SceneID uint32

// EntityID is the native engine's opaque entity reference. The bridge never
// interprets it; only the Host does.
type EntityID uint64

// Binding is what a handle resolves to: one entity inside one scene.
type Binding struct {
	Scene  SceneID
	Entity EntityID
}

// Handle encodes both the slot generation (upper 32 bits) and the slot index
// (lower 32 bits) of a HandleTable entry. Scripts hold handles, never native
// references. The zero Handle is never issued.
type Handle uint64

// NewHandle creates a Handle from a slot index and generation
func NewHandle(index uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the handle
func (h Handle) Index() uint32 {
	return uint32(h & 0xFFFFFFFF)
}

// Generation extracts the slot generation from the handle
func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.Index(), h.Generation())
}

type handleSlot struct {
	generation uint32
	live       bool
	binding    Binding
}

// HandleTable is the arena issuing behavior handles. Every attachment (and
// every injected component reference) gets its own slot; revoking a slot bumps
// its generation so a reused slot can never be mistaken for the old one.
//
// HandleTable is not safe for concurrent use; it lives on the engine thread.
type HandleTable struct {
	slots []handleSlot
	free  []uint32
	live  int
}

// NewHandleTable creates an empty handle arena
func NewHandleTable() *HandleTable {
	return &HandleTable{}
}

// Issue allocates a new handle bound to b.
func (t *HandleTable) Issue(b Binding) Handle {
	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		index = uint32(len(t.slots))
		t.slots = append(t.slots, handleSlot{})
	}

	slot := &t.slots[index]
	slot.generation++
	if slot.generation == 0 {
		slot.generation = 1
	}
	slot.live = true
	slot.binding = b
	t.live++

	return NewHandle(index, slot.generation)
}

// Resolve returns the binding of a live handle, or ErrStaleHandle.
func (t *HandleTable) Resolve(h Handle) (Binding, error) {
	index := h.Index()
	if int(index) >= len(t.slots) {
		return Binding{}, fmt.Errorf("%w: %s was never issued", ErrStaleHandle, h)
	}
	slot := t.slots[index]
	if !slot.live || slot.generation != h.Generation() {
		return Binding{}, fmt.Errorf("%w: %s has been revoked", ErrStaleHandle, h)
	}
	return slot.binding, nil
}

// Revoke releases the handle's slot. Returns false if it was already stale.
func (t *HandleTable) Revoke(h Handle) bool {
	if _, err := t.Resolve(h); err != nil {
		return false
	}
	index := h.Index()
	t.slots[index].live = false
	t.slots[index].binding = Binding{}
	t.free = append(t.free, index)
	t.live--
	return true
}

// RevokeScene releases every handle bound to the scene and returns how many were revoked.
func (t *HandleTable) RevokeScene(scene SceneID) int {
	revoked := 0
	for index := range t.slots {
		slot := &t.slots[index]
		if !slot.live || slot.binding.Scene != scene {
			continue
		}
		slot.live = false
		slot.binding = Binding{}
		t.free = append(t.free, uint32(index))
		t.live--
		revoked++
	}
	return revoked
}

// Len returns the number of live handles
func (t *HandleTable) Len() int {
	return t.live
}
