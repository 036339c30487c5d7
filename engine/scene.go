package engine

import (
	"github.com/google/uuid"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/ecs"
)

// Scene is one loaded world with its own scheduler. Entities created here
// always carry an Identity and a Transform.
type Scene struct {
	id        bridge.SceneID
	name      string
	world     *ecs.World
	scheduler *ecs.Scheduler
	byUUID    map[uuid.UUID]ecs.Entity
	byName    map[string]ecs.Entity
}

func newScene(id bridge.SceneID, name string) *Scene {
	world := ecs.NewWorld(NewComponentRegistry())
	s := &Scene{
		id:        id,
		name:      name,
		world:     world,
		scheduler: ecs.NewScheduler(world),
		byUUID:    make(map[uuid.UUID]ecs.Entity),
		byName:    make(map[string]ecs.Entity),
	}
	s.scheduler.Register(TransformSystem{})
	return s
}

func (s *Scene) ID() bridge.SceneID        { return s.id }
func (s *Scene) Name() string              { return s.name }
func (s *Scene) World() *ecs.World         { return s.world }
func (s *Scene) Scheduler() *ecs.Scheduler { return s.scheduler }

func (s *Scene) Binding(e ecs.Entity) bridge.Binding {
	return bridge.Binding{Scene: s.id, Entity: bridge.EntityID(e)}
}

// CreateEntity spawns a named entity. A Transform with unit scale is added
// unless one is among comps. An Identity among comps with a non-nil UUID keeps
// that UUID; otherwise a random one is assigned.
func (s *Scene) CreateEntity(name string, comps ...any) ecs.Entity {
	id := Identity{Name: name}
	hasTransform := false
	rest := make([]any, 0, len(comps)+2)
	for _, c := range comps {
		switch c := c.(type) {
		case Identity:
			id.UUID = c.UUID
			continue
		case *Identity:
			id.UUID = c.UUID
			continue
		case Transform, *Transform:
			hasTransform = true
		}
		rest = append(rest, c)
	}
	if id.UUID == uuid.Nil {
		id.UUID = uuid.New()
	}
	rest = append(rest, id)
	if !hasTransform {
		rest = append(rest, NewTransform())
	}

	e := s.world.Spawn(rest...)
	s.byUUID[id.UUID] = e
	if name != "" {
		if prev, taken := s.byName[name]; !taken || !s.world.Alive(prev) {
			s.byName[name] = e
		}
	}
	return e
}

// Destroy queues e for removal at the end of the current frame.
func (s *Scene) Destroy(e ecs.Entity) {
	s.scheduler.Commands().Destroy(e)
}

// forget drops e from the lookup indexes. A name it held passes to the
// another live entity with the same name.
func (s *Scene) forget(e ecs.Entity) {
	for id, ent := range s.byUUID {
		if ent == e {
			delete(s.byUUID, id)
		}
	}
	for name, ent := range s.byName {
		if ent != e {
			continue
		}
		delete(s.byName, name)
		for other, id := range ecs.Each[Identity](s.world) {
			if id.Name == name {
				s.byName[name] = other
				break
			}
		}
	}
}

func (s *Scene) FindByUUID(id uuid.UUID) (ecs.Entity, bool) {
	e, ok := s.byUUID[id]
	return e, ok && s.world.Alive(e)
}

// FindByName returns the first live entity created with name.
func (s *Scene) FindByName(name string) (ecs.Entity, bool) {
	e, ok := s.byName[name]
	return e, ok && s.world.Alive(e)
}

// Entities returns the live entities with their identities.
func (s *Scene) Entities() map[ecs.Entity]Identity {
	out := make(map[ecs.Entity]Identity, s.world.Len())
	for e, id := range ecs.Each[Identity](s.world) {
		out[e] = *id
	}
	return out
}

// TransformSystem rebuilds the cached matrices of transforms written during
// the frame.
type TransformSystem struct{}

func (TransformSystem) Execute(frame *ecs.UpdateFrame) {
	for _, t := range ecs.Each[Transform](frame.World) {
		t.Recompute()
	}
}
