package ecs

// Commands buffers structural changes that are applied at the end of a frame.
// Systems (and the scripts they drive) keep stable entity slots for the whole
// frame; destroys and spawns become visible only after Flush.
type Commands struct {
	spawns   []spawnCommand
	destroys []Entity
	defers   []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	components []any
	done       func(Entity)
}

// Defer queues a function to run after all structural commands.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues an entity spawn operation with the given components.
// If done is non-nil it receives the new entity during Flush.
func (c *Commands) Spawn(done func(Entity), components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components, done: done})
}

// Destroy queues an entity destroy operation.
func (c *Commands) Destroy(entity Entity) {
	c.destroys = append(c.destroys, entity)
}

// Pending reports whether any command is queued.
func (c *Commands) Pending() bool {
	return len(c.spawns) > 0 || len(c.destroys) > 0 || len(c.defers) > 0
}

// Flush applies all commands to the provided world, resetting the buffer state.
// It returns the entities that were actually destroyed, in queue order.
func (c *Commands) Flush(world *World) []Entity {
	var destroyed []Entity
	seen := make(map[Entity]bool, len(c.destroys))

	for _, entity := range c.destroys {
		if seen[entity] {
			continue
		}
		seen[entity] = true
		if world.Destroy(entity) {
			destroyed = append(destroyed, entity)
		}
	}

	for _, cmd := range c.spawns {
		entity := world.Spawn(cmd.components...)
		if cmd.done != nil {
			cmd.done(entity)
		}
	}

	for _, fn := range c.defers {
		fn()
	}

	c.spawns = c.spawns[:0]
	c.destroys = c.destroys[:0]
	c.defers = c.defers[:0]
	return destroyed
}
