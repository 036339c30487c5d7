package ecs_test

import (
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/scriptbridge/ecs"
)

func TestEntityEncoding(t *testing.T) {
	e := ecs.NewEntity(17, 3)
	assert.Equal(t, uint32(17), e.Index())
	assert.Equal(t, uint32(3), e.Generation())
}

func TestWorldSpawn(t *testing.T) {
	world := ecs.NewWorld(newTestRegistry())

	e := world.Spawn(Position{X: 1, Y: 2}, &Velocity{DX: 3})
	require.True(t, world.Alive(e))
	assert.NotZero(t, e.Generation(), "generation zero is never issued")
	assert.Equal(t, 1, world.Len())

	pos := ecs.Get[Position](world, e)
	require.NotNil(t, pos)
	assert.Equal(t, Position{X: 1, Y: 2}, *pos)

	vel := ecs.Get[Velocity](world, e)
	require.NotNil(t, vel)
	assert.Equal(t, float32(3), vel.DX)

	assert.Nil(t, ecs.Get[Health](world, e))
	assert.True(t, ecs.Has[Position](world, e))
	assert.False(t, ecs.Has[Health](world, e))

	t.Run("pointers are live", func(t *testing.T) {
		pos.X = 42
		assert.Equal(t, float32(42), ecs.Get[Position](world, e).X)
	})

	t.Run("pointers survive storage growth", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			world.Spawn(Position{X: float32(i)})
		}
		assert.Equal(t, float32(42), pos.X)
		assert.Same(t, pos, ecs.Get[Position](world, e))
	})

	t.Run("unregistered component panics", func(t *testing.T) {
		type unregistered struct{}
		assert.Panics(t, func() { world.Spawn(unregistered{}) })
	})

	t.Run("primitive components", func(t *testing.T) {
		s := world.Spawn(Score(10), Tag("player"))
		assert.Equal(t, Score(10), *ecs.Get[Score](world, s))
		assert.Equal(t, Tag("player"), *ecs.Get[Tag](world, s))
	})
}

func TestWorldDestroy(t *testing.T) {
	world := ecs.NewWorld(newTestRegistry())

	old := world.Spawn(Position{X: 1}, Name{Value: "old"})
	require.True(t, world.Destroy(old))
	assert.False(t, world.Destroy(old), "second destroy is a no-op")
	assert.False(t, world.Alive(old))
	assert.Zero(t, world.Len())
	assert.Nil(t, ecs.Get[Position](world, old))

	t.Run("slot reuse bumps the generation", func(t *testing.T) {
		fresh := world.Spawn(Position{X: 2})
		assert.Equal(t, old.Index(), fresh.Index())
		assert.NotEqual(t, old.Generation(), fresh.Generation())

		assert.False(t, world.Alive(old))
		assert.Nil(t, ecs.Get[Position](world, old), "stale entity never sees the new occupant")
		assert.Nil(t, ecs.Get[Name](world, fresh), "components of the previous occupant are gone")
		assert.False(t, world.Add(old, Health{Current: 1}))
	})
}

func TestWorldAddRemove(t *testing.T) {
	world := ecs.NewWorld(newTestRegistry())
	e := world.Spawn(Position{})

	assert.True(t, world.Add(e, Health{Current: 5, Max: 10}))
	assert.True(t, ecs.Has[Health](world, e))

	assert.True(t, world.Add(e, Health{Current: 7, Max: 10}), "add replaces")
	assert.Equal(t, 7, ecs.Get[Health](world, e).Current)

	assert.True(t, world.Remove(e, reflect.TypeFor[Health]()))
	assert.False(t, world.Remove(e, reflect.TypeFor[Health]()))
	assert.False(t, ecs.Has[Health](world, e))
	assert.True(t, ecs.Has[Position](world, e))
}

func TestWorldIteration(t *testing.T) {
	world := ecs.NewWorld(newTestRegistry())
	a := world.Spawn(Position{X: 1}, Velocity{DX: 1})
	b := world.Spawn(Position{X: 2})
	c := world.Spawn(Velocity{DX: 3})
	world.Destroy(b)

	assert.Equal(t, []ecs.Entity{a, c}, slices.Collect(world.Entities()))

	var seen []ecs.Entity
	for e, vel := range ecs.Each[Velocity](world) {
		seen = append(seen, e)
		vel.DX *= 10
	}
	assert.Equal(t, []ecs.Entity{a, c}, seen)
	assert.Equal(t, float32(30), ecs.Get[Velocity](world, c).DX)

	t.Run("early break", func(t *testing.T) {
		n := 0
		for range ecs.Each[Velocity](world) {
			n++
			break
		}
		assert.Equal(t, 1, n)
	})

	t.Run("no storage yet", func(t *testing.T) {
		for range ecs.Each[Health](world) {
			t.Fatal("unexpected entity")
		}
	})
}
