package ecs

// UpdateFrame is handed to every system during one scheduler tick.
type UpdateFrame struct {
	// DeltaTime is the simulated time in seconds since the previous tick.
	DeltaTime float64
	// Number counts ticks starting at 1.
	Number   uint64
	Commands *Commands
	World    *World
}

func newUpdateFrame(dt float64, number uint64, world *World, commands *Commands) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Number:    number,
		Commands:  commands,
		World:     world,
	}
}
