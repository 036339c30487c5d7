package ecs

import (
	"context"
	"reflect"
	"time"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Frames          uint64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string        `json:"name"`
	ExecutionCount int64         `json:"execution_count"`
	MinDuration    time.Duration `json:"min_duration"`
	MaxDuration    time.Duration `json:"max_duration"`
	AvgDuration    time.Duration `json:"avg_duration"`
	LastDuration   time.Duration `json:"last_duration"`
	TotalDuration  time.Duration `json:"total_duration"`
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(d time.Duration) {
	s.executionCount++
	s.lastDuration = d
	s.totalDuration += d
	if d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
}

func (s *systemStatsInternal) snapshot() SystemStats {
	avg := time.Duration(0)
	minDuration := s.minDuration
	if s.executionCount > 0 {
		avg = s.totalDuration / time.Duration(s.executionCount)
	} else {
		minDuration = 0
	}
	return SystemStats{
		Name:           s.name,
		ExecutionCount: s.executionCount,
		MinDuration:    minDuration,
		MaxDuration:    s.maxDuration,
		AvgDuration:    avg,
		LastDuration:   s.lastDuration,
		TotalDuration:  s.totalDuration,
	}
}

// Scheduler manages and executes systems in order against one world.
type Scheduler struct {
	world       *World
	commands    *Commands
	systems     []System
	systemStats []*systemStatsInternal
	frames      uint64
	onDestroy   []func(Entity)
}

// NewScheduler creates a new scheduler for the given world.
func NewScheduler(world *World) *Scheduler {
	return &Scheduler{
		world:    world,
		commands: newCommands(),
		systems:  make([]System, 0),
	}
}

// Register adds a system to the scheduler. The system's type name is used in stats.
func (s *Scheduler) Register(system System) {
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	s.RegisterNamed(systemType.Name(), system)
}

// RegisterNamed adds a system under an explicit stats name.
func (s *Scheduler) RegisterNamed(name string, system System) {
	s.systems = append(s.systems, system)
	s.systemStats = append(s.systemStats, &systemStatsInternal{
		name:        name,
		minDuration: time.Duration(1<<63 - 1),
	})
}

// OnDestroy registers a callback invoked for every entity destroyed by a
// command flush, after the world has released it.
func (s *Scheduler) OnDestroy(fn func(Entity)) {
	s.onDestroy = append(s.onDestroy, fn)
}

// Commands returns the command buffer flushed at the end of every frame.
func (s *Scheduler) Commands() *Commands {
	return s.commands
}

// Once executes all registered systems once with the given delta time, then
// flushes queued commands.
func (s *Scheduler) Once(dt float64) {
	s.frames++
	frame := newUpdateFrame(dt, s.frames, s.world, s.commands)

	for i, system := range s.systems {
		start := time.Now()
		system.Execute(frame)
		s.systemStats[i].record(time.Since(start))
	}

	s.Flush()
}

// Flush applies queued commands outside of a frame.
func (s *Scheduler) Flush() {
	if !s.commands.Pending() {
		return
	}
	for _, entity := range s.commands.Flush(s.world) {
		for _, fn := range s.onDestroy {
			fn(entity)
		}
	}
}

// Run executes all systems repeatedly at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Frames:      s.frames,
		Systems:     make([]SystemStats, len(s.systemStats)),
	}

	var totalExecs int64
	for i, internal := range s.systemStats {
		stats.Systems[i] = internal.snapshot()
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
