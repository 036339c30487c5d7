package engine

import (
	"slices"
	"time"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/ecs"
)

// Telemetry is a snapshot of the engine taken at the end of a frame.
type Telemetry struct {
	Frame       uint64                 `json:"frame"`
	Time        time.Time              `json:"time"`
	Scenes      []SceneTelemetry       `json:"scenes"`
	Scripts     []bridge.InstanceStats `json:"scripts"`
	TotalFaults int64                  `json:"total_faults"`
	// Faults are the messages of the faults raised in the last frame.
	Faults []string `json:"faults,omitempty"`
}

// SceneTelemetry summarizes one scene.
type SceneTelemetry struct {
	ID       bridge.SceneID    `json:"id"`
	Name     string            `json:"name"`
	Entities int               `json:"entities"`
	Systems  []ecs.SystemStats `json:"systems"`
}

func (e *Engine) publish(faults []*bridge.Fault) {
	t := Telemetry{
		Frame:       e.frames,
		Time:        time.Now(),
		Scripts:     e.dispatcher.Stats(),
		TotalFaults: e.faults,
	}
	for _, scene := range e.Scenes() {
		t.Scenes = append(t.Scenes, SceneTelemetry{
			ID:       scene.id,
			Name:     scene.name,
			Entities: scene.world.Len(),
			Systems:  scene.scheduler.GetStats().Systems,
		})
	}
	for _, f := range faults {
		t.Faults = append(t.Faults, f.Error())
	}

	e.telemetryMu.Lock()
	e.telemetry = t
	e.telemetryMu.Unlock()
}

// Telemetry returns the snapshot of the last completed frame. Safe for
// concurrent use.
func (e *Engine) Telemetry() Telemetry {
	e.telemetryMu.RLock()
	defer e.telemetryMu.RUnlock()
	t := e.telemetry
	t.Scenes = slices.Clone(t.Scenes)
	t.Scripts = slices.Clone(t.Scripts)
	t.Faults = slices.Clone(t.Faults)
	return t
}
