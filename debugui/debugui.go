// Package debugui draws Dear ImGui tooling over a running engine: a script
// browser, a field inspector and frame statistics. Panels are ImguiItem
// components in a small overlay world, rendered by ImguiSystem.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/scriptbridge/ecs"
	"github.com/plus3/scriptbridge/engine"
)

// ImguiItem is a component that holds a Dear ImGui render function.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks whether ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem defers every ImguiItem render function to the end of the frame
// and refreshes the input capture state.
type ImguiSystem struct {
	State *ImguiInputState
}

func (s *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	io := imgui.CurrentIO()
	s.State.WantCaptureMouse = io.WantCaptureMouse()
	s.State.WantCaptureKeyboard = io.WantCaptureKeyboard()

	for _, item := range ecs.Each[ImguiItem](frame.World) {
		frame.Commands.Defer(item.Render)
	}
}

// Overlay owns the panels. Render must be called between the backend's
// BeginFrame and EndFrame.
type Overlay struct {
	world     *ecs.World
	scheduler *ecs.Scheduler
	state     ImguiInputState
}

func NewOverlay() *Overlay {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[ImguiItem](registry)
	world := ecs.NewWorld(registry)
	o := &Overlay{world: world, scheduler: ecs.NewScheduler(world)}
	o.scheduler.Register(&ImguiSystem{State: &o.state})
	return o
}

// Add registers a panel and returns its entity.
func (o *Overlay) Add(render func()) ecs.Entity {
	return o.world.Spawn(ImguiItem{Render: render})
}

func (o *Overlay) Remove(panel ecs.Entity) {
	o.world.Destroy(panel)
}

func (o *Overlay) Render(dt float64) {
	o.scheduler.Once(dt)
}

// InputState reports what ImGui captured during the last Render.
func (o *Overlay) InputState() ImguiInputState {
	return o.state
}

// Attach adds the script browser, the inspector for the browser's selection
// and the performance panel for e.
func (o *Overlay) Attach(e *engine.Engine) {
	browser := NewScriptBrowser(e, 20)
	inspector := NewScriptInspector(e)
	stats := NewPerformanceStats(e, 120)
	timer := NewFrameTimer()

	o.Add(browser.Render)
	o.Add(func() { inspector.Render(browser.Selected()) })
	o.Add(func() { stats.Render(timer.DeltaTime()) })
}
