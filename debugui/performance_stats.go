package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/scriptbridge/engine"
)

// frameHistory is a ring of recent frame times in milliseconds.
type frameHistory struct {
	samples []float32
	next    int
	filled  bool
}

func newFrameHistory(n int) *frameHistory {
	return &frameHistory{samples: make([]float32, max(n, 1))}
}

func (h *frameHistory) add(ms float32) {
	h.samples[h.next] = ms
	h.next = (h.next + 1) % len(h.samples)
	if h.next == 0 {
		h.filled = true
	}
}

// average returns the mean of the recorded samples, or 0 before the first.
func (h *frameHistory) average() float32 {
	n := h.next
	if h.filled {
		n = len(h.samples)
	}
	if n == 0 {
		return 0
	}
	var sum float32
	for _, ms := range h.samples[:n] {
		sum += ms
	}
	return sum / float32(n)
}

// PerformanceStats shows frame timing and the engine's last telemetry
// snapshot: scenes with their system timings, and per-script update times.
type PerformanceStats struct {
	engine  *engine.Engine
	history *frameHistory
}

func NewPerformanceStats(e *engine.Engine, historyFrames int) *PerformanceStats {
	return &PerformanceStats{engine: e, history: newFrameHistory(historyFrames)}
}

func (ps *PerformanceStats) Render(deltaTime float32) {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 320), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(420, 280), imgui.CondOnce)
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.history.add(deltaTime * 1000.0)
	t := ps.engine.Telemetry()

	imgui.Text(fmt.Sprintf("Frame: %d", t.Frame))
	imgui.Text(fmt.Sprintf("Scripts: %d", len(t.Scripts)))
	imgui.Text(fmt.Sprintf("Total Faults: %d", t.TotalFaults))

	avg := ps.history.average()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000.0/avg))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.history.samples[0], int32(len(ps.history.samples)))

	if imgui.TreeNodeStr("Scenes") {
		for _, scene := range t.Scenes {
			imgui.BulletText(fmt.Sprintf("%s (#%d): %d entities", scene.Name, scene.ID, scene.Entities))
			const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
			if imgui.BeginTableV(fmt.Sprintf("Systems%d", scene.ID), 4, tableFlags, imgui.NewVec2(0, 0), 0) {
				imgui.TableSetupColumn("System")
				imgui.TableSetupColumn("Avg")
				imgui.TableSetupColumn("Max")
				imgui.TableSetupColumn("Runs")
				imgui.TableHeadersRow()
				for _, sys := range scene.Systems {
					imgui.TableNextRow()
					imgui.TableNextColumn()
					imgui.Text(sys.Name)
					imgui.TableNextColumn()
					imgui.Text(ms(sys.AvgDuration))
					imgui.TableNextColumn()
					imgui.Text(ms(sys.MaxDuration))
					imgui.TableNextColumn()
					imgui.Text(fmt.Sprintf("%d", sys.ExecutionCount))
				}
				imgui.EndTable()
			}
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Script Timings") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("ScriptTimings", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Script")
			imgui.TableSetupColumn("Avg")
			imgui.TableSetupColumn("Max")
			imgui.TableSetupColumn("Last")
			imgui.TableHeadersRow()
			for _, s := range t.Scripts {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%s %s", s.Name, s.Handle))
				imgui.TableNextColumn()
				imgui.Text(ms(s.AvgDuration))
				imgui.TableNextColumn()
				imgui.Text(ms(s.MaxDuration))
				imgui.TableNextColumn()
				imgui.Text(ms(s.LastDuration))
			}
			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if len(t.Faults) > 0 && imgui.TreeNodeStr("Last Faults") {
		for _, f := range t.Faults {
			imgui.BulletText(f)
		}
		imgui.TreePop()
	}

	imgui.End()
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d.Microseconds())/1000)
}

// FrameTimer measures wall time between calls to DeltaTime.
type FrameTimer struct {
	last time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{last: time.Now()}
}

func (ft *FrameTimer) DeltaTime() float32 {
	now := time.Now()
	delta := float32(now.Sub(ft.last).Seconds())
	ft.last = now
	return delta
}
