package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/scriptbridge/engine"
)

// Report summarizes a headless run.
type Report struct {
	// Configuration
	Duration time.Duration
	TickRate int

	// Results
	TotalTime     time.Duration
	Telemetry     engine.Telemetry
	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats
}

// FrameRate is the achieved frames per second.
func (r *Report) FrameRate() float64 {
	if r.TotalTime <= 0 {
		return 0
	}
	return float64(r.Telemetry.Frame) / r.TotalTime.Seconds()
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Run Report

## Configuration
- **Run Duration:** {{if .Duration}}{{.Duration}}{{else}}until interrupted{{end}}
- **Tick Rate:** {{.TickRate}}

## Frames
- **Total Frames:** {{.Telemetry.Frame}}
- **Total Time:** {{.TotalTime}}
- **Achieved Rate:** {{printf "%.1f" .FrameRate}} fps
- **Script Faults:** {{.Telemetry.TotalFaults}}

## Scenes
{{range .Telemetry.Scenes}}- **{{.Name}}** (#{{.ID}}): {{.Entities}} entities
{{range .Systems}}  - {{.Name}}: avg {{.AvgDuration}}, max {{.MaxDuration}}, {{.ExecutionCount}} runs
{{end}}{{else}}- none
{{end}}
## Scripts
{{range .Telemetry.Scripts}}- {{.Name}} {{.Handle}} [{{.State}}]: {{.Updates}} updates, {{.Faults}} faults, avg {{.AvgDuration}}, max {{.MaxDuration}}
{{else}}- none
{{end}}
## Memory Usage
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} MB (start) -> {{mb .MemStatsEnd.HeapAlloc}} MB (end)
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} MB (start) -> {{mb .MemStatsEnd.TotalAlloc}} MB (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}} bytes
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
- Total GC Pause: {{ns .MemStatsEnd.PauseTotalNs}}
`

	fm := template.FuncMap{
		"mb": func(v uint64) string {
			return fmt.Sprintf("%.2f", float64(v)/1024/1024)
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
