package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/engine"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidateCmd(t *testing.T) {
	out, err := execute(t, "validate", "testdata/garage.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "ok   testdata/garage.yaml (4 entities)")

	out, err = execute(t, "validate", "testdata/garage.yaml", "testdata/broken.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 scene files failed")
	assert.Contains(t, out, "FAIL testdata/broken.yaml")
	assert.Contains(t, out, "Hovercraft")
}

func TestValidateCmdBadConfig(t *testing.T) {
	_, err := execute(t, "validate", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}

func TestScriptsCmd(t *testing.T) {
	out, err := execute(t, "scripts", "--json")
	require.NoError(t, err)

	var infos []scriptInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))

	byName := make(map[string]scriptInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	require.Contains(t, byName, "CarScript")
	require.Contains(t, byName, "Spinner")

	car := byName["CarScript"]
	require.NotEmpty(t, car.Fields)
	assert.Equal(t, "CameraTransform", car.Fields[0].Name)
	assert.Equal(t, "reference", car.Fields[0].Kind)
	assert.Nil(t, car.Fields[0].Default)

	spinner := byName["Spinner"]
	assert.Equal(t, "Rate", spinner.Fields[0].Name)
	assert.Equal(t, "(0, 90, 0)", spinner.Fields[0].Default)

	out, err = execute(t, "scripts")
	require.NoError(t, err)
	assert.Contains(t, out, "CameraScript (rev ")
}

func TestRunCmd(t *testing.T) {
	out, err := execute(t, "run",
		"--scene", "testdata/garage.yaml",
		"--duration", "150ms",
		"--tick-rate", "200",
		"--log-level", "error",
		"--report")
	require.NoError(t, err)

	assert.Contains(t, out, "# Run Report")
	assert.Contains(t, out, "**Tick Rate:** 200")
	assert.Contains(t, out, "**Garage**")
	assert.Contains(t, out, "CarScript")
	assert.Contains(t, out, "Spinner")
}

func TestRunCmdErrors(t *testing.T) {
	_, err := execute(t, "run", "--scene", "testdata/missing.yaml", "--log-level", "error")
	assert.ErrorContains(t, err, "testdata/missing.yaml")

	_, err = execute(t, "run", "--profile", "gpu", "--log-level", "error")
	assert.ErrorContains(t, err, `unknown profile mode "gpu"`)

	_, err = execute(t, "run", "--tick-rate", "-5")
	assert.ErrorContains(t, err, "tick_rate must be positive")
}

func TestReportGenerate(t *testing.T) {
	r := &Report{
		Duration:  time.Second,
		TickRate:  60,
		TotalTime: 2 * time.Second,
		Telemetry: engine.Telemetry{
			Frame:       120,
			TotalFaults: 3,
			Scenes: []engine.SceneTelemetry{
				{ID: 1, Name: "Garage", Entities: 4},
			},
			Scripts: []bridge.InstanceStats{
				{Name: "CarScript", Handle: bridge.NewHandle(1, 1), State: bridge.StateStarted, Updates: 120},
			},
		},
	}
	assert.InDelta(t, 60, r.FrameRate(), 1e-9)

	var buf bytes.Buffer
	require.NoError(t, r.Generate(&buf))
	out := buf.String()
	assert.Contains(t, out, "**Run Duration:** 1s")
	assert.Contains(t, out, "**Achieved Rate:** 60.0 fps")
	assert.Contains(t, out, "**Script Faults:** 3")
	assert.Contains(t, out, "**Garage** (#1): 4 entities")
	assert.True(t, strings.Contains(out, "CarScript") && strings.Contains(out, "120 updates"))
}

func TestReportWithoutScenes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Report{}).Generate(&buf))
	assert.Contains(t, buf.String(), "until interrupted")
	assert.Equal(t, 2, strings.Count(buf.String(), "- none"))
}
