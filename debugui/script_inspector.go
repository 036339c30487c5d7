package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/engine"
)

// ScriptInspector shows the exposed fields of one script instance and writes
// edits back through bridge.SetField.
type ScriptInspector struct {
	engine *engine.Engine
	logger *zap.Logger
}

func NewScriptInspector(e *engine.Engine) *ScriptInspector {
	return &ScriptInspector{engine: e, logger: e.Logger().Named("inspector")}
}

func (si *ScriptInspector) Render(selected bridge.Handle) {
	imgui.SetNextWindowPosV(imgui.NewVec2(440, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(360, 300), imgui.CondOnce)
	if !imgui.BeginV("Script Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	if selected == 0 {
		imgui.Text("No script selected")
		return
	}
	inst, ok := si.engine.Dispatcher().Lookup(selected)
	if !ok {
		imgui.Text(fmt.Sprintf("Script %s is gone", selected))
		return
	}

	binding := inst.Binding()
	imgui.Text(fmt.Sprintf("%s  %s", inst.Name(), inst.Handle()))
	imgui.Text(fmt.Sprintf("Scene %d, entity %d", binding.Scene, binding.Entity))
	imgui.Text(fmt.Sprintf("State: %s", inst.State()))
	if n := inst.ConsecutiveFaults(); n > 0 {
		imgui.TextColored(imgui.NewVec4(1, 0.4, 0.4, 1), fmt.Sprintf("Faulted %d frames in a row", n))
	}
	imgui.Separator()

	for _, field := range bridge.Fields(inst) {
		si.renderField(inst, field)
	}

	imgui.Separator()
	if imgui.Button("Detach") {
		if err := si.engine.Dispatcher().Detach(inst); err != nil {
			si.logger.Warn("detach failed", zap.Error(err))
		}
	}
}

func (si *ScriptInspector) renderField(inst *bridge.Instance, field bridge.FieldValue) {
	name := field.Name
	id := fmt.Sprintf("##%s", name)

	switch field.Kind {
	case bridge.FieldInt:
		v := int32(toFloat(field.Value))
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(id, &v) {
			si.set(inst, name, v)
		}

	case bridge.FieldFloat:
		v := float32(toFloat(field.Value))
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(id, &v) {
			si.set(inst, name, v)
		}

	case bridge.FieldBool:
		v, _ := field.Value.(bool)
		if imgui.Checkbox(name, &v) {
			si.set(inst, name, v)
		}

	case bridge.FieldString:
		v, _ := field.Value.(string)
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(id, "", &v, imgui.InputTextFlagsNone, nil) {
			si.set(inst, name, v)
		}

	case bridge.FieldVector:
		vec, _ := field.Value.(bridge.Vector)
		v, err := vec.Snapshot()
		if err != nil {
			imgui.Text(fmt.Sprintf("%s: %v", name, err))
			return
		}
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.Indent()
		for axis, label := range [3]string{"x", "y", "z"} {
			imgui.SetNextItemWidth(150)
			if imgui.InputFloat(fmt.Sprintf("%s##%s", label, name), &v[axis]) {
				si.set(inst, name, []float32{v[0], v[1], v[2]})
			}
		}
		imgui.Unindent()

	case bridge.FieldReference:
		if c, ok := field.Value.(bridge.Component); ok && c != nil && c.Handle() != 0 {
			imgui.Text(fmt.Sprintf("%s: %s %s", name, c.Capability(), c.Handle()))
		} else {
			imgui.Text(fmt.Sprintf("%s: nil", name))
		}

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, field.Value))
	}
}

func (si *ScriptInspector) set(inst *bridge.Instance, name string, value any) {
	if err := bridge.SetField(inst, name, value); err != nil {
		si.logger.Warn("field edit rejected", zap.String("field", name), zap.Error(err))
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return 0
}
