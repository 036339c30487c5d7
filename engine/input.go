package engine

import (
	"fmt"

	"github.com/plus3/scriptbridge/bridge"
)

// Axis names understood by InputManager.Axis.
const (
	AxisHorizontal = "Horizontal"
	AxisVertical   = "Vertical"
	AxisMouseX     = "Mouse X"
	AxisMouseY     = "Mouse Y"
)

// DefaultKeyMappings are the named keys scripts query with Key.
func DefaultKeyMappings() map[string][]bridge.KeyCode {
	return map[string][]bridge.KeyCode{
		"Up":      {bridge.KeyUp, bridge.KeyW},
		"Down":    {bridge.KeyDown, bridge.KeyS},
		"Left":    {bridge.KeyLeft, bridge.KeyA},
		"Right":   {bridge.KeyRight, bridge.KeyD},
		"Jump":    {bridge.KeySpace},
		"Enter":   {bridge.KeyEnter},
		"Escape":  {bridge.KeyEscape},
		"Tab":     {bridge.KeyTab},
		"Shift":   {bridge.KeyLeftShift, bridge.KeyRightShift},
		"Control": {bridge.KeyLeftControl, bridge.KeyRightControl},
		"Alt":     {bridge.KeyLeftAlt, bridge.KeyRightAlt},
	}
}

// InputManager holds keyboard and mouse state fed by the window backend or
// the remote endpoint, and answers the queries scripts make through the
// bridge. It lives on the engine thread.
type InputManager struct {
	held     map[bridge.KeyCode]bool
	mappings map[string][]bridge.KeyCode
	mouseX   float32
	mouseY   float32
	cursorX  float32
	cursorY  float32
	mode     bridge.CursorMode

	sensitivity float32
	yLimit      float32
	width       float32
	height      float32

	onCursorMode func(bridge.CursorMode)
}

// NewInputManager builds an input manager from config. Key mappings in the
// config replace the default mapping of the same name.
func NewInputManager(cfg InputConfig, window WindowConfig) (*InputManager, error) {
	mappings := DefaultKeyMappings()
	for name, keyNames := range cfg.Keys {
		codes := make([]bridge.KeyCode, 0, len(keyNames))
		for _, keyName := range keyNames {
			code, ok := bridge.ParseKey(keyName)
			if !ok {
				return nil, fmt.Errorf("key mapping %q: unknown key %q", name, keyName)
			}
			codes = append(codes, code)
		}
		mappings[name] = codes
	}
	return &InputManager{
		held:        make(map[bridge.KeyCode]bool),
		mappings:    mappings,
		sensitivity: cfg.MouseSensitivity,
		yLimit:      cfg.MouseYLimit,
		width:       float32(window.Width),
		height:      float32(window.Height),
	}, nil
}

// OnCursorModeChange registers the window backend's cursor capture hook.
func (m *InputManager) OnCursorModeChange(fn func(bridge.CursorMode)) {
	m.onCursorMode = fn
}

// KeyDown records a press and reports whether it is a repeat.
func (m *InputManager) KeyDown(key bridge.KeyCode) (repeat bool) {
	repeat = m.held[key]
	m.held[key] = true
	return repeat
}

func (m *InputManager) KeyUp(key bridge.KeyCode) {
	delete(m.held, key)
}

func (m *InputManager) IsKeyDown(key bridge.KeyCode) bool {
	return m.held[key]
}

// MouseMoved records the cursor position in window pixels. In relative mode
// the offset from the window center is accumulated into the mouse axes,
// both components normalized by the window width; Mouse Y is clamped.
func (m *InputManager) MouseMoved(x, y float32) {
	m.cursorX, m.cursorY = x, y
	if m.mode != bridge.CursorRelative || m.width <= 0 {
		return
	}
	dx := (m.width/2 - x) / m.width
	dy := (m.height/2 - y) / m.width
	m.mouseX += dx * m.sensitivity
	m.mouseY += dy * m.sensitivity
	if m.yLimit > 0 {
		m.mouseY = clamp(m.mouseY, -m.yLimit, m.yLimit)
	}
}

// Cursor returns the last cursor position in window pixels.
func (m *InputManager) Cursor() (x, y float32) {
	return m.cursorX, m.cursorY
}

// ResetMouse zeroes the accumulated mouse axes.
func (m *InputManager) ResetMouse() {
	m.mouseX, m.mouseY = 0, 0
}

// Axis returns the named axis, or 0 for unknown names.
func (m *InputManager) Axis(name string) float32 {
	switch name {
	case AxisHorizontal:
		return m.keyAxis("Right", "Left")
	case AxisVertical:
		return m.keyAxis("Up", "Down")
	case AxisMouseX:
		return m.mouseX
	case AxisMouseY:
		return m.mouseY
	}
	return 0
}

func (m *InputManager) keyAxis(positive, negative string) float32 {
	var v float32
	if m.Key(positive) {
		v++
	}
	if m.Key(negative) {
		v--
	}
	return v
}

// Key reports whether any key mapped to name is held. Names without a
// mapping are looked up as single key names ("W", "Space", "F1").
func (m *InputManager) Key(name string) bool {
	if codes, ok := m.mappings[name]; ok {
		for _, code := range codes {
			if m.held[code] {
				return true
			}
		}
		return false
	}
	if code, ok := bridge.ParseKey(name); ok {
		return m.held[code]
	}
	return false
}

func (m *InputManager) CursorMode() bridge.CursorMode {
	return m.mode
}

func (m *InputManager) SetCursorMode(mode bridge.CursorMode) {
	if m.mode == mode {
		return
	}
	m.mode = mode
	if m.onCursorMode != nil {
		m.onCursorMode(mode)
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
