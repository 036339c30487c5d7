// Package ebiten connects the debug overlay and the engine's input events to
// an Ebiten game loop.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/engine"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

func NewImguiBackend(title string, width, height int) ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	return ImguiBackend{EbitenBackend: backend}
}

var keyCodes = map[ebiten.Key]bridge.KeyCode{
	ebiten.KeySpace:        bridge.KeySpace,
	ebiten.KeyQuote:        bridge.KeyApostrophe,
	ebiten.KeyComma:        bridge.KeyComma,
	ebiten.KeyMinus:        bridge.KeyMinus,
	ebiten.KeyPeriod:       bridge.KeyPeriod,
	ebiten.KeySlash:        bridge.KeySlash,
	ebiten.KeyEscape:       bridge.KeyEscape,
	ebiten.KeyEnter:        bridge.KeyEnter,
	ebiten.KeyTab:          bridge.KeyTab,
	ebiten.KeyBackspace:    bridge.KeyBackspace,
	ebiten.KeyArrowRight:   bridge.KeyRight,
	ebiten.KeyArrowLeft:    bridge.KeyLeft,
	ebiten.KeyArrowDown:    bridge.KeyDown,
	ebiten.KeyArrowUp:      bridge.KeyUp,
	ebiten.KeyShiftLeft:    bridge.KeyLeftShift,
	ebiten.KeyControlLeft:  bridge.KeyLeftControl,
	ebiten.KeyAltLeft:      bridge.KeyLeftAlt,
	ebiten.KeyShiftRight:   bridge.KeyRightShift,
	ebiten.KeyControlRight: bridge.KeyRightControl,
	ebiten.KeyAltRight:     bridge.KeyRightAlt,
}

func init() {
	for k := ebiten.KeyA; k <= ebiten.KeyZ; k++ {
		keyCodes[k] = bridge.KeyA + bridge.KeyCode(k-ebiten.KeyA)
	}
	for k := ebiten.KeyDigit0; k <= ebiten.KeyDigit9; k++ {
		keyCodes[k] = bridge.Key0 + bridge.KeyCode(k-ebiten.KeyDigit0)
	}
	for k := ebiten.KeyF1; k <= ebiten.KeyF12; k++ {
		keyCodes[k] = bridge.KeyF1 + bridge.KeyCode(k-ebiten.KeyF1)
	}
}

// KeyCode translates an Ebiten key. Keys the bridge does not name map to
// bridge.KeyUnknown.
func KeyCode(k ebiten.Key) bridge.KeyCode {
	if code, ok := keyCodes[k]; ok {
		return code
	}
	return bridge.KeyUnknown
}

// InputPoller turns Ebiten's per-tick input state into engine events.
type InputPoller struct {
	keys       []ebiten.Key
	lastX      int
	lastY      int
	mode       bridge.CursorMode
	haveCursor bool
}

// Poll posts key transitions and cursor movement since the previous call.
// While ImGui wants the keyboard or mouse, the matching events are held
// back. In relative cursor mode the cursor is reported as an offset from
// the window center.
func (p *InputPoller) Poll(post func(engine.Event), mode bridge.CursorMode, width, height int, wantKeyboard, wantMouse bool) {
	if !wantKeyboard {
		p.keys = inpututil.AppendJustPressedKeys(p.keys[:0])
		for _, k := range p.keys {
			if code := KeyCode(k); code != bridge.KeyUnknown {
				post(engine.KeyDown(code))
			}
		}
		p.keys = inpututil.AppendJustReleasedKeys(p.keys[:0])
		for _, k := range p.keys {
			if code := KeyCode(k); code != bridge.KeyUnknown {
				post(engine.KeyUp(code))
			}
		}
	}

	if mode != p.mode {
		p.mode = mode
		p.haveCursor = false
		if mode == bridge.CursorRelative {
			ebiten.SetCursorMode(ebiten.CursorModeCaptured)
		} else {
			ebiten.SetCursorMode(ebiten.CursorModeVisible)
		}
	}

	if wantMouse {
		return
	}
	x, y := ebiten.CursorPosition()
	if !p.haveCursor {
		p.lastX, p.lastY, p.haveCursor = x, y, true
		return
	}
	dx, dy := x-p.lastX, y-p.lastY
	if dx == 0 && dy == 0 {
		return
	}
	p.lastX, p.lastY = x, y
	if mode == bridge.CursorRelative {
		post(engine.MouseMove(float32(width/2+dx), float32(height/2+dy)))
	} else {
		post(engine.MouseMove(float32(x), float32(y)))
	}
}
