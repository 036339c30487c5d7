package bridge

import "strconv"

// KeyCode identifies a physical key. Values follow the GLFW key table so they
// can be carried over the wire unchanged.
type KeyCode int32

const (
	KeyUnknown KeyCode = -1

	KeySpace      KeyCode = 32
	KeyApostrophe KeyCode = 39
	KeyComma      KeyCode = 44
	KeyMinus      KeyCode = 45
	KeyPeriod     KeyCode = 46
	KeySlash      KeyCode = 47

	Key0 KeyCode = 48
	Key1 KeyCode = 49
	Key2 KeyCode = 50
	Key3 KeyCode = 51
	Key4 KeyCode = 52
	Key5 KeyCode = 53
	Key6 KeyCode = 54
	Key7 KeyCode = 55
	Key8 KeyCode = 56
	Key9 KeyCode = 57

	KeyA KeyCode = 65
	KeyB KeyCode = 66
	KeyC KeyCode = 67
	KeyD KeyCode = 68
	KeyE KeyCode = 69
	KeyF KeyCode = 70
	KeyG KeyCode = 71
	KeyH KeyCode = 72
	KeyI KeyCode = 73
	KeyJ KeyCode = 74
	KeyK KeyCode = 75
	KeyL KeyCode = 76
	KeyM KeyCode = 77
	KeyN KeyCode = 78
	KeyO KeyCode = 79
	KeyP KeyCode = 80
	KeyQ KeyCode = 81
	KeyR KeyCode = 82
	KeyS KeyCode = 83
	KeyT KeyCode = 84
	KeyU KeyCode = 85
	KeyV KeyCode = 86
	KeyW KeyCode = 87
	KeyX KeyCode = 88
	KeyY KeyCode = 89
	KeyZ KeyCode = 90

	KeyEscape    KeyCode = 256
	KeyEnter     KeyCode = 257
	KeyTab       KeyCode = 258
	KeyBackspace KeyCode = 259
	KeyRight     KeyCode = 262
	KeyLeft      KeyCode = 263
	KeyDown      KeyCode = 264
	KeyUp        KeyCode = 265

	KeyF1  KeyCode = 290
	KeyF2  KeyCode = 291
	KeyF3  KeyCode = 292
	KeyF4  KeyCode = 293
	KeyF5  KeyCode = 294
	KeyF6  KeyCode = 295
	KeyF7  KeyCode = 296
	KeyF8  KeyCode = 297
	KeyF9  KeyCode = 298
	KeyF10 KeyCode = 299
	KeyF11 KeyCode = 300
	KeyF12 KeyCode = 301

	KeyLeftShift    KeyCode = 340
	KeyLeftControl  KeyCode = 341
	KeyLeftAlt      KeyCode = 342
	KeyRightShift   KeyCode = 344
	KeyRightControl KeyCode = 345
	KeyRightAlt     KeyCode = 346
)

var keyNames = map[KeyCode]string{
	KeySpace:        "Space",
	KeyApostrophe:   "Apostrophe",
	KeyComma:        "Comma",
	KeyMinus:        "Minus",
	KeyPeriod:       "Period",
	KeySlash:        "Slash",
	KeyEscape:       "Escape",
	KeyEnter:        "Enter",
	KeyTab:          "Tab",
	KeyBackspace:    "Backspace",
	KeyRight:        "ArrowRight",
	KeyLeft:         "ArrowLeft",
	KeyDown:         "ArrowDown",
	KeyUp:           "ArrowUp",
	KeyLeftShift:    "LeftShift",
	KeyLeftControl:  "LeftControl",
	KeyLeftAlt:      "LeftAlt",
	KeyRightShift:   "RightShift",
	KeyRightControl: "RightControl",
	KeyRightAlt:     "RightAlt",
}

var keysByName map[string]KeyCode

func init() {
	keysByName = make(map[string]KeyCode, len(keyNames)+36+12)
	for code, name := range keyNames {
		keysByName[name] = code
	}
	for code := KeyA; code <= KeyZ; code++ {
		keysByName[string(rune(code))] = code
	}
	for code := Key0; code <= Key9; code++ {
		keysByName[string(rune(code))] = code
	}
	for code := KeyF1; code <= KeyF12; code++ {
		keysByName["F"+strconv.Itoa(int(code-KeyF1)+1)] = code
	}
}

func (k KeyCode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	switch {
	case k >= KeyA && k <= KeyZ, k >= Key0 && k <= Key9:
		return string(rune(k))
	case k >= KeyF1 && k <= KeyF12:
		return "F" + strconv.Itoa(int(k-KeyF1)+1)
	}
	return "Key(" + strconv.Itoa(int(k)) + ")"
}

// ParseKey returns the key code for a name produced by KeyCode.String.
func ParseKey(name string) (KeyCode, bool) {
	code, ok := keysByName[name]
	if !ok {
		return KeyUnknown, false
	}
	return code, true
}
