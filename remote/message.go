package remote

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/engine"
)

// Message types sent by clients.
const (
	TypeKeyDown    = "key_down"
	TypeKeyUp      = "key_up"
	TypeMouseMove  = "mouse_move"
	TypeCursorMode = "cursor_mode"
	TypeDestroy    = "destroy"
	TypeSetField   = "set_field"
)

// Envelope types sent by the server.
const (
	TypeTelemetry = "telemetry"
	TypeError     = "error"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrUnknownKey     = errors.New("unknown key")
	ErrBadCursorMode  = errors.New("cursor mode must be normal or relative")
)

// Message is one client request.
type Message struct {
	Type string `json:"type"`
	// Key is a key name such as "W", "Space" or "ArrowUp".
	Key  string  `json:"key,omitempty"`
	X    float32 `json:"x,omitempty"`
	Y    float32 `json:"y,omitempty"`
	Mode string  `json:"mode,omitempty"`

	Scene  uint32 `json:"scene,omitempty"`
	Entity uint64 `json:"entity,omitempty"`

	// Handle, Field and Value address a script field for set_field.
	Handle uint64 `json:"handle,omitempty"`
	Field  string `json:"field,omitempty"`
	Value  any    `json:"value,omitempty"`
}

// Envelope is one server push.
type Envelope struct {
	Type      string            `json:"type"`
	Telemetry *engine.Telemetry `json:"telemetry,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Decode turns a message into an engine event. Field writes become calls
// run on the engine goroutine; their failures are logged to logger.
func Decode(msg Message, logger *zap.Logger) (engine.Event, error) {
	switch msg.Type {
	case TypeKeyDown, TypeKeyUp:
		key, ok := bridge.ParseKey(msg.Key)
		if !ok {
			return engine.Event{}, fmt.Errorf("%w: %q", ErrUnknownKey, msg.Key)
		}
		if msg.Type == TypeKeyDown {
			return engine.KeyDown(key), nil
		}
		return engine.KeyUp(key), nil
	case TypeMouseMove:
		return engine.MouseMove(msg.X, msg.Y), nil
	case TypeCursorMode:
		var mode bridge.CursorMode
		switch msg.Mode {
		case "normal":
			mode = bridge.CursorNormal
		case "relative":
			mode = bridge.CursorRelative
		default:
			return engine.Event{}, fmt.Errorf("%w: got %q", ErrBadCursorMode, msg.Mode)
		}
		return engine.Event{Kind: engine.EventCursorMode, Mode: mode}, nil
	case TypeDestroy:
		return engine.Event{
			Kind:   engine.EventDestroy,
			Target: bridge.Binding{Scene: bridge.SceneID(msg.Scene), Entity: bridge.EntityID(msg.Entity)},
		}, nil
	case TypeSetField:
		handle, field, value := bridge.Handle(msg.Handle), msg.Field, msg.Value
		return engine.Event{Kind: engine.EventCall, Call: func(e *engine.Engine) {
			inst, ok := e.Dispatcher().Lookup(handle)
			if !ok {
				logger.Warn("set_field on unknown handle", zap.Stringer("handle", handle))
				return
			}
			if err := bridge.SetField(inst, field, value); err != nil {
				logger.Warn("set_field failed", zap.Stringer("handle", handle), zap.Error(err))
			}
		}}, nil
	}
	return engine.Event{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
}
