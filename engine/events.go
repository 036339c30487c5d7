package engine

import (
	"sync"

	"github.com/plus3/scriptbridge/bridge"
)

// EventKind identifies what an Event carries.
type EventKind uint8

const (
	EventKeyDown EventKind = iota + 1
	EventKeyUp
	EventMouseMove
	EventCursorMode
	EventDestroy
	// EventCall runs Call on the engine goroutine.
	EventCall
)

func (k EventKind) String() string {
	switch k {
	case EventKeyDown:
		return "KeyDown"
	case EventKeyUp:
		return "KeyUp"
	case EventMouseMove:
		return "MouseMove"
	case EventCursorMode:
		return "CursorMode"
	case EventDestroy:
		return "Destroy"
	case EventCall:
		return "Call"
	}
	return "EventKind(?)"
}

// Event is input or a request produced off the engine goroutine. Events are
// applied at the start of the next Frame, in posting order.
type Event struct {
	Kind EventKind
	Key  bridge.KeyCode
	X, Y float32
	Mode bridge.CursorMode
	// Target is the entity an EventDestroy removes.
	Target bridge.Binding
	Call   func(*Engine)
}

func KeyDown(k bridge.KeyCode) Event { return Event{Kind: EventKeyDown, Key: k} }
func KeyUp(k bridge.KeyCode) Event   { return Event{Kind: EventKeyUp, Key: k} }
func MouseMove(x, y float32) Event   { return Event{Kind: EventMouseMove, X: x, Y: y} }

// eventQueue is a mutex-guarded FIFO drained once per frame.
type eventQueue struct {
	mu      sync.Mutex
	pending []Event
	spare   []Event
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()
}

// drain swaps the buffers and returns everything posted so far. The returned
// slice is valid until the next drain.
func (q *eventQueue) drain() []Event {
	q.mu.Lock()
	out := q.pending
	q.pending = q.spare[:0]
	q.spare = out
	q.mu.Unlock()
	return out
}
