package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventInitCanvas delivers the room snapshot to a client that just joined.
	EventInitCanvas EventKind = iota
	// EventUserJoined notifies the rest of a room about a new participant.
	EventUserJoined
	// EventUsersUpdate carries the full participant list of a room.
	EventUsersUpdate
	// EventUserLeft notifies the rest of a room that a connection went away.
	EventUserLeft
	// EventDrawStroke relays a committed stroke and its index.
	EventDrawStroke
	// EventCursorMove relays another participant's pointer.
	EventCursorMove
	// EventUndo reports the index removed from the room history.
	EventUndo
	// EventRedo reports a restored stroke and its index.
	EventRedo
	// EventClearCanvas reports that the room history was dropped.
	EventClearCanvas
	// EventPong answers a ping.
	EventPong
	// EventError notifies a client about a rejected request.
	EventError
)

var eventNames = [...]string{
	EventInitCanvas:  "init-canvas",
	EventUserJoined:  "user-joined",
	EventUsersUpdate: "users-update",
	EventUserLeft:    "user-left",
	EventDrawStroke:  "draw-stroke",
	EventCursorMove:  "cursor-move",
	EventUndo:        "undo",
	EventRedo:        "redo",
	EventClearCanvas: "clear-canvas",
	EventPong:        "pong",
	EventError:       "error",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is sent to clients to describe what happened in a room.
// Events are shared between recipients and must not be modified after fan-out.
type Event struct {
	Kind EventKind
	Room string

	Strokes []Stroke      // EventInitCanvas
	Users   []Participant // EventInitCanvas, EventUsersUpdate
	User    Participant   // EventUserJoined

	Stroke      Stroke // EventDrawStroke, EventRedo
	StrokeIndex int    // EventDrawStroke, EventUndo, EventRedo

	ConnectionID string // EventCursorMove, EventUserLeft
	X            float64
	Y            float64

	Echo  []byte     // EventPong
	Error *CoreError // EventError
}
