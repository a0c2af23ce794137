package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event names shared by both directions of the socket.
const (
	TypeJoinRoom    = "join-room"
	TypeInitCanvas  = "init-canvas"
	TypeUserJoined  = "user-joined"
	TypeUserLeft    = "user-left"
	TypeUsersUpdate = "users-update"
	TypeDrawStroke  = "draw-stroke"
	TypeCursorMove  = "cursor-move"
	TypeUndo        = "undo"
	TypeRedo        = "redo"
	TypeClearCanvas = "clear-canvas"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeError       = "error"
)

// JoinRoom asks to bind the connection to a room.
type JoinRoom struct {
	RoomID   string `json:"roomId" validate:"required,max=128"`
	Username string `json:"username" validate:"max=64"`
	Color    string `json:"color" validate:"max=32"`
}

// Point is one sampled stroke position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is a finished path as drawn by a client.
type Stroke struct {
	Tool   string  `json:"tool" validate:"required,oneof=brush eraser"`
	Color  string  `json:"color" validate:"required,max=32"`
	Width  float64 `json:"width" validate:"gt=0,lte=1000"`
	Points []Point `json:"points" validate:"required,min=2"`
}

// IndexedStroke is a stroke relayed together with its position in the room history.
type IndexedStroke struct {
	Stroke
	StrokeIndex int `json:"strokeIndex"`
}

// RedoData is broadcast when a stroke is restored.
type RedoData struct {
	Stroke      Stroke `json:"stroke"`
	StrokeIndex int    `json:"strokeIndex"`
}

// CursorMove is the pointer position sent by a client.
type CursorMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CursorRelay is a pointer position attributed to its connection.
type CursorRelay struct {
	ConnectionID string  `json:"connectionId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

// Participant is one user present in a room.
type Participant struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
	Color        string `json:"color"`
}

// InitCanvas is the snapshot delivered after a successful join.
type InitCanvas struct {
	Strokes []Stroke      `json:"strokes"`
	Users   []Participant `json:"users"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
