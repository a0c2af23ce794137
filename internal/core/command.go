package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom binds the connection to a room.
	CommandJoinRoom CommandKind = iota
	// CommandDrawStroke commits a finished stroke to the room history.
	CommandDrawStroke
	// CommandCursorMove relays the sender's pointer position.
	CommandCursorMove
	// CommandUndo removes the newest stroke of the room.
	CommandUndo
	// CommandRedo restores the most recently undone stroke of the room.
	CommandRedo
	// CommandClearCanvas drops the whole room history.
	CommandClearCanvas
	// CommandPing asks for an echo of Echo.
	CommandPing
)

var commandNames = [...]string{
	CommandJoinRoom:    "join-room",
	CommandDrawStroke:  "draw-stroke",
	CommandCursorMove:  "cursor-move",
	CommandUndo:        "undo",
	CommandRedo:        "redo",
	CommandClearCanvas: "clear-canvas",
	CommandPing:        "ping",
}

func (k CommandKind) String() string {
	if k >= 0 && int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "unknown"
}

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind

	// join-room
	Room     string
	Username string
	Color    string

	// draw-stroke
	Stroke Stroke

	// cursor-move
	X float64
	Y float64

	// ping; opaque to the core
	Echo []byte
}
