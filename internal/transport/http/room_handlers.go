package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecanvas-server/internal/core"
)

// RoomHandlers exposes read-only views of live rooms.
type RoomHandlers struct {
	registry *core.Registry
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(registry *core.Registry, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		registry: registry,
		log:      logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RoomSummary is one entry of the room list.
type RoomSummary struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
	Strokes      int    `json:"strokes"`
}

// RoomsResponse lists live rooms.
type RoomsResponse struct {
	Rooms []RoomSummary `json:"rooms"`
}

// RoomResponse describes a single room.
type RoomResponse struct {
	ID        string             `json:"id"`
	Users     []ParticipantEntry `json:"users"`
	Strokes   int                `json:"strokes"`
	RedoDepth int                `json:"redoDepth"`
}

// ParticipantEntry is a participant in API responses.
type ParticipantEntry struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
	Color        string `json:"color"`
}

// ListRooms returns every live room.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.registry.Rooms()
	resp := RoomsResponse{Rooms: make([]RoomSummary, 0, len(rooms))}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, RoomSummary{
			ID:           room.ID,
			Participants: len(room.Participants),
			Strokes:      room.Strokes,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetRoom returns the participants and history size of one room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	id := c.Param("id")
	info, err := h.registry.Inspect(id)
	if err != nil {
		if errors.Is(err, core.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room", id).Msg("inspect room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	users := make([]ParticipantEntry, 0, len(info.Participants))
	for _, p := range info.Participants {
		users = append(users, ParticipantEntry{
			ConnectionID: p.ConnectionID,
			Username:     p.Username,
			Color:        p.Color,
		})
	}
	c.JSON(http.StatusOK, RoomResponse{
		ID:        info.ID,
		Users:     users,
		Strokes:   info.Strokes,
		RedoDepth: info.RedoDepth,
	})
}
