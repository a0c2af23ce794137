package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultStatsInterval = 30 * time.Second

// HubOptions configures a Hub. Zero values are usable.
type HubOptions struct {
	Logger        *zerolog.Logger
	Metrics       Metrics
	StatsInterval time.Duration
}

// Hub routes client commands to rooms and fans the resulting events out.
// Each registered client gets its own goroutine, so commands from one
// connection are handled in order while rooms serialize edits among
// connections.
type Hub struct {
	registry      *Registry
	log           *zerolog.Logger
	metrics       Metrics
	statsInterval time.Duration

	mu      sync.Mutex
	clients map[*Client]struct{}
	wg      sync.WaitGroup
}

// NewHub creates a hub with an empty registry.
func NewHub(opts HubOptions) *Hub {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	interval := opts.StatsInterval
	if interval <= 0 {
		interval = defaultStatsInterval
	}
	return &Hub{
		registry:      NewRegistry(metrics),
		log:           logger,
		metrics:       metrics,
		statsInterval: interval,
		clients:       make(map[*Client]struct{}),
	}
}

// Registry exposes the room registry for read-only inspection.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// RegisterClient starts serving the client's commands.
func (h *Hub) RegisterClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.wg.Add(1)
	go h.serve(c)
}

// UnregisterClient stops accepting commands from the client. Commands already
// queued are still handled, then the client leaves its room and its Events
// channel is closed. The caller must not send on Commands afterwards.
func (h *Hub) UnregisterClient(c *Client) {
	c.closeCommands()
}

// Run logs periodic statistics until ctx is done, then evicts every client so
// transports close their connections.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.mu.Lock()
			connections := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().
				Int("rooms", h.registry.Len()).
				Int("connections", connections).
				Msg("hub stats")
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.evict(ReasonShutdown)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Wait blocks until every registered client has been cleaned up.
func (h *Hub) Wait() {
	h.wg.Wait()
}

// session is the per-connection routing state. It is only touched by the
// client's serve goroutine.
type session struct {
	client      *Client
	room        string
	participant Participant
	joined      bool
}

func (h *Hub) serve(c *Client) {
	defer h.wg.Done()

	s := &session{client: c}
	for cmd := range c.Commands {
		if cmd == nil {
			continue
		}
		h.metrics.CommandHandled(cmd.Kind.String())
		if err := h.handle(s, cmd); err != nil {
			h.logHandleError(s, cmd, err)
		}
	}

	h.disconnect(s)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.Events)
}

func (h *Hub) logHandleError(s *session, cmd *Command, err error) {
	switch {
	case errors.Is(err, ErrNotJoined), errors.Is(err, ErrRoomNotFound):
		h.log.Debug().Err(err).
			Str("client_id", s.client.ID).
			Str("command", cmd.Kind.String()).
			Msg("command ignored")
	default:
		h.log.Warn().Err(err).
			Str("client_id", s.client.ID).
			Str("command", cmd.Kind.String()).
			Msg("command rejected")
	}
}

func (h *Hub) handle(s *session, cmd *Command) error {
	if cmd.Kind == CommandPing {
		h.reply(s.client, &Event{Kind: EventPong, Echo: cmd.Echo})
		return nil
	}
	if cmd.Kind == CommandJoinRoom {
		return h.join(s, cmd)
	}
	if !s.joined {
		return ErrNotJoined
	}

	switch cmd.Kind {
	case CommandDrawStroke:
		return h.draw(s, cmd.Stroke)
	case CommandCursorMove:
		return h.cursorMove(s, cmd.X, cmd.Y)
	case CommandUndo:
		return h.undo(s)
	case CommandRedo:
		return h.redo(s)
	case CommandClearCanvas:
		return h.clear(s)
	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
}

// reply sends directly to the client outside any room.
func (h *Hub) reply(c *Client, ev *Event) {
	if c.deliver(ev) {
		return
	}
	if c.evict(ReasonQueueFull) {
		h.metrics.ClientEvicted()
	}
}

func (h *Hub) join(s *session, cmd *Command) error {
	if s.joined {
		h.reply(s.client, &Event{
			Kind:  EventError,
			Room:  s.room,
			Error: coreError(ErrCodeAlreadyJoined, "connection already joined room "+s.room),
		})
		return fmt.Errorf("join %q: %w", cmd.Room, ErrAlreadyJoined)
	}

	p := Participant{
		ConnectionID: s.client.ID,
		Username:     cmd.Username,
		Color:        cmd.Color,
	}
	h.registry.join(cmd.Room, func(room *Room) {
		room.addParticipant(p, s.client)
		room.sendTo(s.client, &Event{
			Kind:    EventInitCanvas,
			Room:    room.ID,
			Strokes: room.log.Snapshot(),
			Users:   room.participantList(),
		})
		room.broadcast(&Event{Kind: EventUserJoined, Room: room.ID, User: p}, p.ConnectionID)
		pushPresence(room)
	})

	s.room = cmd.Room
	s.participant = p
	s.joined = true

	h.log.Info().
		Str("client_id", s.client.ID).
		Str("room", cmd.Room).
		Str("username", p.Username).
		Msg("participant joined")
	return nil
}

func (h *Hub) draw(s *session, stroke Stroke) error {
	if len(stroke.Points) < MinStrokePoints {
		return fmt.Errorf("draw with %d points: %w", len(stroke.Points), ErrInvalidStroke)
	}
	ok := h.registry.withRoom(s.room, func(room *Room) {
		index := room.log.Append(stroke)
		room.broadcast(&Event{
			Kind:        EventDrawStroke,
			Room:        room.ID,
			Stroke:      stroke,
			StrokeIndex: index,
		}, s.client.ID)
	})
	if !ok {
		return fmt.Errorf("draw in %q: %w", s.room, ErrRoomNotFound)
	}
	return nil
}

func (h *Hub) cursorMove(s *session, x, y float64) error {
	ok := h.registry.withRoom(s.room, func(room *Room) {
		room.broadcast(&Event{
			Kind:         EventCursorMove,
			Room:         room.ID,
			ConnectionID: s.client.ID,
			X:            x,
			Y:            y,
		}, s.client.ID)
	})
	if !ok {
		return fmt.Errorf("cursor in %q: %w", s.room, ErrRoomNotFound)
	}
	return nil
}

func (h *Hub) undo(s *session) error {
	ok := h.registry.withRoom(s.room, func(room *Room) {
		index, done := room.log.Undo()
		if !done {
			return
		}
		room.broadcast(&Event{Kind: EventUndo, Room: room.ID, StrokeIndex: index}, "")
	})
	if !ok {
		return fmt.Errorf("undo in %q: %w", s.room, ErrRoomNotFound)
	}
	return nil
}

func (h *Hub) redo(s *session) error {
	ok := h.registry.withRoom(s.room, func(room *Room) {
		stroke, index, done := room.log.Redo()
		if !done {
			return
		}
		room.broadcast(&Event{
			Kind:        EventRedo,
			Room:        room.ID,
			Stroke:      stroke,
			StrokeIndex: index,
		}, "")
	})
	if !ok {
		return fmt.Errorf("redo in %q: %w", s.room, ErrRoomNotFound)
	}
	return nil
}

func (h *Hub) clear(s *session) error {
	ok := h.registry.withRoom(s.room, func(room *Room) {
		room.log.Clear()
		room.broadcast(&Event{Kind: EventClearCanvas, Room: room.ID}, "")
	})
	if !ok {
		return fmt.Errorf("clear in %q: %w", s.room, ErrRoomNotFound)
	}
	return nil
}

// disconnect is the single cleanup path for graceful and abrupt closes.
func (h *Hub) disconnect(s *session) {
	if !s.joined {
		return
	}
	connID := s.client.ID
	h.registry.leave(s.room, connID, func(room *Room, destroyed bool) {
		if destroyed {
			h.log.Debug().Str("room", room.ID).Msg("room destroyed")
			return
		}
		room.broadcast(&Event{Kind: EventUserLeft, Room: room.ID, ConnectionID: connID}, "")
		pushPresence(room)
	})
	s.joined = false

	h.log.Info().
		Str("client_id", connID).
		Str("room", s.room).
		Msg("participant left")
}
