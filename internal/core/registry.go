package core

import (
	"sort"
	"sync"
)

// Registry owns all active rooms. Rooms are created on first join and
// destroyed as soon as their last participant leaves.
//
// Lock order is room before registry: mu is never held while acquiring a
// room lock, so joins and edits in different rooms never contend beyond the
// map lookup.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	metrics Metrics
}

// RoomInfo is a read-only summary of a room.
type RoomInfo struct {
	ID           string
	Participants []Participant
	Strokes      int
	RedoDepth    int
}

// NewRegistry returns an empty registry. A nil metrics discards activity.
func NewRegistry(metrics Metrics) *Registry {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Registry{
		rooms:   make(map[string]*Room),
		metrics: metrics,
	}
}

// GetOrCreate returns the live room with the given id, allocating an empty one
// if needed. Callers must not keep the pointer across operations.
func (r *Registry) GetOrCreate(roomID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		room = newRoom(roomID, r.metrics)
		r.rooms[roomID] = room
		r.metrics.RoomOpened()
	}
	return room
}

func (r *Registry) lookup(roomID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[roomID]
}

// join runs fn under the lock of a live room, creating the room if needed.
// A room that was closed between lookup and locking is skipped and a fresh one
// is created, so a join never lands in a destroyed room.
func (r *Registry) join(roomID string, fn func(room *Room)) {
	for {
		room := r.GetOrCreate(roomID)
		room.mu.Lock()
		if room.closed {
			room.mu.Unlock()
			continue
		}
		fn(room)
		room.mu.Unlock()
		return
	}
}

// withRoom runs fn under the room lock. It reports false if the room does not exist.
func (r *Registry) withRoom(roomID string, fn func(room *Room)) bool {
	room := r.lookup(roomID)
	if room == nil {
		return false
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return false
	}
	fn(room)
	return true
}

// leave removes a participant and destroys the room if it became empty, all
// under the room lock. fn runs afterwards under the same lock when the
// participant was present; destroyed tells whether the room is gone.
func (r *Registry) leave(roomID, connID string, fn func(room *Room, destroyed bool)) bool {
	room := r.lookup(roomID)
	if room == nil {
		return false
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed || !room.removeParticipant(connID) {
		return false
	}
	destroyed := false
	if room.empty() {
		r.mu.Lock()
		if r.rooms[roomID] == room {
			delete(r.rooms, roomID)
		}
		r.mu.Unlock()
		room.closed = true
		room.log = NewStrokeLog()
		destroyed = true
		r.metrics.RoomClosed()
	}
	if fn != nil {
		fn(room, destroyed)
	}
	return true
}

// AddParticipant registers p in the room, creating the room if needed.
// A participant with the same connection id is replaced in place.
func (r *Registry) AddParticipant(roomID string, p Participant) {
	r.join(roomID, func(room *Room) {
		room.addParticipant(p, nil)
	})
}

// RemoveParticipant drops a participant and destroys the room if it is now empty.
// Unknown rooms and participants are ignored.
func (r *Registry) RemoveParticipant(roomID, connID string) {
	r.leave(roomID, connID, nil)
}

// ListParticipants returns the participants of a room in join order.
// A missing room yields an empty list.
func (r *Registry) ListParticipants(roomID string) []Participant {
	users := []Participant{}
	r.withRoom(roomID, func(room *Room) {
		users = room.participantList()
	})
	return users
}

// Snapshot returns the committed strokes of a room, or nil if it does not exist.
func (r *Registry) Snapshot(roomID string) []Stroke {
	var strokes []Stroke
	r.withRoom(roomID, func(room *Room) {
		strokes = room.log.Snapshot()
	})
	return strokes
}

// Inspect summarizes a single room.
func (r *Registry) Inspect(roomID string) (RoomInfo, error) {
	var info RoomInfo
	ok := r.withRoom(roomID, func(room *Room) {
		info = roomInfo(room)
	})
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	return info, nil
}

// Rooms summarizes every live room, ordered by id.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		if !room.closed {
			out = append(out, roomInfo(room))
		}
		room.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len is the number of live rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

func roomInfo(room *Room) RoomInfo {
	return RoomInfo{
		ID:           room.ID,
		Participants: room.participantList(),
		Strokes:      room.log.Len(),
		RedoDepth:    room.log.RedoDepth(),
	}
}
