package core

import "sync"

// Participant is one joined connection. It does not change after join.
type Participant struct {
	ConnectionID string
	Username     string
	Color        string
}

// Room holds one stroke history and the connections drawing on it.
// Every field behind mu; Registry is the only owner of Room values.
type Room struct {
	ID string

	mu           sync.Mutex
	log          *StrokeLog
	participants map[string]Participant
	order        []string
	clients      map[string]*Client
	closed       bool
	metrics      Metrics
}

func newRoom(id string, metrics Metrics) *Room {
	return &Room{
		ID:           id,
		log:          NewStrokeLog(),
		participants: make(map[string]Participant),
		clients:      make(map[string]*Client),
		metrics:      metrics,
	}
}

// addParticipant inserts or replaces a participant. A replaced participant keeps
// its position in the list. c may be nil for participants without a connection.
func (r *Room) addParticipant(p Participant, c *Client) bool {
	_, exists := r.participants[p.ConnectionID]
	if !exists {
		r.order = append(r.order, p.ConnectionID)
		r.metrics.ParticipantJoined()
	}
	r.participants[p.ConnectionID] = p
	if c != nil {
		r.clients[p.ConnectionID] = c
	}
	return !exists
}

func (r *Room) removeParticipant(connID string) bool {
	if _, exists := r.participants[connID]; !exists {
		return false
	}
	delete(r.participants, connID)
	delete(r.clients, connID)
	r.metrics.ParticipantLeft()
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Room) participantList() []Participant {
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.participants[id])
	}
	return out
}

func (r *Room) empty() bool {
	return len(r.participants) == 0
}

// sendTo delivers to a single member.
func (r *Room) sendTo(c *Client, ev *Event) {
	r.push(c, ev)
}

// broadcast delivers to every member except the connection named by exclude.
// An empty exclude reaches the whole room.
func (r *Room) broadcast(ev *Event, exclude string) {
	for _, id := range r.order {
		if id == exclude {
			continue
		}
		if c := r.clients[id]; c != nil {
			r.push(c, ev)
		}
	}
}

// push queues ev for c. Cursor events are dropped when the queue is full; any
// other event evicts the client so it never silently misses history.
func (r *Room) push(c *Client, ev *Event) {
	if c.deliver(ev) {
		return
	}
	if ev.Kind == EventCursorMove {
		r.metrics.EventDropped(ev.Kind.String(), "queue_full")
		return
	}
	if c.evict(ReasonQueueFull) {
		r.metrics.ClientEvicted()
	}
}
