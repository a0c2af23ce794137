package core

import "sync"

const (
	defaultCommandBuffer = 64
	defaultEventBuffer   = 256
)

// Eviction reasons reported by Client.EvictReason.
const (
	ReasonQueueFull = "outbound queue full"
	ReasonShutdown  = "server shutting down"
)

// Client is one connection as seen by the core layer.
// The transport writes to Commands and reads from Events; the hub owns the rest.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	evicted     chan struct{}
	evictOnce   sync.Once
	evictReason string
	closeOnce   sync.Once
}

// NewClient constructs a client with buffered channels. Non-positive sizes use defaults.
func NewClient(id string, commandBuffer, eventBuffer int) *Client {
	if commandBuffer <= 0 {
		commandBuffer = defaultCommandBuffer
	}
	if eventBuffer <= 0 {
		eventBuffer = defaultEventBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, commandBuffer),
		Events:   make(chan *Event, eventBuffer),
		evicted:  make(chan struct{}),
	}
}

// Evicted is closed when the hub gives up on delivering to this client.
// The transport should close the connection once it fires.
func (c *Client) Evicted() <-chan struct{} {
	return c.evicted
}

// EvictReason reports why the client was evicted. Empty until Evicted fires.
func (c *Client) EvictReason() string {
	select {
	case <-c.evicted:
		return c.evictReason
	default:
		return ""
	}
}

func (c *Client) evict(reason string) bool {
	first := false
	c.evictOnce.Do(func() {
		c.evictReason = reason
		close(c.evicted)
		first = true
	})
	return first
}

// deliver queues an event without blocking. It reports false if the queue is full.
func (c *Client) deliver(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) closeCommands() {
	c.closeOnce.Do(func() {
		close(c.Commands)
	})
}
