package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	events := collectUntil(t, ch, kind)
	return events[len(events)-1]
}

// collectUntil returns every event received up to and including the first of kind.
func collectUntil(t *testing.T, ch <-chan *Event, kind EventKind) []*Event {
	t.Helper()

	var seen []*Event
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed waiting for %v (seen %v)", kind, kinds(seen))
			}
			if ev == nil {
				continue
			}
			seen = append(seen, ev)
			if ev.Kind == kind {
				return seen
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received (seen %v)", kind, kinds(seen))
			return nil
		}
	}
}

func mustClose(t *testing.T, ch <-chan *Event) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel was not closed")
		}
	}
}

// roundTrip sends a ping so every command sent before it has been handled.
func roundTrip(t *testing.T, c *Client) []*Event {
	t.Helper()
	c.Commands <- &Command{Kind: CommandPing, Echo: []byte(`"sync"`)}
	return collectUntil(t, c.Events, EventPong)
}

func assertNoKind(t *testing.T, events []*Event, kind EventKind) {
	t.Helper()
	for _, ev := range events {
		if ev.Kind == kind {
			t.Fatalf("unexpected %v event: %+v", kind, ev)
		}
	}
}

func kinds(events []*Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind.String())
	}
	return out
}

func joinCmd(room, user string) *Command {
	return &Command{Kind: CommandJoinRoom, Room: room, Username: user, Color: "#ff0000"}
}
