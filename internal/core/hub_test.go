package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(HubOptions{})
	go hub.Run(ctx)
	return hub
}

func newJoinedClient(t *testing.T, hub *Hub, id, room string) *Client {
	t.Helper()
	c := NewClient(id, 0, 0)
	hub.RegisterClient(c)
	c.Commands <- joinCmd(room, id)
	mustEvent(t, c.Events, EventInitCanvas)
	roundTrip(t, c)
	return c
}

func TestHubScenarioJoinDrawUndoRedoLeave(t *testing.T) {
	hub := startHub(t)
	s1 := testStroke("#123456", 0, 0, 5, 5, 10, 10)

	alice := NewClient("a", 0, 0)
	hub.RegisterClient(alice)
	alice.Commands <- joinCmd("r1", "alice")

	init := mustEvent(t, alice.Events, EventInitCanvas)
	if len(init.Strokes) != 0 || len(init.Users) != 1 || init.Users[0].ConnectionID != "a" {
		t.Fatalf("unexpected init for alice: %+v", init)
	}
	update := mustEvent(t, alice.Events, EventUsersUpdate)
	if len(update.Users) != 1 {
		t.Fatalf("unexpected users-update: %+v", update.Users)
	}

	alice.Commands <- &Command{Kind: CommandDrawStroke, Stroke: s1}
	assertNoKind(t, roundTrip(t, alice), EventDrawStroke)

	bob := NewClient("b", 0, 0)
	hub.RegisterClient(bob)
	bob.Commands <- joinCmd("r1", "bob")

	init = mustEvent(t, bob.Events, EventInitCanvas)
	if len(init.Strokes) != 1 || init.Strokes[0].Color != s1.Color {
		t.Fatalf("bob snapshot strokes = %+v", init.Strokes)
	}
	if len(init.Users) != 2 || init.Users[0].ConnectionID != "a" || init.Users[1].ConnectionID != "b" {
		t.Fatalf("bob snapshot users = %+v", init.Users)
	}

	joined := mustEvent(t, alice.Events, EventUserJoined)
	if joined.User.ConnectionID != "b" || joined.User.Username != "bob" {
		t.Fatalf("unexpected user-joined: %+v", joined.User)
	}
	if update := mustEvent(t, alice.Events, EventUsersUpdate); len(update.Users) != 2 {
		t.Fatalf("alice users-update = %+v", update.Users)
	}

	alice.Commands <- &Command{Kind: CommandUndo}
	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventUndo)
		if ev.StrokeIndex != 0 {
			t.Fatalf("%s undo index = %d", c.ID, ev.StrokeIndex)
		}
	}
	if snap := hub.Registry().Snapshot("r1"); len(snap) != 0 {
		t.Fatalf("snapshot after undo = %+v", snap)
	}

	alice.Commands <- &Command{Kind: CommandRedo}
	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventRedo)
		if ev.StrokeIndex != 0 || ev.Stroke.Color != s1.Color || len(ev.Stroke.Points) != 3 {
			t.Fatalf("%s redo = %+v", c.ID, ev)
		}
	}
	if snap := hub.Registry().Snapshot("r1"); len(snap) != 1 {
		t.Fatalf("snapshot after redo = %+v", snap)
	}

	hub.UnregisterClient(alice)
	left := mustEvent(t, bob.Events, EventUserLeft)
	if left.ConnectionID != "a" {
		t.Fatalf("user-left = %+v", left)
	}
	update = mustEvent(t, bob.Events, EventUsersUpdate)
	if len(update.Users) != 1 || update.Users[0].ConnectionID != "b" {
		t.Fatalf("users-update after leave = %+v", update.Users)
	}
	mustClose(t, alice.Events)
	if hub.Registry().Len() != 1 {
		t.Fatal("room destroyed while bob is still present")
	}

	hub.UnregisterClient(bob)
	mustClose(t, bob.Events)
	if hub.Registry().Len() != 0 {
		t.Fatal("room survived its last participant")
	}
}

func TestHubIgnoresCommandsBeforeJoin(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a", 0, 0)
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandDrawStroke, Stroke: testStroke("#000", 0, 0, 1, 1)}
	alice.Commands <- &Command{Kind: CommandCursorMove, X: 1, Y: 2}
	alice.Commands <- &Command{Kind: CommandUndo}
	alice.Commands <- &Command{Kind: CommandRedo}
	alice.Commands <- &Command{Kind: CommandClearCanvas}

	events := roundTrip(t, alice)
	if len(events) != 1 {
		t.Fatalf("expected only pong, got %v", kinds(events))
	}
	if hub.Registry().Len() != 0 {
		t.Fatal("pre-join commands created a room")
	}
}

func TestHubDoubleJoinProducesError(t *testing.T) {
	hub := startHub(t)
	alice := newJoinedClient(t, hub, "a", "r1")

	alice.Commands <- joinCmd("r2", "alice")
	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAlreadyJoined {
		t.Fatalf("expected already_joined error, got %+v", ev)
	}
	if got := hub.Registry().ListParticipants("r2"); len(got) != 0 {
		t.Fatalf("second join registered in r2: %+v", got)
	}
}

func TestHubDrawAndCursorExcludeSender(t *testing.T) {
	hub := startHub(t)
	alice := newJoinedClient(t, hub, "a", "r1")
	bob := newJoinedClient(t, hub, "b", "r1")
	carol := newJoinedClient(t, hub, "c", "r1")

	alice.Commands <- &Command{Kind: CommandDrawStroke, Stroke: testStroke("#abc", 0, 0, 1, 1)}
	alice.Commands <- &Command{Kind: CommandCursorMove, X: 4, Y: 2}

	for _, c := range []*Client{bob, carol} {
		draw := mustEvent(t, c.Events, EventDrawStroke)
		if draw.StrokeIndex != 0 || draw.Stroke.Color != "#abc" {
			t.Fatalf("%s draw = %+v", c.ID, draw)
		}
		cursor := mustEvent(t, c.Events, EventCursorMove)
		if cursor.ConnectionID != "a" || cursor.X != 4 || cursor.Y != 2 {
			t.Fatalf("%s cursor = %+v", c.ID, cursor)
		}
	}

	events := roundTrip(t, alice)
	assertNoKind(t, events, EventDrawStroke)
	assertNoKind(t, events, EventCursorMove)
}

func TestHubClearReachesWholeRoom(t *testing.T) {
	hub := startHub(t)
	alice := newJoinedClient(t, hub, "a", "r1")
	bob := newJoinedClient(t, hub, "b", "r1")

	alice.Commands <- &Command{Kind: CommandDrawStroke, Stroke: testStroke("#000", 0, 0, 1, 1)}
	alice.Commands <- &Command{Kind: CommandUndo}
	roundTrip(t, alice)
	bob.Commands <- &Command{Kind: CommandClearCanvas}

	mustEvent(t, alice.Events, EventClearCanvas)
	mustEvent(t, bob.Events, EventClearCanvas)

	alice.Commands <- &Command{Kind: CommandUndo}
	alice.Commands <- &Command{Kind: CommandRedo}
	events := roundTrip(t, alice)
	assertNoKind(t, events, EventUndo)
	assertNoKind(t, events, EventRedo)
}

func TestHubUndoOnEmptyHistoryIsSilent(t *testing.T) {
	hub := startHub(t)
	alice := newJoinedClient(t, hub, "a", "r1")
	bob := newJoinedClient(t, hub, "b", "r1")

	bob.Commands <- &Command{Kind: CommandUndo}
	bob.Commands <- &Command{Kind: CommandRedo}
	roundTrip(t, bob)

	events := roundTrip(t, alice)
	assertNoKind(t, events, EventUndo)
	assertNoKind(t, events, EventRedo)
}

func TestHubUndoRemovesOtherParticipantsStroke(t *testing.T) {
	hub := startHub(t)
	alice := newJoinedClient(t, hub, "a", "r1")
	bob := newJoinedClient(t, hub, "b", "r1")

	alice.Commands <- &Command{Kind: CommandDrawStroke, Stroke: testStroke("alice", 0, 0, 1, 1)}
	mustEvent(t, bob.Events, EventDrawStroke)

	bob.Commands <- &Command{Kind: CommandUndo}
	if ev := mustEvent(t, alice.Events, EventUndo); ev.StrokeIndex != 0 {
		t.Fatalf("undo index = %d", ev.StrokeIndex)
	}
}

func TestHubRoomsAreIsolated(t *testing.T) {
	hub := startHub(t)
	alice := newJoinedClient(t, hub, "a", "r1")
	bob := newJoinedClient(t, hub, "b", "r2")

	alice.Commands <- &Command{Kind: CommandDrawStroke, Stroke: testStroke("#000", 0, 0, 1, 1)}
	alice.Commands <- &Command{Kind: CommandClearCanvas}
	roundTrip(t, alice)

	events := roundTrip(t, bob)
	assertNoKind(t, events, EventDrawStroke)
	assertNoKind(t, events, EventClearCanvas)
}

func TestHubDropsShortStroke(t *testing.T) {
	hub := startHub(t)
	alice := newJoinedClient(t, hub, "a", "r1")
	bob := newJoinedClient(t, hub, "b", "r1")

	alice.Commands <- &Command{Kind: CommandDrawStroke, Stroke: testStroke("#000", 0, 0)}
	roundTrip(t, alice)

	assertNoKind(t, roundTrip(t, bob), EventDrawStroke)
	if snap := hub.Registry().Snapshot("r1"); len(snap) != 0 {
		t.Fatalf("short stroke committed: %+v", snap)
	}
}

func TestHubPingEchoesPayload(t *testing.T) {
	hub := startHub(t)
	alice := NewClient("a", 0, 0)
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandPing, Echo: []byte("1712345678")}
	ev := mustEvent(t, alice.Events, EventPong)
	if string(ev.Echo) != "1712345678" {
		t.Fatalf("pong echo = %q", ev.Echo)
	}
}

func TestHubConcurrentDrawsAreSerialized(t *testing.T) {
	hub := startHub(t)
	const writers, strokes = 5, 40

	observer := NewClient("observer", 0, writers*strokes+16)
	hub.RegisterClient(observer)
	observer.Commands <- joinCmd("r1", "observer")
	mustEvent(t, observer.Events, EventInitCanvas)

	clients := make([]*Client, writers)
	for i := range clients {
		c := NewClient(fmt.Sprintf("w%d", i), 0, writers*strokes+16)
		hub.RegisterClient(c)
		c.Commands <- joinCmd("r1", c.ID)
		mustEvent(t, c.Events, EventInitCanvas)
		clients[i] = c
	}

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			for j := 0; j < strokes; j++ {
				c.Commands <- &Command{Kind: CommandDrawStroke, Stroke: testStroke(c.ID, 0, 0, 1, 1)}
			}
		}(c)
	}
	wg.Wait()
	for _, c := range clients {
		roundTrip(t, c)
	}

	next := 0
	deadline := time.After(2 * time.Second)
	for next < writers*strokes {
		select {
		case ev := <-observer.Events:
			if ev.Kind != EventDrawStroke {
				continue
			}
			if ev.StrokeIndex != next {
				t.Fatalf("observer saw index %d, want %d", ev.StrokeIndex, next)
			}
			next++
		case <-deadline:
			t.Fatalf("observer saw %d of %d strokes", next, writers*strokes)
		}
	}
	if snap := hub.Registry().Snapshot("r1"); len(snap) != writers*strokes {
		t.Fatalf("snapshot length = %d", len(snap))
	}
}

func TestHubEvictsSlowConsumer(t *testing.T) {
	hub := startHub(t)
	alice := newJoinedClient(t, hub, "a", "r1")

	slow := NewClient("slow", 0, 1)
	hub.RegisterClient(slow)
	slow.Commands <- joinCmd("r1", "slow")
	roundTrip(t, alice)

	for i := 0; i < 5; i++ {
		alice.Commands <- &Command{Kind: CommandDrawStroke, Stroke: testStroke("#000", 0, 0, 1, 1)}
	}
	roundTrip(t, alice)

	select {
	case <-slow.Evicted():
	case <-time.After(2 * time.Second):
		t.Fatal("slow consumer was not evicted")
	}
	if slow.EvictReason() != ReasonQueueFull {
		t.Fatalf("evict reason = %q", slow.EvictReason())
	}
}

func TestHubDropsCursorForSlowConsumer(t *testing.T) {
	hub := startHub(t)
	alice := newJoinedClient(t, hub, "a", "r1")

	slow := NewClient("slow", 0, 4)
	hub.RegisterClient(slow)
	slow.Commands <- joinCmd("r1", "slow")
	mustEvent(t, slow.Events, EventInitCanvas)
	mustEvent(t, slow.Events, EventUsersUpdate)
	roundTrip(t, alice)

	for i := 0; i < 20; i++ {
		alice.Commands <- &Command{Kind: CommandCursorMove, X: float64(i), Y: float64(i)}
	}
	roundTrip(t, alice)

	select {
	case <-slow.Evicted():
		t.Fatal("cursor flood evicted a client")
	default:
	}
}

func TestHubRunEvictsClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(HubOptions{})
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	alice := NewClient("a", 0, 0)
	hub.RegisterClient(alice)
	roundTrip(t, alice)

	cancel()
	<-done

	select {
	case <-alice.Evicted():
	case <-time.After(time.Second):
		t.Fatal("client not evicted on shutdown")
	}
	if alice.EvictReason() != ReasonShutdown {
		t.Fatalf("evict reason = %q", alice.EvictReason())
	}

	hub.UnregisterClient(alice)
	hub.Wait()
}
