package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(HubOptions{})
	go hub.Run(ctx)

	sender := NewClient("sender", 0, 0)
	hub.RegisterClient(sender)
	sender.Commands <- joinCmd("bench", "sender")

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		c := NewClient(fmt.Sprintf("c%d", i), 0, 0)
		hub.RegisterClient(c)
		c.Commands <- joinCmd("bench", c.ID)
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid eviction.
	go func() {
		for range sender.Events {
		}
	}()
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	stroke := Stroke{Tool: ToolBrush, Color: "#000", Width: 2, Points: []Point{{0, 0}, {1, 1}}}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandDrawStroke, Stroke: stroke}
		for ev := range target.Events {
			if ev.Kind == EventDrawStroke {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
