package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirecanvas-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "username announced on join")
	room := flag.String("room", "smoke", "room to draw in")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		in := proto.Inbound{Type: typ}
		if data != nil {
			raw, err := json.Marshal(data)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", typ, err)
			}
			in.Data = raw
		}
		if err := wsjson.Write(ctx, conn, in); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	var outbound struct {
		Type  string          `json:"type"`
		Data  json.RawMessage `json:"data"`
		Error *proto.Error    `json:"error,omitempty"`
	}
	expect := func(typ string) error {
		for {
			if err := wsjson.Read(ctx, conn, &outbound); err != nil {
				return fmt.Errorf("read waiting for %s: %w", typ, err)
			}
			if outbound.Error != nil {
				return fmt.Errorf("server error %s: %s", outbound.Error.Code, outbound.Error.Msg)
			}
			if outbound.Type == typ {
				return nil
			}
		}
	}

	if err := send(proto.TypeJoinRoom, proto.JoinRoom{RoomID: *room, Username: *user}); err != nil {
		return err
	}
	if err := expect(proto.TypeInitCanvas); err != nil {
		return err
	}
	var init proto.InitCanvas
	if err := json.Unmarshal(outbound.Data, &init); err != nil {
		return fmt.Errorf("decode init-canvas: %w", err)
	}
	fmt.Printf("joined %s: %d strokes, %d users\n", *room, len(init.Strokes), len(init.Users))

	stroke := proto.Stroke{
		Tool:   "brush",
		Color:  "#ff0000",
		Width:  4,
		Points: []proto.Point{{X: 10, Y: 10}, {X: 40, Y: 40}, {X: 80, Y: 20}},
	}
	if err := send(proto.TypeDrawStroke, stroke); err != nil {
		return err
	}
	if err := send(proto.TypeUndo, nil); err != nil {
		return err
	}
	if err := expect(proto.TypeUndo); err != nil {
		return err
	}
	fmt.Printf("undo acknowledged: index=%s\n", outbound.Data)

	if err := send(proto.TypePing, time.Now().UnixMilli()); err != nil {
		return err
	}
	if err := expect(proto.TypePong); err != nil {
		return err
	}
	fmt.Printf("pong: %s\n", outbound.Data)
	return nil
}
