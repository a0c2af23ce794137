package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirecanvas-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_draw: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "username")
	color := flag.String("color", "#000000", "cursor and brush color")
	room := flag.String("room", "lobby", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	c := &client{ctx: ctx, conn: conn, cancel: cancel, color: *color}
	c.send(proto.TypeJoinRoom, proto.JoinRoom{RoomID: *room, Username: *user, Color: *color})

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *user, *room)
	fmt.Println("Commands: draw x1,y1 x2,y2 ... | erase x1,y1 ... | move x,y | undo | redo | clear | ping. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	c.writeLoop()

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

type client struct {
	ctx    context.Context
	conn   *websocket.Conn
	cancel context.CancelFunc
	color  string
}

func (c *client) send(typ string, data any) {
	in := proto.Inbound{Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Printf("marshal %s: %v", typ, err)
			return
		}
		in.Data = raw
	}
	if err := wsjson.Write(c.ctx, c.conn, in); err != nil {
		c.cancel()
		log.Printf("send: %v", err)
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch outbound.Type {
		case proto.TypeInitCanvas:
			var init proto.InitCanvas
			if err := json.Unmarshal(outbound.Data, &init); err != nil {
				log.Printf("unmarshal init-canvas: %v", err)
				continue
			}
			fmt.Printf("canvas: %d strokes\n", len(init.Strokes))
			for _, u := range init.Users {
				fmt.Printf("  %s (%s) %s\n", u.Username, u.ConnectionID, u.Color)
			}
		case proto.TypeUserJoined:
			var p proto.Participant
			if err := json.Unmarshal(outbound.Data, &p); err != nil {
				log.Printf("unmarshal user-joined: %v", err)
				continue
			}
			fmt.Printf("%s joined\n", p.Username)
		case proto.TypeUserLeft:
			fmt.Printf("%s left\n", outbound.Data)
		case proto.TypeDrawStroke:
			var s proto.IndexedStroke
			if err := json.Unmarshal(outbound.Data, &s); err != nil {
				log.Printf("unmarshal draw-stroke: %v", err)
				continue
			}
			fmt.Printf("stroke #%d: %s %s width=%g points=%d\n", s.StrokeIndex, s.Tool, s.Color, s.Width, len(s.Points))
		case proto.TypeCursorMove:
			// too chatty for a terminal
		case proto.TypeError:
			if outbound.Error != nil {
				fmt.Printf("error %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			}
		default:
			fmt.Printf("%s %s\n", outbound.Type, outbound.Data)
		}
	}
}

func (c *client) writeLoop() {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := c.command(strings.Fields(line)); err != nil {
				fmt.Printf("! %v\n", err)
			}
		}
	}
}

func (c *client) command(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "draw", "erase":
		points, err := parsePoints(fields[1:])
		if err != nil {
			return err
		}
		tool := "brush"
		if fields[0] == "erase" {
			tool = "eraser"
		}
		c.send(proto.TypeDrawStroke, proto.Stroke{Tool: tool, Color: c.color, Width: 3, Points: points})
	case "move":
		points, err := parsePoints(fields[1:])
		if err != nil || len(points) != 1 {
			return errors.New("usage: move x,y")
		}
		c.send(proto.TypeCursorMove, proto.CursorMove{X: points[0].X, Y: points[0].Y})
	case "undo":
		c.send(proto.TypeUndo, nil)
	case "redo":
		c.send(proto.TypeRedo, nil)
	case "clear":
		c.send(proto.TypeClearCanvas, nil)
	case "ping":
		c.send(proto.TypePing, nil)
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}

func parsePoints(fields []string) ([]proto.Point, error) {
	points := make([]proto.Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("bad point %q, want x,y", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("bad x in %q: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("bad y in %q: %w", f, err)
		}
		points = append(points, proto.Point{X: x, Y: y})
	}
	return points, nil
}
