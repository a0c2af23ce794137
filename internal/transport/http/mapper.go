package http

import (
	"encoding/json"

	"github.com/vovakirdan/wirecanvas-server/internal/core"
	"github.com/vovakirdan/wirecanvas-server/internal/proto"
	"github.com/vovakirdan/wirecanvas-server/internal/utils"
)

const defaultColor = "#000000"

// inboundMapper validates client frames and turns them into hub commands.
type inboundMapper struct {
	maxStrokePoints int
}

// toCommand returns either a command or a protocol error for the client.
// Neither is returned for frames that are valid but carry nothing to do.
func (m inboundMapper) toCommand(client *core.Client, inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.TypeJoinRoom:
		var join proto.JoinRoom
		if err := decode(inbound.Data, &join); err != nil {
			return nil, badRequest(err)
		}
		if err := join.Validate(); err != nil {
			return nil, badRequest(err)
		}
		if join.Username == "" {
			join.Username = utils.ShortID(client.ID, 8)
		}
		if join.Color == "" {
			join.Color = defaultColor
		}
		return &core.Command{
			Kind:     core.CommandJoinRoom,
			Room:     join.RoomID,
			Username: join.Username,
			Color:    join.Color,
		}, nil
	case proto.TypeDrawStroke:
		var stroke proto.Stroke
		if err := decode(inbound.Data, &stroke); err != nil {
			return nil, invalidStroke(err)
		}
		if err := stroke.Validate(m.maxStrokePoints); err != nil {
			return nil, invalidStroke(err)
		}
		return &core.Command{Kind: core.CommandDrawStroke, Stroke: strokeToCore(stroke)}, nil
	case proto.TypeCursorMove:
		var cursor proto.CursorMove
		if err := decode(inbound.Data, &cursor); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{Kind: core.CommandCursorMove, X: cursor.X, Y: cursor.Y}, nil
	case proto.TypeUndo:
		return &core.Command{Kind: core.CommandUndo}, nil
	case proto.TypeRedo:
		return &core.Command{Kind: core.CommandRedo}, nil
	case proto.TypeClearCanvas:
		return &core.Command{Kind: core.CommandClearCanvas}, nil
	case proto.TypePing:
		var echo []byte
		if len(inbound.Data) > 0 {
			echo = append([]byte(nil), inbound.Data...)
		}
		return &core.Command{Kind: core.CommandPing, Echo: echo}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeUnknownEvent, Msg: "unknown event type " + inbound.Type}
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	return json.Unmarshal(data, v)
}

func badRequest(err error) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: err.Error()}
}

func invalidStroke(err error) *proto.Error {
	return &proto.Error{Code: core.ErrCodeInvalidStroke, Msg: err.Error()}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventInitCanvas:
		return proto.Outbound{
			Type: proto.TypeInitCanvas,
			Data: proto.InitCanvas{
				Strokes: strokesToProto(event.Strokes),
				Users:   participantsToProto(event.Users),
			},
		}
	case core.EventUserJoined:
		return proto.Outbound{Type: proto.TypeUserJoined, Data: participantToProto(event.User)}
	case core.EventUsersUpdate:
		return proto.Outbound{Type: proto.TypeUsersUpdate, Data: participantsToProto(event.Users)}
	case core.EventUserLeft:
		return proto.Outbound{Type: proto.TypeUserLeft, Data: event.ConnectionID}
	case core.EventDrawStroke:
		return proto.Outbound{
			Type: proto.TypeDrawStroke,
			Data: proto.IndexedStroke{
				Stroke:      strokeToProto(event.Stroke),
				StrokeIndex: event.StrokeIndex,
			},
		}
	case core.EventCursorMove:
		return proto.Outbound{
			Type: proto.TypeCursorMove,
			Data: proto.CursorRelay{ConnectionID: event.ConnectionID, X: event.X, Y: event.Y},
		}
	case core.EventUndo:
		return proto.Outbound{Type: proto.TypeUndo, Data: event.StrokeIndex}
	case core.EventRedo:
		return proto.Outbound{
			Type: proto.TypeRedo,
			Data: proto.RedoData{
				Stroke:      strokeToProto(event.Stroke),
				StrokeIndex: event.StrokeIndex,
			},
		}
	case core.EventClearCanvas:
		return proto.Outbound{Type: proto.TypeClearCanvas}
	case core.EventPong:
		if len(event.Echo) == 0 {
			return proto.Outbound{Type: proto.TypePong}
		}
		return proto.Outbound{Type: proto.TypePong, Data: json.RawMessage(event.Echo)}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.TypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.TypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.TypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}

func strokeToCore(s proto.Stroke) core.Stroke {
	points := make([]core.Point, len(s.Points))
	for i, p := range s.Points {
		points[i] = core.Point{X: p.X, Y: p.Y}
	}
	return core.Stroke{
		Tool:   core.Tool(s.Tool),
		Color:  s.Color,
		Width:  s.Width,
		Points: points,
	}
}

func strokeToProto(s core.Stroke) proto.Stroke {
	points := make([]proto.Point, len(s.Points))
	for i, p := range s.Points {
		points[i] = proto.Point{X: p.X, Y: p.Y}
	}
	return proto.Stroke{
		Tool:   string(s.Tool),
		Color:  s.Color,
		Width:  s.Width,
		Points: points,
	}
}

func strokesToProto(strokes []core.Stroke) []proto.Stroke {
	out := make([]proto.Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = strokeToProto(s)
	}
	return out
}

func participantToProto(p core.Participant) proto.Participant {
	return proto.Participant{
		ConnectionID: p.ConnectionID,
		Username:     p.Username,
		Color:        p.Color,
	}
}

func participantsToProto(users []core.Participant) []proto.Participant {
	out := make([]proto.Participant, len(users))
	for i, p := range users {
		out[i] = participantToProto(p)
	}
	return out
}
