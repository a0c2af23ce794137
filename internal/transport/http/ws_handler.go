package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecanvas-server/internal/config"
	"github.com/vovakirdan/wirecanvas-server/internal/core"
	"github.com/vovakirdan/wirecanvas-server/internal/metrics"
	"github.com/vovakirdan/wirecanvas-server/internal/proto"
	"github.com/vovakirdan/wirecanvas-server/internal/utils"
)

const (
	pingInterval = 20 * time.Second
	pingTimeout  = 10 * time.Second
)

var errEvicted = errors.New("client evicted")

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub     *core.Hub
	cfg     *config.Config
	mapper  inboundMapper
	metrics *metrics.Metrics
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, m *metrics.Metrics, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:     hub,
		cfg:     cfg,
		mapper:  inboundMapper{maxStrokePoints: cfg.MaxStrokePoints},
		metrics: m,
		log:     logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.AllowedOrigins,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	h.metrics.ConnectionAccepted()

	client := core.NewClient(utils.NewID(), h.cfg.CommandBuffer, h.cfg.ClientBuffer)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	h.log.Debug().Str("client_id", client.ID).Str("remote", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if errors.Is(err, errEvicted) {
		reason = client.EvictReason()
		if reason == core.ReasonShutdown {
			status = websocket.StatusGoingAway
			h.log.Debug().Str("client_id", client.ID).Msg("ws closed for shutdown")
		} else {
			status = websocket.StatusPolicyViolation
			h.log.Warn().Str("client_id", client.ID).Str("reason", reason).Msg("ws client evicted")
		}
	} else if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Debug().Str("client_id", client.ID).Msg("ws disconnected")
	conn.Close(status, truncateReason(reason))
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	cursorLimit := newRateLimiter(h.cfg.CursorRateLimit, h.cfg.CursorBurst)
	// set once a valid join has been queued; the hub handles it before anything sent later
	joinQueued := false

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("malformed ws frame")
			if writeErr := h.writeError(ctx, conn, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed frame"}); writeErr != nil {
				return writeErr
			}
			continue
		}

		cmd, protoErr := h.mapper.toCommand(client, inbound)
		if protoErr != nil {
			if !joinQueued && inbound.Type != proto.TypeJoinRoom && protoErr.Code != core.ErrCodeUnknownEvent {
				// room events before join are ignored, not answered
				h.log.Debug().
					Str("client_id", client.ID).
					Str("type", inbound.Type).
					Str("code", protoErr.Code).
					Msg("rejected inbound before join")
				continue
			}
			h.log.Debug().
				Str("client_id", client.ID).
				Str("type", inbound.Type).
				Str("code", protoErr.Code).
				Msg("rejected inbound")
			if writeErr := h.writeError(ctx, conn, protoErr); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd == nil {
			continue
		}

		if cmd.Kind == core.CommandCursorMove {
			h.offerCursor(client, cmd, cursorLimit)
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
		if cmd.Kind == core.CommandJoinRoom {
			joinQueued = true
		}
	}
}

// offerCursor queues a cursor command unless it is over the rate limit or the
// command queue is full. Cursor positions are superseded by the next one.
func (h *WSHandler) offerCursor(client *core.Client, cmd *core.Command, limit *rateLimiter) {
	if !limit.allow() {
		h.metrics.EventDropped(proto.TypeCursorMove, "rate_limited")
		return
	}
	select {
	case client.Commands <- cmd:
	default:
		h.metrics.EventDropped(proto.TypeCursorMove, "command_queue_full")
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Evicted():
			return errEvicted
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, protoErr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{Type: proto.TypeError, Error: protoErr})
}

// truncateReason keeps close reasons within the 123 bytes a close frame allows.
func truncateReason(reason string) string {
	const maxReason = 123
	if len(reason) > maxReason {
		return reason[:maxReason]
	}
	return reason
}
