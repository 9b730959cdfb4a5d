package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avezina/liveshop/internal/core"
	"github.com/avezina/liveshop/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *StreamWSController) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "adapters.ws").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "adapters.ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *StreamWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *wsConn) {
	defer func() {
		log.Info().Str("module", "adapters.ws").Str("conn", string(c.id)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(ctx, c)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "adapters.ws").Str("conn", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "adapters.ws").Str("conn", string(c.id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleMessage(ctx, c, data)
		}
	}
}

func (ctl *StreamWSController) handleMessage(ctx context.Context, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("bad json")
		ctl.sendError(c, "bad_request", "malformed message")
		return
	}

	switch env.Type {
	case MsgStartSession:
		ctl.handleStartSession(ctx, c, data)
	case MsgJoinSession:
		ctl.handleJoinSession(c, data)
	case MsgLeaveSession:
		ctl.handleLeaveSession(c, data)
	case MsgEndSession:
		ctl.handleEndSession(ctx, c, data)
	case MsgOffer, MsgAnswer, MsgICECandidate:
		ctl.handleRelay(c, env.Type, data)
	case MsgListSessions:
		ctl.Orch.SendStreamList(c)
	case MsgPing:
		ctl.sendJSON(c, map[string]string{"type": "pong"})
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown message")
		ctl.sendError(c, "bad_request", "unknown message type")
	}
}

func (ctl *StreamWSController) handleStartSession(ctx context.Context, c *wsConn, data []byte) {
	var p startSessionMsg
	if !ctl.decode(c, data, &p) {
		return
	}
	err := ctl.Orch.StartStream(ctx, c, domain.StreamID(p.StreamID), domain.StreamKey(p.StreamKey), p.Title, p.Description)
	if err != nil {
		ctl.sendDomainError(c, err)
	}
}

func (ctl *StreamWSController) handleJoinSession(c *wsConn, data []byte) {
	var p joinSessionMsg
	if !ctl.decode(c, data, &p) {
		return
	}
	if err := ctl.Orch.JoinStream(c, domain.StreamID(p.StreamID)); err != nil {
		ctl.sendDomainError(c, err)
	}
}

func (ctl *StreamWSController) handleLeaveSession(c *wsConn, data []byte) {
	var p leaveSessionMsg
	if !ctl.decode(c, data, &p) {
		return
	}
	ctl.Orch.LeaveStream(c, domain.StreamID(p.StreamID))
}

func (ctl *StreamWSController) handleEndSession(ctx context.Context, c *wsConn, data []byte) {
	var p endSessionMsg
	if !ctl.decode(c, data, &p) {
		return
	}
	err := ctl.Orch.EndStream(ctx, c, domain.StreamID(p.StreamID), domain.StreamKey(p.StreamKey))
	if err != nil {
		ctl.sendDomainError(c, err)
	}
}

func (ctl *StreamWSController) handleRelay(c *wsConn, kind string, data []byte) {
	var p relayMsg
	if !ctl.decode(c, data, &p) {
		return
	}
	err := ctl.Orch.Relay(c, kind, domain.StreamID(p.StreamID), domain.ConnID(p.TargetID), p.Payload)
	if err != nil {
		ctl.sendDomainError(c, err)
	}
}

// decode unmarshals and validates an inbound payload, reporting
// bad_request to the sender on failure.
func (ctl *StreamWSController) decode(c *wsConn, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("bad payload")
		ctl.sendError(c, "bad_request", "malformed payload")
		return false
	}
	if err := ctl.validate.Struct(v); err != nil {
		ctl.sendError(c, "bad_request", err.Error())
		return false
	}
	return true
}

// sendDomainError maps registry/relay sentinels onto named failure
// events surfaced only to the initiating connection.
func (ctl *StreamWSController) sendDomainError(c *wsConn, err error) {
	switch {
	case errors.Is(err, domain.ErrStreamExists), errors.Is(err, domain.ErrOwnStream):
		ctl.sendError(c, "conflict", err.Error())
	case errors.Is(err, domain.ErrStreamNotFound):
		ctl.sendError(c, "not_found", err.Error())
	case errors.Is(err, domain.ErrNotParticipant):
		ctl.sendError(c, "not_participant", err.Error())
	case errors.Is(err, domain.ErrNotStreamOwner):
		ctl.sendError(c, "forbidden", err.Error())
	default:
		ctl.sendError(c, "internal", "internal error")
	}
}

func (ctl *StreamWSController) sendError(c *wsConn, code, message string) {
	ctl.sendJSON(c, errorEvent{Type: "error", Code: code, Message: message})
}

func (ctl *StreamWSController) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(core.Frame(b))
}
