package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/daktari-health/telecall/internal/call"
	"github.com/daktari-health/telecall/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, socketID string, ident domain.Identity, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("socket", socketID).Msg("readPump closing")
		ctl.Coord.Disconnect(socketID)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.ReadLimit)
	pongWait := ctl.PingPeriod + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("socket", socketID).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("socket", socketID).Msg("readPump read error")
				return
			}
			ctl.handleMessage(ctx, socketID, ident, c, data)
		}
	}
}

func (ctl *Controller) handleMessage(ctx context.Context, socketID string, ident domain.Identity, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case call.EventJoinRoom:
		var req call.JoinRequest
		if !ctl.decode(c, data, &req) {
			return
		}
		ctl.Coord.Join(ctx, c, socketID, ident, req)
	case call.EventStartCall:
		ctl.Coord.StartCall(ctx, c, socketID)
	case call.EventEndCall:
		ctl.Coord.EndCall(c, socketID)
	case call.EventOffer:
		var req call.OfferRequest
		if !ctl.decode(c, data, &req) {
			return
		}
		ctl.Coord.Offer(socketID, req)
	case call.EventAnswer:
		var req call.AnswerRequest
		if !ctl.decode(c, data, &req) {
			return
		}
		ctl.Coord.Answer(socketID, req)
	case call.EventICE:
		var req call.ICECandidateRequest
		if !ctl.decode(c, data, &req) {
			return
		}
		ctl.Coord.ICECandidate(socketID, req)
	case call.EventAudioStatus:
		var req call.AudioStatusRequest
		if !ctl.decode(c, data, &req) {
			return
		}
		ctl.Coord.AudioStatus(socketID, req)
	case call.EventVideoStatus:
		var req call.VideoStatusRequest
		if !ctl.decode(c, data, &req) {
			return
		}
		ctl.Coord.VideoStatus(socketID, req)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *Controller) decode(c *wsConn, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad payload")
		b, _ := json.Marshal(map[string]any{
			"type":    call.EventError,
			"code":    "bad_payload",
			"message": "malformed payload",
		})
		_ = c.TrySend(b)
		return false
	}
	return true
}
