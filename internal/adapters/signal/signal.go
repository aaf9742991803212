// Package signal is the WebSocket transport adapter: one full-duplex
// connection per participant, pumped through buffered channels so a slow
// client never blocks a room broadcast.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/daktari-health/telecall/internal/call"
	"github.com/daktari-health/telecall/internal/config"
	"github.com/daktari-health/telecall/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Coord      *call.Coordinator
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(coord *call.Coordinator, cfg *config.Config) *Controller {
	pingPeriod := cfg.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	readLimit := cfg.ReadLimit
	if readLimit <= 0 {
		readLimit = 32768
	}
	return &Controller{
		Coord:      coord,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and starts the connection pumps. The
// socket id is minted here and identifies this connection everywhere:
// registry, presence events, relay targets.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context, ident domain.Identity) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	socketID := uuid.NewString()
	log.Info().Str("module", "signal").Str("socket", socketID).
		Str("user", ident.UserID).Msg("new WS connection")

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, socketID, ident, conn)
	}()
}
