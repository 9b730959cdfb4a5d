package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avezina/liveshop/internal/app"
	"github.com/avezina/liveshop/internal/config"
	"github.com/avezina/liveshop/internal/core"
	"github.com/avezina/liveshop/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// StreamWSController is the connection gateway: it accepts duplex
// client connections and dispatches inbound events to the
// orchestrator.
type StreamWSController struct {
	Orch     *app.Orchestrator
	cfg      *config.Config
	upgrader websocket.Upgrader
	validate *validator.Validate
}

func NewStreamWSController(cfg *config.Config, orch *app.Orchestrator) *StreamWSController {
	return &StreamWSController{
		Orch: orch,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: OriginChecker(cfg),
		},
		validate: validator.New(),
	}
}

type wsConn struct {
	id   domain.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) ID() domain.ConnID { return c.id }

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
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

// HandleStream upgrades the request and starts the read/write pumps.
// The client token cookie set by the HTTP layer becomes the
// connection identifier.
func (ctl *StreamWSController) HandleStream(ctx context.Context, c *gin.Context) {
	cid := domain.ConnID(c.GetString("client_token"))
	log.Info().Str("module", "adapters.ws").Str("conn", string(cid)).Msg("new WS connection")

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	conn := &wsConn{
		id:   cid,
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}
