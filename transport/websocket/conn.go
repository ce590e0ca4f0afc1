package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/kochabx/yogaclub/core/event"
	"github.com/kochabx/yogaclub/core/session"
)

// closeGrace 发出关闭帧后等待对端回应的时间
const closeGrace = time.Second

type conn struct {
	gw     *Gateway
	ws     *websocket.Conn
	token  string
	role   session.Role
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	heartbeats chan struct{}
	readDone   chan struct{}
	quit       chan struct{}
	quitOnce   sync.Once

	lastTouch time.Time
	closeSent bool
}

func newConn(g *Gateway, ws *websocket.Conn, token string, role session.Role) *conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &conn{
		gw:         g,
		ws:         ws,
		token:      token,
		role:       role,
		logger:     g.logger.With().Str("session", event.Fingerprint(token)).Str("role", string(role)).Logger(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeats: make(chan struct{}, 1),
		readDone:   make(chan struct{}),
		quit:       make(chan struct{}),
	}
}

// run 连接主循环，所有退出路径都经过同一个 teardown
func (c *conn) run() {
	cfg := c.gw.config
	ticker := c.gw.clock.NewTicker(cfg.PushInterval)
	pinger := c.gw.clock.NewTicker(cfg.PingInterval)
	c.gw.metrics.connected(1)
	c.logger.Debug().Msg("realtime connection opened")

	go c.readLoop()
	defer c.teardown(ticker, pinger)

	if !c.refresh() {
		return
	}

	for {
		select {
		case <-ticker.Chan():
			if !c.refresh() {
				return
			}
		case <-c.heartbeats:
			if c.gw.clock.Since(c.lastTouch) < cfg.HeartbeatMinInterval {
				continue
			}
			if !c.refresh() {
				return
			}
		case <-pinger.Chan():
			if err := c.ws.WriteControl(websocket.PingMessage, nil, c.gw.deadline()); err != nil {
				c.logger.Debug().Err(err).Msg("ping failed")
				return
			}
		case <-c.readDone:
			return
		case <-c.quit:
			c.close(websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// refresh 续期并推送。返回 false 表示会话已失效，连接应结束
func (c *conn) refresh() bool {
	ctx, cancel := context.WithTimeout(c.ctx, c.gw.config.TouchTimeout)
	defer cancel()

	s, err := c.gw.toucher.Touch(ctx, c.token, c.role)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.expire()
		return false
	case err != nil:
		c.logger.Warn().Err(err).Msg("session touch failed")
		return true
	}

	c.lastTouch = c.gw.clock.Now()
	c.send(updateFrame(s))
	return true
}

func (c *conn) expire() {
	c.send(expiredFrame())
	c.close(CloseSessionExpired, closeExpiredReason)
	c.logger.Info().Msg("realtime session expired")

	if c.gw.expirer != nil {
		c.gw.expirer.Expire(context.WithoutCancel(c.ctx), c.token, c.role)
	}
}

// send 写失败只记录，读端会发现失效的连接
func (c *conn) send(f Frame) {
	_ = c.ws.SetWriteDeadline(c.gw.deadline())
	if err := c.ws.WriteJSON(f); err != nil {
		c.logger.Debug().Err(err).Str("frame", f.Type).Msg("push failed")
		return
	}
	c.gw.metrics.frame(f.Type)
}

func (c *conn) close(code int, reason string) {
	if err := c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), c.gw.deadline()); err != nil {
		c.logger.Debug().Err(err).Msg("close frame failed")
		return
	}
	c.closeSent = true
}

func (c *conn) readLoop() {
	defer close(c.readDone)

	cfg := c.gw.config
	c.ws.SetReadLimit(cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived, CloseSessionExpired) {
				c.logger.Debug().Err(err).Msg("realtime read failed")
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))

		if typ != websocket.TextMessage || !isHeartbeat(data) {
			continue
		}
		select {
		case c.heartbeats <- struct{}{}:
		default:
		}
	}
}

func (c *conn) stop() {
	c.quitOnce.Do(func() { close(c.quit) })
}

func (c *conn) teardown(tickers ...clockwork.Ticker) {
	for _, t := range tickers {
		t.Stop()
	}
	c.cancel()

	if c.closeSent {
		select {
		case <-c.readDone:
		case <-time.After(closeGrace):
		}
	}
	_ = c.ws.Close()
	<-c.readDone

	c.gw.metrics.connected(-1)
	c.gw.remove(c)
	c.logger.Debug().Msg("realtime connection closed")
}
