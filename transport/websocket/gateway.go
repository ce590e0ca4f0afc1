package websocket

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/kochabx/yogaclub/core/session"
	"github.com/kochabx/yogaclub/log"
)

// Toucher 网关对会话存储的唯一依赖
type Toucher interface {
	Touch(ctx context.Context, token string, role session.Role) (*session.Session, error)
}

// Expirer 连接因会话过期被关闭后调用
type Expirer interface {
	Expire(ctx context.Context, token string, role session.Role)
}

// Gateway 实时会话网关。每个连接由一个 goroutine 负责全部写操作和定时器
type Gateway struct {
	toucher     Toucher
	expirer     Expirer
	config      Config
	clock       clockwork.Clock
	logger      *log.Logger
	checkOrigin func(r *http.Request) bool
	metrics     *gatewayMetrics
	upgrader    websocket.Upgrader

	mu      sync.Mutex
	conns   map[*conn]struct{}
	closing bool
	wg      sync.WaitGroup
}

// New 创建网关
func New(toucher Toucher, opts ...Option) *Gateway {
	g := &Gateway{
		toucher: toucher,
		config:  DefaultConfig(),
		clock:   clockwork.NewRealClock(),
		logger:  log.With("realtime"),
		conns:   make(map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.config = g.config.withDefaults()
	g.upgrader = websocket.Upgrader{
		HandshakeTimeout: g.config.WriteTimeout,
		ReadBufferSize:   g.config.ReadBufferSize,
		WriteBufferSize:  g.config.WriteBufferSize,
		CheckOrigin:      g.checkOrigin,
	}
	return g
}

// Handle gin 处理函数
func (g *Gateway) Handle(c *gin.Context) {
	g.ServeHTTP(c.Writer, c.Request)
}

// ServeHTTP 校验握手参数，升级后阻塞直到连接结束
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "Expected WebSocket", http.StatusUpgradeRequired)
		return
	}

	query := r.URL.Query()
	token := query.Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	var role session.Role
	if raw := query.Get("role"); raw != "" {
		parsed, err := session.ParseRole(raw)
		if err != nil {
			http.Error(w, "Invalid role", http.StatusBadRequest)
			return
		}
		role = parsed
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已写入错误响应
		g.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newConn(g, ws, token, role)
	if !g.add(c) {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), g.deadline())
		_ = ws.Close()
		return
	}
	c.run()
}

// Len 当前连接数
func (g *Gateway) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

// Shutdown 以 1001 关闭所有连接并等待其退出
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closing = true
	conns := slices.Collect(maps.Keys(g.conns))
	g.mu.Unlock()

	for _, c := range conns {
		c.stop()
	}

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) add(c *conn) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closing {
		return false
	}
	g.conns[c] = struct{}{}
	g.wg.Add(1)
	return true
}

func (g *Gateway) remove(c *conn) {
	g.mu.Lock()
	delete(g.conns, c)
	g.mu.Unlock()
	g.wg.Done()
}

func (g *Gateway) deadline() time.Time {
	return time.Now().Add(g.config.WriteTimeout)
}
