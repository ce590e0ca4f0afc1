package api

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/yogaclub/core/session"
	"github.com/kochabx/yogaclub/log"
	"github.com/kochabx/yogaclub/member"
	"github.com/kochabx/yogaclub/transport/websocket"
)

const (
	DefaultAdminEmail    = "admin@yogaclub.com"
	DefaultAdminPassword = "supersecret"

	adminDisplayName = "Backoffice Admin"
)

// Handler 会话相关的 HTTP 接口
type Handler struct {
	sessions *session.Service
	members  member.Repository
	gateway  *websocket.Gateway
	logger   *log.Logger

	initial  Settings
	settings atomic.Pointer[Settings]
}

// Settings 运行期可热更新的配置
type Settings struct {
	AdminEmail     string
	AdminPassword  string
	CookieSecure   bool
	InternalSecret string
}

func (s Settings) withDefaults() Settings {
	if s.AdminEmail == "" {
		s.AdminEmail = DefaultAdminEmail
	}
	if s.AdminPassword == "" {
		s.AdminPassword = DefaultAdminPassword
	}
	return s
}

type Option func(*Handler)

// WithGateway 注册 /api/realtime/session
func WithGateway(gw *websocket.Gateway) Option {
	return func(h *Handler) {
		h.gateway = gw
	}
}

// WithAdminCredentials 后台账号，password 可以是 bcrypt 哈希
func WithAdminCredentials(email, password string) Option {
	return func(h *Handler) {
		h.initial.AdminEmail = email
		h.initial.AdminPassword = password
	}
}

// WithCookieSecure 强制 Secure Cookie
func WithCookieSecure(secure bool) Option {
	return func(h *Handler) {
		h.initial.CookieSecure = secure
	}
}

// WithInternalSecret 内部续期接口的共享密钥，为空时不校验
func WithInternalSecret(secret string) Option {
	return func(h *Handler) {
		h.initial.InternalSecret = secret
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New 创建 Handler
func New(sessions *session.Service, members member.Repository, opts ...Option) *Handler {
	h := &Handler{
		sessions: sessions,
		members:  members,
		logger:   log.With("api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.Reload(h.initial)
	return h
}

// Reload 原子替换运行期配置，空的后台账号回退到默认值
func (h *Handler) Reload(s Settings) {
	s = s.withDefaults()
	h.settings.Store(&s)
}

// Settings 当前生效的配置
func (h *Handler) Settings() Settings {
	return *h.settings.Load()
}

// Register 注册路由
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api")

	auth := g.Group("/auth")
	auth.POST("/line", h.LineLogin)
	auth.POST("/admin", h.AdminLogin)
	auth.GET("/admin", h.status(session.RoleAdmin))
	auth.DELETE("/admin", h.logout(session.RoleAdmin))
	auth.GET("/session", h.SessionStatus)
	auth.DELETE("/session", h.SessionLogout)

	realtime := g.Group("/realtime")
	realtime.POST("/internal/touch", h.InternalTouch)
	if h.gateway != nil {
		realtime.GET("/session", h.gateway.Handle)
	}

	g.GET("/me", h.Me)
}
