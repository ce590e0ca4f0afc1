package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/yogaclub/core/session"
)

const (
	CustomerCookie = "customer_session"
	AdminCookie    = "admin_session"
)

// CookieName 每个角色独立的 Cookie，两种会话可以在同一浏览器并存
func CookieName(role session.Role) string {
	if role == session.RoleAdmin {
		return AdminCookie
	}
	return CustomerCookie
}

func (h *Handler) secure(c *gin.Context) bool {
	if h.Settings().CookieSecure || c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}

func (h *Handler) setSessionCookie(c *gin.Context, s *session.Session) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName(s.Role),
		Value:    s.Token,
		Path:     "/",
		MaxAge:   maxAge(s.TTL),
		HttpOnly: true,
		Secure:   h.secure(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie MaxAge -1 输出 Max-Age=0
func (h *Handler) clearSessionCookie(c *gin.Context, role session.Role) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName(role),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// maxAge 向上取整到秒，不足一秒的 TTL 不会退化为浏览器会话 Cookie
func maxAge(ttl time.Duration) int {
	if ttl <= 0 {
		return -1
	}
	return int((ttl + time.Second - 1) / time.Second)
}

func sessionToken(c *gin.Context, role session.Role) string {
	token, err := c.Cookie(CookieName(role))
	if err != nil {
		return ""
	}
	return token
}
