package middleware

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type CorsConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           int
}

// Cors 会话依赖 Cookie，凭据模式下只回显白名单内的 Origin
func Cors(origins ...string) gin.HandlerFunc {
	return CorsWithConfig(CorsConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Internal-Secret", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           43200,
	})
}

func CorsWithConfig(config CorsConfig) gin.HandlerFunc {
	methods := strings.Join(config.AllowMethods, ",")
	headers := strings.Join(config.AllowHeaders, ",")
	maxAge := strconv.Itoa(config.MaxAge)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !allowedOrigin(config.AllowOrigins, origin) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		h.Set("Access-Control-Allow-Credentials", strconv.FormatBool(config.AllowCredentials))
		h.Set("Access-Control-Max-Age", maxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func allowedOrigin(allow []string, origin string) bool {
	return origin != "" && slices.Contains(allow, origin)
}

// CheckOrigin WebSocket 握手的 Origin 校验，与 Cors 共用白名单。
// 无 Origin 的非浏览器客户端和同源请求始终放行
func CheckOrigin(origins ...string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowedOrigin(origins, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
