package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/yogaclub/log"
)

// LoggerConfig 日志中间件配置
type LoggerConfig struct {
	Logger *log.Logger
	// SkipPaths 跳过记录的路径，语法见 PathMatcher
	SkipPaths []string
	// Skip 自定义跳过函数
	Skip func(c *gin.Context) bool
}

// Logger 创建请求日志中间件。只记录路径不记录查询串，查询串中可能带有令牌
func Logger(cfg LoggerConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}
	if cfg.SkipPaths == nil {
		cfg.SkipPaths = []string{"/health", "/metrics"}
	}
	matcher := NewPathMatcher(cfg.SkipPaths...)

	return func(c *gin.Context) {
		if shouldSkip(c, matcher, cfg.Skip) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := cfg.Logger.Info()
		if status >= 500 {
			event = cfg.Logger.Error()
		}
		event = event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if requestID := c.GetHeader("X-Request-Id"); requestID != "" {
			event = event.Str("request_id", requestID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}
		event.Msg("http request")
	}
}
