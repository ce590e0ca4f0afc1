package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/yogaclub/transport/http/metrics"
)

// Metrics 记录请求数与耗时，route 取 gin 的路由模板，未匹配的路由记为 unmatched
func Metrics(m *metrics.HTTP, skipPaths ...string) gin.HandlerFunc {
	matcher := NewPathMatcher(skipPaths...)

	return func(c *gin.Context) {
		if shouldSkip(c, matcher, nil) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.Duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
