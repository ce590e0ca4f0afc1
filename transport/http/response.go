package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/yogaclub/errors"
	"github.com/kochabx/yogaclub/log"
)

// JSON 写入成功响应，body 原样输出
func JSON(c *gin.Context, status int, data any) {
	if c == nil {
		return
	}
	c.JSON(status, data)
}

// OK 写入 200 响应
func OK(c *gin.Context, data any) {
	JSON(c, http.StatusOK, data)
}

// Error 将错误写为 {"error": "<reason>"}，状态码取自 errors.Error。
// 未结构化的错误一律视为 500 internal-error，细节只进日志
func Error(c *gin.Context, err error) {
	if c == nil || err == nil {
		return
	}

	e := errors.FromError(err)
	if e.Code >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		// 5xx 不向客户端暴露内部 reason 以外的信息
		if e.Reason == "" {
			e = errors.New(e.Code, errors.UnknownReason)
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(e.Code, e.Status)
}
