package api

import (
	"crypto/subtle"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/yogaclub/core/session"
	khttp "github.com/kochabx/yogaclub/transport/http"
	"github.com/kochabx/yogaclub/transport/websocket"
)

type internalTouchRequest struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// InternalTouch POST /api/realtime/internal/touch，供无法直接访问存储的网关进程调用
//
//	@Summary	网关续期
//	@Tags		realtime
//	@Accept		json
//	@Produce	json
//	@Param		X-Internal-Secret	header		string					false	"内部密钥"
//	@Param		body				body		internalTouchRequest	true	"令牌与角色"
//	@Success	200					{object}	sessionResponse
//	@Failure	400					{object}	errors.Status
//	@Failure	403					{object}	errors.Status
//	@Failure	404					{object}	errors.Status
//	@Router		/api/realtime/internal/touch [post]
func (h *Handler) InternalTouch(c *gin.Context) {
	if secret := h.Settings().InternalSecret; secret != "" {
		got := c.GetHeader(websocket.InternalSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			khttp.Error(c, ErrForbidden)
			return
		}
	}

	var req internalTouchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		khttp.Error(c, ErrMissingToken)
		return
	}

	// 未知角色按不限定角色处理
	role, _ := session.ParseRole(req.Role)

	s, err := h.sessions.Touch(c.Request.Context(), req.Token, role)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		khttp.Error(c, ErrSessionNotFound)
		return
	case err != nil:
		khttp.Error(c, ErrInternal.WithCause(err))
		return
	}
	khttp.OK(c, sessionResponse{Session: session.Serialize(s)})
}
