package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/yogaclub/core/session"
	khttp "github.com/kochabx/yogaclub/transport/http"
)

type sessionResponse struct {
	Session session.Serialized `json:"session"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// SessionStatus GET /api/auth/session?role=
//
//	@Summary	查询并续期会话
//	@Tags		auth
//	@Produce	json
//	@Param		role	query		string	true	"角色"	Enums(customer, admin)
//	@Success	200		{object}	sessionResponse
//	@Failure	400		{object}	errors.Status
//	@Failure	401		{object}	errors.Status
//	@Router		/api/auth/session [get]
func (h *Handler) SessionStatus(c *gin.Context) {
	role, err := session.ParseRole(c.Query("role"))
	if err != nil {
		khttp.Error(c, ErrMissingRole)
		return
	}
	h.status(role)(c)
}

// SessionLogout DELETE /api/auth/session?role=
//
//	@Summary	登出
//	@Tags		auth
//	@Produce	json
//	@Param		role	query		string	true	"角色"	Enums(customer, admin)
//	@Success	200		{object}	okResponse
//	@Failure	400		{object}	errors.Status
//	@Router		/api/auth/session [delete]
func (h *Handler) SessionLogout(c *gin.Context) {
	role, err := session.ParseRole(c.Query("role"))
	if err != nil {
		khttp.Error(c, ErrMissingRole)
		return
	}
	h.logout(role)(c)
}

// status 查询即续期
func (h *Handler) status(role session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := h.touch(c, role)
		if err != nil {
			khttp.Error(c, err)
			return
		}
		khttp.OK(c, sessionResponse{Session: session.SerializeWithToken(s)})
	}
}

// logout 总是返回 ok 并清除 Cookie
func (h *Handler) logout(role session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.sessions.Logout(c.Request.Context(), sessionToken(c, role)); err != nil {
			h.logger.Error().Err(err).Str("role", string(role)).Msg("logout failed")
		}
		h.clearSessionCookie(c, role)
		khttp.OK(c, okResponse{OK: true})
	}
}

// touch 以 Cookie 中的令牌续期，令牌缺失、失效或角色不符都返回 401
func (h *Handler) touch(c *gin.Context, role session.Role) (*session.Session, error) {
	token := sessionToken(c, role)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	s, err := h.sessions.Touch(c.Request.Context(), token, role)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return nil, ErrUnauthenticated
	case err != nil:
		return nil, ErrInternal.WithCause(err)
	}
	return s, nil
}

func (h *Handler) login(c *gin.Context, in session.CreateInput) {
	s, err := h.sessions.Login(c.Request.Context(), in)
	if err != nil {
		khttp.Error(c, ErrInternal.WithCause(err))
		return
	}
	h.setSessionCookie(c, s)
	khttp.JSON(c, http.StatusOK, sessionResponse{Session: session.SerializeWithToken(s)})
}
