package api

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/kochabx/yogaclub/core/session"
	"github.com/kochabx/yogaclub/core/validator"
	khttp "github.com/kochabx/yogaclub/transport/http"
)

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// AdminLogin POST /api/auth/admin
//
//	@Summary	后台登录
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		adminLoginRequest	true	"后台账号"
//	@Success	200		{object}	sessionResponse
//	@Failure	400		{object}	errors.Status
//	@Failure	401		{object}	errors.Status
//	@Router		/api/auth/admin [post]
func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		khttp.Error(c, ErrInvalidBody)
		return
	}
	if err := validator.Validate.Struct(&req); err != nil {
		khttp.Error(c, ErrInvalidBody.WithMessage("%s", err.Error()))
		return
	}

	st := h.Settings()
	if !checkAdmin(st, req.Email, req.Password) {
		h.logger.Warn().Str("email", req.Email).Msg("admin login rejected")
		khttp.Error(c, ErrInvalidCredentials)
		return
	}

	h.login(c, session.CreateInput{
		Role:        session.RoleAdmin,
		ReferenceID: st.AdminEmail,
		DisplayName: adminDisplayName,
		Metadata:    map[string]any{"email": req.Email},
	})
}

func checkAdmin(st Settings, email, password string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(st.AdminEmail)) == 1
	return checkPassword(st.AdminPassword, password) && emailOK
}

// checkPassword expected 为 bcrypt 哈希时按哈希比较，否则按明文常量时间比较
func checkPassword(expected, password string) bool {
	if isBcrypt(expected) {
		return bcrypt.CompareHashAndPassword([]byte(expected), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(password)) == 1
}

func isBcrypt(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
