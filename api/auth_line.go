package api

import (
	"cmp"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/yogaclub/core/session"
	"github.com/kochabx/yogaclub/core/validator"
	"github.com/kochabx/yogaclub/member"
	khttp "github.com/kochabx/yogaclub/transport/http"
)

// lineLoginRequest 同时接受 snake_case 与 camelCase 字段
type lineLoginRequest struct {
	LineUserID  string `json:"line_user_id" validate:"required,max=64"`
	DisplayName string `json:"display_name" validate:"max=255"`
	PictureURL  string `json:"picture_url" validate:"max=1024"`
	Email       string `json:"email" validate:"max=255"`

	LineUserIDCamel  string `json:"lineUserId" validate:"-"`
	DisplayNameCamel string `json:"displayName" validate:"-"`
	PictureURLCamel  string `json:"pictureUrl" validate:"-"`
}

func (r *lineLoginRequest) normalize() {
	r.LineUserID = cmp.Or(r.LineUserID, r.LineUserIDCamel)
	r.DisplayName = cmp.Or(r.DisplayName, r.DisplayNameCamel)
	r.PictureURL = cmp.Or(r.PictureURL, r.PictureURLCamel)
}

// LineLogin POST /api/auth/line，以 LINE 资料换取顾客会话
//
//	@Summary	LINE 登录
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		lineLoginRequest	true	"LINE 资料"
//	@Success	200		{object}	sessionResponse
//	@Failure	400		{object}	errors.Status
//	@Failure	500		{object}	errors.Status
//	@Router		/api/auth/line [post]
func (h *Handler) LineLogin(c *gin.Context) {
	var req lineLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		khttp.Error(c, ErrInvalidBody)
		return
	}
	req.normalize()
	if err := validator.Validate.Struct(&req); err != nil {
		if validator.FirstField(err) == "line_user_id" {
			khttp.Error(c, ErrMissingLineUserID)
			return
		}
		khttp.Error(c, ErrInvalidBody.WithMessage("%s", err.Error()))
		return
	}

	m, err := h.members.FindOrCreateFromLineProfile(c.Request.Context(), member.LineProfile{
		LineUserID:  req.LineUserID,
		DisplayName: req.DisplayName,
		PictureURL:  req.PictureURL,
		Email:       req.Email,
	})
	if err != nil {
		khttp.Error(c, ErrInternal.WithCause(err))
		return
	}

	metadata := map[string]any{
		"memberId":   m.ID,
		"lineUserId": m.LineUserID,
	}
	if m.LinePictureURL != nil {
		metadata["pictureUrl"] = *m.LinePictureURL
	}
	if m.Email != nil {
		metadata["email"] = *m.Email
	}

	var displayName string
	if m.LineDisplayName != nil {
		displayName = *m.LineDisplayName
	}

	h.login(c, session.CreateInput{
		Role:        session.RoleCustomer,
		ReferenceID: m.ID,
		DisplayName: displayName,
		Metadata:    metadata,
	})
}
