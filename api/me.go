package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/yogaclub/core/session"
	"github.com/kochabx/yogaclub/member"
	khttp "github.com/kochabx/yogaclub/transport/http"
)

// Me GET /api/me，返回当前顾客会话对应的会员
//
//	@Summary	当前会员
//	@Tags		member
//	@Produce	json
//	@Success	200	{object}	member.Member
//	@Failure	401	{object}	errors.Status
//	@Failure	404	{object}	errors.Status
//	@Router		/api/me [get]
func (h *Handler) Me(c *gin.Context) {
	s, err := h.touch(c, session.RoleCustomer)
	if err != nil {
		khttp.Error(c, err)
		return
	}

	id, _ := s.Metadata["memberId"].(string)
	if id == "" {
		khttp.Error(c, ErrMemberNotFound)
		return
	}

	m, err := h.members.FindByID(c.Request.Context(), id)
	switch {
	case errors.Is(err, member.ErrMemberNotFound):
		khttp.Error(c, ErrMemberNotFound)
		return
	case err != nil:
		khttp.Error(c, ErrInternal.WithCause(err))
		return
	}
	khttp.OK(c, m)
}
