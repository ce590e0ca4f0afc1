package api

import "github.com/kochabx/yogaclub/errors"

// 响应体 {"error": "<reason>"} 中的 reason 即客户端可判断的错误码
var (
	ErrUnauthenticated    = errors.Unauthorized("unauthenticated")
	ErrInvalidCredentials = errors.Unauthorized("invalid-credentials")
	ErrInvalidBody        = errors.BadRequest("invalid-body")
	ErrMissingRole        = errors.BadRequest("missing-role")
	ErrMissingToken       = errors.BadRequest("missing-token")
	ErrMissingLineUserID  = errors.BadRequest("missing-line-user-id")
	ErrForbidden          = errors.Forbidden("forbidden")
	ErrSessionNotFound    = errors.NotFound("session-not-found")
	ErrMemberNotFound     = errors.NotFound("member-not-found")
	ErrInternal           = errors.Internal(errors.UnknownReason)
)
