package errors

import "net/http"

// Status-code shorthands. The reason is what ends up in the response body.

func BadRequest(reason string) *Error {
	return New(http.StatusBadRequest, reason)
}

func Unauthorized(reason string) *Error {
	return New(http.StatusUnauthorized, reason)
}

func Forbidden(reason string) *Error {
	return New(http.StatusForbidden, reason)
}

func NotFound(reason string) *Error {
	return New(http.StatusNotFound, reason)
}

func Conflict(reason string) *Error {
	return New(http.StatusConflict, reason)
}

func UpgradeRequired(reason string) *Error {
	return New(http.StatusUpgradeRequired, reason)
}

func TooManyRequests(reason string) *Error {
	return New(http.StatusTooManyRequests, reason)
}

func Internal(reason string) *Error {
	return New(http.StatusInternalServerError, reason)
}

func ServiceUnavailable(reason string) *Error {
	return New(http.StatusServiceUnavailable, reason)
}

// IsClientError reports whether err maps to a 4xx status.
func IsClientError(err error) bool {
	e := FromError(err)
	return e != nil && e.Code >= 400 && e.Code < 500
}
