package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := Unauthorized("unauthenticated")
	assert.Equal(t, http.StatusUnauthorized, err.GetCode())
	assert.Equal(t, "unauthenticated", err.GetReason())
	assert.Equal(t, "code=401, reason=unauthenticated", err.Error())
}

func TestWithMessageAndMetadata(t *testing.T) {
	base := BadRequest("missing-role")

	err := base.WithMessage("role %q is not supported", "guest")
	assert.NotSame(t, base, err)
	assert.Empty(t, base.Message)
	assert.Equal(t, `role "guest" is not supported`, err.Message)

	same := err.WithMetadata(nil)
	assert.Same(t, err, same)

	withMeta := err.WithMetadata(map[string]string{"param": "role"})
	assert.Equal(t, "role", withMeta.Metadata["param"])
	assert.Nil(t, err.Metadata)
	assert.Contains(t, withMeta.Error(), "metadata={param=role}")
}

func TestIsComparesCodeAndReason(t *testing.T) {
	a := Unauthorized("unauthenticated")
	b := Unauthorized("unauthenticated").WithMessage("cookie missing")
	c := Unauthorized("invalid-credentials")

	assert.True(t, errors.Is(b, a))
	assert.False(t, errors.Is(c, a))

	wrapped := fmt.Errorf("handler: %w", b)
	assert.True(t, Is(wrapped, a))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	std := errors.New("redis: connection refused")
	e := FromError(std)
	require.NotNil(t, e)
	assert.Equal(t, UnknownCode, e.Code)
	assert.Equal(t, UnknownReason, e.Reason)
	assert.Same(t, std, e.GetCause())

	existing := NotFound("session-not-found")
	assert.Same(t, existing, FromError(existing))
	assert.Same(t, existing, FromError(fmt.Errorf("touch: %w", existing)))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, 500, "x"))

	cause := errors.New("timeout")
	err := Wrap(cause, http.StatusServiceUnavailable, "store-unavailable")
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "cause=timeout")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(BadRequest("missing-token")))
	assert.False(t, IsClientError(Internal("boom")))
	assert.False(t, IsClientError(errors.New("plain")))
}
