package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	nethttp "github.com/kochabx/yogaclub/core/net/http"
	"github.com/kochabx/yogaclub/core/session"
)

// InternalSecretHeader 内部续期接口的共享密钥头
const InternalSecretHeader = "X-Internal-Secret"

var _ Toucher = (*HTTPToucher)(nil)

// HTTPToucher 通过内部续期接口访问另一进程中的会话存储
type HTTPToucher struct {
	client *nethttp.Client
	url    string
	secret string
}

// NewHTTPToucher 创建 HTTPToucher，secret 为空时不发送密钥头
func NewHTTPToucher(url, secret string, client *nethttp.Client) *HTTPToucher {
	if client == nil {
		client = nethttp.New()
	}
	return &HTTPToucher{client: client, url: url, secret: secret}
}

type touchRequest struct {
	Token string       `json:"token"`
	Role  session.Role `json:"role,omitempty"`
}

type touchResponse struct {
	Session session.Serialized `json:"session"`
}

// Touch 404 映射为 session.ErrSessionNotFound
func (t *HTTPToucher) Touch(ctx context.Context, token string, role session.Role) (*session.Session, error) {
	header := map[string]string{}
	if t.secret != "" {
		header[InternalSecretHeader] = t.secret
	}

	var out touchResponse
	_, err := t.client.Post(ctx, t.url, touchRequest{Token: token, Role: role},
		nethttp.WithHeader(header),
		nethttp.WithResponse(&out),
	)
	if err != nil {
		var se *nethttp.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("realtime: internal touch: %w", err)
	}

	s, err := session.Parse(out.Session)
	if err != nil {
		return nil, fmt.Errorf("realtime: internal touch: %w", err)
	}
	s.Token = token
	return s, nil
}
