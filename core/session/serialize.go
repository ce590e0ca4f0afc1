package session

import (
	"fmt"
	"maps"
	"time"
)

// isoMillis ISO-8601 UTC，毫秒精度
const isoMillis = "2006-01-02T15:04:05.000Z"

// Serialized 会话的传输形态
type Serialized struct {
	Token       string         `json:"token,omitempty"`
	Role        Role           `json:"role"`
	ReferenceID string         `json:"referenceId"`
	DisplayName *string        `json:"displayName"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   string         `json:"createdAt"`
	LastSeenAt  string         `json:"lastSeenAt"`
	ExpiresAt   string         `json:"expiresAt"`
}

// Serialize 投影为不含令牌的传输形态
func Serialize(s *Session) Serialized {
	out := Serialized{
		Role:        s.Role,
		ReferenceID: s.ReferenceID,
		Metadata:    s.Metadata,
		CreatedAt:   formatTime(s.CreatedAt),
		LastSeenAt:  formatTime(s.LastSeenAt),
		ExpiresAt:   formatTime(s.ExpiresAt),
	}
	if s.DisplayName != "" {
		name := s.DisplayName
		out.DisplayName = &name
	}
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	return out
}

// SerializeWithToken 包含令牌，仅用于登录和状态查询的响应
func SerializeWithToken(s *Session) Serialized {
	out := Serialize(s)
	out.Token = s.Token
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// Parse 从传输形态还原会话，TTL 由 expiresAt - lastSeenAt 推出
func Parse(in Serialized) (*Session, error) {
	role, err := ParseRole(string(in.Role))
	if err != nil {
		return nil, err
	}

	var times [3]time.Time
	for i, v := range []string{in.CreatedAt, in.LastSeenAt, in.ExpiresAt} {
		if times[i], err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("session: parse time %q: %w", v, err)
		}
	}

	s := &Session{
		Token:       in.Token,
		Role:        role,
		ReferenceID: in.ReferenceID,
		Metadata:    maps.Clone(in.Metadata),
		CreatedAt:   times[0],
		LastSeenAt:  times[1],
		ExpiresAt:   times[2],
		TTL:         times[2].Sub(times[1]),
	}
	if in.DisplayName != nil {
		s.DisplayName = *in.DisplayName
	}
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
	return s, nil
}
