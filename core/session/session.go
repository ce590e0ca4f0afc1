package session

import (
	"errors"
	"maps"
	"slices"
	"time"
)

// Role 会话角色
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

const (
	// DefaultTTL 未指定 TTL 时的会话有效期
	DefaultTTL = 30 * time.Minute
	// AdminTTL 后台登录的会话有效期
	AdminTTL = 60 * time.Minute
)

var (
	// ErrSessionNotFound 会话不存在、已过期或角色不匹配，三者对调用方不可区分
	ErrSessionNotFound = errors.New("session: not found")
	// ErrInvalidRole 角色不是 customer 或 admin
	ErrInvalidRole = errors.New("session: invalid role")
)

// ParseRole 解析角色字符串
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleAdmin:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Session 会话记录。ExpiresAt 恒等于 LastSeenAt + TTL
type Session struct {
	Token       string
	Role        Role
	ReferenceID string
	DisplayName string
	Metadata    map[string]any
	CreatedAt   time.Time
	LastSeenAt  time.Time
	ExpiresAt   time.Time
	TTL         time.Duration
}

// Expired 到达 ExpiresAt 即视为过期
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone 返回快照，Metadata 递归拷贝
func (s *Session) Clone() *Session {
	c := *s
	c.Metadata = cloneMetadata(s.Metadata)
	return &c
}

// cloneMetadata 递归拷贝嵌套的 map 与 slice，nil 返回空 map
func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMetadata(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]string:
		return maps.Clone(t)
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}

// touch 以原 TTL 续期
func (s *Session) touch(now time.Time) {
	s.LastSeenAt = now
	s.ExpiresAt = now.Add(s.TTL)
}

// matches 空角色表示不限定角色
func (s *Session) matches(role Role) bool {
	return role == "" || s.Role == role
}

// CreateInput 创建会话的参数，TTL <= 0 使用存储默认值
type CreateInput struct {
	Role        Role
	ReferenceID string
	DisplayName string
	Metadata    map[string]any
	TTL         time.Duration
}

func (in CreateInput) build(token string, now time.Time, defaultTTL time.Duration) *Session {
	ttl := in.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	metadata := cloneMetadata(in.Metadata)
	return &Session{
		Token:       token,
		Role:        in.Role,
		ReferenceID: in.ReferenceID,
		DisplayName: in.DisplayName,
		Metadata:    metadata,
		CreatedAt:   now,
		LastSeenAt:  now,
		ExpiresAt:   now.Add(ttl),
		TTL:         ttl,
	}
}
