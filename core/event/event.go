package event

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Type 事件类型
type Type string

const (
	TypeSessionCreated Type = "session.created"
	TypeSessionDeleted Type = "session.deleted"
	TypeSessionExpired Type = "session.expired"
)

// Event 会话生命周期事件，只携带令牌指纹
type Event struct {
	Type        Type      `json:"type"`
	TokenHash   string    `json:"token_hash"`
	Role        string    `json:"role,omitempty"`
	ReferenceID string    `json:"reference_id,omitempty"`
	At          time.Time `json:"at"`
}

// Fingerprint 返回令牌 SHA-256 的前 12 位十六进制
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
