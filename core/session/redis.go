package session

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	kitredis "github.com/kochabx/yogaclub/store/redis"
)

var (
	//go:embed session.lua
	sessionLua       string
	sessionLuaScript = redis.NewScript(sessionLua)
)

const defaultKeyPrefix = "yogaclub:session:"

// RedisStore 基于 Redis 的共享会话存储，多进程部署时使用。
// 每个会话是一个 hash，键的过期时间等于剩余有效期；校验和续期由同一个 Lua 脚本原子完成
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	clock      clockwork.Clock
	defaultTTL time.Duration
}

// RedisOption RedisStore 选项
type RedisOption func(*RedisStore)

// WithRedisKeyPrefix 设置键前缀
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisClock 注入时钟
func WithRedisClock(clock clockwork.Clock) RedisOption {
	return func(s *RedisStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRedisDefaultTTL 设置默认有效期
func WithRedisDefaultTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// NewRedisStore 创建 Redis 会话存储，键前缀默认取客户端配置
func NewRedisStore(client *kitredis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:     client.UniversalClient(),
		prefix:     client.KeyPrefix() + "session:",
		clock:      clockwork.NewRealClock(),
		defaultTTL: DefaultTTL,
	}
	if client.KeyPrefix() == "" {
		s.prefix = defaultKeyPrefix
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// payload 会话中不随续期变化的部分
type payload struct {
	ReferenceID string         `json:"referenceId"`
	DisplayName string         `json:"displayName,omitempty"`
	Metadata    map[string]any `json:"metadata"`
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisStore) Create(ctx context.Context, in CreateInput) (*Session, error) {
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	sess := in.build(uuid.NewString(), s.clock.Now(), s.defaultTTL)
	data, err := json.Marshal(payload{
		ReferenceID: sess.ReferenceID,
		DisplayName: sess.DisplayName,
		Metadata:    sess.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	key := s.key(sess.Token)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"role", string(sess.Role),
			"data", data,
			"createdAt", sess.CreatedAt.UnixMilli(),
			"lastSeenAt", sess.LastSeenAt.UnixMilli(),
			"expiresAt", sess.ExpiresAt.UnixMilli(),
			"ttlMs", sess.TTL.Milliseconds(),
		)
		pipe.PExpire(ctx, key, sess.TTL)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess.Clone(), nil
}

func (s *RedisStore) Validate(ctx context.Context, token string, role Role) (*Session, error) {
	return s.run(ctx, token, role, false)
}

func (s *RedisStore) Touch(ctx context.Context, token string, role Role) (*Session, error) {
	return s.run(ctx, token, role, true)
}

func (s *RedisStore) run(ctx context.Context, token string, role Role, extend bool) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	flag := "0"
	if extend {
		flag = "1"
	}

	res, err := sessionLuaScript.Run(ctx, s.client, []string{s.key(token)},
		string(role), s.clock.Now().UnixMilli(), flag).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session script: %w", err)
	}
	return decode(token, res)
}

// decode 字段顺序与脚本中的 HMGET 一致
func decode(token string, v []string) (*Session, error) {
	if len(v) != 6 {
		return nil, fmt.Errorf("session script: unexpected reply length %d", len(v))
	}

	var p payload
	if err := json.Unmarshal([]byte(v[1]), &p); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	ms := make([]int64, 4)
	for i := range ms {
		n, err := strconv.ParseInt(v[i+2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse session field: %w", err)
		}
		ms[i] = n
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}

	return &Session{
		Token:       token,
		Role:        Role(v[0]),
		ReferenceID: p.ReferenceID,
		DisplayName: p.DisplayName,
		Metadata:    p.Metadata,
		CreatedAt:   time.UnixMilli(ms[0]),
		LastSeenAt:  time.UnixMilli(ms[1]),
		ExpiresAt:   time.UnixMilli(ms[2]),
		TTL:         time.Duration(ms[3]) * time.Millisecond,
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Len 通过 SCAN 统计键数量，集群模式遍历所有主节点
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	if cc, ok := s.client.(*redis.ClusterClient); ok {
		var (
			mu    sync.Mutex
			total int
		)
		err := cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			n, err := s.scanCount(ctx, node)
			if err != nil {
				return err
			}
			mu.Lock()
			total += n
			mu.Unlock()
			return nil
		})
		return total, err
	}
	return s.scanCount(ctx, s.client)
}

func (s *RedisStore) scanCount(ctx context.Context, c redis.Cmdable) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := c.Scan(ctx, cursor, s.prefix+"*", 200).Result()
		if err != nil {
			return 0, fmt.Errorf("scan sessions: %w", err)
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

// Sweep Redis 自行过期键，无需清理
func (s *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}
