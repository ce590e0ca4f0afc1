package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const defaultShards = 32

type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// MemoryStore 进程内会话存储。按令牌哈希分片，每个分片一把锁，
// 同一令牌的读改写在分片锁内完成，不同分片互不阻塞
type MemoryStore struct {
	shards     []*shard
	clock      clockwork.Clock
	defaultTTL time.Duration
	newToken   func() string
}

// MemoryOption MemoryStore 选项
type MemoryOption func(*MemoryStore)

// WithClock 注入时钟
func WithClock(clock clockwork.Clock) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithShards 设置分片数
func WithShards(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// WithDefaultTTL 设置默认有效期
func WithDefaultTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// NewMemoryStore 创建进程内会话存储
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		shards:     make([]*shard, defaultShards),
		clock:      clockwork.NewRealClock(),
		defaultTTL: DefaultTTL,
		newToken:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*Session)}
	}
	return s
}

func (s *MemoryStore) shardFor(token string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *MemoryStore) Create(_ context.Context, in CreateInput) (*Session, error) {
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	for {
		token := s.newToken()
		sh := s.shardFor(token)

		sh.mu.Lock()
		if _, taken := sh.sessions[token]; taken {
			sh.mu.Unlock()
			continue
		}
		sess := in.build(token, s.clock.Now(), s.defaultTTL)
		sh.sessions[token] = sess
		sh.mu.Unlock()
		return sess.Clone(), nil
	}
}

// lookup 须持有分片锁
func (s *MemoryStore) lookup(sh *shard, token string, role Role, now time.Time) *Session {
	sess, ok := sh.sessions[token]
	if !ok {
		return nil
	}
	if sess.Expired(now) {
		delete(sh.sessions, token)
		return nil
	}
	if !sess.matches(role) {
		return nil
	}
	return sess
}

func (s *MemoryStore) Validate(_ context.Context, token string, role Role) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	sh := s.shardFor(token)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := s.lookup(sh, token, role, s.clock.Now())
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Touch(_ context.Context, token string, role Role) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	sh := s.shardFor(token)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.clock.Now()
	sess := s.lookup(sh, token, role, now)
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	sess.touch(now)
	return sess.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	sh := s.shardFor(token)
	sh.mu.Lock()
	delete(sh.sessions, token)
	sh.mu.Unlock()
	return nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n, nil
}

func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		now := s.clock.Now()
		sh.mu.Lock()
		for token, sess := range sh.sessions {
			if sess.Expired(now) {
				delete(sh.sessions, token)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}
