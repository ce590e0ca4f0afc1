package session

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/yogaclub/core/event"
	"github.com/kochabx/yogaclub/log"
)

// Service 在 Store 之上提供按角色的默认有效期和生命周期事件
type Service struct {
	store       Store
	publisher   event.Publisher
	clock       clockwork.Clock
	logger      *log.Logger
	customerTTL time.Duration
	adminTTL    time.Duration
	touches     *prometheus.CounterVec
}

// ServiceOption Service 选项
type ServiceOption func(*Service)

// WithPublisher 设置事件发布器
func WithPublisher(p event.Publisher) ServiceOption {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithRoleTTL 设置角色默认有效期
func WithRoleTTL(role Role, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl <= 0 {
			return
		}
		switch role {
		case RoleCustomer:
			s.customerTTL = ttl
		case RoleAdmin:
			s.adminTTL = ttl
		}
	}
}

// WithServiceClock 设置事件时间戳使用的时钟
func WithServiceClock(clock clockwork.Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithServiceLogger 设置日志记录器
func WithServiceLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegisterer 注册续期计数和活跃会话数指标
func WithRegisterer(reg prometheus.Registerer) ServiceOption {
	return func(s *Service) {
		s.touches = registerCounter(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yogaclub_session_touches_total",
			Help: "Session touches by result.",
		}, []string{"result"}))

		active := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "yogaclub_sessions_active",
			Help: "Session records currently held by the store.",
		}, s.activeSessions)
		if err := reg.Register(active); err != nil {
			s.logger.Debug().Err(err).Msg("sessions gauge not registered")
		}
	}
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

// NewService 创建会话服务
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:       store,
		publisher:   event.Nop{},
		clock:       clockwork.NewRealClock(),
		logger:      log.G,
		customerTTL: DefaultTTL,
		adminTTL:    AdminTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store 返回底层存储
func (s *Service) Store() Store {
	return s.store
}

// TTLFor 返回角色的默认有效期
func (s *Service) TTLFor(role Role) time.Duration {
	if role == RoleAdmin {
		return s.adminTTL
	}
	return s.customerTTL
}

// Login 创建会话，未指定 TTL 时按角色取默认值
func (s *Service) Login(ctx context.Context, in CreateInput) (*Session, error) {
	if in.TTL <= 0 {
		in.TTL = s.TTLFor(in.Role)
	}
	sess, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.TypeSessionCreated, sess.Token, sess.Role, sess.ReferenceID)
	return sess, nil
}

func (s *Service) Validate(ctx context.Context, token string, role Role) (*Session, error) {
	return s.store.Validate(ctx, token, role)
}

// Touch 续期并记录结果指标
func (s *Service) Touch(ctx context.Context, token string, role Role) (*Session, error) {
	sess, err := s.store.Touch(ctx, token, role)
	if s.touches != nil {
		result := "ok"
		switch {
		case errors.Is(err, ErrSessionNotFound):
			result = "not_found"
		case err != nil:
			result = "error"
		}
		s.touches.WithLabelValues(result).Inc()
	}
	return sess, err
}

// Logout 删除会话，重复调用无副作用
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	var (
		role Role
		ref  string
	)
	if sess, err := s.store.Validate(ctx, token, ""); err == nil {
		role, ref = sess.Role, sess.ReferenceID
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return err
	}
	if role != "" {
		s.publish(ctx, event.TypeSessionDeleted, token, role, ref)
	}
	return nil
}

// Expire 发布过期事件，不修改存储
func (s *Service) Expire(ctx context.Context, token string, role Role) {
	s.publish(ctx, event.TypeSessionExpired, token, role, "")
}

func (s *Service) publish(ctx context.Context, typ event.Type, token string, role Role, ref string) {
	e := event.Event{
		Type:        typ,
		TokenHash:   event.Fingerprint(token),
		Role:        string(role),
		ReferenceID: ref,
		At:          s.clock.Now().UTC(),
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn().Err(err).Str("event", string(typ)).Str("token_hash", e.TokenHash).Msg("publish session event failed")
	}
}

func (s *Service) activeSessions() float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := s.store.Len(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("count sessions failed")
		return 0
	}
	return float64(n)
}
