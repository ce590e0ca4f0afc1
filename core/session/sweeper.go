package session

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kochabx/yogaclub/log"
)

// DefaultSweepSpec 默认清理周期
const DefaultSweepSpec = "@every 5m"

// Sweeper 按 cron 表达式定期清除过期会话，实现 transport.Server 以接入应用生命周期
type Sweeper struct {
	store   Store
	spec    string
	timeout time.Duration
	logger  *log.Logger
	cron    *cron.Cron
	done    chan struct{}

	// mu 保证 Shutdown 之后不会再启动 cron
	mu      sync.Mutex
	started bool
	stopped bool
}

// NewSweeper 创建清理器，spec 为空时使用 DefaultSweepSpec
func NewSweeper(store Store, spec string, logger *log.Logger) *Sweeper {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if logger == nil {
		logger = log.G
	}
	cl := cronLogger{logger}
	return &Sweeper{
		store:   store,
		spec:    spec,
		timeout: time.Minute,
		logger:  logger,
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		done:    make(chan struct{}),
	}
}

// RunOnce 执行一次清理
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.store.Sweep(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Int("removed", n).Msg("session sweep failed")
		return n, err
	}
	if n > 0 {
		s.logger.Info().Int("removed", n).Msg("expired sessions swept")
	}
	return n, nil
}

// Run 启动调度并阻塞到 Shutdown
func (s *Sweeper) Run() error {
	if _, err := s.cron.AddFunc(s.spec, func() { _, _ = s.RunOnce(context.Background()) }); err != nil {
		return err
	}

	s.mu.Lock()
	if s.stopped || s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.cron.Start()
	s.mu.Unlock()

	s.logger.Info().Str("spec", s.spec).Msg("session sweeper started")
	<-s.done
	return nil
}

// Shutdown 停止调度并等待正在执行的清理结束，可在 Run 之前调用
func (s *Sweeper) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.done)
	started := s.started
	s.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 适配 cron.Logger
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
