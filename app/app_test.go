package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer Run 阻塞直到 Shutdown
type fakeServer struct {
	runErr   error
	stopped  chan struct{}
	once     sync.Once
	shutdown atomic.Bool
}

func newFakeServer(runErr error) *fakeServer {
	return &fakeServer{runErr: runErr, stopped: make(chan struct{})}
}

func (s *fakeServer) Run() error {
	if s.runErr != nil {
		return s.runErr
	}
	<-s.stopped
	return nil
}

func (s *fakeServer) Shutdown(context.Context) error {
	s.shutdown.Store(true)
	s.once.Do(func() { close(s.stopped) })
	return nil
}

func TestNew(t *testing.T) {
	app := New(
		WithServer(newFakeServer(nil)),
		WithServers(newFakeServer(nil), nil),
		WithServer(nil),
		WithClose("noop", func(context.Context) error { return nil }, 0),
		WithClose("nil", nil, 0),
		WithShutdownTimeout(0),
		WithCloseTimeout(0),
	)

	info := app.Info()
	assert.Equal(t, 2, info.ServerCount)
	assert.Equal(t, 1, info.CloseCount)
	assert.False(t, info.Started)
	assert.Equal(t, 30*time.Second, app.closeFuncs[0].Timeout)
}

func TestStartStop(t *testing.T) {
	a, b := newFakeServer(nil), newFakeServer(nil)

	var order []string
	var mu sync.Mutex
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	app := New(
		WithServers(a, b),
		WithClose("store", record("store"), time.Second),
		WithClose("gateway", record("gateway"), time.Second),
	)
	require.NoError(t, app.RegisterClose("sweeper", record("sweeper"), time.Second))

	go func() {
		time.Sleep(50 * time.Millisecond)
		app.Stop()
	}()
	require.NoError(t, app.Start())

	assert.True(t, a.shutdown.Load())
	assert.True(t, b.shutdown.Load())
	assert.Equal(t, []string{"sweeper", "gateway", "store"}, order)
	assert.ErrorIs(t, app.Start(), ErrAlreadyStarted)
}

func TestServerErrorStopsApplication(t *testing.T) {
	boom := errors.New("listen tcp :8080: bind: address already in use")
	healthy := newFakeServer(nil)

	closed := false
	app := New(
		WithServers(newFakeServer(boom), healthy),
		WithClose("flag", func(context.Context) error { closed = true; return nil }, time.Second),
	)

	done := make(chan error, 1)
	go func() { done <- app.Start() }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after server failure")
	}
	assert.True(t, healthy.shutdown.Load())
	assert.True(t, closed)
}

func TestWithContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app := New(WithContext(ctx), WithServer(newFakeServer(nil)))

	done := make(chan error, 1)
	go func() { done <- app.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start should return for a canceled context")
	}
}

func TestAddServer(t *testing.T) {
	app := New()
	assert.Error(t, app.AddServer(nil))
	require.NoError(t, app.AddServer(newFakeServer(nil)))
	assert.Equal(t, 1, app.Info().ServerCount)

	app.started = true
	assert.ErrorIs(t, app.AddServer(newFakeServer(nil)), ErrAlreadyStarted)
}

func TestRegisterCloseNil(t *testing.T) {
	assert.Error(t, New().RegisterClose("nil", nil, time.Second))
}

func TestCloseFuncPanic(t *testing.T) {
	app := New(WithClose("panic", func(context.Context) error { panic("boom") }, time.Second))
	assert.ErrorIs(t, app.runCloseTask(app.closeFuncs[0]), ErrClosePanic)
	app.runCloseTasks()
}

func TestCloseFuncTimeout(t *testing.T) {
	app := New(WithClose("slow", func(ctx context.Context) error {
		time.Sleep(2 * time.Second)
		return nil
	}, 100*time.Millisecond))

	start := time.Now()
	app.runCloseTasks()
	assert.Less(t, time.Since(start), time.Second)
}
