package session

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperRunOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(WithClock(clock))
	ctx := context.Background()

	_, err := store.Create(ctx, CreateInput{Role: RoleCustomer, ReferenceID: "a", TTL: time.Minute})
	require.NoError(t, err)
	clock.Advance(time.Hour)

	sw := NewSweeper(store, "", nil)
	n, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSweeperLifecycle(t *testing.T) {
	sw := NewSweeper(NewMemoryStore(), "@every 1h", nil)

	errCh := make(chan error, 1)
	go func() { errCh <- sw.Run() }()

	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sw.Shutdown(ctx))
	require.NoError(t, sw.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeperInvalidSpec(t *testing.T) {
	sw := NewSweeper(NewMemoryStore(), "every now and then", nil)
	assert.Error(t, sw.Run())
}

func TestSweeperShutdownBeforeRun(t *testing.T) {
	sw := NewSweeper(NewMemoryStore(), "@every 1h", nil)
	require.NoError(t, sw.Shutdown(context.Background()))

	errCh := make(chan error, 1)
	go func() { errCh <- sw.Run() }()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper started after shutdown")
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()
	assert.False(t, sw.started)
}
