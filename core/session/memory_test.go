package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeStore(t *testing.T) (*MemoryStore, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return NewMemoryStore(WithClock(clock), WithShards(4)), clock
}

func customer(ttl time.Duration) CreateInput {
	return CreateInput{
		Role:        RoleCustomer,
		ReferenceID: "member-1",
		DisplayName: "Nok",
		Metadata:    map[string]any{"lineUserId": "U123"},
		TTL:         ttl,
	}
}

func TestCreate(t *testing.T) {
	store, clock := newFakeStore(t)
	ctx := context.Background()

	s, err := store.Create(ctx, customer(0))
	require.NoError(t, err)
	assert.Len(t, s.Token, 36)
	assert.Equal(t, DefaultTTL, s.TTL)
	assert.Equal(t, clock.Now(), s.CreatedAt)
	assert.Equal(t, s.CreatedAt, s.LastSeenAt)
	assert.Equal(t, s.LastSeenAt.Add(s.TTL), s.ExpiresAt)

	other, err := store.Create(ctx, customer(0))
	require.NoError(t, err)
	assert.NotEqual(t, s.Token, other.Token)

	_, err = store.Create(ctx, CreateInput{Role: "staff"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	store, _ := newFakeStore(t)
	ctx := context.Background()

	in := customer(0)
	in.Metadata["profile"] = map[string]any{"tier": "gold", "tags": []any{"vinyasa"}}
	s, err := store.Create(ctx, in)
	require.NoError(t, err)

	in.Metadata["lineUserId"] = "changed"
	in.Metadata["profile"].(map[string]any)["tier"] = "input"
	s.Metadata["lineUserId"] = "changed"
	s.ExpiresAt = time.Time{}

	profile := s.Metadata["profile"].(map[string]any)
	profile["tier"] = "snapshot"
	profile["tags"].([]any)[0] = "hatha"

	got, err := store.Validate(ctx, s.Token, "")
	require.NoError(t, err)
	assert.Equal(t, "U123", got.Metadata["lineUserId"])
	assert.False(t, got.ExpiresAt.IsZero())
	assert.Equal(t, map[string]any{"tier": "gold", "tags": []any{"vinyasa"}}, got.Metadata["profile"])

	// 每次返回的快照互不共享
	got.Metadata["profile"].(map[string]any)["tier"] = "again"
	again, err := store.Touch(ctx, s.Token, "")
	require.NoError(t, err)
	assert.Equal(t, "gold", again.Metadata["profile"].(map[string]any)["tier"])
}

func TestValidateUnknownAndEmpty(t *testing.T) {
	store, _ := newFakeStore(t)
	ctx := context.Background()

	_, err := store.Validate(ctx, "", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Validate(ctx, "never-issued", RoleCustomer)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Touch(ctx, "never-issued", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRoleMismatchLooksMissing(t *testing.T) {
	store, _ := newFakeStore(t)
	ctx := context.Background()

	s, err := store.Create(ctx, customer(0))
	require.NoError(t, err)

	_, err = store.Validate(ctx, s.Token, RoleAdmin)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Touch(ctx, s.Token, RoleAdmin)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err := store.Validate(ctx, s.Token, RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, s.ExpiresAt, got.ExpiresAt)
}

func TestExpiryBoundary(t *testing.T) {
	store, clock := newFakeStore(t)
	ctx := context.Background()

	ttl := time.Minute
	s, err := store.Create(ctx, customer(ttl))
	require.NoError(t, err)

	clock.Advance(ttl - time.Millisecond)
	_, err = store.Validate(ctx, s.Token, RoleCustomer)
	require.NoError(t, err)

	clock.Advance(2 * time.Millisecond)
	_, err = store.Validate(ctx, s.Token, RoleCustomer)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	n, _ := store.Len(ctx)
	assert.Zero(t, n, "expired record is evicted on access")
}

func TestExpiredAtExactBoundary(t *testing.T) {
	store, clock := newFakeStore(t)
	ctx := context.Background()

	s, err := store.Create(ctx, customer(time.Minute))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = store.Touch(ctx, s.Token, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTouchExtendsWithOriginalTTL(t *testing.T) {
	store, clock := newFakeStore(t)
	ctx := context.Background()

	s, err := store.Create(ctx, customer(10*time.Minute))
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	touched, err := store.Touch(ctx, s.Token, RoleCustomer)
	require.NoError(t, err)

	assert.Equal(t, clock.Now(), touched.LastSeenAt)
	assert.Equal(t, clock.Now().Add(10*time.Minute), touched.ExpiresAt)
	assert.True(t, touched.ExpiresAt.After(s.ExpiresAt))
	assert.Equal(t, s.CreatedAt, touched.CreatedAt)
	assert.Equal(t, s.Token, touched.Token)
	assert.Equal(t, s.ReferenceID, touched.ReferenceID)

	// a touched session survives past its original expiry
	clock.Advance(8 * time.Minute)
	_, err = store.Validate(ctx, s.Token, RoleCustomer)
	assert.NoError(t, err)
}

func TestDeleteIdempotent(t *testing.T) {
	store, _ := newFakeStore(t)
	ctx := context.Background()

	s, err := store.Create(ctx, customer(0))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, s.Token))
	require.NoError(t, store.Delete(ctx, s.Token))
	require.NoError(t, store.Delete(ctx, ""))

	_, err = store.Validate(ctx, s.Token, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSweep(t *testing.T) {
	store, clock := newFakeStore(t)
	ctx := context.Background()

	for range 5 {
		_, err := store.Create(ctx, customer(time.Minute))
		require.NoError(t, err)
	}
	keep, err := store.Create(ctx, customer(time.Hour))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	n, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	total, _ := store.Len(ctx)
	assert.Equal(t, 1, total)
	_, err = store.Validate(ctx, keep.Token, "")
	assert.NoError(t, err)
}

func TestConcurrentTouchNoLostUpdate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s, err := store.Create(ctx, customer(time.Minute))
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		latest time.Time
	)
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Touch(ctx, s.Token, RoleCustomer)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, got.LastSeenAt.Add(time.Minute), got.ExpiresAt)
			mu.Lock()
			if got.ExpiresAt.After(latest) {
				latest = got.ExpiresAt
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	final, err := store.Validate(ctx, s.Token, "")
	require.NoError(t, err)
	assert.Equal(t, latest, final.ExpiresAt)
}

func TestUnrelatedTokensInParallel(t *testing.T) {
	store := NewMemoryStore(WithShards(8))
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := store.Create(ctx, customer(0))
			if !assert.NoError(t, err) {
				return
			}
			for range 50 {
				_, err := store.Touch(ctx, s.Token, RoleCustomer)
				assert.NoError(t, err)
			}
			assert.NoError(t, store.Delete(ctx, s.Token))
		}()
	}
	wg.Wait()

	n, _ := store.Len(ctx)
	assert.Zero(t, n)
}
