package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/yogaclub/core/session"
	"github.com/kochabx/yogaclub/transport/http/middleware"
)

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	gw     *Gateway
	store  *session.MemoryStore
	clock  *clockwork.FakeClock
	server *httptest.Server
}

func newFixture(t *testing.T, toucher Toucher, opts ...Option) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(start)
	store := session.NewMemoryStore(session.WithClock(clock))
	if toucher == nil {
		toucher = store
	}

	cfg := DefaultConfig()
	cfg.PingInterval = time.Hour
	cfg.PongWait = 2 * time.Hour
	gw := New(toucher, append([]Option{WithConfig(cfg), WithClock(clock)}, opts...)...)

	server := httptest.NewServer(gw)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = gw.Shutdown(ctx)
		server.Close()
	})
	return &fixture{gw: gw, store: store, clock: clock, server: server}
}

func (f *fixture) login(t *testing.T, ttl time.Duration) *session.Session {
	t.Helper()
	s, err := f.store.Create(context.Background(), session.CreateInput{
		Role:        session.RoleCustomer,
		ReferenceID: "member-1",
		DisplayName: "Nok",
		TTL:         ttl,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) wsURL(token string, role session.Role) string {
	q := url.Values{"token": {token}}
	if role != "" {
		q.Set("role", string(role))
	}
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/realtime/session?" + q.Encode()
}

func (f *fixture) dial(t *testing.T, token string, role session.Role) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(f.wsURL(token, role), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func iso(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func TestHandshakeErrors(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := http.Get(f.server.URL + "/api/realtime/session?token=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	upgrade := func(query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/realtime/session"+query, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		rec := httptest.NewRecorder()
		f.gw.ServeHTTP(rec, req)
		return rec
	}

	rec := upgrade("")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing token", strings.TrimSpace(rec.Body.String()))

	rec = upgrade("?token=abc&role=staff")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid role", strings.TrimSpace(rec.Body.String()))
}

func TestCheckOrigin(t *testing.T) {
	f := newFixture(t, nil, WithCheckOrigin(middleware.CheckOrigin("http://localhost:3000")))
	s := f.login(t, 0)

	ws, _, err := websocket.DefaultDialer.Dial(f.wsURL(s.Token, session.RoleCustomer),
		http.Header{"Origin": {"http://localhost:3000"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	assert.Equal(t, FrameSessionUpdate, readFrame(t, ws).Type)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(s.Token, session.RoleCustomer),
		http.Header{"Origin": {"https://evil.example"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFirstFrameIsUpdate(t *testing.T) {
	f := newFixture(t, nil)
	s := f.login(t, 0)

	ws := f.dial(t, s.Token, session.RoleCustomer)
	frame := readFrame(t, ws)

	assert.Equal(t, FrameSessionUpdate, frame.Type)
	require.NotNil(t, frame.Session)
	assert.Equal(t, "member-1", frame.Session.ReferenceID)
	assert.Equal(t, session.RoleCustomer, frame.Session.Role)
	assert.Empty(t, frame.Session.Token)
}

func TestPeriodicPush(t *testing.T) {
	f := newFixture(t, nil)
	s := f.login(t, 0)

	ws := f.dial(t, s.Token, "")
	readFrame(t, ws)

	f.clock.BlockUntil(2)
	f.clock.Advance(15 * time.Second)

	frame := readFrame(t, ws)
	assert.Equal(t, FrameSessionUpdate, frame.Type)
	assert.Equal(t, iso(start.Add(15*time.Second)), frame.Session.LastSeenAt)
	assert.Equal(t, iso(start.Add(15*time.Second+session.DefaultTTL)), frame.Session.ExpiresAt)
}

func TestHeartbeatTouches(t *testing.T) {
	f := newFixture(t, nil)
	s := f.login(t, 0)

	ws := f.dial(t, s.Token, session.RoleCustomer)
	readFrame(t, ws)

	// 默认不合并，紧随首帧的心跳同样得到回复
	require.NoError(t, ws.WriteJSON(map[string]string{"type": FrameHeartbeat}))
	frame := readFrame(t, ws)
	assert.Equal(t, FrameSessionUpdate, frame.Type)
	assert.Equal(t, iso(start), frame.Session.LastSeenAt)

	f.clock.Advance(2 * time.Second)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`)))
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))
	require.NoError(t, ws.WriteJSON(map[string]string{"type": FrameHeartbeat}))

	frame = readFrame(t, ws)
	assert.Equal(t, FrameSessionUpdate, frame.Type)
	assert.Equal(t, iso(start.Add(2*time.Second)), frame.Session.LastSeenAt)
}

func TestHeartbeatCoalescing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatMinInterval = time.Second
	cfg.PingInterval = time.Hour
	cfg.PongWait = 2 * time.Hour
	f := newFixture(t, nil, WithConfig(cfg))
	s := f.login(t, 0)

	ws := f.dial(t, s.Token, session.RoleCustomer)
	readFrame(t, ws)

	// 距上次续期不足 1 秒的心跳被合并
	require.NoError(t, ws.WriteJSON(map[string]string{"type": FrameHeartbeat}))
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := ws.ReadMessage()
	var ne interface{ Timeout() bool }
	require.True(t, errors.As(err, &ne))
	assert.True(t, ne.Timeout())
}

type recordingExpirer struct {
	ch chan string
}

func (e *recordingExpirer) Expire(_ context.Context, token string, _ session.Role) {
	e.ch <- token
}

func assertExpiredClose(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	frame := readFrame(t, ws)
	assert.Equal(t, FrameSessionExpired, frame.Type)
	assert.Nil(t, frame.Session)

	_, _, err := ws.ReadMessage()
	var ce *websocket.CloseError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, CloseSessionExpired, ce.Code)
	assert.Equal(t, "Session expired", ce.Text)
}

func TestExpiryClosesConnection(t *testing.T) {
	expirer := &recordingExpirer{ch: make(chan string, 1)}
	f := newFixture(t, nil, WithExpirer(expirer))
	s := f.login(t, 10*time.Second)

	ws := f.dial(t, s.Token, session.RoleCustomer)
	readFrame(t, ws)

	f.clock.BlockUntil(2)
	f.clock.Advance(15 * time.Second)
	assertExpiredClose(t, ws)

	select {
	case token := <-expirer.ch:
		assert.Equal(t, s.Token, token)
	case <-time.After(5 * time.Second):
		t.Fatal("expirer not called")
	}
	assert.Eventually(t, func() bool { return f.gw.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestUnknownTokenExpiresImmediately(t *testing.T) {
	f := newFixture(t, nil)
	ws := f.dial(t, "does-not-exist", "")
	assertExpiredClose(t, ws)
}

func TestRoleMismatchExpires(t *testing.T) {
	f := newFixture(t, nil)
	s := f.login(t, 0)
	ws := f.dial(t, s.Token, session.RoleAdmin)
	assertExpiredClose(t, ws)
}

func TestLogoutExpiresOnNextTick(t *testing.T) {
	f := newFixture(t, nil)
	s := f.login(t, 0)

	ws := f.dial(t, s.Token, session.RoleCustomer)
	readFrame(t, ws)

	require.NoError(t, f.store.Delete(context.Background(), s.Token))
	f.clock.BlockUntil(2)
	f.clock.Advance(15 * time.Second)
	assertExpiredClose(t, ws)
}

func TestConnectionsAreIndependent(t *testing.T) {
	f := newFixture(t, nil)
	s := f.login(t, 0)

	a := f.dial(t, s.Token, session.RoleCustomer)
	b := f.dial(t, s.Token, session.RoleCustomer)
	readFrame(t, a)
	readFrame(t, b)
	require.Eventually(t, func() bool { return f.gw.Len() == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return f.gw.Len() == 1 }, 5*time.Second, 10*time.Millisecond)

	// 剩余连接的两个定时器仍在
	f.clock.BlockUntil(2)
	f.clock.Advance(15 * time.Second)
	frame := readFrame(t, b)
	assert.Equal(t, FrameSessionUpdate, frame.Type)
}

type flakyToucher struct {
	Toucher
	fail  atomic.Int32
	calls atomic.Int32
}

func (f *flakyToucher) Touch(ctx context.Context, token string, role session.Role) (*session.Session, error) {
	f.calls.Add(1)
	if f.fail.Add(-1) >= 0 {
		return nil, errors.New("redis: connection refused")
	}
	return f.Toucher.Touch(ctx, token, role)
}

func TestTransientTouchErrorKeepsConnection(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	store := session.NewMemoryStore(session.WithClock(clock))
	flaky := &flakyToucher{Toucher: store}

	f := newFixture(t, flaky, WithClock(clock))
	f.store, f.clock = store, clock
	s := f.login(t, 0)

	ws := f.dial(t, s.Token, session.RoleCustomer)
	readFrame(t, ws)

	flaky.fail.Store(1)
	clock.BlockUntil(2)
	clock.Advance(15 * time.Second)
	require.Eventually(t, func() bool { return flaky.calls.Load() == 2 }, 5*time.Second, 10*time.Millisecond)

	clock.Advance(15 * time.Second)
	frame := readFrame(t, ws)
	assert.Equal(t, FrameSessionUpdate, frame.Type)
	assert.Equal(t, iso(start.Add(30*time.Second)), frame.Session.LastSeenAt)
	assert.Equal(t, 1, f.gw.Len())
}

func TestShutdownClosesConnections(t *testing.T) {
	f := newFixture(t, nil)
	s := f.login(t, 0)

	ws := f.dial(t, s.Token, session.RoleCustomer)
	readFrame(t, ws)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, f.gw.Shutdown(ctx))
	}()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := ws.ReadMessage()
	var ce *websocket.CloseError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, websocket.CloseGoingAway, ce.Code)

	wg.Wait()
	assert.Equal(t, 0, f.gw.Len())
}

func TestGatewayMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, nil, WithRegisterer(reg))
	s := f.login(t, 0)

	ws := f.dial(t, s.Token, session.RoleCustomer)
	readFrame(t, ws)

	m := f.gw.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.frames.WithLabelValues(FrameSessionUpdate)) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return testutil.ToFloat64(m.connections) == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHTTPToucher(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	store := session.NewMemoryStore(session.WithClock(clock))
	s, err := store.Create(context.Background(), session.CreateInput{Role: session.RoleAdmin, ReferenceID: "admin@yogaclub.com"})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(InternalSecretHeader) != "s3cret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var in touchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		touched, err := store.Touch(r.Context(), in.Token, in.Role)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"session-not-found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(touchResponse{Session: session.Serialize(touched)})
	}))
	defer server.Close()

	toucher := NewHTTPToucher(server.URL, "s3cret", nil)

	got, err := toucher.Touch(context.Background(), s.Token, session.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, s.Token, got.Token)
	assert.Equal(t, "admin@yogaclub.com", got.ReferenceID)
	assert.Equal(t, session.DefaultTTL, got.TTL)

	_, err = toucher.Touch(context.Background(), s.Token, session.RoleCustomer)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = NewHTTPToucher(server.URL, "wrong", nil).Touch(context.Background(), s.Token, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrSessionNotFound)
}

func TestIsHeartbeat(t *testing.T) {
	assert.True(t, isHeartbeat([]byte(`{"type":"heartbeat"}`)))
	assert.False(t, isHeartbeat([]byte(`{"type":"ping"}`)))
	assert.False(t, isHeartbeat([]byte(`heartbeat`)))
	assert.False(t, isHeartbeat(nil))
}
