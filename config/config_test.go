package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/yogaclub/errors"
	"github.com/kochabx/yogaclub/store/db"
)

func writeFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	cfg, c, err := Load(WithFile("config.yaml", t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.DefaultTTL)
	assert.Equal(t, time.Hour, cfg.Session.AdminTTL)
	assert.Equal(t, 32, cfg.Session.Shards)
	assert.Equal(t, 15*time.Second, cfg.Realtime.PushInterval)
	assert.Equal(t, 60*time.Second, cfg.Realtime.PongWait)
	assert.Equal(t, db.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "admin@yogaclub.com", cfg.Admin.Email)
	assert.False(t, cfg.Event.Kafka.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)

	// 无配置文件时 Watch 不报错
	assert.NoError(t, c.Watch())
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, `
server:
  addr: ":9090"
session:
  default_ttl: 10m
  sweep:
    enabled: true
    spec: "@every 1m"
realtime:
  push_interval: 5s
  touch_url: "http://sessions.internal/api/internal/session/touch"
http:
  cors:
    allow_origins: ["https://yogaclub.com"]
event:
  kafka:
    enabled: true
    brokers: ["kafka-1:9092", "kafka-2:9092"]
`)
	t.Setenv("YOGACLUB_SESSION_BACKEND", "redis")
	t.Setenv("YOGACLUB_REALTIME_INTERNAL_SECRET", "s3cret")

	cfg, _, err := Load(WithFile("config.yaml", dir))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Session.DefaultTTL)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.True(t, cfg.Session.Sweep.Enabled)
	assert.Equal(t, "@every 1m", cfg.Session.Sweep.Spec)
	assert.Equal(t, 5*time.Second, cfg.Realtime.PushInterval)
	assert.Equal(t, 54*time.Second, cfg.Realtime.PingInterval)
	assert.Equal(t, "http://sessions.internal/api/internal/session/touch", cfg.Realtime.TouchURL)
	assert.Equal(t, "s3cret", cfg.Realtime.InternalSecret)
	assert.Equal(t, []string{"https://yogaclub.com"}, cfg.HTTP.Cors.AllowOrigins)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Event.Kafka.Brokers)
	assert.Equal(t, "yogaclub.sessions", cfg.Event.Kafka.Topic)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "session:\n  backend: disk\n"},
		{"bad admin email", "admin:\n  email: not-an-email\n"},
		{"bad touch url", "realtime:\n  touch_url: \"::nope\"\n"},
		{"unknown driver", "database:\n  driver: oracle\n"},
		{"sub-second ttl", "session:\n  default_ttl: 500ms\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.content)

			_, _, err := Load(WithFile("config.yaml", dir))
			require.Error(t, err)
			assert.Equal(t, "config-invalid", errors.FromError(err).Reason)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server: [unclosed\n")

	_, _, err := Load(WithFile("config.yaml", dir))
	require.Error(t, err)
	assert.Equal(t, "config-read", errors.FromError(err).Reason)
}

type custom struct {
	Name  string `mapstructure:"name" validate:"required"`
	Limit int    `mapstructure:"limit"`
}

func TestNewWithDefaults(t *testing.T) {
	target := new(custom)
	c := New(target,
		WithFile("custom.yaml", t.TempDir()),
		WithDefaults(map[string]any{"name": "studio", "limit": 3}),
	)
	require.NoError(t, c.Load())
	assert.Equal(t, "studio", target.Name)
	assert.Equal(t, 3, target.Limit)
	assert.NotNil(t, c.Viper())

	missing := new(custom)
	assert.Error(t, New(missing, WithFile("custom.yaml", t.TempDir())).Load())
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server:\n  addr: \":9000\"\n")

	changed := make(chan struct{}, 1)
	cfg := new(App)
	c := New(cfg,
		WithFile("config.yaml", dir),
		WithEnvPrefix(EnvPrefix),
		WithDefaults(Defaults()),
		OnChange(func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		}),
	)
	require.NoError(t, c.Load())

	// 文件可能分多次写入，只认最终内容
	rotated := make(chan struct{}, 1)
	c.Subscribe(func() {
		c.Read(func() {
			if cfg.Admin.Password != "rotated" {
				return
			}
			select {
			case rotated <- struct{}{}:
			default:
			}
		})
	})
	c.Subscribe(nil)
	require.NoError(t, c.Watch())

	writeFile(t, dir, "server:\n  addr: \":9001\"\nadmin:\n  password: rotated\n")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
	select {
	case <-rotated:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber not notified")
	}

	var addr string
	c.Read(func() { addr = cfg.Server.Addr })
	assert.Equal(t, ":9001", addr)
}
