package config

import (
	"time"

	"github.com/kochabx/yogaclub/core/session"
	"github.com/kochabx/yogaclub/log"
	"github.com/kochabx/yogaclub/store/db"
	"github.com/kochabx/yogaclub/store/kafka"
	"github.com/kochabx/yogaclub/store/redis"
	"github.com/kochabx/yogaclub/transport/websocket"
)

// EnvPrefix is the environment variable prefix of the application config
const EnvPrefix = "YOGACLUB"

// Session backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// App is the root configuration of the yogaclub server
type App struct {
	Server   Server       `json:"server" mapstructure:"server"`
	HTTP     HTTP         `json:"http" mapstructure:"http"`
	Session  Session      `json:"session" mapstructure:"session"`
	Realtime Realtime     `json:"realtime" mapstructure:"realtime"`
	Admin    Admin        `json:"admin" mapstructure:"admin"`
	Redis    redis.Config `json:"redis" mapstructure:"redis"`
	Database db.Config    `json:"database" mapstructure:"database"`
	Event    Event        `json:"event" mapstructure:"event"`
	Log      log.Config   `json:"log" mapstructure:"log"`
	Metrics  Metrics      `json:"metrics" mapstructure:"metrics"`
	Swagger  Swagger      `json:"swagger" mapstructure:"swagger"`
}

type Server struct {
	Addr            string        `json:"addr" mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type HTTP struct {
	Cookie Cookie `json:"cookie" mapstructure:"cookie"`
	Cors   Cors   `json:"cors" mapstructure:"cors"`
}

type Cookie struct {
	// Secure forces the Secure attribute even on plain HTTP
	Secure bool `json:"secure" mapstructure:"secure"`
}

type Cors struct {
	AllowOrigins []string `json:"allow_origins" mapstructure:"allow_origins"`
}

type Session struct {
	Backend    string        `json:"backend" mapstructure:"backend" validate:"oneof=memory redis"`
	DefaultTTL time.Duration `json:"default_ttl" mapstructure:"default_ttl" validate:"gte=1s"`
	AdminTTL   time.Duration `json:"admin_ttl" mapstructure:"admin_ttl" validate:"gte=1s"`
	Shards     int           `json:"shards" mapstructure:"shards" validate:"gte=1"`
	Sweep      Sweep         `json:"sweep" mapstructure:"sweep"`
}

type Sweep struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Spec    string `json:"spec" mapstructure:"spec"`
}

// Realtime configures the websocket gateway. With TouchURL set the gateway
// refreshes sessions through the internal HTTP endpoint instead of the
// in-process service.
type Realtime struct {
	websocket.Config `mapstructure:",squash"`
	TouchURL         string `json:"touch_url" mapstructure:"touch_url" validate:"omitempty,url"`
	InternalSecret   string `json:"internal_secret" mapstructure:"internal_secret"`
}

type Admin struct {
	Email    string `json:"email" mapstructure:"email" validate:"required,email"`
	Password string `json:"password" mapstructure:"password" validate:"required"`
}

type Event struct {
	Kafka Kafka `json:"kafka" mapstructure:"kafka"`
}

type Kafka struct {
	Enabled      bool   `json:"enabled" mapstructure:"enabled"`
	Topic        string `json:"topic" mapstructure:"topic" validate:"required_if=Enabled true"`
	kafka.Config `mapstructure:",squash"`
}

type Metrics struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// Swagger serves the API docs UI, off by default
type Swagger struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// Defaults returns the default values of App keyed by dotted path. Every key
// that may be overridden from the environment needs an entry here.
func Defaults() map[string]any {
	rt := websocket.DefaultConfig()
	lc := log.DefaultConfig()
	return map[string]any{
		"server.addr":             ":8080",
		"server.shutdown_timeout": 30 * time.Second,

		"http.cookie.secure":      false,
		"http.cors.allow_origins": []string{},

		"session.backend":       BackendMemory,
		"session.default_ttl":   session.DefaultTTL,
		"session.admin_ttl":     session.AdminTTL,
		"session.shards":        32,
		"session.sweep.enabled": false,
		"session.sweep.spec":    session.DefaultSweepSpec,

		"realtime.push_interval":          rt.PushInterval,
		"realtime.heartbeat_min_interval": rt.HeartbeatMinInterval,
		"realtime.ping_interval":          rt.PingInterval,
		"realtime.pong_wait":              rt.PongWait,
		"realtime.write_timeout":          rt.WriteTimeout,
		"realtime.touch_timeout":          rt.TouchTimeout,
		"realtime.max_message_size":       rt.MaxMessageSize,
		"realtime.touch_url":              "",
		"realtime.internal_secret":        "",

		"admin.email":    "admin@yogaclub.com",
		"admin.password": "supersecret",

		"redis.addrs":      []string{"localhost:6379"},
		"redis.password":   "",
		"redis.db":         0,
		"redis.key_prefix": "yogaclub:",

		"database.driver":           string(db.DriverSQLite),
		"database.sqlite.file_path": "./yogaclub.db",
		"database.sqlite.level":     "warn",

		"event.kafka.enabled": false,
		"event.kafka.brokers": []string{"localhost:9092"},
		"event.kafka.topic":   "yogaclub.sessions",

		"log.level":       lc.Level,
		"log.output":      string(lc.Output),
		"log.caller":      lc.Caller,
		"log.desensitize": lc.Desensitize,

		"metrics.enabled": true,
		"metrics.path":    "/metrics",

		"swagger.enabled": false,
		"swagger.path":    "/swagger/*any",
	}
}

// Load reads App from config.yaml in "." and "./configs" with YOGACLUB_*
// environment overrides. Extra options are applied after the defaults.
func Load(opts ...Option) (*App, *Config, error) {
	cfg := new(App)
	c := New(cfg, append([]Option{WithEnvPrefix(EnvPrefix), WithDefaults(Defaults())}, opts...)...)
	if err := c.Load(); err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}
