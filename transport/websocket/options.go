package websocket

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/yogaclub/log"
)

// Config 网关配置
type Config struct {
	// 定时续期并推送的间隔
	PushInterval time.Duration `json:"push_interval" mapstructure:"push_interval"`
	// 心跳触发续期的最小间隔，过密的心跳被合并
	HeartbeatMinInterval time.Duration `json:"heartbeat_min_interval" mapstructure:"heartbeat_min_interval"`
	// ping 间隔
	PingInterval time.Duration `json:"ping_interval" mapstructure:"ping_interval"`
	// pong 等待时间，超时视为对端失联
	PongWait time.Duration `json:"pong_wait" mapstructure:"pong_wait"`
	// 单帧写超时
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
	// 单次续期超时
	TouchTimeout time.Duration `json:"touch_timeout" mapstructure:"touch_timeout"`
	// 客户端帧最大字节数
	MaxMessageSize  int64 `json:"max_message_size" mapstructure:"max_message_size"`
	ReadBufferSize  int   `json:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int   `json:"write_buffer_size" mapstructure:"write_buffer_size"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		PushInterval:         15 * time.Second,
		HeartbeatMinInterval: 0,
		PingInterval:         54 * time.Second,
		PongWait:             60 * time.Second,
		WriteTimeout:         10 * time.Second,
		TouchTimeout:         5 * time.Second,
		MaxMessageSize:       4096,
		ReadBufferSize:       1024,
		WriteBufferSize:      1024,
	}
}

// withDefaults 零值字段取默认值，HeartbeatMinInterval 允许为 0
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PushInterval <= 0 {
		c.PushInterval = d.PushInterval
	}
	if c.HeartbeatMinInterval < 0 {
		c.HeartbeatMinInterval = 0
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.PingInterval >= c.PongWait {
		c.PingInterval = c.PongWait * 9 / 10
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.TouchTimeout <= 0 {
		c.TouchTimeout = d.TouchTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = d.WriteBufferSize
	}
	return c
}

type Option func(*Gateway)

func WithConfig(c Config) Option {
	return func(g *Gateway) {
		g.config = c
	}
}

// WithClock 定时推送与心跳合并使用的时钟
func WithClock(clock clockwork.Clock) Option {
	return func(g *Gateway) {
		if clock != nil {
			g.clock = clock
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithExpirer 会话过期关闭连接后的回调
func WithExpirer(e Expirer) Option {
	return func(g *Gateway) {
		g.expirer = e
	}
}

// WithCheckOrigin 校验握手 Origin，默认同源
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(g *Gateway) {
		g.checkOrigin = fn
	}
}

// WithRegisterer 注册连接数与推送帧指标
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Gateway) {
		g.metrics = newMetrics(reg)
	}
}
