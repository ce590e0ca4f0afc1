package db

import (
	"strings"
	"time"
)

// Driver 数据库驱动类型
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// LogLevel 对应 gorm logger.LogLevel，从 1 开始
type LogLevel int

const (
	LogLevelSilent LogLevel = iota + 1
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// ParseLogLevel 解析日志级别字符串，未知值视为 silent
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return LogLevelError
	case "warn":
		return LogLevelWarn
	case "info":
		return LogLevelInfo
	default:
		return LogLevelSilent
	}
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

func (p *PoolConfig) fill(idle, open int) {
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = idle
	}
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = open
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = time.Hour
	}
	if p.ConnMaxIdleTime <= 0 {
		p.ConnMaxIdleTime = 10 * time.Minute
	}
}

// DriverConfig 驱动配置接口
type DriverConfig interface {
	// Driver 返回驱动类型
	Driver() Driver
	// DSN 返回数据源名称
	DSN() string
	// Pool 返回连接池配置
	Pool() *PoolConfig
	// Init 应用默认值
	Init() error
	// LogLevel 返回日志级别
	LogLevel() LogLevel
}

// Config 按 driver 选择具体驱动配置
type Config struct {
	Driver   Driver         `json:"driver" mapstructure:"driver" validate:"oneof=sqlite postgres mysql"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
	MySQL    MySQLConfig    `json:"mysql" mapstructure:"mysql"`
}

// Selected 返回 Driver 对应的驱动配置
func (c *Config) Selected() (DriverConfig, error) {
	switch c.Driver {
	case DriverSQLite, "":
		return &c.SQLite, nil
	case DriverPostgres:
		return &c.Postgres, nil
	case DriverMySQL:
		return &c.MySQL, nil
	default:
		return nil, ErrUnsupportedDriver
	}
}
