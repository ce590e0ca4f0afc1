package db

import (
	"strconv"
	"strings"
)

// PostgresConfig PostgreSQL 数据库配置
type PostgresConfig struct {
	Host           string `json:"host" mapstructure:"host"`
	Port           int    `json:"port" mapstructure:"port"`
	User           string `json:"user" mapstructure:"user"`
	Password       string `json:"password" mapstructure:"password"`
	Database       string `json:"database" mapstructure:"database"`
	SSLMode        string `json:"sslmode" mapstructure:"sslmode"`
	TimeZone       string `json:"timezone" mapstructure:"timezone"`
	ConnectTimeout int    `json:"connect_timeout" mapstructure:"connect_timeout"`
	Level          string `json:"level" mapstructure:"level"`

	PoolConfig `mapstructure:"pool"`
}

func (c *PostgresConfig) Driver() Driver {
	return DriverPostgres
}

// Init 应用默认值
func (c *PostgresConfig) Init() error {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.User == "" {
		c.User = "postgres"
	}
	if c.Database == "" {
		c.Database = "yogaclub"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10
	}
	c.PoolConfig.fill(10, 100)
	return nil
}

// DSN 生成 PostgreSQL DSN 连接字符串
func (c *PostgresConfig) DSN() string {
	var b strings.Builder
	b.Grow(128)

	b.WriteString("host=")
	b.WriteString(c.Host)
	b.WriteString(" port=")
	b.WriteString(strconv.Itoa(c.Port))
	b.WriteString(" user=")
	b.WriteString(c.User)
	if c.Password != "" {
		b.WriteString(" password=")
		b.WriteString(c.Password)
	}
	b.WriteString(" dbname=")
	b.WriteString(c.Database)
	b.WriteString(" sslmode=")
	b.WriteString(c.SSLMode)
	b.WriteString(" TimeZone=")
	b.WriteString(c.TimeZone)
	b.WriteString(" connect_timeout=")
	b.WriteString(strconv.Itoa(c.ConnectTimeout))
	return b.String()
}

func (c *PostgresConfig) Pool() *PoolConfig {
	return &c.PoolConfig
}

func (c *PostgresConfig) LogLevel() LogLevel {
	return ParseLogLevel(c.Level)
}
