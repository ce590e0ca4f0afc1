package db

import (
	"strconv"
	"strings"
	"time"
)

// MySQLConfig MySQL 数据库配置
type MySQLConfig struct {
	Host      string        `json:"host" mapstructure:"host"`
	Port      int           `json:"port" mapstructure:"port"`
	User      string        `json:"user" mapstructure:"user"`
	Password  string        `json:"password" mapstructure:"password"`
	Database  string        `json:"database" mapstructure:"database"`
	Charset   string        `json:"charset" mapstructure:"charset"`
	Collation string        `json:"collation" mapstructure:"collation"`
	Loc       string        `json:"loc" mapstructure:"loc"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	Level     string        `json:"level" mapstructure:"level"`

	PoolConfig `mapstructure:"pool"`
}

func (c *MySQLConfig) Driver() Driver {
	return DriverMySQL
}

// Init 应用默认值
func (c *MySQLConfig) Init() error {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 3306
	}
	if c.User == "" {
		c.User = "root"
	}
	if c.Database == "" {
		c.Database = "yogaclub"
	}
	if c.Charset == "" {
		c.Charset = "utf8mb4"
	}
	if c.Collation == "" {
		c.Collation = "utf8mb4_unicode_ci"
	}
	if c.Loc == "" {
		c.Loc = "UTC"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	c.PoolConfig.fill(10, 100)
	return nil
}

// DSN 生成 MySQL DSN 连接字符串，parseTime 固定开启
func (c *MySQLConfig) DSN() string {
	var b strings.Builder
	b.Grow(128)

	// user:password@tcp(host:port)/database
	b.WriteString(c.User)
	b.WriteByte(':')
	b.WriteString(c.Password)
	b.WriteString("@tcp(")
	b.WriteString(c.Host)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(c.Port))
	b.WriteString(")/")
	b.WriteString(c.Database)

	b.WriteString("?charset=")
	b.WriteString(c.Charset)
	b.WriteString("&collation=")
	b.WriteString(c.Collation)
	b.WriteString("&parseTime=true&loc=")
	b.WriteString(c.Loc)
	b.WriteString("&timeout=")
	b.WriteString(c.Timeout.String())
	return b.String()
}

func (c *MySQLConfig) Pool() *PoolConfig {
	return &c.PoolConfig
}

func (c *MySQLConfig) LogLevel() LogLevel {
	return ParseLogLevel(c.Level)
}
