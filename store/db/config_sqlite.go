package db

import (
	"strconv"
	"strings"
)

// MemoryPath 内存数据库路径
const MemoryPath = ":memory:"

// SQLiteConfig SQLite 数据库配置
type SQLiteConfig struct {
	FilePath    string `json:"file_path" mapstructure:"file_path"`
	JournalMode string `json:"journal_mode" mapstructure:"journal_mode"`
	BusyTimeout int    `json:"busy_timeout" mapstructure:"busy_timeout"`
	ForeignKeys bool   `json:"foreign_keys" mapstructure:"foreign_keys"`
	Level       string `json:"level" mapstructure:"level"`

	PoolConfig `mapstructure:"pool"`
}

func (c *SQLiteConfig) Driver() Driver {
	return DriverSQLite
}

// Init 应用默认值。单文件数据库使用单连接，内存库依赖这一点保证所有查询落在同一个库上
func (c *SQLiteConfig) Init() error {
	if c.FilePath == "" {
		c.FilePath = "./yogaclub.db"
	}
	if c.JournalMode == "" {
		c.JournalMode = "WAL"
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5000
	}
	c.PoolConfig.fill(1, 1)
	if c.FilePath == MemoryPath {
		c.MaxOpenConns = 1
		c.MaxIdleConns = 1
	}
	return nil
}

// DSN 生成 SQLite DSN 连接字符串
func (c *SQLiteConfig) DSN() string {
	var b strings.Builder
	b.Grow(96)

	b.WriteString("file:")
	b.WriteString(c.FilePath)
	b.WriteString("?_busy_timeout=")
	b.WriteString(strconv.Itoa(c.BusyTimeout))
	b.WriteString("&_foreign_keys=")
	b.WriteString(strconv.FormatBool(c.ForeignKeys))
	if c.FilePath != MemoryPath {
		b.WriteString("&_journal_mode=")
		b.WriteString(c.JournalMode)
	}
	return b.String()
}

func (c *SQLiteConfig) Pool() *PoolConfig {
	return &c.PoolConfig
}

func (c *SQLiteConfig) LogLevel() LogLevel {
	return ParseLogLevel(c.Level)
}
