package log

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/kochabx/yogaclub/log/writer"
)

// Output 日志输出目标
type Output string

const (
	OutputConsole Output = "console"
	OutputJSON    Output = "json"
	OutputFile    Output = "file"
	OutputMulti   Output = "multi"
)

// Config 日志配置
type Config struct {
	Level       string     `json:"level" mapstructure:"level"`
	Output      Output     `json:"output" mapstructure:"output"`
	Caller      bool       `json:"caller" mapstructure:"caller"`
	Desensitize bool       `json:"desensitize" mapstructure:"desensitize"`
	File        FileConfig `json:"file" mapstructure:"file"`
}

// FileConfig 日志文件配置
type FileConfig struct {
	Dir        string            `json:"dir" mapstructure:"dir"`
	Filename   string            `json:"filename" mapstructure:"filename"`
	Ext        string            `json:"ext" mapstructure:"ext"`
	RotateMode writer.RotateMode `json:"rotate_mode" mapstructure:"rotate_mode"`

	MaxAge       time.Duration `json:"max_age" mapstructure:"max_age"`
	RotationTime time.Duration `json:"rotation_time" mapstructure:"rotation_time"`

	MaxSizeMB  int  `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `json:"compress" mapstructure:"compress"`
}

// DefaultConfig 返回默认配置：info 级别、控制台输出、开启脱敏
func DefaultConfig() Config {
	return Config{
		Level:       zerolog.InfoLevel.String(),
		Output:      OutputConsole,
		Desensitize: true,
		File:        DefaultFileConfig(),
	}
}

// DefaultFileConfig 返回默认文件配置
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Dir:          "log",
		Filename:     "yogaclub",
		Ext:          "log",
		RotateMode:   writer.RotateModeSize,
		MaxAge:       24 * time.Hour,
		RotationTime: time.Hour,
		MaxSizeMB:    100,
		MaxBackups:   5,
		MaxAgeDays:   30,
	}
}

func (c FileConfig) withDefaults() FileConfig {
	d := DefaultFileConfig()
	if c.Dir == "" {
		c.Dir = d.Dir
	}
	if c.Filename == "" {
		c.Filename = d.Filename
	}
	if c.Ext == "" {
		c.Ext = d.Ext
	}
	if c.RotateMode == "" {
		c.RotateMode = d.RotateMode
	}
	if c.MaxAge <= 0 {
		c.MaxAge = d.MaxAge
	}
	if c.RotationTime <= 0 {
		c.RotationTime = d.RotationTime
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = d.MaxSizeMB
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = d.MaxBackups
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = d.MaxAgeDays
	}
	return c
}

func (c FileConfig) rotateConfig() writer.RotateConfig {
	c = c.withDefaults()
	return writer.RotateConfig{
		Mode:         c.RotateMode,
		Dir:          c.Dir,
		Filename:     c.Filename,
		Ext:          c.Ext,
		MaxAge:       c.MaxAge,
		RotationTime: c.RotationTime,
		MaxSizeMB:    c.MaxSizeMB,
		MaxBackups:   c.MaxBackups,
		MaxAgeDays:   c.MaxAgeDays,
		Compress:     c.Compress,
	}
}
