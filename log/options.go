package log

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/yogaclub/log/desensitize"
)

// Option Logger 选项。apply 在构建 writer 之前执行，decorate 在 zerolog.Logger 创建之后执行
type Option struct {
	apply    func(*Logger)
	decorate func(*Logger)
}

func noop(*Logger) {}

// WithLevel 设置日志级别
func WithLevel(level zerolog.Level) Option {
	return Option{apply: noop, decorate: func(l *Logger) {
		l.Logger = l.Logger.Level(level)
	}}
}

// WithCaller 记录调用位置
func WithCaller() Option {
	return Option{apply: noop, decorate: func(l *Logger) {
		l.Logger = l.Logger.With().Caller().Logger()
	}}
}

// WithFields 附加固定字段
func WithFields(fields map[string]any) Option {
	return Option{apply: noop, decorate: func(l *Logger) {
		l.Logger = l.Logger.With().Fields(fields).Logger()
	}}
}

// WithDesensitize 设置脱敏钩子
func WithDesensitize(hook *desensitize.Hook) Option {
	return Option{apply: func(l *Logger) { l.hook = hook }, decorate: noop}
}
