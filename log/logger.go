package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/yogaclub/log/desensitize"
	"github.com/kochabx/yogaclub/log/writer"
)

// Logger 日志记录器
type Logger struct {
	zerolog.Logger
	hook   *desensitize.Hook
	closer io.Closer
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// newLogger 统一构建入口，脱敏 writer 包在最外层
func newLogger(w io.Writer, opts ...Option) *Logger {
	l := &Logger{}
	for _, opt := range opts {
		opt.apply(l)
	}

	if l.hook != nil {
		w = desensitize.NewWriter(w, l.hook)
	}
	l.Logger = zerolog.New(w).With().Timestamp().Logger()

	for _, opt := range opts {
		opt.decorate(l)
	}
	return l
}

// New 创建输出到控制台的 Logger
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(), opts...)
}

// NewWriter 创建输出到任意 writer 的 JSON Logger
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// NewFromConfig 按配置创建 Logger
func NewFromConfig(c Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	opts := []Option{WithLevel(level)}
	if c.Caller {
		opts = append(opts, WithCaller())
	}
	if c.Desensitize {
		opts = append(opts, WithDesensitize(desensitize.NewHook(desensitize.BuiltinRules()...)))
	}

	switch c.Output {
	case OutputConsole, "":
		return New(opts...), nil
	case OutputJSON:
		return NewWriter(os.Stdout, opts...), nil
	case OutputFile, OutputMulti:
		fw, err := writer.File(c.File.rotateConfig())
		if err != nil {
			return nil, err
		}
		var w io.Writer = fw
		if c.Output == OutputMulti {
			w = zerolog.MultiLevelWriter(fw, writer.Console())
		}
		l := newLogger(w, opts...)
		if closer, ok := fw.(io.Closer); ok {
			l.closer = closer
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported log output %q", c.Output)
	}
}

// Hook 返回脱敏钩子，未启用时为 nil
func (l *Logger) Hook() *desensitize.Hook {
	return l.hook
}

// Close 关闭底层文件
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
