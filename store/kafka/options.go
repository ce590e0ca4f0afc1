package kafka

import (
	"github.com/kochabx/yogaclub/log"
)

// Option 客户端配置选项
type Option func(*clientOptions)

type clientOptions struct {
	logger *log.Logger
	async  bool
}

// WithLogger 设置日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithAsync 生产者异步写入，错误只记录日志
func WithAsync() Option {
	return func(o *clientOptions) {
		o.async = true
	}
}
