package kafka

import "errors"

var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("kafka: invalid config")

	// ErrEmptyTopic topic 为空
	ErrEmptyTopic = errors.New("kafka: empty topic")
)
