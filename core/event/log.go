package event

import (
	"context"

	"github.com/kochabx/yogaclub/log"
)

// LogPublisher 将事件写入结构化日志
type LogPublisher struct {
	logger *log.Logger
}

// NewLogPublisher 创建日志发布器，logger 为空时使用全局日志
func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.G
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Info().
		Str("event", string(e.Type)).
		Str("token_hash", e.TokenHash).
		Str("role", e.Role).
		Str("reference_id", e.ReferenceID).
		Time("at", e.At).
		Msg("session event")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
