package event

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/segmentio/kafka-go"

	kitkafka "github.com/kochabx/yogaclub/store/kafka"
)

// MessageWriter kafka.Writer 的写入子集
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher 以 JSON 写入 Kafka，消息 key 为令牌指纹，同一会话的事件落在同一分区
type KafkaPublisher struct {
	writer MessageWriter
	closer io.Closer
}

// NewKafkaPublisher 基于 Kafka 客户端创建发布器，Close 会关闭客户端
func NewKafkaPublisher(client *kitkafka.Client, topic string) (*KafkaPublisher, error) {
	w, err := client.Producer(topic)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{writer: w, closer: client}, nil
}

// NewKafkaPublisherWithWriter 使用自定义 writer 创建发布器
func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.TokenHash),
		Value: value,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}
