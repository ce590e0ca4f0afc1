package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// Config Kafka 生产者配置
type Config struct {
	Brokers  []string `json:"brokers" mapstructure:"brokers"`
	Username string   `json:"username" mapstructure:"username"`
	Password string   `json:"password" mapstructure:"password"`

	// Balancer hash 按消息 key 分区，其余为 least_bytes
	Balancer               string `json:"balancer" mapstructure:"balancer"`
	AllowAutoTopicCreation bool   `json:"allow_auto_topic_creation" mapstructure:"allow_auto_topic_creation"`

	BatchTimeout time.Duration `json:"batch_timeout" mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
	CloseTimeout time.Duration `json:"close_timeout" mapstructure:"close_timeout"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 100 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = 5 * time.Second
	}
}

func (c *Config) balancer() kafka.Balancer {
	if c.Balancer == "hash" {
		return &kafka.Hash{}
	}
	return &kafka.LeastBytes{}
}
