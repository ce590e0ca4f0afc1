package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"golang.org/x/sync/errgroup"

	"github.com/kochabx/yogaclub/log"
)

// Client Kafka 客户端，按 topic 缓存生产者
type Client struct {
	config    *Config
	transport *kafka.Transport
	logger    *log.Logger
	async     bool

	mu        sync.RWMutex
	producers map[string]*kafka.Writer
}

// New 创建 Kafka 客户端。kafka-go 的连接在首次写入时建立
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	cfg.ApplyDefaults()

	o := &clientOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	c := &Client{
		config:    cfg,
		logger:    o.logger,
		async:     o.async,
		producers: make(map[string]*kafka.Writer),
		transport: &kafka.Transport{},
	}
	if c.logger == nil {
		c.logger = log.G
	}
	if cfg.Username != "" && cfg.Password != "" {
		c.transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}
	return c, nil
}

func (c *Client) createWriter(topic string) *kafka.Writer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(c.config.Brokers...),
		Topic:                  topic,
		Balancer:               c.config.balancer(),
		Transport:              c.transport,
		AllowAutoTopicCreation: c.config.AllowAutoTopicCreation,
		BatchTimeout:           c.config.BatchTimeout,
		WriteTimeout:           c.config.WriteTimeout,
		Async:                  c.async,
	}
	if c.async {
		w.Completion = func(messages []kafka.Message, err error) {
			if err != nil {
				c.logger.Warn().Err(err).Str("topic", topic).Int("count", len(messages)).Msg("kafka async write failed")
			}
		}
	}
	return w
}

// Producer 获取指定主题的生产者，如果不存在则创建
func (c *Client) Producer(topic string) (*kafka.Writer, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	c.mu.RLock()
	w, ok := c.producers[topic]
	c.mu.RUnlock()
	if ok {
		return w, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok := c.producers[topic]; ok {
		return w, nil
	}
	w = c.createWriter(topic)
	c.producers[topic] = w
	return w, nil
}

// Close 关闭所有生产者，异步模式下会等待缓冲消息发送
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.CloseTimeout)
	defer cancel()

	eg, _ := errgroup.WithContext(ctx)
	for _, w := range c.producers {
		eg.Go(w.Close)
	}
	err := eg.Wait()
	clear(c.producers)
	return err
}
