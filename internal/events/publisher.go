package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message is a keyed payload for a topic.
type Message struct {
	Key   []byte
	Value []byte
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to Kafka. PublishJSON hands the write to a
// bounded goroutine pool so request handlers never wait on the broker.
type KafkaPublisher struct {
	writer  messageWriter
	pool    *ants.Pool
	log     *zap.Logger
	timeout time.Duration
	onError func()
}

func NewKafkaPublisher(brokers []string, poolSize int, log *zap.Logger, onError func()) (*KafkaPublisher, error) {
	if poolSize <= 0 {
		poolSize = 16
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create publish pool: %w", err)
	}
	if onError == nil {
		onError = func() {}
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		pool:    pool,
		log:     log,
		timeout: 10 * time.Second,
		onError: onError,
	}, nil
}

// Publish writes msgs to topic synchronously.
func (k *KafkaPublisher) Publish(ctx context.Context, topic string, msgs ...Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
		})
	}
	return k.writer.WriteMessages(ctx, km...)
}

// PublishJSON marshals v and publishes it in the background.
func (k *KafkaPublisher) PublishJSON(topic, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		k.log.Error("marshal event failed", zap.String("topic", topic), zap.Error(err))
		k.onError()
		return
	}
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
		defer cancel()
		if err := k.Publish(ctx, topic, Message{Key: []byte(key), Value: body}); err != nil {
			k.log.Warn("publish event failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
			k.onError()
		}
	}
	if err := k.pool.Submit(task); err != nil {
		k.log.Warn("publish pool saturated, dropping event", zap.String("topic", topic), zap.Error(err))
		k.onError()
	}
}

// Close waits for in-flight publishes and closes the writer.
func (k *KafkaPublisher) Close() error {
	if err := k.pool.ReleaseTimeout(k.timeout); err != nil {
		k.log.Warn("publish pool did not drain", zap.Error(err))
	}
	return k.writer.Close()
}
