// Package events 渲染任务生命周期事件
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"adreel/internal/config"
)

// EventType 事件类型
type EventType string

const (
	EventRenderStarted   EventType = "render.started"
	EventRenderCompleted EventType = "render.completed"
	EventRenderFailed    EventType = "render.failed"
)

// Event 任务事件
type Event struct {
	Type       EventType `json:"type"`
	JobID      string    `json:"job_id"`
	Stage      string    `json:"stage,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	OutputURL  string    `json:"output_url,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher 事件投递
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher 未配置 Kafka 时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// KafkaPublisher 基于 sarama SyncProducer 的投递
// 以 job_id 作为消息 key，同一任务的事件落在同一分区
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher 连接 Kafka
func NewKafkaPublisher(cfg *config.KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic), nil
}

// NewKafkaPublisherWithProducer 使用已有 producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish 同步投递一条事件
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(e.JobID),
		Value:     sarama.ByteEncoder(data),
		Timestamp: e.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("send %s event: %w", e.Type, err)
	}

	log.Ctx(ctx).Debug().
		Str("type", string(e.Type)).
		Str("job_id", e.JobID).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("任务事件已投递")
	return nil
}

// Close 关闭 producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
