package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xiebiao/eventtickets/internal/domain/order"
	"github.com/xiebiao/eventtickets/pkg/metrics"
)

// messageWriter *kafka.Writer满足此接口
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher 把订单状态变化写入Kafka
// 设计说明:
// 1. key为订单号，Hash分区保证同一订单的事件有序
// 2. 同步写入，RequireAll，失败由调用方记录日志
type EventPublisher struct {
	w     messageWriter
	topic string
}

// NewEventPublisher 创建Kafka事件发布者
func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	return &EventPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		topic: topic,
	}
}

// StatusChanged 发布状态变化事件
func (p *EventPublisher) StatusChanged(ctx context.Context, e order.StatusChanged) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("事件序列化失败: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Reference),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order.status_changed")},
			{Key: "status", Value: []byte(e.To)},
		},
	})
	metrics.RecordPublish("kafka", p.topic, err)
	if err != nil {
		return fmt.Errorf("写入Kafka失败: %w", err)
	}
	return nil
}

// Close 刷新并关闭Writer
func (p *EventPublisher) Close() error {
	return p.w.Close()
}
