package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/megbaru-hub/teffexpo/internal/logging"
	"github.com/segmentio/kafka-go"
)

// Event types emitted by the fulfillment lifecycle
const (
	OrderCreated        = "order.created"
	OrderAssigned       = "order.assigned"
	AssignmentConfirmed = "assignment.confirmed"
	AssignmentReady     = "assignment.ready"
	OrderCompleted      = "order.completed"
	OrderCancelled      = "order.cancelled"
	PaymentUpdated      = "payment.updated"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("event publisher closed")

// Event is a committed state change of an order
type Event struct {
	Type       string                 `json:"type"`
	OrderID    string                 `json:"order_id"`
	ActorID    string                 `json:"actor_id,omitempty"`
	MerchantID string                 `json:"merchant_id,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Publisher delivers events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by order id
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	closed atomic.Bool
}

// NewKafkaPublisher creates a synchronous writer for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logging.LogKV("error", "kafka writer", map[string]interface{}{"detail": fmt.Sprintf(msg, args...)})
		}),
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish implements Publisher
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	msg, err := toMessage(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, p.topic, err)
	}
	return nil
}

// Close implements Publisher
func (p *KafkaPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func toMessage(e Event) (kafka.Message, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.OrderID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}, nil
}

// LogPublisher writes events as structured log lines when no broker is configured
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	fields := map[string]interface{}{
		"event_type": e.Type,
		"order_id":   e.OrderID,
	}
	if e.ActorID != "" {
		fields["actor_id"] = e.ActorID
	}
	if e.MerchantID != "" {
		fields["merchant_id"] = e.MerchantID
	}
	for k, v := range e.Attributes {
		fields[k] = v
	}
	logging.LogKV("info", "domain_event", fields)
	return nil
}

func (LogPublisher) Close() error { return nil }
