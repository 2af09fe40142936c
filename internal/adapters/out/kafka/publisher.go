// Package kafka publishes committed order lifecycle events for downstream
// consumers.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tradeflow/internal/core/domain/model/events"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LifecycleEvent is the message value. Keys are order ids so that one
// order's events land in one partition in order.
type LifecycleEvent struct {
	Event      string    `json:"event"`
	OrderID    string    `json:"order_id"`
	RequestID  string    `json:"request_id"`
	BuyerID    string    `json:"buyer_id"`
	SellerID   string    `json:"seller_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Total      string    `json:"total"`
	Currency   string    `json:"currency"`
	Actor      string    `json:"actor,omitempty"`
	Source     string    `json:"source,omitempty"`
	DisputeID  string    `json:"dispute_id,omitempty"`
	Version    int       `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

type LifecyclePublisher struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewLifecyclePublisher publishes to topic on brokers.
func NewLifecyclePublisher(brokers []string, topic string, logger *slog.Logger) *LifecyclePublisher {
	return NewLifecyclePublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, logger)
}

// NewLifecyclePublisherWithWriter publishes through writer, which tests
// replace with an in-memory one.
func NewLifecyclePublisherWithWriter(writer MessageWriter, logger *slog.Logger) *LifecyclePublisher {
	return &LifecyclePublisher{
		writer: writer,
		logger: logger.With("component", "lifecycle_publisher"),
	}
}

// Handle publishes ev. It is registered for every event kind.
func (p *LifecyclePublisher) Handle(ctx context.Context, ev events.Event) error {
	msg := LifecycleEvent{
		Event:      string(ev.Kind),
		OrderID:    ev.Order.ID.String(),
		RequestID:  ev.Order.RequestID,
		BuyerID:    ev.Order.BuyerID,
		SellerID:   ev.Order.SellerID,
		From:       ev.From.String(),
		To:         ev.To.String(),
		Total:      ev.Order.Total.Rounded().StringFixed(2),
		Currency:   ev.Order.Total.Currency(),
		Actor:      ev.Context.Actor,
		Source:     ev.Context.Source,
		Version:    ev.Order.Version,
		OccurredAt: ev.OccurredAt,
	}
	if ev.Dispute != nil {
		msg.DisputeID = ev.Dispute.DisputeID.String()
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.OrderID),
		Value: value,
		Time:  ev.OccurredAt,
	}); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish lifecycle event", "event", msg.Event, "order_id", msg.OrderID, "error", err)
		return err
	}
	return nil
}

func (p *LifecyclePublisher) Close() error {
	return p.writer.Close()
}
