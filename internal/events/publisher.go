package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	EventOrderPlaced       EventType = "checkout.order_placed"
	EventPaymentRedirected EventType = "checkout.payment_redirected"
	EventBundleAddedToCart EventType = "bundle.added_to_cart"
)

// Event is a storefront fact published for downstream consumers (analytics, CRM).
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	OrderNumber   string    `json:"order_number,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	ItemCount     int       `json:"item_count,omitempty"`
	CartTotal     int64     `json:"cart_total,omitempty"`
	Guest         bool      `json:"guest,omitempty"`
	BundleSlug    string    `json:"bundle_slug,omitempty"`
	Quantity      int32     `json:"quantity,omitempty"`
}

func NewEvent(t EventType) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
	}
}

// key groups related events on one partition.
func (e Event) key() string {
	switch {
	case e.OrderNumber != "":
		return e.OrderNumber
	case e.BundleSlug != "":
		return e.BundleSlug
	default:
		return e.ID
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.key()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
