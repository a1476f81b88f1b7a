// Package eventbus carries committed event records from the command path to
// the projector, the process manager and the Kafka relay. The dispatcher is
// an explicitly constructed watermill router; handler registration happens
// once at startup, there is no ambient global registry.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tablestack/resto-pos/backend/internal/entity"
)

// Topics.
const (
	TopicOrderEvents    = "orders.events"
	TopicKitchenTickets = "kitchen.tickets"
)

// Metadata keys.
const (
	MetaEventType = "event_type"
	MetaStreamID  = "stream_id"
)

// Bus publishes committed event store records to the order-events topic.
type Bus struct {
	pub message.Publisher
}

func NewBus(pub message.Publisher) *Bus {
	return &Bus{pub: pub}
}

// PublishRecords publishes each committed record as one message, in append
// order. The message uuid is the record id so downstream consumers can
// deduplicate.
func (b *Bus) PublishRecords(ctx context.Context, records []entity.EventStoreRecord) error {
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal event record: %w", err)
		}

		msg := message.NewMessage(rec.ID, payload)
		msg.Metadata.Set(MetaEventType, rec.EventType)
		msg.Metadata.Set(MetaStreamID, rec.StreamID)
		msg.SetContext(ctx)

		if err := b.pub.Publish(TopicOrderEvents, msg); err != nil {
			return fmt.Errorf("failed to publish %s: %w", rec.EventType, err)
		}
	}
	return nil
}

// DecodeRecord unmarshals a bus message back into an event store record.
func DecodeRecord(msg *message.Message) (entity.EventStoreRecord, error) {
	var rec entity.EventStoreRecord
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal event record: %w", err)
	}
	return rec, nil
}
