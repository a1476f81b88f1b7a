package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tablestack/resto-pos/backend/internal/projection"
)

// KitchenPublisher delivers kitchen tickets to the kitchen-tickets topic.
// Satisfies projection.KitchenNotifier.
type KitchenPublisher struct {
	pub message.Publisher
}

func NewKitchenPublisher(pub message.Publisher) *KitchenPublisher {
	return &KitchenPublisher{pub: pub}
}

func (k *KitchenPublisher) NotifyKitchen(ctx context.Context, ticket projection.KitchenTicket) error {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to marshal kitchen ticket: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetaStreamID, ticket.OrderUUID)
	msg.SetContext(ctx)

	return k.pub.Publish(TopicKitchenTickets, msg)
}
