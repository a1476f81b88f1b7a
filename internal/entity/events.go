package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Domain events for the order stream. OccurredAt is informational payload:
// mobile clients may sync events recorded offline, so it can lag wall clock.
// Ordering authority is the append sequence assigned by the event store.

// OrderStarted is emitted when a staff member opens a new order.
type OrderStarted struct {
	OrderUUID   string    `json:"order_uuid"`
	StaffID     string    `json:"staff_id"`
	LocationID  string    `json:"location_id"`
	TableNumber int       `json:"table_number"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e OrderStarted) EventType() string { return "OrderStarted" }

// ItemsAddedToOrder is emitted when one or more line items are added. Each
// occurrence appends to the cart, it never replaces it.
type ItemsAddedToOrder struct {
	OrderUUID  string      `json:"order_uuid"`
	Items      []OrderLine `json:"items"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func (e ItemsAddedToOrder) EventType() string { return "ItemsAddedToOrder" }

// ItemsValidated is emitted once every line item has been checked against the
// menu catalog and found available.
type ItemsValidated struct {
	OrderUUID  string    `json:"order_uuid"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ItemsValidated) EventType() string { return "ItemsValidated" }

// PromotionsCalculated is emitted when the cart has been priced. It carries
// the computed subtotal in minor currency units.
type PromotionsCalculated struct {
	OrderUUID  string    `json:"order_uuid"`
	Subtotal   int64     `json:"subtotal"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e PromotionsCalculated) EventType() string { return "PromotionsCalculated" }

// PromotionApplied is emitted when a promotion is applied to the order. The
// discount is computed once here and never implicitly recomputed.
type PromotionApplied struct {
	OrderUUID   string    `json:"order_uuid"`
	PromotionID string    `json:"promotion_id"`
	Discount    int64     `json:"discount"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e PromotionApplied) EventType() string { return "PromotionApplied" }

// TipAdded is emitted when a tip is set on the order.
type TipAdded struct {
	OrderUUID  string    `json:"order_uuid"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e TipAdded) EventType() string { return "TipAdded" }

// OrderConfirmed is emitted when the order is finalized for the kitchen.
type OrderConfirmed struct {
	OrderUUID     string    `json:"order_uuid"`
	PaymentMethod string    `json:"payment_method"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (e OrderConfirmed) EventType() string { return "OrderConfirmed" }

// OrderCancelled is emitted when the order is abandoned.
type OrderCancelled struct {
	OrderUUID  string    `json:"order_uuid"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e OrderCancelled) EventType() string { return "OrderCancelled" }

// DecodeEvent unmarshals a stored record back into its domain event. Used by
// Rehydrate, the projector and the event bus so every consumer decodes the
// stream the same way.
func DecodeEvent(rec EventStoreRecord) (Event, error) {
	var (
		e   Event
		err error
	)
	switch rec.EventType {
	case "OrderStarted":
		var ev OrderStarted
		err = json.Unmarshal(rec.Payload, &ev)
		e = ev
	case "ItemsAddedToOrder":
		var ev ItemsAddedToOrder
		err = json.Unmarshal(rec.Payload, &ev)
		e = ev
	case "ItemsValidated":
		var ev ItemsValidated
		err = json.Unmarshal(rec.Payload, &ev)
		e = ev
	case "PromotionsCalculated":
		var ev PromotionsCalculated
		err = json.Unmarshal(rec.Payload, &ev)
		e = ev
	case "PromotionApplied":
		var ev PromotionApplied
		err = json.Unmarshal(rec.Payload, &ev)
		e = ev
	case "TipAdded":
		var ev TipAdded
		err = json.Unmarshal(rec.Payload, &ev)
		e = ev
	case "OrderConfirmed":
		var ev OrderConfirmed
		err = json.Unmarshal(rec.Payload, &ev)
		e = ev
	case "OrderCancelled":
		var ev OrderCancelled
		err = json.Unmarshal(rec.Payload, &ev)
		e = ev
	default:
		return nil, fmt.Errorf("unknown event type in stream: %s", rec.EventType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", rec.EventType, err)
	}
	return e, nil
}
