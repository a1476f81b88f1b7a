package entity

import (
	"fmt"
	"time"
)

// OrderAggregate manages the state of an order by replaying events. The same
// ApplyEvent reducer runs for live command processing and for replay from
// storage, so the two paths cannot diverge.
type OrderAggregate struct {
	AggregateBase
	Status             Status
	StaffID            string
	LocationID         string
	TableNumber        int
	Items              []OrderLine
	Subtotal           int64
	Discount           int64
	Tip                int64
	AppliedPromotionID string
	PaymentMethod      string
	CancellationReason string
	StartedAt          time.Time
}

// NewOrderAggregate creates an empty aggregate ready for rehydration.
func NewOrderAggregate(id string) *OrderAggregate {
	return &OrderAggregate{
		AggregateBase: AggregateBase{ID: id, Version: 0},
		Status:        StatusUninitialized,
	}
}

// Total is subtotal minus discount plus tip, in minor currency units.
func (a *OrderAggregate) Total() int64 {
	return a.Subtotal - a.Discount + a.Tip
}

// ApplyEvent mutates the aggregate state based on the event. Events carry an
// occurred-at timestamp that may lag the append time (offline clients); the
// reducer ignores it, ordering is by append sequence only.
func (a *OrderAggregate) ApplyEvent(e Event) error {
	switch e := e.(type) {
	case OrderStarted:
		a.Status = StatusStarted
		a.StaffID = e.StaffID
		a.LocationID = e.LocationID
		a.TableNumber = e.TableNumber
		if a.StartedAt.IsZero() {
			a.StartedAt = e.OccurredAt
		}
	case ItemsAddedToOrder:
		a.Items = append(a.Items, e.Items...)
		a.Status = StatusItemsAdded
	case ItemsValidated:
		a.Status = StatusItemsValidated
	case PromotionsCalculated:
		a.Subtotal = e.Subtotal
		a.Status = StatusPromotionsCalculated
	case PromotionApplied:
		a.AppliedPromotionID = e.PromotionID
		a.Discount = e.Discount
	case TipAdded:
		a.Tip = e.Amount
	case OrderConfirmed:
		a.PaymentMethod = e.PaymentMethod
		a.Status = StatusConfirmed
	case OrderCancelled:
		a.CancellationReason = e.Reason
		a.Status = StatusCancelled
	default:
		return fmt.Errorf("unknown event type for OrderAggregate: %s", e.EventType())
	}
	// Increment version after applying
	a.Version++
	return nil
}

// Rehydrate rebuilds the aggregate from a list of records, in append order.
func (a *OrderAggregate) Rehydrate(records []EventStoreRecord) error {
	for _, rec := range records {
		e, err := DecodeEvent(rec)
		if err != nil {
			return err
		}
		if err := a.ApplyEvent(e); err != nil {
			return fmt.Errorf("failed to apply event from stream: %w", err)
		}
	}
	// Version is updated in ApplyEvent
	return nil
}

// recordThat applies a freshly recorded event and queues it for persistence.
func (a *OrderAggregate) recordThat(e Event) error {
	if err := a.ApplyEvent(e); err != nil {
		return err
	}
	a.markUncommitted(e)
	return nil
}
