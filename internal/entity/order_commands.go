package entity

import (
	"fmt"
	"time"
)

// Command methods. Each validates against the current reconstructed state,
// records one event via the shared reducer and queues it for the caller to
// persist. No storage or side effects happen here.

// Start opens a new order. Fails if the aggregate already has history, which
// makes a retried start deterministic without a deduplication table.
func (a *OrderAggregate) Start(staffID, locationID string, tableNumber int) error {
	if a.Status != StatusUninitialized {
		return newTransitionError("start order", a.Status)
	}
	var errs ValidationErrors
	if staffID == "" {
		errs = append(errs, FieldError{Field: "staff_id", Message: "staff id is required"})
	}
	if locationID == "" {
		errs = append(errs, FieldError{Field: "location_id", Message: "location id is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return a.recordThat(OrderStarted{
		OrderUUID:   a.ID,
		StaffID:     staffID,
		LocationID:  locationID,
		TableNumber: tableNumber,
		OccurredAt:  time.Now(),
	})
}

// AddItems appends line items to the cart. Every line must reference a known,
// available menu item with a positive quantity.
func (a *OrderAggregate) AddItems(lines []OrderLine, catalog map[string]MenuItem) error {
	if a.Status != StatusStarted && a.Status != StatusItemsAdded {
		return newTransitionError("add items", a.Status)
	}
	var errs ValidationErrors
	if len(lines) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "at least one item is required"})
		return errs
	}
	for i, line := range lines {
		field := fmt.Sprintf("items.%d", i)
		if line.Quantity <= 0 {
			errs = append(errs, FieldError{Field: field, Message: "quantity must be positive"})
			continue
		}
		item, ok := catalog[line.ItemID]
		if !ok {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("unknown menu item %s", line.ItemID)})
			continue
		}
		if !item.Available {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("menu item %s is not available", line.ItemID)})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return a.recordThat(ItemsAddedToOrder{
		OrderUUID:  a.ID,
		Items:      lines,
		OccurredAt: time.Now(),
	})
}

// ValidateItems re-checks every accumulated line against the catalog at
// validation time. Items can go unavailable between add and validate.
func (a *OrderAggregate) ValidateItems(catalog map[string]MenuItem) error {
	if a.Status != StatusItemsAdded {
		return newTransitionError("validate items", a.Status)
	}
	var errs ValidationErrors
	for i, line := range a.Items {
		field := fmt.Sprintf("items.%d", i)
		item, ok := catalog[line.ItemID]
		if !ok {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("unknown menu item %s", line.ItemID)})
			continue
		}
		if !item.Available {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("menu item %s is not available", line.ItemID)})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return a.recordThat(ItemsValidated{
		OrderUUID:  a.ID,
		OccurredAt: time.Now(),
	})
}

// CalculatePromotions prices the cart against the catalog and records the
// subtotal in minor currency units.
func (a *OrderAggregate) CalculatePromotions(catalog map[string]MenuItem) error {
	if a.Status != StatusItemsValidated {
		return newTransitionError("calculate promotions", a.Status)
	}
	var subtotal int64
	for _, line := range a.Items {
		item, ok := catalog[line.ItemID]
		if !ok {
			return ValidationErrors{{Field: "items", Message: fmt.Sprintf("unknown menu item %s", line.ItemID)}}
		}
		subtotal += item.Price * int64(line.Quantity)
	}
	return a.recordThat(PromotionsCalculated{
		OrderUUID:  a.ID,
		Subtotal:   subtotal,
		OccurredAt: time.Now(),
	})
}

// ApplyPromotion applies a promotion to the cart. The discount is computed
// once here from the current subtotal. Before CalculatePromotions has run the
// subtotal is still zero, so a percentage promotion applied at items_validated
// discounts nothing and any minimum-subtotal threshold rejects the promotion.
func (a *OrderAggregate) ApplyPromotion(promo Promotion) error {
	if a.Status != StatusPromotionsCalculated && a.Status != StatusItemsValidated {
		return newTransitionError("apply promotion", a.Status)
	}
	if !promo.Active {
		return ValidationErrors{{Field: "promotion_id", Message: fmt.Sprintf("promotion %s is not active", promo.ID)}}
	}
	if !promo.AppliesTo(a.Subtotal) {
		return ValidationErrors{{Field: "promotion_id", Message: fmt.Sprintf("promotion %s does not apply to this order", promo.ID)}}
	}
	return a.recordThat(PromotionApplied{
		OrderUUID:   a.ID,
		PromotionID: promo.ID,
		Discount:    promo.DiscountFor(a.Subtotal),
		OccurredAt:  time.Now(),
	})
}

// AddTip sets the tip. Allowed in any pre-confirmation, non-terminal state.
func (a *OrderAggregate) AddTip(amount int64) error {
	if a.Status == StatusUninitialized || a.Status.IsTerminal() {
		return newTransitionError("add tip", a.Status)
	}
	if amount < 0 {
		return ValidationErrors{{Field: "tip_amount", Message: "tip must not be negative"}}
	}
	return a.recordThat(TipAdded{
		OrderUUID:  a.ID,
		Amount:     amount,
		OccurredAt: time.Now(),
	})
}

// Confirm finalizes the order for the kitchen.
func (a *OrderAggregate) Confirm(paymentMethod string) error {
	if a.Status != StatusPromotionsCalculated && a.Status != StatusItemsValidated {
		return newTransitionError("confirm order", a.Status)
	}
	var errs ValidationErrors
	if len(a.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "order has no items"})
	}
	if paymentMethod == "" {
		errs = append(errs, FieldError{Field: "payment_method", Message: "payment method is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return a.recordThat(OrderConfirmed{
		OrderUUID:     a.ID,
		PaymentMethod: paymentMethod,
		OccurredAt:    time.Now(),
	})
}

// Cancel abandons the order from any non-terminal state.
func (a *OrderAggregate) Cancel(reason string) error {
	if a.Status == StatusUninitialized || a.Status.IsTerminal() {
		return newTransitionError("cancel order", a.Status)
	}
	if reason == "" {
		return ValidationErrors{{Field: "reason", Message: "cancellation reason is required"}}
	}
	return a.recordThat(OrderCancelled{
		OrderUUID:  a.ID,
		Reason:     reason,
		OccurredAt: time.Now(),
	})
}
