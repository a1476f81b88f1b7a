package entity

import (
	"time"
)

// MenuItem represents a sellable item in the menu catalog. Price is in minor
// currency units.
type MenuItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
}

// OrderLine is a line item within an order.
type OrderLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Promotion types.
const (
	PromotionPercentage  = "percentage"
	PromotionFixedAmount = "fixed_amount"
)

// Promotion is a discount definition from the promotion catalog.
type Promotion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`  // "percentage" or "fixed_amount"
	Value       int64  `json:"value"` // percent for percentage, minor units for fixed_amount
	MinSubtotal int64  `json:"min_subtotal"`
	Active      bool   `json:"active"`
}

// DiscountFor computes the discount for a subtotal in minor currency units.
// Percentage discounts use standard rounding: round(subtotal * pct / 100).
func (p Promotion) DiscountFor(subtotal int64) int64 {
	var discount int64
	switch p.Type {
	case PromotionPercentage:
		discount = (subtotal*p.Value + 50) / 100
	case PromotionFixedAmount:
		discount = p.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

// AppliesTo reports whether the promotion can be applied to the given subtotal.
func (p Promotion) AppliesTo(subtotal int64) bool {
	return p.Active && subtotal >= p.MinSubtotal
}

// Order is the read-model row for one order, denormalized for query by uuid.
// It is derived by folding the order's event stream and is always rebuildable.
type Order struct {
	UUID               string      `json:"uuid"`
	Status             Status      `json:"status"`
	StaffID            string      `json:"staff_id"`
	LocationID         string      `json:"location_id"`
	TableNumber        int         `json:"table_number"`
	Items              []OrderLine `json:"items"`
	Subtotal           int64       `json:"subtotal"`
	Discount           int64       `json:"discount"`
	Tip                int64       `json:"tip"`
	Total              int64       `json:"total"`
	AppliedPromotionID string      `json:"applied_promotion_id,omitempty"`
	PaymentMethod      string      `json:"payment_method,omitempty"`
	OrderNumber        string      `json:"order_number,omitempty"`
	CancellationReason string      `json:"cancellation_reason,omitempty"`
	// Version is the stream version of the last event folded into the row.
	// Lets the projector skip duplicate deliveries.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
