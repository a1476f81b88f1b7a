package entity

// Status is the lifecycle state of an order.
type Status string

const (
	StatusUninitialized        Status = "uninitialized"
	StatusStarted              Status = "started"
	StatusItemsAdded           Status = "items_added"
	StatusItemsValidated       Status = "items_validated"
	StatusPromotionsCalculated Status = "promotions_calculated"
	StatusConfirmed            Status = "confirmed"
	StatusCancelled            Status = "cancelled"
)

// IsTerminal reports whether no further commands may be applied.
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}
