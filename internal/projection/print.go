package projection

import (
	"time"

	"github.com/tablestack/resto-pos/backend/internal/entity"
)

// PrintLine is one receipt line.
type PrintLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

// PrintData is the print-ready receipt payload handed to the (external)
// print spooler when an order is confirmed. Money in minor currency units.
type PrintData struct {
	OrderNumber   string      `json:"order_number"`
	OrderUUID     string      `json:"order_uuid"`
	TableNumber   int         `json:"table_number"`
	Lines         []PrintLine `json:"lines"`
	Subtotal      int64       `json:"subtotal"`
	Discount      int64       `json:"discount"`
	Tip           int64       `json:"tip"`
	Total         int64       `json:"total"`
	PaymentMethod string      `json:"payment_method"`
}

// BuildPrintData assembles the receipt for a confirmed order. Item names and
// unit prices come from the catalog; unknown items print by id so a late
// menu edit cannot lose a receipt.
func BuildPrintData(orderNumber string, agg *entity.OrderAggregate, catalog map[string]entity.MenuItem) PrintData {
	lines := make([]PrintLine, 0, len(agg.Items))
	for _, l := range agg.Items {
		name := l.ItemID
		var unitPrice int64
		if item, ok := catalog[l.ItemID]; ok {
			name = item.Name
			unitPrice = item.Price
		}
		lines = append(lines, PrintLine{
			Name:      name,
			Quantity:  l.Quantity,
			UnitPrice: unitPrice,
			LineTotal: unitPrice * int64(l.Quantity),
		})
	}
	return PrintData{
		OrderNumber:   orderNumber,
		OrderUUID:     agg.ID,
		TableNumber:   agg.TableNumber,
		Lines:         lines,
		Subtotal:      agg.Subtotal,
		Discount:      agg.Discount,
		Tip:           agg.Tip,
		Total:         agg.Total(),
		PaymentMethod: agg.PaymentMethod,
	}
}

// KitchenLine is one item on a kitchen ticket.
type KitchenLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// KitchenTicket is the signal emitted to the kitchen display when an order
// is confirmed.
type KitchenTicket struct {
	OrderNumber string        `json:"order_number"`
	OrderUUID   string        `json:"order_uuid"`
	TableNumber int           `json:"table_number"`
	Items       []KitchenLine `json:"items"`
	ConfirmedAt time.Time     `json:"confirmed_at"`
}
