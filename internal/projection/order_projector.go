// Package projection maintains the order read model by folding committed
// events, and produces the confirmation side-effect artifacts (kitchen
// ticket, print payload). The read model is always rebuildable from the
// event stream and is never written to by commands.
package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

// KitchenNotifier delivers kitchen tickets to the (external) kitchen
// display.
type KitchenNotifier interface {
	NotifyKitchen(ctx context.Context, ticket KitchenTicket) error
}

// OrderProjector keeps one order row per aggregate up to date with the
// committed event stream.
type OrderProjector struct {
	orders     repository.OrderReadRepository
	menu       repository.MenuRepository
	eventStore repository.EventStore
	kitchen    KitchenNotifier // optional
}

func NewOrderProjector(
	orders repository.OrderReadRepository,
	menu repository.MenuRepository,
	eventStore repository.EventStore,
	kitchen KitchenNotifier,
) *OrderProjector {
	return &OrderProjector{
		orders:     orders,
		menu:       menu,
		eventStore: eventStore,
		kitchen:    kitchen,
	}
}

// HandleRecord folds one committed record into the projection row. Safe
// under at-least-once delivery: records at or below the row's version are
// skipped.
func (p *OrderProjector) HandleRecord(ctx context.Context, rec entity.EventStoreRecord) error {
	row, err := p.orders.Get(ctx, rec.StreamID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		row = &entity.Order{UUID: rec.StreamID}
	} else if err != nil {
		return fmt.Errorf("failed to load order projection: %w", err)
	}

	if rec.Version <= row.Version {
		slog.Debug("Projection: Skipping already applied event", "order_uuid", rec.StreamID, "version", rec.Version)
		return nil
	}

	event, err := entity.DecodeEvent(rec)
	if err != nil {
		return err
	}

	if err := applyToRow(row, event, rec); err != nil {
		return err
	}

	if err := p.orders.Save(ctx, row); err != nil {
		return err
	}

	if confirmed, ok := event.(entity.OrderConfirmed); ok {
		p.notifyKitchen(ctx, row, confirmed)
	}
	return nil
}

// Rebuild reconstructs the projection row from scratch by replaying the full
// event stream, producing the same row incremental application would have.
// Used for projection repair.
func (p *OrderProjector) Rebuild(ctx context.Context, orderUUID string) error {
	records, err := p.eventStore.LoadEvents(ctx, orderUUID)
	if err != nil {
		return fmt.Errorf("failed to load events for rebuild: %w", err)
	}
	if len(records) == 0 {
		return repository.ErrOrderNotFound
	}

	if err := p.orders.Delete(ctx, orderUUID); err != nil {
		return err
	}

	row := &entity.Order{UUID: orderUUID}
	for _, rec := range records {
		event, err := entity.DecodeEvent(rec)
		if err != nil {
			return err
		}
		if err := applyToRow(row, event, rec); err != nil {
			return err
		}
	}
	return p.orders.Save(ctx, row)
}

func (p *OrderProjector) notifyKitchen(ctx context.Context, row *entity.Order, confirmed entity.OrderConfirmed) {
	if p.kitchen == nil {
		return
	}

	items := make([]KitchenLine, 0, len(row.Items))
	catalog, err := p.menu.FindByIDs(ctx, itemIDs(row.Items))
	if err != nil {
		slog.Error("Projection: Failed to load menu for kitchen ticket", "order_uuid", row.UUID, "err", err)
		catalog = nil
	}
	for _, l := range row.Items {
		name := l.ItemID
		if item, ok := catalog[l.ItemID]; ok {
			name = item.Name
		}
		items = append(items, KitchenLine{Name: name, Quantity: l.Quantity})
	}

	ticket := KitchenTicket{
		OrderNumber: row.OrderNumber,
		OrderUUID:   row.UUID,
		TableNumber: row.TableNumber,
		Items:       items,
		ConfirmedAt: confirmed.OccurredAt,
	}
	if err := p.kitchen.NotifyKitchen(ctx, ticket); err != nil {
		slog.Error("Projection: Failed to notify kitchen", "order_uuid", row.UUID, "err", err)
	}
}

// applyToRow is the pure read-side reducer. It mirrors the aggregate reducer
// and additionally maintains the denormalized fields the query side wants.
func applyToRow(row *entity.Order, event entity.Event, rec entity.EventStoreRecord) error {
	switch e := event.(type) {
	case entity.OrderStarted:
		row.Status = entity.StatusStarted
		row.StaffID = e.StaffID
		row.LocationID = e.LocationID
		row.TableNumber = e.TableNumber
		row.CreatedAt = e.OccurredAt
	case entity.ItemsAddedToOrder:
		row.Items = append(row.Items, e.Items...)
		row.Status = entity.StatusItemsAdded
	case entity.ItemsValidated:
		row.Status = entity.StatusItemsValidated
	case entity.PromotionsCalculated:
		row.Subtotal = e.Subtotal
		row.Status = entity.StatusPromotionsCalculated
	case entity.PromotionApplied:
		row.AppliedPromotionID = e.PromotionID
		row.Discount = e.Discount
	case entity.TipAdded:
		row.Tip = e.Amount
	case entity.OrderConfirmed:
		row.PaymentMethod = e.PaymentMethod
		row.Status = entity.StatusConfirmed
		row.OrderNumber = OrderNumber(row.UUID, e.OccurredAt)
	case entity.OrderCancelled:
		row.CancellationReason = e.Reason
		row.Status = entity.StatusCancelled
	default:
		return fmt.Errorf("unknown event type for order projection: %s", event.EventType())
	}
	row.Total = row.Subtotal - row.Discount + row.Tip
	row.Version = rec.Version
	row.UpdatedAt = rec.CreatedAt
	return nil
}

func itemIDs(lines []entity.OrderLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ItemID]; ok {
			continue
		}
		seen[l.ItemID] = struct{}{}
		ids = append(ids, l.ItemID)
	}
	return ids
}
