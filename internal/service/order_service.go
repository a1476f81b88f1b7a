package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/projection"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

// maxConflictRetries bounds the transparent reload-and-retry loop on
// optimistic-concurrency conflicts. Conflicts are expected under concurrent
// device access and are not surfaced to callers unless retries run out.
const maxConflictRetries = 3

// EventPublisher forwards committed event records to the event bus.
type EventPublisher interface {
	PublishRecords(ctx context.Context, records []entity.EventStoreRecord) error
}

// OrderService orchestrates order commands: load history, rehydrate the
// aggregate, run the command, append the recorded events with the version
// read at rehydration, publish the committed records.
type OrderService struct {
	eventStore repository.EventStore
	orderRepo  repository.OrderReadRepository
	menuRepo   repository.MenuRepository
	promoRepo  repository.PromotionRepository
	publisher  EventPublisher
}

func NewOrderService(
	eventStore repository.EventStore,
	orderRepo repository.OrderReadRepository,
	menuRepo repository.MenuRepository,
	promoRepo repository.PromotionRepository,
	publisher EventPublisher,
) *OrderService {
	return &OrderService{
		eventStore: eventStore,
		orderRepo:  orderRepo,
		menuRepo:   menuRepo,
		promoRepo:  promoRepo,
		publisher:  publisher,
	}
}

// StartOrderResult is returned by StartOrder.
type StartOrderResult struct {
	OrderUUID string `json:"order_uuid"`
	ProcessID string `json:"process_id"`
	NextStep  string `json:"next_step"`
}

// StartOrder opens a new order stream. The process id correlates the
// multi-request take-order workflow; one is generated when the client does
// not supply its own.
func (s *OrderService) StartOrder(ctx context.Context, staffID, locationID string, tableNumber int, processID string) (*StartOrderResult, error) {
	orderUUID := uuid.NewString()
	if processID == "" {
		processID = uuid.NewString()
	}
	slog.Info("Service: Starting order", "order_uuid", orderUUID, "staff_id", staffID, "location_id", locationID)

	_, _, err := s.execute(ctx, orderUUID, false, func(a *entity.OrderAggregate) error {
		return a.Start(staffID, locationID, tableNumber)
	})
	if err != nil {
		return nil, err
	}

	return &StartOrderResult{
		OrderUUID: orderUUID,
		ProcessID: processID,
		NextStep:  "add_items",
	}, nil
}

// AddItems appends line items to an order.
func (s *OrderService) AddItems(ctx context.Context, orderUUID string, lines []entity.OrderLine) (*entity.OrderAggregate, error) {
	slog.Info("Service: Adding items", "order_uuid", orderUUID, "items", len(lines))

	agg, _, err := s.execute(ctx, orderUUID, true, func(a *entity.OrderAggregate) error {
		catalog, err := s.menuRepo.FindByIDs(ctx, lineItemIDs(lines))
		if err != nil {
			return fmt.Errorf("failed to load menu items: %w", err)
		}
		return a.AddItems(lines, catalog)
	})
	return agg, err
}

// ValidateItems checks every line item against the catalog and advances the
// order to items_validated.
func (s *OrderService) ValidateItems(ctx context.Context, orderUUID string) error {
	_, _, err := s.execute(ctx, orderUUID, true, func(a *entity.OrderAggregate) error {
		catalog, err := s.menuRepo.FindByIDs(ctx, lineItemIDs(a.Items))
		if err != nil {
			return fmt.Errorf("failed to load menu items: %w", err)
		}
		return a.ValidateItems(catalog)
	})
	return err
}

// CalculatePromotions prices the cart and returns the computed subtotal.
func (s *OrderService) CalculatePromotions(ctx context.Context, orderUUID string) (int64, error) {
	agg, _, err := s.execute(ctx, orderUUID, true, func(a *entity.OrderAggregate) error {
		catalog, err := s.menuRepo.FindByIDs(ctx, lineItemIDs(a.Items))
		if err != nil {
			return fmt.Errorf("failed to load menu items: %w", err)
		}
		return a.CalculatePromotions(catalog)
	})
	if err != nil {
		return 0, err
	}
	return agg.Subtotal, nil
}

// ApplyPromotion applies a promotion and returns the resulting discount.
func (s *OrderService) ApplyPromotion(ctx context.Context, orderUUID, promotionID string) (int64, error) {
	slog.Info("Service: Applying promotion", "order_uuid", orderUUID, "promotion_id", promotionID)

	promo, err := s.promoRepo.FindByID(ctx, promotionID)
	if errors.Is(err, repository.ErrPromotionNotFound) {
		return 0, entity.ValidationErrors{{Field: "promotion_id", Message: fmt.Sprintf("unknown promotion %s", promotionID)}}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load promotion: %w", err)
	}

	agg, _, err := s.execute(ctx, orderUUID, true, func(a *entity.OrderAggregate) error {
		return a.ApplyPromotion(*promo)
	})
	if err != nil {
		return 0, err
	}
	return agg.Discount, nil
}

// AddTip sets the tip amount and returns it.
func (s *OrderService) AddTip(ctx context.Context, orderUUID string, amount int64) (int64, error) {
	agg, _, err := s.execute(ctx, orderUUID, true, func(a *entity.OrderAggregate) error {
		return a.AddTip(amount)
	})
	if err != nil {
		return 0, err
	}
	return agg.Tip, nil
}

// ConfirmResult is returned by Confirm.
type ConfirmResult struct {
	Status          entity.Status        `json:"status"`
	OrderNumber     string               `json:"order_number"`
	PrintData       projection.PrintData `json:"print_data"`
	KitchenNotified bool                 `json:"kitchen_notified"`
}

// Confirm finalizes the order. The order number is derived deterministically
// from the confirmation event so this path and the projector agree without
// coordination.
func (s *OrderService) Confirm(ctx context.Context, orderUUID, paymentMethod string) (*ConfirmResult, error) {
	slog.Info("Service: Confirming order", "order_uuid", orderUUID, "payment_method", paymentMethod)

	agg, committed, err := s.execute(ctx, orderUUID, true, func(a *entity.OrderAggregate) error {
		return a.Confirm(paymentMethod)
	})
	if err != nil {
		return nil, err
	}

	var confirmed entity.OrderConfirmed
	for _, rec := range committed {
		if rec.EventType == confirmed.EventType() {
			e, err := entity.DecodeEvent(rec)
			if err != nil {
				return nil, err
			}
			confirmed = e.(entity.OrderConfirmed)
		}
	}

	orderNumber := projection.OrderNumber(orderUUID, confirmed.OccurredAt)
	catalog, err := s.menuRepo.FindByIDs(ctx, lineItemIDs(agg.Items))
	if err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}

	return &ConfirmResult{
		Status:          agg.Status,
		OrderNumber:     orderNumber,
		PrintData:       projection.BuildPrintData(orderNumber, agg, catalog),
		KitchenNotified: true,
	}, nil
}

// Cancel abandons the order.
func (s *OrderService) Cancel(ctx context.Context, orderUUID, reason string) error {
	slog.Info("Service: Cancelling order", "order_uuid", orderUUID, "reason", reason)

	_, _, err := s.execute(ctx, orderUUID, true, func(a *entity.OrderAggregate) error {
		return a.Cancel(reason)
	})
	return err
}

// GetAggregate rehydrates the order aggregate from its event stream.
func (s *OrderService) GetAggregate(ctx context.Context, orderUUID string) (*entity.OrderAggregate, error) {
	records, err := s.eventStore.LoadEvents(ctx, orderUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	if len(records) == 0 {
		return nil, repository.ErrOrderNotFound
	}
	agg := entity.NewOrderAggregate(orderUUID)
	if err := agg.Rehydrate(records); err != nil {
		return nil, fmt.Errorf("failed to rehydrate order aggregate: %w", err)
	}
	return agg, nil
}

// GetOrder returns the projection row for an order.
func (s *OrderService) GetOrder(ctx context.Context, orderUUID string) (*entity.Order, error) {
	return s.orderRepo.Get(ctx, orderUUID)
}

// GetRecentOrders returns the latest orders from the read model.
func (s *OrderService) GetRecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.orderRepo.FindRecent(ctx, limit)
}

// GetMenu returns the menu catalog.
func (s *OrderService) GetMenu(ctx context.Context) ([]entity.MenuItem, error) {
	return s.menuRepo.FindAll(ctx)
}

// execute runs one retrieve → command → persist cycle, reloading and
// retrying on concurrency conflicts. Each attempt re-validates the command
// against fresh state, so a retried writer never appends against stale
// assumptions.
func (s *OrderService) execute(ctx context.Context, orderUUID string, requireExisting bool, cmd func(*entity.OrderAggregate) error) (*entity.OrderAggregate, []entity.EventStoreRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		records, err := s.eventStore.LoadEvents(ctx, orderUUID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load order history: %w", err)
		}
		if requireExisting && len(records) == 0 {
			return nil, nil, repository.ErrOrderNotFound
		}

		agg := entity.NewOrderAggregate(orderUUID)
		if err := agg.Rehydrate(records); err != nil {
			return nil, nil, fmt.Errorf("failed to rehydrate order aggregate: %w", err)
		}

		if err := cmd(agg); err != nil {
			return nil, nil, err
		}

		committed, err := s.eventStore.SaveEvents(ctx, orderUUID, "order", agg.CommittedVersion(), agg.UncommittedEvents())
		if err != nil {
			if repository.IsConcurrencyConflict(err) {
				lastErr = err
				slog.Warn("Concurrency conflict, reloading and retrying", "order_uuid", orderUUID, "attempt", attempt+1)
				continue
			}
			return nil, nil, fmt.Errorf("failed to append order events: %w", err)
		}
		agg.ClearUncommitted()

		if len(committed) > 0 && s.publisher != nil {
			if err := s.publisher.PublishRecords(ctx, committed); err != nil {
				slog.Error("Failed to publish committed events", "order_uuid", orderUUID, "err", err)
			}
		}
		return agg, committed, nil
	}
	return nil, nil, lastErr
}

func lineItemIDs(lines []entity.OrderLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ItemID]; ok {
			continue
		}
		seen[line.ItemID] = struct{}{}
		ids = append(ids, line.ItemID)
	}
	return ids
}
