// Package process implements the take-order process manager: a reactor that
// watches committed order events and issues the follow-up commands that
// advance the workflow. It never invents business data, it only sequences
// calls against the aggregate.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tablestack/resto-pos/backend/internal/entity"
)

// Workflow steps tracked per process.
const (
	StepItemsValidated       = "items_validated"
	StepPromotionsCalculated = "promotions_calculated"
)

// OrderCommands is the slice of the order service the manager drives.
type OrderCommands interface {
	ValidateItems(ctx context.Context, orderUUID string) error
	CalculatePromotions(ctx context.Context, orderUUID string) (int64, error)
}

// TakeOrderManager coordinates the add-items → validate → price chain. It
// receives each committed event at least once (inline on the request path
// and again via the event bus); duplicate suppression comes from the
// aggregate's own state machine, the Store only tracks progress. Workflow
// state is keyed by the order uuid so the inline and bus paths share one
// record per order.
type TakeOrderManager struct {
	commands OrderCommands
	store    Store
}

func NewTakeOrderManager(commands OrderCommands, store Store) *TakeOrderManager {
	return &TakeOrderManager{commands: commands, store: store}
}

// HandleRecord reacts to one committed event record. ValidationErrors from
// the aggregate halt the chain and are returned to the caller; an
// InvalidStateTransitionError means another delivery already advanced the
// order and is treated as a no-op. The delivery is recorded as seen only
// after handling succeeds, so a transient failure stays redeliverable.
func (m *TakeOrderManager) HandleRecord(ctx context.Context, rec entity.EventStoreRecord) error {
	orderUUID := rec.StreamID
	eventKey := fmt.Sprintf("%s:%d", rec.EventType, rec.Version)
	seen, err := m.store.Seen(ctx, orderUUID, eventKey)
	if err != nil {
		return err
	}
	if seen {
		slog.Debug("Process: Duplicate delivery, skipping", "order_uuid", orderUUID, "event", eventKey)
		return nil
	}

	switch rec.EventType {
	case "ItemsAddedToOrder":
		if err := m.runTakeOrderSteps(ctx, orderUUID); err != nil {
			return err
		}
	case "OrderConfirmed", "OrderCancelled":
		return m.store.Archive(ctx, orderUUID)
	default:
		return nil
	}
	return m.store.MarkSeen(ctx, orderUUID, eventKey)
}

// OnItemsAdded runs the automatic validate-and-price steps on the request
// path, so the add-items response already reflects the advanced workflow.
// Duplicate invocations are no-ops thanks to the aggregate's guards.
func (m *TakeOrderManager) OnItemsAdded(ctx context.Context, orderUUID string) error {
	return m.runTakeOrderSteps(ctx, orderUUID)
}

func (m *TakeOrderManager) runTakeOrderSteps(ctx context.Context, orderUUID string) error {
	slog.Info("Process: Items added, running validation and pricing", "order_uuid", orderUUID)

	if err := m.commands.ValidateItems(ctx, orderUUID); err != nil {
		if isAlreadyAdvanced(err) {
			slog.Debug("Process: Order already validated", "order_uuid", orderUUID)
		} else {
			// ValidationErrors halt the chain and surface to the caller.
			return err
		}
	} else if err := m.store.MarkStep(ctx, orderUUID, StepItemsValidated); err != nil {
		return err
	}

	if _, err := m.commands.CalculatePromotions(ctx, orderUUID); err != nil {
		if isAlreadyAdvanced(err) {
			slog.Debug("Process: Order already priced", "order_uuid", orderUUID)
			return nil
		}
		return err
	}
	return m.store.MarkStep(ctx, orderUUID, StepPromotionsCalculated)
}

// isAlreadyAdvanced reports whether the command was rejected only because a
// previous delivery already moved the aggregate past the step.
func isAlreadyAdvanced(err error) bool {
	var transition *entity.InvalidStateTransitionError
	return errors.As(err, &transition)
}
