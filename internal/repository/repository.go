package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tablestack/resto-pos/backend/internal/entity"
)

// ErrOrderNotFound is returned when an order stream has no events, or when a
// projection row does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrPromotionNotFound is returned when a promotion id is unknown.
var ErrPromotionNotFound = errors.New("promotion not found")

// ConcurrencyConflictError is returned by SaveEvents when the expected stream
// version does not match the stored one. The caller is expected to reload the
// aggregate and retry; the error never reaches end users under normal load.
type ConcurrencyConflictError struct {
	StreamID string
	Expected int
	Actual   int
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict on stream %s: expected version %d, got %d", e.StreamID, e.Expected, e.Actual)
}

// IsConcurrencyConflict reports whether err is a version-mismatch append.
func IsConcurrencyConflict(err error) bool {
	var cc *ConcurrencyConflictError
	return errors.As(err, &cc)
}

// EventStore handles appending and loading events for an aggregate stream.
// SaveEvents returns the committed records with their assigned versions so
// the caller can publish them downstream.
type EventStore interface {
	SaveEvents(ctx context.Context, streamID string, streamType string, expectedVersion int, events []entity.Event) ([]entity.EventStoreRecord, error)
	LoadEvents(ctx context.Context, streamID string) ([]entity.EventStoreRecord, error)
}

// OrderReadRepository maintains the order projection (read model).
type OrderReadRepository interface {
	Save(ctx context.Context, order *entity.Order) error
	Get(ctx context.Context, uuid string) (*entity.Order, error)
	Delete(ctx context.Context, uuid string) error
	FindRecent(ctx context.Context, limit int) ([]entity.Order, error)
}

// MenuRepository handles the menu item catalog.
type MenuRepository interface {
	FindAll(ctx context.Context) ([]entity.MenuItem, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]entity.MenuItem, error)
	// Seed inserts initial menu items if none exist.
	Seed(ctx context.Context, items []entity.MenuItem) error
}

// PromotionRepository handles promotion definitions.
type PromotionRepository interface {
	FindActive(ctx context.Context) ([]entity.Promotion, error)
	FindByID(ctx context.Context, id string) (*entity.Promotion, error)
	// Seed inserts initial promotions if none exist.
	Seed(ctx context.Context, promos []entity.Promotion) error
}
