package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

func started(orderUUID string) entity.Event {
	return entity.OrderStarted{OrderUUID: orderUUID, StaffID: "staff-1", LocationID: "loc-1", OccurredAt: time.Now()}
}

func itemsAdded(orderUUID string) entity.Event {
	return entity.ItemsAddedToOrder{
		OrderUUID:  orderUUID,
		Items:      []entity.OrderLine{{ItemID: "item-coffee", Quantity: 1}},
		OccurredAt: time.Now(),
	}
}

func TestSaveEventsAssignsConsecutiveVersions(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()

	records, err := store.SaveEvents(ctx, "order-1", "Order", 0, []entity.Event{started("order-1"), itemsAdded("order-1")})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Version)
	assert.Equal(t, 2, records[1].Version)
	assert.Equal(t, "OrderStarted", records[0].EventType)
	assert.Equal(t, "ItemsAddedToOrder", records[1].EventType)

	records, err = store.SaveEvents(ctx, "order-1", "Order", 2, []entity.Event{itemsAdded("order-1")})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Version)
}

func TestSaveEventsRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()

	_, err := store.SaveEvents(ctx, "order-1", "Order", 0, []entity.Event{started("order-1")})
	require.NoError(t, err)

	// A second writer that rehydrated at version 0 must be rejected.
	_, err = store.SaveEvents(ctx, "order-1", "Order", 0, []entity.Event{itemsAdded("order-1")})
	require.Error(t, err)
	assert.True(t, repository.IsConcurrencyConflict(err))

	var cc *repository.ConcurrencyConflictError
	require.ErrorAs(t, err, &cc)
	assert.Equal(t, "order-1", cc.StreamID)
	assert.Equal(t, 0, cc.Expected)
	assert.Equal(t, 1, cc.Actual)

	// The conflicting append must not have left partial writes behind.
	loaded, err := store.LoadEvents(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}

func TestLoadEventsPreservesAppendOrder(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()

	_, err := store.SaveEvents(ctx, "order-1", "Order", 0, []entity.Event{started("order-1")})
	require.NoError(t, err)
	_, err = store.SaveEvents(ctx, "order-1", "Order", 1, []entity.Event{itemsAdded("order-1"), itemsAdded("order-1")})
	require.NoError(t, err)

	loaded, err := store.LoadEvents(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i, rec := range loaded {
		assert.Equal(t, i+1, rec.Version)
		assert.Equal(t, "order-1", rec.StreamID)
	}
}

func TestStreamsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()

	_, err := store.SaveEvents(ctx, "order-1", "Order", 0, []entity.Event{started("order-1")})
	require.NoError(t, err)

	// An empty stream loads empty and accepts expected version 0.
	loaded, err := store.LoadEvents(ctx, "order-2")
	require.NoError(t, err)
	assert.Empty(t, loaded)

	_, err = store.SaveEvents(ctx, "order-2", "Order", 0, []entity.Event{started("order-2")})
	require.NoError(t, err)
}

func TestSaveEventsNoopOnEmptyBatch(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()

	records, err := store.SaveEvents(ctx, "order-1", "Order", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
