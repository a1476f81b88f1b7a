package projection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository/memory"
)

type fakeKitchen struct {
	mu      sync.Mutex
	tickets []KitchenTicket
}

func (k *fakeKitchen) NotifyKitchen(ctx context.Context, ticket KitchenTicket) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tickets = append(k.tickets, ticket)
	return nil
}

type projectorEnv struct {
	projector *OrderProjector
	orders    *memory.OrderReadRepository
	store     *memory.EventStore
	kitchen   *fakeKitchen
}

func newProjectorEnv(t *testing.T) *projectorEnv {
	t.Helper()
	ctx := context.Background()

	menu := memory.NewMenuRepository()
	require.NoError(t, menu.Seed(ctx, []entity.MenuItem{
		{ID: "item-coffee", Name: "Coffee", Price: 10000, Available: true},
		{ID: "item-cake", Name: "Cake", Price: 10000, Available: true},
		{ID: "item-juice", Name: "Juice", Price: 10000, Available: true},
	}))

	orders := memory.NewOrderReadRepository()
	store := memory.NewEventStore()
	kitchen := &fakeKitchen{}
	return &projectorEnv{
		projector: NewOrderProjector(orders, menu, store, kitchen),
		orders:    orders,
		store:     store,
		kitchen:   kitchen,
	}
}

// confirmedStream appends a full confirmed-order history to the store and
// returns the committed records.
func confirmedStream(t *testing.T, store *memory.EventStore, orderUUID string) []entity.EventStoreRecord {
	t.Helper()
	now := time.Now()
	events := []entity.Event{
		entity.OrderStarted{OrderUUID: orderUUID, StaffID: "staff-1", LocationID: "loc-1", TableNumber: 4, OccurredAt: now},
		entity.ItemsAddedToOrder{OrderUUID: orderUUID, Items: []entity.OrderLine{
			{ItemID: "item-coffee", Quantity: 2},
			{ItemID: "item-cake", Quantity: 1},
			{ItemID: "item-juice", Quantity: 3},
		}, OccurredAt: now},
		entity.ItemsValidated{OrderUUID: orderUUID, OccurredAt: now},
		entity.PromotionsCalculated{OrderUUID: orderUUID, Subtotal: 60000, OccurredAt: now},
		entity.PromotionApplied{OrderUUID: orderUUID, PromotionID: "promo-10", Discount: 6000, OccurredAt: now},
		entity.TipAdded{OrderUUID: orderUUID, Amount: 3000, OccurredAt: now},
		entity.OrderConfirmed{OrderUUID: orderUUID, PaymentMethod: "card", OccurredAt: now},
	}
	records, err := store.SaveEvents(context.Background(), orderUUID, "order", 0, events)
	require.NoError(t, err)
	return records
}

func TestProjectionFoldsFullFlow(t *testing.T) {
	ctx := context.Background()
	env := newProjectorEnv(t)
	orderUUID := "aaaa1111-bbbb-cccc-dddd-eeee22223333"

	for _, rec := range confirmedStream(t, env.store, orderUUID) {
		require.NoError(t, env.projector.HandleRecord(ctx, rec))
	}

	row, err := env.orders.Get(ctx, orderUUID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConfirmed, row.Status)
	assert.Equal(t, "staff-1", row.StaffID)
	assert.Equal(t, 4, row.TableNumber)
	assert.Equal(t, int64(60000), row.Subtotal)
	assert.Equal(t, int64(6000), row.Discount)
	assert.Equal(t, int64(3000), row.Tip)
	assert.Equal(t, int64(57000), row.Total)
	assert.Equal(t, "promo-10", row.AppliedPromotionID)
	assert.Equal(t, "card", row.PaymentMethod)
	assert.Equal(t, 7, row.Version)
	assert.NotEmpty(t, row.OrderNumber)
	assert.Len(t, row.Items, 3)
}

func TestDuplicateDeliveryIsSkipped(t *testing.T) {
	ctx := context.Background()
	env := newProjectorEnv(t)
	orderUUID := "aaaa1111-bbbb-cccc-dddd-eeee22223333"

	records := confirmedStream(t, env.store, orderUUID)
	for _, rec := range records {
		require.NoError(t, env.projector.HandleRecord(ctx, rec))
	}
	before, err := env.orders.Get(ctx, orderUUID)
	require.NoError(t, err)

	// The bus redelivers the whole batch. Every record is at or below the
	// row's version watermark, so nothing changes and no second kitchen
	// ticket goes out.
	for _, rec := range records {
		require.NoError(t, env.projector.HandleRecord(ctx, rec))
	}

	after, err := env.orders.Get(ctx, orderUUID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, env.kitchen.tickets, 1)
}

func TestRebuildMatchesIncremental(t *testing.T) {
	ctx := context.Background()
	env := newProjectorEnv(t)
	orderUUID := "aaaa1111-bbbb-cccc-dddd-eeee22223333"

	for _, rec := range confirmedStream(t, env.store, orderUUID) {
		require.NoError(t, env.projector.HandleRecord(ctx, rec))
	}
	incremental, err := env.orders.Get(ctx, orderUUID)
	require.NoError(t, err)

	require.NoError(t, env.projector.Rebuild(ctx, orderUUID))
	rebuilt, err := env.orders.Get(ctx, orderUUID)
	require.NoError(t, err)

	assert.Equal(t, incremental, rebuilt)
}

func TestRebuildUnknownOrder(t *testing.T) {
	env := newProjectorEnv(t)
	err := env.projector.Rebuild(context.Background(), "no-such-order")
	require.Error(t, err)
}

func TestCancelledOrderRow(t *testing.T) {
	ctx := context.Background()
	env := newProjectorEnv(t)
	orderUUID := "ffff0000-1111-2222-3333-444455556666"
	now := time.Now()

	records, err := env.store.SaveEvents(ctx, orderUUID, "order", 0, []entity.Event{
		entity.OrderStarted{OrderUUID: orderUUID, StaffID: "staff-2", LocationID: "loc-1", OccurredAt: now},
		entity.ItemsAddedToOrder{OrderUUID: orderUUID, Items: []entity.OrderLine{{ItemID: "item-coffee", Quantity: 1}}, OccurredAt: now},
		entity.OrderCancelled{OrderUUID: orderUUID, Reason: "customer left", OccurredAt: now},
	})
	require.NoError(t, err)
	for _, rec := range records {
		require.NoError(t, env.projector.HandleRecord(ctx, rec))
	}

	row, err := env.orders.Get(ctx, orderUUID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, row.Status)
	assert.Equal(t, "customer left", row.CancellationReason)
	assert.Empty(t, row.OrderNumber)
	assert.Empty(t, env.kitchen.tickets)
}

func TestKitchenTicketOnConfirm(t *testing.T) {
	ctx := context.Background()
	env := newProjectorEnv(t)
	orderUUID := "aaaa1111-bbbb-cccc-dddd-eeee22223333"

	for _, rec := range confirmedStream(t, env.store, orderUUID) {
		require.NoError(t, env.projector.HandleRecord(ctx, rec))
	}

	require.Len(t, env.kitchen.tickets, 1)
	ticket := env.kitchen.tickets[0]
	assert.Equal(t, orderUUID, ticket.OrderUUID)
	assert.Equal(t, 4, ticket.TableNumber)
	assert.NotEmpty(t, ticket.OrderNumber)
	require.Len(t, ticket.Items, 3)
	assert.Equal(t, KitchenLine{Name: "Coffee", Quantity: 2}, ticket.Items[0])
}

func TestOrderNumberFormat(t *testing.T) {
	confirmedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	got := OrderNumber("0d6cfd52-9adc-4b02-9bf8-0f0e8a7d2f5a", confirmedAt)
	assert.Equal(t, "ORD-20260314-0D6CFD", got)

	// Deterministic: command path and projector must derive the same number.
	assert.Equal(t, got, OrderNumber("0d6cfd52-9adc-4b02-9bf8-0f0e8a7d2f5a", confirmedAt))

	// Timezone of the input does not change the date component.
	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t, got, OrderNumber("0d6cfd52-9adc-4b02-9bf8-0f0e8a7d2f5a", confirmedAt.In(est)))
}
