package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/process"
	"github.com/tablestack/resto-pos/backend/internal/projection"
	"github.com/tablestack/resto-pos/backend/internal/repository/memory"
	"github.com/tablestack/resto-pos/backend/internal/service"
)

func TestBusRoundTrip(t *testing.T) {
	ctx := context.Background()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	msgs, err := pubSub.Subscribe(ctx, TopicOrderEvents)
	require.NoError(t, err)

	store := memory.NewEventStore()
	records, err := store.SaveEvents(ctx, "order-1", "order", 0, []entity.Event{
		entity.OrderStarted{OrderUUID: "order-1", StaffID: "staff-1", LocationID: "loc-1", OccurredAt: time.Now()},
		entity.ItemsAddedToOrder{OrderUUID: "order-1", Items: []entity.OrderLine{{ItemID: "item-coffee", Quantity: 1}}, OccurredAt: time.Now()},
	})
	require.NoError(t, err)

	bus := NewBus(pubSub)
	require.NoError(t, bus.PublishRecords(ctx, records))

	for i := range records {
		select {
		case msg := <-msgs:
			assert.Equal(t, records[i].ID, msg.UUID)
			assert.Equal(t, records[i].EventType, msg.Metadata.Get(MetaEventType))
			assert.Equal(t, "order-1", msg.Metadata.Get(MetaStreamID))

			decoded, err := DecodeRecord(msg)
			require.NoError(t, err)
			assert.Equal(t, records[i].Version, decoded.Version)
			assert.Equal(t, records[i].Payload, decoded.Payload)
			msg.Ack()
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d never delivered", i)
		}
	}
}

// The full async path: command commits events, the bus publishes them, the
// router drives the projector and the process manager off the subscription.
func TestRouterDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	menu := memory.NewMenuRepository()
	require.NoError(t, menu.Seed(ctx, []entity.MenuItem{
		{ID: "item-coffee", Name: "Coffee", Price: 10000, Available: true},
	}))
	promos := memory.NewPromotionRepository()

	eventStore := memory.NewEventStore()
	orders := memory.NewOrderReadRepository()
	projector := projection.NewOrderProjector(orders, menu, eventStore, nil)

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NopLogger{})
	defer pubSub.Close()

	svc := service.NewOrderService(eventStore, orders, menu, promos, NewBus(pubSub))
	manager := process.NewTakeOrderManager(svc, process.NewMemoryStore())

	router, err := BuildRouter(watermill.NopLogger{}, pubSub, projector, manager, nil)
	require.NoError(t, err)
	go func() {
		_ = router.Run(ctx)
	}()
	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router never came up")
	}
	defer router.Close()

	started, err := svc.StartOrder(ctx, "staff-1", "loc-1", 4, "")
	require.NoError(t, err)
	_, err = svc.AddItems(ctx, started.OrderUUID, []entity.OrderLine{{ItemID: "item-coffee", Quantity: 2}})
	require.NoError(t, err)

	// The process manager picks up ItemsAddedToOrder from the bus and runs
	// validation and pricing; the projector folds everything into the row.
	require.Eventually(t, func() bool {
		row, err := orders.Get(ctx, started.OrderUUID)
		return err == nil && row.Status == entity.StatusPromotionsCalculated
	}, 5*time.Second, 20*time.Millisecond)

	row, err := orders.Get(ctx, started.OrderUUID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), row.Subtotal)
	assert.Equal(t, int64(20000), row.Total)
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx := context.Background()
	msgs, err := pubSub.Subscribe(ctx, TopicOrderEvents)
	require.NoError(t, err)

	store := memory.NewEventStore()
	records, err := store.SaveEvents(ctx, "order-1", "order", 0, []entity.Event{
		entity.OrderStarted{OrderUUID: "order-1", StaffID: "staff-1", LocationID: "loc-1", OccurredAt: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, NewBus(pubSub).PublishRecords(ctx, records))

	select {
	case msg := <-msgs:
		msg.Payload = []byte("{not json")
		_, err := DecodeRecord(msg)
		require.Error(t, err)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("message never delivered")
	}
}
