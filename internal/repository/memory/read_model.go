package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

// OrderReadRepository is an in-memory order projection store.
type OrderReadRepository struct {
	mu     sync.RWMutex
	orders map[string]entity.Order
}

func NewOrderReadRepository() *OrderReadRepository {
	return &OrderReadRepository{orders: make(map[string]entity.Order)}
}

func (r *OrderReadRepository) Save(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.UUID] = *order
	return nil
}

func (r *OrderReadRepository) Get(ctx context.Context, uuid string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[uuid]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (r *OrderReadRepository) Delete(ctx context.Context, uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, uuid)
	return nil
}

func (r *OrderReadRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]entity.Order, 0, len(r.orders))
	for _, o := range r.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
