package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

// MenuRepository is an in-memory menu catalog.
type MenuRepository struct {
	mu    sync.RWMutex
	items map[string]entity.MenuItem
}

func NewMenuRepository() *MenuRepository {
	return &MenuRepository{items: make(map[string]entity.MenuItem)}
}

func (r *MenuRepository) FindAll(ctx context.Context) ([]entity.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]entity.MenuItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *MenuRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]entity.MenuItem, len(ids))
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (r *MenuRepository) Seed(ctx context.Context, items []entity.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) > 0 {
		return nil
	}
	for _, item := range items {
		r.items[item.ID] = item
	}
	return nil
}

// SetAvailability flips an item's availability flag. Test hook for the
// validation-gate scenario; the Postgres catalog is managed externally.
func (r *MenuRepository) SetAvailability(id string, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[id]; ok {
		item.Available = available
		r.items[id] = item
	}
}

// PromotionRepository is an in-memory promotion catalog.
type PromotionRepository struct {
	mu     sync.RWMutex
	promos map[string]entity.Promotion
}

func NewPromotionRepository() *PromotionRepository {
	return &PromotionRepository{promos: make(map[string]entity.Promotion)}
}

func (r *PromotionRepository) FindActive(ctx context.Context) ([]entity.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var promos []entity.Promotion
	for _, p := range r.promos {
		if p.Active {
			promos = append(promos, p)
		}
	}
	sort.Slice(promos, func(i, j int) bool { return promos[i].Name < promos[j].Name })
	return promos, nil
}

func (r *PromotionRepository) FindByID(ctx context.Context, id string) (*entity.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.promos[id]
	if !ok {
		return nil, repository.ErrPromotionNotFound
	}
	return &p, nil
}

func (r *PromotionRepository) Seed(ctx context.Context, promos []entity.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.promos) > 0 {
		return nil
	}
	for _, p := range promos {
		r.promos[p.ID] = p
	}
	return nil
}
