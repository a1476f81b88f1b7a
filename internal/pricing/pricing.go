// Package pricing decides which promotions an order qualifies for. The
// discount arithmetic itself lives on entity.Promotion so the aggregate can
// compute it without reaching back out here.
package pricing

import (
	"context"
	"fmt"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

// Calculator filters the promotion catalog against an order's priced cart.
type Calculator struct {
	promos repository.PromotionRepository
}

func NewCalculator(promos repository.PromotionRepository) *Calculator {
	return &Calculator{promos: promos}
}

// Available returns the active promotions applicable to the given subtotal,
// each annotated with the discount it would yield.
func (c *Calculator) Available(ctx context.Context, subtotal int64) ([]AvailablePromotion, error) {
	active, err := c.promos.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active promotions: %w", err)
	}

	var out []AvailablePromotion
	for _, p := range active {
		if !p.AppliesTo(subtotal) {
			continue
		}
		out = append(out, AvailablePromotion{
			Promotion: p,
			Discount:  p.DiscountFor(subtotal),
		})
	}
	return out, nil
}

// AvailablePromotion is a promotion the caller may apply, with the discount
// it would produce for the current cart.
type AvailablePromotion struct {
	entity.Promotion
	Discount int64 `json:"discount"`
}
