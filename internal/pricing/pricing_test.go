package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository/memory"
)

func seededCalculator(t *testing.T) *Calculator {
	t.Helper()
	promos := memory.NewPromotionRepository()
	require.NoError(t, promos.Seed(context.Background(), []entity.Promotion{
		{ID: "promo-10", Name: "Ten Percent", Type: entity.PromotionPercentage, Value: 10, Active: true},
		{ID: "promo-big", Name: "Big Spender", Type: entity.PromotionFixedAmount, Value: 5000, MinSubtotal: 100000, Active: true},
		{ID: "promo-retired", Name: "Retired", Type: entity.PromotionPercentage, Value: 50, Active: false},
	}))
	return NewCalculator(promos)
}

func TestAvailableFiltersAndAnnotates(t *testing.T) {
	ctx := context.Background()
	calc := seededCalculator(t)

	out, err := calc.Available(ctx, 60000)
	require.NoError(t, err)

	// Only the percentage promo applies: the fixed one needs a 100000
	// subtotal and the retired one is inactive.
	require.Len(t, out, 1)
	assert.Equal(t, "promo-10", out[0].ID)
	assert.Equal(t, int64(6000), out[0].Discount)
}

func TestAvailableAboveThreshold(t *testing.T) {
	ctx := context.Background()
	calc := seededCalculator(t)

	out, err := calc.Available(ctx, 120000)
	require.NoError(t, err)
	require.Len(t, out, 2)

	byID := make(map[string]AvailablePromotion, len(out))
	for _, p := range out {
		byID[p.ID] = p
	}
	assert.Equal(t, int64(12000), byID["promo-10"].Discount)
	assert.Equal(t, int64(5000), byID["promo-big"].Discount)
}

func TestAvailableEmptyForTinyCart(t *testing.T) {
	ctx := context.Background()
	promos := memory.NewPromotionRepository()
	require.NoError(t, promos.Seed(ctx, []entity.Promotion{
		{ID: "promo-lunch", Name: "Lunch", Type: entity.PromotionPercentage, Value: 10, MinSubtotal: 10000, Active: true},
	}))
	calc := NewCalculator(promos)

	out, err := calc.Available(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, out)
}
