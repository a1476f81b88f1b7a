package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

type promotionRepository struct {
	db *sql.DB
}

// NewPromotionRepository creates a new PromotionRepository backed by Postgres.
func NewPromotionRepository(db *sql.DB) repository.PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) FindActive(ctx context.Context) ([]entity.Promotion, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, promo_type, value, min_subtotal, active FROM promotions WHERE active ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	var promos []entity.Promotion
	for rows.Next() {
		var p entity.Promotion
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Value, &p.MinSubtotal, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

func (r *promotionRepository) FindByID(ctx context.Context, id string) (*entity.Promotion, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, promo_type, value, min_subtotal, active FROM promotions WHERE id = $1", id)

	var p entity.Promotion
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Value, &p.MinSubtotal, &p.Active)
	if err == sql.ErrNoRows {
		return nil, repository.ErrPromotionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan promotion: %w", err)
	}
	return &p, nil
}

func (r *promotionRepository) Seed(ctx context.Context, promos []entity.Promotion) error {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM promotions").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, p := range promos {
		_, err := r.db.ExecContext(ctx,
			"INSERT INTO promotions (id, name, promo_type, value, min_subtotal, active) VALUES ($1, $2, $3, $4, $5, $6)",
			p.ID, p.Name, p.Type, p.Value, p.MinSubtotal, p.Active,
		)
		if err != nil {
			return fmt.Errorf("failed to seed promotion %s: %w", p.ID, err)
		}
	}
	return nil
}
