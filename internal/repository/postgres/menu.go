package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new MenuRepository backed by Postgres.
func NewMenuRepository(db *sql.DB) repository.MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) FindAll(ctx context.Context) ([]entity.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, category, price, available FROM menu_items ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []entity.MenuItem
	for rows.Next() {
		var item entity.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price, &item.Available); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *menuRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, category, price, available FROM menu_items WHERE id = ANY($1)",
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	items := make(map[string]entity.MenuItem, len(ids))
	for rows.Next() {
		var item entity.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price, &item.Available); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items[item.ID] = item
	}
	return items, rows.Err()
}

func (r *menuRepository) Seed(ctx context.Context, items []entity.MenuItem) error {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM menu_items").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, item := range items {
		_, err := r.db.ExecContext(ctx,
			"INSERT INTO menu_items (id, name, category, price, available) VALUES ($1, $2, $3, $4, $5)",
			item.ID, item.Name, item.Category, item.Price, item.Available,
		)
		if err != nil {
			return fmt.Errorf("failed to seed menu item %s: %w", item.ID, err)
		}
	}
	return nil
}
