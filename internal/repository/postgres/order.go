package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/repository"
)

type orderReadRepository struct {
	db *sql.DB
}

// NewOrderReadRepository creates the order projection repository backed by
// Postgres. Writes are whole-row upserts so a projection rebuild lands the
// row in exactly the state incremental application would have.
func NewOrderReadRepository(db *sql.DB) repository.OrderReadRepository {
	return &orderReadRepository{db: db}
}

func (r *orderReadRepository) Save(ctx context.Context, order *entity.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (uuid, status, staff_id, location_id, table_number, items,
			subtotal, discount, tip, total, applied_promotion_id, payment_method,
			order_number, cancellation_reason, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (uuid) DO UPDATE SET
			status = EXCLUDED.status,
			staff_id = EXCLUDED.staff_id,
			location_id = EXCLUDED.location_id,
			table_number = EXCLUDED.table_number,
			items = EXCLUDED.items,
			subtotal = EXCLUDED.subtotal,
			discount = EXCLUDED.discount,
			tip = EXCLUDED.tip,
			total = EXCLUDED.total,
			applied_promotion_id = EXCLUDED.applied_promotion_id,
			payment_method = EXCLUDED.payment_method,
			order_number = EXCLUDED.order_number,
			cancellation_reason = EXCLUDED.cancellation_reason,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at`,
		order.UUID, order.Status, order.StaffID, order.LocationID, order.TableNumber, items,
		order.Subtotal, order.Discount, order.Tip, order.Total, order.AppliedPromotionID,
		order.PaymentMethod, order.OrderNumber, order.CancellationReason,
		order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order projection: %w", err)
	}
	return nil
}

func (r *orderReadRepository) Get(ctx context.Context, uuid string) (*entity.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT uuid, status, staff_id, location_id, table_number, items,
			subtotal, discount, tip, total, applied_promotion_id, payment_method,
			order_number, cancellation_reason, version, created_at, updated_at
		FROM orders WHERE uuid = $1`, uuid)

	var o entity.Order
	var items []byte
	err := row.Scan(&o.UUID, &o.Status, &o.StaffID, &o.LocationID, &o.TableNumber, &items,
		&o.Subtotal, &o.Discount, &o.Tip, &o.Total, &o.AppliedPromotionID, &o.PaymentMethod,
		&o.OrderNumber, &o.CancellationReason, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	return &o, nil
}

func (r *orderReadRepository) Delete(ctx context.Context, uuid string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE uuid = $1", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete order projection: %w", err)
	}
	return nil
}

func (r *orderReadRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT uuid, status, staff_id, location_id, table_number, items,
			subtotal, discount, tip, total, applied_promotion_id, payment_method,
			order_number, cancellation_reason, version, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		var o entity.Order
		var items []byte
		if err := rows.Scan(&o.UUID, &o.Status, &o.StaffID, &o.LocationID, &o.TableNumber, &items,
			&o.Subtotal, &o.Discount, &o.Tip, &o.Total, &o.AppliedPromotionID, &o.PaymentMethod,
			&o.OrderNumber, &o.CancellationReason, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
