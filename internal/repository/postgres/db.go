package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrateDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			stream_id TEXT NOT NULL,
			stream_type TEXT NOT NULL,
			version INT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (stream_id, version)
		);

		CREATE TABLE IF NOT EXISTS orders (
			uuid TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'started',
			staff_id TEXT NOT NULL DEFAULT '',
			location_id TEXT NOT NULL DEFAULT '',
			table_number INT NOT NULL DEFAULT 0,
			items JSONB NOT NULL DEFAULT '[]',
			subtotal BIGINT NOT NULL DEFAULT 0,
			discount BIGINT NOT NULL DEFAULT 0,
			tip BIGINT NOT NULL DEFAULT 0,
			total BIGINT NOT NULL DEFAULT 0,
			applied_promotion_id TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT '',
			order_number TEXT NOT NULL DEFAULT '',
			cancellation_reason TEXT NOT NULL DEFAULT '',
			version INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS menu_items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL DEFAULT 0,
			available BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE TABLE IF NOT EXISTS promotions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			promo_type TEXT NOT NULL,
			value BIGINT NOT NULL DEFAULT 0,
			min_subtotal BIGINT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE
		);
	`)
	return err
}
