package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrations are applied in order and recorded in schema_migrations. Never
// edit an entry that has shipped; append a new one.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS items (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sell_price NUMERIC(15,2) NOT NULL DEFAULT 0,
		buy_price NUMERIC(15,2) NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_sequences (
		prefix TEXT PRIMARY KEY,
		last_value INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		invoice_code TEXT PRIMARY KEY,
		transaction_date TIMESTAMPTZ NOT NULL,
		customer_name TEXT NOT NULL DEFAULT '',
		member_code TEXT NOT NULL DEFAULT '',
		subtotal NUMERIC(15,2) NOT NULL,
		item_discount NUMERIC(15,2) NOT NULL,
		discount_percent NUMERIC(5,2) NOT NULL,
		discount_amount NUMERIC(15,2) NOT NULL,
		grand_total NUMERIC(15,2) NOT NULL CHECK (grand_total >= 0),
		payment_method TEXT NOT NULL CHECK (payment_method IN ('cash','debit','qris')),
		status SMALLINT NOT NULL CHECK (status IN (0,1)),
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		cancelled_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_transaction_date ON sales (transaction_date DESC)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id BIGSERIAL PRIMARY KEY,
		invoice_code TEXT NOT NULL REFERENCES sales(invoice_code) ON DELETE CASCADE,
		line_no INTEGER NOT NULL,
		item_code TEXT NOT NULL,
		item_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(15,2) NOT NULL,
		discount_percent NUMERIC(5,2) NOT NULL,
		discount_amount NUMERIC(15,2) NOT NULL,
		line_total NUMERIC(15,2) NOT NULL,
		UNIQUE (invoice_code, line_no)
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		invoice_number TEXT PRIMARY KEY,
		purchase_date TIMESTAMPTZ NOT NULL,
		supplier_name TEXT NOT NULL,
		total NUMERIC(15,2) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT true,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deactivated_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_items (
		id BIGSERIAL PRIMARY KEY,
		invoice_number TEXT NOT NULL REFERENCES purchases(invoice_number) ON DELETE CASCADE,
		line_no INTEGER NOT NULL,
		item_code TEXT NOT NULL,
		item_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_cost NUMERIC(15,2) NOT NULL,
		line_total NUMERIC(15,2) NOT NULL,
		UNIQUE (invoice_number, line_no)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		actor_username TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin','cashier')),
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate brings the schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		err := s.inTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
	}
	return nil
}
