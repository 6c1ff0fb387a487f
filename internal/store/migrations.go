package store

import (
	"context"
	"fmt"
)

// schema creates the tables the sales core reads and writes.
// Customer and salesperson references carry no foreign key: the service resolves them
// itself and reports a missing one as not found. Money columns are integer cents.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS stock (
		product_id INTEGER PRIMARY KEY REFERENCES products(id),
		quantity   INTEGER NOT NULL CHECK (quantity >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		name            TEXT NOT NULL,
		credential_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS company_ledgers (
		business_unit_id INTEGER PRIMARY KEY,
		total_income     INTEGER NOT NULL DEFAULT 0,
		current_balance  INTEGER NOT NULL DEFAULT 0,
		total_expenses   INTEGER NOT NULL DEFAULT 0,
		sale_count       INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS visits (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER,
		started_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		ended_at    DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id       INTEGER NOT NULL,
		salesperson_id    INTEGER NOT NULL,
		business_unit_id  INTEGER NOT NULL,
		payment_method    TEXT NOT NULL CHECK (payment_method IN ('CASH', 'CREDIT')),
		amount            INTEGER NOT NULL,
		discount          INTEGER NOT NULL DEFAULT 0,
		discounted_amount INTEGER NOT NULL,
		created_at        DATETIME NOT NULL,
		visit_id          INTEGER REFERENCES visits(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_salesperson ON sales(salesperson_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id    INTEGER NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		unit_price INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id)`,
	`CREATE TABLE IF NOT EXISTS credits (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id             INTEGER NOT NULL UNIQUE REFERENCES sales(id) ON DELETE CASCADE,
		customer_id         INTEGER NOT NULL,
		business_unit_id    INTEGER NOT NULL,
		total_amount        INTEGER NOT NULL,
		initial_payment     INTEGER NOT NULL DEFAULT 0,
		total_paid          INTEGER NOT NULL DEFAULT 0,
		installments        INTEGER NOT NULL CHECK (installments > 0),
		interest_rate       TEXT NOT NULL DEFAULT '0',
		interest_amount     INTEGER NOT NULL DEFAULT 0,
		total_with_interest INTEGER NOT NULL,
		pending_balance     INTEGER NOT NULL CHECK (pending_balance >= 0),
		identity_document   TEXT NOT NULL DEFAULT '',
		comment             TEXT,
		witnesses           TEXT NOT NULL DEFAULT '{}',
		status              TEXT NOT NULL
	)`,
}

// Migrate creates the schema. It is safe to run repeatedly.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
