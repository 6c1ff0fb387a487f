package store

import (
	"context"
	"fmt"

	"api_pos/internal/sales"
)

// Reference data and read-only views. Registration of products, customers, users and
// ledgers belongs to the surrounding CRUD; these helpers cover seeding and inspection.

// CreateProduct registers a product with its initial stock entry.
func (d *DB) CreateProduct(ctx context.Context, name, description string, quantity int) (int64, error) {
	var id int64
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO products (name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		return 0, fmt.Errorf("error creating product: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO stock (product_id, quantity) VALUES (?, ?)`, id, quantity); err != nil {
		return 0, fmt.Errorf("error creating stock for product %d: %w", id, err)
	}
	return id, tx.Commit()
}

// CreateCustomer registers a customer.
func (d *DB) CreateCustomer(ctx context.Context, name string) (int64, error) {
	return d.insert(ctx, `INSERT INTO customers (name) VALUES (?)`, name)
}

// CreateUser registers a user with an already hashed credential.
func (d *DB) CreateUser(ctx context.Context, name, credentialHash string) (int64, error) {
	return d.insert(ctx, `INSERT INTO users (name, credential_hash) VALUES (?, ?)`, name, credentialHash)
}

// OpenLedger creates the empty ledger of a business unit if it does not exist yet.
func (d *DB) OpenLedger(ctx context.Context, businessUnitID int64) error {
	_, err := d.db.ExecContext(ctx, `INSERT OR IGNORE INTO company_ledgers (business_unit_id) VALUES (?)`, businessUnitID)
	return err
}

// OpenVisit starts a visit for a customer.
func (d *DB) OpenVisit(ctx context.Context, customerID int64) (int64, error) {
	return d.insert(ctx, `INSERT INTO visits (customer_id) VALUES (?)`, customerID)
}

// CloseVisit ends a visit; sales can no longer be linked to it.
func (d *DB) CloseVisit(ctx context.Context, visitID int64) error {
	res, err := d.db.ExecContext(ctx, `UPDATE visits SET ended_at = CURRENT_TIMESTAMP WHERE id = ? AND ended_at IS NULL`, visitID)
	return expectRow(res, err)
}

// Ledger returns the current ledger of a business unit.
func (d *DB) Ledger(ctx context.Context, businessUnitID int64) (*sales.Ledger, error) {
	var row struct {
		BusinessUnitID int64 `db:"business_unit_id"`
		TotalIncome    int64 `db:"total_income"`
		CurrentBalance int64 `db:"current_balance"`
		TotalExpenses  int64 `db:"total_expenses"`
		SaleCount      int64 `db:"sale_count"`
	}
	err := d.db.GetContext(ctx, &row, `
		SELECT business_unit_id, total_income, current_balance, total_expenses, sale_count
		FROM company_ledgers WHERE business_unit_id = ?`, businessUnitID)
	if err != nil {
		return nil, notFound(err)
	}
	return &sales.Ledger{
		BusinessUnitID: row.BusinessUnitID,
		TotalIncome:    fromCents(row.TotalIncome),
		CurrentBalance: fromCents(row.CurrentBalance),
		TotalExpenses:  fromCents(row.TotalExpenses),
		SaleCount:      row.SaleCount,
	}, nil
}

// StockQuantity returns the available quantity of a product.
func (d *DB) StockQuantity(ctx context.Context, productID int64) (int, error) {
	var q int
	if err := d.db.GetContext(ctx, &q, `SELECT quantity FROM stock WHERE product_id = ?`, productID); err != nil {
		return 0, notFound(err)
	}
	return q, nil
}

// CountSales returns the number of persisted sales.
func (d *DB) CountSales(ctx context.Context) (int, error) {
	var n int
	err := d.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sales`)
	return n, err
}

// CreditForSale returns the credit attached to a sale.
func (d *DB) CreditForSale(ctx context.Context, saleID int64) (*sales.Credit, error) {
	var row struct {
		sales.Credit
		TotalAmountCents       int64  `db:"total_amount_cents"`
		InitialPaymentCents    int64  `db:"initial_payment_cents"`
		TotalPaidCents         int64  `db:"total_paid_cents"`
		InterestAmountCents    int64  `db:"interest_amount_cents"`
		TotalWithInterestCents int64  `db:"total_with_interest_cents"`
		PendingBalanceCents    int64  `db:"pending_balance_cents"`
		RawWitnesses           string `db:"raw_witnesses"`
	}
	err := d.db.GetContext(ctx, &row, `
		SELECT id, sale_id, customer_id, business_unit_id,
			total_amount AS total_amount_cents, initial_payment AS initial_payment_cents,
			total_paid AS total_paid_cents, installments, interest_rate,
			interest_amount AS interest_amount_cents, total_with_interest AS total_with_interest_cents,
			pending_balance AS pending_balance_cents, identity_document, comment,
			witnesses AS raw_witnesses, status
		FROM credits WHERE sale_id = ?`, saleID)
	if err != nil {
		return nil, notFound(err)
	}
	c := row.Credit
	c.TotalAmount = fromCents(row.TotalAmountCents)
	c.InitialPayment = fromCents(row.InitialPaymentCents)
	c.TotalPaid = fromCents(row.TotalPaidCents)
	c.InterestAmount = fromCents(row.InterestAmountCents)
	c.TotalWithInterest = fromCents(row.TotalWithInterestCents)
	c.PendingBalance = fromCents(row.PendingBalanceCents)
	c.Witnesses = []byte(row.RawWitnesses)
	return &c, nil
}

func (d *DB) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
