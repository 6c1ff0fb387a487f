package store

import (
	"context"

	"api_pos/internal/sales"

	"github.com/jmoiron/sqlx"
)

type catalog struct {
	tx *sqlx.Tx
}

func (c catalog) Product(ctx context.Context, id int64) (*sales.Product, error) {
	var p sales.Product
	if err := c.tx.GetContext(ctx, &p, `SELECT id, name, description FROM products WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (c catalog) Customer(ctx context.Context, id int64) (*sales.Customer, error) {
	var cu sales.Customer
	if err := c.tx.GetContext(ctx, &cu, `SELECT id, name FROM customers WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &cu, nil
}

func (c catalog) User(ctx context.Context, id int64) (*sales.User, error) {
	var u sales.User
	if err := c.tx.GetContext(ctx, &u, `SELECT id, name, credential_hash FROM users WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

type visitLinker struct {
	tx *sqlx.Tx
}

func (v visitLinker) LinkSale(ctx context.Context, visitID, saleID int64) error {
	var id int64
	err := v.tx.GetContext(ctx, &id, `SELECT id FROM visits WHERE id = ? AND ended_at IS NULL`, visitID)
	if err != nil {
		return notFound(err)
	}
	res, err := v.tx.ExecContext(ctx, `UPDATE sales SET visit_id = ? WHERE id = ?`, id, saleID)
	return expectRow(res, err)
}
