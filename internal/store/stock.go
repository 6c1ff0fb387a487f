package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type stockLedger struct {
	tx *sqlx.Tx
}

func (s stockLedger) CheckAvailable(ctx context.Context, productID int64, quantity int) (bool, error) {
	var available int
	err := s.tx.GetContext(ctx, &available, `SELECT quantity FROM stock WHERE product_id = ?`, productID)
	if err != nil {
		return false, notFound(err)
	}
	return available >= quantity, nil
}

// ConditionalDecrement is a single compare-and-decrement statement: a concurrent sale
// that consumed the stock first leaves nothing for the WHERE clause to match.
func (s stockLedger) ConditionalDecrement(ctx context.Context, productID int64, quantity int) (bool, error) {
	res, err := s.tx.ExecContext(ctx, `
		UPDATE stock SET quantity = quantity - ?
		WHERE product_id = ? AND quantity >= ?`,
		quantity, productID, quantity)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s stockLedger) Increment(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("increment of product %d must not be negative: %d", productID, quantity)
	}
	res, err := s.tx.ExecContext(ctx, `UPDATE stock SET quantity = quantity + ? WHERE product_id = ?`, quantity, productID)
	return expectRow(res, err)
}
