package store

import (
	"context"
	"database/sql"

	"api_pos/internal/sales"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// companyLedger never reads a balance back into Go: every change is one UPDATE with
// field-level arithmetic so concurrent sales cannot lose an increment.
type companyLedger struct {
	tx *sqlx.Tx
}

func (l companyLedger) ApplyIncome(ctx context.Context, businessUnitID int64, amount decimal.Decimal) error {
	res, err := l.tx.ExecContext(ctx, `
		UPDATE company_ledgers SET
			total_income    = total_income + ?,
			current_balance = current_balance + ?,
			sale_count      = sale_count + 1
		WHERE business_unit_id = ?`,
		toCents(amount), toCents(amount), businessUnitID)
	return expectRow(res, err)
}

func (l companyLedger) ReverseIncome(ctx context.Context, businessUnitID int64, amount decimal.Decimal) error {
	res, err := l.tx.ExecContext(ctx, `
		UPDATE company_ledgers SET
			current_balance = current_balance - ?,
			total_expenses  = total_expenses + ?,
			sale_count      = sale_count - 1
		WHERE business_unit_id = ?`,
		toCents(amount), toCents(amount), businessUnitID)
	return expectRow(res, err)
}

// expectRow turns an UPDATE that matched nothing into sales.ErrNotFound.
func expectRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sales.ErrNotFound
	}
	return nil
}
