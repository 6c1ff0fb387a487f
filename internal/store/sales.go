package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"api_pos/internal/sales"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const saleColumns = `
	s.id, s.customer_id, s.salesperson_id, s.business_unit_id, s.payment_method,
	s.amount AS amount_cents, s.discount AS discount_cents,
	s.discounted_amount AS discounted_amount_cents, s.created_at, s.visit_id,
	c.id AS credit_id`

type saleRepo struct {
	tx *sqlx.Tx
}

// saleRow carries the money columns in cents next to the sale they belong to.
type saleRow struct {
	sales.Sale
	AmountCents           int64 `db:"amount_cents"`
	DiscountCents         int64 `db:"discount_cents"`
	DiscountedAmountCents int64 `db:"discounted_amount_cents"`
}

func (r *saleRow) toSale() *sales.Sale {
	sale := r.Sale
	sale.Amount = fromCents(r.AmountCents)
	sale.Discount = fromCents(r.DiscountCents)
	sale.DiscountedAmount = fromCents(r.DiscountedAmountCents)
	return &sale
}

// itemRow flattens a line item with its product for a single scan.
type itemRow struct {
	sales.SaleLineItem
	UnitPriceCents     int64  `db:"unit_price_cents"`
	ProductName        string `db:"product_name"`
	ProductDescription string `db:"product_description"`
}

func (r saleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	sale.CreatedAt = time.Now().UTC()

	res, err := r.tx.ExecContext(ctx, `
		INSERT INTO sales (customer_id, salesperson_id, business_unit_id, payment_method,
			amount, discount, discounted_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.CustomerID, sale.SalespersonID, sale.BusinessUnitID, string(sale.PaymentMethod),
		toCents(sale.Amount), toCents(sale.Discount), toCents(sale.DiscountedAmount), sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating sale: %w", err)
	}
	if sale.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = sale.ID
		res, err := r.tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price)
			VALUES (?, ?, ?, ?)`,
			item.SaleID, item.ProductID, item.Quantity, toCents(item.UnitPrice))
		if err != nil {
			return fmt.Errorf("error creating sale item for product %d: %w", item.ProductID, err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func (r saleRepo) UpdateAmount(ctx context.Context, saleID int64, amount decimal.Decimal) error {
	res, err := r.tx.ExecContext(ctx, `UPDATE sales SET amount = ? WHERE id = ?`, toCents(amount), saleID)
	return expectRow(res, err)
}

func (r saleRepo) Get(ctx context.Context, id int64) (*sales.Sale, error) {
	var row saleRow
	err := r.tx.GetContext(ctx, &row, `
		SELECT `+saleColumns+`
		FROM sales s LEFT JOIN credits c ON c.sale_id = s.id
		WHERE s.id = ?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	sale := row.toSale()
	if err := r.loadItems(ctx, []*sales.Sale{sale}); err != nil {
		return nil, err
	}
	return sale, nil
}

func (r saleRepo) List(ctx context.Context, filter sales.SaleFilter) ([]*sales.Sale, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.SalespersonID > 0 {
		where = append(where, "s.salesperson_id = ?")
		args = append(args, filter.SalespersonID)
	}
	if filter.CustomerID > 0 {
		where = append(where, "s.customer_id = ?")
		args = append(args, filter.CustomerID)
	}

	query := `SELECT ` + saleColumns + ` FROM sales s LEFT JOIN credits c ON c.sale_id = s.id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.created_at DESC, s.id DESC LIMIT ?"
	args = append(args, filter.Limit)

	var rows []saleRow
	if err := r.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error querying sales: %w", err)
	}
	result := make([]*sales.Sale, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toSale())
	}
	if err := r.loadItems(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r saleRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.tx.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id)
	return expectRow(res, err)
}

// loadItems fills Items (with nested products) of every sale in one query.
func (r saleRepo) loadItems(ctx context.Context, list []*sales.Sale) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(list))
	byID := make(map[int64]*sales.Sale, len(list))
	for _, s := range list {
		s.Items = []sales.SaleLineItem{}
		ids = append(ids, s.ID)
		byID[s.ID] = s
	}

	query, args, err := sqlx.In(`
		SELECT i.id, i.sale_id, i.product_id, i.quantity, i.unit_price AS unit_price_cents,
			p.name AS product_name, p.description AS product_description
		FROM sale_items i JOIN products p ON p.id = i.product_id
		WHERE i.sale_id IN (?)
		ORDER BY i.sale_id, i.id`, ids)
	if err != nil {
		return err
	}

	var rows []itemRow
	if err := r.tx.SelectContext(ctx, &rows, r.tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("error querying sale items: %w", err)
	}
	for _, row := range rows {
		item := row.SaleLineItem
		item.UnitPrice = fromCents(row.UnitPriceCents)
		item.Product = &sales.Product{
			ID:          row.ProductID,
			Name:        row.ProductName,
			Description: row.ProductDescription,
		}
		s := byID[item.SaleID]
		s.Items = append(s.Items, item)
	}
	return nil
}

type creditRepo struct {
	tx *sqlx.Tx
}

func (r creditRepo) Create(ctx context.Context, c *sales.Credit) error {
	res, err := r.tx.ExecContext(ctx, `
		INSERT INTO credits (sale_id, customer_id, business_unit_id, total_amount, initial_payment,
			total_paid, installments, interest_rate, interest_amount, total_with_interest,
			pending_balance, identity_document, comment, witnesses, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.SaleID, c.CustomerID, c.BusinessUnitID, toCents(c.TotalAmount), toCents(c.InitialPayment),
		toCents(c.TotalPaid), c.Installments, c.InterestRate.String(), toCents(c.InterestAmount),
		toCents(c.TotalWithInterest), toCents(c.PendingBalance), c.IdentityDocument, c.Comment,
		string(c.Witnesses), string(c.Status))
	if err != nil {
		return fmt.Errorf("error creating credit: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}
