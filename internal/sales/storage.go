package sales

import (
	"context"

	"github.com/shopspring/decimal"
)

// Storage is the transactional store behind the sales service.
type Storage interface {
	// WithinTx runs fn as one unit of work. A non-nil error from fn rolls
	// everything back; a nil error commits.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transaction-scoped handle handed to a unit of work.
type Tx interface {
	Catalog() Catalog
	Stock() StockLedger
	Sales() SaleRepository
	Credits() CreditRepository
	Ledger() CompanyLedger
	Visits() VisitLinker
}

// Catalog resolves reference data. Missing rows are reported as ErrNotFound.
type Catalog interface {
	Product(ctx context.Context, id int64) (*Product, error)
	Customer(ctx context.Context, id int64) (*Customer, error)
	User(ctx context.Context, id int64) (*User, error)
}

// StockLedger tracks available quantity per product.
type StockLedger interface {
	// CheckAvailable is advisory only. ErrNotFound when the product has no stock entry.
	CheckAvailable(ctx context.Context, productID int64, quantity int) (bool, error)
	// ConditionalDecrement subtracts quantity only if at least that much is left,
	// as a single compare-and-decrement. It reports whether a row was changed.
	ConditionalDecrement(ctx context.Context, productID int64, quantity int) (bool, error)
	Increment(ctx context.Context, productID int64, quantity int) error
}

// SaleRepository persists sales with their line items.
type SaleRepository interface {
	// Create inserts the sale and its items, filling in generated IDs and timestamps.
	Create(ctx context.Context, sale *Sale) error
	UpdateAmount(ctx context.Context, saleID int64, amount decimal.Decimal) error
	Get(ctx context.Context, id int64) (*Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]*Sale, error)
	// Delete removes the sale; items and credit go with it.
	Delete(ctx context.Context, id int64) error
}

// CreditRepository persists credit accounts.
type CreditRepository interface {
	Create(ctx context.Context, credit *Credit) error
}

// CompanyLedger mutates a business unit's income ledger with atomic field updates only.
type CompanyLedger interface {
	ApplyIncome(ctx context.Context, businessUnitID int64, amount decimal.Decimal) error
	ReverseIncome(ctx context.Context, businessUnitID int64, amount decimal.Decimal) error
}

// VisitLinker attaches sales to open visits.
type VisitLinker interface {
	// LinkSale fails with ErrNotFound unless visitID names a visit that has not ended.
	LinkSale(ctx context.Context, visitID, saleID int64) error
}

// CredentialVerifier checks a plaintext credential against a stored hash in constant time.
type CredentialVerifier interface {
	Verify(hash, credential string) bool
}

// Notifier receives the business event emitted after a sale commits.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is the post-commit sale event.
type Notification struct {
	Message  string
	SenderID int64
}
