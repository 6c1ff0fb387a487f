package sales

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a sale is paid.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCredit PaymentMethod = "CREDIT"
)

// CreditStatus is the lifecycle state of a credit account.
type CreditStatus string

const CreditActive CreditStatus = "ACTIVE"

// Product is immutable reference data for a sale line.
type Product struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// Customer is the buyer a sale is registered for.
type Customer struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// User is a salesperson or administrator.
type User struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	CredentialHash string `db:"credential_hash" json:"-"`
}

// Sale represents a sales transaction in the system.
type Sale struct {
	ID               int64           `db:"id" json:"id"`
	CustomerID       int64           `db:"customer_id" json:"customer_id"`
	SalespersonID    int64           `db:"salesperson_id" json:"salesperson_id"`
	BusinessUnitID   int64           `db:"business_unit_id" json:"business_unit_id"`
	PaymentMethod    PaymentMethod   `db:"payment_method" json:"payment_method"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Discount         decimal.Decimal `db:"discount" json:"discount"`
	DiscountedAmount decimal.Decimal `db:"discounted_amount" json:"discounted_amount"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	CreditID         *int64          `db:"credit_id" json:"credit_id,omitempty"`
	VisitID          *int64          `db:"visit_id" json:"visit_id,omitempty"`
	Items            []SaleLineItem  `db:"-" json:"items"`
}

// SaleLineItem is one product line owned by a Sale.
type SaleLineItem struct {
	ID        int64           `db:"id" json:"id"`
	SaleID    int64           `db:"sale_id" json:"sale_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Product   *Product        `db:"-" json:"product,omitempty"`
}

// Credit is the amortized-payment arrangement attached 1:1 to a credit sale.
type Credit struct {
	ID                int64           `db:"id" json:"id"`
	SaleID            int64           `db:"sale_id" json:"sale_id"`
	CustomerID        int64           `db:"customer_id" json:"customer_id"`
	BusinessUnitID    int64           `db:"business_unit_id" json:"business_unit_id"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount"`
	InitialPayment    decimal.Decimal `db:"initial_payment" json:"initial_payment"`
	TotalPaid         decimal.Decimal `db:"total_paid" json:"total_paid"`
	Installments      int             `db:"installments" json:"installments"`
	InterestRate      decimal.Decimal `db:"interest_rate" json:"interest_rate"`
	InterestAmount    decimal.Decimal `db:"interest_amount" json:"interest_amount"`
	TotalWithInterest decimal.Decimal `db:"total_with_interest" json:"total_with_interest"`
	PendingBalance    decimal.Decimal `db:"pending_balance" json:"pending_balance"`
	IdentityDocument  string          `db:"identity_document" json:"identity_document"`
	Comment           *string         `db:"comment" json:"comment,omitempty"`
	Witnesses         json.RawMessage `db:"witnesses" json:"witnesses"`
	Status            CreditStatus    `db:"status" json:"status"`
}

// Ledger is the aggregate income ledger of one business unit.
type Ledger struct {
	BusinessUnitID int64           `db:"business_unit_id" json:"business_unit_id"`
	TotalIncome    decimal.Decimal `db:"total_income" json:"total_income"`
	CurrentBalance decimal.Decimal `db:"current_balance" json:"current_balance"`
	TotalExpenses  decimal.Decimal `db:"total_expenses" json:"total_expenses"`
	SaleCount      int64           `db:"sale_count" json:"sale_count"`
}

// LineItemInput is one requested line of a sale.
type LineItemInput struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Payment is either CashPayment or CreditPayment.
type Payment interface {
	Method() PaymentMethod
}

// CashPayment settles the whole discounted amount immediately.
type CashPayment struct{}

func (CashPayment) Method() PaymentMethod { return PaymentCash }

// CreditPayment carries the terms of the credit account opened with the sale.
type CreditPayment struct {
	InitialPayment   decimal.Decimal
	InterestPercent  decimal.Decimal
	Installments     int
	IdentityDocument string
	Comment          *string
	Witnesses        json.RawMessage
}

func (CreditPayment) Method() PaymentMethod { return PaymentCredit }

// CreateSaleInput holds everything needed to register a sale.
type CreateSaleInput struct {
	CustomerID       int64
	SalespersonID    int64
	BusinessUnitID   int64
	Items            []LineItemInput
	Payment          Payment
	Amount           decimal.Decimal
	Discount         decimal.Decimal
	DiscountedAmount decimal.Decimal
	// VisitID links the sale to an open visit when set.
	VisitID *int64
}

// RemoveSaleInput identifies the sale to reverse and the administrator authorizing it.
type RemoveSaleInput struct {
	SaleID         int64
	UserID         int64
	AdminPassword  string
	BusinessUnitID int64
}

// SaleFilter narrows ListSales. Zero fields are ignored.
type SaleFilter struct {
	SalespersonID int64
	CustomerID    int64
	Limit         int
}
