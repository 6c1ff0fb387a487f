package sales

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CreditTerms is the outcome of ComputeCredit.
type CreditTerms struct {
	InterestAmount    decimal.Decimal
	TotalWithInterest decimal.Decimal
	PendingBalance    decimal.Decimal
}

// ComputeCredit derives interest, total and pending balance for a credit sale.
// Interest is rounded to cents.
func ComputeCredit(discountedAmount, initialPayment, interestPercent decimal.Decimal, installments int) (CreditTerms, error) {
	if installments <= 0 {
		return CreditTerms{}, fmt.Errorf("%w: got %d", ErrInvalidInstallments, installments)
	}

	interest := discountedAmount.Mul(interestPercent).Div(hundred).Round(2)
	total := discountedAmount.Add(interest)
	pending := total.Sub(initialPayment)

	if pending.IsNegative() {
		return CreditTerms{}, fmt.Errorf("%w: initial payment %s, total %s", ErrInvalidCreditTerms, initialPayment, total)
	}

	return CreditTerms{
		InterestAmount:    interest,
		TotalWithInterest: total,
		PendingBalance:    pending,
	}, nil
}

// newCredit builds the ACTIVE credit record for a persisted sale.
func newCredit(sale *Sale, p CreditPayment, terms CreditTerms) *Credit {
	witnesses := p.Witnesses
	if len(witnesses) == 0 {
		witnesses = []byte("{}")
	}
	return &Credit{
		SaleID:            sale.ID,
		CustomerID:        sale.CustomerID,
		BusinessUnitID:    sale.BusinessUnitID,
		TotalAmount:       sale.DiscountedAmount,
		InitialPayment:    p.InitialPayment,
		TotalPaid:         p.InitialPayment,
		Installments:      p.Installments,
		InterestRate:      p.InterestPercent,
		InterestAmount:    terms.InterestAmount,
		TotalWithInterest: terms.TotalWithInterest,
		PendingBalance:    terms.PendingBalance,
		IdentityDocument:  p.IdentityDocument,
		Comment:           p.Comment,
		Witnesses:         witnesses,
		Status:            CreditActive,
	}
}
