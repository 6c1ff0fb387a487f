package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeCredit(t *testing.T) {
	tests := []struct {
		name         string
		discounted   string
		initial      string
		interest     string
		installments int
		wantInterest string
		wantTotal    string
		wantPending  string
	}{
		{"ten percent", "1000", "200", "10", 6, "100", "1100", "900"},
		{"no interest", "500", "0", "0", 3, "0", "500", "500"},
		{"initial pays everything", "1000", "1100", "10", 1, "100", "1100", "0"},
		{"fractional rate rounds to cents", "250.50", "50", "12.5", 12, "31.31", "281.81", "231.81"},
		{"half cent rounds up", "33.33", "0", "15", 4, "5", "38.33", "38.33"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeCredit(d(tt.discounted), d(tt.initial), d(tt.interest), tt.installments)
			require.NoError(t, err)
			assert.True(t, d(tt.wantInterest).Equal(got.InterestAmount), "interest = %s, want %s", got.InterestAmount, tt.wantInterest)
			assert.True(t, d(tt.wantTotal).Equal(got.TotalWithInterest), "total = %s, want %s", got.TotalWithInterest, tt.wantTotal)
			assert.True(t, d(tt.wantPending).Equal(got.PendingBalance), "pending = %s, want %s", got.PendingBalance, tt.wantPending)
		})
	}
}

func TestComputeCredit_Rejections(t *testing.T) {
	_, err := ComputeCredit(d("1000"), d("0"), d("10"), 0)
	assert.ErrorIs(t, err, ErrInvalidInstallments)

	_, err = ComputeCredit(d("1000"), d("0"), d("10"), -2)
	assert.ErrorIs(t, err, ErrInvalidInstallments)

	_, err = ComputeCredit(d("1000"), d("1100.01"), d("10"), 6)
	assert.ErrorIs(t, err, ErrInvalidCreditTerms)
}

func TestNewCredit_DefaultsWitnesses(t *testing.T) {
	sale := &Sale{ID: 9, CustomerID: 3, BusinessUnitID: 1, DiscountedAmount: d("1000")}
	terms := CreditTerms{InterestAmount: d("100"), TotalWithInterest: d("1100"), PendingBalance: d("900")}

	c := newCredit(sale, CreditPayment{InitialPayment: d("200"), InterestPercent: d("10"), Installments: 6}, terms)

	assert.Equal(t, CreditActive, c.Status)
	assert.Equal(t, "{}", string(c.Witnesses))
	assert.True(t, c.TotalPaid.Equal(d("200")), "total paid starts at the initial payment")
	assert.True(t, c.TotalAmount.Equal(d("1000")))
}

func TestAsTransactionFailure(t *testing.T) {
	assert.ErrorIs(t, asTransactionFailure(ErrNotFound), ErrNotFound)
	assert.NotErrorIs(t, asTransactionFailure(ErrNotFound), ErrTransactionFailure)

	wrapped := asTransactionFailure(assert.AnError)
	assert.ErrorIs(t, wrapped, ErrTransactionFailure)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Nil(t, asTransactionFailure(nil))
}
