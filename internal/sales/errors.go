package sales

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced product, stock entry, customer, user, sale,
	// ledger or open visit does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned when a requested quantity exceeds the available stock,
	// either at the pre-check or at the conditional decrement.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidInstallments is returned for a credit sale with zero or negative installments.
	ErrInvalidInstallments = errors.New("number of installments must be greater than zero")

	// ErrInvalidCreditTerms is returned when the initial payment exceeds the total with interest.
	ErrInvalidCreditTerms = errors.New("initial payment cannot exceed the total with interest")

	// ErrUnauthorized is returned when the administrator credential does not match.
	ErrUnauthorized = errors.New("invalid administrator credential")

	// ErrTransactionFailure wraps any unexpected failure inside a unit of work.
	ErrTransactionFailure = errors.New("transaction failure")

	// ErrInvalidSale is returned for requests that cannot describe a sale at all.
	ErrInvalidSale = errors.New("invalid sale request")
)

var domainErrors = []error{
	ErrNotFound,
	ErrInsufficientStock,
	ErrInvalidInstallments,
	ErrInvalidCreditTerms,
	ErrUnauthorized,
	ErrInvalidSale,
}

// asTransactionFailure keeps domain errors intact and wraps everything else.
func asTransactionFailure(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	if errors.Is(err, ErrTransactionFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
}
