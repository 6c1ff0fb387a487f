package store

import "github.com/shopspring/decimal"

// Money columns hold integer cents so SQLite adds and subtracts them exactly.

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}
