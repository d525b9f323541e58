package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as JSON numbers, matching the storefront's wire format.
	decimal.MarshalJSONWithoutQuotes = true
}

// Cents rounds an amount to two decimal places.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
