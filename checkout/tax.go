package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"foodhub-api/config"
	"foodhub-api/models"
)

// TaxPolicy computes the tax of an order at checkout. The result is frozen into
// the order and never recomputed.
type TaxPolicy interface {
	ComputeTax(subtotal decimal.Decimal, addr models.Address) decimal.Decimal
}

// FlatTax charges the same estimated amount on every order.
type FlatTax struct {
	Amount decimal.Decimal
}

func (t FlatTax) ComputeTax(decimal.Decimal, models.Address) decimal.Decimal {
	return models.Cents(t.Amount)
}

// RateTax charges a fraction of the subtotal, rounded to cents.
type RateTax struct {
	Rate decimal.Decimal
}

func (t RateTax) ComputeTax(subtotal decimal.Decimal, _ models.Address) decimal.Decimal {
	return models.Cents(subtotal.Mul(t.Rate))
}

func TaxPolicyFromConfig(cfg config.CheckoutConfig) (TaxPolicy, error) {
	switch cfg.TaxPolicy {
	case "flat", "":
		if cfg.TaxFlat.IsNegative() {
			return nil, fmt.Errorf("TAX_FLAT_AMOUNT must not be negative")
		}
		return FlatTax{Amount: cfg.TaxFlat}, nil
	case "rate":
		if cfg.TaxRate.IsNegative() {
			return nil, fmt.Errorf("TAX_RATE must not be negative")
		}
		return RateTax{Rate: cfg.TaxRate}, nil
	default:
		return nil, fmt.Errorf("unknown TAX_POLICY %q", cfg.TaxPolicy)
	}
}
