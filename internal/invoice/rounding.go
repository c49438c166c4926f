package invoice

import "github.com/shopspring/decimal"

// RoundingPolicy rounds a freshly computed monetary value before it is stored.
// Every derived field goes through the policy at the point of computation, so
// repeated recomputation never accumulates drift.
type RoundingPolicy func(decimal.Decimal) decimal.Decimal

// RoundHalfUp rounds to 2 decimals with halves away from zero. This is the
// default policy; whether it matches the external conversion and validation
// services is a product-level question, which is why the policy is swappable.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundHalfEven rounds to 2 decimals with banker's rounding.
func RoundHalfEven(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}
