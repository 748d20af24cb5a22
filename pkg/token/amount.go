// Package token converts between human-readable token amounts and the raw
// integer representation each chain expects. Source and destination chains
// may deploy the same token with different decimals, so conversions always
// take the decimals of the chain they target.
package token

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// DisplayDecimals is the fixed precision used for every user-facing amount
// in a fee quote or receipt.
const DisplayDecimals = 5

// ToRawUnits converts a human-readable amount to the raw integer amount for
// a deployment with the given decimals. The fractional remainder beyond the
// deployment's precision is truncated.
func ToRawUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}

// FromRawUnits converts a raw integer amount back to human-readable units.
func FromRawUnits(raw *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -decimals)
}

// FixedRound rounds an amount to the fixed display precision.
func FixedRound(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(DisplayDecimals)
}

// FormatFixed renders an amount with the fixed display precision.
func FormatFixed(amount decimal.Decimal) string {
	return amount.StringFixed(DisplayDecimals)
}

// ParseAmount parses user-entered amount text. Empty input and text that is
// not a plain decimal number are rejected.
func ParseAmount(text string) (decimal.Decimal, error) {
	if text == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", text, err)
	}
	return d, nil
}
