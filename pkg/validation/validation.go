// Package validation checks a candidate transfer amount against pool bounds
// and wallet balance. Validation is pure and synchronous: it runs on the
// same logical step as the amount change, so downstream fee fetches never
// observe an error set that lags the amount.
package validation

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lpbridge/middleware/pkg/token"
)

// Error names a single validation failure.
type Error string

const (
	ErrInvalidAmount     Error = "INVALID_AMOUNT"
	ErrAmountLtMin       Error = "AMOUNT_LT_MIN"
	ErrAmountGtMax       Error = "AMOUNT_GT_MAX"
	ErrInadequateBalance Error = "INADEQUATE_BALANCE"
	ErrPoolInfoNotLoaded Error = "POOLINFO_NOT_LOADED"
	ErrBalanceNotLoaded  Error = "BALANCE_NOT_LOADED"
)

// ErrorSet is the set of validation failures for one amount. The zero value
// is an empty, valid set.
type ErrorSet map[Error]struct{}

// Has reports whether the set contains the given failure.
func (s ErrorSet) Has(e Error) bool {
	_, ok := s[e]
	return ok
}

// Empty reports whether no rule failed.
func (s ErrorSet) Empty() bool {
	return len(s) == 0
}

// Equal compares two sets. Two empty sets are always equal, including the
// nil/non-nil pair, so repeated validation of an unchanged valid amount
// does not retrigger downstream work.
func (s ErrorSet) Equal(other ErrorSet) bool {
	if len(s) != len(other) {
		return false
	}
	for e := range s {
		if !other.Has(e) {
			return false
		}
	}
	return true
}

func (s ErrorSet) add(e Error) {
	s[e] = struct{}{}
}

// String renders the set sorted, for logs and error messages.
func (s ErrorSet) String() string {
	if len(s) == 0 {
		return "[]"
	}
	names := make([]string, 0, len(s))
	for e := range s {
		names = append(names, string(e))
	}
	sort.Strings(names)
	return "[" + strings.Join(names, " ") + "]"
}

// PoolBounds are the deposit caps for a token on the source chain.
type PoolBounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// ValidateAmount evaluates every rule independently and reports all
// failures; it never short-circuits. bounds and balance are nil while the
// respective data has not been loaded yet.
func ValidateAmount(amountText string, bounds *PoolBounds, balance *decimal.Decimal) ErrorSet {
	errs := make(ErrorSet)

	amount, parseErr := token.ParseAmount(amountText)
	if parseErr != nil || amount.IsNegative() {
		errs.add(ErrInvalidAmount)
	}
	parsed := parseErr == nil

	if bounds == nil {
		errs.add(ErrPoolInfoNotLoaded)
	} else if parsed {
		if amount.LessThan(bounds.Min) {
			errs.add(ErrAmountLtMin)
		}
		if amount.GreaterThan(bounds.Max) {
			errs.add(ErrAmountGtMax)
		}
	}

	if balance == nil {
		errs.add(ErrBalanceNotLoaded)
	} else if parsed && amount.GreaterThan(*balance) {
		errs.add(ErrInadequateBalance)
	}

	return errs
}
