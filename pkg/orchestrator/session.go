package orchestrator

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lpbridge/middleware/pkg/validation"
)

// Session is the per-user context a transfer is validated against. Bounds
// and Balance are nil until loaded; validation reports them as missing
// rather than guessing.
type Session struct {
	UserAddress common.Address
	Bounds      *validation.PoolBounds
	Balance     *decimal.Decimal
}

// SetBalance records the user's loaded token balance.
func (s *Session) SetBalance(balance decimal.Decimal) {
	s.Balance = &balance
}

// SetBounds records the pool's deposit bounds for the selected token.
func (s *Session) SetBounds(min, max decimal.Decimal) {
	s.Bounds = &validation.PoolBounds{Min: min, Max: max}
}
