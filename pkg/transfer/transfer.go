// Package transfer holds the domain types shared by the bridge transfer
// pipeline: the user's request, the fee quote derived from it, the receipts
// produced on each chain and the final record assembled on completion.
package transfer

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Request describes a single cross-chain transfer as entered by the user.
// The amount is kept in human-readable units; conversion to raw chain units
// happens per chain because source and destination decimals may differ.
type Request struct {
	Amount        decimal.Decimal
	TokenSymbol   string
	SourceChainID int64
	DestChainID   int64
	Receiver      common.Address
}

// FeeQuote is the fee breakdown for a Request. A quote is owned by the fee
// engine and becomes stale the moment the Request it was derived from
// changes; stale quotes are discarded, never reused.
type FeeQuote struct {
	LPFee          decimal.Decimal
	TransactionFee decimal.Decimal
	RewardAmount   decimal.Decimal
	AmountToGet    decimal.Decimal
	FeePercentage  decimal.Decimal
}

// VerdictCode classifies the backend's answer to "would this deposit
// currently succeed".
type VerdictCode string

const (
	VerdictOK                VerdictCode = "OK"
	VerdictAllowanceNotGiven VerdictCode = "ALLOWANCE_NOT_GIVEN"
	VerdictNoLiquidity       VerdictCode = "NO_LIQUIDITY"
	VerdictUnsupportedNet    VerdictCode = "UNSUPPORTED_NETWORK"
	VerdictUnsupportedToken  VerdictCode = "UNSUPPORTED_TOKEN"
	VerdictOther             VerdictCode = "OTHER"
)

// Verdict is the pre-deposit feasibility result. DepositContract is only
// meaningful when Code is VerdictOK.
type Verdict struct {
	Code            VerdictCode
	DepositContract common.Address
	Message         string
}

// DepositReceipt is created after the source-chain deposit transaction is
// broadcast and confirmed. Immutable once produced.
type DepositReceipt struct {
	TxHash              common.Hash
	ConfirmedBlockDepth uint64
}

// ExitReceipt is created after the destination-chain exit transaction has
// been observed and confirmed. Immutable once produced.
type ExitReceipt struct {
	ExitHash            common.Hash
	ConfirmedBlockDepth uint64
}

// Record is the immutable snapshot of a completed transfer. It is assembled
// exactly once, when the exit transaction confirms.
type Record struct {
	ID          string
	Request     Request
	Quote       FeeQuote
	Deposit     DepositReceipt
	Exit        ExitReceipt
	Elapsed     time.Duration
	CompletedAt time.Time
}
