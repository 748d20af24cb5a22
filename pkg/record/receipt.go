package record

import (
	"time"

	"github.com/lpbridge/middleware/pkg/registry"
	"github.com/lpbridge/middleware/pkg/token"
	"github.com/lpbridge/middleware/pkg/transfer"
)

// Receipt is the user-facing view of a completed transfer: the fee
// breakdown in fixed display precision and explorer links for both legs.
type Receipt struct {
	ID          string `json:"id"`
	TokenSymbol string `json:"tokenSymbol"`
	SourceChain string `json:"sourceChain"`
	DestChain   string `json:"destChain"`
	Receiver    string `json:"receiver"`

	Amount         string `json:"amount"`
	LPFee          string `json:"lpFee"`
	TransactionFee string `json:"transactionFee"`
	RewardAmount   string `json:"rewardAmount,omitempty"`
	AmountReceived string `json:"amountReceived"`

	DepositHash string `json:"depositHash"`
	DepositURL  string `json:"depositUrl,omitempty"`
	ExitHash    string `json:"exitHash"`
	ExitURL     string `json:"exitUrl,omitempty"`

	Elapsed     string    `json:"elapsed"`
	CompletedAt time.Time `json:"completedAt"`
}

// BuildReceipt renders a record against the registry's chain metadata.
// Chains missing from the registry leave their names and explorer links
// empty rather than failing; the record itself is already immutable.
func BuildReceipt(rec *transfer.Record, reg *registry.Registry) *Receipt {
	r := &Receipt{
		ID:             rec.ID,
		TokenSymbol:    rec.Request.TokenSymbol,
		Receiver:       rec.Request.Receiver.Hex(),
		Amount:         token.FormatFixed(rec.Request.Amount),
		LPFee:          token.FormatFixed(rec.Quote.LPFee),
		TransactionFee: token.FormatFixed(rec.Quote.TransactionFee),
		AmountReceived: token.FormatFixed(rec.Quote.AmountToGet),
		DepositHash:    rec.Deposit.TxHash.Hex(),
		ExitHash:       rec.Exit.ExitHash.Hex(),
		Elapsed:        rec.Elapsed.Round(time.Millisecond).String(),
		CompletedAt:    rec.CompletedAt,
	}

	if rec.Quote.RewardAmount.Sign() > 0 {
		r.RewardAmount = token.FormatFixed(rec.Quote.RewardAmount)
	}

	if src := reg.Chain(rec.Request.SourceChainID); src != nil {
		r.SourceChain = src.Name
		if src.ExplorerURL != "" {
			r.DepositURL = src.TxURL(r.DepositHash)
		}
	}
	if dst := reg.Chain(rec.Request.DestChainID); dst != nil {
		r.DestChain = dst.Name
		if dst.ExplorerURL != "" {
			r.ExitURL = dst.TxURL(r.ExitHash)
		}
	}

	return r
}
