package record

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/lpbridge/middleware/pkg/transfer"
)

// TransferRecordDao is a data access object that maps directly to the
// 'transfer_records' table in PostgreSQL.
type TransferRecordDao struct {
	bun.BaseModel  `bun:"table:transfer_records"`
	ID             string    `json:"id" bun:",pk,type:uuid"`
	TokenSymbol    string    `json:"token_symbol" bun:",notnull,type:varchar(20)"`
	SourceChainID  int64     `json:"source_chain_id" bun:"source_chain_id,notnull"`
	DestChainID    int64     `json:"dest_chain_id" bun:"dest_chain_id,notnull"`
	Receiver       string    `json:"receiver" bun:",notnull,type:varchar(42)"`
	Amount         string    `json:"amount" bun:",notnull,type:numeric(38,18)"`
	LPFee          string    `json:"lp_fee" bun:"lp_fee,notnull,type:numeric(38,18)"`
	TransactionFee string    `json:"transaction_fee" bun:",notnull,type:numeric(38,18)"`
	RewardAmount   string    `json:"reward_amount" bun:",notnull,type:numeric(38,18)"`
	AmountToGet    string    `json:"amount_to_get" bun:",notnull,type:numeric(38,18)"`
	DepositHash    string    `json:"deposit_hash" bun:",notnull,type:varchar(66)"`
	ExitHash       string    `json:"exit_hash" bun:",notnull,type:varchar(66)"`
	ElapsedMs      int64     `json:"elapsed_ms" bun:"elapsed_ms,notnull,use_zero"`
	CompletedAt    time.Time `json:"completed_at" bun:",notnull"`
	CreatedAt      time.Time `json:"created_at" bun:",nullzero,default:current_timestamp"`
}

func toDao(rec *transfer.Record) *TransferRecordDao {
	return &TransferRecordDao{
		ID:             rec.ID,
		TokenSymbol:    rec.Request.TokenSymbol,
		SourceChainID:  rec.Request.SourceChainID,
		DestChainID:    rec.Request.DestChainID,
		Receiver:       rec.Request.Receiver.Hex(),
		Amount:         rec.Request.Amount.String(),
		LPFee:          rec.Quote.LPFee.String(),
		TransactionFee: rec.Quote.TransactionFee.String(),
		RewardAmount:   rec.Quote.RewardAmount.String(),
		AmountToGet:    rec.Quote.AmountToGet.String(),
		DepositHash:    rec.Deposit.TxHash.Hex(),
		ExitHash:       rec.Exit.ExitHash.Hex(),
		ElapsedMs:      rec.Elapsed.Milliseconds(),
		CompletedAt:    rec.CompletedAt,
	}
}

func fromDao(dao *TransferRecordDao) (*transfer.Record, error) {
	amount, err := decimal.NewFromString(dao.Amount)
	if err != nil {
		return nil, err
	}
	lpFee, err := decimal.NewFromString(dao.LPFee)
	if err != nil {
		return nil, err
	}
	txFee, err := decimal.NewFromString(dao.TransactionFee)
	if err != nil {
		return nil, err
	}
	reward, err := decimal.NewFromString(dao.RewardAmount)
	if err != nil {
		return nil, err
	}
	toGet, err := decimal.NewFromString(dao.AmountToGet)
	if err != nil {
		return nil, err
	}

	return &transfer.Record{
		ID: dao.ID,
		Request: transfer.Request{
			Amount:        amount,
			TokenSymbol:   dao.TokenSymbol,
			SourceChainID: dao.SourceChainID,
			DestChainID:   dao.DestChainID,
			Receiver:      common.HexToAddress(dao.Receiver),
		},
		Quote: transfer.FeeQuote{
			LPFee:          lpFee,
			TransactionFee: txFee,
			RewardAmount:   reward,
			AmountToGet:    toGet,
		},
		Deposit: transfer.DepositReceipt{
			TxHash: common.HexToHash(dao.DepositHash),
		},
		Exit: transfer.ExitReceipt{
			ExitHash: common.HexToHash(dao.ExitHash),
		},
		Elapsed:     time.Duration(dao.ElapsedMs) * time.Millisecond,
		CompletedAt: dao.CompletedAt,
	}, nil
}
