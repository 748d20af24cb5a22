package record_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	"github.com/lpbridge/middleware/pkg/migrations/recorddb"
	"github.com/lpbridge/middleware/pkg/pgutil"
	"github.com/lpbridge/middleware/pkg/record"
	"github.com/lpbridge/middleware/pkg/transfer"
)

func newRecord(completedAt time.Time) *transfer.Record {
	return &transfer.Record{
		ID: uuid.NewString(),
		Request: transfer.Request{
			Amount:        decimal.NewFromInt(100),
			TokenSymbol:   "USDT",
			SourceChainID: 1,
			DestChainID:   137,
			Receiver:      common.HexToAddress("0x0Ef2e86A73C7Be7F767d7abe53b1d4D44780806e"),
		},
		Quote: transfer.FeeQuote{
			LPFee:          decimal.RequireFromString("0.1"),
			TransactionFee: decimal.RequireFromString("0.86283"),
			RewardAmount:   decimal.Zero,
			AmountToGet:    decimal.RequireFromString("99.03717"),
		},
		Deposit:     transfer.DepositReceipt{TxHash: common.HexToHash("0xd1"), ConfirmedBlockDepth: 1},
		Exit:        transfer.ExitReceipt{ExitHash: common.HexToHash("0xe1"), ConfirmedBlockDepth: 1},
		Elapsed:     90 * time.Second,
		CompletedAt: completedAt,
	}
}

func TestStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}

	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, recorddb.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)

	pgutil.AssertTableExists(t, db, "transfer_records")
	pgutil.AssertIndexExists(t, db, "idx_transfer_records_token_symbol")
	pgutil.AssertIndexExists(t, db, "idx_transfer_records_completed_at")

	store := record.NewStore(db)

	first := newRecord(time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC))
	second := newRecord(time.Date(2024, 11, 5, 13, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "USDT", got.Request.TokenSymbol)
	assert.True(t, got.Request.Amount.Equal(first.Request.Amount))
	assert.True(t, got.Quote.AmountToGet.Equal(first.Quote.AmountToGet))
	assert.Equal(t, first.Deposit.TxHash, got.Deposit.TxHash)
	assert.Equal(t, first.Exit.ExitHash, got.Exit.ExitHash)
	assert.Equal(t, first.Elapsed, got.Elapsed)

	_, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, record.ErrNotFound)

	list, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// newest first
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
