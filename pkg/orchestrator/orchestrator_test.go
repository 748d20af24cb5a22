package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lpbridge/middleware/pkg/exitwatch"
	"github.com/lpbridge/middleware/pkg/transfer"
	"github.com/lpbridge/middleware/pkg/validation"
	"github.com/lpbridge/middleware/pkg/wallet"
)

var (
	depositHash = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000d1")
	exitHash    = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000e1")
	poolAddr    = common.HexToAddress("0x2A1530C4C41db0B0b2bB646CB5Eb1A67b7158667")
)

type fixture struct {
	orch      *Orchestrator
	quoter    *MockQuoter
	gate      *MockGate
	submitter *MockSubmitter
	watcher   *MockWatcher
	records   *MockRecordStore

	mu          sync.Mutex
	transitions []State
}

func (f *fixture) seen() []State {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]State, len(f.transitions))
	copy(out, f.transitions)
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		quoter: &MockQuoter{
			QuoteFunc: func(ctx context.Context, req *transfer.Request) (*transfer.FeeQuote, error) {
				return &transfer.FeeQuote{
					LPFee:          decimal.RequireFromString("0.1"),
					TransactionFee: decimal.RequireFromString("0.5"),
					AmountToGet:    decimal.RequireFromString("99.4"),
				}, nil
			},
		},
		gate: &MockGate{
			CheckFunc: func(ctx context.Context, req *transfer.Request, user common.Address) (*transfer.Verdict, error) {
				return &transfer.Verdict{Code: transfer.VerdictOK, DepositContract: poolAddr}, nil
			},
		},
		submitter: &MockSubmitter{
			SubmitFunc: func(ctx context.Context, req *transfer.Request, contract common.Address) (common.Hash, error) {
				return depositHash, nil
			},
			WaitConfirmedFunc: func(ctx context.Context, srcChainID int64, hash common.Hash) (*transfer.DepositReceipt, error) {
				return &transfer.DepositReceipt{TxHash: hash, ConfirmedBlockDepth: 1}, nil
			},
		},
		watcher: &MockWatcher{
			AwaitExitHashFunc: func(ctx context.Context, dh common.Hash, fromChainID int64) (common.Hash, error) {
				return exitHash, nil
			},
			ConfirmExitFunc: func(ctx context.Context, confirmer exitwatch.Confirmer, eh common.Hash, depth uint64) (*transfer.ExitReceipt, error) {
				return &transfer.ExitReceipt{ExitHash: eh, ConfirmedBlockDepth: depth}, nil
			},
		},
		records: &MockRecordStore{},
	}

	session := &Session{UserAddress: common.HexToAddress("0x1")}
	session.SetBounds(decimal.NewFromInt(10), decimal.NewFromInt(1000))
	session.SetBalance(decimal.NewFromInt(500))

	f.orch = New(Config{
		Session:           session,
		Quoter:            f.quoter,
		Gate:              f.gate,
		Submitter:         f.submitter,
		Watcher:           f.watcher,
		Confirmers:        map[int64]exitwatch.Confirmer{137: &MockConfirmer{}},
		Records:           f.records,
		ConfirmationDepth: 1,
		OnTransition: func(from, to State) {
			f.mu.Lock()
			f.transitions = append(f.transitions, to)
			f.mu.Unlock()
		},
		Logger: zap.NewNop(),
	})

	require.NoError(t, f.orch.SetRoute("USDT", 1, 137, common.HexToAddress("0x2")))
	errs, err := f.orch.UpdateAmount("100")
	require.NoError(t, err)
	require.True(t, errs.Empty())

	return f
}

func TestExecute_HappyPath(t *testing.T) {
	f := newFixture(t)

	rec, err := f.orch.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, f.orch.State())
	assert.Equal(t, []State{
		StateValidating,
		StatePreDepositChecking,
		StateDepositing,
		StateDepositConfirming,
		StateExitWatching,
		StateExitConfirming,
		StateCompleted,
	}, f.seen())

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, depositHash, rec.Deposit.TxHash)
	assert.Equal(t, exitHash, rec.Exit.ExitHash)
	assert.Equal(t, "USDT", rec.Request.TokenSymbol)
	require.Len(t, f.records.saved, 1)
	assert.Equal(t, rec.ID, f.records.saved[0].ID)
}

func TestExecute_NoLiquidityStopsBeforeDeposit(t *testing.T) {
	f := newFixture(t)
	f.gate.CheckFunc = func(ctx context.Context, req *transfer.Request, user common.Address) (*transfer.Verdict, error) {
		return &transfer.Verdict{Code: transfer.VerdictNoLiquidity, Message: "pool drained"}, nil
	}

	_, err := f.orch.Execute(context.Background())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, KindGate, stageErr.Kind)
	assert.Equal(t, StatePreDepositChecking, stageErr.Stage)

	assert.Equal(t, StateErrored, f.orch.State())
	assert.Zero(t, f.submitter.submitCalls, "deposit must not be submitted without a feasible verdict")
}

func TestExecute_UserRejectionReturnsToIdle(t *testing.T) {
	f := newFixture(t)
	rejections := 0
	f.submitter.SubmitFunc = func(ctx context.Context, req *transfer.Request, contract common.Address) (common.Hash, error) {
		rejections++
		if rejections == 1 {
			return common.Hash{}, &wallet.RPCError{Code: wallet.CodeUserRejected, Message: "User rejected the request"}
		}
		return depositHash, nil
	}

	_, err := f.orch.Execute(context.Background())
	require.ErrorIs(t, err, ErrUserRejected)
	assert.Equal(t, StateIdle, f.orch.State())

	// nothing went on chain, a second attempt can run unchanged
	rec, err := f.orch.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, f.orch.State())
	assert.Equal(t, depositHash, rec.Deposit.TxHash)
}

func TestExecute_RefusedWhileInFlight(t *testing.T) {
	f := newFixture(t)

	release := make(chan struct{})
	started := make(chan struct{})
	f.submitter.SubmitFunc = func(ctx context.Context, req *transfer.Request, contract common.Address) (common.Hash, error) {
		close(started)
		<-release
		return depositHash, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Execute(context.Background())
		done <- err
	}()

	<-started
	_, err := f.orch.Execute(context.Background())
	assert.ErrorIs(t, err, ErrTransferInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestExecute_ValidationFailure(t *testing.T) {
	f := newFixture(t)
	errs, err := f.orch.UpdateAmount("5")
	require.NoError(t, err)
	require.True(t, errs.Has(validation.ErrAmountLtMin))

	_, err = f.orch.Execute(context.Background())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, KindValidation, stageErr.Kind)
	assert.Equal(t, StateErrored, f.orch.State())
	assert.Zero(t, f.gate.calls)
}

func TestExecute_ExitTimeout(t *testing.T) {
	f := newFixture(t)
	f.watcher.AwaitExitHashFunc = func(ctx context.Context, dh common.Hash, fromChainID int64) (common.Hash, error) {
		return common.Hash{}, fmt.Errorf("watch: %w", exitwatch.ErrExitTimeout)
	}

	_, err := f.orch.Execute(context.Background())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, KindTimeout, stageErr.Kind)
	assert.Equal(t, StateExitWatching, stageErr.Stage)
	assert.Equal(t, StateErrored, f.orch.State())
}

func TestUpdateAmount_InvalidatesQuote(t *testing.T) {
	f := newFixture(t)

	q, err := f.orch.RefreshQuote(context.Background())
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.NotNil(t, f.orch.Quote())

	_, err = f.orch.UpdateAmount("200")
	require.NoError(t, err)
	assert.Nil(t, f.orch.Quote(), "changing the amount must drop the quote")
}

func TestRefreshQuote_StaleResultDiscarded(t *testing.T) {
	f := newFixture(t)

	f.quoter.QuoteFunc = func(ctx context.Context, req *transfer.Request) (*transfer.FeeQuote, error) {
		// the amount changes while the quote is in flight
		if f.quoter.calls == 1 {
			_, err := f.orch.UpdateAmount("200")
			require.NoError(t, err)
		}
		return &transfer.FeeQuote{AmountToGet: req.Amount}, nil
	}

	_, err := f.orch.RefreshQuote(context.Background())
	require.ErrorIs(t, err, ErrQuoteStale)
	assert.Nil(t, f.orch.Quote())
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.gate.CheckFunc = func(ctx context.Context, req *transfer.Request, user common.Address) (*transfer.Verdict, error) {
		return nil, fmt.Errorf("backend down")
	}

	_, err := f.orch.Execute(context.Background())
	require.Error(t, err)
	require.Equal(t, StateErrored, f.orch.State())

	require.NoError(t, f.orch.Reset())
	assert.Equal(t, StateIdle, f.orch.State())
	assert.Nil(t, f.orch.Quote())
}

func TestCanDismiss(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.orch.CanDismiss(), "idle is dismissible")

	_, err := f.orch.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, f.orch.CanDismiss(), "completed is dismissible")
}

func TestExecute_RecordFailureDoesNotFailTransfer(t *testing.T) {
	f := newFixture(t)
	f.records.SaveFunc = func(ctx context.Context, rec *transfer.Record) error {
		return fmt.Errorf("db down")
	}

	rec, err := f.orch.Execute(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, StateCompleted, f.orch.State())
}
