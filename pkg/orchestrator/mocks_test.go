package orchestrator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lpbridge/middleware/pkg/exitwatch"
	"github.com/lpbridge/middleware/pkg/transfer"
)

// MockQuoter is a mock implementation of Quoter
type MockQuoter struct {
	QuoteFunc func(ctx context.Context, req *transfer.Request) (*transfer.FeeQuote, error)
	calls     int
}

func (m *MockQuoter) Quote(ctx context.Context, req *transfer.Request) (*transfer.FeeQuote, error) {
	m.calls++
	return m.QuoteFunc(ctx, req)
}

// MockGate is a mock implementation of GateChecker
type MockGate struct {
	CheckFunc func(ctx context.Context, req *transfer.Request, user common.Address) (*transfer.Verdict, error)
	calls     int
}

func (m *MockGate) Check(ctx context.Context, req *transfer.Request, user common.Address) (*transfer.Verdict, error) {
	m.calls++
	return m.CheckFunc(ctx, req, user)
}

// MockSubmitter is a mock implementation of DepositSubmitter
type MockSubmitter struct {
	SubmitFunc        func(ctx context.Context, req *transfer.Request, contract common.Address) (common.Hash, error)
	WaitConfirmedFunc func(ctx context.Context, srcChainID int64, hash common.Hash) (*transfer.DepositReceipt, error)
	submitCalls       int
}

func (m *MockSubmitter) Submit(ctx context.Context, req *transfer.Request, contract common.Address) (common.Hash, error) {
	m.submitCalls++
	return m.SubmitFunc(ctx, req, contract)
}

func (m *MockSubmitter) WaitConfirmed(ctx context.Context, srcChainID int64, hash common.Hash) (*transfer.DepositReceipt, error) {
	return m.WaitConfirmedFunc(ctx, srcChainID, hash)
}

// MockWatcher is a mock implementation of ExitWatcher
type MockWatcher struct {
	AwaitExitHashFunc func(ctx context.Context, depositHash common.Hash, fromChainID int64) (common.Hash, error)
	ConfirmExitFunc   func(ctx context.Context, confirmer exitwatch.Confirmer, exitHash common.Hash, depth uint64) (*transfer.ExitReceipt, error)
}

func (m *MockWatcher) AwaitExitHash(ctx context.Context, depositHash common.Hash, fromChainID int64) (common.Hash, error) {
	return m.AwaitExitHashFunc(ctx, depositHash, fromChainID)
}

func (m *MockWatcher) ConfirmExit(ctx context.Context, confirmer exitwatch.Confirmer, exitHash common.Hash, depth uint64) (*transfer.ExitReceipt, error) {
	return m.ConfirmExitFunc(ctx, confirmer, exitHash, depth)
}

// MockConfirmer is a mock implementation of exitwatch.Confirmer
type MockConfirmer struct {
	WaitForConfirmationFunc func(ctx context.Context, txHash common.Hash, depth uint64) (uint64, error)
}

func (m *MockConfirmer) WaitForConfirmation(ctx context.Context, txHash common.Hash, depth uint64) (uint64, error) {
	if m.WaitForConfirmationFunc != nil {
		return m.WaitForConfirmationFunc(ctx, txHash, depth)
	}
	return depth, nil
}

// MockRecordStore is a mock implementation of RecordStore
type MockRecordStore struct {
	SaveFunc func(ctx context.Context, rec *transfer.Record) error
	saved    []*transfer.Record
}

func (m *MockRecordStore) Save(ctx context.Context, rec *transfer.Record) error {
	m.saved = append(m.saved, rec)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, rec)
	}
	return nil
}
