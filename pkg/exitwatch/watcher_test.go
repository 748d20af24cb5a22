package exitwatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lpbridge/middleware/pkg/backend"
)

// MockStatusSource is a mock implementation of StatusSource
type MockStatusSource struct {
	CheckDepositStatusFunc func(ctx context.Context, depositHash string, fromChainID int64) (*backend.DepositStatusResponse, error)
	calls                  int
}

func (m *MockStatusSource) CheckDepositStatus(ctx context.Context, depositHash string, fromChainID int64) (*backend.DepositStatusResponse, error) {
	m.calls++
	return m.CheckDepositStatusFunc(ctx, depositHash, fromChainID)
}

// MockConfirmer is a mock implementation of Confirmer
type MockConfirmer struct {
	WaitForConfirmationFunc func(ctx context.Context, txHash common.Hash, depth uint64) (uint64, error)
}

func (m *MockConfirmer) WaitForConfirmation(ctx context.Context, txHash common.Hash, depth uint64) (uint64, error) {
	return m.WaitForConfirmationFunc(ctx, txHash, depth)
}

const exitHashHex = "0x00000000000000000000000000000000000000000000000000000000000000ee"

func TestAwaitExitHash(t *testing.T) {
	source := &MockStatusSource{}
	source.CheckDepositStatusFunc = func(ctx context.Context, depositHash string, fromChainID int64) (*backend.DepositStatusResponse, error) {
		if source.calls < 3 {
			return &backend.DepositStatusResponse{StatusCode: backend.DepositStatusPending}, nil
		}
		return &backend.DepositStatusResponse{
			StatusCode: backend.DepositStatusCompleted,
			ExitHash:   exitHashHex,
			ToChainID:  137,
		}, nil
	}

	w := NewWatcher(source, time.Millisecond, 10, zap.NewNop())
	hash, err := w.AwaitExitHash(context.Background(), common.HexToHash("0xdead"), 1)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash(exitHashHex), hash)
	assert.Equal(t, 3, source.calls)
}

func TestAwaitExitHash_TransientErrorsConsumedAsAttempts(t *testing.T) {
	source := &MockStatusSource{}
	source.CheckDepositStatusFunc = func(ctx context.Context, depositHash string, fromChainID int64) (*backend.DepositStatusResponse, error) {
		if source.calls == 1 {
			return nil, fmt.Errorf("backend hiccup")
		}
		return &backend.DepositStatusResponse{StatusCode: backend.DepositStatusCompleted, ExitHash: exitHashHex}, nil
	}

	w := NewWatcher(source, time.Millisecond, 10, zap.NewNop())
	_, err := w.AwaitExitHash(context.Background(), common.HexToHash("0xdead"), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestAwaitExitHash_TimesOutAfterExactBudget(t *testing.T) {
	source := &MockStatusSource{}
	source.CheckDepositStatusFunc = func(ctx context.Context, depositHash string, fromChainID int64) (*backend.DepositStatusResponse, error) {
		return &backend.DepositStatusResponse{StatusCode: backend.DepositStatusPending}, nil
	}

	w := NewWatcher(source, time.Millisecond, 300, zap.NewNop())
	_, err := w.AwaitExitHash(context.Background(), common.HexToHash("0xdead"), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExitTimeout)
	assert.Equal(t, 300, source.calls)
}

func TestAwaitExitHash_FailedDepositStopsImmediately(t *testing.T) {
	source := &MockStatusSource{}
	source.CheckDepositStatusFunc = func(ctx context.Context, depositHash string, fromChainID int64) (*backend.DepositStatusResponse, error) {
		return &backend.DepositStatusResponse{StatusCode: backend.DepositStatusFailed}, nil
	}

	w := NewWatcher(source, time.Millisecond, 300, zap.NewNop())
	_, err := w.AwaitExitHash(context.Background(), common.HexToHash("0xdead"), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDepositFailed)
	assert.Equal(t, 1, source.calls)
}

func TestAwaitExitHash_ContextCancel(t *testing.T) {
	source := &MockStatusSource{}
	source.CheckDepositStatusFunc = func(ctx context.Context, depositHash string, fromChainID int64) (*backend.DepositStatusResponse, error) {
		return &backend.DepositStatusResponse{StatusCode: backend.DepositStatusPending}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWatcher(source, time.Hour, 300, zap.NewNop())
	_, err := w.AwaitExitHash(ctx, common.HexToHash("0xdead"), 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConfirmExit(t *testing.T) {
	confirmer := &MockConfirmer{
		WaitForConfirmationFunc: func(ctx context.Context, txHash common.Hash, depth uint64) (uint64, error) {
			assert.Equal(t, uint64(1), depth)
			return 2, nil
		},
	}

	w := NewWatcher(&MockStatusSource{}, time.Millisecond, 1, zap.NewNop())
	receipt, err := w.ConfirmExit(context.Background(), confirmer, common.HexToHash(exitHashHex), 1)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash(exitHashHex), receipt.ExitHash)
	assert.Equal(t, uint64(2), receipt.ConfirmedBlockDepth)
}

func TestConfirmExit_ProviderFailureIsPermanent(t *testing.T) {
	confirmer := &MockConfirmer{
		WaitForConfirmationFunc: func(ctx context.Context, txHash common.Hash, depth uint64) (uint64, error) {
			return 0, fmt.Errorf("provider gone")
		},
	}

	w := NewWatcher(&MockStatusSource{}, time.Millisecond, 1, zap.NewNop())
	_, err := w.ConfirmExit(context.Background(), confirmer, common.HexToHash(exitHashHex), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider gone")
}
