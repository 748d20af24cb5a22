// Package exitwatch polls the backend for the destination-chain exit
// transaction correlated with a confirmed source-chain deposit, then waits
// for that exit to confirm.
package exitwatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/lpbridge/middleware/internal/metrics"
	"github.com/lpbridge/middleware/pkg/backend"
	"github.com/lpbridge/middleware/pkg/transfer"
)

// ErrExitTimeout is returned when the poll budget runs out before the exit
// transaction appears.
var ErrExitTimeout = errors.New("exit transaction not observed within poll budget")

// ErrDepositFailed is returned when the backend marks the deposit as failed
// on its side. Polling stops immediately.
var ErrDepositFailed = errors.New("deposit failed on backend")

// StatusSource is the backend poll the watcher depends on.
type StatusSource interface {
	CheckDepositStatus(ctx context.Context, depositHash string, fromChainID int64) (*backend.DepositStatusResponse, error)
}

// Confirmer waits for a destination-chain transaction to reach depth.
// *chain.Client satisfies it.
type Confirmer interface {
	WaitForConfirmation(ctx context.Context, txHash common.Hash, depth uint64) (uint64, error)
}

// Watcher detects and confirms the exit leg of a transfer. Transient poll
// failures are logged and consume an attempt; only a failed deposit or an
// exhausted budget ends the watch early.
type Watcher struct {
	source      StatusSource
	interval    time.Duration
	maxAttempts int
	logger      *zap.Logger
}

// NewWatcher creates an exit watcher polling at interval, giving up after
// maxAttempts polls.
func NewWatcher(source StatusSource, interval time.Duration, maxAttempts int, logger *zap.Logger) *Watcher {
	return &Watcher{
		source:      source,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// AwaitExitHash polls until the backend reports an exit hash for the
// deposit. Every poll, successful or not, consumes one attempt.
func (w *Watcher) AwaitExitHash(ctx context.Context, depositHash common.Hash, fromChainID int64) (common.Hash, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		resp, err := w.source.CheckDepositStatus(ctx, depositHash.Hex(), fromChainID)
		switch {
		case err != nil:
			w.logger.Warn("Deposit status poll failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
		case resp.StatusCode == backend.DepositStatusFailed:
			return common.Hash{}, fmt.Errorf("%w: deposit %s", ErrDepositFailed, depositHash.Hex())
		case resp.ExitHash != "":
			metrics.ExitPollAttempts.Observe(float64(attempt))
			w.logger.Info("Exit transaction observed",
				zap.String("exit_hash", resp.ExitHash),
				zap.Int("attempts", attempt))
			return common.HexToHash(resp.ExitHash), nil
		}

		if attempt == w.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		case <-ticker.C:
		}
	}

	metrics.ExitPollAttempts.Observe(float64(w.maxAttempts))
	return common.Hash{}, fmt.Errorf("%w: deposit %s after %d polls", ErrExitTimeout, depositHash.Hex(), w.maxAttempts)
}

// ConfirmExit waits for the exit transaction to reach depth blocks on the
// destination chain. A provider failure here is permanent; the exit has
// been observed, so the caller should surface the error rather than retry
// the transfer.
func (w *Watcher) ConfirmExit(ctx context.Context, confirmer Confirmer, exitHash common.Hash, depth uint64) (*transfer.ExitReceipt, error) {
	confirmed, err := confirmer.WaitForConfirmation(ctx, exitHash, depth)
	if err != nil {
		return nil, fmt.Errorf("confirm exit %s: %w", exitHash.Hex(), err)
	}

	return &transfer.ExitReceipt{
		ExitHash:            exitHash,
		ConfirmedBlockDepth: confirmed,
	}, nil
}
