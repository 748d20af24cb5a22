// Package chain is the EVM access layer: one client per configured network,
// wrapping the ethclient connection with the balance, pool and confirmation
// reads the orchestrator needs.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lpbridge/middleware/pkg/registry"
	"github.com/lpbridge/middleware/pkg/token"
)

// receiptPollInterval paces the confirmation wait loop.
const receiptPollInterval = 2 * time.Second

// Backend is the subset of ethclient the chain layer uses.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// ErrTxReverted is returned when a watched transaction mined with a failed
// status.
var ErrTxReverted = errors.New("transaction reverted")

// Client serves one configured network.
type Client struct {
	chain   *registry.Chain
	backend Backend
	logger  *zap.Logger
}

// Dial connects to the chain's configured RPC endpoint.
func Dial(chain *registry.Chain, logger *zap.Logger) (*Client, error) {
	backend, err := ethclient.Dial(chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", chain.Name, err)
	}
	return NewClient(chain, backend, logger), nil
}

// NewClient wraps an existing backend, used by tests and by Dial.
func NewClient(chain *registry.Chain, backend Backend, logger *zap.Logger) *Client {
	return &Client{chain: chain, backend: backend, logger: logger}
}

// ChainID returns the network id this client serves.
func (c *Client) ChainID() int64 { return c.chain.ChainID }

// Balance reads the account's balance of a token deployment in
// human-readable units.
func (c *Client) Balance(ctx context.Context, dep *registry.Deployment, account common.Address) (decimal.Decimal, error) {
	if dep.IsNative() {
		raw, err := c.backend.BalanceAt(ctx, account, nil)
		if err != nil {
			return decimal.Zero, fmt.Errorf("native balance on %s: %w", c.chain.Name, err)
		}
		return token.FromRawUnits(raw, c.chain.NativeDecimals), nil
	}

	raw, err := c.erc20BalanceOf(ctx, common.HexToAddress(dep.Address), account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("token balance on %s: %w", c.chain.Name, err)
	}
	return token.FromRawUnits(raw, dep.Decimals), nil
}

// WaitForConfirmation blocks until the transaction has mined and depth
// blocks have been produced on top of it, then returns the achieved depth.
// A reverted transaction is ErrTxReverted.
func (c *Client) WaitForConfirmation(ctx context.Context, txHash common.Hash, depth uint64) (uint64, error) {
	receipt, err := c.waitMined(ctx, txHash)
	if err != nil {
		return 0, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return 0, fmt.Errorf("%w: %s on %s", ErrTxReverted, txHash.Hex(), c.chain.Name)
	}

	minedAt := receipt.BlockNumber.Uint64()
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		head, err := c.backend.BlockNumber(ctx)
		if err != nil {
			return 0, fmt.Errorf("head block on %s: %w", c.chain.Name, err)
		}
		if head >= minedAt && head-minedAt >= depth {
			c.logger.Debug("Transaction confirmed",
				zap.String("chain", c.chain.Name),
				zap.String("hash", txHash.Hex()),
				zap.Uint64("depth", head-minedAt))
			return head - minedAt, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt for %s on %s: %w", txHash.Hex(), c.chain.Name, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
