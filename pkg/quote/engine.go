// Package quote derives the fee breakdown for a validated transfer request:
// the liquidity-provider fee taken by the destination pool, the transaction
// fee covering the bridge's gas on the source chain, and the reward subsidy
// for deposits that rebalance the pool.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lpbridge/middleware/internal/metrics"
	"github.com/lpbridge/middleware/pkg/registry"
	"github.com/lpbridge/middleware/pkg/token"
	"github.com/lpbridge/middleware/pkg/transfer"
)

// FeePercentageBase is the divisor for the pool's fee value: the contract
// reports the percentage scaled by 1e8.
const FeePercentageBase = 100_000_000

// ErrMissingPrerequisite marks a quote attempt whose chain, token or amount
// context is absent. No network call is made in that case.
var ErrMissingPrerequisite = errors.New("quote prerequisite missing")

// ErrAmountTooLow marks an amount whose fees meet or exceed it.
var ErrAmountTooLow = errors.New("amount too low to cover fees")

// PoolReader reads fee and reward values from a chain's liquidity pool
// contract.
type PoolReader interface {
	GetTransferFee(ctx context.Context, chainID int64, tokenAddress common.Address, rawAmount *big.Int) (*big.Int, error)
	GetRewardAmount(ctx context.Context, chainID int64, rawAmount *big.Int, tokenAddress common.Address) (*big.Int, error)
}

// GasPriceSource provides the oracle gas price for a token on a network,
// in raw token units per unit of gas.
type GasPriceSource interface {
	TokenGasPrice(ctx context.Context, tokenAddress string, networkID int64) (decimal.Decimal, error)
}

// Engine computes fee quotes. A quote is pure output: the same request
// against unchanged pool and oracle state yields an identical quote, and
// nothing is memoized across calls.
type Engine struct {
	registry *registry.Registry
	pools    PoolReader
	gas      GasPriceSource
	logger   *zap.Logger
}

// NewEngine creates a fee quote engine.
func NewEngine(reg *registry.Registry, pools PoolReader, gas GasPriceSource, logger *zap.Logger) *Engine {
	return &Engine{registry: reg, pools: pools, gas: gas, logger: logger}
}

// Quote derives the fee breakdown for req. Prerequisites are checked before
// any network call; oracle or pool failures surface as wrapped errors.
func (e *Engine) Quote(ctx context.Context, req *transfer.Request) (*transfer.FeeQuote, error) {
	srcChain := e.registry.Chain(req.SourceChainID)
	srcDep := e.registry.Deployment(req.TokenSymbol, req.SourceChainID)
	dstDep := e.registry.Deployment(req.TokenSymbol, req.DestChainID)

	switch {
	case req.Amount.Sign() <= 0:
		return nil, fmt.Errorf("%w: no amount", ErrMissingPrerequisite)
	case srcChain == nil:
		return nil, fmt.Errorf("%w: unknown source chain %d", ErrMissingPrerequisite, req.SourceChainID)
	case srcDep == nil:
		return nil, fmt.Errorf("%w: %s not deployed on chain %d", ErrMissingPrerequisite, req.TokenSymbol, req.SourceChainID)
	case dstDep == nil:
		return nil, fmt.Errorf("%w: %s not deployed on chain %d", ErrMissingPrerequisite, req.TokenSymbol, req.DestChainID)
	}

	// LP fee comes from the destination pool, quoted against the raw
	// amount in destination units.
	destRaw := token.ToRawUnits(req.Amount, dstDep.Decimals)
	feeRaw, err := e.pools.GetTransferFee(ctx, req.DestChainID, common.HexToAddress(dstDep.Address), destRaw)
	if err != nil {
		return nil, fmt.Errorf("transfer fee: %w", err)
	}
	feePct := decimal.NewFromBigInt(feeRaw, 0).Div(decimal.NewFromInt(FeePercentageBase))
	lpFee := token.FixedRound(req.Amount.Mul(feePct).Div(decimal.NewFromInt(100)))

	// Transaction fee: oracle gas price times the source chain's fixed
	// per-transfer gas overhead, scaled back to human units.
	gasPrice, err := e.gas.TokenGasPrice(ctx, srcDep.Address, req.SourceChainID)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	overhead := decimal.NewFromInt(srcChain.TransferGasOverhead)
	txFee := token.FixedRound(gasPrice.Mul(overhead).Shift(-srcDep.Decimals))

	// Reward is quoted against the raw amount in source units and only
	// included when positive.
	srcRaw := token.ToRawUnits(req.Amount, srcDep.Decimals)
	rewardRaw, err := e.pools.GetRewardAmount(ctx, req.SourceChainID, srcRaw, common.HexToAddress(srcDep.Address))
	if err != nil {
		return nil, fmt.Errorf("reward amount: %w", err)
	}
	reward := decimal.Zero
	if rewardRaw.Sign() > 0 {
		reward = token.FixedRound(token.FromRawUnits(rewardRaw, srcDep.Decimals))
	}

	amountToGet := token.FixedRound(req.Amount.Sub(txFee).Sub(lpFee).Add(reward))
	if amountToGet.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s after %s fees", ErrAmountTooLow,
			token.FormatFixed(req.Amount), token.FormatFixed(txFee.Add(lpFee)))
	}

	metrics.QuotesTotal.WithLabelValues(req.TokenSymbol).Inc()

	e.logger.Debug("Fee quote computed",
		zap.String("token", req.TokenSymbol),
		zap.String("amount", req.Amount.String()),
		zap.String("lp_fee", lpFee.String()),
		zap.String("transaction_fee", txFee.String()),
		zap.String("reward", reward.String()),
		zap.String("amount_to_get", amountToGet.String()))

	return &transfer.FeeQuote{
		LPFee:          lpFee,
		TransactionFee: txFee,
		RewardAmount:   reward,
		AmountToGet:    amountToGet,
		FeePercentage:  feePct,
	}, nil
}
